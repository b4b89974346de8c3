package log

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// Trace and Crit sit outside slog's built-in levels.
const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelCrit  slog.Level = 12
)

// Logger emits module-tagged records.
type Logger interface {
	With(kv ...any) Logger
	Write(level slog.Level, module string, msg string, kv ...any)

	Trace(module string, msg string, kv ...any)
	Debug(module string, msg string, kv ...any)
	Info(module string, msg string, kv ...any)
	Warn(module string, msg string, kv ...any)
	Error(module string, msg string, kv ...any)
	// Crit logs and exits the process.
	Crit(module string, msg string, kv ...any)
}

type logger struct {
	inner *slog.Logger
}

func NewLogger(h slog.Handler) Logger {
	return &logger{inner: slog.New(h)}
}

// Write records msg with the caller of the public logging function as source
// and the module under the "mod" key.
func (l *logger) Write(level slog.Level, module string, msg string, kv ...any) {
	ctx := context.Background()
	if !l.inner.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	if module != "" {
		r.AddAttrs(slog.String("mod", module))
	}
	r.Add(kv...)
	_ = l.inner.Handler().Handle(ctx, r)
}

func (l *logger) With(kv ...any) Logger {
	return &logger{l.inner.With(kv...)}
}

func (l *logger) Trace(module string, msg string, kv ...any) { l.Write(LevelTrace, module, msg, kv...) }
func (l *logger) Debug(module string, msg string, kv ...any) { l.Write(LevelDebug, module, msg, kv...) }
func (l *logger) Info(module string, msg string, kv ...any)  { l.Write(LevelInfo, module, msg, kv...) }
func (l *logger) Warn(module string, msg string, kv ...any)  { l.Write(LevelWarn, module, msg, kv...) }
func (l *logger) Error(module string, msg string, kv ...any) { l.Write(LevelError, module, msg, kv...) }

func (l *logger) Crit(module string, msg string, kv ...any) {
	l.Write(LevelCrit, module, msg, kv...)
	os.Exit(1)
}
