package log

import (
	"io"
	"log/slog"

	gethlog "github.com/ethereum/go-ethereum/log"
	slogmulti "github.com/samber/slog-multi"
)

// NewTerminalHandlerWithLevel returns a human readable handler that drops
// records below lvl.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl slog.Level, useColor bool) slog.Handler {
	return gethlog.NewTerminalHandlerWithLevel(wr, lvl, useColor)
}

// JSONHandlerWithLevel writes one JSON object per record.
func JSONHandlerWithLevel(wr io.Writer, lvl slog.Level) slog.Handler {
	return gethlog.JSONHandlerWithLevel(wr, lvl)
}

func DiscardHandler() slog.Handler {
	return gethlog.DiscardHandler()
}

// FanoutHandler duplicates every record to all handlers.
func FanoutHandler(handlers ...slog.Handler) slog.Handler {
	return slogmulti.Fanout(handlers...)
}
