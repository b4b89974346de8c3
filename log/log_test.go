package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureJSON(t *testing.T, lvl string) *bytes.Buffer {
	t.Helper()
	level, err := ParseLevel(lvl)
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	prev := Root()
	SetDefault(NewLogger(JSONHandlerWithLevel(buf, level)))
	t.Cleanup(func() { SetDefault(prev) })
	return buf
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warning")
	require.NoError(t, err)
	require.Equal(t, LevelWarn, lvl)

	lvl, err = ParseLevel("TRACE")
	require.NoError(t, err)
	require.Equal(t, LevelTrace, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestModuleFiltering(t *testing.T) {
	buf := captureJSON(t, "trace")

	DisableModule(TracerMonitoring)
	Debug(TracerMonitoring, "hidden")
	require.Zero(t, buf.Len())

	EnableModules(" tracer_mod ,")
	t.Cleanup(func() { DisableModule(TracerMonitoring) })
	Debug(TracerMonitoring, "shown", "pc", 7)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "shown", rec["msg"])
	require.Equal(t, TracerMonitoring, rec["mod"])
	require.EqualValues(t, 7, rec["pc"])
}

func TestInfoIgnoresModuleSwitch(t *testing.T) {
	buf := captureJSON(t, "info")
	DisableModule(RunnerMonitoring)
	Info(RunnerMonitoring, "listening", "addr", ":3000")
	Debug(RunnerMonitoring, "dropped")
	require.Equal(t, 1, strings.Count(buf.String(), "\n"))
	require.Contains(t, buf.String(), "listening")
}

func TestFanoutHandler(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	l := NewLogger(FanoutHandler(JSONHandlerWithLevel(a, LevelInfo), JSONHandlerWithLevel(b, LevelError)))
	l.Info(CLIMonitoring, "only a")
	l.Error(CLIMonitoring, "both")
	require.Equal(t, 2, strings.Count(a.String(), "\n"))
	require.Equal(t, 1, strings.Count(b.String(), "\n"))
}

func TestWithCarriesAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(JSONHandlerWithLevel(buf, LevelInfo)).With("req", "abc")
	l.Warn(RunnerMonitoring, "slow run", "ms", 1500)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "abc", rec["req"])
	require.Equal(t, RunnerMonitoring, rec["mod"])
	require.EqualValues(t, 1500, rec["ms"])
}
