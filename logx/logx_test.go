package logx

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatRequestLine_NoColorAndSortedFields(t *testing.T) {
	ts := time.Date(2026, 1, 26, 17, 44, 22, 0, time.UTC)
	line := FormatRequestLine(ts, 429, 12*time.Millisecond, " 127.0.0.1 ", "POST", "/api/gemini", map[string]any{
		"variant":         "public-key-v1",
		"request_id":      "rid-1",
		"upstream_status": 429,
		"empty":           "  ",
		"nil":             nil,
	}, false)

	require.Equal(t,
		`[GP] 2026/01/26 - 17:44:22 | 429 | 12ms | 127.0.0.1 | POST "/api/gemini" | request_id=rid-1 upstream_status=429 variant=public-key-v1`,
		line)
}

func TestColorizeStatus(t *testing.T) {
	require.Equal(t, "200", ColorizeStatus(200, false))
	require.Equal(t, green+"204"+reset, ColorizeStatus(204, true))
	require.Equal(t, yellow+"429"+reset, ColorizeStatus(429, true))
	require.Equal(t, red+"500"+reset, ColorizeStatus(500, true))
}

func TestDefaultLogger_LevelFilter(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLogger(&out, &errOut, LevelInfo, false)

	l.Debug("hidden")
	l.Info("shown", 1)
	l.Error("boom")

	require.NotContains(t, out.String(), "hidden")
	require.Contains(t, out.String(), "[INFO] ")
	require.Contains(t, out.String(), "shown 1")
	require.True(t, strings.HasPrefix(errOut.String(), "[ERROR] "))
	// Lshortfile 指向调用方
	require.Contains(t, out.String(), "logx_test.go")

	out.Reset()
	l.SetLevel(LevelDebug)
	l.Debug("visible")
	require.Contains(t, out.String(), "[DEBUG] ")
}

func TestParseLevel(t *testing.T) {
	lv, ok := ParseLevel(" DEBUG ")
	require.True(t, ok)
	require.Equal(t, LevelDebug, lv)

	lv, ok = ParseLevel("")
	require.True(t, ok)
	require.Equal(t, LevelInfo, lv)

	_, ok = ParseLevel("verbose")
	require.False(t, ok)
}
