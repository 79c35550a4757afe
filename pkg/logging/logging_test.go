package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out))
	return out
}

func TestLogger_Debug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelDebug)
	logger.SetOutput(&buf)

	logger.Debug("row dropped", map[string]any{"tab": "Temperature Log"})

	entry := decodeLine(t, &buf)
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "row dropped", entry["message"])
	assert.Equal(t, "Temperature Log", entry["tab"])
	assert.Contains(t, entry, "timestamp")
}

func TestLogger_DebugFiltered(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	logger.Debug("test message")

	assert.Zero(t, buf.Len())
}

func TestLogger_WarnFilteredAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelError)
	logger.SetOutput(&buf)

	logger.Warn("queue growing")
	assert.Zero(t, buf.Len())

	logger.Error("pull failed")
	assert.Equal(t, "error", decodeLine(t, &buf)["level"])
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	child := logger.WithFields(map[string]any{"component": "sync"})
	child.Info("pull complete", map[string]any{"merged": 3})

	entry := decodeLine(t, &buf)
	assert.Equal(t, "sync", entry["component"])
	assert.EqualValues(t, 3, entry["merged"])

	buf.Reset()
	logger.Info("parent untouched")
	assert.NotContains(t, decodeLine(t, &buf), "component")
}

func TestLogger_ErrorErr(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	logger.ErrorErr("push failed", errors.New("connection refused"), map[string]any{"record_id": "abc"})

	entry := decodeLine(t, &buf)
	assert.Equal(t, "connection refused", entry["error"])
	assert.Equal(t, "abc", entry["record_id"])
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)
	logger.SetFormat(FormatText)

	logger.Info("queued", map[string]any{"pending": 2})

	out := buf.String()
	assert.True(t, strings.Contains(out, "msg=queued"), out)
	assert.Contains(t, out, "pending=2")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	original := global
	defer SetGlobal(original)

	l := NewLogger(LevelDebug)
	l.SetOutput(&buf)
	SetGlobal(l)

	Info("hello", map[string]any{"k": "v"})
	assert.Equal(t, "hello", decodeLine(t, &buf)["message"])
}
