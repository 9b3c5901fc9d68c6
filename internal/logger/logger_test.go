package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	l.Info("database", "connected")
	l.LogRental("CREATE", "log-1", "saved")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "DATABASE", entry.Category)
	assert.Equal(t, "connected", entry.Message)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "RENTAL", entry.Category)
	assert.Equal(t, "[CREATE] log-1 - saved", entry.Message)
}

func TestSetLevelDropsLowerEntries(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)
	l.SetLevel("warn")

	l.Debug("APP", "debug")
	l.Info("APP", "info")
	l.Warn("APP", "warn")
	l.Error("APP", "error")

	out := buf.String()
	assert.NotContains(t, out, `"message":"debug"`)
	assert.NotContains(t, out, `"message":"info"`)
	assert.Contains(t, out, `"message":"warn"`)
	assert.Contains(t, out, `"message":"error"`)
}

func TestRotatingLoggerWritesToFile(t *testing.T) {
	dir := t.TempDir()
	l := NewRotatingLogger(FileOptions{Dir: dir, MaxSizeMB: 1})
	l.out = nil
	l.Warn("cache", "redis unavailable")
	l.Close()

	data, err := os.ReadFile(filepath.Join(dir, "rental-location.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"category":"CACHE"`)
	assert.Contains(t, string(data), `"message":"redis unavailable"`)
}
