package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLogger_LineFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelDebug)

	l.Info("scanner", "scan complete", F("files", 12), F("run", "abc"))
	l.Error("api", "parse failed", errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], " [INFO] [scanner] scan complete | files=12 | run=abc")
	assert.Contains(t, lines[1], " [ERROR] [api] parse failed | error=boom")
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelWarn)

	l.Debug("x", "hidden")
	l.Info("x", "hidden")
	l.Warn("x", "shown")

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "shown")

	l.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, l.GetLevel())
}

func TestLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "animeparse.log")
	l, err := New(Config{Level: "info", File: path, MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)

	l.Info("test", "hello", F("k", "v"))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] [test] hello | k=v")
	assert.Equal(t, path, l.FilePath())
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("x", "nothing", errors.New("ignored"))
	assert.NoError(t, l.Close())
	assert.Empty(t, l.FilePath())
}
