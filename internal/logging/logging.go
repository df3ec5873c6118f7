// Package logging provides component-tagged structured logging with file
// output and size-based rotation.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Nomadcxx/animeparse/internal/paths"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents a logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is a key-value pair attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Config holds logger configuration
type Config struct {
	Level      string `mapstructure:"level" toml:"level" validate:"oneof=debug info warn warning error"`
	File       string `mapstructure:"file" toml:"file"` // empty = ~/.config/animeparse/logs/animeparse.log
	MaxSizeMB  int    `mapstructure:"max_size_mb" toml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress" toml:"compress"`
	// Console mirrors log lines to stderr. Stdout is left to command output.
	Console bool `mapstructure:"console" toml:"console"`
}

func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 5,
		Console:    true,
	}
}

// Logger writes one line per entry:
//
//	2025-01-02T15:04:05Z [INFO] [scanner] scan complete | files=12
type Logger struct {
	level   Level
	mu      sync.Mutex
	out     io.Writer
	rotator *lumberjack.Logger
}

// New creates a Logger writing to the configured file, rotated by
// lumberjack, and optionally to stderr.
func New(cfg Config) (*Logger, error) {
	file := cfg.File
	if file == "" {
		p, err := paths.LogPath()
		if err != nil {
			return nil, fmt.Errorf("unable to resolve log path: %w", err)
		}
		file = p
	}
	file, err := paths.Expand(file)
	if err != nil {
		return nil, fmt.Errorf("unable to expand log path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}

	maxSize := cfg.MaxSizeMB
	if maxSize == 0 {
		maxSize = 10
	}
	maxBackups := cfg.MaxBackups
	if maxBackups == 0 {
		maxBackups = 5
	}

	rotator := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   cfg.Compress,
	}

	var out io.Writer = rotator
	if cfg.Console {
		out = io.MultiWriter(os.Stderr, rotator)
	}

	return &Logger{
		level:   ParseLevel(cfg.Level),
		out:     out,
		rotator: rotator,
	}, nil
}

// NewWriter creates a Logger writing only to w.
func NewWriter(w io.Writer, level Level) *Logger {
	return &Logger{level: level, out: w}
}

func (l *Logger) log(level Level, component, msg string, err error, fields ...Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level || l.out == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(time.Now().Format(time.RFC3339))
	sb.WriteString(" [")
	sb.WriteString(level.String())
	sb.WriteString("] [")
	sb.WriteString(component)
	sb.WriteString("] ")
	sb.WriteString(msg)

	if err != nil {
		sb.WriteString(" | error=")
		sb.WriteString(err.Error())
	}
	for _, f := range fields {
		sb.WriteString(" | ")
		sb.WriteString(f.Key)
		sb.WriteString("=")
		sb.WriteString(fmt.Sprintf("%v", f.Value))
	}
	sb.WriteString("\n")

	if _, werr := io.WriteString(l.out, sb.String()); werr != nil {
		fmt.Fprintf(os.Stderr, "log write error: %v\n", werr)
	}
}

func (l *Logger) Debug(component, msg string, fields ...Field) {
	l.log(LevelDebug, component, msg, nil, fields...)
}

func (l *Logger) Info(component, msg string, fields ...Field) {
	l.log(LevelInfo, component, msg, nil, fields...)
}

func (l *Logger) Warn(component, msg string, fields ...Field) {
	l.log(LevelWarn, component, msg, nil, fields...)
}

// Error logs msg together with err.
func (l *Logger) Error(component, msg string, err error, fields ...Field) {
	l.log(LevelError, component, msg, err, fields...)
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

func (l *Logger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// FilePath returns the log file path, empty for writer-only loggers.
func (l *Logger) FilePath() string {
	if l.rotator == nil {
		return ""
	}
	return l.rotator.Filename
}

// Nop returns a logger that discards all output.
func Nop() *Logger {
	return &Logger{level: LevelError + 1}
}
