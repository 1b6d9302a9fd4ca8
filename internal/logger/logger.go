package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogFormat defines the available log formats
type LogFormat string

const (
	// FormatJSON is the JSON format
	FormatJSON LogFormat = "json"
	// FormatConsole is the console format
	FormatConsole LogFormat = "console"
)

// ParseLogFormat parses a string into a LogFormat, defaulting to console
func ParseLogFormat(format string) LogFormat {
	switch strings.ToLower(format) {
	case "json":
		return FormatJSON
	default:
		return FormatConsole
	}
}

// Config holds the configuration for the logger
type Config struct {
	// Level is the log level (debug, info, warn, error)
	Level string
	// Format is the log format (json, console)
	Format LogFormat
	// Output is the output writer (default: os.Stderr)
	Output io.Writer
}

// Logger wraps zerolog.Logger
type Logger struct {
	zerolog.Logger
}

var (
	mu     sync.RWMutex
	global *Logger

	defaultConfig = Config{
		Level:  "warn",
		Format: FormatConsole,
	}
)

// Setup replaces the global logger
func Setup(cfg Config) {
	l := newLogger(cfg)
	mu.Lock()
	global = l
	mu.Unlock()
}

// Get returns the global logger, creating a default one on first use
func Get() *Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		global = newLogger(defaultConfig)
	}
	return global
}

// WithComponent returns a child logger tagged with the component name
func WithComponent(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// ResetForTesting drops the global logger
func ResetForTesting() {
	mu.Lock()
	global = nil
	mu.Unlock()
}

func newLogger(cfg Config) *Logger {
	level := zerolog.WarnLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil {
			level = parsed
		}
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: !isTerminal(out)}
	}

	zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &Logger{Logger: zl}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
