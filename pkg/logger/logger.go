package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects the slog handler used by the storefront.
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // json, text
	Output    string // stdout, stderr, or a file path
	Component string
}

// Logger wraps slog.Logger and remembers the writer it owns.
type Logger struct {
	*slog.Logger
	output io.Writer
}

// New builds a Logger. Unknown levels fall back to info, unknown formats to
// json, and an unopenable file to stderr.
func New(cfg Config) *Logger {
	var out io.Writer
	switch cfg.Output {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			out = os.Stderr
		} else {
			out = f
		}
	}
	return NewWithWriter(cfg, out)
}

// NewWithWriter is New with an explicit destination, mainly for tests.
func NewWithWriter(cfg Config, out io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	l := slog.New(handler)
	if cfg.Component != "" {
		l = l.With("component", cfg.Component)
	}
	return &Logger{Logger: l, output: out}
}

// Discard returns a Logger that writes nowhere.
func Discard() *Logger {
	return NewWithWriter(Config{Level: "error"}, io.Discard)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent returns a child logger tagged with component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component), output: l.output}
}

// Close closes the output if the logger opened a file.
func (l *Logger) Close() error {
	if f, ok := l.output.(*os.File); ok && f != os.Stdout && f != os.Stderr {
		return f.Close()
	}
	return nil
}
