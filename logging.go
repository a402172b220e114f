package settings

import (
	"context"
	"log/slog"
	"sort"
)

// Diagnostic is an advisory message for operators. Diagnostics never influence
// control flow.
type Diagnostic struct {
	Message string
	Level   slog.Level
	Fields  map[string]any
}

// Logger records diagnostics.
type Logger interface {
	Log(Diagnostic)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(Diagnostic)

// Log implements Logger.
func (f LoggerFunc) Log(d Diagnostic) {
	if f != nil {
		f(d)
	}
}

type noopLogger struct{}

func (noopLogger) Log(Diagnostic) {}

type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger bridges diagnostics to a slog logger. Fields become attributes
// in key order.
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return slogLogger{logger: logger}
}

func (l slogLogger) Log(d Diagnostic) {
	keys := make([]string, 0, len(d.Fields))
	for key := range d.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys))
	for _, key := range keys {
		attrs = append(attrs, slog.Any(key, d.Fields[key]))
	}
	l.logger.LogAttrs(context.Background(), d.Level, d.Message, attrs...)
}

// WithLogger attaches a diagnostics logger to the store.
func WithLogger(logger Logger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
