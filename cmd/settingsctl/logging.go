package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// newLogger builds a text logger on stderr, fanned out to a JSON log file
// when one is configured. The returned closer releases the file.
func newLogger(cfg LogConfig, stderr io.Writer) (*slog.Logger, func() error, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(cfg.Level))); err != nil {
		return nil, nil, fmt.Errorf("log.level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	console := slog.NewTextHandler(stderr, opts)

	if strings.TrimSpace(cfg.File) == "" {
		return slog.New(console), func() error { return nil }, nil
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("log.file: %w", err)
	}
	logger := slog.New(slogmulti.Fanout(
		console,
		slog.NewJSONHandler(file, opts),
	))
	return logger, file.Close, nil
}
