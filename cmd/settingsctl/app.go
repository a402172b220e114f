package main

import (
	"context"
	"io"
	"log/slog"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/cache"
	"github.com/goliatone/go-settings/pkg/activity"
	"github.com/hashicorp/go-multierror"
)

// app holds the store and the resources opened for one invocation.
type app struct {
	cfg     *Config
	store   *settings.Store
	logger  *slog.Logger
	out     io.Writer
	closers []func() error
}

func newApp(ctx context.Context, configPath string, out, errOut io.Writer) (*app, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := newLogger(cfg.Log, errOut)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, out: out, closers: []func() error{closeLog}}

	backend, closeBackend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeBackend)

	diagnostics := settings.NewSlogLogger(logger)
	a.store = settings.New(backend,
		settings.WithName(cfg.Store.Name),
		settings.WithOrigin(cfg.Store.Origin),
		settings.WithLogger(diagnostics),
		settings.WithCache(cache.NewLayered(
			cache.NewMemory(),
			cache.NewTTL(cfg.Store.Name, cfg.Cache.TTL),
		)),
		settings.WithActivityHooks(activity.Hooks{activity.HookFunc(a.logEvent)}),
	)
	return a, nil
}

func (a *app) logEvent(ctx context.Context, event activity.Event) error {
	attrs := []slog.Attr{
		slog.String("verb", event.Verb),
		slog.String("object", event.ObjectID),
	}
	if actor := event.ActorID; actor != "" {
		attrs = append(attrs, slog.String("actor", actor))
	}
	a.logger.LogAttrs(ctx, slog.LevelInfo, "settings changed", attrs...)
	return nil
}

// Close releases every opened resource, newest first.
func (a *app) Close() error {
	var result *multierror.Error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	a.closers = nil
	return result.ErrorOrNil()
}
