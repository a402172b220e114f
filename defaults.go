package settings

import (
	"context"
	"strings"

	"github.com/goliatone/go-settings/layering"
)

// RegisterDefaults records the default values of group in the defaults
// registry, persisted under its own slot. Registering a group again replaces
// its previous defaults.
func (s *Store) RegisterDefaults(ctx context.Context, group string, values map[string]any) error {
	group = strings.TrimSpace(group)
	if group == "" {
		return ErrEmptyPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	registry, err := s.readTree(ctx, s.defaultsKey())
	if err != nil {
		return err
	}
	registry[group] = layering.CloneTree(values)
	return s.writeTree(ctx, s.defaultsKey(), registry)
}

// Defaults returns the registered defaults of group, or the whole registry
// when group is empty.
func (s *Store) Defaults(ctx context.Context, group string) (map[string]any, error) {
	registry, err := s.loadDefaults(ctx)
	if err != nil {
		return nil, err
	}
	group = strings.TrimSpace(group)
	if group == "" {
		return registry, nil
	}
	values, ok := registry[group].(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return values, nil
}

func (s *Store) loadDefaults(ctx context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readTree(ctx, s.defaultsKey())
}
