package settings

import (
	"context"
	"fmt"

	"github.com/goliatone/go-settings/internal/hydrate"
	"github.com/goliatone/go-settings/layering"
)

// BindOption configures Bind.
type BindOption[T any] func(*bindConfig[T])

type bindConfig[T any] struct {
	decoder []hydrate.DecoderOption[T]
}

// BindStrict rejects keys that have no matching struct field.
func BindStrict[T any]() BindOption[T] {
	return func(cfg *bindConfig[T]) {
		cfg.decoder = append(cfg.decoder, hydrate.WithDisallowUnknownFields[T]())
	}
}

// BindUseNumber decodes numbers into interface fields as json.Number.
func BindUseNumber[T any]() BindOption[T] {
	return func(cfg *bindConfig[T]) {
		cfg.decoder = append(cfg.decoder, hydrate.WithUseNumber[T]())
	}
}

// BindDefaults fills keys missing from the stored sub-tree from defaults.
func BindDefaults[T any](defaults map[string]any) BindOption[T] {
	return func(cfg *bindConfig[T]) {
		cfg.decoder = append(cfg.decoder, hydrate.WithPreHook[T](func(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
			return layering.MergeLayers(payload, defaults), nil
		}))
	}
}

// BindCheck runs check against the decoded value.
func BindCheck[T any](check func(*T) error) BindOption[T] {
	return func(cfg *bindConfig[T]) {
		if check == nil {
			return
		}
		cfg.decoder = append(cfg.decoder, hydrate.WithPostHook[T](func(_ hydrate.Context, value *T) error {
			return check(value)
		}))
	}
}

// Bind decodes the mapping stored at path into T using json struct tags.
func Bind[T any](ctx context.Context, s *Store, path string, opts ...BindOption[T]) (T, error) {
	var zero T
	p := ParsePath(path)
	if p.IsZero() {
		return zero, ErrEmptyPath
	}

	cfg := bindConfig[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	value := s.Get(ctx, p.String(), nil)
	if value == nil {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	payload, ok := value.(map[string]any)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ErrNotMapping, p, value)
	}
	return hydrate.NewDecoder(cfg.decoder...).Decode(hydrate.Context{Store: s.name, Path: p.String()}, payload)
}
