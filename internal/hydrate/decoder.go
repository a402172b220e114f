// Package hydrate decodes settings sub-trees into typed structs.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-settings/layering"
)

// Context identifies the sub-tree being decoded.
type Context struct {
	Store string
	Path  string
}

func (c Context) String() string {
	if c.Store == "" {
		return c.Path
	}
	return c.Store + ":" + c.Path
}

// PreHook may rewrite the payload before decoding. Returning nil keeps the
// current payload.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook inspects or adjusts the decoded value.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts settings sub-trees into T through their JSON form, so
// struct fields are matched by json tags.
type Decoder[T any] struct {
	preHooks      []PreHook
	postHooks     []PostHook[T]
	useNumber     bool
	disallowExtra bool
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.preHooks = append(d.preHooks, hook)
		}
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.postHooks = append(d.postHooks, hook)
		}
	}
}

// WithUseNumber decodes numbers into interface fields as json.Number.
func WithUseNumber[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.useNumber = true
	}
}

// WithDisallowUnknownFields rejects keys with no matching struct field.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.disallowExtra = true
	}
}

// NewDecoder builds a Decoder from opts.
func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts payload into T. The payload is cloned first so hooks may
// mutate it freely.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T

	if payload == nil {
		return zero, fmt.Errorf("hydrate: payload is nil for %q", ctx)
	}

	current := layering.CloneTree(payload)
	for _, hook := range d.preHooks {
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for %q failed: %w", ctx, err)
		}
		if next != nil {
			current = next
		}
	}

	buffer, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("hydrate: marshal %q: %w", ctx, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	if d.useNumber {
		decoder.UseNumber()
	}
	if d.disallowExtra {
		decoder.DisallowUnknownFields()
	}

	var result T
	if err := decoder.Decode(&result); err != nil {
		return zero, fmt.Errorf("hydrate: decode %q: %w", ctx, err)
	}

	for _, hook := range d.postHooks {
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %q failed: %w", ctx, err)
		}
	}
	return result, nil
}
