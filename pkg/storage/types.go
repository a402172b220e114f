package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyKey is returned when a slot name is blank.
var ErrEmptyKey = errors.New("storage: key is required")

// Backend persists blobs in named slots.
type Backend interface {
	// Read returns the blob stored under key. ok is false when the slot is absent.
	Read(ctx context.Context, key string) (blob []byte, ok bool, err error)
	// Write replaces the blob stored under key.
	Write(ctx context.Context, key string, blob []byte) error
	// Delete removes the slot. Deleting an absent slot is not an error.
	Delete(ctx context.Context, key string) error
	// List returns slot names that start with prefix, sorted ascending.
	List(ctx context.Context, prefix string) ([]string, error)
}

func normalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrEmptyKey
	}
	return key, nil
}
