package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is a minimal in-memory Backend intended for tests, examples and
// request-scoped tooling. Blobs are copied on the way in and out.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{records: map[string][]byte{}}
}

func (m *Memory) Read(_ context.Context, key string) ([]byte, bool, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	blob, ok := m.records[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return cloneBlob(blob), true, nil
}

func (m *Memory) Write(_ context.Context, key string, blob []byte) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.records[key] = cloneBlob(blob)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.records, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.records))
	for key := range m.records {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	return keys, nil
}

func cloneBlob(blob []byte) []byte {
	if blob == nil {
		return nil
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out
}
