package cache

import "sync"

// Memory is the tier-1 cache. It lives as long as the value holding it and is
// only emptied by Clear.
type Memory struct {
	mu    sync.RWMutex
	items map[string]any
}

// NewMemory constructs an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{items: map[string]any{}}
}

func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.items[key]
	return value, ok
}

func (m *Memory) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = map[string]any{}
	}
	m.items[key] = value
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = map[string]any{}
}

// Len reports the number of cached keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
