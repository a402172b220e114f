package settings

import (
	"fmt"
	"sync"
)

// Function is a helper callable from expression rules, such as
// validate(rule, value).
type Function func(args ...any) (any, error)

// FunctionRegistry holds the helpers expression rules may call. Names are
// normalized like rule names. Evaluators keep a clone, so helpers added later
// are not visible to an evaluator that already exists.
type FunctionRegistry struct {
	mu      sync.RWMutex
	entries map[string]registeredFunction
}

type registeredFunction struct {
	fn    Function
	arity int // -1 accepts any number of arguments
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{entries: map[string]registeredFunction{}}
}

// Register adds a helper accepting any number of arguments.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	return r.register(name, -1, fn)
}

// RegisterArity adds a helper that must be called with exactly arity
// arguments. Calls with a different count fail before fn runs.
func (r *FunctionRegistry) RegisterArity(name string, arity int, fn Function) error {
	if arity < 0 {
		return fmt.Errorf("settings: function %q arity must not be negative", name)
	}
	return r.register(name, arity, fn)
}

func (r *FunctionRegistry) register(name string, arity int, fn Function) error {
	key := normalizeRule(name)
	if key == "" {
		return fmt.Errorf("settings: function name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("settings: function %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = map[string]registeredFunction{}
	}
	if _, exists := r.entries[key]; exists {
		return fmt.Errorf("%w: function %q", ErrRegistered, name)
	}
	r.entries[key] = registeredFunction{fn: fn, arity: arity}
	return nil
}

// Has reports whether a helper is registered under name.
func (r *FunctionRegistry) Has(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[normalizeRule(name)]
	return ok
}

// Clone returns a registry holding the same helpers.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{entries: make(map[string]registeredFunction, len(r.entries))}
	for name, entry := range r.entries {
		clone.entries[name] = entry
	}
	return clone
}

// Call runs the helper registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("settings: no functions available to call %q", name)
	}
	r.mu.RLock()
	entry, ok := r.entries[normalizeRule(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("settings: function %q not registered", name)
	}
	if entry.arity >= 0 && len(args) != entry.arity {
		return nil, fmt.Errorf("settings: %s expects %d args, got %d", name, entry.arity, len(args))
	}
	return entry.fn(args...)
}

// Names returns the registered helper names, sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.entries)
}
