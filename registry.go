package settings

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Validator reports whether value may be stored.
type Validator func(value any) bool

// Sanitizer transforms a candidate value before validation.
type Sanitizer func(value any) any

// Registry maps rule names to validators and sanitizers. Names are matched
// case-insensitively and "-" is treated as "_", so "hex-color" and
// "HEX_COLOR" address the same rule. Unknown validator names pass and unknown
// sanitizer names fall back to text sanitization.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]Validator
	sanitizers map[string]Sanitizer
	functions  *FunctionRegistry
	logger     Logger

	// expression rules keyed like validators/sanitizers, invoked with the
	// written path by the store
	pathValidators map[string]func(path string, value any) bool
	pathSanitizers map[string]func(path string, value any) any
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// RegistryWithLogger sets the logger used for expression evaluation and
// unknown rule diagnostics.
func RegistryWithLogger(logger Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// RegistryWithoutBuiltins starts the registry empty.
func RegistryWithoutBuiltins() RegistryOption {
	return func(r *Registry) {
		r.validators = map[string]Validator{}
		r.sanitizers = map[string]Sanitizer{}
	}
}

// NewRegistry constructs a registry preloaded with the built-in rules.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		validators:     builtinValidators(),
		sanitizers:     builtinSanitizers(),
		logger:         noopLogger{},
		pathValidators: map[string]func(string, any) bool{},
		pathSanitizers: map[string]func(string, any) any{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.functions = r.expressionFunctions()
	return r
}

func normalizeRule(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}

// RegisterValidator adds a validator under name.
func (r *Registry) RegisterValidator(name string, fn Validator) error {
	key := normalizeRule(name)
	if key == "" {
		return fmt.Errorf("settings: validator name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("settings: validator %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.validators[key]; exists {
		return fmt.Errorf("%w: validator %q", ErrRegistered, name)
	}
	r.validators[key] = fn
	return nil
}

// RegisterSanitizer adds a sanitizer under name.
func (r *Registry) RegisterSanitizer(name string, fn Sanitizer) error {
	key := normalizeRule(name)
	if key == "" {
		return fmt.Errorf("settings: sanitizer name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("settings: sanitizer %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sanitizers[key]; exists {
		return fmt.Errorf("%w: sanitizer %q", ErrRegistered, name)
	}
	r.sanitizers[key] = fn
	return nil
}

// Validator returns the validator registered for name.
func (r *Registry) Validator(name string) (Validator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.validators[normalizeRule(name)]
	return fn, ok
}

// Sanitizer returns the sanitizer registered for name.
func (r *Registry) Sanitizer(name string) (Sanitizer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.sanitizers[normalizeRule(name)]
	return fn, ok
}

// Validate runs the named validator. Unknown names pass.
func (r *Registry) Validate(name string, value any) bool {
	fn, ok := r.Validator(name)
	if !ok {
		r.unknownRule("validator", name)
		return true
	}
	return fn(value)
}

// Sanitize runs the named sanitizer. Unknown names fall back to text.
func (r *Registry) Sanitize(name string, value any) any {
	fn, ok := r.Sanitizer(name)
	if !ok {
		r.unknownRule("sanitizer", name)
		return sanitizeText(value)
	}
	return fn(value)
}

// validateAt is Validate with path bound for expression rules.
func (r *Registry) validateAt(name, path string, value any) bool {
	r.mu.RLock()
	fn, ok := r.pathValidators[normalizeRule(name)]
	r.mu.RUnlock()
	if ok {
		return fn(path, value)
	}
	return r.Validate(name, value)
}

// sanitizeAt is Sanitize with path bound for expression rules.
func (r *Registry) sanitizeAt(name, path string, value any) any {
	r.mu.RLock()
	fn, ok := r.pathSanitizers[normalizeRule(name)]
	r.mu.RUnlock()
	if ok {
		return fn(path, value)
	}
	return r.Sanitize(name, value)
}

func (r *Registry) unknownRule(kind, name string) {
	r.logger.Log(Diagnostic{
		Message: "settings: unknown rule name",
		Level:   slog.LevelDebug,
		Fields:  map[string]any{"kind": kind, "rule": name},
	})
}

// ValidatorNames returns registered validator names sorted alphabetically.
func (r *Registry) ValidatorNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.validators)
}

// SanitizerNames returns registered sanitizer names sorted alphabetically.
func (r *Registry) SanitizerNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.sanitizers)
}

// Functions exposes the functions available to expression rules.
func (r *Registry) Functions() *FunctionRegistry {
	return r.functions.Clone()
}

// expressionFunctions exposes validate(rule, value) and sanitize(rule, value)
// so expression rules can compose registered rules.
func (r *Registry) expressionFunctions() *FunctionRegistry {
	functions := NewFunctionRegistry()
	_ = functions.RegisterArity("validate", 2, func(args ...any) (any, error) {
		return r.Validate(toString(args[0]), args[1]), nil
	})
	_ = functions.RegisterArity("sanitize", 2, func(args ...any) (any, error) {
		return r.Sanitize(toString(args[0]), args[1]), nil
	})
	return functions
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
