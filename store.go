package settings

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/goliatone/go-settings/layering"
	"github.com/goliatone/go-settings/pkg/activity"
)

// Get resolves path and returns def when any segment is missing or a
// non-mapping is reached first. Returned values are copies.
func (s *Store) Get(ctx context.Context, path string, def any) any {
	p := ParsePath(path)
	if p.IsZero() {
		return def
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.cache.Get(p.String()); ok {
		return layering.Clone(cached)
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return def
	}
	value, ok := p.Resolve(s.tree)
	if !ok {
		return def
	}
	s.cache.Set(p.String(), layering.Clone(value))
	return layering.Clone(value)
}

// Has reports whether path resolves. It never populates the cache.
func (s *Store) Has(ctx context.Context, path string) bool {
	p := ParsePath(path)
	if p.IsZero() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return false
	}
	_, ok := p.Resolve(s.tree)
	return ok
}

// Set stores value at path, creating intermediate mappings. The sanitizer
// runs before the validator; a failed validation returns a *ValidationError
// and leaves the backend untouched.
func (s *Store) Set(ctx context.Context, path string, value any, opts ...SetOption) error {
	p := ParsePath(path)
	if p.IsZero() {
		return ErrEmptyPath
	}
	accepted, err := s.gate(p, value, applySetOptions(opts))
	if err != nil {
		return err
	}

	old, existed, err := s.put(ctx, p, accepted)
	if err != nil {
		return err
	}
	s.emit(ctx, activity.BuildSettingUpdatedEvent(activity.SettingEventInput{
		Store:    s.name,
		Path:     p.String(),
		OldValue: old,
		NewValue: accepted,
		Created:  !existed,
	}))
	return nil
}

// put writes value at p without emitting events.
func (s *Store) put(ctx context.Context, p Path, value any) (old any, existed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, false, err
	}
	next := layering.CloneTree(s.tree)
	old, existed = p.Resolve(next)
	p.ResolveOrCreate(next)[p.Leaf()] = layering.Clone(value)
	if err := s.persist(ctx, next); err != nil {
		return nil, false, err
	}
	s.invalidate(p, old, value)
	return old, existed, nil
}

// SetMultiple applies the same gate to every entry. Rejected entries are
// skipped and logged; the rest are persisted with a single write. It returns
// the number of entries applied.
func (s *Store) SetMultiple(ctx context.Context, values map[string]any, opts ...SetOption) (int, error) {
	cfg := applySetOptions(opts)

	paths := make([]string, 0, len(values))
	for path := range values {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	type accepted struct {
		path  Path
		value any
	}
	entries := make([]accepted, 0, len(paths))
	for _, raw := range paths {
		p := ParsePath(raw)
		if p.IsZero() {
			continue
		}
		value, err := s.gate(p, values[raw], cfg)
		if err != nil {
			continue
		}
		entries = append(entries, accepted{path: p, value: value})
	}
	if len(entries) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	next := layering.CloneTree(s.tree)
	olds := make([]any, len(entries))
	for i, entry := range entries {
		olds[i], _ = entry.path.Resolve(next)
		entry.path.ResolveOrCreate(next)[entry.path.Leaf()] = layering.Clone(entry.value)
	}
	if err := s.persist(ctx, next); err != nil {
		return 0, err
	}
	for i, entry := range entries {
		s.invalidate(entry.path, olds[i], entry.value)
		s.emit(ctx, activity.BuildSettingUpdatedEvent(activity.SettingEventInput{
			Store:    s.name,
			Path:     entry.path.String(),
			OldValue: olds[i],
			NewValue: entry.value,
		}))
	}
	return len(entries), nil
}

// Remove deletes the node at path. ErrNotFound is returned when the parent
// chain is broken or the leaf is absent.
func (s *Store) Remove(ctx context.Context, path string) error {
	p := ParsePath(path)
	if p.IsZero() {
		return ErrEmptyPath
	}
	old, err := s.drop(ctx, p)
	if err != nil {
		return err
	}
	s.emit(ctx, activity.BuildSettingDeletedEvent(activity.SettingEventInput{
		Store:    s.name,
		Path:     p.String(),
		OldValue: old,
	}))
	return nil
}

// drop deletes the node at p without emitting events.
func (s *Store) drop(ctx context.Context, p Path) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	next := layering.CloneTree(s.tree)
	parent, ok := p.ResolveParent(next)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	old, ok := parent[p.Leaf()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	delete(parent, p.Leaf())
	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}
	s.invalidate(p, old, nil)
	return old, nil
}

// Reset restores path from the defaults registry, or removes it when no
// default exists. It emits a single reset event.
func (s *Store) Reset(ctx context.Context, path string) error {
	p := ParsePath(path)
	if p.IsZero() {
		return ErrEmptyPath
	}
	defaults, err := s.loadDefaults(ctx)
	if err != nil {
		return err
	}
	var old any
	value, ok := p.Resolve(defaults)
	if ok {
		old, _, err = s.put(ctx, p, value)
	} else {
		old, err = s.drop(ctx, p)
	}
	if err != nil {
		return err
	}
	s.emit(ctx, activity.BuildSettingResetEvent(activity.SettingEventInput{
		Store:    s.name,
		Path:     p.String(),
		OldValue: old,
		NewValue: value,
	}))
	return nil
}

// ResetAll replaces the whole blob with the defaults registry and clears
// every cache tier.
func (s *Store) ResetAll(ctx context.Context) error {
	defaults, err := s.loadDefaults(ctx)
	if err != nil {
		return err
	}
	if err := s.Replace(ctx, defaults); err != nil {
		return err
	}
	s.emit(ctx, activity.BuildSettingResetEvent(activity.SettingEventInput{Store: s.name}))
	return nil
}

// Replace persists tree as the whole blob and clears every cache tier.
func (s *Store) Replace(ctx context.Context, tree map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, layering.CloneTree(tree)); err != nil {
		return err
	}
	s.cache.Clear()
	return nil
}

// Flush clears every cache tier and drops the decoded blob so the next read
// goes back to the backend.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Clear()
	s.tree = nil
	s.loaded = false
}

// All returns a copy of the whole tree.
func (s *Store) All(ctx context.Context) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return map[string]any{}
	}
	return layering.CloneTree(s.tree)
}

// Group returns the mapping stored under a top-level key, or an empty map.
func (s *Store) Group(ctx context.Context, name string) map[string]any {
	if group, ok := s.Get(ctx, name, nil).(map[string]any); ok {
		return group
	}
	return map[string]any{}
}

func (s *Store) gate(p Path, value any, cfg setConfig) (any, error) {
	switch {
	case cfg.sanitizer != nil:
		value = cfg.sanitizer(value)
	case cfg.sanitizeName != "":
		value = s.registry.sanitizeAt(cfg.sanitizeName, p.String(), value)
	}

	rule := ""
	passed := true
	switch {
	case cfg.validator != nil:
		rule = "custom"
		passed = cfg.validator(value)
	case cfg.validateName != "":
		rule = cfg.validateName
		passed = s.registry.validateAt(cfg.validateName, p.String(), value)
	}
	if passed {
		return value, nil
	}
	s.logger.Log(Diagnostic{
		Message: "settings: validation rejected value",
		Level:   slog.LevelWarn,
		Fields:  map[string]any{"store": s.name, "path": p.String(), "rule": rule},
	})
	return nil, &ValidationError{Path: p.String(), Rule: rule, Value: value}
}

func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	tree, err := s.readTree(ctx, s.name)
	if err != nil {
		s.logger.Log(Diagnostic{
			Message: "settings: load failed",
			Level:   slog.LevelError,
			Fields:  map[string]any{"store": s.name, "error": err.Error()},
		})
		return err
	}
	s.tree = tree
	s.loaded = true
	return nil
}

func (s *Store) readTree(ctx context.Context, key string) (map[string]any, error) {
	blob, ok, err := s.backend.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("settings: read %q: %w", key, err)
	}
	if !ok || len(blob) == 0 {
		return map[string]any{}, nil
	}
	decoded, err := s.codec.Unmarshal(blob)
	if err != nil {
		return nil, fmt.Errorf("settings: decode %q: %w", key, err)
	}
	tree, ok := decoded.(map[string]any)
	if !ok {
		if decoded == nil {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("settings: decode %q: expected mapping, got %T", key, decoded)
	}
	return tree, nil
}

func (s *Store) writeTree(ctx context.Context, key string, tree map[string]any) error {
	blob, err := s.codec.Marshal(tree)
	if err != nil {
		return fmt.Errorf("%w: encode %q: %w", ErrPersist, key, err)
	}
	if err := s.backend.Write(ctx, key, blob); err != nil {
		s.logger.Log(Diagnostic{
			Message: "settings: persist failed",
			Level:   slog.LevelError,
			Fields:  map[string]any{"store": s.name, "key": key, "error": err.Error()},
		})
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// persist writes next as the blob and adopts it as the decoded tree only when
// the backend accepted it.
func (s *Store) persist(ctx context.Context, next map[string]any) error {
	if err := s.writeTree(ctx, s.name, next); err != nil {
		return err
	}
	s.tree = next
	s.loaded = true
	return nil
}

// invalidate drops the written key and its ancestors. Descendant keys cannot
// be enumerated through the cache contract, so replacing or removing a
// mapping clears everything.
func (s *Store) invalidate(p Path, old, value any) {
	if isMapping(old) || isMapping(value) {
		s.cache.Clear()
		return
	}
	s.cache.Delete(p.String())
	for _, ancestor := range p.Ancestors() {
		s.cache.Delete(ancestor.String())
	}
}

func (s *Store) emit(ctx context.Context, event activity.Event) {
	if !s.emitter.Enabled() {
		return
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.Log(Diagnostic{
			Message: "settings: activity hook failed",
			Level:   slog.LevelWarn,
			Fields:  map[string]any{"store": s.name, "verb": event.Verb, "error": err.Error()},
		})
	}
}

func isMapping(value any) bool {
	return value != nil && reflect.ValueOf(value).Kind() == reflect.Map
}
