package settings

import "context"

// PushToArray appends item to the sequence at path when it is not already
// present. A missing or non-sequence value is treated as empty.
func (s *Store) PushToArray(ctx context.Context, path string, item any) error {
	items := asSequence(s.Get(ctx, path, nil))
	if containsValue(items, item) {
		return nil
	}
	return s.Set(ctx, path, append(items, item))
}

// RemoveFromArray drops every element strictly equal to item.
func (s *Store) RemoveFromArray(ctx context.Context, path string, item any) error {
	items := asSequence(s.Get(ctx, path, nil))
	kept := make([]any, 0, len(items))
	for _, existing := range items {
		if !sameValue(existing, item) {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(items) {
		return nil
	}
	return s.Set(ctx, path, kept)
}

// ToggleInArray removes item when present and appends it otherwise. It
// reports whether item is present afterwards.
func (s *Store) ToggleInArray(ctx context.Context, path string, item any) (bool, error) {
	if s.InArray(ctx, path, item) {
		return false, s.RemoveFromArray(ctx, path, item)
	}
	return true, s.PushToArray(ctx, path, item)
}

// InArray reports whether the sequence at path holds item.
func (s *Store) InArray(ctx context.Context, path string, item any) bool {
	return containsValue(asSequence(s.Get(ctx, path, nil)), item)
}

func containsValue(items []any, item any) bool {
	for _, existing := range items {
		if sameValue(existing, item) {
			return true
		}
	}
	return false
}
