// Package layering deep-clones and deep-merges decoded settings trees.
package layering

import "reflect"

// Tree is a decoded settings document keyed by segment name.
type Tree = map[string]any

// MergeLayers composes trees ordered from strongest to weakest, returning a
// new tree that keeps explicit values from stronger layers while filling any
// missing keys from weaker ones. Inputs are never mutated.
func MergeLayers(layers ...Tree) Tree {
	if len(layers) == 0 {
		return Tree{}
	}
	merged := CloneTree(layers[len(layers)-1])
	for i := len(layers) - 2; i >= 0; i-- {
		merged = mergeTree(layers[i], merged)
	}
	return merged
}

// Merge merges strong over weak. Nested mappings present on both sides are
// merged recursively; any other value from strong replaces the weak one.
func Merge(strong, weak any) any {
	strongTree, strongOK := strong.(Tree)
	weakTree, weakOK := weak.(Tree)
	if strongOK && weakOK {
		return mergeTree(strongTree, weakTree)
	}
	return Clone(strong)
}

func mergeTree(strong, weak Tree) Tree {
	if strong == nil {
		return CloneTree(weak)
	}
	result := make(Tree, len(strong)+len(weak))
	for key, value := range weak {
		result[key] = Clone(value)
	}
	for key, value := range strong {
		existing, ok := result[key]
		if !ok {
			result[key] = Clone(value)
			continue
		}
		result[key] = Merge(value, existing)
	}
	return result
}

// CloneTree returns a deep copy of tree. A nil tree clones to an empty one.
func CloneTree(tree Tree) Tree {
	if tree == nil {
		return Tree{}
	}
	out := make(Tree, len(tree))
	for key, value := range tree {
		out[key] = Clone(value)
	}
	return out
}

// Clone returns a deep copy of value. Decoded shapes (maps keyed by string,
// []any) take a fast path; any other composite type is copied via reflection.
func Clone(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case Tree:
		if typed == nil {
			return Tree(nil)
		}
		return CloneTree(typed)
	case []any:
		if typed == nil {
			return []any(nil)
		}
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = Clone(item)
		}
		return out
	case string, bool, int, int64, float64:
		return typed
	}
	cloned := cloneValue(reflect.ValueOf(value))
	if !cloned.IsValid() {
		return nil
	}
	return cloned.Interface()
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		return elem.Convert(v.Type())
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		// Structs and scalars are copied by value; unexported struct fields
		// cannot be rebuilt through reflection so the value is reused as-is.
		return v
	}
}
