package settings

import (
	"context"
	"fmt"
	"strings"
)

// FieldDescriptor describes one stored leaf.
type FieldDescriptor struct {
	Path string
	Type string
	// Default reports whether the defaults registry holds a value for Path.
	Default bool
}

// Describe flattens the stored tree into sorted leaf descriptors with
// inferred types. Sequences and empty mappings are reported as leaves.
func (s *Store) Describe(ctx context.Context) ([]FieldDescriptor, error) {
	tree := s.All(ctx)
	defaults, err := s.loadDefaults(ctx)
	if err != nil {
		return nil, err
	}
	fields := describeValue(tree, "")
	for i := range fields {
		_, fields[i].Default = ParsePath(fields[i].Path).Resolve(defaults)
	}
	if fields == nil {
		fields = []FieldDescriptor{}
	}
	return fields, nil
}

func describeValue(value any, prefix string) []FieldDescriptor {
	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			if prefix == "" {
				return nil
			}
			return []FieldDescriptor{{Path: prefix, Type: "map"}}
		}
		var fields []FieldDescriptor
		for _, key := range sortedKeys(typed) {
			fields = append(fields, describeValue(typed[key], joinPath(prefix, key))...)
		}
		return fields
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = typeName(typed[0])
		}
		return []FieldDescriptor{{Path: prefix, Type: "[]" + elementType}}
	default:
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{Path: prefix, Type: typeName(typed)}}
	}
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "int"
	case float32, float64:
		return "float"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return strings.Join([]string{prefix, key}, ".")
}
