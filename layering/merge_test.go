package layering

import (
	"reflect"
	"testing"
)

func TestMergeLayersStrongestWins(t *testing.T) {
	strong := Tree{
		"appearance": Tree{"colors": Tree{"primary": "#ff0000"}},
		"tags":       []any{"a"},
	}
	weak := Tree{
		"appearance": Tree{"colors": Tree{"primary": "#000000", "accent": "#00ff00"}, "font": "serif"},
		"tags":       []any{"b", "c"},
		"enabled":    true,
	}

	got := MergeLayers(strong, weak)
	want := Tree{
		"appearance": Tree{"colors": Tree{"primary": "#ff0000", "accent": "#00ff00"}, "font": "serif"},
		"tags":       []any{"a"},
		"enabled":    true,
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("merged tree mismatch:\nwant: %#v\n got: %#v", want, got)
	}
}

func TestMergeLayersDoesNotMutateInputs(t *testing.T) {
	strong := Tree{"a": Tree{"b": 1}}
	weak := Tree{"a": Tree{"c": 2}}

	merged := MergeLayers(strong, weak)
	merged["a"].(Tree)["b"] = 99

	if strong["a"].(Tree)["b"] != 1 {
		t.Fatalf("expected strong layer untouched, got %v", strong["a"])
	}
	if _, ok := weak["a"].(Tree)["b"]; ok {
		t.Fatalf("expected weak layer untouched, got %v", weak["a"])
	}
}

func TestMergeLayersZeroInput(t *testing.T) {
	got := MergeLayers()
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty tree, got %#v", got)
	}
}

func TestMergeScalarReplacesMapping(t *testing.T) {
	got := Merge("flat", Tree{"nested": true})
	if got != "flat" {
		t.Fatalf("expected scalar to win, got %#v", got)
	}
}

func TestCloneDetachesNestedValues(t *testing.T) {
	source := Tree{
		"list":   []any{Tree{"k": "v"}},
		"typed":  []string{"x", "y"},
		"counts": map[string]int{"a": 1},
	}
	clone := Clone(source).(Tree)

	clone["list"].([]any)[0].(Tree)["k"] = "changed"
	clone["typed"].([]string)[0] = "changed"
	clone["counts"].(map[string]int)["a"] = 2

	if source["list"].([]any)[0].(Tree)["k"] != "v" {
		t.Fatalf("expected nested tree detached")
	}
	if source["typed"].([]string)[0] != "x" {
		t.Fatalf("expected typed slice detached")
	}
	if source["counts"].(map[string]int)["a"] != 1 {
		t.Fatalf("expected typed map detached")
	}
}
