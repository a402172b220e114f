package settings

import (
	"context"
	"reflect"
	"testing"
)

func TestPushToArrayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	for i := 0; i < 2; i++ {
		if err := store.PushToArray(ctx, "features.enabled", "search"); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	got := store.Get(ctx, "features.enabled", nil)
	if !reflect.DeepEqual(got, []any{"search"}) {
		t.Fatalf("expected single occurrence, got %#v", got)
	}
	if backend.count(DefaultName) != 1 {
		t.Fatalf("expected duplicate push to skip persist, got %d writes", backend.count(DefaultName))
	}
}

func TestPushToArrayTreatsScalarAsEmpty(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if err := store.Set(ctx, "tags", "not-a-list"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.PushToArray(ctx, "tags", "go"); err != nil {
		t.Fatalf("push: %v", err)
	}
	if got := store.Get(ctx, "tags", nil); !reflect.DeepEqual(got, []any{"go"}) {
		t.Fatalf("expected scalar to be replaced, got %#v", got)
	}
}

func TestArrayEqualityIsStrict(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if err := store.PushToArray(ctx, "ids", 1); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := store.PushToArray(ctx, "ids", "1"); err != nil {
		t.Fatalf("push: %v", err)
	}
	if got := store.Get(ctx, "ids", nil); !reflect.DeepEqual(got, []any{1, "1"}) {
		t.Fatalf("expected int and string to be distinct, got %#v", got)
	}
	if !store.InArray(ctx, "ids", "1") || store.InArray(ctx, "ids", 2) {
		t.Fatalf("unexpected membership results")
	}
}

func TestToggleInArrayRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	original := []any{"a", "b"}
	if err := store.Set(ctx, "list", original); err != nil {
		t.Fatalf("set: %v", err)
	}

	present, err := store.ToggleInArray(ctx, "list", "c")
	if err != nil || !present {
		t.Fatalf("expected c added, got %v %v", present, err)
	}
	present, err = store.ToggleInArray(ctx, "list", "c")
	if err != nil || present {
		t.Fatalf("expected c removed, got %v %v", present, err)
	}
	if got := store.Get(ctx, "list", nil); !reflect.DeepEqual(got, original) {
		t.Fatalf("expected original list, got %#v", got)
	}
}

func TestRemoveFromArrayDropsAllMatches(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if err := store.Set(ctx, "list", []any{"x", "y", "x"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.RemoveFromArray(ctx, "list", "x"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := store.Get(ctx, "list", nil); !reflect.DeepEqual(got, []any{"y"}) {
		t.Fatalf("expected only y, got %#v", got)
	}
	if err := store.RemoveFromArray(ctx, "missing", "x"); err != nil {
		t.Fatalf("expected removing from missing path to be a no-op, got %v", err)
	}
	if store.Has(ctx, "missing") {
		t.Fatalf("expected no-op remove to leave path absent")
	}
}
