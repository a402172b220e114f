package settings

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestFunctionRegistryNormalizesNames(t *testing.T) {
	functions := NewFunctionRegistry()
	if err := functions.Register("Is-Enabled", func(args ...any) (any, error) { return len(args), nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !functions.Has("is_enabled") {
		t.Fatalf("expected normalized lookup to succeed")
	}
	if err := functions.Register("IS_ENABLED", func(...any) (any, error) { return nil, nil }); !errors.Is(err, ErrRegistered) {
		t.Fatalf("expected ErrRegistered, got %v", err)
	}
	got, err := functions.Call("is-enabled", 1, 2, 3)
	if err != nil || got != 3 {
		t.Fatalf("expected variadic call, got %v %v", got, err)
	}
	if names := functions.Names(); !reflect.DeepEqual(names, []string{"is_enabled"}) {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestFunctionRegistryEnforcesArity(t *testing.T) {
	registry := NewRegistry()
	functions := registry.Functions()

	if got, err := functions.Call("validate", "email", "ops@example.com"); err != nil || got != true {
		t.Fatalf("expected validate to pass, got %v %v", got, err)
	}
	_, err := functions.Call("validate", "email")
	if err == nil || !strings.Contains(err.Error(), "expects 2 args") {
		t.Fatalf("expected arity error, got %v", err)
	}
	if _, err := functions.Call("missing"); err == nil {
		t.Fatalf("expected unknown function error")
	}
	if err := functions.RegisterArity("neg", -1, func(...any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected negative arity to be rejected")
	}
}

func TestFunctionRegistryCloneIsIndependent(t *testing.T) {
	functions := NewFunctionRegistry()
	clone := functions.Clone()
	if err := functions.Register("late", func(...any) (any, error) { return nil, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if clone.Has("late") {
		t.Fatalf("expected clone to miss helpers registered afterwards")
	}
	var nilRegistry *FunctionRegistry
	if nilRegistry.Has("x") || nilRegistry.Clone() != nil || nilRegistry.Names() != nil {
		t.Fatalf("expected nil registry to be inert")
	}
}
