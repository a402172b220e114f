package settings

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestBuiltinValidators(t *testing.T) {
	registry := NewRegistry()

	cases := []struct {
		rule  string
		value any
		want  bool
	}{
		{"email", "ops@example.com", true},
		{"email", "Ops <ops@example.com>", false},
		{"email", "nope", false},
		{"url", "https://example.com/path", true},
		{"url", "example.com", false},
		{"int", 42, true},
		{"int", "42", true},
		{"int", float64(3), true},
		{"int", 3.5, false},
		{"float", "3.14", true},
		{"float", true, false},
		{"bool", "yes", true},
		{"bool", "maybe", false},
		{"string", "x", true},
		{"string", 1, false},
		{"array", []any{1}, true},
		{"array", map[string]any{}, true},
		{"array", "x", false},
		{"hex_color", "#A1b2C3", true},
		{"hex-color", "#abc", false},
		{"color", "#zzzzzz", false},
		{"ip", "192.168.1.1", true},
		{"ip", "::1", true},
		{"ip", "300.1.1.1", false},
		{"date", "2024-06-01", true},
		{"date", "not a date", false},
		{"json", `{"a":1}`, true},
		{"json", `{a:1}`, false},
		{"alpha", "abc", true},
		{"alpha", "abc1", false},
		{"alphanumeric", "abc1", true},
		{"alphanumeric", "abc-1", false},
		{"slug", "hello-world", true},
		{"slug", "Hello", false},
		{"positive", 1, true},
		{"positive", "-1", false},
		{"negative", -0.5, true},
		{"negative", 0, false},
		{"required", "x", true},
		{"required", "", false},
		{"required", "0", false},
		{"required", []any{}, false},
		{"REQUIRED", 0, false},
		{"unknown_rule", nil, true},
	}

	for _, tc := range cases {
		if got := registry.Validate(tc.rule, tc.value); got != tc.want {
			t.Errorf("validate %s(%#v): expected %v, got %v", tc.rule, tc.value, tc.want, got)
		}
	}
}

func TestBuiltinSanitizers(t *testing.T) {
	registry := NewRegistry()

	cases := []struct {
		rule  string
		value any
		want  any
	}{
		{"email", " ops@exa mple.com ", "ops@example.com"},
		{"email", "not-an-email", ""},
		{"url", "example.com/a", "http://example.com/a"},
		{"url", "javascript:alert(1)", ""},
		{"int", "42abc", 42},
		{"int", 3.9, 3},
		{"float", "3.5kg", 3.5},
		{"bool", "on", true},
		{"bool", "", false},
		{"text", "  <b>Hello</b>\n\tworld  ", "Hello world"},
		{"string", "a &amp; b", "a & b"},
		{"textarea", "line  one\r\n<i>two</i>", "line one\ntwo"},
		{"html", `<p onclick="x()">hi</p><script>bad()</script>`, "<p>hi</p>"},
		{"color", "#ABC", "#ABC"},
		{"color", "red", ""},
		{"slug", "Hello World_Again!", "hello-world-again"},
		{"filename", "my report?.pdf", "my-report.pdf"},
		{"alphanumeric", "a-b_c 1", "abc1"},
		{"json", `{ "b": 1, "a": [1, 2] }`, `{"a":[1,2],"b":1}`},
		{"json", "{broken", ""},
		{"array", []any{"<b>x</b>", 1, []any{" y "}}, []any{"x", 1, []any{"y"}}},
		{"unknown", " <i>plain</i> ", "plain"},
		{"string", "&lt;script&gt;alert(1)&lt;/script&gt;", ""},
	}

	for _, tc := range cases {
		if got := registry.Sanitize(tc.rule, tc.value); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("sanitize %s(%#v): expected %#v, got %#v", tc.rule, tc.value, tc.want, got)
		}
	}
}

func TestTextSanitizersNeverDecodeMarkup(t *testing.T) {
	registry := NewRegistry()
	inputs := []string{
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"&lt;img src=x onerror=alert(1)&gt;",
		"&amp;lt;b&amp;gt;bold&amp;lt;/b&amp;gt;",
	}
	for _, rule := range []string{"string", "text", "textarea", "unknown"} {
		for _, input := range inputs {
			got, ok := registry.Sanitize(rule, input).(string)
			if !ok {
				t.Fatalf("%s: expected string result", rule)
			}
			if strings.ContainsAny(got, "<>") {
				t.Errorf("%s(%q): output contains markup %q", rule, input, got)
			}
		}
	}
	if got := registry.Sanitize("text", "Tom &amp; Jerry"); got != "Tom & Jerry" {
		t.Fatalf("expected plain entities decoded, got %#v", got)
	}
}

func TestRegistryRegistration(t *testing.T) {
	registry := NewRegistry(RegistryWithoutBuiltins())

	if names := registry.ValidatorNames(); len(names) != 0 {
		t.Fatalf("expected empty registry, got %v", names)
	}
	if err := registry.RegisterValidator("Even-Number", func(v any) bool {
		i, ok := toInt(v)
		return ok && i%2 == 0
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.RegisterValidator("even_number", func(any) bool { return true }); !errors.Is(err, ErrRegistered) {
		t.Fatalf("expected ErrRegistered, got %v", err)
	}
	if !registry.Validate("EVEN-NUMBER", 4) || registry.Validate("even_number", 3) {
		t.Fatalf("unexpected custom validator results")
	}
	if err := registry.RegisterSanitizer("upper", nil); err == nil {
		t.Fatalf("expected nil sanitizer to be rejected")
	}
	if err := registry.RegisterSanitizer(" ", func(v any) any { return v }); err == nil {
		t.Fatalf("expected empty name to be rejected")
	}
	if got := registry.ValidatorNames(); !reflect.DeepEqual(got, []string{"even_number"}) {
		t.Fatalf("unexpected names: %v", got)
	}
}

func TestRegistriesAreIsolated(t *testing.T) {
	first := NewRegistry()
	second := NewRegistry()

	if err := first.RegisterValidator("never", func(any) bool { return false }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if second.Validate("never", "x") != true {
		t.Fatalf("expected second registry to be unaffected")
	}
}
