package hydrate

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type mailSettings struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	TLS      bool     `json:"tls"`
	Channels []string `json:"channels,omitempty"`
}

func TestDecoderCases(t *testing.T) {
	cases := []struct {
		name      string
		input     map[string]any
		options   []DecoderOption[mailSettings]
		expect    mailSettings
		expectErr string
	}{
		{
			name:   "plain decode",
			input:  map[string]any{"host": "smtp.local", "port": float64(25), "tls": true},
			expect: mailSettings{Host: "smtp.local", Port: 25, TLS: true},
		},
		{
			name:   "unknown fields ignored by default",
			input:  map[string]any{"host": "smtp.local", "extra": "x"},
			expect: mailSettings{Host: "smtp.local"},
		},
		{
			name:      "unknown fields rejected when strict",
			input:     map[string]any{"host": "smtp.local", "extra": "x"},
			options:   []DecoderOption[mailSettings]{WithDisallowUnknownFields[mailSettings]()},
			expectErr: "unknown field",
		},
		{
			name:  "pre-hook fills defaults",
			input: map[string]any{"host": "smtp.local"},
			options: []DecoderOption[mailSettings]{WithPreHook[mailSettings](func(_ Context, payload map[string]any) (map[string]any, error) {
				if _, ok := payload["port"]; !ok {
					payload["port"] = 587
				}
				return payload, nil
			})},
			expect: mailSettings{Host: "smtp.local", Port: 587},
		},
		{
			name:  "post-hook rejects",
			input: map[string]any{"host": ""},
			options: []DecoderOption[mailSettings]{WithPostHook[mailSettings](func(_ Context, m *mailSettings) error {
				if m.Host == "" {
					return errors.New("host required")
				}
				return nil
			})},
			expectErr: "host required",
		},
		{
			name:      "type mismatch",
			input:     map[string]any{"port": "twenty-five"},
			expectErr: "hydrate: decode",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := NewDecoder(tc.options...).Decode(Context{Store: "site", Path: "mail"}, tc.input)
			if tc.expectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.expectErr)
				}
				if !strings.Contains(err.Error(), tc.expectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if !reflect.DeepEqual(tc.expect, result) {
				t.Fatalf("decoded mismatch:\nwant: %#v\n got: %#v", tc.expect, result)
			}
		})
	}
}

func TestDecoderDoesNotMutatePayload(t *testing.T) {
	payload := map[string]any{"host": "a", "channels": []any{"x"}}
	decoder := NewDecoder(WithPreHook[mailSettings](func(_ Context, p map[string]any) (map[string]any, error) {
		p["host"] = "b"
		p["channels"].([]any)[0] = "y"
		return nil, nil
	}))

	result, err := decoder.Decode(Context{Path: "mail"}, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Host != "b" {
		t.Fatalf("expected hook mutation to apply, got %q", result.Host)
	}
	if payload["host"] != "a" || payload["channels"].([]any)[0] != "x" {
		t.Fatalf("expected caller payload untouched, got %v", payload)
	}
}

func TestDecoderUseNumber(t *testing.T) {
	type loose struct {
		Limit any `json:"limit"`
	}
	result, err := NewDecoder(WithUseNumber[loose]()).Decode(Context{Path: "limits"}, map[string]any{"limit": 10})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := result.Limit.(json.Number); !ok {
		t.Fatalf("expected json.Number, got %T", result.Limit)
	}
}

func TestDecoderNilPayload(t *testing.T) {
	_, err := NewDecoder[mailSettings]().Decode(Context{Store: "site", Path: "mail"}, nil)
	if err == nil || !strings.Contains(err.Error(), "site:mail") {
		t.Fatalf("expected nil payload error naming context, got %v", err)
	}
}
