package settings

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-settings/cache"
)

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
}

func seedTree() map[string]any {
	return map[string]any{
		"general": map[string]any{"title": "Site", "ratio": 1.5},
		"mail":    map[string]any{"host": "smtp.local", "tls": true, "tags": []any{"a", "b"}},
	}
}

func TestExportImportReplaceReproducesTree(t *testing.T) {
	ctx := context.Background()
	codecs := []Codec{PrettyJSONCodec(), YAMLCodec(), TOMLCodec(), CBORCodec()}

	for _, codec := range codecs {
		t.Run(codec.Name(), func(t *testing.T) {
			source, _ := newTestStore(t, WithClock(fixedClock), WithOrigin("unit"))
			if err := source.Replace(ctx, seedTree()); err != nil {
				t.Fatalf("replace: %v", err)
			}
			doc, err := source.Export(ctx, "", WithFormat(codec))
			if err != nil {
				t.Fatalf("export: %v", err)
			}

			target, _ := newTestStore(t)
			result, err := target.Import(ctx, doc, false, WithFormat(codec))
			if err != nil || !result.Success {
				t.Fatalf("import: %+v %v", result, err)
			}
			if result.Keys != 2 {
				t.Fatalf("expected 2 keys, got %d", result.Keys)
			}
			if got := target.All(ctx); !reflect.DeepEqual(got, seedTree()) {
				t.Fatalf("expected %#v, got %#v", seedTree(), got)
			}
		})
	}
}

func TestExportDocumentMetadata(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, WithClock(fixedClock), WithOrigin("unit"))
	if err := store.Replace(ctx, seedTree()); err != nil {
		t.Fatalf("replace: %v", err)
	}

	doc, err := store.Export(ctx, "mail")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	decoded, err := JSONCodec().Unmarshal(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	envelope := decoded.(map[string]any)
	if envelope["format_version"] != FormatVersion || envelope["origin"] != "unit" || envelope["group"] != "mail" {
		t.Fatalf("unexpected envelope: %#v", envelope)
	}
	if envelope["exported_at"] != "2024-06-01T09:30:00Z" {
		t.Fatalf("unexpected timestamp: %v", envelope["exported_at"])
	}
	if data := envelope["data"].(map[string]any); data["host"] != "smtp.local" {
		t.Fatalf("unexpected data: %#v", data)
	}
	if !strings.Contains(string(doc), "\n  ") {
		t.Fatalf("expected indented export, got %s", doc)
	}
}

func TestImportMergePreservesExistingKeys(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	if err := store.Replace(ctx, seedTree()); err != nil {
		t.Fatalf("replace: %v", err)
	}

	doc := []byte(`{"data":{"general":{"title":"Imported"},"extra":{"on":true}}}`)
	result, err := store.Import(ctx, doc, true)
	if err != nil || !result.Success {
		t.Fatalf("import: %+v %v", result, err)
	}

	if got := store.Get(ctx, "general.title", nil); got != "Imported" {
		t.Fatalf("expected imported value to win, got %#v", got)
	}
	if got := store.Get(ctx, "general.ratio", nil); got != 1.5 {
		t.Fatalf("expected existing sibling preserved, got %#v", got)
	}
	if got := store.Get(ctx, "mail.host", nil); got != "smtp.local" {
		t.Fatalf("expected untouched group preserved, got %#v", got)
	}
	if got := store.Get(ctx, "extra.on", nil); got != true {
		t.Fatalf("expected new key imported, got %#v", got)
	}
}

func TestImportGroupReplaceAndMerge(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	if err := store.Replace(ctx, seedTree()); err != nil {
		t.Fatalf("replace: %v", err)
	}

	merged := []byte(`{"group":"mail","data":{"host":"mx.local"}}`)
	if _, err := store.Import(ctx, merged, true); err != nil {
		t.Fatalf("merge import: %v", err)
	}
	if got := store.Group(ctx, "mail"); got["host"] != "mx.local" || got["tls"] != true {
		t.Fatalf("unexpected merged group: %#v", got)
	}

	replaced := []byte(`{"group":"mail","data":{"host":"only"}}`)
	result, err := store.Import(ctx, replaced, false)
	if err != nil || result.Group != "mail" {
		t.Fatalf("replace import: %+v %v", result, err)
	}
	if got := store.Group(ctx, "mail"); !reflect.DeepEqual(got, map[string]any{"host": "only"}) {
		t.Fatalf("expected group replaced, got %#v", got)
	}
	if got := store.Get(ctx, "general.title", nil); got != "Site" {
		t.Fatalf("expected other groups untouched, got %#v", got)
	}
}

func TestImportRejectsMalformedDocuments(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"empty":        "",
		"not json":     "{nope",
		"not mapping":  `[1,2]`,
		"missing data": `{"format_version":"1.0"}`,
		"scalar tree":  `{"data":"x"}`,
		"bad group":    `{"group":5,"data":{}}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			store, backend := newTestStore(t)
			result, err := store.Import(ctx, []byte(payload), false)
			if result.Success {
				t.Fatalf("expected failure result")
			}
			if result.Message == "" {
				t.Fatalf("expected failure message")
			}
			if !errors.Is(err, ErrInvalidDocument) {
				t.Fatalf("expected ErrInvalidDocument, got %v", err)
			}
			if backend.count(DefaultName) != 0 {
				t.Fatalf("expected no persist")
			}
		})
	}
}

func TestImportClearsCache(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	store, _ := newTestStore(t, WithCache(mem))
	if err := store.Set(ctx, "a.b", "old"); err != nil {
		t.Fatalf("set: %v", err)
	}
	store.Get(ctx, "a.b", nil)

	if _, err := store.Import(ctx, []byte(`{"data":{"a":{"b":"new"}}}`), true); err != nil {
		t.Fatalf("import: %v", err)
	}
	if mem.Len() != 0 {
		t.Fatalf("expected cache cleared, got %d entries", mem.Len())
	}
	if got := store.Get(ctx, "a.b", nil); got != "new" {
		t.Fatalf("expected imported value, got %#v", got)
	}
}
