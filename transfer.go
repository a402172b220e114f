package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goliatone/go-settings/layering"
	"github.com/goliatone/go-settings/pkg/activity"
)

// FormatVersion is written into every exported document.
const FormatVersion = "1.0"

// Document is the portable export envelope.
type Document struct {
	FormatVersion string `json:"format_version" yaml:"format_version" toml:"format_version" cbor:"format_version"`
	ExportedAt    string `json:"exported_at" yaml:"exported_at" toml:"exported_at" cbor:"exported_at"`
	Origin        string `json:"origin" yaml:"origin" toml:"origin" cbor:"origin"`
	Group         string `json:"group,omitempty" yaml:"group,omitempty" toml:"group,omitempty" cbor:"group,omitempty"`
	Data          any    `json:"data" yaml:"data" toml:"data" cbor:"data"`
}

// ImportResult reports the outcome of Import.
type ImportResult struct {
	Success bool
	Message string
	Group   string
	// Keys counts the top-level keys carried by the document data.
	Keys int
}

// TransferOption configures Export and Import.
type TransferOption func(*transferConfig)

type transferConfig struct {
	codec Codec
}

// WithFormat selects the document encoding. Export defaults to indented
// JSON, Import to JSON.
func WithFormat(codec Codec) TransferOption {
	return func(cfg *transferConfig) {
		cfg.codec = codec
	}
}

func applyTransferOptions(opts []TransferOption, fallback Codec) transferConfig {
	cfg := transferConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.codec == nil {
		cfg.codec = fallback
	}
	return cfg
}

// Export serialises the whole tree, or the top-level group when group is
// not empty, wrapped in a Document.
func (s *Store) Export(ctx context.Context, group string, opts ...TransferOption) ([]byte, error) {
	cfg := applyTransferOptions(opts, PrettyJSONCodec())
	group = strings.TrimSpace(group)

	var data any
	if group == "" {
		data = s.All(ctx)
	} else {
		data = s.Group(ctx, group)
	}

	doc := Document{
		FormatVersion: FormatVersion,
		ExportedAt:    s.now().UTC().Format(time.RFC3339),
		Origin:        s.origin,
		Group:         group,
		Data:          data,
	}
	out, err := cfg.codec.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("settings: export %s: %w", cfg.codec.Name(), err)
	}
	return out, nil
}

// Import applies an exported document. With merge the imported tree is merged
// into the stored one and imported leaves win; otherwise it replaces the whole
// tree, or the named group. Unusable documents return a failed result
// together with an error wrapping ErrInvalidDocument and leave the store
// untouched.
func (s *Store) Import(ctx context.Context, data []byte, merge bool, opts ...TransferOption) (ImportResult, error) {
	cfg := applyTransferOptions(opts, JSONCodec())

	group, payload, err := decodeDocument(cfg.codec, data)
	if err != nil {
		s.logger.Log(Diagnostic{
			Message: "settings: import rejected",
			Level:   slog.LevelWarn,
			Fields:  map[string]any{"store": s.name, "format": cfg.codec.Name(), "error": err.Error()},
		})
		return ImportResult{Success: false, Message: err.Error(), Group: group}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return ImportResult{Success: false, Message: err.Error(), Group: group}, err
	}

	var next map[string]any
	switch {
	case group == "" && merge:
		next = layering.MergeLayers(payload.(map[string]any), s.tree)
	case group == "":
		next = layering.CloneTree(payload.(map[string]any))
	case merge:
		next = layering.CloneTree(s.tree)
		next[group] = layering.Merge(payload, next[group])
	default:
		next = layering.CloneTree(s.tree)
		next[group] = layering.Clone(payload)
	}

	if err := s.persist(ctx, next); err != nil {
		return ImportResult{Success: false, Message: err.Error(), Group: group}, err
	}
	s.cache.Clear()
	s.emit(ctx, activity.BuildSettingsImportedEvent(activity.SettingEventInput{
		Store: s.name,
		Group: group,
		Merge: merge,
	}))

	keys := 0
	if mapping, ok := payload.(map[string]any); ok {
		keys = len(mapping)
	}
	message := "settings imported"
	if group != "" {
		message = fmt.Sprintf("group %q imported", group)
	}
	return ImportResult{Success: true, Message: message, Group: group, Keys: keys}, nil
}

func decodeDocument(codec Codec, data []byte) (string, any, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", nil, fmt.Errorf("%w: empty payload", ErrInvalidDocument)
	}
	decoded, err := codec.Unmarshal(data)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s: %w", ErrInvalidDocument, codec.Name(), err)
	}
	doc, ok := decoded.(map[string]any)
	if !ok {
		return "", nil, fmt.Errorf("%w: expected mapping, got %T", ErrInvalidDocument, decoded)
	}
	payload, ok := doc["data"]
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data field", ErrInvalidDocument)
	}

	group := ""
	if raw, ok := doc["group"]; ok && raw != nil {
		name, ok := raw.(string)
		if !ok {
			return "", nil, fmt.Errorf("%w: group must be a string, got %T", ErrInvalidDocument, raw)
		}
		group = strings.TrimSpace(name)
	}
	if group == "" {
		if payload == nil {
			payload = map[string]any{}
		}
		if _, ok := payload.(map[string]any); !ok {
			return "", nil, fmt.Errorf("%w: data must be a mapping, got %T", ErrInvalidDocument, payload)
		}
	}
	return group, payload, nil
}
