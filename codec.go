package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"
)

// Codec encodes settings trees. Unmarshal yields plain Go values with
// mappings as map[string]any and sequences as []any.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

// Format names accepted by CodecFor.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatCBOR = "cbor"
)

// CodecFor returns the codec registered under format.
func CodecFor(format string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		return JSONCodec(), nil
	case FormatYAML, "yml":
		return YAMLCodec(), nil
	case FormatTOML:
		return TOMLCodec(), nil
	case FormatCBOR:
		return CBORCodec(), nil
	default:
		return nil, fmt.Errorf("settings: unknown format %q", format)
	}
}

type jsonCodec struct {
	pretty bool
}

// JSONCodec encodes compact JSON. Numbers decode as float64.
func JSONCodec() Codec {
	return jsonCodec{}
}

// PrettyJSONCodec encodes indented JSON.
func PrettyJSONCodec() Codec {
	return jsonCodec{pretty: true}
}

func (jsonCodec) Name() string { return FormatJSON }

func (c jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if c.pretty {
		return pretty.PrettyOptions(data, &pretty.Options{Width: 80, Indent: "  "}), nil
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte) (any, error) {
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type yamlCodec struct{}

// YAMLCodec encodes YAML documents.
func YAMLCodec() Codec {
	return yamlCodec{}
}

func (yamlCodec) Name() string { return FormatYAML }

func (yamlCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (yamlCodec) Unmarshal(data []byte) (any, error) {
	var out any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return normalizeDecoded(out), nil
}

type tomlCodec struct{}

// TOMLCodec encodes TOML documents. TOML has no null, so trees holding nil
// values fail to encode.
func TOMLCodec() Codec {
	return tomlCodec{}
}

func (tomlCodec) Name() string { return FormatTOML }

func (tomlCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (tomlCodec) Unmarshal(data []byte) (any, error) {
	out := map[string]any{}
	if _, err := toml.Decode(string(data), &out); err != nil {
		return nil, err
	}
	return normalizeDecoded(out), nil
}

type cborCodec struct {
	dec cbor.DecMode
}

// CBORCodec encodes CBOR. Mappings decode as map[string]any.
func CBORCodec() Codec {
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("settings: cbor decode mode: %v", err))
	}
	return cborCodec{dec: dec}
}

func (cborCodec) Name() string { return FormatCBOR }

func (cborCodec) Marshal(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

func (c cborCodec) Unmarshal(data []byte) (any, error) {
	var out any
	if err := c.dec.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return normalizeDecoded(out), nil
}

// normalizeDecoded rewrites decoder specific container types into
// map[string]any and []any.
func normalizeDecoded(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalizeDecoded(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalizeDecoded(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeDecoded(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeDecoded(item)
		}
		return out
	default:
		return value
	}
}
