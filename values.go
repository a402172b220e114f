package settings

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// toFloat converts numeric values and numeric strings.
func toFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case int:
		return float64(typed), true
	case int8:
		return float64(typed), true
	case int16:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint:
		return float64(typed), true
	case uint8:
		return float64(typed), true
	case uint16:
		return float64(typed), true
	case uint32:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	case float32:
		return float64(typed), true
	case float64:
		return typed, true
	case json.Number:
		f, err := typed.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// toInt converts integral values. Floats qualify only when they carry no
// fractional part, so decoded JSON numbers still validate as integers.
func toInt(value any) (int64, bool) {
	switch typed := value.(type) {
	case int:
		return int64(typed), true
	case int8:
		return int64(typed), true
	case int16:
		return int64(typed), true
	case int32:
		return int64(typed), true
	case int64:
		return typed, true
	case uint8:
		return int64(typed), true
	case uint16:
		return int64(typed), true
	case uint32:
		return int64(typed), true
	case uint:
		if uint64(typed) > math.MaxInt64 {
			return 0, false
		}
		return int64(typed), true
	case uint64:
		if typed > math.MaxInt64 {
			return 0, false
		}
		return int64(typed), true
	case float32:
		return integralFloat(float64(typed))
	case float64:
		return integralFloat(typed)
	case json.Number:
		i, err := typed.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func integralFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// leadingInt mirrors a lenient integer cast: numeric prefix of a string, bools
// as 0/1, anything else 0.
func leadingInt(value any) int64 {
	if i, ok := toInt(value); ok {
		return i
	}
	if f, ok := toFloat(value); ok {
		return int64(f)
	}
	switch typed := value.(type) {
	case bool:
		if typed {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(typed)
		end := 0
		for end < len(s) && (s[end] >= '0' && s[end] <= '9' || (end == 0 && (s[end] == '-' || s[end] == '+'))) {
			end++
		}
		i, _ := strconv.ParseInt(s[:end], 10, 64)
		return i
	}
	return 0
}

func leadingFloat(value any) float64 {
	if f, ok := toFloat(value); ok {
		return f
	}
	switch typed := value.(type) {
	case bool:
		if typed {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(typed)
		for end := len(s); end > 0; end-- {
			if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// parseBool accepts the usual truthy and falsy spellings. ok is false for
// anything else.
func parseBool(value any) (result bool, ok bool) {
	switch typed := value.(type) {
	case bool:
		return typed, true
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "1", "true", "on", "yes":
			return true, true
		case "0", "false", "off", "no", "":
			return false, true
		}
		return false, false
	}
	if i, ok := toInt(value); ok && (i == 0 || i == 1) {
		return i == 1, true
	}
	return false, false
}

// isEmpty reports the loose notion of emptiness used by the required rule.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	switch typed := value.(type) {
	case string:
		return typed == "" || typed == "0"
	case bool:
		return !typed
	}
	if f, ok := toFloat(value); ok {
		if _, isString := value.(string); !isString {
			return f == 0
		}
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// sameValue is strict equality: identical dynamic type and deep-equal value.
func sameValue(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// toString renders scalars; composites are JSON encoded.
func toString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []byte:
		return string(typed)
	case bool:
		if typed {
			return "1"
		}
		return ""
	case fmt.Stringer:
		return typed.String()
	}
	if f, ok := toFloat(value); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if encoded, err := json.Marshal(value); err == nil {
		return string(encoded)
	}
	return fmt.Sprint(value)
}

func isSequence(value any) bool {
	if value == nil {
		return false
	}
	kind := reflect.ValueOf(value).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

func isCollection(value any) bool {
	if value == nil {
		return false
	}
	kind := reflect.ValueOf(value).Kind()
	return kind == reflect.Slice || kind == reflect.Array || kind == reflect.Map
}

// asSequence converts any slice or array into []any. Non-sequences yield an
// empty slice.
func asSequence(value any) []any {
	if typed, ok := value.([]any); ok {
		return append([]any(nil), typed...)
	}
	if !isSequence(value) {
		return []any{}
	}
	rv := reflect.ValueOf(value)
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
