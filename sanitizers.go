package settings

import (
	"encoding/json"
	"html"
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/tidwall/gjson"
)

var (
	stripAllTags = bluemonday.StrictPolicy()
	safeHTML     = bluemonday.UGCPolicy()

	whitespaceRun    = regexp.MustCompile(`[\t\n\r\f\v ]+`)
	horizontalSpaces = regexp.MustCompile(`[\t\f\v ]+`)
	nonAlphanumeric  = regexp.MustCompile(`[^A-Za-z0-9]+`)
	slugInvalid      = regexp.MustCompile(`[^a-z0-9-]+`)
	dashRun          = regexp.MustCompile(`-{2,}`)
	shortHexColor    = regexp.MustCompile(`^#([0-9a-fA-F]{3}){1,2}$`)
	emailInvalid     = regexp.MustCompile("[^A-Za-z0-9.!#$%&'*+/=?^_`{|}~@-]+")

	allowedURLSchemes = map[string]struct{}{
		"http": {}, "https": {}, "ftp": {}, "ftps": {}, "mailto": {}, "tel": {},
	}
)

const filenameSpecialChars = "?[]/\\=<>:;,'\"&$#*()|~`!{}%+’«»”“"

func builtinSanitizers() map[string]Sanitizer {
	return map[string]Sanitizer{
		"email":        sanitizeEmail,
		"url":          sanitizeURL,
		"int":          func(value any) any { return int(leadingInt(value)) },
		"integer":      func(value any) any { return int(leadingInt(value)) },
		"float":        func(value any) any { return leadingFloat(value) },
		"bool":         sanitizeBool,
		"boolean":      sanitizeBool,
		"string":       sanitizeText,
		"text":         sanitizeText,
		"textarea":     sanitizeTextarea,
		"html":         sanitizeHTML,
		"array":        sanitizeArray,
		"color":        sanitizeColor,
		"hex_color":    sanitizeColor,
		"slug":         sanitizeSlug,
		"filename":     sanitizeFilename,
		"alphanumeric": func(value any) any { return nonAlphanumeric.ReplaceAllString(toString(value), "") },
		"json":         sanitizeJSON,
	}
}

const maxStripPasses = 4

// stripTags removes markup and decodes the entities bluemonday escapes. It
// repeats until the text is stable, so entity-encoded tags are stripped rather
// than decoded into live markup. Input that never settles stays escaped.
func stripTags(s string) string {
	for i := 0; i < maxStripPasses; i++ {
		next := html.UnescapeString(stripAllTags.Sanitize(s))
		if next == s {
			return s
		}
		s = next
	}
	return stripAllTags.Sanitize(s)
}

func stripControl(s string, keepNewlines bool) string {
	return strings.Map(func(r rune) rune {
		if keepNewlines && r == '\n' {
			return r
		}
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

func sanitizeText(value any) any {
	s := stripTags(toString(value))
	s = stripControl(s, false)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func sanitizeTextarea(value any) any {
	s := strings.ReplaceAll(toString(value), "\r\n", "\n")
	s = stripTags(s)
	s = stripControl(s, true)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(horizontalSpaces.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func sanitizeHTML(value any) any {
	return safeHTML.Sanitize(toString(value))
}

func sanitizeEmail(value any) any {
	s := emailInvalid.ReplaceAllString(strings.TrimSpace(toString(value)), "")
	if s == "" {
		return ""
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return ""
	}
	return s
}

func sanitizeURL(value any) any {
	s := strings.TrimSpace(toString(value))
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	if u.Scheme == "" {
		if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "?") {
			return u.String()
		}
		u, err = url.Parse("http://" + s)
		if err != nil {
			return ""
		}
	}
	if _, ok := allowedURLSchemes[strings.ToLower(u.Scheme)]; !ok {
		return ""
	}
	return u.String()
}

func sanitizeBool(value any) any {
	b, ok := parseBool(value)
	if !ok {
		return !isEmpty(value)
	}
	return b
}

func sanitizeArray(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[sanitizeText(key).(string)] = sanitizeElement(item)
		}
		return out
	}
	if isSequence(value) {
		items := asSequence(value)
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = sanitizeElement(item)
		}
		return out
	}
	if value != nil && reflect.ValueOf(value).Kind() == reflect.Map {
		rv := reflect.ValueOf(value)
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[sanitizeText(toString(iter.Key().Interface())).(string)] = sanitizeElement(iter.Value().Interface())
		}
		return out
	}
	return []any{}
}

func sanitizeElement(value any) any {
	if isCollection(value) {
		return sanitizeArray(value)
	}
	switch value.(type) {
	case nil, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return value
	}
	return sanitizeText(value)
}

func sanitizeColor(value any) any {
	s := strings.TrimSpace(toString(value))
	if shortHexColor.MatchString(s) {
		return s
	}
	return ""
}

func sanitizeSlug(value any) any {
	s := strings.ToLower(stripTags(toString(value)))
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' || r == '.' || r == '/' {
			return '-'
		}
		return r
	}, s)
	s = slugInvalid.ReplaceAllString(s, "")
	s = dashRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func sanitizeFilename(value any) any {
	s := stripControl(toString(value), false)
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(filenameSpecialChars, r) {
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, "%20", " ")
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = dashRun.ReplaceAllString(s, "-")
	return strings.Trim(s, ".-_")
}

// sanitizeJSON re-encodes value canonically: objects get sorted keys and
// insignificant whitespace is dropped. Invalid JSON strings become "".
func sanitizeJSON(value any) any {
	var decoded any
	if s, ok := value.(string); ok {
		if !gjson.Valid(s) {
			return ""
		}
		decoded = gjson.Parse(s).Value()
	} else {
		decoded = value
	}
	encoded, err := json.Marshal(decoded)
	if err != nil {
		return ""
	}
	return string(encoded)
}
