package settings

import (
	"net/mail"
	"net/netip"
	"net/url"
	"regexp"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/tidwall/gjson"
)

var (
	hexColorPattern     = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	alphaPattern        = regexp.MustCompile(`^[A-Za-z]+$`)
	alphanumericPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	slugPattern         = regexp.MustCompile(`^[a-z0-9-]+$`)
)

func builtinValidators() map[string]Validator {
	hexColor := stringValidator(hexColorPattern.MatchString)
	integer := func(value any) bool {
		_, ok := toInt(value)
		return ok
	}
	boolean := func(value any) bool {
		_, ok := parseBool(value)
		return ok
	}
	return map[string]Validator{
		"email":        validateEmail,
		"url":          validateURL,
		"int":          integer,
		"integer":      integer,
		"float":        validateFloat,
		"bool":         boolean,
		"boolean":      boolean,
		"string":       func(value any) bool { _, ok := value.(string); return ok },
		"array":        isCollection,
		"color":        hexColor,
		"hex_color":    hexColor,
		"ip":           stringValidator(validateIP),
		"date":         stringValidator(validateDate),
		"json":         stringValidator(gjson.Valid),
		"alpha":        stringValidator(alphaPattern.MatchString),
		"alphanumeric": stringValidator(alphanumericPattern.MatchString),
		"slug":         stringValidator(slugPattern.MatchString),
		"positive":     func(value any) bool { f, ok := toFloat(value); return ok && f > 0 },
		"negative":     func(value any) bool { f, ok := toFloat(value); return ok && f < 0 },
		"required":     func(value any) bool { return !isEmpty(value) },
	}
}

func stringValidator(check func(string) bool) Validator {
	return func(value any) bool {
		s, ok := value.(string)
		return ok && check(s)
	}
}

func validateEmail(value any) bool {
	s, ok := value.(string)
	if !ok || s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}

func validateURL(value any) bool {
	s, ok := value.(string)
	if !ok || s == "" {
		return false
	}
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

func validateFloat(value any) bool {
	if _, ok := value.(bool); ok {
		return false
	}
	_, ok := toFloat(value)
	return ok
}

func validateIP(s string) bool {
	_, err := netip.ParseAddr(s)
	return err == nil
}

func validateDate(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	_, err := dateparse.ParseAny(s)
	return err == nil
}
