package nectar

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// stringFuncs returns the built-in string helpers.
func stringFuncs() map[string]Func {
	return map[string]Func{
		"upper":      fnUpper,
		"lower":      fnLower,
		"capitalize": fnCapitalize,
		"trim":       fnTrim,
		"truncate":   fnTruncate,
		"replace":    fnReplace,
	}
}

// fnUpper uppercases its argument.
func fnUpper(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("upper: expected 1 argument, got %d", len(args))
	}
	return strings.ToUpper(toString(args[0])), nil
}

// fnLower lowercases its argument.
func fnLower(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("lower: expected 1 argument, got %d", len(args))
	}
	return strings.ToLower(toString(args[0])), nil
}

// fnCapitalize uppercases the first rune of its argument.
func fnCapitalize(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("capitalize: expected 1 argument, got %d", len(args))
	}
	s := toString(args[0])
	if s == "" {
		return "", nil
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:], nil
}

// fnTrim removes leading and trailing whitespace.
func fnTrim(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("trim: expected 1 argument, got %d", len(args))
	}
	return strings.TrimSpace(toString(args[0])), nil
}

// fnTruncate cuts its argument to at most n runes, appending an ellipsis
// when anything was cut.
func fnTruncate(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("truncate: expected a string and a length, got %d arguments", len(args))
	}
	s := toString(args[0])
	n := int(toFloat(args[1]))
	if n < 0 {
		n = 0
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s, nil
	}
	return string(runes[:n]) + "…", nil
}

// fnReplace substitutes every occurrence of old with new.
func fnReplace(args ...any) (any, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("replace: expected a string, an old and a new value, got %d arguments", len(args))
	}
	return strings.ReplaceAll(toString(args[0]), toString(args[1]), toString(args[2])), nil
}
