package nectar

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// collectionFuncs returns the built-in sequence and string helpers.
func collectionFuncs() map[string]Func {
	return map[string]Func{
		"length": fnLength,
		"join":   fnJoin,
		"first":  fnFirst,
		"last":   fnLast,
	}
}

// fnLength returns the element count of a sequence or mapping, or the rune
// count of a string.
func fnLength(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("length: expected 1 argument, got %d", len(args))
	}
	v := valueOf(args[0])
	switch v.Kind() {
	case KindNone:
		return int64(0), nil
	case KindString:
		return int64(utf8.RuneCountInString(v.String())), nil
	case KindSeq:
		seq, _ := v.asSeq()
		return int64(len(seq)), nil
	case KindMap:
		m, _ := v.asMap()
		return int64(len(m)), nil
	default:
		return nil, fmt.Errorf("length: a %s has no length", v.Kind())
	}
}

// fnJoin concatenates the elements of a sequence with a separator.
func fnJoin(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("join: expected a sequence and a separator, got %d arguments", len(args))
	}
	v := valueOf(args[0])
	seq, ok := v.asSeq()
	if !ok {
		return nil, fmt.Errorf("join: cannot join a %s", v.Kind())
	}
	parts := make([]string, len(seq))
	for i, el := range seq {
		parts[i] = el.String()
	}
	return strings.Join(parts, toString(args[1])), nil
}

// fnFirst returns the first element of a sequence, or the first rune of a
// string. Empty inputs yield the none value.
func fnFirst(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("first: expected 1 argument, got %d", len(args))
	}
	v := valueOf(args[0])
	if seq, ok := v.asSeq(); ok {
		if len(seq) == 0 {
			return nil, nil
		}
		return seq[0].Export(), nil
	}
	if v.Kind() == KindString {
		s := v.String()
		if s == "" {
			return nil, nil
		}
		_, size := utf8.DecodeRuneInString(s)
		return s[:size], nil
	}
	return nil, fmt.Errorf("first: a %s has no first element", v.Kind())
}

// fnLast returns the last element of a sequence, or the last rune of a
// string. Empty inputs yield the none value.
func fnLast(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("last: expected 1 argument, got %d", len(args))
	}
	v := valueOf(args[0])
	if seq, ok := v.asSeq(); ok {
		if len(seq) == 0 {
			return nil, nil
		}
		return seq[len(seq)-1].Export(), nil
	}
	if v.Kind() == KindString {
		s := v.String()
		if s == "" {
			return nil, nil
		}
		_, size := utf8.DecodeLastRuneInString(s)
		return s[len(s)-size:], nil
	}
	return nil, fmt.Errorf("last: a %s has no last element", v.Kind())
}
