package nectar

import "fmt"

// utilFuncs returns the built-in utility helpers.
func utilFuncs() map[string]Func {
	return map[string]Func{
		"default":    fnDefault,
		"isEmpty":    fnIsEmpty,
		"isNotEmpty": fnIsNotEmpty,
	}
}

// fnDefault returns its first argument unless that argument is empty, in
// which case it returns the second. Booleans and numbers are never empty,
// so false and 0 pass through.
func fnDefault(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("default: expected a value and a fallback, got %d arguments", len(args))
	}
	if valueOf(args[0]).IsEmpty() {
		return args[1], nil
	}
	return args[0], nil
}

// fnIsEmpty reports whether its argument is none, a zero-length string, or
// a zero-length sequence or mapping.
func fnIsEmpty(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("isEmpty: expected 1 argument, got %d", len(args))
	}
	return valueOf(args[0]).IsEmpty(), nil
}

// fnIsNotEmpty is the complement of isEmpty.
func fnIsNotEmpty(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("isNotEmpty: expected 1 argument, got %d", len(args))
	}
	return !valueOf(args[0]).IsEmpty(), nil
}
