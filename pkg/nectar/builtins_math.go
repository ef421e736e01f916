package nectar

import (
	"fmt"
	"math"
)

// mathFuncs returns the built-in math helpers. Operands coerce through
// toFloat, so non-numeric arguments count as 0.
func mathFuncs() map[string]Func {
	return map[string]Func{
		"add":   fnAdd,
		"sub":   fnSub,
		"mult":  fnMult,
		"div":   fnDiv,
		"mod":   fnMod,
		"min":   fnMin,
		"max":   fnMax,
		"round": fnRound,
	}
}

func twoFloats(name string, args []any) (float64, float64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("%s: expected 2 arguments, got %d", name, len(args))
	}
	return toFloat(args[0]), toFloat(args[1]), nil
}

// fnAdd returns a + b.
func fnAdd(args ...any) (any, error) {
	a, b, err := twoFloats("add", args)
	if err != nil {
		return nil, err
	}
	return a + b, nil
}

// fnSub returns a - b.
func fnSub(args ...any) (any, error) {
	a, b, err := twoFloats("sub", args)
	if err != nil {
		return nil, err
	}
	return a - b, nil
}

// fnMult returns a * b.
func fnMult(args ...any) (any, error) {
	a, b, err := twoFloats("mult", args)
	if err != nil {
		return nil, err
	}
	return a * b, nil
}

// fnDiv returns a / b. Returns 0 if b is 0.
func fnDiv(args ...any) (any, error) {
	a, b, err := twoFloats("div", args)
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return float64(0), nil
	}
	return a / b, nil
}

// fnMod returns a % b over integers. Returns 0 if b is 0.
func fnMod(args ...any) (any, error) {
	a, b, err := twoFloats("mod", args)
	if err != nil {
		return nil, err
	}
	if int64(b) == 0 {
		return int64(0), nil
	}
	return int64(a) % int64(b), nil
}

// fnMin returns the smaller of a and b.
func fnMin(args ...any) (any, error) {
	a, b, err := twoFloats("min", args)
	if err != nil {
		return nil, err
	}
	if a < b {
		return a, nil
	}
	return b, nil
}

// fnMax returns the larger of a and b.
func fnMax(args ...any) (any, error) {
	a, b, err := twoFloats("max", args)
	if err != nil {
		return nil, err
	}
	if a > b {
		return a, nil
	}
	return b, nil
}

// fnRound rounds to the nearest integer, halves away from zero.
func fnRound(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("round: expected 1 argument, got %d", len(args))
	}
	return math.Round(toFloat(args[0])), nil
}
