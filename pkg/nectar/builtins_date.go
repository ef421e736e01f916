package nectar

import (
	"fmt"
	"strings"
	"time"
)

// dateFuncs returns the built-in date and time helpers.
func dateFuncs() map[string]Func {
	return map[string]Func{
		"now":        fnNow,
		"formatDate": fnFormatDate,
		"dateAdd":    fnDateAdd,
	}
}

// fnNow returns the current time.
func fnNow(args ...any) (any, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("now: expected no arguments, got %d", len(args))
	}
	return time.Now(), nil
}

// fnFormatDate formats a time value using a Go layout string, e.g.
// formatDate(created, '2006-01-02').
func fnFormatDate(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("formatDate: expected a value and a layout, got %d arguments", len(args))
	}
	t, ok := toTime(args[0])
	if !ok {
		return nil, fmt.Errorf("formatDate: %v is not a date", args[0])
	}
	return t.Format(toString(args[1])), nil
}

// fnDateAdd shifts a time value by n units. Unit is one of years, months,
// days, hours, minutes or seconds.
func fnDateAdd(args ...any) (any, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("dateAdd: expected a value, an amount and a unit, got %d arguments", len(args))
	}
	t, ok := toTime(args[0])
	if !ok {
		return nil, fmt.Errorf("dateAdd: %v is not a date", args[0])
	}
	n := int(toFloat(args[1]))
	switch unit := strings.ToLower(toString(args[2])); unit {
	case "years", "year":
		return t.AddDate(n, 0, 0), nil
	case "months", "month":
		return t.AddDate(0, n, 0), nil
	case "days", "day":
		return t.AddDate(0, 0, n), nil
	case "hours", "hour":
		return t.Add(time.Duration(n) * time.Hour), nil
	case "minutes", "minute":
		return t.Add(time.Duration(n) * time.Minute), nil
	case "seconds", "second":
		return t.Add(time.Duration(n) * time.Second), nil
	default:
		return nil, fmt.Errorf("dateAdd: unknown unit %q", unit)
	}
}
