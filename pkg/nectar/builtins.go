package nectar

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// registerBuiltins installs the built-in helper set into r. Every helper
// is flagged built-in so ClearCustom keeps it.
func registerBuiltins(r *FuncRegistry) error {
	for _, cat := range []map[string]Func{
		stringFuncs(),
		dateFuncs(),
		mathFuncs(),
		collectionFuncs(),
		utilFuncs(),
	} {
		for name, fn := range cat {
			if err := r.registerBuiltin(name, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// toString renders an argument the way the output stream would.
func toString(v any) string {
	return valueOf(v).String()
}

// toFloat coerces numeric-looking arguments to a float64. Anything
// non-numeric, including unparseable strings, counts as 0.
func toFloat(v any) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// toTime interprets an argument as a point in time. Accepted forms are
// time values, RFC 3339 strings, and Unix-second numbers.
func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		t, err := time.Parse(time.RFC3339, x)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case int:
		return time.Unix(int64(x), 0).UTC(), true
	case int64:
		return time.Unix(x, 0).UTC(), true
	case float64:
		sec, frac := math.Modf(x)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
	}
	return time.Time{}, false
}
