package nectar

import (
	"strings"
	"testing"
	"time"
)

// call invokes a builtin directly and fails the test on error.
func call(tb testing.TB, fn Func, args ...any) any {
	tb.Helper()
	res, err := fn(args...)
	if err != nil {
		tb.Fatalf("unexpected error: %v", err)
	}
	return res
}

func TestStringFuncs(t *testing.T) {
	cases := []struct {
		name string
		fn   Func
		args []any
		want any
	}{
		{"Upper", fnUpper, []any{"go"}, "GO"},
		{"UpperNumber", fnUpper, []any{42}, "42"},
		{"Lower", fnLower, []any{"LOUD"}, "loud"},
		{"Capitalize", fnCapitalize, []any{"hello there"}, "Hello there"},
		{"CapitalizeEmpty", fnCapitalize, []any{""}, ""},
		{"CapitalizeMultibyte", fnCapitalize, []any{"éclair"}, "Éclair"},
		{"Trim", fnTrim, []any{"  padded \n"}, "padded"},
		{"TruncateCut", fnTruncate, []any{"hello world", 5}, "hello…"},
		{"TruncateFits", fnTruncate, []any{"hello", 5}, "hello"},
		{"TruncateMultibyte", fnTruncate, []any{"héllo wörld", 6}, "héllo…"},
		{"TruncateNegative", fnTruncate, []any{"hi", -1}, "…"},
		{"Replace", fnReplace, []any{"a-b-c", "-", "+"}, "a+b+c"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := call(t, tc.fn, tc.args...); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}

	t.Run("Arity", func(t *testing.T) {
		if _, err := fnUpper(); err == nil {
			t.Error("upper wants exactly one argument")
		}
		if _, err := fnReplace("a", "b"); err == nil {
			t.Error("replace wants three arguments")
		}
	})
}

func TestMathFuncs(t *testing.T) {
	cases := []struct {
		name string
		fn   Func
		args []any
		want any
	}{
		{"Add", fnAdd, []any{2, 3}, float64(5)},
		{"AddCoerced", fnAdd, []any{"2", 2.5}, float64(4.5)},
		{"Sub", fnSub, []any{10, 4}, float64(6)},
		{"Mult", fnMult, []any{6, 7}, float64(42)},
		{"Div", fnDiv, []any{7, 2}, float64(3.5)},
		{"DivByZero", fnDiv, []any{7, 0}, float64(0)},
		{"Mod", fnMod, []any{7, 3}, int64(1)},
		{"ModByZero", fnMod, []any{7, 0}, int64(0)},
		{"Min", fnMin, []any{3, -1}, float64(-1)},
		{"Max", fnMax, []any{3, -1}, float64(3)},
		{"Round", fnRound, []any{2.5}, float64(3)},
		{"RoundAwayFromZero", fnRound, []any{-2.5}, float64(-3)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := call(t, tc.fn, tc.args...); got != tc.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tc.want, tc.want)
			}
		})
	}
}

func TestDateFuncs(t *testing.T) {
	ref := time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC)

	t.Run("Now", func(t *testing.T) {
		res := call(t, fnNow)
		now, ok := res.(time.Time)
		if !ok {
			t.Fatalf("got %T", res)
		}
		if d := time.Since(now); d < 0 || d > time.Minute {
			t.Errorf("now is off by %v", d)
		}
		if _, err := fnNow("x"); err == nil {
			t.Error("now takes no arguments")
		}
	})

	t.Run("FormatDate", func(t *testing.T) {
		if got := call(t, fnFormatDate, ref, "2006-01-02"); got != "2024-03-10" {
			t.Errorf("got %v", got)
		}
		if got := call(t, fnFormatDate, "2024-03-10T12:30:00Z", "15:04"); got != "12:30" {
			t.Errorf("RFC 3339 strings should parse, got %v", got)
		}
		if got := call(t, fnFormatDate, 0, "2006-01-02"); got != "1970-01-01" {
			t.Errorf("Unix seconds should parse, got %v", got)
		}
		if _, err := fnFormatDate("not a date", "2006"); err == nil {
			t.Error("garbage input should fail")
		}
	})

	t.Run("DateAdd", func(t *testing.T) {
		cases := []struct {
			n    any
			unit string
			want time.Time
		}{
			{1, "years", ref.AddDate(1, 0, 0)},
			{-2, "months", ref.AddDate(0, -2, 0)},
			{10, "days", ref.AddDate(0, 0, 10)},
			{3, "hours", ref.Add(3 * time.Hour)},
			{90, "minutes", ref.Add(90 * time.Minute)},
			{30, "seconds", ref.Add(30 * time.Second)},
			{1, "DAY", ref.AddDate(0, 0, 1)},
		}
		for _, tc := range cases {
			res := call(t, fnDateAdd, ref, tc.n, tc.unit)
			got, ok := res.(time.Time)
			if !ok {
				t.Fatalf("dateAdd(%v, %s) returned %T", tc.n, tc.unit, res)
			}
			if !got.Equal(tc.want) {
				t.Errorf("dateAdd(%v, %s) = %v, want %v", tc.n, tc.unit, got, tc.want)
			}
		}
		if _, err := fnDateAdd(ref, 1, "fortnights"); err == nil {
			t.Error("unknown units should fail")
		}
	})
}

func TestCollectionFuncs(t *testing.T) {
	t.Run("Length", func(t *testing.T) {
		cases := []struct {
			arg  any
			want int64
		}{
			{"héllo", 5},
			{"", 0},
			{[]any{1, 2, 3}, 3},
			{map[string]any{"a": 1}, 1},
			{nil, 0},
		}
		for _, tc := range cases {
			if got := call(t, fnLength, tc.arg); got != tc.want {
				t.Errorf("length(%#v) = %v, want %v", tc.arg, got, tc.want)
			}
		}
		if _, err := fnLength(42); err == nil {
			t.Error("numbers have no length")
		}
	})

	t.Run("Join", func(t *testing.T) {
		if got := call(t, fnJoin, []any{"a", "b", "c"}, ", "); got != "a, b, c" {
			t.Errorf("got %v", got)
		}
		if got := call(t, fnJoin, []int{1, 2}, "-"); got != "1-2" {
			t.Errorf("elements stringify like output, got %v", got)
		}
		if _, err := fnJoin("abc", ","); err == nil {
			t.Error("join wants a sequence")
		}
	})

	t.Run("First", func(t *testing.T) {
		if got := call(t, fnFirst, []any{"x", "y"}); got != "x" {
			t.Errorf("got %v", got)
		}
		if got := call(t, fnFirst, "héllo"); got != "h" {
			t.Errorf("got %v", got)
		}
		if got := call(t, fnFirst, []any{}); got != nil {
			t.Errorf("an empty sequence has no first element, got %v", got)
		}
		if _, err := fnFirst(5); err == nil {
			t.Error("numbers have no first element")
		}
	})

	t.Run("Last", func(t *testing.T) {
		if got := call(t, fnLast, []any{"x", "y"}); got != "y" {
			t.Errorf("got %v", got)
		}
		if got := call(t, fnLast, "wörld"); got != "d" {
			t.Errorf("got %v", got)
		}
		if got := call(t, fnLast, ""); got != nil {
			t.Errorf("an empty string has no last rune, got %v", got)
		}
	})
}

func TestUtilFuncs(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		cases := []struct {
			val, fb, want any
		}{
			{"", "fb", "fb"},
			{nil, "fb", "fb"},
			{[]any{}, "fb", "fb"},
			{"x", "fb", "x"},
			{0, "fb", 0},
			{false, "fb", false},
		}
		for _, tc := range cases {
			if got := call(t, fnDefault, tc.val, tc.fb); got != tc.want {
				t.Errorf("default(%#v, %#v) = %v, want %v", tc.val, tc.fb, got, tc.want)
			}
		}
	})

	t.Run("IsEmpty", func(t *testing.T) {
		if got := call(t, fnIsEmpty, ""); got != true {
			t.Error("an empty string is empty")
		}
		if got := call(t, fnIsEmpty, 0); got != false {
			t.Error("zero is a value, not emptiness")
		}
		if got := call(t, fnIsNotEmpty, "x"); got != true {
			t.Error("a non-empty string is not empty")
		}
	})
}

func TestArgCoercions(t *testing.T) {
	t.Run("ToFloat", func(t *testing.T) {
		cases := []struct {
			arg  any
			want float64
		}{
			{3, 3},
			{int64(4), 4},
			{2.5, 2.5},
			{true, 1},
			{false, 0},
			{"3.5", 3.5},
			{" 2 ", 2},
			{"nonsense", 0},
			{nil, 0},
		}
		for _, tc := range cases {
			if got := toFloat(tc.arg); got != tc.want {
				t.Errorf("toFloat(%#v) = %v, want %v", tc.arg, got, tc.want)
			}
		}
	})

	t.Run("ToTime", func(t *testing.T) {
		want := time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC)
		got, ok := toTime("2024-03-10T12:30:00Z")
		if !ok || !got.Equal(want) {
			t.Errorf("got %v, %v", got, ok)
		}
		if _, ok = toTime("yesterday-ish"); ok {
			t.Error("loose strings should not parse")
		}
		got, ok = toTime(int64(86400))
		if !ok || got.Day() != 2 {
			t.Errorf("86400 seconds is the second day of 1970, got %v", got)
		}
	})

	t.Run("ToString", func(t *testing.T) {
		cases := []struct {
			arg  any
			want string
		}{
			{5.0, "5"},
			{3.5, "3.5"},
			{int64(7), "7"},
			{true, "true"},
			{nil, ""},
			{"s", "s"},
		}
		for _, tc := range cases {
			if got := toString(tc.arg); got != tc.want {
				t.Errorf("toString(%#v) = %q, want %q", tc.arg, got, tc.want)
			}
		}
	})
}

func TestBuiltinRegistration(t *testing.T) {
	r := NewFuncRegistry()
	if err := registerBuiltins(r); err != nil {
		t.Fatalf("registerBuiltins failed: %v", err)
	}
	for _, name := range []string{
		"upper", "lower", "capitalize", "trim", "truncate", "replace",
		"now", "formatDate", "dateAdd",
		"add", "sub", "mult", "div", "mod", "min", "max", "round",
		"length", "join", "first", "last",
		"default", "isEmpty", "isNotEmpty",
	} {
		if !r.Has(name) {
			t.Errorf("builtin %q is missing", name)
		}
		if !r.IsBuiltin(name) {
			t.Errorf("builtin %q is not flagged", name)
		}
	}
	if !strings.HasPrefix(toString(7.25), "7.25") {
		t.Errorf("float formatting drifted: %s", toString(7.25))
	}
}
