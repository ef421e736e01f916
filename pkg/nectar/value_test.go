package nectar

import (
	"reflect"
	"testing"
	"time"
)

func TestValueKinds(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want Kind
	}{
		{"Nil", nil, KindNone},
		{"NilPointer", (*int)(nil), KindNone},
		{"Bool", true, KindBool},
		{"Int", 7, KindInt},
		{"Uint8", uint8(7), KindInt},
		{"Float", 1.5, KindFloat},
		{"Float32", float32(1.5), KindFloat},
		{"String", "s", KindString},
		{"Time", time.Now(), KindTime},
		{"AnySlice", []any{1}, KindSeq},
		{"TypedSlice", []string{"a"}, KindSeq},
		{"Array", [2]int{1, 2}, KindSeq},
		{"AnyMap", map[string]any{"k": 1}, KindMap},
		{"TypedMap", map[string]int{"k": 1}, KindMap},
		{"Capable", testFeed{}, KindObject},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := valueOf(tc.in).Kind(); got != tc.want {
				t.Errorf("valueOf(%#v).Kind() = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestValueIsTrue(t *testing.T) {
	truthy := []any{true, 1, -1, 0.5, "x", time.Now(), []any{0}, map[string]any{"k": nil}}
	for _, in := range truthy {
		if !valueOf(in).IsTrue() {
			t.Errorf("%#v should be true", in)
		}
	}
	falsy := []any{nil, false, 0, 0.0, "", time.Time{}, []any{}, map[string]any{}}
	for _, in := range falsy {
		if valueOf(in).IsTrue() {
			t.Errorf("%#v should be false", in)
		}
	}
}

func TestValueString(t *testing.T) {
	ts := time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC)
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{true, "true"},
		{42, "42"},
		{5.0, "5"},
		{3.5, "3.5"},
		{"plain", "plain"},
		{ts, "2024-03-10T12:30:00Z"},
		{[]any{1, "a"}, "[1 a]"},
	}
	for _, tc := range cases {
		if got := valueOf(tc.in).String(); got != tc.want {
			t.Errorf("valueOf(%#v).String() = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValueExport(t *testing.T) {
	in := map[string]any{
		"name": "Ada",
		"tags": []any{"a", "b"},
		"deep": map[string]any{"n": 7},
	}
	got := valueOf(in).Export()
	want := map[string]any{
		"name": "Ada",
		"tags": []any{"a", "b"},
		"deep": map[string]any{"n": int64(7)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestValueIsEmpty(t *testing.T) {
	empty := []any{nil, "", []any{}, map[string]any{}}
	for _, in := range empty {
		if !valueOf(in).IsEmpty() {
			t.Errorf("%#v should be empty", in)
		}
	}
	nonEmpty := []any{0, false, "x", time.Time{}, []any{1}}
	for _, in := range nonEmpty {
		if valueOf(in).IsEmpty() {
			t.Errorf("%#v should not be empty", in)
		}
	}
}

func TestEscapeHTML(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{`<a href="x">&'s</a>`, "&lt;a href=&quot;x&quot;&gt;&amp;&#39;s&lt;/a&gt;"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := EscapeHTML(tc.in); got != tc.want {
			t.Errorf("EscapeHTML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
