package nectar

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
	KindSeq
	KindMap
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	case KindSeq:
		return "sequence"
	case KindMap:
		return "mapping"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Capable is implemented by context values that expose methods to templates.
// Only the members returned by Capabilities are invocable; everything else
// on the concrete type stays out of reach of template authors.
type Capable interface {
	Capabilities() CapabilitySet
}

// CapabilitySet is the declared method surface of a context object.
type CapabilitySet map[string]Capability

// Capability is one invocable member of a capability set. Exactly one of
// Fn and AsyncFn is set; an async-only member fails synchronous renders.
type Capability struct {
	Fn      Func
	AsyncFn AsyncFunc
}

// Value is the engine's closed representation of one context datum. The
// zero Value is the none value, which renders as the empty string.
type Value struct {
	data any // nil, bool, int64, float64, string, time.Time, []Value, map[string]Value or Capable
}

// valueOf normalizes arbitrary Go data into the closed variant set.
// Capability objects and times keep their identity; slices and maps are
// converted element-wise; anything unrecognized is flattened to its fmt
// representation.
func valueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case Capable:
		return Value{data: x}
	case time.Time:
		return Value{data: x}
	case bool:
		return Value{data: x}
	case string:
		return Value{data: x}
	case int:
		return Value{data: int64(x)}
	case int8:
		return Value{data: int64(x)}
	case int16:
		return Value{data: int64(x)}
	case int32:
		return Value{data: int64(x)}
	case int64:
		return Value{data: x}
	case uint:
		return Value{data: int64(x)}
	case uint8:
		return Value{data: int64(x)}
	case uint16:
		return Value{data: int64(x)}
	case uint32:
		return Value{data: int64(x)}
	case uint64:
		return Value{data: int64(x)}
	case float32:
		return Value{data: float64(x)}
	case float64:
		return Value{data: x}
	case []any:
		seq := make([]Value, len(x))
		for i, el := range x {
			seq[i] = valueOf(el)
		}
		return Value{data: seq}
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, el := range x {
			m[k] = valueOf(el)
		}
		return Value{data: m}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Value{}
		}
		return valueOf(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		seq := make([]Value, rv.Len())
		for i := range seq {
			seq[i] = valueOf(rv.Index(i).Interface())
		}
		return Value{data: seq}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			m := make(map[string]Value, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				m[iter.Key().String()] = valueOf(iter.Value().Interface())
			}
			return Value{data: m}
		}
	}
	return Value{data: fmt.Sprint(v)}
}

// Kind returns the variant held by the value.
func (v Value) Kind() Kind {
	switch v.data.(type) {
	case nil:
		return KindNone
	case bool:
		return KindBool
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case time.Time:
		return KindTime
	case []Value:
		return KindSeq
	case map[string]Value:
		return KindMap
	default:
		return KindObject
	}
}

// IsTrue reports whether the value gates a section open. Sequences and
// mappings are true when non-empty; a zero time is false.
func (v Value) IsTrue() bool {
	switch x := v.data.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case time.Time:
		return !x.IsZero()
	case []Value:
		return len(x) > 0
	case map[string]Value:
		return len(x) > 0
	default:
		return true
	}
}

// IsEmpty reports whether the value counts as empty for the isEmpty and
// default helpers. Booleans, numbers and times are never empty.
func (v Value) IsEmpty() bool {
	switch x := v.data.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []Value:
		return len(x) == 0
	case map[string]Value:
		return len(x) == 0
	default:
		return false
	}
}

// String renders the value the way the output stream does. None renders as
// the empty string, times as RFC 3339.
func (v Value) String() string {
	switch x := v.data.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	case []Value, map[string]Value:
		return fmt.Sprint(v.Export())
	default:
		return fmt.Sprint(x)
	}
}

// Export converts the value back to plain Go data, the inverse of valueOf.
// Sequences come back as []any and mappings as map[string]any; capability
// objects come back as themselves.
func (v Value) Export() any {
	switch x := v.data.(type) {
	case []Value:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = el.Export()
		}
		return out
	case map[string]Value:
		out := make(map[string]any, len(x))
		for k, el := range x {
			out[k] = el.Export()
		}
		return out
	default:
		return x
	}
}

func (v Value) getAttr(name string) (Value, bool) {
	m, ok := v.data.(map[string]Value)
	if !ok {
		return Value{}, false
	}
	val, ok := m[name]
	return val, ok
}

func (v Value) asSeq() ([]Value, bool) {
	s, ok := v.data.([]Value)
	return s, ok
}

func (v Value) asMap() (map[string]Value, bool) {
	m, ok := v.data.(map[string]Value)
	return m, ok
}

func (v Value) capable() (Capable, bool) {
	c, ok := v.data.(Capable)
	return c, ok
}
