package nectar

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a template failure by the stage that produced it.
type ErrorKind int

const (
	// ErrParse covers malformed template syntax, unmatched sections, and
	// partial references that resolve to no file.
	ErrParse ErrorKind = iota
	// ErrRender covers failures of the render walk itself, such as an
	// unknown function name or a synchronous render reaching an async-only
	// function.
	ErrRender
	// ErrFunction covers errors raised by a registered function.
	ErrFunction
	// ErrMethod covers errors raised by a context object method, and
	// invocations of members outside the object's declared capability set.
	ErrMethod
)

func (k ErrorKind) String() string {
	switch k {
	case ErrParse:
		return "parsing"
	case ErrRender:
		return "rendering"
	case ErrFunction:
		return "function-call"
	case ErrMethod:
		return "method-invocation"
	default:
		return "unknown"
	}
}

// Error is the failure type returned by every parse and render entry point.
// Pos is a byte offset into the template source, or -1 when the failing
// stage had no position to attach. Context holds a short excerpt of the
// source around Pos. Err holds the wrapped cause, if any.
type Error struct {
	Kind    ErrorKind
	Message string
	Pos     int
	Context string
	Err     error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Pos >= 0 {
		fmt.Fprintf(&sb, " (offset %d", e.Pos)
		if e.Context != "" {
			fmt.Fprintf(&sb, " near %q", e.Context)
		}
		sb.WriteByte(')')
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the wrapped cause so errors.Is and errors.As can see
// through template errors.
func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: -1}
}

func (e *Error) withPos(src string, pos int) *Error {
	e.Pos = pos
	e.Context = excerpt(src, pos)
	return e
}

func (e *Error) withCause(err error) *Error {
	e.Err = err
	return e
}

// excerpt returns a short run of src starting at pos, cut at the first
// newline, for use as error context.
func excerpt(src string, pos int) string {
	if pos < 0 || pos >= len(src) {
		return ""
	}
	end := pos + 24
	if end > len(src) {
		end = len(src)
	}
	s := src[pos:end]
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
