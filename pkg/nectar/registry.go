package nectar

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sahilm/fuzzy"
)

// Func is a synchronous template function. Implementations receive the
// evaluated call arguments and return a value for the output stream.
type Func func(args ...any) (any, error)

// AsyncFunc is a context-aware template function. Asynchronous rendering
// awaits it where its tag appears; it is never started concurrently with
// the rest of the walk.
type AsyncFunc func(ctx context.Context, args ...any) (any, error)

type funcEntry struct {
	fn      Func
	asyncFn AsyncFunc
	builtin bool
}

// FuncRegistry maps template-callable names to implementations.
// Synchronous and asynchronous functions share one namespace: a name
// refers to exactly one of the two. All methods are concurrent-safe.
type FuncRegistry struct {
	mu       sync.RWMutex
	entries  map[string]*funcEntry
	builtins map[string]*funcEntry
}

// NewFuncRegistry returns an empty registry.
func NewFuncRegistry() *FuncRegistry {
	return &FuncRegistry{
		entries:  make(map[string]*funcEntry),
		builtins: make(map[string]*funcEntry),
	}
}

func (r *FuncRegistry) register(name string, e *funcEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("function %q is already registered", name)
	}
	r.entries[name] = e
	if e.builtin {
		r.builtins[name] = e
	}
	return nil
}

// Register adds a synchronous function under name. Registration fails if
// the name is taken by any function, sync or async, and the existing entry
// is left untouched.
func (r *FuncRegistry) Register(name string, fn Func) error {
	if fn == nil {
		return fmt.Errorf("function %q is nil", name)
	}
	return r.register(name, &funcEntry{fn: fn})
}

// RegisterAsync adds an asynchronous function under name. The same
// single-namespace rule as Register applies.
func (r *FuncRegistry) RegisterAsync(name string, fn AsyncFunc) error {
	if fn == nil {
		return fmt.Errorf("function %q is nil", name)
	}
	return r.register(name, &funcEntry{asyncFn: fn})
}

func (r *FuncRegistry) registerBuiltin(name string, fn Func) error {
	return r.register(name, &funcEntry{fn: fn, builtin: true})
}

// Unregister removes name from the registry, built-in or not, and reports
// whether an entry was removed. A removed built-in comes back on the next
// ClearCustom.
func (r *FuncRegistry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		return false
	}
	delete(r.entries, name)
	return true
}

// ClearCustom resets the registry to exactly the built-in set it was
// constructed with.
func (r *FuncRegistry) ClearCustom() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*funcEntry, len(r.builtins))
	for name, e := range r.builtins {
		r.entries[name] = e
	}
}

// Has reports whether name is registered as a synchronous function.
func (r *FuncRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return ok && e.fn != nil
}

// HasAsync reports whether name is registered as an asynchronous function.
func (r *FuncRegistry) HasAsync(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return ok && e.asyncFn != nil
}

// IsBuiltin reports whether name is currently registered and part of the
// built-in set.
func (r *FuncRegistry) IsBuiltin(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return ok && e.builtin
}

// Names returns every registered name, sorted.
func (r *FuncRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes the synchronous function registered under name. Reaching an
// async-only name is a rendering error; a failure inside the function is
// wrapped as a function-call error.
func (r *FuncRegistry) Call(name string, args []any) (any, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, r.unknownError(name)
	}
	if e.fn == nil {
		return nil, newError(ErrRender, "function %q requires asynchronous rendering", name)
	}
	res, err := e.fn(args...)
	if err != nil {
		return nil, newError(ErrFunction, "function %q failed", name).withCause(err)
	}
	return res, nil
}

// CallAsync invokes the function registered under name, passing ctx to
// asynchronous implementations. Synchronous functions are called directly.
func (r *FuncRegistry) CallAsync(ctx context.Context, name string, args []any) (any, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, r.unknownError(name)
	}
	if e.asyncFn == nil {
		return r.Call(name, args)
	}
	res, err := e.asyncFn(ctx, args...)
	if err != nil {
		return nil, newError(ErrFunction, "function %q failed", name).withCause(err)
	}
	return res, nil
}

func (r *FuncRegistry) unknownError(name string) *Error {
	if s := r.suggest(name); s != "" {
		return newError(ErrRender, "unknown function %q (did you mean %q?)", name, s)
	}
	return newError(ErrRender, "unknown function %q", name)
}

// suggest returns the closest registered name to name, or "" when nothing
// is close enough to be useful.
func (r *FuncRegistry) suggest(name string) string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	r.mu.RUnlock()
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
