package nectar

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Engine is the central controller of the templating system. It owns the
// function registry, the partial loader and the render configuration, and
// exposes every render entry point. All methods are concurrent-safe;
// independent renders may run in parallel over one Engine.
type Engine struct {
	logger   *slog.Logger
	funcs    *FuncRegistry
	partials *PartialLoader
	baseDir  string
	mu       sync.RWMutex
	config   *Config
}

// New creates an Engine rooted at baseDir, the directory templates and
// partials are searched under. baseDir may be empty for engines that only
// render strings without partials. A nil logger discards log output; a nil
// config uses DefaultConfig. The full built-in helper set is registered
// before New returns.
func New(logger *slog.Logger, config *Config, baseDir string) (*Engine, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config == nil {
		config = DefaultConfig()
	}

	e := &Engine{
		logger: logger,
		funcs:  NewFuncRegistry(),
		config: config,
	}
	if baseDir != "" {
		abs, err := filepath.Abs(baseDir)
		if err != nil {
			return nil, fmt.Errorf("resolving template directory: %w", err)
		}
		e.baseDir = abs
		e.partials = newPartialLoader(logger, abs)
	}
	if err := registerBuiltins(e.funcs); err != nil {
		return nil, err
	}

	logger.Info("Template engine initialized", "templateDir", e.baseDir)
	return e, nil
}

// Template is a compiled template. The node tree is immutable, so one
// Template may serve any number of concurrent renders.
type Template struct {
	eng   *Engine
	name  string
	src   string
	dir   string
	nodes []Node
}

// Name returns the base name of the file the template was compiled from,
// or "" for string templates.
func (t *Template) Name() string { return t.name }

// Render executes the template synchronously. Reaching an asynchronous
// function or method is an error in this mode.
func (t *Template) Render(data map[string]any) (string, error) {
	st := newRenderState(t.eng, t.src, t.dir, data)
	var sb strings.Builder
	if err := st.renderNodes(&sb, t.nodes); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Compile parses template source into a reusable Template. Partials
// referenced by the template are searched from the engine's base
// directory.
func (e *Engine) Compile(src string) (*Template, error) {
	nodes, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return &Template{eng: e, src: src, dir: e.baseDir, nodes: nodes}, nil
}

// CompileFile reads and compiles the template file at path. Partials
// referenced by the template are searched from the file's own directory.
func (e *Engine) CompileFile(path string) (*Template, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving template %s: %w", path, err)
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", path, err)
	}
	nodes, err := Parse(string(raw))
	if err != nil {
		return nil, err
	}
	return &Template{
		eng:   e,
		name:  filepath.Base(abs),
		src:   string(raw),
		dir:   filepath.Dir(abs),
		nodes: nodes,
	}, nil
}

// Render parses and renders template source against data in synchronous
// mode. Use RenderAsync for templates that call asynchronous functions.
func (e *Engine) Render(src string, data map[string]any) (string, error) {
	t, err := e.Compile(src)
	if err != nil {
		return "", err
	}
	return t.Render(data)
}

// RenderFile renders the template file at path in synchronous mode.
func (e *Engine) RenderFile(path string, data map[string]any) (string, error) {
	t, err := e.CompileFile(path)
	if err != nil {
		return "", err
	}
	return t.Render(data)
}

// RegisterFunction adds a synchronous template function. Registration
// fails if the name is already taken, built-in names included.
func (e *Engine) RegisterFunction(name string, fn Func) error {
	return e.funcs.Register(name, fn)
}

// RegisterAsyncFunction adds an asynchronous template function under the
// same shared namespace as RegisterFunction.
func (e *Engine) RegisterAsyncFunction(name string, fn AsyncFunc) error {
	return e.funcs.RegisterAsync(name, fn)
}

// UnregisterFunction removes a function by name and reports whether one
// was removed.
func (e *Engine) UnregisterFunction(name string) bool {
	return e.funcs.Unregister(name)
}

// HasFunction reports whether name is a registered synchronous function.
func (e *Engine) HasFunction(name string) bool {
	return e.funcs.Has(name)
}

// HasAsyncFunction reports whether name is a registered asynchronous
// function.
func (e *Engine) HasAsyncFunction(name string) bool {
	return e.funcs.HasAsync(name)
}

// IsBuiltinFunction reports whether name is one of the engine's built-in
// helpers.
func (e *Engine) IsBuiltinFunction(name string) bool {
	return e.funcs.IsBuiltin(name)
}

// ClearCustomFunctions resets the registry to exactly the built-in set.
func (e *Engine) ClearCustomFunctions() {
	e.funcs.ClearCustom()
}

// RegisteredFunctions returns the names of all registered functions,
// sorted.
func (e *Engine) RegisteredFunctions() []string {
	return e.funcs.Names()
}

// SetConfig applies a new configuration to the engine. Renders that are
// already in flight keep the configuration they started with for fallback
// lookups made after the swap.
func (e *Engine) SetConfig(config *Config) {
	if config == nil {
		config = DefaultConfig()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config = config
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return *e.config
}

// TemplateDir returns the engine's template root, or "" for a string-only
// engine.
func (e *Engine) TemplateDir() string { return e.baseDir }

// ListTemplates returns the base names of the full templates directly
// under the template root, sorted.
func (e *Engine) ListTemplates() ([]string, error) {
	if e.baseDir == "" {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(e.baseDir, "*"+TemplateExt))
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names, nil
}

// ClearPartialCache drops every cached partial so the next reference
// re-reads from disk.
func (e *Engine) ClearPartialCache() {
	if e.partials != nil {
		e.partials.ClearCache()
	}
}

func (e *Engine) fallback(name string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.config.Fallbacks[name]
	return v, ok
}

func (e *Engine) maxPartialDepth() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.config.MaxPartialDepth <= 0 {
		return defaultMaxPartialDepth
	}
	return e.config.MaxPartialDepth
}
