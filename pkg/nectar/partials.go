package nectar

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// PartialExt is the double extension that marks a file as a partial.
	PartialExt = ".part.html"
	// TemplateExt is the double extension that marks a file as a full
	// template.
	TemplateExt = ".tmpl.html"
)

// PartialLoader resolves partial names to file content under a fixed root
// directory. Loaded content is cached against the source file's
// modification time, so edits on disk are picked up without a restart.
type PartialLoader struct {
	logger *slog.Logger
	root   string
	mu     sync.Mutex
	cache  map[string]*partialEntry
}

type partialEntry struct {
	content string
	path    string
	modTime time.Time
}

func newPartialLoader(logger *slog.Logger, root string) *PartialLoader {
	return &PartialLoader{
		logger: logger,
		root:   root,
		cache:  make(map[string]*partialEntry),
	}
}

// Load returns the content and resolved path of the partial called name.
// The search starts at fromDir, which must lie inside the loader's root.
// A cached entry is reused until the file behind it has a newer
// modification time.
func (l *PartialLoader) Load(name, fromDir string) (string, string, error) {
	dir, err := filepath.Abs(fromDir)
	if err != nil {
		return "", "", newError(ErrRender, "resolving partial search root %q", fromDir).withCause(err)
	}
	if !l.contains(dir) {
		return "", "", newError(ErrRender, "partial search root %q is outside the template directory", fromDir)
	}

	key := dir + "\x00" + name
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.cache[key]; ok {
		info, serr := os.Stat(entry.path)
		if serr == nil && !info.ModTime().After(entry.modTime) {
			return entry.content, entry.path, nil
		}
		if serr == nil {
			raw, rerr := os.ReadFile(entry.path)
			if rerr == nil {
				entry.content = string(raw)
				entry.modTime = info.ModTime()
				l.logger.Debug("partial reloaded", "name", name, "path", entry.path)
				return entry.content, entry.path, nil
			}
		}
		// The file moved or vanished; search again from scratch.
		delete(l.cache, key)
	}

	path, ok := l.find(name, dir)
	if !ok {
		return "", "", newError(ErrParse, "partial %q not found under %q", name, dir)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", newError(ErrParse, "partial %q is unreadable", name).withCause(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", "", newError(ErrParse, "partial %q is unreadable", name).withCause(err)
	}
	entry := &partialEntry{content: string(raw), path: path, modTime: info.ModTime()}
	l.cache[key] = entry
	l.logger.Debug("partial loaded", "name", name, "path", path)
	return entry.content, entry.path, nil
}

// ClearCache drops all cached partial content, forcing the next Load of
// every name to hit the filesystem.
func (l *PartialLoader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]*partialEntry)
}

// contains reports whether dir is the loader's root or a descendant of it.
func (l *PartialLoader) contains(dir string) bool {
	rel, err := filepath.Rel(l.root, dir)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

// find locates the file backing name. Names with a path separator are
// treated as explicit paths relative to the root and then to dir; bare
// names search dir and then its subdirectories depth-first, skipping
// hidden ones.
func (l *PartialLoader) find(name, dir string) (string, bool) {
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, os.PathSeparator) {
		for _, candidate := range []string{filepath.Join(l.root, name), filepath.Join(dir, name)} {
			if !l.contains(filepath.Dir(candidate)) {
				continue
			}
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, true
			}
		}
		return "", false
	}
	return l.findIn(name+PartialExt, dir)
}

func (l *PartialLoader) findIn(filename, dir string) (string, bool) {
	candidate := filepath.Join(dir, filename)
	if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
		return candidate, true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if path, ok := l.findIn(filename, filepath.Join(dir, entry.Name())); ok {
			return path, true
		}
	}
	return "", false
}
