// Package promptregistry pulls prompt templates by logical name. It
// generalizes the teacher's three-layer prompt loader (hardcoded / L2
// embedded-with-disk-override / L3 user rules) to this domain's single
// override layer: embedded defaults, optionally overridden from disk
// during local development.
package promptregistry

import (
	"embed"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
)

//go:embed prompts/*
var defaultPrompts embed.FS

// Registry pulls named prompt templates, caching content after first read.
type Registry struct {
	localDir  string // disk override directory; empty disables overrides
	useLocal  bool
	mu        sync.RWMutex
	cache     map[string]string
}

// New creates a Registry. When useLocal is true, Pull first checks
// localDir/<name> (set via USE_LOCAL_COVERAGE_PROMPT=true in development)
// before falling back to the embedded default.
func New(localDir string, useLocal bool) *Registry {
	return &Registry{
		localDir: localDir,
		useLocal: useLocal,
		cache:    make(map[string]string),
	}
}

// Pull returns the content of the named template (e.g. "plan_system.md").
//
// Priority:
//  1. Disk file at localDir/name, only if useLocal is set (dev override)
//  2. Embedded default at prompts/name
//  3. Empty string (silent, template simply absent)
func (r *Registry) Pull(name string) string {
	r.mu.RLock()
	if val, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return val
	}
	r.mu.RUnlock()

	content := r.pullUncached(name)

	r.mu.Lock()
	r.cache[name] = content
	r.mu.Unlock()
	return content
}

func (r *Registry) pullUncached(name string) string {
	if r.useLocal && r.localDir != "" {
		diskPath := filepath.Join(r.localDir, name)
		data, err := os.ReadFile(diskPath)
		if err == nil {
			log.Printf("[PromptRegistry] loaded %q from local override %s", name, diskPath)
			return string(data)
		}
		if !os.IsNotExist(err) {
			log.Printf("[PromptRegistry] warning: read %q failed: %v; falling back to embedded default", diskPath, err)
		}
	}

	data, err := fs.ReadFile(defaultPrompts, "prompts/"+name)
	if err != nil {
		return ""
	}
	return string(data)
}

// Reload clears the cache so the next Pull re-reads from disk/embed.
func (r *Registry) Reload() {
	r.mu.Lock()
	r.cache = make(map[string]string)
	r.mu.Unlock()
}
