// Package registry maps declared type names to their owning namespace.
//
// The registry is built incrementally while partitions are extracted and
// may be pre-seeded from externally produced metadata files before any
// extraction runs. Registration is append-only and first-writer-wins:
// the first partition (in configured order) to register a name owns it,
// and later duplicates are rejected. It is safe for concurrent reads
// with exclusive writes.
package registry

import (
	"sync"

	"go.uber.org/zap"
)

// Entry describes the owner of a registered type name.
type Entry struct {
	Namespace string
	// External is set for entries seeded from another metadata file;
	// Assembly is that file's assembly name.
	External bool
	Assembly string
}

// Registry is the shared type-name table. The zero value is not usable;
// call New.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	log     *zap.Logger
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
		log:     zap.NewNop(),
	}
}

// SetLogger configures the registry's logger.
func (r *Registry) SetLogger(l *zap.Logger) {
	if l != nil {
		r.log = l
	}
}

// Register records that name is defined in namespace. It returns false,
// without modifying anything, when the name is already registered.
func (r *Registry) Register(name, namespace string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		return false
	}
	r.entries[name] = Entry{Namespace: namespace}
	return true
}

// Resolve returns the owning namespace for name.
func (r *Registry) Resolve(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.Namespace, ok
}

// Lookup returns the full entry for name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// NamespaceFor returns name's owning namespace, or fallback when the
// name is not registered.
func (r *Registry) NamespaceFor(name, fallback string) string {
	if ns, ok := r.Resolve(name); ok {
		return ns
	}
	return fallback
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// SeededType is one type row read from an external metadata file.
type SeededType struct {
	Namespace string
	Name      string
}

// Seed pre-registers types read from an external metadata file so that
// later partitions reference them instead of redefining them. Only types
// whose namespace starts with nsFilter are taken; assembly names the
// source file for cross-file reference rows.
//
// Seeding runs before any extraction, so seeded entries win the
// first-writer-wins race against local definitions. When the same name
// appears under two namespaces of one external file, the
// lexicographically smaller namespace wins, keeping resolution
// deterministic instead of depending on row order.
func (r *Registry) Seed(types []SeededType, nsFilter, assembly string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	seeded := 0
	for _, t := range types {
		if t.Namespace == "" || t.Name == "" || t.Name == "<Module>" || t.Name == "Apis" {
			continue
		}
		if nsFilter != "" && !hasNSPrefix(t.Namespace, nsFilter) {
			continue
		}
		if prev, ok := r.entries[t.Name]; ok {
			if prev.External && prev.Assembly == assembly && t.Namespace < prev.Namespace {
				r.entries[t.Name] = Entry{Namespace: t.Namespace, External: true, Assembly: assembly}
			}
			continue
		}
		r.entries[t.Name] = Entry{Namespace: t.Namespace, External: true, Assembly: assembly}
		seeded++
	}

	r.log.Info("seeded type registry",
		zap.String("assembly", assembly),
		zap.String("filter", nsFilter),
		zap.Int("imported", seeded))
	return seeded
}

// hasNSPrefix reports whether ns equals filter or lives under it
// ("posix.net" is under "posix", "posixfile" is not).
func hasNSPrefix(ns, filter string) bool {
	if ns == filter {
		return true
	}
	return len(ns) > len(filter) && ns[:len(filter)] == filter && ns[len(filter)] == '.'
}
