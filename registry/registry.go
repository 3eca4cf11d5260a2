// Package registry is the in-memory catalog of discovered tools.
//
// Each discovery pass builds a complete immutable Snapshot which is then
// published atomically: in-flight lookups see either the previous or the
// new generation, never a partial one. Reads take no locks.
package registry

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jonwraymond/toolsandbox/manifest"
)

// Errors returned by registry operations.
var (
	// ErrDuplicate is returned when a later bundle collides with a
	// registered name. The earlier bundle always wins.
	ErrDuplicate = errors.New("registry: duplicate tool name")

	// ErrNotFound is returned by Lookup for unregistered names.
	ErrNotFound = errors.New("registry: tool not found")
)

// DuplicateError identifies both sides of a name collision.
type DuplicateError struct {
	// Name is the colliding tool name.
	Name string

	// Existing is the source directory of the registered bundle.
	Existing string

	// Rejected is the source directory of the bundle that lost.
	Rejected string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("registry: duplicate tool name %q: %s already registered, rejecting %s",
		e.Name, e.Existing, e.Rejected)
}

// Is reports whether this error matches ErrDuplicate.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// Bundle pairs a validated manifest with the location of its executable
// module. Immutable once registered.
type Bundle struct {
	// Manifest is the tool's validated metadata.
	Manifest manifest.Manifest

	// ModulePath is the compiled module on disk. Opaque to the registry.
	ModulePath string

	// Source is the directory the bundle was discovered in, used in
	// collision reports.
	Source string
}

// Entry is one row of a tool listing.
type Entry struct {
	Name        string
	Description string
}

// Snapshot is one immutable discovery generation. Build with Builder.
type Snapshot struct {
	byName map[string]Bundle
	order  []string
}

// Len returns the number of registered tools.
func (s *Snapshot) Len() int {
	return len(s.order)
}

// Lookup resolves a tool name to its bundle.
func (s *Snapshot) Lookup(name string) (Bundle, error) {
	b, ok := s.byName[name]
	if !ok {
		return Bundle{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return b, nil
}

// List returns (name, description) pairs in discovery order.
func (s *Snapshot) List() []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, name := range s.order {
		b := s.byName[name]
		out = append(out, Entry{Name: name, Description: b.Manifest.Description})
	}
	return out
}

// Builder accumulates bundles for one discovery generation.
type Builder struct {
	snap Snapshot
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{snap: Snapshot{byName: make(map[string]Bundle)}}
}

// Add registers a bundle under its manifest name. A colliding name is
// rejected with a DuplicateError; the existing bundle is never replaced.
func (b *Builder) Add(bundle Bundle) error {
	name := bundle.Manifest.Name
	if existing, ok := b.snap.byName[name]; ok {
		return &DuplicateError{Name: name, Existing: existing.Source, Rejected: bundle.Source}
	}
	b.snap.byName[name] = bundle
	b.snap.order = append(b.snap.order, name)
	return nil
}

// Snapshot finalizes the generation. The Builder must not be used after.
func (b *Builder) Snapshot() *Snapshot {
	snap := b.snap
	b.snap = Snapshot{}
	return &snap
}

// Registry holds the currently published generation. Safe for concurrent
// use: reads are lock-free and Publish swaps generations atomically.
type Registry struct {
	current atomic.Pointer[Snapshot]
}

// New creates a Registry with an empty generation published.
func New() *Registry {
	r := &Registry{}
	r.current.Store(NewBuilder().Snapshot())
	return r
}

// Publish atomically replaces the current generation.
func (r *Registry) Publish(s *Snapshot) {
	if s == nil {
		return
	}
	r.current.Store(s)
}

// Lookup resolves a tool name in the current generation.
func (r *Registry) Lookup(name string) (Bundle, error) {
	return r.current.Load().Lookup(name)
}

// List returns the current generation's entries in discovery order.
func (r *Registry) List() []Entry {
	return r.current.Load().List()
}

// Len returns the number of tools in the current generation.
func (r *Registry) Len() int {
	return r.current.Load().Len()
}
