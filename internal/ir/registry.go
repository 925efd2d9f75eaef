package ir

import (
	"fmt"
	"slices"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName NFC-normalises an identifier (type tag, custom type name,
// table name) so canonically equivalent spellings compare equal.
func NormalizeName(s string) string {
	return norm.NFC.String(s)
}

// Registry is the set of custom type names a session accepts in type trees.
// It is built once and never mutated; a nil Registry accepts no custom names.
type Registry struct {
	names []string
	index map[string]struct{}
}

// NewRegistry creates a Registry from custom type names.
// Names are NFC-normalised; empty names and built-in tags are rejected.
func NewRegistry(names ...string) (*Registry, error) {
	r := &Registry{index: make(map[string]struct{}, len(names))}
	for _, raw := range names {
		name := NormalizeName(raw)
		if name == "" {
			return nil, fmt.Errorf("custom type name must not be empty")
		}
		if IsBuiltinTag(name) {
			return nil, fmt.Errorf("custom type name %q is reserved", name)
		}
		if _, ok := r.index[name]; ok {
			continue
		}
		r.index[name] = struct{}{}
		r.names = append(r.names, name)
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
// Use only in tests or when names are known to be valid.
func MustRegistry(names ...string) *Registry {
	r, err := NewRegistry(names...)
	if err != nil {
		panic(err)
	}
	return r
}

// Has reports whether name is a registered custom type.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.index[NormalizeName(name)]
	return ok
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.names)
}
