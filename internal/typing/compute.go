// Package typing computes structural types for values and merges them.
//
// ComputeType and Merge are pure and synchronous. The only state they read is
// an immutable Context built once per session, which carries the custom type
// Registry and the nesting limit applied to untrusted input.
package typing

import (
	"github.com/roach88/weavelog/internal/ir"
)

// Wrapper keys. A Dict whose key set is exactly these three is a wrapper.
const (
	WrapperTypeKey      = "_type"
	WrapperWeaveTypeKey = "_weave_type"
	WrapperValueKey     = "_val"
)

// DefaultMaxDepth is used when Context.MaxDepth is zero.
const DefaultMaxDepth = ir.DefaultMaxDepth

// IsWrapper reports whether v is a wrapper object: a Dict whose key set is
// exactly {_type, _weave_type, _val}. A plain record with exactly those keys is
// indistinguishable from a wrapper and is always read as one.
func IsWrapper(v ir.Value) (*ir.Dict, bool) {
	d, ok := v.(*ir.Dict)
	if !ok || !d.HasExactKeys(WrapperTypeKey, WrapperWeaveTypeKey, WrapperValueKey) {
		return nil, false
	}
	return d, true
}

// Context is the per-session configuration for type computation.
// The zero Context accepts no custom types and uses DefaultMaxDepth.
type Context struct {
	Registry *ir.Registry
	MaxDepth int
}

// NewContext creates a Context.
func NewContext(reg *ir.Registry, maxDepth int) Context {
	return Context{Registry: reg, MaxDepth: maxDepth}
}

// Depth returns the effective nesting limit.
func (c Context) Depth() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}

// ComputeType returns the structural type of v.
//
// Rules, in order: null is NoneType; booleans are BooleanType (never numeric);
// Int is IntType and Float is FloatType; strings are StringType; a list is a
// ListType over the merge of its element types (ListType(NoneType) when
// empty); a wrapper returns its declared _weave_type verbatim; any other Dict
// is a TypedDict of its property types in key order.
//
// A malformed _weave_type yields *ir.TypeParseError; nesting past the
// context's limit yields *ir.DepthExceededError.
func (c Context) ComputeType(v ir.Value) (ir.Type, error) {
	return c.compute(v, ir.RootPath, 0, true)
}

// StructuralType is ComputeType without wrapper detection: every Dict,
// including a wrapper, is read as a plain record. It is the fallback used
// when a wrapper's declaration cannot be parsed.
func (c Context) StructuralType(v ir.Value) (ir.Type, error) {
	return c.compute(v, ir.RootPath, 0, false)
}

// ParseDeclared parses a wrapper's _weave_type found at path, with the
// nesting limit reduced by depth.
func (c Context) ParseDeclared(tree ir.Value, path string, depth int) (ir.Type, error) {
	return ir.ParseTypeTree(tree, ir.ParseOptions{
		Registry: c.Registry,
		MaxDepth: max(c.Depth()-depth, 1),
		Path:     path,
	})
}

func (c Context) compute(v ir.Value, path string, depth int, wrappers bool) (ir.Type, error) {
	if depth > c.Depth() {
		return nil, &ir.DepthExceededError{Path: path, Max: c.Depth()}
	}

	switch val := v.(type) {
	case ir.Null, nil:
		return ir.NoneType{}, nil
	case ir.Bool:
		return ir.BooleanType{}, nil
	case ir.Int:
		return ir.IntType{}, nil
	case ir.Float:
		return ir.FloatType{}, nil
	case ir.String:
		return ir.StringType{}, nil
	case ir.List:
		elem := ir.Type(ir.NoneType{})
		for i, item := range val {
			t, err := c.compute(item, ir.IndexPath(path, i), depth+1, wrappers)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				elem = t
			} else {
				elem = Merge(elem, t)
			}
		}
		return ir.NewList(elem), nil
	case *ir.Dict:
		if wrappers {
			if w, ok := IsWrapper(val); ok {
				tree, _ := w.Get(WrapperWeaveTypeKey)
				return c.ParseDeclared(tree, ir.KeyPath(path, WrapperWeaveTypeKey), depth+1)
			}
		}
		fields := make([]ir.Field, 0, val.Len())
		for _, p := range val.Pairs() {
			t, err := c.compute(p.Value, ir.KeyPath(path, p.Key), depth+1, wrappers)
			if err != nil {
				return nil, err
			}
			fields = append(fields, ir.F(p.Key, t))
		}
		return ir.NewTypedDict(fields...), nil
	default:
		// Unreachable for values built through package ir.
		return nil, &ir.TypeParseError{Path: path, Message: "unsupported value " + ir.KindName(v)}
	}
}

// TypeOf computes the type of v with the zero Context and panics on error.
// Use only in tests or for values known to carry no wrappers.
func TypeOf(v ir.Value) ir.Type {
	t, err := Context{}.ComputeType(v)
	if err != nil {
		panic(err)
	}
	return t
}
