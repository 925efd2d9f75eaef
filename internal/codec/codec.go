// Package codec implements the self-describing wrapper encoding.
//
// A wrapper is a JSON object with exactly three keys:
//
//	{"_type": "_wt_::<type JSON>", "_weave_type": <type tree>, "_val": <value>}
//
// Encode produces wrappers; Decode reads arbitrary JSON and branches per value
// on whether a wrapper is present, so wrapped and plain (historic) values can
// be mixed at any depth.
package codec

import (
	"fmt"

	"github.com/roach88/weavelog/internal/ir"
	"github.com/roach88/weavelog/internal/typing"
)

// TypeTagPrefix prefixes the informational _type string of a wrapper.
const TypeTagPrefix = "_wt_::"

// Mode selects how decode failures are reported.
type Mode int

const (
	// Strict surfaces every error, including declared types that do not fit
	// their values.
	Strict Mode = iota

	// Lenient falls back to structural inference when a declared type cannot
	// be parsed and skips shape checks. Depth errors are still returned.
	Lenient
)

// String returns "strict" or "lenient".
func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Codec encodes and decodes wrapped values for one session.
// A Codec is immutable and safe for concurrent use.
type Codec struct {
	ctx  typing.Context
	mode Mode
}

// New creates a Codec.
func New(ctx typing.Context, mode Mode) *Codec {
	return &Codec{ctx: ctx, mode: mode}
}

// Context returns the typing context.
func (c *Codec) Context() typing.Context {
	return c.ctx
}

// Mode returns the decode mode.
func (c *Codec) Mode() Mode {
	return c.mode
}

// WithMode returns a Codec sharing c's context with a different mode.
func (c *Codec) WithMode(mode Mode) *Codec {
	return &Codec{ctx: c.ctx, mode: mode}
}

// Encode wraps v with the declared type t. In strict mode v (with any nested
// wrappers decoded) must conform to t.
func (c *Codec) Encode(v ir.Value, t ir.Type) (*ir.Dict, error) {
	if c.mode == Strict {
		res, err := c.Decode(v)
		if err != nil {
			return nil, fmt.Errorf("encode: %w", err)
		}
		if err := typing.Conforms(res.Value, t, ir.KeyPath(ir.RootPath, typing.WrapperValueKey)); err != nil {
			return nil, fmt.Errorf("encode: %w", err)
		}
	}
	return Wrap(v, t), nil
}

// EncodeInferred wraps v with its computed type.
func (c *Codec) EncodeInferred(v ir.Value) (*ir.Dict, error) {
	t, err := c.ctx.ComputeType(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return Wrap(v, t), nil
}

// Wrap builds the wrapper for v and t without any checks.
// Keys are always written in the order _type, _weave_type, _val.
func Wrap(v ir.Value, t ir.Type) *ir.Dict {
	return ir.NewDict(
		ir.P(typing.WrapperTypeKey, ir.String(TypeTagPrefix+ir.TypeString(t))),
		ir.P(typing.WrapperWeaveTypeKey, ir.TypeTreeValue(t)),
		ir.P(typing.WrapperValueKey, v),
	)
}

// Result is a decoded value and its type.
type Result struct {
	Value ir.Value
	Type  ir.Type

	// Fallback is set when a lenient decode could not parse a declared type
	// and inferred Type structurally from the raw input instead. Value is then
	// the raw input, wrappers included.
	Fallback error
}

// Decode reads j into a value and its type.
//
//   - a wrapper yields its declared type and its decoded _val
//   - an object yields a TypedDict of its decoded properties
//   - an array yields ListType of the merged element types
//   - a scalar yields its computed type
func (c *Codec) Decode(j ir.Value) (Result, error) {
	v, t, err := c.decode(j, ir.RootPath, 0)
	if err == nil {
		return Result{Value: v, Type: t}, nil
	}
	if c.mode != Lenient || !ir.IsTypeParseError(err) {
		return Result{}, err
	}

	st, serr := c.ctx.StructuralType(j)
	if serr != nil {
		return Result{}, serr
	}
	return Result{Value: j, Type: st, Fallback: err}, nil
}

// DecodeStructural infers the type of j ignoring any wrappers.
func (c *Codec) DecodeStructural(j ir.Value) (Result, error) {
	t, err := c.ctx.StructuralType(j)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: j, Type: t}, nil
}

// DecodeJSON parses data and decodes it.
func (c *Codec) DecodeJSON(data []byte) (Result, error) {
	v, err := ir.ParseValue(data)
	if err != nil {
		return Result{}, fmt.Errorf("decode: %w", err)
	}
	return c.Decode(v)
}

func (c *Codec) decode(j ir.Value, path string, depth int) (ir.Value, ir.Type, error) {
	if depth > c.ctx.Depth() {
		return nil, nil, &ir.DepthExceededError{Path: path, Max: c.ctx.Depth()}
	}

	switch v := j.(type) {
	case *ir.Dict:
		if w, ok := typing.IsWrapper(v); ok {
			return c.decodeWrapper(w, path, depth)
		}
		pairs := make([]ir.Pair, 0, v.Len())
		fields := make([]ir.Field, 0, v.Len())
		for _, p := range v.Pairs() {
			cv, ct, err := c.decode(p.Value, ir.KeyPath(path, p.Key), depth+1)
			if err != nil {
				return nil, nil, err
			}
			pairs = append(pairs, ir.P(p.Key, cv))
			fields = append(fields, ir.F(p.Key, ct))
		}
		return ir.NewDict(pairs...), ir.NewTypedDict(fields...), nil

	case ir.List:
		out := make(ir.List, len(v))
		types := make([]ir.Type, len(v))
		for i, item := range v {
			cv, ct, err := c.decode(item, ir.IndexPath(path, i), depth+1)
			if err != nil {
				return nil, nil, err
			}
			out[i] = cv
			types[i] = ct
		}
		return out, ir.NewList(typing.MergeAll(types...)), nil

	default:
		t, err := c.ctx.StructuralType(v)
		if err != nil {
			return nil, nil, err
		}
		return v, t, nil
	}
}

func (c *Codec) decodeWrapper(w *ir.Dict, path string, depth int) (ir.Value, ir.Type, error) {
	tree, _ := w.Get(typing.WrapperWeaveTypeKey)
	declared, err := c.ctx.ParseDeclared(tree, ir.KeyPath(path, typing.WrapperWeaveTypeKey), depth+1)
	if err != nil {
		return nil, nil, err
	}

	raw, _ := w.Get(typing.WrapperValueKey)
	valPath := ir.KeyPath(path, typing.WrapperValueKey)
	val, _, err := c.decode(raw, valPath, depth+1)
	if err != nil {
		return nil, nil, err
	}

	if c.mode == Strict {
		if err := typing.Conforms(val, declared, valPath); err != nil {
			return nil, nil, err
		}
	}
	return val, declared, nil
}
