package typing

import (
	"fmt"

	"github.com/roach88/weavelog/internal/ir"
)

// Conforms checks that v fits the declared type t and returns a
// *ir.ShapeMismatchError locating the first mismatch.
//
// FloatType accepts Int values, since many producers write 2 for 2.0.
// A TypedDict accepts a missing key only when its declared type is optional
// and rejects undeclared keys. A CustomType is opaque unless it declares
// properties and v is an object, in which case it is checked like a TypedDict.
func Conforms(v ir.Value, t ir.Type, path string) error {
	if path == "" {
		path = ir.RootPath
	}

	switch tt := t.(type) {
	case ir.NoneType:
		if _, ok := v.(ir.Null); ok {
			return nil
		}
	case ir.BooleanType:
		if _, ok := v.(ir.Bool); ok {
			return nil
		}
	case ir.IntType:
		if _, ok := v.(ir.Int); ok {
			return nil
		}
	case ir.FloatType:
		switch v.(type) {
		case ir.Float, ir.Int:
			return nil
		}
	case ir.StringType:
		if _, ok := v.(ir.String); ok {
			return nil
		}
	case *ir.ListType:
		list, ok := v.(ir.List)
		if !ok {
			break
		}
		for i, item := range list {
			if err := Conforms(item, tt.Elem, ir.IndexPath(path, i)); err != nil {
				return err
			}
		}
		return nil
	case *ir.TypedDict:
		d, ok := v.(*ir.Dict)
		if !ok {
			break
		}
		return conformsFields(d, t, tt.Props, path)
	case *ir.UnionType:
		for _, m := range tt.Members {
			if Conforms(v, m, path) == nil {
				return nil
			}
		}
	case *ir.CustomType:
		d, ok := v.(*ir.Dict)
		if tt.Props == nil || !ok {
			return nil
		}
		return conformsFields(d, t, *tt.Props, path)
	}

	return &ir.ShapeMismatchError{Path: path, Want: ir.TypeString(t), Got: ir.KindName(v)}
}

func conformsFields(d *ir.Dict, t ir.Type, props ir.Fields, path string) error {
	for _, f := range props.List() {
		val, ok := d.Get(f.Name)
		if !ok {
			if ir.IsOptional(f.Type) {
				continue
			}
			return &ir.ShapeMismatchError{
				Path: ir.KeyPath(path, f.Name),
				Want: ir.TypeString(f.Type),
				Got:  "missing",
			}
		}
		if err := Conforms(val, f.Type, ir.KeyPath(path, f.Name)); err != nil {
			return err
		}
	}
	for _, k := range d.Keys() {
		if !props.Has(k) {
			return &ir.ShapeMismatchError{
				Path: ir.KeyPath(path, k),
				Want: ir.TypeString(t),
				Got:  fmt.Sprintf("undeclared key %q", k),
			}
		}
	}
	return nil
}
