package ir

import (
	"fmt"
	"slices"
)

// Kind identifies a Type variant.
type Kind int

const (
	KindNone Kind = iota
	KindBoolean
	KindInt
	KindFloat
	KindString
	KindTypedDict
	KindList
	KindUnion
	KindCustom
)

// Type tags used in the wire form of a type tree.
const (
	TagNone      = "none"
	TagBoolean   = "boolean"
	TagInt       = "int"
	TagFloat     = "float"
	TagString    = "string"
	TagTypedDict = "typedDict"
	TagList      = "list"
	TagUnion     = "union"
)

// String returns the wire tag for built-in kinds and "custom" otherwise.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return TagNone
	case KindBoolean:
		return TagBoolean
	case KindInt:
		return TagInt
	case KindFloat:
		return TagFloat
	case KindString:
		return TagString
	case KindTypedDict:
		return TagTypedDict
	case KindList:
		return TagList
	case KindUnion:
		return TagUnion
	case KindCustom:
		return "custom"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsBuiltinTag reports whether tag names a built-in kind.
func IsBuiltinTag(tag string) bool {
	switch tag {
	case TagNone, TagBoolean, TagInt, TagFloat, TagString, TagTypedDict, TagList, TagUnion:
		return true
	}
	return false
}

// Type is a sealed interface over structural types.
// Types are immutable and compare structurally via Equal.
type Type interface {
	Kind() Kind
	isType()
}

// NoneType is the type of null.
type NoneType struct{}

// BooleanType is the type of booleans.
type BooleanType struct{}

// IntType is the type of integral numbers.
type IntType struct{}

// FloatType is the type of non-integral numbers.
type FloatType struct{}

// StringType is the type of strings.
type StringType struct{}

func (NoneType) Kind() Kind    { return KindNone }
func (BooleanType) Kind() Kind { return KindBoolean }
func (IntType) Kind() Kind     { return KindInt }
func (FloatType) Kind() Kind   { return KindFloat }
func (StringType) Kind() Kind  { return KindString }

func (NoneType) isType()    {}
func (BooleanType) isType() {}
func (IntType) isType()     {}
func (FloatType) isType()   {}
func (StringType) isType()  {}

// TypedDict is the type of a record. Props keeps first-seen key order.
type TypedDict struct {
	Props Fields
}

func (*TypedDict) Kind() Kind { return KindTypedDict }
func (*TypedDict) isType()    {}

// NewTypedDict creates a TypedDict from fields in order.
func NewTypedDict(fields ...Field) *TypedDict {
	return &TypedDict{Props: NewFields(fields...)}
}

// ListType is the type of a list whose elements all have type Elem.
type ListType struct {
	Elem Type
}

func (*ListType) Kind() Kind { return KindList }
func (*ListType) isType()    {}

// NewList creates a ListType.
func NewList(elem Type) *ListType {
	return &ListType{Elem: elem}
}

// UnionType is a "one of" set of member types.
// Members are flat (no union directly inside a union) and unique under Equal;
// their order is first-seen and carries no meaning for equality.
type UnionType struct {
	Members []Type
}

func (*UnionType) Kind() Kind { return KindUnion }
func (*UnionType) isType()    {}

// CustomType is a declared, opaque compound type that arrives via a wrapper.
// Props is nil when the declaration carries no property types.
type CustomType struct {
	Name  string
	Props *Fields
}

func (*CustomType) Kind() Kind { return KindCustom }
func (*CustomType) isType()    {}

// NewCustom creates a CustomType without properties.
func NewCustom(name string) *CustomType {
	return &CustomType{Name: NormalizeName(name)}
}

// NewCustomWithProps creates a CustomType with property types.
func NewCustomWithProps(name string, fields ...Field) *CustomType {
	props := NewFields(fields...)
	return &CustomType{Name: NormalizeName(name), Props: &props}
}

// NewUnion builds a union, flattening nested unions and removing members
// equal to an earlier one. A single remaining member is returned as is;
// no members yields NoneType.
func NewUnion(members ...Type) Type {
	flat := make([]Type, 0, len(members))
	for _, m := range members {
		for _, inner := range Members(m) {
			if !containsType(flat, inner) {
				flat = append(flat, inner)
			}
		}
	}
	switch len(flat) {
	case 0:
		return NoneType{}
	case 1:
		return flat[0]
	default:
		return &UnionType{Members: flat}
	}
}

// Members returns the members of a union, or t itself for any other type.
func Members(t Type) []Type {
	if u, ok := t.(*UnionType); ok {
		return u.Members
	}
	return []Type{t}
}

// Optional returns t | none.
func Optional(t Type) Type {
	return NewUnion(t, NoneType{})
}

// IsOptional reports whether t admits null.
func IsOptional(t Type) bool {
	return containsType(Members(t), NoneType{})
}

func containsType(list []Type, t Type) bool {
	return slices.ContainsFunc(list, func(m Type) bool { return Equal(m, t) })
}

// Equal reports structural equality. Property order and union member order
// are ignored.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case NoneType, BooleanType, IntType, FloatType, StringType:
		return true
	case *TypedDict:
		y := b.(*TypedDict)
		return x.Props.Equal(y.Props)
	case *ListType:
		y := b.(*ListType)
		return Equal(x.Elem, y.Elem)
	case *UnionType:
		y := b.(*UnionType)
		if len(x.Members) != len(y.Members) {
			return false
		}
		for _, m := range x.Members {
			if !containsType(y.Members, m) {
				return false
			}
		}
		return true
	case *CustomType:
		y := b.(*CustomType)
		if x.Name != y.Name {
			return false
		}
		if x.Props == nil || y.Props == nil {
			return x.Props == nil && y.Props == nil
		}
		return x.Props.Equal(*y.Props)
	default:
		return false
	}
}

// Field is a named type inside Fields.
type Field struct {
	Name string
	Type Type
}

// F is a shorthand for Field.
func F(name string, t Type) Field {
	return Field{Name: name, Type: t}
}

// Fields is an ordered name -> Type map. It keeps first-seen order and is
// treated as immutable once built.
type Fields struct {
	names []string
	types map[string]Type
}

// NewFields builds Fields in order. A repeated name keeps its first position
// and takes the last type.
func NewFields(fields ...Field) Fields {
	f := Fields{
		names: make([]string, 0, len(fields)),
		types: make(map[string]Type, len(fields)),
	}
	for _, fd := range fields {
		if _, ok := f.types[fd.Name]; !ok {
			f.names = append(f.names, fd.Name)
		}
		f.types[fd.Name] = fd.Type
	}
	return f
}

// Len returns the number of fields.
func (f Fields) Len() int {
	return len(f.names)
}

// Names returns field names in order.
func (f Fields) Names() []string {
	return slices.Clone(f.names)
}

// Get returns the type of the named field.
func (f Fields) Get(name string) (Type, bool) {
	t, ok := f.types[name]
	return t, ok
}

// Has reports whether the named field exists.
func (f Fields) Has(name string) bool {
	_, ok := f.types[name]
	return ok
}

// List returns the fields in order.
func (f Fields) List() []Field {
	out := make([]Field, len(f.names))
	for i, n := range f.names {
		out[i] = Field{Name: n, Type: f.types[n]}
	}
	return out
}

// Equal compares field sets, ignoring order.
func (f Fields) Equal(other Fields) bool {
	if f.Len() != other.Len() {
		return false
	}
	for _, n := range f.names {
		ot, ok := other.types[n]
		if !ok || !Equal(f.types[n], ot) {
			return false
		}
	}
	return true
}
