package ir

import (
	"fmt"
)

// DefaultMaxDepth bounds recursion over values and type trees when a caller
// does not configure a limit.
const DefaultMaxDepth = 64

// Type tree field names. Their order in TypeTreeValue is fixed:
// "type" first, then the kind-specific field.
const (
	treeFieldType          = "type"
	treeFieldPropertyTypes = "propertyTypes"
	treeFieldObjectType    = "objectType"
	treeFieldMembers       = "members"
)

// TypeTreeValue renders t as its wire type tree:
//
//	{"type": <tag>}                                  none|boolean|int|float|string
//	{"type": "typedDict", "propertyTypes": {...}}    properties in insertion order
//	{"type": "list", "objectType": <tree>}
//	{"type": "union", "members": [<tree>, ...]}
//	{"type": <custom-name>[, "propertyTypes": {...}]}
func TypeTreeValue(t Type) *Dict {
	switch x := t.(type) {
	case NoneType, BooleanType, IntType, FloatType, StringType:
		return NewDict(P(treeFieldType, String(t.Kind().String())))
	case *TypedDict:
		return NewDict(
			P(treeFieldType, String(TagTypedDict)),
			P(treeFieldPropertyTypes, fieldsTreeValue(x.Props)),
		)
	case *ListType:
		return NewDict(
			P(treeFieldType, String(TagList)),
			P(treeFieldObjectType, TypeTreeValue(x.Elem)),
		)
	case *UnionType:
		members := make(List, len(x.Members))
		for i, m := range x.Members {
			members[i] = TypeTreeValue(m)
		}
		return NewDict(
			P(treeFieldType, String(TagUnion)),
			P(treeFieldMembers, members),
		)
	case *CustomType:
		if x.Props == nil {
			return NewDict(P(treeFieldType, String(x.Name)))
		}
		return NewDict(
			P(treeFieldType, String(x.Name)),
			P(treeFieldPropertyTypes, fieldsTreeValue(*x.Props)),
		)
	default:
		panic(fmt.Sprintf("ir: unknown Type %T", t))
	}
}

func fieldsTreeValue(f Fields) *Dict {
	pairs := make([]Pair, 0, f.Len())
	for _, fd := range f.List() {
		pairs = append(pairs, P(fd.Name, TypeTreeValue(fd.Type)))
	}
	return NewDict(pairs...)
}

// MarshalTypeTree returns the canonical JSON of t's type tree.
// The output is deterministic: parsing it and marshalling again yields the
// same bytes.
func MarshalTypeTree(t Type) []byte {
	data, err := MarshalValue(TypeTreeValue(t))
	if err != nil {
		// Type trees hold only strings, lists and dicts.
		panic(fmt.Sprintf("ir: marshal type tree: %v", err))
	}
	return data
}

// TypeString is MarshalTypeTree as a string, convenient for messages.
func TypeString(t Type) string {
	return string(MarshalTypeTree(t))
}

// ParseOptions configures ParseTypeTree.
type ParseOptions struct {
	// Registry lists the custom type names accepted as tags.
	Registry *Registry

	// MaxDepth bounds tree nesting; zero means DefaultMaxDepth.
	MaxDepth int

	// Path prefixes error paths; empty means RootPath.
	Path string
}

// ParseTypeTree parses a wire type tree.
//
// Besides the object form it accepts the historic string shorthand, where a
// bare tag such as "int" or a registered custom name stands for {"type": tag}.
// Tags are NFC-normalised before lookup. An unknown tag, a missing or
// malformed kind-specific field, or an empty union is a *TypeParseError;
// nesting past MaxDepth is a *DepthExceededError.
func ParseTypeTree(v Value, opts ParseOptions) (Type, error) {
	p := treeParser{registry: opts.Registry, maxDepth: opts.MaxDepth}
	if p.maxDepth <= 0 {
		p.maxDepth = DefaultMaxDepth
	}
	path := opts.Path
	if path == "" {
		path = RootPath
	}
	return p.parse(v, path, 0)
}

// ParseTypeTreeJSON parses a type tree from JSON bytes.
func ParseTypeTreeJSON(data []byte, opts ParseOptions) (Type, error) {
	v, err := ParseValue(data)
	if err != nil {
		return nil, fmt.Errorf("parse type tree: %w", err)
	}
	return ParseTypeTree(v, opts)
}

type treeParser struct {
	registry *Registry
	maxDepth int
}

func (p *treeParser) parse(v Value, path string, depth int) (Type, error) {
	if depth > p.maxDepth {
		return nil, &DepthExceededError{Path: path, Max: p.maxDepth}
	}

	switch node := v.(type) {
	case String:
		return p.parseShorthand(string(node), path)
	case *Dict:
		return p.parseNode(node, path, depth)
	default:
		return nil, &TypeParseError{
			Path:    path,
			Message: fmt.Sprintf("type tree must be an object or string, got %s", KindName(v)),
		}
	}
}

func (p *treeParser) parseShorthand(raw, path string) (Type, error) {
	tag := NormalizeName(raw)
	if t, ok := leafType(tag); ok {
		return t, nil
	}
	switch tag {
	case TagTypedDict, TagList, TagUnion:
		return nil, &TypeParseError{Path: path, Message: fmt.Sprintf("type %q needs the object form", tag)}
	}
	if p.registry.Has(tag) {
		return &CustomType{Name: tag}, nil
	}
	return nil, &TypeParseError{Path: path, Message: fmt.Sprintf("unknown type %q", raw)}
}

func (p *treeParser) parseNode(node *Dict, path string, depth int) (Type, error) {
	rawTag, ok := node.Get(treeFieldType)
	if !ok {
		return nil, &TypeParseError{Path: path, Message: `missing "type" field`}
	}
	tagStr, ok := rawTag.(String)
	if !ok {
		return nil, &TypeParseError{
			Path:    KeyPath(path, treeFieldType),
			Message: fmt.Sprintf(`"type" must be a string, got %s`, KindName(rawTag)),
		}
	}
	tag := NormalizeName(string(tagStr))

	if t, ok := leafType(tag); ok {
		return t, nil
	}

	switch tag {
	case TagTypedDict:
		props, err := p.parseProps(node, path, depth, true)
		if err != nil {
			return nil, err
		}
		return &TypedDict{Props: *props}, nil

	case TagList:
		raw, ok := node.Get(treeFieldObjectType)
		if !ok {
			return nil, &TypeParseError{Path: path, Message: `list type missing "objectType"`}
		}
		elem, err := p.parse(raw, KeyPath(path, treeFieldObjectType), depth+1)
		if err != nil {
			return nil, err
		}
		return &ListType{Elem: elem}, nil

	case TagUnion:
		raw, ok := node.Get(treeFieldMembers)
		if !ok {
			return nil, &TypeParseError{Path: path, Message: `union type missing "members"`}
		}
		list, ok := raw.(List)
		if !ok {
			return nil, &TypeParseError{
				Path:    KeyPath(path, treeFieldMembers),
				Message: fmt.Sprintf(`"members" must be an array, got %s`, KindName(raw)),
			}
		}
		if len(list) == 0 {
			return nil, &TypeParseError{Path: KeyPath(path, treeFieldMembers), Message: "union has no members"}
		}
		members := make([]Type, len(list))
		for i, m := range list {
			mt, err := p.parse(m, IndexPath(KeyPath(path, treeFieldMembers), i), depth+1)
			if err != nil {
				return nil, err
			}
			members[i] = mt
		}
		return NewUnion(members...), nil
	}

	if !p.registry.Has(tag) {
		return nil, &TypeParseError{Path: KeyPath(path, treeFieldType), Message: fmt.Sprintf("unknown type %q", string(tagStr))}
	}
	props, err := p.parseProps(node, path, depth, false)
	if err != nil {
		return nil, err
	}
	return &CustomType{Name: tag, Props: props}, nil
}

// parseProps reads "propertyTypes". It returns nil when the field is absent
// and not required.
func (p *treeParser) parseProps(node *Dict, path string, depth int, required bool) (*Fields, error) {
	raw, ok := node.Get(treeFieldPropertyTypes)
	if !ok {
		if required {
			return nil, &TypeParseError{Path: path, Message: `typedDict type missing "propertyTypes"`}
		}
		return nil, nil
	}
	propsPath := KeyPath(path, treeFieldPropertyTypes)
	obj, ok := raw.(*Dict)
	if !ok {
		return nil, &TypeParseError{
			Path:    propsPath,
			Message: fmt.Sprintf(`"propertyTypes" must be an object, got %s`, KindName(raw)),
		}
	}
	fields := make([]Field, 0, obj.Len())
	for _, pair := range obj.Pairs() {
		ft, err := p.parse(pair.Value, KeyPath(propsPath, pair.Key), depth+1)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: pair.Key, Type: ft})
	}
	props := NewFields(fields...)
	return &props, nil
}

func leafType(tag string) (Type, bool) {
	switch tag {
	case TagNone:
		return NoneType{}, true
	case TagBoolean:
		return BooleanType{}, true
	case TagInt:
		return IntType{}, true
	case TagFloat:
		return FloatType{}, true
	case TagString:
		return StringType{}, true
	}
	return nil, false
}
