package typing

import (
	"slices"

	"github.com/roach88/weavelog/internal/ir"
)

// Merge unifies two types. It is total, commutative and associative up to
// ir.Equal, and idempotent.
//
//   - equal types merge to a
//   - two TypedDicts merge key-wise; a key present on one side only becomes
//     optional (T | none). Key order is a's keys, then b's new keys.
//   - two ListTypes merge their element types
//   - anything else becomes a union of both sides' members, in which all
//     TypedDict members are merged into one and all ListType members into one
func Merge(a, b ir.Type) ir.Type {
	if ir.Equal(a, b) {
		return a
	}

	switch x := a.(type) {
	case *ir.TypedDict:
		if y, ok := b.(*ir.TypedDict); ok {
			return mergeDicts(x, y)
		}
	case *ir.ListType:
		if y, ok := b.(*ir.ListType); ok {
			return ir.NewList(Merge(x.Elem, y.Elem))
		}
	}

	return mergeUnion(a, b)
}

// MergeAll folds Merge over types. No types merge to NoneType.
func MergeAll(types ...ir.Type) ir.Type {
	if len(types) == 0 {
		return ir.NoneType{}
	}
	acc := types[0]
	for _, t := range types[1:] {
		acc = Merge(acc, t)
	}
	return acc
}

func mergeDicts(a, b *ir.TypedDict) *ir.TypedDict {
	fields := make([]ir.Field, 0, a.Props.Len()+b.Props.Len())
	for _, f := range a.Props.List() {
		if bt, ok := b.Props.Get(f.Name); ok {
			fields = append(fields, ir.F(f.Name, Merge(f.Type, bt)))
		} else {
			fields = append(fields, ir.F(f.Name, Merge(f.Type, ir.NoneType{})))
		}
	}
	for _, f := range b.Props.List() {
		if !a.Props.Has(f.Name) {
			fields = append(fields, ir.F(f.Name, Merge(f.Type, ir.NoneType{})))
		}
	}
	return ir.NewTypedDict(fields...)
}

func mergeUnion(a, b ir.Type) ir.Type {
	var members []ir.Type
	for _, m := range slices.Concat(ir.Members(a), ir.Members(b)) {
		members = absorb(members, m)
	}
	if len(members) == 1 {
		return members[0]
	}
	return &ir.UnionType{Members: members}
}

// absorb adds m to members, folding it into an equal or same-shaped
// (TypedDict or ListType) member when there is one.
func absorb(members []ir.Type, m ir.Type) []ir.Type {
	for i, existing := range members {
		if ir.Equal(existing, m) {
			return members
		}
		if sameShape(existing, m) {
			members[i] = Merge(existing, m)
			return members
		}
	}
	return append(members, m)
}

func sameShape(a, b ir.Type) bool {
	k := a.Kind()
	return k == b.Kind() && (k == ir.KindTypedDict || k == ir.KindList)
}
