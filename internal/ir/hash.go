package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainType = "weavelog/type/v1"
	DomainRow  = "weavelog/row/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns a structural hash of t. Types that are Equal share a
// fingerprint: property keys are sorted in RFC 8785 order and union members
// are sorted by their own fingerprint before hashing.
func Fingerprint(t Type) string {
	data, err := MarshalValue(sortedTreeValue(t))
	if err != nil {
		panic(fmt.Sprintf("ir: fingerprint: %v", err))
	}
	return hashWithDomain(DomainType, data)
}

// RowHash returns a content hash of a row, independent of key order.
func RowHash(row *Dict) (string, error) {
	data, err := MarshalValue(sortedValue(row))
	if err != nil {
		return "", fmt.Errorf("RowHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRow, data), nil
}

func sortedTreeValue(t Type) Value {
	switch x := t.(type) {
	case *TypedDict:
		return NewDict(
			P(treeFieldType, String(TagTypedDict)),
			P(treeFieldPropertyTypes, sortedFieldsValue(x.Props)),
		)
	case *ListType:
		return NewDict(
			P(treeFieldType, String(TagList)),
			P(treeFieldObjectType, sortedTreeValue(x.Elem)),
		)
	case *UnionType:
		type member struct {
			fp   string
			tree Value
		}
		ms := make([]member, len(x.Members))
		for i, m := range x.Members {
			ms[i] = member{fp: Fingerprint(m), tree: sortedTreeValue(m)}
		}
		slices.SortFunc(ms, func(a, b member) int { return compareKeysRFC8785(a.fp, b.fp) })
		list := make(List, len(ms))
		for i, m := range ms {
			list[i] = m.tree
		}
		return NewDict(
			P(treeFieldType, String(TagUnion)),
			P(treeFieldMembers, list),
		)
	case *CustomType:
		if x.Props == nil {
			return NewDict(P(treeFieldType, String(x.Name)))
		}
		return NewDict(
			P(treeFieldType, String(x.Name)),
			P(treeFieldPropertyTypes, sortedFieldsValue(*x.Props)),
		)
	default:
		return TypeTreeValue(t)
	}
}

func sortedFieldsValue(f Fields) *Dict {
	names := f.Names()
	slices.SortFunc(names, compareKeysRFC8785)
	pairs := make([]Pair, len(names))
	for i, n := range names {
		ft, _ := f.Get(n)
		pairs[i] = P(n, sortedTreeValue(ft))
	}
	return NewDict(pairs...)
}

func sortedValue(v Value) Value {
	switch x := v.(type) {
	case List:
		out := make(List, len(x))
		for i, elem := range x {
			out[i] = sortedValue(elem)
		}
		return out
	case *Dict:
		keys := x.Keys()
		slices.SortFunc(keys, compareKeysRFC8785)
		pairs := make([]Pair, len(keys))
		for i, k := range keys {
			elem, _ := x.Get(k)
			pairs[i] = P(k, sortedValue(elem))
		}
		return NewDict(pairs...)
	default:
		return v
	}
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
// Go's default string comparison uses UTF-8 which produces a different order.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	// If all compared units are equal, shorter string comes first
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
