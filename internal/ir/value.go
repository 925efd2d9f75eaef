package ir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Value is a sealed interface over the JSON-compatible values the engine accepts.
// Only Null, Bool, Int, Float, String, List and *Dict implement it.
// Producers normalise into this set (see FromAny) before calling the engine.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents a JSON null.
type Null struct{}

func (Null) value() {}

// Bool represents a JSON boolean. It is never treated as a number.
type Bool bool

func (Bool) value() {}

// Int represents an integral JSON number.
type Int int64

func (Int) value() {}

// Float represents a non-integral JSON number.
type Float float64

func (Float) value() {}

// String represents a JSON string.
type String string

func (String) value() {}

// List represents a JSON array.
type List []Value

func (List) value() {}

// Dict represents a JSON object with insertion-ordered keys.
// A Dict is immutable once built; construct it with NewDict.
type Dict struct {
	keys []string
	vals map[string]Value
}

func (*Dict) value() {}

// Pair is a key-value pair for ordered Dict construction.
type Pair struct {
	Key   string
	Value Value
}

// P is a shorthand for Pair.
// Example: NewDict(P("name", String("cart")), P("count", Int(5)))
func P(key string, v Value) Pair {
	return Pair{Key: key, Value: v}
}

// NewDict builds a Dict from pairs in order.
// A repeated key keeps its first position and takes the last value, which is
// how JSON objects with duplicate keys are read.
func NewDict(pairs ...Pair) *Dict {
	d := &Dict{
		keys: make([]string, 0, len(pairs)),
		vals: make(map[string]Value, len(pairs)),
	}
	for _, p := range pairs {
		d.set(p.Key, p.Value)
	}
	return d
}

func (d *Dict) set(key string, v Value) {
	if v == nil {
		v = Null{}
	}
	if _, ok := d.vals[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.vals[key] = v
}

// Len returns the number of keys.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	return slices.Clone(d.keys)
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (Value, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (d *Dict) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Pairs returns the entries in insertion order.
func (d *Dict) Pairs() []Pair {
	if d == nil {
		return nil
	}
	pairs := make([]Pair, len(d.keys))
	for i, k := range d.keys {
		pairs[i] = Pair{Key: k, Value: d.vals[k]}
	}
	return pairs
}

// HasExactKeys reports whether the key set equals keys, ignoring order.
func (d *Dict) HasExactKeys(keys ...string) bool {
	if d.Len() != len(keys) {
		return false
	}
	for _, k := range keys {
		if !d.Has(k) {
			return false
		}
	}
	return true
}

// KindName names the JSON kind of a value for diagnostics.
func KindName(v Value) string {
	switch v.(type) {
	case Null, nil:
		return "null"
	case Bool:
		return "boolean"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case List:
		return "array"
	case *Dict:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// EqualValues reports structural equality. Dict key order is ignored;
// Int and Float are distinct kinds even when numerically equal.
func EqualValues(a, b Value) bool {
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		y, ok := b.(Int)
		return ok && x == y
	case Float:
		y, ok := b.(Float)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !EqualValues(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Dict:
		y, ok := b.(*Dict)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.keys {
			yv, ok := y.vals[k]
			if !ok || !EqualValues(x.vals[k], yv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ParseValue decodes JSON into a Value, preserving object key order.
// Numbers whose literal has a fraction or exponent become Float; all other
// numbers become Int, or Float when they overflow int64.
func ParseValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty JSON value")
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

// ParseDict decodes a JSON object into a Dict.
func ParseDict(data []byte) (*Dict, error) {
	v, err := ParseValue(data)
	if err != nil {
		return nil, err
	}
	d, ok := v.(*Dict)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %s", KindName(v))
	}
	return d, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return parseNumber(t)
	case json.Delim:
		switch t {
		case '[':
			list := List{}
			for dec.More() {
				elem, err := decodeValue(dec)
				if err != nil {
					return nil, fmt.Errorf("array[%d]: %w", len(list), err)
				}
				list = append(list, elem)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		case '{':
			d := NewDict()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, not string", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, fmt.Errorf("object[%q]: %w", key, err)
				}
				d.set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return d, nil
		}
	}
	return nil, fmt.Errorf("unexpected JSON token %v", tok)
}

func parseNumber(n json.Number) (Value, error) {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %s: %w", s, err)
	}
	return Float(f), nil
}

// FromAny normalises a plain Go value into a Value.
// Maps are read with sorted keys since Go maps carry no order.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case string:
		return String(val), nil
	case json.Number:
		return parseNumber(val)
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			item, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			list[i] = item
		}
		return list, nil
	case map[string]any:
		d := NewDict()
		for _, k := range slices.Sorted(maps.Keys(val)) {
			item, err := FromAny(val[k])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			d.set(k, item)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// MarshalJSON implements json.Marshaler for Dict, keeping insertion order.
func (d *Dict) MarshalJSON() ([]byte, error) {
	return MarshalValue(d)
}

// MarshalValue marshals a Value to JSON, keeping Dict order and without HTML escaping.
func MarshalValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case Null, nil:
		buf.WriteString("null")
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		s, err := formatFloat(float64(val))
		if err != nil {
			return err
		}
		buf.WriteString(s)
	case String:
		writeString(buf, string(val))
	case List:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case *Dict:
		buf.WriteByte('{')
		for i, k := range val.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, k)
			buf.WriteByte(':')
			if err := writeValue(buf, val.vals[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown Value type: %T", v)
	}
	return nil
}

// formatFloat mirrors encoding/json's float formatting but always keeps a
// fraction or exponent, so 2.0 marshals as "2.0" and reads back as Float.
func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("unsupported float value: %v", f)
	}
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(s)
		if n >= 4 && s[n-4] == 'e' && s[n-3] == '-' && s[n-2] == '0' {
			s = s[:n-2] + s[n-1:]
		}
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s, nil
}

// writeString writes a JSON string without HTML escaping.
func writeString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
}
