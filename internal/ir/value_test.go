package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	// Verify all types implement Value (compile-time check via assignment)
	var _ Value = Null{}
	var _ Value = Bool(true)
	var _ Value = Int(42)
	var _ Value = Float(1.5)
	var _ Value = String("test")
	var _ Value = List{String("a"), Int(1)}
	var _ Value = NewDict(P("key", String("value")))
}

func TestNewDictKeepsInsertionOrder(t *testing.T) {
	d := NewDict(
		P("zebra", String("z")),
		P("apple", String("a")),
		P("banana", String("b")),
	)

	assert.Equal(t, []string{"zebra", "apple", "banana"}, d.Keys())
	assert.Equal(t, 3, d.Len())
}

func TestNewDictDuplicateKeyKeepsFirstPosition(t *testing.T) {
	d := NewDict(P("a", Int(1)), P("b", Int(2)), P("a", Int(3)))

	assert.Equal(t, []string{"a", "b"}, d.Keys())
	v, ok := d.Get("a")
	require.True(t, ok)
	assert.Equal(t, Int(3), v)
}

func TestNilDictIsEmpty(t *testing.T) {
	var d *Dict
	assert.Equal(t, 0, d.Len())
	assert.Nil(t, d.Keys())
	assert.False(t, d.Has("x"))
}

func TestHasExactKeys(t *testing.T) {
	d := NewDict(P("_val", Int(1)), P("_type", String("x")), P("_weave_type", String("int")))
	assert.True(t, d.HasExactKeys("_type", "_weave_type", "_val"))
	assert.False(t, d.HasExactKeys("_type", "_val"))
	assert.False(t, NewDict(P("_type", Null{})).HasExactKeys("_type", "_weave_type", "_val"))
}

func TestParseValueScalars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Value
	}{
		{"null", `null`, Null{}},
		{"true", `true`, Bool(true)},
		{"false", `false`, Bool(false)},
		{"int", `42`, Int(42)},
		{"negative int", `-7`, Int(-7)},
		{"float", `3.14`, Float(3.14)},
		{"integral float literal", `2.0`, Float(2)},
		{"exponent", `1e3`, Float(1000)},
		{"uppercase exponent", `1E3`, Float(1000)},
		{"int64 overflow", `92233720368547758070`, Float(92233720368547758070)},
		{"string", `"hi"`, String("hi")},
		{"empty array", `[]`, List{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseValue([]byte(tt.input))
			require.NoError(t, err)
			assert.True(t, EqualValues(tt.expected, v), "got %#v", v)
		})
	}
}

func TestParseValuePreservesKeyOrder(t *testing.T) {
	v, err := ParseValue([]byte(`{"b": 1, "a": {"z": true, "y": null}, "c": [1, "x"]}`))
	require.NoError(t, err)

	d, ok := v.(*Dict)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a", "c"}, d.Keys())

	inner, _ := d.Get("a")
	assert.Equal(t, []string{"z", "y"}, inner.(*Dict).Keys())

	data, err := MarshalValue(v)
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":{"z":true,"y":null},"c":[1,"x"]}`, string(data))
}

func TestParseValueErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ``},
		{"whitespace", `   `},
		{"truncated object", `{"a": 1`},
		{"trailing data", `1 2`},
		{"bad literal", `nul`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseValue([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParseDictRejectsNonObject(t *testing.T) {
	_, err := ParseDict([]byte(`[1]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected JSON object")
}

func TestMarshalValueFloatsKeepFraction(t *testing.T) {
	tests := []struct {
		input    Float
		expected string
	}{
		{2, "2.0"},
		{-0.5, "-0.5"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{123456.789, "123456.789"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			data, err := MarshalValue(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))

			back, err := ParseValue(data)
			require.NoError(t, err)
			assert.Equal(t, tt.input, back)
		})
	}
}

func TestMarshalValueRejectsNaN(t *testing.T) {
	_, err := MarshalValue(List{Float(math.NaN())})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array[0]")
}

func TestMarshalValueNoHTMLEscape(t *testing.T) {
	data, err := MarshalValue(String("<a&b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(data))
}

func TestDictMarshalJSON(t *testing.T) {
	d := NewDict(P("y", Int(1)), P("x", List{Null{}, Bool(false)}))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{"y":1,"x":[null,false]}`, string(data))
}

func TestEqualValues(t *testing.T) {
	a := NewDict(P("a", Int(1)), P("b", List{String("x")}))
	b := NewDict(P("b", List{String("x")}), P("a", Int(1)))

	assert.True(t, EqualValues(a, b), "key order is ignored")
	assert.False(t, EqualValues(Int(1), Float(1)), "int and float are distinct")
	assert.False(t, EqualValues(List{Int(1)}, List{Int(1), Int(2)}))
	assert.False(t, EqualValues(a, NewDict(P("a", Int(1)))))
	assert.True(t, EqualValues(Null{}, Null{}))
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]any{
		"b":    []any{1, 2.5, "x", nil, true},
		"a":    json.Number("7"),
		"wrap": String("already"),
	})
	require.NoError(t, err)

	expected := NewDict(
		P("a", Int(7)),
		P("b", List{Int(1), Float(2.5), String("x"), Null{}, Bool(true)}),
		P("wrap", String("already")),
	)
	assert.True(t, EqualValues(expected, v))
	assert.Equal(t, []string{"a", "b", "wrap"}, v.(*Dict).Keys(), "map keys are sorted")

	_, err = FromAny(struct{}{})
	assert.Error(t, err)
}

func TestKindName(t *testing.T) {
	assert.Equal(t, "null", KindName(Null{}))
	assert.Equal(t, "boolean", KindName(Bool(true)))
	assert.Equal(t, "array", KindName(List{}))
	assert.Equal(t, "object", KindName(NewDict()))
}
