package typing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weavelog/internal/ir"
)

func TestConformsAcceptsInferredType(t *testing.T) {
	inputs := []string{
		`null`, `true`, `7`, `7.5`, `"s"`, `[]`,
		`[1, "x", null]`,
		`{"a": [{"b": 1}, {"c": true}], "d": {"e": null}}`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			v := mustParse(t, in)
			assert.NoError(t, Conforms(v, TypeOf(v), ""))
		})
	}
}

func TestConformsMismatch(t *testing.T) {
	tests := []struct {
		name  string
		value string
		typ   ir.Type
		path  string
		got   string
	}{
		{"int declared, string value", `"x"`, ir.IntType{}, "$", "string"},
		{"bool is not int", `true`, ir.IntType{}, "$", "boolean"},
		{"list element", `[1, "x"]`, ir.NewList(ir.IntType{}), "$[1]", "string"},
		{"missing required key", `{}`, ir.NewTypedDict(ir.F("a", ir.IntType{})), "$.a", "missing"},
		{"undeclared key", `{"a": 1, "b": 2}`, ir.NewTypedDict(ir.F("a", ir.IntType{})), "$.b", `undeclared key "b"`},
		{"union miss", `1.5`, ir.NewUnion(ir.IntType{}, ir.StringType{}), "$", "float"},
		{"custom props", `{"path": 3}`, ir.NewCustomWithProps("Image", ir.F("path", ir.StringType{})), "$.path", "int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Conforms(mustParse(t, tt.value), tt.typ, "")
			require.Error(t, err)

			var se *ir.ShapeMismatchError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.path, se.Path)
			assert.Equal(t, tt.got, se.Got)
		})
	}
}

func TestConformsLenientCases(t *testing.T) {
	assert.NoError(t, Conforms(ir.Int(2), ir.FloatType{}, ""), "int widens to float")
	assert.NoError(t, Conforms(mustParse(t, `{}`), ir.NewTypedDict(ir.F("a", ir.Optional(ir.IntType{}))), ""),
		"optional keys may be absent")
	assert.NoError(t, Conforms(mustParse(t, `[1, 2]`), ir.NewCustom("Opaque"), ""), "custom without props is opaque")
	assert.NoError(t, Conforms(ir.String("x"), ir.NewCustomWithProps("Image"), ""), "non-object custom payload")
}
