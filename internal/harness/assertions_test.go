package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weavelog/internal/history"
	"github.com/roach88/weavelog/internal/ir"
)

func boolPtr(b bool) *bool { return &b }

func sampleResult() *Result {
	r := NewResult()
	r.Columns = []ColumnResult{
		{Name: "a", Type: ir.Optional(ir.IntType{})},
		{Name: "img", Type: ir.NewCustom("Image")},
	}
	r.Warnings = []WarningResult{
		{Row: 1, Column: "img", Code: "TYPE_PARSE", Fatal: false, Message: "row 1 column \"img\" (fallback): bad"},
		{Row: 3, Column: "a", Code: "DEPTH_EXCEEDED", Fatal: true, Message: "row 3 column \"a\" (dropped): deep"},
	}
	r.Table = &history.Table{
		Rows: []*ir.Dict{
			ir.NewDict(ir.P("a", ir.Int(1)), ir.P("img", ir.String("p.png"))),
		},
	}
	return r
}

func TestAssertColumnType(t *testing.T) {
	reg := ir.MustRegistry("Image")
	r := sampleResult()

	assert.NoError(t, assertColumnType(r, Assertion{
		Column: "a",
		Expect: `{"type": "union", "members": [{"type": "none"}, {"type": "int"}]}`,
	}, reg), "member order is not significant")

	assert.NoError(t, assertColumnType(r, Assertion{Column: "img", Expect: `{"type": "Image"}`}, reg))

	err := assertColumnType(r, Assertion{Column: "a", Expect: `{"type": "int"}`}, reg)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertColumnType, ae.Type)
	assert.Equal(t, `{"type":"union","members":[{"type":"int"},{"type":"none"}]}`, ae.Actual)

	err = assertColumnType(r, Assertion{Column: "zzz", Expect: `{"type": "int"}`}, reg)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "column not found", ae.Actual)

	err = assertColumnType(r, Assertion{Column: "img", Expect: `{"type": "Image"}`}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad expect")
}

func TestAssertColumnOrder(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertColumnOrder(r, Assertion{Columns: []string{"a", "img"}}))
	assert.Error(t, assertColumnOrder(r, Assertion{Columns: []string{"img", "a"}}))
	assert.Error(t, assertColumnOrder(r, Assertion{Columns: []string{"a"}}))
}

func TestAssertWarningCount(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertWarningCount(r, Assertion{Count: intPtr(2)}))

	err := assertWarningCount(r, Assertion{Count: intPtr(0)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 warnings")
}

func TestAssertWarning(t *testing.T) {
	r := sampleResult()

	tests := []struct {
		name    string
		a       Assertion
		wantErr bool
	}{
		{"row and column", Assertion{Row: intPtr(1), Column: "img"}, false},
		{"with code", Assertion{Row: intPtr(3), Column: "a", Code: "DEPTH_EXCEEDED"}, false},
		{"with fatal", Assertion{Row: intPtr(3), Column: "a", Fatal: boolPtr(true)}, false},
		{"wrong row", Assertion{Row: intPtr(0), Column: "img"}, true},
		{"wrong code", Assertion{Row: intPtr(1), Column: "img", Code: "SHAPE_MISMATCH"}, true},
		{"wrong fatal", Assertion{Row: intPtr(1), Column: "img", Fatal: boolPtr(true)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertWarning(r, tt.a)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAssertDecodedRow(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertDecodedRow(r, Assertion{Row: intPtr(0), Expect: `{"a": 1, "img": "p.png"}`}))

	err := assertDecodedRow(r, Assertion{Row: intPtr(0), Expect: `{"img": "p.png", "a": 1}`})
	require.Error(t, err, "key order is significant")

	err = assertDecodedRow(r, Assertion{Row: intPtr(5), Expect: `{}`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row not found")
}

func TestEvaluateAssertions(t *testing.T) {
	r := sampleResult()
	actx := &AssertionContext{Registry: ir.MustRegistry("Image")}

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertColumnOrder, Columns: []string{"a", "img"}},
		{Type: AssertWarningCount, Count: intPtr(2)},
	}, actx)
	assert.Empty(t, errs)

	errs = EvaluateAssertions(r, []Assertion{
		{Type: AssertWarningCount, Count: intPtr(0)},
		{Type: "final_state"},
		{Type: AssertWarning, Column: "a"},
	}, actx)
	require.Len(t, errs, 3)
	assert.Contains(t, errs[1], `unknown assertion type "final_state"`)
	assert.Contains(t, errs[2], "warning requires row")
}

func TestAssertionError_ListsColumns(t *testing.T) {
	err := &AssertionError{
		Type:     AssertColumnType,
		Expected: "x",
		Actual:   "y",
		Columns:  []ColumnResult{{Name: "a", Type: ir.IntType{}}},
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: column_type")
	assert.Contains(t, msg, `[0] a {"type":"int"}`)
}
