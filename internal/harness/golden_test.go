package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weavelog/internal/ir"
)

func TestSnapshot_Format(t *testing.T) {
	r := NewResult()
	r.SessionID = "s-1"
	r.Columns = []ColumnResult{
		{Name: "b", Type: ir.NewList(ir.StringType{}), Fingerprint: "fp"},
	}
	r.Warnings = []WarningResult{{Row: 2, Column: "b", Code: "TYPE_PARSE", Message: "ignored"}}

	data, err := Snapshot("snap", r)
	require.NoError(t, err)

	want := `{"scenario_name":"snap","session_id":"s-1",` +
		`"columns":[{"name":"b","type":{"type":"list","objectType":{"type":"string"}},"fingerprint":"fp"}],` +
		`"warnings":[{"row":2,"column":"b","code":"TYPE_PARSE","fatal":false}]}`
	assert.Equal(t, want, string(data))
}

func TestSnapshot_Empty(t *testing.T) {
	data, err := Snapshot("empty", NewResult())
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"empty","session_id":"","columns":[],"warnings":[]}`, string(data))
}

func TestRunWithGolden_ScalarColumn(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/scalar_column.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRunWithGolden_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/mixed_legacy_and_wrapped.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := Snapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	require.NoError(t, AssertGolden(t, scenario.Name, second))
}
