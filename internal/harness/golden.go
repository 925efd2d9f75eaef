package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/weavelog/internal/ir"
)

// Snapshot renders the reconciled schema and cell errors of a result as
// deterministic JSON. Keys appear in a fixed order and column types are
// embedded as canonical type trees, so the same scenario always produces
// byte-identical output.
//
//	{"scenario_name": ..., "session_id": ...,
//	 "columns": [{"name": ..., "type": <tree>, "fingerprint": ...}],
//	 "warnings": [{"row": ..., "column": ..., "code": ..., "fatal": ...}]}
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	columns := make(ir.List, len(result.Columns))
	for i, c := range result.Columns {
		columns[i] = ir.NewDict(
			ir.P("name", ir.String(c.Name)),
			ir.P("type", ir.TypeTreeValue(c.Type)),
			ir.P("fingerprint", ir.String(c.Fingerprint)),
		)
	}

	warnings := make(ir.List, len(result.Warnings))
	for i, w := range result.Warnings {
		warnings[i] = ir.NewDict(
			ir.P("row", ir.Int(w.Row)),
			ir.P("column", ir.String(w.Column)),
			ir.P("code", ir.String(w.Code)),
			ir.P("fatal", ir.Bool(w.Fatal)),
		)
	}

	return ir.MarshalValue(ir.NewDict(
		ir.P("scenario_name", ir.String(scenarioName)),
		ir.P("session_id", ir.String(result.SessionID)),
		ir.P("columns", columns),
		ir.P("warnings", warnings),
	))
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's snapshot against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
