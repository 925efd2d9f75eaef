package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/unknown_custom_tag.yaml")
	require.NoError(t, err)

	assert.Equal(t, "unknown_custom_tag", s.Name)
	assert.Equal(t, []string{"Image"}, s.CustomTypes)
	assert.Equal(t, "test-session-custom", s.SessionID)
	assert.Len(t, s.Rows, 2)
	require.Len(t, s.Assertions, 5)

	w := s.Assertions[2]
	assert.Equal(t, AssertWarning, w.Type)
	require.NotNil(t, w.Row)
	assert.Equal(t, 1, *w.Row)
	require.NotNil(t, w.Fatal)
	assert.False(t, *w.Fatal)
	assert.Equal(t, "TYPE_PARSE", w.Code)
}

func TestLoadScenario_ResolvesRowsFile(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/jsonl_rows.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "scenarios", "jsonl_rows.jsonl"), s.RowsFile)
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	dir := t.TempDir()
	rowsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(rowsDir, "rows.jsonl"), []byte(`{"a": 1}`+"\n"), 0o644))

	path := writeScenario(t, dir, `
name: based
description: "rows file elsewhere"
rows_file: rows.jsonl
assertions:
  - type: warning_count
    count: 0
`)

	s, err := LoadScenarioWithBasePath(path, rowsDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rowsDir, "rows.jsonl"), s.RowsFile)

	_, err = LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rows file not found")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{
			name:   "unknown field",
			yaml:   "name: x\ndescription: d\nrows: ['{}']\nasertions: []\n",
			errMsg: "failed to parse YAML",
		},
		{
			name:   "missing name",
			yaml:   "description: d\nrows: ['{}']\nassertions: [{type: warning_count, count: 0}]\n",
			errMsg: "name is required",
		},
		{
			name:   "missing description",
			yaml:   "name: x\nrows: ['{}']\nassertions: [{type: warning_count, count: 0}]\n",
			errMsg: "description is required",
		},
		{
			name:   "no rows",
			yaml:   "name: x\ndescription: d\nassertions: [{type: warning_count, count: 0}]\n",
			errMsg: "rows or rows_file is required",
		},
		{
			name:   "no assertions",
			yaml:   "name: x\ndescription: d\nrows: ['{}']\n",
			errMsg: "assertions list is required",
		},
		{
			name:   "row not an object",
			yaml:   "name: x\ndescription: d\nrows: ['[1]']\nassertions: [{type: warning_count, count: 0}]\n",
			errMsg: "rows[0]: expected JSON object, got array",
		},
		{
			name:   "reserved custom type",
			yaml:   "name: x\ndescription: d\ncustom_types: [int]\nrows: ['{}']\nassertions: [{type: warning_count, count: 0}]\n",
			errMsg: "custom_types",
		},
		{
			name:   "negative workers",
			yaml:   "name: x\ndescription: d\nworkers: -1\nrows: ['{}']\nassertions: [{type: warning_count, count: 0}]\n",
			errMsg: "workers must be non-negative",
		},
		{
			name:   "unknown assertion",
			yaml:   "name: x\ndescription: d\nrows: ['{}']\nassertions: [{type: trace_count}]\n",
			errMsg: `unknown assertion type "trace_count"`,
		},
		{
			name:   "column_type without expect",
			yaml:   "name: x\ndescription: d\nrows: ['{}']\nassertions: [{type: column_type, column: a}]\n",
			errMsg: "expect is required for column_type",
		},
		{
			name:   "warning_count without count",
			yaml:   "name: x\ndescription: d\nrows: ['{}']\nassertions: [{type: warning_count}]\n",
			errMsg: "count is required for warning_count",
		},
		{
			name:   "warning without row",
			yaml:   "name: x\ndescription: d\nrows: ['{}']\nassertions: [{type: warning, column: a}]\n",
			errMsg: "row is required for warning",
		},
		{
			name:   "negative row",
			yaml:   "name: x\ndescription: d\nrows: ['{}']\nassertions: [{type: decoded_row, row: -1, expect: '{}'}]\n",
			errMsg: "row must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
