// Package harness runs typed-log conformance scenarios.
//
// A scenario is a YAML file listing raw log rows (one JSON object per entry)
// and assertions about the history table those rows decode to. Each run uses
// a fresh in-memory store: rows are appended, read back, decoded, and the
// reconciled column schema is saved and reloaded before the assertions run.
//
// # Scenario Format
//
//	name: mixed_legacy_and_wrapped
//	description: "What this scenario validates"
//	custom_types: [Image]
//	max_depth: 64
//	workers: 2
//	session_id: "test-session-001"
//	rows:
//	  - '{"a": 1}'
//	  - '{"a": {"_type": "", "_weave_type": "string", "_val": "x"}}'
//	rows_file: extra.jsonl
//	assertions:
//	  - type: column_type
//	    column: a
//	    expect: '{"type":"union","members":[{"type":"int"},{"type":"string"}]}'
//	  - type: column_order
//	    columns: [a]
//	  - type: warning_count
//	    count: 0
//	  - type: warning
//	    row: 1
//	    column: a
//	    code: TYPE_PARSE
//	  - type: decoded_row
//	    row: 0
//	    expect: '{"a": 1}'
//
// rows_file is resolved relative to the scenario file and read as JSONL. Rows
// from rows come first.
//
// # Assertion Types
//
//   - column_type: the column's reconciled type equals expect (a type tree)
//   - column_order: the table's columns are exactly columns, in order
//   - warning_count: exactly count cell errors were recorded
//   - warning: a cell error exists at row and column (optionally with code and fatal)
//   - decoded_row: the decoded row at index row serializes exactly as expect
//
// # Golden Files
//
// RunWithGolden compares a snapshot of the reconciled columns and cell errors
// against testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
