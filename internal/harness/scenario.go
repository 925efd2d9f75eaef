package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/weavelog/internal/ir"
)

// Scenario defines a history-decoding conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the store table name
	// and the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// CustomTypes registers custom type names accepted in type tags.
	CustomTypes []string `yaml:"custom_types,omitempty"`

	// MaxDepth bounds nesting. Zero selects ir.DefaultMaxDepth.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// Workers is the decoder parallelism. Zero selects GOMAXPROCS.
	Workers int `yaml:"workers,omitempty"`

	// SessionID is a fixed session ID for deterministic snapshots.
	// If empty, defaults to "test-session-default".
	SessionID string `yaml:"session_id,omitempty"`

	// Rows are raw log rows, each a JSON object.
	Rows []string `yaml:"rows,omitempty"`

	// RowsFile is a JSONL file of further rows, read after Rows.
	RowsFile string `yaml:"rows_file,omitempty"`

	// Assertions validate the decoded table.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the decoded table.
type Assertion struct {
	// Type specifies the assertion type:
	// - "column_type": column has type expect
	// - "column_order": table columns are exactly columns
	// - "warning_count": exactly count cell errors
	// - "warning": a cell error at row/column
	// - "decoded_row": row serializes as expect
	Type string `yaml:"type"`

	// Column is the column name (used by column_type, warning).
	Column string `yaml:"column,omitempty"`

	// Columns is the expected column order (used by column_order).
	Columns []string `yaml:"columns,omitempty"`

	// Expect is a type tree (column_type) or a JSON row (decoded_row).
	Expect string `yaml:"expect,omitempty"`

	// Row is a zero-based row index (used by warning, decoded_row).
	Row *int `yaml:"row,omitempty"`

	// Count is the expected number of cell errors (used by warning_count).
	Count *int `yaml:"count,omitempty"`

	// Code optionally narrows a warning assertion to an error code,
	// e.g. TYPE_PARSE or DEPTH_EXCEEDED.
	Code string `yaml:"code,omitempty"`

	// Fatal optionally narrows a warning assertion to dropped (true) or
	// fallback (false) cells.
	Fatal *bool `yaml:"fatal,omitempty"`
}

// Assertion type constants.
const (
	AssertColumnType   = "column_type"
	AssertColumnOrder  = "column_order"
	AssertWarningCount = "warning_count"
	AssertWarning      = "warning"
	AssertDecodedRow   = "decoded_row"
)

// LoadScenario reads and parses a scenario YAML file. rows_file is resolved
// relative to the directory holding path.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving rows_file relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.RowsFile != "" && !filepath.IsAbs(scenario.RowsFile) && basePath != "" {
		scenario.RowsFile = filepath.Join(basePath, scenario.RowsFile)
	}
	if scenario.RowsFile != "" {
		if _, err := os.Stat(scenario.RowsFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: rows file not found: %s", scenario.RowsFile)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML. rows_file is left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Rows) == 0 && s.RowsFile == "" {
		return fmt.Errorf("rows or rows_file is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative")
	}

	if s.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}

	if _, err := ir.NewRegistry(s.CustomTypes...); err != nil {
		return fmt.Errorf("custom_types: %w", err)
	}

	for i, row := range s.Rows {
		if _, err := ir.ParseDict([]byte(row)); err != nil {
			return fmt.Errorf("rows[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertColumnType:
		if a.Column == "" {
			return fmt.Errorf("assertions[%d]: column is required for column_type", index)
		}
		if a.Expect == "" {
			return fmt.Errorf("assertions[%d]: expect is required for column_type", index)
		}
	case AssertColumnOrder:
		if a.Columns == nil {
			return fmt.Errorf("assertions[%d]: columns list is required for column_order", index)
		}
	case AssertWarningCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for warning_count", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for warning_count", index)
		}
	case AssertWarning:
		if a.Row == nil {
			return fmt.Errorf("assertions[%d]: row is required for warning", index)
		}
		if a.Column == "" {
			return fmt.Errorf("assertions[%d]: column is required for warning", index)
		}
	case AssertDecodedRow:
		if a.Row == nil {
			return fmt.Errorf("assertions[%d]: row is required for decoded_row", index)
		}
		if a.Expect == "" {
			return fmt.Errorf("assertions[%d]: expect is required for decoded_row", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Row != nil && *a.Row < 0 {
		return fmt.Errorf("assertions[%d]: row must be non-negative", index)
	}

	return nil
}
