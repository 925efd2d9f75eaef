package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/weavelog/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the reconciled schema to help debug the failure.
type AssertionError struct {
	Type     string         // Assertion type for categorization
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Columns  []ColumnResult // Reconciled schema for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Columns) > 0 {
		fmt.Fprintf(&buf, "\nColumns:\n")
		for i, c := range e.Columns {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", i, c.Name, ir.TypeString(c.Type))
		}
	}

	return buf.String()
}

// AssertionContext provides what assertions need beyond the result.
type AssertionContext struct {
	// Registry resolves custom type tags in expected type trees.
	Registry *ir.Registry
}

// assertColumnType checks the reconciled type of one column.
// Union member order is not significant.
func assertColumnType(result *Result, assertion Assertion, reg *ir.Registry) error {
	want, err := ir.ParseTypeTreeJSON([]byte(assertion.Expect), ir.ParseOptions{Registry: reg})
	if err != nil {
		return fmt.Errorf("column_type %q: bad expect: %w", assertion.Column, err)
	}

	col, ok := result.Column(assertion.Column)
	if !ok {
		return &AssertionError{
			Type:     AssertColumnType,
			Expected: fmt.Sprintf("column %s of type %s", assertion.Column, ir.TypeString(want)),
			Actual:   "column not found",
			Columns:  result.Columns,
		}
	}

	if !ir.Equal(col.Type, want) {
		return &AssertionError{
			Type:     AssertColumnType,
			Expected: fmt.Sprintf("column %s of type %s", assertion.Column, ir.TypeString(want)),
			Actual:   ir.TypeString(col.Type),
			Columns:  result.Columns,
		}
	}

	return nil
}

// assertColumnOrder checks that the table has exactly the given columns in order.
func assertColumnOrder(result *Result, assertion Assertion) error {
	got := make([]string, len(result.Columns))
	for i, c := range result.Columns {
		got[i] = c.Name
	}

	match := len(got) == len(assertion.Columns)
	for i := 0; match && i < len(got); i++ {
		match = got[i] == assertion.Columns[i]
	}

	if !match {
		return &AssertionError{
			Type:     AssertColumnOrder,
			Expected: fmt.Sprintf("columns %v", assertion.Columns),
			Actual:   fmt.Sprintf("columns %v", got),
			Columns:  result.Columns,
		}
	}

	return nil
}

// assertWarningCount checks the exact number of cell errors.
func assertWarningCount(result *Result, assertion Assertion) error {
	if len(result.Warnings) != *assertion.Count {
		return &AssertionError{
			Type:     AssertWarningCount,
			Expected: fmt.Sprintf("%d warnings", *assertion.Count),
			Actual:   fmt.Sprintf("%d warnings: %s", len(result.Warnings), formatWarnings(result.Warnings)),
		}
	}
	return nil
}

// assertWarning checks that a cell error was recorded at row and column.
// Code and Fatal narrow the match when set.
func assertWarning(result *Result, assertion Assertion) error {
	for _, w := range result.Warnings {
		if w.Row != *assertion.Row || w.Column != assertion.Column {
			continue
		}
		if assertion.Code != "" && w.Code != assertion.Code {
			continue
		}
		if assertion.Fatal != nil && w.Fatal != *assertion.Fatal {
			continue
		}
		return nil
	}

	expected := fmt.Sprintf("warning at row %d column %s", *assertion.Row, assertion.Column)
	if assertion.Code != "" {
		expected += " code " + assertion.Code
	}
	if assertion.Fatal != nil {
		expected += fmt.Sprintf(" fatal=%t", *assertion.Fatal)
	}

	return &AssertionError{
		Type:     AssertWarning,
		Expected: expected,
		Actual:   formatWarnings(result.Warnings),
	}
}

// assertDecodedRow checks one decoded row. Key order is significant.
func assertDecodedRow(result *Result, assertion Assertion) error {
	want, err := ir.ParseDict([]byte(assertion.Expect))
	if err != nil {
		return fmt.Errorf("decoded_row %d: bad expect: %w", *assertion.Row, err)
	}
	wantJSON, err := ir.MarshalValue(want)
	if err != nil {
		return fmt.Errorf("decoded_row %d: %w", *assertion.Row, err)
	}

	if result.Table == nil || *assertion.Row >= len(result.Table.Rows) {
		return &AssertionError{
			Type:     AssertDecodedRow,
			Expected: fmt.Sprintf("row %d = %s", *assertion.Row, wantJSON),
			Actual:   "row not found",
		}
	}

	gotJSON, err := ir.MarshalValue(result.Table.Rows[*assertion.Row])
	if err != nil {
		return fmt.Errorf("decoded_row %d: %w", *assertion.Row, err)
	}

	if string(gotJSON) != string(wantJSON) {
		return &AssertionError{
			Type:     AssertDecodedRow,
			Expected: fmt.Sprintf("row %d = %s", *assertion.Row, wantJSON),
			Actual:   string(gotJSON),
		}
	}

	return nil
}

func formatWarnings(ws []WarningResult) string {
	if len(ws) == 0 {
		return "no warnings"
	}
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.Message
	}
	return strings.Join(parts, "; ")
}

// EvaluateAssertions checks all assertions against the result.
// Returns a list of error messages (empty if all pass).
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	var reg *ir.Registry
	if actx != nil {
		reg = actx.Registry
	}

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertColumnType:
			err = assertColumnType(result, assertion, reg)
		case AssertColumnOrder:
			err = assertColumnOrder(result, assertion)
		case AssertWarningCount:
			if assertion.Count == nil {
				err = fmt.Errorf("assertion[%d]: warning_count requires count", i)
			} else {
				err = assertWarningCount(result, assertion)
			}
		case AssertWarning:
			if assertion.Row == nil {
				err = fmt.Errorf("assertion[%d]: warning requires row", i)
			} else {
				err = assertWarning(result, assertion)
			}
		case AssertDecodedRow:
			if assertion.Row == nil {
				err = fmt.Errorf("assertion[%d]: decoded_row requires row", i)
			} else {
				err = assertDecodedRow(result, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
