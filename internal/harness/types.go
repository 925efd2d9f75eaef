package harness

import (
	"github.com/roach88/weavelog/internal/history"
	"github.com/roach88/weavelog/internal/ir"
)

// ColumnResult is one reconciled column as it came back from the store.
type ColumnResult struct {
	Name        string  `json:"name"`
	Type        ir.Type `json:"-"`
	Fingerprint string  `json:"fingerprint"`
}

// WarningResult is one recorded cell error.
type WarningResult struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code,omitempty"`
	Fatal   bool   `json:"fatal"`
	Message string `json:"message"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// SessionID is the decoding session that produced the schema.
	SessionID string `json:"session_id"`

	// Columns are the reconciled columns in first-seen order.
	Columns []ColumnResult `json:"columns"`

	// Warnings are the cell errors, ordered by row then column position.
	Warnings []WarningResult `json:"warnings"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Table is the decoded history table.
	Table *history.Table `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Columns:  []ColumnResult{},
		Warnings: []WarningResult{},
		Errors:   []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Column returns the named column, or false if the table has no such column.
func (r *Result) Column(name string) (ColumnResult, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnResult{}, false
}

func warningResult(w history.CellError) WarningResult {
	return WarningResult{
		Row:     w.Row,
		Column:  w.Column,
		Code:    string(ir.CodeOf(w.Cause)),
		Fatal:   w.Fatal,
		Message: w.Error(),
	}
}
