package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/weavelog/internal/codec"
	"github.com/roach88/weavelog/internal/history"
	"github.com/roach88/weavelog/internal/ir"
	"github.com/roach88/weavelog/internal/store"
	"github.com/roach88/weavelog/internal/testutil"
	"github.com/roach88/weavelog/internal/typing"
)

// Harness is the scenario execution engine.
// It runs scenarios against a private store with a fixed session ID.
type Harness struct {
	store    *store.Store
	registry *ir.Registry
	decoder  *history.Decoder
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Append the scenario rows under the scenario name
// 3. Read the rows back and decode them into a history table
// 4. Save the reconciled columns and reload them
// 5. Evaluate assertions against the reloaded schema and decoded rows
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	reg, err := ir.NewRegistry(scenario.CustomTypes...)
	if err != nil {
		return nil, fmt.Errorf("custom types: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := codec.New(typing.NewContext(reg, scenario.MaxDepth), codec.Lenient)

	h := &Harness{
		store:    st,
		registry: reg,
		logger:   logger,
		decoder: history.New(c,
			history.WithWorkers(scenario.Workers),
			history.WithLogger(logger),
			history.WithSessionIDs(testutil.NewFixedSessionGenerator(scenario.SessionID)),
		),
	}

	rows, err := scenarioRows(scenario)
	if err != nil {
		return nil, err
	}

	table, err := h.decode(ctx, scenario.Name, rows)
	if err != nil {
		return nil, err
	}

	cols, err := h.persistColumns(ctx, scenario.Name, table)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.SessionID = table.SessionID
	result.Table = table
	result.Columns = cols
	for _, w := range table.Warnings {
		result.Warnings = append(result.Warnings, warningResult(w))
	}

	actx := &AssertionContext{Registry: reg}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"rows", len(rows),
		"columns", len(cols),
		"warnings", len(result.Warnings),
		"pass", result.Pass,
	)

	return result, nil
}

// decode stores rows, reads them back in seq order and decodes them.
func (h *Harness) decode(ctx context.Context, table string, rows []*ir.Dict) (*history.Table, error) {
	if _, _, err := h.store.AppendRows(ctx, table, rows); err != nil {
		return nil, fmt.Errorf("failed to append rows: %w", err)
	}

	stored, err := h.store.ReadRows(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	decoded, err := h.decoder.DecodeTable(ctx, stored)
	if err != nil {
		return nil, fmt.Errorf("failed to decode table: %w", err)
	}
	return decoded, nil
}

// persistColumns saves the reconciled schema and returns it as reloaded from
// the store. A schema that does not survive the round trip is an error.
func (h *Harness) persistColumns(ctx context.Context, table string, decoded *history.Table) ([]ColumnResult, error) {
	if err := h.store.SaveColumns(ctx, table, decoded.SessionID, decoded.Columns); err != nil {
		return nil, fmt.Errorf("failed to save columns: %w", err)
	}

	stored, err := h.store.ReadColumns(ctx, table, h.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	if !store.Fields(stored).Equal(decoded.Columns) {
		return nil, fmt.Errorf("column schema of %q changed in storage", table)
	}

	cols := make([]ColumnResult, len(stored))
	for i, c := range stored {
		cols[i] = ColumnResult{Name: c.Name, Type: c.Type, Fingerprint: c.Fingerprint}
	}
	return cols, nil
}

// scenarioRows parses inline rows followed by rows_file.
func scenarioRows(s *Scenario) ([]*ir.Dict, error) {
	rows := make([]*ir.Dict, 0, len(s.Rows))
	for i, raw := range s.Rows {
		row, err := ir.ParseDict([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("rows[%d]: %w", i, err)
		}
		rows = append(rows, row)
	}

	if s.RowsFile == "" {
		return rows, nil
	}

	f, err := os.Open(s.RowsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open rows file: %w", err)
	}
	defer f.Close()

	more, err := history.ReadJSONL(f)
	if err != nil {
		return nil, fmt.Errorf("rows file %s: %w", s.RowsFile, err)
	}
	return append(rows, more...), nil
}
