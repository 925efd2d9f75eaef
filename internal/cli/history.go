package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/weavelog/internal/history"
	"github.com/roach88/weavelog/internal/ir"
	"github.com/roach88/weavelog/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database      string
	Table         string
	JSONL         string
	Save          bool
	Workers       int
	FailOnWarning bool
}

// ColumnOutput is one reconciled column.
type ColumnOutput struct {
	Name        string          `json:"name"`
	Type        json.RawMessage `json:"type"`
	Fingerprint string          `json:"fingerprint"`
}

// WarningOutput is one cell error.
type WarningOutput struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code,omitempty"`
	Fatal   bool   `json:"fatal"`
	Message string `json:"message"`
}

// HistoryResult is the output of the history command.
type HistoryResult struct {
	SessionID string          `json:"session_id"`
	Rows      int             `json:"rows"`
	Columns   []ColumnOutput  `json:"columns"`
	Warnings  []WarningOutput `json:"warnings"`
	Saved     bool            `json:"saved"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Decode a history table and reconcile its column types",
		Long: `Decode every cell of a history table and print the reconciled type of
each column, in first-seen order, with the warnings recorded for cells whose
declared type could not be used.

Rows come from a stored table (--table) or a JSONL file (--jsonl). With --save
the column schema is written back to the database for the table.

Exit codes:
  0 - Table decoded (warnings do not fail unless --fail-on-warning)
  1 - Warnings were recorded and --fail-on-warning is set
  2 - Command error (missing database, unreadable input, etc.)

Examples:
  weavelog history --db ./weavelog.db --table runs
  weavelog history --db ./weavelog.db --table runs --save
  weavelog history --jsonl rows.jsonl --workers 4 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: database from config)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "table to decode")
	cmd.Flags().StringVar(&opts.JSONL, "jsonl", "", "JSONL file to decode instead of a table")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "store the reconciled column schema (requires --table)")
	cmd.Flags().IntVar(&opts.Workers, "workers", -1, "decoder goroutines (default: workers from config)")
	cmd.Flags().BoolVar(&opts.FailOnWarning, "fail-on-warning", false, "exit 1 if any cell error was recorded")
	cmd.MarkFlagsMutuallyExclusive("table", "jsonl")
	cmd.MarkFlagsOneRequired("table", "jsonl")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if err := opts.ready(cmd); err != nil {
		return err
	}
	if opts.Save && opts.Table == "" {
		return NewExitError(ExitCommandError, "--save requires --table")
	}

	ctx := context.Background()

	c, err := opts.codec(cmd)
	if err != nil {
		return err
	}

	workers := opts.Workers
	if workers < 0 {
		workers = opts.Config.Workers
	}
	dec := history.New(c, history.WithWorkers(workers), history.WithLogger(opts.Logger))

	var (
		table *history.Table
		st    *store.Store
	)
	if opts.JSONL != "" {
		f, err := os.Open(opts.JSONL)
		if err != nil {
			return inputError("failed to open JSONL file", err)
		}
		defer f.Close()

		table, err = history.DecodeJSONL(ctx, dec, f)
		if err != nil {
			return inputError("failed to decode JSONL file", err)
		}
	} else {
		st, err = opts.openStore(opts.Database)
		if err != nil {
			return err
		}
		defer st.Close()

		rows, err := st.ReadRows(ctx, opts.Table)
		if err != nil {
			return storeError("failed to read rows", err)
		}
		table, err = dec.DecodeTable(ctx, rows)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to decode table", err)
		}
	}

	if opts.Save {
		if err := st.SaveColumns(ctx, opts.Table, table.SessionID, table.Columns); err != nil {
			return storeError("failed to save columns", err)
		}
		opts.Logger.Info("column schema saved", "table", opts.Table, "columns", table.Columns.Len(), "session", table.SessionID)
	}

	result := historyResult(table)
	result.Saved = opts.Save

	if err := opts.formatter(cmd).Emit(result, func(w io.Writer) error {
		return writeHistoryText(w, result)
	}); err != nil {
		return err
	}

	if opts.FailOnWarning && len(result.Warnings) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d cell errors recorded", len(result.Warnings)))
	}
	return nil
}

func historyResult(table *history.Table) HistoryResult {
	result := HistoryResult{
		SessionID: table.SessionID,
		Rows:      len(table.Rows),
		Columns:   make([]ColumnOutput, 0, table.Columns.Len()),
		Warnings:  make([]WarningOutput, 0, len(table.Warnings)),
	}
	for _, f := range table.Columns.List() {
		result.Columns = append(result.Columns, ColumnOutput{
			Name:        f.Name,
			Type:        typeJSON(f.Type),
			Fingerprint: ir.Fingerprint(f.Type),
		})
	}
	for _, w := range table.Warnings {
		result.Warnings = append(result.Warnings, WarningOutput{
			Row:     w.Row,
			Column:  w.Column,
			Code:    string(ir.CodeOf(w.Cause)),
			Fatal:   w.Fatal,
			Message: w.Error(),
		})
	}
	return result
}

func writeHistoryText(w io.Writer, r HistoryResult) error {
	fmt.Fprintf(w, "session: %s\n", r.SessionID)
	fmt.Fprintf(w, "rows:    %d\n", r.Rows)

	fmt.Fprintln(w, "columns:")
	for _, c := range r.Columns {
		fmt.Fprintf(w, "  %s\t%s\n", c.Name, c.Type)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "warnings (%d):\n", len(r.Warnings))
		for _, wn := range r.Warnings {
			fmt.Fprintf(w, "  %s\n", wn.Message)
		}
	}

	if r.Saved {
		fmt.Fprintln(w, "schema saved")
	}
	return nil
}
