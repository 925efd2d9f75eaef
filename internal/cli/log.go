package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/weavelog/internal/history"
	"github.com/roach88/weavelog/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Database string
	Table    string
}

// LogResult is the output of the log command.
type LogResult struct {
	Table    string `json:"table"`
	Rows     int    `json:"rows"`
	FirstSeq int64  `json:"first_seq"`
	LastSeq  int64  `json:"last_seq"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log [file.jsonl]",
		Short: "Append rows to a history table",
		Long: `Append JSON rows (one object per line, from file or stdin) to a table
in the SQLite database. Rows keep their key order and may mix plain and
wrapped cells.

Examples:
  weavelog log --db ./weavelog.db --table runs rows.jsonl
  cat rows.jsonl | weavelog log --db ./weavelog.db --table runs`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: database from config)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "table name (required)")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command, args []string) error {
	if err := opts.ready(cmd); err != nil {
		return err
	}
	ctx := context.Background()

	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	rows, err := history.ReadJSONL(bytes.NewReader(data))
	if err != nil {
		return inputError("invalid JSONL input", err)
	}

	st, err := opts.openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	first, last, err := st.AppendRows(ctx, opts.Table, rows)
	if err != nil {
		return storeError("failed to append rows", err)
	}
	opts.Logger.Info("rows appended", "table", opts.Table, "rows", len(rows), "first_seq", first, "last_seq", last)

	result := LogResult{Table: opts.Table, Rows: len(rows), FirstSeq: first, LastSeq: last}
	return opts.formatter(cmd).Emit(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "appended %d rows to %s (seq %d-%d)\n", result.Rows, result.Table, first, last)
		return err
	})
}

// openStore opens the database named by flag, or the configured one.
func (o *RootOptions) openStore(flag string) (*store.Store, error) {
	path := flag
	if path == "" {
		path = o.Config.Database
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no database: pass --db or set database in the config file")
	}

	o.Logger.Debug("opening database", "path", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, storeError("failed to open database", err)
	}
	return st, nil
}
