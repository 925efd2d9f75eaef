package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// TablesOptions holds flags for the tables command.
type TablesOptions struct {
	*RootOptions
	Database string
}

// TableOutput is one table in the tables command output.
type TableOutput struct {
	Name string `json:"name"`
	Rows int64  `json:"rows"`
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TablesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List history tables",
		Long: `List the tables in the SQLite database with their row counts.

Examples:
  weavelog tables --db ./weavelog.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: database from config)")

	return cmd
}

func runTables(opts *TablesOptions, cmd *cobra.Command) error {
	if err := opts.ready(cmd); err != nil {
		return err
	}

	st, err := opts.openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	infos, err := st.Tables(context.Background())
	if err != nil {
		return storeError("failed to list tables", err)
	}

	tables := make([]TableOutput, len(infos))
	for i, info := range infos {
		tables[i] = TableOutput{Name: info.Name, Rows: info.Rows}
	}

	return opts.formatter(cmd).Emit(tables, func(w io.Writer) error {
		if len(tables) == 0 {
			_, err := fmt.Fprintln(w, "No tables found.")
			return err
		}
		for _, t := range tables {
			fmt.Fprintf(w, "%s\t%d\n", t.Name, t.Rows)
		}
		return nil
	})
}
