package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/weavelog/internal/ir"
	"github.com/roach88/weavelog/internal/typing"
)

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <tree-file>...",
		Short: "Merge type trees into their least common type",
		Long: `Merge the type trees in the given files (use - for stdin) into one type.

Objects merge key by key, with one-sided keys becoming optional; lists merge
their element types; anything else forms a union.

Examples:
  weavelog merge a.json b.json
  weavelog merge a.json b.json --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(rootOpts, cmd, args)
		},
	}

	return cmd
}

func runMerge(opts *RootOptions, cmd *cobra.Command, args []string) error {
	if err := opts.ready(cmd); err != nil {
		return err
	}

	popts, err := opts.parseOptions()
	if err != nil {
		return err
	}

	types := make([]ir.Type, 0, len(args))
	for _, path := range args {
		var data []byte
		if path == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return inputError(fmt.Sprintf("failed to read %s", path), err)
		}

		t, err := ir.ParseTypeTreeJSON(data, popts)
		if err != nil {
			return inputError(fmt.Sprintf("invalid type tree in %s", path), err)
		}
		types = append(types, t)
	}

	merged := typing.MergeAll(types...)
	opts.Logger.Debug("merged types", "inputs", len(types), "kind", merged.Kind().String())

	result := InferResult{Type: typeJSON(merged), Fingerprint: ir.Fingerprint(merged)}
	return opts.formatter(cmd).Emit(result, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, ir.TypeString(merged))
		return err
	})
}
