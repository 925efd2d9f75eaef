package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/weavelog/internal/ir"
)

// InferOptions holds flags for the infer command.
type InferOptions struct {
	*RootOptions
	Structural bool // ignore wrappers
}

// InferResult is the output of the infer command.
type InferResult struct {
	Type        json.RawMessage `json:"type"`
	Fingerprint string          `json:"fingerprint"`
}

// NewInferCommand creates the infer command.
func NewInferCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InferOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "infer [file]",
		Short: "Compute the type of a JSON value",
		Long: `Compute the type tree of a JSON value read from file or stdin.

Wrapper objects ({"_type", "_weave_type", "_val"}) contribute their declared
type unless --structural is set.

Examples:
  echo '{"a": [1, 2.5]}' | weavelog infer
  weavelog infer value.json --format json
  weavelog infer value.json --structural`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer(opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Structural, "structural", false, "treat wrapper objects as plain objects")

	return cmd
}

func runInfer(opts *InferOptions, cmd *cobra.Command, args []string) error {
	if err := opts.ready(cmd); err != nil {
		return err
	}

	v, err := readValue(cmd, args)
	if err != nil {
		return err
	}

	tctx, err := opts.Config.TypingContext()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid custom types", err)
	}

	var t ir.Type
	if opts.Structural {
		t, err = tctx.StructuralType(v)
	} else {
		t, err = tctx.ComputeType(v)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to compute type", err)
	}

	result := InferResult{Type: typeJSON(t), Fingerprint: ir.Fingerprint(t)}
	return opts.formatter(cmd).Emit(result, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, ir.TypeString(t))
		return err
	})
}
