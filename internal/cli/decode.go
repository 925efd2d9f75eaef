package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/weavelog/internal/codec"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Strict     bool
	Structural bool
}

// DecodeResult is the output of the decode command.
type DecodeResult struct {
	Value    json.RawMessage `json:"value"`
	Type     json.RawMessage `json:"type"`
	Fallback string          `json:"fallback,omitempty"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Unwrap a typed JSON value",
		Long: `Decode a JSON value read from file or stdin, replacing every wrapper with
its payload, and print the value with its type.

In lenient mode (the default) a wrapper whose declared type cannot be parsed is
kept as a plain object and typed structurally; the reason is reported as
"fallback". In strict mode the same input fails with exit code 1, as does a
payload that does not fit its declared type.

Examples:
  weavelog decode cell.json
  weavelog decode cell.json --strict --format json
  weavelog decode cell.json --structural`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on unparseable types and shape mismatches")
	cmd.Flags().BoolVar(&opts.Structural, "structural", false, "treat wrapper objects as plain objects")

	return cmd
}

func runDecode(opts *DecodeOptions, cmd *cobra.Command, args []string) error {
	if err := opts.ready(cmd); err != nil {
		return err
	}

	v, err := readValue(cmd, args)
	if err != nil {
		return err
	}

	c, err := opts.codec(cmd)
	if err != nil {
		return err
	}

	var res codec.Result
	if opts.Structural {
		res, err = c.DecodeStructural(v)
	} else {
		res, err = c.Decode(v)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to decode", err)
	}

	value, err := valueJSON(res.Value)
	if err != nil {
		return err
	}

	result := DecodeResult{Value: value, Type: typeJSON(res.Type)}
	if res.Fallback != nil {
		result.Fallback = res.Fallback.Error()
		opts.Logger.Warn("declared type ignored", "error", res.Fallback)
	}

	return opts.formatter(cmd).Emit(result, func(w io.Writer) error {
		fmt.Fprintf(w, "value: %s\n", result.Value)
		fmt.Fprintf(w, "type:  %s\n", result.Type)
		if result.Fallback != "" {
			fmt.Fprintf(w, "fallback: %s\n", result.Fallback)
		}
		return nil
	})
}
