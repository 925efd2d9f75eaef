package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/weavelog/internal/ir"
)

// readInput returns the contents of the file named by args[0], or stdin when
// args is empty or args[0] is "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, inputError("failed to read stdin", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, inputError(fmt.Sprintf("failed to read %s", args[0]), err)
	}
	return data, nil
}

// readValue reads and parses one JSON value.
func readValue(cmd *cobra.Command, args []string) (ir.Value, error) {
	data, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}
	v, err := ir.ParseValue(data)
	if err != nil {
		return nil, inputError("invalid JSON input", err)
	}
	return v, nil
}

// parseTypeArg parses a type tree given as JSON, or as a bare shorthand tag
// such as int or a registered custom name.
func parseTypeArg(raw string, opts ir.ParseOptions) (ir.Type, error) {
	v, err := ir.ParseValue([]byte(raw))
	if err != nil {
		v = ir.String(raw)
	}
	t, err := ir.ParseTypeTree(v, opts)
	if err != nil {
		return nil, inputError("invalid type", err)
	}
	return t, nil
}

// parseOptions builds type tree parse options from the loaded config.
func (o *RootOptions) parseOptions() (ir.ParseOptions, error) {
	reg, err := o.Config.Registry()
	if err != nil {
		return ir.ParseOptions{}, WrapExitError(ExitCommandError, "invalid custom types", err)
	}
	return ir.ParseOptions{Registry: reg, MaxDepth: o.Config.MaxDepth}, nil
}

// typeJSON is a type tree ready for embedding in a JSON response.
func typeJSON(t ir.Type) json.RawMessage {
	return ir.MarshalTypeTree(t)
}

// valueJSON is a value ready for embedding in a JSON response.
func valueJSON(v ir.Value) (json.RawMessage, error) {
	data, err := ir.MarshalValue(v)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to marshal value", err)
	}
	return data, nil
}
