package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/toolsandbox/registry"
	"github.com/jonwraymond/toolsandbox/sandbox"
)

// NewRunCmd creates the "run" subcommand.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <tool>",
		Short: "Invoke a tool once with a JSON argument object",
		Args:  cobra.ExactArgs(1),
		RunE:  runRun,
	}
	cmd.Flags().StringP("args", "a", "", "Arguments as inline JSON object")
	cmd.Flags().StringP("args-file", "f", "", "Arguments from a JSON file")
	cmd.Flags().Bool("json", false, "Emit the full result envelope as JSON")
	return cmd
}

func runRun(cmd *cobra.Command, argv []string) error {
	name := argv[0]

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd)

	args, err := parseArgs(cmd)
	if err != nil {
		return err
	}

	host, err := newHost(cmd, settings, logger)
	if err != nil {
		return err
	}

	result, err := host.RunTool(cmd.Context(), name, args)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return exitError(exitNotFound, "tool %q not found", name)
		}
		if errors.Is(err, sandbox.ErrDisabled) {
			return exitError(exitValidation, "%v", err)
		}
		return exitError(exitRuntime, "%v", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if !result.Success {
		return exitError(exitRuntime, "tool failed: %s", result.Error)
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Output)
	return nil
}

// parseArgs resolves the invocation arguments from --args or --args-file.
// Both unset means an empty argument object.
func parseArgs(cmd *cobra.Command) (map[string]any, error) {
	inline, _ := cmd.Flags().GetString("args")
	file, _ := cmd.Flags().GetString("args-file")
	if inline != "" && file != "" {
		return nil, exitError(exitValidation, "--args and --args-file are mutually exclusive")
	}

	var raw []byte
	switch {
	case inline != "":
		raw = []byte(inline)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, exitError(exitValidation, "reading args file: %v", err)
		}
		raw = data
	default:
		return nil, nil
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, exitError(exitValidation, "arguments must be a JSON object: %v", err)
	}
	return args, nil
}
