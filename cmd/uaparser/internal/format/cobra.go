package format

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// FromCommand builds a Formatter using cobra command output/error writers and common flags.
//
// A boolean --json flag selects JSON mode the same way --output json does.
func FromCommand(cmd *cobra.Command) Formatter {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	outputMode := ModeTable
	if flag := cmd.Flags().Lookup("output"); flag != nil {
		outputMode = ParseMode(flag.Value.String())
	}
	if flag := cmd.Flags().Lookup("json"); flag != nil {
		if val, err := strconv.ParseBool(flag.Value.String()); err == nil && val {
			outputMode = ModeJSON
		}
	}

	quiet := false
	if flag := cmd.Flags().Lookup("quiet"); flag != nil {
		if val, err := strconv.ParseBool(flag.Value.String()); err == nil {
			quiet = val
		}
	}

	color := true
	if flag := cmd.Flags().Lookup("no-color"); flag != nil {
		if val, err := strconv.ParseBool(flag.Value.String()); err == nil && val {
			color = false
		}
	}
	if stdout != os.Stdout {
		color = false
	}

	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return New(stdout, stderr, outputMode, quiet, color)
}
