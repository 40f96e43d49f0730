package main

import (
	"fmt"
	"os"

	"github.com/vulntor/uaparser/cmd/uaparser/commands"
	"github.com/vulntor/uaparser/cmd/uaparser/internal/format"
	"github.com/vulntor/uaparser/pkg/server"
	"github.com/vulntor/uaparser/pkg/uaparser"
)

// main runs the uaparser CLI and maps failures to exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Invalid usage (missing or conflicting sources, invalid port)
//   - 3: Invalid rule specification (malformed, empty or unsafe)
//   - 4: Classification timeout
//   - 7: Unavailable (catalog storage disabled, server init failure)
func main() {
	command := commands.NewCommand()

	if err := command.Execute(); err != nil {
		if !format.IsReported(err) {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(getExitCode(err))
	}
}

func getExitCode(err error) int {
	if format.IsServerError(err) {
		return server.ExitCode(err)
	}
	return uaparser.ExitCode(err)
}
