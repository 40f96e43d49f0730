package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/vulntor/uaparser/cmd/uaparser/internal/format"
	"github.com/vulntor/uaparser/pkg/uaparser"
	v "github.com/vulntor/uaparser/pkg/version"
)

// NewVersionCommand returns the 'uaparser version' command.
func NewVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:     "version",
		Short:   "Print version information",
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter := format.FromCommand(cmd)
			info := v.Get()
			out := cmd.OutOrStdout()

			if short {
				_, err := fmt.Fprintln(out, info.Version)
				return err
			}

			rules := "unavailable"
			if rs, err := uaparser.Default(); err == nil {
				rules = fmt.Sprintf("%d embedded", rs.Total())
				if ver := rs.VersionString(); ver != "" {
					rules += " (catalog " + ver + ")"
				}
			}

			if formatter.Mode() == format.ModeJSON {
				return formatter.PrintJSON(map[string]any{
					"version":   info.Version,
					"commit":    info.Commit,
					"buildDate": info.BuildDate,
					"goVersion": info.GoVersion,
					"platform":  runtime.GOOS + "/" + runtime.GOARCH,
					"release":   v.Semver() != nil,
					"rules":     rules,
				})
			}

			_, _ = fmt.Fprintf(out, "%s version: %s\n", cliExecutable, info.Version)
			if info.Commit != "" {
				_, _ = fmt.Fprintf(out, "Commit: %s\n", info.Commit)
			}
			_, _ = fmt.Fprintf(out, "Build Date: %s\n", info.BuildDate)
			_, _ = fmt.Fprintf(out, "Go Version: %s\n", info.GoVersion)
			_, _ = fmt.Fprintf(out, "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			_, err := fmt.Fprintf(out, "Rules: %s\n", rules)
			return err
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")
	cmd.Flags().Bool("json", false, "Output as JSON")

	return cmd
}
