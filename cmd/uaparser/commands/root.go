package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vulntor/uaparser/pkg/appctx"
	"github.com/vulntor/uaparser/pkg/config"
	"github.com/vulntor/uaparser/pkg/logging"
	"github.com/vulntor/uaparser/pkg/paths"
)

const cliExecutable = "uaparser"

// NewCommand constructs the top-level uaparser CLI command, wiring global
// flags, configuration loading and logging.
func NewCommand() *cobra.Command {
	var (
		configFile string
		logCloser  io.Closer
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Classify User-Agent strings into browser, OS and device",
		Long: `uaparser classifies User-Agent strings against an ordered cascade of
regular-expression rules in the uap-core regexes.yaml format.

Rules come from --rules, then the catalog synced by 'uaparser rules sync',
then the built-in rule set.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if path == "" {
				path = paths.ConfigFile()
			}

			mgr := config.NewManager()
			if err := mgr.Load(cmd.Flags(), path); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			closer, err := logging.Configure(mgr.Get().Log)
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}
			logCloser = closer

			ctx := appctx.WithConfig(cmd.Context(), mgr)
			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path (default: $XDG_CONFIG_HOME/uaparser/config.yaml)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddGroup(&cobra.Group{ID: "parse", Title: "Classification Commands"})
	cmd.AddGroup(&cobra.Group{ID: "rules", Title: "Rule Management Commands"})
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands"})

	cmd.AddCommand(NewParseCommand())
	cmd.AddCommand(NewConformanceCommand())
	cmd.AddCommand(NewRulesCommand())
	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}
