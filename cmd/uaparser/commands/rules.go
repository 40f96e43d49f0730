package commands

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/uaparser/cmd/uaparser/internal/bind"
	"github.com/vulntor/uaparser/cmd/uaparser/internal/format"
	"github.com/vulntor/uaparser/pkg/appctx"
	"github.com/vulntor/uaparser/pkg/server/api"
	"github.com/vulntor/uaparser/pkg/uaparser"
	"github.com/vulntor/uaparser/pkg/uaparser/catalogsync"
)

// NewRulesCommand wires CLI helpers for rule set management.
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Short:   "Inspect, validate and sync rule specifications",
		GroupID: "rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.AddCommand(newRulesValidateCommand())
	cmd.AddCommand(newRulesInfoCommand())
	cmd.AddCommand(newRulesSyncCommand())

	return cmd
}

func newRulesValidateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Audit a rule specification and report every problem",
		Long: `Audit a rule specification without loading it.

Every rule is checked for unsafe patterns and compile errors. Capture
references past the group count, unknown keys and duplicate patterns are
warnings, promoted to errors with --strict.

Without a file argument the configured --rules file is audited, or the
built-in rules when none is configured.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)
			cfg := appctx.ConfigOrDefault(cmd.Context())

			path := cfg.Rules.File
			if len(args) == 1 {
				path = args[0]
			}

			data := uaparser.EmbeddedSpecification()
			source := "embedded"
			if path != "" {
				var err error
				if data, err = os.ReadFile(path); err != nil {
					return formatter.PrintTotalFailureSummary("validate rules", err, format.ErrorCode(err))
				}
				source = path
			}

			opts, err := bind.CompileOptions(cfg)
			if err != nil {
				return formatter.PrintTotalFailureSummary("validate rules", err, format.ErrorCode(err))
			}

			result := uaparser.NewValidator(strict, opts...).ValidateBytes(data)
			log.Debug().Str("source", source).Int("rules", result.RuleCount).
				Int("errors", len(result.Errors)).Int("warnings", len(result.Warnings)).
				Msg("Rule specification audited")

			if formatter.Mode() == format.ModeJSON {
				if err := formatter.PrintJSON(result); err != nil {
					return err
				}
			} else if err := printValidation(formatter, source, result); err != nil {
				return err
			}

			if !result.IsValid() {
				verr := uaparser.NewValidationError(len(result.Errors), len(result.Warnings))
				if formatter.Mode() == format.ModeJSON {
					return verr
				}
				return formatter.PrintTotalFailureSummary("validate rules", verr, format.ErrorCode(verr))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")
	cmd.Flags().Bool("json", false, "Output the audit as JSON")

	return cmd
}

func printValidation(formatter format.Formatter, source string, result *uaparser.SpecValidationResult) error {
	findings := append(append([]uaparser.ValidationError{}, result.Errors...), result.Warnings...)
	if len(findings) > 0 {
		rows := make([][]string, 0, len(findings))
		for _, f := range findings {
			rows = append(rows, []string{f.Severity, f.Location(), f.Field, f.Message})
		}
		if err := formatter.PrintTable([]string{"severity", "location", "field", "message"}, rows); err != nil {
			return err
		}
	}
	if !result.IsValid() {
		return nil
	}
	detail := fmt.Sprintf("%s: %d rules, %d warnings", source, result.RuleCount, len(result.Warnings))
	return formatter.PrintSuccessSummary("validated", detail)
}

func newRulesInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Describe the active rule set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter := format.FromCommand(cmd)
			cfg := appctx.ConfigOrDefault(cmd.Context())

			rs, err := bind.LoadRules(cfg)
			if err != nil {
				return formatter.PrintTotalFailureSummary("load rules", err, format.ErrorCode(err))
			}

			info := api.NewRulesInfo(rs)
			if formatter.Mode() == format.ModeJSON {
				return formatter.PrintJSON(info)
			}

			rows := [][]string{
				{"source", info.Source},
				{"version", orDash(info.Version)},
				{"engine", info.Engine},
				{"loaded_at", info.LoadedAt},
				{"total", strconv.Itoa(info.Total)},
			}
			sections := make([]string, 0, len(info.Counts))
			for k := range info.Counts {
				sections = append(sections, k)
			}
			sort.Strings(sections)
			for _, k := range sections {
				rows = append(rows, []string{"rules." + k, strconv.Itoa(info.Counts[k])})
			}
			return formatter.PrintTable([]string{"key", "value"}, rows)
		},
	}

	cmd.Flags().Bool("json", false, "Output as JSON")

	return cmd
}

func newRulesSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the rule catalog from a remote or local source",
		Long: `Fetch a rule specification, validate every rule and store it in the
cache directory, where it becomes the default rule set.

A catalog whose version is older than the cached one is refused unless
--force is given.`,
		Example: `  uaparser rules sync --url https://raw.githubusercontent.com/ua-parser/uap-core/master/regexes.yaml
  uaparser rules sync --file ./regexes.yaml --cache-dir ~/.cache/uaparser`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter := format.FromCommand(cmd)
			cfg := appctx.ConfigOrDefault(cmd.Context())

			opts, err := bind.BindSyncOptions(cmd)
			if err != nil {
				return formatter.PrintTotalFailureSummary("sync rules", err, format.ErrorCode(err))
			}
			if opts.CacheDir == "" {
				opts.CacheDir = cfg.Rules.CacheDir
			}

			compileOpts, err := bind.CompileOptions(cfg)
			if err != nil {
				return formatter.PrintTotalFailureSummary("sync rules", err, format.ErrorCode(err))
			}

			svc := catalogsync.Service{
				CacheDir:       opts.CacheDir,
				Force:          opts.Force,
				CompileOptions: compileOpts,
			}
			if opts.FilePath != "" {
				svc.Source = catalogsync.FileSource{Path: opts.FilePath}
			} else {
				svc.Source = catalogsync.HTTPSource{URL: opts.URL}
			}

			result, err := svc.Sync(cmd.Context())
			if err != nil {
				if uaparser.ErrorCode(err) == "INTERNAL" {
					err = uaparser.WrapSyncError(err)
				}
				return formatter.PrintTotalFailureSummary("sync rules", err, format.ErrorCode(err))
			}

			rs := result.RuleSet
			log.Info().Str("cache", result.Path).Str("version", rs.VersionString()).Int("rules", rs.Total()).Msg("Rule catalog synced")

			detail := fmt.Sprintf("%d rules into %s", rs.Total(), result.Path)
			if result.Previous != nil {
				detail += fmt.Sprintf(" (previous version %s)", result.Previous)
			}
			return formatter.PrintSuccessSummary("synced", detail)
		},
	}

	cmd.Flags().String("file", "", "Load the catalog from a local file")
	cmd.Flags().String("url", "", "Download the catalog from a remote URL")
	cmd.Flags().String("cache-dir", "", "Override the catalog cache directory (default: rules.cache_dir)")
	cmd.Flags().Bool("force", false, "Replace a cached catalog even when it is newer")
	cmd.Flags().Bool("json", false, "Output as JSON")

	return cmd
}
