package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/uaparser/cmd/uaparser/internal/bind"
	"github.com/vulntor/uaparser/cmd/uaparser/internal/format"
	"github.com/vulntor/uaparser/pkg/appctx"
	"github.com/vulntor/uaparser/pkg/stringutil"
	"github.com/vulntor/uaparser/pkg/uaparser"
)

// ErrConformanceFailed is returned when a run misses a threshold.
var ErrConformanceFailed = errors.New("conformance thresholds not met")

type conformanceReport struct {
	Metrics  *uaparser.ConformanceMetrics `json:"metrics"`
	Failures []uaparser.CaseResult        `json:"failures,omitempty"`
}

// NewConformanceCommand returns the 'uaparser conformance' command.
func NewConformanceCommand() *cobra.Command {
	var (
		uaFile     string
		osFile     string
		deviceFile string
		relaxed    bool
		maxShown   int
	)

	cmd := &cobra.Command{
		Use:   "conformance",
		Short: "Run uap-core test_cases fixtures against the active rules",
		Long: `Run conformance fixtures (uap-core test_resources format) through the
classifier and compare every expected field.

Thresholds default to a 100% pass rate and can be tuned with
UAPARSER_CONFORMANCE_MIN_PASS_RATE, UAPARSER_CONFORMANCE_MAX_AVG_CASE_MS and
UAPARSER_CONFORMANCE_CASE_BOUND, or relaxed with --relaxed.`,
		Example: `  uaparser conformance --ua test_resources/firefox_user_agent_strings.yaml --os tests/test_os.yaml
  uaparser conformance --device tests/test_device.yaml --json`,
		GroupID: "parse",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter := format.FromCommand(cmd)
			cfg := appctx.ConfigOrDefault(cmd.Context())

			files := map[uaparser.Category]string{
				uaparser.CategoryUserAgent: uaFile,
				uaparser.CategoryOS:        osFile,
				uaparser.CategoryDevice:    deviceFile,
			}
			if uaFile == "" && osFile == "" && deviceFile == "" {
				err := errors.New("at least one of --ua, --os or --device is required")
				return formatter.PrintTotalFailureSummary("run conformance", err, format.ErrorCode(err))
			}

			thresholds := uaparser.LoadConformanceThresholdsFromEnv()
			if relaxed {
				thresholds = uaparser.RelaxedConformanceThresholds()
			}

			parser, err := bind.NewParser(cfg, bind.ParserDeps{Logger: log.Logger})
			if err != nil {
				return formatter.PrintTotalFailureSummary("load rules", err, format.ErrorCode(err))
			}

			runner := uaparser.NewConformanceRunner(parser, thresholds.CaseBound)
			results, err := runner.RunFiles(cmd.Context(), files)
			if err != nil {
				return formatter.PrintTotalFailureSummary("run conformance", err, format.ErrorCode(err))
			}

			metrics := uaparser.CalculateConformanceMetrics(results, thresholds)
			failures := collectFailures(results, maxShown)

			if formatter.Mode() == format.ModeJSON {
				if err := formatter.PrintJSON(conformanceReport{Metrics: metrics, Failures: failures}); err != nil {
					return err
				}
			} else if err := printConformance(formatter, parser.RuleSet().Source(), metrics, failures); err != nil {
				return err
			}

			if !metrics.OK() {
				return ErrConformanceFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&uaFile, "ua", "", "User agent fixture file")
	cmd.Flags().StringVar(&osFile, "os", "", "Operating system fixture file")
	cmd.Flags().StringVar(&deviceFile, "device", "", "Device fixture file")
	cmd.Flags().BoolVar(&relaxed, "relaxed", false, "Use relaxed thresholds")
	cmd.Flags().IntVar(&maxShown, "max-failures", 20, "Failing cases to list (0 lists none)")
	cmd.Flags().Bool("json", false, "Output the report as JSON")
	cmd.Flags().Bool("no-color", false, "Disable colored output")

	return cmd
}

func collectFailures(results map[uaparser.Category][]uaparser.CaseResult, limit int) []uaparser.CaseResult {
	var out []uaparser.CaseResult
	for _, c := range uaparser.Categories {
		for _, r := range results[c] {
			if len(out) >= limit {
				return out
			}
			if !r.Passed {
				out = append(out, r)
			}
		}
	}
	return out
}

func printConformance(formatter format.Formatter, source string, m *uaparser.ConformanceMetrics, failures []uaparser.CaseResult) error {
	if len(m.Categories) > 0 {
		rows := make([][]string, 0, len(m.Categories))
		for _, cm := range m.Categories {
			rows = append(rows, []string{
				cm.Category,
				strconv.Itoa(cm.Total),
				strconv.Itoa(cm.Passed - cm.Skipped),
				strconv.Itoa(cm.Failed),
				strconv.Itoa(cm.Skipped),
				fmt.Sprintf("%.1f%%", cm.PassRate*100),
			})
		}
		if err := formatter.PrintTable([]string{"category", "cases", "passed", "failed", "skipped", "pass rate"}, rows); err != nil {
			return err
		}
	}

	if len(failures) > 0 {
		rows := make([][]string, 0, len(failures))
		for _, f := range failures {
			rows = append(rows, []string{f.Category.String(), strconv.Itoa(f.Index), failureDetail(f), stringutil.Ellipsis(f.Input, 60)})
		}
		if err := formatter.PrintSummary(""); err != nil {
			return err
		}
		if err := formatter.PrintTable([]string{"category", "case", "detail", "input"}, rows); err != nil {
			return err
		}
	}

	status := "PASS"
	if !m.OK() {
		status = "FAIL"
	}
	lines := [][2]string{
		{"rules", source},
		{"cases", strconv.Itoa(m.Total)},
		{"pass rate", fmt.Sprintf("%.2f%% (min %.2f%%)", m.PassRate*100, m.Thresholds.MinPassRate*100)},
		{"avg case", fmt.Sprintf("%dµs (max %.1fms)", m.AvgCaseMicros, m.Thresholds.MaxAvgCaseMs)},
		{"slowest case", fmt.Sprintf("%s (bound %s)", m.MaxCase, m.Thresholds.CaseBound)},
		{"result", status},
	}
	return formatter.PrintBox("Conformance", lines, m.OK())
}

func failureDetail(r uaparser.CaseResult) string {
	switch {
	case r.Err != "":
		return r.Err
	case r.OverBound:
		return fmt.Sprintf("took %s", r.Duration)
	case len(r.Mismatches) > 0:
		mm := r.Mismatches[0]
		detail := fmt.Sprintf("%s: want %s, got %s", mm.Field, fieldText(mm.Expected), fieldText(mm.Actual))
		if extra := len(r.Mismatches) - 1; extra > 0 {
			detail += fmt.Sprintf(" (+%d)", extra)
		}
		return detail
	}
	return ""
}

func fieldText(f uaparser.Field) string {
	if v, ok := f.Value(); ok {
		return strconv.Quote(v)
	}
	return "null"
}
