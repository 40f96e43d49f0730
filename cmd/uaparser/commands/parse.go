package commands

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/uaparser/cmd/uaparser/internal/bind"
	"github.com/vulntor/uaparser/cmd/uaparser/internal/format"
	"github.com/vulntor/uaparser/pkg/appctx"
	"github.com/vulntor/uaparser/pkg/config"
	"github.com/vulntor/uaparser/pkg/uaparser"
)

type parseOutput struct {
	uaparser.Result
	Trace *uaparser.Trace `json:"trace,omitempty"`
}

// NewParseCommand returns the 'uaparser parse' command.
func NewParseCommand() *cobra.Command {
	var explain bool

	cmd := &cobra.Command{
		Use:   "parse <user-agent>...",
		Short: "Classify one or more User-Agent strings",
		Example: `  uaparser parse "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/91.0.4472.124 Safari/537.36"
  uaparser parse --output json --explain "curl/8.4.0"`,
		GroupID: "parse",
		Args:    cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			mode, _ := cmd.Flags().GetString("output")
			return format.ValidateMode(mode)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)
			cfg := appctx.ConfigOrDefault(cmd.Context())

			parser, closeTelemetry, err := newCLIParser(cfg)
			if err != nil {
				return formatter.PrintTotalFailureSummary("load rules", err, format.ErrorCode(err))
			}
			defer closeTelemetry()

			outputs := make([]parseOutput, 0, len(args))
			for _, ua := range args {
				out, err := parseOne(cmd.Context(), parser, ua, explain)
				if err != nil {
					return formatter.PrintTotalFailureSummary("parse", err, format.ErrorCode(err))
				}
				outputs = append(outputs, out)
			}

			if formatter.Mode() == format.ModeJSON {
				if len(outputs) == 1 {
					return formatter.PrintJSON(outputs[0])
				}
				return formatter.PrintJSON(outputs)
			}

			for i, out := range outputs {
				if i > 0 {
					if err := formatter.PrintSummary(""); err != nil {
						return err
					}
				}
				headers, rows := resultTable(out)
				if err := formatter.PrintTable(headers, rows); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table | json")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&explain, "explain", false, "Report the rule that matched in each category")
	config.BindParserFlags(cmd.Flags())

	return cmd
}

func newCLIParser(cfg config.Config) (*uaparser.Parser, func(), error) {
	telemetry, err := uaparser.NewTelemetryWriter(cfg.Telemetry.File)
	if err != nil {
		return nil, nil, err
	}
	parser, err := bind.NewParser(cfg, bind.ParserDeps{Logger: log.Logger, Telemetry: telemetry})
	if err != nil {
		_ = telemetry.Close()
		return nil, nil, err
	}
	return parser, func() { _ = telemetry.Close() }, nil
}

func parseOne(ctx context.Context, parser *uaparser.Parser, ua string, explain bool) (parseOutput, error) {
	if !explain {
		res, err := parser.ParseContext(ctx, ua)
		return parseOutput{Result: res}, err
	}
	res, trace, err := parser.Explain(ctx, ua)
	if err != nil {
		return parseOutput{Result: res}, err
	}
	return parseOutput{Result: res, Trace: &trace}, nil
}

func resultTable(out parseOutput) ([]string, [][]string) {
	res := out.Result
	rule := func(c uaparser.Category) string {
		if out.Trace == nil {
			return ""
		}
		hit := out.Trace.Hit(c)
		if !hit.Matched() {
			return "default"
		}
		return "#" + strconv.Itoa(hit.Index)
	}
	field := func(f uaparser.Field) string {
		return f.Or("-")
	}

	rows := [][]string{
		{"ua", "family", res.UserAgent.Family, rule(uaparser.CategoryUserAgent)},
		{"ua", "version", orDash(res.UserAgent.ToVersionString()), ""},
		{"os", "family", res.OS.Family, rule(uaparser.CategoryOS)},
		{"os", "version", orDash(res.OS.ToVersionString()), ""},
		{"device", "family", res.Device.Family, rule(uaparser.CategoryDevice)},
		{"device", "brand", field(res.Device.Brand), ""},
		{"device", "model", field(res.Device.Model), ""},
	}
	if out.Trace == nil {
		for i := range rows {
			rows[i] = rows[i][:3]
		}
		return []string{"category", "field", "value"}, rows
	}
	return []string{"category", "field", "value", "rule"}, rows
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
