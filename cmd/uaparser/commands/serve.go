package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vulntor/uaparser/cmd/uaparser/internal/bind"
	"github.com/vulntor/uaparser/cmd/uaparser/internal/format"
	"github.com/vulntor/uaparser/pkg/appctx"
	"github.com/vulntor/uaparser/pkg/config"
	"github.com/vulntor/uaparser/pkg/logging"
	"github.com/vulntor/uaparser/pkg/server"
	"github.com/vulntor/uaparser/pkg/server/app"
	"github.com/vulntor/uaparser/pkg/uaparser"
)

// NewServeCommand returns the 'uaparser serve' command.
//
// The server hosts the classification API, health endpoints and Prometheus
// metrics in one process, and reloads rules on SIGHUP, on POST
// /api/v1/rules/reload and, with --rules.watch, when the rule file changes.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the classification HTTP server",
		Long: `Start the uaparser HTTP server.

Endpoints:
  GET  /healthz, /readyz
  GET  /api/v1/parse?ua=...      classify one string (defaults to the caller's User-Agent)
  POST /api/v1/parse             classify {"user_agents": [...]}
  GET  /api/v1/rules             describe the active rule set
  POST /api/v1/rules/reload      reload rules from the configured source
  GET  /metrics                  Prometheus metrics

The server runs until interrupted and drains in-flight requests on shutdown.`,
		Example: `  uaparser serve
  uaparser serve --server.addr 0.0.0.0 --server.port 8080 --rules ./regexes.yaml --rules.watch`,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter := format.FromCommand(cmd)
			cfg := appctx.ConfigOrDefault(cmd.Context())

			if err := runServer(cmd.Context(), cfg); err != nil {
				return formatter.PrintTotalFailureSummary("start server", err, format.ErrorCode(err))
			}
			return nil
		},
	}

	config.BindServerFlags(cmd.Flags())
	config.BindParserFlags(cmd.Flags())

	return cmd
}

func runServer(parent context.Context, cfg config.Config) error {
	logger := logging.NewLogger("server", zerolog.GlobalLevel())

	var (
		registry   *prometheus.Registry
		registerer prometheus.Registerer
	)
	if cfg.Server.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registerer = registry
	}

	telemetry, err := uaparser.NewTelemetryWriter(cfg.Telemetry.File)
	if err != nil {
		return server.WrapAppInit(err)
	}
	defer func() {
		if err := telemetry.Close(); err != nil {
			logger.Warn().Err(err).Msg("Telemetry close failed")
		}
	}()

	parser, err := bind.NewParser(cfg, bind.ParserDeps{Logger: logger, Registerer: registerer, Telemetry: telemetry})
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	deps := &app.Deps{
		Parser: parser,
		Reload: func(context.Context) (*uaparser.RuleSet, error) {
			rs, err := bind.LoadRules(cfg)
			if err != nil {
				return nil, err
			}
			return rs, parser.Reload(rs)
		},
		Logger: logger,
	}
	if registry != nil {
		deps.Gatherer = registry
	}

	if cfg.Rules.Watch {
		watcher, err := newRuleWatcher(cfg, parser, logger)
		if err != nil {
			return server.WrapAppInit(err)
		}
		deps.Watcher = watcher
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := app.New(ctx, cfg.Server, deps)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func newRuleWatcher(cfg config.Config, parser *uaparser.Parser, logger zerolog.Logger) (*uaparser.RuleWatcher, error) {
	if cfg.Rules.File == "" {
		logger.Warn().Msg("rules.watch is set but no rules file is configured; watching disabled")
		return nil, nil
	}
	opts, err := bind.CompileOptions(cfg)
	if err != nil {
		return nil, err
	}
	return uaparser.NewRuleWatcher(parser, cfg.Rules.File, logger, uaparser.WithCompileOptions(opts...))
}
