package bind

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/vulntor/uaparser/pkg/config"
	"github.com/vulntor/uaparser/pkg/regexengine"
	"github.com/vulntor/uaparser/pkg/regexsafe"
	"github.com/vulntor/uaparser/pkg/uaparser"
)

// CompileOptions translates the rules section of cfg into compile options.
func CompileOptions(cfg config.Config) ([]uaparser.CompileOption, error) {
	engine, err := regexengine.Lookup(cfg.Rules.Engine)
	if err != nil {
		return nil, err
	}
	return []uaparser.CompileOption{
		uaparser.WithEngine(engine),
		uaparser.WithPatternValidator(regexsafe.NewValidator(regexsafe.WithMaxRepetitions(cfg.Rules.MaxRepetitions))),
	}, nil
}

// LoadRules resolves the active rule set for cfg: rules.file, then the
// catalog synced into rules.cache_dir, then the embedded rules.
func LoadRules(cfg config.Config) (*uaparser.RuleSet, error) {
	opts, err := CompileOptions(cfg)
	if err != nil {
		return nil, err
	}
	return uaparser.LoadCatalog(cfg.Rules.File, cfg.Rules.CacheDir, opts...)
}

// ParserDeps are the optional collaborators of a parser built from config.
type ParserDeps struct {
	Logger     zerolog.Logger
	Registerer prometheus.Registerer
	Telemetry  *uaparser.TelemetryWriter
}

// ParserOptions translates the parser section of cfg into parser options.
func ParserOptions(cfg config.Config, deps ParserDeps) []uaparser.Option {
	opts := []uaparser.Option{
		uaparser.WithBudget(cfg.Parser.Budget),
		uaparser.WithParallel(cfg.Parser.Parallel),
		uaparser.WithMaxInputLength(cfg.Parser.MaxInputLength),
		uaparser.WithLogger(deps.Logger),
	}
	if deps.Registerer != nil {
		opts = append(opts, uaparser.WithMetrics(uaparser.NewMetrics(deps.Registerer)))
	}
	if deps.Telemetry != nil {
		opts = append(opts, uaparser.WithTelemetry(deps.Telemetry))
	}
	return opts
}

// NewParser loads the configured rules and builds a parser over them.
func NewParser(cfg config.Config, deps ParserDeps) (*uaparser.Parser, error) {
	rs, err := LoadRules(cfg)
	if err != nil {
		return nil, err
	}
	return uaparser.New(rs, ParserOptions(cfg, deps)...), nil
}
