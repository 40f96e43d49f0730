// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by EnvSource.
const EnvPrefix = "UAPARSER_"

var validate = validator.New()

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a new Manager with an empty koanf instance.
func NewManager() *Manager {
	return &Manager{
		koanfInstance: koanf.New("."),
		currentConfig: DefaultConfig(),
	}
}

// DefaultConfig returns a new Config struct populated with hardcoded default values.
// These serve as the baseline configuration if no other sources override them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Rules: RulesConfig{
			Engine:         "stdlib",
			MaxRepetitions: 25,
		},
		Server: DefaultServerConfig(),
	}
}

// Load loads configuration from the default sources (defaults, file, env,
// flags) and populates the manager's current config.
func (m *Manager) Load(flags *pflag.FlagSet, customConfigFilePath string) error {
	debug := false
	if flags != nil {
		if f := flags.Lookup("debug"); f != nil && f.Value.String() == "true" {
			debug = true
		}
	}
	return m.LoadSources(DefaultSources(customConfigFilePath, flags, debug)...)
}

// LoadSources loads sources in priority order, unmarshals and validates the
// merged result. On error the previous configuration stays current.
func (m *Manager) LoadSources(sources ...ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sorted := make([]ConfigSource, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})

	k := koanf.New(".")
	for _, src := range sorted {
		if err := src.Load(k); err != nil {
			return fmt.Errorf("config source %s: %w", src.Name(), err)
		}
	}

	var newCfg Config
	if err := k.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	postProcessConfig(&newCfg)

	if err := Validate(newCfg); err != nil {
		return err
	}

	m.koanfInstance = k
	m.currentConfig = newCfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// Koanf exposes the merged key space, e.g. for 'config show' style output.
func (m *Manager) Koanf() *koanf.Koanf {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.koanfInstance
}

// postProcessConfig normalizes values after unmarshaling.
func postProcessConfig(cfg *Config) {
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	cfg.Rules.Engine = strings.ToLower(strings.TrimSpace(cfg.Rules.Engine))
}

// Validate checks cfg against its struct constraints.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", configKey(fe.Namespace()), fe.Tag(), fe.Param(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// configKey turns a validator namespace ("Config.Server.Port") into the
// matching config key ("server.port").
func configKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = toSnake(p)
	}
	return strings.Join(parts, ".")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DefaultConfigAsMap converts the DefaultConfig struct to a map for koanf's
// confmap.Provider so every key exists before flags are applied.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level":    def.Log.Level,
		"log.format":   def.Log.Format,
		"log.file":     def.Log.File,
		"log.no_color": def.Log.NoColor,

		"rules.file":            def.Rules.File,
		"rules.cache_dir":       def.Rules.CacheDir,
		"rules.engine":          def.Rules.Engine,
		"rules.watch":           def.Rules.Watch,
		"rules.max_repetitions": def.Rules.MaxRepetitions,

		"parser.budget":           def.Parser.Budget,
		"parser.parallel":         def.Parser.Parallel,
		"parser.max_input_length": def.Parser.MaxInputLength,

		"server.addr":             def.Server.Addr,
		"server.port":             def.Server.Port,
		"server.read_timeout":     def.Server.ReadTimeout,
		"server.write_timeout":    def.Server.WriteTimeout,
		"server.shutdown_timeout": def.Server.ShutdownTimeout,
		"server.metrics_enabled":  def.Server.MetricsEnabled,

		"telemetry.file": def.Telemetry.File,
	}
}

// flagAliases maps short global flag names onto config keys.
var flagAliases = map[string]string{
	"rules":  "rules.file",
	"engine": "rules.engine",
}

// BindFlags defines the global flags that override configuration.
func BindFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig()

	flags.Bool("debug", false, "Enable debug logging")
	flags.String("rules", "", "Rule specification file (default: synced catalog, then embedded)")
	flags.String("engine", defaults.Rules.Engine, "Regex engine: stdlib | re2")
}

// BindParserFlags binds classifier tuning flags.
func BindParserFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig()

	flags.Duration("parser.budget", defaults.Parser.Budget, "Wall-time bound per parse (0 disables)")
	flags.Bool("parser.parallel", defaults.Parser.Parallel, "Classify categories concurrently")
	flags.Int("parser.max_input_length", defaults.Parser.MaxInputLength, "Truncate inputs longer than this many bytes (0 disables)")
	flags.String("rules.cache_dir", defaults.Rules.CacheDir, "Directory holding the synced catalog")
	flags.Int("rules.max_repetitions", defaults.Rules.MaxRepetitions, "Repetition operators allowed per pattern (0 disables)")
}
