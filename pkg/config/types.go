// pkg/config/types.go
package config

import "time"

// Config is the root configuration structure for uaparser.
type Config struct {
	Log       LogConfig       `description:"Logging configuration" koanf:"log"`
	Rules     RulesConfig     `description:"Rule specification configuration" koanf:"rules"`
	Parser    ParserConfig    `description:"Classifier configuration" koanf:"parser"`
	Server    ServerConfig    `description:"HTTP server configuration" koanf:"server"`
	Telemetry TelemetryConfig `description:"Telemetry configuration" koanf:"telemetry"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level   string `description:"Log level: debug | info | warn | error" koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format  string `description:"Log format: json | text" koanf:"format" validate:"oneof=json text"`
	File    string `description:"Log file path" koanf:"file"`
	NoColor bool   `description:"Disable colored console output" koanf:"no_color"`
}

// RulesConfig selects and loads the rule specification.
type RulesConfig struct {
	// File is an explicit specification path. Empty uses the synced catalog
	// in CacheDir, then the embedded specification.
	File           string `description:"Rule specification file (regexes.yaml layout)" koanf:"file"`
	CacheDir       string `description:"Directory holding the synced catalog" koanf:"cache_dir"`
	Engine         string `description:"Regex engine: stdlib | re2" koanf:"engine" validate:"oneof=stdlib re2"`
	Watch          bool   `description:"Reload the rule file when it changes (serve only)" koanf:"watch"`
	MaxRepetitions int    `description:"Repetition operators allowed per pattern (0 disables the limit)" koanf:"max_repetitions" validate:"min=0"`
}

// ParserConfig tunes classification.
type ParserConfig struct {
	Budget         time.Duration `description:"Wall-time bound per parse (0 disables)" koanf:"budget" validate:"min=0"`
	Parallel       bool          `description:"Classify categories concurrently" koanf:"parallel"`
	MaxInputLength int           `description:"Truncate inputs longer than this many bytes (0 disables)" koanf:"max_input_length" validate:"min=0"`
}

// ServerConfig holds configuration for 'uaparser serve'.
type ServerConfig struct {
	Addr string `description:"Server listen address" koanf:"addr"`
	Port int    `description:"Server listen port" koanf:"port" validate:"min=1,max=65535"`

	ReadTimeout     time.Duration `description:"HTTP read timeout" koanf:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `description:"HTTP write timeout" koanf:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `description:"Graceful shutdown timeout" koanf:"shutdown_timeout" validate:"min=0"`

	MetricsEnabled bool `description:"Expose Prometheus metrics on /metrics" koanf:"metrics_enabled"`
}

// TelemetryConfig controls the classification event log.
type TelemetryConfig struct {
	File string `description:"JSONL telemetry file (empty disables)" koanf:"file"`
}
