package config

import (
	"time"

	"github.com/spf13/pflag"
)

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            "127.0.0.1",
		Port:            8080,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		MetricsEnabled:  true,
	}
}

// BindServerFlags binds server-specific flags to the provided FlagSet.
//
// Flags are namespaced under 'server.' so they map directly onto config
// keys. Example: --server.addr, --server.port
func BindServerFlags(flags *pflag.FlagSet) {
	defaults := DefaultServerConfig()

	flags.String("server.addr", defaults.Addr, "Server listen address (use 0.0.0.0 for all interfaces)")
	flags.Int("server.port", defaults.Port, "Server listen port")
	flags.Duration("server.read_timeout", defaults.ReadTimeout, "HTTP read timeout")
	flags.Duration("server.write_timeout", defaults.WriteTimeout, "HTTP write timeout")
	flags.Duration("server.shutdown_timeout", defaults.ShutdownTimeout, "Graceful shutdown timeout")
	flags.Bool("server.metrics_enabled", defaults.MetricsEnabled, "Expose Prometheus metrics on /metrics")
	flags.Bool("rules.watch", false, "Reload the rule file when it changes")
	flags.String("telemetry.file", "", "Append classification events to this JSONL file")
}
