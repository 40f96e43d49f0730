// pkg/logging/logging.go
package logging

import (
	"fmt"
	"io"
	stdLog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vulntor/uaparser/pkg/config"
)

var (
	mu sync.Mutex
	// logWriter stores the current log writer globally
	logWriter io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
)

// stdLogWriter reformats stdlib log output (e.g. net/http server errors)
// into zerolog events.
type stdLogWriter struct {
	logger zerolog.Logger
}

func (w *stdLogWriter) Write(p []byte) (n int, err error) {
	message := strings.TrimSuffix(string(p), "\n")
	w.logger.Debug().Str("source", "stdlog").Msg(message)
	return len(p), nil
}

func init() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
}

// Configure applies cfg to the global logger: level, console or JSON
// output, optional log file and caller info at debug. The returned closer
// releases the log file and is never nil.
func Configure(cfg config.LogConfig) (io.Closer, error) {
	level := parseLogLevel(cfg.Level)

	var w io.Writer
	switch strings.ToLower(cfg.Format) {
	case "json":
		w = os.Stderr
	case "", "text":
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339, NoColor: cfg.NoColor}
	default:
		return nopCloser{}, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nopCloser{}, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closer = f
	}

	SetLogWriter(w)
	ConfigureGlobal(level)
	return closer, nil
}

// ConfigureGlobal sets the global level and rebuilds log.Logger on the
// current writer.
func ConfigureGlobal(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)

	logContext := zerolog.New(getLogWriter()).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	stdLog.SetFlags(0)
	stdLog.SetOutput(&stdLogWriter{logger: WithLevelOverride(log.Logger, zerolog.DebugLevel)})
}

// NewLogger returns a logger on the current writer tagged with component.
func NewLogger(component string, level zerolog.Level) zerolog.Logger {
	return NewLoggerWithWriter(component, level, getLogWriter())
}

// NewLoggerWithWriter returns a logger on w tagged with component.
func NewLoggerWithWriter(component string, level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Str("component", component).Logger()
}

// parseLogLevel converts a string log level to zerolog.Level
func parseLogLevel(levelString string) zerolog.Level {
	if levelString == "" {
		levelString = "info"
	}

	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil {
		log.Error().Err(err).
			Str("logLevel", levelString).
			Msg("Invalid log level provided. Defaulting to info level.")
		return zerolog.InfoLevel
	}
	return level
}

func getLogWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return logWriter
}

// SetLogWriter sets the global log writer
func SetLogWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logWriter = w
}

// LevelOverrideHook upgrades NoLevel events and drops events when the
// logger's minimum severity is above the target level.
type LevelOverrideHook struct {
	minSeverity zerolog.Level
	targetLevel zerolog.Level
}

// NewLevelOverrideHook creates a new LevelOverrideHook instance.
func NewLevelOverrideHook(minSeverity, targetLevel zerolog.Level) *LevelOverrideHook {
	return &LevelOverrideHook{
		minSeverity: minSeverity,
		targetLevel: targetLevel,
	}
}

// Run implements zerolog.Hook.
func (h LevelOverrideHook) Run(e *zerolog.Event, currentLevel zerolog.Level, _ string) {
	if h.minSeverity > h.targetLevel {
		e.Discard()
		return
	}
	if currentLevel == zerolog.NoLevel {
		e.Str("level", h.targetLevel.String())
	}
}

// WithLevelOverride configures a logger to handle NoLevel events and level filtering.
func WithLevelOverride(logger zerolog.Logger, targetLevel zerolog.Level) zerolog.Logger {
	return logger.Hook(NewLevelOverrideHook(logger.GetLevel(), targetLevel))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
