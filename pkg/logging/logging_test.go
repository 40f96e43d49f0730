package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/uaparser/pkg/config"
)

func allowAllLevels(t *testing.T) {
	t.Helper()
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })
}

func TestNewLoggerWithWriter(t *testing.T) {
	allowAllLevels(t)
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("test", zerolog.DebugLevel, &buf)

	logger.Debug().Msg("test debug message")
	assert.Contains(t, buf.String(), "test debug message")
	assert.Contains(t, buf.String(), `"component":"test"`)
	assert.Contains(t, buf.String(), `"level":"debug"`)
}

func TestNewLoggerLevel(t *testing.T) {
	allowAllLevels(t)

	var buf bytes.Buffer
	logger := NewLoggerWithWriter("test", zerolog.InfoLevel, &buf)

	logger.Debug().Msg("debug message")
	assert.NotContains(t, buf.String(), "debug message")

	logger.Info().Msg("info message")
	assert.Contains(t, buf.String(), "info message")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, parseLogLevel(""))
	assert.Equal(t, zerolog.WarnLevel, parseLogLevel("WARN"))
	assert.Equal(t, zerolog.InfoLevel, parseLogLevel("loud"))
}

func TestConfigure_JSONFile(t *testing.T) {
	prev := getLogWriter()
	t.Cleanup(func() {
		SetLogWriter(prev)
		ConfigureGlobal(zerolog.ErrorLevel)
	})

	path := filepath.Join(t.TempDir(), "uaparser.log")
	closer, err := Configure(config.LogConfig{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	log.Info().Str("component", "test").Msg("written to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
	assert.Contains(t, string(data), `"caller"`)
}

func TestConfigure_UnknownFormat(t *testing.T) {
	closer, err := Configure(config.LogConfig{Level: "info", Format: "xml"})
	require.Error(t, err)
	require.NotNil(t, closer)
}

func TestLevelOverrideHook(t *testing.T) {
	allowAllLevels(t)
	var buf bytes.Buffer
	logger := WithLevelOverride(zerolog.New(&buf).Level(zerolog.DebugLevel), zerolog.DebugLevel)
	logger.Log().Msg("no level")
	assert.Contains(t, buf.String(), `"level":"debug"`)

	buf.Reset()
	quiet := WithLevelOverride(zerolog.New(&buf).Level(zerolog.WarnLevel), zerolog.DebugLevel)
	quiet.Log().Msg("dropped")
	assert.Empty(t, buf.String())
}
