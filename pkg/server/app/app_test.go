package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/uaparser/pkg/config"
	"github.com/vulntor/uaparser/pkg/server"
	"github.com/vulntor/uaparser/pkg/uaparser"
)

func testParser(t *testing.T) *uaparser.Parser {
	t.Helper()
	rs, err := uaparser.Default()
	require.NoError(t, err)
	return uaparser.New(rs)
}

func testConfig() config.ServerConfig {
	cfg := config.DefaultServerConfig()
	cfg.Port = 0
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

func TestNew(t *testing.T) {
	cfg := testConfig()
	cfg.Port = 9999

	app, err := New(context.Background(), cfg, &Deps{Parser: testParser(t), Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.NotNil(t, app.HTTP)
	require.Equal(t, "127.0.0.1:9999", app.HTTP.Addr)
	require.False(t, app.Ready.Load())
	require.Nil(t, app.Addr())
}

func TestNew_RequiresParser(t *testing.T) {
	_, err := New(context.Background(), testConfig(), &Deps{Logger: zerolog.Nop()})
	require.Error(t, err)
	require.Equal(t, "SERVER_INIT_FAILED", server.ErrorCode(err))

	_, err = New(context.Background(), testConfig(), nil)
	require.Error(t, err)
}

func TestNew_InvalidPort(t *testing.T) {
	cfg := testConfig()
	cfg.Port = 70000

	_, err := New(context.Background(), cfg, &Deps{Parser: testParser(t), Logger: zerolog.Nop()})
	require.ErrorIs(t, err, server.ErrInvalidPort)
}

func startApp(t *testing.T, app *App) (string, func() error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, app.Ready.Load, 2*time.Second, 10*time.Millisecond)
	base := fmt.Sprintf("http://%s", app.Addr().String())

	return base, func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			return errors.New("server did not stop")
		}
	}
}

func TestRun_ServesAndShutsDown(t *testing.T) {
	reg := prometheus.NewRegistry()
	parser := uaparser.New(mustDefault(t), uaparser.WithMetrics(uaparser.NewMetrics(reg)))

	app, err := New(context.Background(), testConfig(), &Deps{
		Parser:   parser,
		Gatherer: reg,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	base, stop := startApp(t, app)

	resp, err := http.Get(base + "/readyz")
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ready", body["status"])

	req, err := http.NewRequest(http.MethodGet, base+"/api/v1/parse", nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/91.0.4472.124 Safari/537.36")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var parsed uaparser.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	_ = resp.Body.Close()
	require.Equal(t, "Chrome", parsed.UserAgent.Family)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, stop())
	require.False(t, app.Ready.Load())
}

func TestRun_ListenError(t *testing.T) {
	first, err := New(context.Background(), testConfig(), &Deps{Parser: testParser(t), Logger: zerolog.Nop()})
	require.NoError(t, err)
	_, stop := startApp(t, first)
	defer func() { require.NoError(t, stop()) }()

	cfg := testConfig()
	second, err := New(context.Background(), cfg, &Deps{Parser: testParser(t), Logger: zerolog.Nop()})
	require.NoError(t, err)
	second.HTTP.Addr = first.Addr().String()

	err = second.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, "SERVER_RUNTIME_FAILED", server.ErrorCode(err))
}

func TestReload(t *testing.T) {
	parser := testParser(t)
	var calls atomic.Int32

	app, err := New(context.Background(), testConfig(), &Deps{
		Parser: parser,
		Reload: func(context.Context) (*uaparser.RuleSet, error) {
			if calls.Add(1) > 1 {
				return nil, errors.New("broken catalog")
			}
			rs := mustDefault(t)
			return rs, parser.Reload(rs)
		},
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)

	before := parser.RuleSet()
	app.reload(context.Background(), "test")
	require.Equal(t, int32(1), calls.Load())
	after := parser.RuleSet()

	app.reload(context.Background(), "test")
	require.Equal(t, int32(2), calls.Load())
	require.Same(t, after, parser.RuleSet())
	require.Equal(t, before.Total(), after.Total())
}

func TestReload_NoSource(t *testing.T) {
	parser := testParser(t)
	app, err := New(context.Background(), testConfig(), &Deps{Parser: parser, Logger: zerolog.Nop()})
	require.NoError(t, err)

	rs := parser.RuleSet()
	app.reload(context.Background(), "test")
	require.Same(t, rs, parser.RuleSet())
}

func mustDefault(t *testing.T) *uaparser.RuleSet {
	t.Helper()
	rs, err := uaparser.Default()
	require.NoError(t, err)
	return rs
}
