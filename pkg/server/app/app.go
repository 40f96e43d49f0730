package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vulntor/uaparser/pkg/config"
	"github.com/vulntor/uaparser/pkg/server"
	"github.com/vulntor/uaparser/pkg/server/api"
	"github.com/vulntor/uaparser/pkg/server/httpx"
)

const defaultShutdownTimeout = 15 * time.Second

// App orchestrates the server runtime components:
// - HTTP server (API, health, metrics)
// - Rule file watcher and SIGHUP reload
// - Lifecycle management
type App struct {
	HTTP   *http.Server
	Ready  *atomic.Bool
	Config config.ServerConfig
	Deps   *Deps

	mu   sync.Mutex
	addr net.Addr
}

// New creates and configures a new server application.
func New(_ context.Context, cfg config.ServerConfig, deps *Deps) (*App, error) {
	if deps == nil || deps.Parser == nil {
		return nil, server.WrapAppInit(errors.New("parser is required"))
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, server.NewInvalidPortError(cfg.Port)
	}
	deps.Logger.Info().Msg("Initializing server application")

	ready := &atomic.Bool{}
	apiDeps := &api.Deps{
		Parser: deps.Parser,
		Reload: deps.Reload,
		Ready:  ready,
		Config: api.DefaultConfig(),
	}

	router := httpx.NewRouter(cfg, apiDeps, deps.Gatherer)
	if cfg.MetricsEnabled && deps.Gatherer == nil {
		deps.Logger.Warn().Msg("Metrics enabled but no registry provided; /metrics not mounted")
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port),
		Handler:      httpx.Chain(router),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		HTTP:   httpServer,
		Ready:  ready,
		Config: cfg,
		Deps:   deps,
	}, nil
}

// Addr returns the bound listen address once Run has started listening.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Run starts the server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.HTTP.Addr)
	if err != nil {
		return server.WrapRuntime(fmt.Errorf("listen %s: %w", a.HTTP.Addr, err))
	}
	a.mu.Lock()
	a.addr = ln.Addr()
	a.mu.Unlock()

	rs := a.Deps.Parser.RuleSet()
	a.Deps.Logger.Info().
		Str("addr", ln.Addr().String()).
		Str("rules_source", rs.Source()).
		Int("rules", rs.Total()).
		Bool("metrics", a.Config.MetricsEnabled).
		Bool("watch", a.Deps.Watcher != nil).
		Msg("Starting uaparser server")

	serverErr := make(chan error, 1)
	go func() {
		if err := a.HTTP.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	if a.Deps.Watcher != nil {
		if err := a.Deps.Watcher.Start(runCtx); err != nil {
			_ = a.HTTP.Close()
			return server.WrapRuntime(fmt.Errorf("start rule watcher: %w", err))
		}
	}
	a.listenSignals(runCtx)

	a.Ready.Store(true)
	a.Deps.Logger.Info().Msg("Server is ready and accepting connections")

	select {
	case <-ctx.Done():
		a.Deps.Logger.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		a.Deps.Logger.Error().Err(err).Msg("Server error")
		a.Ready.Store(false)
		a.closeWatcher()
		return server.WrapRuntime(err)
	}

	return a.shutdown()
}

// reload runs Deps.Reload and logs the outcome. The active rule set is
// kept when it fails.
func (a *App) reload(ctx context.Context, trigger string) {
	if a.Deps.Reload == nil {
		a.Deps.Logger.Warn().Str("trigger", trigger).Msg("Rule reload requested but no reload source is configured")
		return
	}
	rs, err := a.Deps.Reload(ctx)
	if err != nil {
		a.Deps.Logger.Error().Err(err).Str("trigger", trigger).Msg("Rule reload failed; keeping active rule set")
		return
	}
	a.Deps.Logger.Info().Str("trigger", trigger).Str("source", rs.Source()).Int("rules", rs.Total()).Msg("Rules reloaded")
}

func (a *App) closeWatcher() {
	if a.Deps.Watcher == nil {
		return
	}
	if err := a.Deps.Watcher.Close(); err != nil {
		a.Deps.Logger.Warn().Err(err).Msg("Rule watcher close failed")
	}
}

// shutdown performs graceful shutdown of all components.
func (a *App) shutdown() error {
	a.Deps.Logger.Info().Msg("Initiating graceful shutdown")

	timeout := a.Config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.Ready.Store(false)
	a.closeWatcher()

	a.Deps.Logger.Info().Msg("Shutting down HTTP server...")
	if err := a.HTTP.Shutdown(shutdownCtx); err != nil {
		a.Deps.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
		return server.WrapRuntime(err)
	}

	a.Deps.Logger.Info().Msg("Server shutdown complete")
	return nil
}
