package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/uaparser/pkg/config"
	"github.com/vulntor/uaparser/pkg/server/api"
	"github.com/vulntor/uaparser/pkg/uaparser"
)

func newTestRouter(t *testing.T, cfg config.ServerConfig) (*http.ServeMux, *api.Deps) {
	t.Helper()
	reg := prometheus.NewRegistry()
	rs, err := uaparser.Default()
	require.NoError(t, err)
	deps := &api.Deps{
		Parser: uaparser.New(rs, uaparser.WithMetrics(uaparser.NewMetrics(reg))),
		Ready:  &atomic.Bool{},
		Config: api.DefaultConfig(),
	}
	return NewRouter(cfg, deps, reg), deps
}

func TestNewRouter_HealthzMounted(t *testing.T) {
	router, _ := newTestRouter(t, config.DefaultServerConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())
}

func TestNewRouter_Readyz(t *testing.T) {
	router, deps := newTestRouter(t, config.DefaultServerConfig())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	deps.Ready.Store(true)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestNewRouter_APIRoutes(t *testing.T) {
	router, _ := newTestRouter(t, config.DefaultServerConfig())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/parse?ua=curl%2F7.64.1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"family":"curl"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/parse", strings.NewReader(`{"user_agents":["curl/7.64.1"]}`)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/rules", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestNewRouter_Metrics(t *testing.T) {
	router, _ := newTestRouter(t, config.DefaultServerConfig())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/parse?ua=x", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "uaparser_parser_parses_total")
	require.Contains(t, w.Body.String(), "uaparser_rules_active")
}

func TestNewRouter_MetricsDisabled(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.MetricsEnabled = false
	router, _ := newTestRouter(t, cfg)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthzHandler_AlwaysReturnsOK(t *testing.T) {
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()

		HealthzHandler(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "OK", w.Body.String())
	}
}
