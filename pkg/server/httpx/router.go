package httpx

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vulntor/uaparser/pkg/config"
	"github.com/vulntor/uaparser/pkg/server/api"
	v1 "github.com/vulntor/uaparser/pkg/server/api/v1"
)

// NewRouter creates and configures the main HTTP router.
//
// Health and API endpoints are always mounted; /metrics is mounted when
// cfg.MetricsEnabled and gatherer is non-nil.
func NewRouter(cfg config.ServerConfig, deps *api.Deps, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", HealthzHandler)
	mux.HandleFunc("GET /readyz", v1.ReadyzHandler(deps))

	mux.HandleFunc("GET /api/v1/parse", v1.ParseHandler(deps))
	mux.HandleFunc("POST /api/v1/parse", v1.ParseBatchHandler(deps))
	mux.HandleFunc("GET /api/v1/rules", v1.RulesHandler(deps))
	mux.HandleFunc("POST /api/v1/rules/reload", v1.ReloadRulesHandler(deps))

	if cfg.MetricsEnabled && gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

// HealthzHandler responds with 200 OK if the server process is alive.
func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
