package v1

import (
	"net/http"

	"github.com/vulntor/uaparser/pkg/server/api"
)

// ReadyzHandler returns 200 once the server has marked itself ready and a
// parser is wired, 503 otherwise. Unlike /healthz (liveness) it reports
// the size of the active rule set.
func ReadyzHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready == nil || !deps.Ready.Load() || deps.Parser == nil {
			api.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not ready"})
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{
			"status": "ready",
			"rules":  deps.Parser.RuleSet().Total(),
		})
	}
}
