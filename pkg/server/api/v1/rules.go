package v1

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vulntor/uaparser/pkg/server/api"
)

// RulesHandler handles GET /api/v1/rules
//
// Returns the active rule set's source, version, engine and per-category
// counts.
func RulesHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, http.StatusOK, api.NewRulesInfo(deps.Parser.RuleSet()))
	}
}

// ReloadRulesHandler handles POST /api/v1/rules/reload
//
// Loads the configured rule source and swaps it in. An invalid source
// leaves the active rule set untouched and returns 422.
func ReloadRulesHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Reload == nil {
			api.WriteJSONError(w, http.StatusNotImplemented, "Not Implemented", "rule reload is not configured")
			return
		}

		rs, err := deps.Reload(r.Context())
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		log.Info().
			Str("component", "api").
			Str("source", rs.Source()).
			Int("rules", rs.Total()).
			Msg("Rules reloaded via API")
		api.WriteJSON(w, http.StatusOK, api.NewRulesInfo(rs))
	}
}
