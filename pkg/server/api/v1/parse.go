package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vulntor/uaparser/pkg/server/api"
	"github.com/vulntor/uaparser/pkg/uaparser"
)

// ParseResponse is one classification. Trace is present when explain was
// requested; Error is set when the parse fell back to defaults.
type ParseResponse struct {
	uaparser.Result
	Trace *uaparser.Trace `json:"trace,omitempty"`
	Error string          `json:"error,omitempty"`
}

// BatchParseResponse is the body returned by POST /api/v1/parse.
type BatchParseResponse struct {
	Results []ParseResponse `json:"results"`
}

// ParseHandler handles GET /api/v1/parse?ua=...&explain=true
//
// Response format:
//
//	{
//	  "string": "Mozilla/5.0 ...",
//	  "ua": {"family": "Chrome", "major": "91", "minor": "0", "patch": "4472"},
//	  "os": {"family": "Windows", "major": "10", ...},
//	  "device": {"family": "Other", "brand": null, "model": null}
//	}
func ParseHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := ParseParseQuery(r)
		if err != nil {
			api.WriteJSONError(w, http.StatusBadRequest, "Invalid Input", err.Error())
			return
		}

		ctx, cancel := handlerContext(r.Context(), deps.Config)
		defer cancel()

		res, trace, err := deps.Parser.Explain(ctx, query.UserAgent)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		out := ParseResponse{Result: res}
		if query.Explain {
			out.Trace = &trace
		}
		api.WriteJSON(w, http.StatusOK, out)
	}
}

// ParseBatchHandler handles POST /api/v1/parse with
// {"user_agents": [...], "explain": false}.
//
// Each entry is classified independently: a timeout on one entry yields
// that entry's fallback result with an error message, never a failed
// request.
func ParseBatchHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxBatch := deps.Config.MaxBatch
		if maxBatch <= 0 {
			maxBatch = api.DefaultMaxBatch
		}
		req, err := ParseBatchRequest(r, maxBatch)
		if err != nil {
			api.WriteJSONError(w, http.StatusBadRequest, "Invalid Input", err.Error())
			return
		}

		ctx, cancel := handlerContext(r.Context(), deps.Config)
		defer cancel()

		results := make([]ParseResponse, 0, len(req.UserAgents))
		for _, ua := range req.UserAgents {
			res, trace, err := deps.Parser.Explain(ctx, ua)
			item := ParseResponse{Result: res}
			if err != nil {
				if !errors.Is(err, uaparser.ErrClassificationTimeout) && ctx.Err() != nil {
					// client went away
					log.Debug().Str("component", "api").Err(err).Msg("Batch parse canceled")
					return
				}
				item.Error = err.Error()
			} else if req.Explain {
				item.Trace = &trace
			}
			results = append(results, item)
		}
		api.WriteJSON(w, http.StatusOK, BatchParseResponse{Results: results})
	}
}

// handlerContext applies the handler timeout unless ctx already carries a
// deadline.
func handlerContext(ctx context.Context, cfg api.Config) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || cfg.HandlerTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.HandlerTimeout)
}
