package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vulntor/uaparser/pkg/uaparser"
)

// ErrorResponse represents a standard JSON error response.
//
// Example:
//
//	{
//	  "error": "Unprocessable Entity",
//	  "code": "PATTERN_UNSAFE",
//	  "message": "rule 3 in os_parsers: unsafe pattern: lookahead at offset 4"
//	}
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteError writes a JSON error response whose status follows
// uaparser.HTTPStatus, and logs it.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := uaparser.HTTPStatus(err)
	code := uaparser.ErrorCode(err)

	logEvent := log.Error()
	if statusCode < http.StatusInternalServerError {
		logEvent = log.Warn()
	}
	logEvent.
		Str("component", "api").
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("code", code).
		Int("status", statusCode).
		Err(err).
		Msg("Request failed")

	writeErrorResponse(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    code,
		Message: err.Error(),
	})
}

// WriteJSONError writes a custom JSON error response with a specific status code.
//
// Example:
//
//	WriteJSONError(w, http.StatusBadRequest, "Invalid Input", "user_agents is required")
func WriteJSONError(w http.ResponseWriter, statusCode int, errorType, message string) {
	writeErrorResponse(w, statusCode, ErrorResponse{Error: errorType, Message: message})
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, response ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().
			Str("component", "api").
			Err(err).
			Msg("Failed to encode error response")
	}
}

// WriteJSON writes a JSON response to the client.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Str("component", "api").
			Err(err).
			Msg("Failed to encode JSON response")
	}
}
