package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

var validate = validator.New()

// maxBodyBytes bounds a batch parse request body.
const maxBodyBytes = 8 << 20

// ParseQuery represents supported query params for GET /api/v1/parse
type ParseQuery struct {
	UserAgent string
	Explain   bool
}

// ParseParseQuery parses and validates query params. A missing ua falls
// back to the request's own User-Agent header.
func ParseParseQuery(r *http.Request) (*ParseQuery, error) {
	q := r.URL.Query()
	res := ParseQuery{UserAgent: r.UserAgent()}

	if _, ok := q["ua"]; ok {
		res.UserAgent = q.Get("ua")
	}

	if v := strings.TrimSpace(q.Get("explain")); v != "" {
		explain, err := cast.ToBoolE(v)
		if err != nil {
			return nil, &ValidationError{Field: "explain", Reason: "must be a boolean"}
		}
		res.Explain = explain
	}
	return &res, nil
}

// BatchParseRequest is the body of POST /api/v1/parse.
type BatchParseRequest struct {
	UserAgents []string `json:"user_agents" validate:"required,min=1"`
	Explain    bool     `json:"explain"`
}

// ParseBatchRequest decodes and validates a batch request. maxBatch caps
// the number of user agents.
func ParseBatchRequest(r *http.Request, maxBatch int) (*BatchParseRequest, error) {
	var req BatchParseRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ValidationError{Field: "body", Reason: "required"}
		}
		return nil, &ValidationError{Field: "body", Reason: "invalid JSON: " + err.Error()}
	}

	if err := validate.Struct(req); err != nil {
		return nil, &ValidationError{Field: "user_agents", Reason: "at least one user agent is required"}
	}
	if err := validate.Var(req.UserAgents, fmt.Sprintf("max=%d", maxBatch)); err != nil {
		return nil, &ValidationError{Field: "user_agents", Reason: fmt.Sprintf("at most %d user agents per request", maxBatch)}
	}
	return &req, nil
}

// ValidationError is a lightweight error used for 400 responses.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return "validation failed"
	}
	if e.Reason == "" {
		return e.Field + ": invalid"
	}
	return e.Field + ": " + e.Reason
}
