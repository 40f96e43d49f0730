package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/vulntor/uaparser/pkg/uaparser"
)

// Deps holds dependencies for the server application.
// This pattern enables dependency injection and easier testing.
type Deps struct {
	// Parser serves every classification request.
	Parser *uaparser.Parser

	// Reload loads the configured rule source into Parser. It backs
	// POST /api/v1/rules/reload and SIGHUP; nil disables both.
	Reload func(ctx context.Context) (*uaparser.RuleSet, error)

	// Watcher, when set, is started with the server and closed on shutdown.
	Watcher *uaparser.RuleWatcher

	// Gatherer exposes metrics on /metrics when enabled.
	Gatherer prometheus.Gatherer

	// Logger for structured logging (injected by caller)
	Logger zerolog.Logger
}
