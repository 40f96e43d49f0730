package api

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vulntor/uaparser/pkg/uaparser"
)

// Deps holds dependencies for API handlers.
// This pattern enables dependency injection and easier testing.
type Deps struct {
	// Parser classifies User-Agent strings against the active rule set.
	Parser *uaparser.Parser

	// Reload loads the configured rule source and swaps it into Parser.
	// Nil disables POST /api/v1/rules/reload.
	Reload func(ctx context.Context) (*uaparser.RuleSet, error)

	// Ready flag for readiness check
	Ready *atomic.Bool

	// Config holds handler limits.
	Config Config
}

// RulesInfo describes the active rule set.
type RulesInfo struct {
	Source   string         `json:"source"`
	Version  string         `json:"version,omitempty"`
	Engine   string         `json:"engine"`
	LoadedAt string         `json:"loaded_at"`
	Total    int            `json:"total"`
	Counts   map[string]int `json:"counts"`
}

// NewRulesInfo summarizes rs.
func NewRulesInfo(rs *uaparser.RuleSet) RulesInfo {
	counts := make(map[string]int, len(uaparser.Categories))
	for _, c := range uaparser.Categories {
		counts[c.String()] = rs.Len(c)
	}
	return RulesInfo{
		Source:   rs.Source(),
		Version:  rs.VersionString(),
		Engine:   rs.Engine(),
		LoadedAt: rs.LoadedAt().UTC().Format(time.RFC3339),
		Total:    rs.Total(),
		Counts:   counts,
	}
}
