package uaparser

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cast"
)

// ConformanceThresholds are the pass/fail criteria of a conformance run.
type ConformanceThresholds struct {
	MinPassRate  float64       `json:"min_pass_rate"`   // share of evaluated cases that must pass
	MaxAvgCaseMs float64       `json:"max_avg_case_ms"` // average wall time per case
	CaseBound    time.Duration `json:"case_bound"`      // hard per-case bound
}

// DefaultConformanceThresholds requires every case to pass.
func DefaultConformanceThresholds() ConformanceThresholds {
	return ConformanceThresholds{
		MinPassRate:  1.0,
		MaxAvgCaseMs: 5.0,
		CaseBound:    DefaultCaseBound,
	}
}

// RelaxedConformanceThresholds tolerates a few mismatches, for catalogs under
// development.
func RelaxedConformanceThresholds() ConformanceThresholds {
	return ConformanceThresholds{
		MinPassRate:  0.95,
		MaxAvgCaseMs: 20.0,
		CaseBound:    DefaultCaseBound,
	}
}

func loadRateEnv(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := cast.ToFloat64E(val)
	if err != nil || f < 0 || f > 1 {
		return defaultVal
	}
	return f
}

func loadPositiveFloatEnv(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := cast.ToFloat64E(val)
	if err != nil || f <= 0 {
		return defaultVal
	}
	return f
}

func loadDurationEnv(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := cast.ToDurationE(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// LoadConformanceThresholdsFromEnv overrides the defaults with:
//   - UAPARSER_CONFORMANCE_MIN_PASS_RATE (0.0-1.0)
//   - UAPARSER_CONFORMANCE_MAX_AVG_CASE_MS (float)
//   - UAPARSER_CONFORMANCE_CASE_BOUND (duration, e.g. 500ms)
//
// Invalid values are ignored.
func LoadConformanceThresholdsFromEnv() ConformanceThresholds {
	defaults := DefaultConformanceThresholds()
	return ConformanceThresholds{
		MinPassRate:  loadRateEnv("UAPARSER_CONFORMANCE_MIN_PASS_RATE", defaults.MinPassRate),
		MaxAvgCaseMs: loadPositiveFloatEnv("UAPARSER_CONFORMANCE_MAX_AVG_CASE_MS", defaults.MaxAvgCaseMs),
		CaseBound:    loadDurationEnv("UAPARSER_CONFORMANCE_CASE_BOUND", defaults.CaseBound),
	}
}

// ToJSON exports the thresholds as formatted JSON.
func (t *ConformanceThresholds) ToJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}
