package uaparser

import (
	"encoding/json"
	"time"
)

// Pure metric helpers for conformance runs. Keep these side-effect free.

// CategoryMetrics aggregates the results of one category.
type CategoryMetrics struct {
	Category        string         `json:"category"`
	Total           int            `json:"total"`
	Passed          int            `json:"passed"`
	Failed          int            `json:"failed"`
	Skipped         int            `json:"skipped"`
	Errors          int            `json:"errors"`
	OverBound       int            `json:"over_bound"`
	PassRate        float64        `json:"pass_rate"`
	FieldMismatches map[string]int `json:"field_mismatches,omitempty"`
	AvgCaseMicros   int64          `json:"avg_case_micros"`
	MaxCase         time.Duration  `json:"max_case"`
}

// ConformanceMetrics aggregates a full run against thresholds.
type ConformanceMetrics struct {
	Categories []CategoryMetrics `json:"categories"`
	Total      int               `json:"total"`
	Passed     int               `json:"passed"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	PassRate   float64           `json:"pass_rate"`
	MaxCase    time.Duration     `json:"max_case"`

	AvgCaseMicros int64 `json:"avg_case_micros"`

	Thresholds      ConformanceThresholds `json:"thresholds"`
	PassPassRate    bool                  `json:"pass_pass_rate"`
	PassPerformance bool                  `json:"pass_performance"`
	PassCaseBound   bool                  `json:"pass_case_bound"`
}

// OK reports whether every threshold passed.
func (m *ConformanceMetrics) OK() bool {
	return m.PassPassRate && m.PassPerformance && m.PassCaseBound
}

// CalculatePassRate computes passed / evaluated, where skipped cases are
// not evaluated. An empty run has rate 1.
func CalculatePassRate(passed, evaluated int) float64 {
	if evaluated == 0 {
		return 1.0
	}
	return float64(passed) / float64(evaluated)
}

// CalculateConformanceMetrics aggregates per-category results.
func CalculateConformanceMetrics(results map[Category][]CaseResult, thresholds ConformanceThresholds) *ConformanceMetrics {
	m := &ConformanceMetrics{Thresholds: thresholds}
	var totalMicros int64
	var timed int
	for _, c := range Categories {
		rs, ok := results[c]
		if !ok {
			continue
		}
		cm, micros := aggregateCategory(c, rs)
		m.Categories = append(m.Categories, cm)
		m.Total += cm.Total
		m.Passed += cm.Passed
		m.Failed += cm.Failed
		m.Skipped += cm.Skipped
		if cm.MaxCase > m.MaxCase {
			m.MaxCase = cm.MaxCase
		}
		totalMicros += micros
		timed += cm.Total - cm.Skipped
	}
	m.PassRate = CalculatePassRate(m.Passed-m.Skipped, m.Total-m.Skipped)
	if timed > 0 {
		m.AvgCaseMicros = totalMicros / int64(timed)
	}
	evaluateConformance(m, results)
	return m
}

func aggregateCategory(c Category, results []CaseResult) (CategoryMetrics, int64) {
	cm := CategoryMetrics{Category: c.String(), Total: len(results), FieldMismatches: map[string]int{}}
	var micros int64
	for _, r := range results {
		switch {
		case r.Skipped:
			cm.Skipped++
			cm.Passed++
			continue
		case r.Passed:
			cm.Passed++
		default:
			cm.Failed++
		}
		if r.Err != "" {
			cm.Errors++
		}
		if r.OverBound {
			cm.OverBound++
		}
		for _, mm := range r.Mismatches {
			cm.FieldMismatches[string(mm.Field)]++
		}
		micros += r.Duration.Microseconds()
		if r.Duration > cm.MaxCase {
			cm.MaxCase = r.Duration
		}
	}
	evaluated := cm.Total - cm.Skipped
	cm.PassRate = CalculatePassRate(cm.Passed-cm.Skipped, evaluated)
	if evaluated > 0 {
		cm.AvgCaseMicros = micros / int64(evaluated)
	}
	return cm, micros
}

func evaluateConformance(m *ConformanceMetrics, results map[Category][]CaseResult) {
	m.PassPassRate = m.PassRate >= m.Thresholds.MinPassRate
	m.PassPerformance = float64(m.AvgCaseMicros)/1000.0 <= m.Thresholds.MaxAvgCaseMs
	m.PassCaseBound = true
	for _, rs := range results {
		for _, r := range rs {
			if r.OverBound {
				m.PassCaseBound = false
				return
			}
		}
	}
}

// ToJSON exports the metrics as formatted JSON.
func (m *ConformanceMetrics) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
