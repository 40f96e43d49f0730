package uaparser

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixtureFiles() map[Category]string {
	return map[Category]string{
		CategoryUserAgent: filepath.Join("testdata", "test_ua.yaml"),
		CategoryOS:        filepath.Join("testdata", "test_os.yaml"),
		CategoryDevice:    filepath.Join("testdata", "test_device.yaml"),
	}
}

func TestConformance_EmbeddedRulesPassFixtures(t *testing.T) {
	runner := NewConformanceRunner(defaultParser(t), 0)

	results, err := runner.RunFiles(context.Background(), fixtureFiles())
	require.NoError(t, err)
	require.Len(t, results, 3)

	for c, rs := range results {
		for _, r := range rs {
			require.Truef(t, r.Passed, "%s case %d %q: %+v", c, r.Index, r.Input, r.Mismatches)
		}
	}

	m := CalculateConformanceMetrics(results, DefaultConformanceThresholds())
	require.Equal(t, 1.0, m.PassRate)
	require.Equal(t, 1, m.Skipped)
	require.True(t, m.PassPassRate)
	require.True(t, m.PassCaseBound)
}

func TestConformance_ReportsMismatches(t *testing.T) {
	set, err := ParseFixtures(CategoryUserAgent, []byte(`
test_cases:
  - user_agent_string: 'Chrome/91.0.4472.124'
    family: 'Chrome'
    major: '90'
    minor: '0'
    patch: ''
`))
	require.NoError(t, err)

	results, err := NewConformanceRunner(defaultParser(t), time.Second).Run(context.Background(), set)
	require.NoError(t, err)
	require.Len(t, results, 1)
	r := results[0]
	require.False(t, r.Passed)
	require.Equal(t, []FieldMismatch{
		{Field: FieldMajor, Expected: Some("90"), Actual: Some("91")},
		{Field: FieldPatch, Expected: Absent, Actual: Some("4472")},
	}, r.Mismatches)

	m := CalculateConformanceMetrics(map[Category][]CaseResult{CategoryUserAgent: results}, DefaultConformanceThresholds())
	require.Equal(t, 0.0, m.PassRate)
	require.False(t, m.OK())
	require.Equal(t, 1, m.Categories[0].FieldMismatches["major"])
}

func TestConformance_JSUASkippedOnlyForBrowser(t *testing.T) {
	doc := []byte(`
test_cases:
  - user_agent_string: 'curl/7.1'
    js_ua: "{}"
    family: 'Other'
`)
	runner := NewConformanceRunner(defaultParser(t), 0)

	ua, err := ParseFixtures(CategoryUserAgent, doc)
	require.NoError(t, err)
	results, err := runner.Run(context.Background(), ua)
	require.NoError(t, err)
	require.True(t, results[0].Skipped)

	dev, err := ParseFixtures(CategoryDevice, doc)
	require.NoError(t, err)
	results, err = runner.Run(context.Background(), dev)
	require.NoError(t, err)
	require.False(t, results[0].Skipped)
	require.True(t, results[0].Passed)
}

func TestConformance_MissingFile(t *testing.T) {
	runner := NewConformanceRunner(defaultParser(t), 0)
	_, err := runner.RunFiles(context.Background(), map[Category]string{
		CategoryOS: filepath.Join(t.TempDir(), "missing.yaml"),
	})
	require.Error(t, err)
}

func TestCalculatePassRate(t *testing.T) {
	require.Equal(t, 1.0, CalculatePassRate(0, 0))
	require.Equal(t, 0.5, CalculatePassRate(1, 2))
}

func TestLoadConformanceThresholdsFromEnv(t *testing.T) {
	t.Setenv("UAPARSER_CONFORMANCE_MIN_PASS_RATE", "0.9")
	t.Setenv("UAPARSER_CONFORMANCE_MAX_AVG_CASE_MS", "-3")
	t.Setenv("UAPARSER_CONFORMANCE_CASE_BOUND", "250ms")

	th := LoadConformanceThresholdsFromEnv()
	require.Equal(t, 0.9, th.MinPassRate)
	require.Equal(t, DefaultConformanceThresholds().MaxAvgCaseMs, th.MaxAvgCaseMs)
	require.Equal(t, 250*time.Millisecond, th.CaseBound)

	t.Setenv("UAPARSER_CONFORMANCE_MIN_PASS_RATE", "1.5")
	require.Equal(t, 1.0, LoadConformanceThresholdsFromEnv().MinPassRate)
}
