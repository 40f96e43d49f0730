package uaparser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ParseAndReload(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	rs, err := Default()
	require.NoError(t, err)
	p := New(rs, WithMetrics(m), WithMaxInputLength(256))

	p.Parse(chromeWindowsUA)
	p.Parse("")
	p.Parse(strings.Repeat("a", 300))

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, _ = p.ParseContext(ctx, "x")

	require.Equal(t, 3.0, testutil.ToFloat64(m.parsesTotal.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.parsesTotal.WithLabelValues("timeout")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.matchesTotal.WithLabelValues("ua", "matched")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.matchesTotal.WithLabelValues("ua", "default")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.matchesTotal.WithLabelValues("device", "default")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.truncatedTotal))
	require.Equal(t, float64(rs.Len(CategoryOS)), testutil.ToFloat64(m.rules.WithLabelValues("os")))

	small := mustRuleSet(t, "os_parsers:\n  - regex: '(X)'\n")
	require.NoError(t, p.Reload(small))
	require.Error(t, p.Reload(nil))
	require.Equal(t, 1.0, testutil.ToFloat64(m.reloadsTotal.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.reloadsTotal.WithLabelValues("error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rules.WithLabelValues("os")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.observeParse("ok", time.Millisecond)
	m.observeClassification(CategoryOS, true)
	m.observeTruncation()
	m.ObserveReload(nil, errors.New("x"))
}
