package uaparser

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func readEvents(t *testing.T, path string) []ClassificationEvent {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []ClassificationEvent
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev ClassificationEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		out = append(out, ev)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestTelemetryWriter_Disabled(t *testing.T) {
	w, err := NewTelemetryWriter("")
	require.NoError(t, err)
	require.False(t, w.IsEnabled())
	require.NoError(t, w.Write(ClassificationEvent{}))
	require.NoError(t, w.Close())

	var nilWriter *TelemetryWriter
	require.NoError(t, nilWriter.Write(ClassificationEvent{}))
}

func TestTelemetryWriter_RecordsParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.jsonl")
	w, err := NewTelemetryWriter(path)
	require.NoError(t, err)
	require.True(t, w.IsEnabled())

	p := defaultParser(t, WithTelemetry(w))
	p.Parse(chromeWindowsUA)
	p.Parse(strings.Repeat("z", 2000))

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err = p.ParseContext(ctx, "late")
	require.ErrorIs(t, err, ErrClassificationTimeout)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	events := readEvents(t, path)
	require.Len(t, events, 3)

	ok := events[0]
	_, err = uuid.Parse(ok.ID)
	require.NoError(t, err)
	require.Equal(t, "ok", ok.Outcome)
	require.Equal(t, "Chrome", ok.Browser)
	require.Equal(t, "Windows", ok.OS)
	require.Equal(t, "Other", ok.Device)
	require.GreaterOrEqual(t, ok.UARule, 0)
	require.Equal(t, -1, ok.DeviceRule)
	require.Equal(t, "embedded", ok.Source)

	long := events[1]
	require.Len(t, long.Input, maxTelemetryInput)
	require.Equal(t, 2000, long.InputBytes)

	late := events[2]
	require.Equal(t, "timeout", late.Outcome)
	require.Contains(t, late.Error, "classification timeout")
	require.NotEqual(t, ok.ID, late.ID)
}
