package uaparser

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxTelemetryInput bounds the input stored per event.
const maxTelemetryInput = 512

// ClassificationEvent is one telemetry record.
type ClassificationEvent struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Input      string    `json:"input"`
	InputBytes int       `json:"input_bytes"`
	Outcome    string    `json:"outcome"` // "ok", "timeout", "canceled"
	Source     string    `json:"source,omitempty"`
	Version    string    `json:"version,omitempty"`
	Browser    string    `json:"ua_family,omitempty"`
	OS         string    `json:"os_family,omitempty"`
	Device     string    `json:"device_family,omitempty"`
	UARule     int       `json:"ua_rule"`
	OSRule     int       `json:"os_rule"`
	DeviceRule int       `json:"device_rule"`
	Truncated  bool      `json:"truncated,omitempty"`
	ElapsedUS  int64     `json:"elapsed_us"`
	Error      string    `json:"error,omitempty"`
}

// TelemetryWriter appends classification events to a JSONL file. It is safe
// for concurrent use.
type TelemetryWriter struct {
	filePath string
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	enabled  bool
}

// NewTelemetryWriter opens filePath for appending. An empty path returns a
// disabled writer.
func NewTelemetryWriter(filePath string) (*TelemetryWriter, error) {
	if filePath == "" {
		return &TelemetryWriter{enabled: false}, nil
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry file: %w", err)
	}

	return &TelemetryWriter{
		filePath: filePath,
		file:     file,
		encoder:  json.NewEncoder(file),
		enabled:  true,
	}, nil
}

// Write appends event, filling ID and Timestamp when unset.
func (w *TelemetryWriter) Write(event ClassificationEvent) error {
	if w == nil || !w.enabled {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	if err := w.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to write telemetry event: %w", err)
	}
	return nil
}

// WriteResult records a completed parse.
func (w *TelemetryWriter) WriteResult(input string, res Result, trace Trace) error {
	return w.Write(ClassificationEvent{
		Input:      clip(input, maxTelemetryInput),
		InputBytes: len(input),
		Outcome:    "ok",
		Source:     trace.Source,
		Version:    trace.Version,
		Browser:    res.UserAgent.Family,
		OS:         res.OS.Family,
		Device:     res.Device.Family,
		UARule:     trace.UserAgent.Index,
		OSRule:     trace.OS.Index,
		DeviceRule: trace.Device.Index,
		Truncated:  trace.Truncated,
		ElapsedUS:  trace.Elapsed.Microseconds(),
	})
}

// WriteFailure records a parse that did not complete.
func (w *TelemetryWriter) WriteFailure(input, outcome string, elapsed time.Duration, err error) error {
	event := ClassificationEvent{
		Input:      clip(input, maxTelemetryInput),
		InputBytes: len(input),
		Outcome:    outcome,
		UARule:     -1,
		OSRule:     -1,
		DeviceRule: -1,
		ElapsedUS:  elapsed.Microseconds(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	return w.Write(event)
}

// Close closes the telemetry file.
func (w *TelemetryWriter) Close() error {
	if w == nil || !w.enabled {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close telemetry file: %w", err)
	}
	w.file = nil
	return nil
}

// IsEnabled reports whether events are written.
func (w *TelemetryWriter) IsEnabled() bool {
	return w != nil && w.enabled
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return truncateInput(s, n)
}
