package api

import (
	"errors"
	"time"
)

// Sentinel errors for configuration validation
var (
	// ErrInvalidTimeout is returned when a timeout value is invalid (negative).
	ErrInvalidTimeout = errors.New("invalid timeout: must be >= 0")
	// ErrInvalidBatchSize is returned when the batch limit is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be > 0")
)

// DefaultMaxBatch caps the number of User-Agents in one POST /api/v1/parse.
const DefaultMaxBatch = 1000

// Config holds API-level configuration.
type Config struct {
	// HandlerTimeout is the maximum duration for an API handler to complete.
	// It applies only when the request context has no earlier deadline.
	// Zero disables it.
	HandlerTimeout time.Duration

	// MaxBatch caps user_agents in a batch parse request.
	MaxBatch int
}

// DefaultConfig returns the default API configuration.
func DefaultConfig() Config {
	return Config{
		HandlerTimeout: 5 * time.Second,
		MaxBatch:       DefaultMaxBatch,
	}
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.HandlerTimeout < 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBatch <= 0 {
		return ErrInvalidBatchSize
	}
	return nil
}
