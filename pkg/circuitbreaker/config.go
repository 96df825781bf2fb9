package circuitbreaker

import "time"

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name identifies the circuit breaker in logs and errors.
	Name string

	// Enabled determines whether the circuit breaker is active.
	// When false, New returns nil and Execute passes through directly.
	Enabled bool

	// MaxRequests caps the number of probe requests allowed while the
	// breaker is half-open. Zero means a single probe.
	MaxRequests uint

	// Interval is the cyclic period of the closed state after which the
	// breaker clears its internal counts. Zero keeps counts indefinitely.
	Interval time.Duration

	// Timeout is how long the breaker stays open before transitioning to
	// half-open. Zero falls back to gobreaker's 60 second default.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that trips
	// the breaker from closed to open.
	FailureThreshold uint
}
