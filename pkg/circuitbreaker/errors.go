package circuitbreaker

import "errors"

var (
	// ErrCircuitOpen indicates the circuit breaker is open and rejecting
	// requests so the upstream can recover.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrTooManyRequests indicates the breaker is half-open and the probe
	// request budget has been reached.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)
