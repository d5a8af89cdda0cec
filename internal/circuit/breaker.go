// Package circuit implements a circuit breaker for upstream HTTP calls.
package circuit

import (
	"fmt"
	"sync"
	"time"
)

// BreakerState represents the circuit breaker state
type BreakerState string

const (
	StateClosed   BreakerState = "closed"    // Normal operation
	StateOpen     BreakerState = "open"      // Requests rejected
	StateHalfOpen BreakerState = "half_open" // Testing recovery
)

// BreakerConfig holds circuit breaker configuration
type BreakerConfig struct {
	Enabled          bool          `json:"enabled"`
	FailureThreshold int           `json:"failure_threshold"` // Consecutive failures before tripping
	Cooldown         time.Duration `json:"cooldown"`          // Time open before half-open probe
}

// DefaultBreakerConfig returns safe defaults
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	}
}

// Breaker trips after consecutive upstream failures and rejects requests
// until a cooldown passes, then lets a single probe through.
type Breaker struct {
	config              *BreakerConfig
	state               BreakerState
	consecutiveFailures int
	lastTripTime        time.Time
	tripReason          string
	mu                  sync.Mutex
	onTrip              func(reason string)
	onReset             func()
}

// NewBreaker creates a new circuit breaker
func NewBreaker(config *BreakerConfig) *Breaker {
	if config == nil {
		config = DefaultBreakerConfig()
	}
	return &Breaker{
		config: config,
		state:  StateClosed,
	}
}

// OnTrip sets callback for when the breaker trips
func (b *Breaker) OnTrip(handler func(reason string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onTrip = handler
}

// OnReset sets callback for when the breaker resets
func (b *Breaker) OnReset(handler func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onReset = handler
}

// Allow reports whether a request may proceed. When the breaker is open
// and the cooldown has passed, one caller is let through as a probe.
func (b *Breaker) Allow() (bool, string) {
	if !b.config.Enabled {
		return true, ""
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true, ""

	case StateHalfOpen:
		// A probe is already in flight
		return false, "circuit breaker half-open, probe in flight"

	case StateOpen:
		elapsed := time.Since(b.lastTripTime)
		if elapsed < b.config.Cooldown {
			remaining := b.config.Cooldown - elapsed
			return false, fmt.Sprintf("circuit breaker open, cooldown remaining: %v (reason: %s)",
				remaining.Round(time.Second), b.tripReason)
		}
		b.state = StateHalfOpen
		return true, ""
	}

	return true, ""
}

// RecordSuccess resets the failure count and closes the breaker
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	wasOpen := b.state != StateClosed
	b.state = StateClosed
	b.consecutiveFailures = 0
	b.tripReason = ""
	onReset := b.onReset
	b.mu.Unlock()

	if wasOpen && onReset != nil {
		onReset()
	}
}

// RecordFailure counts a failure and trips the breaker at the threshold.
// A failed half-open probe reopens immediately.
func (b *Breaker) RecordFailure(err error) {
	if !b.config.Enabled {
		return
	}

	b.mu.Lock()
	b.consecutiveFailures++

	shouldTrip := b.state == StateHalfOpen || b.consecutiveFailures >= b.config.FailureThreshold
	var onTrip func(string)
	var reason string

	if shouldTrip && b.state != StateOpen {
		b.state = StateOpen
		b.lastTripTime = time.Now()
		reason = fmt.Sprintf("%d consecutive failures", b.consecutiveFailures)
		if err != nil {
			reason = fmt.Sprintf("%s, last: %v", reason, err)
		}
		b.tripReason = reason
		onTrip = b.onTrip
	}
	b.mu.Unlock()

	if onTrip != nil {
		onTrip(reason)
	}
}

// State returns the current breaker state
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
