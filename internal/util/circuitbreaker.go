package util

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitState represents the state of the circuit breaker
type CircuitState string

const (
	CircuitStateClosed   CircuitState = "CLOSED"
	CircuitStateOpen     CircuitState = "OPEN"
	CircuitStateHalfOpen CircuitState = "HALF_OPEN"
)

// String implements Stringer interface
func (s CircuitState) String() string {
	return string(s)
}

// CircuitBreaker counts consecutive fetch failures against the target site.
// While it is open the crawler stops spending its retry budget.
type CircuitBreaker struct {
	state            CircuitState
	failureCount     int
	failureThreshold int
	cooldown         time.Duration
	openedAt         time.Time
	now              func() time.Time
	logger           *zap.Logger
	mu               sync.Mutex
}

// NewCircuitBreaker creates a closed breaker. A threshold <= 0 disables it.
func NewCircuitBreaker(failureThreshold int, cooldown time.Duration, logger *zap.Logger) *CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CircuitBreaker{
		state:            CircuitStateClosed,
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		now:              time.Now,
		logger:           logger,
	}
}

// State returns the current state, moving OPEN to HALF_OPEN once the cooldown elapsed.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitStateOpen && cb.now().Sub(cb.openedAt) >= cb.cooldown {
		cb.transitionTo(CircuitStateHalfOpen)
	}
	return cb.state
}

// CanExecute reports whether a retry may be issued.
func (cb *CircuitBreaker) CanExecute() bool {
	if cb == nil || cb.failureThreshold <= 0 {
		return true
	}
	return cb.State() != CircuitStateOpen
}

// RecordSuccess records a successful response
func (cb *CircuitBreaker) RecordSuccess() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitStateHalfOpen {
		cb.logger.Info("Circuit Breaker: site recovered, transitioning to CLOSED")
		cb.transitionTo(CircuitStateClosed)
	}
	cb.failureCount = 0
}

// RecordFailure records a failed request
func (cb *CircuitBreaker) RecordFailure() {
	if cb == nil || cb.failureThreshold <= 0 {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++

	switch {
	case cb.state == CircuitStateHalfOpen:
		cb.logger.Warn("Circuit Breaker: recovery failed, reopening circuit")
		cb.open()
	case cb.state == CircuitStateClosed && cb.failureCount >= cb.failureThreshold:
		cb.logger.Warn("Circuit Breaker: threshold reached, OPENING circuit",
			zap.Int("threshold", cb.failureThreshold),
			zap.Duration("cooldown", cb.cooldown),
		)
		cb.open()
	}
}

// must be called with lock held
func (cb *CircuitBreaker) open() {
	cb.openedAt = cb.now()
	cb.transitionTo(CircuitStateOpen)
}

// must be called with lock held
func (cb *CircuitBreaker) transitionTo(newState CircuitState) {
	oldState := cb.state
	cb.state = newState

	cb.logger.Info("Circuit Breaker: State transition",
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
		zap.Int("failure_count", cb.failureCount),
	)
}

// Status returns a snapshot for the end-of-run summary.
func (cb *CircuitBreaker) Status() CircuitBreakerStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerStatus{
		State:        cb.state,
		FailureCount: cb.failureCount,
	}
}

// CircuitBreakerStatus represents the circuit breaker status
type CircuitBreakerStatus struct {
	State        CircuitState
	FailureCount int
}
