package resilience

import (
	"fmt"
	"sync"
	"time"
)

// OpenError is returned when a call is rejected because the circuit is open.
// The wrapped operation is never invoked.
type OpenError struct {
	Service string
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for service %q", e.Service)
}

// IsOpenError reports whether err is a circuit-open rejection
func IsOpenError(err error) bool {
	_, ok := err.(*OpenError)
	return ok
}

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior
type Settings struct {
	// FailureThreshold is the number of qualifying failures in closed state that opens the circuit
	FailureThreshold uint32
	// SuccessThreshold is the number of successes in half-open state that closes the circuit
	SuccessThreshold uint32
	// RecoveryTimeout is how long the circuit stays open before allowing a probe.
	// Zero means the next call after any elapsed time may probe.
	RecoveryTimeout time.Duration
	// IsFailure restricts which errors count against the breaker.
	// Errors it rejects propagate without touching the counters.
	// Nil counts every error.
	IsFailure func(error) bool
	// OnStateChange is called whenever the state changes
	OnStateChange func(name string, from State, to State)
}

// Status is a read-only snapshot of a breaker for observability
type Status struct {
	Service          string  `json:"service"`
	State            string  `json:"state"`
	FailureCount     uint32  `json:"failure_count"`
	SuccessCount     uint32  `json:"success_count"`
	FailureThreshold uint32  `json:"failure_threshold"`
	SuccessThreshold uint32  `json:"success_threshold"`
	RecoveryTimeout  float64 `json:"recovery_timeout"`
	LastFailureTime  *string `json:"last_failure_time,omitempty"`
}

// Breaker guards calls to a single logical service.
//
// State machine:
//
//	closed --[failureCount >= FailureThreshold]--> open
//	open --[RecoveryTimeout elapsed]--> half-open
//	half-open --[successCount >= SuccessThreshold]--> closed
//	half-open --[any qualifying failure]--> open
type Breaker struct {
	name     string
	settings Settings

	mu           sync.Mutex
	state        State
	failureCount uint32
	successCount uint32
	lastFailure  time.Time

	now func() time.Time
}

// New creates a circuit breaker for the named service
func New(name string, settings Settings) *Breaker {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}
	if settings.SuccessThreshold == 0 {
		settings.SuccessThreshold = 1
	}

	return &Breaker{
		name:     name,
		settings: settings,
		state:    StateClosed,
		now:      time.Now,
	}
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Call executes the given operation if the circuit breaker accepts it.
// While open and inside the recovery window the operation is never
// invoked and an *OpenError is returned.
func (b *Breaker) Call(operation func() (interface{}, error)) (interface{}, error) {
	if err := b.beforeCall(); err != nil {
		return nil, err
	}

	result, err := operation()
	if err == nil {
		b.onSuccess()
		return result, nil
	}

	if b.settings.IsFailure != nil && !b.settings.IsFailure(err) {
		// Not a qualifying failure: propagate untouched
		return result, err
	}

	b.onFailure()
	return result, err
}

// Status returns a read-only snapshot of the breaker
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	status := Status{
		Service:          b.name,
		State:            b.state.String(),
		FailureCount:     b.failureCount,
		SuccessCount:     b.successCount,
		FailureThreshold: b.settings.FailureThreshold,
		SuccessThreshold: b.settings.SuccessThreshold,
		RecoveryTimeout:  b.settings.RecoveryTimeout.Seconds(),
	}

	if !b.lastFailure.IsZero() {
		ts := b.lastFailure.UTC().Format(time.RFC3339Nano)
		status.LastFailureTime = &ts
	}

	return status
}

// Reset forces the breaker closed with zeroed counters. Idempotent.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.setState(StateClosed)
	b.failureCount = 0
	b.successCount = 0
	b.lastFailure = time.Time{}
}

// beforeCall admits or rejects a call attempt
func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}

	if b.now().Sub(b.lastFailure) >= b.settings.RecoveryTimeout {
		b.setState(StateHalfOpen)
		return nil
	}

	return &OpenError{Service: b.name}
}

// onSuccess records a successful call outcome
func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateHalfOpen {
		// Closed: counters already healthy. Open: a stale in-flight
		// result racing a concurrent trip, ignore.
		return
	}

	b.successCount++
	if b.successCount >= b.settings.SuccessThreshold {
		b.setState(StateClosed)
		b.failureCount = 0
		b.successCount = 0
	}
}

// onFailure records a qualifying failure
func (b *Breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		// A single failure during probation re-opens the circuit
		b.lastFailure = b.now()
		b.successCount = 0
		b.setState(StateOpen)
	case StateClosed:
		b.failureCount++
		b.lastFailure = b.now()
		if b.failureCount >= b.settings.FailureThreshold {
			b.setState(StateOpen)
		}
	}
}

// setState changes the state, firing the change callback.
// Callers must hold b.mu.
func (b *Breaker) setState(state State) {
	if b.state == state {
		return
	}

	prev := b.state
	b.state = state

	if state != StateHalfOpen {
		b.successCount = 0
	}

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, prev, state)
	}
}
