package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// StateChangeFunc observes breaker transitions. It runs with the breaker lock
// held and must not call back into the breaker.
type StateChangeFunc func(from, to CircuitState)

// CircuitCounts is a point-in-time view of the breaker counters.
type CircuitCounts struct {
	ConsecutiveFailures int
	Rejected            int64
}

// CircuitBreaker guards an upstream dependency. A disabled breaker allows
// every call and records nothing.
type CircuitBreaker struct {
	cfg      CircuitBreakerConfig
	now      func() time.Time
	onChange StateChangeFunc

	mu        sync.Mutex
	state     CircuitState
	failures  int
	openedAt  time.Time
	probes    int
	successes int
	rejected  int64
}

func NewCircuitBreaker(cfg CircuitBreakerConfig, now func() time.Time) *CircuitBreaker {
	if now == nil {
		now = time.Now
	}
	return &CircuitBreaker{
		cfg:   NormalizeCircuitBreakerConfig(cfg),
		now:   now,
		state: CircuitStateClosed,
	}
}

// OnStateChange registers fn for transitions. Call it before the breaker is shared.
func (b *CircuitBreaker) OnStateChange(fn StateChangeFunc) *CircuitBreaker {
	if b != nil {
		b.onChange = fn
	}
	return b
}

func (b *CircuitBreaker) Enabled() bool {
	return b != nil && b.cfg.Enabled
}

// Do runs fn when the breaker admits the call. isFailure decides whether an
// error returned by fn counts against the dependency; nil means every error does.
func (b *CircuitBreaker) Do(fn func() error, isFailure func(error) bool) error {
	if !b.Enabled() {
		return fn()
	}
	if err := b.Allow(); err != nil {
		return err
	}

	err := fn()
	b.record(err != nil && (isFailure == nil || isFailure(err)))
	return err
}

// Allow reserves a slot for one call. Callers that use Allow directly must
// report the result through RecordSuccess or RecordFailure.
func (b *CircuitBreaker) Allow() error {
	if !b.Enabled() {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.cooledDown() {
		b.transition(CircuitStateHalfOpen)
	}

	switch b.state {
	case CircuitStateOpen:
		b.rejected++
		return ErrCircuitOpen
	case CircuitStateHalfOpen:
		if b.probes >= b.cfg.HalfOpenMaxReq {
			b.rejected++
			return ErrCircuitOpen
		}
		b.probes++
	}
	return nil
}

func (b *CircuitBreaker) RecordSuccess() { b.record(false) }

func (b *CircuitBreaker) RecordFailure() { b.record(true) }

func (b *CircuitBreaker) record(failed bool) {
	if !b.Enabled() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateHalfOpen && b.probes > 0 {
		b.probes--
	}

	switch {
	case b.state == CircuitStateOpen && failed:
		// late failure from a call admitted before the trip
		b.openedAt = b.now()
	case b.state == CircuitStateHalfOpen && failed:
		b.transition(CircuitStateOpen)
	case b.state == CircuitStateHalfOpen:
		b.successes++
		if b.successes >= b.cfg.HalfOpenMaxReq && b.probes == 0 {
			b.transition(CircuitStateClosed)
		}
	case failed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.transition(CircuitStateOpen)
		}
	default:
		b.failures = 0
	}
}

// State reports half-open once the open timeout elapsed, even before the next
// call moves the breaker there.
func (b *CircuitBreaker) State() CircuitState {
	if !b.Enabled() {
		return CircuitStateClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.cooledDown() {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) Counts() CircuitCounts {
	if !b.Enabled() {
		return CircuitCounts{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return CircuitCounts{ConsecutiveFailures: b.failures, Rejected: b.rejected}
}

func (b *CircuitBreaker) cooledDown() bool {
	return b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout
}

func (b *CircuitBreaker) transition(to CircuitState) {
	from := b.state
	b.state = to
	b.probes = 0
	b.successes = 0

	switch to {
	case CircuitStateOpen:
		b.openedAt = b.now()
	case CircuitStateClosed:
		b.failures = 0
		b.openedAt = time.Time{}
	}

	if b.onChange != nil && from != to {
		b.onChange(from, to)
	}
}
