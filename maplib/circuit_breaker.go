package maplib

import (
	"sync"
	"time"
)

type circuitBreakerState uint8

const (
	circuitBreakerStateClosed circuitBreakerState = iota
	circuitBreakerStateHalfOpened
	circuitBreakerStateOpened
)

// circuitBreaker protects a remote service from a flood of requests
// when it is failing.
//
// CLOSED: everything is allowed. Failures are counted, counter is
// reset each resetFailuresTimeout. When counter exceeds openThreshold,
// breaker becomes OPENED.
//
// OPENED: nothing is allowed. After halfOpenTimeout breaker becomes
// HALF_OPENED.
//
// HALF_OPENED: a single probe request is allowed. Its success closes
// a breaker, failure opens it again.
type circuitBreaker struct {
	mutex sync.Mutex
	now   func() time.Time

	state           circuitBreakerState
	failuresCount   uint32
	openedAt        time.Time
	failuresResetAt time.Time
	probing         bool

	openThreshold        uint32
	halfOpenTimeout      time.Duration
	resetFailuresTimeout time.Duration
}

// Allow has to be called before each request. If it returns an error,
// request must not be sent. Otherwise Report or Release must follow.
func (c *circuitBreaker) Allow() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()

	if c.state == circuitBreakerStateOpened && now.Sub(c.openedAt) >= c.halfOpenTimeout {
		c.switchState(circuitBreakerStateHalfOpened, now)
	}

	switch c.state {
	case circuitBreakerStateClosed:
		if !now.Before(c.failuresResetAt) {
			c.failuresCount = 0
			c.failuresResetAt = now.Add(c.resetFailuresTimeout)
		}

		return nil
	case circuitBreakerStateHalfOpened:
		if c.probing {
			return ErrCircuitBreakerOpened
		}

		c.probing = true

		return nil
	}

	return ErrCircuitBreakerOpened
}

// Report registers a result of the allowed request.
func (c *circuitBreaker) Report(success bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()

	switch c.state {
	case circuitBreakerStateClosed:
		if success {
			return
		}

		c.failuresCount++

		if c.failuresCount > c.openThreshold {
			c.switchState(circuitBreakerStateOpened, now)
		}
	case circuitBreakerStateHalfOpened:
		if success {
			c.switchState(circuitBreakerStateClosed, now)
		} else {
			c.switchState(circuitBreakerStateOpened, now)
		}
	}
}

// Release is used if request has ended without any verdict about the
// remote service, for example if request context was cancelled.
func (c *circuitBreaker) Release() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.probing = false
}

func (c *circuitBreaker) switchState(state circuitBreakerState, now time.Time) {
	c.state = state
	c.failuresCount = 0
	c.probing = false

	switch state {
	case circuitBreakerStateClosed:
		c.failuresResetAt = now.Add(c.resetFailuresTimeout)
	case circuitBreakerStateOpened:
		c.openedAt = now
	}
}

func newCircuitBreaker(openThreshold uint32,
	halfOpenTimeout, resetFailuresTimeout time.Duration) *circuitBreaker {
	cb := &circuitBreaker{
		now:                  time.Now,
		openThreshold:        openThreshold,
		halfOpenTimeout:      halfOpenTimeout,
		resetFailuresTimeout: resetFailuresTimeout,
	}

	cb.switchState(circuitBreakerStateClosed, cb.now())

	return cb
}
