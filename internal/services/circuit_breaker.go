package services

import (
	"errors"
	"sync"
	"time"

	"github.com/drac2606/django-data-monitor/internal/config"
	"github.com/drac2606/django-data-monitor/internal/models"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig sets when the breaker opens and how it recovers.
// HalfOpenMaxSucc is both the number of concurrent trial calls admitted while
// half open and the successes needed to close again.
type CircuitBreakerConfig struct {
	MaxFailures     int
	ResetTimeout    time.Duration
	HalfOpenMaxSucc int
}

// DefaultCircuitBreakerConfig opens after five failures and tries the upstream again after 30s
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{MaxFailures: 5, ResetTimeout: 30 * time.Second, HalfOpenMaxSucc: 1}
}

// CircuitBreakerConfigFrom reads the breaker thresholds of the upstream section
func CircuitBreakerConfigFrom(cfg *config.UpstreamConfig) CircuitBreakerConfig {
	c := DefaultCircuitBreakerConfig()
	if cfg.BreakerMaxFailures > 0 {
		c.MaxFailures = cfg.BreakerMaxFailures
	}
	if cfg.BreakerResetTimeout > 0 {
		c.ResetTimeout = cfg.BreakerResetTimeout
	}
	return c
}

// CircuitBreaker stops calling a failing upstream until ResetTimeout has
// passed since the last failure, then admits a bounded number of trial calls
// while half open.
type CircuitBreaker struct {
	mu       sync.RWMutex
	config   CircuitBreakerConfig
	state    models.CircuitBreakerState
	failures int
	// trials counts successes seen while half open; inFlight the admitted
	// trial calls that have not reported back yet
	trials      int
	inFlight    int
	lastFailure time.Time

	now           func() time.Time
	onStateChange func(from, to models.CircuitBreakerState)
}

// NewCircuitBreaker creates a closed breaker. onStateChange may be nil and is
// invoked with the lock held, so it must not call back into the breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig, onStateChange func(from, to models.CircuitBreakerState)) CircuitBreakerInterface {
	return &CircuitBreaker{
		config:        cfg,
		state:         models.CircuitClosed,
		now:           time.Now,
		onStateChange: onStateChange,
	}
}

// IsOpen reports whether a call should be rejected. An open breaker whose
// cooldown has elapsed moves to half open and admits the caller as a trial.
// Every caller told false must report back through RecordSuccess,
// RecordFailure or Release.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case models.CircuitOpen:
		if cb.now().Sub(cb.lastFailure) <= cb.config.ResetTimeout {
			return true
		}
		cb.moveTo(models.CircuitHalfOpen)
	case models.CircuitHalfOpen:
		if cb.inFlight >= cb.maxTrials() {
			return true
		}
	default:
		return false
	}

	cb.inFlight++
	return false
}

// RecordSuccess clears the failure count, or counts a successful trial and
// closes the breaker once enough trials succeeded.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != models.CircuitHalfOpen {
		cb.failures = 0
		return
	}

	cb.endTrial()
	cb.trials++
	if cb.trials >= cb.config.HalfOpenMaxSucc {
		cb.moveTo(models.CircuitClosed)
	}
}

// RecordFailure counts a failed call. A failed trial reopens the breaker at once.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = cb.now()
	if cb.state == models.CircuitHalfOpen {
		cb.moveTo(models.CircuitOpen)
		return
	}

	if cb.state != models.CircuitClosed {
		return
	}
	if cb.failures++; cb.failures >= cb.config.MaxFailures {
		cb.moveTo(models.CircuitOpen)
	}
}

// Release returns an admitted trial slot without judging the upstream, for
// calls abandoned by their caller.
func (cb *CircuitBreaker) Release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == models.CircuitHalfOpen {
		cb.endTrial()
	}
}

// Reset forces the breaker closed and forgets past failures.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.moveTo(models.CircuitClosed)
}

// GetState returns the current state without advancing it.
func (cb *CircuitBreaker) GetState() models.CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// GetFailureCount returns the consecutive failures seen while closed.
func (cb *CircuitBreaker) GetFailureCount() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}

func (cb *CircuitBreaker) maxTrials() int {
	return max(cb.config.HalfOpenMaxSucc, 1)
}

func (cb *CircuitBreaker) endTrial() {
	if cb.inFlight > 0 {
		cb.inFlight--
	}
}

// moveTo must be called with mu held. Closing clears the failure count;
// every transition clears the half-open bookkeeping.
func (cb *CircuitBreaker) moveTo(to models.CircuitBreakerState) {
	from := cb.state
	cb.state = to
	cb.trials, cb.inFlight = 0, 0
	if to == models.CircuitClosed {
		cb.failures = 0
	}
	if from != to && cb.onStateChange != nil {
		cb.onStateChange(from, to)
	}
}
