package services

import (
	"testing"
	"time"

	"github.com/drac2606/django-data-monitor/internal/config"
	"github.com/drac2606/django-data-monitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transition struct {
	from, to models.CircuitBreakerState
}

func newTestBreaker(t *testing.T, maxFailures int) (*CircuitBreaker, *time.Time, *[]transition) {
	t.Helper()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var transitions []transition

	cb, ok := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:     maxFailures,
		ResetTimeout:    30 * time.Second,
		HalfOpenMaxSucc: 1,
	}, func(from, to models.CircuitBreakerState) {
		transitions = append(transitions, transition{from, to})
	}).(*CircuitBreaker)
	require.True(t, ok)

	cb.now = func() time.Time { return now }
	return cb, &now, &transitions
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb, _, transitions := newTestBreaker(t, 3)

	cb.RecordFailure()
	cb.RecordFailure()
	assert.False(t, cb.IsOpen())
	assert.Equal(t, 2, cb.GetFailureCount())

	cb.RecordFailure()
	assert.True(t, cb.IsOpen())
	assert.Equal(t, models.CircuitOpen, cb.GetState())
	assert.Equal(t, []transition{{models.CircuitClosed, models.CircuitOpen}}, *transitions)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _, _ := newTestBreaker(t, 3)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()

	assert.Equal(t, 0, cb.GetFailureCount())
	cb.RecordFailure()
	assert.False(t, cb.IsOpen())
}

func TestCircuitBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	cb, now, transitions := newTestBreaker(t, 1)

	cb.RecordFailure()
	assert.True(t, cb.IsOpen())

	*now = now.Add(31 * time.Second)
	assert.False(t, cb.IsOpen())
	assert.Equal(t, models.CircuitHalfOpen, cb.GetState())

	cb.RecordSuccess()
	assert.Equal(t, models.CircuitClosed, cb.GetState())
	assert.Equal(t, []transition{
		{models.CircuitClosed, models.CircuitOpen},
		{models.CircuitOpen, models.CircuitHalfOpen},
		{models.CircuitHalfOpen, models.CircuitClosed},
	}, *transitions)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, now, _ := newTestBreaker(t, 1)

	cb.RecordFailure()
	*now = now.Add(time.Minute)
	require.False(t, cb.IsOpen())

	cb.RecordFailure()
	assert.True(t, cb.IsOpen())
	assert.Equal(t, models.CircuitOpen, cb.GetState())
}

func TestCircuitBreaker_HalfOpenAdmitsOneTrialAtATime(t *testing.T) {
	cb, now, _ := newTestBreaker(t, 1)

	cb.RecordFailure()
	*now = now.Add(time.Minute)

	require.False(t, cb.IsOpen(), "first caller becomes the trial")
	assert.True(t, cb.IsOpen(), "concurrent callers are rejected while the trial runs")
	assert.True(t, cb.IsOpen())
	assert.Equal(t, models.CircuitHalfOpen, cb.GetState())

	cb.RecordSuccess()
	assert.Equal(t, models.CircuitClosed, cb.GetState())
	assert.False(t, cb.IsOpen())
}

func TestCircuitBreaker_ReleaseFreesTrial(t *testing.T) {
	cb, now, _ := newTestBreaker(t, 1)

	cb.RecordFailure()
	*now = now.Add(time.Minute)
	require.False(t, cb.IsOpen())
	require.True(t, cb.IsOpen())

	cb.Release()

	assert.Equal(t, models.CircuitHalfOpen, cb.GetState())
	assert.False(t, cb.IsOpen(), "released slot goes to the next caller")
}

func TestCircuitBreaker_ReleaseWhileClosedIsNoop(t *testing.T) {
	cb, _, transitions := newTestBreaker(t, 2)

	cb.RecordFailure()
	cb.Release()

	assert.Equal(t, 1, cb.GetFailureCount())
	assert.Equal(t, models.CircuitClosed, cb.GetState())
	assert.Empty(t, *transitions)
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _, _ := newTestBreaker(t, 1)

	cb.RecordFailure()
	require.True(t, cb.IsOpen())

	cb.Reset()
	assert.False(t, cb.IsOpen())
	assert.Equal(t, 0, cb.GetFailureCount())
}

func TestCircuitBreakerConfigFrom(t *testing.T) {
	cfg := CircuitBreakerConfigFrom(&config.UpstreamConfig{
		BreakerMaxFailures:  2,
		BreakerResetTimeout: time.Minute,
	})
	assert.Equal(t, 2, cfg.MaxFailures)
	assert.Equal(t, time.Minute, cfg.ResetTimeout)

	defaults := CircuitBreakerConfigFrom(&config.UpstreamConfig{})
	assert.Equal(t, DefaultCircuitBreakerConfig(), defaults)
}

func TestCircuitBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", models.CircuitClosed.String())
	assert.Equal(t, "open", models.CircuitOpen.String())
	assert.Equal(t, "half_open", models.CircuitHalfOpen.String())
}
