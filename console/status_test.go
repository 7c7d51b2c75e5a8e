package console

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/shiftboard/client"
)

// flakyProber fails a fixed number of times, then recovers.
type flakyProber struct {
	failures int
	calls    int
}

func (f *flakyProber) Health(context.Context) (client.HealthReport, error) {
	f.calls++
	if f.calls <= f.failures {
		return client.HealthReport{}, errors.New("connection refused")
	}
	return client.HealthReport{Healthy: true, Status: "ok", Latency: 3 * time.Millisecond}, nil
}

func TestCheckSingleProbe(t *testing.T) {
	m := &Monitor{Prober: &flakyProber{}}

	result := m.Check(context.Background())
	assert.True(t, result.OK)
	assert.Equal(t, 1, result.Attempt)
	assert.False(t, result.CheckedAt.IsZero())
}

func TestCheckWithRetryRecovers(t *testing.T) {
	// GIVEN a backend that fails once then comes back
	prober := &flakyProber{failures: 1}
	var retried, recovered bool
	m := &Monitor{
		Prober:     prober,
		RetryDelay: time.Millisecond,
		OnRetry:    func(next, max int, err error) { retried = true },
		OnRecover:  func() { recovered = true },
	}

	result := m.CheckWithRetry(context.Background())

	// THEN the second attempt succeeds and both hooks fired
	assert.True(t, result.OK)
	assert.Equal(t, 2, result.Attempt)
	assert.True(t, retried)
	assert.True(t, recovered)
}

func TestCheckWithRetryExhaustsBudget(t *testing.T) {
	prober := &flakyProber{failures: 10}
	var retries int
	m := &Monitor{
		Prober:     prober,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		OnRetry:    func(next, max int, err error) { retries++ },
	}

	result := m.CheckWithRetry(context.Background())

	assert.False(t, result.OK)
	assert.Equal(t, 3, result.Attempt)
	assert.Equal(t, 2, retries)
	assert.Equal(t, 3, prober.calls)
}

func TestCheckWithRetryNoRecoverOnFirstTry(t *testing.T) {
	var recovered bool
	m := &Monitor{
		Prober:    &flakyProber{},
		OnRecover: func() { recovered = true },
	}

	result := m.CheckWithRetry(context.Background())
	require.True(t, result.OK)
	assert.False(t, recovered)
}

func TestCheckWithRetryStopsOnCancel(t *testing.T) {
	prober := &flakyProber{failures: 10}
	m := &Monitor{Prober: prober, MaxRetries: 5, RetryDelay: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := m.CheckWithRetry(ctx)

	assert.False(t, result.OK)
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.Equal(t, 1, prober.calls)
}
