/*
Package console glues the grid engine, the REST client and the roster
cache into one operator-facing controller, plus the backend status
monitor and a text renderer for the weekly grid.

PURPOSE:
  The library packages each own one concern; this package owns the
  session-level flow: pick the week worth showing, keep the grid in
  sync, hand toggles through, submit, and watch backend health.

SEE ALSO:
  - grid: selection state, compression, reconciliation, submission
  - client: the REST surface
  - roster: the cached member/shift directory
*/
package console

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meridian/shiftboard/client"
)

// Probe defaults, matching the console's historical behavior.
const (
	DefaultProbeTimeout = 4 * time.Second
	DefaultMaxRetries   = 2
	DefaultRetryDelay   = 1800 * time.Millisecond
)

// HealthProber is the slice of the client the monitor needs.
type HealthProber interface {
	Health(ctx context.Context) (client.HealthReport, error)
}

// ProbeResult is the outcome of one Check call, last attempt counted.
type ProbeResult struct {
	OK        bool
	Latency   time.Duration
	CheckedAt time.Time
	Attempt   int
	Err       error
}

// Monitor probes backend health with a per-attempt timeout and a
// bounded auto-retry. Exported fields are read at call time; zero
// values fall back to the defaults above.
type Monitor struct {
	Prober     HealthProber
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// OnRetry fires after a failed attempt that will be retried.
	OnRetry func(nextAttempt, maxRetries int, err error)
	// OnRecover fires when a check succeeds after at least one failure.
	OnRecover func()

	Log *zap.Logger
}

// Check runs a single probe attempt.
func (m *Monitor) Check(ctx context.Context) ProbeResult {
	return m.attempt(ctx, 1)
}

// CheckWithRetry probes until success or the retry budget runs out,
// sleeping RetryDelay between attempts. Context cancellation stops the
// loop early with the last failure.
func (m *Monitor) CheckWithRetry(ctx context.Context) ProbeResult {
	maxRetries := m.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	delay := m.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	var result ProbeResult
	for attempt := 1; ; attempt++ {
		result = m.attempt(ctx, attempt)
		if result.OK {
			if attempt > 1 && m.OnRecover != nil {
				m.OnRecover()
			}
			return result
		}
		next := attempt + 1
		if next > maxRetries {
			return result
		}
		if m.OnRetry != nil {
			m.OnRetry(next, maxRetries, result.Err)
		}
		select {
		case <-ctx.Done():
			result.Err = ctx.Err()
			return result
		case <-time.After(delay):
		}
	}
}

func (m *Monitor) attempt(ctx context.Context, attempt int) ProbeResult {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	report, err := m.Prober.Health(ctx)
	result := ProbeResult{
		OK:        err == nil && report.Healthy,
		Latency:   report.Latency,
		CheckedAt: time.Now(),
		Attempt:   attempt,
		Err:       err,
	}
	if m.Log != nil {
		if result.OK {
			m.Log.Debug("health probe ok",
				zap.Duration("latency", result.Latency),
				zap.Int("attempt", attempt))
		} else {
			m.Log.Warn("health probe failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
	}
	return result
}
