/*
reconcile.go - Backend reconciliation for one slot grid

PURPOSE:
  The Reconciler keeps a SlotState consistent with backend truth across
  context changes. Whenever (target user, week, request type) changes, it
  refetches the weekly view, maps every returned occurrence onto grid
  cells, marks them assigned, and seeds the working selection from the
  assigned set.

STATE MACHINE:
  Idle --(Refresh)--> Fetching --(success)--> Ready
                         |
                         +--(failure)--> Idle (state untouched, error surfaced)

STALENESS GUARD:
  UI clicks keep flowing while a fetch is in flight, and a newer context
  change can be issued before an older fetch resolves. Every issued fetch
  takes a monotonically increasing token; a response whose token is no
  longer the latest is discarded, never applied. Earlier console revisions
  were inconsistent about this; here the guard is mandatory.
*/
package grid

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ScheduleReader is the external weekly-view collaborator: one idempotent
// read of a user's assignments for the week starting at weekStart.
type ScheduleReader interface {
	WeeklyView(ctx context.Context, userID string, weekStart time.Time) ([]AssignmentEvent, error)
}

// Phase is the reconciler's lifecycle position for the current context.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// ViewContext identifies what the grid is currently showing. Any field
// change invalidates local state and requires a refetch.
type ViewContext struct {
	UserID    string
	WeekStart time.Time
	Type      RequestType
}

func (c ViewContext) equal(other ViewContext) bool {
	return c.UserID == other.UserID &&
		c.WeekStart.Equal(other.WeekStart) &&
		c.Type == other.Type
}

// Reconciler owns the read-modify-reconcile cycle for one SlotState.
// All state application happens under its lock, so concurrent Refresh
// calls and context switches serialize correctly.
type Reconciler struct {
	reader ScheduleReader
	log    *zap.Logger

	mu      sync.Mutex
	state   *SlotState
	current ViewContext
	token   uint64
	phase   Phase

	// Applicable date range across BASE records of the last applied
	// response, for the "valid 2026-03-02 ~ 2026-06-26" display line.
	validFrom time.Time
	validTo   time.Time
}

// NewReconciler wires a reconciler to its state and collaborator.
// A nil logger is replaced with a no-op one.
func NewReconciler(reader ScheduleReader, state *SlotState, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{reader: reader, state: state, log: log}
}

// SetContext switches the grid to a new (user, week, type) context.
// On an actual change the local state is discarded immediately and any
// in-flight fetch is invalidated; returns true in that case. Setting the
// same context again is a no-op.
func (r *Reconciler) SetContext(c ViewContext) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current.equal(c) {
		return false
	}
	r.current = c
	r.token++ // invalidates any in-flight fetch
	r.phase = PhaseIdle
	r.state.Reset()
	r.validFrom, r.validTo = time.Time{}, time.Time{}
	r.log.Debug("grid context switched",
		zap.String("user", c.UserID),
		zap.Time("week_start", c.WeekStart),
		zap.String("type", string(c.Type)))
	return true
}

// Context returns the current view context.
func (r *Reconciler) Context() ViewContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Phase returns the lifecycle position for the current context.
func (r *Reconciler) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// ValidRange returns the min valid_from / max valid_to across the BASE
// records of the last applied response. ok is false when the last response
// carried no validity information.
func (r *Reconciler) ValidRange() (from, to time.Time, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.validFrom, r.validTo, !r.validFrom.IsZero() || !r.validTo.IsZero()
}

// Refresh fetches the weekly view for the current context and rebuilds the
// SlotState from it: assigned cells from the response, selection seeded
// from assigned.
//
// On transport failure the state is left untouched and a *RefreshError is
// returned so the UI can show an explicit "could not refresh" signal
// instead of silently presenting stale data as fresh.
//
// If a newer context change or Refresh supersedes this call while its
// fetch is in flight, the response is discarded and ErrRefreshSuperseded
// is returned; nothing was applied.
func (r *Reconciler) Refresh(ctx context.Context) error {
	r.mu.Lock()
	c := r.current
	r.token++
	token := r.token
	r.phase = PhaseFetching
	r.mu.Unlock()

	events, err := r.reader.WeeklyView(ctx, c.UserID, c.WeekStart)

	r.mu.Lock()
	defer r.mu.Unlock()

	if token != r.token {
		r.log.Debug("discarding stale weekly view",
			zap.String("user", c.UserID),
			zap.Uint64("token", token))
		return ErrRefreshSuperseded
	}

	if err != nil {
		r.phase = PhaseIdle
		r.log.Warn("weekly view fetch failed",
			zap.String("user", c.UserID),
			zap.Error(err))
		return &RefreshError{Cause: err}
	}

	r.state.Reset()
	r.validFrom, r.validTo = time.Time{}, time.Time{}
	for _, ev := range events {
		r.apply(ev)
	}
	r.state.SeedSelectedFromAssigned()
	r.phase = PhaseReady

	r.log.Debug("weekly view applied",
		zap.String("user", c.UserID),
		zap.Int("events", len(events)),
		zap.Int("assigned_cells", r.state.AssignedSize()))
	return nil
}

// apply maps one occurrence onto grid cells: weekday from its date, hour
// cells from the [start, end) minute span intersected with the visible
// window. Caller holds r.mu.
func (r *Reconciler) apply(ev AssignmentEvent) {
	day := DateToWeekdayIndex(ev.Date)
	g := r.state.Grid()
	for _, hour := range g.Hours() {
		if !ev.OverlapsHour(hour) {
			continue
		}
		r.state.MarkAssigned(g.CellKey(day, hour), ev.ShiftID)
	}

	if ev.Source != SourceBase {
		return
	}
	if ev.ValidFrom != nil && (r.validFrom.IsZero() || ev.ValidFrom.Before(r.validFrom)) {
		r.validFrom = *ev.ValidFrom
	}
	if ev.ValidTo != nil && (r.validTo.IsZero() || ev.ValidTo.After(r.validTo)) {
		r.validTo = *ev.ValidTo
	}
}

// State exposes the reconciled slot state. Mutations must stay on the
// owning view's goroutine; see the package concurrency notes.
func (r *Reconciler) State() *SlotState {
	return r.state
}
