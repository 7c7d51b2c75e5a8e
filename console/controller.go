package console

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meridian/shiftboard/client"
	"github.com/meridian/shiftboard/grid"
	"github.com/meridian/shiftboard/roster"
)

// ScheduleAPI is the slice of the client the controller drives. The
// write half is consumed indirectly through the submission pipeline.
type ScheduleAPI interface {
	grid.ScheduleReader
	grid.SlotEnsurer
	grid.BulkAssigner
	grid.RequestSubmitter
	GlobalSnapshot(ctx context.Context) ([]grid.ValidityWindow, error)
}

// Controller owns one operator's grid session: the current view
// context, its slot state, and the submission path. Not safe for
// concurrent use beyond what Reconciler already guarantees.
type Controller struct {
	api     ScheduleAPI
	catalog *roster.Catalog
	log     *zap.Logger

	state *grid.SlotState
	rec   *grid.Reconciler
	pipe  *grid.Pipeline
}

// NewController builds a controller on the default hour window.
func NewController(api ScheduleAPI, catalog *roster.Catalog, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{api: api, catalog: catalog, log: log}
	c.rebuild(grid.DefaultGrid())
	return c
}

func (c *Controller) rebuild(g grid.WeekGrid) {
	ctx := grid.ViewContext{}
	if c.rec != nil {
		ctx = c.rec.Context()
	}
	c.state = grid.NewSlotState(g)
	c.rec = grid.NewReconciler(c.api, c.state, c.log)
	c.pipe = &grid.Pipeline{
		Slots:      c.api,
		Bulk:       c.api,
		Requests:   c.api,
		Reconciler: c.rec,
		Log:        c.log,
	}
	if ctx != (grid.ViewContext{}) {
		c.rec.SetContext(ctx)
	}
}

// OpenWeek points the grid at (user, week of now, type) and loads it.
//
// The hour window is derived from the fetched events, clamped to
// business hours (9..18). When the current week turns out empty,
// the global snapshot picks the nearest week where the user's schedule
// is actually in force, matching what an operator expects to see.
func (c *Controller) OpenWeek(ctx context.Context, userID string, reqType grid.RequestType, now time.Time) (time.Time, error) {
	weekStart := grid.WeekStart(now)

	events, err := c.api.WeeklyView(ctx, userID, weekStart)
	if err != nil {
		return time.Time{}, err
	}

	if len(events) == 0 {
		if windows, gerr := c.api.GlobalSnapshot(ctx); gerr == nil {
			if fallback, ok := grid.RelevantWeekStart(windows, now); ok && !fallback.Equal(weekStart) {
				c.log.Debug("current week empty, falling back",
					zap.Time("week", fallback))
				weekStart = fallback
				if events, err = c.api.WeeklyView(ctx, userID, weekStart); err != nil {
					return time.Time{}, err
				}
			}
		}
	}

	if window := grid.DeriveWindow(events); window != c.state.Grid() {
		c.rebuild(window)
	}

	c.rec.SetContext(grid.ViewContext{UserID: userID, WeekStart: weekStart, Type: reqType})
	if err := c.rec.Refresh(ctx); err != nil {
		return time.Time{}, err
	}
	return weekStart, nil
}

// Toggle flips one cell and returns the new selection size.
func (c *Controller) Toggle(key grid.CellKey) int {
	return c.state.Toggle(key)
}

// Submit runs the pipeline for the current selection.
func (c *Controller) Submit(ctx context.Context, sub grid.Submission) (*grid.Outcome, error) {
	return c.pipe.Submit(ctx, c.state, sub)
}

// Refresh re-fetches the current context.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.rec.Refresh(ctx)
}

// State exposes the slot state for rendering.
func (c *Controller) State() *grid.SlotState { return c.state }

// Context reports the active view context.
func (c *Controller) Context() grid.ViewContext { return c.rec.Context() }

// ValidRange reports the validity window of the loaded week.
func (c *Controller) ValidRange() (time.Time, time.Time, bool) { return c.rec.ValidRange() }

// Members proxies the cached roster for pickers.
func (c *Controller) Members(ctx context.Context) ([]client.Member, error) {
	return c.catalog.Members(ctx)
}
