/*
schedule.go - Schedule reads and writes

The Client satisfies the grid package's collaborator interfaces here:
weekly view fetches for the reconciler, slot ensuring and assignment
writes for the submission pipeline.
*/
package client

import (
	"context"
	"net/url"
	"time"

	"github.com/meridian/shiftboard/grid"
)

// Compile-time checks that the Client plugs into the grid engine.
var (
	_ grid.ScheduleReader   = (*Client)(nil)
	_ grid.SlotEnsurer      = (*Client)(nil)
	_ grid.BulkAssigner     = (*Client)(nil)
	_ grid.RangeAssigner    = (*Client)(nil)
	_ grid.RequestSubmitter = (*Client)(nil)
)

// =============================================================================
// READS
// =============================================================================

// WeeklyView returns the merged schedule for one user and one week.
// An empty userID asks for the caller's own view.
func (c *Client) WeeklyView(ctx context.Context, userID string, weekStart time.Time) ([]grid.AssignmentEvent, error) {
	query := url.Values{"start": {weekStart.Format(wireDate)}}
	if userID != "" {
		query.Set("user_id", userID)
	}
	var raw []wireEvent
	if err := c.get(ctx, "/schedule/weekly_view", query, &raw); err != nil {
		return nil, err
	}
	return decodeEvents(raw)
}

// WeeklyBase returns only the recurring base assignments, no overlays.
func (c *Client) WeeklyBase(ctx context.Context, userID string, weekStart time.Time) ([]grid.AssignmentEvent, error) {
	query := url.Values{"start": {weekStart.Format(wireDate)}}
	if userID != "" {
		query.Set("user_id", userID)
	}
	var raw []wireEvent
	if err := c.get(ctx, "/schedule/weekly_base", query, &raw); err != nil {
		return nil, err
	}
	return decodeEvents(raw)
}

func decodeEvents(raw []wireEvent) ([]grid.AssignmentEvent, error) {
	events := make([]grid.AssignmentEvent, 0, len(raw))
	for _, w := range raw {
		ev, err := w.toEvent()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// GlobalSnapshot returns every active assignment's validity window,
// used to pick the first week where someone is actually scheduled.
func (c *Client) GlobalSnapshot(ctx context.Context) ([]grid.ValidityWindow, error) {
	var raw []struct {
		Weekday   int    `json:"weekday"`
		ValidFrom string `json:"valid_from,omitempty"`
		ValidTo   string `json:"valid_to,omitempty"`
	}
	if err := c.get(ctx, "/schedule/global", nil, &raw); err != nil {
		return nil, err
	}
	windows := make([]grid.ValidityWindow, 0, len(raw))
	for _, r := range raw {
		w := grid.ValidityWindow{Weekday: grid.Weekday(r.Weekday)}
		if r.ValidFrom != "" {
			if from, err := time.Parse(wireDate, r.ValidFrom); err == nil {
				w.ValidFrom = from
			}
		}
		if r.ValidTo != "" {
			if to, err := time.Parse(wireDate, r.ValidTo); err == nil {
				w.ValidTo = &to
			}
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// ListShifts returns every shift template, recurring or one-off.
func (c *Client) ListShifts(ctx context.Context) ([]ShiftTemplate, error) {
	var out []ShiftTemplate
	if err := c.get(ctx, "/schedule/shifts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateShift registers a new shift template.
func (c *Client) CreateShift(ctx context.Context, in ShiftTemplate) (ShiftTemplate, error) {
	var out ShiftTemplate
	if err := c.post(ctx, "/schedule/shifts", in, &out); err != nil {
		return ShiftTemplate{}, err
	}
	return out, nil
}

// =============================================================================
// WRITES
// =============================================================================

// EnsureSlot finds or creates the shift template covering one hour run
// on one weekday and returns its id.
func (c *Client) EnsureSlot(ctx context.Context, day grid.Weekday, startHour, endHour int) (grid.ShiftID, error) {
	body := map[string]int{
		"weekday":    int(day),
		"start_hour": startHour,
		"end_hour":   endHour,
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/schedule/shifts/ensure", body, &out); err != nil {
		return "", err
	}
	return grid.ShiftID(out.ID), nil
}

// BulkAssign writes a whole selection in one call. The backend applies
// it atomically; a rejected call leaves the schedule untouched.
func (c *Client) BulkAssign(ctx context.Context, ba grid.BulkAssignment) error {
	body := struct {
		UserID         string      `json:"user_id"`
		ValidFrom      string      `json:"valid_from"`
		ValidTo        *string     `json:"valid_to,omitempty"`
		Ranges         []wireRange `json:"ranges"`
		IdempotencyKey string      `json:"idempotency_key,omitempty"`
	}{
		UserID:         ba.UserID,
		ValidFrom:      ba.ValidFrom.Format(wireDate),
		ValidTo:        wireDatePtr(ba.ValidTo),
		Ranges:         toWireRanges(ba.Ranges),
		IdempotencyKey: ba.IdempotencyKey,
	}
	return c.post(ctx, "/schedule/assign/bulk", body, nil)
}

// AssignRange writes a single range. The pipeline falls back to this
// when the bulk endpoint is unavailable.
func (c *Client) AssignRange(ctx context.Context, userID string, validFrom time.Time, validTo *time.Time, rng grid.Range) error {
	body := struct {
		UserID    string  `json:"user_id"`
		ValidFrom string  `json:"valid_from"`
		ValidTo   *string `json:"valid_to,omitempty"`
		Weekday   int     `json:"weekday"`
		StartHour int     `json:"start_hour"`
		EndHour   int     `json:"end_hour"`
		ShiftID   string  `json:"shift_id,omitempty"`
	}{
		UserID:    userID,
		ValidFrom: validFrom.Format(wireDate),
		ValidTo:   wireDatePtr(validTo),
		Weekday:   int(rng.Weekday),
		StartHour: rng.StartHour,
		EndHour:   rng.EndHour,
		ShiftID:   string(rng.ShiftID),
	}
	return c.post(ctx, "/schedule/assign", body, nil)
}

// SubmitRequest files a leave or extra-work request for approval.
func (c *Client) SubmitRequest(ctx context.Context, sub grid.RequestSubmission) error {
	body := struct {
		Type           string      `json:"type"`
		UserID         string      `json:"user_id,omitempty"`
		TargetDate     string      `json:"target_date"`
		ShiftIDs       []string    `json:"shift_ids,omitempty"`
		Ranges         []wireRange `json:"ranges,omitempty"`
		Reason         string      `json:"reason,omitempty"`
		IdempotencyKey string      `json:"idempotency_key,omitempty"`
	}{
		Type:           string(sub.Type),
		UserID:         sub.UserID,
		TargetDate:     sub.TargetDate.Format(wireDate),
		Reason:         sub.Reason,
		IdempotencyKey: sub.IdempotencyKey,
		Ranges:         toWireRanges(sub.Ranges),
	}
	for _, id := range sub.ShiftIDs {
		body.ShiftIDs = append(body.ShiftIDs, string(id))
	}
	return c.post(ctx, "/requests", body, nil)
}

func wireDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(wireDate)
	return &s
}
