/*
dto.go - Wire types and their grid-model conversions

The backend speaks dates as "2006-01-02" and clock times as "HH:MM:SS".
The grid engine wants time.Time dates and minutes-from-midnight; the
converters here are the only place those two worlds meet.
*/
package client

import (
	"fmt"
	"time"

	"github.com/meridian/shiftboard/grid"
)

const wireDate = "2006-01-02"

// =============================================================================
// MEMBERS
// =============================================================================

// Member is one console user as the backend reports it.
type Member struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Identifier string `json:"identifier,omitempty"`
	LoginID    string `json:"login_id,omitempty"`
	Role       string `json:"role"`
	Active     bool   `json:"active"`
}

// NewMember is the create payload; the password travels only here.
type NewMember struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier,omitempty"`
	LoginID    string `json:"login_id"`
	Password   string `json:"password"`
	Role       string `json:"role"`
}

// =============================================================================
// SHIFTS
// =============================================================================

// ShiftTemplate is one recurring weekly shift definition.
type ShiftTemplate struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Weekday   int    `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Location  string `json:"location,omitempty"`
}

// =============================================================================
// WEEKLY VIEW EVENTS
// =============================================================================

type wireEvent struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	ShiftID   string `json:"shift_id"`
	UserName  string `json:"user_name,omitempty"`
	Source    string `json:"source,omitempty"`
	ValidFrom string `json:"valid_from,omitempty"`
	ValidTo   string `json:"valid_to,omitempty"`
}

func (w wireEvent) toEvent() (grid.AssignmentEvent, error) {
	date, err := time.Parse(wireDate, w.Date)
	if err != nil {
		return grid.AssignmentEvent{}, fmt.Errorf("event date %q: %w", w.Date, err)
	}
	start, err := grid.ParseClock(w.StartTime)
	if err != nil {
		return grid.AssignmentEvent{}, fmt.Errorf("event start: %w", err)
	}
	end, err := grid.ParseClock(w.EndTime)
	if err != nil {
		return grid.AssignmentEvent{}, fmt.Errorf("event end: %w", err)
	}

	source := grid.Source(w.Source)
	if source == "" {
		source = grid.SourceBase
	}

	ev := grid.AssignmentEvent{
		Date:        date,
		StartMinute: start,
		EndMinute:   end,
		ShiftID:     grid.ShiftID(w.ShiftID),
		UserName:    w.UserName,
		Source:      source,
	}
	if w.ValidFrom != "" {
		if from, err := time.Parse(wireDate, w.ValidFrom); err == nil {
			ev.ValidFrom = &from
		}
	}
	if w.ValidTo != "" {
		if to, err := time.Parse(wireDate, w.ValidTo); err == nil {
			ev.ValidTo = &to
		}
	}
	return ev, nil
}

// =============================================================================
// SUBMISSION PAYLOADS
// =============================================================================

type wireRange struct {
	Weekday   int    `json:"weekday"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
	ShiftID   string `json:"shift_id,omitempty"`
}

func toWireRanges(ranges []grid.Range) []wireRange {
	out := make([]wireRange, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, wireRange{
			Weekday:   int(r.Weekday),
			StartHour: r.StartHour,
			EndHour:   r.EndHour,
			ShiftID:   string(r.ShiftID),
		})
	}
	return out
}

// =============================================================================
// REQUEST WORKFLOW
// =============================================================================

// RequestRecord is one leave/extra-work request in a listing.
type RequestRecord struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name,omitempty"`
	Type       string `json:"type"`
	TargetDate string `json:"target_date"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// =============================================================================
// NOTICES
// =============================================================================

// Notice is one announcement row, admin-scoped fields included.
type Notice struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	Type          string     `json:"type"`
	Channel       string     `json:"channel"`
	Scope         string     `json:"scope"`
	Priority      int        `json:"priority"`
	Active        bool       `json:"is_active"`
	StartAt       *time.Time `json:"start_at,omitempty"`
	EndAt         *time.Time `json:"end_at,omitempty"`
	TargetRoles   []string   `json:"target_roles,omitempty"`
	TargetUserIDs []string   `json:"target_user_ids,omitempty"`
}

// NoticePatch is a partial update; nil fields stay untouched server-side.
type NoticePatch struct {
	Title    *string `json:"title,omitempty"`
	Body     *string `json:"body,omitempty"`
	Priority *int    `json:"priority,omitempty"`
	Active   *bool   `json:"is_active,omitempty"`
}

// =============================================================================
// HISTORY
// =============================================================================

// HistoryEntry is one action-log row.
type HistoryEntry struct {
	CreatedAt   time.Time      `json:"created_at"`
	ActionType  string         `json:"action_type"`
	ActionLabel string         `json:"action_label,omitempty"`
	ActorName   string         `json:"actor_name,omitempty"`
	TargetName  string         `json:"target_name,omitempty"`
	RequestID   string         `json:"request_id,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}
