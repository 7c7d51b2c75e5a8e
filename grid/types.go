package grid

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

// ShiftID identifies a backend shift template record.
type ShiftID string

// =============================================================================
// REQUEST TYPE - What a submission means
// =============================================================================

type RequestType string

const (
	// RequestAssign is an admin bulk assignment of base working hours.
	RequestAssign RequestType = "ASSIGN"

	// RequestAbsence asks to be released from hours that are currently
	// assigned. Every selected cell must map to an existing shift.
	RequestAbsence RequestType = "ABSENCE"

	// RequestExtra asks for additional hours on top of the base schedule.
	// Every selected cell must currently be unassigned.
	RequestExtra RequestType = "EXTRA"
)

// =============================================================================
// EVENT SOURCE
// =============================================================================

// Source tags where a reported assignment came from.
type Source string

const (
	SourceBase  Source = "BASE"  // recurring base-schedule assignment
	SourceExtra Source = "EXTRA" // approved extra-work occurrence
)

// =============================================================================
// RANGE - Maximal contiguous run of selected hours on one weekday
// =============================================================================

// Range is one maximal contiguous block of hours on a single weekday,
// the unit sent to the backend. EndHour is exclusive: 9..12 covers the
// 9, 10 and 11 o'clock cells. ShiftID is set only when the range was
// compressed binding-aware (absence requests).
type Range struct {
	Weekday   Weekday
	StartHour int
	EndHour   int
	ShiftID   ShiftID
}

// HourCount returns the number of hour cells the range covers.
func (r Range) HourCount() int { return r.EndHour - r.StartHour }

// Cells expands the range back into its cell keys.
func (r Range) Cells() []CellKey {
	cells := make([]CellKey, 0, r.HourCount())
	for h := r.StartHour; h < r.EndHour; h++ {
		cells = append(cells, CellKeyFor(r.Weekday, h))
	}
	return cells
}

// SameSpan reports whether two ranges cover the same (weekday, hours) block,
// ignoring the shift binding. Used to deduplicate ensure-slot calls.
func (r Range) SameSpan(other Range) bool {
	return r.Weekday == other.Weekday &&
		r.StartHour == other.StartHour &&
		r.EndHour == other.EndHour
}

// =============================================================================
// ASSIGNMENT EVENT - One backend-reported weekly-view record
// =============================================================================

// AssignmentEvent is the unit returned by the weekly-view fetch: one
// occurrence of a shift on a concrete date. Times are minutes from
// midnight so the hour-cell intersection stays integer arithmetic.
// ValidFrom/ValidTo carry the underlying assignment's validity window
// when the backend reports it (BASE records).
type AssignmentEvent struct {
	Date        time.Time
	StartMinute int
	EndMinute   int
	ShiftID     ShiftID
	UserName    string
	Source      Source

	ValidFrom *time.Time
	ValidTo   *time.Time
}

// OverlapsHour reports whether the event touches the hour cell [h:00, h+1:00).
func (ev AssignmentEvent) OverlapsHour(hour int) bool {
	hourStart := hour * 60
	hourEnd := hourStart + 60
	return ev.EndMinute > hourStart && ev.StartMinute < hourEnd
}
