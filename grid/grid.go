/*
Package grid provides the weekly slot-selection engine.

PURPOSE:
  This package contains the schedule-agnostic model behind both the admin
  bulk-assignment view and the member leave/extra-work request view. A week
  is a fixed template of (weekday x hour) cells; the engine tracks which
  cells the backend reports as assigned, which cells the operator currently
  has selected, compresses selections into contiguous hour ranges for
  submission, and reconciles local state against backend truth.

KEY CONCEPTS IN THIS FILE (grid.go):
  - Weekday: Monday-based day index (Mon=0 .. Sun=6)
  - WeekGrid: the visible business-hour window, fixed per view
  - CellKey: canonical "<weekday>-<hour>" identity for one cell

DESIGN PRINCIPLES:
  1. Purity: identity and enumeration functions have no side effects
  2. Bijection: CellKey and ParseCellKey are exact inverses inside bounds
  3. No rendering: the DOM/terminal layer subscribes to state, never the
     other way around

SEE ALSO:
  - state.go: assigned/selected/binding bookkeeping
  - compress.go: contiguous-range compression
  - reconcile.go: backend reconciliation with staleness guard
  - submit.go: validation and bulk submission
*/
package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// WEEKDAY - Monday-based day index
// =============================================================================

// Weekday is a Monday-based day-of-week index. This deliberately differs
// from time.Weekday (Sunday-based); use DateToWeekdayIndex to convert.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// Valid reports whether d is inside Mon..Sun.
func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

// Weekdays returns all seven days in display order, Monday first.
func Weekdays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// =============================================================================
// WEEK GRID - Fixed weekly template of (weekday x hour) cells
// =============================================================================

const (
	// Default business-hour window, [DefaultStartHour, DefaultEndHour).
	DefaultStartHour = 9
	DefaultEndHour   = 18
)

// WeekGrid is the immutable weekly template: seven weekdays crossed with a
// bounded hour window [StartHour, EndHour). Construction parameters are
// configuration, not user input, so there is no error path; degenerate
// windows fall back to the default.
type WeekGrid struct {
	StartHour int
	EndHour   int
}

// NewWeekGrid builds a grid for the given hour window. A window where
// start >= end falls back to the default business hours.
func NewWeekGrid(startHour, endHour int) WeekGrid {
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return WeekGrid{StartHour: DefaultStartHour, EndHour: DefaultEndHour}
	}
	return WeekGrid{StartHour: startHour, EndHour: endHour}
}

// DefaultGrid returns the standard 9..18 window.
func DefaultGrid() WeekGrid {
	return WeekGrid{StartHour: DefaultStartHour, EndHour: DefaultEndHour}
}

// Hours enumerates the visible hours in ascending order.
func (g WeekGrid) Hours() []int {
	hours := make([]int, 0, g.EndHour-g.StartHour)
	for h := g.StartHour; h < g.EndHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// HourCount returns the number of visible hour rows.
func (g WeekGrid) HourCount() int { return g.EndHour - g.StartHour }

// Contains reports whether (weekday, hour) is a cell of this grid.
func (g WeekGrid) Contains(d Weekday, hour int) bool {
	return d.Valid() && hour >= g.StartHour && hour < g.EndHour
}

// Cells enumerates every cell key, weekday-major then hour-ascending.
func (g WeekGrid) Cells() []CellKey {
	cells := make([]CellKey, 0, 7*g.HourCount())
	for _, d := range Weekdays() {
		for h := g.StartHour; h < g.EndHour; h++ {
			cells = append(cells, CellKeyFor(d, h))
		}
	}
	return cells
}

// =============================================================================
// CELL KEY - Canonical "<weekday>-<hour>" cell identity
// =============================================================================

// CellKey identifies one (weekday, hour) cell as "<weekdayIndex>-<hour>",
// e.g. "0-9" for Monday 09:00.
type CellKey string

// CellKeyFor builds the canonical key for a (weekday, hour) pair.
func CellKeyFor(d Weekday, hour int) CellKey {
	return CellKey(strconv.Itoa(int(d)) + "-" + strconv.Itoa(hour))
}

// CellKey builds a key for a cell of this grid. Identical to CellKeyFor;
// the method form reads better next to Contains.
func (g WeekGrid) CellKey(d Weekday, hour int) CellKey {
	return CellKeyFor(d, hour)
}

// ParseCellKey is the exact inverse of CellKeyFor. It fails only on keys
// that CellKeyFor could not have produced.
func ParseCellKey(key CellKey) (Weekday, int, error) {
	day, hour, ok := strings.Cut(string(key), "-")
	if !ok {
		return 0, 0, fmt.Errorf("malformed cell key %q", key)
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed cell key %q: %w", key, err)
	}
	h, err := strconv.Atoi(hour)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed cell key %q: %w", key, err)
	}
	if !Weekday(d).Valid() {
		return 0, 0, fmt.Errorf("cell key %q: weekday out of range", key)
	}
	return Weekday(d), h, nil
}

// DeriveWindow computes a visible hour window from a set of events, the way
// the console sizes its timetable: start at the earliest whole hour touched,
// end at the latest, clamped to the default business window. Degenerate or
// empty input yields the default grid.
func DeriveWindow(events []AssignmentEvent) WeekGrid {
	if len(events) == 0 {
		return DefaultGrid()
	}
	minMin, maxMin := events[0].StartMinute, events[0].EndMinute
	for _, ev := range events[1:] {
		if ev.StartMinute < minMin {
			minMin = ev.StartMinute
		}
		if ev.EndMinute > maxMin {
			maxMin = ev.EndMinute
		}
	}
	start := minMin / 60
	if start < DefaultStartHour {
		start = DefaultStartHour
	}
	end := (maxMin + 59) / 60
	if end > DefaultEndHour {
		end = DefaultEndHour
	}
	if start >= end {
		return DefaultGrid()
	}
	return WeekGrid{StartHour: start, EndHour: end}
}
