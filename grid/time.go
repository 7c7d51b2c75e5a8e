package grid

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// CALENDAR HELPERS - Monday-based week math
// =============================================================================

// DateToWeekdayIndex converts a calendar date to the Monday-based index the
// grid uses. time.Weekday counts Sunday=0; the rotation below is the single
// place that conversion happens.
func DateToWeekdayIndex(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// WeekStart returns the Monday of the week containing t, truncated to the
// date (midnight, t's location).
func WeekStart(t time.Time) time.Time {
	back := int(DateToWeekdayIndex(t))
	d := t.AddDate(0, 0, -back)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NextWeekdayOnOrAfter returns the first date on or after t that falls on d.
func NextWeekdayOnOrAfter(t time.Time, d Weekday) time.Time {
	delta := (int(d) - int(DateToWeekdayIndex(t)) + 7) % 7
	return DateOnly(t).AddDate(0, 0, delta)
}

// PreviousWeekdayOnOrBefore returns the last date on or before t that falls on d.
func PreviousWeekdayOnOrBefore(t time.Time, d Weekday) time.Time {
	delta := (int(DateToWeekdayIndex(t)) - int(d) + 7) % 7
	return DateOnly(t).AddDate(0, 0, -delta)
}

// =============================================================================
// VALIDITY WINDOW - Recurring weekly assignment occurrence math
// =============================================================================

// ValidityWindow describes one recurring weekly assignment: its weekday and
// the date range it is valid for. ValidTo nil means open-ended.
type ValidityWindow struct {
	Weekday   Weekday
	ValidFrom time.Time
	ValidTo   *time.Time
}

// OccurrenceOnOrAfter returns the first concrete occurrence of the window's
// weekday on or after ref, clipped to the validity range. ok is false when
// no occurrence exists.
func (w ValidityWindow) OccurrenceOnOrAfter(ref time.Time) (time.Time, bool) {
	start := DateOnly(ref)
	if from := DateOnly(w.ValidFrom); start.Before(from) {
		start = from
	}
	candidate := NextWeekdayOnOrAfter(start, w.Weekday)
	if w.ValidTo != nil && candidate.After(DateOnly(*w.ValidTo)) {
		return time.Time{}, false
	}
	return candidate, true
}

// OccurrenceOnOrBefore returns the last concrete occurrence of the window's
// weekday on or before ref, clipped to the validity range.
func (w ValidityWindow) OccurrenceOnOrBefore(ref time.Time) (time.Time, bool) {
	end := DateOnly(ref)
	if w.ValidTo != nil {
		if to := DateOnly(*w.ValidTo); to.Before(end) {
			end = to
		}
	}
	candidate := PreviousWeekdayOnOrBefore(end, w.Weekday)
	if candidate.Before(DateOnly(w.ValidFrom)) {
		return time.Time{}, false
	}
	return candidate, true
}

// RelevantWeekStart picks the week the console should open on when the
// current week is empty: the week of the next upcoming occurrence across
// all windows, else the week of the most recent past occurrence, else the
// week of the earliest validity start. ok is false for no windows at all.
func RelevantWeekStart(windows []ValidityWindow, now time.Time) (time.Time, bool) {
	if len(windows) == 0 {
		return time.Time{}, false
	}
	today := DateOnly(now)

	var next, last time.Time
	for _, w := range windows {
		if up, ok := w.OccurrenceOnOrAfter(today); ok {
			if next.IsZero() || up.Before(next) {
				next = up
			}
		}
		if prev, ok := w.OccurrenceOnOrBefore(today); ok {
			if last.IsZero() || prev.After(last) {
				last = prev
			}
		}
	}

	switch {
	case !next.IsZero():
		return WeekStart(next), true
	case !last.IsZero():
		return WeekStart(last), true
	}

	earliest := windows[0].ValidFrom
	for _, w := range windows[1:] {
		if w.ValidFrom.Before(earliest) {
			earliest = w.ValidFrom
		}
	}
	return WeekStart(earliest), true
}

// =============================================================================
// CLOCK TIME - "HH:MM[:SS]" <-> minutes from midnight
// =============================================================================

// ParseClock parses "HH:MM" or "HH:MM:SS" into minutes from midnight.
// Seconds are ignored; the grid works at hour granularity and the backend
// reports times on minute boundaries.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("malformed clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed clock time %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed clock time %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
