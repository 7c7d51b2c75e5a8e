package grid

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SELECTION SUMMARY - Preview of what a submission would send
// =============================================================================

// SelectionSummary is the preview regenerated after every toggle: the
// compressed ranges plus requested-hour totals. Totals are decimal so the
// summary stays exact if the grid ever moves to sub-hour granularity.
type SelectionSummary struct {
	Ranges     []Range
	HoursByDay map[Weekday]decimal.Decimal
	TotalHours decimal.Decimal
}

// Summarize compresses the current selection (binding-agnostic) and totals
// the requested hours per weekday.
func Summarize(state *SlotState) SelectionSummary {
	ranges := Compress(state.Selected(), nil)

	byDay := make(map[Weekday]decimal.Decimal)
	total := decimal.Zero
	for _, r := range ranges {
		hours := decimal.NewFromInt(int64(r.HourCount()))
		byDay[r.Weekday] = byDay[r.Weekday].Add(hours)
		total = total.Add(hours)
	}

	return SelectionSummary{
		Ranges:     ranges,
		HoursByDay: byDay,
		TotalHours: total,
	}
}

// Preview renders the summary as one line, e.g.
// "Mon 09:00-12:00, 13:00-14:00 · Wed 10:00-11:00 (5h)".
// Empty selections render as "no slots selected".
func (s SelectionSummary) Preview() string {
	if len(s.Ranges) == 0 {
		return "no slots selected"
	}

	var b strings.Builder
	var lastDay Weekday = -1
	for i, r := range s.Ranges {
		if r.Weekday != lastDay {
			if i > 0 {
				b.WriteString(" · ")
			}
			b.WriteString(r.Weekday.String())
			b.WriteString(" ")
			lastDay = r.Weekday
		} else {
			b.WriteString(", ")
		}
		b.WriteString(FormatClock(r.StartHour * 60))
		b.WriteString("-")
		b.WriteString(FormatClock(r.EndHour * 60))
	}
	b.WriteString(" (")
	b.WriteString(s.TotalHours.String())
	b.WriteString("h)")
	return b.String()
}
