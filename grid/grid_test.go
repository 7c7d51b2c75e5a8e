package grid_test

import (
	"testing"
	"time"

	"github.com/meridian/shiftboard/grid"
)

// =============================================================================
// CELL KEY ROUND-TRIP
// =============================================================================

func TestCellKey_RoundTrip(t *testing.T) {
	// GIVEN: every (weekday, hour) pair of a grid
	// THEN: ParseCellKey(CellKey(w, h)) == (w, h)

	g := grid.NewWeekGrid(8, 22)
	for _, d := range grid.Weekdays() {
		for _, h := range g.Hours() {
			key := g.CellKey(d, h)
			pd, ph, err := grid.ParseCellKey(key)
			if err != nil {
				t.Fatalf("ParseCellKey(%q): %v", key, err)
			}
			if pd != d || ph != h {
				t.Errorf("round trip (%v,%d) -> %q -> (%v,%d)", d, h, key, pd, ph)
			}
		}
	}
}

func TestCellKey_Bijection(t *testing.T) {
	g := grid.DefaultGrid()
	seen := make(map[grid.CellKey]bool)
	for _, key := range g.Cells() {
		if seen[key] {
			t.Errorf("duplicate cell key %q", key)
		}
		seen[key] = true
	}
	if len(seen) != 7*g.HourCount() {
		t.Errorf("expected %d distinct cells, got %d", 7*g.HourCount(), len(seen))
	}
}

func TestParseCellKey_Malformed(t *testing.T) {
	for _, key := range []grid.CellKey{"", "0", "a-9", "0-b", "7-9", "-1-9", "0-9-1"} {
		if _, _, err := grid.ParseCellKey(key); err == nil {
			t.Errorf("ParseCellKey(%q) should fail", key)
		}
	}
}

// =============================================================================
// GRID WINDOW
// =============================================================================

func TestNewWeekGrid_DegenerateFallsBack(t *testing.T) {
	cases := []struct{ start, end int }{
		{18, 9},
		{9, 9},
		{-1, 12},
		{9, 25},
	}
	for _, c := range cases {
		g := grid.NewWeekGrid(c.start, c.end)
		if g.StartHour != grid.DefaultStartHour || g.EndHour != grid.DefaultEndHour {
			t.Errorf("NewWeekGrid(%d,%d) = %+v, want default window", c.start, c.end, g)
		}
	}
}

func TestWeekGrid_Contains(t *testing.T) {
	g := grid.NewWeekGrid(9, 18)
	if !g.Contains(grid.Monday, 9) || !g.Contains(grid.Sunday, 17) {
		t.Error("bounds should be inside the grid")
	}
	if g.Contains(grid.Monday, 18) {
		t.Error("EndHour is exclusive")
	}
	if g.Contains(grid.Monday, 8) || g.Contains(grid.Weekday(7), 10) {
		t.Error("out-of-window cells must not be contained")
	}
}

func TestDeriveWindow(t *testing.T) {
	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	// Events spanning 10:30..16:00 derive a 10..16 window.
	events := []grid.AssignmentEvent{
		{Date: day, StartMinute: 10*60 + 30, EndMinute: 14 * 60},
		{Date: day, StartMinute: 13 * 60, EndMinute: 16 * 60},
	}
	g := grid.DeriveWindow(events)
	if g.StartHour != 10 || g.EndHour != 16 {
		t.Errorf("derived window = %+v, want 10..16", g)
	}

	// Early/late events clamp to the default business window.
	clamped := grid.DeriveWindow([]grid.AssignmentEvent{
		{Date: day, StartMinute: 6 * 60, EndMinute: 23 * 60},
	})
	if clamped != grid.DefaultGrid() {
		t.Errorf("clamped window = %+v, want default", clamped)
	}

	if grid.DeriveWindow(nil) != grid.DefaultGrid() {
		t.Error("no events should derive the default window")
	}
}
