/*
compress.go - Contiguous-range compression of a cell selection

PURPOSE:
  The backend accepts hour ranges, not individual cells. Compress turns a
  set of selected cell keys into the minimal list of maximal contiguous
  [start, end) ranges per weekday, so a full 9..18 day travels as one
  range instead of nine cells.

ALGORITHM:
  Group keys by weekday, sort hours ascending, then a single linear scan
  per weekday: extend the open range while the next hour is prev+1 AND
  (binding-aware mode) the next cell's shift id matches the open range's.
  O(n log n) from the sort; n is bounded by hours x 7.

PROPERTIES (verified in compress_test.go):
  - partition: every input cell appears in exactly one output range
  - maximality: no two adjacent same-binding ranges could merge further
  - idempotence: re-compressing the flattened output reproduces the ranges
  - determinism: output ordered by weekday, then start hour
*/
package grid

import "sort"

// Compress merges a cell selection into maximal contiguous ranges. When
// binding is non-nil, compression is binding-aware: a run breaks wherever
// the bound shift id changes, and each emitted range carries its shift id.
// A selected cell missing from a supplied binding is the caller's error;
// the submission pipeline rejects that state before compression, so here
// an unbound cell simply opens a new unbound range.
//
// Empty input yields an empty (nil) result.
func Compress(selected []CellKey, binding map[CellKey]ShiftID) []Range {
	if len(selected) == 0 {
		return nil
	}

	type cell struct {
		hour  int
		shift ShiftID
	}
	byDay := make(map[Weekday][]cell)
	for _, key := range selected {
		d, h, err := ParseCellKey(key)
		if err != nil {
			// Keys come from the grid's own key space; anything else
			// cannot map to a backend hour and is dropped.
			continue
		}
		var shift ShiftID
		if binding != nil {
			shift = binding[key]
		}
		byDay[d] = append(byDay[d], cell{hour: h, shift: shift})
	}

	days := make([]Weekday, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	var ranges []Range
	for _, d := range days {
		cells := byDay[d]
		sort.Slice(cells, func(i, j int) bool { return cells[i].hour < cells[j].hour })

		open := Range{Weekday: d, StartHour: cells[0].hour, EndHour: cells[0].hour + 1, ShiftID: cells[0].shift}
		for _, c := range cells[1:] {
			if c.hour == open.EndHour-1 {
				// Duplicate hour in input; sets cannot produce this, but a
				// caller-built slice can. Skip rather than double-count.
				continue
			}
			if c.hour == open.EndHour && c.shift == open.ShiftID {
				open.EndHour++
				continue
			}
			ranges = append(ranges, open)
			open = Range{Weekday: d, StartHour: c.hour, EndHour: c.hour + 1, ShiftID: c.shift}
		}
		ranges = append(ranges, open)
	}
	return ranges
}

// Flatten expands ranges back into their cell keys, in range order.
func Flatten(ranges []Range) []CellKey {
	var cells []CellKey
	for _, r := range ranges {
		cells = append(cells, r.Cells()...)
	}
	return cells
}
