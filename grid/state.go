/*
state.go - Assigned/selected/binding bookkeeping for one grid view

PURPOSE:
  SlotState is the mutable working set behind one slot grid: which cells
  the backend says are assigned, which cells the operator currently has
  selected, and which backend shift record each assigned cell maps to.

OWNERSHIP:
  - assigned and the shift binding are written ONLY by the reconciler
  - selected is written by user toggles and by the auto-seed step
  - Reset is called on every (user, week, request-type) context switch

SlotState performs no validation: Toggle flips membership blindly, and the
submission pipeline enforces the request-type rules at submit time. This is
in-memory bookkeeping only; there are no failure modes.
*/
package grid

import "sort"

// SlotState tracks the three overlapping cell sets for one view context.
// It is not safe for concurrent use; the owning view (or the reconciler's
// lock) serializes access.
type SlotState struct {
	grid     WeekGrid
	assigned map[CellKey]struct{}
	selected map[CellKey]struct{}
	binding  map[CellKey]ShiftID
}

// NewSlotState creates an empty state scoped to one grid.
func NewSlotState(g WeekGrid) *SlotState {
	return &SlotState{
		grid:     g,
		assigned: make(map[CellKey]struct{}),
		selected: make(map[CellKey]struct{}),
		binding:  make(map[CellKey]ShiftID),
	}
}

// Grid returns the hour window this state is scoped to.
func (s *SlotState) Grid() WeekGrid { return s.grid }

// Toggle flips membership of key in the selected set and returns the new
// selection size for preview rendering. No validation happens here.
func (s *SlotState) Toggle(key CellKey) int {
	if _, ok := s.selected[key]; ok {
		delete(s.selected, key)
	} else {
		s.selected[key] = struct{}{}
	}
	return len(s.selected)
}

// MarkAssigned records a backend-confirmed assignment for key. Called only
// by the reconciler while applying a weekly-view response.
func (s *SlotState) MarkAssigned(key CellKey, shiftID ShiftID) {
	s.assigned[key] = struct{}{}
	if shiftID != "" {
		s.binding[key] = shiftID
	}
}

// SeedSelectedFromAssigned resets the working selection to exactly the
// assigned set, so the default view shows "what is already true" and an
// operator editing one day does not accidentally de-assign the rest of
// the week.
func (s *SlotState) SeedSelectedFromAssigned() {
	s.selected = make(map[CellKey]struct{}, len(s.assigned))
	for key := range s.assigned {
		s.selected[key] = struct{}{}
	}
}

// Reset clears all three sets. Called on context switch.
func (s *SlotState) Reset() {
	s.assigned = make(map[CellKey]struct{})
	s.selected = make(map[CellKey]struct{})
	s.binding = make(map[CellKey]ShiftID)
}

// IsAssigned reports whether the backend recorded key as assigned.
func (s *SlotState) IsAssigned(key CellKey) bool {
	_, ok := s.assigned[key]
	return ok
}

// IsSelected reports whether key is in the current working selection.
func (s *SlotState) IsSelected(key CellKey) bool {
	_, ok := s.selected[key]
	return ok
}

// Binding returns the backend shift record an assigned cell maps to.
func (s *SlotState) Binding(key CellKey) (ShiftID, bool) {
	id, ok := s.binding[key]
	return id, ok
}

// BindingMap returns a copy of the full cell-to-shift mapping.
func (s *SlotState) BindingMap() map[CellKey]ShiftID {
	out := make(map[CellKey]ShiftID, len(s.binding))
	for k, v := range s.binding {
		out[k] = v
	}
	return out
}

// Selected returns the working selection in deterministic weekday/hour order.
func (s *SlotState) Selected() []CellKey {
	return sortedKeys(s.selected)
}

// Assigned returns the backend-confirmed set in deterministic order.
func (s *SlotState) Assigned() []CellKey {
	return sortedKeys(s.assigned)
}

// SelectionSize returns the number of currently selected cells.
func (s *SlotState) SelectionSize() int { return len(s.selected) }

// AssignedSize returns the number of backend-confirmed cells.
func (s *SlotState) AssignedSize() int { return len(s.assigned) }

func sortedKeys(set map[CellKey]struct{}) []CellKey {
	keys := make([]CellKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return cellLess(keys[i], keys[j]) })
	return keys
}

// cellLess orders keys by weekday then hour. Malformed keys sort last so a
// stray value cannot shuffle valid cells; they cannot be produced through
// the grid API.
func cellLess(a, b CellKey) bool {
	da, ha, errA := ParseCellKey(a)
	db, hb, errB := ParseCellKey(b)
	if errA != nil || errB != nil {
		return errB != nil && errA == nil
	}
	if da != db {
		return da < db
	}
	return ha < hb
}
