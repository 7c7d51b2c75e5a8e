package grid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/shiftboard/grid"
)

func TestSlotState_Toggle(t *testing.T) {
	st := grid.NewSlotState(grid.DefaultGrid())
	key := grid.CellKeyFor(grid.Monday, 9)

	assert.Equal(t, 1, st.Toggle(key), "first toggle selects")
	assert.True(t, st.IsSelected(key))

	assert.Equal(t, 0, st.Toggle(key), "second toggle deselects")
	assert.False(t, st.IsSelected(key))
}

func TestSlotState_MarkAssignedAndBinding(t *testing.T) {
	st := grid.NewSlotState(grid.DefaultGrid())
	key := grid.CellKeyFor(grid.Tuesday, 10)

	st.MarkAssigned(key, "shift-7")

	assert.True(t, st.IsAssigned(key))
	id, ok := st.Binding(key)
	require.True(t, ok)
	assert.Equal(t, grid.ShiftID("shift-7"), id)

	// Binding keys stay a subset of assigned: an empty shift id marks the
	// cell assigned without recording a binding.
	bare := grid.CellKeyFor(grid.Tuesday, 11)
	st.MarkAssigned(bare, "")
	assert.True(t, st.IsAssigned(bare))
	_, ok = st.Binding(bare)
	assert.False(t, ok)

	for bound := range st.BindingMap() {
		assert.True(t, st.IsAssigned(bound), "binding key %s must be assigned", bound)
	}
}

func TestSlotState_SeedSelectedFromAssigned(t *testing.T) {
	st := grid.NewSlotState(grid.DefaultGrid())
	st.MarkAssigned(grid.CellKeyFor(grid.Monday, 9), "s1")
	st.MarkAssigned(grid.CellKeyFor(grid.Friday, 17), "s2")

	// A stray manual selection is replaced wholesale by the seed.
	st.Toggle(grid.CellKeyFor(grid.Wednesday, 12))
	st.SeedSelectedFromAssigned()

	assert.Equal(t, st.Assigned(), st.Selected(), "selection must equal assigned after seeding")
}

func TestSlotState_Reset(t *testing.T) {
	st := grid.NewSlotState(grid.DefaultGrid())
	st.MarkAssigned(grid.CellKeyFor(grid.Monday, 9), "s1")
	st.SeedSelectedFromAssigned()
	st.Toggle(grid.CellKeyFor(grid.Monday, 10))

	st.Reset()

	assert.Zero(t, st.SelectionSize())
	assert.Zero(t, st.AssignedSize())
	assert.Empty(t, st.BindingMap())
}

func TestSlotState_SelectedOrdering(t *testing.T) {
	st := grid.NewSlotState(grid.DefaultGrid())
	st.Toggle(grid.CellKeyFor(grid.Friday, 9))
	st.Toggle(grid.CellKeyFor(grid.Monday, 13))
	st.Toggle(grid.CellKeyFor(grid.Monday, 9))

	want := []grid.CellKey{
		grid.CellKeyFor(grid.Monday, 9),
		grid.CellKeyFor(grid.Monday, 13),
		grid.CellKeyFor(grid.Friday, 9),
	}
	assert.Equal(t, want, st.Selected(), "selection enumerates weekday-major, hour-ascending")
}
