package grid_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/shiftboard/grid"
)

func TestSummarize(t *testing.T) {
	st := selectedState(
		grid.CellKeyFor(grid.Monday, 9),
		grid.CellKeyFor(grid.Monday, 10),
		grid.CellKeyFor(grid.Monday, 11),
		grid.CellKeyFor(grid.Monday, 13),
		grid.CellKeyFor(grid.Wednesday, 10),
	)

	s := grid.Summarize(st)

	require.Len(t, s.Ranges, 3)
	assert.True(t, s.TotalHours.Equal(decimal.NewFromInt(5)), "total = %s", s.TotalHours)
	assert.True(t, s.HoursByDay[grid.Monday].Equal(decimal.NewFromInt(4)))
	assert.True(t, s.HoursByDay[grid.Wednesday].Equal(decimal.NewFromInt(1)))
}

func TestSummary_Preview(t *testing.T) {
	st := selectedState(
		grid.CellKeyFor(grid.Monday, 9),
		grid.CellKeyFor(grid.Monday, 10),
		grid.CellKeyFor(grid.Monday, 11),
		grid.CellKeyFor(grid.Monday, 13),
		grid.CellKeyFor(grid.Wednesday, 10),
	)

	got := grid.Summarize(st).Preview()
	assert.Equal(t, "Mon 09:00-12:00, 13:00-14:00 · Wed 10:00-11:00 (5h)", got)

	empty := grid.Summarize(grid.NewSlotState(grid.DefaultGrid()))
	assert.Equal(t, "no slots selected", empty.Preview())
}
