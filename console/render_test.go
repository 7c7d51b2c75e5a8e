package console

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridian/shiftboard/grid"
)

func TestRenderGridGlyphs(t *testing.T) {
	state := grid.NewSlotState(grid.DefaultGrid())
	state.MarkAssigned("0-9", "s-1")  // assigned, not selected
	state.MarkAssigned("0-10", "s-1") // assigned and selected
	state.Toggle("0-10")
	state.Toggle("2-13") // newly selected

	out := RenderGrid(state)
	lines := strings.Split(out, "\n")

	assert.Contains(t, lines[0], "Mon")
	assert.Contains(t, lines[0], "Sun")

	// Row 09:00 carries the deselected-assigned glyph under Monday.
	row9 := lines[1]
	assert.True(t, strings.HasPrefix(row9, "09:00"))
	assert.Contains(t, row9, glyphDeselected)

	row10 := lines[2]
	assert.Contains(t, row10, glyphAssigned)

	row13 := lines[5]
	assert.True(t, strings.HasPrefix(row13, "13:00"))
	assert.Contains(t, row13, glyphSelected)
}

func TestRenderSummaryEmpty(t *testing.T) {
	state := grid.NewSlotState(grid.DefaultGrid())
	assert.Equal(t, "no slots selected", RenderSummary(state))
}
