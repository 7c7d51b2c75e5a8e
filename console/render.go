package console

import (
	"fmt"
	"strings"

	"github.com/meridian/shiftboard/grid"
)

// Cell glyphs: assigned and selected, assigned but deselected, newly
// selected, empty.
const (
	glyphAssigned   = "[#]"
	glyphDeselected = "[-]"
	glyphSelected   = "[+]"
	glyphEmpty      = "[ ]"
)

// RenderGrid draws the weekly grid as fixed-width text, hours down,
// days across.
func RenderGrid(state *grid.SlotState) string {
	g := state.Grid()
	var b strings.Builder

	b.WriteString("      ")
	for _, day := range grid.Weekdays() {
		fmt.Fprintf(&b, " %-3s", day.String()[:3])
	}
	b.WriteByte('\n')

	for _, hour := range g.Hours() {
		fmt.Fprintf(&b, "%02d:00 ", hour)
		for _, day := range grid.Weekdays() {
			key := g.CellKey(day, hour)
			b.WriteByte(' ')
			b.WriteString(cellGlyph(state, key))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func cellGlyph(state *grid.SlotState, key grid.CellKey) string {
	assigned := state.IsAssigned(key)
	selected := state.IsSelected(key)
	switch {
	case assigned && selected:
		return glyphAssigned
	case assigned:
		return glyphDeselected
	case selected:
		return glyphSelected
	default:
		return glyphEmpty
	}
}

// RenderSummary is the one-line selection footer under the grid.
func RenderSummary(state *grid.SlotState) string {
	return grid.Summarize(state).Preview()
}
