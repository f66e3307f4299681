package gridcalc

import (
	"fmt"
	"strings"
)

// Describe returns a human-readable tree of the workbook: each sheet with
// its used range, followed by its formula cells and what they currently show.
// Useful for debugging workbooks during development.
func Describe(wb *Workbook) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Workbook: %d sheet(s)\n", wb.Len())
	for i := 0; i < wb.Len(); i++ {
		describeSheet(&b, wb.Sheet(i))
	}
	return b.String()
}

// describeSheet writes one sheet and its formula cells.
func describeSheet(b *strings.Builder, s *Sheet) {
	// Sheet header: Sheet1 A1:C10 (12 cells, 3 formulas)
	formulas := 0
	for _, addr := range s.Addresses() {
		if c, _ := s.Cell(addr); c.IsFormula() {
			formulas++
		}
	}
	if s.Len() == 0 {
		fmt.Fprintf(b, "  %s (empty)\n", s.Name)
		return
	}
	fmt.Fprintf(b, "  %s A1:%s (%d cells, %d formulas)\n", s.Name, s.Bounds(), s.Len(), formulas)

	for _, addr := range s.Addresses() {
		c, _ := s.Cell(addr)
		if !c.IsFormula() {
			continue
		}
		shown := c.Content.String()
		if IsErrorMarker(shown) {
			shown += " (error)"
		}
		fmt.Fprintf(b, "    %s %s → %s\n", addr, c.Formula, shown)
	}
}
