package gridcalc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe_Workbook(t *testing.T) {
	g := NewGrid(NewWorkbook("Sheet1", "Sheet2"))
	enterAt(t, g, "A1", "5")
	enterAt(t, g, "B1", "=A1")
	enterAt(t, g, "C1", "=SUM(C1)")

	want := "Workbook: 2 sheet(s)\n" +
		"  Sheet1 A1:C1 (3 cells, 2 formulas)\n" +
		"    B1 =A1 → 5\n" +
		"    C1 =SUM(C1) → RecursErr (error)\n" +
		"  Sheet2 (empty)\n"
	assert.Equal(t, want, Describe(g.Workbook()))
}

func TestDescribe_LiteralsOnly(t *testing.T) {
	wb := NewWorkbook("Data")
	put(t, wb, 0, "B3", "x")
	out := Describe(wb)
	assert.Contains(t, out, "  Data A1:B3 (1 cells, 0 formulas)\n")
	assert.NotContains(t, out, "→")
}

func TestDescribe_StaleFormula(t *testing.T) {
	wb := NewWorkbook()
	wb.Sheet(0).Set(mustAddr(t, "A2"), Cell{Content: Text("=LEN(\"ab\")"), Formula: "=LEN(\"ab\")"})
	out := Describe(wb)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, `    A2 =LEN("ab") → =LEN("ab")`, lines[len(lines)-1])
}
