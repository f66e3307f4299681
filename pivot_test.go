package gridcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// salesBook has a header row and five data rows on "Data"; one row has no
// region and one has a non-numeric amount.
func salesBook(t *testing.T) *Workbook {
	t.Helper()
	wb := NewWorkbook("Data", "Report")
	rows := [][]string{
		{"Region", "Amount", "Qty"},
		{"North", "10", "1"},
		{"South", "5", "2"},
		{"North", "2.5", "3"},
		{"", "100", "9"},
		{"East", "x", "4"},
	}
	for r, row := range rows {
		for c, text := range row {
			if text != "" {
				wb.Sheet(0).SetText(Address{Row: r + 1, Col: c + 1}, text)
			}
		}
	}
	return wb
}

func TestBuildPivot_SumAndCount(t *testing.T) {
	wb := salesBook(t)
	table, err := BuildPivot(wb, 0, PivotSpec{
		Source:   "A1:C6",
		RowField: "Region",
		Values:   []PivotValue{{Field: "Amount", Func: PivotSum}, {Field: "Qty", Func: PivotCount}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Region", "Amount", "Qty"}, table.Header)
	assert.Equal(t, [][]string{
		{"East", "0", "1"},
		{"North", "12.5", "2"},
		{"South", "5", "1"},
		{"Total", "17.5", "4"},
	}, table.Rows)
	assert.Equal(t, 3, table.Width())
	assert.Equal(t, 5, table.Height())
}

func TestBuildPivot_FilterAndAverage(t *testing.T) {
	wb := salesBook(t)
	table, err := BuildPivot(wb, 1, PivotSpec{
		Source:   "Data!A1:C6",
		RowField: "Region",
		Values:   []PivotValue{{Field: "Amount", Func: PivotAverage}},
		Filter:   `Region != "East" && Amount > 3`,
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"North", "10"},
		{"South", "5"},
		{"Total", "7.5"},
	}, table.Rows)
}

func TestBuildPivot_Errors(t *testing.T) {
	wb := salesBook(t)

	_, err := BuildPivot(wb, 0, PivotSpec{Source: "A1", RowField: "Region", Values: []PivotValue{{Field: "Qty"}}})
	assert.ErrorIs(t, err, ErrInvalidPivotSource)

	_, err = BuildPivot(wb, 0, PivotSpec{Source: "A1:C1", RowField: "Region", Values: []PivotValue{{Field: "Qty"}}})
	assert.ErrorIs(t, err, ErrInvalidPivotSource, "a header row alone has no data")

	_, err = BuildPivot(wb, 0, PivotSpec{Source: "A1:C6", RowField: "City", Values: []PivotValue{{Field: "Qty"}}})
	assert.ErrorIs(t, err, ErrUnknownPivotField)

	_, err = BuildPivot(wb, 0, PivotSpec{Source: "A1:C6", RowField: "Region", Values: []PivotValue{{Field: "Price"}}})
	assert.ErrorIs(t, err, ErrUnknownPivotField)

	_, err = BuildPivot(wb, 0, PivotSpec{Source: "A1:C6", RowField: "Region"})
	assert.ErrorIs(t, err, ErrUnknownPivotField)

	_, err = BuildPivot(wb, 0, PivotSpec{
		Source: "A1:C6", RowField: "Region", Values: []PivotValue{{Field: "Qty"}}, Filter: "Qty +",
	})
	assert.Error(t, err)
}

func TestRunPivot_PlacesTable(t *testing.T) {
	wb := salesBook(t)
	spec := PivotSpec{
		Source:   "Data!A1:C6",
		RowField: "Region",
		Values:   []PivotValue{{Field: "Qty", Func: PivotSum}},
		Location: "Report!B2",
	}
	_, err := RunPivot(wb, 0, spec)
	require.NoError(t, err)

	report := wb.Sheet(1)
	want := map[string]Value{
		"B2": Text("Region"), "C2": Text("Qty"),
		"B3": Text("East"), "C3": Integer(4),
		"B4": Text("North"), "C4": Integer(4),
		"B5": Text("South"), "C5": Integer(2),
		"B6": Text("Total"), "C6": Integer(10),
	}
	for addr, v := range want {
		c, ok := report.Cell(mustAddr(t, addr))
		require.True(t, ok, addr)
		assert.Equal(t, v, c.Content, addr)
	}
	assert.Equal(t, len(want), report.Len())
}

func TestPlacePivot_Occupied(t *testing.T) {
	wb := salesBook(t)
	put(t, wb, 1, "C4", "keep")
	spec := PivotSpec{
		Source:   "Data!A1:C6",
		RowField: "Region",
		Values:   []PivotValue{{Field: "Qty"}},
		Location: "Report!B2",
	}
	_, err := RunPivot(wb, 0, spec)
	assert.ErrorIs(t, err, ErrLocationOccupied)
	assert.Equal(t, 1, wb.Sheet(1).Len(), "nothing is written when a target cell is taken")

	spec.Location = "B2:C3"
	_, err = RunPivot(wb, 1, spec)
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

func TestParsePivotFunc(t *testing.T) {
	for in, want := range map[string]PivotFunc{
		"sum": PivotSum, "Average": PivotAverage, "avg": PivotAverage, " COUNT ": PivotCount,
	} {
		got, err := ParsePivotFunc(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePivotFunc("median")
	assert.Error(t, err)

	assert.Equal(t, "AVERAGE", PivotAverage.String())
	assert.Equal(t, "COUNT", PivotCount.String())
	assert.Equal(t, "SUM", PivotSum.String())
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "Unit_Price", identifier("Unit Price"))
	assert.Equal(t, "_2024", identifier("2024"))
	assert.Equal(t, "qty", identifier(" qty "))
}
