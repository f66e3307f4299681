package gridcalc

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSX_RoundTrip(t *testing.T) {
	wb := NewWorkbook("Data", "Report")
	put(t, wb, 0, "A1", "10")
	put(t, wb, 0, "A2", "2.5")
	put(t, wb, 0, "A3", "hello")
	wb.Sheet(0).Set(mustAddr(t, "B1"), Cell{Content: Double(12.5), Formula: "=SUM(A1:A2)"})
	wb.Sheet(1).Set(mustAddr(t, "A1"), Cell{Content: Integer(10), Formula: "=Data!A1"})

	var buf bytes.Buffer
	require.NoError(t, SaveXLSX(wb, &buf))

	got, err := OpenXLSX(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Data", "Report"}, got.Names())

	data := got.Sheet(0)
	c, ok := data.Cell(mustAddr(t, "A1"))
	require.True(t, ok)
	assert.Equal(t, Integer(10), c.Content)
	c, _ = data.Cell(mustAddr(t, "A2"))
	assert.Equal(t, Double(2.5), c.Content)
	c, _ = data.Cell(mustAddr(t, "A3"))
	assert.Equal(t, Text("hello"), c.Content)

	c, ok = data.Cell(mustAddr(t, "B1"))
	require.True(t, ok)
	assert.Equal(t, "=SUM(A1:A2)", c.Formula)
	assert.Equal(t, Text(""), c.Content, "formula results are stale until refresh")

	g := NewGrid(got)
	g.RefreshAll()
	assert.Equal(t, "12.5", display(t, g, "B1"))
	c, _ = got.Sheet(1).Cell(mustAddr(t, "A1"))
	assert.Equal(t, Integer(10), c.Content)
}

func TestXLSX_ClockFormats(t *testing.T) {
	wb := NewWorkbook()
	wb.Sheet(0).Set(mustAddr(t, "A1"), Cell{Content: Text("10:00:00"), Formula: "=NOW()"})
	wb.Sheet(0).Set(mustAddr(t, "A2"), Cell{Content: Text("01-02-2026"), Formula: "=TODAY()"})
	put(t, wb, 0, "A3", "plain")

	var buf bytes.Buffer
	require.NoError(t, SaveXLSX(wb, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	nowStyle, err := f.GetCellStyle("Sheet1", "A1")
	require.NoError(t, err)
	todayStyle, err := f.GetCellStyle("Sheet1", "A2")
	require.NoError(t, err)
	plainStyle, err := f.GetCellStyle("Sheet1", "A3")
	require.NoError(t, err)

	assert.NotZero(t, nowStyle)
	assert.NotZero(t, todayStyle)
	assert.NotEqual(t, nowStyle, todayStyle)
	assert.Zero(t, plainStyle)

	formula, err := f.GetCellFormula("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "NOW()", formula)
}

func TestOpenXLSX_ExcelizeFixture(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Prices"))
	require.NoError(t, f.SetCellFormula("Prices", "A1", "SUM(B1:C1)"))
	require.NoError(t, f.SetCellValue("Prices", "B1", 3))
	require.NoError(t, f.SetCellValue("Prices", "C1", 4))
	require.NoError(t, f.SetCellValue("Prices", "B2", "abc"))

	path := filepath.Join(t.TempDir(), "prices.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	wb, err := OpenXLSXFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"Prices"}, wb.Names())

	c, ok := wb.Sheet(0).Cell(mustAddr(t, "A1"))
	require.True(t, ok)
	assert.Equal(t, "=SUM(B1:C1)", c.Formula)
	c, _ = wb.Sheet(0).Cell(mustAddr(t, "B2"))
	assert.Equal(t, Text("abc"), c.Content)

	g := NewGrid(wb)
	g.Refresh()
	assert.Equal(t, "7", display(t, g, "A1"))
}

func TestSaveXLSXFile(t *testing.T) {
	wb := NewWorkbook("One", "Two")
	put(t, wb, 1, "C3", "x")
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, SaveXLSXFile(wb, path))

	got, err := OpenXLSXFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two"}, got.Names())
	c, ok := got.Sheet(1).Cell(mustAddr(t, "C3"))
	require.True(t, ok)
	assert.Equal(t, Text("x"), c.Content)
}

func TestOpenXLSX_Invalid(t *testing.T) {
	_, err := OpenXLSX(strings.NewReader("not a zip"))
	assert.Error(t, err)

	_, err = OpenXLSXFile(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}
