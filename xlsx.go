package gridcalc

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Number formats applied to NOW and TODAY cells on export.
const (
	nowNumFmt   = "h:mm:ss AM/PM"
	todayNumFmt = "d/m/yyyy"
)

// SaveXLSX writes the workbook as an xlsx document, one worksheet per sheet
// in order. Formula cells are stored as formulas with their current content
// as the cached value, literals as typed values.
func SaveXLSX(wb *Workbook, w io.Writer) error {
	f, err := buildXLSX(wb)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// SaveXLSXFile writes the workbook to path.
func SaveXLSXFile(wb *Workbook, path string) error {
	f, err := buildXLSX(wb)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx %q: %w", path, err)
	}
	return nil
}

func buildXLSX(wb *Workbook) (*excelize.File, error) {
	f := excelize.NewFile()
	nowFmt, todayFmt := nowNumFmt, todayNumFmt
	nowStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &nowFmt})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create time style: %w", err)
	}
	todayStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &todayFmt})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create date style: %w", err)
	}

	for i := 0; i < wb.Len(); i++ {
		s := wb.Sheet(i)
		switch first := f.GetSheetName(0); {
		case i > 0:
			_, err = f.NewSheet(s.Name)
		case first != s.Name:
			err = f.SetSheetName(first, s.Name)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("add sheet %q: %w", s.Name, err)
		}
		if err := writeSheet(f, s, nowStyle, todayStyle); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, s *Sheet, nowStyle, todayStyle int) error {
	for _, addr := range s.Addresses() {
		c, _ := s.Cell(addr)
		cell := addr.String()
		// The value goes first: setting a value drops any formula on the cell.
		// A formula never leaves an empty cached value, since readers skip
		// trailing empty cells.
		value := c.Content.Native()
		if c.IsFormula() && c.Content.String() == "" {
			value = c.Formula
		}
		if err := f.SetCellValue(s.Name, cell, value); err != nil {
			return fmt.Errorf("write %s!%s: %w", s.Name, cell, err)
		}
		if !c.IsFormula() {
			continue
		}
		if err := f.SetCellFormula(s.Name, cell, strings.TrimPrefix(c.Formula, "=")); err != nil {
			return fmt.Errorf("write formula %s!%s: %w", s.Name, cell, err)
		}
		style := 0
		switch strings.ToUpper(c.Formula) {
		case "=NOW()":
			style = nowStyle
		case "=TODAY()":
			style = todayStyle
		}
		if style != 0 {
			if err := f.SetCellStyle(s.Name, cell, cell, style); err != nil {
				return fmt.Errorf("style %s!%s: %w", s.Name, cell, err)
			}
		}
	}
	return nil
}

// OpenXLSX reads an xlsx document. Formula cells load with empty content and
// show their results only after a refresh; other cells are classified.
func OpenXLSX(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	return readXLSX(f)
}

// OpenXLSXFile reads the xlsx document at path.
func OpenXLSXFile(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %q: %w", path, err)
	}
	defer f.Close()
	return readXLSX(f)
}

func readXLSX(f *excelize.File) (*Workbook, error) {
	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		idx, err := wb.AddSheet(name)
		if err != nil {
			return nil, err
		}
		s := wb.Sheet(idx)

		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read rows from sheet %q: %w", name, err)
		}
		for rowIdx, row := range rows {
			for colIdx, val := range row {
				addr := Address{Row: rowIdx + 1, Col: colIdx + 1}
				formula, err := f.GetCellFormula(name, addr.String())
				if err == nil && formula != "" {
					s.Set(addr, Cell{Content: Text(""), Formula: "=" + formula})
					continue
				}
				if val != "" {
					s.SetText(addr, val)
				}
			}
		}
	}
	if wb.Len() == 0 {
		return NewWorkbook(), nil
	}
	return wb, nil
}
