package gridcalc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Cell holds a displayed value and, for formula cells, the formula text.
// An empty Formula means the cell is a literal.
type Cell struct {
	Content Value
	Formula string
}

// IsFormula reports whether the cell carries a formula.
func (c Cell) IsFormula() bool { return c.Formula != "" }

// Text returns what the user typed: the formula if present, else the content.
func (c Cell) Text() string {
	if c.Formula != "" {
		return c.Formula
	}
	return c.Content.String()
}

// Sheet is a named sparse grid of cells.
type Sheet struct {
	Name  string
	cells map[Address]Cell
}

// NewSheet creates an empty sheet.
func NewSheet(name string) *Sheet {
	return &Sheet{Name: name, cells: make(map[Address]Cell)}
}

// Cell returns the cell at addr.
func (s *Sheet) Cell(addr Address) (Cell, bool) {
	c, ok := s.cells[addr]
	return c, ok
}

// Set stores a cell at addr.
func (s *Sheet) Set(addr Address, c Cell) {
	s.cells[addr] = c
}

// SetText stores raw text as a literal cell, classified.
func (s *Sheet) SetText(addr Address, text string) {
	s.cells[addr] = Cell{Content: Classify(text)}
}

// Delete removes the cell at addr.
func (s *Sheet) Delete(addr Address) {
	delete(s.cells, addr)
}

// Len returns the number of populated cells.
func (s *Sheet) Len() int { return len(s.cells) }

// Addresses lists populated cells sorted row by row, then by column.
func (s *Sheet) Addresses() []Address {
	out := make([]Address, 0, len(s.cells))
	for a := range s.cells {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// Bounds returns the bottom-right corner of the used area.
// An empty sheet returns the zero Address.
func (s *Sheet) Bounds() Address {
	var b Address
	for a := range s.cells {
		b.Row = max(b.Row, a.Row)
		b.Col = max(b.Col, a.Col)
	}
	return b
}

// Workbook is an ordered list of uniquely named sheets.
type Workbook struct {
	sheets []*Sheet
}

// NewWorkbook creates a workbook with the given sheets, or a single "Sheet1".
func NewWorkbook(names ...string) *Workbook {
	wb := &Workbook{}
	if len(names) == 0 {
		names = []string{"Sheet1"}
	}
	for _, n := range names {
		// duplicates in the constructor are skipped
		_, _ = wb.AddSheet(n)
	}
	return wb
}

// Len returns the number of sheets.
func (wb *Workbook) Len() int { return len(wb.sheets) }

// Sheet returns the sheet at index i, or nil when out of range.
func (wb *Workbook) Sheet(i int) *Sheet {
	if i < 0 || i >= len(wb.sheets) {
		return nil
	}
	return wb.sheets[i]
}

// Index returns the position of the named sheet, or -1.
func (wb *Workbook) Index(name string) int {
	for i, s := range wb.sheets {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Names lists sheet names in order.
func (wb *Workbook) Names() []string {
	out := make([]string, len(wb.sheets))
	for i, s := range wb.sheets {
		out[i] = s.Name
	}
	return out
}

// AddSheet appends a new empty sheet and returns its index.
func (wb *Workbook) AddSheet(name string) (int, error) {
	if err := checkSheetName(name); err != nil {
		return -1, err
	}
	if wb.Index(name) >= 0 {
		return -1, fmt.Errorf("add sheet %q: %w", name, ErrDuplicateSheet)
	}
	wb.sheets = append(wb.sheets, NewSheet(name))
	return len(wb.sheets) - 1, nil
}

// RemoveSheet deletes the sheet at index i. The last remaining sheet cannot
// be removed.
func (wb *Workbook) RemoveSheet(i int) error {
	if i < 0 || i >= len(wb.sheets) {
		return fmt.Errorf("remove sheet %d: %w", i, ErrSheetNotFound)
	}
	if len(wb.sheets) == 1 {
		return ErrLastSheet
	}
	wb.sheets = append(wb.sheets[:i], wb.sheets[i+1:]...)
	return nil
}

// RenameSheet changes the name of the sheet at index i. Formulas are not
// touched; see RenameQualifier.
func (wb *Workbook) RenameSheet(i int, name string) error {
	if i < 0 || i >= len(wb.sheets) {
		return fmt.Errorf("rename sheet %d: %w", i, ErrSheetNotFound)
	}
	if err := checkSheetName(name); err != nil {
		return err
	}
	if j := wb.Index(name); j >= 0 && j != i {
		return fmt.Errorf("rename sheet to %q: %w", name, ErrDuplicateSheet)
	}
	wb.sheets[i].Name = name
	return nil
}

// NextSheetName returns the first unused "SheetN" name, N counting from 1.
func (wb *Workbook) NextSheetName() string {
	for n := 1; ; n++ {
		name := "Sheet" + strconv.Itoa(n)
		if wb.Index(name) < 0 {
			return name
		}
	}
}

// sheetNameReserved holds the characters that end an unquoted qualifier.
const sheetNameReserved = `!'(),:=+-*/&"`

// checkSheetName rejects names that cannot appear before a '!' qualifier.
func checkSheetName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, sheetNameReserved) {
		return fmt.Errorf("%q: %w", name, ErrInvalidSheetName)
	}
	return nil
}
