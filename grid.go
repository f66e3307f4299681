package gridcalc

import (
	"fmt"
	"sync"
	"unicode/utf8"
)

// clipboard holds a cut or copied cell together with its origin.
type clipboard struct {
	cell  Cell
	sheet string
	cut   bool
}

// Grid is the editing controller around a Workbook: a cursor on the current
// sheet, a clipboard and the recompute trigger. Formula cells are evaluated
// only when the cursor leaves them or on Refresh; edits never push results
// into dependent cells.
type Grid struct {
	mu      sync.Mutex
	wb      *Workbook
	eval    *Evaluator
	current int
	cursor  Address
	fresh   bool // next keystroke replaces the cell text
	clip    *clipboard
}

// NewGrid creates a Grid over wb (a new single-sheet workbook when nil) with
// the cursor on A1 of the first sheet.
func NewGrid(wb *Workbook, opts ...Option) *Grid {
	if wb == nil {
		wb = NewWorkbook()
	}
	return &Grid{
		wb:     wb,
		eval:   NewEvaluator(opts...),
		cursor: Address{Row: 1, Col: 1},
		fresh:  true,
	}
}

// Workbook returns the underlying workbook.
func (g *Grid) Workbook() *Workbook { return g.wb }

// CurrentSheet returns the index of the sheet being edited.
func (g *Grid) CurrentSheet() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Cursor returns the cursor position.
func (g *Grid) Cursor() Address {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cursor
}

// Cell returns the cell at addr on the current sheet.
func (g *Grid) Cell(addr Address) (Cell, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sheet().Cell(addr)
}

// Display returns the rendered content at addr on the current sheet.
func (g *Grid) Display(addr Address) string {
	c, _ := g.Cell(addr)
	return c.Content.String()
}

func (g *Grid) sheet() *Sheet { return g.wb.Sheet(g.current) }

// Move commits the cell under the cursor and moves by the given offsets.
// The cursor stays inside the sheet.
func (g *Grid) Move(dRow, dCol int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.moveTo(Address{Row: g.cursor.Row + dRow, Col: g.cursor.Col + dCol})
}

// MoveTo commits the cell under the cursor and jumps to addr.
func (g *Grid) MoveTo(addr Address) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.moveTo(addr)
}

func (g *Grid) moveTo(addr Address) {
	addr.Row = max(addr.Row, 1)
	addr.Col = min(max(addr.Col, 1), MaxColumns)
	if addr == g.cursor {
		return
	}
	g.commit(g.current, g.cursor)
	g.cursor = addr
	g.fresh = true
}

// Commit evaluates the cell under the cursor without moving.
func (g *Grid) Commit() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.commit(g.current, g.cursor)
	g.fresh = true
}

// Type appends text to the cell under the cursor. The first keystroke after
// arriving on a cell replaces its text. The cell is stored as a literal until
// it is committed.
func (g *Grid) Type(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.sheet()
	prev := ""
	if c, ok := s.Cell(g.cursor); ok && !g.fresh {
		prev = c.Text()
	}
	s.SetText(g.cursor, prev+text)
	g.fresh = false
}

// Enter replaces the text of the cell under the cursor and commits it.
func (g *Grid) Enter(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sheet().SetText(g.cursor, text)
	g.commit(g.current, g.cursor)
	g.fresh = true
}

// Backspace removes the last character of the cell under the cursor. A cell
// left empty is removed.
func (g *Grid) Backspace() {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.sheet()
	c, ok := s.Cell(g.cursor)
	if !ok {
		return
	}
	text := c.Text()
	_, size := utf8.DecodeLastRuneInString(text)
	text = text[:len(text)-size]
	if text == "" {
		s.Delete(g.cursor)
	} else {
		s.SetText(g.cursor, text)
	}
	g.fresh = false
}

// Delete removes the cell under the cursor.
func (g *Grid) Delete() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sheet().Delete(g.cursor)
}

// Copy puts the cell under the cursor on the clipboard.
func (g *Grid) Copy() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.toClipboard(false)
}

// Cut puts the cell under the cursor on the clipboard and removes it.
func (g *Grid) Cut() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.toClipboard(true) {
		g.sheet().Delete(g.cursor)
	}
}

func (g *Grid) toClipboard(cut bool) bool {
	c, ok := g.sheet().Cell(g.cursor)
	if !ok {
		return false
	}
	g.clip = &clipboard{cell: c, sheet: g.sheet().Name, cut: cut}
	return true
}

// Paste writes the clipboard cell at the cursor. A cut formula pasted onto
// another sheet keeps pointing at its source sheet. A cut is pasted once.
func (g *Grid) Paste() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.clip == nil {
		return ErrEmptyClipboard
	}
	c := g.clip.cell
	if g.clip.cut && c.IsFormula() && g.clip.sheet != g.sheet().Name {
		c.Formula = QualifyReferences(c.Formula, g.clip.sheet)
	}
	g.sheet().Set(g.cursor, c)
	if g.clip.cut {
		g.clip = nil
	}
	return nil
}

// Refresh re-evaluates every formula cell of the current sheet, row by row.
func (g *Grid) Refresh() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refresh(g.current)
}

// RefreshAll re-evaluates every formula cell of every sheet, in sheet order.
func (g *Grid) RefreshAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < g.wb.Len(); i++ {
		g.refresh(i)
	}
}

func (g *Grid) refresh(sheet int) {
	s := g.wb.Sheet(sheet)
	for _, addr := range s.Addresses() {
		if c, _ := s.Cell(addr); c.IsFormula() {
			g.commit(sheet, addr)
		}
	}
}

// commit evaluates one cell and writes the result back. A formula cell is
// first reset to its formula text; when nothing matches it stays a literal.
func (g *Grid) commit(sheet int, addr Address) {
	s := g.wb.Sheet(sheet)
	if s == nil {
		return
	}
	c, ok := s.Cell(addr)
	if !ok {
		return
	}
	text := c.Text()
	if c.IsFormula() {
		s.Set(addr, Cell{Content: Classify(text)})
	}
	result, matched := g.eval.TryEvaluate(g.wb, sheet, addr)
	if matched {
		s.Set(addr, Cell{Content: Classify(result), Formula: text})
	}
}

// AddSheet commits the current cell, appends a sheet and switches to it.
// An empty name picks the next free "SheetN".
func (g *Grid) AddSheet(name string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if name == "" {
		name = g.wb.NextSheetName()
	}
	idx, err := g.wb.AddSheet(name)
	if err != nil {
		return -1, err
	}
	g.switchTo(idx)
	return idx, nil
}

// DeleteSheet removes the current sheet. The sheet to its left becomes
// current, or the first sheet when there is none.
func (g *Grid) DeleteSheet() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.wb.RemoveSheet(g.current); err != nil {
		return fmt.Errorf("delete sheet: %w", err)
	}
	g.current = max(g.current-1, 0)
	g.cursor = Address{Row: 1, Col: 1}
	g.fresh = true
	return nil
}

// RenameSheet renames the current sheet and rewrites qualifiers naming it in
// every formula. Rewritten cells show their formula text until refreshed.
func (g *Grid) RenameSheet(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	old := g.sheet().Name
	if err := g.wb.RenameSheet(g.current, name); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i := 0; i < g.wb.Len(); i++ {
		s := g.wb.Sheet(i)
		for _, addr := range s.Addresses() {
			c, _ := s.Cell(addr)
			if !c.IsFormula() || !referencesSheet(c.Formula, old) {
				continue
			}
			f := RenameQualifier(c.Formula, old, name)
			s.Set(addr, Cell{Content: Classify(f), Formula: f})
		}
	}
	return nil
}

// NextSheet commits the current cell and moves to the sheet on the right.
func (g *Grid) NextSheet() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current+1 < g.wb.Len() {
		g.switchTo(g.current + 1)
	}
}

// PreviousSheet commits the current cell and moves to the sheet on the left.
func (g *Grid) PreviousSheet() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current > 0 {
		g.switchTo(g.current - 1)
	}
}

// SelectSheet commits the current cell and switches to the named sheet.
func (g *Grid) SelectSheet(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := g.wb.Index(name)
	if idx < 0 {
		return fmt.Errorf("select sheet %q: %w", name, ErrSheetNotFound)
	}
	g.switchTo(idx)
	return nil
}

func (g *Grid) switchTo(idx int) {
	g.commit(g.current, g.cursor)
	g.current = idx
	g.cursor = Address{Row: 1, Col: 1}
	g.fresh = true
}
