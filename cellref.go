package gridcalc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// MaxColumns is the widest sheet the alphabet table covers (A..XFD), the
// same limit excelize enforces.
const MaxColumns = 16384

// alphabet maps a 1-based column number to its letters; index 0 is unused.
var alphabet = buildAlphabet()

// columnIndex is the reverse of alphabet.
var columnIndex = buildColumnIndex()

func buildAlphabet() []string {
	names := make([]string, MaxColumns+1)
	for col := 1; col <= MaxColumns; col++ {
		// cannot fail inside 1..MaxColumns
		names[col], _ = excelize.ColumnNumberToName(col)
	}
	return names
}

func buildColumnIndex() map[string]int {
	idx := make(map[string]int, MaxColumns)
	for col := 1; col <= MaxColumns; col++ {
		idx[alphabet[col]] = col
	}
	return idx
}

// ColumnName returns the letters for a 1-based column, or "" when out of range.
func ColumnName(col int) string {
	if col < 1 || col > MaxColumns {
		return ""
	}
	return alphabet[col]
}

// ColumnNumber returns the 1-based column for letters (case-insensitive).
func ColumnNumber(name string) (int, bool) {
	col, ok := columnIndex[strings.ToUpper(name)]
	return col, ok
}

// Address is a 1-based (row, column) cell position.
type Address struct {
	Row int
	Col int
}

// String formats the address as "B3".
func (a Address) String() string {
	return ColumnName(a.Col) + strconv.Itoa(a.Row)
}

// ParseAddress parses "A1"-style text. A leading '=' and surrounding spaces
// are ignored. Row must be positive and the letters must name a known column.
func ParseAddress(text string) (Address, bool) {
	if strings.HasPrefix(text, "=") {
		text = strings.TrimSpace(text[1:])
	}
	i := 0
	for i < len(text) && isAlpha(text[i]) {
		i++
	}
	if i == 0 || i == len(text) {
		return Address{}, false
	}
	col, ok := ColumnNumber(text[:i])
	if !ok {
		return Address{}, false
	}
	row := 0
	for _, ch := range text[i:] {
		if ch < '0' || ch > '9' {
			return Address{}, false
		}
		row = row*10 + int(ch-'0')
		if row > 1<<30 {
			return Address{}, false
		}
	}
	if row < 1 {
		return Address{}, false
	}
	return Address{Row: row, Col: col}, true
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// Ref is a resolved cell position inside a workbook.
type Ref struct {
	Sheet int
	Addr  Address
}

// String formats the Ref as "#1!A1" (sheet index, not name).
func (r Ref) String() string {
	return fmt.Sprintf("#%d!%s", r.Sheet, r.Addr)
}

// Range is a rectangular block of cells on one sheet.
type Range struct {
	Sheet int
	First Address
	Last  Address
}

// Width returns the number of columns spanned.
func (r Range) Width() int { return r.Last.Col - r.First.Col + 1 }

// Height returns the number of rows spanned.
func (r Range) Height() int { return r.Last.Row - r.First.Row + 1 }

// Contains returns true if ref lies inside the range.
func (r Range) Contains(ref Ref) bool {
	return ref.Sheet == r.Sheet &&
		ref.Addr.Row >= r.First.Row && ref.Addr.Row <= r.Last.Row &&
		ref.Addr.Col >= r.First.Col && ref.Addr.Col <= r.Last.Col
}

// Cells lists the range column by column: every row of the first column,
// then every row of the next one.
func (r Range) Cells() []Ref {
	addrs := ExpandRange(r.First, r.Last)
	refs := make([]Ref, len(addrs))
	for i, a := range addrs {
		refs[i] = Ref{Sheet: r.Sheet, Addr: a}
	}
	return refs
}

// ExpandRange lists the addresses between start and end in column-major order.
// An inverted range is empty.
func ExpandRange(start, end Address) []Address {
	if end.Col < start.Col || end.Row < start.Row {
		return nil
	}
	out := make([]Address, 0, (end.Col-start.Col+1)*(end.Row-start.Row+1))
	for col := start.Col; col <= end.Col; col++ {
		for row := start.Row; row <= end.Row; row++ {
			out = append(out, Address{Row: row, Col: col})
		}
	}
	return out
}
