package gridcalc

import "strings"

// ResolveSheetQualifier splits "Name!A1" into the index of sheet Name and
// "A1". Text without '!' is returned as-is with defaultSheet.
//
// Surrounding parentheses and single quotes around the name are accepted.
// An unknown sheet name falls back to defaultSheet and the text is returned
// unchanged, qualifier included, so it will not parse as an address later.
func ResolveSheetQualifier(wb *Workbook, text string, defaultSheet int) (int, string) {
	if !strings.Contains(text, "!") {
		return defaultSheet, text
	}
	body := text
	if len(body) >= 2 && body[0] == '(' && body[len(body)-1] == ')' {
		body = body[1 : len(body)-1]
	}
	bang := strings.IndexByte(body, '!')
	name := body[:bang]
	if len(name) >= 2 && name[0] == '\'' && name[len(name)-1] == '\'' {
		name = name[1 : len(name)-1]
	}
	if idx := wb.Index(name); idx >= 0 {
		return idx, body[bang+1:]
	}
	return defaultSheet, text
}

// ResolveRange resolves "A1", "Sheet2!B1" or "Sheet2!A1:C3" into cell refs.
// Ranges expand column by column. Returns false when the text is not a valid
// reference or range.
func ResolveRange(wb *Workbook, text string, currentSheet int) ([]Ref, bool) {
	sheet, body := ResolveSheetQualifier(wb, strings.TrimSpace(text), currentSheet)
	if strings.Contains(body, ":") {
		rng, ok := parseRange(sheet, body)
		if !ok {
			return nil, false
		}
		return rng.Cells(), true
	}
	addr, ok := ParseAddress(body)
	if !ok {
		return nil, false
	}
	return []Ref{{Sheet: sheet, Addr: addr}}, true
}

// parseRange parses "A1:C3" (already stripped of any qualifier).
func parseRange(sheet int, body string) (Range, bool) {
	ends := strings.Split(body, ":")
	if len(ends) != 2 {
		return Range{}, false
	}
	first, ok := ParseAddress(ends[0])
	if !ok {
		return Range{}, false
	}
	last, ok := ParseAddress(ends[1])
	if !ok {
		return Range{}, false
	}
	return Range{Sheet: sheet, First: first, Last: last}, true
}

// element is one resolved function argument entry. A range argument becomes
// one element per cell.
type element struct {
	Sheet  int
	Text   string
	Quoted bool
	Ref    Address
	IsRef  bool
}

// resolveElements turns call arguments into elements relative to the current
// sheet. Quoted literals never resolve as references.
func resolveElements(wb *Workbook, args []Arg, current int) []element {
	var out []element
	for _, arg := range args {
		if arg.Quoted {
			out = append(out, element{Sheet: current, Text: arg.Raw, Quoted: true})
			continue
		}
		sheet, body := ResolveSheetQualifier(wb, strings.TrimSpace(arg.Raw), current)
		if strings.Contains(body, ":") {
			rng, ok := parseRange(sheet, body)
			if !ok {
				continue
			}
			for _, a := range ExpandRange(rng.First, rng.Last) {
				out = append(out, element{Sheet: sheet, Text: a.String(), Ref: a, IsRef: true})
			}
			continue
		}
		addr, ok := ParseAddress(body)
		out = append(out, element{Sheet: sheet, Text: body, Ref: addr, IsRef: ok})
	}
	return out
}

// includesSelf reports whether any element addresses the evaluating cell.
func includesSelf(elems []element, self Ref) bool {
	for _, e := range elems {
		if e.IsRef && e.Ref == self.Addr && e.Sheet == self.Sheet {
			return true
		}
	}
	return false
}

// textOf resolves an element as text: a reference yields the cell content
// ("" when absent), a quoted literal yields itself.
func textOf(wb *Workbook, e element) (string, bool) {
	if e.IsRef {
		s := wb.Sheet(e.Sheet)
		if s == nil {
			return "", false
		}
		if c, ok := s.Cell(e.Ref); ok {
			return c.Content.String(), true
		}
		return "", true
	}
	if e.Quoted {
		return e.Text, true
	}
	return "", false
}

// numberOf resolves an element as a number: a reference to a populated
// non-text cell, or an unquoted numeric literal.
func numberOf(wb *Workbook, e element) (Value, bool) {
	if e.IsRef {
		if s := wb.Sheet(e.Sheet); s != nil {
			if c, ok := s.Cell(e.Ref); ok && c.Content.IsNumeric() {
				return c.Content, true
			}
		}
		return Value{}, false
	}
	if e.Quoted {
		return Value{}, false
	}
	v := Classify(e.Text)
	return v, v.IsNumeric()
}
