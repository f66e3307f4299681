package gridcalc

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// aggregate implements SUM, AVERAGE and COUNT over resolved elements. Every
// element must be a reference or an unquoted number.
func (e *Evaluator) aggregate(wb *Workbook, self Ref, kind FunctionKind, elems []element) string {
	if includesSelf(elems, self) {
		return MarkRecursion
	}
	for _, el := range elems {
		if el.IsRef {
			continue
		}
		if el.Quoted || !Classify(el.Text).IsNumeric() {
			return MarkNameQ
		}
	}
	sum := Integer(0)
	n := 0
	for _, el := range elems {
		if v, ok := numberOf(wb, el); ok {
			sum = add(sum, v)
			n++
		}
	}
	switch kind {
	case FuncCount:
		return strconv.Itoa(n)
	case FuncAverage:
		f, _ := sum.Float()
		return Double(f / float64(n)).String()
	default:
		return sum.String()
	}
}

// subtotal delegates to AVERAGE (1), COUNT (2) or SUM (9) with the elements
// after the index. Any other index is not a match.
func (e *Evaluator) subtotal(wb *Workbook, self Ref, elems []element) (string, bool) {
	if len(elems) == 0 || elems[0].Quoted || elems[0].IsRef {
		return "", false
	}
	var kind FunctionKind
	switch elems[0].Text {
	case "1":
		kind = FuncAverage
	case "2":
		kind = FuncCount
	case "9":
		kind = FuncSum
	default:
		return "", false
	}
	return e.aggregate(wb, self, kind, elems[1:]), true
}

// binary implements MOD, POWER, CEILING and FLOOR. Exactly two elements are
// required, otherwise the call is not a match.
func (e *Evaluator) binary(wb *Workbook, self Ref, kind FunctionKind, elems []element) (string, bool) {
	if len(elems) != 2 {
		return "", false
	}
	if includesSelf(elems, self) {
		return MarkRecursion, true
	}
	a, ok := numberOf(wb, elems[0])
	if !ok {
		return MarkValue, true
	}
	b, ok := numberOf(wb, elems[1])
	if !ok {
		return MarkValue, true
	}
	x, _ := a.Float()
	y, _ := b.Float()
	switch kind {
	case FuncMod:
		v, ok := modulo(a, b)
		if !ok {
			return MarkValue, true
		}
		return v.String(), true
	case FuncPower:
		return Double(math.Pow(x, y)).String(), true
	case FuncCeiling:
		return Double(math.Ceil(x/y) * y).String(), true
	default:
		return Double(math.Floor(x/y) * y).String(), true
	}
}

// length implements LEN over exactly one element.
func (e *Evaluator) length(wb *Workbook, self Ref, elems []element) (string, bool) {
	if len(elems) != 1 {
		return "", false
	}
	if includesSelf(elems, self) {
		return MarkRecursion, true
	}
	s, ok := textOf(wb, elems[0])
	if !ok {
		return MarkName, true
	}
	return strconv.Itoa(utf8.RuneCountInString(s)), true
}

// concatenate joins references and quoted literals; a bare word is #NAME.
func (e *Evaluator) concatenate(wb *Workbook, self Ref, elems []element) string {
	if includesSelf(elems, self) {
		return MarkRecursion
	}
	var b strings.Builder
	for _, el := range elems {
		s, ok := textOf(wb, el)
		if !ok {
			return MarkName
		}
		b.WriteString(s)
	}
	return b.String()
}

// replace implements REPLACE(old, start, num, new) with a 1-based start.
func (e *Evaluator) replace(wb *Workbook, self Ref, elems []element) (string, bool) {
	if len(elems) != 4 {
		return "", false
	}
	if includesSelf(elems, self) {
		return MarkRecursion, true
	}
	start, ok := literalInt(elems[1])
	if !ok || start <= 0 {
		return MarkName, true
	}
	num, ok := literalInt(elems[2])
	if !ok || num < 0 {
		return MarkName, true
	}
	old, ok := textOf(wb, elems[0])
	if !ok {
		return MarkName, true
	}
	repl, ok := textOf(wb, elems[3])
	if !ok {
		return MarkName, true
	}
	runes := []rune(old)
	if len(runes) <= start {
		return old + repl, true
	}
	end := min(start-1+num, len(runes))
	return string(runes[:start-1]) + repl + string(runes[end:]), true
}

// substitute implements SUBSTITUTE(text, old, new[, n]). With n only the
// n-th (1-based) occurrence is replaced; overlapping occurrences count.
func (e *Evaluator) substitute(wb *Workbook, self Ref, elems []element) (string, bool) {
	if len(elems) < 3 || len(elems) > 4 {
		return "", false
	}
	if includesSelf(elems, self) {
		return MarkRecursion, true
	}
	var parts [3]string
	for i := range parts {
		s, ok := textOf(wb, elems[i])
		if !ok {
			return MarkName, true
		}
		parts[i] = s
	}
	text, old, repl := parts[0], parts[1], parts[2]
	if len(elems) == 3 {
		if old == "" {
			return text, true
		}
		return strings.ReplaceAll(text, old, repl), true
	}
	n, ok := literalInt(elems[3])
	if !ok {
		return "", false
	}
	if old == "" {
		return text, true
	}
	var hits []int
	for i := 0; i+len(old) <= len(text); i++ {
		if text[i:i+len(old)] == old {
			hits = append(hits, i)
		}
	}
	if n < 1 || n > len(hits) {
		return text, true
	}
	at := hits[n-1]
	return text[:at] + repl + text[at+len(old):], true
}

// vlookup implements VLOOKUP(value, table..., column). The value is matched
// exactly against the rendered contents of the table's first column.
func (e *Evaluator) vlookup(wb *Workbook, self Ref, elems []element) (string, bool) {
	if len(elems) < 3 {
		return "", false
	}
	if includesSelf(elems, self) {
		return MarkRecursion, true
	}
	lookup, ok := textOf(wb, elems[0])
	if !ok {
		return MarkName, true
	}
	col, ok := literalInt(elems[len(elems)-1])
	if !ok {
		return "", false
	}
	table := elems[1 : len(elems)-1]
	first, last := table[0], table[len(table)-1]
	if !first.IsRef || !last.IsRef {
		return MarkNA, true
	}
	span := last.Ref.Col - first.Ref.Col + 1
	if col > span {
		return MarkRef, true
	}
	if col < 1 {
		return MarkNA, true
	}
	sheet := wb.Sheet(first.Sheet)
	for _, el := range table {
		if !el.IsRef || el.Sheet != first.Sheet || el.Ref.Col != first.Ref.Col {
			continue
		}
		c, ok := sheet.Cell(el.Ref)
		if !ok || c.Content.String() != lookup {
			continue
		}
		hit, ok := sheet.Cell(Address{Row: el.Ref.Row, Col: first.Ref.Col + col - 1})
		if !ok {
			return MarkNA, true
		}
		return hit.Content.String(), true
	}
	return MarkNA, true
}

// literalInt parses an unquoted, non-reference argument as an int.
func literalInt(el element) (int, bool) {
	if el.Quoted || el.IsRef {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(el.Text))
	return n, err == nil
}
