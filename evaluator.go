package gridcalc

import (
	"strings"
)

// Evaluator computes the displayed result of formula cells. It keeps no state
// between calls; callers serialize access to the Workbook.
type Evaluator struct {
	opts *Options
}

// NewEvaluator creates an Evaluator with the given options.
func NewEvaluator(opts ...Option) *Evaluator {
	return &Evaluator{opts: buildOptions(opts)}
}

// TryEvaluate evaluates the text stored at addr on the given sheet. It returns
// the rendered result and true when a formula applied, or ("", false) when the
// text should stay displayed as typed. A sheet index that no longer exists
// yields SheetDeleted.
func (e *Evaluator) TryEvaluate(wb *Workbook, sheet int, addr Address) (string, bool) {
	s := wb.Sheet(sheet)
	if s == nil {
		return MarkSheetDeleted, true
	}
	c, ok := s.Cell(addr)
	if !ok {
		return "", false
	}
	self := Ref{Sheet: sheet, Addr: addr}
	text := c.Text()

	for _, l := range e.opts.listeners {
		l.BeforeEvaluate(self, text)
	}
	result, matched := e.dispatch(wb, self, text)
	for _, l := range e.opts.listeners {
		l.AfterEvaluate(self, text, result, matched)
	}
	return result, matched
}

// dispatch tries each matcher in priority order; the first match wins.
func (e *Evaluator) dispatch(wb *Workbook, self Ref, text string) (string, bool) {
	if r, ok := e.cellReference(wb, self, text); ok {
		return r, true
	}
	if r, ok := e.clockFunction(text); ok {
		return r, true
	}
	if r, ok := stringOverride(text); ok {
		return r, true
	}
	if !strings.HasPrefix(text, "=") {
		return "", false
	}
	call, ok := ParseCall(text)
	if !ok || call.Trailing {
		return "", false
	}
	return e.call(wb, self, call)
}

// call runs a parsed function call.
func (e *Evaluator) call(wb *Workbook, self Ref, call Call) (string, bool) {
	elems := resolveElements(wb, call.Args, self.Sheet)
	switch call.Kind {
	case FuncSum, FuncAverage, FuncCount:
		return e.aggregate(wb, self, call.Kind, elems), true
	case FuncSubtotal:
		return e.subtotal(wb, self, elems)
	case FuncMod, FuncPower, FuncCeiling, FuncFloor:
		return e.binary(wb, self, call.Kind, elems)
	case FuncLen:
		return e.length(wb, self, elems)
	case FuncConcatenate:
		return e.concatenate(wb, self, elems), true
	case FuncReplace:
		return e.replace(wb, self, elems)
	case FuncSubstitute:
		return e.substitute(wb, self, elems)
	case FuncVlookup:
		return e.vlookup(wb, self, elems)
	default:
		return "", false
	}
}

// cellReference follows a "=A1" / "=Sheet2!A1" chain to its last link and
// returns that cell's content. Returning to the starting cell, or following
// more than the configured number of hops, is reported as RecursErr.
func (e *Evaluator) cellReference(wb *Workbook, self Ref, text string) (string, bool) {
	if !strings.HasPrefix(text, "=") {
		return "", false
	}
	sheet, body := ResolveSheetQualifier(wb, text[1:], self.Sheet)
	body = "=" + body
	if len(body) < 3 {
		return "", false
	}
	addr, ok := ParseAddress(body)
	if !ok || sheet >= wb.Len() {
		return "", false
	}

	// the formula's own link is the first hop
	cur := Ref{Sheet: sheet, Addr: addr}
	hops := 1
	for {
		s := wb.Sheet(cur.Sheet)
		if s == nil {
			return MarkSheetDeleted, true
		}
		c, ok := s.Cell(cur.Addr)
		if !ok {
			return "", true
		}
		link := c.Text()
		if !strings.HasPrefix(link, "=") {
			return c.Content.String(), true
		}
		nextSheet, nextBody := ResolveSheetQualifier(wb, link[1:], cur.Sheet)
		next, ok := ParseAddress(nextBody)
		if !ok {
			return c.Content.String(), true
		}
		hops++
		if (next == self.Addr && nextSheet == self.Sheet) || hops > e.opts.maxChainHops {
			return MarkRecursion, true
		}
		cur = Ref{Sheet: nextSheet, Addr: next}
	}
}

// clockFunction handles the exact texts "=NOW()" and "=TODAY()".
func (e *Evaluator) clockFunction(text string) (string, bool) {
	switch strings.ToUpper(text) {
	case "=NOW()":
		return e.opts.clock.Now().Format("15:04:05"), true
	case "=TODAY()":
		return e.opts.clock.Now().Format("02-01-2006"), true
	}
	return "", false
}

// stringOverride displays `="anything"` as the quoted text.
func stringOverride(text string) (string, bool) {
	if len(text) < 3 || text[0] != '=' {
		return "", false
	}
	body := text[1:]
	if len(body) >= 2 && body[0] == '"' && body[len(body)-1] == '"' {
		return body[1 : len(body)-1], true
	}
	return "", false
}
