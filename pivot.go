package gridcalc

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// PivotFunc is the aggregation applied to a pivot value column.
type PivotFunc int

const (
	PivotSum PivotFunc = iota
	PivotAverage
	PivotCount
)

// String returns the function name.
func (f PivotFunc) String() string {
	switch f {
	case PivotAverage:
		return "AVERAGE"
	case PivotCount:
		return "COUNT"
	default:
		return "SUM"
	}
}

// ParsePivotFunc parses "sum", "average"/"avg" or "count" (case-insensitive).
func ParsePivotFunc(s string) (PivotFunc, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUM":
		return PivotSum, nil
	case "AVERAGE", "AVG":
		return PivotAverage, nil
	case "COUNT":
		return PivotCount, nil
	}
	return PivotSum, fmt.Errorf("unknown pivot function %q", s)
}

// PivotValue selects a source column and how to aggregate it.
type PivotValue struct {
	Field string
	Func  PivotFunc
}

// PivotSpec describes a pivot table over a range whose first row holds the
// column headers.
type PivotSpec struct {
	Source   string // e.g. "A1:D20" or "Data!A1:D20"
	RowField string
	Values   []PivotValue
	Location string // top-left target cell, e.g. "F1" or "Report!A1"
	// Filter is an optional boolean expression over the row's header names,
	// e.g. `Region == "North" && Amount > 10`. Header characters that are not
	// valid in identifiers become '_'.
	Filter string
}

// PivotTable is the generated table: a header row, one row per distinct key
// (sorted) and a closing "Total" row.
type PivotTable struct {
	Header []string
	Rows   [][]string
}

// Width returns the number of columns.
func (p *PivotTable) Width() int { return len(p.Header) }

// Height returns the number of rows including the header.
func (p *PivotTable) Height() int { return len(p.Rows) + 1 }

// Pivot errors.
var (
	ErrInvalidPivotSource = errors.New("gridcalc: pivot source must be a range with a header row")
	ErrUnknownPivotField  = errors.New("gridcalc: unknown pivot field")
	ErrInvalidLocation    = errors.New("gridcalc: invalid pivot location")
)

// pivotSource is a resolved source range laid out row by row.
type pivotSource struct {
	headers []string
	rows    [][]Ref // data rows, without the header row
	wb      *Workbook
}

// readPivotSource resolves the source text into a header row and data rows.
func readPivotSource(wb *Workbook, sheet int, source string) (*pivotSource, error) {
	refs, ok := ResolveRange(wb, source, sheet)
	if !ok || !strings.Contains(source, ":") || len(refs) == 0 {
		return nil, fmt.Errorf("%q: %w", source, ErrInvalidPivotSource)
	}
	first, last := refs[0].Addr, refs[len(refs)-1].Addr
	height := last.Row - first.Row + 1
	width := last.Col - first.Col + 1
	if height < 2 {
		return nil, fmt.Errorf("%q: %w", source, ErrInvalidPivotSource)
	}

	src := &pivotSource{wb: wb}
	cell := func(r, c int) Ref { return refs[c*height+r] }
	for c := 0; c < width; c++ {
		src.headers = append(src.headers, src.text(cell(0, c)))
	}
	for r := 1; r < height; r++ {
		row := make([]Ref, width)
		for c := 0; c < width; c++ {
			row[c] = cell(r, c)
		}
		src.rows = append(src.rows, row)
	}
	return src, nil
}

func (s *pivotSource) column(field string) int {
	for i, h := range s.headers {
		if h == field {
			return i
		}
	}
	return -1
}

func (s *pivotSource) value(ref Ref) Value {
	c, _ := s.wb.Sheet(ref.Sheet).Cell(ref.Addr)
	return c.Content
}

func (s *pivotSource) text(ref Ref) string {
	return s.value(ref).String()
}

// record builds the filter environment for one data row.
func (s *pivotSource) record(row []Ref) map[string]any {
	env := make(map[string]any, len(row))
	for i, ref := range row {
		if name := identifier(s.headers[i]); name != "" {
			env[name] = s.value(ref).Native()
		}
	}
	return env
}

// identifier turns a header into an expression variable name.
func identifier(header string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(header) {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// filterEvaluator compiles and caches pivot filter expressions.
type filterEvaluator struct {
	cache sync.Map // expression string → compiled *vm.Program
}

var pivotFilters = &filterEvaluator{}

func (f *filterEvaluator) compile(expression string) (*vm.Program, error) {
	if cached, ok := f.cache.Load(expression); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	f.cache.Store(expression, program)
	return program, nil
}

// IsConditionTrue runs expression against env. A nil result counts as false.
func (f *filterEvaluator) IsConditionTrue(expression string, env map[string]any) (bool, error) {
	program, err := f.compile(expression)
	if err != nil {
		return false, fmt.Errorf("compile filter %q: %w", expression, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate filter %q: %w", expression, err)
	}
	if result == nil {
		return false, nil
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q evaluated to %T, expected bool", expression, result)
	}
	return b, nil
}

// BuildPivot groups the source rows by the row field and aggregates each
// value column. sheet is the sheet unqualified ranges refer to.
func BuildPivot(wb *Workbook, sheet int, spec PivotSpec) (*PivotTable, error) {
	src, err := readPivotSource(wb, sheet, spec.Source)
	if err != nil {
		return nil, err
	}
	keyCol := src.column(spec.RowField)
	if keyCol < 0 {
		return nil, fmt.Errorf("row field %q: %w", spec.RowField, ErrUnknownPivotField)
	}
	if len(spec.Values) == 0 {
		return nil, fmt.Errorf("no value fields: %w", ErrUnknownPivotField)
	}
	valueCols := make([]int, len(spec.Values))
	for i, v := range spec.Values {
		if valueCols[i] = src.column(v.Field); valueCols[i] < 0 {
			return nil, fmt.Errorf("value field %q: %w", v.Field, ErrUnknownPivotField)
		}
	}

	groups := make(map[string][][]Ref)
	for _, row := range src.rows {
		key := src.text(row[keyCol])
		if key == "" {
			continue
		}
		if spec.Filter != "" {
			keep, err := pivotFilters.IsConditionTrue(spec.Filter, src.record(row))
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
		}
		groups[key] = append(groups[key], row)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := &PivotTable{Header: []string{spec.RowField}}
	for _, v := range spec.Values {
		table.Header = append(table.Header, v.Field)
	}
	for _, k := range keys {
		row := []string{k}
		for i, v := range spec.Values {
			row = append(row, aggregateColumn(src, groups[k], valueCols[i], v.Func))
		}
		table.Rows = append(table.Rows, row)
	}
	table.Rows = append(table.Rows, totalRow(table, spec.Values))
	return table, nil
}

// aggregateColumn applies fn to the numeric cells of one column.
func aggregateColumn(src *pivotSource, rows [][]Ref, col int, fn PivotFunc) string {
	sum := Integer(0)
	n := 0
	for _, row := range rows {
		if v := src.value(row[col]); v.IsNumeric() {
			sum = add(sum, v)
			n++
		}
	}
	switch fn {
	case PivotCount:
		return Integer(int64(n)).String()
	case PivotAverage:
		f, _ := sum.Float()
		return Double(f / float64(n)).String()
	default:
		return sum.String()
	}
}

// totalRow sums every value column, except AVERAGE columns which are averaged.
func totalRow(table *PivotTable, values []PivotValue) []string {
	total := []string{"Total"}
	for i, v := range values {
		sum := Integer(0)
		for _, row := range table.Rows {
			if x := Classify(row[i+1]); x.IsNumeric() {
				sum = add(sum, x)
			}
		}
		if v.Func == PivotAverage {
			f, _ := sum.Float()
			total = append(total, Double(f/float64(len(table.Rows))).String())
			continue
		}
		total = append(total, sum.String())
	}
	return total
}

// PlacePivot writes the table at spec.Location. Every target cell must be
// empty; otherwise nothing is written and ErrLocationOccupied is returned.
func PlacePivot(wb *Workbook, sheet int, spec PivotSpec, table *PivotTable) error {
	refs, ok := ResolveRange(wb, spec.Location, sheet)
	if !ok || len(refs) != 1 {
		return fmt.Errorf("%q: %w", spec.Location, ErrInvalidLocation)
	}
	origin := refs[0]
	target := wb.Sheet(origin.Sheet)
	lines := append([][]string{table.Header}, table.Rows...)

	for r, line := range lines {
		for c := range line {
			addr := Address{Row: origin.Addr.Row + r, Col: origin.Addr.Col + c}
			if addr.Col > MaxColumns {
				return fmt.Errorf("%q: %w", spec.Location, ErrInvalidLocation)
			}
			if _, taken := target.Cell(addr); taken {
				return fmt.Errorf("%s!%s: %w", target.Name, addr, ErrLocationOccupied)
			}
		}
	}
	for r, line := range lines {
		for c, text := range line {
			target.SetText(Address{Row: origin.Addr.Row + r, Col: origin.Addr.Col + c}, text)
		}
	}
	return nil
}

// RunPivot builds the pivot table and places it.
func RunPivot(wb *Workbook, sheet int, spec PivotSpec) (*PivotTable, error) {
	table, err := BuildPivot(wb, sheet, spec)
	if err != nil {
		return nil, err
	}
	if err := PlacePivot(wb, sheet, spec, table); err != nil {
		return nil, err
	}
	return table, nil
}
