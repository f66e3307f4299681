package gridcalc

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/xuri/efp"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // Formula can never evaluate as written
	SeverityWarning                 // Formula may produce unexpected results
)

// ValidationIssue represents a single problem found during workbook validation.
type ValidationIssue struct {
	Severity Severity
	Where    string // "Sheet1!A2", or "pivot" for pivot definitions
	Message  string
}

// String formats the issue as "[ERROR] Sheet1!A2: message" or "[WARN] ...".
func (v ValidationIssue) String() string {
	sev := "ERROR"
	if v.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s", sev, v.Where, v.Message)
}

// Validate checks every formula in the workbook without evaluating it:
// parenthesis balance, unknown functions, unknown sheet qualifiers, self
// references and unsupported SUBTOTAL indexes.
func Validate(wb *Workbook) []ValidationIssue {
	var issues []ValidationIssue
	for i := 0; i < wb.Len(); i++ {
		s := wb.Sheet(i)
		for _, addr := range s.Addresses() {
			c, _ := s.Cell(addr)
			text := c.Text()
			if !strings.HasPrefix(text, "=") || len(text) < 2 {
				continue
			}
			where := quoteSheetName(s.Name) + "!" + addr.String()
			issues = append(issues, validateFormula(wb, Ref{Sheet: i, Addr: addr}, where, text)...)
		}
	}
	return issues
}

// validateFormula checks one formula text.
func validateFormula(wb *Workbook, self Ref, where, text string) []ValidationIssue {
	var issues []ValidationIssue
	add := func(sev Severity, format string, args ...any) {
		issues = append(issues, ValidationIssue{Severity: sev, Where: where, Message: fmt.Sprintf(format, args...)})
	}

	if _, ok := stringOverride(text); ok {
		return nil
	}

	ps := efp.ExcelParser()
	tokens := ps.Parse(text[1:])
	depth := 0
	for _, t := range tokens {
		switch {
		case t.TType == efp.TokenTypeFunction && t.TSubType == efp.TokenSubTypeStart:
			depth++
			name := strings.ToUpper(t.TValue)
			if LookupFunction(name) == FuncUnknown {
				add(SeverityError, "unknown function %s", name)
			}
		case t.TType == efp.TokenTypeSubexpression && t.TSubType == efp.TokenSubTypeStart:
			depth++
		case t.TSubType == efp.TokenSubTypeStop:
			depth--
		case t.TType == efp.TokenTypeOperatorInfix:
			if depth == 0 {
				add(SeverityWarning, "operator %q is not evaluated; the text will be shown as typed", t.TValue)
			}
		case t.TType == efp.TokenTypeOperand && t.TSubType == efp.TokenSubTypeRange:
			issues = append(issues, validateReference(wb, self, where, t.TValue)...)
		}
	}
	if depth != 0 {
		add(SeverityError, "unbalanced parentheses")
	}

	if call, ok := ParseCall(text); ok && call.Kind == FuncSubtotal {
		switch strings.TrimSpace(call.Args[0].Raw) {
		case "1", "2", "9":
		default:
			add(SeverityWarning, "SUBTOTAL index %q is not supported (use 1, 2 or 9)", call.Args[0].Raw)
		}
	}
	return issues
}

// validateReference checks one range operand for unknown sheets and self
// inclusion.
func validateReference(wb *Workbook, self Ref, where, operand string) []ValidationIssue {
	var issues []ValidationIssue
	if strings.Contains(operand, "!") {
		if _, body := ResolveSheetQualifier(wb, operand, self.Sheet); body == operand {
			name := strings.Trim(operand[:strings.IndexByte(operand, '!')], "'()")
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Where:    where,
				Message:  fmt.Sprintf("unknown sheet %q in %s", name, operand),
			})
			return issues
		}
	}
	refs, ok := ResolveRange(wb, operand, self.Sheet)
	if !ok {
		return issues
	}
	for _, r := range refs {
		if r == self {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Where:    where,
				Message:  fmt.Sprintf("%s includes the formula's own cell", operand),
			})
			break
		}
	}
	return issues
}

// ValidatePivot checks a pivot definition against the workbook: the source
// range, its field names, the location and the filter expression syntax.
func ValidatePivot(wb *Workbook, sheet int, spec PivotSpec) []ValidationIssue {
	var issues []ValidationIssue
	add := func(format string, args ...any) {
		issues = append(issues, ValidationIssue{Severity: SeverityError, Where: "pivot", Message: fmt.Sprintf(format, args...)})
	}

	src, err := readPivotSource(wb, sheet, spec.Source)
	if err != nil {
		add("%v", err)
	} else {
		if src.column(spec.RowField) < 0 {
			add("row field %q is not a header of %s", spec.RowField, spec.Source)
		}
		if len(spec.Values) == 0 {
			add("at least one value field is required")
		}
		for _, v := range spec.Values {
			if src.column(v.Field) < 0 {
				add("value field %q is not a header of %s", v.Field, spec.Source)
			}
		}
	}
	if _, ok := ResolveRange(wb, spec.Location, sheet); !ok || strings.Contains(spec.Location, ":") {
		add("invalid location %q", spec.Location)
	}
	if spec.Filter != "" {
		if _, err := expr.Compile(spec.Filter, expr.AllowUndefinedVariables()); err != nil {
			add("invalid filter expression %q: %v", spec.Filter, err)
		}
	}
	return issues
}
