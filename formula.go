package gridcalc

import (
	"regexp"
	"strings"
)

// cellRefRegex matches cell references in formulas (e.g. A1, $A$1, Sheet1!A1, 'My Sheet'!B2).
var cellRefRegex = regexp.MustCompile(`(?:('[^']+'|[^'!(),:\s=+\-*/&"]+)!)?\$?([A-Za-z]{1,3})\$?(\d+)`)

// refMatch is one cell reference found in formula text.
type refMatch struct {
	start, end int // whole match
	qualStart  int // -1 when unqualified
	qualEnd    int
	sheet      string
}

// findRefs lists cell references outside string literals, in order. Matches
// glued to a preceding letter or digit, or followed by '(' (a function name
// such as LOG10), are ignored.
func findRefs(formula string) []refMatch {
	quoted := quotedMask(formula)
	var out []refMatch
	for _, m := range cellRefRegex.FindAllStringSubmatchIndex(formula, -1) {
		if quoted[m[0]] {
			continue
		}
		if m[0] > 0 && isWordByte(formula[m[0]-1]) {
			continue
		}
		if m[1] < len(formula) && formula[m[1]] == '(' {
			continue
		}
		r := refMatch{start: m[0], end: m[1], qualStart: -1, qualEnd: -1}
		if m[2] >= 0 {
			r.qualStart, r.qualEnd = m[2], m[3]
			r.sheet = strings.Trim(formula[m[2]:m[3]], "'")
		}
		out = append(out, r)
	}
	return out
}

// quotedMask marks the bytes that sit inside double-quoted literals.
func quotedMask(s string) []bool {
	mask := make([]bool, len(s)+1)
	in := false
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			in = !in
			mask[i] = true
			continue
		}
		mask[i] = in
	}
	return mask
}

func isWordByte(b byte) bool {
	return isAlpha(b) || (b >= '0' && b <= '9') || b == '_' || b == '.'
}

// quoteSheetName wraps names containing spaces in single quotes.
func quoteSheetName(name string) string {
	if strings.ContainsAny(name, " \t") {
		return "'" + name + "'"
	}
	return name
}

// RenameQualifier rewrites every "oldName!" qualifier in formula to newName.
func RenameQualifier(formula, oldName, newName string) string {
	refs := findRefs(formula)
	result := formula
	// Process matches in reverse order to preserve indices
	for i := len(refs) - 1; i >= 0; i-- {
		r := refs[i]
		if r.qualStart < 0 || r.sheet != oldName {
			continue
		}
		result = result[:r.qualStart] + quoteSheetName(newName) + result[r.qualEnd:]
	}
	return result
}

// QualifyReferences prefixes every unqualified reference in formula with
// sheet. Only the first end of a range is qualified, since the qualifier
// applies to the whole range.
func QualifyReferences(formula, sheet string) string {
	refs := findRefs(formula)
	result := formula
	for i := len(refs) - 1; i >= 0; i-- {
		r := refs[i]
		if r.qualStart >= 0 {
			continue
		}
		if r.start > 0 && formula[r.start-1] == ':' {
			continue
		}
		result = result[:r.start] + quoteSheetName(sheet) + "!" + result[r.start:]
	}
	return result
}

// referencesSheet reports whether formula names sheet in a qualifier.
func referencesSheet(formula, sheet string) bool {
	for _, r := range findRefs(formula) {
		if r.qualStart >= 0 && r.sheet == sheet {
			return true
		}
	}
	return false
}
