package gridcalc

import (
	"strings"

	"github.com/xuri/efp"
)

// FunctionKind identifies a library function by name.
type FunctionKind int

const (
	FuncUnknown FunctionKind = iota
	FuncSum
	FuncAverage
	FuncCount
	FuncSubtotal
	FuncMod
	FuncPower
	FuncCeiling
	FuncFloor
	FuncLen
	FuncConcatenate
	FuncReplace
	FuncSubstitute
	FuncVlookup
	FuncNow
	FuncToday
)

var functionNames = map[string]FunctionKind{
	"SUM":         FuncSum,
	"AVERAGE":     FuncAverage,
	"COUNT":       FuncCount,
	"SUBTOTAL":    FuncSubtotal,
	"MOD":         FuncMod,
	"POWER":       FuncPower,
	"CEILING":     FuncCeiling,
	"FLOOR":       FuncFloor,
	"LEN":         FuncLen,
	"CONCATENATE": FuncConcatenate,
	"REPLACE":     FuncReplace,
	"SUBSTITUTE":  FuncSubstitute,
	"VLOOKUP":     FuncVlookup,
	"NOW":         FuncNow,
	"TODAY":       FuncToday,
}

// LookupFunction maps an upper-case name to its FunctionKind.
func LookupFunction(name string) FunctionKind {
	return functionNames[name]
}

// String returns the function name, or "UNKNOWN".
func (k FunctionKind) String() string {
	for name, kind := range functionNames {
		if kind == k {
			return name
		}
	}
	return "UNKNOWN"
}

// Arg is one top-level argument of a call. Quoted arguments are a single
// string literal; Raw then holds the literal without its quotes.
type Arg struct {
	Raw    string
	Quoted bool
}

// Call is a parsed "=NAME(arg, ...)" formula.
type Call struct {
	Name string
	Kind FunctionKind
	Args []Arg
	// Trailing is set when tokens follow the closing parenthesis,
	// as in "=SUM(A1)+1".
	Trailing bool
}

// ParseCall splits formula text into a function name and its arguments.
// The name is the text before the first '(' with the leading '=' and all
// spaces removed, upper-cased. An empty argument list yields one empty
// argument. Returns false when there is no '(' or no name.
func ParseCall(text string) (Call, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "=")
	idx := strings.IndexByte(text, '(')
	if idx < 0 {
		return Call{}, false
	}
	name := strings.ToUpper(strings.ReplaceAll(text[:idx], " ", ""))
	if name == "" {
		return Call{}, false
	}
	call := Call{Name: name, Kind: LookupFunction(name)}

	ps := efp.ExcelParser()
	tokens := ps.Parse(name + text[idx:])
	var (
		arg    []efp.Token
		depth  int
		opened bool
	)
	flush := func() {
		arg = unwrapSubexpr(arg)
		if len(arg) == 1 && arg[0].TType == efp.TokenTypeOperand && arg[0].TSubType == efp.TokenSubTypeText {
			call.Args = append(call.Args, Arg{Raw: arg[0].TValue, Quoted: true})
		} else {
			call.Args = append(call.Args, Arg{Raw: renderTokens(arg)})
		}
		arg = nil
	}
	for _, t := range tokens {
		if depth == 0 {
			if !opened && t.TType == efp.TokenTypeFunction && t.TSubType == efp.TokenSubTypeStart {
				opened = true
				depth = 1
				continue
			}
			call.Trailing = true
			continue
		}
		switch {
		case t.TType == efp.TokenTypeFunction && t.TSubType == efp.TokenSubTypeStart:
			depth++
		case t.TType == efp.TokenTypeFunction && t.TSubType == efp.TokenSubTypeStop:
			depth--
			if depth == 0 {
				flush()
				continue
			}
		case t.TType == efp.TokenTypeArgument && depth == 1:
			flush()
			continue
		}
		arg = append(arg, t)
	}
	// unterminated call: keep what was collected
	if depth > 0 {
		flush()
	}
	if len(call.Args) == 0 {
		call.Args = []Arg{{}}
	}
	return call, true
}

// unwrapSubexpr drops parentheses that enclose a whole argument, so "((A1))"
// reads as "A1".
func unwrapSubexpr(arg []efp.Token) []efp.Token {
	for len(arg) >= 2 && isSubexpr(arg[0], efp.TokenSubTypeStart) && isSubexpr(arg[len(arg)-1], efp.TokenSubTypeStop) {
		depth := 0
		for i, t := range arg[:len(arg)-1] {
			switch {
			case isSubexpr(t, efp.TokenSubTypeStart):
				depth++
			case isSubexpr(t, efp.TokenSubTypeStop):
				depth--
			}
			// "(A1)+(B1)": the first group closes before the end
			if depth == 0 && i > 0 {
				return arg
			}
		}
		arg = arg[1 : len(arg)-1]
	}
	return arg
}

func isSubexpr(t efp.Token, sub string) bool {
	return t.TType == efp.TokenTypeSubexpression && t.TSubType == sub
}

// renderTokens writes tokens back as formula text.
func renderTokens(tokens []efp.Token) string {
	var b strings.Builder
	for _, t := range tokens {
		switch {
		case t.TType == efp.TokenTypeFunction && t.TSubType == efp.TokenSubTypeStart:
			b.WriteString(t.TValue + "(")
		case t.TType == efp.TokenTypeFunction && t.TSubType == efp.TokenSubTypeStop:
			b.WriteString(")")
		case t.TType == efp.TokenTypeArgument:
			b.WriteString(",")
		case isSubexpr(t, efp.TokenSubTypeStart):
			b.WriteString("(")
		case isSubexpr(t, efp.TokenSubTypeStop):
			b.WriteString(")")
		case t.TType == efp.TokenTypeOperand && t.TSubType == efp.TokenSubTypeText:
			b.WriteString(`"` + strings.ReplaceAll(t.TValue, `"`, `""`) + `"`)
		default:
			b.WriteString(t.TValue)
		}
	}
	return b.String()
}
