package gridcalc

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies which scalar a Value holds.
type Kind uint8

const (
	KindText Kind = iota
	KindInteger
	KindDouble
)

// String returns a human-readable name for the Kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindInteger:
		return "Integer"
	case KindDouble:
		return "Double"
	default:
		return "Unknown"
	}
}

// Value is an immutable cell scalar: an Integer, a Double or a Text.
// The zero Value is Text("").
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Integer returns an Integer value.
func Integer(i int64) Value { return Value{kind: KindInteger, i: i} }

// Double returns a Double value.
func Double(f float64) Value { return Value{kind: KindDouble, f: f} }

// Text returns a Text value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Classify converts raw cell text into a typed Value.
// Integers win over doubles; a number ending in '.' stays text. Surrounding
// whitespace is ignored for numbers and kept for text.
func Classify(s string) Value {
	t := strings.TrimSpace(s)
	if i, err := strconv.ParseInt(t, 10, 64); err == nil {
		return Integer(i)
	}
	if isDecimalNumber(t) && !strings.HasSuffix(t, ".") {
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return Double(f)
		}
	}
	return Text(s)
}

// isDecimalNumber rejects spellings strconv would accept but a cell should not
// (inf, nan, hex floats, digit separators).
func isDecimalNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
		case c == '.', c == '+', c == '-', c == 'e', c == 'E':
		default:
			return false
		}
	}
	return true
}

// Kind returns the kind of scalar held.
func (v Value) Kind() Kind { return v.kind }

// IsNumeric reports whether v is an Integer or a Double.
func (v Value) IsNumeric() bool { return v.kind == KindInteger || v.kind == KindDouble }

// Int returns the integer payload.
func (v Value) Int() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.i, true
}

// Float returns the numeric payload promoted to float64.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInteger:
		return float64(v.i), true
	case KindDouble:
		return v.f, true
	default:
		return 0, false
	}
}

// Native returns the payload as int64, float64 or string.
func (v Value) Native() any {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindDouble:
		return v.f
	default:
		return v.s
	}
}

// String renders the value the way a cell displays it.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return formatFloat(v.f)
	default:
		return v.s
	}
}

// formatFloat renders the shortest round-trip form, switching to exponent
// notation for very large or very small magnitudes.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs >= 1e15 || (abs != 0 && abs < 1e-5) {
		return strconv.FormatFloat(f, 'E', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// add sums two numeric values; Integer+Integer stays Integer.
func add(a, b Value) Value {
	if a.kind == KindInteger && b.kind == KindInteger {
		return Integer(a.i + b.i)
	}
	x, _ := a.Float()
	y, _ := b.Float()
	return Double(x + y)
}

// modulo computes the truncated remainder. Integer division by zero fails;
// a Double divisor of zero yields NaN.
func modulo(a, b Value) (Value, bool) {
	if a.kind == KindInteger && b.kind == KindInteger {
		if b.i == 0 {
			return Value{}, false
		}
		return Integer(a.i % b.i), true
	}
	x, _ := a.Float()
	y, _ := b.Float()
	return Double(math.Mod(x, y)), true
}
