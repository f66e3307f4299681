package gridcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// numbersBook holds A1=1, A2=2, A3="abc", B1=3.5 on Sheet1 and A1=10 on Sheet2.
func numbersBook(t *testing.T) *Workbook {
	t.Helper()
	wb := NewWorkbook("Sheet1", "Sheet2")
	put(t, wb, 0, "A1", "1")
	put(t, wb, 0, "A2", "2")
	put(t, wb, 0, "A3", "abc")
	put(t, wb, 0, "B1", "3.5")
	put(t, wb, 1, "A1", "10")
	return wb
}

func assertEval(t *testing.T, wb *Workbook, formula, want string) {
	t.Helper()
	got, ok := evalAt(t, NewEvaluator(), wb, 0, "Z99", formula)
	assert.True(t, ok, formula)
	assert.Equal(t, want, got, formula)
}

func assertNoMatch(t *testing.T, wb *Workbook, formula string) {
	t.Helper()
	_, ok := evalAt(t, NewEvaluator(), wb, 0, "Z99", formula)
	assert.False(t, ok, formula)
}

func TestSum(t *testing.T) {
	wb := numbersBook(t)
	assertEval(t, wb, "=SUM(A1,A2)", "3")
	assertEval(t, wb, "=SUM(A1:B1)", "4.5")
	assertEval(t, wb, "=SUM(A1:A3)", "3")
	assertEval(t, wb, "=SUM(A1:A2, 10)", "13")
	assertEval(t, wb, "=SUM(A1,Sheet2!A1)", "11")
	assertEval(t, wb, "=sum(A1, A2)", "3")
}

func TestSum_ParenthesizedArguments(t *testing.T) {
	wb := numbersBook(t)
	assertEval(t, wb, "=SUM((A1))", "1")
	assertEval(t, wb, "=SUM((A1), ((A2)), (10))", "13")
	assertEval(t, wb, "=SUM((A1:B1))", "4.5")
}

func TestAggregates_MixedArguments(t *testing.T) {
	wb := NewWorkbook()
	put(t, wb, 0, "A1", "1")
	put(t, wb, 0, "B1", "2")
	put(t, wb, 0, "C1", "text")
	assertEval(t, wb, "=SUM(A1, B1:C1, 3)", "6")
	assertEval(t, wb, "=COUNT(A1, B1:C1, 3)", "3")
	assertEval(t, wb, "=FLOOR(1.7,1)", "1")
	assertEval(t, wb, "=CEILING(1.2,1)", "2")
}

func TestSum_InvalidArguments(t *testing.T) {
	wb := numbersBook(t)
	assertEval(t, wb, `=SUM(A1,"2")`, MarkNameQ)
	assertEval(t, wb, "=SUM(A1,foo)", MarkNameQ)
	assertEval(t, wb, "=SUM()", MarkNameQ)
	assertEval(t, wb, "=SUM(Bogus!A1)", MarkNameQ)
}

func TestSum_SelfInclusion(t *testing.T) {
	wb := numbersBook(t)
	got, ok := evalAt(t, NewEvaluator(), wb, 0, "C1", "=SUM(A1:C1)")
	assert.True(t, ok)
	assert.Equal(t, MarkRecursion, got)

	// self inclusion is checked before the #NAME? check
	got, _ = evalAt(t, NewEvaluator(), wb, 0, "C1", "=SUM(C1,foo)")
	assert.Equal(t, MarkRecursion, got)
}

func TestSum_SameAddressOtherSheetIsNotSelf(t *testing.T) {
	wb := numbersBook(t)
	got, ok := evalAt(t, NewEvaluator(), wb, 0, "A5", "=SUM(Sheet2!A5,A1)")
	assert.True(t, ok)
	assert.Equal(t, "1", got)
}

func TestAverageAndCount(t *testing.T) {
	wb := numbersBook(t)
	assertEval(t, wb, "=AVERAGE(A1,A2)", "1.5")
	assertEval(t, wb, "=AVERAGE(A1:A3)", "1.5")
	assertEval(t, wb, "=AVERAGE(A2, 4)", "3")
	assertEval(t, wb, "=AVERAGE(A3)", "NaN")
	assertEval(t, wb, "=COUNT(A1:A3)", "2")
	assertEval(t, wb, "=COUNT(A1:B3)", "3")
}

func TestSubtotal(t *testing.T) {
	wb := numbersBook(t)
	assertEval(t, wb, "=SUBTOTAL(9,A1:A2)", "3")
	assertEval(t, wb, "=SUBTOTAL(1,A1:A2)", "1.5")
	assertEval(t, wb, "=SUBTOTAL(2,A1:A3)", "2")
	assertEval(t, wb, "=SUBTOTAL(9,A1,foo)", MarkNameQ)
	assertNoMatch(t, wb, "=SUBTOTAL(5,A1:A2)")
	assertNoMatch(t, wb, `=SUBTOTAL("9",A1:A2)`)
}

func TestSubtotal_SelfInclusion(t *testing.T) {
	wb := numbersBook(t)
	got, ok := evalAt(t, NewEvaluator(), wb, 0, "A4", "=SUBTOTAL(9,A1:A4)")
	assert.True(t, ok)
	assert.Equal(t, MarkRecursion, got)
}

func TestMod(t *testing.T) {
	wb := numbersBook(t)
	assertEval(t, wb, "=MOD(7,3)", "1")
	assertEval(t, wb, "=MOD(7.5,2)", "1.5")
	assertEval(t, wb, "=MOD(Sheet2!A1,3)", "1")
	assertEval(t, wb, "=MOD(A1,0)", MarkValue)
	assertEval(t, wb, "=MOD(A3,2)", MarkValue)
	assertEval(t, wb, `=MOD("7",2)`, MarkValue)
	assertNoMatch(t, wb, "=MOD(7)")
	assertNoMatch(t, wb, "=MOD(7,2,1)")
}

func TestPower(t *testing.T) {
	wb := numbersBook(t)
	assertEval(t, wb, "=POWER(2,10)", "1024")
	assertEval(t, wb, "=POWER(A2,0.5)", "1.4142135623730951")
	assertEval(t, wb, "=POWER(x,2)", MarkValue)
}

func TestCeilingAndFloor(t *testing.T) {
	wb := numbersBook(t)
	assertEval(t, wb, "=CEILING(2.5,1)", "3")
	assertEval(t, wb, "=CEILING(7,5)", "10")
	assertEval(t, wb, "=FLOOR(7,5)", "5")
	assertEval(t, wb, "=FLOOR(-2.5,1)", "-3")
	assertEval(t, wb, "=FLOOR(B1,1)", "3")
	assertEval(t, wb, "=CEILING(A3,1)", MarkValue)
}

func TestBinary_SelfInclusion(t *testing.T) {
	wb := numbersBook(t)
	got, _ := evalAt(t, NewEvaluator(), wb, 0, "C1", "=MOD(C1,2)")
	assert.Equal(t, MarkRecursion, got)
}

func TestLen(t *testing.T) {
	wb := numbersBook(t)
	assertEval(t, wb, `=LEN("hello")`, "5")
	assertEval(t, wb, `=LEN("héllo")`, "5")
	assertEval(t, wb, "=LEN(A3)", "3")
	assertEval(t, wb, "=LEN(B1)", "3")
	assertEval(t, wb, "=LEN(C9)", "0")
	assertEval(t, wb, "=LEN(hello)", MarkName)
	assertNoMatch(t, wb, `=LEN("a","b")`)
}

func TestConcatenate(t *testing.T) {
	wb := numbersBook(t)
	assertEval(t, wb, `=CONCATENATE("a", A1, "-", A3)`, "a1-abc")
	assertEval(t, wb, "=CONCATENATE(A1:A2)", "12")
	assertEval(t, wb, `=CONCATENATE("x", word)`, MarkName)
}

func TestReplace(t *testing.T) {
	wb := numbersBook(t)
	assertEval(t, wb, `=REPLACE("bob",1,3,"z")`, "z")
	assertEval(t, wb, `=REPLACE("abcdef",2,3,"X")`, "aXef")
	assertEval(t, wb, `=REPLACE("abcdef",2,99,"X")`, "aX")
	assertEval(t, wb, `=REPLACE("ab",5,1,"X")`, "abX")
	assertEval(t, wb, `=REPLACE(A3,2,1,"Z")`, "aZc")
}

func TestReplace_Errors(t *testing.T) {
	wb := numbersBook(t)
	assertEval(t, wb, `=REPLACE("ab",0,1,"X")`, MarkName)
	assertEval(t, wb, `=REPLACE("ab",1,-1,"X")`, MarkName)
	assertEval(t, wb, `=REPLACE("ab","1",1,"X")`, MarkName)
	assertEval(t, wb, `=REPLACE(ab,1,1,"X")`, MarkName)
	assertNoMatch(t, wb, `=REPLACE("ab",1,1)`)
}

func TestSubstitute(t *testing.T) {
	wb := numbersBook(t)
	assertEval(t, wb, `=SUBSTITUTE("bob","b","x")`, "xox")
	assertEval(t, wb, `=SUBSTITUTE("bob","b","x",1)`, "xob")
	assertEval(t, wb, `=SUBSTITUTE("bob","b","x",2)`, "box")
	assertEval(t, wb, `=SUBSTITUTE("bob","b","x",3)`, "bob")
	assertEval(t, wb, `=SUBSTITUTE("bob","b","x",0)`, "bob")
	assertEval(t, wb, `=SUBSTITUTE("aaa","aa","b",2)`, "ab")
	assertEval(t, wb, `=SUBSTITUTE(A3,"b","")`, "ac")
	assertEval(t, wb, `=SUBSTITUTE("bob","","x")`, "bob")
}

func TestSubstitute_Errors(t *testing.T) {
	wb := numbersBook(t)
	assertEval(t, wb, `=SUBSTITUTE(bob,"b","x")`, MarkName)
	assertNoMatch(t, wb, `=SUBSTITUTE("bob","b","x",y)`)
	assertNoMatch(t, wb, `=SUBSTITUTE("bob","b")`)
}

// lookupBook holds a 3x3 table in A1:C3 on Sheet1.
func lookupBook(t *testing.T) *Workbook {
	t.Helper()
	wb := NewWorkbook("Sheet1", "Sheet2")
	put(t, wb, 0, "A1", "k1")
	put(t, wb, 0, "B1", "10")
	put(t, wb, 0, "C1", "x")
	put(t, wb, 0, "A2", "k2")
	put(t, wb, 0, "B2", "20")
	put(t, wb, 0, "C2", "y")
	put(t, wb, 0, "A3", "k3")
	put(t, wb, 0, "B3", "30")
	put(t, wb, 0, "G1", "k1")
	return wb
}

func TestVlookup(t *testing.T) {
	wb := lookupBook(t)
	assertEval(t, wb, `=VLOOKUP("k2",A1:C3,2)`, "20")
	assertEval(t, wb, `=VLOOKUP("k2",A1:C3,1)`, "k2")
	assertEval(t, wb, "=VLOOKUP(G1,A1:C3,3)", "x")
	assertEval(t, wb, `=VLOOKUP("k3",Sheet1!A1:C3,2)`, "30")
}

func TestVlookup_Errors(t *testing.T) {
	wb := lookupBook(t)
	assertEval(t, wb, `=VLOOKUP("k3",A1:C3,3)`, MarkNA)
	assertEval(t, wb, `=VLOOKUP("zz",A1:C3,2)`, MarkNA)
	assertEval(t, wb, `=VLOOKUP("k1",A1:C3,0)`, MarkNA)
	assertEval(t, wb, `=VLOOKUP("k1",A1:C3,4)`, MarkRef)
	assertEval(t, wb, `=VLOOKUP(zz,A1:C3,2)`, MarkName)
	assertNoMatch(t, wb, `=VLOOKUP("k1",A1:C3,x)`)
}

func TestVlookup_SelfInclusion(t *testing.T) {
	wb := lookupBook(t)
	got, _ := evalAt(t, NewEvaluator(), wb, 0, "B2", `=VLOOKUP("k1",A1:C3,2)`)
	assert.Equal(t, MarkRecursion, got)
}
