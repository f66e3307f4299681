package gridcalc

// EvalListener is notified before and after each cell evaluation.
// Implement this interface to trace or audit recomputation.
type EvalListener interface {
	// BeforeEvaluate is called with the text about to be evaluated.
	BeforeEvaluate(ref Ref, text string)

	// AfterEvaluate is called with the outcome. matched is false when no
	// function applied and the text stays displayed as typed.
	AfterEvaluate(ref Ref, text, result string, matched bool)
}

// EvalListenerFunc adapts a function to EvalListener; it only receives
// AfterEvaluate.
type EvalListenerFunc func(ref Ref, text, result string, matched bool)

// BeforeEvaluate does nothing.
func (EvalListenerFunc) BeforeEvaluate(Ref, string) {}

// AfterEvaluate calls f.
func (f EvalListenerFunc) AfterEvaluate(ref Ref, text, result string, matched bool) {
	f(ref, text, result, matched)
}
