package eval

// Control-flow exits are signalled by distinguished error values, kept
// strictly apart from data errors (exceptions): try/catch catches
// exceptions only, while loops and closure bodies intercept the flow
// signals addressed to them. This is what lets a catch branch handle a
// failure while a break inside the same try still exits the enclosing
// loop.

type flowSignal struct {
	name string
}

func (f flowSignal) Error() string {
	return f.name + " outside of its context"
}

// Break and Continue are raised by the corresponding builtins and
// intercepted by the innermost enclosing loop.
var (
	Break    error = flowSignal{"break"}
	Continue error = flowSignal{"continue"}
)

// returnSignal carries an early-return value out of a closure body.
type returnSignal struct {
	value any
}

func (returnSignal) Error() string {
	return "return outside of a block"
}

// isFlow reports whether err is a control-flow signal rather than a data
// error.
func isFlow(err error) bool {
	switch err.(type) {
	case flowSignal, returnSignal:
		return true
	}
	return false
}
