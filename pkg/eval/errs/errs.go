// Package errs declares the structured error kinds raised by the
// evaluation engine and its collaborators. Each kind is a value type
// carrying the facts a presentation layer needs, with Error assembling a
// human-readable message from them.
package errs

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrCancelled is raised when a running pipeline is interrupted by its
// consumer or by a signal. It is a signal, not a data error: Try does not
// catch it, and every active stream and plugin channel honors it by
// releasing resources immediately.
var ErrCancelled = errors.New("cancelled")

// UnboundName is raised when resolving a name finds no binding anywhere
// in the scope chain.
type UnboundName struct {
	Name string
}

func (e UnboundName) Error() string {
	return "unbound name: " + e.Name
}

// ArityMismatch is raised when a command gets a wrong number of
// arguments. Calls written in source are checked at parse time; this
// error arises for dynamically built calls, like applying a block to the
// wrong number of elements.
type ArityMismatch struct {
	What string
	// The valid range of the number of arguments. ValidHigh is -1 for
	// "no upper bound".
	ValidLow, ValidHigh int
	Actual              int
}

func (e ArityMismatch) Error() string {
	return fmt.Sprintf("%s must be %s, got %d", e.What, e.validDesc(), e.Actual)
}

func (e ArityMismatch) validDesc() string {
	switch {
	case e.ValidHigh == e.ValidLow:
		return "exactly " + strconv.Itoa(e.ValidLow)
	case e.ValidHigh == -1:
		return "at least " + strconv.Itoa(e.ValidLow)
	default:
		return fmt.Sprintf("between %d and %d", e.ValidLow, e.ValidHigh)
	}
}

// TypeMismatch is raised when a value is consumed in a position expecting
// an incompatible shape.
type TypeMismatch struct {
	What   string
	Valid  string
	Actual string
}

func (e TypeMismatch) Error() string {
	return fmt.Sprintf("%s must be %s, got %s", e.What, e.Valid, e.Actual)
}

// IncomparableTypes is raised when ordering is requested between values
// of dissimilar kinds. Comparing dissimilar kinds never silently yields
// false.
type IncomparableTypes struct {
	KindA, KindB string
}

func (e IncomparableTypes) Error() string {
	return fmt.Sprintf("values of kinds %s and %s are not comparable", e.KindA, e.KindB)
}

// BadValue is raised when a value has the right shape but an invalid
// content, like a negative count.
type BadValue struct {
	What   string
	Valid  string
	Actual string
}

func (e BadValue) Error() string {
	return fmt.Sprintf("%s must be %s, got %s", e.What, e.Valid, e.Actual)
}
