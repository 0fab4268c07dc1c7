package eval

import (
	"strings"

	"github.com/rillsh/rill/pkg/diag"
	"github.com/rillsh/rill/pkg/eval/vals"
)

// Exception represents a runtime failure. It is both an error returned by
// evaluation and a first-class value that can flow through pipelines: its
// kind is "error", and a try/catch branch receives it as the bound value.
type Exception struct {
	reason     error
	stackTrace *StackTrace
}

// StackTrace is a stack trace represented as a linked list of source
// contexts, innermost first.
type StackTrace struct {
	Head *diag.Context
	Next *StackTrace
}

// NewException creates a new Exception.
func NewException(reason error, stackTrace *StackTrace) *Exception {
	return &Exception{reason, stackTrace}
}

// Reason returns the reason of the exception.
func (exc *Exception) Reason() error { return exc.reason }

// StackTrace returns the stack trace of the exception.
func (exc *Exception) StackTrace() *StackTrace { return exc.stackTrace }

// Error returns the message of the reason of the exception.
func (exc *Exception) Error() string { return exc.reason.Error() }

// Kind returns "error".
func (exc *Exception) Kind() string { return "error" }

// Repr returns a representation of the exception. It is lossy in that it
// does not preserve the stack trace.
func (exc *Exception) Repr() string {
	return "<error: " + exc.reason.Error() + ">"
}

// Equal compares by identity.
func (exc *Exception) Equal(rhs any) bool { return exc == rhs }

// Show shows the exception with its stack trace.
func (exc *Exception) Show(indent string) string {
	var sb strings.Builder
	var causeDescription string
	if shower, ok := exc.reason.(diag.Shower); ok {
		causeDescription = shower.Show(indent)
	} else {
		causeDescription = exc.reason.Error()
	}
	sb.WriteString("Exception: " + causeDescription)

	if exc.stackTrace != nil {
		if exc.stackTrace.Next == nil {
			sb.WriteString("\n" + exc.stackTrace.Head.ShowCompact(indent))
		} else {
			sb.WriteString("\n" + indent + "Traceback:")
			for tb := exc.stackTrace; tb != nil; tb = tb.Next {
				sb.WriteString("\n" + indent + "  ")
				sb.WriteString(tb.Head.Show(indent + "    "))
			}
		}
	}
	return sb.String()
}

// Reason returns the Reason field if err is an Exception. Otherwise it
// returns err itself.
func Reason(err error) error {
	if exc, ok := err.(*Exception); ok {
		return exc.reason
	}
	return err
}

var _ vals.Kinder = (*Exception)(nil)
