package diag

import (
	"fmt"
	"io"
	"strings"
)

// Error represents an error with a source context that can be shown. It
// carries the primary context of the error plus any number of related
// contexts, so that a presentation layer can underline all of them.
type Error struct {
	Type    string
	Message string
	Context Context
	Related []Context
}

// Error returns a plain text representation of the error.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %d-%d in %s: %s",
		e.Type, e.Context.From, e.Context.To, e.Context.Name, e.Message)
}

// Range returns the range of the primary context.
func (e *Error) Range() Ranging {
	return e.Context.Range()
}

// Show shows the error.
func (e *Error) Show(indent string) string {
	header := fmt.Sprintf("%s: %s%s%s\n",
		title(e.Type), messageBegin, e.Message, messageEnd)
	s := header + e.Context.ShowCompact(indent+"  ")
	for i := range e.Related {
		s += "\n" + indent + "  " + e.Related[i].ShowCompact(indent+"  ")
	}
	return s
}

// ShowError shows an error. It uses the Show method if the error
// implements Shower, and the Error method otherwise.
func ShowError(w io.Writer, err error) {
	if shower, ok := err.(Shower); ok {
		fmt.Fprintln(w, shower.Show(""))
	} else {
		fmt.Fprintln(w, title(err.Error()))
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Styling of the error message proper, disabled along with culprit
// styling by DisableANSI.
var (
	messageBegin = "\033[31;1m"
	messageEnd   = "\033[m"
)
