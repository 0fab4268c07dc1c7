package eval

import (
	"errors"

	"github.com/rillsh/rill/pkg/diag"
	"github.com/rillsh/rill/pkg/eval/errs"
	"github.com/rillsh/rill/pkg/eval/vals"
	"github.com/rillsh/rill/pkg/parse"
)

// Maximum nesting of closure invocations. Deeper recursion raises an
// exception instead of exhausting the goroutine stack.
const maxCallDepth = 1000

// Frame contains the state of the currently evaluating block: the scope
// chain, the pipeline input of the running command, and the interrupt
// channel. Frames are forked, never mutated, when evaluation descends
// into a nested block.
type Frame struct {
	Evaler *Evaler

	src   parse.Source
	local *Ns
	input vals.Stream
	intCh <-chan struct{}
	depth int
}

// fork returns a copy of the frame for nested evaluation. Fields are then
// adjusted by the caller.
func (fm *Frame) fork() *Frame {
	cp := *fm
	return &cp
}

// Input returns the input stream of the frame. A frame with no pipeline
// input has an empty stream.
func (fm *Frame) Input() vals.Stream {
	if fm.input == nil {
		return vals.EmptyStream()
	}
	return fm.input
}

// InputValue materializes the frame's input into a single value: nil for
// an empty input, the sole element of a one-element input, and a List
// otherwise.
func (fm *Frame) InputValue() (any, error) {
	list, err := vals.Collect(fm.Input())
	if err != nil {
		return nil, err
	}
	switch len(list) {
	case 0:
		return nil, nil
	case 1:
		return list[0], nil
	default:
		return list, nil
	}
}

// Interrupts returns a channel that is closed when evaluation should be
// cancelled. It may be nil.
func (fm *Frame) Interrupts() <-chan struct{} {
	return fm.intCh
}

// IsInterrupted reports whether evaluation has been cancelled. Loops,
// streams and plugin channels poll this and release their resources
// immediately when it reports true.
func (fm *Frame) IsInterrupted() bool {
	select {
	case <-fm.intCh:
		return true
	default:
		return false
	}
}

// errorp wraps err into an Exception attributed to the range r within the
// frame's source. Exceptions and flow signals pass through unchanged.
func (fm *Frame) errorp(r diag.Ranger, err error) error {
	if err == nil {
		return nil
	}
	if isFlow(err) {
		return err
	}
	if exc, ok := err.(*Exception); ok {
		return exc
	}
	ctx := diag.NewContext(fm.src.Name, fm.src.Code, r)
	return NewException(err, &StackTrace{Head: ctx})
}

// cancelled returns the exception signalling cancellation, attributed to
// the range r.
func (fm *Frame) cancelled(r diag.Ranger) error {
	return fm.errorp(r, errs.ErrCancelled)
}

// IsCancelled reports whether an error (possibly an Exception) was caused
// by cancellation.
func IsCancelled(err error) bool {
	return errors.Is(Reason(err), errs.ErrCancelled)
}

// addStackEntry returns err with a stack trace entry for the range r
// prepended. Only exceptions accumulate stack entries.
func (fm *Frame) addStackEntry(r diag.Ranger, err error) error {
	exc, ok := err.(*Exception)
	if !ok {
		return err
	}
	ctx := diag.NewContext(fm.src.Name, fm.src.Code, r)
	return NewException(exc.reason, &StackTrace{Head: ctx, Next: exc.stackTrace})
}
