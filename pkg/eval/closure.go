package eval

import (
	"github.com/rillsh/rill/pkg/diag"
	"github.com/rillsh/rill/pkg/eval/errs"
	"github.com/rillsh/rill/pkg/eval/vars"
	"github.com/rillsh/rill/pkg/parse"
)

// Closure is a block of code plus the scope frame that was active at its
// definition point. Invoking it pushes a new frame whose parent is the
// captured frame, regardless of where the invocation happens.
type Closure struct {
	Params   []string
	Body     *parse.Chunk
	Captured *Ns
	SrcMeta  parse.Source
	DefRange diag.Ranging
}

var _ Callable = (*Closure)(nil)

// Kind returns "fn".
func (c *Closure) Kind() string { return "fn" }

// Equal compares by identity.
func (c *Closure) Equal(rhs any) bool { return c == rhs }

// Repr returns a representation of the closure.
func (c *Closure) Repr() string { return "<fn>" }

// Call binds the arguments in a fresh frame nested in the captured scope
// and evaluates the body. A block declared without parameters may be
// applied to one argument, which is then bound to "it".
func (c *Closure) Call(fm *Frame, args []any, flags map[string]any) (any, error) {
	params := c.Params
	if len(params) == 0 && len(args) == 1 {
		params = []string{"it"}
	}
	if len(args) != len(params) {
		return nil, fm.errorp(c.DefRange, errs.ArityMismatch{
			What:     "arguments",
			ValidLow: len(params), ValidHigh: len(params), Actual: len(args)})
	}
	if len(flags) != 0 {
		return nil, fm.errorp(c.DefRange, errs.BadValue{
			What: "flags", Valid: "none", Actual: "flags on a block call"})
	}

	local := NewNs(c.Captured)
	for i, name := range params {
		local.Define(name, vars.FromInit(args[i]))
	}

	body := fm.fork()
	body.src = c.SrcMeta
	body.local = local
	body.depth = fm.depth + 1
	if body.depth > maxCallDepth {
		return nil, fm.errorp(c.DefRange, errs.BadValue{
			What: "call depth", Valid: "at most 1000", Actual: "deeper recursion"})
	}

	v, err := evalChunk(body, c.Body)
	if ret, ok := err.(returnSignal); ok {
		return ret.value, nil
	}
	return v, err
}
