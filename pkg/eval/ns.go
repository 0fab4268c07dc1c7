package eval

import (
	"github.com/rillsh/rill/pkg/eval/vars"
)

// Ns is one frame of the lexical environment: a mapping from names to
// variables, plus a reference to the frame it nests in. Name resolution
// walks from the innermost frame outward.
//
// A new Ns is created per block or closure invocation and per loop
// iteration. Closures capture a shared reference to the Ns that was
// active at their definition point, which keeps lexical capture correct
// no matter where the closure is later invoked; the garbage collector
// owns frame lifetime, so a closure holding its defining frame alive
// never forms an ownership cycle.
type Ns struct {
	parent *Ns
	names  map[string]vars.Var
}

// NewNs creates a new Ns nested in parent. A nil parent makes a root Ns.
func NewNs(parent *Ns) *Ns {
	return &Ns{parent: parent, names: make(map[string]vars.Var)}
}

// Define binds a name in this frame, shadowing any binding of the same
// name in outer frames.
func (ns *Ns) Define(name string, v vars.Var) {
	ns.names[name] = v
}

// Resolve finds the variable bound to name, searching from this frame
// outward, and reports whether it was found.
func (ns *Ns) Resolve(name string) (vars.Var, bool) {
	for cur := ns; cur != nil; cur = cur.parent {
		if v, ok := cur.names[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// ResolveLocal is like Resolve but only looks at this frame.
func (ns *Ns) ResolveLocal(name string) (vars.Var, bool) {
	v, ok := ns.names[name]
	return v, ok
}
