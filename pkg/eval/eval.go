// Package eval handles evaluation of parsed rill code: it walks the AST,
// maintains the scope chain and call stack, threads values through
// pipelines, and dispatches calls to builtins, user closures and external
// plugin commands.
package eval

import (
	"github.com/rillsh/rill/pkg/logutil"
	"github.com/rillsh/rill/pkg/parse"
	"github.com/rillsh/rill/pkg/sig"
)

var logger = logutil.GetLogger("[eval] ")

// Evaler provides a shared evaluation context: the signature registry
// used for parsing, the builtin and plugin command tables, and the global
// scope. It is not safe for concurrent use; one Evaler serves one
// evaluating thread.
type Evaler struct {
	registry *sig.Registry
	builtins map[string]Callable
	plugins  map[string]Callable

	// Global is the outermost scope frame. Top-level definitions go
	// here and persist across Eval calls.
	Global *Ns

	intCh <-chan struct{}
}

// NewEvaler creates a new Evaler with all builtin commands registered.
func NewEvaler() *Evaler {
	ev := &Evaler{
		registry: sig.NewRegistry(),
		builtins: make(map[string]Callable),
		plugins:  make(map[string]Callable),
		Global:   NewNs(nil),
	}
	for _, b := range builtinTable {
		ev.registry.MustRegister(b.sig)
		ev.builtins[b.sig.Name] = b
	}
	return ev
}

// Registry returns the signature registry the parser must use for source
// that will be evaluated by this Evaler.
func (ev *Evaler) Registry() *sig.Registry {
	return ev.registry
}

// RegisterExternal registers an externally hosted command: its signature
// becomes visible to the parser and calls to it dispatch to impl. It is
// how the plugin layer plugs into the engine.
func (ev *Evaler) RegisterExternal(s *sig.Signature, impl Callable) error {
	if err := ev.registry.Register(s); err != nil {
		return err
	}
	ev.plugins[s.Name] = impl
	return nil
}

// SetInterrupts sets the channel whose closing cancels running
// evaluations. Cancellation propagates as a distinguished error that
// try/catch does not swallow.
func (ev *Evaler) SetInterrupts(ch <-chan struct{}) {
	ev.intCh = ch
}

// Eval evaluates a parsed tree and returns the value of its last
// statement, which may be a lazy Stream. The error, if non-nil, is an
// *Exception unless it is a cancellation that escaped the whole
// evaluation.
func (ev *Evaler) Eval(tree parse.Tree) (any, error) {
	logger.Println("eval", tree.Source.Name)
	fm := &Frame{
		Evaler: ev,
		src:    tree.Source,
		local:  ev.Global,
		intCh:  ev.intCh,
	}
	return evalChunk(fm, tree.Root)
}
