package eval

import (
	"strings"

	"github.com/rillsh/rill/pkg/eval/errs"
	"github.com/rillsh/rill/pkg/parse"
)

// dispatchCall evaluates a command's arguments and flags in the caller's
// scope, resolves the command name, and invokes the target. Resolution
// prefers a closure bound to the name in the current scope chain, then a
// builtin, then a plugin command. Multiword names never resolve to scope
// bindings.
func dispatchCall(fm *Frame, cn *parse.Call) (any, error) {
	args := make([]any, 0, len(cn.Args))
	for _, argNode := range cn.Args {
		v, err := evalExpr(fm, argNode)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	var flags map[string]any
	if len(cn.Flags) > 0 {
		flags = make(map[string]any, len(cn.Flags))
		for _, fn := range cn.Flags {
			if fn.Value == nil {
				flags[fn.Name] = true
				continue
			}
			v, err := evalExpr(fm, fn.Value)
			if err != nil {
				return nil, err
			}
			flags[fn.Name] = v
		}
	}

	target, err := resolveCommand(fm, cn)
	if err != nil {
		return nil, err
	}
	logger.Println("call", cn.Name)
	v, err := target.Call(fm, args, flags)
	if err == nil {
		return v, nil
	}
	if isFlow(err) {
		return nil, err
	}
	if exc, ok := err.(*Exception); ok {
		// The failure was already attributed deeper, inside a closure
		// body the call descended into. Grow the traceback so the user
		// sees this call site too.
		return nil, fm.addStackEntry(cn.NameRange, exc)
	}
	// A fresh failure is attributed to the full call, arguments included.
	return nil, fm.errorp(cn, err)
}

func resolveCommand(fm *Frame, cn *parse.Call) (Callable, error) {
	name := cn.Name
	if !strings.Contains(name, " ") {
		if variable, ok := fm.local.Resolve(name); ok {
			if c, ok := variable.Get().(Callable); ok {
				return c, nil
			}
			// A binding that is not callable does not shadow commands.
		}
	}
	if c, ok := fm.Evaler.builtins[name]; ok {
		return c, nil
	}
	if c, ok := fm.Evaler.plugins[name]; ok {
		return c, nil
	}
	return nil, fm.errorp(cn.NameRange, errs.UnboundName{Name: name})
}
