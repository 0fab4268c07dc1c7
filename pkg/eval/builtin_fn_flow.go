package eval

import (
	"github.com/rillsh/rill/pkg/sig"
)

// Flow-control builtins. These do not raise exceptions: they return flow
// signals that loops and closure calls intercept, and that try/catch
// deliberately lets through.

func init() {
	addBuiltin(
		sig.New("return").Optional("value", sig.ShapeAny).
			Pipe(sig.ShapeNothing, sig.ShapeNothing),
		returnCmd)
	addBuiltin(
		sig.New("break").Pipe(sig.ShapeNothing, sig.ShapeNothing),
		breakCmd)
	addBuiltin(
		sig.New("continue").Pipe(sig.ShapeNothing, sig.ShapeNothing),
		continueCmd)
}

func returnCmd(fm *Frame, args []any, flags map[string]any) (any, error) {
	var v any
	if len(args) > 0 {
		v = args[0]
	}
	return nil, returnSignal{value: v}
}

func breakCmd(fm *Frame, args []any, flags map[string]any) (any, error) {
	return nil, Break
}

func continueCmd(fm *Frame, args []any, flags map[string]any) (any, error) {
	return nil, Continue
}
