package eval

// Callable is anything that can be dispatched to as a command: a builtin,
// a user-defined closure, or an external plugin command. Positional
// arguments and flags arrive already evaluated in the caller's scope;
// pipeline input is available on the frame.
type Callable interface {
	Call(fm *Frame, args []any, flags map[string]any) (any, error)
}
