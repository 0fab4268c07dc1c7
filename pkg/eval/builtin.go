package eval

import (
	"github.com/rillsh/rill/pkg/eval/errs"
	"github.com/rillsh/rill/pkg/eval/vals"
	"github.com/rillsh/rill/pkg/sig"
)

// A builtinCmd couples a signature with a native implementation. The
// parser has already checked arity and flag names against the signature,
// so implementations only validate what the signature cannot express.
type builtinCmd struct {
	sig  *sig.Signature
	impl func(fm *Frame, args []any, flags map[string]any) (any, error)
}

var _ Callable = (*builtinCmd)(nil)

func (b *builtinCmd) Kind() string { return "fn" }

func (b *builtinCmd) Equal(rhs any) bool { return b == rhs }

func (b *builtinCmd) Repr() string { return "<builtin " + b.sig.Name + ">" }

func (b *builtinCmd) Call(fm *Frame, args []any, flags map[string]any) (any, error) {
	return b.impl(fm, args, flags)
}

var builtinTable []*builtinCmd

func addBuiltin(s *sig.Signature, impl func(fm *Frame, args []any, flags map[string]any) (any, error)) {
	builtinTable = append(builtinTable, &builtinCmd{sig: s, impl: impl})
}

// Argument coercion helpers. The parser's shape checks are syntactic, so
// a variable argument can still have the wrong kind at runtime.

func intArg(what string, v any) (int64, error) {
	n, ok := v.(int64)
	if !ok {
		return 0, errs.TypeMismatch{What: what, Valid: "int", Actual: vals.Kind(v)}
	}
	return n, nil
}

func stringArg(what string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errs.TypeMismatch{What: what, Valid: "string", Actual: vals.Kind(v)}
	}
	return s, nil
}

func callableArg(what string, v any) (Callable, error) {
	c, ok := v.(Callable)
	if !ok {
		return nil, errs.TypeMismatch{What: what, Valid: "block", Actual: vals.Kind(v)}
	}
	return c, nil
}
