package eval

import (
	"strings"
	"unicode/utf8"

	"github.com/rillsh/rill/pkg/eval/errs"
	"github.com/rillsh/rill/pkg/eval/vals"
	"github.com/rillsh/rill/pkg/sig"
)

// String builtins, all under the multiword "str" namespace.

func init() {
	addBuiltin(
		sig.New("str length").Pipe(sig.ShapeString, sig.ShapeInt),
		strLength)
	addBuiltin(
		sig.New("str upcase").Pipe(sig.ShapeString, sig.ShapeString),
		strUpcase)
	addBuiltin(
		sig.New("str downcase").Pipe(sig.ShapeString, sig.ShapeString),
		strDowncase)
	addBuiltin(
		sig.New("str join").Optional("separator", sig.ShapeString).
			Pipe(sig.ShapeAny, sig.ShapeString),
		strJoin)
}

func inputString(fm *Frame, what string) (string, error) {
	v, err := fm.InputValue()
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", errs.TypeMismatch{
			What: what, Valid: "string", Actual: vals.Kind(v)}
	}
	return s, nil
}

func strLength(fm *Frame, args []any, flags map[string]any) (any, error) {
	s, err := inputString(fm, "input to str length")
	if err != nil {
		return nil, err
	}
	// Counts codepoints, not bytes.
	return int64(utf8.RuneCountInString(s)), nil
}

func strUpcase(fm *Frame, args []any, flags map[string]any) (any, error) {
	s, err := inputString(fm, "input to str upcase")
	if err != nil {
		return nil, err
	}
	return strings.ToUpper(s), nil
}

func strDowncase(fm *Frame, args []any, flags map[string]any) (any, error) {
	s, err := inputString(fm, "input to str downcase")
	if err != nil {
		return nil, err
	}
	return strings.ToLower(s), nil
}

func strJoin(fm *Frame, args []any, flags map[string]any) (any, error) {
	sep := ""
	if len(args) > 0 {
		var err error
		if sep, err = stringArg("separator", args[0]); err != nil {
			return nil, err
		}
	}
	in := fm.Input()
	defer in.Close()
	var sb strings.Builder
	n := 0
	for {
		v, err := in.Next()
		if err == vals.ErrEndOfStream {
			return sb.String(), nil
		} else if err != nil {
			return nil, err
		}
		if n > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(ToString(v))
		n++
	}
}
