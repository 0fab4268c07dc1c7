package eval

import (
	"time"

	"github.com/rillsh/rill/pkg/eval/errs"
	"github.com/rillsh/rill/pkg/eval/vals"
	"github.com/rillsh/rill/pkg/parse"
)

func evalUnary(fm *Frame, ex *parse.Expr) (any, error) {
	v, err := evalExpr(fm, ex.RHS)
	if err != nil {
		return nil, err
	}
	switch ex.Op {
	case "not":
		b, ok := v.(bool)
		if !ok {
			return nil, fm.errorp(ex.RHS, errs.TypeMismatch{
				What: "operand of 'not'", Valid: "bool", Actual: vals.Kind(v)})
		}
		return !b, nil
	case "-":
		switch v := v.(type) {
		case int64:
			return -v, nil
		case float64:
			return -v, nil
		case time.Duration:
			return -v, nil
		}
		return nil, fm.errorp(ex.RHS, errs.TypeMismatch{
			What: "operand of unary '-'", Valid: "number or duration",
			Actual: vals.Kind(v)})
	}
	return nil, fm.errorp(ex, errs.BadValue{
		What: "unary operator", Valid: "not or -", Actual: ex.Op})
}

func evalBinary(fm *Frame, ex *parse.Expr) (any, error) {
	lhs, err := evalExpr(fm, ex.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := evalExpr(fm, ex.RHS)
	if err != nil {
		return nil, err
	}
	switch ex.Op {
	case "+", "-", "*", "/", "%":
		v, err := arith(ex.Op, lhs, rhs)
		if err != nil {
			return nil, fm.errorp(ex, err)
		}
		return v, nil
	case "==", "!=":
		eq, err := equalValues(lhs, rhs)
		if err != nil {
			return nil, fm.errorp(ex, err)
		}
		if ex.Op == "!=" {
			return !eq, nil
		}
		return eq, nil
	case "<", "<=", ">", ">=":
		o := vals.Cmp(lhs, rhs)
		if o == vals.CmpUncomparable {
			return nil, fm.errorp(ex, errs.IncomparableTypes{
				KindA: vals.Kind(lhs), KindB: vals.Kind(rhs)})
		}
		switch ex.Op {
		case "<":
			return o == vals.CmpLess, nil
		case "<=":
			return o != vals.CmpMore, nil
		case ">":
			return o == vals.CmpMore, nil
		default:
			return o != vals.CmpLess, nil
		}
	}
	return nil, fm.errorp(ex, errs.BadValue{
		What: "binary operator", Valid: "a known operator", Actual: ex.Op})
}

// equalValues is the semantics of ==. Comparing values of dissimilar
// kinds is an error rather than a silent false; Int and Float unify
// first.
func equalValues(a, b any) (bool, error) {
	ka, kb := vals.Kind(a), vals.Kind(b)
	if ka != kb {
		if _, _, ok := vals.UnifyNums2(a, b); !ok {
			return false, errs.IncomparableTypes{KindA: ka, KindB: kb}
		}
	}
	return vals.Equal(a, b), nil
}

func arith(op string, a, b any) (any, error) {
	if x, y, ok := vals.UnifyNums2(a, b); ok {
		return arithNum(op, x, y)
	}
	switch a := a.(type) {
	case time.Duration:
		return arithDuration(op, a, b)
	case time.Time:
		return arithDate(op, a, b)
	case string:
		if b, ok := b.(string); ok && op == "+" {
			return a + b, nil
		}
	case vals.List:
		if b, ok := b.(vals.List); ok && op == "+" {
			out := make(vals.List, 0, len(a)+len(b))
			out = append(out, a...)
			out = append(out, b...)
			return out, nil
		}
	case []byte:
		if b, ok := b.([]byte); ok && op == "+" {
			out := make([]byte, 0, len(a)+len(b))
			out = append(out, a...)
			out = append(out, b...)
			return out, nil
		}
	}
	return nil, errs.TypeMismatch{
		What: "operands of '" + op + "'",
		Valid: "two values of a kind supporting '" + op + "'",
		Actual: vals.Kind(a) + " and " + vals.Kind(b)}
}

func arithNum(op string, a, b any) (any, error) {
	if x, ok := a.(int64); ok {
		y := b.(int64)
		switch op {
		case "+":
			return x + y, nil
		case "-":
			return x - y, nil
		case "*":
			return x * y, nil
		case "/":
			// Division is the one operation that promotes two ints.
			if y == 0 {
				return nil, errs.BadValue{
					What: "divisor", Valid: "a nonzero number", Actual: "0"}
			}
			return float64(x) / float64(y), nil
		case "%":
			if y == 0 {
				return nil, errs.BadValue{
					What: "divisor", Valid: "a nonzero number", Actual: "0"}
			}
			return x % y, nil
		}
	}
	x, y := a.(float64), b.(float64)
	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if y == 0 {
			return nil, errs.BadValue{
				What: "divisor", Valid: "a nonzero number", Actual: "0"}
		}
		return x / y, nil
	case "%":
		return nil, errs.TypeMismatch{
			What: "operands of '%'", Valid: "two ints", Actual: "floats"}
	}
	return nil, errs.BadValue{
		What: "arithmetic operator", Valid: "a known operator", Actual: op}
}

func arithDuration(op string, a time.Duration, b any) (any, error) {
	switch b := b.(type) {
	case time.Duration:
		switch op {
		case "+":
			return a + b, nil
		case "-":
			return a - b, nil
		}
	case int64:
		switch op {
		case "*":
			return a * time.Duration(b), nil
		case "/":
			if b == 0 {
				return nil, errs.BadValue{
					What: "divisor", Valid: "a nonzero number", Actual: "0"}
			}
			return a / time.Duration(b), nil
		}
	case time.Time:
		if op == "+" {
			return b.Add(a), nil
		}
	}
	return nil, errs.TypeMismatch{
		What: "operands of '" + op + "'",
		Valid: "duration with duration, int or date",
		Actual: "duration and " + vals.Kind(b)}
}

func arithDate(op string, a time.Time, b any) (any, error) {
	switch b := b.(type) {
	case time.Duration:
		switch op {
		case "+":
			return a.Add(b), nil
		case "-":
			return a.Add(-b), nil
		}
	case time.Time:
		if op == "-" {
			return a.Sub(b), nil
		}
	}
	return nil, errs.TypeMismatch{
		What: "operands of '" + op + "'",
		Valid: "date with duration, or date minus date",
		Actual: "date and " + vals.Kind(b)}
}
