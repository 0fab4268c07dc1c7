package vals

// Numbers are int64 or float64. Arithmetic and comparison promote to
// float64 when either operand is a float; Int and Float never mix
// silently anywhere else.

func isNum(v any) bool {
	switch v.(type) {
	case int64, float64:
		return true
	}
	return false
}

// UnifyNums2 unifies two numbers to a common type: both int64, or both
// float64 if either operand is a float64. The third return value is false
// if either argument is not a number.
func UnifyNums2(a, b any) (any, any, bool) {
	switch a := a.(type) {
	case int64:
		switch b := b.(type) {
		case int64:
			return a, b, true
		case float64:
			return float64(a), b, true
		}
	case float64:
		switch b := b.(type) {
		case int64:
			return a, float64(b), true
		case float64:
			return a, b, true
		}
	}
	return nil, nil, false
}
