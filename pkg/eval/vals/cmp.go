package vals

import (
	"bytes"
	"math"
	"time"
)

// Ordering is the ordering relationship between two values.
type Ordering uint8

// Possible Ordering values.
const (
	CmpLess Ordering = iota
	CmpEqual
	CmpMore
	CmpUncomparable
)

// Cmp compares two values and returns the ordering relationship between
// them. Values of dissimilar kinds (other than Int and Float, which are
// unified) are CmpUncomparable; callers that need an error on
// uncomparable values construct one from the operands' kinds.
func Cmp(a, b any) Ordering {
	switch a := a.(type) {
	case nil:
		if b == nil {
			return CmpEqual
		}
	case bool:
		if b, ok := b.(bool); ok {
			switch {
			case a == b:
				return CmpEqual
			case !a: // b is true
				return CmpLess
			default:
				return CmpMore
			}
		}
	case int64, float64:
		if !isNum(b) {
			break
		}
		x, y, _ := UnifyNums2(a, b)
		switch x := x.(type) {
		case int64:
			return compareBuiltin(x, y.(int64))
		case float64:
			return compareFloat(x, y.(float64))
		}
	case string:
		if b, ok := b.(string); ok {
			return compareBuiltin(a, b)
		}
	case time.Duration:
		if b, ok := b.(time.Duration); ok {
			return compareBuiltin(a, b)
		}
	case time.Time:
		if b, ok := b.(time.Time); ok {
			switch {
			case a.Equal(b):
				return CmpEqual
			case a.Before(b):
				return CmpLess
			default:
				return CmpMore
			}
		}
	case []byte:
		if b, ok := b.([]byte); ok {
			switch bytes.Compare(a, b) {
			case -1:
				return CmpLess
			case 0:
				return CmpEqual
			default:
				return CmpMore
			}
		}
	case List:
		if b, ok := b.(List); ok {
			for i := 0; i < len(a) && i < len(b); i++ {
				if o := Cmp(a[i], b[i]); o != CmpEqual {
					return o
				}
			}
			return compareBuiltin(int64(len(a)), int64(len(b)))
		}
	default:
		if Equal(a, b) {
			return CmpEqual
		}
	}
	return CmpUncomparable
}

func compareBuiltin[T interface {
	int64 | string | time.Duration
}](a, b T) Ordering {
	if a < b {
		return CmpLess
	} else if a > b {
		return CmpMore
	}
	return CmpEqual
}

// NaNs are considered equal to each other and smaller than all other
// numbers, so that sorting a list with NaNs in it is still a total order.
func compareFloat(a, b float64) Ordering {
	switch {
	case math.IsNaN(a):
		if math.IsNaN(b) {
			return CmpEqual
		}
		return CmpLess
	case math.IsNaN(b):
		return CmpMore
	case a < b:
		return CmpLess
	case a > b:
		return CmpMore
	default:
		return CmpEqual
	}
}
