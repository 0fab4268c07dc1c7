package vals

import (
	"bytes"
	"reflect"
	"time"
)

// Equaler wraps the Equal method.
type Equaler interface {
	// Equal compares the receiver to another value.
	Equal(other any) bool
}

// Equal returns whether two values are structurally equal. Dissimilar
// kinds are simply unequal; [Cmp] is the operation that distinguishes
// "unequal" from "not comparable".
func Equal(x, y any) bool {
	switch x := x.(type) {
	case nil:
		return y == nil
	case bool:
		return x == y
	case int64, float64:
		if !isNum(y) {
			return false
		}
		a, b, ok := UnifyNums2(x, y)
		if !ok {
			return false
		}
		return a == b
	case string:
		return x == y
	case time.Duration:
		return x == y
	case time.Time:
		if y, ok := y.(time.Time); ok {
			return x.Equal(y)
		}
		return false
	case []byte:
		if y, ok := y.([]byte); ok {
			return bytes.Equal(x, y)
		}
		return false
	case List:
		if y, ok := y.(List); ok {
			return equalList(x, y)
		}
		return false
	case *Record:
		if y, ok := y.(*Record); ok {
			return equalRecord(x, y)
		}
		return false
	case Equaler:
		return x.Equal(y)
	default:
		return reflect.DeepEqual(x, y)
	}
}

func equalList(x, y List) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !Equal(x[i], y[i]) {
			return false
		}
	}
	return true
}

// Records are equal when they have the same fields in the same order with
// equal values; field order is part of the data.
func equalRecord(x, y *Record) bool {
	xk, yk := x.Keys(), y.Keys()
	if len(xk) != len(yk) {
		return false
	}
	for i, k := range xk {
		if yk[i] != k {
			return false
		}
		xv, _ := x.Get(k)
		yv, _ := y.Get(k)
		if !Equal(xv, yv) {
			return false
		}
	}
	return true
}
