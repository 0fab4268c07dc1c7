package eval

import (
	"errors"
	"sort"
	"time"

	"github.com/rillsh/rill/pkg/eval/errs"
	"github.com/rillsh/rill/pkg/eval/vals"
	"github.com/rillsh/rill/pkg/sig"
)

// Core builtins: value producers, collectors and accessors.

func init() {
	addBuiltin(
		sig.New("put").Rest("values", sig.ShapeAny).
			Pipe(sig.ShapeNothing, sig.ShapeAny),
		put)
	addBuiltin(
		sig.New("range").Required("start", sig.ShapeInt).
			Optional("end", sig.ShapeInt).
			Pipe(sig.ShapeNothing, sig.ShapeInt),
		rangeCmd)
	addBuiltin(
		sig.New("identity").Pipe(sig.ShapeAny, sig.ShapeAny),
		identity)
	addBuiltin(
		sig.New("collect").Pipe(sig.ShapeAny, sig.ShapeList),
		collect)
	addBuiltin(
		sig.New("length").Pipe(sig.ShapeAny, sig.ShapeInt),
		length)
	addBuiltin(
		sig.New("get").Required("key", sig.ShapeAny).
			Pipe(sig.ShapeAny, sig.ShapeAny),
		get)
	addBuiltin(
		sig.New("sort").Flag("reverse", 'r', sig.ShapeBool).
			Pipe(sig.ShapeAny, sig.ShapeList),
		sortCmd)
	addBuiltin(
		sig.New("sort-by").Required("key", sig.ShapeBlock).
			Flag("reverse", 'r', sig.ShapeBool).
			Pipe(sig.ShapeAny, sig.ShapeList),
		sortBy)
	addBuiltin(
		sig.New("date now").Pipe(sig.ShapeNothing, sig.ShapeDate),
		dateNow)
	addBuiltin(
		sig.New("nop").Pipe(sig.ShapeAny, sig.ShapeNothing),
		nop)
	addBuiltin(
		sig.New("fail").Required("message", sig.ShapeString).
			Pipe(sig.ShapeNothing, sig.ShapeNothing),
		fail)
	addBuiltin(
		sig.New("do").Required("block", sig.ShapeBlock).
			Rest("args", sig.ShapeAny).
			Pipe(sig.ShapeAny, sig.ShapeAny),
		doCmd)
}

func put(fm *Frame, args []any, flags map[string]any) (any, error) {
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		return args[0], nil
	default:
		return vals.ListStream(vals.List(args)), nil
	}
}

func rangeCmd(fm *Frame, args []any, flags map[string]any) (any, error) {
	start, err := intArg("start", args[0])
	if err != nil {
		return nil, err
	}
	// Without an end the producer is unbounded; only a bounded consumer
	// downstream terminates it.
	end, bounded := int64(0), false
	if len(args) > 1 {
		end, err = intArg("end", args[1])
		if err != nil {
			return nil, err
		}
		bounded = true
	}
	n := start
	return vals.FuncStream(func() (any, error) {
		if fm.IsInterrupted() {
			return nil, errs.ErrCancelled
		}
		if bounded && n >= end {
			return nil, vals.ErrEndOfStream
		}
		v := n
		n++
		return v, nil
	}, nil), nil
}

// identity passes its input through live, so an unbounded stream stays
// unbounded and pull-driven across it.
func identity(fm *Frame, args []any, flags map[string]any) (any, error) {
	return fm.Input(), nil
}

func collect(fm *Frame, args []any, flags map[string]any) (any, error) {
	list, err := vals.Collect(fm.Input())
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = vals.List{}
	}
	return list, nil
}

func length(fm *Frame, args []any, flags map[string]any) (any, error) {
	in := fm.Input()
	defer in.Close()
	var n int64
	for {
		_, err := in.Next()
		if err == vals.ErrEndOfStream {
			return n, nil
		} else if err != nil {
			return nil, err
		}
		n++
	}
}

// get materializes its whole input before indexing, so that a
// one-element pipeline still indexes like the list it came from. An int
// key indexes the input as a list; a string key reads a field of a sole
// record input.
func get(fm *Frame, args []any, flags map[string]any) (any, error) {
	list, err := vals.Collect(fm.Input())
	if err != nil {
		return nil, err
	}
	switch key := args[0].(type) {
	case int64:
		if key < 0 || key >= int64(len(list)) {
			return nil, errs.BadValue{
				What: "index", Valid: "a valid index", Actual: vals.Repr(key)}
		}
		return list[key], nil
	case string:
		if len(list) == 1 {
			if rec, ok := list[0].(*vals.Record); ok {
				fv, ok := rec.Get(key)
				if !ok {
					return nil, errs.BadValue{
						What: "field " + key, Valid: "an existing field", Actual: "missing"}
				}
				return fv, nil
			}
		}
		actual := "list"
		switch len(list) {
		case 0:
			actual = "nothing"
		case 1:
			actual = vals.Kind(list[0])
		}
		return nil, errs.TypeMismatch{
			What: "input to get", Valid: "record or list", Actual: actual}
	default:
		return nil, errs.TypeMismatch{
			What: "key", Valid: "string or int", Actual: vals.Kind(args[0])}
	}
}

func sortCmd(fm *Frame, args []any, flags map[string]any) (any, error) {
	list, err := vals.Collect(fm.Input())
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = vals.List{}
	}
	if err := sortSlice(list, flags["reverse"] == true); err != nil {
		return nil, err
	}
	return list, nil
}

func sortBy(fm *Frame, args []any, flags map[string]any) (any, error) {
	key, err := callableArg("key", args[0])
	if err != nil {
		return nil, err
	}
	list, err := vals.Collect(fm.Input())
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = vals.List{}
	}
	keys := make(vals.List, len(list))
	for i, v := range list {
		k, err := key.Call(fm, []any{v}, nil)
		if err != nil {
			return nil, err
		}
		if keys[i], err = vals.CollectValue(k); err != nil {
			return nil, err
		}
	}
	indices := make([]int, len(list))
	for i := range indices {
		indices[i] = i
	}
	var cmpErr error
	sort.SliceStable(indices, func(i, j int) bool {
		a, b := keys[indices[i]], keys[indices[j]]
		o := vals.Cmp(a, b)
		if o == vals.CmpUncomparable && cmpErr == nil {
			cmpErr = errs.IncomparableTypes{KindA: vals.Kind(a), KindB: vals.Kind(b)}
		}
		return o == vals.CmpLess
	})
	if cmpErr != nil {
		return nil, cmpErr
	}
	out := make(vals.List, len(list))
	for i, idx := range indices {
		out[i] = list[idx]
	}
	if flags["reverse"] == true {
		reverse(out)
	}
	return out, nil
}

func sortSlice(list vals.List, rev bool) error {
	var cmpErr error
	sort.SliceStable(list, func(i, j int) bool {
		o := vals.Cmp(list[i], list[j])
		if o == vals.CmpUncomparable && cmpErr == nil {
			cmpErr = errs.IncomparableTypes{
				KindA: vals.Kind(list[i]), KindB: vals.Kind(list[j])}
		}
		return o == vals.CmpLess
	})
	if cmpErr != nil {
		return cmpErr
	}
	if rev {
		reverse(list)
	}
	return nil
}

func reverse(list vals.List) {
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
}

func dateNow(fm *Frame, args []any, flags map[string]any) (any, error) {
	return time.Now(), nil
}

func nop(fm *Frame, args []any, flags map[string]any) (any, error) {
	fm.Input().Close()
	return nil, nil
}

func fail(fm *Frame, args []any, flags map[string]any) (any, error) {
	msg, err := stringArg("message", args[0])
	if err != nil {
		return nil, err
	}
	return nil, errors.New(msg)
}

func doCmd(fm *Frame, args []any, flags map[string]any) (any, error) {
	block, err := callableArg("block", args[0])
	if err != nil {
		return nil, err
	}
	return block.Call(fm, args[1:], nil)
}
