package eval

import (
	"golang.org/x/sync/errgroup"

	"github.com/rillsh/rill/pkg/eval/errs"
	"github.com/rillsh/rill/pkg/eval/vals"
	"github.com/rillsh/rill/pkg/sig"
)

// Stream builtins. All of these are lazy except peach, which has to
// materialize its input to fan work out. Laziness is what makes
// "range 1 | take 5" terminate: the bounded consumer stops pulling and
// closes the unbounded producer.

func init() {
	addBuiltin(
		sig.New("take").Required("n", sig.ShapeInt).
			Pipe(sig.ShapeAny, sig.ShapeAny),
		take)
	addBuiltin(
		sig.New("skip").Required("n", sig.ShapeInt).
			Pipe(sig.ShapeAny, sig.ShapeAny),
		skip)
	addBuiltin(
		sig.New("first").Pipe(sig.ShapeAny, sig.ShapeAny),
		first)
	addBuiltin(
		sig.New("each").Required("block", sig.ShapeBlock).
			Pipe(sig.ShapeAny, sig.ShapeAny),
		each)
	addBuiltin(
		sig.New("peach").Required("block", sig.ShapeBlock).
			Flag("workers", 'w', sig.ShapeInt).
			Pipe(sig.ShapeAny, sig.ShapeList),
		peach)
	addBuiltin(
		sig.New("where").Required("condition", sig.ShapeCondition).
			Pipe(sig.ShapeAny, sig.ShapeAny),
		where)
	addBuiltin(
		sig.New("reject").Required("condition", sig.ShapeCondition).
			Pipe(sig.ShapeAny, sig.ShapeAny),
		reject)
}

func take(fm *Frame, args []any, flags map[string]any) (any, error) {
	n, err := intArg("n", args[0])
	if err != nil {
		return nil, err
	}
	in := fm.Input()
	var taken int64
	return vals.FuncStream(func() (any, error) {
		if taken >= n {
			// Stop the producer as soon as the quota is reached.
			in.Close()
			return nil, vals.ErrEndOfStream
		}
		if fm.IsInterrupted() {
			return nil, errs.ErrCancelled
		}
		v, err := in.Next()
		if err != nil {
			return nil, err
		}
		taken++
		return v, nil
	}, in.Close), nil
}

func skip(fm *Frame, args []any, flags map[string]any) (any, error) {
	n, err := intArg("n", args[0])
	if err != nil {
		return nil, err
	}
	in := fm.Input()
	skipped := false
	return vals.FuncStream(func() (any, error) {
		if !skipped {
			skipped = true
			for i := int64(0); i < n; i++ {
				if fm.IsInterrupted() {
					return nil, errs.ErrCancelled
				}
				if _, err := in.Next(); err != nil {
					return nil, err
				}
			}
		}
		return in.Next()
	}, in.Close), nil
}

func first(fm *Frame, args []any, flags map[string]any) (any, error) {
	in := fm.Input()
	defer in.Close()
	v, err := in.Next()
	if err == vals.ErrEndOfStream {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return v, nil
}

func each(fm *Frame, args []any, flags map[string]any) (any, error) {
	block, err := callableArg("block", args[0])
	if err != nil {
		return nil, err
	}
	in := fm.Input()
	return vals.FuncStream(func() (any, error) {
		if fm.IsInterrupted() {
			return nil, errs.ErrCancelled
		}
		v, err := in.Next()
		if err != nil {
			return nil, err
		}
		out, err := block.Call(fm, []any{v}, nil)
		if err != nil {
			return nil, err
		}
		return vals.CollectValue(out)
	}, in.Close), nil
}

const defaultPeachWorkers = 8

// peach applies the block to every input element concurrently. Unlike
// each it is strict: the whole input is read up front and the result
// preserves input order regardless of completion order. The block runs on
// multiple goroutines at once and must not mutate shared state.
func peach(fm *Frame, args []any, flags map[string]any) (any, error) {
	block, err := callableArg("block", args[0])
	if err != nil {
		return nil, err
	}
	workers := int64(defaultPeachWorkers)
	if w, ok := flags["workers"]; ok {
		if workers, err = intArg("workers", w); err != nil {
			return nil, err
		}
		if workers < 1 {
			return nil, errs.BadValue{
				What: "workers", Valid: "a positive int", Actual: vals.Repr(w)}
		}
	}
	list, err := vals.Collect(fm.Input())
	if err != nil {
		return nil, err
	}
	out := make(vals.List, len(list))
	var g errgroup.Group
	g.SetLimit(int(workers))
	for i, v := range list {
		i, v := i, v
		g.Go(func() error {
			if fm.IsInterrupted() {
				return errs.ErrCancelled
			}
			r, err := block.Call(fm, []any{v}, nil)
			if err != nil {
				return err
			}
			out[i], err = vals.CollectValue(r)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func where(fm *Frame, args []any, flags map[string]any) (any, error) {
	return filter(fm, args[0], true)
}

func reject(fm *Frame, args []any, flags map[string]any) (any, error) {
	return filter(fm, args[0], false)
}

func filter(fm *Frame, condArg any, want bool) (any, error) {
	cond, err := callableArg("condition", condArg)
	if err != nil {
		return nil, err
	}
	in := fm.Input()
	return vals.FuncStream(func() (any, error) {
		for {
			if fm.IsInterrupted() {
				return nil, errs.ErrCancelled
			}
			v, err := in.Next()
			if err != nil {
				return nil, err
			}
			keep, err := condBool(fm, cond, v)
			if err != nil {
				return nil, err
			}
			if keep == want {
				return v, nil
			}
		}
	}, in.Close), nil
}

func condBool(fm *Frame, cond Callable, v any) (bool, error) {
	r, err := cond.Call(fm, []any{v}, nil)
	if err != nil {
		return false, err
	}
	b, ok := r.(bool)
	if !ok {
		return false, errs.TypeMismatch{
			What: "condition result", Valid: "bool", Actual: vals.Kind(r)}
	}
	return b, nil
}
