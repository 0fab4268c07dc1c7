package shell

import (
	"fmt"
	"os"

	"github.com/rillsh/rill/pkg/diag"
	"github.com/rillsh/rill/pkg/eval"
	"github.com/rillsh/rill/pkg/eval/vals"
	"github.com/rillsh/rill/pkg/parse"
)

// evalAndPrint parses and evaluates one piece of source, printing the
// values it produces and any diagnostic. It reports whether everything
// succeeded.
func evalAndPrint(ev *eval.Evaler, fds [3]*os.File, src parse.Source) bool {
	tree, err := parse.Parse(src, ev.Registry())
	if err != nil {
		diag.ShowError(fds[2], err)
		return false
	}

	intCh, cleanup := listenInterrupts()
	ev.SetInterrupts(intCh)
	v, err := ev.Eval(tree)
	if err == nil {
		err = printValue(fds[1], v)
	}
	cleanup()
	ev.SetInterrupts(nil)

	if err != nil {
		if eval.IsCancelled(err) {
			fmt.Fprintln(fds[2], "interrupted")
		} else {
			diag.ShowError(fds[2], err)
		}
		return false
	}
	return true
}

// printValue writes an evaluation result: nothing prints nothing, a
// stream prints one element per line as it is pulled, and any other value
// prints on one line.
func printValue(out *os.File, v any) error {
	switch v := v.(type) {
	case nil:
		return nil
	case vals.Stream:
		defer v.Close()
		for {
			elem, err := v.Next()
			if err == vals.ErrEndOfStream {
				return nil
			} else if err != nil {
				return err
			}
			fmt.Fprintln(out, vals.Repr(elem))
		}
	default:
		fmt.Fprintln(out, vals.Repr(v))
		return nil
	}
}
