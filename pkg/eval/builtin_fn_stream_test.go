package eval_test

import (
	"testing"

	"github.com/rillsh/rill/pkg/eval/errs"
	. "github.com/rillsh/rill/pkg/eval/evaltest"
	"github.com/rillsh/rill/pkg/eval/vals"
)

func TestTakeSkipFirst(t *testing.T) {
	Test(t,
		That("put 1 2 3 | take 2").Puts(int64(1), int64(2)),
		That("put 1 2 3 | take 0").Puts(),
		That("put 1 | take 5").Puts(int64(1)),
		That("put 1 2 3 | skip 1").Puts(int64(2), int64(3)),
		That("put 1 2 3 | skip 5").Puts(),
		That("put 1 2 3 | first").Puts(int64(1)),
		That("put | first").Puts(),
		That("range 1 | skip 2 | take 2").Puts(int64(3), int64(4)),
		That("take x").Throws(ErrorWithType(errs.TypeMismatch{})),
	)
}

func TestEach(t *testing.T) {
	Test(t,
		That("put 1 2 3 | each { $it * 2 }").Puts(int64(2), int64(4), int64(6)),
		That("put a b | each { |x| $x }").Puts("a", "b"),
		// Streams nest: the block's stream result is materialized per
		// element.
		That("put 1 2 | each { put $it $it } | length").Puts(int64(2)),
		// Laziness: the unbounded producer is fine as long as downstream
		// is bounded.
		That("range 1 | each { $it * $it } | take 3").
			Puts(int64(1), int64(4), int64(9)),
		That("put 1 | each { fail boom }").Throws(ErrorWithMessage("boom")),
	)
}

func TestPeach(t *testing.T) {
	Test(t,
		// Input order is preserved regardless of completion order.
		That("range 0 100 | peach { $it * 2 } | take 3 | collect").
			Puts(vals.MakeList(int64(0), int64(2), int64(4))),
		That("range 0 100 | peach { $it } | length").Puts(int64(100)),
		That("range 0 10 | peach --workers 2 { $it } | length").Puts(int64(10)),
		That("put 1 | peach -w 0 { $it }").Throws(ErrorWithType(errs.BadValue{})),
		That("put 1 2 | peach { fail boom } | length").
			Throws(ErrorWithMessage("boom")),
	)
}

func TestWhereReject(t *testing.T) {
	Test(t,
		That("put 1 2 3 | where $it > 1").Puts(int64(2), int64(3)),
		That("put 1 2 3 | reject $it > 1").Puts(int64(1)),
		// An explicit block works in condition position too.
		That("put 1 2 3 | where { $it != 2 }").Puts(int64(1), int64(3)),
		That("[1, 2, 3] | where $it > 1 | length").Puts(int64(2)),
		That(`[{n: 1}, {n: 5}] | where $it.n > 2 | get 0 | get n`).Puts(int64(5)),
		// The condition must produce a bool.
		That("put 1 | where { 42 }").Throws(ErrorWithType(errs.TypeMismatch{})),
	)
}
