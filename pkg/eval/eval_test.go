package eval_test

import (
	"testing"
	"time"

	"github.com/rillsh/rill/pkg/eval"
	"github.com/rillsh/rill/pkg/eval/errs"
	. "github.com/rillsh/rill/pkg/eval/evaltest"
	"github.com/rillsh/rill/pkg/eval/vals"
	"github.com/rillsh/rill/pkg/parse"
)

func TestLiteralsAndArithmetic(t *testing.T) {
	Test(t,
		That("put x").Puts("x"),
		That("put 10").Puts(int64(10)),
		That("put 1.5").Puts(1.5),
		That("put true").Puts(true),
		That("put null").Puts(),
		That(`put "a b"`).Puts("a b"),
		That(`put 'it''s'`).Puts("it's"),
		That("put 100ms").Puts(100*time.Millisecond),

		That("put (1 + 2 * 3)").Puts(int64(7)),
		That("put (2 * 3 + 1)").Puts(int64(7)),
		That("put (7 / 2)").Puts(3.5),
		That("put (7 % 2)").Puts(int64(1)),
		That("put (1 + 2.5)").Puts(3.5),
		That("put (1 - 2)").Puts(int64(-1)),
		That("put (100ms + 1s)").Puts(1100*time.Millisecond),
		That(`put ("foo" + "bar")`).Puts("foobar"),
		That("put ([1] + [2])").Puts(vals.MakeList(int64(1), int64(2))),

		That("put (1 / 0)").Throws(ErrorWithType(errs.BadValue{})),
		That(`put (1 + "a")`).Throws(ErrorWithType(errs.TypeMismatch{})),
	)
}

func TestComparison(t *testing.T) {
	Test(t,
		That("put (1 < 2)").Puts(true),
		That("put (2 <= 2)").Puts(true),
		That("put (1 == 1.0)").Puts(true),
		That("put (1 != 2)").Puts(true),
		That(`put ("a" < "b")`).Puts(true),
		That("put (true and not false)").Puts(true),
		That("put (false or true)").Puts(true),

		// Dissimilar kinds never compare silently.
		That(`put (1 == "a")`).Throws(ErrorWithType(errs.IncomparableTypes{})),
		That(`put (1 < "a")`).Throws(ErrorWithType(errs.IncomparableTypes{})),
		That("put (1 and true)").Throws(ErrorWithType(errs.TypeMismatch{})),
	)
}

func TestVariablesAndScopes(t *testing.T) {
	Test(t,
		That("let x = 10", "put $x").Puts(int64(10)),
		That("let x = 1; let y = 2; put ($x + $y)").Puts(int64(3)),
		That(`let r = {name: "rill", major: 1}`, "put $r.name").Puts("rill"),
		That("let r = {a: {b: 42}}", "put $r.a.b").Puts(int64(42)),

		That("put $nope").Throws(ErrorWithType(errs.UnboundName{})),
		That("let r = {a: 1}", "put $r.b").Throws(ErrorWithType(errs.BadValue{})),
		That("let x = 1", "put $x.f").Throws(ErrorWithType(errs.TypeMismatch{})),

		// A binding made inside a block is not visible outside it.
		That("if true { let x = 1 }", "put $x").Throws(ErrorWithType(errs.UnboundName{})),
	)
}

func TestClosures(t *testing.T) {
	Test(t,
		That("do { put 42 }").Puts(int64(42)),
		That("do { |x y| $x + $y } 1 2").Puts(int64(3)),
		// A block without parameters applied to one argument binds "it".
		That("do { $it * 2 } 21").Puts(int64(42)),

		// Closures capture their defining scope, which outlives the
		// frame that created it.
		That("let make = { |n| { $n + 1 } }",
			"let f = (do $make 10)",
			"do $f").Puts(int64(11)),

		// Names unknown to the registry are rejected at parse time even
		// if a closure of that name exists in scope.
		That("let twice = { |x| $x * 2 }", "twice 21").DoesNotParseWith("unknown command"),
		// But a closure bound to a registered name shadows the builtin.
		That("let length = { 42 }", "length").Puts(int64(42)),

		That("do { |x| $x } 1 2").Throws(ErrorWithType(errs.ArityMismatch{})),
	)
}

func TestControlFlow(t *testing.T) {
	Test(t,
		That("if true { put 1 } else { put 2 }").Puts(int64(1)),
		That("if false { put 1 } else if false { put 2 } else { put 3 }").Puts(int64(3)),
		That("if 1 { put 1 }").Throws(ErrorWithType(errs.TypeMismatch{})),

		That("while false { put never }", "put done").Puts("done"),
		That("while true { break }", "put done").Puts("done"),

		That("for x in [1, 2, 3] { put $x }", "put done").Puts("done"),

		That("let f = { return 42; put never }", "do $f").Puts(int64(42)),
	)
}

func TestTryCatch(t *testing.T) {
	Test(t,
		That("fail boom").Throws(ErrorWithMessage("boom")),
		That("try { fail boom } catch { put caught }").Puts("caught"),
		That("try { put ok } catch { put caught }").Puts("ok"),
		That("try { fail boom }", "put done").Puts("done"),

		// The bound error is a first-class value.
		That("try { fail boom } catch e { put ($e == $e) }").Puts(true),

		// Flow signals are not data errors; break crosses a try to the
		// enclosing loop.
		That("while true { try { break } catch { put never } }",
			"put done").Puts("done"),
	)
}

func TestInterpolation(t *testing.T) {
	Test(t,
		That(`let name = "world"`, `put $"hello (put $name)"`).Puts("hello world"),
		That(`put $"sum: (1 + 2)"`).Puts("sum: 3"),
		That(`put $"a\(b"`).Puts("a(b"),
		That(`put $"(put 1 2)"`).Puts("[1, 2]"),
	)
}

func TestParseErrors(t *testing.T) {
	Test(t,
		That("foo 1 2").DoesNotParseWith("unknown command"),
		That("take").DoesNotParseWith("requires argument"),
		That("put --bad 1").DoesNotParseWith("has no flag"),
		That("length 1").DoesNotParseWith("at most 0 arguments"),
		That("let = 3").DoesNotParse(),
		That("{a: 1, a: 2}").DoesNotParseWith("duplicate record key"),
	)
}

func TestCancellation(t *testing.T) {
	ev := eval.NewEvaler()
	tree, err := parse.Parse(
		parse.Source{Name: "[test]", Code: "while true { nop }"}, ev.Registry())
	if err != nil {
		t.Fatal(err)
	}
	ch := make(chan struct{})
	close(ch)
	ev.SetInterrupts(ch)
	_, err = ev.Eval(tree)
	if !eval.IsCancelled(err) {
		t.Errorf("got error %v, want cancellation", err)
	}
	// Cancellation is not a data error and cannot be caught.
	tree, perr := parse.Parse(
		parse.Source{Name: "[test]", Code: "try { while true { nop } } catch { put caught }"},
		ev.Registry())
	if perr != nil {
		t.Fatal(perr)
	}
	_, err = ev.Eval(tree)
	if !eval.IsCancelled(err) {
		t.Errorf("got error %v, want cancellation", err)
	}
}

func TestExceptionStackTrace(t *testing.T) {
	ev := eval.NewEvaler()
	code := "let f = { fail boom }\ndo $f"
	tree, perr := parse.Parse(
		parse.Source{Name: "[test]", Code: code}, ev.Registry())
	if perr != nil {
		t.Fatal(perr)
	}
	_, err := ev.Eval(tree)
	exc, ok := err.(*eval.Exception)
	if !ok {
		t.Fatalf("got error %v, want *Exception", err)
	}
	var culprits []string
	for tb := exc.StackTrace(); tb != nil; tb = tb.Next {
		culprits = append(culprits, tb.Head.Culprit())
	}
	if len(culprits) < 2 || culprits[0] != "fail boom" || culprits[1] != "do" {
		t.Errorf("got stack culprits %q, want [fail boom, do, ...]", culprits)
	}
}
