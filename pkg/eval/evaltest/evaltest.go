// Package evaltest provides a framework for testing rill script.
//
// The entry point for the framework is the Test function, which accepts a
// *testing.T and any number of test cases.
//
// Test cases are constructed using the That function, followed by method
// calls that add additional information to it:
//
//	Test(t,
//	    That("put x").Puts("x"),
//	    That("[1, 2, 3] | length").Puts(int64(3)))
//
// If some setup is needed, use the TestWithSetup function instead.
package evaltest

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rillsh/rill/pkg/eval"
	"github.com/rillsh/rill/pkg/eval/vals"
	"github.com/rillsh/rill/pkg/parse"
)

// Case is a test case that can be used in Test.
type Case struct {
	codes  []string
	setup  func(ev *eval.Evaler)
	verify func(t *testing.T)
	want   result
}

type result struct {
	ValueOut []any

	ParseError error
	Exception  error
}

// That returns a new Case with the specified source code. Multiple
// arguments are joined with newlines. To specify multiple pieces of code
// that are executed separately, use the Then method to append code
// pieces.
func That(lines ...string) Case {
	return Case{codes: []string{strings.Join(lines, "\n")}}
}

// Then returns a new Case that executes the given code in addition.
// Multiple arguments are joined with newlines.
func (c Case) Then(lines ...string) Case {
	c.codes = append(c.codes, strings.Join(lines, "\n"))
	return c
}

// WithSetup returns a new Case with the given setup function executed on
// the Evaler before the code is executed.
func (c Case) WithSetup(f func(*eval.Evaler)) Case {
	c.setup = f
	return c
}

// DoesNothing returns c unchanged. It is useful to mark tests that don't
// have any side effects, for example:
//
//	That("nop").DoesNothing()
func (c Case) DoesNothing() Case {
	return c
}

// Passes returns an altered Case that runs an additional verification
// function.
func (c Case) Passes(f func(t *testing.T)) Case {
	c.verify = f
	return c
}

// Puts returns an altered Case that requires the source code to produce
// the specified values when evaluated: the value of the last statement,
// with a stream flattened into its elements.
func (c Case) Puts(vs ...any) Case {
	c.want.ValueOut = vs
	return c
}

// Throws returns an altered Case that requires the source code to throw
// an exception with the given reason. The reason supports special matcher
// values constructed by functions like ErrorWithMessage and ErrorWithType.
func (c Case) Throws(reason error) Case {
	c.want.Exception = reason
	return c
}

// DoesNotParse returns an altered Case that requires the source code to
// fail parsing.
func (c Case) DoesNotParse() Case {
	c.want.ParseError = AnyError
	return c
}

// DoesNotParseWith returns an altered Case that requires the source code
// to fail parsing with an error whose message contains the given text.
func (c Case) DoesNotParseWith(text string) Case {
	c.want.ParseError = ErrorWithMessage(text)
	return c
}

// Test runs test cases. For each test case, a new Evaler is created with
// NewEvaler.
func Test(t *testing.T, tests ...Case) {
	t.Helper()
	TestWithSetup(t, func(*eval.Evaler) {}, tests...)
}

// TestWithSetup runs test cases. For each test case, a new Evaler is
// created with NewEvaler and passed to the setup function.
func TestWithSetup(t *testing.T, setup func(*eval.Evaler), tests ...Case) {
	t.Helper()
	for _, tc := range tests {
		t.Run(strings.Join(tc.codes, "\n"), func(t *testing.T) {
			t.Helper()
			ev := eval.NewEvaler()
			setup(ev)
			if tc.setup != nil {
				tc.setup(ev)
			}

			r := evalAndCollect(t, ev, tc.codes)

			if tc.verify != nil {
				tc.verify(t)
			}
			if !matchOut(tc.want.ValueOut, r.ValueOut) {
				t.Errorf("got value out (-want +got):\n%s",
					cmp.Diff(reprs(tc.want.ValueOut), reprs(r.ValueOut)))
			}
			if !matchErr(tc.want.ParseError, r.ParseError) {
				t.Errorf("got parse error %v, want %v",
					r.ParseError, tc.want.ParseError)
			}
			if !matchErr(tc.want.Exception, r.Exception) {
				t.Errorf("unexpected exception")
				if exc, ok := r.Exception.(*eval.Exception); ok {
					t.Logf("got: %T: %v", exc.Reason(), exc)
					t.Logf("stack trace: %#v", getStackTexts(exc.StackTrace()))
				} else {
					t.Logf("got: %T: %v", r.Exception, r.Exception)
				}
				t.Errorf("want: %v", tc.want.Exception)
			}
		})
	}
}

func evalAndCollect(t *testing.T, ev *eval.Evaler, texts []string) result {
	var r result

	for _, text := range texts {
		tree, err := parse.Parse(
			parse.Source{Name: "[test]", Code: text}, ev.Registry())
		if err != nil {
			// NOTE: If multiple code pieces fail to parse, only the
			// last parse error is saved.
			r.ParseError = err
			continue
		}
		v, err := ev.Eval(tree)
		if err != nil {
			// NOTE: If multiple code pieces throw exceptions, only the
			// last one is saved.
			r.Exception = err
			continue
		}
		out, err := flatten(v)
		if err != nil {
			r.Exception = err
			continue
		}
		r.ValueOut = out
	}
	return r
}

// flatten turns the result of an evaluation into the values it puts: a
// stream becomes its elements, nil becomes no values, and any other value
// becomes a single value.
func flatten(v any) ([]any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case vals.Stream:
		list, err := vals.Collect(v)
		if err != nil {
			return nil, err
		}
		return []any(list), nil
	default:
		return []any{v}, nil
	}
}

func reprs(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = vals.Repr(v)
	}
	return out
}

func matchOut(want, got []any) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if !matchValue(got[i], want[i]) {
			return false
		}
	}
	return true
}

func matchValue(got, want any) bool {
	if m, ok := want.(ValueMatcher); ok {
		return m.matchValue(got)
	}
	return vals.Equal(got, want)
}

func getStackTexts(tb *eval.StackTrace) []string {
	var texts []string
	for ; tb != nil; tb = tb.Next {
		texts = append(texts, tb.Head.Culprit())
	}
	return texts
}
