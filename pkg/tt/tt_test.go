package tt

import (
	"fmt"
	"testing"
)

// mockT implements the T interface and records errors.
type mockT struct{ errors []string }

func (t *mockT) Helper() {}

func (t *mockT) Errorf(format string, args ...any) {
	t.errors = append(t.errors, fmt.Sprintf(format, args...))
}

func add(a, b int) int { return a + b }

func divmod(a, b int) (int, int) { return a / b, a % b }

func TestPassingCases(t *testing.T) {
	mt := &mockT{}
	Test(mt, Fn("add", add), Table{
		Args(1, 2).Rets(3),
		Args(-1, 1).Rets(0),
	})
	if len(mt.errors) > 0 {
		t.Errorf("passing table reported errors: %v", mt.errors)
	}
}

func TestFailingCase(t *testing.T) {
	mt := &mockT{}
	Test(mt, Fn("add", add), Table{
		Args(1, 2).Rets(4),
	})
	if len(mt.errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(mt.errors))
	}
	want := "add(1, 2) -> 3, want 4"
	if mt.errors[0] != want {
		t.Errorf("error message %q, want %q", mt.errors[0], want)
	}
}

func TestMultipleReturns(t *testing.T) {
	mt := &mockT{}
	Test(mt, Fn("divmod", divmod), Table{
		Args(7, 2).Rets(3, 1),
	})
	if len(mt.errors) > 0 {
		t.Errorf("got errors: %v", mt.errors)
	}
}

func TestAnyMatcher(t *testing.T) {
	mt := &mockT{}
	Test(mt, Fn("divmod", divmod), Table{
		Args(7, 2).Rets(Any, 1),
		Args(9, 2).Rets(4, Any),
	})
	if len(mt.errors) > 0 {
		t.Errorf("got errors: %v", mt.errors)
	}
}

func TestNilArg(t *testing.T) {
	mt := &mockT{}
	Test(mt, Fn("isNil", func(v any) bool { return v == nil }), Table{
		Args(nil).Rets(true),
	})
	if len(mt.errors) > 0 {
		t.Errorf("got errors: %v", mt.errors)
	}
}
