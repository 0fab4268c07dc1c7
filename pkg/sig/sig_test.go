package sig

import (
	"testing"

	"github.com/rillsh/rill/pkg/tt"
)

func TestArity(t *testing.T) {
	tt.Test(t, tt.Fn("arity", func(s *Signature) (int, int) {
		return s.MinArity(), s.MaxArity()
	}), tt.Table{
		tt.Args(New("nop")).Rets(0, 0),
		tt.Args(New("take").Required("n", ShapeInt)).Rets(1, 1),
		tt.Args(New("range").Required("start", ShapeInt).
			Optional("end", ShapeInt)).Rets(1, 2),
		tt.Args(New("put").Rest("values", ShapeAny)).Rets(0, -1),
		tt.Args(New("do").Required("block", ShapeBlock).
			Rest("args", ShapeAny)).Rets(1, -1),
	})
}

func TestFindFlag(t *testing.T) {
	s := New("sort").
		Flag("reverse", 'r', ShapeBool).
		Flag("key", 0, ShapeString)

	if f := s.FindFlag("reverse"); f == nil || f.HasArg {
		t.Errorf("FindFlag(reverse) = %v, want argument-less flag", f)
	}
	if f := s.FindFlag("key"); f == nil || !f.HasArg || f.Shape != ShapeString {
		t.Errorf("FindFlag(key) = %v, want string flag with argument", f)
	}
	if f := s.FindFlag("bogus"); f != nil {
		t.Errorf("FindFlag(bogus) = %v, want nil", f)
	}
	if f := s.FindShortFlag('r'); f == nil || f.Long != "reverse" {
		t.Errorf("FindShortFlag(r) = %v, want reverse", f)
	}
	// A flag with no short form never matches the zero rune.
	if f := s.FindShortFlag(0); f != nil {
		t.Errorf("FindShortFlag(0) = %v, want nil", f)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(New("str"))
	r.MustRegister(New("str length"))
	r.MustRegister(New("put"))

	if err := r.Register(New("put")); err == nil {
		t.Error("registering a duplicate name succeeded")
	}

	if s, ok := r.Lookup("str length"); !ok || s.Name != "str length" {
		t.Errorf("Lookup(str length) = %v, %v", s, ok)
	}
	if _, ok := r.Lookup("bogus"); ok {
		t.Error("Lookup(bogus) succeeded")
	}

	wantNames := []string{"put", "str", "str length"}
	names := r.Names()
	if len(names) != len(wantNames) {
		t.Fatalf("Names() = %v, want %v", names, wantNames)
	}
	for i := range names {
		if names[i] != wantNames[i] {
			t.Errorf("Names() = %v, want %v", names, wantNames)
			break
		}
	}
}

func TestLookupLongest(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(New("str"))
	r.MustRegister(New("str length"))

	tt.Test(t, tt.Fn("LookupLongest", func(words ...string) (string, int) {
		s, n := r.LookupLongest(words)
		if s == nil {
			return "", n
		}
		return s.Name, n
	}), tt.Table{
		// The longest registered prefix wins.
		tt.Args("str", "length").Rets("str length", 2),
		tt.Args("str", "length", "extra").Rets("str length", 2),
		// Unregistered trailing words fall back to the shorter name.
		tt.Args("str", "bogus").Rets("str", 1),
		tt.Args("str").Rets("str", 1),
		tt.Args("bogus").Rets("", 0),
	})
}
