package vals

import (
	"math"
	"testing"
	"time"

	"github.com/rillsh/rill/pkg/tt"
)

var date = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestKind(t *testing.T) {
	tt.Test(t, tt.Fn("Kind", Kind), tt.Table{
		tt.Args(nil).Rets("nothing"),
		tt.Args(true).Rets("bool"),
		tt.Args(int64(1)).Rets("int"),
		tt.Args(1.5).Rets("float"),
		tt.Args("x").Rets("string"),
		tt.Args(time.Second).Rets("duration"),
		tt.Args(date).Rets("date"),
		tt.Args([]byte{1}).Rets("binary"),
		tt.Args(List{}).Rets("list"),
		tt.Args(NewRecord()).Rets("record"),
		tt.Args(EmptyStream()).Rets("stream"),
	})
}

func TestEqual(t *testing.T) {
	tt.Test(t, tt.Fn("Equal", Equal), tt.Table{
		tt.Args(nil, nil).Rets(true),
		tt.Args(true, true).Rets(true),
		tt.Args(int64(1), int64(1)).Rets(true),
		// Int and Float are unified for equality.
		tt.Args(int64(1), 1.0).Rets(true),
		tt.Args(int64(1), int64(2)).Rets(false),
		tt.Args("a", "a").Rets(true),
		tt.Args(time.Second, time.Second).Rets(true),
		tt.Args(List{int64(1), "a"}, List{int64(1), "a"}).Rets(true),
		tt.Args(List{int64(1)}, List{int64(2)}).Rets(false),
		tt.Args(MakeRecord("a", int64(1)), MakeRecord("a", int64(1))).Rets(true),
		// Field order is part of the data.
		tt.Args(MakeRecord("a", int64(1), "b", int64(2)),
			MakeRecord("b", int64(2), "a", int64(1))).Rets(false),
		// Dissimilar kinds are simply unequal.
		tt.Args(int64(1), "1").Rets(false),
		tt.Args(nil, false).Rets(false),
	})
}

func TestCmp(t *testing.T) {
	tt.Test(t, tt.Fn("Cmp", Cmp), tt.Table{
		tt.Args(int64(1), int64(2)).Rets(CmpLess),
		tt.Args(int64(2), int64(2)).Rets(CmpEqual),
		tt.Args(int64(3), int64(2)).Rets(CmpMore),
		tt.Args(int64(1), 1.5).Rets(CmpLess),
		tt.Args("a", "b").Rets(CmpLess),
		tt.Args(false, true).Rets(CmpLess),
		tt.Args(time.Second, time.Minute).Rets(CmpLess),
		tt.Args(date, date.Add(time.Hour)).Rets(CmpLess),
		tt.Args(List{int64(1)}, List{int64(1), int64(2)}).Rets(CmpLess),
		tt.Args(List{int64(1), int64(3)}, List{int64(1), int64(2)}).Rets(CmpMore),
		// NaN sorts before all other numbers and equal to itself.
		tt.Args(math.NaN(), math.NaN()).Rets(CmpEqual),
		tt.Args(math.NaN(), math.Inf(-1)).Rets(CmpLess),
		// Dissimilar kinds are uncomparable, not unequal.
		tt.Args(int64(1), "a").Rets(CmpUncomparable),
		tt.Args(nil, int64(1)).Rets(CmpUncomparable),
	})
}

func TestRepr(t *testing.T) {
	tt.Test(t, tt.Fn("Repr", Repr), tt.Table{
		tt.Args(nil).Rets("null"),
		tt.Args(true).Rets("true"),
		tt.Args(int64(42)).Rets("42"),
		// Floats stay recognizable as floats.
		tt.Args(3.0).Rets("3.0"),
		tt.Args(3.5).Rets("3.5"),
		tt.Args("word").Rets("word"),
		tt.Args("two words").Rets(`"two words"`),
		tt.Args("").Rets(`""`),
		tt.Args(1100 * time.Millisecond).Rets("1.1s"),
		tt.Args([]byte{0xde, 0xad}).Rets("0x[dead]"),
		tt.Args(List{int64(1), "a b"}).Rets(`[1, "a b"]`),
		tt.Args(MakeRecord("name", "rill", "major", int64(1))).
			Rets("{name: rill, major: 1}"),
		tt.Args(List{}).Rets("[]"),
	})
}

func TestUnifyNums2(t *testing.T) {
	a, b, ok := UnifyNums2(int64(1), int64(2))
	if !ok || a != int64(1) || b != int64(2) {
		t.Errorf("UnifyNums2(1, 2) = %v, %v, %v", a, b, ok)
	}
	a, b, ok = UnifyNums2(int64(1), 2.5)
	if !ok || a != 1.0 || b != 2.5 {
		t.Errorf("UnifyNums2(1, 2.5) = %v, %v, %v", a, b, ok)
	}
	_, _, ok = UnifyNums2(int64(1), "x")
	if ok {
		t.Error("UnifyNums2(1, x) succeeded")
	}
}

func TestRecord(t *testing.T) {
	r := NewRecord()
	r.Set("b", int64(2))
	r.Set("a", int64(1))
	if got := r.Keys(); len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("Keys() = %v, want [b a]", got)
	}
	// Overwriting keeps the original position.
	r.Set("b", int64(3))
	if got := r.Keys(); got[0] != "b" {
		t.Errorf("Keys() after overwrite = %v, want b first", got)
	}
	if v, ok := r.Get("b"); !ok || v != int64(3) {
		t.Errorf("Get(b) = %v, %v, want 3, true", v, ok)
	}
	if r.Has("missing") {
		t.Error("Has(missing) = true")
	}
	c := r.Clone()
	c.Set("a", int64(9))
	if v, _ := r.Get("a"); v != int64(1) {
		t.Error("mutating a clone changed the original")
	}
	r.Delete("a")
	if r.Len() != 1 {
		t.Errorf("Len() after delete = %d, want 1", r.Len())
	}
}
