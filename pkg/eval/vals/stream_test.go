package vals

import (
	"errors"
	"testing"
)

func TestListStream(t *testing.T) {
	s := ListStream(List{int64(1), int64(2)})
	for want := int64(1); want <= 2; want++ {
		v, err := s.Next()
		if err != nil || v != want {
			t.Errorf("Next() = %v, %v, want %v, nil", v, err, want)
		}
	}
	if _, err := s.Next(); err != ErrEndOfStream {
		t.Errorf("Next() after exhaustion = %v, want ErrEndOfStream", err)
	}
}

func TestSingleStream(t *testing.T) {
	s := SingleStream("x")
	v, err := s.Next()
	if err != nil || v != "x" {
		t.Errorf("Next() = %v, %v, want x, nil", v, err)
	}
	if _, err := s.Next(); err != ErrEndOfStream {
		t.Errorf("Next() after exhaustion = %v, want ErrEndOfStream", err)
	}
}

func TestEmptyStream(t *testing.T) {
	if _, err := EmptyStream().Next(); err != ErrEndOfStream {
		t.Errorf("Next() on empty stream = %v, want ErrEndOfStream", err)
	}
}

func TestFuncStream(t *testing.T) {
	n := int64(0)
	closes := 0
	s := FuncStream(func() (any, error) {
		if n >= 2 {
			return nil, ErrEndOfStream
		}
		n++
		return n, nil
	}, func() error {
		closes++
		return nil
	})
	list, err := Collect(s)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(list, List{int64(1), int64(2)}) {
		t.Errorf("collected %v, want [1, 2]", list)
	}
	if closes != 1 {
		t.Errorf("closed %d times, want 1", closes)
	}
	// Closing again does not call closeFn again.
	s.Close()
	if closes != 1 {
		t.Errorf("closed %d times after second Close, want 1", closes)
	}
}

func TestFuncStream_NeverCallsNextAfterEnd(t *testing.T) {
	calls := 0
	s := FuncStream(func() (any, error) {
		calls++
		return nil, ErrEndOfStream
	}, nil)
	s.Next()
	s.Next()
	if calls != 1 {
		t.Errorf("next function called %d times, want 1", calls)
	}
}

func TestFuncStream_ErrorIsFinal(t *testing.T) {
	bad := errors.New("bad")
	s := FuncStream(func() (any, error) { return nil, bad }, nil)
	if _, err := s.Next(); err != bad {
		t.Errorf("Next() = %v, want bad", err)
	}
	if _, err := s.Next(); err != ErrEndOfStream {
		t.Errorf("Next() after error = %v, want ErrEndOfStream", err)
	}
}

func TestCollect_ClosesOnError(t *testing.T) {
	bad := errors.New("bad")
	cs := NewCountingStream(FuncStream(
		func() (any, error) { return nil, bad }, nil))
	_, err := Collect(cs)
	if err != bad {
		t.Errorf("Collect() = %v, want bad", err)
	}
	if cs.Closes() != 1 {
		t.Errorf("stream closed %d times, want 1", cs.Closes())
	}
}

func TestCollectValue(t *testing.T) {
	v, err := CollectValue(ListStream(List{int64(1)}))
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(v, List{int64(1)}) {
		t.Errorf("CollectValue(stream) = %v, want [1]", v)
	}

	v, err = CollectValue("plain")
	if err != nil || v != "plain" {
		t.Errorf("CollectValue(plain) = %v, %v, want plain, nil", v, err)
	}
}
