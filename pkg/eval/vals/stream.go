package vals

import (
	"errors"
)

// ErrEndOfStream is returned by Stream.Next when the stream is exhausted.
var ErrEndOfStream = errors.New("end of stream")

// Stream is a lazy, single-pass, possibly unbounded sequence of values.
//
// Next returns the next element, or ErrEndOfStream when the stream is
// exhausted, or another error when the stream terminates abnormally; an
// abnormal error is final and Next must not be called again after
// receiving one. Consumption is destructive: re-reading requires
// collecting into a List first.
//
// Close releases the resources backing the stream. It must be called on
// every exit path, including when the consumer stops pulling early, and
// must be idempotent. For streams backed by an external process, Close is
// what tells the producer to stop producing.
type Stream interface {
	Next() (any, error)
	Close() error
}

// EmptyStream returns a stream with no elements.
func EmptyStream() Stream {
	return &listStream{}
}

// ListStream returns a stream over the elements of a list.
func ListStream(list List) Stream {
	return &listStream{list: list}
}

// SingleStream returns a stream producing exactly one value.
func SingleStream(v any) Stream {
	return ListStream(List{v})
}

type listStream struct {
	list List
	i    int
}

func (s *listStream) Next() (any, error) {
	if s.i >= len(s.list) {
		return nil, ErrEndOfStream
	}
	v := s.list[s.i]
	s.i++
	return v, nil
}

func (s *listStream) Close() error {
	s.i = len(s.list)
	return nil
}

// FuncStream returns a stream that produces elements by calling next and
// releases resources by calling closeFn. Either may be nil; a nil next
// produces an empty stream. FuncStream guarantees that next is never
// called after it has reported an end or an error, and that closeFn runs
// at most once.
func FuncStream(next func() (any, error), closeFn func() error) Stream {
	return &funcStream{next: next, closeFn: closeFn}
}

type funcStream struct {
	next    func() (any, error)
	closeFn func() error
	done    bool
	closed  bool
}

func (s *funcStream) Next() (any, error) {
	if s.done || s.next == nil {
		return nil, ErrEndOfStream
	}
	v, err := s.next()
	if err != nil {
		s.done = true
	}
	return v, err
}

func (s *funcStream) Close() error {
	s.done = true
	if s.closed || s.closeFn == nil {
		return nil
	}
	s.closed = true
	return s.closeFn()
}

// Collect drains a stream into a List. The stream is closed in all cases.
// If the stream terminates with an error, the elements read so far are
// discarded and the error is returned.
func Collect(s Stream) (List, error) {
	defer s.Close()
	var list List
	for {
		v, err := s.Next()
		if err == ErrEndOfStream {
			return list, nil
		} else if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
}

// CollectValue materializes a value for a consumer that is not
// stream-aware: streams are collected into Lists, everything else passes
// through.
func CollectValue(v any) (any, error) {
	if s, ok := v.(Stream); ok {
		list, err := Collect(s)
		if err != nil {
			return nil, err
		}
		return list, nil
	}
	return v, nil
}
