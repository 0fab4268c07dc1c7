package vals

// CountingStream wraps a stream and counts the pulls and closes it
// observes. It is test instrumentation for verifying that consumers pull
// no more than they need and close exactly once.
type CountingStream struct {
	inner  Stream
	pulls  int
	closes int
}

// NewCountingStream returns a CountingStream wrapping inner.
func NewCountingStream(inner Stream) *CountingStream {
	return &CountingStream{inner: inner}
}

func (s *CountingStream) Next() (any, error) {
	s.pulls++
	return s.inner.Next()
}

func (s *CountingStream) Close() error {
	s.closes++
	return s.inner.Close()
}

// Pulls returns the number of Next calls observed.
func (s *CountingStream) Pulls() int { return s.pulls }

// Closes returns the number of Close calls observed.
func (s *CountingStream) Closes() int { return s.closes }
