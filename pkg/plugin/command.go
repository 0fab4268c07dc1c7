package plugin

import (
	"context"
	"io"

	"github.com/rillsh/rill/pkg/eval"
	"github.com/rillsh/rill/pkg/eval/errs"
)

// command adapts one plugin command to the evaluator's Callable. Errors
// coming back from the plugin carry no source positions; the dispatcher
// attributes them to the call site.
type command struct {
	client *Client
	name   string
}

var _ eval.Callable = (*command)(nil)

func (c *command) Kind() string { return "fn" }

func (c *command) Equal(rhs any) bool { return c == rhs }

func (c *command) Repr() string { return "<plugin " + c.name + ">" }

func (c *command) Call(fm *eval.Frame, args []any, flags map[string]any) (any, error) {
	// Pipeline input crosses the boundary as one materialized value.
	input, err := fm.InputValue()
	if err != nil {
		return nil, err
	}

	// Bridge the evaluator's interrupt channel to the RPC context. The
	// watcher must outlive a stream result, whose elements are still
	// pulled on this context; interruptedStream stops it on Close.
	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan struct{})
	go func() {
		select {
		case <-fm.Interrupts():
			cancel()
		case <-stop:
			cancel()
		}
	}()
	stopWatcher := func() { close(stop) }

	v, err := c.client.Call(ctx, c.name, args, flags, input)
	if err != nil {
		stopWatcher()
		if fm.IsInterrupted() {
			return nil, errs.ErrCancelled
		}
		return nil, err
	}
	if s, ok := v.(*remoteStream); ok {
		return &interruptedStream{s, fm, stopWatcher, false}, nil
	}
	stopWatcher()
	return v, nil
}

// interruptedStream wraps a remote stream so that pulls respect the
// evaluator's interrupts and the context watcher is released exactly once
// when the stream is done with.
type interruptedStream struct {
	inner   *remoteStream
	fm      *eval.Frame
	release func()
	closed  bool
}

func (s *interruptedStream) Next() (any, error) {
	if s.fm.IsInterrupted() {
		return nil, errs.ErrCancelled
	}
	v, err := s.inner.Next()
	if err != nil && s.fm.IsInterrupted() {
		return nil, errs.ErrCancelled
	}
	return v, err
}

func (s *interruptedStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.inner.Close()
	s.release()
	return err
}

// Register makes the manifest's commands available on the evaler: their
// signatures become resolvable by the parser, and calls spawn the plugin
// process on demand.
func Register(ev *eval.Evaler, m *Manifest) (*Client, error) {
	client := NewClient(m)
	if err := registerClient(ev, m, client); err != nil {
		return nil, err
	}
	return client, nil
}

// RegisterDialed is like Register but uses an established transport
// instead of spawning a process.
func RegisterDialed(ev *eval.Evaler, m *Manifest, rwc io.ReadWriteCloser) (*Client, error) {
	client, err := Dial(m, rwc)
	if err != nil {
		return nil, err
	}
	if err := registerClient(ev, m, client); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func registerClient(ev *eval.Evaler, m *Manifest, client *Client) error {
	for _, spec := range m.Commands {
		s, err := spec.Signature()
		if err != nil {
			return err
		}
		if err := ev.RegisterExternal(s, &command{client, spec.Name}); err != nil {
			return err
		}
	}
	return nil
}
