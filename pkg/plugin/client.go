package plugin

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/rillsh/rill/pkg/errutil"
	"github.com/rillsh/rill/pkg/eval/vals"
)

// Client manages the host side of one plugin process: spawning it on
// first use, the handshake, and all subsequent calls. A Client is safe
// for concurrent use; the underlying connection multiplexes calls.
//
// A Client is sticky about failure: once the process has misbehaved, the
// call that observed it gets a Failure and every later call gets the same
// Failure without touching the dead process again.
type Client struct {
	manifest *Manifest

	mu   sync.Mutex
	conn *jsonrpc2.Conn
	cmd  *exec.Cmd
	err  error
}

// NewClient creates a client for the plugin described by the manifest.
// The process is not spawned until the first call.
func NewClient(m *Manifest) *Client {
	return &Client{manifest: m}
}

// Dial creates a client on an established transport instead of spawning
// a process, and performs the handshake immediately. It is used when the
// plugin runs in-process, as in tests.
func Dial(m *Manifest, rwc io.ReadWriteCloser) (*Client, error) {
	c := &Client{manifest: m}
	conn := c.newConn(rwc)
	if err := c.handshake(context.Background(), conn); err != nil {
		conn.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// Close shuts the plugin down. It is safe to call on a client that never
// started.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	if c.cmd != nil {
		killProcess(c.cmd)
		c.cmd.Wait()
		c.cmd = nil
	}
	return nil
}

func (c *Client) newConn(rwc io.ReadWriteCloser) *jsonrpc2.Conn {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	// The host never receives requests from the plugin.
	handler := jsonrpc2.HandlerWithError(func(
		_ context.Context, _ *jsonrpc2.Conn, _ *jsonrpc2.Request) (any, error) {
		return nil, &jsonrpc2.Error{
			Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	})
	return jsonrpc2.NewConn(context.Background(), stream, handler)
}

func (c *Client) handshake(ctx context.Context, conn *jsonrpc2.Conn) error {
	var hr helloResult
	err := conn.Call(ctx, "hello", helloParams{Version: ProtocolVersion}, &hr)
	if err != nil {
		return Failure{Plugin: c.manifest.Name, Reason: "handshake: " + err.Error()}
	}
	if hr.Version != ProtocolVersion {
		return VersionMismatch{
			Plugin:      c.manifest.Name,
			HostVersion: ProtocolVersion, PluginVersion: hr.Version}
	}
	return nil
}

// ensureStarted spawns the process and performs the handshake if neither
// has happened yet.
func (c *Client) ensureStarted(ctx context.Context) (*jsonrpc2.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if c.conn != nil {
		return c.conn, nil
	}

	cmd := exec.Command(c.manifest.ExecPath())
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, c.failLocked("spawn: " + err.Error())
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, c.failLocked("spawn: " + err.Error())
	}
	cmd.Stderr = os.Stderr
	setProcAttr(cmd)
	if err := cmd.Start(); err != nil {
		return nil, c.failLocked("spawn: " + err.Error())
	}
	logger.Println("spawned plugin", c.manifest.Name, "pid", cmd.Process.Pid)

	conn := c.newConn(transport{stdout, stdin})
	go func() {
		<-conn.DisconnectNotify()
		c.mu.Lock()
		if c.err == nil && c.conn == conn {
			c.err = Failure{Plugin: c.manifest.Name, Reason: "process disconnected"}
			c.conn = nil
		}
		c.mu.Unlock()
		cmd.Wait()
	}()

	if err := c.handshake(ctx, conn); err != nil {
		conn.Close()
		killProcess(cmd)
		c.err = err
		return nil, err
	}
	c.conn = conn
	c.cmd = cmd
	return conn, nil
}

// failLocked records a sticky failure and kills the process, with c.mu
// held.
func (c *Client) failLocked(reason string) error {
	if c.err == nil {
		c.err = Failure{Plugin: c.manifest.Name, Reason: reason}
	}
	if c.cmd != nil {
		killProcess(c.cmd)
	}
	return c.err
}

func (c *Client) fail(reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failLocked(reason)
}

// Call invokes a plugin command. The result is either a plain value or a
// vals.Stream whose elements are pulled from the plugin one at a time.
func (c *Client) Call(ctx context.Context, command string, args []any,
	flags map[string]any, input any) (any, error) {
	conn, err := c.ensureStarted(ctx)
	if err != nil {
		return nil, err
	}
	params := callParams{Command: command}
	for _, arg := range args {
		w, err := encodeValue(arg)
		if err != nil {
			return nil, err
		}
		params.Args = append(params.Args, w)
	}
	if len(flags) > 0 {
		params.Flags = make(map[string]wireValue, len(flags))
		for name, v := range flags {
			w, err := encodeValue(v)
			if err != nil {
				return nil, err
			}
			params.Flags[name] = w
		}
	}
	if input != nil {
		w, err := encodeValue(input)
		if err != nil {
			return nil, err
		}
		params.Input = &w
	}

	var res callResult
	if err := conn.Call(ctx, "call", params, &res); err != nil {
		return nil, c.callError(err)
	}
	switch {
	case res.Stream != nil:
		return &remoteStream{client: c, ctx: ctx, id: *res.Stream}, nil
	case res.Value != nil:
		v, err := decodeValue(*res.Value)
		if err != nil {
			return nil, c.fail(err.Error())
		}
		return v, nil
	default:
		return nil, nil
	}
}

// callError classifies an error from an RPC: an error response is a
// well-behaved plugin reporting a command failure, anything else means
// the process or transport broke.
func (c *Client) callError(err error) error {
	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		return errors.New(rpcErr.Message)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return c.fail(err.Error())
}

// remoteStream is the host side of a stream result. Each Next is one
// round trip, so only one element is in flight at a time.
type remoteStream struct {
	client *Client
	ctx    context.Context
	id     uint64
	done   bool
	closed bool
}

var _ vals.Stream = (*remoteStream)(nil)

func (s *remoteStream) Next() (any, error) {
	if s.done {
		return nil, vals.ErrEndOfStream
	}
	s.client.mu.Lock()
	conn, err := s.client.conn, s.client.err
	s.client.mu.Unlock()
	if err != nil {
		s.done = true
		return nil, err
	}
	var res nextResult
	if err := conn.Call(s.ctx, "next", nextParams{ID: s.id}, &res); err != nil {
		s.done = true
		return nil, s.client.callError(err)
	}
	if res.Done {
		s.done = true
		return nil, vals.ErrEndOfStream
	}
	if res.Value == nil {
		s.done = true
		return nil, s.client.fail("stream element missing")
	}
	v, err := decodeValue(*res.Value)
	if err != nil {
		s.done = true
		return nil, s.client.fail(err.Error())
	}
	return v, nil
}

func (s *remoteStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.done = true
	s.client.mu.Lock()
	conn := s.client.conn
	s.client.mu.Unlock()
	if conn != nil {
		// Best effort; a dead process has nothing left to stop.
		conn.Notify(context.Background(), "close", closeParams{ID: s.id})
	}
	return nil
}

// transport adapts a process's stdout and stdin to the connection's
// io.ReadWriteCloser.
type transport struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (t transport) Read(p []byte) (int, error)  { return t.in.Read(p) }
func (t transport) Write(p []byte) (int, error) { return t.out.Write(p) }

func (t transport) Close() error {
	return errutil.Multi(t.in.Close(), t.out.Close())
}
