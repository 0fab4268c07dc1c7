package plugin

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/rillsh/rill/pkg/eval/vals"
)

// CommandFunc is the implementation of one plugin command on the plugin
// side. Returning a vals.Stream makes the result a stream the host pulls
// element by element; any other value is sent whole.
type CommandFunc func(args []any, flags map[string]any, input any) (any, error)

// Serve speaks the plugin protocol over the given transport, dispatching
// calls to the command table. It returns when the host disconnects. A Go
// plugin's main function is typically just:
//
//	plugin.Serve(plugin.Stdio(), map[string]plugin.CommandFunc{...})
func Serve(rwc io.ReadWriteCloser, commands map[string]CommandFunc) error {
	s := &server{commands: commands, streams: make(map[uint64]vals.Stream)}
	conn := jsonrpc2.NewConn(context.Background(),
		jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}),
		s.handler())
	<-conn.DisconnectNotify()
	s.closeAll()
	return nil
}

type server struct {
	commands map[string]CommandFunc

	mu      sync.Mutex
	streams map[uint64]vals.Stream
	nextID  uint64
}

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
)

type method func(json.RawMessage) (any, error)

func (s *server) handler() jsonrpc2.Handler {
	methods := map[string]method{
		"hello": s.hello,
		"call":  s.call,
		"next":  s.next,
		"close": s.close,
	}
	return jsonrpc2.HandlerWithError(func(
		_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		fn, ok := methods[req.Method]
		if !ok {
			return nil, errMethodNotFound
		}
		var raw json.RawMessage
		if req.Params != nil {
			raw = *req.Params
		}
		return fn(raw)
	})
}

func (s *server) hello(raw json.RawMessage) (any, error) {
	var params helloParams
	if json.Unmarshal(raw, &params) != nil {
		return nil, errInvalidParams
	}
	// Report our version even on mismatch; rejecting is the host's job.
	return helloResult{Version: ProtocolVersion}, nil
}

func (s *server) call(raw json.RawMessage) (any, error) {
	var params callParams
	if json.Unmarshal(raw, &params) != nil {
		return nil, errInvalidParams
	}
	fn, ok := s.commands[params.Command]
	if !ok {
		return nil, &jsonrpc2.Error{
			Code: jsonrpc2.CodeInvalidRequest, Message: "unknown command " + params.Command}
	}

	args := make([]any, len(params.Args))
	for i, w := range params.Args {
		v, err := decodeValue(w)
		if err != nil {
			return nil, errInvalidParams
		}
		args[i] = v
	}
	var flags map[string]any
	if len(params.Flags) > 0 {
		flags = make(map[string]any, len(params.Flags))
		for name, w := range params.Flags {
			v, err := decodeValue(w)
			if err != nil {
				return nil, errInvalidParams
			}
			flags[name] = v
		}
	}
	var input any
	if params.Input != nil {
		v, err := decodeValue(*params.Input)
		if err != nil {
			return nil, errInvalidParams
		}
		input = v
	}

	v, err := fn(args, flags, input)
	if err != nil {
		return nil, &jsonrpc2.Error{
			Code: jsonrpc2.CodeInternalError, Message: err.Error()}
	}
	if stream, ok := v.(vals.Stream); ok {
		s.mu.Lock()
		s.nextID++
		id := s.nextID
		s.streams[id] = stream
		s.mu.Unlock()
		return callResult{Stream: &id}, nil
	}
	w, err := encodeValue(v)
	if err != nil {
		return nil, &jsonrpc2.Error{
			Code: jsonrpc2.CodeInternalError, Message: err.Error()}
	}
	return callResult{Value: &w}, nil
}

func (s *server) next(raw json.RawMessage) (any, error) {
	var params nextParams
	if json.Unmarshal(raw, &params) != nil {
		return nil, errInvalidParams
	}
	s.mu.Lock()
	stream, ok := s.streams[params.ID]
	s.mu.Unlock()
	if !ok {
		return nil, &jsonrpc2.Error{
			Code: jsonrpc2.CodeInvalidRequest, Message: "unknown stream"}
	}
	v, err := stream.Next()
	if err == vals.ErrEndOfStream {
		s.dropStream(params.ID)
		return nextResult{Done: true}, nil
	} else if err != nil {
		s.dropStream(params.ID)
		return nil, &jsonrpc2.Error{
			Code: jsonrpc2.CodeInternalError, Message: err.Error()}
	}
	w, err := encodeValue(v)
	if err != nil {
		s.dropStream(params.ID)
		return nil, &jsonrpc2.Error{
			Code: jsonrpc2.CodeInternalError, Message: err.Error()}
	}
	return nextResult{Value: &w}, nil
}

func (s *server) close(raw json.RawMessage) (any, error) {
	var params closeParams
	if json.Unmarshal(raw, &params) != nil {
		return nil, errInvalidParams
	}
	s.dropStream(params.ID)
	return nil, nil
}

func (s *server) dropStream(id uint64) {
	s.mu.Lock()
	stream, ok := s.streams[id]
	delete(s.streams, id)
	s.mu.Unlock()
	if ok {
		stream.Close()
	}
}

func (s *server) closeAll() {
	s.mu.Lock()
	streams := s.streams
	s.streams = make(map[uint64]vals.Stream)
	s.mu.Unlock()
	for _, stream := range streams {
		stream.Close()
	}
}

// Stdio returns the transport a spawned plugin process should serve on.
func Stdio() io.ReadWriteCloser {
	return stdio{}
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return nil }
