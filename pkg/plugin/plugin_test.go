package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"testing"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/rillsh/rill/pkg/eval/vals"
)

func TestWireRoundTrip(t *testing.T) {
	date := time.Date(2024, 6, 1, 12, 30, 0, 123456789, time.UTC)
	values := []any{
		nil,
		true,
		false,
		int64(0),
		int64(math.MaxInt64),
		int64(math.MinInt64),
		3.14,
		"",
		"hello",
		42 * time.Millisecond,
		date,
		[]byte{0xde, 0xad},
		vals.List{int64(1), "a", vals.List{true}},
		vals.MakeRecord("name", "rill", "tags", vals.List{"a", "b"}),
	}
	for _, v := range values {
		w, err := encodeValue(v)
		if err != nil {
			t.Errorf("encode %v: %v", vals.Repr(v), err)
			continue
		}
		got, err := decodeValue(w)
		if err != nil {
			t.Errorf("decode %v: %v", vals.Repr(v), err)
			continue
		}
		if !vals.Equal(got, v) {
			t.Errorf("round trip of %v gave %v", vals.Repr(v), vals.Repr(got))
		}
	}
}

func TestWireRejectsStreams(t *testing.T) {
	if _, err := encodeValue(vals.EmptyStream()); err == nil {
		t.Error("encoding a stream succeeded")
	}
}

func TestWireRejectsMalformed(t *testing.T) {
	for _, w := range []wireValue{
		{Kind: "int", Int: "abc"},
		{Kind: "duration", Int: ""},
		{Kind: "date", Date: "not a date"},
		{Kind: "frobnicate"},
	} {
		if _, err := decodeValue(w); err == nil {
			t.Errorf("decoding %+v succeeded", w)
		}
	}
}

func testManifest() *Manifest {
	return &Manifest{
		Name:     "calc",
		Exec:     "calc",
		Protocol: ProtocolVersion,
		Commands: []CommandSpec{
			{Name: "add", Rest: &ParamSpec{Name: "terms", Shape: "int"}},
			{Name: "count", Params: []ParamSpec{{Name: "n", Shape: "int"}}},
		},
	}
}

func testCommands(pulls *int) map[string]CommandFunc {
	return map[string]CommandFunc{
		"add": func(args []any, flags map[string]any, input any) (any, error) {
			var sum int64
			for _, arg := range args {
				n, ok := arg.(int64)
				if !ok {
					return nil, fmt.Errorf("add: want int, got %s", vals.Kind(arg))
				}
				sum += n
			}
			return sum, nil
		},
		"count": func(args []any, flags map[string]any, input any) (any, error) {
			end := args[0].(int64)
			n := int64(0)
			return vals.FuncStream(func() (any, error) {
				if pulls != nil {
					*pulls++
				}
				if n >= end {
					return nil, vals.ErrEndOfStream
				}
				v := n
				n++
				return v, nil
			}, nil), nil
		},
		"boom": func(args []any, flags map[string]any, input any) (any, error) {
			return nil, errors.New("boom")
		},
		"echo": func(args []any, flags map[string]any, input any) (any, error) {
			return input, nil
		},
	}
}

// dialServed connects a client to an in-process server over a pipe.
func dialServed(t *testing.T, pulls *int) *Client {
	t.Helper()
	host, plugin := net.Pipe()
	go Serve(plugin, testCommands(pulls))
	client, err := Dial(testManifest(), host)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestCall(t *testing.T) {
	client := dialServed(t, nil)
	ctx := context.Background()

	v, err := client.Call(ctx, "add", []any{int64(1), int64(2)}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(3) {
		t.Errorf("add returned %v, want 3", v)
	}

	// Pipeline input crosses the boundary.
	v, err = client.Call(ctx, "echo", nil, nil, vals.List{int64(1)})
	if err != nil {
		t.Fatal(err)
	}
	if !vals.Equal(v, vals.List{int64(1)}) {
		t.Errorf("echo returned %v", vals.Repr(v))
	}
}

func TestCallStream(t *testing.T) {
	client := dialServed(t, nil)
	v, err := client.Call(context.Background(), "count", []any{int64(3)}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	stream, ok := v.(vals.Stream)
	if !ok {
		t.Fatalf("count returned %T, want stream", v)
	}
	list, err := vals.Collect(stream)
	if err != nil {
		t.Fatal(err)
	}
	if !vals.Equal(list, vals.List{int64(0), int64(1), int64(2)}) {
		t.Errorf("collected %v", vals.Repr(list))
	}
}

func TestStreamIsPulledLazily(t *testing.T) {
	pulls := 0
	client := dialServed(t, &pulls)
	v, err := client.Call(context.Background(), "count", []any{int64(1000)}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	stream := v.(vals.Stream)
	for i := 0; i < 2; i++ {
		if _, err := stream.Next(); err != nil {
			t.Fatal(err)
		}
	}
	stream.Close()
	// Each Next is one round trip; two pulls on the host mean two pulls
	// in the plugin.
	if pulls != 2 {
		t.Errorf("plugin producer pulled %d times, want 2", pulls)
	}
}

func TestCommandError(t *testing.T) {
	client := dialServed(t, nil)
	ctx := context.Background()

	_, err := client.Call(ctx, "boom", nil, nil, nil)
	if err == nil || err.Error() != "boom" {
		t.Errorf("got error %v, want boom", err)
	}
	// A command failure is not a process failure; the plugin stays
	// usable.
	if _, err := client.Call(ctx, "add", []any{int64(1)}, nil, nil); err != nil {
		t.Errorf("call after command error failed: %v", err)
	}

	_, err = client.Call(ctx, "no-such-command", nil, nil, nil)
	if err == nil {
		t.Error("calling an undeclared command succeeded")
	}
	if _, ok := err.(Failure); ok {
		t.Error("unknown command reported as process failure")
	}
}

func TestStickyFailure(t *testing.T) {
	host, plugin := net.Pipe()
	go Serve(plugin, testCommands(nil))
	client, err := Dial(testManifest(), host)
	if err != nil {
		t.Fatal(err)
	}
	// The process "dies": the transport goes away mid-session.
	host.Close()

	_, err1 := client.Call(context.Background(), "add", []any{int64(1)}, nil, nil)
	if err1 == nil {
		t.Fatal("call on dead transport succeeded")
	}
	var f Failure
	if !errors.As(err1, &f) {
		t.Fatalf("got %T, want Failure", err1)
	}
	// Every later call gets the same failure without touching the
	// connection again.
	_, err2 := client.Call(context.Background(), "add", []any{int64(1)}, nil, nil)
	if !errors.Is(err2, err1) && err2 != err1 {
		t.Errorf("second call got %v, want the same failure", err2)
	}
}

func TestTransportDeathMidStream(t *testing.T) {
	host, plugin := net.Pipe()
	go Serve(plugin, testCommands(nil))
	client, err := Dial(testManifest(), host)
	if err != nil {
		t.Fatal(err)
	}
	res, err := client.Call(context.Background(), "count", []any{int64(100)}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	stream := res.(vals.Stream)
	if v, err := stream.Next(); err != nil || !vals.Equal(v, int64(0)) {
		t.Fatalf("first element = %v, %v", v, err)
	}

	host.Close()

	_, err = stream.Next()
	var f Failure
	if !errors.As(err, &f) {
		t.Fatalf("after transport death got %v, want Failure", err)
	}
	// The stream is over; nothing further is emitted.
	if _, err := stream.Next(); !errors.Is(err, vals.ErrEndOfStream) {
		t.Errorf("stream emitted after failure: %v", err)
	}
}

func TestManifestValidation(t *testing.T) {
	valid := []byte(`
name: calc
exec: calc
protocol: 1
commands:
  - name: add
    rest: {name: terms, shape: int}
  - name: stats mean
    input: list
    output: float
    flags:
      - {long: precise, short: p}
`)
	m, err := parseManifest(valid)
	if err != nil {
		t.Fatal(err)
	}
	s, err := m.Commands[1].Signature()
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "stats mean" || s.FindShortFlag('p') == nil {
		t.Errorf("signature not built from manifest: %+v", s)
	}

	bad := []struct {
		name string
		data string
	}{
		{"no name", "exec: x\nprotocol: 1\ncommands: [{name: a}]"},
		{"no exec", "name: x\nprotocol: 1\ncommands: [{name: a}]"},
		{"no commands", "name: x\nexec: x\nprotocol: 1"},
		{"unknown shape", "name: x\nexec: x\nprotocol: 1\ncommands: [{name: a, input: frob}]"},
	}
	for _, test := range bad {
		if _, err := parseManifest([]byte(test.data)); err == nil {
			t.Errorf("%s: validation passed", test.name)
		}
	}

	_, err = parseManifest([]byte("name: x\nexec: x\nprotocol: 99\ncommands: [{name: a}]"))
	var vm VersionMismatch
	if !errors.As(err, &vm) || vm.PluginVersion != 99 {
		t.Errorf("protocol mismatch reported as %v, want VersionMismatch", err)
	}
}

// serveHelloOnly answers the handshake with the given protocol version
// and nothing else, standing in for a plugin built against another
// protocol.
func serveHelloOnly(rwc io.ReadWriteCloser, version int) {
	conn := jsonrpc2.NewConn(context.Background(),
		jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(func(
			_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
			if req.Method == "hello" {
				return helloResult{Version: version}, nil
			}
			return nil, errMethodNotFound
		}))
	<-conn.DisconnectNotify()
}

func TestVersionMismatchAtHandshake(t *testing.T) {
	host, plugin := net.Pipe()
	// A plugin speaking a different protocol version.
	go serveHelloOnly(plugin, 99)
	_, err := Dial(testManifest(), host)
	var vm VersionMismatch
	if !errors.As(err, &vm) {
		t.Fatalf("got %v, want VersionMismatch", err)
	}
	if vm.PluginVersion != 99 || vm.HostVersion != ProtocolVersion {
		t.Errorf("got %+v", vm)
	}
}
