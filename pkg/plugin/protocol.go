// Package plugin implements external command providers.
//
// A plugin is a separate executable described by a YAML manifest. The
// host spawns it on first use and speaks JSON-RPC 2.0 with Content-Length
// framing over its standard input and output. The conversation is:
//
//	hello {version}        handshake; versions must match exactly
//	call {command, ...}    invoke a command; returns a value or a stream id
//	next {id}              pull one element of a stream result
//	close {id}             notification; stop producing a stream result
//
// Stream results are pulled one element at a time, so a plugin producing
// an unbounded stream composes with a bounded consumer on the host side
// in bounded memory.
package plugin

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rillsh/rill/pkg/eval/vals"
)

// ProtocolVersion is the protocol version this host speaks. There is no
// negotiation: a plugin built against any other version is rejected at
// handshake time.
const ProtocolVersion = 1

type helloParams struct {
	Version int `json:"version"`
}

type helloResult struct {
	Version int `json:"version"`
}

type callParams struct {
	Command string               `json:"command"`
	Args    []wireValue          `json:"args,omitempty"`
	Flags   map[string]wireValue `json:"flags,omitempty"`
	Input   *wireValue           `json:"input,omitempty"`
}

// callResult carries either an immediate value or the id of a stream to
// be pulled with next.
type callResult struct {
	Value  *wireValue `json:"value,omitempty"`
	Stream *uint64    `json:"stream,omitempty"`
}

type nextParams struct {
	ID uint64 `json:"id"`
}

type nextResult struct {
	Value *wireValue `json:"value,omitempty"`
	Done  bool       `json:"done,omitempty"`
}

type closeParams struct {
	ID uint64 `json:"id"`
}

// Failure is reported when a plugin process misbehaves: exits in the
// middle of a call, writes malformed bytes, or violates the protocol.
// One misbehavior surfaces as exactly one Failure on the call that
// observed it.
type Failure struct {
	Plugin string
	Reason string
}

func (e Failure) Error() string {
	return fmt.Sprintf("plugin %s failed: %s", e.Plugin, e.Reason)
}

// VersionMismatch is reported when a plugin's protocol version differs
// from the host's.
type VersionMismatch struct {
	Plugin        string
	HostVersion   int
	PluginVersion int
}

func (e VersionMismatch) Error() string {
	return fmt.Sprintf("plugin %s speaks protocol version %d, host speaks %d",
		e.Plugin, e.PluginVersion, e.HostVersion)
}

// wireValue is the tagged union a value crosses the plugin boundary as.
// Ints and durations are encoded as decimal strings so that the full
// int64 range survives JSON's float64 numbers.
type wireValue struct {
	Kind   string      `json:"kind"`
	Bool   bool        `json:"bool,omitempty"`
	Int    string      `json:"int,omitempty"`
	Float  float64     `json:"float,omitempty"`
	Str    string      `json:"str,omitempty"`
	Date   string      `json:"date,omitempty"`
	Binary []byte      `json:"binary,omitempty"`
	List   []wireValue `json:"list,omitempty"`
	Fields []wireField `json:"fields,omitempty"`
}

type wireField struct {
	Key string    `json:"key"`
	Val wireValue `json:"val"`
}

func encodeValue(v any) (wireValue, error) {
	switch v := v.(type) {
	case nil:
		return wireValue{Kind: "nothing"}, nil
	case bool:
		return wireValue{Kind: "bool", Bool: v}, nil
	case int64:
		return wireValue{Kind: "int", Int: strconv.FormatInt(v, 10)}, nil
	case float64:
		return wireValue{Kind: "float", Float: v}, nil
	case string:
		return wireValue{Kind: "string", Str: v}, nil
	case time.Duration:
		return wireValue{Kind: "duration", Int: strconv.FormatInt(int64(v), 10)}, nil
	case time.Time:
		return wireValue{Kind: "date", Date: v.Format(time.RFC3339Nano)}, nil
	case []byte:
		return wireValue{Kind: "binary", Binary: v}, nil
	case vals.List:
		list := make([]wireValue, len(v))
		for i, elem := range v {
			w, err := encodeValue(elem)
			if err != nil {
				return wireValue{}, err
			}
			list[i] = w
		}
		return wireValue{Kind: "list", List: list}, nil
	case *vals.Record:
		fields := make([]wireField, 0, v.Len())
		for _, key := range v.Keys() {
			fv, _ := v.Get(key)
			w, err := encodeValue(fv)
			if err != nil {
				return wireValue{}, err
			}
			fields = append(fields, wireField{Key: key, Val: w})
		}
		return wireValue{Kind: "record", Fields: fields}, nil
	default:
		return wireValue{}, fmt.Errorf(
			"%s value cannot cross the plugin boundary", vals.Kind(v))
	}
}

func decodeValue(w wireValue) (any, error) {
	switch w.Kind {
	case "nothing":
		return nil, nil
	case "bool":
		return w.Bool, nil
	case "int":
		n, err := strconv.ParseInt(w.Int, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed int %q", w.Int)
		}
		return n, nil
	case "float":
		return w.Float, nil
	case "string":
		return w.Str, nil
	case "duration":
		n, err := strconv.ParseInt(w.Int, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed duration %q", w.Int)
		}
		return time.Duration(n), nil
	case "date":
		t, err := time.Parse(time.RFC3339Nano, w.Date)
		if err != nil {
			return nil, fmt.Errorf("malformed date %q", w.Date)
		}
		return t, nil
	case "binary":
		if w.Binary == nil {
			return []byte{}, nil
		}
		return w.Binary, nil
	case "list":
		list := make(vals.List, len(w.List))
		for i, elem := range w.List {
			v, err := decodeValue(elem)
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return list, nil
	case "record":
		rec := vals.NewRecord()
		for _, f := range w.Fields {
			v, err := decodeValue(f.Val)
			if err != nil {
				return nil, err
			}
			rec.Set(f.Key, v)
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", w.Kind)
	}
}
