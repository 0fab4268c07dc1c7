package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/rillsh/rill/pkg/diag"
	"github.com/rillsh/rill/pkg/eval"
	"github.com/rillsh/rill/pkg/parse"
	"github.com/rillsh/rill/pkg/sig"
)

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
)

type server struct {
	registry *sig.Registry
	content  map[lsp.DocumentURI]string
}

func newServer() *server {
	// An evaler is created purely for its registry, so that diagnostics
	// and hovers see the same commands evaluation would.
	return &server{eval.NewEvaler().Registry(), make(map[lsp.DocumentURI]string)}
}

func handler(s *server) jsonrpc2.Handler {
	return routingHandler(map[string]method{
		"initialize":             s.initialize,
		"textDocument/didOpen":   s.didOpen,
		"textDocument/didChange": s.didChange,
		"textDocument/hover":     s.hover,

		"textDocument/didClose": noop,
		// Required by spec.
		"initialized": noop,
		// Called by clients even when server doesn't advertise support:
		// https://microsoft.github.io/language-server-protocol/specification#workspace_didChangeWatchedFiles
		"workspace/didChangeWatchedFiles": noop,
	})
}

type method func(context.Context, jsonrpc2.JSONRPC2, json.RawMessage) (any, error)

func noop(_ context.Context, _ jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return nil, nil
}

func routingHandler(methods map[string]method) jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		fn, ok := methods[req.Method]
		if !ok {
			return nil, errMethodNotFound
		}
		return fn(ctx, conn, *req.Params)
	})
}

// Handler implementations. These are all called synchronously.

func (s *server) initialize(_ context.Context, _ jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return &lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
				Options: &lsp.TextDocumentSyncOptions{
					OpenClose: true,
					Change:    lsp.TDSKFull,
				},
			},
			HoverProvider: true,
		},
	}, nil
}

func (s *server) didOpen(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidOpenTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}

	uri, content := params.TextDocument.URI, params.TextDocument.Text
	s.content[uri] = content
	go s.publishDiagnostics(ctx, conn, uri, content)
	return nil, nil
}

func (s *server) didChange(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidChangeTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}

	// ContentChanges includes full text since the server is only
	// advertised to support that; see the initialize method.
	uri, content := params.TextDocument.URI, params.ContentChanges[0].Text
	s.content[uri] = content
	go s.publishDiagnostics(ctx, conn, uri, content)
	return nil, nil
}

func (s *server) hover(_ context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.TextDocumentPositionParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	content := s.content[params.TextDocument.URI]
	idx := lspPositionToIdx(content, params.Position)

	// Hovering works on whatever partial tree a failed parse produced.
	tree, _ := parse.Parse(
		parse.Source{Name: string(params.TextDocument.URI), Code: content}, s.registry)
	call := callAt(tree.Root, idx)
	if call == nil {
		return lsp.Hover{}, nil
	}
	signature, ok := s.registry.Lookup(call.Name)
	if !ok {
		return lsp.Hover{}, nil
	}
	return lsp.Hover{
		Contents: []lsp.MarkedString{{Language: "rill", Value: renderSignature(signature)}},
		Range:    ptr(lspRangeFromRange(content, call.NameRange)),
	}, nil
}

// callAt finds the innermost call node whose name range contains idx.
func callAt(n parse.Node, idx int) *parse.Call {
	var found *parse.Call
	for _, child := range n.Children() {
		r := child.Range()
		if r.From <= idx && idx <= r.To {
			if inner := callAt(child, idx); inner != nil {
				found = inner
			}
		}
	}
	if found != nil {
		return found
	}
	if call, ok := n.(*parse.Call); ok {
		if call.NameRange.From <= idx && idx <= call.NameRange.To {
			return call
		}
	}
	return nil
}

func renderSignature(s *sig.Signature) string {
	var sb strings.Builder
	sb.WriteString(s.Name)
	for _, p := range s.Params {
		if p.Optional {
			fmt.Fprintf(&sb, " [%s:%s]", p.Name, p.Shape)
		} else {
			fmt.Fprintf(&sb, " <%s:%s>", p.Name, p.Shape)
		}
	}
	if s.RestParam != nil {
		fmt.Fprintf(&sb, " <%s:%s>...", s.RestParam.Name, s.RestParam.Shape)
	}
	for _, f := range s.Flags {
		fmt.Fprintf(&sb, " [--%s]", f.Long)
	}
	fmt.Fprintf(&sb, "  (%s -> %s)", s.Input, s.Output)
	return sb.String()
}

func ptr[T any](v T) *T { return &v }

func (s *server) publishDiagnostics(ctx context.Context, conn jsonrpc2.JSONRPC2, uri lsp.DocumentURI, content string) {
	conn.Notify(ctx, "textDocument/publishDiagnostics",
		lsp.PublishDiagnosticsParams{URI: uri, Diagnostics: s.diagnostics(uri, content)})
}

func (s *server) diagnostics(uri lsp.DocumentURI, content string) []lsp.Diagnostic {
	_, err := parse.Parse(parse.Source{Name: string(uri), Code: content}, s.registry)
	if err == nil {
		return []lsp.Diagnostic{}
	}

	entries := parse.UnpackErrors(err)
	diags := make([]lsp.Diagnostic, len(entries))
	for i, err := range entries {
		diags[i] = lsp.Diagnostic{
			Range:    lspRangeFromRange(content, err),
			Severity: lsp.Error,
			Source:   err.Type,
			Message:  err.Message,
		}
	}
	return diags
}

func lspRangeFromRange(s string, r diag.Ranger) lsp.Range {
	rg := r.Range()
	return lsp.Range{
		Start: lspPositionFromIdx(s, rg.From),
		End:   lspPositionFromIdx(s, rg.To),
	}
}

func lspPositionToIdx(s string, pos lsp.Position) int {
	var idx int
	walkString(s, func(i int, p lsp.Position) bool {
		idx = i
		return p.Line < pos.Line || (p.Line == pos.Line && p.Character < pos.Character)
	})
	return idx
}

func lspPositionFromIdx(s string, idx int) lsp.Position {
	var pos lsp.Position
	walkString(s, func(i int, p lsp.Position) bool {
		pos = p
		return i < idx
	})
	return pos
}

// walkString walks the string and calls f for each index and the
// corresponding LSP position. It stops when f returns false.
func walkString(s string, f func(i int, p lsp.Position) bool) {
	var p lsp.Position
	for i, r := range s {
		if !f(i, p) {
			return
		}
		switch {
		case r == '\n':
			p.Line++
			p.Character = 0
		case r >= 0x10000:
			// Astral codepoints are two UTF-16 units.
			p.Character += 2
		default:
			p.Character++
		}
	}
	f(len(s), p)
}
