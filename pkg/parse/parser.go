package parse

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rillsh/rill/pkg/diag"
	"github.com/rillsh/rill/pkg/sig"
)

// parser maintains the mutable state of a parse.
//
// The src member is assumed to be valid UTF-8.
type parser struct {
	srcName  string
	src      string
	pos      int
	overEOF  int
	registry *sig.Registry
	errors   []*diag.Error
}

const eof rune = -1

func (ps *parser) eof() bool {
	return ps.pos == len(ps.src)
}

func (ps *parser) peek() rune {
	if ps.pos == len(ps.src) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(ps.src[ps.pos:])
	return r
}

func (ps *parser) hasPrefix(prefix string) bool {
	return strings.HasPrefix(ps.src[ps.pos:], prefix)
}

func (ps *parser) next() rune {
	if ps.pos == len(ps.src) {
		ps.overEOF++
		return eof
	}
	r, s := utf8.DecodeRuneInString(ps.src[ps.pos:])
	ps.pos += s
	return r
}

func (ps *parser) backup() {
	if ps.overEOF > 0 {
		ps.overEOF--
		return
	}
	_, s := utf8.DecodeLastRuneInString(ps.src[:ps.pos])
	ps.pos -= s
}

// parse parses a node. It is responsible for setting the node's range and
// source text; the node's parse method only parses the content.
func parse[N Node](ps *parser, n N) parsed[N] {
	begin := ps.pos
	n.n().From = begin
	n.parse(ps)
	n.n().To = ps.pos
	n.n().sourceText = ps.src[begin:ps.pos]
	return parsed[N]{n}
}

type parsed[N Node] struct {
	n N
}

func (p parsed[N]) addAs(ptr *N, parent Node) {
	*ptr = p.n
	addChild(parent, p.n)
}

func (p parsed[N]) addTo(ptr *[]N, parent Node) {
	*ptr = append(*ptr, p.n)
	addChild(parent, p.n)
}

func addChild(p Node, ch Node) {
	p.n().addChild(ch)
	ch.n().parent = p
}

func addStmt[N Statement](p parsed[N], bn *Chunk) {
	bn.Statements = append(bn.Statements, p.n)
	addChild(bn, p.n)
}

// finish sets the range and source text of a manually constructed node.
// Nodes built outside the parse helper (operator expressions, implicit
// blocks) go through here.
func (ps *parser) finish(n Node, from int) {
	nn := n.n()
	nn.From = from
	nn.To = ps.pos
	nn.sourceText = ps.src[from:ps.pos]
}

// Tells the parser that parsing is done.
func (ps *parser) done() {
	if ps.pos != len(ps.src) {
		r, _ := utf8.DecodeRuneInString(ps.src[ps.pos:])
		ps.error("unexpected rune %q", r)
	}
}

// Error kinds reported by the parser. Syntax errors proper use TypeSyntax;
// the two signature-resolution failures have their own kinds so that
// callers can tell them apart.
const (
	TypeSyntax            = "parse error"
	TypeUnknownCommand    = "unknown command"
	TypeSignatureMismatch = "signature mismatch"
)

func (ps *parser) errorpt(typ string, r diag.Ranger, format string, args ...any) {
	ps.errors = append(ps.errors, &diag.Error{
		Type:    typ,
		Message: fmt.Sprintf(format, args...),
		Context: *diag.NewContext(ps.srcName, ps.src, r),
	})
}

func (ps *parser) errorp(r diag.Ranger, format string, args ...any) {
	ps.errorpt(TypeSyntax, r, format, args...)
}

func (ps *parser) error(format string, args ...any) {
	end := ps.pos
	if end < len(ps.src) {
		end++
	}
	ps.errorp(diag.Ranging{From: ps.pos, To: end}, format, args...)
}

func (ps *parser) assembleError() error {
	if len(ps.errors) == 0 {
		return nil
	}
	return &Error{Entries: ps.errors}
}

// Error is a parse error. It can contain multiple underlying errors, each
// of which carries its own source context.
type Error struct {
	Entries []*diag.Error
}

// Error returns a plain text representation of the error.
func (e *Error) Error() string {
	switch len(e.Entries) {
	case 0:
		return "no parse error"
	case 1:
		return e.Entries[0].Error()
	default:
		sb := new(strings.Builder)
		sb.WriteString("multiple parse errors: ")
		for i, entry := range e.Entries {
			if i > 0 {
				sb.WriteString("; ")
			}
			fmt.Fprintf(sb, "%d-%d: %s",
				entry.Context.From, entry.Context.To, entry.Message)
		}
		return sb.String()
	}
}

// Show shows the error.
func (e *Error) Show(indent string) string {
	switch len(e.Entries) {
	case 0:
		return "no parse error"
	case 1:
		return e.Entries[0].Show(indent)
	default:
		sb := new(strings.Builder)
		sb.WriteString("Multiple parse errors:")
		for _, entry := range e.Entries {
			sb.WriteString("\n" + indent + "  ")
			sb.WriteString(entry.Show(indent + "  "))
		}
		return sb.String()
	}
}

// UnpackErrors returns the constituent diagnostics if the given error is a
// parse [Error], and nil otherwise.
func UnpackErrors(e error) []*diag.Error {
	if er, ok := e.(*Error); ok {
		return er.Entries
	}
	return nil
}
