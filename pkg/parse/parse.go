// Package parse implements the rill parser.
//
// Parsing is a single pass of recursive descent over pipelines, statements
// and expressions, with precedence climbing for operator expressions. The
// parser resolves every call against the registered command signatures
// while parsing: unknown command names and arity or flag mismatches are
// parse errors, reported with the span of the offending token. Shape
// checking beyond arity is deferred to evaluation, since literal values
// are only fully resolved then.
//
// An invalid source always yields a non-nil error carrying every
// diagnostic collected. The tree returned alongside is best-effort:
// evaluation must not run on it, but tooling may still walk the valid
// prefix, as the LSP hover path does.
package parse

import (
	"strconv"
	"strings"
	"time"

	"github.com/rillsh/rill/pkg/diag"
	"github.com/rillsh/rill/pkg/sig"
)

// Tree represents a parsed tree.
type Tree struct {
	Root   *Chunk
	Source Source
}

// Parse parses the given source against the given signature registry. The
// returned error is either nil or of type *Error. The registry is only
// read, never mutated; a failed parse leaves no side effects anywhere.
func Parse(src Source, registry *sig.Registry) (Tree, error) {
	tree := Tree{&Chunk{}, src}
	ps := &parser{srcName: src.Name, src: src.Code, registry: registry}
	parse(ps, tree.Root)
	ps.done()
	return tree, ps.assembleError()
}

// Chunk = { Sep } { Statement { Sep } }
type Chunk struct {
	node
	Statements []Statement
}

func (bn *Chunk) parse(ps *parser) {
	parseSeps(ps)
	for {
		if ps.eof() || ps.peek() == '}' {
			break
		}
		parseStatement(ps, bn)
		if parseSeps(ps) == 0 {
			break
		}
	}
}

// Statement = Let | If | While | For | Try | Pipeline
func parseStatement(ps *parser, bn *Chunk) {
	switch {
	case ps.hasKeyword("let"):
		addStmt(parse(ps, &Let{}), bn)
	case ps.hasKeyword("if"):
		addStmt(parse(ps, &If{}), bn)
	case ps.hasKeyword("while"):
		addStmt(parse(ps, &While{}), bn)
	case ps.hasKeyword("for"):
		addStmt(parse(ps, &For{}), bn)
	case ps.hasKeyword("try"):
		addStmt(parse(ps, &Try{}), bn)
	default:
		addStmt(parse(ps, &Pipeline{}), bn)
	}
}

// Let = 'let' Ident '=' Pipeline
type Let struct {
	node
	Name      string
	NameRange diag.Ranging
	Value     *Pipeline
}

func (ln *Let) parse(ps *parser) {
	ps.skipWord("let")
	ps.spaces()
	from := ps.pos
	ln.Name = ps.parseIdentText()
	ln.NameRange = diag.Ranging{From: from, To: ps.pos}
	if ln.Name == "" {
		ps.error("should be variable name")
	}
	ps.spaces()
	if ps.peek() == '=' {
		ps.next()
	} else {
		ps.error("should be '='")
	}
	ps.spaces()
	parse(ps, &Pipeline{}).addAs(&ln.Value, ln)
}

// If = 'if' Expr BracedChunk [ 'else' ( If | BracedChunk ) ]
type If struct {
	node
	Cond   *Expr
	Then   *Chunk
	ElseIf *If
	Else   *Chunk
}

func (ifn *If) parse(ps *parser) {
	ps.skipWord("if")
	ps.spaces()
	ifn.Cond = parseExpr(ps)
	addChild(ifn, ifn.Cond)
	ifn.Then = parseBracedChunk(ps, ifn)
	save := ps.pos
	ps.spaces()
	if !ps.hasKeyword("else") {
		ps.pos = save
		return
	}
	ps.skipWord("else")
	ps.spaces()
	if ps.hasKeyword("if") {
		parse(ps, &If{}).addAs(&ifn.ElseIf, ifn)
	} else {
		ifn.Else = parseBracedChunk(ps, ifn)
	}
}

// While = 'while' Expr BracedChunk
type While struct {
	node
	Cond *Expr
	Body *Chunk
}

func (wn *While) parse(ps *parser) {
	ps.skipWord("while")
	ps.spaces()
	wn.Cond = parseExpr(ps)
	addChild(wn, wn.Cond)
	wn.Body = parseBracedChunk(ps, wn)
}

// For = 'for' Ident 'in' Expr BracedChunk
type For struct {
	node
	VarName string
	Iter    *Expr
	Body    *Chunk
}

func (fn *For) parse(ps *parser) {
	ps.skipWord("for")
	ps.spaces()
	fn.VarName = ps.parseIdentText()
	if fn.VarName == "" {
		ps.error("should be variable name")
	}
	ps.spaces()
	if ps.hasKeyword("in") {
		ps.skipWord("in")
	} else {
		ps.error("should be 'in'")
	}
	ps.spaces()
	fn.Iter = parseExpr(ps)
	addChild(fn, fn.Iter)
	fn.Body = parseBracedChunk(ps, fn)
}

// Try = 'try' BracedChunk [ 'catch' [ Ident ] BracedChunk ]
type Try struct {
	node
	Body     *Chunk
	CatchVar string
	Catch    *Chunk
}

func (tn *Try) parse(ps *parser) {
	ps.skipWord("try")
	tn.Body = parseBracedChunk(ps, tn)
	save := ps.pos
	ps.spaces()
	if !ps.hasKeyword("catch") {
		ps.pos = save
		return
	}
	ps.skipWord("catch")
	ps.spaces()
	if ps.peek() != '{' {
		tn.CatchVar = ps.parseIdentText()
		if tn.CatchVar == "" {
			ps.error("should be variable name or '{'")
		}
	} else {
		tn.CatchVar = "err"
	}
	tn.Catch = parseBracedChunk(ps, tn)
}

// BracedChunk = '{' Chunk '}'
func parseBracedChunk(ps *parser, parent Node) *Chunk {
	ps.spaces()
	if ps.peek() == '{' {
		ps.next()
	} else {
		ps.error("should be '{'")
	}
	ch := parse(ps, &Chunk{}).n
	addChild(parent, ch)
	if ps.peek() == '}' {
		ps.next()
	} else {
		ps.error("should be '}'")
	}
	return ch
}

// Pipeline = Stage { '|' Stage }
//
// The first stage may be any expression; subsequent stages must be calls.
type Pipeline struct {
	node
	Stages []*Expr
}

func (pn *Pipeline) parse(ps *parser) {
	pn.parseStage(ps, true)
	for {
		save := ps.pos
		ps.spaces()
		if ps.peek() != '|' {
			ps.pos = save
			break
		}
		ps.next()
		ps.spaces()
		// A pipeline may continue on the next line after a |.
		for ps.peek() == '\n' || ps.peek() == '\r' {
			ps.next()
			ps.spaces()
		}
		pn.parseStage(ps, false)
	}
}

func (pn *Pipeline) parseStage(ps *parser, first bool) {
	ps.spaces()
	if startsBareword(ps.peek()) {
		c := parse(ps, &Call{}).n
		ex := wrapCallExpr(c)
		pn.Stages = append(pn.Stages, ex)
		addChild(pn, ex)
		return
	}
	if !first {
		ps.error("should be command")
		return
	}
	ex := parseExpr(ps)
	pn.Stages = append(pn.Stages, ex)
	addChild(pn, ex)
}

// Call = Name { Flag | Arg }
//
// Name is the longest registered command name matching the leading
// barewords, so that "str length" resolves as one command and "get name"
// resolves as the command "get" with the argument "name".
type Call struct {
	node
	Name      string
	NameRange diag.Ranging
	Sig       *sig.Signature
	Args      []*Expr
	Flags     []*FlagArg
}

func (cn *Call) parse(ps *parser) {
	type word struct {
		text string
		r    diag.Ranging
		end  int
	}
	var words []word
	for {
		from := ps.pos
		text := ps.parseBarewordText()
		words = append(words, word{text, diag.Ranging{From: from, To: ps.pos}, ps.pos})
		save := ps.pos
		ps.spaces()
		if !startsBareword(ps.peek()) {
			ps.pos = save
			break
		}
	}
	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.text
	}
	s, n := ps.registry.LookupLongest(texts)
	if s == nil {
		ps.errorpt(TypeUnknownCommand, words[0].r, "unknown command %q", words[0].text)
		cn.Name = words[0].text
		skipStage(ps)
		return
	}
	cn.Name = s.Name
	cn.Sig = s
	cn.NameRange = diag.MixedRanging(words[0].r, words[n-1].r)
	ps.pos = words[n-1].end

	for {
		save := ps.pos
		ps.spaces()
		switch r := ps.peek(); {
		case r == eof || r == '|' || r == ';' || r == '\n' || r == '\r' ||
			r == ')' || r == '}' || r == ']':
			ps.pos = save
			cn.checkArity(ps)
			return
		case ps.hasPrefix("--"):
			parse(ps, &FlagArg{csig: cn.Sig}).addTo(&cn.Flags, cn)
		case r == '-' && startsShortFlag(ps):
			parse(ps, &FlagArg{csig: cn.Sig, short: true}).addTo(&cn.Flags, cn)
		default:
			cn.parseArg(ps)
		}
	}
}

func (cn *Call) parseArg(ps *parser) {
	shape := sig.ShapeAny
	if i := len(cn.Args); i < len(cn.Sig.Params) {
		shape = cn.Sig.Params[i].Shape
	} else if cn.Sig.RestParam != nil {
		shape = cn.Sig.RestParam.Shape
	}
	var ex *Expr
	if shape == sig.ShapeCondition && ps.peek() != '{' {
		ex = wrapImplicitBlock(parseExpr(ps))
	} else {
		ex = parse(ps, &Expr{compound: true}).n
	}
	cn.Args = append(cn.Args, ex)
	addChild(cn, ex)
}

func (cn *Call) checkArity(ps *parser) {
	n := len(cn.Args)
	if min := cn.Sig.MinArity(); n < min {
		ps.errorpt(TypeSignatureMismatch, cn.NameRange,
			"command %q requires argument for parameter %q",
			cn.Name, cn.Sig.Params[n].Name)
		return
	}
	if max := cn.Sig.MaxArity(); max != -1 && n > max {
		ps.errorpt(TypeSignatureMismatch, cn.Args[max],
			"command %q accepts at most %d arguments, got %d", cn.Name, max, n)
	}
}

// Error recovery after an unresolvable call: skip to the end of the
// stage so that one bad name does not cascade.
func skipStage(ps *parser) {
	for {
		switch ps.peek() {
		case eof, '|', ';', '\n', '\r', ')', '}':
			return
		}
		ps.next()
	}
}

func startsShortFlag(ps *parser) bool {
	if ps.pos+1 >= len(ps.src) {
		return false
	}
	r := rune(ps.src[ps.pos+1])
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

// FlagArg = '--' Ident [ Arg ] | '-' Letter [ Arg ]
type FlagArg struct {
	node
	csig  *sig.Signature
	short bool

	// Name is the long name of the resolved flag.
	Name  string
	Flag  *sig.Flag
	Value *Expr
}

func (fa *FlagArg) parse(ps *parser) {
	from := ps.pos
	var f *sig.Flag
	var given string
	if fa.short {
		ps.next() // '-'
		r := ps.next()
		given = "-" + string(r)
		f = fa.csig.FindShortFlag(r)
	} else {
		ps.next() // '-'
		ps.next() // '-'
		name := ps.parseIdentText()
		given = "--" + name
		f = fa.csig.FindFlag(name)
	}
	if f == nil {
		ps.errorpt(TypeSignatureMismatch, diag.Ranging{From: from, To: ps.pos},
			"command %q has no flag %q", fa.csig.Name, given)
		return
	}
	fa.Name = f.Long
	fa.Flag = f
	if f.HasArg {
		ps.spaces()
		parse(ps, &Expr{compound: true}).addAs(&fa.Value, fa)
	}
}

// Expr is an expression: an operator application when Op is non-empty
// (unary when LHS is nil), and a primary expression otherwise.
type Expr struct {
	node
	compound bool

	Op       string
	LHS, RHS *Expr
	Primary  *Primary
}

// parse handles the primary-only case, used for compound arguments where
// operators do not apply. Operator expressions are assembled by
// parseExpr.
func (en *Expr) parse(ps *parser) {
	parse(ps, &Primary{compound: en.compound}).addAs(&en.Primary, en)
}

// Operator precedence, tightest last. All binary operators are
// left-associative.
var binaryOps = []struct {
	op   string
	prec int
}{
	{"or", 2}, {"and", 3},
	{"==", 4}, {"!=", 4},
	{"<=", 5}, {">=", 5}, {"<", 5}, {">", 5},
	{"+", 6}, {"-", 6},
	{"*", 7}, {"/", 7}, {"%", 7},
}

const lowestPrec, unaryPrec = 2, 8

// parseExpr parses a full expression with precedence climbing.
func parseExpr(ps *parser) *Expr {
	return parseExprPrec(ps, lowestPrec)
}

func parseExprPrec(ps *parser, minPrec int) *Expr {
	from := ps.pos
	lhs := parseUnary(ps)
	for {
		save := ps.pos
		ps.spaces()
		op, prec := ps.peekBinaryOp()
		if op == "" || prec < minPrec {
			ps.pos = save
			break
		}
		ps.pos += len(op)
		ps.spaces()
		rhs := parseExprPrec(ps, prec+1)
		b := &Expr{Op: op, LHS: lhs, RHS: rhs}
		addChild(b, lhs)
		addChild(b, rhs)
		ps.finish(b, from)
		lhs = b
	}
	return lhs
}

func parseUnary(ps *parser) *Expr {
	from := ps.pos
	if ps.hasKeyword("not") {
		ps.skipWord("not")
		ps.spaces()
		operand := parseUnary(ps)
		u := &Expr{Op: "not", RHS: operand}
		addChild(u, operand)
		ps.finish(u, from)
		return u
	}
	if ps.peek() == '-' && !digitAt(ps, ps.pos+1) {
		ps.next()
		ps.spaces()
		operand := parseUnary(ps)
		u := &Expr{Op: "-", RHS: operand}
		addChild(u, operand)
		ps.finish(u, from)
		return u
	}
	return parse(ps, &Expr{}).n
}

func (ps *parser) peekBinaryOp() (string, int) {
	for _, cand := range binaryOps {
		if !ps.hasPrefix(cand.op) {
			continue
		}
		// Word operators need a word boundary after them.
		if isWordOp(cand.op) {
			after := ps.pos + len(cand.op)
			if after < len(ps.src) && allowedInBareword(rune(ps.src[after])) {
				continue
			}
		}
		return cand.op, cand.prec
	}
	return "", 0
}

func isWordOp(op string) bool { return op == "and" || op == "or" }

func digitAt(ps *parser, pos int) bool {
	return pos < len(ps.src) && ps.src[pos] >= '0' && ps.src[pos] <= '9'
}

// wrapCallExpr lifts a parsed Call into an expression node.
func wrapCallExpr(c *Call) *Expr {
	pr := &Primary{Type: CallPrimary, Call: c}
	pr.Ranging = c.Range()
	pr.sourceText = c.SourceText()
	addChild(pr, c)
	ex := &Expr{Primary: pr}
	ex.Ranging = c.Range()
	ex.sourceText = c.SourceText()
	addChild(ex, pr)
	return ex
}

// wrapImplicitBlock wraps a condition expression in a block with the
// single parameter "it", so that "where $it > 1" behaves exactly like
// "where { |it| $it > 1 }".
func wrapImplicitBlock(cond *Expr) *Expr {
	pl := &Pipeline{Stages: []*Expr{cond}}
	pl.Ranging = cond.Range()
	pl.sourceText = cond.SourceText()
	addChild(pl, cond)
	ch := &Chunk{Statements: []Statement{pl}}
	ch.Ranging = cond.Range()
	ch.sourceText = cond.SourceText()
	addChild(ch, pl)
	pr := &Primary{Type: BlockPrimary, Params: []string{"it"}, Body: ch}
	pr.Ranging = cond.Range()
	pr.sourceText = cond.SourceText()
	addChild(pr, ch)
	ex := &Expr{Primary: pr}
	ex.Ranging = cond.Range()
	ex.sourceText = cond.SourceText()
	addChild(ex, pr)
	return ex
}

// PrimaryType distinguishes the variants of a primary expression.
type PrimaryType uint8

// Possible values of PrimaryType.
const (
	BadPrimary PrimaryType = iota
	// A literal value; Value holds it.
	LiteralPrimary
	// A variable reference; VarName and Path hold the name and field
	// path.
	VariablePrimary
	// An interpolated string; Segments holds the pieces.
	InterpPrimary
	// A list literal; Elements holds the elements.
	ListPrimary
	// A record literal; Fields holds the fields.
	RecordPrimary
	// A block literal; Params and Body hold the parameter names and the
	// body.
	BlockPrimary
	// A parenthesized sub-expression; Pipeline holds it.
	SubexprPrimary
	// A command call in stage position; Call holds it.
	CallPrimary
)

// Primary is a primary expression.
type Primary struct {
	node
	compound bool

	Type     PrimaryType
	Value    any
	VarName  string
	Path     []string
	Segments []*Segment
	Elements []*Expr
	Fields   []*RecordField
	Params   []string
	Body     *Chunk
	Pipeline *Pipeline
	Call     *Call
}

func (pn *Primary) parse(ps *parser) {
	switch r := ps.peek(); {
	case r == '$':
		pn.parseVariableOrInterp(ps)
	case r == '\'':
		pn.parseSingleQuoted(ps)
	case r == '"':
		pn.parseDoubleQuoted(ps)
	case r == '[':
		pn.parseList(ps)
	case r == '{':
		pn.parseBrace(ps)
	case r == '(':
		pn.parseSubexpr(ps)
	case r >= '0' && r <= '9' || r == '-' && digitAt(ps, ps.pos+1):
		pn.parseNumber(ps)
	case startsBareword(r):
		pn.parseBareword(ps)
	default:
		ps.error("should be expression")
		pn.Type = BadPrimary
		// Skip the rune so that the enclosing loop advances.
		ps.next()
	}
}

func (pn *Primary) parseBareword(ps *parser) {
	from := ps.pos
	word := ps.parseBarewordText()
	switch word {
	case "true":
		pn.Type, pn.Value = LiteralPrimary, true
	case "false":
		pn.Type, pn.Value = LiteralPrimary, false
	case "null":
		pn.Type, pn.Value = LiteralPrimary, nil
	default:
		if !pn.compound {
			ps.errorp(diag.Ranging{From: from, To: ps.pos},
				"should be expression, found bareword %q", word)
		}
		// In argument position a bareword is a string literal.
		pn.Type, pn.Value = LiteralPrimary, word
	}
}

func (pn *Primary) parseVariableOrInterp(ps *parser) {
	ps.next() // '$'
	if ps.peek() == '"' {
		pn.parseInterp(ps)
		return
	}
	pn.Type = VariablePrimary
	pn.VarName = ps.parseIdentText()
	if pn.VarName == "" {
		ps.error("should be variable name")
		return
	}
	for ps.peek() == '.' {
		save := ps.pos
		ps.next()
		field := ps.parseIdentText()
		if field == "" {
			ps.pos = save
			break
		}
		pn.Path = append(pn.Path, field)
	}
}

// Interpolated string: $"text (expr) text". Parenthesized pipelines embed
// as child nodes; everything else is literal text with the usual
// double-quote escapes plus \( for a literal paren.
func (pn *Primary) parseInterp(ps *parser) {
	pn.Type = InterpPrimary
	ps.next() // '"'
	from := ps.pos
	var text strings.Builder
	flushText := func(to int) {
		if text.Len() == 0 {
			return
		}
		seg := &Segment{Text: text.String()}
		seg.Ranging = diag.Ranging{From: from, To: to}
		seg.sourceText = ps.src[seg.From:seg.To]
		pn.Segments = append(pn.Segments, seg)
		addChild(pn, seg)
		text.Reset()
	}
	for {
		before := ps.pos
		switch r := ps.next(); r {
		case eof:
			ps.error("string not terminated")
			flushText(before)
			return
		case '"':
			flushText(before)
			return
		case '(':
			flushText(before)
			seg := &Segment{}
			segFrom := before
			ps.spaces()
			parse(ps, &Pipeline{}).addAs(&seg.Pipeline, seg)
			ps.spaces()
			if ps.peek() == ')' {
				ps.next()
			} else {
				ps.error("should be ')'")
			}
			ps.finish(seg, segFrom)
			pn.Segments = append(pn.Segments, seg)
			addChild(pn, seg)
			from = ps.pos
		case '\\':
			esc, ok := parseEscape(ps)
			if !ok {
				ps.errorp(diag.Ranging{From: before, To: ps.pos},
					"invalid escape sequence")
			}
			text.WriteRune(esc)
		default:
			text.WriteRune(r)
		}
	}
}

// Segment is one piece of an interpolated string: literal text when
// Pipeline is nil, an embedded sub-expression otherwise.
type Segment struct {
	node
	Text     string
	Pipeline *Pipeline
}

// Segments are assembled by Primary.parseInterp; this is never called.
func (sn *Segment) parse(ps *parser) {}

func (pn *Primary) parseSingleQuoted(ps *parser) {
	pn.Type = LiteralPrimary
	ps.next() // '\''
	var sb strings.Builder
	for {
		switch r := ps.next(); r {
		case eof:
			ps.error("string not terminated")
			pn.Value = sb.String()
			return
		case '\'':
			if ps.peek() == '\'' {
				ps.next()
				sb.WriteByte('\'')
				continue
			}
			pn.Value = sb.String()
			return
		default:
			sb.WriteRune(r)
		}
	}
}

func (pn *Primary) parseDoubleQuoted(ps *parser) {
	pn.Type = LiteralPrimary
	ps.next() // '"'
	var sb strings.Builder
	for {
		before := ps.pos
		switch r := ps.next(); r {
		case eof:
			ps.error("string not terminated")
			pn.Value = sb.String()
			return
		case '"':
			pn.Value = sb.String()
			return
		case '\\':
			esc, ok := parseEscape(ps)
			if !ok {
				ps.errorp(diag.Ranging{From: before, To: ps.pos},
					"invalid escape sequence")
			}
			sb.WriteRune(esc)
		default:
			sb.WriteRune(r)
		}
	}
}

func parseEscape(ps *parser) (rune, bool) {
	switch r := ps.next(); r {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '"', '\\', '$', '(':
		return r, true
	default:
		return r, false
	}
}

// List = '[' { Element } ']', elements separated by commas, spaces or
// newlines. Elements are compound expressions; parenthesize to use
// operators inside a list.
func (pn *Primary) parseList(ps *parser) {
	pn.Type = ListPrimary
	ps.next() // '['
	for {
		skipListSeps(ps)
		if ps.peek() == ']' {
			ps.next()
			return
		}
		if ps.eof() {
			ps.error("should be ']'")
			return
		}
		parse(ps, &Expr{compound: true}).addTo(&pn.Elements, pn)
	}
}

func skipListSeps(ps *parser) {
	for {
		switch ps.peek() {
		case ' ', '\t', ',', '\n', '\r':
			ps.next()
		case '#':
			ps.spaces()
		default:
			return
		}
	}
}

// Brace disambiguation: "{" starts a record when it is empty or its first
// item is a key followed by ":", and a block otherwise.
func (pn *Primary) parseBrace(ps *parser) {
	ps.next() // '{'
	skipListSeps(ps)
	switch {
	case ps.peek() == '}':
		ps.next()
		pn.Type = RecordPrimary
	case ps.peek() == '|':
		pn.parseBlockRest(ps)
	case pn.startsRecordField(ps):
		pn.parseRecordRest(ps)
	default:
		pn.parseBlockRest(ps)
	}
}

func (pn *Primary) startsRecordField(ps *parser) bool {
	save, saveOverEOF := ps.pos, ps.overEOF
	defer func() { ps.pos, ps.overEOF = save, saveOverEOF }()
	r := ps.peek()
	if !(startsBareword(r) || r == '\'' || r == '"') {
		return false
	}
	tmp := &Primary{compound: true}
	// Suppress errors from the speculative parse.
	savedErrors := ps.errors
	tmp.parse(ps)
	ps.errors = savedErrors
	ps.spaces()
	return ps.peek() == ':'
}

func (pn *Primary) parseRecordRest(ps *parser) {
	pn.Type = RecordPrimary
	seen := make(map[string]diag.Ranging)
	for {
		f := parse(ps, &RecordField{}).n
		pn.Fields = append(pn.Fields, f)
		addChild(pn, f)
		if prev, dup := seen[f.Key]; dup {
			err := &diag.Error{
				Type:    TypeSyntax,
				Message: "duplicate record key " + strconv.Quote(f.Key),
				Context: *diag.NewContext(ps.srcName, ps.src, f.KeyRange),
				Related: []diag.Context{*diag.NewContext(ps.srcName, ps.src, prev)},
			}
			ps.errors = append(ps.errors, err)
		} else {
			seen[f.Key] = f.KeyRange
		}
		skipListSeps(ps)
		if ps.peek() == '}' {
			ps.next()
			return
		}
		if ps.eof() {
			ps.error("should be '}'")
			return
		}
	}
}

// RecordField = Key ':' Expr
type RecordField struct {
	node
	Key      string
	KeyRange diag.Ranging
	Value    *Expr
}

func (fn *RecordField) parse(ps *parser) {
	from := ps.pos
	switch r := ps.peek(); {
	case r == '\'':
		p := &Primary{}
		p.parseSingleQuoted(ps)
		fn.Key, _ = p.Value.(string)
	case r == '"':
		p := &Primary{}
		p.parseDoubleQuoted(ps)
		fn.Key, _ = p.Value.(string)
	default:
		fn.Key = ps.parseBarewordText()
		if fn.Key == "" {
			ps.error("should be record key")
		}
	}
	fn.KeyRange = diag.Ranging{From: from, To: ps.pos}
	ps.spaces()
	if ps.peek() == ':' {
		ps.next()
	} else {
		ps.error("should be ':'")
	}
	ps.spaces()
	parse(ps, &Expr{compound: true}).addAs(&fn.Value, fn)
}

// Block = '{' [ '|' { Ident } '|' ] Chunk '}'
func (pn *Primary) parseBlockRest(ps *parser) {
	pn.Type = BlockPrimary
	if ps.peek() == '|' {
		ps.next()
		for {
			ps.spaces()
			if ps.peek() == '|' {
				ps.next()
				break
			}
			name := ps.parseIdentText()
			if name == "" {
				ps.error("should be parameter name or '|'")
				break
			}
			pn.Params = append(pn.Params, name)
		}
	}
	parse(ps, &Chunk{}).addAs(&pn.Body, pn)
	if ps.peek() == '}' {
		ps.next()
	} else {
		ps.error("should be '}'")
	}
}

// Subexpr = '(' Pipeline ')'
func (pn *Primary) parseSubexpr(ps *parser) {
	pn.Type = SubexprPrimary
	ps.next() // '('
	ps.spaces()
	parse(ps, &Pipeline{}).addAs(&pn.Pipeline, pn)
	ps.spaces()
	if ps.peek() == ')' {
		ps.next()
	} else {
		ps.error("should be ')'")
	}
}

// Duration units accepted as numeric literal suffixes.
var durationUnits = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  24 * time.Hour,
}

func (pn *Primary) parseNumber(ps *parser) {
	pn.Type = LiteralPrimary
	from := ps.pos
	if ps.peek() == '-' {
		ps.next()
	}
	for isDigit(ps.peek()) {
		ps.next()
	}
	isFloat := false
	if ps.peek() == '.' {
		save := ps.pos
		ps.next()
		if isDigit(ps.peek()) {
			isFloat = true
			for isDigit(ps.peek()) {
				ps.next()
			}
		} else {
			ps.pos = save
		}
	}
	numEnd := ps.pos
	for isLetter(ps.peek()) {
		ps.next()
	}
	numText := ps.src[from:numEnd]
	unit := ps.src[numEnd:ps.pos]
	r := diag.Ranging{From: from, To: ps.pos}
	if unit != "" {
		u, ok := durationUnits[unit]
		if !ok {
			ps.errorp(r, "invalid duration unit %q", unit)
			return
		}
		coeff, err := strconv.ParseFloat(numText, 64)
		if err != nil {
			ps.errorp(r, "invalid duration literal")
			return
		}
		pn.Value = time.Duration(coeff * float64(u))
		return
	}
	if isFloat {
		f, err := strconv.ParseFloat(numText, 64)
		if err != nil {
			ps.errorp(r, "invalid float literal")
			return
		}
		pn.Value = f
		return
	}
	i, err := strconv.ParseInt(numText, 10, 64)
	if err != nil {
		ps.errorp(r, "invalid integer literal")
		return
	}
	pn.Value = i
}

// Low-level text scanning.

func startsBareword(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_'
}

func allowedInBareword(r rune) bool {
	return startsBareword(r) || r >= '0' && r <= '9' ||
		r == '-' || r == '.' || r == '/'
}

func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isLetter(r rune) bool { return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' }

func allowedInIdent(r rune) bool {
	return startsBareword(r) || r >= '0' && r <= '9' || r == '-'
}

func (ps *parser) parseBarewordText() string {
	from := ps.pos
	if !startsBareword(ps.peek()) {
		return ""
	}
	for allowedInBareword(ps.peek()) {
		ps.next()
	}
	return ps.src[from:ps.pos]
}

func (ps *parser) parseIdentText() string {
	from := ps.pos
	if !startsBareword(ps.peek()) {
		return ""
	}
	for allowedInIdent(ps.peek()) {
		ps.next()
	}
	return ps.src[from:ps.pos]
}

// hasKeyword reports whether the source at the cursor starts with the
// given word followed by a word boundary.
func (ps *parser) hasKeyword(kw string) bool {
	if !ps.hasPrefix(kw) {
		return false
	}
	after := ps.pos + len(kw)
	return after >= len(ps.src) || !allowedInBareword(rune(ps.src[after]))
}

func (ps *parser) skipWord(w string) {
	ps.pos += len(w)
}

// spaces skips inline whitespace and comments. Comments run from '#' to
// the end of the line, not consuming the newline.
func (ps *parser) spaces() {
	for {
		switch ps.peek() {
		case ' ', '\t':
			ps.next()
		case '#':
			for {
				r := ps.peek()
				if r == eof || r == '\n' {
					break
				}
				ps.next()
			}
		default:
			return
		}
	}
}

// parseSeps skips whitespace, comments and statement separators,
// returning the number of separators seen.
func parseSeps(ps *parser) int {
	n := 0
	for {
		switch ps.peek() {
		case ' ', '\t':
			ps.next()
		case '\n', '\r', ';':
			ps.next()
			n++
		case '#':
			ps.spaces()
		default:
			return n
		}
	}
}
