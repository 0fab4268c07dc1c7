package parse

import (
	"github.com/rillsh/rill/pkg/diag"
)

// Node is the interface implemented by all AST nodes.
type Node interface {
	diag.Ranger
	parse(ps *parser)
	n() *node

	// Parent returns the parent node, or nil for the root.
	Parent() Node
	// Children returns the child nodes, in the order they appear in the
	// source.
	Children() []Node
	// SourceText returns the part of the source text parsed into the
	// node.
	SourceText() string
}

// node is the common part of all AST nodes. Each node owns its children
// exclusively; the AST is a tree, never a DAG.
type node struct {
	diag.Ranging
	sourceText string
	parent     Node
	children   []Node
}

func (n *node) n() *node { return n }

func (n *node) addChild(ch Node) { n.children = append(n.children, ch) }

// Parent returns the parent node, or nil for the root node.
func (n *node) Parent() Node { return n.parent }

// Children returns the child nodes.
func (n *node) Children() []Node { return n.children }

// SourceText returns the part of the source text that parses to the node.
func (n *node) SourceText() string { return n.sourceText }

// Statement is implemented by nodes that can appear directly in a Chunk.
type Statement interface {
	Node
	statement()
}

func (*Pipeline) statement() {}
func (*Let) statement()      {}
func (*If) statement()       {}
func (*While) statement()    {}
func (*For) statement()      {}
func (*Try) statement()      {}
