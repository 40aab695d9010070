// Package ast defines the statement trees built by the analyser.
//
// Trees are binary and parent-linked. Every node has at most one parent;
// SetLeft and SetRight detach the incoming child from wherever it was
// attached before, which is what lets the expression builder move an
// already-attached operand under a new operator node.
package ast

import (
	"strings"

	"github.com/supaloboto/sisuo/pkg/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	GetSpan() token.Span
	Parent() *TreeNode
	String() string
	setParent(p *TreeNode)
}

// NodeInfo provides common fields for all AST nodes.
// Embed this in node types that need position and ownership tracking.
type NodeInfo struct {
	Span token.Span
	// Token is the source token of a leaf, used to attach annotations.
	Token  *token.Token
	parent *TreeNode
}

// GetSpan returns the node's source span.
func (n *NodeInfo) GetSpan() token.Span {
	return n.Span
}

// Parent returns the node owning this one, or nil.
func (n *NodeInfo) Parent() *TreeNode {
	return n.parent
}

func (n *NodeInfo) setParent(p *TreeNode) {
	n.parent = p
}

// ---------- Binary nodes ----------

// TreeNode is a binary operator node. Declarations, assignments and returns
// reuse it with the keyword as the operator.
type TreeNode struct {
	NodeInfo
	Operator string
	left     Node
	right    Node
}

// NewTreeNode creates a detached node with the given operator.
func NewTreeNode(op string) *TreeNode {
	return &TreeNode{Operator: op}
}

// Left returns the left child.
func (n *TreeNode) Left() Node { return n.left }

// Right returns the right child.
func (n *TreeNode) Right() Node { return n.right }

// SetLeft installs c as the left child.
func (n *TreeNode) SetLeft(c Node) { n.attach(&n.left, c) }

// SetRight installs c as the right child.
func (n *TreeNode) SetRight(c Node) { n.attach(&n.right, c) }

func (n *TreeNode) attach(slot *Node, c Node) {
	if old := *slot; old != nil && old.Parent() == n {
		old.setParent(nil)
	}
	if c != nil {
		Detach(c)
		c.setParent(n)
	}
	*slot = c
	n.extendSpan(c)
}

func (n *TreeNode) extendSpan(c Node) {
	if c == nil {
		return
	}
	cs := c.GetSpan()
	if cs == (token.Span{}) {
		return
	}
	if n.Span == (token.Span{}) {
		n.Span = cs
		return
	}
	n.Span = n.Span.Join(cs)
}

// IsEmpty reports whether the node has neither operator nor children.
func (n *TreeNode) IsEmpty() bool {
	return n.Operator == "" && n.left == nil && n.right == nil
}

func (n *TreeNode) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(n.Operator)
	for _, c := range []Node{n.left, n.right} {
		if c == nil {
			continue
		}
		b.WriteString(" ")
		b.WriteString(c.String())
	}
	b.WriteString(")")
	return b.String()
}

// Detach removes c from its parent's child slot.
func Detach(c Node) {
	p := c.Parent()
	if p == nil {
		return
	}
	switch {
	case p.left == c:
		p.left = nil
	case p.right == c:
		p.right = nil
	}
	c.setParent(nil)
}

// Root walks parent links up to the top of the tree containing n.
func Root(n Node) Node {
	var cur Node = n
	for {
		p := cur.Parent()
		if p == nil {
			return cur
		}
		cur = p
	}
}

// ---------- Leaves ----------

// DeclKind tells how a variable was declared.
type DeclKind int

// Declaration kinds.
const (
	DeclNone   DeclKind = iota // a use, not a declaration
	DeclVar                    // var: evaluated once, externally mutable
	DeclRef                    // ref: derived, recomputed on demand
	DeclGlobal                 // global: evaluated once like var
	DeclParam                  // function parameter
)

var declKeywords = map[DeclKind]string{
	DeclNone:   "",
	DeclVar:    token.KeywordVar,
	DeclRef:    token.KeywordRef,
	DeclGlobal: token.KeywordGlobal,
	DeclParam:  "param",
}

func (k DeclKind) String() string {
	return declKeywords[k]
}

// DeclKindFor maps a declaration keyword to its kind.
func DeclKindFor(kw string) (DeclKind, bool) {
	for k, s := range declKeywords {
		if k != DeclNone && s == kw {
			return k, true
		}
	}
	return DeclNone, false
}

// VarNode names a variable, either declaring it or using it.
type VarNode struct {
	NodeInfo
	Name string
	Kind DeclKind
	// Decl points to the declaring VarNode when this node is a use.
	Decl *VarNode
}

// IsReference reports whether the name refers to an external parameter.
func (n *VarNode) IsReference() bool {
	return strings.HasPrefix(n.Name, "@")
}

func (n *VarNode) String() string { return n.Name }

// ConstNode is a literal.
type ConstNode struct {
	NodeInfo
	Value string
	// Quoted is set for literals written between quotes; Value has the
	// delimiters stripped.
	Quoted bool
	// Ident is set for bare words that look like identifiers but did not
	// resolve to any declaration when parsed.
	Ident bool
}

func (n *ConstNode) String() string {
	if n.Quoted {
		return `"` + n.Value + `"`
	}
	return n.Value
}

// StubNode is a control-flow statement that is parsed but not executed.
type StubNode struct {
	NodeInfo
	Keyword string
	Tokens  []*token.Token
}

func (n *StubNode) String() string { return "(" + n.Keyword + " ...)" }

// ---------- Functions ----------

// FuncNode is either a function declaration (Body != nil) or a call.
type FuncNode struct {
	TreeNode
	Func   string
	Params *TreeNodeSet
	// Body holds the statements of a declaration.
	Body *TreeNodeSet
	// Decl is the declaration a call resolves to; nil for formula calls.
	Decl *FuncNode
}

// NewFuncNode creates a function node with an empty parameter set.
func NewFuncNode(name string) *FuncNode {
	return &FuncNode{Func: name, Params: NewTreeNodeSet()}
}

// IsDeclaration reports whether the node declares a function.
func (n *FuncNode) IsDeclaration() bool {
	return n.Body != nil
}

// ParamNames returns the declared parameter names.
func (n *FuncNode) ParamNames() []string {
	names := make([]string, 0, n.Params.Len())
	for _, p := range n.Params.Nodes {
		if v, ok := p.(*VarNode); ok {
			names = append(names, v.Name)
		}
	}
	return names
}

func (n *FuncNode) String() string {
	var b strings.Builder
	if n.IsDeclaration() {
		b.WriteString("(function ")
		b.WriteString(n.Func)
		b.WriteString(" [")
		b.WriteString(strings.Join(n.ParamNames(), " "))
		b.WriteString("] ")
		b.WriteString(n.Body.String())
		b.WriteString(")")
		return b.String()
	}
	b.WriteString(n.Func)
	b.WriteString(n.Params.String())
	return b.String()
}

// ---------- Sequences ----------

// TreeNodeSet is an ordered sequence of sibling statements or arguments.
// It never holds nil entries.
type TreeNodeSet struct {
	NodeInfo
	Nodes []Node
}

// NewTreeNodeSet creates an empty set.
func NewTreeNodeSet() *TreeNodeSet {
	return &TreeNodeSet{Nodes: []Node{}}
}

// Append adds non-nil nodes to the set.
func (s *TreeNodeSet) Append(nodes ...Node) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		s.Nodes = append(s.Nodes, n)
		if cs := n.GetSpan(); cs != (token.Span{}) {
			if s.Span == (token.Span{}) {
				s.Span = cs
			} else {
				s.Span = s.Span.Join(cs)
			}
		}
	}
}

// Len returns the number of nodes in the set.
func (s *TreeNodeSet) Len() int { return len(s.Nodes) }

func (s *TreeNodeSet) String() string {
	parts := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		parts[i] = n.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
