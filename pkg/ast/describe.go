package ast

import "github.com/supaloboto/sisuo/pkg/token"

// Description is a serializable view of a node, used for dumps.
type Description struct {
	Kind     string         `json:"kind"`
	Operator string         `json:"operator,omitempty"`
	Name     string         `json:"name,omitempty"`
	Value    string         `json:"value,omitempty"`
	Decl     string         `json:"decl,omitempty"`
	Span     token.Span     `json:"span"`
	Children []*Description `json:"children,omitempty"`
}

// Describe converts a node and its subtree into a Description.
func Describe(n Node) *Description {
	switch n := n.(type) {
	case nil:
		return nil
	case *VarNode:
		return &Description{Kind: "var", Name: n.Name, Decl: n.Kind.String(), Span: n.Span}
	case *ConstNode:
		return &Description{Kind: "const", Value: n.Value, Span: n.Span}
	case *StubNode:
		return &Description{Kind: "stub", Name: n.Keyword, Span: n.Span}
	case *FuncNode:
		d := &Description{Kind: "call", Name: n.Func, Span: n.Span}
		if n.IsDeclaration() {
			d.Kind = "function"
			d.Children = append(d.Children, Describe(n.Params), Describe(n.Body))
			return d
		}
		d.Children = describeAll(n.Params.Nodes)
		return d
	case *TreeNodeSet:
		return &Description{Kind: "set", Span: n.Span, Children: describeAll(n.Nodes)}
	case *TreeNode:
		d := &Description{Kind: "tree", Operator: n.Operator, Span: n.Span}
		for _, c := range []Node{n.left, n.right} {
			if c != nil {
				d.Children = append(d.Children, Describe(c))
			}
		}
		return d
	}
	return &Description{Kind: "unknown"}
}

func describeAll(nodes []Node) []*Description {
	out := make([]*Description, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Describe(n))
	}
	return out
}
