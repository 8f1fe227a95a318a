package syntax

import (
	"go/ast"
	"strings"
)

// WildcardName is the sentinel label every wildcard normalizes to.
const WildcardName = "$"

// Boundary labels bracketing the elements of a List.
const (
	OpenList  = "("
	CloseList = ")"
)

// Absent labels the Boundary leaf that stands in for a missing optional
// child, as in the empty bounds of a[i:].
const Absent = "_"

// Wildcard tells whether a node is a free-variable placeholder.
type Wildcard uint8

const (
	NotWildcard Wildcard = iota
	// Single stands for exactly one node.
	Single
	// Multi stands for zero or more consecutive nodes of a list.
	Multi
)

// Node is a normalized syntax tree node.
type Node struct {
	Kind Kind
	// Name is the plain name of identifiers, selector members and
	// declarations. Wildcards keep their "$" prefix.
	Name string
	// Op holds operator or literal text. It takes part in matching but is
	// never a plain name.
	Op       string
	Wildcard Wildcard
	Children []*Node
	// Origin is the ast node this node was built from, nil for synthetic
	// nodes.
	Origin ast.Node
}

// IsWildcardName reports whether name is a placeholder name.
func IsWildcardName(name string) bool {
	return strings.HasPrefix(name, WildcardName)
}

// Label is the name-or-operator text used in the node's input symbol.
func (n *Node) Label() string {
	if n.Name != "" {
		return n.Name
	}
	return n.Op
}

// PlainName returns the node's name if it counts for name-presence
// filtering.
func (n *Node) PlainName() (string, bool) {
	if n.Name == "" || IsWildcardName(n.Name) {
		return "", false
	}
	switch n.Kind {
	case Ident, Selector, FuncDecl, TypeSpec, Labeled, ImportSpec:
		return n.Name, true
	}
	return "", false
}

// Qualified returns the flattened dotted name of a pure selector chain such
// as a.b.c: selectors over a single identifier, without wildcards or calls.
func (n *Node) Qualified() (string, bool) {
	if n.Kind != Selector {
		return "", false
	}
	var parts []string
	for cur := n; ; {
		name, ok := cur.PlainName()
		if !ok || cur.Wildcard != NotWildcard {
			return "", false
		}
		parts = append(parts, name)
		if cur.Kind == Ident {
			break
		}
		if cur.Kind != Selector || len(cur.Children) != 1 {
			return "", false
		}
		cur = cur.Children[0]
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "."), true
}

// Walk calls fn for n and every descendant in depth-first order. Returning
// false from fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Names collects every plain name in the subtree rooted at n into dst.
func Names(n *Node, dst map[string]struct{}) {
	Walk(n, func(x *Node) bool {
		if name, ok := x.PlainName(); ok {
			dst[name] = struct{}{}
		}
		return true
	})
}

// Size returns the number of non-synthetic nodes in the subtree.
func Size(n *Node) int {
	size := 0
	Walk(n, func(x *Node) bool {
		if x.Kind != List && x.Kind != Boundary {
			size++
		}
		return true
	})
	return size
}

// String renders the subtree as an s-expression, handy in tests and in the
// explain command.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	sb.WriteByte('(')
	sb.WriteString(n.Kind.String())
	if label := n.Label(); label != "" {
		sb.WriteByte(' ')
		sb.WriteString(label)
	}
	switch n.Wildcard {
	case Single:
		sb.WriteString(" *")
	case Multi:
		sb.WriteString(" **")
	}
	for _, c := range n.Children {
		sb.WriteByte(' ')
		c.write(sb)
	}
	sb.WriteByte(')')
}
