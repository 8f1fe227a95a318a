package syntax

import "go/token"

// Path is a position in a tree: a node together with its ancestor chain.
// Paths are immutable and share their prefixes.
type Path struct {
	Node   *Node
	Parent *Path
}

// NewPath returns the path of a root node.
func NewPath(root *Node) *Path {
	return &Path{Node: root}
}

// Push returns the path of child n under p.
func (p *Path) Push(n *Node) *Path {
	return &Path{Node: n, Parent: p}
}

// Depth is the number of ancestors of the node.
func (p *Path) Depth() int {
	d := 0
	for cur := p.Parent; cur != nil; cur = cur.Parent {
		d++
	}
	return d
}

// Nodes returns the chain from the root down to p.Node.
func (p *Path) Nodes() []*Node {
	nodes := make([]*Node, p.Depth()+1)
	i := len(nodes) - 1
	for cur := p; cur != nil; cur = cur.Parent {
		nodes[i] = cur.Node
		i--
	}
	return nodes
}

// Pos returns the start of the closest node on the path that has an origin.
func (p *Path) Pos() token.Pos {
	for cur := p; cur != nil; cur = cur.Parent {
		if cur.Node.Origin != nil {
			return cur.Node.Origin.Pos()
		}
	}
	return token.NoPos
}

// End returns the end of the closest node on the path that has an origin.
func (p *Path) End() token.Pos {
	for cur := p; cur != nil; cur = cur.Parent {
		if cur.Node.Origin != nil {
			return cur.Node.Origin.End()
		}
	}
	return token.NoPos
}
