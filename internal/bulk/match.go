package bulk

import (
	"context"
	"errors"
	"sort"

	"github.com/gnolang/bulkgrep/internal/nfa"
	"github.com/gnolang/bulkgrep/internal/syntax"
)

// errStop ends a traversal early once the answer is known.
var errStop = errors.New("stop")

// results returns the results of active ordered by pattern index.
func results(a *automaton, active nfa.StateSet) []Result {
	rs := a.Results(active)
	if len(rs) > 1 {
		sort.Slice(rs, func(i, j int) bool { return rs[i].Index < rs[j].Index })
	}
	return rs
}

// liveMatch holds the per-call state of one live traversal.
type liveMatch struct {
	ctx   context.Context
	a     *automaton
	names map[string]struct{}
	found func(Result, *syntax.Path) error
}

// Match runs the automaton over the tree rooted at root and returns, for
// every pattern that matched and passed the name filter, the positions it
// matched at. It returns nil and ctx.Err() when ctx is done before the
// traversal ends.
func (c *Compiled) Match(ctx context.Context, root *syntax.Node) (map[string][]*syntax.Path, error) {
	found := make(map[int][]*syntax.Path)
	m := &liveMatch{
		ctx:   ctx,
		a:     c.nfa,
		names: make(map[string]struct{}),
		found: func(r Result, p *syntax.Path) error {
			found[r.Index] = append(found[r.Index], p)
			return nil
		},
	}
	if _, err := m.visit(syntax.NewPath(root), c.nfa.StartSet()); err != nil {
		return nil, err
	}

	out := make(map[string][]*syntax.Path)
	for i, paths := range found {
		if !c.passes(i, m.names) {
			continue
		}
		text := c.patterns[i].text
		out[text] = append(out[text], paths...)
	}
	return out, nil
}

// Matches reports whether any pattern matches the tree rooted at root. It
// stops at the first match that passes the name filter.
func (c *Compiled) Matches(ctx context.Context, root *syntax.Node) (bool, error) {
	names := make(map[string]struct{})
	syntax.Names(root, names)

	m := &liveMatch{
		ctx:   ctx,
		a:     c.nfa,
		names: make(map[string]struct{}),
		found: func(r Result, _ *syntax.Path) error {
			if c.passes(r.Index, names) {
				return errStop
			}
			return nil
		},
	}
	_, err := m.visit(syntax.NewPath(root), c.nfa.StartSet())
	switch {
	case errors.Is(err, errStop):
		return true, nil
	case err != nil:
		return false, err
	}
	return false, nil
}

// visit threads active through the subtree at p and returns the
// configuration after its exit.
func (m *liveMatch) visit(p *syntax.Path, active nfa.StateSet) (nfa.StateSet, error) {
	if err := canceled(m.ctx); err != nil {
		return nfa.StateSet{}, err
	}
	n := p.Node
	switch n.Kind {
	case syntax.List:
		return m.list(p, n, active)
	case syntax.Boundary:
		return m.a.Transition(m.a.Transition(active, labelSymbol(n.Kind, n.Label())), Up), nil
	}

	if name, ok := n.PlainName(); ok {
		m.names[name] = struct{}{}
	}
	wildcard := n.Wildcard != syntax.NotWildcard
	cont, afterWildcard := enter(m.a, active, n.Kind, n.Label(), wildcard)

	var bypass nfa.StateSet
	if q, ok := n.Qualified(); ok {
		bypass = m.a.Transition(active, Input{Kind: syntax.Selector, Name: q})
	}

	if wildcard {
		syntax.Names(n, m.names)
	} else {
		var err error
		for _, child := range n.Children {
			if child.Kind == syntax.List {
				cont, err = m.list(p, child, cont)
			} else {
				cont, err = m.visit(p.Push(child), cont)
			}
			if err != nil {
				return nfa.StateSet{}, err
			}
		}
	}

	active = exit(m.a, cont, afterWildcard, bypass)
	for _, r := range results(m.a, active) {
		if err := m.found(r, p); err != nil {
			return nfa.StateSet{}, err
		}
	}
	return active, nil
}

// list brackets the elements of l with the boundary symbols. Elements are
// reported under the list's parent path.
func (m *liveMatch) list(parent *syntax.Path, l *syntax.Node, active nfa.StateSet) (nfa.StateSet, error) {
	active = m.a.Transition(m.a.Transition(active, openList), Up)
	for _, elem := range l.Children {
		var err error
		if active, err = m.visit(parent.Push(elem), active); err != nil {
			return nfa.StateSet{}, err
		}
	}
	return m.a.Transition(m.a.Transition(active, closeList), Up), nil
}
