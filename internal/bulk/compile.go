package bulk

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gnolang/bulkgrep/internal/nfa"
	"github.com/gnolang/bulkgrep/internal/syntax"
)

var ErrNilPattern = errors.New("pattern has no tree")

// Pattern is a pattern's source text with its parsed tree.
type Pattern struct {
	Text string
	Tree *syntax.Node
}

type patternInfo struct {
	text     string
	required map[string]struct{}
	content  []string
}

// Compiled is a set of patterns compiled into one automaton. It is
// immutable and safe for concurrent use.
type Compiled struct {
	nfa      *automaton
	patterns []patternInfo
}

// Len returns the number of compiled patterns.
func (c *Compiled) Len() int { return len(c.patterns) }

// States returns the number of automaton states.
func (c *Compiled) States() int { return c.nfa.Len() }

// Pattern returns the source text of pattern i.
func (c *Compiled) Pattern(i int) string { return c.patterns[i].text }

// RequiredNames returns, sorted, the names that must all occur in a tree for
// pattern i to match it.
func (c *Compiled) RequiredNames(i int) []string {
	names := make([]string, 0, len(c.patterns[i].required))
	for name := range c.patterns[i].required {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RequiredContent returns the ordered kind and name tokens met while
// compiling pattern i. It is advisory only.
func (c *Compiled) RequiredContent(i int) []string {
	return append([]string(nil), c.patterns[i].content...)
}

// passes reports whether pattern i survives the name filter against names.
func (c *Compiled) passes(i int, names map[string]struct{}) bool {
	for name := range c.patterns[i].required {
		if _, ok := names[name]; !ok {
			return false
		}
	}
	return true
}

// CompileSources parses each text with syntax.ParsePattern and compiles the
// resulting trees together.
func CompileSources(ctx context.Context, texts []string) (*Compiled, error) {
	patterns := make([]Pattern, len(texts))
	for i, text := range texts {
		tree, err := syntax.ParsePattern(text)
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		patterns[i] = Pattern{Text: text, Tree: tree}
	}
	return Compile(ctx, patterns)
}

// Compile builds one shared automaton for all patterns. Results are keyed by
// pattern text, so a pattern repeating an earlier text is skipped and the
// earlier tree wins. It returns a nil set and ctx.Err() if ctx is done
// before compilation ends.
func Compile(ctx context.Context, patterns []Pattern) (*Compiled, error) {
	c := &compiler{
		ctx: ctx,
		b:   nfa.NewBuilder[Input, Result](),
	}
	infos := make([]patternInfo, 0, len(patterns))
	seen := make(map[string]struct{}, len(patterns))
	for i, p := range patterns {
		if p.Tree == nil {
			return nil, fmt.Errorf("pattern %d (%q): %w", i, p.Text, ErrNilPattern)
		}
		if _, dup := seen[p.Text]; dup {
			continue
		}
		seen[p.Text] = struct{}{}
		c.required = make(map[string]struct{})
		c.content = nil

		end, err := c.node(p.Tree, nfa.Start, -1)
		if err != nil {
			return nil, err
		}
		c.b.Final(end, Result{Pattern: p.Text, Index: len(infos)})
		infos = append(infos, patternInfo{text: p.Text, required: c.required, content: c.content})
	}
	return &Compiled{nfa: c.b.Build(), patterns: infos}, nil
}

type compiler struct {
	ctx context.Context
	b   *nfa.Builder[Input, Result]

	// per pattern
	required map[string]struct{}
	content  []string
	// muted > 0 while compiling a bypass path, whose content was
	// already recorded.
	muted int
}

// target returns to, or a fresh state when to is negative.
func (c *compiler) target(to int) int {
	if to >= 0 {
		return to
	}
	return c.b.NewState()
}

func (c *compiler) emit(token string) {
	if c.muted == 0 {
		c.content = append(c.content, token)
	}
}

// node compiles n starting at state from and returns the state reached
// after n's exit. When to is not negative the exit lands on it, which lets
// parallel paths converge.
func (c *compiler) node(n *syntax.Node, from, to int) (int, error) {
	if err := canceled(c.ctx); err != nil {
		return 0, err
	}

	switch {
	case n.Kind == syntax.List:
		return c.list(n, from)

	case n.Kind == syntax.Boundary:
		mid := c.b.NewState()
		c.b.Add(from, labelSymbol(n.Kind, n.Label()), mid)
		end := c.target(to)
		c.b.Add(mid, Up, end)
		return end, nil

	case n.Wildcard == syntax.Multi && to < 0 && from != nfa.Start:
		// zero or more: absorb one node and come back
		mid := c.b.NewState()
		c.b.Add(from, Any, mid)
		c.b.Add(mid, Up, from)
		syntax.Names(n, c.required)
		c.emit("$$")
		return from, nil

	case n.Wildcard != syntax.NotWildcard:
		mid := c.b.NewState()
		c.b.Add(from, Any, mid)
		end := c.target(to)
		c.b.Add(mid, Up, end)
		syntax.Names(n, c.required)
		c.emit("$")
		return end, nil
	}

	sym := symbolOf(n)
	if name, ok := n.PlainName(); ok {
		c.required[name] = struct{}{}
	}
	if sym.Name != "" {
		c.emit(n.Kind.String() + ":" + sym.Name)
	} else {
		c.emit(n.Kind.String())
	}

	mid := c.b.NewState()
	c.b.Add(from, sym, mid)

	cur := mid
	for _, child := range n.Children {
		next, err := c.node(child, cur, -1)
		if err != nil {
			return 0, err
		}
		cur = next
	}
	end := c.target(to)
	c.b.Add(cur, Up, end)

	if q, ok := n.Qualified(); ok {
		qm := c.b.NewState()
		c.b.Add(from, Input{Kind: syntax.Selector, Name: q}, qm)
		c.b.Add(qm, Up, end)
	}

	if stmt := soleStatement(n); stmt != nil {
		c.muted++
		_, err := c.node(stmt, from, end)
		c.muted--
		if err != nil {
			return 0, err
		}
	}
	return end, nil
}

// list compiles the elements of a list between its boundaries.
func (c *compiler) list(n *syntax.Node, from int) (int, error) {
	open := c.b.NewState()
	c.b.Add(from, openList, open)
	cur := c.b.NewState()
	c.b.Add(open, Up, cur)

	for _, elem := range n.Children {
		next, err := c.node(elem, cur, -1)
		if err != nil {
			return 0, err
		}
		cur = next
	}

	closed := c.b.NewState()
	c.b.Add(cur, closeList, closed)
	end := c.b.NewState()
	c.b.Add(closed, Up, end)
	return end, nil
}

// soleStatement returns the only concrete statement of a block whose other
// statements are all multi wildcards, or nil.
func soleStatement(n *syntax.Node) *syntax.Node {
	if n.Kind != syntax.Block || len(n.Children) != 1 || n.Children[0].Kind != syntax.List {
		return nil
	}
	var sole *syntax.Node
	for _, stmt := range n.Children[0].Children {
		switch stmt.Wildcard {
		case syntax.Multi:
			continue
		case syntax.Single:
			return nil
		}
		if sole != nil {
			return nil
		}
		sole = stmt
	}
	return sole
}
