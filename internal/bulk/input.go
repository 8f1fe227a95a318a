// Package bulk compiles many structural patterns into one shared automaton
// and runs it over normalized syntax trees, either live or over their linear
// byte encoding.
//
// A compiled set is immutable. Every matching call allocates its own
// configuration, name set and stack, so one *Compiled can serve any number
// of goroutines at once. Cancellation is cooperative: each long loop polls
// its context and returns a nil result with ctx.Err() when it trips, which
// callers must not confuse with an empty result.
package bulk

import (
	"context"

	"github.com/gnolang/bulkgrep/internal/nfa"
	"github.com/gnolang/bulkgrep/internal/syntax"
)

// Input is one symbol of the automaton alphabet.
type Input struct {
	Kind syntax.Kind
	Name string
	Exit bool
}

var (
	// Up ascends out of the current subtree.
	Up = Input{Exit: true}
	// Any is the symbol every wildcard normalizes to.
	Any = Input{Kind: syntax.Ident, Name: syntax.WildcardName}

	openList  = Input{Kind: syntax.Boundary, Name: syntax.OpenList}
	closeList = Input{Kind: syntax.Boundary, Name: syntax.CloseList}
)

// Result identifies the pattern a terminal state belongs to.
type Result struct {
	Pattern string
	Index   int
}

type automaton = nfa.NFA[Input, Result]

// symbolOf normalizes n into its input symbol.
func symbolOf(n *syntax.Node) Input {
	if n.Wildcard != syntax.NotWildcard {
		return Any
	}
	return labelSymbol(n.Kind, n.Label())
}

func labelSymbol(kind syntax.Kind, label string) Input {
	if syntax.IsWildcardName(label) {
		label = syntax.WildcardName
	}
	return Input{Kind: kind, Name: label}
}

// kindWildcard is the symbol of a free variable constrained only by kind.
func kindWildcard(kind syntax.Kind) Input {
	return Input{Kind: kind, Name: syntax.WildcardName}
}

// hasConcreteName reports whether a node of this kind and label should also
// take the kind-constrained wildcard transition.
func hasConcreteName(kind syntax.Kind, label string) bool {
	return kind.NameBearing() && label != "" && !syntax.IsWildcardName(label)
}

// enter computes the configurations of a node on entry: cont follows the
// node's real symbol, afterWildcard treats the node as absorbed by a
// wildcard.
func enter(a *automaton, active nfa.StateSet, kind syntax.Kind, label string, wildcard bool) (cont, afterWildcard nfa.StateSet) {
	afterWildcard = a.Transition(active, Any)
	if wildcard {
		return afterWildcard, afterWildcard
	}
	cont = a.Transition(active, labelSymbol(kind, label))
	if hasConcreteName(kind, label) {
		cont = nfa.Join(cont, a.Transition(active, kindWildcard(kind)))
	}
	return cont, afterWildcard
}

// exit joins the exit transitions of every live continuation of a node.
func exit(a *automaton, cont nfa.StateSet, alts ...nfa.StateSet) nfa.StateSet {
	active := a.Transition(cont, Up)
	for _, alt := range alts {
		active = nfa.Join(active, a.Transition(alt, Up))
	}
	return active
}

func canceled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
