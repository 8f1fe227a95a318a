// Package nfa implements a nondeterministic finite automaton over an
// arbitrary comparable input alphabet. Configurations are StateSet values.
//
// The automaton is unanchored: the start state is added back after every
// transition, so a new run may begin at any input position.
package nfa

import "sort"

// Start is the id of the start state.
const Start = 0

// NFA is an immutable automaton. It is safe for concurrent use.
type NFA[I comparable, R any] struct {
	// table[s][in] is the set of successors of s on in.
	table []map[I]StateSet
	final map[int]R
	start StateSet
}

// Transition returns the configuration reached from active on input in,
// with the start state always included.
func (a *NFA[I, R]) Transition(active StateSet, in I) StateSet {
	next := a.start
	active.Each(func(s int) {
		if s >= len(a.table) {
			return
		}
		if to, ok := a.table[s][in]; ok {
			next = next.Union(to)
		}
	})
	return next
}

// Results returns the results of every terminal state in active, in
// ascending state order.
func (a *NFA[I, R]) Results(active StateSet) []R {
	var out []R
	active.Each(func(s int) {
		if r, ok := a.final[s]; ok {
			out = append(out, r)
		}
	})
	return out
}

// StartSet returns the initial configuration.
func (a *NFA[I, R]) StartSet() StateSet {
	return a.start
}

// Len returns the number of states.
func (a *NFA[I, R]) Len() int {
	return len(a.table)
}

// Terminal returns the result attached to state s, if any.
func (a *NFA[I, R]) Terminal(s int) (R, bool) {
	r, ok := a.final[s]
	return r, ok
}

// Builder assembles an NFA. A Builder must not be used after Build.
type Builder[I comparable, R any] struct {
	edges []map[I][]int
	final map[int]R
}

// NewBuilder returns a builder holding only the start state.
func NewBuilder[I comparable, R any]() *Builder[I, R] {
	b := &Builder[I, R]{final: make(map[int]R)}
	b.NewState()
	return b
}

// NewState allocates a fresh state.
func (b *Builder[I, R]) NewState() int {
	b.edges = append(b.edges, nil)
	return len(b.edges) - 1
}

// Len returns the number of allocated states.
func (b *Builder[I, R]) Len() int {
	return len(b.edges)
}

// Add records a transition from -> to on in.
func (b *Builder[I, R]) Add(from int, in I, to int) {
	if b.edges[from] == nil {
		b.edges[from] = make(map[I][]int)
	}
	b.edges[from][in] = append(b.edges[from][in], to)
}

// Final marks s as terminal with result r.
func (b *Builder[I, R]) Final(s int, r R) {
	b.final[s] = r
}

// Build freezes the builder into an NFA.
func (b *Builder[I, R]) Build() *NFA[I, R] {
	table := make([]map[I]StateSet, len(b.edges))
	for s, edges := range b.edges {
		if len(edges) == 0 {
			continue
		}
		table[s] = make(map[I]StateSet, len(edges))
		for in, targets := range edges {
			sort.Ints(targets)
			table[s][in] = Of(targets...)
		}
	}
	return &NFA[I, R]{
		table: table,
		final: b.final,
		start: Of(Start),
	}
}
