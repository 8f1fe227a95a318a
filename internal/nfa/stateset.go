package nfa

import (
	"math/bits"
	"strconv"
	"strings"
)

// StateSet is an immutable set of automaton states backed by a bit vector.
// Union never mutates its operands; it returns one of them unchanged when
// the other adds nothing, so the common case does not allocate.
type StateSet struct {
	words []uint64
}

// Of returns the set holding the given states.
func Of(states ...int) StateSet {
	var words []uint64
	for _, s := range states {
		w := s / 64
		if w >= len(words) {
			grown := make([]uint64, w+1)
			copy(grown, words)
			words = grown
		}
		words[w] |= 1 << (uint(s) % 64)
	}
	return StateSet{words: words}
}

// Has reports whether s is in the set.
func (set StateSet) Has(s int) bool {
	w := s / 64
	return s >= 0 && w < len(set.words) && set.words[w]&(1<<(uint(s)%64)) != 0
}

// Len returns the number of states in the set.
func (set StateSet) Len() int {
	n := 0
	for _, w := range set.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// IsEmpty reports whether the set holds no state.
func (set StateSet) IsEmpty() bool {
	for _, w := range set.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Each calls fn for every state in ascending order.
func (set StateSet) Each(fn func(state int)) {
	for i, w := range set.words {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			fn(i*64 + tz)
			w &= w - 1
		}
	}
}

// subsetOf reports whether every state of set is also in other.
func (set StateSet) subsetOf(other StateSet) bool {
	for i, w := range set.words {
		var o uint64
		if i < len(other.words) {
			o = other.words[i]
		}
		if w&^o != 0 {
			return false
		}
	}
	return true
}

// Union returns set ∪ other.
func (set StateSet) Union(other StateSet) StateSet {
	if other.subsetOf(set) {
		return set
	}
	if set.subsetOf(other) {
		return other
	}
	long, short := set.words, other.words
	if len(short) > len(long) {
		long, short = short, long
	}
	words := make([]uint64, len(long))
	copy(words, long)
	for i, w := range short {
		words[i] |= w
	}
	return StateSet{words: words}
}

// Equal reports whether both sets hold the same states.
func (set StateSet) Equal(other StateSet) bool {
	return set.subsetOf(other) && other.subsetOf(set)
}

// Join is the union of two configurations.
func Join(a, b StateSet) StateSet {
	return a.Union(b)
}

func (set StateSet) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	set.Each(func(s int) {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		sb.WriteString(strconv.Itoa(s))
	})
	sb.WriteByte('}')
	return sb.String()
}
