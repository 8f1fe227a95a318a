// Package prefilter rejects source files that cannot match any pattern
// before they are parsed, by looking for the names each pattern requires.
//
// The check is a plain substring search over the raw source, so it may keep
// files that do not really contain a name as an identifier. It never drops a
// file that does.
package prefilter

import (
	"bytes"
	"fmt"

	"github.com/coregx/ahocorasick"
)

// Filter holds one Aho-Corasick automaton over the required names of every
// pattern. It is safe for concurrent use.
type Filter struct {
	ac    *ahocorasick.Automaton
	words [][]byte
	// byFirst indexes words by their first byte. Every word starting at a
	// reported match start is checked, not only the one reported.
	byFirst map[byte][]int
	// needs[i] lists the word indices pattern i requires.
	needs [][]int
}

// New builds a filter from the required names of each pattern, in pattern
// order. A pattern requiring nothing always passes.
func New(required [][]string) (*Filter, error) {
	f := &Filter{
		byFirst: make(map[byte][]int),
		needs:   make([][]int, len(required)),
	}
	index := make(map[string]int)
	for i, names := range required {
		for _, name := range names {
			if name == "" {
				continue
			}
			w, ok := index[name]
			if !ok {
				w = len(f.words)
				index[name] = w
				f.words = append(f.words, []byte(name))
				f.byFirst[name[0]] = append(f.byFirst[name[0]], w)
			}
			f.needs[i] = append(f.needs[i], w)
		}
	}
	if len(f.words) == 0 {
		return f, nil
	}

	builder := ahocorasick.NewBuilder()
	for _, w := range f.words {
		builder.AddPattern(w)
	}
	ac, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build name automaton: %w", err)
	}
	f.ac = ac
	return f, nil
}

// Len returns the number of patterns the filter was built for.
func (f *Filter) Len() int {
	return len(f.needs)
}

// present returns, per word, whether it occurs in src.
func (f *Filter) present(src []byte) []bool {
	seen := make([]bool, len(f.words))
	if f.ac == nil {
		return seen
	}
	for at := 0; at < len(src); {
		m := f.ac.Find(src, at)
		if m == nil {
			break
		}
		for _, w := range f.byFirst[src[m.Start]] {
			if !seen[w] && bytes.HasPrefix(src[m.Start:], f.words[w]) {
				seen[w] = true
			}
		}
		at = m.Start + 1
	}
	return seen
}

// Candidates returns the indices of the patterns whose required names all
// occur in src.
func (f *Filter) Candidates(src []byte) []int {
	seen := f.present(src)
	var out []int
	for i, needs := range f.needs {
		if all(seen, needs) {
			out = append(out, i)
		}
	}
	return out
}

// Any reports whether at least one pattern may match src.
func (f *Filter) Any(src []byte) bool {
	seen := f.present(src)
	for _, needs := range f.needs {
		if all(seen, needs) {
			return true
		}
	}
	return false
}

func all(seen []bool, needs []int) bool {
	for _, w := range needs {
		if !seen[w] {
			return false
		}
	}
	return true
}
