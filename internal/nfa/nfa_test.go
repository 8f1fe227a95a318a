package nfa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSet(t *testing.T) {
	t.Parallel()

	s := Of(1, 3, 130)
	assert.True(t, s.Has(1))
	assert.True(t, s.Has(130))
	assert.False(t, s.Has(2))
	assert.False(t, s.Has(-1))
	assert.False(t, s.Has(1000))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "{1 3 130}", s.String())

	var collected []int
	s.Each(func(state int) { collected = append(collected, state) })
	assert.Equal(t, []int{1, 3, 130}, collected)

	assert.True(t, StateSet{}.IsEmpty())
	assert.False(t, s.IsEmpty())
}

func TestStateSetUnionCopyOnWrite(t *testing.T) {
	t.Parallel()

	a := Of(1, 2)
	b := Of(2)
	c := Of(70)

	// b adds nothing: a is returned as is
	u := a.Union(b)
	assert.True(t, u.Equal(a))
	assert.Equal(t, &a.words[0], &u.words[0])

	// a is a superset: a is returned when called on b too
	u = b.Union(a)
	assert.Equal(t, &a.words[0], &u.words[0])

	u = a.Union(c)
	assert.Equal(t, "{1 2 70}", u.String())
	// operands untouched
	assert.Equal(t, "{1 2}", a.String())
	assert.Equal(t, "{70}", c.String())

	assert.True(t, Join(a, c).Equal(Of(70, 2, 1)))
}

type sym struct {
	name string
	exit bool
}

func TestTransitionReadmitsStart(t *testing.T) {
	t.Parallel()

	b := NewBuilder[sym, string]()
	s1 := b.NewState()
	s2 := b.NewState()
	b.Add(Start, sym{name: "a"}, s1)
	b.Add(s1, sym{name: "b"}, s2)
	b.Final(s2, "ab")
	a := b.Build()

	require.Equal(t, 3, a.Len())

	active := a.StartSet()
	active = a.Transition(active, sym{name: "a"})
	assert.Equal(t, "{0 1}", active.String())

	// no match: only the start state remains
	dead := a.Transition(active, sym{name: "z"})
	assert.Equal(t, "{0}", dead.String())

	active = a.Transition(active, sym{name: "b"})
	assert.Equal(t, "{0 2}", active.String())
	assert.Equal(t, []string{"ab"}, a.Results(active))

	r, ok := a.Terminal(s2)
	assert.True(t, ok)
	assert.Equal(t, "ab", r)
	_, ok = a.Terminal(s1)
	assert.False(t, ok)
}

func TestTransitionNondeterministic(t *testing.T) {
	t.Parallel()

	b := NewBuilder[sym, int]()
	x := b.NewState()
	y := b.NewState()
	b.Add(Start, sym{name: "a"}, x)
	b.Add(Start, sym{name: "a"}, y)
	b.Add(x, sym{exit: true}, x)
	b.Final(x, 1)
	b.Final(y, 2)
	a := b.Build()

	active := a.Transition(a.StartSet(), sym{name: "a"})
	assert.Equal(t, 3, active.Len())
	assert.Equal(t, []int{1, 2}, a.Results(active))

	// the self loop keeps x alive, y dies
	active = a.Transition(active, sym{exit: true})
	assert.Equal(t, []int{1}, a.Results(active))
}

func BenchmarkTransition(b *testing.B) {
	bld := NewBuilder[sym, int]()
	prev := Start
	for i := 0; i < 256; i++ {
		next := bld.NewState()
		bld.Add(prev, sym{name: "n"}, next)
		bld.Add(Start, sym{name: "n"}, next)
		prev = next
	}
	a := bld.Build()
	active := a.StartSet()
	for i := 0; i < 64; i++ {
		active = a.Transition(active, sym{name: "n"})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = a.Transition(active, sym{name: "n"})
	}
}
