package types

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"descgraph/internal/fault"
)

// testParam is a free type parameter for tests.
type testParam struct {
	name     string
	variance Variance
	index    int
	bounds   []*Type
}

func (p *testParam) DebugName() string       { return p.name }
func (p *testParam) Parameters() []Parameter { return nil }
func (p *testParam) Supertypes() []*Type     { return p.bounds }
func (p *testParam) IsFinal() bool           { return false }
func (p *testParam) Variance() Variance      { return p.variance }
func (p *testParam) Index() int              { return p.index }

// testClass is a generic class constructor for tests.
type testClass struct {
	name   string
	params []Parameter
	supers []*Type
}

func (c *testClass) DebugName() string       { return c.name }
func (c *testClass) Parameters() []Parameter { return c.params }
func (c *testClass) Supertypes() []*Type     { return c.supers }
func (c *testClass) IsFinal() bool           { return false }

func TestRendering(t *testing.T) {
	t.Parallel()

	b := NewBuiltins()
	assert.Equal(t, "Int", b.Int.String())
	assert.Equal(t, "Any?", b.NullableAny.String())
	assert.Equal(t, "List<out String?>", New(b.List, []Projection{Projected(Out, b.String.MakeNullable(true))}, false).String())
	assert.Equal(t, "Array<*>", New(b.Array, []Projection{StarProjection()}, false).String())
	assert.Equal(t, "[error: cycle]", NewErrorType("cycle").String())
}

func TestMakeNullableKeepsPointer(t *testing.T) {
	t.Parallel()

	b := NewBuiltins()
	assert.Same(t, b.Int, b.Int.MakeNullable(false))
	assert.NotSame(t, b.Int, b.Int.MakeNullable(true))
	assert.True(t, b.Int.MakeNullable(true).IsMarkedNullable())
}

func TestEmptySubstitutionIsIdentity(t *testing.T) {
	t.Parallel()

	b := NewBuiltins()
	pool := []*Type{b.Int, b.NullableAny, b.ListOf(b.String), b.ArrayOf(b.ListOf(b.Int)), NewErrorType("x")}
	s := NewSubstitutor(Empty, b)

	properties := gopter.NewProperties(nil)
	properties.Property("substitute with empty returns the same pointer", prop.ForAll(
		func(i int, v uint8) bool {
			got, ok := s.Substitute(pool[i], Variance(v%3))
			return ok && got == pool[i]
		},
		gen.IntRange(0, len(pool)-1),
		gen.UInt8(),
	))
	properties.TestingRun(t)
}

func TestSubstituteReplacesParameter(t *testing.T) {
	t.Parallel()

	b := NewBuiltins()
	T := &testParam{name: "T"}
	box := &testClass{name: "Box", params: []Parameter{T}}
	boxOfT := New(box, []Projection{Invariantly(New(T, nil, false))}, false)

	s := NewSubstitutor(NewSubstitution(box.params, []Projection{Invariantly(b.Int)}), b)

	got, ok := s.Substitute(New(T, nil, false), Out)
	require.True(t, ok)
	assert.Same(t, b.Int, got)

	got, ok = s.Substitute(New(T, nil, true), Out)
	require.True(t, ok)
	assert.Equal(t, "Int?", got.String())

	got, ok = s.Substitute(boxOfT, Invariant)
	require.True(t, ok)
	assert.Equal(t, "Box<Int>", got.String())

	unrelated := b.ListOf(b.String)
	got, ok = s.Substitute(unrelated, Invariant)
	require.True(t, ok)
	assert.Same(t, unrelated, got)
}

func TestSubstituteVarianceConflicts(t *testing.T) {
	t.Parallel()

	b := NewBuiltins()
	T := &testParam{name: "T"}

	outInt := NewSubstitutor(MapSubstitution{T: Projected(Out, b.Int)}, b)
	_, ok := outInt.Substitute(New(T, nil, false), In)
	assert.False(t, ok, "out-projection in in-position is projected out")

	got, ok := outInt.Substitute(New(T, nil, false), Out)
	require.True(t, ok)
	assert.Same(t, b.Int, got)

	inInt := NewSubstitutor(MapSubstitution{T: Projected(In, b.Int)}, b)
	got, ok = inInt.Substitute(New(T, nil, false), Out)
	require.True(t, ok)
	assert.True(t, IsNullableAny(got), "in-projection in out-position widens to Any?")

	// nested conflict becomes a star projection
	comparable := New(b.Comparable, []Projection{Invariantly(New(T, nil, false))}, false)
	got, ok = outInt.Substitute(comparable, Invariant)
	require.True(t, ok)
	assert.Equal(t, "Comparable<*>", got.String())

	// redundant projection on a covariant parameter is dropped
	list := b.ListOf(New(T, nil, false))
	got, ok = outInt.Substitute(list, Invariant)
	require.True(t, ok)
	assert.Equal(t, "List<Int>", got.String())
}

func TestSubstituteStarProjection(t *testing.T) {
	t.Parallel()

	b := NewBuiltins()
	T := &testParam{name: "T"}
	star := NewSubstitutor(MapSubstitution{T: StarProjection()}, b)

	_, ok := star.Substitute(New(T, nil, false), In)
	assert.False(t, ok, "star in in-position is projected out")

	got, ok := star.Substitute(New(T, nil, false), Out)
	require.True(t, ok)
	assert.True(t, IsNullableAny(got))

	got, ok = star.Substitute(b.ListOf(New(T, nil, false)), Out)
	require.True(t, ok)
	assert.Equal(t, "List<*>", got.String())
}

func TestSubstituteDepthLimit(t *testing.T) {
	t.Parallel()

	b := NewBuiltins()
	T := &testParam{name: "T"}
	deep := New(T, nil, false)
	for i := 0; i <= maxSubstitutionDepth+1; i++ {
		deep = b.ArrayOf(deep)
	}
	s := NewSubstitutor(MapSubstitution{T: Invariantly(b.Int)}, b)
	err := fault.Catch(func() { s.Substitute(deep, Invariant) })
	assert.True(t, fault.IsInternal(err))
}

func TestChainFirstWins(t *testing.T) {
	t.Parallel()

	b := NewBuiltins()
	T := &testParam{name: "T"}
	U := &testParam{name: "U"}
	first := MapSubstitution{T: Invariantly(b.Int)}
	second := MapSubstitution{T: Invariantly(b.String), U: Invariantly(b.Char)}

	ch := Chain(first, second)
	p, ok := ch.Get(T)
	require.True(t, ok)
	assert.Same(t, b.Int, p.Type)
	p, ok = ch.Get(U)
	require.True(t, ok)
	assert.Same(t, b.Char, p.Type)

	assert.Equal(t, first, Chain(first, Empty))
	assert.True(t, Chain(Empty, nil).IsEmpty())
}

func TestCheckerEquality(t *testing.T) {
	t.Parallel()

	b := NewBuiltins()
	c := NewChecker(b)
	assert.True(t, c.Equal(b.ListOf(b.Int), b.ListOf(b.Int)))
	assert.False(t, c.Equal(b.ListOf(b.Int), b.ListOf(b.Long)))
	assert.False(t, c.Equal(b.Int, b.Int.MakeNullable(true)))
	assert.True(t, c.Equal(NewErrorType("a"), b.Int))

	strict := *c
	strict.ErrorsMatchAnything = false
	assert.False(t, strict.Equal(NewErrorType("a"), b.Int))

	T1 := &testParam{name: "T"}
	T2 := &testParam{name: "T"}
	assert.False(t, c.Equal(New(T1, nil, false), New(T2, nil, false)))
	withAxioms := c.WithAxioms(func(a, b Constructor) bool { return a == T1 && b == T2 })
	assert.True(t, withAxioms.Equal(b.ListOf(New(T1, nil, false)), b.ListOf(New(T2, nil, false))))
}

func TestCheckerSubtyping(t *testing.T) {
	t.Parallel()

	b := NewBuiltins()
	c := NewChecker(b)

	assert.True(t, c.IsSubtype(b.Nothing, b.Int))
	assert.True(t, c.IsSubtype(b.Int, b.NullableAny))
	assert.True(t, c.IsSubtype(b.Int, b.Int.MakeNullable(true)))
	assert.False(t, c.IsSubtype(b.Int.MakeNullable(true), b.Int))
	assert.False(t, c.IsSubtype(b.NullableNothing, b.Int))
	assert.False(t, c.IsSubtype(b.Int, b.String))

	comparableInt := New(b.Comparable, []Projection{Invariantly(b.Int)}, false)
	assert.True(t, c.IsSubtype(b.Int, comparableInt))

	mutable := New(b.MutableList, []Projection{Invariantly(b.Int)}, false)
	assert.True(t, c.IsSubtype(mutable, b.ListOf(b.Int)))
	assert.True(t, c.IsSubtype(b.ListOf(b.Int), b.ListOf(b.NullableAny)), "List is covariant")
	assert.False(t, c.IsSubtype(b.ArrayOf(b.Int), b.ArrayOf(b.NullableAny)), "Array is invariant")
	assert.True(t, c.IsSubtype(b.ArrayOf(b.Int), New(b.Array, []Projection{Projected(Out, b.NullableAny)}, false)))
	assert.True(t, c.IsSubtype(b.ArrayOf(b.Int), New(b.Array, []Projection{StarProjection()}, false)))

	T := &testParam{name: "T", bounds: []*Type{b.Int}}
	assert.True(t, c.IsSubtype(New(T, nil, false), b.Int))
}

func TestBuiltinsLookup(t *testing.T) {
	t.Parallel()

	b := NewBuiltins()
	ctor, ok := b.Lookup("String")
	require.True(t, ok)
	assert.Equal(t, BuiltinString, ctor.Kind)
	_, ok = b.Lookup("Strin")
	assert.False(t, ok)
	assert.Contains(t, b.Names(), "MutableList")
	assert.True(t, IsNothing(b.Nothing))
	assert.Equal(t, BuiltinKind(0), BuiltinKindOf(NewErrorType("x")))
}
