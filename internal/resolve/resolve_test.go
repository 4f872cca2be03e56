package resolve

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"descgraph/internal/descriptors"
	"descgraph/internal/diag"
	"descgraph/internal/shape"
	"descgraph/internal/types"
)

type fixture struct {
	g   *descriptors.Graph
	bag *diag.Bag
	r   *Resolver
	res *Result
}

func load(t *testing.T, names ...string) *fixture {
	t.Helper()
	var files []*shape.File
	for _, n := range names {
		f, err := shape.Load(filepath.Join("testdata", n))
		require.NoError(t, err)
		files = append(files, f)
	}
	bag := diag.NewBag(100)
	g := descriptors.NewGraph(descriptors.Config{Reporter: diag.BagReporter{Bag: bag}})
	r := New(g, Options{})
	return &fixture{g: g, bag: bag, r: r, res: r.Resolve(files)}
}

func (f *fixture) class(t *testing.T, name string) *descriptors.Decl {
	t.Helper()
	c := f.r.Lookup(name)
	require.NotNil(t, c, name)
	return c
}

func (f *fixture) functions(scope descriptors.MemberScope, name string) []*descriptors.Decl {
	return scope.ContributedFunctions(f.g.Intern(name))
}

func TestEnumEntryScope(t *testing.T) {
	t.Parallel()

	f := load(t, "enum.yaml")
	enum := f.class(t, "demo.E")
	foo := f.functions(enum.UnsubstitutedMemberScope(), "foo")
	require.Len(t, foo, 1)

	a := enum.StaticScope().ContributedClassifier(f.g.Intern("A"))
	require.NotNil(t, a)
	assert.Equal(t, descriptors.ClassKindEnumEntry, a.Class().ClassKind())
	assert.Same(t, enum, a.Owner())

	fakes := f.functions(a.UnsubstitutedMemberScope(), "foo")
	require.Len(t, fakes, 1)
	assert.Equal(t, descriptors.FakeOverride, fakes[0].Callable().Kind())
	assert.Equal(t, []*descriptors.Decl{foo[0]}, fakes[0].OverriddenDescriptors())
	assert.Same(t, a, fakes[0].Owner())

	ctor := a.PrimaryConstructor()
	require.NotNil(t, ctor)
	assert.Empty(t, ctor.ValueParameters())
	assert.True(t, f.g.Checker().Equal(a.DefaultType(), ctor.ReturnType()))
	assert.Equal(t, []*types.Type{enum.DefaultType()}, a.Supertypes())

	assert.Equal(t, 0, f.bag.Len())
}

func TestEnumSynthesizedFunctions(t *testing.T) {
	t.Parallel()

	f := load(t, "enum.yaml")
	enum := f.class(t, "demo.E")
	b := f.g.Builtins()

	values := f.functions(enum.StaticScope(), "values")
	require.Len(t, values, 1)
	assert.Equal(t, descriptors.Synthesized, values[0].Callable().Kind())
	assert.True(t, f.g.Checker().Equal(b.ArrayOf(enum.DefaultType()), values[0].ReturnType()))
	assert.Nil(t, values[0].DispatchReceiver())

	valueOf := f.functions(enum.StaticScope(), "valueOf")
	require.Len(t, valueOf, 1)
	require.Len(t, valueOf[0].ValueParameters(), 1)
	assert.True(t, f.g.Checker().Equal(b.String, valueOf[0].ValueParameters()[0].Type()))

	assert.Panics(t, func() { NewEnumEntry(f.g, f.g.Module(), "X", valueOf[0].Source(), nil) })
}

func TestGenericSubstitution(t *testing.T) {
	t.Parallel()

	f := load(t, "box.yaml")
	b := f.g.Builtins()
	box := f.class(t, "demo.Box")

	params := box.Class().TypeConstructor().Parameters()
	args := []types.Projection{types.Invariantly(b.Int)}
	sub, ok := descriptors.Substitute(box, f.g.Substitutor(types.NewSubstitution(params, args)))
	require.True(t, ok)
	require.NotSame(t, box, sub)
	assert.Same(t, box, sub.Original())
	require.Len(t, sub.DefaultType().Arguments(), 1)
	assert.True(t, f.g.Checker().Equal(b.Int, sub.DefaultType().Arguments()[0].Type))

	get := f.functions(sub.UnsubstitutedMemberScope(), "get")
	require.Len(t, get, 1)
	assert.True(t, f.g.Checker().Equal(b.Int, get[0].ReturnType()))

	// the same through the subclass
	intBox := f.class(t, "demo.IntBox")
	inherited := f.functions(intBox.UnsubstitutedMemberScope(), "get")
	require.Len(t, inherited, 1)
	assert.Equal(t, descriptors.FakeOverride, inherited[0].Callable().Kind())
	assert.True(t, f.g.Checker().Equal(b.Int, inherited[0].ReturnType()))

	values := intBox.UnsubstitutedMemberScope().ContributedVariables(f.g.Intern("value"))
	require.Len(t, values, 1)
	setter := values[0].Callable().Setter()
	require.NotNil(t, setter)
	assert.True(t, f.g.Checker().Equal(b.Int, setter.ValueParameters()[0].Type()))

	assert.Equal(t, 0, f.bag.Len())
}

func TestProjectedMemberScopes(t *testing.T) {
	t.Parallel()

	f := load(t, "box.yaml")
	b := f.g.Builtins()
	box := f.class(t, "demo.Box")

	for _, arg := range []types.Projection{types.StarProjection(), types.Projected(types.Out, b.Int)} {
		scope := box.MemberScope([]types.Projection{arg})
		assert.Empty(t, scope.ContributedFunctions(f.g.Intern("put")), "%s", arg)
		require.Len(t, scope.ContributedFunctions(f.g.Intern("get")), 1, "%s", arg)

		values := scope.ContributedVariables(f.g.Intern("value"))
		require.Len(t, values, 1, "%s", arg)
		assert.True(t, values[0].Callable().Flags().Has(descriptors.FlagUnusableDueToProjection), "%s", arg)
		setter := values[0].Callable().Setter()
		require.Len(t, setter.ValueParameters(), 1)
		assert.True(t, types.IsNothing(setter.ValueParameters()[0].Type()), "%s", arg)
	}

	star := box.MemberScope([]types.Projection{types.StarProjection()})
	get := f.functions(star, "get")
	assert.True(t, types.IsNullableAny(get[0].ReturnType()))
	assert.Equal(t, 2, f.bag.Count(diag.SemaSetterProjectedOut))
}

func TestOverrideScenario(t *testing.T) {
	t.Parallel()

	f := load(t, "override.yaml")
	base := f.class(t, "demo.Base")
	derived := f.class(t, "demo.Derived")
	scope := derived.UnsubstitutedMemberScope()

	baseFoo := f.functions(base.UnsubstitutedMemberScope(), "foo")
	foo := f.functions(scope, "foo")
	require.Len(t, foo, 1)
	assert.Equal(t, descriptors.FakeOverride, foo[0].Callable().Kind())
	assert.Equal(t, baseFoo, foo[0].OverriddenDescriptors())
	assert.Equal(t, descriptors.Final, foo[0].Modality())
	assert.Equal(t, descriptors.Public, foo[0].Visibility())

	baseBar := f.functions(base.UnsubstitutedMemberScope(), "bar")
	bar := f.functions(scope, "bar")
	require.Len(t, bar, 1)
	assert.Equal(t, descriptors.Declaration, bar[0].Callable().Kind())
	assert.Equal(t, baseBar, bar[0].OverriddenDescriptors())
	assert.Equal(t, descriptors.Public, bar[0].Visibility())

	assert.Equal(t, 0, f.bag.Len())
}

func TestNamesMatchContributedMembers(t *testing.T) {
	t.Parallel()

	f := load(t, "box.yaml", "override.yaml", "enum.yaml")
	for _, c := range f.res.Classes {
		scope := c.UnsubstitutedMemberScope()
		for _, n := range scope.FunctionNames() {
			assert.NotEmpty(t, scope.ContributedFunctions(n), "%s.%s", c.QualifiedName(), f.g.NameOf(n))
		}
		for _, n := range scope.VariableNames() {
			assert.NotEmpty(t, scope.ContributedVariables(n), "%s.%s", c.QualifiedName(), f.g.NameOf(n))
		}
	}
}

func TestForwardReferences(t *testing.T) {
	t.Parallel()

	f := load(t, "forward.yaml")
	a := f.class(t, "demo.A")
	b := f.class(t, "demo.B")

	pa := a.PrimaryConstructor().ValueParameters()
	require.Len(t, pa, 1)
	assert.Same(t, b, descriptors.DeclOf(pa[0].Type().Constructor()))
	pb := b.PrimaryConstructor().ValueParameters()
	require.Len(t, pb, 1)
	assert.Same(t, a, descriptors.DeclOf(pb[0].Type().Constructor()))

	inner := f.class(t, "demo.B.Inner")
	assert.True(t, inner.Class().IsInner())
	outer := f.functions(inner.UnsubstitutedMemberScope(), "outer")
	require.Len(t, outer, 1)
	assert.Same(t, b, descriptors.DeclOf(outer[0].ReturnType().Constructor()))
	assert.Same(t, b.ThisReceiver(), inner.PrimaryConstructor().DispatchReceiver())

	node := f.class(t, "demo.B.Node")
	next := node.UnsubstitutedMemberScope().ContributedVariables(f.g.Intern("next"))
	require.Len(t, next, 1)
	assert.True(t, next[0].ReturnType().IsMarkedNullable())

	comp := b.Class().Companion()
	require.NotNil(t, comp)
	assert.Equal(t, descriptors.ClassKindObject, comp.Class().ClassKind())
	assert.Equal(t, "Companion", comp.NameString())
	assert.Len(t, f.functions(comp.UnsubstitutedMemberScope(), "create"), 1)

	assert.Equal(t, 0, f.bag.Len())
	assert.Equal(t, "demo.B.Inner", f.r.Suggest("demo.B.Iner"))
	assert.Empty(t, f.r.Suggest("zzzzzzzzzzzzzzzzzzzzzzzzzzzz"))
}

func TestReportedProblems(t *testing.T) {
	t.Parallel()

	f := load(t, "errors.yaml")

	// cycles are found when the supertypes are first read
	assert.Equal(t, 0, f.bag.Count(diag.SemaCyclicSupertype))
	a := f.class(t, "demo.A")
	require.Len(t, a.Supertypes(), 1)
	assert.True(t, a.Supertypes()[0].IsError())
	require.Len(t, f.class(t, "demo.B").Supertypes(), 1)
	assert.Equal(t, 2, f.bag.Count(diag.SemaCyclicSupertype))
	assert.NotPanics(t, func() { a.UnsubstitutedMemberScope().ContributedDescriptors() })

	c := f.class(t, "demo.C")
	assert.Len(t, c.Supertypes(), 1) // unresolved dropped, Any remains
	require.Equal(t, 1, f.bag.Count(diag.ResUnresolvedSupertype))
	for _, d := range f.bag.Items() {
		if d.Code == diag.ResUnresolvedSupertype {
			require.Len(t, d.Fixes, 1)
			assert.Equal(t, "Base", d.Fixes[0].Replacement)
		}
	}

	f.class(t, "demo.Num").Supertypes()
	f.class(t, "demo.Leaf").Supertypes()
	assert.Equal(t, 2, f.bag.Count(diag.SemaFinalSupertype))

	require.Len(t, f.res.Functions, 2)
	loop := f.res.Functions[0]
	for _, tp := range loop.TypeParameters() {
		tp.UpperBounds()
	}
	assert.Equal(t, 2, f.bag.Count(diag.SemaCyclicUpperBound))
	assert.Equal(t, 1, f.bag.Count(diag.ShapeDuplicateMember))
}

func TestArityAndUnknownTypes(t *testing.T) {
	t.Parallel()

	src := `
package: demo
classes:
  - name: Box
    typeParameters: [{name: T}]
functions:
  - name: f
    parameters:
      - {name: a, type: Box}
      - {name: b, type: "Box<Int, Int>"}
      - {name: c, type: Strng}
      - {name: d, type: "List<*>"}
`
	file, err := shape.Parse("", []byte(src))
	require.NoError(t, err)
	bag := diag.NewBag(100)
	g := descriptors.NewGraph(descriptors.Config{Reporter: diag.BagReporter{Bag: bag}})
	res := New(g, Options{}).Resolve([]*shape.File{file})

	require.Len(t, res.Functions, 1)
	ps := res.Functions[0].ValueParameters()
	require.Len(t, ps, 4)
	assert.True(t, ps[0].Type().IsError())
	assert.True(t, ps[1].Type().IsError())
	assert.True(t, ps[2].Type().IsError())
	assert.False(t, ps[3].Type().IsError())
	assert.True(t, ps[3].Type().Arguments()[0].Star)
	assert.Equal(t, 2, bag.Count(diag.ResTypeArgumentCount))
	assert.Equal(t, 1, bag.Count(diag.ResUnresolvedType))

	require.NotNil(t, res.Packages["demo"])
	assert.NotNil(t, res.Packages["demo"].ContributedClassifier(g.Intern("Box")))
}
