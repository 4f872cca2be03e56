package scopes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"descgraph/internal/descriptors"
	"descgraph/internal/diag"
	"descgraph/internal/source"
	"descgraph/internal/types"
)

type fixture struct {
	g   *descriptors.Graph
	bag *diag.Bag
}

func newFixture() *fixture {
	bag := diag.NewBag(100)
	return &fixture{g: descriptors.NewGraph(descriptors.Config{Reporter: diag.BagReporter{Bag: bag}}), bag: bag}
}

// class declares a class whose member scope is a Class over a fresh
// Declared scope. typeParams names invariant type parameters.
func (f *fixture) class(name string, kind descriptors.ClassKind, modality descriptors.Modality, typeParams []string, supers ...*types.Type) (*descriptors.Decl, *Declared) {
	c := descriptors.NewClass(f.g, f.g.Module(), name, descriptors.ClassSpec{Kind: kind, Modality: modality, Visibility: descriptors.Public})
	var tps []*descriptors.Decl
	for i, n := range typeParams {
		tp := descriptors.NewTypeParameter(f.g, c, n, i, types.Invariant, false, source.Span{})
		tp.MarkInitialized()
		tps = append(tps, tp)
	}
	declared := NewDeclared()
	descriptors.InitializeClass(c, descriptors.ClassInit{
		TypeParameters: tps,
		Supertypes:     func() []*types.Type { return supers },
		MemberScope:    NewClass(f.g, c, declared),
	})
	return c, declared
}

func (f *fixture) fun(owner *descriptors.Decl, name string, modality descriptors.Modality, vis descriptors.Visibility, ret *types.Type, params ...*types.Type) *descriptors.Decl {
	fn := descriptors.NewFunction(f.g, owner, name, descriptors.Declaration, source.Span{})
	var vps []*descriptors.Decl
	for i, t := range params {
		vps = append(vps, descriptors.NewValueParameter(f.g, fn, descriptors.ValueParamInit{Index: i, Name: "p", Type: t}))
	}
	descriptors.InitializeFunction(fn, descriptors.FunctionInit{
		DispatchReceiver: owner.ThisReceiver(),
		ValueParameters:  vps,
		ReturnType:       ret,
		Modality:         modality,
		Visibility:       vis,
	})
	return fn
}

func (f *fixture) val(owner *descriptors.Decl, name string, t *types.Type) *descriptors.Decl {
	p := descriptors.NewProperty(f.g, owner, name, descriptors.Declaration, source.Span{}, 0)
	getter := descriptors.NewGetter(f.g, p, descriptors.AccessorSpec{Default: true, Visibility: descriptors.Public})
	descriptors.InitializeProperty(p, descriptors.PropertyInit{
		Type:             t,
		DispatchReceiver: owner.ThisReceiver(),
		Modality:         descriptors.Final,
		Visibility:       descriptors.Public,
		Getter:           getter,
	})
	descriptors.InitializeAccessor(getter, t)
	return p
}

func TestDeclared(t *testing.T) {
	t.Parallel()

	f := newFixture()
	b := f.g.Builtins()
	c, declared := f.class("A", descriptors.ClassKindClass, descriptors.Final, nil)
	f1 := f.fun(c, "f", descriptors.Final, descriptors.Public, b.Unit)
	f2 := f.fun(c, "f", descriptors.Final, descriptors.Public, b.Unit, b.Int)
	p := f.val(c, "p", b.Int)
	declared.Add(f1)
	declared.Add(p)
	declared.Add(f2)

	assert.Equal(t, []*descriptors.Decl{f1, f2}, declared.ContributedFunctions(f.g.Intern("f")))
	assert.Equal(t, []*descriptors.Decl{p}, declared.ContributedVariables(f.g.Intern("p")))
	assert.Nil(t, declared.ContributedClassifier(f.g.Intern("f")))
	assert.Equal(t, []*descriptors.Decl{f1, p, f2}, declared.ContributedDescriptors())
	assert.Equal(t, []source.StringID{f.g.Intern("f")}, declared.FunctionNames())

	assert.Panics(t, func() { declared.Add(f2.ValueParameters()[0]) })
}

func TestInheritedMembers(t *testing.T) {
	t.Parallel()

	f := newFixture()
	b := f.g.Builtins()
	base, baseDecl := f.class("Base", descriptors.ClassKindClass, descriptors.Open, nil)
	baseF := f.fun(base, "f", descriptors.Open, descriptors.Public, b.Any, b.Int)
	baseP := f.val(base, "p", b.String)
	baseG := f.fun(base, "g", descriptors.Final, descriptors.Private, b.Unit)
	baseDecl.Add(baseF)
	baseDecl.Add(baseP)
	baseDecl.Add(baseG)

	derived, derivedDecl := f.class("Derived", descriptors.ClassKindClass, descriptors.Final, nil, base.DefaultType())
	derivedF := f.fun(derived, "f", descriptors.Open, descriptors.Inherited, b.String, b.Int)
	derivedDecl.Add(derivedF)

	scope := derived.UnsubstitutedMemberScope()
	fs := scope.ContributedFunctions(f.g.Intern("f"))
	require.Len(t, fs, 1)
	assert.Same(t, derivedF, fs[0])
	assert.Equal(t, []*descriptors.Decl{baseF}, derivedF.OverriddenDescriptors())
	assert.Equal(t, descriptors.Public, derivedF.Visibility())

	ps := scope.ContributedVariables(f.g.Intern("p"))
	require.Len(t, ps, 1)
	fake := ps[0]
	assert.Equal(t, descriptors.FakeOverride, fake.Callable().Kind())
	assert.Same(t, derived, fake.Owner())
	assert.Equal(t, []*descriptors.Decl{baseP}, fake.OverriddenDescriptors())
	assert.Equal(t, descriptors.Public, fake.Visibility())

	gs := scope.ContributedFunctions(f.g.Intern("g"))
	require.Len(t, gs, 1)
	assert.Equal(t, descriptors.InvisibleFake, gs[0].Visibility())

	assert.Len(t, scope.(*Class).FakeOverrides(), 2)
	assert.Equal(t, 0, f.bag.Len())

	// lookups are memoized
	assert.Same(t, fake, scope.ContributedVariables(f.g.Intern("p"))[0])
}

func TestInheritedMembersAreSubstituted(t *testing.T) {
	t.Parallel()

	f := newFixture()
	b := f.g.Builtins()
	box, boxDecl := f.class("Box", descriptors.ClassKindClass, descriptors.Open, []string{"T"})
	tt := box.TypeParameters()[0].DefaultType()
	boxDecl.Add(f.fun(box, "get", descriptors.Open, descriptors.Public, tt))

	intBox := types.New(box.Class().TypeConstructor(), []types.Projection{types.Invariantly(b.Int)}, false)
	ib, _ := f.class("IntBox", descriptors.ClassKindClass, descriptors.Final, nil, intBox)

	gets := ib.UnsubstitutedMemberScope().ContributedFunctions(f.g.Intern("get"))
	require.Len(t, gets, 1)
	assert.True(t, f.g.Checker().Equal(b.Int, gets[0].ReturnType()))
	assert.Equal(t, descriptors.FakeOverride, gets[0].Callable().Kind())
}

func TestConflictIsReported(t *testing.T) {
	t.Parallel()

	f := newFixture()
	b := f.g.Builtins()
	base, baseDecl := f.class("Base", descriptors.ClassKindClass, descriptors.Open, nil)
	baseDecl.Add(f.fun(base, "k", descriptors.Open, descriptors.Public, b.Unit, b.Int))

	derived, derivedDecl := f.class("Derived", descriptors.ClassKindClass, descriptors.Final, nil, base.DefaultType())
	k := descriptors.NewFunction(f.g, derived, "k", descriptors.Declaration, source.Span{})
	tp := descriptors.NewTypeParameter(f.g, k, "T", 0, types.Invariant, false, source.Span{})
	tp.MarkInitialized()
	descriptors.InitializeFunction(k, descriptors.FunctionInit{
		DispatchReceiver: derived.ThisReceiver(),
		TypeParameters:   []*descriptors.Decl{tp},
		ValueParameters:  []*descriptors.Decl{descriptors.NewValueParameter(f.g, k, descriptors.ValueParamInit{Name: "p", Type: b.Int})},
		ReturnType:       b.Unit,
		Visibility:       descriptors.Public,
	})
	derivedDecl.Add(k)

	// the conflicting inherited member is bound, so no fake override is made
	ks := derived.UnsubstitutedMemberScope().ContributedFunctions(f.g.Intern("k"))
	require.Len(t, ks, 1)
	assert.Same(t, k, ks[0])
	assert.Equal(t, 1, f.bag.Count(diag.SemaOverrideConflict))
}

func TestCannotInferVisibilityIsReported(t *testing.T) {
	t.Parallel()

	f := newFixture()
	b := f.g.Builtins()
	i1, d1 := f.class("I1", descriptors.ClassKindInterface, descriptors.Abstract, nil)
	d1.Add(f.fun(i1, "h", descriptors.Open, descriptors.Protected, b.Unit))
	i2, d2 := f.class("I2", descriptors.ClassKindInterface, descriptors.Abstract, nil)
	d2.Add(f.fun(i2, "h", descriptors.Open, descriptors.Internal, b.Unit))

	c, _ := f.class("C", descriptors.ClassKindClass, descriptors.Final, nil, i1.DefaultType(), i2.DefaultType())
	hs := c.UnsubstitutedMemberScope().ContributedFunctions(f.g.Intern("h"))
	require.Len(t, hs, 1)
	assert.Equal(t, descriptors.Public, hs[0].Visibility())
	assert.Equal(t, 1, f.bag.Count(diag.SemaCannotInferVisibility))
}

func TestNamesIncludeSupertypes(t *testing.T) {
	t.Parallel()

	f := newFixture()
	b := f.g.Builtins()
	base, baseDecl := f.class("Base", descriptors.ClassKindClass, descriptors.Open, nil)
	baseDecl.Add(f.fun(base, "a", descriptors.Open, descriptors.Public, b.Unit))
	derived, derivedDecl := f.class("Derived", descriptors.ClassKindClass, descriptors.Final, nil, base.DefaultType())
	derivedDecl.Add(f.fun(derived, "b", descriptors.Final, descriptors.Public, b.Unit))
	derivedDecl.Add(f.fun(derived, "a", descriptors.Final, descriptors.Inherited, b.Unit))

	scope := derived.UnsubstitutedMemberScope()
	assert.Equal(t, []source.StringID{f.g.Intern("a"), f.g.Intern("b")}, scope.FunctionNames())
	assert.Len(t, scope.ContributedDescriptors(), 2)
}
