package overriding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"descgraph/internal/descriptors"
	"descgraph/internal/source"
	"descgraph/internal/types"
)

type recordingSink struct {
	fakes     []*descriptors.Decl
	conflicts [][2]*descriptors.Decl
}

func (s *recordingSink) AddFakeOverride(fake *descriptors.Decl) { s.fakes = append(s.fakes, fake) }

func (s *recordingSink) Conflict(fromSuper, fromCurrent *descriptors.Decl) {
	s.conflicts = append(s.conflicts, [2]*descriptors.Decl{fromSuper, fromCurrent})
}

func newClass(g *descriptors.Graph, name string, kind descriptors.ClassKind, modality descriptors.Modality, supers ...*descriptors.Decl) *descriptors.Decl {
	c := descriptors.NewClass(g, g.Module(), name, descriptors.ClassSpec{Kind: kind, Modality: modality, Visibility: descriptors.Public})
	descriptors.InitializeClass(c, descriptors.ClassInit{Supertypes: func() []*types.Type {
		var out []*types.Type
		for _, s := range supers {
			out = append(out, s.DefaultType())
		}
		return out
	}})
	return c
}

type funSpec struct {
	name       string
	modality   descriptors.Modality
	visibility descriptors.Visibility
	ret        *types.Type
	params     []*types.Type
	typeParams int
	receiver   *types.Type
}

func newFun(g *descriptors.Graph, owner *descriptors.Decl, spec funSpec) *descriptors.Decl {
	fn := descriptors.NewFunction(g, owner, spec.name, descriptors.Declaration, source.Span{})
	var tps []*descriptors.Decl
	for i := range spec.typeParams {
		tp := descriptors.NewTypeParameter(g, fn, string(rune('T'+i)), i, types.Invariant, false, source.Span{})
		tp.MarkInitialized()
		tps = append(tps, tp)
	}
	var params []*descriptors.Decl
	for i, t := range spec.params {
		if t == nil {
			t = tps[0].DefaultType()
		}
		params = append(params, descriptors.NewValueParameter(g, fn, descriptors.ValueParamInit{Index: i, Name: string(rune('a' + i)), Type: t}))
	}
	ret := spec.ret
	if ret == nil {
		ret = g.Builtins().Unit
	}
	var this *descriptors.Decl
	if owner.Kind() == descriptors.KindClass {
		this = owner.ThisReceiver()
	}
	descriptors.InitializeFunction(fn, descriptors.FunctionInit{
		DispatchReceiver:  this,
		ExtensionReceiver: spec.receiver,
		TypeParameters:    tps,
		ValueParameters:   params,
		ReturnType:        ret,
		Modality:          spec.modality,
		Visibility:        spec.visibility,
	})
	return fn
}

func TestIsOverridableBy(t *testing.T) {
	t.Parallel()

	g := descriptors.NewGraph(descriptors.Config{})
	b := g.Builtins()
	mod := g.Module()
	base := newFun(g, mod, funSpec{name: "f", params: []*types.Type{b.Int}, ret: b.Any})

	cases := []struct {
		name string
		sub  funSpec
		want Result
	}{
		{"same signature", funSpec{name: "f", params: []*types.Type{b.Int}, ret: b.String}, Overridable},
		{"other name", funSpec{name: "g", params: []*types.Type{b.Int}}, Incompatible},
		{"receiver", funSpec{name: "f", params: []*types.Type{b.Int}, receiver: b.String}, Incompatible},
		{"parameter count", funSpec{name: "f"}, Incompatible},
		{"parameter type", funSpec{name: "f", params: []*types.Type{b.String}}, Incompatible},
		{"type parameter count with same parameters", funSpec{name: "f", params: []*types.Type{b.Int}, typeParams: 1}, Conflict},
		{"type parameter count with other parameters", funSpec{name: "f", params: []*types.Type{b.Long}, typeParams: 1}, Incompatible},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := newFun(g, mod, tc.sub)
			assert.Equal(t, tc.want, IsOverridableBy(base, sub).Result)
		})
	}

	prop := descriptors.NewProperty(g, mod, "f", descriptors.Declaration, source.Span{}, 0)
	descriptors.InitializeProperty(prop, descriptors.PropertyInit{Type: b.Int})
	assert.Equal(t, Incompatible, IsOverridableBy(base, prop).Result)
}

func TestGenericSignaturesMatchByPosition(t *testing.T) {
	t.Parallel()

	g := descriptors.NewGraph(descriptors.Config{})
	mod := g.Module()
	a := newFun(g, mod, funSpec{name: "id", typeParams: 1, params: []*types.Type{nil}})
	b := newFun(g, mod, funSpec{name: "id", typeParams: 1, params: []*types.Type{nil}})
	assert.Equal(t, Overridable, IsOverridableBy(a, b).Result)
}

func TestReturnTypeConflict(t *testing.T) {
	t.Parallel()

	g := descriptors.NewGraph(descriptors.Config{})
	b := g.Builtins()
	super := newFun(g, g.Module(), funSpec{name: "f", ret: b.String})
	sub := newFun(g, g.Module(), funSpec{name: "f", ret: b.Int})
	assert.Equal(t, Overridable, IsOverridableBy(super, sub).Result)
	info := IsOverridableByIncludingReturnType(super, sub)
	assert.Equal(t, Conflict, info.Result)
	assert.Equal(t, "return type mismatch", info.Message)
}

func TestFindMaxVisibility(t *testing.T) {
	t.Parallel()

	g := descriptors.NewGraph(descriptors.Config{})
	mk := func(v descriptors.Visibility) *descriptors.Decl {
		return newFun(g, g.Module(), funSpec{name: "f", visibility: v})
	}

	v, ok := FindMaxVisibility(nil)
	require.True(t, ok)
	assert.Equal(t, descriptors.Public, v)

	v, ok = FindMaxVisibility([]*descriptors.Decl{mk(descriptors.Private), mk(descriptors.Public), mk(descriptors.Internal)})
	require.True(t, ok)
	assert.Equal(t, descriptors.Public, v)

	_, ok = FindMaxVisibility([]*descriptors.Decl{mk(descriptors.Protected), mk(descriptors.Internal)})
	assert.False(t, ok)
}

func TestGenerateOverrides(t *testing.T) {
	t.Parallel()

	g := descriptors.NewGraph(descriptors.Config{})
	b := g.Builtins()
	base := newClass(g, "Base", descriptors.ClassKindClass, descriptors.Open)
	baseF := newFun(g, base, funSpec{name: "f", modality: descriptors.Open, ret: b.Any})
	baseG := newFun(g, base, funSpec{name: "g", modality: descriptors.Final, visibility: descriptors.Private})

	derived := newClass(g, "Derived", descriptors.ClassKindClass, descriptors.Final, base)
	derivedF := newFun(g, derived, funSpec{name: "f", modality: descriptors.Final, visibility: descriptors.Inherited, ret: b.Int})

	sink := &recordingSink{}
	GenerateOverridesInGroup([]*descriptors.Decl{baseF}, []*descriptors.Decl{derivedF}, derived, sink)
	assert.Empty(t, sink.fakes)
	assert.Equal(t, []*descriptors.Decl{baseF}, derivedF.OverriddenDescriptors())

	ResolveUnknownVisibility(derivedF, nil)
	assert.Equal(t, descriptors.Public, derivedF.Visibility())

	GenerateOverridesInGroup([]*descriptors.Decl{baseG}, nil, derived, sink)
	require.Len(t, sink.fakes, 1)
	fake := sink.fakes[0]
	assert.Equal(t, descriptors.InvisibleFake, fake.Visibility())
	assert.Equal(t, descriptors.FakeOverride, fake.Callable().Kind())
	assert.Same(t, derived, fake.Owner())
	assert.Equal(t, []*descriptors.Decl{baseG}, fake.OverriddenDescriptors())
	assert.Same(t, fake, fake.Original())
}

func TestFakeOverrideOfDiamond(t *testing.T) {
	t.Parallel()

	g := descriptors.NewGraph(descriptors.Config{})
	b := g.Builtins()
	ia := newClass(g, "A", descriptors.ClassKindInterface, descriptors.Abstract)
	ib := newClass(g, "B", descriptors.ClassKindInterface, descriptors.Abstract)
	aH := newFun(g, ia, funSpec{name: "h", modality: descriptors.Abstract, ret: b.Any})
	bH := newFun(g, ib, funSpec{name: "h", modality: descriptors.Open, ret: b.String})
	c := newClass(g, "C", descriptors.ClassKindClass, descriptors.Open, ia, ib)

	sink := &recordingSink{}
	GenerateOverridesInGroup([]*descriptors.Decl{aH, bH}, nil, c, sink)
	require.Len(t, sink.fakes, 1)
	fake := sink.fakes[0]
	assert.Same(t, b.String, fake.ReturnType(), "copied from the most specific member")
	assert.Equal(t, descriptors.Open, fake.Modality())
	assert.Equal(t, descriptors.Inherited, fake.Visibility())
	assert.ElementsMatch(t, []*descriptors.Decl{aH, bH}, fake.OverriddenDescriptors())

	var unresolved []*descriptors.Decl
	ResolveUnknownVisibility(fake, func(d *descriptors.Decl) { unresolved = append(unresolved, d) })
	assert.Empty(t, unresolved)
	assert.Equal(t, descriptors.Public, fake.Visibility())
}

func TestFakeOverrideVisibilityCannotBeInferred(t *testing.T) {
	t.Parallel()

	g := descriptors.NewGraph(descriptors.Config{})
	ia := newClass(g, "A", descriptors.ClassKindInterface, descriptors.Abstract)
	ib := newClass(g, "B", descriptors.ClassKindInterface, descriptors.Abstract)
	aH := newFun(g, ia, funSpec{name: "h", modality: descriptors.Open, visibility: descriptors.Protected})
	bH := newFun(g, ib, funSpec{name: "h", modality: descriptors.Open, visibility: descriptors.Internal})
	c := newClass(g, "C", descriptors.ClassKindClass, descriptors.Open, ia, ib)

	sink := &recordingSink{}
	GenerateOverridesInGroup([]*descriptors.Decl{aH, bH}, nil, c, sink)
	require.Len(t, sink.fakes, 1)

	var unresolved []*descriptors.Decl
	ResolveUnknownVisibility(sink.fakes[0], func(d *descriptors.Decl) { unresolved = append(unresolved, d) })
	assert.Equal(t, []*descriptors.Decl{sink.fakes[0]}, unresolved)
	assert.Equal(t, descriptors.Public, sink.fakes[0].Visibility())
}

func TestConflictingInheritedMembers(t *testing.T) {
	t.Parallel()

	g := descriptors.NewGraph(descriptors.Config{})
	b := g.Builtins()
	ia := newClass(g, "A", descriptors.ClassKindInterface, descriptors.Abstract)
	ib := newClass(g, "B", descriptors.ClassKindInterface, descriptors.Abstract)
	aK := newFun(g, ia, funSpec{name: "k", modality: descriptors.Abstract, params: []*types.Type{b.Int}})
	bK := newFun(g, ib, funSpec{name: "k", modality: descriptors.Abstract, params: []*types.Type{b.Int}, typeParams: 1})
	c := newClass(g, "C", descriptors.ClassKindClass, descriptors.Abstract, ia, ib)

	sink := &recordingSink{}
	GenerateOverridesInGroup([]*descriptors.Decl{aK, bK}, nil, c, sink)
	require.Len(t, sink.conflicts, 1)
	assert.Equal(t, [2]*descriptors.Decl{aK, bK}, sink.conflicts[0])
	require.Len(t, sink.fakes, 1)
	assert.Equal(t, []*descriptors.Decl{aK}, sink.fakes[0].OverriddenDescriptors())
}

func TestIsMoreSpecificProperties(t *testing.T) {
	t.Parallel()

	g := descriptors.NewGraph(descriptors.Config{})
	b := g.Builtins()
	mk := func(flags descriptors.CallableFlags, typ *types.Type) *descriptors.Decl {
		p := descriptors.NewProperty(g, g.Module(), "p", descriptors.Declaration, source.Span{}, flags)
		descriptors.InitializeProperty(p, descriptors.PropertyInit{Type: typ})
		return p
	}
	valString := mk(0, b.String)
	valAny := mk(0, b.Any)
	varString := mk(descriptors.FlagVar, b.String)
	varAny := mk(descriptors.FlagVar, b.Any)

	assert.True(t, IsMoreSpecific(valString, valAny))
	assert.False(t, IsMoreSpecific(valAny, valString))
	assert.False(t, IsMoreSpecific(valString, varAny), "a val never beats a var")
	assert.True(t, IsMoreSpecific(varString, valAny))
	assert.False(t, IsMoreSpecific(varString, varAny), "vars need equal types")
}
