package descriptors

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"descgraph/internal/diag"
	"descgraph/internal/fault"
	"descgraph/internal/source"
	"descgraph/internal/types"
)

// listScope is a declared-members scope for tests.
type listScope struct{ members []*Decl }

func (s *listScope) add(ds ...*Decl) { s.members = append(s.members, ds...) }

func (s *listScope) byKind(kind Kind, name source.StringID) []*Decl {
	var out []*Decl
	for _, m := range s.members {
		if m.Kind() == kind && m.Name() == name {
			out = append(out, m)
		}
	}
	return out
}

func (s *listScope) names(kind Kind) []source.StringID {
	var out []source.StringID
	for _, m := range s.members {
		if m.Kind() == kind {
			out = append(out, m.Name())
		}
	}
	return out
}

func (s *listScope) ContributedFunctions(n source.StringID) []*Decl {
	return s.byKind(KindFunction, n)
}

func (s *listScope) ContributedVariables(n source.StringID) []*Decl {
	return s.byKind(KindProperty, n)
}

func (s *listScope) ContributedClassifier(n source.StringID) *Decl {
	if c := s.byKind(KindClass, n); len(c) > 0 {
		return c[0]
	}
	return nil
}

func (s *listScope) FunctionNames() []source.StringID   { return s.names(KindFunction) }
func (s *listScope) VariableNames() []source.StringID   { return s.names(KindProperty) }
func (s *listScope) ClassifierNames() []source.StringID { return s.names(KindClass) }
func (s *listScope) ContributedDescriptors() []*Decl    { return s.members }

type boxFixture struct {
	g      *Graph
	bag    *diag.Bag
	class  *Decl
	t      *Decl
	get    *Decl
	put    *Decl
	mapFn  *Decl
	value  *Decl
	getter *Decl
	setter *Decl
}

// newBox builds
//
//	class Box<T> {
//	    var value: T
//	    fun get(): T
//	    fun put(x: T)
//	    fun <R : T> map(): R
//	}
func newBox(t *testing.T) *boxFixture {
	t.Helper()
	bag := diag.NewBag(100)
	g := NewGraph(Config{Name: "test", Reporter: diag.BagReporter{Bag: bag}})
	b := g.Builtins()

	cls := NewClass(g, g.Module(), "Box", ClassSpec{Kind: ClassKindClass, Modality: Final, Visibility: Public})
	tp := NewTypeParameter(g, cls, "T", 0, types.Invariant, false, source.Span{})
	tp.MarkInitialized()
	members := &listScope{}
	InitializeClass(cls, ClassInit{
		TypeParameters: []*Decl{tp},
		Supertypes:     func() []*types.Type { return nil },
		MemberScope:    members,
	})
	this := cls.ThisReceiver()
	tT := tp.DefaultType()

	get := NewFunction(g, cls, "get", Declaration, source.Span{})
	InitializeFunction(get, FunctionInit{DispatchReceiver: this, ReturnType: tT, Modality: Final, Visibility: Public})

	put := NewFunction(g, cls, "put", Declaration, source.Span{})
	x := NewValueParameter(g, put, ValueParamInit{Index: 0, Name: "x", Type: tT})
	InitializeFunction(put, FunctionInit{
		DispatchReceiver: this,
		ValueParameters:  []*Decl{x},
		ReturnType:       b.Unit,
		Modality:         Final,
		Visibility:       Public,
	})

	mapFn := NewFunction(g, cls, "map", Declaration, source.Span{})
	r := NewTypeParameter(g, mapFn, "R", 0, types.Invariant, false, source.Span{})
	r.AddUpperBound(tT)
	r.MarkInitialized()
	InitializeFunction(mapFn, FunctionInit{
		DispatchReceiver: this,
		TypeParameters:   []*Decl{r},
		ReturnType:       r.DefaultType(),
		Modality:         Final,
		Visibility:       Public,
	})

	value := NewProperty(g, cls, "value", Declaration, source.Span{}, FlagVar)
	getter := NewGetter(g, value, AccessorSpec{Visibility: Public, Default: true})
	setter := NewSetter(g, value, AccessorSpec{Visibility: Private, Default: true})
	InitializeProperty(value, PropertyInit{
		Type:             tT,
		DispatchReceiver: this,
		Modality:         Final,
		Visibility:       Public,
		Getter:           getter,
		Setter:           setter,
	})
	InitializeAccessor(getter, nil)
	InitializeAccessor(setter, nil)
	members.add(get, put, mapFn, value)

	return &boxFixture{g: g, bag: bag, class: cls, t: tp, get: get, put: put, mapFn: mapFn, value: value, getter: getter, setter: setter}
}

func (f *boxFixture) subst(p types.Projection) *types.Substitutor {
	return f.g.Substitutor(types.NewSubstitution([]types.Parameter{f.t.TypeParam().Constructor()}, []types.Projection{p}))
}

func TestSkeletonIsPublished(t *testing.T) {
	t.Parallel()

	f := newBox(t)
	for _, d := range []*Decl{f.class, f.t, f.get, f.put, f.value, f.getter, f.setter, f.class.ThisReceiver()} {
		assert.NotEqual(t, NoDecl, d.ID(), "%s", d)
		assert.Same(t, d, f.g.Decl(d.ID()))
		assert.Same(t, d, d.Original())
	}
	assert.Equal(t, KindValueParameter, f.put.ValueParameters()[0].Kind())
	assert.NotEqual(t, NoDecl, f.put.ValueParameters()[0].ID())
	assert.Equal(t, "Box.value.<set>", f.setter.QualifiedName())
	assert.Same(t, f.g.Builtins().Unit, f.setter.ReturnType())
	assert.Same(t, f.t.DefaultType(), f.getter.ReturnType())
	assert.Equal(t, "Box<T>", f.class.DefaultType().String())
	assert.Equal(t, []*types.Type{f.g.Builtins().Any}, f.class.Supertypes())
}

func TestEmptySubstitutionReturnsSameDecl(t *testing.T) {
	t.Parallel()

	f := newBox(t)
	pool := []*Decl{f.get, f.put, f.mapFn, f.value, f.class, f.g.Module()}
	empty := f.g.Substitutor(types.Empty)

	properties := gopter.NewProperties(nil)
	properties.Property("substitute with empty substitution is the identity", prop.ForAll(
		func(i int) bool {
			got, ok := Substitute(pool[i], empty)
			return ok && got == pool[i]
		},
		gen.IntRange(0, len(pool)-1),
	))
	properties.TestingRun(t)
}

func TestOriginalIsFixpoint(t *testing.T) {
	t.Parallel()

	f := newBox(t)
	properties := gopter.NewProperties(nil)
	properties.Property("copies keep the root as original", prop.ForAll(
		func(n int) bool {
			cur := f.get
			for range n {
				next, ok := ApplyPatch(cur, cur.NewPatch())
				if !ok {
					return false
				}
				cur = next
			}
			root := cur.Original()
			return root == f.get && root.Original() == root
		},
		gen.IntRange(0, 6),
	))
	properties.TestingRun(t)

	cp, ok := Copy(f.get, f.class, Open, Public, Declaration, false)
	require.True(t, ok)
	assert.Same(t, cp, cp.Original())
	assert.Empty(t, cp.OverriddenDescriptors())
}

func TestSubstitutedMemberScope(t *testing.T) {
	t.Parallel()

	f := newBox(t)
	b := f.g.Builtins()
	scope := f.class.MemberScope([]types.Projection{types.Invariantly(b.Int)})

	gets := scope.ContributedFunctions(f.g.Intern("get"))
	require.Len(t, gets, 1)
	get := gets[0]
	assert.Same(t, b.Int, get.ReturnType())
	assert.Same(t, f.get, get.Original())
	assert.Equal(t, "Box<Int>", get.DispatchReceiver().Type().String())
	assert.Same(t, get, scope.ContributedFunctions(f.g.Intern("get"))[0], "members are memoized")

	put := scope.ContributedFunctions(f.g.Intern("put"))[0]
	param := put.ValueParameters()[0]
	assert.Same(t, b.Int, param.Type())
	assert.Same(t, f.put.ValueParameters()[0], param.Original())
	assert.Same(t, put, param.Owner())
	assert.NotEqual(t, NoDecl, param.ID())

	value := scope.ContributedVariables(f.g.Intern("value"))[0]
	assert.Same(t, b.Int, value.Type())
	assert.Same(t, b.Int, value.Callable().Getter().ReturnType())
	assert.Same(t, b.Int, value.Callable().Setter().ValueParameters()[0].Type())
	assert.Same(t, f.getter, value.Callable().Getter().Original())

	mapped := scope.ContributedFunctions(f.g.Intern("map"))[0]
	r := mapped.TypeParameters()[0]
	assert.NotSame(t, f.mapFn.TypeParameters()[0], r)
	assert.Same(t, r, r.Original())
	assert.Same(t, mapped, r.Owner())
	assert.Equal(t, []*types.Type{b.Int}, r.UpperBounds())
	assert.Same(t, r.TypeParam().Constructor(), mapped.ReturnType().Constructor())

	names := scope.FunctionNames()
	assert.ElementsMatch(t, []source.StringID{f.g.Intern("get"), f.g.Intern("put"), f.g.Intern("map")}, names)

	assert.Same(t, f.class.UnsubstitutedMemberScope(), f.class.MemberScope(nil))
	assert.Same(t, f.class.UnsubstitutedMemberScope(), f.class.MemberScope(types.ParameterTypes(f.class.Class().TypeConstructor().Parameters())))
}

func TestSubstitutionWithoutChangeIsShortCircuited(t *testing.T) {
	t.Parallel()

	f := newBox(t)
	b := f.g.Builtins()
	other := NewFunction(f.g, f.g.Module(), "top", Declaration, source.Span{})
	InitializeFunction(other, FunctionInit{ReturnType: b.String, Visibility: Public})

	got, ok := Substitute(other, f.subst(types.Invariantly(b.Int)))
	require.True(t, ok)
	assert.Same(t, other, got)
}

func TestSetterProjectedOut(t *testing.T) {
	t.Parallel()

	f := newBox(t)
	b := f.g.Builtins()
	s := f.subst(types.Projected(types.Out, b.Int))

	_, ok := Substitute(f.put, s)
	assert.False(t, ok, "in position rejects an out projection")

	get, ok := Substitute(f.get, s)
	require.True(t, ok)
	assert.Same(t, b.Int, get.ReturnType())

	before := f.g.Len()
	value, ok := Substitute(f.value, s)
	require.True(t, ok)
	assert.Greater(t, f.g.Len(), before)
	assert.True(t, value.Callable().Flags().Has(FlagUnusableDueToProjection))
	setter := value.Callable().Setter()
	require.Len(t, setter.ValueParameters(), 1)
	assert.True(t, types.IsNothing(setter.ValueParameters()[0].Type()))
	assert.Equal(t, 1, f.bag.Count(diag.SemaSetterProjectedOut))
}

func TestFailedCopyPublishesNothing(t *testing.T) {
	t.Parallel()

	f := newBox(t)
	before := f.g.Len()
	_, ok := Substitute(f.put, f.subst(types.Projected(types.Out, f.g.Builtins().Int)))
	require.False(t, ok)
	assert.Equal(t, before, f.g.Len())
}

func TestFakeOverrideAccessorVisibility(t *testing.T) {
	t.Parallel()

	f := newBox(t)
	fake, ok := Copy(f.value, f.class, Final, Inherited, FakeOverride, true)
	require.True(t, ok)
	assert.Equal(t, InvisibleFake, fake.Callable().Setter().Visibility())
	assert.Equal(t, Public, fake.Callable().Getter().Visibility())
	assert.Equal(t, FakeOverride, fake.Callable().Setter().Callable().Kind())

	decl, ok := Copy(f.value, f.class, Final, Public, Declaration, true)
	require.True(t, ok)
	assert.Equal(t, Private, decl.Callable().Setter().Visibility())

	fn, ok := Copy(f.get, f.class, Final, Private, FakeOverride, true)
	require.True(t, ok)
	assert.Equal(t, Private, fn.Visibility())
}

func TestOverriddenSetFollowsCopies(t *testing.T) {
	t.Parallel()

	f := newBox(t)
	base := NewFunction(f.g, f.g.Module(), "get", Declaration, source.Span{})
	InitializeFunction(base, FunctionInit{ReturnType: f.g.Builtins().Any, Modality: Open, Visibility: Public, Flags: FlagOperator})
	f.get.SetOverridden([]*Decl{base})
	assert.True(t, f.get.IsOperator())
	assert.False(t, f.get.IsInfix())

	shared, ok := ApplyPatch(f.get, f.get.NewPatch().WithReturnType(f.g.Builtins().Int))
	require.True(t, ok)
	assert.Equal(t, []*Decl{base}, shared.OverriddenDescriptors())

	dropped, ok := ApplyPatch(f.get, f.get.NewPatch().WithoutOverrides())
	require.True(t, ok)
	assert.Empty(t, dropped.OverriddenDescriptors())

	f.value.SetOverridden(nil)
	assert.Empty(t, f.getter.OverriddenDescriptors())
}

func TestSubstitutedPropertyOverridesAreLazy(t *testing.T) {
	t.Parallel()

	f := newBox(t)
	b := f.g.Builtins()
	base := NewProperty(f.g, f.class, "base", Declaration, source.Span{}, 0)
	InitializeProperty(base, PropertyInit{
		Type:             f.t.DefaultType(),
		DispatchReceiver: f.class.ThisReceiver(),
		Modality:         Open,
		Visibility:       Public,
	})

	value, ok := Substitute(f.value, f.subst(types.Invariantly(b.Int)))
	require.True(t, ok)

	// Overrides recorded after the copy are still seen by it.
	f.value.SetOverridden([]*Decl{base})
	overridden := value.OverriddenDescriptors()
	require.Len(t, overridden, 1)
	assert.Same(t, base, overridden[0].Original())
	assert.Same(t, b.Int, overridden[0].Type())
	assert.Same(t, overridden[0], value.OverriddenDescriptors()[0], "computed once")
}

func TestSignatureChangeRecordsInitialSignature(t *testing.T) {
	t.Parallel()

	f := newBox(t)
	cp, ok := ApplyPatch(f.get, f.get.NewPatch().WithSignatureChange().WithName("fetch").WithHiddenForResolution())
	require.True(t, ok)
	assert.Same(t, f.get, cp.Callable().InitialSignature())
	assert.Equal(t, "fetch", cp.NameString())
	assert.True(t, cp.IsHiddenForResolution())
	assert.Same(t, f.get, cp.Original())
}

func TestSupertypeCycleIsCut(t *testing.T) {
	t.Parallel()

	bag := diag.NewBag(100)
	g := NewGraph(Config{Reporter: diag.BagReporter{Bag: bag}})
	spec := ClassSpec{Kind: ClassKindClass, Modality: Open, Visibility: Public}
	a := NewClass(g, g.Module(), "A", spec)
	b := NewClass(g, g.Module(), "B", spec)
	c := NewClass(g, g.Module(), "C", spec)
	InitializeClass(a, ClassInit{Supertypes: func() []*types.Type { return []*types.Type{b.DefaultType()} }})
	InitializeClass(b, ClassInit{Supertypes: func() []*types.Type { return []*types.Type{a.DefaultType()} }})
	InitializeClass(c, ClassInit{Supertypes: func() []*types.Type { return []*types.Type{a.DefaultType()} }})

	cs := c.Supertypes()
	require.Len(t, cs, 1)
	assert.False(t, cs[0].IsError(), "C is outside the loop")

	as := a.Supertypes()
	require.Len(t, as, 1)
	assert.True(t, as[0].IsError())
	bs := b.Supertypes()
	require.Len(t, bs, 1)
	assert.True(t, bs[0].IsError())
	assert.Equal(t, []*types.Type{b.DefaultType()}, a.Class().TypeConstructor().AllSupertypes())
	assert.Equal(t, 2, bag.Count(diag.SemaCyclicSupertype))
}

func TestUpperBoundCycleIsCut(t *testing.T) {
	t.Parallel()

	bag := diag.NewBag(100)
	g := NewGraph(Config{Reporter: diag.BagReporter{Bag: bag}})
	fn := NewFunction(g, g.Module(), "f", Declaration, source.Span{})
	tp := NewTypeParameter(g, fn, "T", 0, types.Invariant, false, source.Span{})
	up := NewTypeParameter(g, fn, "U", 1, types.Invariant, false, source.Span{})
	tp.SetUpperBoundsResolver(func() []*types.Type { return []*types.Type{up.DefaultType()} })
	up.SetUpperBoundsResolver(func() []*types.Type { return []*types.Type{tp.DefaultType()} })
	tp.MarkInitialized()
	up.MarkInitialized()
	InitializeFunction(fn, FunctionInit{TypeParameters: []*Decl{tp, up}, ReturnType: g.Builtins().Unit})

	assert.True(t, tp.UpperBounds()[0].IsError())
	assert.True(t, up.UpperBounds()[0].IsError())
	assert.Equal(t, 2, bag.Count(diag.SemaCyclicUpperBound))
}

func TestTypeParameterWithoutBoundsIsNullableAny(t *testing.T) {
	t.Parallel()

	g := NewGraph(Config{})
	fn := NewFunction(g, g.Module(), "f", Declaration, source.Span{})
	tp := NewTypeParameter(g, fn, "T", 0, types.Out, true, source.Span{})
	tp.MarkInitialized()
	assert.Equal(t, []*types.Type{g.Builtins().NullableAny}, tp.UpperBounds())
	assert.Equal(t, types.Out, tp.TypeParam().Constructor().Variance())
	assert.Equal(t, EmptyScope{}, tp.TypeParameterScope())
}

func requirePrecondition(t *testing.T, fn func()) {
	t.Helper()
	err := fault.Catch(fn)
	var pe *fault.PreconditionError
	require.ErrorAs(t, err, &pe)
}

func TestPreconditions(t *testing.T) {
	t.Parallel()

	f := newBox(t)
	g := f.g

	requirePrecondition(t, func() { InitializeClass(f.class, ClassInit{}) })
	requirePrecondition(t, func() { InitializeFunction(f.get, FunctionInit{}) })
	requirePrecondition(t, func() { ApplyPatch(f.getter, Patch{}) })
	requirePrecondition(t, func() { Substitute(f.setter, f.subst(types.Invariantly(g.Builtins().Int))) })
	requirePrecondition(t, func() { f.t.AddUpperBound(g.Builtins().Any) })

	fn := NewFunction(g, g.Module(), "misplaced", Declaration, source.Span{})
	p := NewValueParameter(g, fn, ValueParamInit{Index: 1, Name: "p", Type: g.Builtins().Int})
	requirePrecondition(t, func() { InitializeFunction(fn, FunctionInit{ValueParameters: []*Decl{p}}) })
	requirePrecondition(t, func() { fn.ReturnType() })

	late := NewClass(g, g.Module(), "Late", ClassSpec{})
	requirePrecondition(t, func() { late.TypeParameters() })
	requirePrecondition(t, func() { late.DefaultType() })
	requirePrecondition(t, func() { late.Supertypes() })
}

func TestUnsupportedOperations(t *testing.T) {
	t.Parallel()

	f := newBox(t)
	s := f.subst(types.Invariantly(f.g.Builtins().Int))
	for _, fn := range []func(){
		func() { Substitute(f.put.ValueParameters()[0], s) },
		func() { Substitute(f.t, s) },
		func() { ApplyPatch(f.class, Patch{}.WithModality(Open)) },
		func() { ApplyPatch(f.g.Module(), Patch{}) },
	} {
		err := fault.Catch(fn)
		require.Error(t, err)
		assert.True(t, fault.IsUnsupported(err), "%v", err)
		assert.False(t, fault.IsInternal(err))
	}
}

func TestSubstitutedClass(t *testing.T) {
	t.Parallel()

	f := newBox(t)
	b := f.g.Builtins()
	boxed, ok := Substitute(f.class, f.subst(types.Invariantly(b.String)))
	require.True(t, ok)
	assert.Equal(t, "Box<String>", boxed.DefaultType().String())
	assert.Same(t, f.class, boxed.Original())
	assert.Same(t, f.class.Class().TypeConstructor(), boxed.Class().TypeConstructor())
	assert.Equal(t, "Box<String>", boxed.ThisReceiver().Type().String())
	get := boxed.UnsubstitutedMemberScope().ContributedFunctions(f.g.Intern("get"))[0]
	assert.Same(t, b.String, get.ReturnType())
}

func TestDefaultValueNeedsRealOwner(t *testing.T) {
	t.Parallel()

	g := NewGraph(Config{})
	fn := NewFunction(g, g.Module(), "f", Declaration, source.Span{})
	p := NewValueParameter(g, fn, ValueParamInit{Name: "p", Type: g.Builtins().Int, DeclaresDefault: true})
	InitializeFunction(fn, FunctionInit{ValueParameters: []*Decl{p}, ReturnType: g.Builtins().Unit})
	assert.True(t, p.DeclaresDefaultValue())

	fake, ok := Copy(fn, g.Module(), Final, Public, FakeOverride, false)
	require.True(t, ok)
	fake.SetOverridden([]*Decl{fn})
	fp := fake.ValueParameters()[0]
	assert.False(t, fp.DeclaresDefaultValue())
	assert.True(t, fp.HasDefaultValue())
}

func TestVisitorFallbacks(t *testing.T) {
	t.Parallel()

	f := newBox(t)
	v := Visitor[string, int]{
		Function: func(d *Decl, n int) string { return "fn" },
		Property: func(d *Decl, n int) string { return d.NameString() },
		Default:  func(d *Decl, n int) string { return d.Kind().String() },
	}
	assert.Equal(t, "fn", Accept(f.get, v, 0))
	assert.Equal(t, "fn", Accept(f.getter, v, 0))
	assert.Equal(t, "value", Accept(f.value, v, 0))
	assert.Equal(t, KindClass.String(), Accept(f.class, v, 0))
	assert.Equal(t, "", Accept(f.class, Visitor[string, int]{}, 0))

	counted := f.class.Accept(Visitor[any, any]{Class: func(d *Decl, data any) any { return data.(int) + 1 }}, 41)
	assert.Equal(t, 42, counted)

	var kinds []Kind
	Walk(f.class, func(d *Decl) bool {
		kinds = append(kinds, d.Kind())
		return true
	})
	assert.Contains(t, kinds, KindSetter)
	assert.Contains(t, kinds, KindValueParameter)
	assert.Equal(t, KindClass, kinds[0])
}
