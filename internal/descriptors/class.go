package descriptors

import (
	"descgraph/internal/fault"
	"descgraph/internal/source"
	"descgraph/internal/storage"
	"descgraph/internal/types"
)

// ClassData is the payload of KindClass decls.
type ClassData struct {
	kind       ClassKind
	modality   Modality
	visibility Visibility
	inner      bool

	ctor         *ClassConstructor
	typeParams   []*Decl
	thisReceiver *Decl
	initialized  bool

	memberScope  MemberScope
	staticScope  MemberScope
	constructors []*Decl
	primary      *Decl
	companion    *Decl

	defaultType *storage.Lazy[*types.Type]

	// set on substituted classes
	base         *Decl
	substitutor  *types.Substitutor
	substituted  *storage.Lazy[substitutedClassParts]
}

type substitutedClassParts struct {
	supertypes   []*types.Type
	scope        MemberScope
	constructors []*Decl
	primary      *Decl
}

// ClassSpec holds the skeleton attributes of a class.
type ClassSpec struct {
	Kind        ClassKind
	Modality    Modality
	Visibility  Visibility
	Inner       bool
	Source      source.Span
	Annotations []string
}

// NewClass creates a class skeleton owned by owner (the module for top
// level classes).
func NewClass(g *Graph, owner *Decl, name string, spec ClassSpec) *Decl {
	fault.Check(owner != nil, "class %s needs an owner", name)
	fault.Check(spec.Modality != Sealed || spec.Kind == ClassKindClass || spec.Kind == ClassKindInterface,
		"class %s: only classes and interfaces can be sealed", name)
	d := &Decl{
		g:           g,
		kind:        KindClass,
		name:        g.Intern(name),
		owner:       owner,
		source:      spec.Source,
		annotations: spec.Annotations,
		class: &ClassData{
			kind:       spec.Kind,
			modality:   spec.Modality,
			visibility: spec.Visibility,
			inner:      spec.Inner,
		},
	}
	d.class.ctor = newClassConstructor(d)
	d.class.defaultType = storage.NewLazy(g.storage, "default type of "+name, func() *types.Type {
		d.class.checkInitialized(d)
		return types.New(d.class.ctor, types.ParameterTypes(d.class.ctor.Parameters()), false)
	})
	return g.publish(d)
}

// ClassInit carries what InitializeClass needs.
type ClassInit struct {
	TypeParameters []*Decl
	// Supertypes is called lazily, the first time the supertypes of the
	// class are needed. It may reference any skeleton.
	Supertypes  func() []*types.Type
	MemberScope MemberScope
	StaticScope MemberScope
	// Constructors must be owned by the class; Primary, if set, must be
	// one of them.
	Constructors []*Decl
	Primary      *Decl
	Companion    *Decl
}

// InitializeClass completes a class skeleton. It panics if called twice
// or if type parameter indices do not match their positions.
func InitializeClass(d *Decl, init ClassInit) {
	c := d.class
	fault.Check(c != nil, "InitializeClass on %s", d)
	fault.Check(c.base == nil, "InitializeClass on substituted %s", d)
	fault.Check(!c.initialized, "%s is already initialized", d)

	checkTypeParameterIndices(d, init.TypeParameters)
	for _, ctor := range init.Constructors {
		fault.Check(ctor.kind == KindConstructor && ctor.owner == d, "%s is not a constructor of %s", ctor, d)
	}
	if init.Primary != nil {
		fault.Check(init.Primary.owner == d && init.Primary.callable.flags.Has(FlagPrimary),
			"%s is not the primary constructor of %s", init.Primary, d)
	}

	c.typeParams = init.TypeParameters
	c.ctor.cell.setResolver(init.Supertypes)
	c.memberScope = orEmpty(init.MemberScope)
	c.staticScope = orEmpty(init.StaticScope)
	c.constructors = init.Constructors
	c.primary = init.Primary
	c.companion = init.Companion
	c.initialized = true

	c.thisReceiver = d.g.attach(newReceiver(d, ReceiverDispatch, d.DefaultType()))
}

func (c *ClassData) checkInitialized(d *Decl) {
	if c.base == nil && !c.initialized {
		panic(fault.Precondition("%s used before initialize", d))
	}
}

func (c *ClassData) ClassKind() ClassKind { return c.kind }
func (c *ClassData) IsInner() bool        { return c.inner }
func (c *ClassData) IsSubstituted() bool  { return c.base != nil }
func (c *ClassData) Initialized() bool    { return c.initialized || c.base != nil }

// TypeConstructor is shared by a class and all its substitutions.
func (c *ClassData) TypeConstructor() *ClassConstructor {
	if c.base != nil {
		return c.base.class.TypeConstructor()
	}
	return c.ctor
}

func (c *ClassData) TypeParameters() []*Decl {
	if c.base != nil {
		return c.base.class.TypeParameters()
	}
	if !c.initialized {
		panic(fault.Precondition("type parameters of %s requested before initialize", c.ctor.decl))
	}
	return c.typeParams
}

// Supertypes returns the cycle-free supertype list.
func (c *ClassData) Supertypes() []*types.Type {
	if c.base != nil {
		return c.substituted.Force().supertypes
	}
	return c.ctor.Supertypes()
}

// Companion returns the companion object, or nil.
func (c *ClassData) Companion() *Decl {
	if c.base != nil {
		return c.base.class.Companion()
	}
	return c.companion
}

// ThisReceiver is the implicit dispatch receiver of members.
func (d *Decl) ThisReceiver() *Decl {
	fault.Check(d.class != nil, "%s has no this receiver", d)
	d.class.checkInitialized(d)
	return d.class.thisReceiver
}

// UnsubstitutedMemberScope returns the member scope of the class as
// written, including inherited members.
func (d *Decl) UnsubstitutedMemberScope() MemberScope {
	c := d.class
	fault.Check(c != nil, "%s has no member scope", d)
	if c.base != nil {
		return c.substituted.Force().scope
	}
	c.checkInitialized(d)
	return c.memberScope
}

// StaticScope holds members reachable through the class name, such as
// enum entries and the synthesized enum functions.
func (d *Decl) StaticScope() MemberScope {
	c := d.class
	fault.Check(c != nil, "%s has no static scope", d)
	if c.base != nil {
		return c.base.StaticScope()
	}
	c.checkInitialized(d)
	return c.staticScope
}

// MemberScope returns the member scope of the class applied to args.
func (d *Decl) MemberScope(args []types.Projection) MemberScope {
	fault.Check(d.class != nil, "%s has no member scope", d)
	params := d.TypeParameters()
	if len(args) == 0 || sameArguments(params, args) {
		return d.UnsubstitutedMemberScope()
	}
	ctors := make([]types.Parameter, len(params))
	for i, p := range params {
		ctors[i] = p.typeParam.ctor
	}
	subst := d.g.Substitutor(types.NewSubstitution(ctors, args))
	return NewSubstitutingScope(d.g, d.UnsubstitutedMemberScope(), subst)
}

func sameArguments(params []*Decl, args []types.Projection) bool {
	if len(params) != len(args) {
		return false
	}
	for i, a := range args {
		if a.Star || a.Variance != types.Invariant || a.Type.Constructor() != types.Constructor(params[i].typeParam.ctor) || a.Type.IsMarkedNullable() {
			return false
		}
	}
	return true
}

// Constructors of the class. Substituted classes substitute lazily.
func (d *Decl) Constructors() []*Decl {
	c := d.class
	fault.Check(c != nil, "%s has no constructors", d)
	if c.base != nil {
		return c.substituted.Force().constructors
	}
	c.checkInitialized(d)
	return c.constructors
}

// PrimaryConstructor returns the primary constructor, or nil.
func (d *Decl) PrimaryConstructor() *Decl {
	c := d.class
	fault.Check(c != nil, "%s has no constructors", d)
	if c.base != nil {
		return c.substituted.Force().primary
	}
	c.checkInitialized(d)
	return c.primary
}

// substituteClass wraps d in a class whose types, scope and constructors
// go through s. The type constructor and type parameters are shared.
func substituteClass(d *Decl, s *types.Substitutor) *Decl {
	g := d.g
	src := d.class
	sub := &Decl{
		g:           g,
		kind:        KindClass,
		name:        d.name,
		owner:       d.owner,
		original:    d.Original(),
		source:      d.source,
		annotations: d.annotations,
	}
	c := &ClassData{
		kind:        src.kind,
		modality:    src.modality,
		visibility:  src.visibility,
		inner:       src.inner,
		base:        d,
		substitutor: s,
	}
	sub.class = c
	c.defaultType = storage.NewLazy(g.storage, "substituted default type of "+d.NameString(), func() *types.Type {
		base := d.DefaultType()
		if t, ok := s.Substitute(base, types.Invariant); ok {
			return t
		}
		return base
	})
	c.substituted = storage.NewLazy(g.storage, "substituted parts of "+d.NameString(), func() substitutedClassParts {
		var parts substitutedClassParts
		for _, st := range d.Supertypes() {
			if t, ok := s.Substitute(st, types.Invariant); ok {
				parts.supertypes = append(parts.supertypes, t)
			}
		}
		parts.scope = NewSubstitutingScope(g, d.UnsubstitutedMemberScope(), s)
		for _, ctor := range d.Constructors() {
			p := Patch{}.WithOwner(sub).WithSubstitution(s.Substitution()).WithOriginal(ctor.Original())
			if cp, ok := ApplyPatch(ctor, p); ok {
				parts.constructors = append(parts.constructors, cp)
				if ctor == d.PrimaryConstructor() {
					parts.primary = cp
				}
			}
		}
		return parts
	})
	c.thisReceiver = newReceiver(sub, ReceiverDispatch, nil)
	c.thisReceiver.receiver.lazyType = c.defaultType
	return g.publish(sub)
}

// Substitutor returns the substitution applied to a substituted class,
// or nil for a class as written.
func (c *ClassData) Substitutor() *types.Substitutor { return c.substitutor }

// Base returns the class a substituted class was derived from.
func (c *ClassData) Base() *Decl { return c.base }

func orEmpty(s MemberScope) MemberScope {
	if s == nil {
		return EmptyScope{}
	}
	return s
}

// SealedSubclasses lists the classes that name a sealed class as a
// direct supertype, in publication order.
func (d *Decl) SealedSubclasses() []*Decl {
	fault.Check(d.class != nil && d.class.modality == Sealed, "%s is not sealed", d)
	var out []*Decl
	for _, c := range d.g.Decls() {
		if c == d || c.class == nil || c.class.base != nil || !c.class.initialized {
			continue
		}
		for _, st := range c.class.ctor.Supertypes() {
			if st.Constructor() == types.Constructor(d.class.ctor) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
