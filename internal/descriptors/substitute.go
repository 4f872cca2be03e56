package descriptors

import (
	"descgraph/internal/diag"
	"descgraph/internal/fault"
	"descgraph/internal/source"
	"descgraph/internal/storage"
	"descgraph/internal/types"
)

// Substitute applies s to d. ok is false when s projects out a type of d.
// d itself comes back for an empty substitution and when no type of its
// signature changes.
func Substitute(d *Decl, s *types.Substitutor) (*Decl, bool) {
	if s.IsEmpty() {
		return d, true
	}
	switch d.kind {
	case KindModule:
		return d, true
	case KindClass:
		return substituteClass(d, s), true
	case KindValueParameter, KindTypeParameter:
		panic(fault.Unsupported("substitute "+d.kind.String(), "parameters are substituted with their owner"))
	case KindReceiverParameter:
		return d.SubstituteReceiver(s, receiverVariance(d))
	case KindGetter, KindSetter:
		panic(fault.Precondition("accessor %s cannot be substituted apart from its property", d))
	}
	if signatureUnchanged(d, s) {
		return d, true
	}
	return ApplyPatch(d, d.NewPatch().WithSubstitution(s.Substitution()))
}

// Copy makes an independent copy of a callable under a new owner. The
// copy is its own original.
func Copy(d, owner *Decl, modality Modality, visibility Visibility, kind CallableKind, copyOverrides bool) (*Decl, bool) {
	p := Patch{}.
		WithOwner(owner).
		WithModality(modality).
		WithVisibility(visibility).
		WithKind(kind).
		WithCopyOverrides(copyOverrides)
	return ApplyPatch(d, p)
}

// ApplyPatch builds the copy p describes. Nothing is published unless
// the whole copy succeeds.
func ApplyPatch(d *Decl, p Patch) (*Decl, bool) {
	switch d.kind {
	case KindClass:
		if p.onlySubstitutes() {
			return Substitute(d, d.g.Substitutor(p.substitution))
		}
		panic(fault.Unsupported("copy class", "classes can only be substituted"))
	case KindModule:
		panic(fault.Unsupported("copy module", ""))
	case KindGetter, KindSetter:
		panic(fault.Precondition("accessor %s cannot be copied apart from its property", d))
	case KindValueParameter, KindTypeParameter, KindReceiverParameter:
		panic(fault.Unsupported("copy "+d.kind.String(), "parameters are copied with their owner"))
	}
	d.callable.checkInitialized(d)
	return newCopier(d, p).run()
}

type copier struct {
	g     *Graph
	src   *Decl
	p     Patch
	out   *Decl
	subst *types.Substitutor
}

func newCopier(d *Decl, p Patch) *copier {
	return &copier{g: d.g, src: d, p: p, subst: d.g.Substitutor(p.substitution)}
}

func (cp *copier) run() (*Decl, bool) {
	d, p := cp.src, cp.p
	src := d.callable
	out := cp.shell()
	c := out.callable

	if d.kind == KindConstructor {
		fault.Check(out.owner.kind == KindClass, "constructor copy of %s needs a class owner", d)
		if c.kind != Declaration && c.kind != Synthesized {
			panic(fault.Precondition("constructor %s cannot be copied as %s", d, c.kind))
		}
	}

	typeParams := src.typeParams
	if p.has(patchTypeParams) {
		typeParams = p.typeParams
	}
	c.typeParams, cp.subst = cp.substituteTypeParameters(typeParams)

	ext := src.extensionReceiver
	var extType *types.Type
	if ext != nil {
		extType = ext.receiver.Type()
	}
	if p.has(patchExtensionReceiver) {
		extType = p.extensionReceiver
	}
	if extType != nil {
		t, ok := cp.subst.Substitute(extType, types.In)
		if !ok {
			return nil, false
		}
		c.extensionReceiver = newReceiver(out, ReceiverExtension, t)
	}

	dispatch := src.dispatchReceiver
	if p.has(patchDispatchReceiver) {
		dispatch = p.dispatchReceiver
	}
	if dispatch != nil {
		r, ok := dispatch.SubstituteReceiver(cp.subst, receiverVariance(dispatch))
		if !ok {
			return nil, false
		}
		c.dispatchReceiver = r
	}

	for _, r := range src.contextReceivers {
		t, ok := cp.subst.Substitute(r.receiver.Type(), types.In)
		if !ok {
			return nil, false
		}
		c.contextReceivers = append(c.contextReceivers, newReceiver(out, ReceiverContext, t))
	}

	if d.kind == KindProperty {
		return cp.finishProperty()
	}

	params := src.valueParams
	if p.has(patchValueParams) {
		params = p.valueParams
	}
	newParams, ok := cp.substituteValueParameters(out, params)
	if !ok {
		return nil, false
	}
	c.valueParams = newParams

	returnType := src.returnType
	if p.has(patchReturnType) {
		returnType = p.returnType
	}
	if returnType != nil {
		t, ok := cp.subst.Substitute(returnType, types.Out)
		if !ok {
			return nil, false
		}
		c.returnType = t
	}

	if p.signatureChange || src.initialSignature != nil {
		c.initialSignature = src.initialSignature
		if c.initialSignature == nil {
			c.initialSignature = d
		}
	}
	cp.copyOverriddenLazily()
	c.initialized = true
	return cp.g.publish(out), true
}

// shell creates the copy with everything but its signature.
func (cp *copier) shell() *Decl {
	d, p := cp.src, cp.p
	src := d.callable
	out := &Decl{
		g:           d.g,
		kind:        d.kind,
		name:        d.name,
		owner:       d.owner,
		annotations: d.annotations,
	}
	if p.has(patchOwner) {
		out.owner = p.owner
	}
	if p.has(patchName) {
		out.name = d.g.Intern(p.name)
	}
	if p.preserveSource {
		out.source = d.source
	}
	if p.has(patchSource) {
		out.source = p.source
	}
	if p.has(patchOriginal) {
		out.original = p.original
	}
	if len(p.annotations) > 0 {
		out.annotations = append(append([]string(nil), d.annotations...), p.annotations...)
	}
	c := &CallableData{
		kind:       src.kind,
		modality:   src.modality,
		visibility: src.Visibility(),
		flags:      src.flags,
	}
	if p.has(patchKind) {
		c.kind = p.kind
	}
	if p.has(patchModality) {
		c.modality = p.modality
	}
	if p.has(patchVisibility) {
		c.visibility = p.visibility
	}
	if p.hiddenClash {
		c.flags |= FlagHiddenToOvercomeSignatureClash
	}
	if p.hiddenResolve {
		c.flags |= FlagHiddenForResolution
	}
	out.callable = c
	cp.out = out
	return out
}

// substituteTypeParameters recreates params for the copy and returns the
// substitutor to use for the rest of the signature: the patch
// substitution first, then old parameters to new ones. A bound that
// cannot be substituted becomes Any?.
func (cp *copier) substituteTypeParameters(params []*Decl) ([]*Decl, *types.Substitutor) {
	if len(params) == 0 {
		return nil, cp.subst
	}
	mapping := make(types.MapSubstitution, len(params))
	out := make([]*Decl, len(params))
	for i, tp := range params {
		data := tp.typeParam
		n := NewTypeParameter(cp.g, cp.out, tp.NameString(), i, data.variance, data.reified, source.Span{})
		n.annotations = tp.annotations
		mapping[data.ctor] = types.Invariantly(n.DefaultType())
		out[i] = n
	}
	chained := cp.g.Substitutor(types.Chain(cp.subst.Substitution(), mapping))
	for i, tp := range params {
		for _, b := range tp.UpperBounds() {
			nb, ok := chained.Substitute(b, types.Invariant)
			if !ok {
				nb = cp.g.builtins.NullableAny
			}
			out[i].AddUpperBound(nb)
		}
		out[i].MarkInitialized()
	}
	return out, chained
}

func (cp *copier) substituteValueParameters(owner *Decl, params []*Decl) ([]*Decl, bool) {
	if len(params) == 0 {
		return nil, true
	}
	out := make([]*Decl, 0, len(params))
	for i, p := range params {
		t, ok := cp.subst.Substitute(p.param.typ, types.In)
		if !ok {
			return nil, false
		}
		var vararg *types.Type
		if p.param.varargElement != nil {
			if vararg, ok = cp.subst.Substitute(p.param.varargElement, types.In); !ok {
				return nil, false
			}
		}
		np := copyValueParameter(p, owner, i, t, vararg)
		np.param.declaresDefault = p.DeclaresDefaultValue()
		if cp.p.dropOriginal {
			np.original = nil
		}
		out = append(out, np)
	}
	return out, true
}

// copyOverriddenLazily shares the overridden set when the patch does
// not substitute, and substitutes it on first use otherwise.
func (cp *copier) copyOverriddenLazily() {
	if cp.p.dropOverrides {
		return
	}
	src := cp.src
	set := &cp.out.callable.overridden
	if cp.p.substitution == nil || cp.p.substitution.IsEmpty() {
		lazy, list := src.callable.overridden.share()
		if lazy != nil {
			set.setLazy(lazy)
		} else {
			set.set(list)
		}
		return
	}
	subst := cp.subst
	set.setLazy(storage.NewLazy(cp.g.storage, "overridden of "+cp.out.NameString(), func() []*Decl {
		var out []*Decl
		for _, o := range src.OverriddenDescriptors() {
			if so, ok := Substitute(o, subst); ok {
				out = append(out, so)
			}
		}
		return out
	}))
}

func (cp *copier) finishProperty() (*Decl, bool) {
	d, p, out := cp.src, cp.p, cp.out
	src, c := d.callable, out.callable

	typ := src.returnType
	if p.has(patchReturnType) {
		typ = p.returnType
	}
	t, ok := cp.subst.Substitute(typ, types.Out)
	if !ok {
		return nil, false
	}
	c.returnType = t

	if getter := src.getter; getter != nil {
		ng := cp.copyAccessor(getter)
		rt := getter.callable.returnType
		if rt != nil {
			rt, _ = cp.subst.Substitute(rt, types.Out)
		}
		if rt == nil {
			rt = t
		}
		ng.callable.returnType = rt
		ng.callable.initialized = true
		c.getter = ng
	}

	if setter := src.setter; setter != nil {
		ns := cp.copyAccessor(setter)
		params, ok := cp.substituteValueParameters(ns, setter.callable.valueParams)
		if !ok {
			c.flags |= FlagUnusableDueToProjection
			params = []*Decl{{
				g:      cp.g,
				kind:   KindValueParameter,
				name:   cp.g.Intern("value"),
				owner:  ns,
				param:  &ValueParamData{typ: cp.g.builtins.Nothing},
				source: ns.source,
			}}
			cp.g.report(diag.SemaSetterProjectedOut, diag.SevWarning, d,
				"setter of "+d.QualifiedName()+" is projected out; "+out.QualifiedName()+" cannot be assigned")
		}
		ns.callable.valueParams = params
		ns.callable.returnType = cp.g.builtins.Unit
		ns.callable.initialized = true
		c.setter = ns
	}

	cp.copyOverriddenLazily()
	c.initialized = true
	return cp.g.publish(out), true
}

// copyAccessor recreates acc for the copied property. Accessors of fake
// overrides that were private become invisible.
func (cp *copier) copyAccessor(acc *Decl) *Decl {
	prop := cp.out
	vis := acc.callable.Visibility()
	if prop.callable.kind == FakeOverride && vis.Normalize().IsPrivate() {
		vis = InvisibleFake
	}
	na := &Decl{
		g:           cp.g,
		kind:        acc.kind,
		name:        acc.name,
		owner:       prop,
		annotations: acc.annotations,
		callable: &CallableData{
			kind:             prop.callable.kind,
			modality:         prop.callable.modality,
			visibility:       vis,
			flags:            acc.callable.flags,
			dispatchReceiver: prop.callable.dispatchReceiver,
		},
	}
	if cp.p.preserveSource {
		na.source = acc.source
	}
	if o := prop.original; o != nil && !cp.p.dropOriginal && o.kind == KindProperty {
		if acc.kind == KindGetter {
			na.original = o.callable.getter
		} else {
			na.original = o.callable.setter
		}
	}
	return na
}

func receiverVariance(r *Decl) types.Variance {
	if r.owner != nil && r.owner.kind == KindClass {
		return types.Out
	}
	return types.Invariant
}

// signatureUnchanged reports whether s leaves every type in the
// signature of d as it is.
func signatureUnchanged(d *Decl, s *types.Substitutor) bool {
	same := func(t *types.Type, v types.Variance) bool {
		if t == nil {
			return true
		}
		nt, ok := s.Substitute(t, v)
		return ok && nt == t
	}
	c := d.callable
	c.checkInitialized(d)
	for _, tp := range c.typeParams {
		for _, b := range tp.UpperBounds() {
			if !same(b, types.Invariant) {
				return false
			}
		}
	}
	if c.extensionReceiver != nil && !same(c.extensionReceiver.receiver.Type(), types.In) {
		return false
	}
	if r := c.dispatchReceiver; r != nil && !same(r.receiver.Type(), receiverVariance(r)) {
		return false
	}
	for _, r := range c.contextReceivers {
		if !same(r.receiver.Type(), types.In) {
			return false
		}
	}
	params := c.valueParams
	if c.setter != nil {
		params = append(append([]*Decl(nil), params...), c.setter.callable.valueParams...)
	}
	for _, p := range params {
		if !same(p.param.typ, types.In) || !same(p.param.varargElement, types.In) {
			return false
		}
	}
	if c.getter != nil && !same(c.getter.callable.returnType, types.Out) {
		return false
	}
	return same(c.returnType, types.Out)
}
