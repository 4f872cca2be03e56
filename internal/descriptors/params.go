package descriptors

import (
	"sync"

	"descgraph/internal/fault"
	"descgraph/internal/source"
	"descgraph/internal/storage"
	"descgraph/internal/types"
)

// ValueParamData is the payload of KindValueParameter decls. Value
// parameters are complete when created.
type ValueParamData struct {
	index           int
	typ             *types.Type
	varargElement   *types.Type
	declaresDefault bool
	crossinline     bool
	noinline        bool
}

type ValueParamInit struct {
	Index           int
	Name            string
	Type            *types.Type
	VarargElement   *types.Type // non-nil for vararg parameters
	DeclaresDefault bool
	Crossinline     bool
	Noinline        bool
	Source          source.Span
	Annotations     []string
}

// NewValueParameter creates a value parameter of owner.
func NewValueParameter(g *Graph, owner *Decl, init ValueParamInit) *Decl {
	fault.Check(owner != nil && owner.callable != nil, "value parameter %s needs a callable owner", init.Name)
	fault.Check(init.Type != nil, "value parameter %s has no type", init.Name)
	d := &Decl{
		g:           g,
		kind:        KindValueParameter,
		name:        g.Intern(init.Name),
		owner:       owner,
		source:      init.Source,
		annotations: init.Annotations,
		param: &ValueParamData{
			index:           init.Index,
			typ:             init.Type,
			varargElement:   init.VarargElement,
			declaresDefault: init.DeclaresDefault,
			crossinline:     init.Crossinline,
			noinline:        init.Noinline,
		},
	}
	return g.attach(d)
}

func (p *ValueParamData) Index() int                     { return p.index }
func (p *ValueParamData) VarargElementType() *types.Type { return p.varargElement }
func (p *ValueParamData) IsVararg() bool                 { return p.varargElement != nil }
func (p *ValueParamData) IsCrossinline() bool            { return p.crossinline }
func (p *ValueParamData) IsNoinline() bool               { return p.noinline }

// DeclaresDefaultValue reports whether this very parameter declares a
// default. Parameters of fake overrides and delegates never do.
func (d *Decl) DeclaresDefaultValue() bool {
	if d.param == nil || !d.param.declaresDefault {
		return false
	}
	return d.owner.callable.kind.IsReal()
}

// HasDefaultValue reports whether the parameter or the parameter at the
// same index of any overridden callable declares a default.
func (d *Decl) HasDefaultValue() bool {
	if d.param == nil {
		return false
	}
	if d.DeclaresDefaultValue() {
		return true
	}
	for _, o := range d.owner.OverriddenDescriptors() {
		params := o.ValueParameters()
		if d.param.index < len(params) && params[d.param.index].HasDefaultValue() {
			return true
		}
	}
	return false
}

// copyValueParameter recreates p for newOwner at the given index with a
// new type. The copy's original is p.
func copyValueParameter(p, newOwner *Decl, index int, typ, vararg *types.Type) *Decl {
	data := *p.param
	data.index = index
	data.typ = typ
	data.varargElement = vararg
	return &Decl{
		g:           p.g,
		kind:        KindValueParameter,
		name:        p.name,
		owner:       newOwner,
		original:    p,
		source:      p.source,
		annotations: p.annotations,
		param:       &data,
	}
}

// TypeParamData is the payload of KindTypeParameter decls.
type TypeParamData struct {
	index    int
	variance types.Variance
	reified  bool
	ctor     *ParamConstructor

	mu          sync.Mutex
	bounds      []*types.Type
	initialized bool

	defaultType *storage.Lazy[*types.Type]
	scope       *storage.Lazy[MemberScope]
}

// NewTypeParameter creates a type parameter skeleton. Bounds are added
// with AddUpperBound or SetUpperBoundsResolver, then MarkInitialized.
func NewTypeParameter(g *Graph, owner *Decl, name string, index int, variance types.Variance, reified bool, sp source.Span) *Decl {
	fault.Check(owner != nil && owner.HasTypeParameters(), "type parameter %s needs a class or callable owner", name)
	d := &Decl{
		g:      g,
		kind:   KindTypeParameter,
		name:   g.Intern(name),
		owner:  owner,
		source: sp,
	}
	tp := &TypeParamData{index: index, variance: variance, reified: reified}
	d.typeParam = tp
	tp.ctor = newParamConstructor(d)
	tp.defaultType = storage.NewLazy(g.storage, "default type of "+name, func() *types.Type {
		return types.New(tp.ctor, nil, false)
	})
	tp.scope = storage.NewLazy(g.storage, "scope of "+name, func() MemberScope {
		var scopes []MemberScope
		for _, b := range d.UpperBounds() {
			scopes = append(scopes, g.TypeMemberScope(b))
		}
		return NewChainedScope("bounds of "+name, scopes...)
	})
	return g.attach(d)
}

func (tp *TypeParamData) Index() int                     { return tp.index }
func (tp *TypeParamData) Variance() types.Variance       { return tp.variance }
func (tp *TypeParamData) IsReified() bool                { return tp.reified }
func (tp *TypeParamData) Constructor() *ParamConstructor { return tp.ctor }

func (tp *TypeParamData) Initialized() bool {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.initialized
}

// AddUpperBound appends a bound. It panics once the parameter is
// initialized.
func (d *Decl) AddUpperBound(t *types.Type) {
	tp := d.typeParam
	fault.Check(tp != nil, "AddUpperBound on %s", d)
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if tp.initialized {
		panic(fault.Precondition("upper bound %s added to initialized %s", t, d))
	}
	tp.bounds = append(tp.bounds, t)
}

// SetUpperBoundsResolver defers bound resolution to fn, called the first
// time the bounds are needed.
func (d *Decl) SetUpperBoundsResolver(fn func() []*types.Type) {
	tp := d.typeParam
	fault.Check(tp != nil, "SetUpperBoundsResolver on %s", d)
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if tp.initialized {
		panic(fault.Precondition("bounds resolver set on initialized %s", d))
	}
	tp.ctor.cell.setResolver(fn)
}

// MarkInitialized freezes the bound list. Without a resolver the added
// bounds are used; no bounds at all means Any?.
func (d *Decl) MarkInitialized() {
	tp := d.typeParam
	fault.Check(tp != nil, "MarkInitialized on %s", d)
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if tp.initialized {
		panic(fault.Precondition("%s is already initialized", d))
	}
	tp.initialized = true
	if !tp.ctor.cell.hasResolver() {
		bounds := tp.bounds
		tp.ctor.cell.setResolver(func() []*types.Type { return bounds })
	}
}

// UpperBounds returns the cycle-free upper bounds.
func (tp *TypeParamData) UpperBounds() []*types.Type {
	if !tp.Initialized() {
		panic(fault.Precondition("upper bounds of %s requested before initialize", tp.ctor.decl))
	}
	return tp.ctor.Supertypes()
}

// UpperBounds is TypeParam().UpperBounds for type parameter decls.
func (d *Decl) UpperBounds() []*types.Type {
	fault.Check(d.typeParam != nil, "%s has no upper bounds", d)
	return d.typeParam.UpperBounds()
}

// TypeParameterScope returns the members reachable through the bounds.
func (d *Decl) TypeParameterScope() MemberScope {
	fault.Check(d.typeParam != nil, "%s is not a type parameter", d)
	return d.typeParam.scope.Force()
}

// ReceiverData is the payload of KindReceiverParameter decls.
type ReceiverData struct {
	kind     ReceiverKind
	typ      *types.Type
	lazyType *storage.Lazy[*types.Type]
}

func (r *ReceiverData) Kind() ReceiverKind { return r.kind }

// Type returns the value type of the receiver.
func (r *ReceiverData) Type() *types.Type {
	if r.lazyType != nil {
		return r.lazyType.Force()
	}
	return r.typ
}

func newReceiver(owner *Decl, kind ReceiverKind, t *types.Type) *Decl {
	name := "<this>"
	if kind == ReceiverContext {
		name = "<context>"
	}
	return &Decl{
		g:        owner.g,
		kind:     KindReceiverParameter,
		name:     owner.g.Intern(name),
		owner:    owner,
		source:   owner.source,
		receiver: &ReceiverData{kind: kind, typ: t},
	}
}

// NewReceiverParameter creates an extension or context receiver of owner.
// Dispatch receivers come from the class's ThisReceiver.
func NewReceiverParameter(g *Graph, owner *Decl, kind ReceiverKind, t *types.Type) *Decl {
	fault.Check(owner != nil && owner.callable != nil, "receiver needs a callable owner")
	fault.Check(kind != ReceiverDispatch, "dispatch receivers belong to classes")
	fault.Check(t != nil, "receiver of %s has no type", owner)
	return g.attach(newReceiver(owner, kind, t))
}

// SubstituteReceiver returns the receiver with its type substituted for
// use at howUsed. The receiver itself comes back when the type does not
// change.
func (d *Decl) SubstituteReceiver(s *types.Substitutor, howUsed types.Variance) (*Decl, bool) {
	fault.Check(d.receiver != nil, "%s is not a receiver", d)
	old := d.receiver.Type()
	t, ok := s.Substitute(old, howUsed)
	if !ok {
		return nil, false
	}
	if t == old {
		return d, true
	}
	r := newReceiver(d.owner, d.receiver.kind, t)
	r.name = d.name
	return r, true
}
