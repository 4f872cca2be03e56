package descriptors

import (
	"sync"

	"descgraph/internal/fault"
	"descgraph/internal/source"
	"descgraph/internal/types"
)

// CallableData is the payload of functions, constructors, properties and
// accessors.
type CallableData struct {
	kind     CallableKind
	modality Modality
	flags    CallableFlags

	visMu      sync.Mutex
	visibility Visibility

	initialized       bool
	typeParams        []*Decl
	valueParams       []*Decl
	dispatchReceiver  *Decl
	extensionReceiver *Decl
	contextReceivers  []*Decl
	returnType        *types.Type

	overridden       overriddenSet
	initialSignature *Decl

	// properties only
	getter *Decl
	setter *Decl
}

func (c *CallableData) Kind() CallableKind      { return c.kind }
func (c *CallableData) Flags() CallableFlags    { return c.flags }
func (c *CallableData) Initialized() bool       { return c.initialized }
func (c *CallableData) InitialSignature() *Decl { return c.initialSignature }
func (c *CallableData) Getter() *Decl           { return c.getter }
func (c *CallableData) Setter() *Decl           { return c.setter }

func (c *CallableData) checkInitialized(d *Decl) {
	if !c.initialized {
		panic(fault.Precondition("%s used before initialize", d))
	}
}

func (c *CallableData) Visibility() Visibility {
	c.visMu.Lock()
	defer c.visMu.Unlock()
	return c.visibility
}

// SetVisibility replaces the visibility. Override resolution uses it to
// settle Inherited and Unknown.
func (d *Decl) SetVisibility(v Visibility) {
	fault.Check(d.callable != nil, "SetVisibility on %s", d)
	d.callable.visMu.Lock()
	defer d.callable.visMu.Unlock()
	d.callable.visibility = v
}

// OverriddenDescriptors returns the members d overrides directly.
func (d *Decl) OverriddenDescriptors() []*Decl {
	if d.callable == nil {
		return nil
	}
	if d.kind.IsAccessor() {
		return d.accessorOverridden()
	}
	return d.callable.overridden.get()
}

// accessorOverridden derives the overridden accessors from the
// properties the owning property overrides.
func (d *Decl) accessorOverridden() []*Decl {
	var out []*Decl
	for _, o := range d.owner.OverriddenDescriptors() {
		acc := o.callable.getter
		if d.kind == KindSetter {
			acc = o.callable.setter
		}
		if acc != nil {
			out = append(out, acc)
		}
	}
	return out
}

// SetOverridden replaces the overridden set.
func (d *Decl) SetOverridden(list []*Decl) {
	fault.Check(d.callable != nil, "SetOverridden on %s", d)
	d.callable.overridden.set(list)
}

// AddOverridden appends one overridden member.
func (d *Decl) AddOverridden(o *Decl) {
	fault.Check(d.callable != nil, "AddOverridden on %s", d)
	d.SetOverridden(append(append([]*Decl(nil), d.OverriddenDescriptors()...), o))
}

func (d *Decl) inheritedFlag(flag CallableFlags) bool {
	if d.callable == nil {
		return false
	}
	if d.callable.flags.Has(flag) {
		return true
	}
	for _, o := range d.OverriddenDescriptors() {
		if o.inheritedFlag(flag) {
			return true
		}
	}
	return false
}

// IsOperator holds if d or anything it overrides is marked operator.
func (d *Decl) IsOperator() bool { return d.inheritedFlag(FlagOperator) }

func (d *Decl) IsInfix() bool { return d.inheritedFlag(FlagInfix) }

// IsHiddenForResolution reports a member that is only reachable through
// super calls.
func (d *Decl) IsHiddenForResolution() bool { return d.inheritedFlag(FlagHiddenForResolution) }

func (d *Decl) IsVar() bool { return d.callable != nil && d.callable.flags.Has(FlagVar) }

func newCallable(g *Graph, kind Kind, owner *Decl, name string, ck CallableKind, sp source.Span, flags CallableFlags) *Decl {
	fault.Check(owner != nil, "%s %s needs an owner", kind, name)
	return &Decl{
		g:      g,
		kind:   kind,
		name:   g.Intern(name),
		owner:  owner,
		source: sp,
		callable: &CallableData{
			kind:       ck,
			flags:      flags,
			visibility: Unknown,
		},
	}
}

// NewFunction creates a function skeleton.
func NewFunction(g *Graph, owner *Decl, name string, kind CallableKind, sp source.Span) *Decl {
	return g.attach(newCallable(g, KindFunction, owner, name, kind, sp, 0))
}

type FunctionInit struct {
	ExtensionReceiver *types.Type
	// DispatchReceiver is the this receiver of the owning class, or nil
	// for top level functions.
	DispatchReceiver *Decl
	ContextReceivers []*types.Type
	TypeParameters   []*Decl
	ValueParameters  []*Decl
	ReturnType       *types.Type
	Modality         Modality
	Visibility       Visibility
	Flags            CallableFlags
	Annotations      []string
}

// InitializeFunction completes a function skeleton. Type and value
// parameters must already be owned by d and indexed by position.
func InitializeFunction(d *Decl, init FunctionInit) {
	fault.Check(d.kind == KindFunction, "InitializeFunction on %s", d)
	c := d.callable
	fault.Check(!c.initialized, "%s is already initialized", d)
	checkTypeParameterIndices(d, init.TypeParameters)
	checkValueParameters(d, init.ValueParameters)

	c.typeParams = init.TypeParameters
	c.valueParams = init.ValueParameters
	c.dispatchReceiver = init.DispatchReceiver
	if init.ExtensionReceiver != nil {
		c.extensionReceiver = newReceiver(d, ReceiverExtension, init.ExtensionReceiver)
	}
	for _, t := range init.ContextReceivers {
		c.contextReceivers = append(c.contextReceivers, newReceiver(d, ReceiverContext, t))
	}
	c.returnType = init.ReturnType
	c.modality = init.Modality
	c.visibility = init.Visibility
	c.flags |= init.Flags
	d.annotations = append(d.annotations, init.Annotations...)
	c.initialized = true
	d.g.adopt(d)
}

// NewConstructor creates a constructor skeleton of class.
func NewConstructor(g *Graph, class *Decl, primary bool, kind CallableKind, sp source.Span) *Decl {
	fault.Check(class != nil && class.kind == KindClass, "constructor needs a class owner")
	var flags CallableFlags
	if primary {
		flags |= FlagPrimary
	}
	return g.attach(newCallable(g, KindConstructor, class, "<init>", kind, sp, flags))
}

type ConstructorInit struct {
	ValueParameters []*Decl
	Visibility      Visibility
	Annotations     []string
}

// InitializeConstructor completes a constructor. Its return type is the
// default type of the owning class and its dispatch receiver is the
// receiver of the enclosing class for inner classes.
func InitializeConstructor(d *Decl, init ConstructorInit) {
	fault.Check(d.kind == KindConstructor, "InitializeConstructor on %s", d)
	c := d.callable
	fault.Check(!c.initialized, "%s is already initialized", d)
	checkValueParameters(d, init.ValueParameters)

	class := d.owner
	c.valueParams = init.ValueParameters
	c.modality = Final
	c.visibility = init.Visibility
	if class.class.inner {
		if outer := class.containingClass(); outer != nil {
			c.dispatchReceiver = outer.ThisReceiver()
		}
	}
	d.annotations = append(d.annotations, init.Annotations...)
	c.initialized = true
	d.g.adopt(d)
}

// IsPrimary reports a primary constructor.
func (d *Decl) IsPrimary() bool {
	return d.kind == KindConstructor && d.callable.flags.Has(FlagPrimary)
}

// NewProperty creates a property skeleton. flags may carry FlagVar,
// FlagConst and FlagLateinit.
func NewProperty(g *Graph, owner *Decl, name string, kind CallableKind, sp source.Span, flags CallableFlags) *Decl {
	return g.attach(newCallable(g, KindProperty, owner, name, kind, sp, flags&(FlagVar|FlagConst|FlagLateinit|FlagExpect|FlagExternal)))
}

type PropertyInit struct {
	Type              *types.Type
	TypeParameters    []*Decl
	DispatchReceiver  *Decl
	ExtensionReceiver *types.Type
	ContextReceivers  []*types.Type
	Modality          Modality
	Visibility        Visibility
	// Getter and Setter come from NewGetter and NewSetter. A var
	// property without a setter is allowed; the setter is just absent.
	Getter      *Decl
	Setter      *Decl
	Annotations []string
}

// InitializeProperty completes a property. Accessors are initialized
// separately with InitializeAccessor once the property type is set.
func InitializeProperty(d *Decl, init PropertyInit) {
	fault.Check(d.kind == KindProperty, "InitializeProperty on %s", d)
	c := d.callable
	fault.Check(!c.initialized, "%s is already initialized", d)
	fault.Check(init.Type != nil, "property %s has no type", d)
	checkTypeParameterIndices(d, init.TypeParameters)
	for _, acc := range []*Decl{init.Getter, init.Setter} {
		if acc != nil {
			fault.Check(acc.owner == d, "%s is not an accessor of %s", acc, d)
		}
	}
	fault.Check(init.Getter == nil || init.Getter.kind == KindGetter, "%s is not a getter", init.Getter)
	fault.Check(init.Setter == nil || init.Setter.kind == KindSetter, "%s is not a setter", init.Setter)

	c.typeParams = init.TypeParameters
	c.returnType = init.Type
	c.dispatchReceiver = init.DispatchReceiver
	if init.ExtensionReceiver != nil {
		c.extensionReceiver = newReceiver(d, ReceiverExtension, init.ExtensionReceiver)
	}
	for _, t := range init.ContextReceivers {
		c.contextReceivers = append(c.contextReceivers, newReceiver(d, ReceiverContext, t))
	}
	c.modality = init.Modality
	c.visibility = init.Visibility
	c.getter = init.Getter
	c.setter = init.Setter
	d.annotations = append(d.annotations, init.Annotations...)
	c.initialized = true
	d.g.adopt(d)
}

// AccessorSpec holds the modifiers of an accessor.
type AccessorSpec struct {
	Modality   Modality
	Visibility Visibility
	Default    bool // no body written
	External   bool
	Inline     bool
	Source     source.Span
}

// NewGetter creates the getter skeleton of property.
func NewGetter(g *Graph, property *Decl, spec AccessorSpec) *Decl {
	return g.attach(newAccessor(g, KindGetter, property, spec))
}

// NewSetter creates the setter skeleton of property.
func NewSetter(g *Graph, property *Decl, spec AccessorSpec) *Decl {
	return g.attach(newAccessor(g, KindSetter, property, spec))
}

func newAccessor(g *Graph, kind Kind, property *Decl, spec AccessorSpec) *Decl {
	fault.Check(property != nil && property.kind == KindProperty, "%s needs a property owner", kind)
	var flags CallableFlags
	flags = flags.With(FlagDefault, spec.Default)
	flags = flags.With(FlagExternal, spec.External)
	flags = flags.With(FlagInline, spec.Inline)
	name := "<get-" + property.NameString() + ">"
	if kind == KindSetter {
		name = "<set-" + property.NameString() + ">"
	}
	d := newCallable(g, kind, property, name, property.callable.kind, spec.Source, flags)
	d.callable.modality = spec.Modality
	d.callable.visibility = spec.Visibility
	return d
}

// InitializeAccessor completes an accessor after its property. A getter
// with a nil returnType returns the property type; a setter gets a single
// "value" parameter of the property type and returns Unit.
func InitializeAccessor(acc *Decl, returnType *types.Type) {
	fault.Check(acc.kind.IsAccessor(), "InitializeAccessor on %s", acc)
	c := acc.callable
	fault.Check(!c.initialized, "%s is already initialized", acc)
	prop := acc.owner
	prop.callable.checkInitialized(prop)

	c.dispatchReceiver = prop.callable.dispatchReceiver
	c.extensionReceiver = nil
	switch acc.kind {
	case KindGetter:
		if returnType == nil {
			returnType = prop.callable.returnType
		}
		c.returnType = returnType
	case KindSetter:
		c.valueParams = []*Decl{{
			g:      acc.g,
			kind:   KindValueParameter,
			name:   acc.g.Intern("value"),
			owner:  acc,
			source: acc.source,
			param:  &ValueParamData{index: 0, typ: prop.callable.returnType},
		}}
		c.returnType = acc.g.builtins.Unit
	}
	c.initialized = true
	acc.g.adopt(acc)
}

// Property returns the property an accessor belongs to.
func (d *Decl) Property() *Decl {
	fault.Check(d.kind.IsAccessor(), "%s is not an accessor", d)
	return d.owner
}

// Accessors returns the getter and setter that exist, in that order.
func (d *Decl) Accessors() []*Decl {
	if d.kind != KindProperty {
		return nil
	}
	var out []*Decl
	if d.callable.getter != nil {
		out = append(out, d.callable.getter)
	}
	if d.callable.setter != nil {
		out = append(out, d.callable.setter)
	}
	return out
}

func checkTypeParameterIndices(owner *Decl, params []*Decl) {
	for i, p := range params {
		fault.Check(p.kind == KindTypeParameter, "%s is not a type parameter", p)
		if p.typeParam.index != i {
			panic(fault.Precondition("type parameter %s of %s has index %d but position %d", p.NameString(), owner, p.typeParam.index, i))
		}
		fault.Check(p.owner == owner, "type parameter %s is not owned by %s", p.NameString(), owner)
	}
}

func checkValueParameters(owner *Decl, params []*Decl) {
	for i, p := range params {
		fault.Check(p.kind == KindValueParameter, "%s is not a value parameter", p)
		if p.param.index != i {
			panic(fault.Precondition("value parameter %s of %s has index %d but position %d", p.NameString(), owner, p.param.index, i))
		}
		fault.Check(p.owner == owner, "value parameter %s is not owned by %s", p.NameString(), owner)
	}
}
