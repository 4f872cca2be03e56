package descriptors

import (
	"strings"
	"sync"

	"descgraph/internal/fault"
	"descgraph/internal/source"
	"descgraph/internal/storage"
	"descgraph/internal/types"
)

// Decl is a declaration descriptor. Exactly one payload pointer matching
// kind is non-nil.
type Decl struct {
	g           *Graph
	id          DeclID
	kind        Kind
	name        source.StringID
	owner       *Decl
	original    *Decl
	source      source.Span
	annotations []string

	class     *ClassData
	callable  *CallableData
	param     *ValueParamData
	typeParam *TypeParamData
	receiver  *ReceiverData
}

func (d *Decl) Graph() *Graph               { return d.g }
func (d *Decl) ID() DeclID                  { return d.id }
func (d *Decl) Kind() Kind                  { return d.kind }
func (d *Decl) Name() source.StringID       { return d.name }
func (d *Decl) NameString() string          { return d.g.NameOf(d.name) }
func (d *Decl) Owner() *Decl                { return d.owner }
func (d *Decl) Source() source.Span         { return d.source }
func (d *Decl) Annotations() []string       { return d.annotations }
func (d *Decl) Class() *ClassData           { return d.class }
func (d *Decl) Callable() *CallableData     { return d.callable }
func (d *Decl) ValueParam() *ValueParamData { return d.param }
func (d *Decl) TypeParam() *TypeParamData   { return d.typeParam }
func (d *Decl) Receiver() *ReceiverData     { return d.receiver }

// Original follows original links to the root. The root is its own
// original.
func (d *Decl) Original() *Decl {
	o := d
	for o.original != nil && o.original != o {
		o = o.original
	}
	return o
}

// HasAnnotation reports whether name is among the annotations.
func (d *Decl) HasAnnotation(name string) bool {
	for _, a := range d.annotations {
		if a == name {
			return true
		}
	}
	return false
}

// QualifiedName joins the names of d and its owners, stopping at the
// module.
func (d *Decl) QualifiedName() string {
	var parts []string
	for o := d; o != nil && o.kind != KindModule; o = o.owner {
		switch o.kind {
		case KindGetter:
			parts = append(parts, "<get>")
		case KindSetter:
			parts = append(parts, "<set>")
		case KindConstructor:
			parts = append(parts, "<init>")
		default:
			parts = append(parts, o.NameString())
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

func (d *Decl) String() string {
	if d == nil {
		return "<nil>"
	}
	return d.kind.String() + " " + d.QualifiedName()
}

// containingClass returns the nearest class strictly enclosing d.
func (d *Decl) containingClass() *Decl {
	for o := d.owner; o != nil; o = o.owner {
		if o.kind == KindClass {
			return o
		}
	}
	return nil
}

func (d *Decl) selfOrContainingClass() *Decl {
	if d.kind == KindClass {
		return d
	}
	return d.containingClass()
}

// ownedChildren lists the decls published together with d.
func (d *Decl) ownedChildren() []*Decl {
	var out []*Decl
	add := func(c *Decl) {
		if c != nil && c.owner == d {
			out = append(out, c)
		}
	}
	switch {
	case d.callable != nil:
		c := d.callable
		for _, tp := range c.typeParams {
			add(tp)
		}
		if r := c.dispatchReceiver; r != nil && r.id == NoDecl {
			// substituted dispatch receivers stay owned by the class
			out = append(out, r)
		}
		add(c.extensionReceiver)
		for _, r := range c.contextReceivers {
			add(r)
		}
		for _, p := range c.valueParams {
			add(p)
		}
		add(c.getter)
		add(c.setter)
	case d.class != nil:
		for _, tp := range d.class.typeParams {
			add(tp)
		}
		add(d.class.thisReceiver)
	}
	return out
}

// TypeParameters returns declared type parameters of classes and
// callables, nil for other kinds.
func (d *Decl) TypeParameters() []*Decl {
	switch {
	case d.class != nil:
		return d.class.TypeParameters()
	case d.callable != nil:
		d.callable.checkInitialized(d)
		return d.callable.typeParams
	}
	return nil
}

// HasTypeParameters reports whether d can carry type parameters.
func (d *Decl) HasTypeParameters() bool { return d.class != nil || d.callable != nil }

// HasValueParameters reports whether d is a callable with a value
// parameter list (properties have none).
func (d *Decl) HasValueParameters() bool {
	return d.callable != nil && d.kind != KindProperty
}

// HasReceivers reports whether d can have dispatch or extension receivers.
func (d *Decl) HasReceivers() bool { return d.callable != nil }

func (d *Decl) ValueParameters() []*Decl {
	if d.callable == nil {
		return nil
	}
	d.callable.checkInitialized(d)
	return d.callable.valueParams
}

func (d *Decl) DispatchReceiver() *Decl {
	if d.callable == nil {
		return nil
	}
	d.callable.checkInitialized(d)
	return d.callable.dispatchReceiver
}

func (d *Decl) ExtensionReceiver() *Decl {
	if d.callable == nil {
		return nil
	}
	d.callable.checkInitialized(d)
	return d.callable.extensionReceiver
}

func (d *Decl) ContextReceivers() []*Decl {
	if d.callable == nil {
		return nil
	}
	d.callable.checkInitialized(d)
	return d.callable.contextReceivers
}

// ReturnType is the return type of a callable, the type of a property,
// the type of a value parameter, or the value type of a receiver.
func (d *Decl) ReturnType() *types.Type {
	switch {
	case d.callable != nil:
		d.callable.checkInitialized(d)
		if d.callable.returnType == nil && d.kind == KindConstructor {
			return d.owner.DefaultType()
		}
		return d.callable.returnType
	case d.param != nil:
		return d.param.typ
	case d.receiver != nil:
		return d.receiver.Type()
	}
	return nil
}

// Type is ReturnType under the name used for properties and parameters.
func (d *Decl) Type() *types.Type { return d.ReturnType() }

// Modality of a class or callable.
func (d *Decl) Modality() Modality {
	switch {
	case d.class != nil:
		return d.class.modality
	case d.callable != nil:
		return d.callable.modality
	}
	return Final
}

// Visibility of a class or callable. Parameters are Local; modules are
// Public.
func (d *Decl) Visibility() Visibility {
	switch {
	case d.class != nil:
		return d.class.visibility
	case d.callable != nil:
		return d.callable.Visibility()
	case d.kind == KindModule:
		return Public
	}
	return Local
}

// DefaultType is the type of a class applied to its own type
// parameters, or the type of a type parameter.
func (d *Decl) DefaultType() *types.Type {
	switch {
	case d.class != nil:
		return d.class.defaultType.Force()
	case d.typeParam != nil:
		return d.typeParam.defaultType.Force()
	}
	panic(fault.Precondition("%s has no default type", d))
}

// Supertypes returns the cycle-free supertypes of a class or the upper
// bounds of a type parameter.
func (d *Decl) Supertypes() []*types.Type {
	switch {
	case d.class != nil:
		return d.class.Supertypes()
	case d.typeParam != nil:
		return d.typeParam.UpperBounds()
	}
	return nil
}

// overriddenSet holds the overridden descriptors of a callable, either
// as a plain list or as a lazily computed one.
type overriddenSet struct {
	mu   sync.Mutex
	list []*Decl
	lazy *storage.Lazy[[]*Decl]
}

func (s *overriddenSet) get() []*Decl {
	s.mu.Lock()
	lazy := s.lazy
	list := s.list
	s.mu.Unlock()
	if lazy != nil {
		return lazy.Force()
	}
	return list
}

func (s *overriddenSet) set(list []*Decl) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = list
	s.lazy = nil
}

func (s *overriddenSet) setLazy(l *storage.Lazy[[]*Decl]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = nil
	s.lazy = l
}

func (s *overriddenSet) share() (*storage.Lazy[[]*Decl], []*Decl) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lazy, s.list
}
