package descriptors

// Visitor holds one handler per decl kind. A nil handler falls back:
// constructors and accessors to Function, everything to Default, and
// finally to the zero R.
type Visitor[R, D any] struct {
	Module            func(d *Decl, data D) R
	Class             func(d *Decl, data D) R
	Constructor       func(d *Decl, data D) R
	Function          func(d *Decl, data D) R
	Property          func(d *Decl, data D) R
	Getter            func(d *Decl, data D) R
	Setter            func(d *Decl, data D) R
	ValueParameter    func(d *Decl, data D) R
	TypeParameter     func(d *Decl, data D) R
	ReceiverParameter func(d *Decl, data D) R
	Default           func(d *Decl, data D) R
}

// Accept dispatches d to the matching handler of v.
func Accept[R, D any](d *Decl, v Visitor[R, D], data D) R {
	var h func(*Decl, D) R
	switch d.kind {
	case KindModule:
		h = v.Module
	case KindClass:
		h = v.Class
	case KindConstructor:
		h = first(v.Constructor, v.Function)
	case KindFunction:
		h = v.Function
	case KindProperty:
		h = v.Property
	case KindGetter:
		h = first(v.Getter, v.Function)
	case KindSetter:
		h = first(v.Setter, v.Function)
	case KindValueParameter:
		h = v.ValueParameter
	case KindTypeParameter:
		h = v.TypeParameter
	case KindReceiverParameter:
		h = v.ReceiverParameter
	}
	if h == nil {
		h = v.Default
	}
	if h == nil {
		var zero R
		return zero
	}
	return h(d, data)
}

func first[R, D any](hs ...func(*Decl, D) R) func(*Decl, D) R {
	for _, h := range hs {
		if h != nil {
			return h
		}
	}
	return nil
}

// Accept is Accept with untyped results.
func (d *Decl) Accept(v Visitor[any, any], data any) any {
	return Accept(d, v, data)
}

// Walk calls fn for d and, depth first, for every decl it contains:
// type parameters, receivers, value parameters, accessors, constructors
// and declared members. fn returning false skips the children.
func Walk(d *Decl, fn func(*Decl) bool) {
	if d == nil || !fn(d) {
		return
	}
	switch {
	case d.class != nil && d.class.Initialized():
		for _, tp := range d.TypeParameters() {
			Walk(tp, fn)
		}
		for _, c := range d.Constructors() {
			Walk(c, fn)
		}
		for _, m := range d.UnsubstitutedMemberScope().ContributedDescriptors() {
			if m.owner == d {
				Walk(m, fn)
			}
		}
	case d.callable != nil && d.callable.initialized:
		c := d.callable
		for _, tp := range c.typeParams {
			Walk(tp, fn)
		}
		if c.extensionReceiver != nil {
			Walk(c.extensionReceiver, fn)
		}
		for _, r := range c.contextReceivers {
			Walk(r, fn)
		}
		for _, p := range c.valueParams {
			Walk(p, fn)
		}
		Walk(c.getter, fn)
		Walk(c.setter, fn)
	}
}
