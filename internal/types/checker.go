package types

// Checker compares types.
type Checker struct {
	builtins *Builtins
	axioms   func(a, b Constructor) bool

	// ErrorsMatchAnything makes an error type equal to, and a subtype of,
	// every type.
	ErrorsMatchAnything bool
}

// NewChecker returns a checker where error types match anything.
func NewChecker(b *Builtins) *Checker {
	return &Checker{builtins: b, ErrorsMatchAnything: true}
}

// WithAxioms returns a copy of c that additionally treats constructors
// as equal when axioms says so. Override matching uses it to identify the
// type parameters of two generic signatures.
func (c *Checker) WithAxioms(axioms func(a, b Constructor) bool) *Checker {
	cp := *c
	cp.axioms = axioms
	return &cp
}

func (c *Checker) sameConstructor(a, b Constructor) bool {
	return a == b || (c.axioms != nil && c.axioms(a, b))
}

// Equal reports whether a and b denote the same type.
func (c *Checker) Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.IsError() || b.IsError() {
		return c.ErrorsMatchAnything
	}
	if a.nullable != b.nullable || !c.sameConstructor(a.ctor, b.ctor) || len(a.args) != len(b.args) {
		return false
	}
	for i := range a.args {
		if !c.equalProjection(a.args[i], b.args[i]) {
			return false
		}
	}
	return true
}

func (c *Checker) equalProjection(a, b Projection) bool {
	if a.Star || b.Star {
		return a.Star == b.Star
	}
	return a.Variance == b.Variance && c.Equal(a.Type, b.Type)
}

// IsSubtype reports whether sub is a subtype of super. Nothing is the
// bottom type and Any? the top type.
func (c *Checker) IsSubtype(sub, super *Type) bool {
	if c.Equal(sub, super) {
		return true
	}
	if sub == nil || super == nil {
		return false
	}
	if sub.IsError() || super.IsError() {
		return c.ErrorsMatchAnything
	}
	if sub.nullable && !super.nullable {
		return false
	}
	if IsNothing(sub) || IsAny(super) {
		return true
	}

	base := sub.MakeNullable(false)
	for _, candidate := range c.supertypesWith(base, super.ctor) {
		if c.argumentsFit(candidate, super) {
			return true
		}
	}
	return false
}

// supertypesWith walks the supertype graph of t and returns every
// supertype headed by target, with t's arguments substituted in.
func (c *Checker) supertypesWith(t *Type, target Constructor) []*Type {
	var found []*Type
	visited := make(map[Constructor]bool)
	queue := []*Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if c.sameConstructor(cur.ctor, target) {
			found = append(found, cur)
			continue
		}
		if visited[cur.ctor] {
			continue
		}
		visited[cur.ctor] = true

		subst := NewSubstitutor(NewSubstitution(cur.ctor.Parameters(), cur.args), c.builtins)
		for _, st := range cur.ctor.Supertypes() {
			if st == nil || st.IsError() {
				continue
			}
			next, ok := subst.Substitute(st, Invariant)
			if !ok {
				continue
			}
			queue = append(queue, next.MakeNullable(false))
		}
	}
	return found
}

func (c *Checker) argumentsFit(sub, super *Type) bool {
	if len(sub.args) != len(super.args) {
		return false
	}
	params := super.ctor.Parameters()
	for i, sp := range super.args {
		if sp.Star {
			continue
		}
		bp := sub.args[i]
		if bp.Star {
			return false
		}
		declared := Invariant
		if i < len(params) {
			declared = params[i].Variance()
		}
		want := combine(declared, sp.Variance)
		have := combine(declared, bp.Variance)
		switch want {
		case Out:
			if have == In || !c.IsSubtype(bp.Type, sp.Type) {
				return false
			}
		case In:
			if have == Out || !c.IsSubtype(sp.Type, bp.Type) {
				return false
			}
		default:
			if have != Invariant || !c.Equal(bp.Type, sp.Type) {
				return false
			}
		}
	}
	return true
}
