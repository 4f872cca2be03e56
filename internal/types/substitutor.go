package types

import (
	"descgraph/internal/fault"
)

const maxSubstitutionDepth = 100

// Substitutor applies a Substitution to types.
type Substitutor struct {
	subst    Substitution
	builtins *Builtins
}

// NewSubstitutor binds s to the builtins used for approximation. A nil
// substitution behaves as Empty.
func NewSubstitutor(s Substitution, b *Builtins) *Substitutor {
	if s == nil {
		s = Empty
	}
	return &Substitutor{subst: s, builtins: b}
}

func (s *Substitutor) Substitution() Substitution { return s.subst }
func (s *Substitutor) Builtins() *Builtins        { return s.builtins }

func (s *Substitutor) IsEmpty() bool { return s == nil || s.subst.IsEmpty() }

// Substitute rewrites t for use in a position of variance howUsed.
// ok is false when a replacement is projected out: an out-projected or
// star argument used in an in position. An in-projected argument used in an
// out position widens to Any?. The same pointer is returned when nothing
// changes.
func (s *Substitutor) Substitute(t *Type, howUsed Variance) (*Type, bool) {
	if s.IsEmpty() {
		return t, true
	}
	p, ok := s.project(Projected(howUsed, t), 0)
	if !ok {
		return nil, false
	}
	if p.Star {
		return s.builtins.NullableAny, true
	}
	return p.Type, true
}

// SubstituteProjection rewrites a type argument.
func (s *Substitutor) SubstituteProjection(p Projection) (Projection, bool) {
	if s.IsEmpty() {
		return p, true
	}
	return s.project(p, 0)
}

func (s *Substitutor) project(orig Projection, depth int) (Projection, bool) {
	if depth > maxSubstitutionDepth {
		panic(fault.Precondition("type substitution nested deeper than %d on %s", maxSubstitutionDepth, orig.Type))
	}
	if orig.Star {
		return orig, true
	}
	t := orig.Type
	replacement, found := s.subst.Get(t.ctor)
	if !found {
		return s.compound(orig, depth)
	}

	// A star reads as Any? and writes as Nothing.
	rv := replacement.Variance
	if replacement.Star {
		rv = Out
	}
	conflict := conflictOf(orig.Variance, rv)
	switch conflict {
	case outInInPosition:
		return Projection{}, false
	case inInOutPosition:
		return Projected(Out, s.builtins.NullableAny), true
	}
	if replacement.Star {
		return replacement, true
	}

	result := replacement.Type
	if t.nullable {
		result = result.MakeNullable(true)
	}
	kind := orig.Variance
	if conflict == noConflict {
		kind = combine(orig.Variance, replacement.Variance)
	}
	return Projection{Variance: kind, Type: result}, true
}

func (s *Substitutor) compound(orig Projection, depth int) (Projection, bool) {
	t := orig.Type
	if len(t.args) == 0 {
		return orig, true
	}
	params := t.ctor.Parameters()
	var out []Projection
	for i, arg := range t.args {
		sub, ok := s.project(arg, depth+1)
		if !ok {
			return Projection{}, false
		}
		if i < len(params) {
			declared := params[i].Variance()
			switch conflictOf(declared, sub.Variance) {
			case noConflict:
				if declared != Invariant && !sub.Star {
					sub = Projection{Type: sub.Type}
				}
			default:
				sub = StarProjection()
			}
		}
		if out == nil && !sameProjection(sub, arg) {
			out = make([]Projection, len(t.args))
			copy(out, t.args[:i])
		}
		if out != nil {
			out[i] = sub
		}
	}
	if out == nil {
		return orig, true
	}
	return Projection{Variance: orig.Variance, Type: t.Replace(out)}, true
}
