package overriding

import (
	"fmt"

	"descgraph/internal/descriptors"
	"descgraph/internal/fault"
	"descgraph/internal/types"
)

// Result classifies a pair of callables.
type Result uint8

const (
	Overridable Result = iota
	Incompatible
	Conflict
)

func (r Result) String() string {
	switch r {
	case Overridable:
		return "overridable"
	case Incompatible:
		return "incompatible"
	case Conflict:
		return "conflict"
	default:
		return fmt.Sprintf("Result(%d)", r)
	}
}

// Info is a Result with the reason, for diagnostics and tests.
type Info struct {
	Result  Result
	Message string
}

func success() Info                { return Info{Result: Overridable, Message: "success"} }
func incompatible(msg string) Info { return Info{Result: Incompatible, Message: msg} }
func conflict(msg string) Info     { return Info{Result: Conflict, Message: msg} }

// IsOverridableBy reports whether sub can override super. Return types
// are not compared.
func IsOverridableBy(super, sub *descriptors.Decl) Info {
	return isOverridableBy(super.Graph().Checker(), super, sub, false)
}

// IsOverridableByIncludingReturnType also requires the return type of
// sub to be a subtype of the return type of super.
func IsOverridableByIncludingReturnType(super, sub *descriptors.Decl) Info {
	return isOverridableBy(super.Graph().Checker(), super, sub, true)
}

func isOverridableBy(checker *types.Checker, super, sub *descriptors.Decl, checkReturnType bool) Info {
	switch super.Kind() {
	case descriptors.KindFunction, descriptors.KindProperty:
		if sub.Kind() != super.Kind() {
			return incompatible("member kind mismatch")
		}
	default:
		panic(fault.Precondition("%s cannot be checked for overridability", super))
	}

	if super.Name() != sub.Name() {
		return incompatible("name mismatch")
	}
	if (super.ExtensionReceiver() == nil) != (sub.ExtensionReceiver() == nil) {
		return incompatible("receiver presence mismatch")
	}
	if len(super.ValueParameters()) != len(sub.ValueParameters()) {
		return incompatible("value parameter number mismatch")
	}

	superParams := signatureTypes(super)
	subParams := signatureTypes(sub)
	superTPs := super.TypeParameters()
	subTPs := sub.TypeParameters()

	if len(superTPs) != len(subTPs) {
		for i := range superParams {
			if !checker.Equal(superParams[i], subParams[i]) {
				return incompatible("type parameter number mismatch")
			}
		}
		return conflict("type parameter number mismatch")
	}

	matching := checkerFor(checker, superTPs, subTPs)
	for i := range superTPs {
		if !equivalentBounds(superTPs[i], subTPs[i], matching) {
			return incompatible("type parameter bounds mismatch")
		}
	}
	for i := range superParams {
		if !equivalent(superParams[i], subParams[i], matching) {
			return incompatible("value parameter type mismatch")
		}
	}

	if checkReturnType {
		superRet, subRet := super.ReturnType(), sub.ReturnType()
		if superRet != nil && subRet != nil {
			bothErrors := superRet.IsError() && subRet.IsError()
			if !bothErrors && !matching.IsSubtype(subRet, superRet) {
				return conflict("return type mismatch")
			}
		}
	}
	return success()
}

// signatureTypes lists the extension receiver type, if any, followed by
// the value parameter types.
func signatureTypes(d *descriptors.Decl) []*types.Type {
	var out []*types.Type
	if r := d.ExtensionReceiver(); r != nil {
		out = append(out, r.Type())
	}
	for _, p := range d.ValueParameters() {
		out = append(out, p.Type())
	}
	return out
}

// checkerFor identifies the i-th type parameter of one signature with
// the i-th of the other.
func checkerFor(base *types.Checker, first, second []*descriptors.Decl) *types.Checker {
	if len(first) == 0 {
		return base
	}
	pairs := make(map[types.Constructor]types.Constructor, 2*len(first))
	for i := range first {
		a := first[i].TypeParam().Constructor()
		b := second[i].TypeParam().Constructor()
		pairs[a] = b
		pairs[b] = a
	}
	return base.WithAxioms(func(a, b types.Constructor) bool {
		img, ok := pairs[a]
		return ok && img == b
	})
}

func equivalent(inSuper, inSub *types.Type, checker *types.Checker) bool {
	bothErrors := inSuper.IsError() && inSub.IsError()
	return bothErrors || checker.Equal(inSuper, inSub)
}

// equivalentBounds matches the bounds of two type parameters as
// multisets.
func equivalentBounds(super, sub *descriptors.Decl, checker *types.Checker) bool {
	superBounds := super.UpperBounds()
	subBounds := append([]*types.Type(nil), sub.UpperBounds()...)
	if len(superBounds) != len(subBounds) {
		return false
	}
outer:
	for _, sb := range superBounds {
		for i, b := range subBounds {
			if equivalent(sb, b, checker) {
				subBounds = append(subBounds[:i], subBounds[i+1:]...)
				continue outer
			}
		}
		return false
	}
	return true
}
