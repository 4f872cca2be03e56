package overriding

import (
	"descgraph/internal/descriptors"
	"descgraph/internal/fault"
)

// IsMoreSpecific reports whether a may stand for b in a fake override:
// its return type is a subtype of b's. A val is never more specific than
// a var, and two vars must have equal types.
func IsMoreSpecific(a, b *descriptors.Decl) bool {
	checker := a.Graph().Checker()
	aRet, bRet := a.ReturnType(), b.ReturnType()
	fault.Check(aRet != nil && bRet != nil, "return type of %s or %s is missing", a, b)

	switch a.Kind() {
	case descriptors.KindFunction:
		fault.Check(b.Kind() == descriptors.KindFunction, "%s is not a function", b)
		return checker.IsSubtype(aRet, bRet)
	case descriptors.KindProperty:
		fault.Check(b.Kind() == descriptors.KindProperty, "%s is not a property", b)
		if a.IsVar() && b.IsVar() {
			return checker.Equal(aRet, bRet)
		}
		return !(!a.IsVar() && b.IsVar()) && checker.IsSubtype(aRet, bRet)
	}
	panic(fault.Precondition("unexpected callable %s", a))
}

func isMoreSpecificThanAll(candidate *descriptors.Decl, all []*descriptors.Decl) bool {
	for _, d := range all {
		if !IsMoreSpecific(candidate, d) {
			return false
		}
	}
	return true
}

// selectMostSpecific picks the member a fake override is copied from.
// When no member beats all others it falls back to the last member that
// beat its predecessors.
func selectMostSpecific(overridables []*descriptors.Decl) *descriptors.Decl {
	fault.Check(len(overridables) > 0, "no overridable members")
	if len(overridables) == 1 {
		return overridables[0]
	}
	var candidates []*descriptors.Decl
	var transitive *descriptors.Decl
	for _, o := range overridables {
		if isMoreSpecificThanAll(o, overridables) {
			candidates = append(candidates, o)
		}
		if transitive == nil || IsMoreSpecific(o, transitive) {
			transitive = o
		}
	}
	if len(candidates) == 0 {
		return transitive
	}
	return candidates[len(candidates)-1]
}
