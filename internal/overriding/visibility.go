package overriding

import (
	"descgraph/internal/descriptors"
	"descgraph/internal/fault"
)

// FindMaxVisibility returns the visibility that is at least as wide as
// every member's. ok is false when some pair is incomparable. No
// members at all means Public.
func FindMaxVisibility(members []*descriptors.Decl) (descriptors.Visibility, bool) {
	if len(members) == 0 {
		return descriptors.Public, true
	}
	var widest descriptors.Visibility
	found := false
	for _, m := range members {
		v := m.Visibility()
		fault.Check(v != descriptors.Inherited, "visibility of %s is not resolved", m)
		if !found {
			widest, found = v, true
			continue
		}
		cmp, ok := descriptors.CompareVisibility(v, widest)
		if !ok {
			found = false
			continue
		}
		if cmp > 0 {
			widest = v
		}
	}
	if !found {
		return 0, false
	}
	for _, m := range members {
		cmp, ok := descriptors.CompareVisibility(widest, m.Visibility())
		if !ok || cmp < 0 {
			return 0, false
		}
	}
	return widest, true
}

// findMemberWithMaxVisibility picks the first member no later member is
// strictly wider than.
func findMemberWithMaxVisibility(members []*descriptors.Decl) *descriptors.Decl {
	var best *descriptors.Decl
	for _, c := range members {
		if best == nil {
			best = c
			continue
		}
		if cmp, ok := descriptors.CompareVisibility(best.Visibility(), c.Visibility()); ok && cmp < 0 {
			best = c
		}
	}
	return best
}

// ResolveUnknownVisibility settles Inherited visibilities on member and,
// first, on everything it overrides. When no visibility can be inferred
// the member becomes Public and cannotInfer is called with it.
func ResolveUnknownVisibility(member *descriptors.Decl, cannotInfer func(*descriptors.Decl)) {
	for _, o := range member.OverriddenDescriptors() {
		if o.Visibility() == descriptors.Inherited {
			ResolveUnknownVisibility(o, cannotInfer)
		}
	}
	if member.Visibility() != descriptors.Inherited {
		return
	}

	widest, ok := computeVisibilityToInherit(member)
	inherit := widest
	if !ok {
		if cannotInfer != nil {
			cannotInfer(member)
		}
		inherit = descriptors.Public
	}
	member.SetVisibility(inherit)

	if member.Kind() == descriptors.KindProperty {
		next := cannotInfer
		if !ok {
			// already reported for the property
			next = nil
		}
		for _, acc := range member.Accessors() {
			ResolveUnknownVisibility(acc, next)
		}
	}
}

func computeVisibilityToInherit(member *descriptors.Decl) (descriptors.Visibility, bool) {
	overridden := member.OverriddenDescriptors()
	widest, ok := FindMaxVisibility(overridden)
	if !ok {
		return 0, false
	}
	if member.Callable().Kind() == descriptors.FakeOverride {
		for _, o := range overridden {
			// the implementation must be as visible as the widest member
			if o.Modality() != descriptors.Abstract && o.Visibility() != widest {
				return 0, false
			}
		}
		return widest, true
	}
	return widest.Normalize(), true
}
