package overriding

import (
	"strconv"

	"descgraph/internal/descriptors"
	"descgraph/internal/trace"
)

// Sink receives the results of override generation.
type Sink interface {
	AddFakeOverride(fake *descriptors.Decl)
	Conflict(fromSuper, fromCurrent *descriptors.Decl)
}

// GenerateOverridesInGroup binds the members declared in current to
// the supertype members they override, and reports a fake override for
// every group of supertype members left over. All members must carry the
// same name.
func GenerateOverridesInGroup(fromSupertypes, fromCurrent []*descriptors.Decl, current *descriptors.Decl, sink Sink) {
	bound := make(map[*descriptors.Decl]bool)
	for _, member := range fromCurrent {
		for _, b := range extractAndBindOverrides(member, fromSupertypes, current, sink) {
			bound[b] = true
		}
	}
	var notOverridden []*descriptors.Decl
	seen := make(map[*descriptors.Decl]bool, len(fromSupertypes))
	for _, s := range fromSupertypes {
		if bound[s] || seen[s] {
			continue
		}
		seen[s] = true
		notOverridden = append(notOverridden, s)
	}
	createAndBindFakeOverrides(current, notOverridden, sink)
}

func extractAndBindOverrides(member *descriptors.Decl, fromSuper []*descriptors.Decl, current *descriptors.Decl, sink Sink) []*descriptors.Decl {
	var bound []*descriptors.Decl
	for _, s := range fromSuper {
		info := IsOverridableBy(s, member)
		visible := descriptors.IsVisibleFrom(s, current)
		switch info.Result {
		case Overridable:
			if visible {
				member.AddOverridden(s)
			}
			bound = append(bound, s)
		case Conflict:
			if visible {
				sink.Conflict(s, member)
			}
			bound = append(bound, s)
		}
	}
	return bound
}

func createAndBindFakeOverrides(current *descriptors.Decl, notOverridden []*descriptors.Decl, sink Sink) {
	queue := notOverridden
	for len(queue) > 0 {
		var group []*descriptors.Decl
		group, queue = extractOverridableInBothWays(findMemberWithMaxVisibility(queue), queue, sink)
		createAndBindFakeOverride(group, current, sink)
	}
}

// extractOverridableInBothWays removes from queue the members that
// overrider and they can override mutually, and the ones that conflict
// with it. It returns the group and the rest of the queue.
func extractOverridableInBothWays(overrider *descriptors.Decl, queue []*descriptors.Decl, sink Sink) ([]*descriptors.Decl, []*descriptors.Decl) {
	group := []*descriptors.Decl{overrider}
	rest := queue[:0:0]
	for _, candidate := range queue {
		if candidate == overrider {
			continue
		}
		r1 := IsOverridableBy(candidate, overrider).Result
		r2 := IsOverridableBy(overrider, candidate).Result
		switch {
		case r1 == Overridable && r2 == Overridable:
			group = append(group, candidate)
		case r1 == Conflict || r2 == Conflict:
			sink.Conflict(overrider, candidate)
		default:
			rest = append(rest, candidate)
		}
	}
	return group, rest
}

func createAndBindFakeOverride(group []*descriptors.Decl, current *descriptors.Decl, sink Sink) {
	var visible []*descriptors.Decl
	for _, m := range group {
		// nested classes could capture a private member
		if !m.Visibility().IsPrivate() && descriptors.IsVisibleFrom(m, current) {
			visible = append(visible, m)
		}
	}
	allInvisible := len(visible) == 0
	effective := visible
	visibility := descriptors.Inherited
	if allInvisible {
		effective = group
		visibility = descriptors.InvisibleFake
	}

	modality := minimalModality(effective)
	mostSpecific := selectMostSpecific(effective)
	fake, ok := descriptors.Copy(mostSpecific, current, modality, visibility, descriptors.FakeOverride, false)
	if !ok {
		return
	}
	fake.SetOverridden(append([]*descriptors.Decl(nil), effective...))
	g := current.Graph()
	trace.Point(g.Tracer(), trace.ScopeDecl, "override.fake", fake.QualifiedName(), map[string]string{
		"from":       mostSpecific.QualifiedName(),
		"overridden": strconv.Itoa(len(effective)),
	})
	sink.AddFakeOverride(fake)
}

func minimalModality(members []*descriptors.Decl) descriptors.Modality {
	m := descriptors.Abstract
	for _, d := range members {
		if d.Modality() < m {
			m = d.Modality()
		}
	}
	return m
}
