package descriptors

import (
	"fmt"

	"descgraph/internal/fault"
)

// Visibility of a declaration. Inherited marks an override whose
// visibility is derived from what it overrides; InvisibleFake marks fake
// overrides of members nobody can see.
type Visibility uint8

const (
	Public Visibility = iota
	Protected
	Internal
	Private
	PrivateToThis
	Local
	Inherited
	InvisibleFake
	Unknown
)

func (v Visibility) String() string {
	switch v {
	case Public:
		return "public"
	case Protected:
		return "protected"
	case Internal:
		return "internal"
	case Private:
		return "private"
	case PrivateToThis:
		return "private/*private to this*/"
	case Local:
		return "local"
	case Inherited:
		return "inherited"
	case InvisibleFake:
		return "invisible_fake"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("Visibility(%d)", v)
	}
}

func ParseVisibility(s string) (Visibility, bool) {
	switch s {
	case "public":
		return Public, true
	case "protected":
		return Protected, true
	case "internal":
		return Internal, true
	case "private":
		return Private, true
	case "private-to-this":
		return PrivateToThis, true
	case "local":
		return Local, true
	case "inherited":
		return Inherited, true
	}
	return 0, false
}

func (v Visibility) rank() (int, bool) {
	switch v {
	case PrivateToThis, Private:
		return 0, true
	case Internal, Protected:
		return 1, true
	case Public:
		return 2, true
	}
	return 0, false
}

// CompareVisibility orders a and b by permissiveness. ok is false when
// the two are incomparable, e.g. protected and internal.
func CompareVisibility(a, b Visibility) (cmp int, ok bool) {
	if a == b {
		return 0, true
	}
	ra, okA := a.rank()
	rb, okB := b.rank()
	if !okA || !okB || ra == rb {
		return 0, false
	}
	return ra - rb, true
}

// Normalize maps visibilities with identical effect to one spelling.
func (v Visibility) Normalize() Visibility {
	if v == PrivateToThis {
		return Private
	}
	return v
}

func (v Visibility) IsPrivate() bool { return v == Private || v == PrivateToThis }

// IsVisibleFrom reports whether member can be seen from inside from,
// ignoring receivers.
func IsVisibleFrom(member, from *Decl) bool {
	switch member.Visibility() {
	case Public, Internal:
		return true
	case InvisibleFake:
		return false
	case Protected:
		owner := member.containingClass()
		if owner == nil {
			return true
		}
		for c := from.selfOrContainingClass(); c != nil; c = c.containingClass() {
			if IsSubclassOf(c, owner) {
				return true
			}
		}
		return false
	case Private, PrivateToThis:
		owner := member.containingClass()
		if owner == nil {
			return member.Source().File == from.Source().File
		}
		for c := from.selfOrContainingClass(); c != nil; c = c.containingClass() {
			if c.Original() == owner.Original() {
				return true
			}
		}
		return false
	case Local:
		for o := from; o != nil; o = o.Owner() {
			if o.Original() == member.Owner().Original() {
				return true
			}
		}
		return false
	}
	panic(fault.Precondition("visibility check on %s with unresolved visibility %s", member, member.Visibility()))
}

// IsSubclassOf reports whether sub is super or inherits from it.
func IsSubclassOf(sub, super *Decl) bool {
	target := super.Original()
	seen := map[*Decl]bool{}
	queue := []*Decl{sub.Original()}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == target {
			return true
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		for _, st := range c.Supertypes() {
			if cc, ok := st.Constructor().(*ClassConstructor); ok {
				queue = append(queue, cc.decl)
			}
		}
	}
	return false
}
