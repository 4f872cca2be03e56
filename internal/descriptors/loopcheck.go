package descriptors

import (
	"github.com/bits-and-blooms/bitset"

	"descgraph/internal/diag"
	"descgraph/internal/trace"
	"descgraph/internal/types"
)

// checkLoops replaces every edge of set that leads back to the owner
// with an error type. It runs while the cell is post-computing, so the
// raw list of the owner is visible to the walk.
func (c *supertypeCell) checkLoops(set supertypeSet) {
	owner := c.owner
	for i, st := range set.all {
		if !reaches(st.Constructor(), owner) {
			continue
		}
		msg := "cyclic supertype " + st.String() + " of " + owner.QualifiedName()
		if owner.kind == KindTypeParameter {
			msg = "cyclic upper bound " + st.String() + " of " + owner.NameString()
		}
		set.acyclic[i] = types.NewErrorType(msg)
		owner.g.report(c.code, diag.SevError, owner, msg)
		trace.Point(owner.g.tracer, trace.ScopeLazy, "supertype.loop", msg, map[string]string{
			"owner": owner.QualifiedName(),
			"edge":  st.String(),
		})
	}
}

// reaches walks raw supertype edges from start and reports whether the
// walk arrives at target.
func reaches(start types.Constructor, target *Decl) bool {
	var seen bitset.BitSet
	unpublished := make(map[*Decl]bool)
	stack := []types.Constructor{start}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		d := DeclOf(top)
		if d == nil {
			continue
		}
		if d == target {
			return true
		}
		if d.id == NoDecl {
			if unpublished[d] {
				continue
			}
			unpublished[d] = true
		} else {
			if seen.Test(uint(d.id)) {
				continue
			}
			seen.Set(uint(d.id))
		}
		for _, next := range rawSupertypes(top) {
			stack = append(stack, next.Constructor())
		}
	}
	return false
}

func rawSupertypes(c types.Constructor) []*types.Type {
	switch c := c.(type) {
	case *ClassConstructor:
		if c.decl.class.base != nil || !c.cell.hasResolver() {
			return nil
		}
		return c.cell.all()
	case *ParamConstructor:
		if !c.cell.hasResolver() {
			return nil
		}
		return c.cell.all()
	}
	return nil
}
