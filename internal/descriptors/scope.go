package descriptors

import (
	"slices"

	"descgraph/internal/source"
	"descgraph/internal/storage"
	"descgraph/internal/types"
)

// MemberScope answers member lookups by name.
type MemberScope interface {
	ContributedFunctions(name source.StringID) []*Decl
	ContributedVariables(name source.StringID) []*Decl
	// ContributedClassifier returns a nested class, or nil.
	ContributedClassifier(name source.StringID) *Decl
	FunctionNames() []source.StringID
	VariableNames() []source.StringID
	ClassifierNames() []source.StringID
	// ContributedDescriptors lists every member, functions first.
	ContributedDescriptors() []*Decl
}

// EmptyScope has no members.
type EmptyScope struct{}

func (EmptyScope) ContributedFunctions(source.StringID) []*Decl { return nil }
func (EmptyScope) ContributedVariables(source.StringID) []*Decl { return nil }
func (EmptyScope) ContributedClassifier(source.StringID) *Decl  { return nil }
func (EmptyScope) FunctionNames() []source.StringID             { return nil }
func (EmptyScope) VariableNames() []source.StringID             { return nil }
func (EmptyScope) ClassifierNames() []source.StringID           { return nil }
func (EmptyScope) ContributedDescriptors() []*Decl              { return nil }

// ChainedScope concatenates scopes. Members found in several scopes are
// listed once.
type ChainedScope struct {
	debugName string
	scopes    []MemberScope
}

// NewChainedScope returns EmptyScope for no scopes and the scope itself
// for one.
func NewChainedScope(debugName string, scopes ...MemberScope) MemberScope {
	switch len(scopes) {
	case 0:
		return EmptyScope{}
	case 1:
		return scopes[0]
	}
	return &ChainedScope{debugName: debugName, scopes: scopes}
}

func (s *ChainedScope) String() string { return s.debugName }

func (s *ChainedScope) ContributedFunctions(name source.StringID) []*Decl {
	return s.collect(func(m MemberScope) []*Decl { return m.ContributedFunctions(name) })
}

func (s *ChainedScope) ContributedVariables(name source.StringID) []*Decl {
	return s.collect(func(m MemberScope) []*Decl { return m.ContributedVariables(name) })
}

func (s *ChainedScope) ContributedClassifier(name source.StringID) *Decl {
	for _, m := range s.scopes {
		if c := m.ContributedClassifier(name); c != nil {
			return c
		}
	}
	return nil
}

func (s *ChainedScope) FunctionNames() []source.StringID {
	return s.names(MemberScope.FunctionNames)
}

func (s *ChainedScope) VariableNames() []source.StringID {
	return s.names(MemberScope.VariableNames)
}

func (s *ChainedScope) ClassifierNames() []source.StringID {
	return s.names(MemberScope.ClassifierNames)
}

func (s *ChainedScope) ContributedDescriptors() []*Decl {
	return s.collect(MemberScope.ContributedDescriptors)
}

func (s *ChainedScope) collect(fn func(MemberScope) []*Decl) []*Decl {
	var out []*Decl
	seen := make(map[*Decl]struct{})
	for _, m := range s.scopes {
		for _, d := range fn(m) {
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

func (s *ChainedScope) names(fn func(MemberScope) []source.StringID) []source.StringID {
	var out []source.StringID
	for _, m := range s.scopes {
		out = append(out, fn(m)...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// SubstitutingScope presents the members of another scope with a
// substitution applied. Members whose substitution fails are left out.
type SubstitutingScope struct {
	g       *Graph
	worker  MemberScope
	subst   *types.Substitutor
	members *storage.Memo[DeclID, *Decl]

	fnNames  *storage.Lazy[[]source.StringID]
	varNames *storage.Lazy[[]source.StringID]
	all      *storage.Lazy[[]*Decl]
}

// NewSubstitutingScope wraps worker. An empty substitution returns worker
// unchanged.
func NewSubstitutingScope(g *Graph, worker MemberScope, subst *types.Substitutor) MemberScope {
	if subst.IsEmpty() {
		return worker
	}
	s := &SubstitutingScope{g: g, worker: worker, subst: subst}
	s.members = storage.NewMemo(g.storage, "substituted members", func(id DeclID) *Decl {
		d := g.Decl(id)
		out, ok := Substitute(d, subst)
		if !ok {
			return nil
		}
		return out
	}, nil)
	s.fnNames = storage.NewLazy(g.storage, "substituted function names", func() []source.StringID {
		return s.nonEmpty(worker.FunctionNames(), s.ContributedFunctions)
	})
	s.varNames = storage.NewLazy(g.storage, "substituted variable names", func() []source.StringID {
		return s.nonEmpty(worker.VariableNames(), s.ContributedVariables)
	})
	s.all = storage.NewLazy(g.storage, "substituted members", func() []*Decl {
		return s.substituteAll(worker.ContributedDescriptors())
	})
	return s
}

func (s *SubstitutingScope) Worker() MemberScope             { return s.worker }
func (s *SubstitutingScope) Substitutor() *types.Substitutor { return s.subst }

func (s *SubstitutingScope) substituteAll(in []*Decl) []*Decl {
	var out []*Decl
	for _, d := range in {
		if sub := s.substituteOne(d); sub != nil {
			out = append(out, sub)
		}
	}
	return out
}

func (s *SubstitutingScope) substituteOne(d *Decl) *Decl {
	if d == nil {
		return nil
	}
	if d.id == NoDecl {
		out, ok := Substitute(d, s.subst)
		if !ok {
			return nil
		}
		return out
	}
	return s.members.Get(d.id)
}

func (s *SubstitutingScope) nonEmpty(names []source.StringID, lookup func(source.StringID) []*Decl) []source.StringID {
	var out []source.StringID
	for _, n := range names {
		if len(lookup(n)) > 0 {
			out = append(out, n)
		}
	}
	return out
}

func (s *SubstitutingScope) ContributedFunctions(name source.StringID) []*Decl {
	return s.substituteAll(s.worker.ContributedFunctions(name))
}

func (s *SubstitutingScope) ContributedVariables(name source.StringID) []*Decl {
	return s.substituteAll(s.worker.ContributedVariables(name))
}

func (s *SubstitutingScope) ContributedClassifier(name source.StringID) *Decl {
	return s.substituteOne(s.worker.ContributedClassifier(name))
}

func (s *SubstitutingScope) FunctionNames() []source.StringID   { return s.fnNames.Force() }
func (s *SubstitutingScope) VariableNames() []source.StringID   { return s.varNames.Force() }
func (s *SubstitutingScope) ClassifierNames() []source.StringID { return s.worker.ClassifierNames() }
func (s *SubstitutingScope) ContributedDescriptors() []*Decl    { return s.all.Force() }

// TypeMemberScope returns the members reachable on a value of type t.
// Builtins expose no members.
func (g *Graph) TypeMemberScope(t *types.Type) MemberScope {
	switch c := t.Constructor().(type) {
	case *ClassConstructor:
		return c.decl.MemberScope(t.Arguments())
	case *ParamConstructor:
		return c.decl.TypeParameterScope()
	}
	return EmptyScope{}
}
