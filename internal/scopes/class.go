package scopes

import (
	"slices"

	"descgraph/internal/descriptors"
	"descgraph/internal/diag"
	"descgraph/internal/overriding"
	"descgraph/internal/source"
	"descgraph/internal/storage"
)

// Class is the member scope of a class: the declared members plus a fake
// override for every inherited member that is not redeclared. Results
// are computed per name on first lookup.
type Class struct {
	g        *descriptors.Graph
	class    *descriptors.Decl
	declared descriptors.MemberScope

	functions *storage.Memo[source.StringID, []*descriptors.Decl]
	variables *storage.Memo[source.StringID, []*descriptors.Decl]
	fnNames   *storage.Lazy[[]source.StringID]
	varNames  *storage.Lazy[[]source.StringID]
}

var _ descriptors.MemberScope = (*Class)(nil)

// NewClass builds the scope of class over its declared members. It may
// be created before the class is initialized; supertypes are read on
// first lookup.
func NewClass(g *descriptors.Graph, class *descriptors.Decl, declared descriptors.MemberScope) *Class {
	s := &Class{g: g, class: class, declared: declared}
	name := class.QualifiedName()
	s.functions = storage.NewMemo(g.Storage(), "functions of "+name, func(n source.StringID) []*descriptors.Decl {
		return s.compute(n, descriptors.MemberScope.ContributedFunctions)
	}, s.onRecursion(declared.ContributedFunctions))
	s.variables = storage.NewMemo(g.Storage(), "variables of "+name, func(n source.StringID) []*descriptors.Decl {
		return s.compute(n, descriptors.MemberScope.ContributedVariables)
	}, s.onRecursion(declared.ContributedVariables))
	s.fnNames = storage.NewLazy(g.Storage(), "function names of "+name, func() []source.StringID {
		return s.names(descriptors.MemberScope.FunctionNames)
	})
	s.varNames = storage.NewLazy(g.Storage(), "variable names of "+name, func() []source.StringID {
		return s.names(descriptors.MemberScope.VariableNames)
	})
	return s
}

func (s *Class) onRecursion(fallback func(source.StringID) []*descriptors.Decl) func(source.StringID, bool) []*descriptors.Decl {
	return func(n source.StringID, firstTime bool) []*descriptors.Decl {
		if firstTime {
			s.g.Reporter().Report(diag.SemaRecursionFallback, diag.SevError, s.class.Source(),
				"members "+s.g.NameOf(n)+" of "+s.class.QualifiedName()+" depend on themselves", nil, nil)
		}
		return fallback(n)
	}
}

// Declared returns the members written in the class body.
func (s *Class) Declared() descriptors.MemberScope { return s.declared }

func (s *Class) supertypeScopes() []descriptors.MemberScope {
	var out []descriptors.MemberScope
	for _, st := range s.class.Supertypes() {
		out = append(out, s.g.TypeMemberScope(st))
	}
	return out
}

type collector struct {
	scope     *Class
	fakes     []*descriptors.Decl
	conflicts int
}

func (c *collector) AddFakeOverride(fake *descriptors.Decl) { c.fakes = append(c.fakes, fake) }

func (c *collector) Conflict(fromSuper, fromCurrent *descriptors.Decl) {
	c.conflicts++
	cls := c.scope.class
	msg := fromCurrent.QualifiedName() + " conflicts with inherited " + fromSuper.QualifiedName()
	notes := []diag.Note{{Span: fromSuper.Source(), Msg: "inherited member is declared here"}}
	primary := fromCurrent.Source()
	if primary.IsZero() {
		primary = cls.Source()
	}
	c.scope.g.Reporter().Report(diag.SemaOverrideConflict, diag.SevError, primary, msg, notes, nil)
}

func (s *Class) compute(name source.StringID, lookup func(descriptors.MemberScope, source.StringID) []*descriptors.Decl) []*descriptors.Decl {
	current := lookup(s.declared, name)
	var fromSuper []*descriptors.Decl
	for _, sc := range s.supertypeScopes() {
		fromSuper = append(fromSuper, lookup(sc, name)...)
	}
	sink := &collector{scope: s}
	overriding.GenerateOverridesInGroup(fromSuper, current, s.class, sink)

	out := append(slices.Clone(current), sink.fakes...)
	for _, m := range out {
		overriding.ResolveUnknownVisibility(m, s.cannotInferVisibility)
	}
	return out
}

func (s *Class) cannotInferVisibility(d *descriptors.Decl) {
	at := d.Source()
	if at.IsZero() {
		at = s.class.Source()
	}
	s.g.Reporter().Report(diag.SemaCannotInferVisibility, diag.SevError, at,
		"cannot infer visibility of "+d.QualifiedName()+"; specify it explicitly", nil, nil)
}

func (s *Class) names(fn func(descriptors.MemberScope) []source.StringID) []source.StringID {
	out := slices.Clone(fn(s.declared))
	for _, sc := range s.supertypeScopes() {
		out = append(out, fn(sc)...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (s *Class) ContributedFunctions(name source.StringID) []*descriptors.Decl {
	return s.functions.Get(name)
}

func (s *Class) ContributedVariables(name source.StringID) []*descriptors.Decl {
	return s.variables.Get(name)
}

// ContributedClassifier only sees nested classes of this class; nested
// classes are not inherited.
func (s *Class) ContributedClassifier(name source.StringID) *descriptors.Decl {
	return s.declared.ContributedClassifier(name)
}

func (s *Class) FunctionNames() []source.StringID   { return s.fnNames.Force() }
func (s *Class) VariableNames() []source.StringID   { return s.varNames.Force() }
func (s *Class) ClassifierNames() []source.StringID { return s.declared.ClassifierNames() }

func (s *Class) ContributedDescriptors() []*descriptors.Decl {
	var out []*descriptors.Decl
	for _, n := range s.FunctionNames() {
		out = append(out, s.ContributedFunctions(n)...)
	}
	for _, n := range s.VariableNames() {
		out = append(out, s.ContributedVariables(n)...)
	}
	for _, n := range s.ClassifierNames() {
		if c := s.ContributedClassifier(n); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// FakeOverrides lists the inherited members of the class.
func (s *Class) FakeOverrides() []*descriptors.Decl {
	var out []*descriptors.Decl
	for _, d := range s.ContributedDescriptors() {
		if d.Callable() != nil && d.Callable().Kind() == descriptors.FakeOverride {
			out = append(out, d)
		}
	}
	return out
}
