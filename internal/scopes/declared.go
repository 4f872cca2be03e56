package scopes

import (
	"slices"
	"sync"

	"descgraph/internal/descriptors"
	"descgraph/internal/fault"
	"descgraph/internal/source"
)

// Declared holds the members written in one class body, or the static
// members of a class. Members are listed in insertion order.
type Declared struct {
	mu          sync.RWMutex
	functions   map[source.StringID][]*descriptors.Decl
	variables   map[source.StringID][]*descriptors.Decl
	classifiers map[source.StringID]*descriptors.Decl
	order       []*descriptors.Decl
}

var _ descriptors.MemberScope = (*Declared)(nil)

func NewDeclared() *Declared {
	return &Declared{
		functions:   make(map[source.StringID][]*descriptors.Decl),
		variables:   make(map[source.StringID][]*descriptors.Decl),
		classifiers: make(map[source.StringID]*descriptors.Decl),
	}
}

// Add registers a function, property or nested class. A second class
// with the same name replaces the first.
func (s *Declared) Add(d *descriptors.Decl) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch d.Kind() {
	case descriptors.KindFunction:
		s.functions[d.Name()] = append(s.functions[d.Name()], d)
	case descriptors.KindProperty:
		s.variables[d.Name()] = append(s.variables[d.Name()], d)
	case descriptors.KindClass:
		s.classifiers[d.Name()] = d
	default:
		panic(fault.Precondition("%s cannot be a member", d))
	}
	s.order = append(s.order, d)
}

func (s *Declared) ContributedFunctions(name source.StringID) []*descriptors.Decl {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.functions[name]
}

func (s *Declared) ContributedVariables(name source.StringID) []*descriptors.Decl {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.variables[name]
}

func (s *Declared) ContributedClassifier(name source.StringID) *descriptors.Decl {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classifiers[name]
}

func (s *Declared) FunctionNames() []source.StringID   { return sortedKeys(&s.mu, s.functions) }
func (s *Declared) VariableNames() []source.StringID   { return sortedKeys(&s.mu, s.variables) }
func (s *Declared) ClassifierNames() []source.StringID { return sortedKeys(&s.mu, s.classifiers) }

func (s *Declared) ContributedDescriptors() []*descriptors.Decl {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

func sortedKeys[V any](mu *sync.RWMutex, m map[source.StringID]V) []source.StringID {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]source.StringID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
