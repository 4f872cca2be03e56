package descriptors

import (
	"sync"

	"descgraph/internal/diag"
	"descgraph/internal/fault"
	"descgraph/internal/storage"
	"descgraph/internal/types"
)

// ClassConstructor is the type constructor of a class. It is shared by
// the class and every substitution of it.
type ClassConstructor struct {
	decl *Decl
	cell *supertypeCell
}

var _ types.Constructor = (*ClassConstructor)(nil)

func newClassConstructor(d *Decl) *ClassConstructor {
	c := &ClassConstructor{decl: d}
	c.cell = newSupertypeCell(d, diag.SemaCyclicSupertype)
	return c
}

func (c *ClassConstructor) Decl() *Decl               { return c.decl }
func (c *ClassConstructor) DebugName() string         { return c.decl.QualifiedName() }
func (c *ClassConstructor) Supertypes() []*types.Type { return c.cell.acyclic() }

// IsFinal reports whether the class cannot be subclassed. Enum classes
// are final even though their entries extend them.
func (c *ClassConstructor) IsFinal() bool {
	return c.decl.class.modality == Final && c.decl.class.kind != ClassKindEnum
}

func (c *ClassConstructor) Parameters() []types.Parameter {
	params := c.decl.class.TypeParameters()
	if len(params) == 0 {
		return nil
	}
	out := make([]types.Parameter, len(params))
	for i, p := range params {
		out[i] = p.typeParam.ctor
	}
	return out
}

// AllSupertypes returns the supertypes as resolved, loops included.
func (c *ClassConstructor) AllSupertypes() []*types.Type { return c.cell.all() }

// ParamConstructor is the type constructor of a type parameter.
type ParamConstructor struct {
	decl *Decl
	cell *supertypeCell
}

var _ types.Parameter = (*ParamConstructor)(nil)

func newParamConstructor(d *Decl) *ParamConstructor {
	p := &ParamConstructor{decl: d}
	p.cell = newSupertypeCell(d, diag.SemaCyclicUpperBound)
	return p
}

func (p *ParamConstructor) Decl() *Decl                   { return p.decl }
func (p *ParamConstructor) DebugName() string             { return p.decl.NameString() }
func (p *ParamConstructor) Parameters() []types.Parameter { return nil }
func (p *ParamConstructor) Supertypes() []*types.Type     { return p.cell.acyclic() }
func (p *ParamConstructor) IsFinal() bool                 { return false }
func (p *ParamConstructor) Variance() types.Variance      { return p.decl.typeParam.variance }
func (p *ParamConstructor) Index() int                    { return p.decl.typeParam.index }

// DeclOf returns the class or type parameter behind a constructor, or
// nil for builtins and error types.
func DeclOf(c types.Constructor) *Decl {
	switch c := c.(type) {
	case *ClassConstructor:
		return c.decl
	case *ParamConstructor:
		return c.decl
	}
	return nil
}

type supertypeSet struct {
	all     []*types.Type
	acyclic []*types.Type
}

// supertypeCell resolves supertypes (or upper bounds) on first use and
// cuts loop edges once the raw list is known.
type supertypeCell struct {
	owner *Decl
	code  diag.Code

	mu       sync.Mutex
	resolver func() []*types.Type
	lazy     *storage.Lazy[supertypeSet]
}

func newSupertypeCell(owner *Decl, code diag.Code) *supertypeCell {
	c := &supertypeCell{owner: owner, code: code}
	name := "supertypes of " + owner.NameString()
	c.lazy = storage.NewLazyWithPostCompute(owner.g.storage, name, c.compute, c.onRecursion, c.checkLoops)
	return c
}

func (c *supertypeCell) setResolver(fn func() []*types.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fault.Check(!c.lazy.IsComputed() && !c.lazy.IsComputing(), "supertypes of %s already computed", c.owner)
	c.resolver = fn
}

func (c *supertypeCell) hasResolver() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolver != nil
}

func (c *supertypeCell) all() []*types.Type     { return c.lazy.Force().all }
func (c *supertypeCell) acyclic() []*types.Type { return c.lazy.Force().acyclic }

func (c *supertypeCell) compute() supertypeSet {
	c.mu.Lock()
	resolve := c.resolver
	c.mu.Unlock()
	if resolve == nil {
		panic(fault.Precondition("supertypes of %s requested before they were set", c.owner))
	}
	list := resolve()
	if len(list) == 0 {
		list = []*types.Type{c.defaultSupertype()}
	}
	return supertypeSet{all: list, acyclic: append([]*types.Type(nil), list...)}
}

func (c *supertypeCell) defaultSupertype() *types.Type {
	b := c.owner.g.builtins
	if c.owner.kind == KindTypeParameter {
		return b.NullableAny
	}
	return b.Any
}

func (c *supertypeCell) onRecursion(firstTime bool) supertypeSet {
	if firstTime {
		c.owner.g.report(diag.SemaRecursionFallback, diag.SevError, c.owner,
			"supertypes of "+c.owner.QualifiedName()+" depend on themselves")
	}
	loop := types.NewErrorType("loop in supertypes of " + c.owner.QualifiedName())
	return supertypeSet{all: []*types.Type{loop}, acyclic: []*types.Type{loop}}
}
