package types

import (
	"fmt"
	"sort"
)

// BuiltinKind enumerates the builtin classifiers.
type BuiltinKind uint8

const (
	BuiltinAny BuiltinKind = iota + 1
	BuiltinNothing
	BuiltinUnit
	BuiltinBoolean
	BuiltinInt
	BuiltinLong
	BuiltinDouble
	BuiltinChar
	BuiltinString
	BuiltinComparable
	BuiltinList
	BuiltinMutableList
	BuiltinArray
)

func (k BuiltinKind) String() string {
	switch k {
	case BuiltinAny:
		return "Any"
	case BuiltinNothing:
		return "Nothing"
	case BuiltinUnit:
		return "Unit"
	case BuiltinBoolean:
		return "Boolean"
	case BuiltinInt:
		return "Int"
	case BuiltinLong:
		return "Long"
	case BuiltinDouble:
		return "Double"
	case BuiltinChar:
		return "Char"
	case BuiltinString:
		return "String"
	case BuiltinComparable:
		return "Comparable"
	case BuiltinList:
		return "List"
	case BuiltinMutableList:
		return "MutableList"
	case BuiltinArray:
		return "Array"
	default:
		return fmt.Sprintf("BuiltinKind(%d)", k)
	}
}

// BuiltinConstructor heads a builtin type.
type BuiltinConstructor struct {
	Kind   BuiltinKind
	params []Parameter
	supers []*Type
	final  bool
}

func (c *BuiltinConstructor) DebugName() string       { return c.Kind.String() }
func (c *BuiltinConstructor) Parameters() []Parameter { return c.params }
func (c *BuiltinConstructor) Supertypes() []*Type     { return c.supers }
func (c *BuiltinConstructor) IsFinal() bool           { return c.final }

// builtinParam is a type parameter of a builtin class, bounded by Any?.
type builtinParam struct {
	name     string
	variance Variance
	index    int
	bound    []*Type
}

func (p *builtinParam) DebugName() string       { return p.name }
func (p *builtinParam) Parameters() []Parameter { return nil }
func (p *builtinParam) Supertypes() []*Type     { return p.bound }
func (p *builtinParam) IsFinal() bool           { return false }
func (p *builtinParam) Variance() Variance      { return p.variance }
func (p *builtinParam) Index() int              { return p.index }

// Builtins holds the builtin types of one descriptor graph.
type Builtins struct {
	Any             *Type
	NullableAny     *Type
	Nothing         *Type
	NullableNothing *Type
	Unit            *Type
	Boolean         *Type
	Int             *Type
	Long            *Type
	Double          *Type
	Char            *Type
	String          *Type

	Comparable  *BuiltinConstructor
	List        *BuiltinConstructor
	MutableList *BuiltinConstructor
	Array       *BuiltinConstructor

	byName map[string]*BuiltinConstructor
}

func NewBuiltins() *Builtins {
	b := &Builtins{byName: make(map[string]*BuiltinConstructor, 16)}

	anyCtor := b.register(BuiltinAny, false)
	b.Any = New(anyCtor, nil, false)
	b.NullableAny = b.Any.MakeNullable(true)
	anyBound := []*Type{b.NullableAny}

	nothing := b.register(BuiltinNothing, true)
	b.Nothing = New(nothing, nil, false)
	b.NullableNothing = b.Nothing.MakeNullable(true)

	b.Comparable = b.register(BuiltinComparable, false, &builtinParam{name: "T", variance: In, bound: anyBound})
	b.Comparable.supers = []*Type{b.Any}

	b.List = b.register(BuiltinList, false, &builtinParam{name: "E", variance: Out, bound: anyBound})
	b.List.supers = []*Type{b.Any}

	mutableElem := &builtinParam{name: "E", bound: anyBound}
	b.MutableList = b.register(BuiltinMutableList, false, mutableElem)
	b.MutableList.supers = []*Type{New(b.List, []Projection{Invariantly(New(mutableElem, nil, false))}, false)}

	b.Array = b.register(BuiltinArray, true, &builtinParam{name: "T", bound: anyBound})
	b.Array.supers = []*Type{b.Any}

	comparableSelf := func(kind BuiltinKind) *Type {
		ctor := b.register(kind, true)
		self := New(ctor, nil, false)
		ctor.supers = []*Type{b.Any, New(b.Comparable, []Projection{Invariantly(self)}, false)}
		return self
	}
	b.Unit = b.simple(BuiltinUnit)
	b.Boolean = comparableSelf(BuiltinBoolean)
	b.Int = comparableSelf(BuiltinInt)
	b.Long = comparableSelf(BuiltinLong)
	b.Double = comparableSelf(BuiltinDouble)
	b.Char = comparableSelf(BuiltinChar)
	b.String = comparableSelf(BuiltinString)
	return b
}

func (b *Builtins) register(kind BuiltinKind, final bool, params ...*builtinParam) *BuiltinConstructor {
	c := &BuiltinConstructor{Kind: kind, final: final}
	for i, p := range params {
		p.index = i
		c.params = append(c.params, p)
	}
	b.byName[kind.String()] = c
	return c
}

func (b *Builtins) simple(kind BuiltinKind) *Type {
	c := b.register(kind, true)
	c.supers = []*Type{b.Any}
	return New(c, nil, false)
}

// Lookup finds a builtin classifier by name.
func (b *Builtins) Lookup(name string) (*BuiltinConstructor, bool) {
	c, ok := b.byName[name]
	return c, ok
}

// Names lists builtin classifier names in sorted order.
func (b *Builtins) Names() []string {
	names := make([]string, 0, len(b.byName))
	for n := range b.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ArrayOf returns Array<elem>.
func (b *Builtins) ArrayOf(elem *Type) *Type {
	return New(b.Array, []Projection{Invariantly(elem)}, false)
}

// ListOf returns List<elem>.
func (b *Builtins) ListOf(elem *Type) *Type {
	return New(b.List, []Projection{Invariantly(elem)}, false)
}

// BuiltinKindOf returns the builtin kind heading t, or 0.
func BuiltinKindOf(t *Type) BuiltinKind {
	if t == nil {
		return 0
	}
	if c, ok := t.ctor.(*BuiltinConstructor); ok {
		return c.Kind
	}
	return 0
}

func IsNothing(t *Type) bool { return BuiltinKindOf(t) == BuiltinNothing }

func IsAny(t *Type) bool { return BuiltinKindOf(t) == BuiltinAny }

// IsNullableAny reports whether t is the top type Any?.
func IsNullableAny(t *Type) bool { return IsAny(t) && t.nullable }
