package resolve

import (
	"descgraph/internal/descriptors"
	"descgraph/internal/fault"
	"descgraph/internal/scopes"
	"descgraph/internal/source"
	"descgraph/internal/types"
)

// NewEnumEntry creates entry name of enum as a nested class. Its only
// supertype is the enum type, its members are those of the enum seen as
// fake overrides, and its primary constructor takes no parameters and
// returns the entry type.
func NewEnumEntry(g *descriptors.Graph, enum *descriptors.Decl, name string, sp source.Span, annotations []string) *descriptors.Decl {
	fault.Check(enum.Class() != nil && enum.Class().ClassKind() == descriptors.ClassKindEnum, "%s is not an enum class", enum)

	entry := descriptors.NewClass(g, enum, name, descriptors.ClassSpec{
		Kind:        descriptors.ClassKindEnumEntry,
		Modality:    descriptors.Final,
		Visibility:  descriptors.Public,
		Source:      sp,
		Annotations: annotations,
	})
	ctor := descriptors.NewConstructor(g, entry, true, descriptors.Synthesized, sp)
	descriptors.InitializeClass(entry, descriptors.ClassInit{
		Supertypes:   func() []*types.Type { return []*types.Type{enum.DefaultType()} },
		MemberScope:  scopes.NewClass(g, entry, scopes.NewDeclared()),
		Constructors: []*descriptors.Decl{ctor},
		Primary:      ctor,
	})
	descriptors.InitializeConstructor(ctor, descriptors.ConstructorInit{Visibility: descriptors.Private})
	return entry
}

// synthesizeEnumFunctions creates values() and valueOf(value) of enum.
// Both live in the static scope and have no dispatch receiver.
func synthesizeEnumFunctions(g *descriptors.Graph, enum *descriptors.Decl, sp source.Span) []*descriptors.Decl {
	b := g.Builtins()
	self := enum.DefaultType()

	values := descriptors.NewFunction(g, enum, "values", descriptors.Synthesized, sp)
	descriptors.InitializeFunction(values, descriptors.FunctionInit{
		ReturnType: b.ArrayOf(self),
		Modality:   descriptors.Final,
		Visibility: descriptors.Public,
		Flags:      descriptors.FlagSynthesizedParameterNames,
	})

	valueOf := descriptors.NewFunction(g, enum, "valueOf", descriptors.Synthesized, sp)
	descriptors.InitializeFunction(valueOf, descriptors.FunctionInit{
		ValueParameters: []*descriptors.Decl{
			descriptors.NewValueParameter(g, valueOf, descriptors.ValueParamInit{Name: "value", Type: b.String, Source: sp}),
		},
		ReturnType: self,
		Modality:   descriptors.Final,
		Visibility: descriptors.Public,
		Flags:      descriptors.FlagSynthesizedParameterNames,
	})
	return []*descriptors.Decl{values, valueOf}
}
