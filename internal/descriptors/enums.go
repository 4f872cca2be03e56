package descriptors

import "fmt"

// Kind discriminates the Decl payload.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindModule
	KindClass
	KindConstructor
	KindFunction
	KindProperty
	KindGetter
	KindSetter
	KindValueParameter
	KindTypeParameter
	KindReceiverParameter
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindClass:
		return "class"
	case KindConstructor:
		return "constructor"
	case KindFunction:
		return "function"
	case KindProperty:
		return "property"
	case KindGetter:
		return "getter"
	case KindSetter:
		return "setter"
	case KindValueParameter:
		return "value-parameter"
	case KindTypeParameter:
		return "type-parameter"
	case KindReceiverParameter:
		return "receiver-parameter"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// IsCallable reports whether decls of kind k carry CallableData.
func (k Kind) IsCallable() bool {
	switch k {
	case KindConstructor, KindFunction, KindProperty, KindGetter, KindSetter:
		return true
	}
	return false
}

// IsAccessor reports whether k is a property accessor.
func (k Kind) IsAccessor() bool { return k == KindGetter || k == KindSetter }

// ClassKind distinguishes classifier flavours.
type ClassKind uint8

const (
	ClassKindClass ClassKind = iota
	ClassKindInterface
	ClassKindObject
	ClassKindEnum
	ClassKindEnumEntry
	ClassKindAnnotation
)

func (k ClassKind) String() string {
	switch k {
	case ClassKindClass:
		return "class"
	case ClassKindInterface:
		return "interface"
	case ClassKindObject:
		return "object"
	case ClassKindEnum:
		return "enum class"
	case ClassKindEnumEntry:
		return "enum entry"
	case ClassKindAnnotation:
		return "annotation class"
	default:
		return fmt.Sprintf("ClassKind(%d)", k)
	}
}

// ParseClassKind is the inverse of String for the spellings used in
// declaration files ("class", "interface", "object", "enum",
// "enum-entry", "annotation").
func ParseClassKind(s string) (ClassKind, bool) {
	switch s {
	case "", "class":
		return ClassKindClass, true
	case "interface":
		return ClassKindInterface, true
	case "object":
		return ClassKindObject, true
	case "enum":
		return ClassKindEnum, true
	case "enum-entry":
		return ClassKindEnumEntry, true
	case "annotation":
		return ClassKindAnnotation, true
	}
	return 0, false
}

// Modality is ordered from most to least restrictive.
type Modality uint8

const (
	Final Modality = iota
	Sealed
	Open
	Abstract
)

func (m Modality) String() string {
	switch m {
	case Final:
		return "final"
	case Sealed:
		return "sealed"
	case Open:
		return "open"
	case Abstract:
		return "abstract"
	default:
		return fmt.Sprintf("Modality(%d)", m)
	}
}

func ParseModality(s string) (Modality, bool) {
	switch s {
	case "final":
		return Final, true
	case "sealed":
		return Sealed, true
	case "open":
		return Open, true
	case "abstract":
		return Abstract, true
	}
	return 0, false
}

// CallableKind records where a callable came from.
type CallableKind uint8

const (
	Declaration CallableKind = iota
	FakeOverride
	Delegation
	Synthesized
)

func (k CallableKind) String() string {
	switch k {
	case Declaration:
		return "declaration"
	case FakeOverride:
		return "fake-override"
	case Delegation:
		return "delegation"
	case Synthesized:
		return "synthesized"
	default:
		return fmt.Sprintf("CallableKind(%d)", k)
	}
}

// IsReal is false only for fake overrides.
func (k CallableKind) IsReal() bool { return k != FakeOverride }

// CallableFlags is a bit set of callable modifiers.
type CallableFlags uint32

const (
	FlagOperator CallableFlags = 1 << iota
	FlagInfix
	FlagInline
	FlagExternal
	FlagTailrec
	FlagSuspend
	FlagStableParameterNames
	FlagSynthesizedParameterNames
	FlagHiddenToOvercomeSignatureClash
	FlagHiddenForResolution
	FlagVar
	FlagConst
	FlagLateinit
	FlagDefault
	FlagUnusableDueToProjection
	FlagPrimary
	FlagExpect
)

var flagNames = [...]string{
	"operator", "infix", "inline", "external", "tailrec", "suspend",
	"stable-parameter-names", "synthesized-parameter-names",
	"hidden-to-overcome-signature-clash", "hidden-for-resolution",
	"var", "const", "lateinit", "default", "unusable-due-to-projection",
	"primary", "expect",
}

func (f CallableFlags) Has(flag CallableFlags) bool { return f&flag == flag }

// With sets or clears flag.
func (f CallableFlags) With(flag CallableFlags, on bool) CallableFlags {
	if on {
		return f | flag
	}
	return f &^ flag
}

// Names lists set flags in declaration order.
func (f CallableFlags) Names() []string {
	var out []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			out = append(out, name)
		}
	}
	return out
}

// ReceiverKind tells what a receiver parameter stands for.
type ReceiverKind uint8

const (
	ReceiverDispatch ReceiverKind = iota + 1 // implicit this of a class
	ReceiverExtension
	ReceiverContext
)

func (k ReceiverKind) String() string {
	switch k {
	case ReceiverDispatch:
		return "this"
	case ReceiverExtension:
		return "extension"
	case ReceiverContext:
		return "context"
	default:
		return fmt.Sprintf("ReceiverKind(%d)", k)
	}
}
