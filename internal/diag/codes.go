package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// declaration-shape input
	ShapeInfo            Code = 1000
	ShapeSyntax          Code = 1001
	ShapeInvalid         Code = 1002
	ShapeBadTypeRef      Code = 1003
	ShapeDuplicateClass  Code = 1004
	ShapeDuplicateMember Code = 1005

	// name resolution
	ResInfo                 Code = 2000
	ResUnresolvedType       Code = 2001
	ResUnresolvedSupertype  Code = 2002
	ResTypeArgumentCount    Code = 2003
	ResTypeParamShadow      Code = 2004
	ResEnumEntryOutsideEnum Code = 2005
	ResDuplicateTypeParam   Code = 2006
	ResSupertypeNotClass    Code = 2007

	// descriptor semantics
	SemaInfo                  Code = 3000
	SemaCyclicSupertype       Code = 3001
	SemaCyclicUpperBound      Code = 3002
	SemaOverrideConflict      Code = 3003
	SemaCannotInferVisibility Code = 3004
	SemaSetterProjectedOut    Code = 3005
	SemaRecursionFallback     Code = 3006
	SemaFinalSupertype        Code = 3007

	IOLoadFileError Code = 4001

	ProjInfo            Code = 5000
	ProjManifestInvalid Code = 5001
	ProjMissingInput    Code = 5002

	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:               "Unknown error",
	ShapeInfo:                 "Declaration shape information",
	ShapeSyntax:               "Malformed declaration file",
	ShapeInvalid:              "Invalid declaration shape",
	ShapeBadTypeRef:           "Malformed type reference",
	ShapeDuplicateClass:       "Duplicate class declaration",
	ShapeDuplicateMember:      "Duplicate member declaration",
	ResInfo:                   "Resolution information",
	ResUnresolvedType:         "Unresolved type",
	ResUnresolvedSupertype:    "Unresolved supertype",
	ResTypeArgumentCount:      "Wrong number of type arguments",
	ResTypeParamShadow:        "Type parameter shadows an outer type parameter",
	ResEnumEntryOutsideEnum:   "Enum entries declared outside an enum class",
	ResDuplicateTypeParam:     "Duplicate type parameter",
	ResSupertypeNotClass:      "Supertype must be a class type",
	SemaInfo:                  "Semantic information",
	SemaCyclicSupertype:       "Cyclic supertype hierarchy",
	SemaCyclicUpperBound:      "Cyclic upper bounds",
	SemaOverrideConflict:      "Conflicting inherited members",
	SemaCannotInferVisibility: "Cannot infer visibility of inherited member",
	SemaSetterProjectedOut:    "Setter is unusable due to projection",
	SemaRecursionFallback:     "Recursive dependency resolved to a fallback",
	SemaFinalSupertype:        "Inheritance from a final class",
	IOLoadFileError:           "I/O load file error",
	ProjInfo:                  "Project information",
	ProjManifestInvalid:       "Invalid project manifest",
	ProjMissingInput:          "Missing input file",
	ObsTimings:                "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("SHP%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	if desc, ok := codeDescription[c]; ok {
		return desc
	}
	return codeDescription[UnknownCode]
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
