package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Python parsing (1000-1999)
	PrsInfo        Code = 1000
	PrsSyntaxError Code = 1001
	PrsTooDeep     Code = 1002

	// Binder (2000-2999)
	BndInfo             Code = 2000
	BndUnresolvedName   Code = 2001
	BndDuplicateBinding Code = 2002

	// Typing-only import analysis (3000-3999)
	TypInfo                          Code = 3000
	TypTypingOnlyFirstPartyImport    Code = 3001
	TypTypingOnlyThirdPartyImport    Code = 3002
	TypTypingOnlyStandardLibImport   Code = 3003
	TypRuntimeImportInTypeCheckBlock Code = 3004

	// I/O errors (4000-4999)
	IOLoadFileError Code = 4001

	// Observability (6000-6999)
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:                      "Unknown error",
	PrsInfo:                          "Parse information",
	PrsSyntaxError:                   "Python syntax error",
	PrsTooDeep:                       "Nesting too deep to analyze",
	BndInfo:                          "Binder information",
	BndUnresolvedName:                "Unresolved name",
	BndDuplicateBinding:              "Duplicate binding",
	TypInfo:                          "Typing-only import information",
	TypTypingOnlyFirstPartyImport:    "Typing-only first-party import",
	TypTypingOnlyThirdPartyImport:    "Typing-only third-party import",
	TypTypingOnlyStandardLibImport:   "Typing-only standard library import",
	TypRuntimeImportInTypeCheckBlock: "Runtime import in type-checking block",
	IOLoadFileError:                  "I/O load file error",
	ObsInfo:                          "Observability information",
	ObsTimings:                       "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("PRS%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("BND%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
