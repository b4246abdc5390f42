package typingonly

import (
	"typefence/internal/diag"
	"typefence/internal/pycat"
)

// Settings configures the typing-only import analysis for one run.
type Settings struct {
	// Strict disables implicit-import suppression: sibling imports of a
	// module that is already loaded at runtime are still flagged.
	Strict bool
	// ExemptModules lists dotted module prefixes that are never flagged.
	ExemptModules []string
	// FlagFirstParty, FlagThirdParty and FlagStandardLibrary enable the
	// per-category diagnostics.
	FlagFirstParty      bool
	FlagThirdParty      bool
	FlagStandardLibrary bool
	// RuntimeRequiredBaseClasses and RuntimeRequiredDecorators list
	// fully-qualified paths of base classes and decorators that force a
	// class's annotations to stay evaluable at runtime (enums, ORM models,
	// dataclass machinery).
	RuntimeRequiredBaseClasses []string
	RuntimeRequiredDecorators  []string
}

// DefaultSettings mirrors the behavior most projects want out of the box.
func DefaultSettings() Settings {
	return Settings{
		ExemptModules:       []string{"typing", "typing_extensions"},
		FlagFirstParty:      true,
		FlagThirdParty:      true,
		FlagStandardLibrary: true,
	}
}

// CategoryEnabled reports whether diagnostics for the category are on.
func (s *Settings) CategoryEnabled(cat pycat.Category) bool {
	switch cat {
	case pycat.CategoryFirstParty:
		return s.FlagFirstParty
	case pycat.CategoryThirdParty:
		return s.FlagThirdParty
	case pycat.CategoryStandardLibrary:
		return s.FlagStandardLibrary
	default:
		return false
	}
}

// CategoryCode maps an import category to its diagnostic code.
func CategoryCode(cat pycat.Category) diag.Code {
	switch cat {
	case pycat.CategoryFirstParty:
		return diag.TypTypingOnlyFirstPartyImport
	case pycat.CategoryThirdParty:
		return diag.TypTypingOnlyThirdPartyImport
	case pycat.CategoryStandardLibrary:
		return diag.TypTypingOnlyStandardLibImport
	default:
		return diag.TypInfo
	}
}
