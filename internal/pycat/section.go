package pycat

// Section is the raw provenance bucket assigned to an import, following the
// usual import-sorting taxonomy.
type Section uint8

const (
	SectionFuture Section = iota
	SectionStandardLibrary
	SectionThirdParty
	SectionFirstParty
	SectionLocalFolder
	SectionUserDefined
)

func (s Section) String() string {
	switch s {
	case SectionFuture:
		return "future"
	case SectionStandardLibrary:
		return "standard-library"
	case SectionThirdParty:
		return "third-party"
	case SectionFirstParty:
		return "first-party"
	case SectionLocalFolder:
		return "local-folder"
	case SectionUserDefined:
		return "user-defined"
	}
	return "unknown"
}

// Category is the coarse classification the typing-only analysis consumes.
type Category uint8

const (
	CategoryStandardLibrary Category = iota
	CategoryThirdParty
	CategoryFirstParty
	CategoryFuture
)

func (c Category) String() string {
	switch c {
	case CategoryStandardLibrary:
		return "standard-library"
	case CategoryThirdParty:
		return "third-party"
	case CategoryFirstParty:
		return "first-party"
	case CategoryFuture:
		return "future"
	}
	return "unknown"
}

// Category folds raw sections into the four analysis categories. Local
// folder imports behave like first-party code; user-defined sections behave
// like third-party code.
func (s Section) Category() Category {
	switch s {
	case SectionFuture:
		return CategoryFuture
	case SectionStandardLibrary:
		return CategoryStandardLibrary
	case SectionFirstParty, SectionLocalFolder:
		return CategoryFirstParty
	default:
		return CategoryThirdParty
	}
}
