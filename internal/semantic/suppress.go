package semantic

// suppressEntry records one suppression comment on a line.
type suppressEntry struct {
	all   bool
	codes map[string]bool
	used  bool
}

// SuppressionIndex maps one-based line numbers to suppression directives
// collected while parsing (`# typefence: ignore` and
// `# typefence: ignore[TYP3001,...]` trailing comments).
type SuppressionIndex struct {
	lines map[uint32]*suppressEntry
}

func NewSuppressionIndex() *SuppressionIndex {
	return &SuppressionIndex{lines: make(map[uint32]*suppressEntry)}
}

// AddBlanket records a bare directive suppressing every code on the line.
func (x *SuppressionIndex) AddBlanket(line uint32) {
	x.entry(line).all = true
}

// AddCodes records a directive listing explicit code IDs.
func (x *SuppressionIndex) AddCodes(line uint32, codes ...string) {
	e := x.entry(line)
	if e.codes == nil {
		e.codes = make(map[string]bool, len(codes))
	}
	for _, c := range codes {
		e.codes[c] = true
	}
}

func (x *SuppressionIndex) entry(line uint32) *suppressEntry {
	e := x.lines[line]
	if e == nil {
		e = &suppressEntry{}
		x.lines[line] = e
	}
	return e
}

// Suppresses reports whether a directive on the given line covers the code
// ID, marking the directive as used.
func (x *SuppressionIndex) Suppresses(line uint32, codeID string) bool {
	e := x.lines[line]
	if e == nil {
		return false
	}
	if e.all || e.codes[codeID] {
		e.used = true
		return true
	}
	return false
}

// UnusedLines returns lines carrying directives that never matched a
// diagnostic, sorted ascending. Useful for future dead-directive reporting.
func (x *SuppressionIndex) UnusedLines() []uint32 {
	var out []uint32
	for line, e := range x.lines {
		if !e.used {
			out = append(out, line)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Len reports the number of lines carrying directives.
func (x *SuppressionIndex) Len() int { return len(x.lines) }
