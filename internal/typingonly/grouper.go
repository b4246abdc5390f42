package typingonly

import (
	"typefence/internal/pycat"
	"typefence/internal/semantic"
	"typefence/internal/source"
)

// GroupKey buckets candidates that can share one fix: same owning statement,
// same import category.
type GroupKey struct {
	Stmt     semantic.StmtID
	Category pycat.Category
}

// Group holds the candidates for one key, split by suppression. Every
// candidate still yields a diagnostic; only actionable ones participate in
// fix synthesis.
type Group struct {
	Key        GroupKey
	Actionable []Candidate
	Suppressed []Candidate
}

// GroupCandidates partitions candidates by (statement, category), routing
// each to the suppressed bucket when a directive covers the candidate's own
// line or its parent statement's line. Group order follows first appearance
// in the input, which is source order.
func GroupCandidates(m *semantic.Model, fs *source.FileSet, cands []Candidate) []Group {
	var order []GroupKey
	byKey := make(map[GroupKey]int)

	for _, cand := range cands {
		key := GroupKey{Stmt: cand.Stmt, Category: cand.Category}
		if _, ok := byKey[key]; !ok {
			byKey[key] = len(order)
			order = append(order, key)
		}
	}

	groups := make([]Group, len(order))
	for i, key := range order {
		groups[i].Key = key
	}
	for _, cand := range cands {
		key := GroupKey{Stmt: cand.Stmt, Category: cand.Category}
		g := &groups[byKey[key]]
		if suppressed(m, fs, cand) {
			g.Suppressed = append(g.Suppressed, cand)
		} else {
			g.Actionable = append(g.Actionable, cand)
		}
	}
	return groups
}

// suppressed checks the candidate's own line first, then the enclosing
// statement's line. Either directive covers the diagnostic and is marked
// used.
func suppressed(m *semantic.Model, fs *source.FileSet, cand Candidate) bool {
	if m.Suppressions == nil {
		return false
	}
	codeID := CategoryCode(cand.Category).ID()
	start, _ := fs.Resolve(cand.Span)
	if m.Suppressions.Suppresses(start.Line, codeID) {
		return true
	}
	if !cand.Parent.Empty() {
		pstart, _ := fs.Resolve(cand.Parent)
		return m.Suppressions.Suppresses(pstart.Line, codeID)
	}
	return false
}
