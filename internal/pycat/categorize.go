package pycat

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Options configures provenance classification for one project.
type Options struct {
	// KnownFirstParty, KnownThirdParty and KnownStandardLibrary hold glob
	// patterns matched against the top-level module name. Explicit
	// configuration wins over discovery.
	KnownFirstParty      []string
	KnownThirdParty      []string
	KnownStandardLibrary []string
	// SrcModules lists top-level modules and packages discovered under the
	// project's source roots. Anything found there is first-party.
	SrcModules []string
}

// Classifier assigns raw sections to qualified import names. Build one per
// project and reuse it across files; it is immutable after construction.
type Classifier struct {
	firstParty []glob.Glob
	thirdParty []glob.Glob
	stdlib     []glob.Glob
	srcModules map[string]bool
}

// NewClassifier compiles the configured patterns. A malformed pattern is a
// configuration error and aborts construction.
func NewClassifier(opts Options) (*Classifier, error) {
	c := &Classifier{srcModules: make(map[string]bool, len(opts.SrcModules))}
	var err error
	if c.firstParty, err = compilePatterns(opts.KnownFirstParty); err != nil {
		return nil, fmt.Errorf("known-first-party: %w", err)
	}
	if c.thirdParty, err = compilePatterns(opts.KnownThirdParty); err != nil {
		return nil, fmt.Errorf("known-third-party: %w", err)
	}
	if c.stdlib, err = compilePatterns(opts.KnownStandardLibrary); err != nil {
		return nil, fmt.Errorf("known-standard-library: %w", err)
	}
	for _, m := range opts.SrcModules {
		c.srcModules[m] = true
	}
	return c, nil
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '.')
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Categorize maps a qualified import name and its relative-import level to a
// raw section. The name carries no leading dots; level conveys them.
func (c *Classifier) Categorize(name string, level uint32) Section {
	if level > 0 {
		return SectionLocalFolder
	}
	if name == "__future__" {
		return SectionFuture
	}
	top := name
	if i := strings.IndexByte(top, '.'); i >= 0 {
		top = top[:i]
	}
	switch {
	case matchAny(c.firstParty, top):
		return SectionFirstParty
	case matchAny(c.thirdParty, top):
		return SectionThirdParty
	case matchAny(c.stdlib, top):
		return SectionStandardLibrary
	case IsStdlibModule(top):
		return SectionStandardLibrary
	case c.srcModules[top]:
		return SectionFirstParty
	default:
		return SectionThirdParty
	}
}
