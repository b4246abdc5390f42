// Package config loads typefence.toml and maps it onto the analysis
// settings. The file is discovered by walking up from the checked
// directory, so running from a subdirectory picks up the project config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"typefence/internal/pycat"
	"typefence/internal/typingonly"
)

// FileName is the manifest file looked up in each ancestor directory.
const FileName = "typefence.toml"

// Config is the on-disk configuration shape.
type Config struct {
	Check      CheckConfig      `toml:"check"`
	Categorize CategorizeConfig `toml:"categorize"`
	Files      FilesConfig      `toml:"files"`
	Output     OutputConfig     `toml:"output"`
}

// CheckConfig tunes the typing-only import analysis.
type CheckConfig struct {
	Strict                     bool     `toml:"strict"`
	ExemptModules              []string `toml:"exempt-modules"`
	FlagFirstParty             bool     `toml:"flag-first-party"`
	FlagThirdParty             bool     `toml:"flag-third-party"`
	FlagStandardLibrary        bool     `toml:"flag-standard-library"`
	RuntimeRequiredBaseClasses []string `toml:"runtime-required-base-classes"`
	RuntimeRequiredDecorators  []string `toml:"runtime-required-decorators"`
}

// CategorizeConfig tunes import-section classification.
type CategorizeConfig struct {
	KnownFirstParty      []string `toml:"known-first-party"`
	KnownThirdParty      []string `toml:"known-third-party"`
	KnownStandardLibrary []string `toml:"known-standard-library"`
	Src                  []string `toml:"src"`
}

// FilesConfig filters which files a directory run visits.
type FilesConfig struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

// OutputConfig tunes diagnostics output.
type OutputConfig struct {
	MaxDiagnostics int `toml:"max-diagnostics"`
}

// Manifest is a loaded config with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Find walks up from startDir looking for typefence.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load discovers and parses the nearest manifest. The second return value
// is false when no manifest exists, which is not an error.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := LoadFile(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// LoadFile parses one manifest file. Unset keys keep their defaults; an
// unknown key is an error so typos surface instead of silently doing
// nothing.
func LoadFile(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}

	m := &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}
	m.applyDefaults(meta)
	return m, nil
}

// applyDefaults fills settings the file left unset. TOML booleans default
// to false, so the per-category flags need explicit is-defined checks to
// default on.
func (m *Manifest) applyDefaults(meta toml.MetaData) {
	def := typingonly.DefaultSettings()
	if !meta.IsDefined("check", "exempt-modules") {
		m.Config.Check.ExemptModules = def.ExemptModules
	}
	if !meta.IsDefined("check", "flag-first-party") {
		m.Config.Check.FlagFirstParty = def.FlagFirstParty
	}
	if !meta.IsDefined("check", "flag-third-party") {
		m.Config.Check.FlagThirdParty = def.FlagThirdParty
	}
	if !meta.IsDefined("check", "flag-standard-library") {
		m.Config.Check.FlagStandardLibrary = def.FlagStandardLibrary
	}
}

// Settings converts the manifest to analysis settings.
func (m *Manifest) Settings() typingonly.Settings {
	c := m.Config.Check
	return typingonly.Settings{
		Strict:                     c.Strict,
		ExemptModules:              c.ExemptModules,
		FlagFirstParty:             c.FlagFirstParty,
		FlagThirdParty:             c.FlagThirdParty,
		FlagStandardLibrary:        c.FlagStandardLibrary,
		RuntimeRequiredBaseClasses: c.RuntimeRequiredBaseClasses,
		RuntimeRequiredDecorators:  c.RuntimeRequiredDecorators,
	}
}

// CategorizeOptions converts the manifest to classifier options.
func (m *Manifest) CategorizeOptions() pycat.Options {
	c := m.Config.Categorize
	return pycat.Options{
		KnownFirstParty:      c.KnownFirstParty,
		KnownThirdParty:      c.KnownThirdParty,
		KnownStandardLibrary: c.KnownStandardLibrary,
		SrcModules:           c.Src,
	}
}

// Default returns the settings used when no manifest exists.
func Default() *Manifest {
	def := typingonly.DefaultSettings()
	return &Manifest{
		Config: Config{
			Check: CheckConfig{
				ExemptModules:       def.ExemptModules,
				FlagFirstParty:      def.FlagFirstParty,
				FlagThirdParty:      def.FlagThirdParty,
				FlagStandardLibrary: def.FlagStandardLibrary,
			},
		},
	}
}
