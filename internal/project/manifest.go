// Package project locates and parses the undertow.toml manifest.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file the project root is identified by.
const ManifestName = "undertow.toml"

// Manifest is a located, parsed project manifest.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the TOML structure of undertow.toml.
type Config struct {
	Package PackageConfig `toml:"package"`
	Lower   LowerConfig   `toml:"lower"`
	Cache   CacheConfig   `toml:"cache"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

// LowerConfig configures the lowering run.
type LowerConfig struct {
	// Inputs is the directory holding the unit scripts, relative to the
	// project root.
	Inputs string `toml:"inputs"`
	// Steps names the step groups to schedule; empty means the stock
	// "simplify" group.
	Steps []string `toml:"steps"`
	// MaxDiagnostics caps diagnostics per unit; zero means the default.
	MaxDiagnostics int `toml:"max_diagnostics"`
	// Jobs limits lowering parallelism; zero means GOMAXPROCS.
	Jobs int `toml:"jobs"`
}

type CacheConfig struct {
	Enabled bool `toml:"enabled"`
}

// Find walks up from startDir to locate the manifest.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
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

// Load finds and parses the manifest governing startDir. ok is false
// when no manifest exists on the walk up.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := parse(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

func parse(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if cfg.Lower.Inputs == "" {
		cfg.Lower.Inputs = "."
	}
	return cfg, nil
}

// InputsDir resolves the configured inputs directory against the root.
func (m *Manifest) InputsDir() string {
	if filepath.IsAbs(m.Config.Lower.Inputs) {
		return m.Config.Lower.Inputs
	}
	return filepath.Join(m.Root, m.Config.Lower.Inputs)
}
