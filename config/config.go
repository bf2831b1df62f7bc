// Package config loads and validates the TOML generation manifest.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	xerrors "github.com/bindcraft/winmd-gen/errors"
)

// Config is the full generation manifest.
type Config struct {
	Output       Output      `toml:"output"`
	Include      []string    `toml:"include"`
	CompilerArgs []string    `toml:"compiler-args"`
	Partitions   []Partition `toml:"partition"`
	// NamespaceOverrides redirects individual type names to a namespace
	// other than their extracting partition's, so references follow the
	// override and the extracting partition's own copy is deduplicated
	// away.
	NamespaceOverrides map[string]string `toml:"namespace-overrides"`
	TypeImports        []TypeImport      `toml:"type-import"`
}

// Output names the produced metadata file.
type Output struct {
	Assembly string `toml:"assembly"`
	File     string `toml:"file"`
}

// Partition maps a set of headers onto one namespace and one shared
// library. Headers are parsed as a unit; Traverse limits which files
// declarations may come from and defaults to Headers.
type Partition struct {
	Namespace    string   `toml:"namespace"`
	Library      string   `toml:"library"`
	Headers      []string `toml:"headers"`
	Traverse     []string `toml:"traverse"`
	CompilerArgs []string `toml:"compiler-args"`
}

// TypeImport pre-seeds the type registry from an existing metadata file
// so its types are referenced instead of redefined. Namespace, when set,
// limits the import to one namespace subtree.
type TypeImport struct {
	File      string `toml:"file"`
	Namespace string `toml:"namespace"`
}

// Load reads and validates a manifest. Relative header and import paths
// are kept relative to the manifest's directory.
func Load(path string) (*Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, xerrors.Wrap(xerrors.PhaseConfig, xerrors.KindInvalidInput, err,
			fmt.Sprintf("cannot load manifest %q", path))
	}
	c.applyDefaults(filepath.Dir(path))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults(dir string) {
	if c.Output.File == "" && c.Output.Assembly != "" {
		c.Output.File = c.Output.Assembly + ".winmd"
	}
	for i := range c.Partitions {
		p := &c.Partitions[i]
		if len(p.Traverse) == 0 {
			p.Traverse = p.Headers
		}
	}
	if dir == "" || dir == "." {
		return
	}
	for i, inc := range c.Include {
		c.Include[i] = joinIfRelative(dir, inc)
	}
	for i := range c.TypeImports {
		c.TypeImports[i].File = joinIfRelative(dir, c.TypeImports[i].File)
	}
}

func joinIfRelative(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Validate checks the manifest for the errors a run cannot recover
// from.
func (c *Config) Validate() error {
	if c.Output.Assembly == "" {
		return invalid("output.assembly is required")
	}
	if len(c.Partitions) == 0 {
		return invalid("at least one [[partition]] is required")
	}
	seen := make(map[string]struct{}, len(c.Partitions))
	for i := range c.Partitions {
		p := &c.Partitions[i]
		if p.Namespace == "" {
			return invalid(fmt.Sprintf("partition %d: namespace is required", i))
		}
		if p.Library == "" {
			return invalid(fmt.Sprintf("partition %q: library is required", p.Namespace))
		}
		if len(p.Headers) == 0 {
			return invalid(fmt.Sprintf("partition %q: headers are required", p.Namespace))
		}
		if _, dup := seen[p.Namespace]; dup {
			return invalid(fmt.Sprintf("duplicate partition namespace %q", p.Namespace))
		}
		seen[p.Namespace] = struct{}{}
	}
	for i := range c.TypeImports {
		if c.TypeImports[i].File == "" {
			return invalid(fmt.Sprintf("type-import %d: file is required", i))
		}
	}
	return nil
}

// ResolveHeader locates a header by name against the include paths. A
// path that exists as given (absolute, or relative to the working
// directory) wins.
func (c *Config) ResolveHeader(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	for _, dir := range c.Include {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", xerrors.NotFound(xerrors.PhaseConfig, "header", name)
}

// CompilerFlags builds the front-end argument list for a partition:
// include paths, global arguments, then partition arguments.
func (c *Config) CompilerFlags(p *Partition) []string {
	args := make([]string, 0, len(c.Include)+len(c.CompilerArgs)+len(p.CompilerArgs))
	for _, dir := range c.Include {
		args = append(args, "-I"+dir)
	}
	args = append(args, c.CompilerArgs...)
	args = append(args, p.CompilerArgs...)
	return args
}

func invalid(detail string) error {
	return xerrors.InvalidInput(xerrors.PhaseConfig, detail)
}
