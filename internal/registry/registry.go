// Package registry holds the compared builds of the library under test.
package registry

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultExecutable is the zlib example tool every variant builds.
const DefaultExecutable = "minigzip"

// BaselineName is the conventional name of the reference variant.
const BaselineName = "baseline"

// Variant is one build of the library under test.
type Variant struct {
	Name       string   `mapstructure:"name"`
	URL        string   `mapstructure:"url"`
	Revision   string   `mapstructure:"revision"`
	Flags      []string `mapstructure:"flags"`
	Executable string   `mapstructure:"executable"`

	// Dir is the local checkout; set by WithDir.
	Dir string `mapstructure:"-"`
	// Resolved is the commit hash the build was made from; set by the provisioner.
	Resolved string `mapstructure:"-"`
}

// ExecutablePath returns the location of the built tool.
func (v Variant) ExecutablePath() string {
	exe := v.Executable
	if exe == "" {
		exe = DefaultExecutable
	}
	return filepath.Join(v.Dir, exe)
}

// WithDir returns a copy of v checked out under root.
func (v Variant) WithDir(root string) Variant {
	v.Dir = filepath.Join(root, v.Name)
	return v
}

// Defaults returns the built-in variants.
func Defaults() []Variant {
	return []Variant{
		{
			Name:     BaselineName,
			URL:      "https://github.com/madler/zlib.git",
			Revision: "v1.3.1",
		},
		{
			Name:     "cloudflare",
			URL:      "https://github.com/cloudflare/zlib.git",
			Revision: "gcc.amd64",
		},
		{
			Name:     "zlib-ng",
			URL:      "https://github.com/zlib-ng/zlib-ng.git",
			Revision: "2.2.2",
			Flags:    []string{"--zlib-compat"},
		},
	}
}

// Load returns the variants configured under the "variants" key, or Defaults
// when none are configured.
func Load(v *viper.Viper, baseline string) ([]Variant, error) {
	if !v.IsSet("variants") {
		return Defaults(), nil
	}
	var list []Variant
	if err := v.UnmarshalKey("variants", &list); err != nil {
		return nil, fmt.Errorf("failed to read variants: %w", err)
	}
	if err := Validate(list, baseline); err != nil {
		return nil, err
	}
	return list, nil
}

// Validate checks that names are unique and that baseline is present.
func Validate(list []Variant, baseline string) error {
	if len(list) == 0 {
		return fmt.Errorf("no variants configured")
	}
	seen := make(map[string]bool, len(list))
	for i, v := range list {
		if v.Name == "" {
			return fmt.Errorf("variant %d has no name", i)
		}
		if seen[v.Name] {
			return fmt.Errorf("duplicate variant name %q", v.Name)
		}
		seen[v.Name] = true
		if v.URL == "" {
			return fmt.Errorf("variant %q has no url", v.Name)
		}
		if v.Revision == "" {
			return fmt.Errorf("variant %q has no revision", v.Name)
		}
	}
	if !seen[baseline] {
		return fmt.Errorf("baseline variant %q is not configured", baseline)
	}
	return nil
}

// Lookup finds the variant called name.
func Lookup(list []Variant, name string) (Variant, bool) {
	for _, v := range list {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}
