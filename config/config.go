// Package config loads a weave.Config from a YAML or TOML file (chosen by
// extension), then layers environment-variable overrides on top: file, then
// env, then (in cmd/weavetest) command-line flags — lowest to highest.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/latticeforge/weave"
)

// ErrUnsupportedExtension is returned by Load for any file extension other
// than .yaml/.yml/.toml.
var ErrUnsupportedExtension = fmt.Errorf("config: unsupported file extension")

// Load reads path into a weave.Config seeded with weave.DefaultConfig(),
// then applies WEAVE_-prefixed environment variable overrides.
func Load(path string) (weave.Config, error) {
	cfg := weave.DefaultConfig()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return weave.Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return weave.Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *weave.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("config: parsing %s as YAML: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("config: parsing %s as TOML: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedExtension, path)
	}
	return nil
}
