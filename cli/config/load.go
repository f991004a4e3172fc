package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PathEnv names the config file when --config is not given.
const PathEnv = "MONOCHROME_CONFIG"

// Load reads a YAML config file, expands environment variables, and
// unmarshals into a Config struct. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	expanded := ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewBufferString(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	return &cfg, nil
}

// Resolve loads the config at path, then $MONOCHROME_CONFIG, then
// <user config dir>/monochrome/config.yaml. An explicit path must exist;
// the fallbacks are optional and yield an empty Config when absent.
func Resolve(path string) (*Config, string, error) {
	if path != "" {
		cfg, err := Load(path)
		return cfg, path, err
	}
	if env := os.Getenv(PathEnv); env != "" {
		cfg, err := Load(env)
		return cfg, env, err
	}
	if dir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(dir, "monochrome", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}
	return &Config{}, "", nil
}
