// Package config provides YAML-based configuration loading with environment
// variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Load loads configuration from a YAML file. ${VAR} references in the file
// are expanded from the environment before parsing, so secrets can stay out
// of the file itself. When the target implements Validator it is validated
// after parsing.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}

// WriteDefault writes data to filename unless the file already exists, and
// reports whether it wrote. Parent directories are created as needed. An
// existing file is never touched.
func WriteDefault(filename string, data []byte) (bool, error) {
	if _, err := os.Stat(filename); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to stat config file %s: %w", filename, err)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config dir for %s: %w", filename, err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file %s: %w", filename, err)
	}
	return true, nil
}
