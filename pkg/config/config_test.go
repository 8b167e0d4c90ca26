package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sampleConfig struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

type checkedConfig struct {
	Port int `yaml:"port"`
}

func (c *checkedConfig) Validate() error {
	if c.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "name: muninn\nport: 8080\n")

	var cfg sampleConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "muninn" || cfg.Port != 8080 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("MUNINN_TEST_NAME", "from-env")
	path := writeConfig(t, "name: ${MUNINN_TEST_NAME}\nport: 1\n")

	var cfg sampleConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "from-env" {
		t.Errorf("name = %q, want from-env", cfg.Name)
	}
}

func TestLoad_RunsValidator(t *testing.T) {
	path := writeConfig(t, "port: 0\n")

	var cfg checkedConfig
	err := Load(path, &cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "config validation failed") {
		t.Errorf("error = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg sampleConfig
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "name: [unclosed\n")

	var cfg sampleConfig
	err := Load(path, &cfg)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("error = %v", err)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "config.yaml")

	written, err := WriteDefault(path, []byte("name: fresh\n"))
	if err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	if !written {
		t.Error("written = false, want true")
	}

	// A second call must leave the existing file alone.
	written, err = WriteDefault(path, []byte("name: clobbered\n"))
	if err != nil {
		t.Fatalf("WriteDefault again: %v", err)
	}
	if written {
		t.Error("written = true on existing file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "name: fresh\n" {
		t.Errorf("content = %q", data)
	}
}
