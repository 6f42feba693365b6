// Package testutil provides test utilities and helpers for gsmconfig tests.
//
// This package contains shared test infrastructure including configuration
// builders, logger helpers, and fake environments.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/systmms/gsmconfig/internal/config"
)

// TestConfigBuilder provides a fluent API for building test configurations.
//
// Example usage:
//
//	path := NewTestConfig(t).
//	    WithStore("aws", "aws.secretsmanager", map[string]any{"region": "us-east-1"}).
//	    WithKeyValueSource("aws", "app__").
//	    WithJSONSource("", "name:appconfig01").
//	    Write()
type TestConfigBuilder struct {
	config  *config.Definition
	tempDir string
	t       *testing.T
}

// NewTestConfig creates a builder holding an empty version 0 configuration.
func NewTestConfig(t *testing.T) *TestConfigBuilder {
	t.Helper()

	return &TestConfigBuilder{
		config: &config.Definition{
			Stores: make(map[string]config.StoreConfig),
		},
		tempDir: t.TempDir(),
		t:       t,
	}
}

// WithDelimiter sets the key delimiter.
func (b *TestConfigBuilder) WithDelimiter(delim string) *TestConfigBuilder {
	b.config.Delimiter = delim
	return b
}

// WithStore adds a named store of storeType with its options.
func (b *TestConfigBuilder) WithStore(name, storeType string, cfg map[string]any) *TestConfigBuilder {
	b.t.Helper()

	b.config.Stores[name] = config.StoreConfig{
		Type:   storeType,
		Config: cfg,
	}
	return b
}

// WithKeyValueSource appends a keyvalue source reading secrets with prefix.
// An empty store means the default Google Cloud store.
func (b *TestConfigBuilder) WithKeyValueSource(store, prefix string) *TestConfigBuilder {
	return b.WithSource(config.SourceConfig{
		Kind:   config.KindKeyValue,
		Store:  store,
		Prefix: prefix,
	})
}

// WithJSONSource appends a json source reading the first secret matching filter.
func (b *TestConfigBuilder) WithJSONSource(store, filter string) *TestConfigBuilder {
	return b.WithSource(config.SourceConfig{
		Kind:   config.KindJSON,
		Store:  store,
		Filter: filter,
	})
}

// WithSource appends src as is.
func (b *TestConfigBuilder) WithSource(src config.SourceConfig) *TestConfigBuilder {
	b.config.Sources = append(b.config.Sources, src)
	return b
}

// Build returns the in-memory Definition.
func (b *TestConfigBuilder) Build() *config.Definition {
	return b.config
}

// Write writes the configuration as gsmconfig.yaml in a temporary directory
// and returns its path.
func (b *TestConfigBuilder) Write() string {
	b.t.Helper()

	path := filepath.Join(b.tempDir, config.DefaultPath)
	if err := b.WriteYAML(path); err != nil {
		b.t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

// WriteYAML writes the configuration to path.
func (b *TestConfigBuilder) WriteYAML(path string) error {
	b.t.Helper()

	data, err := yaml.Marshal(b.config)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// WriteTestConfig writes a hand-written YAML document to a temporary
// gsmconfig.yaml and returns its path.
//
//	path := WriteTestConfig(t, `
//	version: 0
//	sources:
//	  - kind: keyvalue
//	    prefix: app__
//	`)
func WriteTestConfig(t *testing.T, yamlContent string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), config.DefaultPath)
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

// LoadTestConfig loads and validates the configuration at path, failing the
// test on error.
func LoadTestConfig(t *testing.T, path string) *config.Config {
	t.Helper()

	cfg := &config.Config{Path: path}
	if err := cfg.Load(); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}
