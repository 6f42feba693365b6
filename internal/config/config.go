package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/gsmconfig/internal/errors"
	"github.com/systmms/gsmconfig/internal/logging"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "gsmconfig.yaml"

// Source kinds.
const (
	KindKeyValue = "keyvalue"
	KindJSON     = "json"
)

// Config holds the runtime configuration
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the gsmconfig.yaml structure
type Definition struct {
	Version   int                    `yaml:"version"`
	Delimiter string                 `yaml:"delimiter,omitempty"`
	Stores    map[string]StoreConfig `yaml:"stores,omitempty"`
	Sources   []SourceConfig         `yaml:"sources"`
}

// StoreConfig holds store-specific configuration. Keys other than type and
// timeout_ms are passed to the store factory.
type StoreConfig struct {
	Type      string                 `yaml:"type"`
	TimeoutMs int                    `yaml:"timeout_ms,omitempty"`
	Config    map[string]interface{} `yaml:",inline"`
}

// SourceConfig describes one provider to load, in order.
type SourceConfig struct {
	Kind      string `yaml:"kind"`
	Store     string `yaml:"store,omitempty"`
	ProjectID string `yaml:"project_id,omitempty"`

	// keyvalue
	Prefix      string `yaml:"prefix,omitempty"`
	StripPrefix *bool  `yaml:"strip_prefix,omitempty"`
	Separator   string `yaml:"separator,omitempty"` // "__", or "--" for azure.keyvault

	// keyvalue in filter mode, json
	Filter string `yaml:"filter,omitempty"`

	// json
	Schema string `yaml:"schema,omitempty"`
}

// Load reads, parses and validates the configuration file
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return dserrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Create " + DefaultPath + " or pass --config",
			}
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return dserrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if def.Version != 0 {
		return dserrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 0' at the top of your " + DefaultPath,
		}
	}

	dir := filepath.Dir(c.Path)
	for i := range def.Sources {
		def.Sources[i].Schema = resolveSchemaPath(dir, def.Sources[i].Schema)
	}

	if err := def.Validate(); err != nil {
		return err
	}

	c.Definition = &def
	return nil
}

// Validate checks stores and sources for consistency.
func (d *Definition) Validate() error {
	for name, store := range d.Stores {
		if store.Type == "" {
			return dserrors.ConfigError{
				Field:      fmt.Sprintf("stores.%s.type", name),
				Message:    "store type is required",
				Suggestion: "Use one of: gcp.secretmanager, aws.secretsmanager, azure.keyvault",
			}
		}
	}

	if len(d.Sources) == 0 {
		return dserrors.ConfigError{
			Field:      "sources",
			Message:    "no sources configured",
			Suggestion: "Add at least one entry with kind: keyvalue or kind: json",
		}
	}

	for i, src := range d.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		switch src.Kind {
		case KindKeyValue:
			if src.Prefix != "" && src.Filter != "" {
				return dserrors.ConfigError{
					Field:      field,
					Message:    "prefix and filter are mutually exclusive",
					Suggestion: "Use prefix to load secrets by name prefix, or filter for a raw listing filter",
				}
			}
			if src.Schema != "" {
				return dserrors.ConfigError{Field: field + ".schema", Message: "schema only applies to json sources"}
			}
		case KindJSON:
			if src.Prefix != "" || src.StripPrefix != nil || src.Separator != "" {
				return dserrors.ConfigError{
					Field:      field,
					Message:    "json sources select their secret with filter, not prefix",
					Suggestion: "Use filter: name:<secret-id>",
				}
			}
		default:
			return dserrors.ConfigError{
				Field:      field + ".kind",
				Value:      src.Kind,
				Message:    "unknown source kind",
				Suggestion: "Use keyvalue or json",
			}
		}

		if src.Store != "" {
			if _, ok := d.Stores[src.Store]; !ok {
				return dserrors.ConfigError{
					Field:      field + ".store",
					Value:      src.Store,
					Message:    "store not defined",
					Suggestion: storeSuggestion(d.Stores),
				}
			}
		}
	}
	return nil
}

// GetStore returns the configuration for a named store
func (c *Config) GetStore(name string) (StoreConfig, error) {
	if c.Definition == nil {
		return StoreConfig{}, dserrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}

	store, ok := c.Definition.Stores[name]
	if !ok {
		return StoreConfig{}, dserrors.ConfigError{
			Field:      "store",
			Value:      name,
			Message:    "store not found in configuration",
			Suggestion: storeSuggestion(c.Definition.Stores),
		}
	}
	return store, nil
}

// StoreNames returns the configured store names, sorted.
func (c *Config) StoreNames() []string {
	if c.Definition == nil {
		return nil
	}
	names := make([]string, 0, len(c.Definition.Stores))
	for name := range c.Definition.Stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Timeout returns the store timeout, 30s when unset.
func (s StoreConfig) Timeout() time.Duration {
	if s.TimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// String returns a string option, or "".
func (s StoreConfig) String(key string) string {
	if v, ok := s.Config[key].(string); ok {
		return v
	}
	return ""
}

// Strings returns a list option; a single string is a one-element list.
func (s StoreConfig) Strings(key string) []string {
	switch v := s.Config[key].(type) {
	case string:
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func storeSuggestion(stores map[string]StoreConfig) string {
	if len(stores) == 0 {
		return "Add the store to the 'stores:' section, or omit store to use Google Cloud with default credentials"
	}
	names := make([]string, 0, len(stores))
	for name := range stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return "Available stores: " + strings.Join(names, ", ")
}

// resolveSchemaPath makes relative schema file paths relative to the
// configuration file. Inline schemas and URLs are left alone.
func resolveSchemaPath(dir, schema string) string {
	s := strings.TrimSpace(schema)
	if s == "" || strings.HasPrefix(s, "{") || strings.Contains(s, "://") || filepath.IsAbs(s) {
		return schema
	}
	if strings.HasPrefix(s, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, s[2:])
		}
	}
	return filepath.Join(dir, s)
}
