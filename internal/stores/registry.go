// Package stores opens the secret stores named in gsmconfig.yaml.
package stores

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/oauth2/google"

	"github.com/systmms/gsmconfig/internal/config"
	dserrors "github.com/systmms/gsmconfig/internal/errors"
	"github.com/systmms/gsmconfig/pkg/secretstore"
)

// Store types.
const (
	TypeGCPSecretManager  = "gcp.secretmanager"
	TypeAWSSecretsManager = "aws.secretsmanager"
	TypeAzureKeyVault     = "azure.keyvault"
)

// Opened is a store ready for the providers, plus what it knows about its
// project.
type Opened struct {
	Name  string
	Type  string
	Store secretstore.Store

	// ProjectID and Credentials feed the project fallback chain.
	ProjectID   string
	Credentials *google.Credentials
}

// Close releases the store's client, if it has one.
func (o *Opened) Close() error {
	if c, ok := o.Store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Factory opens a store from its configuration.
type Factory func(ctx context.Context, name string, cfg config.StoreConfig) (*Opened, error)

// Registry maps store types to factories
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a registry with the built-in store types
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.RegisterFactory(TypeGCPSecretManager, NewGCPStoreFactory)
	r.RegisterFactory(TypeAWSSecretsManager, NewAWSStoreFactory)
	r.RegisterFactory(TypeAzureKeyVault, NewAzureStoreFactory)
	return r
}

// RegisterFactory registers or replaces the factory for storeType
func (r *Registry) RegisterFactory(storeType string, factory Factory) {
	r.factories[storeType] = factory
}

// Open creates the store described by cfg
func (r *Registry) Open(ctx context.Context, name string, cfg config.StoreConfig) (*Opened, error) {
	factory, ok := r.factories[cfg.Type]
	if !ok {
		return nil, dserrors.ConfigError{
			Field:      fmt.Sprintf("stores.%s.type", name),
			Value:      cfg.Type,
			Message:    "unknown store type",
			Suggestion: fmt.Sprintf("Supported types: %v", r.SupportedTypes()),
		}
	}
	opened, err := factory(ctx, name, cfg)
	if err != nil {
		return nil, err
	}
	opened.Name, opened.Type = name, cfg.Type
	return opened, nil
}

// SupportedTypes returns the registered store types, sorted
func (r *Registry) SupportedTypes() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsSupported checks if a store type is registered
func (r *Registry) IsSupported(storeType string) bool {
	_, ok := r.factories[storeType]
	return ok
}
