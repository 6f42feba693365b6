package stores

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/gsmconfig/internal/config"
	dserrors "github.com/systmms/gsmconfig/internal/errors"
	"github.com/systmms/gsmconfig/pkg/secretstore"
	"github.com/systmms/gsmconfig/tests/fakes"
)

func TestRegistry_SupportedTypes(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	assert.Equal(t, []string{"aws.secretsmanager", "azure.keyvault", "gcp.secretmanager"}, r.SupportedTypes())
	assert.True(t, r.IsSupported(TypeGCPSecretManager))
	assert.False(t, r.IsSupported("vault"))
}

func TestRegistry_OpenUnknownType(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry().Open(context.Background(), "x", config.StoreConfig{Type: "vault"})

	var ce dserrors.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "stores.x.type", ce.Field)
	assert.Contains(t, ce.Suggestion, "gcp.secretmanager")
}

func TestRegistry_OpenCustomFactory(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeGCPSecretManagerClient()
	r := NewRegistry()
	r.RegisterFactory("fake", func(ctx context.Context, name string, cfg config.StoreConfig) (*Opened, error) {
		return &Opened{Store: secretstore.NewGCPStoreWithClient(fake), ProjectID: cfg.String("project_id")}, nil
	})

	opened, err := r.Open(context.Background(), "test", config.StoreConfig{
		Type:   "fake",
		Config: map[string]interface{}{"project_id": "p1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "test", opened.Name)
	assert.Equal(t, "fake", opened.Type)
	assert.Equal(t, "p1", opened.ProjectID)
	assert.NoError(t, opened.Close())
}

func TestAWSStoreFactory(t *testing.T) {
	t.Parallel()

	opened, err := NewRegistry().Open(context.Background(), "aws", config.StoreConfig{
		Type: TypeAWSSecretsManager,
		Config: map[string]interface{}{
			"region":            "eu-west-1",
			"endpoint":          "http://localhost:4566",
			"access_key_id":     "test",
			"secret_access_key": "test",
			"role_arn":          "arn:aws:iam::123456789012:role/reader",
		},
	})
	require.NoError(t, err)

	scoped, ok := opened.Store.(secretstore.Scoped)
	require.True(t, ok)
	assert.Equal(t, "eu-west-1", scoped.Scope())
}

func TestAWSStoreFactory_RequiresRegion(t *testing.T) {
	t.Parallel()

	_, err := NewAWSStoreFactory(context.Background(), "aws", config.StoreConfig{Type: TypeAWSSecretsManager})

	var ce dserrors.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "stores.aws.region", ce.Field)
}

func TestAzureStoreFactory(t *testing.T) {
	t.Parallel()

	opened, err := NewAzureStoreFactory(context.Background(), "kv", config.StoreConfig{
		Type: TypeAzureKeyVault,
		Config: map[string]interface{}{
			"vault_url":     "https://example.vault.azure.net/",
			"tenant_id":     "00000000-0000-0000-0000-000000000000",
			"client_id":     "11111111-1111-1111-1111-111111111111",
			"client_secret": "not-a-real-secret",
		},
	})
	require.NoError(t, err)

	scoped, ok := opened.Store.(secretstore.Scoped)
	require.True(t, ok)
	assert.Equal(t, "example.vault.azure.net", scoped.Scope())
}

func TestAzureStoreFactory_RequiresVaultURL(t *testing.T) {
	t.Parallel()

	_, err := NewAzureStoreFactory(context.Background(), "kv", config.StoreConfig{Type: TypeAzureKeyVault})

	assert.True(t, dserrors.IsConfigError(err))
}

func TestGCPStoreFactory_MissingKeyFile(t *testing.T) {
	t.Parallel()

	_, err := NewGCPStoreFactory(context.Background(), "gcp", config.StoreConfig{
		Type: TypeGCPSecretManager,
		Config: map[string]interface{}{
			"service_account_key_path": filepath.Join(t.TempDir(), "missing.json"),
		},
	})

	var ce dserrors.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "stores.gcp.service_account_key_path", ce.Field)
}

func TestExpandHome(t *testing.T) {
	t.Parallel()

	got, err := expandHome("/abs/key.json")
	require.NoError(t, err)
	assert.Equal(t, "/abs/key.json", got)

	got, err = expandHome("~/key.json")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "key.json", filepath.Base(got))
}
