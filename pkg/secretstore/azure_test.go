package secretstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/gsmconfig/pkg/secretstore"
	"github.com/systmms/gsmconfig/tests/fakes"
)

func TestAzureStore_ListSecretsFiltersByName(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	for _, name := range []string{"app--a", "other", "APP--b"} {
		fake.AddSecretString(name, "v")
	}
	store := secretstore.NewAzureStore(fake, fake.VaultURL)

	assert.Equal(t, "fake-vault.vault.azure.net", store.Scope())

	all := drainSecrets(t, store.ListSecrets(context.Background(), store.Scope(), ""))
	require.Len(t, all, 3)
	assert.Equal(t, "app--a", all[0].ID)
	assert.Equal(t, "https://fake-vault.vault.azure.net/secrets/app--a", all[0].Name)

	matched := drainSecrets(t, store.ListSecrets(context.Background(), store.Scope(), "name:app"))
	require.Len(t, matched, 2)
	assert.Equal(t, "APP--b", matched[1].ID)
}

func TestAzureStore_VersionsAndAccess(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	fake.AddVersion("db", "aaa", "first", true, t0)
	fake.AddVersion("db", "bbb", "disabled", false, t0.Add(time.Hour))
	fake.AddVersion("db", "ccc", "third", true, t0.Add(2*time.Hour))
	store := secretstore.NewAzureStore(fake, fake.VaultURL)

	secret := secretstore.Secret{ID: "db"}
	all := drainVersions(t, store.ListVersions(context.Background(), secret, ""))
	require.Len(t, all, 3)
	assert.Equal(t, secretstore.StateDisabled, all[1].State)
	assert.Equal(t, "bbb", all[1].ID)
	assert.Equal(t, "db", all[1].Secret)
	assert.True(t, t0.Equal(all[0].CreateTime))

	enabled := drainVersions(t, store.ListVersions(context.Background(), secret, secretstore.FilterEnabled))
	require.Len(t, enabled, 2)

	payload, err := store.AccessVersion(context.Background(), enabled[1])
	require.NoError(t, err)
	assert.Equal(t, "third", string(payload))
}

func TestAzureStore_ErrorsPassThrough(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	fake.AddError("*", fakes.AzureForbiddenError())
	store := secretstore.NewAzureStore(fake, fake.VaultURL)

	_, err := store.ListSecrets(context.Background(), "", "").Next()
	var respErr *azcore.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, 403, respErr.StatusCode)
}
