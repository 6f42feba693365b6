package stores

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/systmms/gsmconfig/internal/config"
	dserrors "github.com/systmms/gsmconfig/internal/errors"
	"github.com/systmms/gsmconfig/pkg/secretstore"
)

// NewAzureStoreFactory opens an Azure Key Vault.
//
// Options: vault_url (required); tenant_id, client_id and client_secret for
// a service principal; use_managed_identity with optional user_assigned_id.
// Otherwise DefaultAzureCredential is used.
func NewAzureStoreFactory(ctx context.Context, name string, cfg config.StoreConfig) (*Opened, error) {
	vaultURL := cfg.String("vault_url")
	if vaultURL == "" {
		return nil, dserrors.ConfigError{
			Field:      fmt.Sprintf("stores.%s.vault_url", name),
			Message:    "vault_url is required for azure.keyvault",
			Suggestion: "Set vault_url, e.g. https://my-vault.vault.azure.net/",
		}
	}

	cred, err := azureCredential(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}
	return &Opened{Store: secretstore.NewAzureStore(client, vaultURL)}, nil
}

func azureCredential(cfg config.StoreConfig) (azcore.TokenCredential, error) {
	if managed, _ := cfg.Config["use_managed_identity"].(bool); managed {
		if id := cfg.String("user_assigned_id"); id != "" {
			return azidentity.NewManagedIdentityCredential(&azidentity.ManagedIdentityCredentialOptions{
				ID: azidentity.ClientID(id),
			})
		}
		return azidentity.NewManagedIdentityCredential(nil)
	}

	tenant, client, secret := cfg.String("tenant_id"), cfg.String("client_id"), cfg.String("client_secret")
	if tenant != "" && client != "" && secret != "" {
		return azidentity.NewClientSecretCredential(tenant, client, secret, nil)
	}

	return azidentity.NewDefaultAzureCredential(nil)
}
