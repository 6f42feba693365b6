package secretstore

import (
	"context"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"google.golang.org/api/iterator"
)

// AzureClientAPI is the subset of the Key Vault secrets client used by AzureStore.
type AzureClientAPI interface {
	NewListSecretPropertiesPager(options *azsecrets.ListSecretPropertiesOptions) *runtime.Pager[azsecrets.ListSecretPropertiesResponse]
	NewListSecretPropertiesVersionsPager(name string, options *azsecrets.ListSecretPropertiesVersionsOptions) *runtime.Pager[azsecrets.ListSecretPropertiesVersionsResponse]
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// AzureStore reads secrets from an Azure Key Vault.
//
// Key Vault has no server-side listing filter, so name terms are matched
// client-side. Version state follows Attributes.Enabled.
type AzureStore struct {
	client   AzureClientAPI
	vaultURL string
}

// NewAzureStore wraps a Key Vault client for the vault at vaultURL.
func NewAzureStore(client AzureClientAPI, vaultURL string) *AzureStore {
	return &AzureStore{client: client, vaultURL: vaultURL}
}

// Scope returns the vault host.
func (s *AzureStore) Scope() string {
	u, err := url.Parse(s.vaultURL)
	if err != nil || u.Host == "" {
		return s.vaultURL
	}
	return u.Host
}

// ListSecrets lists the vault's secrets whose names satisfy filter.
func (s *AzureStore) ListSecrets(ctx context.Context, scope, filter string) SecretIterator {
	return &azureSecretIterator{
		ctx:    ctx,
		pager:  s.client.NewListSecretPropertiesPager(nil),
		filter: filter,
	}
}

// ListVersions lists the versions of secret.
func (s *AzureStore) ListVersions(ctx context.Context, secret Secret, filter string) VersionIterator {
	want, filtered := wantsState(filter)
	return &azureVersionIterator{
		ctx:      ctx,
		pager:    s.client.NewListSecretPropertiesVersionsPager(secret.ID, nil),
		want:     want,
		filtered: filtered,
	}
}

// AccessVersion reads the value of version.
func (s *AzureStore) AccessVersion(ctx context.Context, version Version) ([]byte, error) {
	resp, err := s.client.GetSecret(ctx, version.Secret, version.ID, nil)
	if err != nil {
		return nil, err
	}
	if resp.Value == nil {
		return nil, nil
	}
	return []byte(*resp.Value), nil
}

type azureSecretIterator struct {
	ctx    context.Context
	pager  *runtime.Pager[azsecrets.ListSecretPropertiesResponse]
	page   []*azsecrets.SecretProperties
	filter string
}

func (i *azureSecretIterator) Next() (Secret, error) {
	for {
		for len(i.page) == 0 {
			if !i.pager.More() {
				return Secret{}, iterator.Done
			}
			resp, err := i.pager.NextPage(i.ctx)
			if err != nil {
				return Secret{}, err
			}
			i.page = resp.Value
		}
		p := i.page[0]
		i.page = i.page[1:]
		if p == nil || p.ID == nil {
			continue
		}

		s := Secret{
			Name: string(*p.ID),
			ID:   p.ID.Name(),
		}
		if !matchesName(i.filter, s.ID) {
			continue
		}
		if p.Attributes != nil && p.Attributes.Created != nil {
			s.CreateTime = *p.Attributes.Created
		}
		if len(p.Tags) > 0 {
			s.Labels = make(map[string]string, len(p.Tags))
			for k, v := range p.Tags {
				if v != nil {
					s.Labels[k] = *v
				}
			}
		}
		return s, nil
	}
}

type azureVersionIterator struct {
	ctx      context.Context
	pager    *runtime.Pager[azsecrets.ListSecretPropertiesVersionsResponse]
	page     []*azsecrets.SecretProperties
	want     State
	filtered bool
}

func (i *azureVersionIterator) Next() (Version, error) {
	for {
		for len(i.page) == 0 {
			if !i.pager.More() {
				return Version{}, iterator.Done
			}
			resp, err := i.pager.NextPage(i.ctx)
			if err != nil {
				return Version{}, err
			}
			i.page = resp.Value
		}
		p := i.page[0]
		i.page = i.page[1:]
		if p == nil || p.ID == nil {
			continue
		}

		v := Version{
			Name:   string(*p.ID),
			ID:     p.ID.Version(),
			Secret: p.ID.Name(),
			State:  StateDisabled,
		}
		if p.Attributes != nil {
			if p.Attributes.Enabled != nil && *p.Attributes.Enabled {
				v.State = StateEnabled
			}
			if p.Attributes.Created != nil {
				v.CreateTime = *p.Attributes.Created
			}
		}
		if i.filtered && v.State != i.want {
			continue
		}
		return v, nil
	}
}
