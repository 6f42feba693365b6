package fakes

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/systmms/gsmconfig/pkg/secretstore"
)

// FakeAzureKeyVaultClient implements secretstore.AzureClientAPI in memory.
// Pagers return PageSize entries per page.
type FakeAzureKeyVaultClient struct {
	mu      sync.Mutex
	secrets []*AzureSecretData

	VaultURL string
	PageSize int

	// Errors maps a secret name to an error returned by GetSecret and the
	// version pager. The key "*" fails the secret pager.
	Errors map[string]error
}

// AzureSecretData holds a fake Key Vault secret.
type AzureSecretData struct {
	Name     string
	Tags     map[string]*string
	Versions []*AzureSecretVersion
}

// AzureSecretVersion holds one fake version.
type AzureSecretVersion struct {
	Version string
	Value   string
	Enabled bool
	Created time.Time
}

var _ secretstore.AzureClientAPI = (*FakeAzureKeyVaultClient)(nil)

// NewFakeAzureKeyVaultClient creates an empty fake vault.
func NewFakeAzureKeyVaultClient() *FakeAzureKeyVaultClient {
	return &FakeAzureKeyVaultClient{
		VaultURL: "https://fake-vault.vault.azure.net/",
		PageSize: 2,
		Errors:   make(map[string]error),
	}
}

// AddVersion adds a version to name, creating the secret if needed.
func (f *FakeAzureKeyVaultClient) AddVersion(name, version, value string, enabled bool, created time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.secretLocked(name)
	s.Versions = append(s.Versions, &AzureSecretVersion{
		Version: version,
		Value:   value,
		Enabled: enabled,
		Created: created,
	})
}

// AddSecretString adds a secret with one enabled version.
func (f *FakeAzureKeyVaultClient) AddSecretString(name, value string) {
	f.AddVersion(name, "0000000000000000000000000000000a", value, true, time.Now())
}

// AddError configures the fake to fail for name.
func (f *FakeAzureKeyVaultClient) AddError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[name] = err
}

func (f *FakeAzureKeyVaultClient) secretLocked(name string) *AzureSecretData {
	for _, s := range f.secrets {
		if s.Name == name {
			return s
		}
	}
	s := &AzureSecretData{Name: name}
	f.secrets = append(f.secrets, s)
	return s
}

func (f *FakeAzureKeyVaultClient) id(parts ...string) *azsecrets.ID {
	id := azsecrets.ID(strings.TrimSuffix(f.VaultURL, "/") + "/secrets/" + strings.Join(parts, "/"))
	return &id
}

// NewListSecretPropertiesPager pages through all secrets.
func (f *FakeAzureKeyVaultClient) NewListSecretPropertiesPager(options *azsecrets.ListSecretPropertiesOptions) *runtime.Pager[azsecrets.ListSecretPropertiesResponse] {
	f.mu.Lock()
	err := f.Errors["*"]
	var props []*azsecrets.SecretProperties
	for _, s := range f.secrets {
		p := &azsecrets.SecretProperties{ID: f.id(s.Name), Tags: s.Tags}
		if len(s.Versions) > 0 {
			p.Attributes = &azsecrets.SecretAttributes{Created: &s.Versions[0].Created}
		}
		props = append(props, p)
	}
	size := f.PageSize
	f.mu.Unlock()

	return runtime.NewPager(runtime.PagingHandler[azsecrets.ListSecretPropertiesResponse]{
		More: func(page azsecrets.ListSecretPropertiesResponse) bool {
			return page.NextLink != nil
		},
		Fetcher: func(ctx context.Context, page *azsecrets.ListSecretPropertiesResponse) (azsecrets.ListSecretPropertiesResponse, error) {
			if err != nil {
				return azsecrets.ListSecretPropertiesResponse{}, err
			}
			var token string
			if page != nil && page.NextLink != nil {
				token = *page.NextLink
			}
			bounds, next := paginate(len(props), size, token)
			var resp azsecrets.ListSecretPropertiesResponse
			resp.Value = props[bounds[0]:bounds[1]]
			if next != "" {
				resp.NextLink = &next
			}
			return resp, nil
		},
	})
}

// NewListSecretPropertiesVersionsPager pages through the versions of name.
func (f *FakeAzureKeyVaultClient) NewListSecretPropertiesVersionsPager(name string, options *azsecrets.ListSecretPropertiesVersionsOptions) *runtime.Pager[azsecrets.ListSecretPropertiesVersionsResponse] {
	f.mu.Lock()
	err := f.Errors[name]
	var props []*azsecrets.SecretProperties
	for _, s := range f.secrets {
		if s.Name != name {
			continue
		}
		for _, v := range s.Versions {
			enabled, created := v.Enabled, v.Created
			props = append(props, &azsecrets.SecretProperties{
				ID: f.id(s.Name, v.Version),
				Attributes: &azsecrets.SecretAttributes{
					Enabled: &enabled,
					Created: &created,
				},
			})
		}
	}
	size := f.PageSize
	f.mu.Unlock()

	return runtime.NewPager(runtime.PagingHandler[azsecrets.ListSecretPropertiesVersionsResponse]{
		More: func(page azsecrets.ListSecretPropertiesVersionsResponse) bool {
			return page.NextLink != nil
		},
		Fetcher: func(ctx context.Context, page *azsecrets.ListSecretPropertiesVersionsResponse) (azsecrets.ListSecretPropertiesVersionsResponse, error) {
			if err != nil {
				return azsecrets.ListSecretPropertiesVersionsResponse{}, err
			}
			var token string
			if page != nil && page.NextLink != nil {
				token = *page.NextLink
			}
			bounds, next := paginate(len(props), size, token)
			var resp azsecrets.ListSecretPropertiesVersionsResponse
			resp.Value = props[bounds[0]:bounds[1]]
			if next != "" {
				resp.NextLink = &next
			}
			return resp, nil
		},
	})
}

// GetSecret returns one version of a secret; an empty version means the
// newest one added.
func (f *FakeAzureKeyVaultClient) GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.Errors[name]; ok {
		return azsecrets.GetSecretResponse{}, err
	}
	for _, s := range f.secrets {
		if s.Name != name || len(s.Versions) == 0 {
			continue
		}
		v := s.Versions[len(s.Versions)-1]
		if version != "" {
			v = nil
			for _, candidate := range s.Versions {
				if candidate.Version == version {
					v = candidate
				}
			}
		}
		if v == nil {
			break
		}
		if !v.Enabled {
			return azsecrets.GetSecretResponse{}, &azcore.ResponseError{StatusCode: http.StatusForbidden, ErrorCode: "Forbidden"}
		}
		value := v.Value
		return azsecrets.GetSecretResponse{
			Secret: azsecrets.Secret{
				ID:    f.id(s.Name, v.Version),
				Value: &value,
			},
		}, nil
	}
	return azsecrets.GetSecretResponse{}, AzureNotFoundError(name)
}

// AzureNotFoundError creates a Key Vault not found error.
func AzureNotFoundError(secretName string) error {
	return &azcore.ResponseError{
		StatusCode: http.StatusNotFound,
		ErrorCode:  "SecretNotFound",
	}
}

// AzureForbiddenError creates a Key Vault forbidden error.
func AzureForbiddenError() error {
	return &azcore.ResponseError{
		StatusCode: http.StatusForbidden,
		ErrorCode:  "Forbidden",
	}
}

// AzureThrottledError creates a Key Vault throttling error.
func AzureThrottledError() error {
	return &azcore.ResponseError{
		StatusCode: http.StatusTooManyRequests,
		ErrorCode:  "TooManyRequests",
	}
}
