package secretconfig

import (
	"context"
	"fmt"
	"io"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/systmms/gsmconfig/pkg/secretstore"
)

// BuildStore returns store when non-nil. Otherwise it creates a Secret
// Manager client authenticated with creds, or with Application Default
// Credentials when creds is nil. opts are appended to the client options.
func BuildStore(ctx context.Context, creds *google.Credentials, store secretstore.Store, opts ...option.ClientOption) (secretstore.Store, error) {
	if store != nil {
		return store, nil
	}

	var clientOpts []option.ClientOption
	if creds != nil {
		clientOpts = append(clientOpts, option.WithCredentials(creds))
	}
	clientOpts = append(clientOpts, opts...)

	client, err := secretmanager.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return secretstore.NewGCPStore(client), nil
}

// projectChain picks the listing scope: explicit id, credential project,
// store scope, then the platform and environment.
func projectChain(ctx context.Context, explicit string, creds *google.Credentials, store secretstore.Store, env EnvironmentReader) string {
	if explicit != "" {
		return explicit
	}
	if creds != nil && creds.ProjectID != "" {
		return creds.ProjectID
	}
	if scoped, ok := store.(secretstore.Scoped); ok {
		if scope := scoped.Scope(); scope != "" {
			return scope
		}
	}
	return ResolveProjectID(ctx, env)
}

// storeHandle lazily builds a provider's store and remembers whether the
// provider owns it.
type storeHandle struct {
	creds *google.Credentials
	given secretstore.Store
	built secretstore.Store
}

func (h *storeHandle) get(ctx context.Context) (secretstore.Store, error) {
	if h.given != nil {
		return h.given, nil
	}
	if h.built == nil {
		s, err := BuildStore(ctx, h.creds, nil)
		if err != nil {
			return nil, err
		}
		h.built = s
	}
	return h.built, nil
}

func (h *storeHandle) close() error {
	if c, ok := h.built.(io.Closer); ok {
		h.built = nil
		return c.Close()
	}
	return nil
}
