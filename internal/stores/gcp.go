package stores

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/option"

	"github.com/systmms/gsmconfig/internal/config"
	dserrors "github.com/systmms/gsmconfig/internal/errors"
	"github.com/systmms/gsmconfig/pkg/secretconfig"
)

// NewGCPStoreFactory opens Google Cloud Secret Manager.
//
// Options: project_id, service_account_key_path, impersonate_service_account,
// delegates, endpoint. Without a key file or impersonation the client uses
// Application Default Credentials.
func NewGCPStoreFactory(ctx context.Context, name string, cfg config.StoreConfig) (*Opened, error) {
	var (
		creds *google.Credentials
		opts  []option.ClientOption
	)
	scopes := secretmanager.DefaultAuthScopes()

	if keyPath := cfg.String("service_account_key_path"); keyPath != "" {
		path, err := expandHome(keyPath)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, dserrors.ConfigError{
				Field:      fmt.Sprintf("stores.%s.service_account_key_path", name),
				Value:      keyPath,
				Message:    fmt.Sprintf("cannot read service account key: %v", err),
				Suggestion: "Check the path, or remove it to use Application Default Credentials",
			}
		}
		creds, err = google.CredentialsFromJSON(ctx, data, scopes...)
		if err != nil {
			return nil, dserrors.ConfigError{
				Field:   fmt.Sprintf("stores.%s.service_account_key_path", name),
				Value:   keyPath,
				Message: fmt.Sprintf("invalid service account key: %v", err),
			}
		}
	}

	clientCreds := creds
	if target := cfg.String("impersonate_service_account"); target != "" {
		var baseOpts []option.ClientOption
		if creds != nil {
			baseOpts = append(baseOpts, option.WithCredentials(creds))
		}
		ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
			TargetPrincipal: target,
			Scopes:          scopes,
			Delegates:       cfg.Strings("delegates"),
		}, baseOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create impersonated credentials: %w", err)
		}
		opts = append(opts, option.WithTokenSource(ts))
		clientCreds = nil
	}

	if endpoint := cfg.String("endpoint"); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	store, err := secretconfig.BuildStore(ctx, clientCreds, nil, opts...)
	if err != nil {
		return nil, err
	}

	return &Opened{
		Store:       store,
		ProjectID:   cfg.String("project_id"),
		Credentials: creds,
	}, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
