package secretstore

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// GCPClientAPI is the subset of the Secret Manager client used by GCPStore.
type GCPClientAPI interface {
	ListSecrets(ctx context.Context, req *secretmanagerpb.ListSecretsRequest) GCPSecretIterator
	ListSecretVersions(ctx context.Context, req *secretmanagerpb.ListSecretVersionsRequest) GCPVersionIterator
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// GCPSecretIterator matches *secretmanager.SecretIterator.
type GCPSecretIterator interface {
	Next() (*secretmanagerpb.Secret, error)
}

// GCPVersionIterator matches *secretmanager.SecretVersionIterator.
type GCPVersionIterator interface {
	Next() (*secretmanagerpb.SecretVersion, error)
}

// GCPStore reads secrets from Google Cloud Secret Manager.
type GCPStore struct {
	client GCPClientAPI
	closer func() error
}

// NewGCPStore wraps a Secret Manager client. Close closes the client.
func NewGCPStore(client *secretmanager.Client) *GCPStore {
	return &GCPStore{
		client: gcpClient{c: client},
		closer: client.Close,
	}
}

// NewGCPStoreWithClient wraps any implementation of GCPClientAPI.
func NewGCPStoreWithClient(client GCPClientAPI) *GCPStore {
	return &GCPStore{client: client}
}

// Close releases the underlying client when the store owns one.
func (s *GCPStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// ListSecrets lists secrets of the project named by scope.
func (s *GCPStore) ListSecrets(ctx context.Context, scope, filter string) SecretIterator {
	req := &secretmanagerpb.ListSecretsRequest{
		Parent: fmt.Sprintf("projects/%s", scope),
		Filter: filter,
	}
	return &gcpSecretIterator{it: s.client.ListSecrets(ctx, req)}
}

// ListVersions lists versions of secret; filter uses the Secret Manager grammar.
func (s *GCPStore) ListVersions(ctx context.Context, secret Secret, filter string) VersionIterator {
	req := &secretmanagerpb.ListSecretVersionsRequest{
		Parent: secret.Name,
		Filter: filter,
	}
	return &gcpVersionIterator{it: s.client.ListSecretVersions(ctx, req)}
}

// AccessVersion reads the payload of version.
func (s *GCPStore) AccessVersion(ctx context.Context, version Version) ([]byte, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: version.Name,
	})
	if err != nil {
		return nil, err
	}
	return resp.GetPayload().GetData(), nil
}

type gcpSecretIterator struct {
	it GCPSecretIterator
}

func (i *gcpSecretIterator) Next() (Secret, error) {
	pb, err := i.it.Next()
	if err != nil {
		return Secret{}, err
	}
	s := Secret{
		Name:   pb.GetName(),
		ID:     lastSegment(pb.GetName(), "/secrets/"),
		Labels: pb.GetLabels(),
	}
	if pb.GetCreateTime() != nil {
		s.CreateTime = pb.GetCreateTime().AsTime()
	}
	return s, nil
}

type gcpVersionIterator struct {
	it GCPVersionIterator
}

func (i *gcpVersionIterator) Next() (Version, error) {
	pb, err := i.it.Next()
	if err != nil {
		return Version{}, err
	}
	v := Version{
		Name:   pb.GetName(),
		ID:     lastSegment(pb.GetName(), "/versions/"),
		Secret: lastSegment(pb.GetName(), "/secrets/"),
		State:  gcpState(pb.GetState()),
	}
	if pb.GetCreateTime() != nil {
		v.CreateTime = pb.GetCreateTime().AsTime()
	}
	return v, nil
}

func gcpState(s secretmanagerpb.SecretVersion_State) State {
	switch s {
	case secretmanagerpb.SecretVersion_ENABLED:
		return StateEnabled
	case secretmanagerpb.SecretVersion_DISABLED:
		return StateDisabled
	case secretmanagerpb.SecretVersion_DESTROYED:
		return StateDestroyed
	default:
		return StateUnspecified
	}
}

// gcpClient adapts *secretmanager.Client to GCPClientAPI.
type gcpClient struct {
	c *secretmanager.Client
}

func (g gcpClient) ListSecrets(ctx context.Context, req *secretmanagerpb.ListSecretsRequest) GCPSecretIterator {
	return g.c.ListSecrets(ctx, req)
}

func (g gcpClient) ListSecretVersions(ctx context.Context, req *secretmanagerpb.ListSecretVersionsRequest) GCPVersionIterator {
	return g.c.ListSecretVersions(ctx, req)
}

func (g gcpClient) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	return g.c.AccessSecretVersion(ctx, req)
}
