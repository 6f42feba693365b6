package fakes

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/systmms/gsmconfig/pkg/secretstore"
)

// FakeGCPSecretManagerClient implements secretstore.GCPClientAPI in memory.
//
// Secrets are listed in insertion order. Listing filters understand
// "name:<substring>" and "state:<STATE>" terms.
type FakeGCPSecretManagerClient struct {
	mu      sync.Mutex
	secrets []*GCPSecretData

	// Errors maps resource names to errors. A project parent
	// ("projects/p") fails ListSecrets, a secret name fails
	// ListSecretVersions and a version name fails AccessSecretVersion.
	Errors map[string]error

	ListSecretsFunc         func(ctx context.Context, req *secretmanagerpb.ListSecretsRequest) secretstore.GCPSecretIterator
	ListSecretVersionsFunc  func(ctx context.Context, req *secretmanagerpb.ListSecretVersionsRequest) secretstore.GCPVersionIterator
	AccessSecretVersionFunc func(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error)

	// Recorded requests.
	ListSecretsRequests  []*secretmanagerpb.ListSecretsRequest
	ListVersionsRequests []*secretmanagerpb.ListSecretVersionsRequest
	AccessRequests       []*secretmanagerpb.AccessSecretVersionRequest
}

// GCPSecretData holds a fake secret and its versions.
type GCPSecretData struct {
	Name       string
	CreateTime *timestamppb.Timestamp
	Labels     map[string]string
	Versions   []*GCPSecretVersionData
}

// GCPSecretVersionData holds one fake secret version.
type GCPSecretVersionData struct {
	Name       string
	State      secretmanagerpb.SecretVersion_State
	CreateTime *timestamppb.Timestamp
	Data       []byte
}

var _ secretstore.GCPClientAPI = (*FakeGCPSecretManagerClient)(nil)

// NewFakeGCPSecretManagerClient creates an empty fake.
func NewFakeGCPSecretManagerClient() *FakeGCPSecretManagerClient {
	return &FakeGCPSecretManagerClient{Errors: make(map[string]error)}
}

// AddSecret adds a secret without versions, or returns the existing one.
func (f *FakeGCPSecretManagerClient) AddSecret(projectID, secretID string, labels map[string]string) *GCPSecretData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.secretLocked(projectID, secretID, labels)
}

func (f *FakeGCPSecretManagerClient) secretLocked(projectID, secretID string, labels map[string]string) *GCPSecretData {
	name := fmt.Sprintf("projects/%s/secrets/%s", projectID, secretID)
	for _, s := range f.secrets {
		if s.Name == name {
			return s
		}
	}
	s := &GCPSecretData{
		Name:       name,
		CreateTime: timestamppb.New(time.Now()),
		Labels:     labels,
	}
	f.secrets = append(f.secrets, s)
	return s
}

// AddVersion adds a version to a secret, creating the secret if needed.
func (f *FakeGCPSecretManagerClient) AddVersion(projectID, secretID, version string, state secretmanagerpb.SecretVersion_State, created time.Time, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.secretLocked(projectID, secretID, nil)
	s.Versions = append(s.Versions, &GCPSecretVersionData{
		Name:       fmt.Sprintf("%s/versions/%s", s.Name, version),
		State:      state,
		CreateTime: timestamppb.New(created),
		Data:       append([]byte(nil), data...),
	})
}

// AddSecretString adds a secret with one enabled version "1".
func (f *FakeGCPSecretManagerClient) AddSecretString(projectID, secretID, value string) {
	f.AddVersion(projectID, secretID, "1", secretmanagerpb.SecretVersion_ENABLED, time.Now(), []byte(value))
}

// RemoveSecret deletes a secret and its versions.
func (f *FakeGCPSecretManagerClient) RemoveSecret(projectID, secretID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := fmt.Sprintf("projects/%s/secrets/%s", projectID, secretID)
	for i, s := range f.secrets {
		if s.Name == name {
			f.secrets = append(f.secrets[:i], f.secrets[i+1:]...)
			return
		}
	}
}

// AddError configures the fake to fail for resourceName.
func (f *FakeGCPSecretManagerClient) AddError(resourceName string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[resourceName] = err
}

// ListSecrets lists the secrets of req.Parent.
func (f *FakeGCPSecretManagerClient) ListSecrets(ctx context.Context, req *secretmanagerpb.ListSecretsRequest) secretstore.GCPSecretIterator {
	f.mu.Lock()
	f.ListSecretsRequests = append(f.ListSecretsRequests, req)
	f.mu.Unlock()

	if f.ListSecretsFunc != nil {
		return f.ListSecretsFunc(ctx, req)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.Errors[req.GetParent()]; ok {
		return &GCPSecretIterator{Err: err}
	}

	prefix := req.GetParent() + "/secrets/"
	var out []*secretmanagerpb.Secret
	for _, s := range f.secrets {
		if !strings.HasPrefix(s.Name, prefix) {
			continue
		}
		if !matchesTerms(req.GetFilter(), strings.TrimPrefix(s.Name, prefix), "") {
			continue
		}
		out = append(out, &secretmanagerpb.Secret{
			Name:       s.Name,
			CreateTime: s.CreateTime,
			Labels:     s.Labels,
		})
	}
	return &GCPSecretIterator{Secrets: out}
}

// ListSecretVersions lists the versions of req.Parent.
func (f *FakeGCPSecretManagerClient) ListSecretVersions(ctx context.Context, req *secretmanagerpb.ListSecretVersionsRequest) secretstore.GCPVersionIterator {
	f.mu.Lock()
	f.ListVersionsRequests = append(f.ListVersionsRequests, req)
	f.mu.Unlock()

	if f.ListSecretVersionsFunc != nil {
		return f.ListSecretVersionsFunc(ctx, req)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.Errors[req.GetParent()]; ok {
		return &GCPVersionIterator{Err: err}
	}

	var out []*secretmanagerpb.SecretVersion
	for _, s := range f.secrets {
		if s.Name != req.GetParent() {
			continue
		}
		for _, v := range s.Versions {
			if !matchesTerms(req.GetFilter(), "", v.State.String()) {
				continue
			}
			out = append(out, &secretmanagerpb.SecretVersion{
				Name:       v.Name,
				State:      v.State,
				CreateTime: v.CreateTime,
			})
		}
	}
	return &GCPVersionIterator{Versions: out}
}

// AccessSecretVersion returns a copy of the version payload.
func (f *FakeGCPSecretManagerClient) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.mu.Lock()
	f.AccessRequests = append(f.AccessRequests, req)
	f.mu.Unlock()

	if f.AccessSecretVersionFunc != nil {
		return f.AccessSecretVersionFunc(ctx, req)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.Errors[req.GetName()]; ok {
		return nil, err
	}

	for _, s := range f.secrets {
		for _, v := range s.Versions {
			if v.Name != req.GetName() {
				continue
			}
			if v.State == secretmanagerpb.SecretVersion_DESTROYED {
				return nil, status.Errorf(codes.FailedPrecondition, "Secret version %s is in DESTROYED state", v.Name)
			}
			return &secretmanagerpb.AccessSecretVersionResponse{
				Name:    v.Name,
				Payload: &secretmanagerpb.SecretPayload{Data: append([]byte(nil), v.Data...)},
			}, nil
		}
	}
	return nil, status.Errorf(codes.NotFound, "Secret version %s not found", req.GetName())
}

// matchesTerms applies name and state filter terms. Other terms match.
func matchesTerms(filter, id, state string) bool {
	for _, t := range secretstore.FilterTerms(filter) {
		switch t.Key {
		case "name":
			if id != "" && !strings.Contains(id, t.Value) {
				return false
			}
		case "state":
			if state != "" && !strings.EqualFold(state, t.Value) {
				return false
			}
		}
	}
	return true
}

// GCPSecretIterator iterates over fixed secrets, then returns Err or
// iterator.Done.
type GCPSecretIterator struct {
	Secrets []*secretmanagerpb.Secret
	Err     error
}

// Next returns the next secret.
func (it *GCPSecretIterator) Next() (*secretmanagerpb.Secret, error) {
	if len(it.Secrets) == 0 {
		if it.Err != nil {
			return nil, it.Err
		}
		return nil, iterator.Done
	}
	s := it.Secrets[0]
	it.Secrets = it.Secrets[1:]
	return s, nil
}

// GCPVersionIterator iterates over fixed versions, then returns Err or
// iterator.Done.
type GCPVersionIterator struct {
	Versions []*secretmanagerpb.SecretVersion
	Err      error
}

// Next returns the next version.
func (it *GCPVersionIterator) Next() (*secretmanagerpb.SecretVersion, error) {
	if len(it.Versions) == 0 {
		if it.Err != nil {
			return nil, it.Err
		}
		return nil, iterator.Done
	}
	v := it.Versions[0]
	it.Versions = it.Versions[1:]
	return v, nil
}
