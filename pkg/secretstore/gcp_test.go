package secretstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/systmms/gsmconfig/pkg/secretstore"
	"github.com/systmms/gsmconfig/tests/fakes"
)

func drainSecrets(t *testing.T, it secretstore.SecretIterator) []secretstore.Secret {
	t.Helper()
	var out []secretstore.Secret
	for {
		s, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out
		}
		require.NoError(t, err)
		out = append(out, s)
	}
}

func drainVersions(t *testing.T, it secretstore.VersionIterator) []secretstore.Version {
	t.Helper()
	var out []secretstore.Version
	for {
		v, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out
		}
		require.NoError(t, err)
		out = append(out, v)
	}
}

func TestGCPStore_ListSecrets(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeGCPSecretManagerClient()
	fake.AddSecretString("p1", "app__Key", "v")
	fake.AddSecret("p1", "other", map[string]string{"team": "core"})
	fake.AddSecretString("p2", "app__Elsewhere", "v")
	store := secretstore.NewGCPStoreWithClient(fake)

	all := drainSecrets(t, store.ListSecrets(context.Background(), "p1", ""))
	require.Len(t, all, 2)
	assert.Equal(t, "projects/p1/secrets/app__Key", all[0].Name)
	assert.Equal(t, "app__Key", all[0].ID)
	assert.Equal(t, "other", all[1].ID)
	assert.Equal(t, map[string]string{"team": "core"}, all[1].Labels)
	assert.False(t, all[0].CreateTime.IsZero())

	filtered := drainSecrets(t, store.ListSecrets(context.Background(), "p1", "name:app"))
	require.Len(t, filtered, 1)

	require.Len(t, fake.ListSecretsRequests, 2)
	assert.Equal(t, "projects/p1", fake.ListSecretsRequests[1].GetParent())
	assert.Equal(t, "name:app", fake.ListSecretsRequests[1].GetFilter())
}

func TestGCPStore_ListVersionsAndAccess(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeGCPSecretManagerClient()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fake.AddVersion("p", "db", "1", secretmanagerpb.SecretVersion_ENABLED, t0, []byte("old"))
	fake.AddVersion("p", "db", "2", secretmanagerpb.SecretVersion_DISABLED, t0.Add(time.Hour), []byte("off"))
	fake.AddVersion("p", "db", "3", secretmanagerpb.SecretVersion_DESTROYED, t0.Add(2*time.Hour), nil)
	store := secretstore.NewGCPStoreWithClient(fake)

	secret := secretstore.Secret{Name: "projects/p/secrets/db", ID: "db"}
	all := drainVersions(t, store.ListVersions(context.Background(), secret, ""))
	require.Len(t, all, 3)
	assert.Equal(t, secretstore.StateEnabled, all[0].State)
	assert.Equal(t, secretstore.StateDisabled, all[1].State)
	assert.Equal(t, secretstore.StateDestroyed, all[2].State)
	assert.Equal(t, "3", all[2].ID)
	assert.Equal(t, "db", all[2].Secret)
	assert.True(t, t0.Equal(all[0].CreateTime))

	enabled := drainVersions(t, store.ListVersions(context.Background(), secret, secretstore.FilterEnabled))
	require.Len(t, enabled, 1)
	assert.Equal(t, secretstore.FilterEnabled, fake.ListVersionsRequests[1].GetFilter())

	payload, err := store.AccessVersion(context.Background(), enabled[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), payload)
}

func TestGCPStore_ErrorsPassThrough(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeGCPSecretManagerClient()
	denied := status.Error(codes.PermissionDenied, "denied")
	fake.AddError("projects/p", denied)
	store := secretstore.NewGCPStoreWithClient(fake)

	_, err := store.ListSecrets(context.Background(), "p", "").Next()
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = store.AccessVersion(context.Background(), secretstore.Version{Name: "projects/p/secrets/x/versions/1"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGCPStore_CloseWithoutOwnedClient(t *testing.T) {
	t.Parallel()

	store := secretstore.NewGCPStoreWithClient(fakes.NewFakeGCPSecretManagerClient())
	assert.NoError(t, store.Close())
}

func TestSliceIterators(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	it := secretstore.SecretSlice([]secretstore.Secret{{ID: "a"}}, boom)
	s, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", s.ID)
	_, err = it.Next()
	assert.ErrorIs(t, err, boom)

	vit := secretstore.VersionSlice(nil, nil)
	_, err = vit.Next()
	assert.ErrorIs(t, err, iterator.Done)
}
