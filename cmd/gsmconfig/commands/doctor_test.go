package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/gsmconfig/internal/config"
)

func TestDoctorCommand_Healthy(t *testing.T) {
	t.Parallel()

	rt, client, _ := newTestRuntime(t)
	seedAppConfig(client)

	out, err := execute(t, NewDoctorCommand(newTestConfig(t, testConfigYAML), rt))
	require.NoError(t, err)
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "test-project")
	assert.Contains(t, out, "✓ healthy")
	assert.Contains(t, out, "Summary: 1/1 stores healthy")
}

func TestDoctorCommand_EmptyStoreIsHealthy(t *testing.T) {
	t.Parallel()

	rt, _, _ := newTestRuntime(t)

	out, err := execute(t, NewDoctorCommand(newTestConfig(t, testConfigYAML), rt))
	require.NoError(t, err)
	assert.Contains(t, out, "Summary: 1/1 stores healthy")
}

func TestDoctorCommand_Unhealthy(t *testing.T) {
	t.Parallel()

	rt, client, _ := newTestRuntime(t)
	client.AddError("projects/test-project", statusPermissionDenied())

	out, err := execute(t, NewDoctorCommand(newTestConfig(t, testConfigYAML), rt), "--verbose")
	require.Error(t, err)
	assert.Contains(t, out, "✗ error")
	assert.Contains(t, out, "caller does not have permission")
	assert.Contains(t, out, "secretmanager.versions.access")
	assert.Contains(t, out, "Summary: 0/1 stores healthy")
}

func TestDoctorCommand_UnknownStoreType(t *testing.T) {
	t.Parallel()

	rt, _, _ := newTestRuntime(t)
	cfg := newTestConfig(t, `
version: 0
stores:
  odd:
    type: vault
sources:
  - kind: keyvalue
    store: odd
`)

	out, err := execute(t, NewDoctorCommand(cfg, rt))
	require.Error(t, err)
	assert.Contains(t, out, "odd")
	assert.Contains(t, out, "unknown store type")
}

func TestUsedStores(t *testing.T) {
	t.Parallel()

	def := &config.Definition{
		Stores: map[string]config.StoreConfig{
			"b": {Type: "fake"},
			"a": {Type: "fake"},
		},
		Sources: []config.SourceConfig{
			{Kind: config.KindKeyValue, Store: "a"},
			{Kind: config.KindJSON},
		},
	}
	assert.Equal(t, []string{"a", "b", defaultStoreName}, usedStores(def))

	def.Sources = def.Sources[:1]
	assert.Equal(t, []string{"a", "b"}, usedStores(def))
}
