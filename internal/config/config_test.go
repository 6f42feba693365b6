package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/systmms/gsmconfig/internal/errors"
	"github.com/systmms/gsmconfig/internal/logging"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfig_Load(t *testing.T) {
	path := writeConfig(t, `version: 0
delimiter: ":"

stores:
  gcp-prod:
    type: gcp.secretmanager
    project_id: my-proj
    service_account_key_path: /etc/keys/sa.json
  aws-prod:
    type: aws.secretsmanager
    region: eu-west-1
    role_arn: arn:aws:iam::123456789012:role/config-reader
    timeout_ms: 5000
  kv:
    type: azure.keyvault
    vault_url: https://example.vault.azure.net/

sources:
  - kind: keyvalue
    store: gcp-prod
    prefix: app__
    strip_prefix: false
  - kind: keyvalue
    store: aws-prod
    filter: "name:shared"
  - kind: json
    store: gcp-prod
    filter: "name:appconfig01"
    schema: schema.json
`)

	cfg := &Config{Path: path, Logger: logging.New(false, true)}
	require.NoError(t, cfg.Load())

	def := cfg.Definition
	require.NotNil(t, def)
	assert.Equal(t, ":", def.Delimiter)
	assert.Len(t, def.Stores, 3)
	require.Len(t, def.Sources, 3)

	assert.Equal(t, KindKeyValue, def.Sources[0].Kind)
	assert.Equal(t, "app__", def.Sources[0].Prefix)
	require.NotNil(t, def.Sources[0].StripPrefix)
	assert.False(t, *def.Sources[0].StripPrefix)

	assert.Equal(t, "name:shared", def.Sources[1].Filter)
	assert.Nil(t, def.Sources[1].StripPrefix)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "schema.json"), def.Sources[2].Schema)

	store, err := cfg.GetStore("aws-prod")
	require.NoError(t, err)
	assert.Equal(t, "aws.secretsmanager", store.Type)
	assert.Equal(t, "eu-west-1", store.String("region"))
	assert.Equal(t, 5*time.Second, store.Timeout())

	gcp, err := cfg.GetStore("gcp-prod")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, gcp.Timeout())
	assert.Equal(t, "/etc/keys/sa.json", gcp.String("service_account_key_path"))

	assert.Equal(t, []string{"aws-prod", "gcp-prod", "kv"}, cfg.StoreNames())
}

func TestConfig_LoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{
			name:    "unsupported version",
			content: "version: 2\nsources: [{kind: json}]\n",
			field:   "version",
		},
		{
			name:    "no sources",
			content: "version: 0\n",
			field:   "sources",
		},
		{
			name:    "unknown kind",
			content: "version: 0\nsources: [{kind: yaml}]\n",
			field:   "sources[0].kind",
		},
		{
			name:    "prefix and filter",
			content: "version: 0\nsources: [{kind: keyvalue, prefix: a, filter: 'name:b'}]\n",
			field:   "sources[0]",
		},
		{
			name:    "prefix on json",
			content: "version: 0\nsources: [{kind: json, prefix: a}]\n",
			field:   "sources[0]",
		},
		{
			name:    "separator on json",
			content: "version: 0\nsources: [{kind: json, separator: '--'}]\n",
			field:   "sources[0]",
		},
		{
			name:    "undefined store",
			content: "version: 0\nstores: {a: {type: gcp.secretmanager}}\nsources: [{kind: json, store: b}]\n",
			field:   "sources[0].store",
		},
		{
			name:    "store without type",
			content: "version: 0\nstores: {a: {project_id: p}}\nsources: [{kind: json}]\n",
			field:   "stores.a.type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Path: writeConfig(t, tt.content)}
			err := cfg.Load()
			require.Error(t, err)

			var ce dserrors.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestConfig_LoadMissingFile(t *testing.T) {
	cfg := &Config{Path: filepath.Join(t.TempDir(), "missing.yaml")}

	err := cfg.Load()

	var ce dserrors.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "path", ce.Field)
}

func TestConfig_LoadInvalidYAML(t *testing.T) {
	cfg := &Config{Path: writeConfig(t, "version: [\n")}

	err := cfg.Load()

	assert.True(t, dserrors.IsConfigError(err))
}

func TestConfig_GetStoreNotLoaded(t *testing.T) {
	cfg := &Config{}

	_, err := cfg.GetStore("any")

	var ue dserrors.UserError
	require.ErrorAs(t, err, &ue)
	assert.Nil(t, cfg.StoreNames())
}

func TestStoreConfig_Strings(t *testing.T) {
	t.Parallel()

	s := StoreConfig{Config: map[string]interface{}{
		"delegates": []interface{}{"a@p.iam.gserviceaccount.com", "b@p.iam.gserviceaccount.com"},
		"scope":     "single",
	}}

	assert.Equal(t, []string{"a@p.iam.gserviceaccount.com", "b@p.iam.gserviceaccount.com"}, s.Strings("delegates"))
	assert.Equal(t, []string{"single"}, s.Strings("scope"))
	assert.Nil(t, s.Strings("missing"))
	assert.Empty(t, s.String("delegates"))
}

func TestResolveSchemaPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", resolveSchemaPath("/cfg", ""))
	assert.Equal(t, `{"type":"object"}`, resolveSchemaPath("/cfg", `{"type":"object"}`))
	assert.Equal(t, "https://example.com/s.json", resolveSchemaPath("/cfg", "https://example.com/s.json"))
	assert.Equal(t, "/abs/s.json", resolveSchemaPath("/cfg", "/abs/s.json"))
	assert.Equal(t, filepath.Join("/cfg", "s.json"), resolveSchemaPath("/cfg", "s.json"))
}
