package commands

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/cobra"

	"github.com/systmms/gsmconfig/internal/config"
	"github.com/systmms/gsmconfig/internal/logging"
	"github.com/systmms/gsmconfig/internal/stores"
	"github.com/systmms/gsmconfig/pkg/secretstore"
	"github.com/systmms/gsmconfig/tests/fakes"
	"github.com/systmms/gsmconfig/tests/testutil"
)

const testConfigYAML = `
version: 0
stores:
  main:
    type: fake
    project_id: test-project
sources:
  - kind: json
    store: main
    filter: name:appconfig01
  - kind: keyvalue
    store: main
    prefix: app__
`

const testAppConfig = `{"Setting01": 5, "Setting02": "from json", "Email": {"Host": "smtp.example.com", "Port": 25}}`

// newTestRuntime returns a runtime whose "fake" store type lists from client.
func newTestRuntime(t *testing.T) (*Runtime, *fakes.FakeGCPSecretManagerClient, *testutil.FakeEnvironment) {
	t.Helper()

	client := fakes.NewFakeGCPSecretManagerClient()
	reg := stores.NewRegistry()
	reg.RegisterFactory("fake", func(ctx context.Context, name string, cfg config.StoreConfig) (*stores.Opened, error) {
		return &stores.Opened{
			Store:     secretstore.NewGCPStoreWithClient(client),
			ProjectID: cfg.String("project_id"),
		}, nil
	})
	env := testutil.NewFakeEnvironment(nil)
	return &Runtime{Registry: reg, Environment: env}, client, env
}

// seedAppConfig adds the JSON secret and two key/value overrides.
func seedAppConfig(client *fakes.FakeGCPSecretManagerClient) {
	client.AddSecretString("test-project", "appconfig01", testAppConfig)
	client.AddSecretString("test-project", "app__Email__Port", "587")
	client.AddSecretString("test-project", "app__Email__Password", "hunter2-password")
}

func newTestConfig(t *testing.T, yamlContent string) *config.Config {
	t.Helper()
	return &config.Config{
		Path:   testutil.WriteTestConfig(t, yamlContent),
		Logger: logging.NewWithWriter(io.Discard, false, true),
	}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), cmd, args...)
}

func executeContext(t *testing.T, ctx context.Context, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}
