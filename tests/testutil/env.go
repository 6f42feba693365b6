package testutil

import (
	"context"
	"testing"
)

// SetupTestEnv sets environment variables for the duration of a test.
// An empty value unsets nothing; it sets the variable to "".
//
//	SetupTestEnv(t, map[string]string{
//	    "GOOGLE_CLOUD_PROJECT": "test-project",
//	})
func SetupTestEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for key, value := range vars {
		t.Setenv(key, value)
	}
}

// FakeEnvironment is an in-memory secretconfig.EnvironmentReader.
type FakeEnvironment struct {
	Vars map[string]string

	// Platform is returned by PlatformProjectID.
	Platform string

	// PlatformCalls counts metadata lookups.
	PlatformCalls int
}

// NewFakeEnvironment creates an environment holding vars.
func NewFakeEnvironment(vars map[string]string) *FakeEnvironment {
	if vars == nil {
		vars = map[string]string{}
	}
	return &FakeEnvironment{Vars: vars}
}

// Getenv returns the variable, or "".
func (e *FakeEnvironment) Getenv(key string) string {
	return e.Vars[key]
}

// PlatformProjectID returns Platform.
func (e *FakeEnvironment) PlatformProjectID(ctx context.Context) string {
	e.PlatformCalls++
	return e.Platform
}
