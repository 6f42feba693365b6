package secretconfig

import (
	"context"
	"os"

	"cloud.google.com/go/compute/metadata"
)

// Environment variables consulted for the project id.
const (
	EnvGoogleCloudProject = "GOOGLE_CLOUD_PROJECT"
	EnvGCloudProject      = "GCLOUD_PROJECT"
)

// EnvironmentReader abstracts the process environment and the platform
// metadata service.
type EnvironmentReader interface {
	Getenv(key string) string

	// PlatformProjectID returns the project of the hosting platform, or "".
	PlatformProjectID(ctx context.Context) string
}

// OSEnvironment reads the real process environment and, on Google Cloud,
// the metadata server.
type OSEnvironment struct{}

func (OSEnvironment) Getenv(key string) string {
	return os.Getenv(key)
}

func (OSEnvironment) PlatformProjectID(ctx context.Context) string {
	if !metadata.OnGCE() {
		return ""
	}
	id, err := metadata.ProjectIDWithContext(ctx)
	if err != nil {
		return ""
	}
	return id
}

// ProjectSource is one place a project id can come from.
type ProjectSource struct {
	Name   string
	Lookup func(ctx context.Context) string
}

// ProjectSources returns the project id lookups in precedence order.
func ProjectSources(env EnvironmentReader) []ProjectSource {
	if env == nil {
		env = OSEnvironment{}
	}
	return []ProjectSource{
		{Name: "platform metadata", Lookup: env.PlatformProjectID},
		{Name: EnvGoogleCloudProject, Lookup: func(context.Context) string { return env.Getenv(EnvGoogleCloudProject) }},
		{Name: EnvGCloudProject, Lookup: func(context.Context) string { return env.Getenv(EnvGCloudProject) }},
	}
}

// ResolveProjectID returns the first non-empty project id from
// ProjectSources, or "".
func ResolveProjectID(ctx context.Context, env EnvironmentReader) string {
	id, _ := ResolveProjectIDWithSource(ctx, env)
	return id
}

// ResolveProjectIDWithSource is ResolveProjectID that also names the source.
func ResolveProjectIDWithSource(ctx context.Context, env EnvironmentReader) (id, source string) {
	for _, src := range ProjectSources(env) {
		if id := src.Lookup(ctx); id != "" {
			return id, src.Name
		}
	}
	return "", ""
}
