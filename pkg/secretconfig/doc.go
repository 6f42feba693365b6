// Package secretconfig loads configuration values from secret managers into a
// koanf tree.
//
// Two providers are available, both implementing koanf.Provider:
//
//   - KeyValueProvider maps every matching secret to one key. The secret id,
//     minus an optional prefix, becomes the key path with "__" standing for
//     the tree delimiter: a secret "app__Email__Host" loaded with prefix "app__"
//     yields the key "Email:Host".
//   - JSONProvider reads the first matching secret and flattens its JSON
//     payload into the tree.
//
// Only the newest enabled version of a secret is read. Secrets without an
// enabled version are skipped silently.
//
// Providers talk to a secretstore.Store. Without one, a Google Cloud Secret
// Manager client is created from the given credentials or from Application
// Default Credentials.
//
// The project is taken, in order, from the options, the credentials, the
// store's own scope, the GCE metadata server, GOOGLE_CLOUD_PROJECT and
// GCLOUD_PROJECT. A load without a project fails with a ConfigError.
//
// Usage:
//
//	b := secretconfig.NewBuilder(secretconfig.BuilderOptions{})
//	b.AddKeyValueSecrets("myapp__", nil, "")
//	b.AddJSONSecrets("name:appconfig01", nil, "")
//	k, err := b.Build(ctx)
//
// Providers hold no locks. Loading the same provider from several goroutines
// at once is unsupported; use Builder.Reload, which builds a fresh tree.
package secretconfig
