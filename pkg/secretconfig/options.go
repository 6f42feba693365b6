package secretconfig

import (
	"golang.org/x/oauth2/google"

	dserrors "github.com/systmms/gsmconfig/internal/errors"
	"github.com/systmms/gsmconfig/pkg/secretstore"
)

// ConfigError is returned for configuration that cannot be loaded, such as a
// missing project id or an undecodable JSON payload.
type ConfigError = dserrors.ConfigError

// Logger receives diagnostics. *logging.Logger satisfies it.
type Logger interface {
	Debug(format string, args ...interface{})
	Warn(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// KeyValueOptions configures a KeyValueProvider.
type KeyValueOptions struct {
	// Credentials authenticate the Secret Manager client built when Store is
	// nil. Their ProjectID is used when ProjectID is empty.
	Credentials *google.Credentials

	// Store overrides the Secret Manager client.
	Store secretstore.Store

	ProjectID string

	// Prefix limits loading to secrets whose id starts with it.
	Prefix string

	// Filter is sent verbatim with the listing instead of a prefix filter.
	Filter string

	// StripPrefixFromKey removes Prefix from keys. Defaults to true.
	StripPrefixFromKey *bool

	// Separator splits secret ids into key path segments. Defaults to
	// DoubleUnderscore; use DoubleDash for Azure Key Vault.
	Separator string

	// Delimiter replaces Separator in secret ids. Defaults to ":".
	Delimiter string

	Environment EnvironmentReader
	Logger      Logger
}

// JSONOptions configures a JSONProvider.
type JSONOptions struct {
	Credentials *google.Credentials
	Store       secretstore.Store
	ProjectID   string

	// Filter selects the secret; the first listed match is read.
	Filter string

	// Schema, when set, is a JSON schema the payload must satisfy. It is
	// either an inline document starting with '{' or a path or URL.
	Schema string

	// Delimiter joins nested JSON keys. Defaults to ":".
	Delimiter string

	Environment EnvironmentReader
	Logger      Logger
}

// Bool returns a pointer to b, for StripPrefixFromKey.
func Bool(b bool) *bool {
	return &b
}

func orDefault(delim string) string {
	if delim == "" {
		return DefaultDelimiter
	}
	return delim
}

func orNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}
