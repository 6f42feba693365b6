package secretconfig

import (
	"context"
	"errors"
	"time"

	"github.com/awnumar/memguard"

	"github.com/systmms/gsmconfig/internal/logging"
	"github.com/systmms/gsmconfig/internal/metrics"
	"github.com/systmms/gsmconfig/pkg/secretstore"
)

const keyValueProviderName = "keyvalue"

// KeyValueProvider loads one configuration key per secret.
//
// Load replaces the provider's values with what the store holds now. A
// failing Load keeps the keys set before the failure. Concurrent calls to
// Load are unsupported.
//
// Every matched secret sets its key, but a koanf tree cannot hold a value
// and children under the same path. When both "Email" and "Email__Host"
// exist, Read drops the "Email" value and logs a warning; Get and Keys still
// report it.
type KeyValueProvider struct {
	opts       KeyValueOptions
	filterMode bool
	delim      string
	strip      bool
	log        Logger
	store      storeHandle

	data map[string]string
	err  error
}

// NewKeyValueProvider creates a provider that loads secrets whose id starts
// with opts.Prefix. If opts.Filter is set the provider works as
// NewKeyValueProviderWithFilter. Setting both Prefix and Filter makes Load
// return a ConfigError.
func NewKeyValueProvider(opts KeyValueOptions) *KeyValueProvider {
	return newKeyValueProvider(opts, opts.Filter != "")
}

// NewKeyValueProviderWithFilter creates a provider that sends opts.Filter
// verbatim, even when empty, and uses full secret ids as keys. opts.Prefix
// must be empty.
func NewKeyValueProviderWithFilter(opts KeyValueOptions) *KeyValueProvider {
	return newKeyValueProvider(opts, true)
}

func newKeyValueProvider(opts KeyValueOptions, filterMode bool) *KeyValueProvider {
	strip := true
	if opts.StripPrefixFromKey != nil {
		strip = *opts.StripPrefixFromKey
	}
	var err error
	if filterMode && opts.Prefix != "" {
		err = ConfigError{
			Field:      "prefix",
			Value:      opts.Prefix,
			Message:    "prefix and filter are mutually exclusive",
			Suggestion: "Use Prefix to load secrets by name prefix, or Filter for a raw listing filter",
		}
	}
	return &KeyValueProvider{
		opts:       opts,
		filterMode: filterMode,
		delim:      orDefault(opts.Delimiter),
		strip:      strip,
		log:        orNop(opts.Logger),
		store:      storeHandle{creds: opts.Credentials, given: opts.Store},
		data:       map[string]string{},
		err:        err,
	}
}

// Load reads the secrets into the provider.
func (p *KeyValueProvider) Load(ctx context.Context) error {
	start := time.Now()
	err := p.load(ctx)
	metrics.RecordLoad(keyValueProviderName, err, time.Since(start))
	metrics.SetKeysLoaded(keyValueProviderName, len(p.data))
	return err
}

func (p *KeyValueProvider) load(ctx context.Context) error {
	if p.err != nil {
		return p.err
	}

	project := projectChain(ctx, p.opts.ProjectID, p.opts.Credentials, p.opts.Store, p.opts.Environment)
	if isBlank(project) {
		return ConfigError{
			Field:      "project_id",
			Message:    "no project id configured and none could be resolved",
			Suggestion: "Set ProjectID, use credentials with a project, or export GOOGLE_CLOUD_PROJECT",
		}
	}

	store, err := p.store.get(ctx)
	if err != nil {
		return err
	}

	p.data = map[string]string{}

	mode := ModePrefix
	if p.filterMode {
		mode = ModeFilter
	}
	filter := ListFilter(mode, p.opts.Prefix, p.opts.Filter)

	var accept func(secretstore.Secret) bool
	if prefix := p.opts.Prefix; prefix != "" {
		accept = func(s secretstore.Secret) bool { return hasPrefixFold(s.ID, prefix) }
	}

	p.log.Debug("loading key/value secrets from %s with filter %q", project, filter)
	return resolveSecrets(ctx, store, project, filter, consumeAll(keyValueProviderName, p.log, accept),
		func(secret secretstore.Secret, version secretstore.Version, payload []byte) error {
			key := ReplaceSeparator(RemovePrefix(secret.ID, p.opts.Prefix, p.strip), p.opts.Separator, p.delim)
			p.data[key] = string(payload)
			memguard.WipeBytes(payload)
			p.log.Debug("set %s = %s (version %s)", key, logging.Secret(p.data[key]), version.ID)
			return nil
		})
}

// Get returns the loaded value of key.
func (p *KeyValueProvider) Get(key string) (string, bool) {
	v, ok := p.data[key]
	return v, ok
}

// Keys returns the loaded keys in sorted order.
func (p *KeyValueProvider) Keys() []string {
	return sortedKeys(p.data)
}

// Read returns the loaded values as a nested map for koanf.
func (p *KeyValueProvider) Read() (map[string]interface{}, error) {
	return unflatten(p.data, p.delim, keyValueProviderName, p.log), nil
}

// ReadBytes is not supported; use Read.
func (p *KeyValueProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("keyvalue provider does not support ReadBytes")
}

// Close releases a client the provider created itself.
func (p *KeyValueProvider) Close() error {
	return p.store.close()
}
