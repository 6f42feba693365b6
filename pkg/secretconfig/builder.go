package secretconfig

import (
	"context"
	"sync"
	"time"

	"github.com/knadh/koanf/v2"
	"golang.org/x/oauth2/google"

	"github.com/systmms/gsmconfig/internal/metrics"
)

// Source is a provider the Builder can load and merge.
type Source interface {
	koanf.Provider
	Load(ctx context.Context) error
}

// BuilderOptions holds defaults applied to every source added to a Builder.
type BuilderOptions struct {
	// Delimiter of the resulting tree. Defaults to ":".
	Delimiter   string
	Environment EnvironmentReader
	Logger      Logger
}

// Builder registers secret sources and merges them, in registration order,
// into a koanf tree. Later sources override earlier ones.
type Builder struct {
	opts    BuilderOptions
	delim   string
	sources []Source
	errs    []error

	mu sync.RWMutex
	k  *koanf.Koanf
}

// NewBuilder creates an empty builder.
func NewBuilder(opts BuilderOptions) *Builder {
	return &Builder{opts: opts, delim: orDefault(opts.Delimiter)}
}

// AddKeyValueSecrets loads every secret whose id starts with prefix, with
// the prefix stripped from the keys.
func (b *Builder) AddKeyValueSecrets(prefix string, creds *google.Credentials, projectID string) *Builder {
	return b.AddSource(NewKeyValueProvider(b.keyValueDefaults(KeyValueOptions{
		Prefix:      prefix,
		Credentials: creds,
		ProjectID:   projectID,
	})))
}

// AddKeyValueSecretsFiltered loads every secret matching the raw listing
// filter, keyed by its full id.
func (b *Builder) AddKeyValueSecretsFiltered(filter string, creds *google.Credentials, projectID string) *Builder {
	return b.AddSource(NewKeyValueProviderWithFilter(b.keyValueDefaults(KeyValueOptions{
		Filter:      filter,
		Credentials: creds,
		ProjectID:   projectID,
	})))
}

// AddKeyValueSecretsWith registers a key/value source configured by configure.
func (b *Builder) AddKeyValueSecretsWith(configure func(*KeyValueOptions)) *Builder {
	if configure == nil {
		return b.fail(ConfigError{Field: "configure", Message: "key/value options callback is nil"})
	}
	opts := b.keyValueDefaults(KeyValueOptions{})
	configure(&opts)
	return b.AddSource(NewKeyValueProvider(opts))
}

// AddJSONSecrets loads the first secret matching filter as a JSON object.
func (b *Builder) AddJSONSecrets(filter string, creds *google.Credentials, projectID string) *Builder {
	return b.AddSource(NewJSONProvider(b.jsonDefaults(JSONOptions{
		Filter:      filter,
		Credentials: creds,
		ProjectID:   projectID,
	})))
}

// AddJSONSecretsWith registers a JSON source configured by configure.
func (b *Builder) AddJSONSecretsWith(configure func(*JSONOptions)) *Builder {
	if configure == nil {
		return b.fail(ConfigError{Field: "configure", Message: "JSON options callback is nil"})
	}
	opts := b.jsonDefaults(JSONOptions{})
	configure(&opts)
	return b.AddSource(NewJSONProvider(opts))
}

// AddSource registers any Source.
func (b *Builder) AddSource(s Source) *Builder {
	b.sources = append(b.sources, s)
	return b
}

// Sources returns the registered sources.
func (b *Builder) Sources() []Source {
	return b.sources
}

// Build loads every source and returns the merged tree. It is Reload under
// another name.
func (b *Builder) Build(ctx context.Context) (*koanf.Koanf, error) {
	return b.Reload(ctx)
}

// Reload loads every source into a fresh tree, so secrets deleted since the
// last build disappear. On error the previous tree is kept.
func (b *Builder) Reload(ctx context.Context) (*koanf.Koanf, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	k := koanf.New(b.delim)
	for _, s := range b.sources {
		if err := s.Load(ctx); err != nil {
			return nil, err
		}
		if err := k.Load(s, nil); err != nil {
			return nil, err
		}
	}

	b.mu.Lock()
	b.k = k
	b.mu.Unlock()
	metrics.RecordReload(time.Now())
	return k, nil
}

// Koanf returns the tree of the last successful build, or nil.
func (b *Builder) Koanf() *koanf.Koanf {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.k
}

// Close closes every source that owns a client.
func (b *Builder) Close() error {
	var first error
	for _, s := range b.sources {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

func (b *Builder) fail(err error) *Builder {
	b.errs = append(b.errs, err)
	return b
}

func (b *Builder) keyValueDefaults(o KeyValueOptions) KeyValueOptions {
	o.Delimiter = b.delim
	o.Environment = b.opts.Environment
	o.Logger = b.opts.Logger
	return o
}

func (b *Builder) jsonDefaults(o JSONOptions) JSONOptions {
	o.Delimiter = b.delim
	o.Environment = b.opts.Environment
	o.Logger = b.opts.Logger
	return o
}
