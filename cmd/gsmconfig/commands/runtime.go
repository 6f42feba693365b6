package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/systmms/gsmconfig/internal/config"
	dserrors "github.com/systmms/gsmconfig/internal/errors"
	"github.com/systmms/gsmconfig/internal/stores"
	"github.com/systmms/gsmconfig/pkg/secretconfig"
	"github.com/systmms/gsmconfig/pkg/secretstore"
)

// defaultStoreName is used for sources that name no store.
const defaultStoreName = "default"

// Runtime is what commands share besides the configuration.
type Runtime struct {
	Registry    *stores.Registry
	Environment secretconfig.EnvironmentReader
}

// NewRuntime returns the runtime used by the gsmconfig binary.
func NewRuntime() *Runtime {
	return &Runtime{
		Registry:    stores.NewRegistry(),
		Environment: secretconfig.OSEnvironment{},
	}
}

// session is one command run: the loaded configuration, the stores it opened
// and the builder wired from its sources.
type session struct {
	cfg     *config.Config
	rt      *Runtime
	opened  map[string]*stores.Opened
	builder *secretconfig.Builder
}

// openSession loads the configuration and registers every source on a
// builder. Stores are opened once, in source order.
func openSession(ctx context.Context, cfg *config.Config, rt *Runtime) (*session, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}

	opts := secretconfig.BuilderOptions{
		Delimiter:   cfg.Definition.Delimiter,
		Environment: rt.Environment,
	}
	if cfg.Logger != nil {
		opts.Logger = cfg.Logger
	}

	s := &session{
		cfg:     cfg,
		rt:      rt,
		opened:  make(map[string]*stores.Opened),
		builder: secretconfig.NewBuilder(opts),
	}

	for i, src := range cfg.Definition.Sources {
		opened, err := s.store(ctx, src.Store)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.builder.AddSource(s.source(i, src, opened))
	}
	return s, nil
}

// store opens the named store, or the default Google Cloud store for "".
func (s *session) store(ctx context.Context, name string) (*stores.Opened, error) {
	if name == "" {
		name = defaultStoreName
	}
	if opened, ok := s.opened[name]; ok {
		return opened, nil
	}

	storeCfg, ok := s.cfg.Definition.Stores[name]
	if !ok && name == defaultStoreName {
		storeCfg = config.StoreConfig{Type: stores.TypeGCPSecretManager}
	} else if !ok {
		return nil, dserrors.ConfigError{Field: "store", Value: name, Message: "store not defined"}
	}

	opened, err := s.rt.Registry.Open(ctx, name, storeCfg)
	if err != nil {
		if dserrors.IsConfigError(err) {
			return nil, err
		}
		return nil, dserrors.StoreError(storeCfg.Type, "open store "+name, err)
	}
	s.opened[name] = opened
	return opened, nil
}

func (s *session) source(i int, src config.SourceConfig, opened *stores.Opened) secretconfig.Source {
	projectID := src.ProjectID
	if projectID == "" {
		projectID = opened.ProjectID
	}

	var provider secretconfig.Source
	switch src.Kind {
	case config.KindJSON:
		provider = secretconfig.NewJSONProvider(s.jsonOptions(secretconfig.JSONOptions{
			Store:       opened.Store,
			Credentials: opened.Credentials,
			ProjectID:   projectID,
			Filter:      src.Filter,
			Schema:      src.Schema,
		}))
	default:
		opts := s.keyValueOptions(secretconfig.KeyValueOptions{
			Store:              opened.Store,
			Credentials:        opened.Credentials,
			ProjectID:          projectID,
			Prefix:             src.Prefix,
			Filter:             src.Filter,
			StripPrefixFromKey: src.StripPrefix,
			Separator:          sourceSeparator(src, opened),
		})
		provider = secretconfig.NewKeyValueProvider(opts)
	}

	timeout := s.cfg.Definition.Stores[opened.Name].Timeout()
	return &storeSource{
		Source:    provider,
		label:     fmt.Sprintf("sources[%d] (%s)", i, src.Kind),
		storeType: opened.Type,
		timeout:   timeout,
	}
}

// sourceSeparator returns the configured separator, or "--" for Key Vault
// whose secret names cannot contain '_'.
func sourceSeparator(src config.SourceConfig, opened *stores.Opened) string {
	if src.Separator != "" {
		return src.Separator
	}
	if opened.Type == stores.TypeAzureKeyVault {
		return secretconfig.DoubleDash
	}
	return secretconfig.DoubleUnderscore
}

func (s *session) keyValueOptions(o secretconfig.KeyValueOptions) secretconfig.KeyValueOptions {
	o.Delimiter = s.cfg.Definition.Delimiter
	o.Environment = s.rt.Environment
	if s.cfg.Logger != nil {
		o.Logger = s.cfg.Logger
	}
	return o
}

func (s *session) jsonOptions(o secretconfig.JSONOptions) secretconfig.JSONOptions {
	o.Delimiter = s.cfg.Definition.Delimiter
	o.Environment = s.rt.Environment
	if s.cfg.Logger != nil {
		o.Logger = s.cfg.Logger
	}
	return o
}

// build loads every source into a tree.
func (s *session) build(ctx context.Context) (*koanf.Koanf, error) {
	return s.builder.Build(ctx)
}

// delimiter returns the tree's key delimiter.
func (s *session) delimiter() string {
	if d := s.cfg.Definition.Delimiter; d != "" {
		return d
	}
	return secretconfig.DefaultDelimiter
}

// Close closes the builder's sources and every opened store.
func (s *session) Close() {
	if s.builder != nil {
		_ = s.builder.Close()
	}
	for _, opened := range s.opened {
		_ = opened.Close()
	}
}

// storeSource bounds each load by the store timeout and turns store failures
// into user errors.
type storeSource struct {
	secretconfig.Source
	label     string
	storeType string
	timeout   time.Duration
}

func (s *storeSource) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.Source.Load(ctx)
	if err == nil || dserrors.IsConfigError(err) {
		return err
	}
	return dserrors.StoreError(s.storeType, "load "+s.label, err)
}

// Close forwards to the wrapped provider.
func (s *storeSource) Close() error {
	if c, ok := s.Source.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// storeScope returns the project or scope a store lists from.
func storeScope(ctx context.Context, opened *stores.Opened, env secretconfig.EnvironmentReader) (scope, source string) {
	if opened.ProjectID != "" {
		return opened.ProjectID, "store project_id"
	}
	if opened.Credentials != nil && opened.Credentials.ProjectID != "" {
		return opened.Credentials.ProjectID, "credentials"
	}
	if scoped, ok := opened.Store.(secretstore.Scoped); ok && scoped.Scope() != "" {
		return scoped.Scope(), "store scope"
	}
	return secretconfig.ResolveProjectIDWithSource(ctx, env)
}
