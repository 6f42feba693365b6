package secretconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/systmms/gsmconfig/internal/metrics"
	"github.com/systmms/gsmconfig/pkg/secretstore"
)

const jsonProviderName = "json"

// JSONProvider loads a single secret holding a JSON object.
//
// Only the first secret returned by the listing is read. When the filter
// matches several secrets the one chosen depends on the store's ordering.
type JSONProvider struct {
	opts  JSONOptions
	delim string
	log   Logger
	store storeHandle

	schema *gojsonschema.Schema
	raw    []byte
	data   map[string]string
	source string
}

// NewJSONProvider creates a JSON provider.
func NewJSONProvider(opts JSONOptions) *JSONProvider {
	return &JSONProvider{
		opts:  opts,
		delim: orDefault(opts.Delimiter),
		log:   orNop(opts.Logger),
		store: storeHandle{creds: opts.Credentials, given: opts.Store},
		data:  map[string]string{},
	}
}

// Load reads the newest enabled version of the first matching secret.
func (p *JSONProvider) Load(ctx context.Context) error {
	start := time.Now()
	err := p.load(ctx)
	metrics.RecordLoad(jsonProviderName, err, time.Since(start))
	metrics.SetKeysLoaded(jsonProviderName, len(p.data))
	return err
}

func (p *JSONProvider) load(ctx context.Context) error {
	project := projectChain(ctx, p.opts.ProjectID, p.opts.Credentials, p.opts.Store, p.opts.Environment)
	if isBlank(project) {
		return ConfigError{
			Field:      "project_id",
			Message:    "a project id is required to load JSON secrets",
			Suggestion: "Set ProjectID, use credentials with a project, or export GOOGLE_CLOUD_PROJECT",
		}
	}

	if err := p.compileSchema(); err != nil {
		return err
	}

	store, err := p.store.get(ctx)
	if err != nil {
		return err
	}

	p.raw, p.data, p.source = nil, map[string]string{}, ""

	p.log.Debug("loading JSON secret from %s with filter %q", project, p.opts.Filter)
	return resolveSecrets(ctx, store, project, p.opts.Filter, consumeFirst(jsonProviderName, p.log),
		func(secret secretstore.Secret, version secretstore.Version, payload []byte) error {
			if err := p.validate(secret.ID, payload); err != nil {
				return err
			}
			flat, err := flattenJSON(payload, p.delim)
			if err != nil {
				return ConfigError{
					Field:   "payload",
					Value:   secret.ID,
					Message: fmt.Sprintf("secret is not a JSON object: %v", err),
				}
			}
			p.raw, p.data, p.source = payload, flat, secret.ID
			p.log.Debug("loaded %d keys from %s (version %s)", len(flat), secret.ID, version.ID)
			return nil
		})
}

func (p *JSONProvider) compileSchema() error {
	if p.opts.Schema == "" || p.schema != nil {
		return nil
	}

	var loader gojsonschema.JSONLoader
	switch s := strings.TrimSpace(p.opts.Schema); {
	case strings.HasPrefix(s, "{"):
		loader = gojsonschema.NewStringLoader(s)
	case strings.Contains(s, "://"):
		loader = gojsonschema.NewReferenceLoader(s)
	default:
		abs, err := filepath.Abs(s)
		if err != nil {
			return ConfigError{Field: "schema", Value: s, Message: err.Error()}
		}
		loader = gojsonschema.NewReferenceLoader("file://" + filepath.ToSlash(abs))
	}

	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return ConfigError{
			Field:      "schema",
			Message:    fmt.Sprintf("invalid JSON schema: %v", err),
			Suggestion: "Check the schema file exists and is valid JSON Schema",
		}
	}
	p.schema = schema
	return nil
}

func (p *JSONProvider) validate(id string, payload []byte) error {
	if p.schema == nil {
		return nil
	}
	result, err := p.schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return ConfigError{Field: "payload", Value: id, Message: fmt.Sprintf("secret is not valid JSON: %v", err)}
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return ConfigError{
		Field:   "payload",
		Value:   id,
		Message: "secret does not match schema: " + strings.Join(problems, "; "),
	}
}

// Source returns the id of the secret read by the last Load, or "".
func (p *JSONProvider) Source() string {
	return p.source
}

// Get returns the loaded value of the flattened key.
func (p *JSONProvider) Get(key string) (string, bool) {
	v, ok := p.data[key]
	return v, ok
}

// Keys returns the flattened keys in sorted order.
func (p *JSONProvider) Keys() []string {
	return sortedKeys(p.data)
}

// Read returns the flattened payload as a nested map for koanf.
func (p *JSONProvider) Read() (map[string]interface{}, error) {
	return unflatten(p.data, p.delim, jsonProviderName, p.log), nil
}

// ReadBytes returns the raw payload of the last Load, for use with a koanf
// parser.
func (p *JSONProvider) ReadBytes() ([]byte, error) {
	return bytes.Clone(p.raw), nil
}

// Close releases a client the provider created itself.
func (p *JSONProvider) Close() error {
	return p.store.close()
}

// flattenJSON flattens a JSON object into delimiter-joined keys. Array
// elements are keyed by index, numbers keep their literal text and null
// becomes "".
func flattenJSON(payload []byte, delim string) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var root interface{}
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	obj, ok := root.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("top-level value is %s, not an object", jsonKind(root))
	}

	out := make(map[string]string)
	for k, v := range obj {
		flattenValue(out, k, v, delim)
	}
	return out, nil
}

func flattenValue(out map[string]string, path string, v interface{}, delim string) {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			flattenValue(out, path+delim+k, child, delim)
		}
	case []interface{}:
		for i, child := range t {
			flattenValue(out, path+delim+strconv.Itoa(i), child, delim)
		}
	case json.Number:
		out[path] = t.String()
	case string:
		out[path] = t
	case bool:
		out[path] = strconv.FormatBool(t)
	case nil:
		out[path] = ""
	}
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case []interface{}:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
