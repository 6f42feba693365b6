package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/gsmconfig/internal/errors"
	"github.com/systmms/gsmconfig/internal/logging"
	"github.com/systmms/gsmconfig/pkg/secretconfig"
)

// Output formats of the load command.
const (
	FormatEnv  = "env"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// flatValues returns the tree's leaves as strings, redacted unless
// showValues is set.
func flatValues(k *koanf.Koanf, showValues bool) map[string]string {
	out := make(map[string]string)
	for key, v := range k.All() {
		value := fmt.Sprint(v)
		if !showValues {
			value = logging.Secret(value).String()
		}
		out[key] = value
	}
	return out
}

// renderTree writes the tree in format.
func renderTree(w io.Writer, k *koanf.Koanf, delim, format string, showValues bool) error {
	flat := flatValues(k, showValues)

	switch format {
	case FormatEnv:
		keys := make([]string, 0, len(flat))
		for key := range flat {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			envKey := strings.ReplaceAll(key, delim, secretconfig.DoubleUnderscore)
			if _, err := fmt.Fprintf(w, "%s=%s\n", envKey, flat[key]); err != nil {
				return err
			}
		}
		return nil

	case FormatJSON, FormatYAML:
		nested := make(map[string]interface{}, len(flat))
		for key, v := range flat {
			nested[key] = v
		}
		tree := maps.Unflatten(nested, delim)
		if format == FormatYAML {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(tree); err != nil {
				return err
			}
			return enc.Close()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)

	default:
		return checkFormat(format)
	}
}

func checkFormat(format string) error {
	switch format {
	case FormatEnv, FormatJSON, FormatYAML:
		return nil
	}
	return dserrors.UserError{
		Message:    fmt.Sprintf("Unknown output format %q", format),
		Suggestion: "Use --format env, json or yaml",
	}
}
