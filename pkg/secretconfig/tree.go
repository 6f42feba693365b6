package secretconfig

import (
	"sort"
	"strings"

	"github.com/knadh/koanf/maps"

	"github.com/systmms/gsmconfig/internal/metrics"
)

// unflatten turns delimiter-joined keys into nested maps for koanf. A key that
// is also the parent of another key cannot hold both a value and children in
// the tree; the children win and the scalar is dropped.
func unflatten(flat map[string]string, delim, provider string, log Logger) map[string]interface{} {
	parents := make(map[string]struct{})
	for k := range flat {
		for i := 0; ; {
			j := strings.Index(k[i:], delim)
			if j < 0 {
				break
			}
			parents[k[:i+j]] = struct{}{}
			i += j + len(delim)
		}
	}

	m := make(map[string]interface{}, len(flat))
	for k, v := range flat {
		if _, ok := parents[k]; ok {
			log.Warn("dropping key %s: it is also the parent of other keys", k)
			metrics.RecordSkipped(provider, metrics.ReasonKeyConflict)
			continue
		}
		m[k] = v
	}
	return maps.Unflatten(m, delim)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
