package secretconfig

import "strings"

// DoubleUnderscore is the default separator between path segments in a
// secret id. Secret ids may not contain ':'.
const DoubleUnderscore = "__"

// DoubleDash separates path segments in stores whose secret names cannot
// contain '_', such as Azure Key Vault.
const DoubleDash = "--"

// DefaultDelimiter is the key path delimiter of the configuration tree.
const DefaultDelimiter = ":"

// ListMode selects how the secret listing filter is built.
type ListMode int

const (
	// ModePrefix lists secrets whose id contains the lower-cased prefix.
	ModePrefix ListMode = iota
	// ModeFilter passes a caller supplied filter through untouched.
	ModeFilter
)

// ReplaceSeparator replaces every occurrence of sep in path with delim.
// An empty sep means DoubleUnderscore.
func ReplaceSeparator(path, sep, delim string) string {
	if sep == "" {
		sep = DoubleUnderscore
	}
	return strings.ReplaceAll(path, sep, delim)
}

// RemovePrefix strips prefix from the front of value when strip is set.
// value is returned unchanged when prefix is empty or not shorter than value.
// The caller guarantees that value starts with prefix.
func RemovePrefix(value, prefix string, strip bool) string {
	if !strip || prefix == "" || len(prefix) >= len(value) {
		return value
	}
	return value[len(prefix):]
}

// ListFilter builds the filter sent with the secret listing.
func ListFilter(mode ListMode, prefix, filter string) string {
	if mode == ModeFilter {
		return filter
	}
	if prefix == "" {
		return ""
	}
	return "name:" + strings.ToLower(prefix)
}

// isBlank reports whether s is empty or only white space.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// hasPrefixFold reports whether id starts with prefix, ignoring case.
func hasPrefixFold(id, prefix string) bool {
	return len(id) >= len(prefix) && strings.EqualFold(id[:len(prefix)], prefix)
}
