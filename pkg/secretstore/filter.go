package secretstore

import "strings"

// FilterEnabled restricts a version listing to enabled versions.
const FilterEnabled = "state:ENABLED"

// Term is one key:value restriction of a listing filter.
type Term struct {
	Key   string
	Value string
}

// FilterTerms splits a Secret Manager style filter into its terms.
//
// Only the conjunctive "key:value key:value" form is understood; anything
// without a colon becomes a term with the key "name". Quotes around values are
// removed. Stores with a native filter syntax (GCP) do not use this.
func FilterTerms(filter string) []Term {
	var terms []Term
	for _, field := range strings.Fields(filter) {
		if strings.EqualFold(field, "AND") {
			continue
		}
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			key, value = "name", field
		}
		terms = append(terms, Term{
			Key:   strings.ToLower(key),
			Value: strings.Trim(value, `"'`),
		})
	}
	return terms
}

// wantsState reports the version state a filter asks for, if any.
func wantsState(filter string) (State, bool) {
	for _, t := range FilterTerms(filter) {
		if t.Key == "state" {
			return ParseState(t.Value), true
		}
	}
	return StateUnspecified, false
}

// matchesName applies the name terms of filter to id, case-insensitively.
// A leading "name:foo" matches ids containing foo, as Secret Manager does.
func matchesName(filter, id string) bool {
	lower := strings.ToLower(id)
	for _, t := range FilterTerms(filter) {
		if t.Key != "name" {
			continue
		}
		if !strings.Contains(lower, strings.ToLower(t.Value)) {
			return false
		}
	}
	return true
}
