package utils

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// DefaultSuggestLimit caps autocomplete results.
const DefaultSuggestLimit = 10

// SuggestNames ranks names against a typed prefix without an index: exact
// prefix matches first (alphabetical), then fuzzy subsequence matches by score.
func SuggestNames(prefix string, names []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	q := CanonicalItemID(prefix)

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	if q == "" {
		return headNames(sorted, limit)
	}

	out := make([]string, 0, limit)
	seen := make(map[string]struct{})
	for _, name := range sorted {
		if strings.HasPrefix(name, q) {
			out = append(out, name)
			seen[name] = struct{}{}
		}
	}

	for _, match := range fuzzy.Find(q, sorted) {
		if _, dup := seen[match.Str]; dup {
			continue
		}
		seen[match.Str] = struct{}{}
		out = append(out, match.Str)
	}
	return headNames(out, limit)
}

func headNames(names []string, limit int) []string {
	if len(names) > limit {
		return names[:limit]
	}
	return names
}
