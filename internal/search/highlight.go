package search

import (
	"regexp"
	"strings"
)

// highlightRegexp builds a case-insensitive alternation over the given
// tokens with longer tokens first, so "note" wins over "not" inside
// "notebook". Tokens are deduplicated case-insensitively and escaped.
// Returns nil when no usable token remains.
func highlightRegexp(tokens []string) *regexp.Regexp {
	var unique []string
	for _, t := range tokens {
		if t != "" {
			unique = append(unique, t)
		}
	}
	unique = dedupeSorted(unique)
	if len(unique) == 0 {
		return nil
	}

	escaped := make([]string, len(unique))
	for i, t := range unique {
		escaped[i] = regexp.QuoteMeta(t)
	}

	re, err := regexp.Compile("(?i)" + strings.Join(escaped, "|"))
	if err != nil {
		return nil
	}
	return re
}
