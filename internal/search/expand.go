package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// vocabScanLimit bounds how many vocabulary terms feed fuzzy expansion.
// Terms are taken most-frequent first, so the bound trims only the long
// tail and keeps worst-case expansion cost independent of corpus size.
const vocabScanLimit = 4096

// maxFuzzyVariants caps how many vocabulary terms one query term may pull
// into its expansion group.
const maxFuzzyVariants = 3

// expandTerm builds the fuzzy set for one free-text term: the literal, a
// prefix-wildcard variant, and vocabulary terms whose fuzzy score relative
// to a perfect self-match clears the threshold. The returned strings are
// fts5 MATCH fragments, already quoted.
func expandTerm(term string, vocab []string, threshold float64) []string {
	quoted := quoteFTS(term)
	variants := []string{quoted, quoted + "*"}

	if threshold <= 0 || threshold > 1 || len(vocab) == 0 {
		return variants
	}

	// A term's score against itself is the ceiling; vocabulary matches are
	// gated on their score relative to it.
	self := fuzzy.Find(term, []string{term})
	if len(self) == 0 || self[0].Score <= 0 {
		return variants
	}
	ceiling := float64(self[0].Score)

	matches := fuzzy.Find(term, vocab)
	added := 0
	lowered := strings.ToLower(term)
	for _, m := range matches {
		if added >= maxFuzzyVariants {
			break
		}
		candidate := m.Str
		if strings.ToLower(candidate) == lowered {
			continue // literal already covers it
		}
		if float64(m.Score)/ceiling < threshold {
			break // matches are sorted by score; the rest are weaker
		}
		variants = append(variants, quoteFTS(candidate))
		added++
	}
	return variants
}

// buildMatchExpression assembles the fts5 MATCH expression for a query:
// one OR-group per term, groups joined with AND, title-restricted groups
// prefixed with the title column.
func buildMatchExpression(q Query, vocab []string, threshold float64) string {
	var groups []string
	for _, term := range q.Terms {
		if group := matchGroup("", term, vocab, threshold); group != "" {
			groups = append(groups, group)
		}
	}
	for _, term := range q.TitleTerms {
		if group := matchGroup("title", term, vocab, threshold); group != "" {
			groups = append(groups, group)
		}
	}
	return strings.Join(groups, " AND ")
}

func matchGroup(column, term string, vocab []string, threshold float64) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}
	variants := expandTerm(term, vocab, threshold)
	if column != "" {
		for i, v := range variants {
			variants[i] = column + ":" + v
		}
	}
	if len(variants) == 1 {
		return variants[0]
	}
	return "(" + strings.Join(variants, " OR ") + ")"
}

// quoteFTS wraps a term in fts5 double quotes, escaping embedded quotes.
func quoteFTS(term string) string {
	return `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
}

// loadVocabulary reads the indexed term vocabulary, most frequent first.
// The slice is re-sorted alphabetically within equal frequencies by the
// query itself, so output is deterministic for a given index state.
func (e *Engine) loadVocabulary(ctx context.Context) ([]string, error) {
	rows, err := e.store.Query(ctx, `
		SELECT term FROM fts_vocab
		ORDER BY cnt DESC, term ASC
		LIMIT ?
	`, vocabScanLimit)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	defer rows.Close()

	var terms []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	return terms, nil
}

// dedupeSorted returns terms without duplicates, preserving first-seen
// order. Used on highlight inputs where expansions can repeat.
func dedupeSorted(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, t := range terms {
		key := strings.ToLower(t)
		if !seen[key] {
			seen[key] = true
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}
