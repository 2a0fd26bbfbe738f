// Package search parses structured note queries and executes them against
// the store's full-text index.
//
// A raw query splits into free-text terms and qualifiers:
//
//	tag:home created:2024-01-01..2024-02-01 updated:..2024-06-01 -draft milk
//
// Qualifiers are pure filters; free text is the sole scoring input. Free
// text terms are expanded into a fuzzy set (literal, prefix wildcard, and
// vocabulary terms within a configurable fuzzy distance) and ranked by the
// index's bm25 ordering. Regex mode bypasses expansion entirely and applies
// one case-insensitive pattern to title+body over a bounded scan.
//
// All result orderings carry an id ASC tiebreaker for determinism.
package search
