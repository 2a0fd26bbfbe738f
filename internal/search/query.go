package search

import (
	"strings"
	"time"

	"github.com/roach88/inkwell/internal/store"
)

// RangeFilter is a half-open [From, To) unix-seconds window. A zero bound
// with the corresponding Has flag unset means open-ended on that side.
type RangeFilter struct {
	From    int64
	To      int64
	HasFrom bool
	HasTo   bool
}

// IsSet reports whether either bound is present.
func (r RangeFilter) IsSet() bool {
	return r.HasFrom || r.HasTo
}

// Contains reports whether ts falls inside the window.
func (r RangeFilter) Contains(ts int64) bool {
	if r.HasFrom && ts < r.From {
		return false
	}
	if r.HasTo && ts >= r.To {
		return false
	}
	return true
}

// merge narrows this filter by another: the latest From and earliest To win.
func (r *RangeFilter) merge(other RangeFilter) {
	if other.HasFrom && (!r.HasFrom || other.From > r.From) {
		r.From = other.From
		r.HasFrom = true
	}
	if other.HasTo && (!r.HasTo || other.To < r.To) {
		r.To = other.To
		r.HasTo = true
	}
}

// Query is a parsed structured search query.
type Query struct {
	// Terms are free-text terms scored against title and body.
	Terms []string
	// TitleTerms are free-text terms restricted to the title field.
	TitleTerms []string
	// NotTerms exclude notes containing the term in title or body.
	NotTerms []string
	// Tags filter to notes holding every named tag (AND semantics).
	Tags []string
	// Created and Updated filter on the corresponding timestamps.
	Created RangeFilter
	Updated RangeFilter
}

// HasTerms reports whether any scoring input is present.
func (q Query) HasTerms() bool {
	return len(q.Terms) > 0 || len(q.TitleTerms) > 0
}

// HasFilters reports whether any qualifier filter is present.
func (q Query) HasFilters() bool {
	return len(q.Tags) > 0 || len(q.NotTerms) > 0 || q.Created.IsSet() || q.Updated.IsSet()
}

// HighlightTerms returns the terms that should be marked in result text.
func (q Query) HighlightTerms() []string {
	out := make([]string, 0, len(q.Terms)+len(q.TitleTerms))
	out = append(out, q.Terms...)
	out = append(out, q.TitleTerms...)
	return out
}

// Parse splits raw query text into free-text terms and qualifiers.
//
// Recognized qualifiers: tag:<name> (repeatable, ANDed), title:<term>,
// created:<date>..<date> and updated:<date>..<date> (open-ended on either
// side), and -<term> negation. Everything else is free text. Malformed
// dates and empty fragments are dropped rather than raised: a partially
// typed query during live search must never error.
func Parse(raw string) Query {
	var q Query
	for _, field := range strings.Fields(raw) {
		switch {
		case strings.HasPrefix(field, "tag:"):
			if tag, err := store.NormalizeTagName(strings.TrimPrefix(field, "tag:")); err == nil && tag != "" {
				q.Tags = append(q.Tags, tag)
			}
		case strings.HasPrefix(field, "title:"):
			if term := sanitizeTerm(strings.TrimPrefix(field, "title:")); term != "" {
				q.TitleTerms = append(q.TitleTerms, term)
			}
		case strings.HasPrefix(field, "created:"):
			q.Created.merge(parseDateRange(strings.TrimPrefix(field, "created:")))
		case strings.HasPrefix(field, "updated:"):
			q.Updated.merge(parseDateRange(strings.TrimPrefix(field, "updated:")))
		case strings.HasPrefix(field, "-") && len(field) > 1:
			if term := sanitizeTerm(field[1:]); term != "" {
				q.NotTerms = append(q.NotTerms, term)
			}
		default:
			if term := sanitizeTerm(field); term != "" {
				q.Terms = append(q.Terms, term)
			}
		}
	}
	return q
}

// RegexPattern strips qualifiers from raw input and joins the rest into a
// single pattern for regex mode. Returns "" when nothing remains.
func RegexPattern(raw string) string {
	var parts []string
	for _, field := range strings.Fields(raw) {
		if strings.HasPrefix(field, "tag:") ||
			strings.HasPrefix(field, "title:") ||
			strings.HasPrefix(field, "created:") ||
			strings.HasPrefix(field, "updated:") {
			continue
		}
		parts = append(parts, field)
	}
	return strings.Join(parts, " ")
}

// sanitizeTerm keeps letters, digits, and -_./ so terms are safe to embed
// in a quoted fts5 string.
func sanitizeTerm(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.' || r == '/':
			b.WriteRune(r)
		case r > 127: // keep non-ASCII letters; the tokenizer handles them
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseDateRange parses "<date>", "<date>..<date>", "<date>.." or
// "..<date>". A single date covers that whole day; an unterminated side is
// open-ended. Unparseable fragments yield an empty filter, never an error.
func parseDateRange(spec string) RangeFilter {
	var r RangeFilter
	from, to, ranged := strings.Cut(spec, "..")
	if !ranged {
		if start, end, ok := parseDay(spec); ok {
			r.From, r.HasFrom = start, true
			r.To, r.HasTo = end, true
		}
		return r
	}
	if from != "" {
		if start, _, ok := parseDay(from); ok {
			r.From, r.HasFrom = start, true
		}
	}
	if to != "" {
		if _, end, ok := parseDay(to); ok {
			r.To, r.HasTo = end, true
		}
	}
	return r
}

// parseDay returns the [midnight, next-midnight) unix window for a
// YYYY-MM-DD date in UTC.
func parseDay(input string) (from, to int64, ok bool) {
	day, err := time.ParseInLocation("2006-01-02", input, time.UTC)
	if err != nil {
		return 0, 0, false
	}
	return day.Unix(), day.AddDate(0, 0, 1).Unix(), true
}
