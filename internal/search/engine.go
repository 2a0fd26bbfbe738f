package search

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/inkwell/internal/notes"
	"github.com/roach88/inkwell/internal/store"
)

// DefaultLimit sizes results to a typical viewport when the caller does
// not say otherwise.
const DefaultLimit = 20

// regexScanLimit bounds the candidate scan in regex mode, trading index
// selectivity for pattern correctness without unbounded work.
const regexScanLimit = 200

// Request is one search invocation. Regex mode is a flag rather than query
// syntax: when set, the qualifier-stripped raw text becomes a single
// case-insensitive pattern applied to title+body.
type Request struct {
	Raw   string
	Regex bool
	Limit int
}

// Engine executes parsed queries against the store's full-text index.
type Engine struct {
	store          *store.Store
	fuzzyThreshold float64
}

// NewEngine creates a search engine. fuzzyThreshold in (0, 1] controls how
// aggressively vocabulary terms join the expansion; 0 disables fuzzy
// variants entirely.
func NewEngine(s *store.Store, fuzzyThreshold float64) *Engine {
	if fuzzyThreshold < 0 {
		fuzzyThreshold = 0
	}
	if fuzzyThreshold > 1 {
		fuzzyThreshold = 1
	}
	return &Engine{store: s, fuzzyThreshold: fuzzyThreshold}
}

// Search runs a query and returns ranked results with highlight spans.
//
// With free text, ranking follows the index's bm25 ordering; qualifiers
// are pure filters and never affect scoring. Without free text the result
// is a filtered listing ordered pinned-first by recency. Ties always break
// by note id ascending.
func (e *Engine) Search(ctx context.Context, req Request) ([]notes.SearchResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := Parse(req.Raw)

	if req.Regex {
		return e.searchRegex(ctx, req.Raw, q, limit)
	}
	if q.HasTerms() {
		return e.searchIndexed(ctx, q, limit)
	}
	return e.searchFiltered(ctx, q, limit)
}

// searchIndexed is the fts5 MATCH path: fuzzy-expanded terms ranked by
// bm25, qualifiers joined in as relational filters.
func (e *Engine) searchIndexed(ctx context.Context, q Query, limit int) ([]notes.SearchResult, error) {
	var vocab []string
	if e.fuzzyThreshold > 0 {
		var err error
		vocab, err = e.loadVocabulary(ctx)
		if err != nil {
			return nil, err
		}
	}

	match := buildMatchExpression(q, vocab, e.fuzzyThreshold)
	if match == "" {
		return nil, nil
	}

	filterSQL, filterArgs := compileFilters(q)
	// snippet()/bm25() are computed in a materialized CTE because SQLite
	// forbids fts5 auxiliary functions inside an aggregate (GROUP BY)
	// query; MATERIALIZED stops the planner from flattening it back in.
	query := `
		WITH f AS MATERIALIZED (
		    SELECT rowid AS note_id,
		           snippet(fts_notes, 1, '', '', ' ... ', 20) AS snip,
		           bm25(fts_notes) AS score
		    FROM fts_notes
		    WHERE fts_notes MATCH ?
		)
		SELECT n.id, n.title, n.body, n.created_at, n.updated_at,
		       n.pinned, n.archived, COALESCE(n.deleted_at, 0),
		       COALESCE(GROUP_CONCAT(t.name, '` + tagDelimiter + `'), ''),
		       f.snip,
		       f.score
		FROM f
		JOIN notes n ON n.id = f.note_id
		LEFT JOIN note_tags nt ON nt.note_id = n.id
		LEFT JOIN tags t ON t.id = nt.tag_id
		WHERE n.deleted_at IS NULL AND n.archived = 0` + filterSQL + `
		GROUP BY n.id
		ORDER BY f.score, n.id ASC
		LIMIT ?
	`
	args := append([]any{match}, filterArgs...)
	args = append(args, limit)

	results, err := e.scanResults(ctx, query, args, true)
	if err != nil {
		return nil, fmt.Errorf("indexed search: %w", err)
	}
	highlightAll(results, q.HighlightTerms())
	return results, nil
}

// searchFiltered handles qualifier-only queries: no relevance component,
// explicit pinned-first recency ordering.
func (e *Engine) searchFiltered(ctx context.Context, q Query, limit int) ([]notes.SearchResult, error) {
	filterSQL, filterArgs := compileFilters(q)
	query := `
		SELECT n.id, n.title, n.body, n.created_at, n.updated_at,
		       n.pinned, n.archived, COALESCE(n.deleted_at, 0),
		       COALESCE(GROUP_CONCAT(t.name, '` + tagDelimiter + `'), '')
		FROM notes n
		LEFT JOIN note_tags nt ON nt.note_id = n.id
		LEFT JOIN tags t ON t.id = nt.tag_id
		WHERE n.deleted_at IS NULL AND n.archived = 0` + filterSQL + `
		GROUP BY n.id
		ORDER BY n.pinned DESC, n.updated_at DESC, n.id ASC
		LIMIT ?
	`
	args := append(filterArgs, limit)

	results, err := e.scanResults(ctx, query, args, false)
	if err != nil {
		return nil, fmt.Errorf("filtered search: %w", err)
	}
	return results, nil
}

// searchRegex applies one case-insensitive pattern to title+body over a
// bounded scan of live notes, with qualifier filters still applied in SQL.
// A malformed pattern surfaces QUERY_SYNTAX without touching the index.
func (e *Engine) searchRegex(ctx context.Context, raw string, q Query, limit int) ([]notes.SearchResult, error) {
	pattern := RegexPattern(raw)
	if pattern == "" {
		return e.searchFiltered(ctx, q, limit)
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, notes.NewQuerySyntax(pattern, err)
	}

	scanLimit := limit
	if scanLimit < regexScanLimit {
		scanLimit = regexScanLimit
	}

	filterSQL, filterArgs := compileFilters(q)
	query := `
		SELECT n.id, n.title, n.body, n.created_at, n.updated_at,
		       n.pinned, n.archived, COALESCE(n.deleted_at, 0),
		       COALESCE(GROUP_CONCAT(t.name, '` + tagDelimiter + `'), '')
		FROM notes n
		LEFT JOIN note_tags nt ON nt.note_id = n.id
		LEFT JOIN tags t ON t.id = nt.tag_id
		WHERE n.deleted_at IS NULL AND n.archived = 0` + filterSQL + `
		GROUP BY n.id
		ORDER BY n.updated_at DESC, n.id ASC
		LIMIT ?
	`
	args := append(filterArgs, scanLimit)

	candidates, err := e.scanResults(ctx, query, args, false)
	if err != nil {
		return nil, fmt.Errorf("regex search: %w", err)
	}

	var out []notes.SearchResult
	for _, r := range candidates {
		if len(out) >= limit {
			break
		}
		titleSpans := regexSpans(re, r.Note.Title)
		bodySpans := regexSpans(re, r.Note.Body)
		if titleSpans == nil && bodySpans == nil {
			continue
		}
		r.TitleSpans = titleSpans
		r.BodySpans = bodySpans
		out = append(out, r)
	}
	return out, nil
}

// compileFilters turns qualifiers into parameterized WHERE fragments.
// Tag membership uses one EXISTS per tag (AND semantics); negated terms
// exclude on a title/body substring match.
func compileFilters(q Query) (string, []any) {
	var sb strings.Builder
	var args []any

	for _, tag := range q.Tags {
		sb.WriteString(`
		  AND EXISTS (
		      SELECT 1 FROM note_tags xnt
		      JOIN tags xt ON xt.id = xnt.tag_id
		      WHERE xnt.note_id = n.id AND xt.name = ?
		  )`)
		args = append(args, tag)
	}

	appendRange := func(column string, r RangeFilter) {
		if r.HasFrom {
			sb.WriteString(" AND n." + column + " >= ?")
			args = append(args, r.From)
		}
		if r.HasTo {
			sb.WriteString(" AND n." + column + " < ?")
			args = append(args, r.To)
		}
	}
	appendRange("created_at", q.Created)
	appendRange("updated_at", q.Updated)

	for _, term := range q.NotTerms {
		sb.WriteString(" AND NOT (n.title LIKE ? OR n.body LIKE ?)")
		like := "%" + term + "%"
		args = append(args, like, like)
	}

	return sb.String(), args
}

// scanResults executes a result query. withScore selects the two extra
// snippet/bm25 columns of the indexed path.
func (e *Engine) scanResults(ctx context.Context, query string, args []any, withScore bool) ([]notes.SearchResult, error) {
	rows, err := e.store.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []notes.SearchResult
	for rows.Next() {
		r, err := scanResult(rows, withScore)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanResult(rows *sql.Rows, withScore bool) (notes.SearchResult, error) {
	var r notes.SearchResult
	var pinned, archived int
	var tags string

	dest := []any{
		&r.Note.ID, &r.Note.Title, &r.Note.Body,
		&r.Note.CreatedAt, &r.Note.UpdatedAt,
		&pinned, &archived, &r.Note.DeletedAt, &tags,
	}
	if withScore {
		dest = append(dest, &r.Snippet, &r.Score)
	}
	if err := rows.Scan(dest...); err != nil {
		return notes.SearchResult{}, err
	}

	r.Note.Pinned = pinned != 0
	r.Note.Archived = archived != 0
	r.Note.Tags = splitTags(tags)
	r.Snippet = strings.TrimSpace(r.Snippet)
	return r, nil
}

// tagDelimiter mirrors the store's GROUP_CONCAT separator.
const tagDelimiter = "|:|"

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(raw, tagDelimiter) {
		if t != "" {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// highlightAll computes highlight spans for every result in place.
func highlightAll(results []notes.SearchResult, terms []string) {
	re := highlightRegexp(terms)
	if re == nil {
		return
	}
	for i := range results {
		results[i].TitleSpans = regexSpans(re, results[i].Note.Title)
		results[i].BodySpans = regexSpans(re, results[i].Note.Body)
	}
}

func regexSpans(re *regexp.Regexp, text string) []notes.Span {
	var spans []notes.Span
	for _, loc := range re.FindAllStringIndex(text, -1) {
		spans = append(spans, notes.Span{Start: loc[0], End: loc[1]})
	}
	return spans
}
