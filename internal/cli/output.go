package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/roach88/inkwell/internal/notes"
)

// Formatter renders command results as text or JSON.
type Formatter struct {
	Format string
	Writer io.Writer
}

// JSON emits v as indented JSON.
func (f *Formatter) JSON(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Textf writes formatted text output.
func (f *Formatter) Textf(format string, args ...any) {
	fmt.Fprintf(f.Writer, format, args...)
}

// FormatResults renders ranked search results with snippets and
// highlighted spans. Matched ranges are wrapped in [brackets].
func FormatResults(results []notes.SearchResult) string {
	if len(results) == 0 {
		return "No matches found.\n"
	}

	var sb strings.Builder
	for _, r := range results {
		n := r.Note
		headline := fmt.Sprintf("#%d  %s", n.ID, markSpans(n.Title, r.TitleSpans))
		if n.Pinned {
			headline += "  [PINNED]"
		}
		if n.Archived {
			headline += "  [ARCHIVED]"
		}
		sb.WriteString(headline + "\n")
		sb.WriteString("    updated " + formatTimestamp(n.UpdatedAt) + "\n")
		if len(n.Tags) > 0 {
			sb.WriteString("    tags    " + strings.Join(n.Tags, ", ") + "\n")
		}
		if snippet := resultSnippet(r); snippet != "" {
			sb.WriteString("    " + snippet + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// resultSnippet prefers the index-produced snippet and falls back to the
// first body lines. Body highlight spans are applied when the snippet is
// a plain prefix of the body.
func resultSnippet(r notes.SearchResult) string {
	if r.Snippet != "" {
		return strings.Join(strings.Fields(r.Snippet), " ")
	}
	body := markSpans(r.Note.Body, r.BodySpans)
	var parts []string
	for _, line := range strings.Split(body, "\n") {
		if len(parts) >= 2 {
			break
		}
		line = strings.TrimSpace(line)
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " / ")
}

// markSpans wraps each highlighted range in brackets. Spans are
// non-overlapping and ordered, as produced by the search engine.
func markSpans(text string, spans []notes.Span) string {
	if len(spans) == 0 {
		return text
	}
	var sb strings.Builder
	prev := 0
	for _, sp := range spans {
		if sp.Start < prev || sp.End > len(text) || sp.Start > sp.End {
			continue
		}
		sb.WriteString(text[prev:sp.Start])
		sb.WriteString("[")
		sb.WriteString(text[sp.Start:sp.End])
		sb.WriteString("]")
		prev = sp.End
	}
	sb.WriteString(text[prev:])
	return sb.String()
}

// FormatNotes renders a plain note listing.
func FormatNotes(list []notes.Note) string {
	if len(list) == 0 {
		return "No notes.\n"
	}

	var sb strings.Builder
	for _, n := range list {
		headline := fmt.Sprintf("#%d  %s", n.ID, n.Title)
		if n.Pinned {
			headline += "  [PINNED]"
		}
		if n.Archived {
			headline += "  [ARCHIVED]"
		}
		if n.Trashed() {
			headline += "  [TRASHED]"
		}
		sb.WriteString(headline + "\n")
		sb.WriteString("    updated " + formatTimestamp(n.UpdatedAt) + "\n")
		if len(n.Tags) > 0 {
			sb.WriteString("    tags    " + strings.Join(n.Tags, ", ") + "\n")
		}
		if preview := n.Preview(2); preview != "" {
			sb.WriteString("    " + preview + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatNote renders one note in full, body included.
func FormatNote(n notes.Note) string {
	var sb strings.Builder
	headline := fmt.Sprintf("#%d  %s", n.ID, n.Title)
	if n.Pinned {
		headline += "  [PINNED]"
	}
	if n.Archived {
		headline += "  [ARCHIVED]"
	}
	if n.Trashed() {
		headline += "  [TRASHED]"
	}
	sb.WriteString(headline + "\n")
	sb.WriteString("created " + formatTimestamp(n.CreatedAt) + "\n")
	sb.WriteString("updated " + formatTimestamp(n.UpdatedAt) + "\n")
	if len(n.Tags) > 0 {
		sb.WriteString("tags    " + strings.Join(n.Tags, ", ") + "\n")
	}
	if n.Body != "" {
		sb.WriteString("\n" + n.Body)
		if !strings.HasSuffix(n.Body, "\n") {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// FormatMergeReport renders a tag merge outcome, including skipped
// sources with their reasons.
func FormatMergeReport(report notes.MergeReport) string {
	var sb strings.Builder
	if len(report.Merged) == 0 {
		sb.WriteString(fmt.Sprintf("Nothing merged into %q\n", report.Target))
	} else {
		sb.WriteString(fmt.Sprintf("Merged %s into %q (relinked %d association%s)\n",
			strings.Join(quoteAll(report.Merged), ", "),
			report.Target, report.Relinked, plural(report.Relinked)))
	}
	for _, sk := range report.Skipped {
		sb.WriteString(fmt.Sprintf("  skipped %q: %s\n", sk.Name, sk.Reason))
	}
	return sb.String()
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func formatTimestamp(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}

// formatAge renders a duration as a short relative age.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
