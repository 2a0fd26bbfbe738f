package cli

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/inkwell/internal/notes"
)

func fixedTime(t *testing.T, value string) int64 {
	t.Helper()

	ts, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return ts.Unix()
}

func TestFormatResults_Golden(t *testing.T) {
	results := []notes.SearchResult{
		{
			Note: notes.Note{
				ID:        1,
				Title:     "Groceries",
				Body:      "milk\neggs\nbread\n",
				UpdatedAt: fixedTime(t, "2024-03-01 09:30"),
				Pinned:    true,
				Tags:      []string{"home", "shopping"},
			},
			Snippet:    "milk ... eggs",
			TitleSpans: []notes.Span{{Start: 0, End: 4}},
		},
		{
			Note: notes.Note{
				ID:        2,
				Title:     "Wishlist",
				Body:      "new bike\nnew boots\n",
				UpdatedAt: fixedTime(t, "2024-02-28 18:05"),
			},
			BodySpans: []notes.Span{{Start: 4, End: 8}},
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "results", []byte(FormatResults(results)))
}

func TestFormatResults_NoMatches(t *testing.T) {
	assert.Equal(t, "No matches found.\n", FormatResults(nil))
}

func TestFormatNotes_Golden(t *testing.T) {
	list := []notes.Note{
		{
			ID:        1,
			Title:     "Groceries",
			Body:      "milk\neggs\nbread\n",
			UpdatedAt: fixedTime(t, "2024-03-01 09:30"),
			Pinned:    true,
			Tags:      []string{"home", "shopping"},
		},
		{
			ID:        3,
			Title:     "Old note",
			Body:      "finished already\n",
			UpdatedAt: fixedTime(t, "2024-02-28 18:05"),
			DeletedAt: fixedTime(t, "2024-02-28 18:06"),
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "notes", []byte(FormatNotes(list)))
}

func TestFormatNotes_Empty(t *testing.T) {
	assert.Equal(t, "No notes.\n", FormatNotes(nil))
}

func TestFormatNote_Golden(t *testing.T) {
	n := notes.Note{
		ID:        7,
		Title:     "Meeting notes",
		Body:      "agenda\n- budget\n- roadmap\n",
		CreatedAt: fixedTime(t, "2024-02-01 10:00"),
		UpdatedAt: fixedTime(t, "2024-03-01 09:30"),
		Archived:  true,
		Tags:      []string{"work"},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "note", []byte(FormatNote(n)))
}

func TestFormatMergeReport(t *testing.T) {
	report := notes.MergeReport{
		Target:   "groceries",
		Merged:   []string{"grocery", "shopping"},
		Relinked: 3,
		Skipped:  []notes.SkippedTag{{Name: "nosuch", Reason: "unknown"}},
	}

	want := "Merged \"grocery\", \"shopping\" into \"groceries\" (relinked 3 associations)\n" +
		"  skipped \"nosuch\": unknown\n"
	assert.Equal(t, want, FormatMergeReport(report))
}

func TestFormatMergeReport_NothingMerged(t *testing.T) {
	report := notes.MergeReport{
		Target:  "groceries",
		Skipped: []notes.SkippedTag{{Name: "grocery", Reason: "unknown"}},
	}

	want := "Nothing merged into \"groceries\"\n" +
		"  skipped \"grocery\": unknown\n"
	assert.Equal(t, want, FormatMergeReport(report))
}

func TestMarkSpans(t *testing.T) {
	spans := []notes.Span{{Start: 0, End: 4}, {Start: 10, End: 13}}
	assert.Equal(t, "[Groc]eries [and] more", markSpans("Groceries and more", spans))

	// Out-of-range spans are skipped, not applied partially
	assert.Equal(t, "short", markSpans("short", []notes.Span{{Start: 2, End: 99}}))
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "just now", formatAge(30*time.Second))
	assert.Equal(t, "5m ago", formatAge(5*time.Minute))
	assert.Equal(t, "3h ago", formatAge(3*time.Hour))
	assert.Equal(t, "2d ago", formatAge(49*time.Hour))
}
