package report_test

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/locus/internal/report"
	"github.com/fakeyudi/locus/internal/session"
	"github.com/fakeyudi/locus/internal/timeline"
)

// generateTime produces an arbitrary time.Time value truncated to second
// precision (matches JSON round-trip fidelity via RFC3339).
func generateTime(t *rapid.T, label string) time.Time {
	sec := rapid.Int64Range(1_000_000_000, 1_700_000_000).Draw(t, label+"_unix_sec")
	return time.Unix(sec, 0).UTC()
}

// generateRecord produces a record with at least one window.
func generateRecord(t *rapid.T) *session.Record {
	tl := timeline.New()
	windows := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z][a-z -]{0,12}`), 1, 4, rapid.ID[string]).Draw(t, "windows")
	cur := 0
	n := rapid.IntRange(1, 15).Draw(t, "ranges")
	for i := 0; i < n; i++ {
		cur += rapid.IntRange(0, 5).Draw(t, "gap")
		length := rapid.IntRange(1, 300).Draw(t, "len")
		tl.Insert(rapid.SampledFrom(windows).Draw(t, "window"), timeline.TitleRange{
			Title: rapid.StringMatching(`[\p{L}\p{N}][\p{L}\p{N} .,:/|#_-]{0,40}`).Draw(t, "title"),
			Range: timeline.Range{Start: cur, End: cur + length},
		})
		cur += length
	}
	return session.NewRecord(tl,
		rapid.IntRange(60, 20_000).Draw(t, "pomodoro"),
		rapid.IntRange(0, 3_000).Draw(t, "break"),
		generateTime(t, "started"))
}

func sameRecord(t *rapid.T, got, want *session.Record) {
	t.Helper()
	if got.ID != want.ID || got.PomodoroLengthSeconds != want.PomodoroLengthSeconds ||
		got.BreakLengthSeconds != want.BreakLengthSeconds || !got.StartedAt.Equal(want.StartedAt) {
		t.Fatalf("fields differ:\n got %+v\nwant %+v", got, want)
	}
	if !reflect.DeepEqual(got.Timeline.Triples(), want.Timeline.Triples()) {
		t.Fatalf("timeline differs:\n got %+v\nwant %+v", got.Timeline.Triples(), want.Timeline.Triples())
	}
}

// Feature: locus, Property 12: every export format parses back to the same record
func TestRenderParseRoundTrip(t *testing.T) {
	formats := []string{report.FormatJSON, report.FormatMarkdown, report.FormatYAML}
	rapid.Check(t, func(t *rapid.T) {
		rec := generateRecord(t)
		format := rapid.SampledFrom(formats).Draw(t, "format")

		r, err := report.RendererFor(format, 0)
		if err != nil {
			t.Fatalf("RendererFor: %v", err)
		}
		out, err := r.Render(rec)
		if err != nil {
			t.Fatalf("Render(%s): %v", format, err)
		}
		back, err := report.Parse(out)
		if err != nil {
			t.Fatalf("Parse(%s): %v\n%s", format, err, out)
		}
		sameRecord(t, back, rec)
	})
}

func TestMarkdownSections(t *testing.T) {
	tl := timeline.New()
	tl.Insert("firefox", timeline.TitleRange{Title: "docs", Range: timeline.Range{Start: 0, End: 90}})
	tl.Insert("firefox", timeline.TitleRange{Title: "mail", Range: timeline.Range{Start: 90, End: 95}})
	tl.Insert("zed", timeline.TitleRange{Title: "main.go", Range: timeline.Range{Start: 95, End: 125}})
	rec := session.NewRecord(tl, 3600, 600, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	out, err := (&report.MarkdownRenderer{MinTitleSeconds: 10}).Render(rec)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	md := string(out)
	for _, want := range []string{
		"## Summary", "## Windows", "## Timeline",
		"| firefox | 1.6 min |",
		"### zed",
		"- docs — 1.5 min",
		"- Productivity: 4%",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "- mail") {
		t.Errorf("title under the minimum duration was listed:\n%s", md)
	}
}

func TestMarkdownEmptyTimeline(t *testing.T) {
	rec := session.NewRecord(timeline.New(), 60, 0, time.Now())
	out, err := (&report.MarkdownRenderer{}).Render(rec)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), "_No activity recorded._") {
		t.Errorf("expected empty-activity note:\n%s", out)
	}
}

func TestRendererForUnknown(t *testing.T) {
	if _, err := report.RendererFor("pdf", 0); err == nil {
		t.Error("RendererFor accepted pdf")
	}
	if report.Extension("yaml") != ".yaml" || report.Extension("markdown") != ".md" {
		t.Error("unexpected extensions")
	}
}
