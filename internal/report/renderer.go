package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/locus/internal/session"
	"github.com/fakeyudi/locus/internal/timeline"
)

const (
	versionSentinel = "<!-- locus-report-version: 1 -->"
	dataPrefix      = "<!-- locus-data: "
	dataSuffix      = " -->"
)

// JSONRenderer renders a record as indented JSON in its storage format.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(rec *session.Record) ([]byte, error) {
	return json.MarshalIndent(rec, "", "  ")
}

// YAMLRenderer renders a record as YAML.
type YAMLRenderer struct{}

func (r *YAMLRenderer) Render(rec *session.Record) ([]byte, error) {
	out, err := yaml.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return out, nil
}

// MarkdownRenderer renders a record as human-readable Markdown with an
// embedded base64 JSON payload for lossless round-trip parsing.
type MarkdownRenderer struct {
	// MinTitleSeconds hides titles with this much time or less from the
	// per-window breakdown.
	MinTitleSeconds int
}

func (r *MarkdownRenderer) Render(rec *session.Record) ([]byte, error) {
	jsonBytes, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonBytes)

	var sb strings.Builder

	// Sentinel and embedded payload.
	sb.WriteString(versionSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, encoded, dataSuffix)

	fmt.Fprintf(&sb, "# Focus session — %s\n\n", rec.StartedAt.Local().Format("2006-01-02 15:04"))

	tl := rec.Timeline
	if tl == nil {
		tl = timeline.New()
	}
	sum := tl.Summarize()

	// ## Summary
	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- Session: %s\n", rec.ID)
	fmt.Fprintf(&sb, "- Pomodoro length: %s\n", timeline.FormatDuration(rec.PomodoroLengthSeconds))
	fmt.Fprintf(&sb, "- Breaks: %s\n", timeline.FormatDuration(rec.BreakLengthSeconds))
	fmt.Fprintf(&sb, "- Active time: %s\n", timeline.FormatSpan(sum.TotalSeconds))
	fmt.Fprintf(&sb, "- Productivity: %.0f%%\n", rec.Productivity())
	sb.WriteString("\n")

	// ## Windows
	sb.WriteString("## Windows\n\n")
	if len(sum.Windows) == 0 {
		sb.WriteString("_No activity recorded._\n\n")
		return []byte(sb.String()), nil
	}
	sb.WriteString("| Window | Time | Share |\n")
	sb.WriteString("|--------|------|-------|\n")
	for _, w := range sum.Windows {
		fmt.Fprintf(&sb, "| %s | %s | %.0f%% |\n",
			escapeCell(w.Window),
			timeline.FormatSpan(w.Seconds),
			share(w.Seconds, sum.TotalSeconds),
		)
	}
	sb.WriteString("\n")

	// ### per-window title breakdown
	for _, w := range sum.Windows {
		fmt.Fprintf(&sb, "### %s\n\n", w.Window)
		titles := tl.TitleTotals(w.Window, r.MinTitleSeconds)
		if len(titles) == 0 {
			sb.WriteString("_No titles above the minimum duration._\n\n")
			continue
		}
		for _, t := range titles {
			fmt.Fprintf(&sb, "- %s — %s\n", t.Title, timeline.FormatSpan(t.Seconds))
		}
		sb.WriteString("\n")
	}

	// ## Timeline
	sb.WriteString("## Timeline\n\n")
	for _, tr := range tl.Triples() {
		fmt.Fprintf(&sb, "- `%s–%s` %s: %s\n",
			timeline.FormatClock(tr.Range.Start),
			timeline.FormatClock(tr.Range.End),
			tr.Window,
			tr.Title,
		)
	}
	sb.WriteString("\n")

	return []byte(sb.String()), nil
}

func share(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
