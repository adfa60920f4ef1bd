package timeline

import (
	"fmt"
	"sort"
)

// WindowTotal is the total attributed time for one window.
type WindowTotal struct {
	Window  string
	Seconds int
}

// TitleTotal is the total attributed time for one title within a window.
type TitleTotal struct {
	Title   string
	Seconds int
}

// Summary aggregates a timeline for the activity breakdown views.
type Summary struct {
	TotalSeconds int
	Windows      []WindowTotal // sorted by Seconds, largest first
}

// Summarize totals every window. Ties keep first-insertion order.
func (t *Timeline) Summarize() Summary {
	var s Summary
	for _, w := range t.order {
		wt := WindowTotal{Window: w}
		for _, e := range t.entries[w] {
			wt.Seconds += e.Range.Len()
		}
		s.TotalSeconds += wt.Seconds
		s.Windows = append(s.Windows, wt)
	}
	sort.SliceStable(s.Windows, func(i, j int) bool {
		return s.Windows[i].Seconds > s.Windows[j].Seconds
	})
	return s
}

// TitleTotals sums time per title for window, keeping only titles with more
// than minSeconds attributed. Titles keep their first-seen order.
func (t *Timeline) TitleTotals(window string, minSeconds int) []TitleTotal {
	idx := make(map[string]int)
	var totals []TitleTotal
	for _, e := range t.entries[window] {
		i, ok := idx[e.Title]
		if !ok {
			i = len(totals)
			idx[e.Title] = i
			totals = append(totals, TitleTotal{Title: e.Title})
		}
		totals[i].Seconds += e.Range.Len()
	}
	out := totals[:0]
	for _, tt := range totals {
		if tt.Seconds > minSeconds {
			out = append(out, tt)
		}
	}
	return out
}

// Productivity returns active seconds as a percentage of the work time
// available in a session (pomodoro span minus breaks). It returns 0 when no
// work time was configured.
func Productivity(activeSeconds, pomodoroSeconds, breakSeconds int) float64 {
	work := pomodoroSeconds - breakSeconds
	if work <= 0 {
		return 0
	}
	return float64(activeSeconds) / float64(work) * 100
}

// FormatSpan renders a duration in seconds the way the breakdown views do:
// "42 sec", "1.5 min", "2.3 h".
func FormatSpan(seconds int) string {
	if seconds < 0 {
		seconds = -seconds
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d sec", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.1f min", float64(seconds)/60)
	default:
		return fmt.Sprintf("%.1f h", float64(seconds)/3600)
	}
}

// FormatDuration renders seconds as "1h 5m" or "25m".
func FormatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// FormatClock renders a countdown as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
