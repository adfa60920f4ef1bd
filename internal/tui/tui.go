// Package tui provides the Bubble Tea views: the live focus-session screen
// and the session history browser.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/locus/internal/focus"
	"github.com/fakeyudi/locus/internal/session"
	"github.com/fakeyudi/locus/internal/timeline"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))
)

// ── Shared rendering ───────────────────

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func row(sb *strings.Builder, label, value string) {
	sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-14s", label)) + "  " + value + "\n")
}

// statusBar renders the bottom hint line with right-aligned extra text.
func statusBar(width int, hint, right string) string {
	pad := width - lipgloss.Width(hint) - lipgloss.Width(right) - 2
	if pad < 1 {
		pad = 1
	}
	return statusBarStyle.Width(width).Render(hint + strings.Repeat(" ", pad) + right)
}

// windowBars renders one bar per window, longest first, scaled against the
// largest total. At most limit rows are drawn when limit > 0.
func windowBars(tl *timeline.Timeline, accent string, width, limit int) string {
	s := tl.Summarize()
	if len(s.Windows) == 0 {
		return dimStyle.Render("  (no activity recorded yet)") + "\n"
	}

	barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(accent))
	nameWidth := 18
	barWidth := width - nameWidth - 20
	if barWidth < 10 {
		barWidth = 10
	}
	top := s.Windows[0].Seconds

	var sb strings.Builder
	for i, w := range s.Windows {
		if limit > 0 && i == limit {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more", len(s.Windows)-limit)) + "\n")
			break
		}
		n := 0
		if top > 0 {
			n = w.Seconds * barWidth / top
		}
		if n == 0 && w.Seconds > 0 {
			n = 1
		}
		icon := focus.IconFor(w.Window)
		name := truncate(w.Window, nameWidth-3)
		fmt.Fprintf(&sb, "  %s %-*s %s %s\n",
			icon.Glyph, nameWidth-3, name,
			barStyle.Render(strings.Repeat("█", n))+dimStyle.Render(strings.Repeat("░", barWidth-n)),
			timeStyle.Render(timeline.FormatSpan(w.Seconds)))
	}
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 2 {
		return s
	}
	return string(r[:n-1]) + "…"
}

func recordLabel(r *session.Record) string {
	return fmt.Sprintf("%s  %s  %s",
		r.ShortID(),
		r.StartedAt.Local().Format("2006-01-02 15:04"),
		timeline.FormatDuration(r.ActiveSeconds()))
}

// RunLive shows the live session screen until the user quits or the session
// loop stops.
func RunLive(ctrl Controller, accent string) error {
	p := tea.NewProgram(NewLive(ctrl, accent), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RunHistory opens the history browser over records.
func RunHistory(records []*session.Record, minTitleSeconds int, accent string) error {
	p := tea.NewProgram(NewHistory(records, minTitleSeconds, accent), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
