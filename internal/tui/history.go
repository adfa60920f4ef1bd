package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/locus/internal/session"
	"github.com/fakeyudi/locus/internal/timeline"
)

type tabID int

const (
	tabSessions tabID = iota
	tabSummary
	tabWindows
	tabTimeline
	tabCount
)

var tabNames = [tabCount]string{"Sessions", "Summary", "Windows", "Timeline"}

// History browses archived sessions. The Sessions tab selects a record; the
// other tabs show its breakdown.
type History struct {
	records   []*session.Record
	minTitle  int
	accent    string
	cursor    int
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
	sortAsc   bool
}

// NewHistory returns a browser over records, newest first. Titles with
// minTitleSeconds or less are hidden from the per-window breakdown.
func NewHistory(records []*session.Record, minTitleSeconds int, accent string) History {
	rs := make([]*session.Record, len(records))
	copy(rs, records)
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].StartedAt.After(rs[j].StartedAt) })
	return History{records: rs, minTitle: minTitleSeconds, accent: accent, sortAsc: true}
}

func (m History) Init() tea.Cmd { return nil }

func (m History) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1", "2", "3", "4":
			m.activeTab = tabID(msg.String()[0] - '1')
			return m, nil
		case "s":
			if m.activeTab == tabTimeline {
				m.sortAsc = !m.sortAsc
				m.refresh()
				m.viewports[tabTimeline].GotoTop()
			}
			return m, nil
		case "up", "k":
			if m.activeTab == tabSessions && m.cursor > 0 {
				m.cursor--
				m.refresh()
				return m, nil
			}
		case "down", "j":
			if m.activeTab == tabSessions && m.cursor < len(m.records)-1 {
				m.cursor++
				m.refresh()
				return m, nil
			}
		case "enter":
			if m.activeTab == tabSessions && len(m.records) > 0 {
				m.activeTab = tabSummary
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

// Selected returns the record under the cursor, or nil when there are none.
func (m History) Selected() *session.Record {
	if len(m.records) == 0 {
		return nil
	}
	return m.records[m.cursor]
}

func (m History) View() string {
	if !m.ready {
		return "Loading…"
	}

	label := "no sessions"
	if r := m.Selected(); r != nil {
		label = r.ShortID() + "  " + r.StartedAt.Local().Format("2006-01-02 15:04")
	}
	title := titleStyle.Width(m.width).Render("  locus history  " + label)

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		text := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(text))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(text))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-4 jump  q quit"
	switch m.activeTab {
	case tabSessions:
		hint += "  ↑/↓ select  enter open"
	case tabTimeline:
		dir := "latest first"
		if m.sortAsc {
			dir = "in order"
		}
		hint += "  s sort (" + dir + ")"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar(m.width, hint, pct))
}

func (m *History) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, h)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

// refresh re-renders every tab after the selection or sort order changed.
func (m *History) refresh() {
	if !m.ready {
		return
	}
	for i := tabID(0); i < tabCount; i++ {
		m.viewports[i].SetContent(m.renderTab(i))
	}
}

func (m *History) renderTab(t tabID) string {
	switch t {
	case tabSessions:
		return m.renderSessions()
	case tabSummary:
		return m.renderSummary()
	case tabWindows:
		return m.renderWindows()
	case tabTimeline:
		return m.renderTimeline()
	}
	return ""
}

func (m *History) renderSessions() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Sessions (%d)", len(m.records))))
	if len(m.records) == 0 {
		sb.WriteString(dimStyle.Render("  (none yet: finish or reset a session to archive it)") + "\n")
		return sb.String()
	}
	for i, r := range m.records {
		line := "  " + recordLabel(r) + fmt.Sprintf("  %3.0f%%", r.Productivity())
		if i == m.cursor {
			line = selectedRowStyle.Width(max(m.width-2, 1)).Render(line)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func (m *History) renderSummary() string {
	r := m.Selected()
	if r == nil {
		return heading("Summary") + dimStyle.Render("  (no session selected)") + "\n"
	}
	sum := r.Timeline.Summarize()

	var sb strings.Builder
	sb.WriteString(heading("Session Summary"))
	row(&sb, "ID:", r.ID)
	row(&sb, "Started:", r.StartedAt.Local().Format("2006-01-02 15:04:05 MST"))
	row(&sb, "Pomodoro:", timeline.FormatDuration(r.PomodoroLengthSeconds))
	row(&sb, "Breaks:", timeline.FormatDuration(r.BreakLengthSeconds))
	row(&sb, "Active:", timeline.FormatSpan(sum.TotalSeconds))
	row(&sb, "Productivity:", fmt.Sprintf("%.0f%%", r.Productivity()))
	row(&sb, "Windows:", fmt.Sprintf("%d", len(sum.Windows)))
	if len(sum.Windows) > 0 {
		top := sum.Windows[0]
		row(&sb, "Most used:", fmt.Sprintf("%s (%s)", top.Window, timeline.FormatSpan(top.Seconds)))
	}
	return sb.String()
}

func (m *History) renderWindows() string {
	r := m.Selected()
	if r == nil {
		return heading("Windows") + dimStyle.Render("  (no session selected)") + "\n"
	}
	var sb strings.Builder
	sb.WriteString(heading("Windows"))
	sb.WriteString(windowBars(r.Timeline, m.accent, m.width, 0))

	for _, w := range r.Timeline.Summarize().Windows {
		sb.WriteString(heading(w.Window))
		titles := r.Timeline.TitleTotals(w.Window, m.minTitle)
		if len(titles) == 0 {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("  (no titles over %s)", timeline.FormatSpan(m.minTitle))) + "\n")
			continue
		}
		for _, t := range titles {
			fmt.Fprintf(&sb, "  %s  %s\n", timeStyle.Render(fmt.Sprintf("%9s", timeline.FormatSpan(t.Seconds))), t.Title)
		}
	}
	return sb.String()
}

func (m *History) renderTimeline() string {
	r := m.Selected()
	if r == nil {
		return heading("Timeline") + dimStyle.Render("  (no session selected)") + "\n"
	}
	triples := r.Timeline.Triples()
	if m.sortAsc {
		sort.SliceStable(triples, func(i, j int) bool { return triples[i].Range.Start < triples[j].Range.Start })
	} else {
		sort.SliceStable(triples, func(i, j int) bool { return triples[i].Range.Start > triples[j].Range.Start })
	}

	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Timeline (%d ranges)", len(triples))))
	if len(triples) == 0 {
		sb.WriteString(dimStyle.Render("  (empty)") + "\n")
		return sb.String()
	}
	for _, tr := range triples {
		span := timeStyle.Render(timeline.FormatClock(tr.Range.Start) + "–" + timeline.FormatClock(tr.Range.End))
		fmt.Fprintf(&sb, "  %s  %s  %s\n", span, labelStyle.Render(tr.Window), tr.Title)
	}
	return sb.String()
}
