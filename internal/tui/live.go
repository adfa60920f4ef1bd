package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/locus/internal/focus"
	"github.com/fakeyudi/locus/internal/pomodoro"
	"github.com/fakeyudi/locus/internal/timeline"
)

// noticeTTL is how long a notice stays on screen.
const noticeTTL = 6 * time.Second

// Controller is the part of the orchestrator the live screen drives.
// *pomodoro.Orchestrator satisfies it.
type Controller interface {
	Toggle() error
	Reset() error
	Updates() <-chan pomodoro.Snapshot
	Notices() <-chan pomodoro.Notice
	Done() <-chan struct{}
}

type snapshotMsg pomodoro.Snapshot

type noticeMsg pomodoro.Notice

type clearNoticeMsg struct{ seq int }

type loopDoneMsg struct{}

func waitSnapshot(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-ctrl.Updates():
			return snapshotMsg(s)
		case <-ctrl.Done():
			return loopDoneMsg{}
		}
	}
}

func waitNotice(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-ctrl.Notices():
			return noticeMsg(n)
		case <-ctrl.Done():
			return nil
		}
	}
}

// Live is the Bubble Tea model for a running focus session.
type Live struct {
	ctrl      Controller
	snap      pomodoro.Snapshot
	hasSnap   bool
	accent    string
	bar       progress.Model
	notice    string
	noticeSeq int
	width     int
	height    int
	quitting  bool
}

// NewLive returns the live model. accent is used until the first snapshot
// carries the session's own appearance settings.
func NewLive(ctrl Controller, accent string) Live {
	return Live{
		ctrl:   ctrl,
		accent: accent,
		bar:    newBar(accent),
	}
}

func newBar(accent string) progress.Model {
	return progress.New(progress.WithSolidFill(accent), progress.WithoutPercentage())
}

func (m Live) Init() tea.Cmd {
	return tea.Batch(waitSnapshot(m.ctrl), waitNotice(m.ctrl))
}

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// Archive whatever was tracked before leaving.
			if err := m.ctrl.Reset(); err != nil && !errors.Is(err, pomodoro.ErrStopped) {
				m.notice = err.Error()
			}
			m.quitting = true
			return m, tea.Quit
		case " ", "enter":
			return m.command(m.ctrl.Toggle)
		case "r":
			return m.command(m.ctrl.Reset)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = barWidth(msg.Width)
		return m, nil

	case snapshotMsg:
		s := pomodoro.Snapshot(msg)
		m.snap = s
		m.hasSnap = true
		if a := s.Settings.Appearance.Accent(); a != m.accent {
			m.accent = a
			m.bar = newBar(a)
			m.bar.Width = barWidth(m.width)
		}
		return m, waitSnapshot(m.ctrl)

	case noticeMsg:
		m = m.showNotice(msg.Message, msg.Err)
		return m, tea.Batch(waitNotice(m.ctrl), expireNotice(m.noticeSeq))

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case loopDoneMsg:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Live) command(fn func() error) (tea.Model, tea.Cmd) {
	if err := fn(); err != nil {
		m = m.showNotice("command failed", err)
		return m, expireNotice(m.noticeSeq)
	}
	return m, nil
}

func (m Live) showNotice(message string, err error) Live {
	m.noticeSeq++
	m.notice = message
	if err != nil {
		m.notice += ": " + err.Error()
	}
	return m
}

func expireNotice(seq int) tea.Cmd {
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return clearNoticeMsg{seq: seq} })
}

func barWidth(width int) int {
	w := width - 8
	if w > 60 {
		w = 60
	}
	if w < 10 {
		w = 10
	}
	return w
}

func (m Live) View() string {
	if m.quitting {
		return ""
	}
	if !m.hasSnap || m.width == 0 {
		return "Loading…"
	}
	s := m.snap
	if s.Timeline == nil {
		s.Timeline = timeline.New()
	}

	title := titleStyle.Width(m.width).Render("  locus  " + phaseLabel(s))

	var sb strings.Builder
	sb.WriteString("\n")
	clockStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.accent))
	fmt.Fprintf(&sb, "  %s   %s\n\n",
		clockStyle.Render(timeline.FormatClock(s.Remaining)),
		dimStyle.Render(fmt.Sprintf("session %d/%d", sessionNumber(s), s.TotalSessions())))
	sb.WriteString("  " + m.bar.ViewAs(phaseProgress(s)) + "\n")

	sb.WriteString(heading("Now"))
	sb.WriteString(activeLine(s) + "\n")

	sb.WriteString(heading(fmt.Sprintf("Activity (%s)", timeline.FormatSpan(s.Timeline.Summarize().TotalSeconds))))
	limit := m.height - 16
	if limit < 3 {
		limit = 3
	}
	sb.WriteString(windowBars(s.Timeline, m.accent, m.width, limit))

	if m.notice != "" {
		sb.WriteString("\n  " + noticeStyle.Render(m.notice) + "\n")
	}

	body := lipgloss.NewStyle().Height(max(m.height-2, 1)).Render(sb.String())
	hint := "  space " + toggleVerb(s.Phase) + "  r reset  q quit"
	return lipgloss.JoinVertical(lipgloss.Left, title, body, statusBar(m.width, hint, startedLabel(s)))
}

func phaseLabel(s pomodoro.Snapshot) string {
	switch s.Phase {
	case pomodoro.Idle:
		return "ready"
	case pomodoro.Running:
		return "focus"
	case pomodoro.Break:
		return "break"
	case pomodoro.Paused:
		return "paused (" + phaseLabel(pomodoro.Snapshot{Phase: s.PausedFrom}) + ")"
	case pomodoro.Completed:
		return "done"
	}
	return s.Phase.String()
}

func toggleVerb(p pomodoro.Phase) string {
	switch p {
	case pomodoro.Idle:
		return "start"
	case pomodoro.Paused:
		return "resume"
	case pomodoro.Running, pomodoro.Break:
		return "pause"
	}
	return "-"
}

// sessionNumber is the 1-based focus session being worked, capped at the
// total once every session is done.
func sessionNumber(s pomodoro.Snapshot) int {
	n := s.CompletedSessions
	phase := s.Phase
	if phase == pomodoro.Paused {
		phase = s.PausedFrom
	}
	if phase == pomodoro.Running || phase == pomodoro.Idle {
		n++
	}
	if total := s.TotalSessions(); n > total {
		n = total
	}
	return n
}

// phaseProgress is the elapsed fraction of the current countdown.
func phaseProgress(s pomodoro.Snapshot) float64 {
	phase := s.Phase
	if phase == pomodoro.Paused {
		phase = s.PausedFrom
	}
	var length int
	switch phase {
	case pomodoro.Running:
		length = s.Settings.Timer.SessionLengthSeconds
	case pomodoro.Break:
		length = s.Settings.Timer.BreakLengthSeconds
	case pomodoro.Completed:
		return 1
	default:
		return 0
	}
	if length <= 0 {
		return 1
	}
	p := 1 - float64(s.Remaining)/float64(length)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

func activeLine(s pomodoro.Snapshot) string {
	if !s.Streaming {
		return dimStyle.Render("  window tracking is off")
	}
	if s.Active.IsNone() {
		return dimStyle.Render("  no focused window")
	}
	icon := focus.IconFor(s.Active.Window)
	line := fmt.Sprintf("  %s %s", icon.Glyph, labelStyle.Render(s.Active.Window))
	if s.Active.Title != "" && s.Active.Title != s.Active.Window {
		line += dimStyle.Render("  " + truncate(s.Active.Title, 60))
	}
	return line
}

func startedLabel(s pomodoro.Snapshot) string {
	if s.StartedAt.IsZero() {
		return ""
	}
	return "started " + s.StartedAt.Local().Format("15:04")
}
