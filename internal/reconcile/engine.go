// Package reconcile decides which focus intervals are attributed to which
// window and title. It sits between the tick clock, the focus stream and
// the session timeline.
package reconcile

import (
	"github.com/fakeyudi/locus/internal/clock"
	"github.com/fakeyudi/locus/internal/focus"
	"github.com/fakeyudi/locus/internal/timeline"
)

// Phase is the session phase as seen by the engine.
type Phase int

const (
	Idle Phase = iota
	Running
	Break
	Paused
	Completed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Break:
		return "break"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	}
	return "unknown"
}

// Sink receives committed ranges. *timeline.Timeline satisfies it.
type Sink interface {
	Insert(window string, tr timeline.TitleRange)
}

// Engine holds the reconciliation buffers for one session. It is not safe
// for concurrent use; the session loop owns it.
type Engine struct {
	clock     *clock.Clock
	sink      Sink
	threshold int

	pending       []timeline.TitleRange
	previousPhase Phase
	tracked       focus.ActiveWindow
	lastSeq       uint64
}

// New returns an engine reading tick counters from c and committing to sink.
// threshold is the minimum dwell, in ticks, before pending ranges commit.
func New(c *clock.Clock, sink Sink, threshold int) *Engine {
	e := &Engine{clock: c, sink: sink}
	e.SetThreshold(threshold)
	e.Reset()
	return e
}

// SetThreshold changes the minimum dwell. Values below one are raised to one.
func (e *Engine) SetThreshold(n int) {
	if n < 1 {
		n = 1
	}
	e.threshold = n
}

// Threshold returns the minimum dwell in ticks.
func (e *Engine) Threshold() int { return e.threshold }

// SetSink replaces the commit target, e.g. after the session timeline was
// snapshotted and replaced.
func (e *Engine) SetSink(s Sink) { e.sink = s }

// Reset discards all buffered state. The clock must be reset separately.
func (e *Engine) Reset() {
	e.pending = nil
	e.previousPhase = Idle
	e.tracked = focus.None()
	e.lastSeq = e.clock.Seq()
}

// Pending returns a copy of the ranges not yet committed.
func (e *Engine) Pending() []timeline.TitleRange {
	return append([]timeline.TitleRange(nil), e.pending...)
}

// Tracked returns the window seen by the previous Step.
func (e *Engine) Tracked() focus.ActiveWindow { return e.tracked }

// Step reconciles the current phase and focused window against the clock.
// It is called after every tick, every focus change and every phase change,
// and returns the number of ranges committed to the sink.
//
// At most one title step happens per clock tick no matter how often Step is
// called.
func (e *Engine) Step(phase Phase, w focus.ActiveWindow) int {
	sameWindow := w.Window == e.tracked.Window
	seq := e.clock.Seq()
	newTick := seq != e.lastSeq
	e.lastSeq = seq

	if !sameWindow || phase == Break {
		e.pending = nil
		e.clock.Dwell.Flush()
	}
	// Nothing accumulated during a break may survive into the next run.
	if e.previousPhase == Break {
		e.pending = nil
	}

	committed := 0
	if newTick {
		if e.previousPhase != Break {
			e.push(w.Title)
		}

		dwellReached := e.clock.Dwell.Elapsed() >= e.threshold
		if phase == Running && dwellReached && sameWindow && !w.IsNone() {
			committed = e.commit(w.Window)
		}
	}

	// Phase changes land between ticks, so they are tracked on every Step.
	switch {
	case phase == Running:
		e.previousPhase = Running
	case e.previousPhase == Running && phase == Break:
		e.previousPhase = Break
	}

	e.tracked = w
	return committed
}

// push records the tick that just elapsed as belonging to title.
func (e *Engine) push(title string) {
	end := e.clock.Title.Current
	start := end - 1
	if n := len(e.pending); n > 0 {
		last := &e.pending[n-1]
		if last.Title == title && last.Range.End == start {
			last.Range.End = end
			return
		}
	}
	e.pending = append(e.pending, timeline.TitleRange{
		Title: title,
		Range: timeline.Range{Start: start, End: end},
	})
}

func (e *Engine) commit(window string) int {
	n := len(e.pending)
	for _, tr := range e.pending {
		e.sink.Insert(window, tr)
	}
	e.pending = nil
	return n
}
