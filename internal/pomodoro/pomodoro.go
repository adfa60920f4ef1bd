// Package pomodoro runs focus sessions: it owns the tick clock, the
// reconciliation engine and the session timeline, and moves the session
// through its phases in response to ticks, focus changes and user commands.
package pomodoro

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/fakeyudi/locus/internal/clock"
	"github.com/fakeyudi/locus/internal/focus"
	"github.com/fakeyudi/locus/internal/logging"
	"github.com/fakeyudi/locus/internal/reconcile"
	"github.com/fakeyudi/locus/internal/session"
	"github.com/fakeyudi/locus/internal/settings"
	"github.com/fakeyudi/locus/internal/timeline"
)

// Phase aliases so callers need not import reconcile.
type Phase = reconcile.Phase

const (
	Idle      = reconcile.Idle
	Running   = reconcile.Running
	Break     = reconcile.Break
	Paused    = reconcile.Paused
	Completed = reconcile.Completed
)

// ErrStopped is returned by commands sent after Run has returned.
var ErrStopped = errors.New("session loop is not running")

// FocusSource delivers the focused window. *focus.Stream satisfies it.
type FocusSource interface {
	Start(ctx context.Context) error
	Stop() error
	Events() <-chan focus.ActiveWindow
	Current() focus.ActiveWindow
}

// Archiver receives finished session records. *session.History satisfies it.
type Archiver interface {
	Add(r *session.Record) error
}

// Snapshot is a read-only view of the session published after every change.
type Snapshot struct {
	Phase             Phase
	PausedFrom        Phase // meaningful while Phase == Paused
	Remaining         int
	CompletedSessions int
	Settings          settings.Settings
	Active            focus.ActiveWindow
	Streaming         bool
	StartedAt         time.Time
	Timeline          *timeline.Timeline
}

// TotalSessions is the configured number of focus sessions.
func (s Snapshot) TotalSessions() int { return s.Settings.Timer.NumberOfSessions }

// Notice reports a recoverable problem, e.g. the focus observer failing to
// start. The session keeps running without attribution.
type Notice struct {
	Message string
	Err     error
}

// Options configures an Orchestrator.
type Options struct {
	Settings settings.Settings
	Focus    FocusSource
	History  Archiver
	// Ticker creates the 1 Hz ticker; defaults to clock.Second.
	Ticker clock.TickerFactory
	// SettingsUpdates optionally delivers new settings while running.
	SettingsUpdates <-chan settings.Settings
	// Now defaults to time.Now.
	Now func() time.Time
}

type command func(o *Orchestrator)

// Orchestrator is the session state machine. All state is owned by the Run
// goroutine; the exported methods send commands to it.
type Orchestrator struct {
	opts    Options
	log     zerolog.Logger
	cmds    chan command
	updates chan Snapshot
	notices chan Notice
	done    chan struct{}

	// Owned by Run.
	settings   settings.Settings // latest saved
	run        settings.Settings // in effect for the current run
	phase      Phase
	pausedFrom Phase
	clock      *clock.Clock
	engine     *reconcile.Engine
	timeline   *timeline.Timeline
	completed  int
	startedAt  time.Time
	active     focus.ActiveWindow
	streaming  bool
	ticker     clock.Ticker
	ctx        context.Context
}

// New returns an idle orchestrator. Call Run to start its loop.
func New(opts Options) *Orchestrator {
	if opts.Ticker == nil {
		opts.Ticker = clock.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Settings == (settings.Settings{}) {
		opts.Settings = settings.Defaults()
	}
	o := &Orchestrator{
		opts:     opts,
		log:      logging.With("pomodoro"),
		cmds:     make(chan command),
		updates:  make(chan Snapshot, 1),
		notices:  make(chan Notice, 8),
		done:     make(chan struct{}),
		settings: opts.Settings,
		run:      opts.Settings,
		active:   focus.None(),
		timeline: timeline.New(),
	}
	o.clock = clock.New(o.run.Timer.SessionLengthSeconds)
	o.engine = reconcile.New(o.clock, o.timeline, o.run.MinimumActivityDuration)
	return o
}

// Updates delivers the latest snapshot after each change. Only the most
// recent snapshot is buffered.
func (o *Orchestrator) Updates() <-chan Snapshot { return o.updates }

// Notices delivers recoverable problems.
func (o *Orchestrator) Notices() <-chan Notice { return o.notices }

// Done is closed when Run returns.
func (o *Orchestrator) Done() <-chan struct{} { return o.done }

// Run drives the session until ctx is done. It must be called exactly once.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer close(o.done)
	o.ctx = ctx
	o.publish()

	for {
		var tick <-chan time.Time
		if o.ticker != nil {
			tick = o.ticker.C()
		}

		select {
		case <-ctx.Done():
			o.stopTicker()
			o.stopFocus()
			return ctx.Err()

		case <-tick:
			o.onTick()

		case w := <-o.opts.Focus.Events():
			o.onFocus(w)

		case s, ok := <-o.opts.SettingsUpdates:
			if !ok {
				o.opts.SettingsUpdates = nil
				continue
			}
			o.applySettings(s)

		case cmd := <-o.cmds:
			cmd(o)
		}
		o.publish()
	}
}

func (o *Orchestrator) send(cmd command) error {
	select {
	case o.cmds <- cmd:
		return nil
	case <-o.done:
		return ErrStopped
	}
}

// Start begins a run from idle. It is a no-op in any other phase.
func (o *Orchestrator) Start() error { return o.send((*Orchestrator).start) }

// Pause suspends a running session or break.
func (o *Orchestrator) Pause() error { return o.send((*Orchestrator).pause) }

// Resume continues the phase that was paused.
func (o *Orchestrator) Resume() error { return o.send((*Orchestrator).resume) }

// Reset archives the session timeline, if any, and returns to idle.
// Resetting an idle session is a no-op.
func (o *Orchestrator) Reset() error { return o.send((*Orchestrator).reset) }

// Toggle starts, pauses or resumes depending on the current phase.
func (o *Orchestrator) Toggle() error {
	return o.send(func(o *Orchestrator) {
		switch o.phase {
		case Idle:
			o.start()
		case Running, Break:
			o.pause()
		case Paused:
			o.resume()
		}
	})
}

// ApplySettings replaces the settings. The threshold takes effect at once;
// timer lengths apply from the next run.
func (o *Orchestrator) ApplySettings(s settings.Settings) error {
	return o.send(func(o *Orchestrator) { o.applySettings(s) })
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := o.send(func(o *Orchestrator) { reply <- o.snapshot() }); err != nil {
		return Snapshot{}, err
	}
	return <-reply, nil
}

func (o *Orchestrator) start() {
	if o.phase != Idle {
		return
	}
	o.run = o.settings
	o.clock.Reset(o.run.Timer.SessionLengthSeconds)
	o.timeline = timeline.New()
	o.engine.SetSink(o.timeline)
	o.engine.SetThreshold(o.run.MinimumActivityDuration)
	o.engine.Reset()
	o.completed = 0
	o.startedAt = o.opts.Now()
	o.phase = Running
	o.log.Info().Int("session_seconds", o.run.Timer.SessionLengthSeconds).
		Int("sessions", o.run.Timer.NumberOfSessions).Msg("run started")

	o.startTicker()
	o.startFocus()
	o.engine.Step(o.phase, o.active)
}

func (o *Orchestrator) pause() {
	if o.phase != Running && o.phase != Break {
		return
	}
	o.pausedFrom = o.phase
	o.phase = Paused
	o.stopTicker()
	o.stopFocus()
	o.engine.Step(o.phase, o.active)
	o.log.Info().Str("from", o.pausedFrom.String()).Msg("paused")
}

func (o *Orchestrator) resume() {
	if o.phase != Paused {
		return
	}
	o.phase = o.pausedFrom
	o.startTicker()
	o.startFocus()
	o.engine.Step(o.phase, o.active)
	o.log.Info().Str("phase", o.phase.String()).Msg("resumed")
}

func (o *Orchestrator) reset() {
	o.stopTicker()
	o.stopFocus()

	if !o.timeline.IsEmpty() {
		rec := session.NewRecord(o.timeline,
			o.run.Timer.PomodoroLengthSeconds(),
			o.run.Timer.TotalBreakSeconds(),
			o.startedAt)
		if o.opts.History != nil {
			if err := o.opts.History.Add(rec); err != nil {
				o.notify("could not save session history", err)
			} else {
				o.log.Info().Str("id", rec.ID).Int("active_seconds", rec.ActiveSeconds()).Msg("session archived")
			}
		}
	}

	o.run = o.settings
	o.phase = Idle
	o.pausedFrom = Idle
	o.completed = 0
	o.startedAt = time.Time{}
	o.clock.Reset(o.run.Timer.SessionLengthSeconds)
	o.timeline = timeline.New()
	o.engine.SetSink(o.timeline)
	o.engine.SetThreshold(o.run.MinimumActivityDuration)
	o.engine.Reset()
}

func (o *Orchestrator) onTick() {
	if o.phase != Running && o.phase != Break {
		return
	}
	o.clock.Tick()
	if n := o.engine.Step(o.phase, o.active); n > 0 {
		o.log.Debug().Int("ranges", n).Str("window", o.active.Window).Msg("committed")
	}
	for o.clock.Remaining <= 0 && (o.phase == Running || o.phase == Break) {
		o.advance()
	}
}

// advance handles a countdown reaching zero.
func (o *Orchestrator) advance() {
	switch o.phase {
	case Running:
		o.completed++
		o.phase = Break
		o.clock.Remaining = o.run.Timer.BreakLengthSeconds
		o.log.Info().Int("completed", o.completed).Msg("break started")
	case Break:
		if o.completed >= o.run.Timer.NumberOfSessions {
			o.phase = Completed
			o.stopTicker()
			o.stopFocus()
			o.log.Info().Int("sessions", o.completed).Msg("run completed")
		} else {
			o.phase = Running
			o.clock.Remaining = o.run.Timer.SessionLengthSeconds
			o.log.Info().Int("session", o.completed+1).Msg("focus session started")
		}
	}
	o.engine.Step(o.phase, o.active)
}

func (o *Orchestrator) onFocus(w focus.ActiveWindow) {
	if !o.streaming {
		return
	}
	o.active = w
	if o.phase == Running || o.phase == Break {
		o.engine.Step(o.phase, w)
	}
}

func (o *Orchestrator) applySettings(s settings.Settings) {
	o.settings = s
	o.engine.SetThreshold(s.MinimumActivityDuration)
	o.run.MinimumActivityDuration = s.MinimumActivityDuration
	o.run.Appearance = s.Appearance
	if o.phase == Idle {
		o.run = s
		o.clock.Reset(s.Timer.SessionLengthSeconds)
		o.engine.Reset()
	}
	o.log.Debug().Int("threshold", s.MinimumActivityDuration).Msg("settings applied")
}

func (o *Orchestrator) startTicker() {
	if o.ticker == nil {
		o.ticker = o.opts.Ticker()
	}
}

func (o *Orchestrator) stopTicker() {
	if o.ticker != nil {
		o.ticker.Stop()
		o.ticker = nil
	}
}

func (o *Orchestrator) startFocus() {
	if o.streaming {
		return
	}
	if err := o.opts.Focus.Start(o.ctx); err != nil {
		o.notify("window tracking unavailable", err)
		o.active = focus.None()
		return
	}
	o.streaming = true
	o.active = o.opts.Focus.Current()
}

func (o *Orchestrator) stopFocus() {
	if !o.streaming {
		return
	}
	o.streaming = false
	if err := o.opts.Focus.Stop(); err != nil {
		o.notify("window tracking did not stop cleanly", err)
	}
	o.active = focus.None()
}

func (o *Orchestrator) notify(msg string, err error) {
	o.log.Warn().Err(err).Msg(msg)
	select {
	case o.notices <- Notice{Message: msg, Err: err}:
	default:
	}
}

func (o *Orchestrator) snapshot() Snapshot {
	return Snapshot{
		Phase:             o.phase,
		PausedFrom:        o.pausedFrom,
		Remaining:         o.clock.Remaining,
		CompletedSessions: o.completed,
		Settings:          o.run,
		Active:            o.active,
		Streaming:         o.streaming,
		StartedAt:         o.startedAt,
		Timeline:          o.timeline.Clone(),
	}
}

// publish replaces any unread snapshot with the current one.
func (o *Orchestrator) publish() {
	s := o.snapshot()
	select {
	case <-o.updates:
	default:
	}
	select {
	case o.updates <- s:
	default:
	}
}
