// Package clock provides the logical one-second clock that drives a focus
// session: the countdown plus the tick counters the reconciliation engine
// measures dwell time with.
package clock

import (
	"context"
	"time"
)

// Counter counts ticks since the last time its owner flushed it.
type Counter struct {
	Current     int
	LastFlushed int
}

// Elapsed returns the ticks counted since the last flush.
func (c Counter) Elapsed() int {
	d := c.Current - c.LastFlushed
	if d < 0 {
		return -d
	}
	return d
}

// Flush marks every tick so far as consumed.
func (c *Counter) Flush() { c.LastFlushed = c.Current }

// Clock is the session's tick state. It is a plain value owned by one
// goroutine; it never reads the wall clock.
type Clock struct {
	// Remaining is the countdown for the current phase, in seconds.
	Remaining int
	// Dwell measures how long the current window has held focus.
	Dwell Counter
	// Title positions title ranges on the session time axis.
	Title Counter

	seq uint64
}

// New returns a clock with the given countdown.
func New(remaining int) *Clock {
	return &Clock{Remaining: remaining}
}

// Tick advances the clock by one second.
func (c *Clock) Tick() {
	c.Remaining--
	c.Dwell.Current++
	c.Title.Current++
	c.seq++
}

// Seq returns the number of ticks since the clock was created or reset. It
// only ever grows, so consumers can tell whether a tick was already handled.
func (c *Clock) Seq() uint64 { return c.seq }

// Reset zeroes every counter and sets a new countdown.
func (c *Clock) Reset(remaining int) {
	*c = Clock{Remaining: remaining}
}

// Ticker abstracts time.Ticker so session loops can be driven by hand in
// tests.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewTicker returns a Ticker firing every d.
func NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// TickerFactory creates tickers; the orchestrator asks for a fresh one each
// time timing (re)starts.
type TickerFactory func() Ticker

// Second is the production TickerFactory.
func Second() Ticker { return NewTicker(time.Second) }

// ManualTicker is a Ticker whose ticks are fired explicitly.
type ManualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
}

// NewManualTicker returns an unbuffered manual ticker.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

// C implements Ticker.
func (m *ManualTicker) C() <-chan time.Time { return m.ch }

// Stop implements Ticker. It is safe to call more than once.
func (m *ManualTicker) Stop() {
	select {
	case <-m.stopped:
	default:
		close(m.stopped)
	}
}

// Fire delivers one tick, blocking until it is received, the ticker is
// stopped, or ctx is done. It reports whether the tick was delivered.
func (m *ManualTicker) Fire(ctx context.Context) bool {
	select {
	case m.ch <- time.Now():
		return true
	case <-m.stopped:
		return false
	case <-ctx.Done():
		return false
	}
}
