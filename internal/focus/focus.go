// Package focus adapts an OS window-focus observer into a deduplicated
// stream of ActiveWindow values.
package focus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fakeyudi/locus/internal/logging"
)

// NoneName is the placeholder title and window used when nothing is known
// about the focused window.
const NoneName = "none"

// ErrUnavailable is returned when the focus observer cannot be started.
var ErrUnavailable = errors.New("focus observer unavailable")

// ActiveWindow identifies the foreground window and its current title.
type ActiveWindow struct {
	Title  string `json:"title"`
	Window string `json:"windowClass"`
}

// None returns the sentinel reported while no observation is available.
func None() ActiveWindow {
	return ActiveWindow{Title: NoneName, Window: NoneName}
}

// IsNone reports whether w is the sentinel.
func (w ActiveWindow) IsNone() bool { return w.Window == NoneName }

// Event is a raw payload as produced by an Observer.
type Event struct {
	Title  string
	Window string
}

// Normalize trims the payload and converts it to an ActiveWindow. A missing
// window yields the sentinel; a missing title falls back to the window name.
func (e Event) Normalize() ActiveWindow {
	window := strings.TrimSpace(e.Window)
	title := strings.TrimSpace(e.Title)
	if window == "" {
		return None()
	}
	if title == "" {
		title = window
	}
	return ActiveWindow{Title: title, Window: window}
}

// Observer is the OS-level source of focus changes. Start returns a channel
// that yields events until Stop is called or ctx is done.
type Observer interface {
	Start(ctx context.Context) (<-chan Event, error)
	Stop() error
}

// Stream wraps an Observer with idempotent start/stop, deduplication of
// consecutive identical events and a last-known value.
type Stream struct {
	obs Observer
	out chan ActiveWindow

	life sync.Mutex // serializes Start and Stop
	live bool
	stop context.CancelFunc
	done chan struct{}

	mu      sync.Mutex
	current ActiveWindow
}

// NewStream returns a stopped stream over obs.
func NewStream(obs Observer) *Stream {
	return &Stream{
		obs:     obs,
		out:     make(chan ActiveWindow, 16),
		current: None(),
	}
}

// Events returns the channel ActiveWindow changes are delivered on. The
// channel survives Stop/Start cycles and is never closed.
func (s *Stream) Events() <-chan ActiveWindow { return s.out }

// Current returns the last delivered ActiveWindow, or the sentinel while the
// stream is not running.
func (s *Stream) Current() ActiveWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Streaming reports whether a subscription is live.
func (s *Stream) Streaming() bool {
	s.life.Lock()
	defer s.life.Unlock()
	return s.live
}

// Start subscribes to the observer. Calling Start on a running stream is a
// no-op. A failure leaves the stream stopped and may be retried.
func (s *Stream) Start(ctx context.Context) error {
	s.life.Lock()
	defer s.life.Unlock()
	if s.live {
		return nil
	}

	sub, cancel := context.WithCancel(ctx)
	events, err := s.obs.Start(sub)
	if err != nil {
		cancel()
		if errors.Is(err, ErrUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.live = true
	s.stop = cancel
	s.done = make(chan struct{})
	go s.forward(sub, events, s.done)
	logging.Debug().Msg("focus stream started")
	return nil
}

// Stop ends the subscription and resets Current to the sentinel. Calling
// Stop on a stopped stream is a no-op.
func (s *Stream) Stop() error {
	s.life.Lock()
	defer s.life.Unlock()
	if !s.live {
		return nil
	}

	s.stop()
	err := s.obs.Stop()
	<-s.done
	s.drain()
	s.live = false
	s.stop = nil
	s.done = nil
	s.setCurrent(None())
	logging.Debug().Msg("focus stream stopped")
	if err != nil {
		return fmt.Errorf("stopping focus observer: %w", err)
	}
	return nil
}

func (s *Stream) forward(ctx context.Context, events <-chan Event, done chan struct{}) {
	defer close(done)
	last := None()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				logging.Warn().Msg("focus observer closed its channel")
				return
			}
			w := ev.Normalize()
			if w == last {
				continue
			}
			last = w
			s.setCurrent(w)
			select {
			case s.out <- w:
			case <-ctx.Done():
				return
			}
		}
	}
}

// drain drops events delivered before Stop that nobody read, so a later
// Start never replays them.
func (s *Stream) drain() {
	for {
		select {
		case <-s.out:
		default:
			return
		}
	}
}

func (s *Stream) setCurrent(w ActiveWindow) {
	s.mu.Lock()
	s.current = w
	s.mu.Unlock()
}
