package focus

import (
	"context"
	"errors"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// fakeObserver hands out a channel the test writes to directly.
type fakeObserver struct {
	ch       chan Event
	starts   int
	stops    int
	startErr error
}

func newFakeObserver() *fakeObserver {
	return &fakeObserver{ch: make(chan Event, 64)}
}

func (f *fakeObserver) Start(ctx context.Context) (<-chan Event, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.starts++
	return f.ch, nil
}

func (f *fakeObserver) Stop() error {
	f.stops++
	return nil
}

func receive(t *testing.T, s *Stream) ActiveWindow {
	t.Helper()
	select {
	case w := <-s.Events():
		return w
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for focus event")
	}
	return ActiveWindow{}
}

func TestStreamDropsConsecutiveDuplicates(t *testing.T) {
	obs := newFakeObserver()
	s := NewStream(obs)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	obs.ch <- Event{Title: "docs", Window: "firefox"}
	obs.ch <- Event{Title: "docs", Window: "firefox"}
	obs.ch <- Event{Title: "main.go", Window: "zed"}

	if got := receive(t, s); got != (ActiveWindow{"docs", "firefox"}) {
		t.Errorf("first = %+v", got)
	}
	if got := receive(t, s); got != (ActiveWindow{"main.go", "zed"}) {
		t.Errorf("second = %+v, want zed", got)
	}
	if got := s.Current(); got != (ActiveWindow{"main.go", "zed"}) {
		t.Errorf("Current = %+v", got)
	}
}

func TestStreamStartStopIdempotent(t *testing.T) {
	obs := newFakeObserver()
	s := NewStream(obs)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}
	}
	if obs.starts != 1 {
		t.Errorf("observer started %d times, want 1", obs.starts)
	}
	if !s.Streaming() {
		t.Error("Streaming = false after Start")
	}

	obs.ch <- Event{Title: "x", Window: "vlc"}
	receive(t, s)

	for i := 0; i < 3; i++ {
		if err := s.Stop(); err != nil {
			t.Fatalf("Stop: %v", err)
		}
	}
	if obs.stops != 1 {
		t.Errorf("observer stopped %d times, want 1", obs.stops)
	}
	if s.Current() != None() {
		t.Errorf("Current after Stop = %+v, want sentinel", s.Current())
	}
}

func TestStreamStopDropsUnreadEvents(t *testing.T) {
	obs := newFakeObserver()
	s := NewStream(obs)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	obs.ch <- Event{Title: "docs", Window: "firefox"}
	deadline := time.Now().Add(2 * time.Second)
	for s.Current() == None() {
		if time.Now().After(deadline) {
			t.Fatal("event was never forwarded")
		}
		time.Sleep(time.Millisecond)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	select {
	case w := <-s.Events():
		t.Fatalf("event from before Stop replayed: %+v", w)
	default:
	}
}

func TestStreamStartFailureIsRecoverable(t *testing.T) {
	obs := newFakeObserver()
	obs.startErr = errors.New("no display")
	s := NewStream(obs)

	err := s.Start(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Start error = %v, want ErrUnavailable", err)
	}
	if s.Streaming() {
		t.Fatal("stream reports streaming after failed start")
	}
	if s.Current() != None() {
		t.Errorf("Current = %+v, want sentinel", s.Current())
	}

	obs.startErr = nil
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("retry Start: %v", err)
	}
	s.Stop()
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   Event
		want ActiveWindow
	}{
		{Event{Title: " docs ", Window: "firefox"}, ActiveWindow{"docs", "firefox"}},
		{Event{Title: "", Window: "alacritty"}, ActiveWindow{"alacritty", "alacritty"}},
		{Event{Title: "orphan", Window: ""}, None()},
	}
	for _, c := range cases {
		if got := c.in.Normalize(); got != c.want {
			t.Errorf("Normalize(%+v) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

// Feature: locus, Property 5: the stream never delivers the same window twice in a row
func TestStreamNoConsecutiveRepeats(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pairs := []Event{
			{"a", "firefox"}, {"b", "firefox"}, {"a", "zed"},
		}
		seq := rapid.SliceOfN(rapid.SampledFrom(pairs), 1, 40).Draw(t, "events")

		obs := &fakeObserver{ch: make(chan Event, len(seq))}
		s := NewStream(obs)
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("Start: %v", err)
		}
		for _, ev := range seq {
			obs.ch <- ev
		}

		var want []ActiveWindow
		for i, ev := range seq {
			if i == 0 || ev != seq[i-1] {
				want = append(want, ev.Normalize())
			}
		}
		for i, w := range want {
			select {
			case got := <-s.Events():
				if got != w {
					t.Fatalf("event %d = %+v, want %+v", i, got, w)
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("timed out at event %d", i)
			}
		}
		s.Stop()
	})
}
