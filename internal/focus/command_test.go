package focus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestParseProbeOutput(t *testing.T) {
	cases := []struct {
		in   string
		want Event
	}{
		{"firefox|Docs - Mozilla Firefox\n", Event{Title: "Docs - Mozilla Firefox", Window: "firefox"}},
		{"zed|a|b", Event{Title: "a|b", Window: "zed"}},
		{"vlc", Event{Title: "vlc", Window: "vlc"}},
		{"   ", Event{Title: NoneName, Window: NoneName}},
	}
	for _, c := range cases {
		if got := ParseProbeOutput(c.in); got != c.want {
			t.Errorf("ParseProbeOutput(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestCommandObserverEmitsOnChange(t *testing.T) {
	var mu sync.Mutex
	outputs := []string{"zed|a", "zed|a", "zed|a", "firefox|b"}
	calls := 0
	runner := func(ctx context.Context, argv []string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		out := outputs[len(outputs)-1]
		if calls < len(outputs) {
			out = outputs[calls]
		}
		calls++
		return out, nil
	}

	o := &CommandObserver{Command: []string{"probe"}, Interval: time.Millisecond, Runner: runner}
	events, err := o.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer o.Stop()

	want := []Event{{Title: "a", Window: "zed"}, {Title: "b", Window: "firefox"}}
	for i, w := range want {
		select {
		case got := <-events:
			if got != w {
				t.Fatalf("event %d = %+v, want %+v", i, got, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestCommandObserverProbeFailureYieldsSentinel(t *testing.T) {
	runner := func(ctx context.Context, argv []string) (string, error) {
		return "", errors.New("exit status 1")
	}
	o := &CommandObserver{Command: []string{"probe"}, Interval: time.Millisecond, Runner: runner}
	events, err := o.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer o.Stop()

	select {
	case got := <-events:
		if got.Normalize() != None() {
			t.Errorf("event = %+v, want sentinel", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestCommandObserverMissingBinary(t *testing.T) {
	o := &CommandObserver{Command: []string{"locus-no-such-probe-binary"}}
	if _, err := o.Start(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Start error = %v, want ErrUnavailable", err)
	}
	if err := o.Stop(); err != nil {
		t.Errorf("Stop on unstarted observer: %v", err)
	}
}

func TestCommandObserverStopClosesChannel(t *testing.T) {
	runner := func(ctx context.Context, argv []string) (string, error) { return "zed|x", nil }
	o := &CommandObserver{Command: []string{"probe"}, Interval: time.Millisecond, Runner: runner}
	events, err := o.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := o.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	for range events {
	}
}
