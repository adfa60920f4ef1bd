package focus

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// DefaultPollInterval is how often CommandObserver probes the focused window.
const DefaultPollInterval = 300 * time.Millisecond

const darwinProbe = `tell application "System Events"
	set frontApp to first application process whose frontmost is true
	set appName to name of frontApp
	try
		set winTitle to name of front window of frontApp
	on error
		set winTitle to appName
	end try
end tell
return appName & "|" & winTitle`

const linuxProbe = `printf '%s|%s' "$(xdotool getactivewindow getwindowclassname)" "$(xdotool getactivewindow getwindowname)"`

// ProbeRunner executes a probe command and returns its standard output.
// This abstraction allows mocking in tests.
type ProbeRunner func(ctx context.Context, argv []string) (string, error)

func defaultProbeRunner(ctx context.Context, argv []string) (string, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.Output()
	return string(out), err
}

// DefaultProbe returns the probe command for the current platform, or nil
// when the platform has none.
func DefaultProbe() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"osascript", "-e", darwinProbe}
	case "linux":
		return []string{"sh", "-c", linuxProbe}
	}
	return nil
}

// ShellProbe wraps a user-supplied shell snippet as a probe command.
func ShellProbe(script string) []string {
	return []string{"sh", "-c", script}
}

// CommandObserver is an Observer that polls an external command printing
// "Window|Title" and emits an Event whenever the output changes. Probe
// failures are reported as the sentinel.
type CommandObserver struct {
	Command  []string      // if empty, DefaultProbe is used
	Interval time.Duration // if zero, DefaultPollInterval is used
	Runner   ProbeRunner   // if nil, runs the real command

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Start implements Observer. It fails with ErrUnavailable when the probe
// command cannot be found.
func (o *CommandObserver) Start(ctx context.Context) (<-chan Event, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		return nil, fmt.Errorf("%w: already started", ErrUnavailable)
	}

	argv := o.Command
	if len(argv) == 0 {
		argv = DefaultProbe()
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: no probe for %s", ErrUnavailable, runtime.GOOS)
	}

	runner := o.Runner
	if runner == nil {
		if _, err := exec.LookPath(argv[0]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		runner = defaultProbeRunner
	}

	interval := o.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.done = make(chan struct{})
	events := make(chan Event, 1)
	go o.poll(ctx, runner, argv, interval, events, o.done)
	return events, nil
}

// Stop implements Observer.
func (o *CommandObserver) Stop() error {
	o.mu.Lock()
	cancel, done := o.cancel, o.done
	o.cancel, o.done = nil, nil
	o.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (o *CommandObserver) poll(ctx context.Context, run ProbeRunner, argv []string, interval time.Duration, events chan<- Event, done chan struct{}) {
	defer close(done)
	defer close(events)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last Event
	first := true
	for {
		ev := probe(ctx, run, argv)
		if first || ev != last {
			first = false
			last = ev
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func probe(ctx context.Context, run ProbeRunner, argv []string) Event {
	out, err := run(ctx, argv)
	if err != nil {
		return Event{Title: NoneName, Window: NoneName}
	}
	return ParseProbeOutput(out)
}

// ParseProbeOutput splits "Window|Title" into an Event. Output without a
// separator is treated as a bare window name.
func ParseProbeOutput(out string) Event {
	out = strings.TrimSpace(out)
	if out == "" {
		return Event{Title: NoneName, Window: NoneName}
	}
	window, title, ok := strings.Cut(out, "|")
	if !ok {
		return Event{Title: out, Window: out}
	}
	return Event{Title: strings.TrimSpace(title), Window: strings.TrimSpace(window)}
}
