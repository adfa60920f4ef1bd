// Package session defines finished focus-session records and the history
// they are archived in.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/locus/internal/timeline"
)

// DefaultBreakLengthSeconds is assumed for records written without a break
// length.
const DefaultBreakLengthSeconds = 5 * 60

// Record is a snapshot of one finished session.
type Record struct {
	ID                    string             `json:"id" yaml:"id"`
	Timeline              *timeline.Timeline `json:"chartData" yaml:"chartData"`
	PomodoroLengthSeconds int                `json:"pomodoroLengthInSeconds" yaml:"pomodoroLengthInSeconds"`
	BreakLengthSeconds    int                `json:"breakLengthInSeconds" yaml:"breakLengthInSeconds"`
	StartedAt             time.Time          `json:"sessionStartedOn" yaml:"sessionStartedOn"`
}

// NewRecord freezes a copy of tl into a record with a fresh id.
func NewRecord(tl *timeline.Timeline, pomodoroSeconds, breakSeconds int, startedAt time.Time) *Record {
	return &Record{
		ID:                    uuid.NewString(),
		Timeline:              tl.Clone(),
		PomodoroLengthSeconds: pomodoroSeconds,
		BreakLengthSeconds:    breakSeconds,
		StartedAt:             startedAt.UTC().Truncate(time.Second),
	}
}

// ActiveSeconds is the total time attributed to any window.
func (r *Record) ActiveSeconds() int {
	if r.Timeline == nil {
		return 0
	}
	return r.Timeline.Summarize().TotalSeconds
}

// Productivity is the attributed share of the session's work time, in percent.
func (r *Record) Productivity() float64 {
	return timeline.Productivity(r.ActiveSeconds(), r.PomodoroLengthSeconds, r.BreakLengthSeconds)
}

// ShortID returns the first eight characters of the id.
func (r *Record) ShortID() string {
	if len(r.ID) > 8 {
		return r.ID[:8]
	}
	return r.ID
}

// Validate checks the fields a usable record must carry.
func (r *Record) Validate() error {
	var errs []error
	if r.ID == "" {
		errs = append(errs, errors.New("missing id"))
	}
	if r.Timeline == nil {
		errs = append(errs, errors.New("missing chartData"))
	}
	if r.PomodoroLengthSeconds < 0 {
		errs = append(errs, fmt.Errorf("negative pomodoro length %d", r.PomodoroLengthSeconds))
	}
	if r.BreakLengthSeconds < 0 {
		errs = append(errs, fmt.Errorf("negative break length %d", r.BreakLengthSeconds))
	}
	if r.StartedAt.IsZero() {
		errs = append(errs, errors.New("missing sessionStartedOn"))
	}
	return errors.Join(errs...)
}

// UnmarshalJSON applies the default break length when the field is absent.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	aux := struct {
		*plain
		BreakLengthSeconds *int `json:"breakLengthInSeconds"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.BreakLengthSeconds = DefaultBreakLengthSeconds
	if aux.BreakLengthSeconds != nil {
		r.BreakLengthSeconds = *aux.BreakLengthSeconds
	}
	return nil
}
