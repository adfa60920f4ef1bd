// Package settings persists the user's timer, chart and appearance
// preferences in the key-value store.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fakeyudi/locus/internal/kv"
	"github.com/fakeyudi/locus/internal/logging"
)

// Store keys.
const (
	KeyTimer                   = "timer.settings"
	KeyAccentColor             = "timer.accentColor"
	KeyBackgroundImagePath     = "timer.backgroundImagePath"
	KeyMinimumActivityDuration = "chart.minimumActivityDuration"
)

// Defaults for a fresh install.
const (
	DefaultSessionLengthSeconds    = 25 * 60
	DefaultBreakLengthSeconds      = 5 * 60
	DefaultNumberOfSessions        = 2
	DefaultMinimumActivityDuration = 5
	DefaultAccentColor             = "#f97316"
)

// ErrInvalid is wrapped by every *ValidationError.
var ErrInvalid = errors.New("invalid settings")

// ValidationError lists every rule a settings value breaks.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid settings: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// Timer holds the pomodoro cycle configuration.
type Timer struct {
	SessionLengthSeconds int `json:"sessionLengthInSeconds"`
	NumberOfSessions     int `json:"numberOfSessions"`
	BreakLengthSeconds   int `json:"breakLengthInSeconds"`
}

// PomodoroLengthSeconds is the span of a whole run, breaks included.
func (t Timer) PomodoroLengthSeconds() int {
	return (t.SessionLengthSeconds + t.BreakLengthSeconds) * t.NumberOfSessions
}

// TotalBreakSeconds is the break time across a whole run.
func (t Timer) TotalBreakSeconds() int {
	return t.BreakLengthSeconds * t.NumberOfSessions
}

// Appearance holds optional theming. Empty means "use the default".
type Appearance struct {
	AccentColor         string
	BackgroundImagePath string
}

// Accent returns the configured accent colour or the default.
func (a Appearance) Accent() string {
	if a.AccentColor == "" {
		return DefaultAccentColor
	}
	return a.AccentColor
}

// Settings is everything the user can configure from inside the app.
type Settings struct {
	Timer      Timer
	Appearance Appearance
	// MinimumActivityDuration is the dwell, in seconds, a window needs
	// before its time is attributed.
	MinimumActivityDuration int
}

// Defaults returns the settings used before anything is saved.
func Defaults() Settings {
	return Settings{
		Timer: Timer{
			SessionLengthSeconds: DefaultSessionLengthSeconds,
			NumberOfSessions:     DefaultNumberOfSessions,
			BreakLengthSeconds:   DefaultBreakLengthSeconds,
		},
		MinimumActivityDuration: DefaultMinimumActivityDuration,
	}
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate reports every invalid field as a *ValidationError.
func (s Settings) Validate() error {
	var problems []string
	problems = append(problems, s.Timer.problems()...)
	if s.MinimumActivityDuration < 1 {
		problems = append(problems, fmt.Sprintf("minimum activity duration must be at least 1s, got %d", s.MinimumActivityDuration))
	}
	if c := s.Appearance.AccentColor; c != "" && !hexColor.MatchString(c) {
		problems = append(problems, fmt.Sprintf("accent colour %q is not #rrggbb", c))
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (t Timer) problems() []string {
	var p []string
	if t.SessionLengthSeconds < 1 {
		p = append(p, fmt.Sprintf("session length must be at least 1s, got %d", t.SessionLengthSeconds))
	}
	if t.NumberOfSessions < 1 {
		p = append(p, fmt.Sprintf("number of sessions must be at least 1, got %d", t.NumberOfSessions))
	}
	if t.BreakLengthSeconds < 0 {
		p = append(p, fmt.Sprintf("break length must not be negative, got %d", t.BreakLengthSeconds))
	}
	return p
}

// Load hydrates settings from store. Missing or malformed values fall back
// to their defaults; only store failures are returned.
func Load(store kv.Store) (Settings, error) {
	s := Defaults()

	raw, ok, err := store.Get(KeyTimer)
	if err != nil {
		return s, fmt.Errorf("reading %s: %w", KeyTimer, err)
	}
	if ok {
		if t, err := decodeTimer(raw); err != nil {
			logging.Warn().Err(err).Msg("ignoring saved timer settings")
		} else {
			s.Timer = t
		}
	}

	raw, ok, err = store.Get(KeyMinimumActivityDuration)
	if err != nil {
		return s, fmt.Errorf("reading %s: %w", KeyMinimumActivityDuration, err)
	}
	if ok {
		var n int
		if err := json.Unmarshal(raw, &n); err != nil || n < 1 {
			logging.Warn().Str("value", string(raw)).Msg("ignoring saved minimum activity duration")
		} else {
			s.MinimumActivityDuration = n
		}
	}

	if s.Appearance.AccentColor, err = loadString(store, KeyAccentColor); err != nil {
		return s, err
	}
	if s.Appearance.BackgroundImagePath, err = loadString(store, KeyBackgroundImagePath); err != nil {
		return s, err
	}
	return s, nil
}

// decodeTimer applies per-field defaults and rejects the whole value if any
// present field is out of range.
func decodeTimer(raw []byte) (Timer, error) {
	var aux struct {
		SessionLengthSeconds *int `json:"sessionLengthInSeconds"`
		NumberOfSessions     *int `json:"numberOfSessions"`
		BreakLengthSeconds   *int `json:"breakLengthInSeconds"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return Timer{}, err
	}
	t := Defaults().Timer
	if aux.SessionLengthSeconds != nil {
		t.SessionLengthSeconds = *aux.SessionLengthSeconds
	}
	if aux.NumberOfSessions != nil {
		t.NumberOfSessions = *aux.NumberOfSessions
	}
	if aux.BreakLengthSeconds != nil {
		t.BreakLengthSeconds = *aux.BreakLengthSeconds
	}
	if p := t.problems(); len(p) > 0 {
		return Timer{}, &ValidationError{Problems: p}
	}
	return t, nil
}

func loadString(store kv.Store, key string) (string, error) {
	raw, ok, err := store.Get(key)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	if !ok {
		return "", nil
	}
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		logging.Warn().Str("key", key).Err(err).Msg("ignoring saved value")
		return "", nil
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

// Save validates s and writes every key. Nothing is written when s is
// invalid.
func Save(store kv.Store, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	timer, err := json.Marshal(s.Timer)
	if err != nil {
		return fmt.Errorf("encoding timer settings: %w", err)
	}
	values := []struct {
		key string
		val []byte
	}{
		{KeyTimer, timer},
		{KeyMinimumActivityDuration, []byte(strconv.Itoa(s.MinimumActivityDuration))},
		{KeyAccentColor, nullableString(s.Appearance.AccentColor)},
		{KeyBackgroundImagePath, nullableString(s.Appearance.BackgroundImagePath)},
	}
	for _, v := range values {
		if err := store.Set(v.key, v.val); err != nil {
			return fmt.Errorf("saving %s: %w", v.key, err)
		}
	}
	return nil
}

func nullableString(s string) []byte {
	if s == "" {
		return []byte("null")
	}
	b, _ := json.Marshal(s)
	return b
}

// setters maps user-facing names to field updates.
var setters = map[string]func(s *Settings, value string) error{
	"session-length": func(s *Settings, v string) error {
		n, err := parseSeconds(v, time.Minute)
		s.Timer.SessionLengthSeconds = n
		return err
	},
	"break-length": func(s *Settings, v string) error {
		n, err := parseSeconds(v, time.Minute)
		s.Timer.BreakLengthSeconds = n
		return err
	},
	"sessions": func(s *Settings, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		s.Timer.NumberOfSessions = n
		return err
	},
	"min-activity": func(s *Settings, v string) error {
		n, err := parseSeconds(v, time.Second)
		s.MinimumActivityDuration = n
		return err
	},
	"accent-color": func(s *Settings, v string) error {
		s.Appearance.AccentColor = strings.TrimSpace(v)
		return nil
	},
	"background-image": func(s *Settings, v string) error {
		s.Appearance.BackgroundImagePath = strings.TrimSpace(v)
		return nil
	},
}

// Names lists the settings Set understands.
func Names() []string {
	names := make([]string, 0, len(setters))
	for n := range setters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Set updates one setting by name. Lengths accept Go durations ("90s",
// "25m") or a bare number in the setting's natural unit: minutes for
// session and break lengths, seconds for min-activity. The result is not
// validated; call Validate or Save.
func (s *Settings) Set(name, value string) error {
	set, ok := setters[name]
	if !ok {
		return fmt.Errorf("unknown setting %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	if err := set(s, value); err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	return nil
}

// Get returns one setting by name, formatted the way Set accepts it.
func (s Settings) Get(name string) (string, error) {
	switch name {
	case "session-length":
		return (time.Duration(s.Timer.SessionLengthSeconds) * time.Second).String(), nil
	case "break-length":
		return (time.Duration(s.Timer.BreakLengthSeconds) * time.Second).String(), nil
	case "sessions":
		return strconv.Itoa(s.Timer.NumberOfSessions), nil
	case "min-activity":
		return (time.Duration(s.MinimumActivityDuration) * time.Second).String(), nil
	case "accent-color":
		return s.Appearance.Accent(), nil
	case "background-image":
		return s.Appearance.BackgroundImagePath, nil
	}
	return "", fmt.Errorf("unknown setting %q (known: %s)", name, strings.Join(Names(), ", "))
}

func parseSeconds(v string, unit time.Duration) (int, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return int(time.Duration(n) * unit / time.Second), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%q is neither a number nor a duration", v)
	}
	return int(d / time.Second), nil
}
