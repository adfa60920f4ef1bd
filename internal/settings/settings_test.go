package settings

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/locus/internal/kv"
)

func TestLoadEmptyStoreReturnsDefaults(t *testing.T) {
	s, err := Load(kv.NewMemory())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s != Defaults() {
		t.Errorf("Load = %+v, want defaults", s)
	}
	if s.Appearance.Accent() != DefaultAccentColor {
		t.Errorf("Accent = %q", s.Appearance.Accent())
	}
}

func TestTimerSpans(t *testing.T) {
	tm := Timer{SessionLengthSeconds: 1500, BreakLengthSeconds: 300, NumberOfSessions: 2}
	if tm.PomodoroLengthSeconds() != 3600 {
		t.Errorf("PomodoroLengthSeconds = %d, want 3600", tm.PomodoroLengthSeconds())
	}
	if tm.TotalBreakSeconds() != 600 {
		t.Errorf("TotalBreakSeconds = %d, want 600", tm.TotalBreakSeconds())
	}
}

func TestSaveRejectsInvalidAndWritesNothing(t *testing.T) {
	cases := []Settings{
		{Timer: Timer{SessionLengthSeconds: 0, NumberOfSessions: 1}, MinimumActivityDuration: 1},
		{Timer: Timer{SessionLengthSeconds: 60, NumberOfSessions: 0}, MinimumActivityDuration: 1},
		{Timer: Timer{SessionLengthSeconds: 60, NumberOfSessions: 1, BreakLengthSeconds: -1}, MinimumActivityDuration: 1},
		{Timer: Timer{SessionLengthSeconds: 60, NumberOfSessions: 1}, MinimumActivityDuration: 0},
		{Timer: Timer{SessionLengthSeconds: 60, NumberOfSessions: 1}, MinimumActivityDuration: 1, Appearance: Appearance{AccentColor: "red"}},
	}
	for i, s := range cases {
		store := kv.NewMemory()
		err := Save(store, s)
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("case %d: Save = %v, want ErrInvalid", i, err)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) || len(ve.Problems) == 0 {
			t.Errorf("case %d: want *ValidationError with problems, got %T", i, err)
		}
		if keys := store.Keys(); len(keys) != 0 {
			t.Errorf("case %d: invalid settings wrote %v", i, keys)
		}
	}
}

func TestLoadFallsBackPerKey(t *testing.T) {
	store := kv.NewMemory()
	store.Set(KeyTimer, []byte(`{"sessionLengthInSeconds":0,"numberOfSessions":3}`))
	store.Set(KeyMinimumActivityDuration, []byte(`"soon"`))
	store.Set(KeyAccentColor, []byte(`"#112233"`))
	store.Set(KeyBackgroundImagePath, []byte(`null`))

	s, err := Load(store)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Timer != Defaults().Timer {
		t.Errorf("invalid timer not replaced by defaults: %+v", s.Timer)
	}
	if s.MinimumActivityDuration != DefaultMinimumActivityDuration {
		t.Errorf("MinimumActivityDuration = %d", s.MinimumActivityDuration)
	}
	if s.Appearance.AccentColor != "#112233" || s.Appearance.BackgroundImagePath != "" {
		t.Errorf("Appearance = %+v", s.Appearance)
	}
}

func TestLoadFillsMissingTimerFields(t *testing.T) {
	store := kv.NewMemory()
	store.Set(KeyTimer, []byte(`{"numberOfSessions":4}`))
	s, _ := Load(store)
	want := Timer{SessionLengthSeconds: DefaultSessionLengthSeconds, NumberOfSessions: 4, BreakLengthSeconds: DefaultBreakLengthSeconds}
	if s.Timer != want {
		t.Errorf("Timer = %+v, want %+v", s.Timer, want)
	}
}

func TestSetParsesUnits(t *testing.T) {
	s := Defaults()
	for _, pair := range [][2]string{
		{"session-length", "50"},
		{"break-length", "90s"},
		{"sessions", "4"},
		{"min-activity", "2m"},
		{"accent-color", "#abcdef"},
	} {
		if err := s.Set(pair[0], pair[1]); err != nil {
			t.Fatalf("Set(%s, %s): %v", pair[0], pair[1], err)
		}
	}
	want := Settings{
		Timer:                   Timer{SessionLengthSeconds: 3000, BreakLengthSeconds: 90, NumberOfSessions: 4},
		MinimumActivityDuration: 120,
		Appearance:              Appearance{AccentColor: "#abcdef"},
	}
	if s != want {
		t.Errorf("settings = %+v, want %+v", s, want)
	}
	if err := s.Set("volume", "11"); err == nil {
		t.Error("Set accepted an unknown name")
	}
	if err := s.Set("sessions", "many"); err == nil {
		t.Error("Set accepted a non-numeric session count")
	}
}

// Feature: locus, Property 10: saved settings hydrate to the same value
func TestSaveLoadRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := Settings{
			Timer: Timer{
				SessionLengthSeconds: rapid.IntRange(1, 10_000).Draw(t, "session"),
				NumberOfSessions:     rapid.IntRange(1, 20).Draw(t, "sessions"),
				BreakLengthSeconds:   rapid.IntRange(0, 3_600).Draw(t, "break"),
			},
			MinimumActivityDuration: rapid.IntRange(1, 600).Draw(t, "threshold"),
			Appearance: Appearance{
				AccentColor:         rapid.StringMatching(`(#[0-9a-f]{6})?`).Draw(t, "accent"),
				BackgroundImagePath: rapid.StringMatching(`(/[a-z]{1,8}){0,3}`).Draw(t, "bg"),
			},
		}
		store := kv.NewMemory()
		if err := Save(store, s); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := Load(store)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got != s {
			t.Fatalf("Load = %+v, want %+v", got, s)
		}
	})
}

func TestRunSetupUsesAnswersAndDefaults(t *testing.T) {
	in := strings.NewReader("50m\n\nlots\n3\n\n#000000\n")
	var out bytes.Buffer

	s, err := RunSetup(in, &out, Defaults())
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	if s.Timer.SessionLengthSeconds != 3000 {
		t.Errorf("SessionLengthSeconds = %d", s.Timer.SessionLengthSeconds)
	}
	if s.Timer.BreakLengthSeconds != DefaultBreakLengthSeconds {
		t.Errorf("BreakLengthSeconds = %d", s.Timer.BreakLengthSeconds)
	}
	if s.Timer.NumberOfSessions != 3 {
		t.Errorf("NumberOfSessions = %d", s.Timer.NumberOfSessions)
	}
	if s.MinimumActivityDuration != DefaultMinimumActivityDuration {
		t.Errorf("MinimumActivityDuration = %d", s.MinimumActivityDuration)
	}
	if s.Appearance.AccentColor != "#000000" {
		t.Errorf("AccentColor = %q", s.Appearance.AccentColor)
	}
	if !strings.Contains(out.String(), "setting sessions") {
		t.Errorf("expected a retry message for the bad answer, got:\n%s", out.String())
	}
}

func TestRunSetupEOFKeepsDefaults(t *testing.T) {
	s, err := RunSetup(strings.NewReader(""), &bytes.Buffer{}, Defaults())
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	if s.Timer != Defaults().Timer || s.MinimumActivityDuration != DefaultMinimumActivityDuration {
		t.Errorf("RunSetup on EOF = %+v", s)
	}
}

func TestWatchSeesExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	store, err := kv.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := Watch(ctx, store)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	other, err := kv.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	next := Defaults()
	next.MinimumActivityDuration = 42
	if err := Save(other, next); err != nil {
		t.Fatalf("Save: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-updates:
			if s.MinimumActivityDuration == 42 {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for settings reload")
		}
	}
}

func TestWatchRequiresFileBackedStore(t *testing.T) {
	if _, err := Watch(context.Background(), kv.NewMemory()); err == nil {
		t.Fatal("Watch accepted an in-memory store")
	}
}
