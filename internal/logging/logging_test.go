package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"bogus":   zerolog.WarnLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelFiltersAndComponentTag(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("info")
	defer SetLevel("warn")

	Debug().Msg("hidden")
	l := With("pomodoro")
	l.Info().Msg("shown")

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %s", out)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, out)
	}
	if rec["component"] != "pomodoro" || rec["message"] != "shown" {
		t.Errorf("record = %v", rec)
	}
}

func TestToFileCreatesDirectories(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	path := DefaultFile()
	c, err := ToFile(path)
	if err != nil {
		t.Fatalf("ToFile: %v", err)
	}
	Error().Msg("to file")
	c.Close()
	SetOutput(&bytes.Buffer{})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file = %q", data)
	}
	if filepath.Base(filepath.Dir(path)) != "locus" {
		t.Errorf("DefaultFile = %s", path)
	}
}
