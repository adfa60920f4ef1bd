// Package timeline holds the per-window attribution data produced during a
// focus session: for every window, an ordered list of title ranges.
package timeline

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Range is a span of session time in whole seconds since session start.
// Start <= End always holds; End may be extended in place while merging.
type Range struct {
	Start int
	End   int
}

// Len returns the number of seconds covered by the range.
func (r Range) Len() int {
	if r.End < r.Start {
		return r.Start - r.End
	}
	return r.End - r.Start
}

// MarshalJSON encodes the range as a two-element array, [start, end].
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Start, r.End})
}

// UnmarshalJSON decodes a [start, end] pair.
func (r *Range) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("range must be a [start, end] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("range must have exactly 2 elements, got %d", len(pair))
	}
	if pair[0] > pair[1] {
		return fmt.Errorf("range start %d is after end %d", pair[0], pair[1])
	}
	r.Start, r.End = pair[0], pair[1]
	return nil
}

// TitleRange is one contiguous span during which a window title was frontmost.
type TitleRange struct {
	Title string `json:"title" yaml:"title"`
	Range Range  `json:"range" yaml:"range,flow"`
}

// MarshalYAML keeps the YAML form aligned with the JSON [start, end] pair.
func (r Range) MarshalYAML() (interface{}, error) {
	return []int{r.Start, r.End}, nil
}

// UnmarshalYAML decodes a [start, end] sequence.
func (r *Range) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var pair []int
	if err := unmarshal(&pair); err != nil {
		return fmt.Errorf("range must be a [start, end] pair: %w", err)
	}
	if len(pair) != 2 || pair[0] > pair[1] {
		return fmt.Errorf("invalid range %v", pair)
	}
	r.Start, r.End = pair[0], pair[1]
	return nil
}

// Timeline maps a window identifier to its ordered, coalesced title ranges.
// Windows are remembered in first-insertion order so charts render stably.
//
// A Timeline is not safe for concurrent use; the session orchestrator owns it.
type Timeline struct {
	order   []string
	entries map[string][]TitleRange
}

// New returns an empty Timeline.
func New() *Timeline {
	return &Timeline{entries: make(map[string][]TitleRange)}
}

// Insert appends tr to window's sequence. When the window's last entry has
// the same title and ends exactly where tr starts, that entry's end is moved
// forward instead of appending, keeping the sequence maximally coalesced.
//
// Ranges must arrive in non-decreasing start order per window. This is not
// checked.
func (t *Timeline) Insert(window string, tr TitleRange) {
	if t.entries == nil {
		t.entries = make(map[string][]TitleRange)
	}
	existing, ok := t.entries[window]
	if !ok {
		t.order = append(t.order, window)
	}
	if n := len(existing); n > 0 {
		last := &existing[n-1]
		if last.Title == tr.Title && last.Range.End == tr.Range.Start {
			last.Range.End = tr.Range.End
			return
		}
	}
	t.entries[window] = append(existing, tr)
}

// Windows returns the window identifiers in first-insertion order.
func (t *Timeline) Windows() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Entries returns a copy of the title ranges recorded for window.
func (t *Timeline) Entries(window string) []TitleRange {
	src := t.entries[window]
	out := make([]TitleRange, len(src))
	copy(out, src)
	return out
}

// Len returns the number of windows with at least one entry.
func (t *Timeline) Len() int { return len(t.order) }

// IsEmpty reports whether nothing has been attributed yet.
func (t *Timeline) IsEmpty() bool { return len(t.order) == 0 }

// Clone returns a deep copy, used to freeze a timeline into a session record.
func (t *Timeline) Clone() *Timeline {
	c := New()
	for _, w := range t.order {
		c.order = append(c.order, w)
		c.entries[w] = t.Entries(w)
	}
	return c
}

// Triple is a flattened (window, title, range) attribution.
type Triple struct {
	Window string
	Title  string
	Range  Range
}

// Triples flattens the timeline in window order, then entry order.
func (t *Timeline) Triples() []Triple {
	var out []Triple
	for _, w := range t.order {
		for _, e := range t.entries[w] {
			out = append(out, Triple{Window: w, Title: e.Title, Range: e.Range})
		}
	}
	return out
}

// MarshalJSON encodes the timeline as {window: [{title, range}]} with keys in
// insertion order.
func (t *Timeline) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, w := range t.order {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(w)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(t.entries[w])
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// UnmarshalJSON decodes {window: [{title, range}]}, preserving the key order
// found in the document.
func (t *Timeline) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding timeline: %w", err)
	}
	if tok == nil {
		*t = *New()
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decoding timeline: expected object, got %v", tok)
	}
	fresh := New()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding timeline key: %w", err)
		}
		window, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decoding timeline: non-string key %v", keyTok)
		}
		var ranges []TitleRange
		if err := dec.Decode(&ranges); err != nil {
			return fmt.Errorf("decoding ranges for %q: %w", window, err)
		}
		if _, seen := fresh.entries[window]; !seen {
			fresh.order = append(fresh.order, window)
		}
		fresh.entries[window] = append(fresh.entries[window], ranges...)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decoding timeline: %w", err)
	}
	*t = *fresh
	return nil
}

type yamlWindow struct {
	Window string       `yaml:"window"`
	Ranges []TitleRange `yaml:"ranges"`
}

// MarshalYAML renders the timeline as an ordered list of windows.
func (t *Timeline) MarshalYAML() (interface{}, error) {
	out := make([]yamlWindow, 0, len(t.order))
	for _, w := range t.order {
		out = append(out, yamlWindow{Window: w, Ranges: t.entries[w]})
	}
	return out, nil
}

// UnmarshalYAML reads the ordered window list written by MarshalYAML.
func (t *Timeline) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var windows []yamlWindow
	if err := unmarshal(&windows); err != nil {
		return err
	}
	fresh := New()
	for _, w := range windows {
		if _, seen := fresh.entries[w.Window]; !seen {
			fresh.order = append(fresh.order, w.Window)
		}
		fresh.entries[w.Window] = append(fresh.entries[w.Window], w.Ranges...)
	}
	*t = *fresh
	return nil
}
