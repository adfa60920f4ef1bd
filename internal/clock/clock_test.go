package clock

import (
	"context"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestTickAdvancesEverything(t *testing.T) {
	c := New(3)
	c.Tick()
	c.Tick()

	if c.Remaining != 1 {
		t.Errorf("Remaining = %d, want 1", c.Remaining)
	}
	if c.Dwell.Current != 2 || c.Title.Current != 2 {
		t.Errorf("counters = %+v %+v, want Current 2", c.Dwell, c.Title)
	}
	if c.Seq() != 2 {
		t.Errorf("Seq = %d, want 2", c.Seq())
	}
}

func TestCounterFlush(t *testing.T) {
	var c Counter
	c.Current = 7
	if c.Elapsed() != 7 {
		t.Fatalf("Elapsed = %d, want 7", c.Elapsed())
	}
	c.Flush()
	if c.Elapsed() != 0 {
		t.Errorf("Elapsed after Flush = %d, want 0", c.Elapsed())
	}
}

func TestResetClearsCounters(t *testing.T) {
	c := New(10)
	for i := 0; i < 4; i++ {
		c.Tick()
	}
	c.Reset(25)
	if *c != (Clock{Remaining: 25}) {
		t.Errorf("after Reset = %+v", *c)
	}
}

func TestManualTickerStopUnblocksFire(t *testing.T) {
	m := NewManualTicker()
	m.Stop()
	m.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if m.Fire(ctx) {
		t.Error("Fire on stopped ticker reported delivery")
	}
}

// Feature: locus, Property 4: the sequence number never repeats across ticks
func TestSeqMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New(rapid.IntRange(0, 100).Draw(t, "remaining"))
		n := rapid.IntRange(1, 200).Draw(t, "ticks")
		prev := c.Seq()
		for i := 0; i < n; i++ {
			c.Tick()
			if c.Seq() <= prev {
				t.Fatalf("Seq went from %d to %d", prev, c.Seq())
			}
			prev = c.Seq()
		}
		if c.Dwell.Current != n || c.Title.Current != n {
			t.Fatalf("counters %d/%d, want %d", c.Dwell.Current, c.Title.Current, n)
		}
	})
}
