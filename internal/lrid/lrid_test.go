package lrid

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC) }
}

func TestGenerateFormatsPattern(t *testing.T) {
	g := New("{branch}{date}{seq}", "BLR", 4, WithClock(fixedClock()))
	if got := g.Generate(); got != "BLR2503140001" {
		t.Fatalf("Generate = %q", got)
	}
	if got := g.Generate(); got != "BLR2503140002" {
		t.Fatalf("second Generate = %q", got)
	}
}

func TestGenerateMonotonicAndUnique(t *testing.T) {
	g := New("LR-{seq}", "", 3, WithClock(fixedClock()))
	seen := make(map[string]struct{})
	prev := ""
	for i := 0; i < 50; i++ {
		id := g.Generate()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate identifier %q", id)
		}
		seen[id] = struct{}{}
		if id <= prev {
			t.Fatalf("identifier %q not increasing after %q", id, prev)
		}
		prev = id
	}
	if g.Last() != 50 {
		t.Fatalf("Last = %d, want 50", g.Last())
	}
}

func TestSeedResumesSequence(t *testing.T) {
	g := New("LR-{seq}", "", 4, WithClock(fixedClock()))
	g.Seed(41)
	if got := g.Generate(); got != "LR-0042" {
		t.Fatalf("Generate after Seed = %q", got)
	}
}

func TestResetIsExplicit(t *testing.T) {
	g := New("LR-{seq}", "", 4, WithClock(fixedClock()))
	g.Generate()
	g.Reset()
	if got := g.Generate(); got != "LR-0001" {
		t.Fatalf("Generate after Reset = %q", got)
	}
}

func TestGenerateConcurrentUnique(t *testing.T) {
	g := New("LR-{seq}", "", 6, WithClock(fixedClock()))
	const workers, per = 8, 100
	ids := make(chan string, workers*per)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				ids <- g.Generate()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{}, workers*per)
	for id := range ids {
		if _, dup := seen[id]; dup {
			t.Fatal("duplicate identifier under concurrency")
		}
		seen[id] = struct{}{}
	}
	if len(seen) != workers*per {
		t.Fatalf("got %d unique ids, want %d", len(seen), workers*per)
	}
}

func TestSequenceWidthPadding(t *testing.T) {
	g := New("{seq}", "", 2, WithClock(fixedClock()))
	g.Seed(99)
	if got := g.Generate(); got != "100" {
		t.Fatalf("overflow padding = %q, want 100", got)
	}
	g2 := New("{seq}", "", 5, WithClock(fixedClock()))
	if got := g2.Generate(); got != fmt.Sprintf("%05d", 1) {
		t.Fatalf("padding = %q", got)
	}
}
