package utils

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	if !s.Add("7d5a2b1c-song") {
		t.Error("first Add should return true")
	}
	if s.Add("7d5a2b1c-song") {
		t.Error("second Add of same id should return false")
	}
	if !s.Contains("7d5a2b1c-song") {
		t.Error("Contains should report an added id")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added atomic.Int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		pool.Submit(func() {
			if s.Add("same-artist") {
				added.Add(1)
			}
		})
	}
	pool.Wait()

	if added.Load() != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added.Load())
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	var mu sync.Mutex
	var timestamps []time.Time
	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	// allow a little scheduler slack under the limiter interval
	floor := time.Duration(rateLimitMs-10) * time.Millisecond
	for i := 1; i < len(timestamps); i++ {
		if gap := timestamps[i].Sub(timestamps[i-1]); gap < floor {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, floor)
		}
	}
}

func TestWorkerPoolRecoversPanics(t *testing.T) {
	pool := NewWorkerPool(2, 0)
	var done atomic.Int64

	pool.Submit(func() { panic("bad payload") })
	for i := 0; i < 4; i++ {
		pool.Submit(func() { done.Add(1) })
	}
	pool.Wait()

	if pool.Panics() != 1 {
		t.Errorf("panics: got %d, want 1", pool.Panics())
	}
	if done.Load() != 4 {
		t.Errorf("completed jobs: got %d, want 4", done.Load())
	}
}

func TestResultMapCollectsFanOut(t *testing.T) {
	results := NewResultMap[int, string]()
	pool := NewWorkerPool(4, 0)
	for i := 0; i < 20; i++ {
		pool.Submit(func() { results.Set(i, "row") })
	}
	pool.Wait()

	snap := results.Snapshot()
	if len(snap) != 20 {
		t.Fatalf("snapshot size: got %d, want 20", len(snap))
	}
	if v, ok := results.Get(7); !ok || v != "row" {
		t.Errorf("Get(7) = %q, %v", v, ok)
	}
	if _, ok := results.Get(99); ok {
		t.Error("Get on a missing key should report false")
	}
}
