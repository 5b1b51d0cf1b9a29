package dispatch

import (
	"sync/atomic"
	"testing"
)

func TestRunCoversRangeExactlyOnce(t *testing.T) {
	pool := NewPool(4)
	defer pool.Stop()

	const n = 1000
	counts := make([]int32, n)
	pool.Run(n, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&counts[i], 1)
		}
	})

	for i, c := range counts {
		if c != 1 {
			t.Fatalf("index %d visited %d times", i, c)
		}
	}
}

func TestRunSmallRangeInline(t *testing.T) {
	pool := NewPool(4)
	defer pool.Stop()

	// Below the fan-out threshold the chunk runs on the caller.
	var calls int
	pool.Run(10, func(start, end int) {
		calls++
		if start != 0 || end != 10 {
			t.Errorf("expected single chunk [0,10), got [%d,%d)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("expected 1 inline call, got %d", calls)
	}
}

func TestRunZeroAndNegative(t *testing.T) {
	pool := NewPool(2)
	defer pool.Stop()

	pool.Run(0, func(start, end int) {
		t.Error("fn called for empty range")
	})
	pool.Run(-5, func(start, end int) {
		t.Error("fn called for negative range")
	})
}

func TestRunBlocksUntilComplete(t *testing.T) {
	pool := NewPool(4)
	defer pool.Stop()

	var total int64
	const n = 4096
	pool.Run(n, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt64(&total, int64(i))
		}
	})

	// If Run returned before the join, total would be incomplete here.
	want := int64(n) * int64(n-1) / 2
	if total != want {
		t.Errorf("sum = %d, want %d", total, want)
	}
}

func TestStopAndReuse(t *testing.T) {
	pool := NewPool(2)

	var a int32
	pool.Run(200, func(start, end int) { atomic.AddInt32(&a, int32(end-start)) })
	pool.Stop()

	// Workers restart lazily after Stop.
	var b int32
	pool.Run(200, func(start, end int) { atomic.AddInt32(&b, int32(end-start)) })
	pool.Stop()

	if a != 200 || b != 200 {
		t.Errorf("coverage after restart: a=%d b=%d, want 200 each", a, b)
	}
}

func TestSingleWorkerRunsInline(t *testing.T) {
	pool := NewPool(1)
	var calls int
	pool.Run(500, func(start, end int) { calls++ })
	if calls != 1 {
		t.Errorf("single-worker pool should run inline, got %d chunks", calls)
	}
	pool.Stop()
}
