package parallel

import (
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversAllIndices(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"empty", 0},
		{"single", 1},
		{"small", 7},
		{"larger than cpus", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := make([]int32, tt.n)
			Parallelize(tt.n, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&counts[i], 1)
				}
			})

			for i, c := range counts {
				if c != 1 {
					t.Errorf("index %d processed %d times, want 1", i, c)
				}
			}
		})
	}
}

func TestParallelizeWithWorkers(t *testing.T) {
	var total int64
	ParallelizeWithWorkers(100, 4, func(start, end int) {
		atomic.AddInt64(&total, int64(end-start))
	})
	if total != 100 {
		t.Errorf("processed %d indices, want 100", total)
	}

	// workers <= 1 runs inline
	ran := false
	ParallelizeWithWorkers(10, 1, func(start, end int) {
		ran = true
		if start != 0 || end != 10 {
			t.Errorf("expected single block [0,10), got [%d,%d)", start, end)
		}
	})
	if !ran {
		t.Error("callback not invoked with workers=1")
	}
}

func TestParallelizeWithThreshold(t *testing.T) {
	// Below the threshold the callback must receive one sequential block.
	blocks := 0
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		blocks++
		if start != 0 || end != 10 {
			t.Errorf("expected block [0,10), got [%d,%d)", start, end)
		}
	})
	if blocks != 1 {
		t.Errorf("expected 1 sequential block, got %d", blocks)
	}

	// Above the threshold all indices are still covered exactly once.
	counts := make([]int32, 5000)
	ParallelizeWithThreshold(5000, 100, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&counts[i], 1)
		}
	})
	for i, c := range counts {
		if c != 1 {
			t.Fatalf("index %d processed %d times, want 1", i, c)
		}
	}

	// n = 0 must not invoke the callback.
	ParallelizeWithThreshold(0, 100, func(start, end int) {
		t.Error("callback invoked for n=0")
	})
}
