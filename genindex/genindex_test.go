package genindex

import (
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"
)

// At-most-once factory: under N concurrent callers requesting the same
// generation, the factory runs exactly once and every caller observes the
// same instance.
func TestGenerationIndex_AtMostOnceFactory(t *testing.T) {
	t.Parallel()

	var calls int64
	idx := New(func(gen int64) *int {
		atomic.AddInt64(&calls, 1)
		v := int(gen)
		return &v
	})

	const N = 64
	results := make([]*int, N)
	var g errgroup.Group
	for i := 0; i < N; i++ {
		i := i
		g.Go(func() error {
			results[i] = idx.GetOrCreate(42)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("factory must run exactly once, got %d", got)
	}
	for i, r := range results {
		if r != results[0] {
			t.Fatalf("caller %d observed a different instance", i)
		}
	}
}

// Generation isolation: two distinct generations never share a value.
func TestGenerationIndex_GenerationIsolation(t *testing.T) {
	t.Parallel()

	idx := New(func(gen int64) int64 { return gen * 10 })

	a := idx.GetOrCreate(1)
	b := idx.GetOrCreate(2)
	if a == b {
		t.Fatalf("generations 1 and 2 must not collapse to the same value: %v %v", a, b)
	}
	if idx.GetOrCreate(1) != a {
		t.Fatal("re-requesting gen 1 must return the same value")
	}
}

// Retirement: retired generations invoke the factory again on next
// request; untouched generations keep their instance unchanged.
func TestGenerationIndex_Retire(t *testing.T) {
	t.Parallel()

	var calls int64
	idx := New(func(gen int64) *int64 {
		atomic.AddInt64(&calls, 1)
		v := gen
		return &v
	})

	v5a := idx.GetOrCreate(5)
	v6 := idx.GetOrCreate(6)

	idx.Retire(func(gen int64) bool { return gen == 5 })

	v5b := idx.GetOrCreate(5)
	if v5b == v5a {
		t.Fatal("retired generation must be reconstructed as a new instance")
	}
	if calls != 3 {
		t.Fatalf("want 3 factory calls (5, 6, 5-again), got %d", calls)
	}

	if idx.GetOrCreate(6) != v6 {
		t.Fatal("non-retired generation must keep its existing instance")
	}
}

// Iter enumerates only materialized values.
func TestGenerationIndex_Iter(t *testing.T) {
	t.Parallel()

	idx := New(func(gen int64) int64 { return gen })
	idx.GetOrCreate(1)
	idx.GetOrCreate(2)
	idx.GetOrCreate(3)
	idx.Retire(func(gen int64) bool { return gen == 2 })

	seen := map[int64]int64{}
	idx.Iter(func(gen int64, v int64) { seen[gen] = v })

	if len(seen) != 2 {
		t.Fatalf("want 2 materialized entries after retiring one, got %d", len(seen))
	}
	if seen[1] != 1 || seen[3] != 3 {
		t.Fatalf("unexpected iteration contents: %+v", seen)
	}
}
