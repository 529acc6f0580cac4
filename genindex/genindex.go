// Package genindex implements GenerationIndex, a concurrent map from a
// generation id to a lazily materialized, at-most-once-constructed value.
//
// The at-most-once guarantee is the exact idiom the teacher's
// internal/singleflight.Group uses for coalescing concurrent callers: the
// first goroutine to observe a missing entry becomes the leader and runs
// the factory; every other goroutine waits on a channel the leader closes
// when the value is published. The difference from singleflight proper is
// lifetime: a singleflight call record is discarded the instant it
// completes, but a generation's cell must persist — surviving readers,
// iteration, and further get-or-create calls — until an explicit Retire.
package genindex

import "sync"

// cell is a single-assignment slot for one generation's V. The first
// goroutine to create the cell (via LoadOrStore) runs the factory and
// closes done; every other goroutine blocks on done.
type cell[V any] struct {
	done chan struct{}
	val  V
}

func newCell[V any]() *cell[V] { return &cell[V]{done: make(chan struct{})} }

// ready reports whether the cell's value has been published, without
// blocking.
func (c *cell[V]) ready() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// GenerationIndex is a concurrent mapping from a generation (an int64;
// callers convert their own generation type) to a lazily constructed V.
// The zero value is not usable; construct with New.
type GenerationIndex[V any] struct {
	factory func(gen int64) V
	cells   sync.Map // int64 -> *cell[V]
}

// New constructs a GenerationIndex whose entries are produced by factory
// on first request for a given generation.
func New[V any](factory func(gen int64) V) *GenerationIndex[V] {
	return &GenerationIndex[V]{factory: factory}
}

// GetOrCreate returns the V for gen, invoking the factory at most once per
// generation even under concurrent callers. Every caller racing for the
// same gen observes the same V.
func (g *GenerationIndex[V]) GetOrCreate(gen int64) V {
	c := newCell[V]()
	actual, loaded := g.cells.LoadOrStore(gen, c)
	cc := actual.(*cell[V])
	if !loaded {
		// We are the leader: run the factory and publish.
		cc.val = g.factory(gen)
		close(cc.done)
		return cc.val
	}
	// A follower: wait for the leader (or a prior winner) to publish.
	<-cc.done
	return cc.val
}

// Iter calls fn for every materialized V, in unspecified order. Cells
// still being constructed by their leader (rare: only during the brief
// window a factory call is in flight) are skipped rather than awaited,
// since Iter promises only the set of already-materialized values.
func (g *GenerationIndex[V]) Iter(fn func(gen int64, v V)) {
	g.cells.Range(func(key, value any) bool {
		cc := value.(*cell[V])
		if cc.ready() {
			fn(key.(int64), cc.val)
		}
		return true
	})
}

// Retire removes every entry whose generation satisfies pred. Safe to
// call concurrently with GetOrCreate and Iter. A writer already holding a
// V for a retired generation keeps a valid reference; only future
// GetOrCreate calls for that generation invoke the factory again.
func (g *GenerationIndex[V]) Retire(pred func(gen int64) bool) {
	g.cells.Range(func(key, value any) bool {
		gen := key.(int64)
		if pred(gen) {
			g.cells.Delete(gen)
		}
		return true
	})
}
