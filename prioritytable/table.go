// Package prioritytable implements PriorityTable, a fixed-capacity,
// open-addressed, cost-weighted cache table shared across generations.
// It is the node-cache's algorithmic core: a single array of slots keyed
// by (key, generation), with bounded probing and saturating priority
// aging that makes cost-weighted admission cheap and memory strictly
// bounded.
package prioritytable

import (
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/segmentstore/dedupcache/internal/util"
)

// DefaultProbeWindow is the suggested bound on probes per operation (see
// package docs and spec §4.2): small enough to cap worst-case cost at
// O(1), large enough that cost-weighted admission has somewhere to land.
const DefaultProbeWindow = 4

// priorityBuckets is the number of priority buckets the eviction counter
// is split across. Priority is a uint8 (0..255); we quarter that range.
const priorityBuckets = 4

func bucketOf(priority uint8) int {
	return int(priority) / 64 // 0..63, 64..127, 128..191, 192..255
}

type slot[K comparable, V any] struct {
	occupied bool
	key      K
	gen      int64
	val      V
	cost     uint8
	priority uint8
}

// Stats is a point-in-time snapshot of a PriorityTable's counters.
type Stats struct {
	Hits              uint64
	Misses            uint64
	Loads             uint64
	EvictionsByBucket [priorityBuckets]uint64
	Occupancy         uint64
	Capacity          uint64
}

// Table is a fixed-capacity, open-addressed table keyed by (K, generation).
// All exported methods are safe for concurrent use. Capacity is fixed at
// construction and never grows.
type Table[K comparable, V any] struct {
	slots []slot[K, V]
	mask  uint64 // len(slots)-1
	probe int

	stripes        []util.PaddedMutex
	slotsPerStripe int

	occMu sync.Mutex
	occ   *roaring.Bitmap // occupied slot indices; guarded by occMu, acquired after any stripe lock

	hits   util.PaddedAtomicUint64
	misses util.PaddedAtomicUint64
	loads  util.PaddedAtomicUint64
	evicts [priorityBuckets]util.PaddedAtomicUint64
}

// New constructs a Table with capacity slots, rounded up to the next
// power of two, and a probe window of probeWindow (<=0 defaults to
// DefaultProbeWindow).
func New[K comparable, V any](capacity int, probeWindow int) *Table[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	n := int(util.NextPow2(uint64(capacity)))
	if probeWindow <= 0 {
		probeWindow = DefaultProbeWindow
	}
	if probeWindow > n {
		probeWindow = n
	}

	stripeCount := util.ReasonableStripeCount()
	for stripeCount > n || n%stripeCount != 0 {
		stripeCount--
	}
	if stripeCount < 1 {
		stripeCount = 1
	}

	return &Table[K, V]{
		slots:          make([]slot[K, V], n),
		mask:           uint64(n - 1),
		probe:          probeWindow,
		stripes:        make([]util.PaddedMutex, stripeCount),
		slotsPerStripe: n / stripeCount,
		occ:            roaring.New(),
	}
}

// Capacity returns the fixed number of slots in the table.
func (t *Table[K, V]) Capacity() int { return len(t.slots) }

func (t *Table[K, V]) stripeOf(slotIdx int) int {
	return slotIdx / t.slotsPerStripe
}

// lockWindow locks every distinct stripe touched by the probe window
// starting at startSlot, in ascending stripe-index order, and returns the
// list of slot indices in probe order (unlocked stripes are never
// touched). Locking in a single global ascending order across all
// concurrent callers prevents deadlock even though a window may straddle
// a stripe or table-wrap boundary.
func (t *Table[K, V]) lockWindow(startSlot int) (slotIdxs []int, stripeIdxs []int) {
	slotIdxs = make([]int, 0, t.probe)
	seen := make(map[int]struct{}, 2)
	stripeIdxs = make([]int, 0, 2)
	for i := 0; i < t.probe; i++ {
		si := (startSlot + i) & int(t.mask)
		slotIdxs = append(slotIdxs, si)
		stripe := t.stripeOf(si)
		if _, ok := seen[stripe]; !ok {
			seen[stripe] = struct{}{}
			stripeIdxs = append(stripeIdxs, stripe)
		}
	}
	sort.Ints(stripeIdxs)
	for _, s := range stripeIdxs {
		t.stripes[s].Lock()
	}
	return slotIdxs, stripeIdxs
}

func (t *Table[K, V]) unlockWindow(stripeIdxs []int) {
	for i := len(stripeIdxs) - 1; i >= 0; i-- {
		t.stripes[stripeIdxs[i]].Unlock()
	}
}

// Put inserts (k, v) for generation gen with admission weight cost.
//
// If an empty slot exists in the probe window, it is occupied directly.
// Otherwise the slot with the lowest priority in the window is
// overwritten, but only if its priority is strictly less than cost;
// otherwise the insert is silently dropped. Loads is incremented
// unconditionally; an eviction counter is bumped when an existing entry
// is overwritten.
func (t *Table[K, V]) Put(k K, v V, gen int64, cost uint8) {
	h := util.HashKeyGen(k, gen)
	start := int(h & t.mask)

	slotIdxs, stripeIdxs := t.lockWindow(start)
	defer t.unlockWindow(stripeIdxs)

	t.loads.Add(1)

	emptyIdx := -1
	lowestIdx := -1
	var lowestPriority uint8 = 255
	for _, si := range slotIdxs {
		s := &t.slots[si]
		if !s.occupied {
			if emptyIdx == -1 {
				emptyIdx = si
			}
			continue
		}
		if lowestIdx == -1 || s.priority < lowestPriority {
			lowestIdx = si
			lowestPriority = s.priority
		}
	}

	if emptyIdx != -1 {
		s := &t.slots[emptyIdx]
		s.occupied = true
		s.key, s.gen, s.val, s.cost, s.priority = k, gen, v, cost, cost
		t.markOccupied(emptyIdx)
		return
	}

	if lowestIdx == -1 || lowestPriority >= cost {
		return // every slot in the window is at least as important; drop
	}

	t.evicts[bucketOf(lowestPriority)].Add(1)
	s := &t.slots[lowestIdx]
	s.occupied = true
	s.key, s.gen, s.val, s.cost, s.priority = k, gen, v, cost, cost
	// slot was already occupied and already marked in t.occ; no change there.
}

// Get returns the value stored for (k, gen), if present within the probe
// window. On a match, the slot's priority is incremented, saturating at
// 255, giving frequently accessed entries an admission advantage.
func (t *Table[K, V]) Get(k K, gen int64) (V, bool) {
	h := util.HashKeyGen(k, gen)
	start := int(h & t.mask)

	slotIdxs, stripeIdxs := t.lockWindow(start)
	defer t.unlockWindow(stripeIdxs)

	for _, si := range slotIdxs {
		s := &t.slots[si]
		if s.occupied && s.key == k && s.gen == gen {
			if s.priority < 255 {
				s.priority++
			}
			t.hits.Add(1)
			return s.val, true
		}
	}
	t.misses.Add(1)
	var zero V
	return zero, false
}

// markOccupied records a newly occupied slot in the occupancy index.
// Called with the slot's stripe lock held; acquires occMu internally,
// always after any stripe lock, to keep lock ordering consistent.
func (t *Table[K, V]) markOccupied(slotIdx int) {
	t.occMu.Lock()
	t.occ.Add(uint32(slotIdx))
	t.occMu.Unlock()
}

func (t *Table[K, V]) markCleared(slotIdx int) {
	t.occMu.Lock()
	t.occ.Remove(uint32(slotIdx))
	t.occMu.Unlock()
}

// Retire clears every occupied slot whose generation satisfies pred. No
// compaction or rehashing is performed; cleared slots become available to
// future Put calls via the normal empty-slot path.
//
// The occupancy bitmap lets Retire visit only slots that were occupied as
// of the start of the call, skipping empty ones; slots occupied
// concurrently by a racing Put after the snapshot is taken are left for a
// future Retire to consider, which is consistent with spec: a concurrent
// Get either observes the retired entry or observes the slot as empty,
// never a torn read.
func (t *Table[K, V]) Retire(pred func(gen int64) bool) {
	t.occMu.Lock()
	candidates := t.occ.Clone()
	t.occMu.Unlock()

	it := candidates.Iterator()
	for it.HasNext() {
		slotIdx := int(it.Next())
		stripe := t.stripeOf(slotIdx)
		t.stripes[stripe].Lock()
		s := &t.slots[slotIdx]
		if s.occupied && pred(s.gen) {
			*s = slot[K, V]{}
			t.markCleared(slotIdx)
		}
		t.stripes[stripe].Unlock()
	}
}

// Stats returns a snapshot of the table's counters. Occupancy is read
// from the compressed bitmap index in O(1) rather than by scanning every
// slot.
func (t *Table[K, V]) Stats() Stats {
	t.occMu.Lock()
	occupancy := t.occ.GetCardinality()
	t.occMu.Unlock()

	st := Stats{
		Hits:      t.hits.Load(),
		Misses:    t.misses.Load(),
		Loads:     t.loads.Load(),
		Occupancy: occupancy,
		Capacity:  uint64(len(t.slots)),
	}
	for i := range t.evicts {
		st.EvictionsByBucket[i] = t.evicts[i].Load()
	}
	return st
}
