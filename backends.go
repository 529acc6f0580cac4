package dedupcache

import (
	"github.com/segmentstore/dedupcache/prioritytable"
	"github.com/segmentstore/dedupcache/recordmap"
)

// recordMapCache adapts a *recordmap.RecordMap to the Cache[K] surface
// used by string and template handles. Cost has no meaning for a plain
// deduplication map, so PutWithCost is unsupported.
type recordMapCache[K comparable] struct {
	rm *recordmap.RecordMap[K, RecordID]
}

func (c *recordMapCache[K]) Get(k K) (RecordID, bool) { return c.rm.Get(k) }

func (c *recordMapCache[K]) Put(k K, v RecordID) error {
	c.rm.Put(k, v)
	return nil
}

func (c *recordMapCache[K]) PutWithCost(K, RecordID, uint8) error {
	return ErrUnsupportedPut
}

// nodeBackend is the capability the shared node table provides, scoped
// to one generation by nodeCacheView. *prioritytable.Table[StableID,
// RecordID] already satisfies this signature directly.
type nodeBackend interface {
	Get(k StableID, gen int64) (RecordID, bool)
	Put(k StableID, v RecordID, gen int64, cost uint8)
	Retire(pred func(gen int64) bool)
	Stats() prioritytable.Stats
	Capacity() int
}

var _ nodeBackend = (*prioritytable.Table[StableID, RecordID])(nil)

// nodeCacheView binds one generation onto the shared node table. Per
// spec §9's "views without new allocation" note, an equivalent
// implementation could instead pass (generation, operation) as extra
// arguments on a single shared handle; allocating a small per-call view
// is simpler and is explicitly sanctioned as an optimization choice, not
// a contract requirement.
type nodeCacheView struct {
	backend nodeBackend
	gen     int64
}

func (v *nodeCacheView) Get(k StableID) (RecordID, bool) { return v.backend.Get(k, v.gen) }

func (v *nodeCacheView) Put(StableID, RecordID) error { return ErrUnsupportedPut }

func (v *nodeCacheView) PutWithCost(k StableID, val RecordID, cost uint8) error {
	v.backend.Put(k, val, v.gen, cost)
	return nil
}

// emptyNodeBackend is the node table used by the Empty manager variant
// (spec §4.4): Get always misses, PutWithCost is a silent no-op, and the
// bare Put still reports ErrUnsupportedPut — the Empty variant changes
// capacity, not the capability shape.
type emptyNodeBackend struct{}

func (emptyNodeBackend) Get(StableID, int64) (RecordID, bool) { return RecordID{}, false }
func (emptyNodeBackend) Put(StableID, RecordID, int64, uint8)  {}
func (emptyNodeBackend) Retire(func(gen int64) bool)           {}
func (emptyNodeBackend) Stats() prioritytable.Stats            { return prioritytable.Stats{} }
func (emptyNodeBackend) Capacity() int                         { return 0 }

var _ nodeBackend = emptyNodeBackend{}
