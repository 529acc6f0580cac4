// Package dedupcache implements the deduplication cache manager for a
// segment-based content store's writer: for each logical key the writer
// is about to persist, it answers "have we already written a record with
// this identity in the current generation?" A hit returns the existing
// record locator and avoids a duplicate write; a miss means the writer
// must allocate and record a new one.
//
// Design
//
//   - Generations: the store's periodic compaction assigns every new
//     record to a generation. Records from an older, reclaimable
//     generation must never be handed back to a writer targeting a newer
//     one, so cache state is partitioned by generation and can be bulk
//     retired. See genindex for the string/template partitioning and
//     prioritytable for how the shared node table scopes lookups by
//     generation without per-generation instances.
//
//   - Three families, two shapes: the string and template caches are
//     independent, lazily-created-per-generation bounded maps
//     (recordmap.RecordMap) with approximate-LRU eviction. The node
//     cache is a single fixed-capacity table (prioritytable.Table)
//     shared across all generations, using cost-weighted priority aging
//     instead of recency for eviction, because writers can express which
//     nodes are expensive to reconstruct.
//
//   - Concurrency: per-generation RecordMaps are guarded by one mutex
//     each; the shared node table stripes locks across slot ranges.
//     GenerationIndex guarantees a generation's value is constructed at
//     most once even under concurrent first-access.
//
//   - Telemetry: every cache handle is wrapped in an AccessTracker that
//     increments "<family>-deduplication-cache-<op>.access-count" and
//     "...miss-count" counters against a pluggable CounterSink. The
//     default is NoopSink; metrics/prom provides a Prometheus-backed one.
//
// Basic usage
//
//	m := dedupcache.New(dedupcache.ManagerOptions{})
//	sc := m.StringCache(5, dedupcache.Write)
//	if _, ok := sc.Get("foo"); !ok {
//	    _ = sc.Put("foo", someRecordID)
//	}
//
// Node cache (cost-weighted, requires PutWithCost)
//
//	nc := m.NodeCache(5, dedupcache.Write)
//	if err := nc.Put(someStableID, someRecordID); err != nil {
//	    // err is dedupcache.ErrUnsupportedPut: nodes require a cost.
//	}
//	_ = nc.PutWithCost(someStableID, someRecordID, 10)
//
// Retirement (called by compaction)
//
//	m.Retire(func(g dedupcache.Generation) bool { return g <= lastReclaimed })
//
// See SPEC_FULL.md in the module root for the full component breakdown.
package dedupcache
