package dedupcache

import (
	"fmt"
	"strings"

	"github.com/segmentstore/dedupcache/genindex"
	"github.com/segmentstore/dedupcache/prioritytable"
	"github.com/segmentstore/dedupcache/recordmap"
)

// Defaults for ManagerOptions, per spec §6's configuration table.
const (
	DefaultStringCacheSize   = 15_000
	DefaultTemplateCacheSize = 3_000
	DefaultNodeCacheSize     = 1_048_576
)

// ManagerOptions configures a CacheManager at construction. Zero values
// fall back to the documented defaults, mirroring the teacher's
// Options[K,V] discipline (cache/options.go): a caller only sets the
// fields it cares about.
type ManagerOptions struct {
	// StringCacheSize is the max entries per string-cache generation.
	// <= 0 uses DefaultStringCacheSize.
	StringCacheSize int
	// TemplateCacheSize is the max entries per template-cache generation.
	// <= 0 uses DefaultTemplateCacheSize.
	TemplateCacheSize int
	// NodeCacheSize is the total slot count for the shared node table,
	// rounded up to a power of two. <= 0 uses DefaultNodeCacheSize.
	NodeCacheSize int
	// ProbeWindow bounds probes per node-table operation. <= 0 uses
	// prioritytable.DefaultProbeWindow.
	ProbeWindow int
	// Sink receives telemetry counter increments. nil uses NoopSink.
	Sink CounterSink
}

func (o ManagerOptions) withDefaults() ManagerOptions {
	if o.StringCacheSize <= 0 {
		o.StringCacheSize = DefaultStringCacheSize
	}
	if o.TemplateCacheSize <= 0 {
		o.TemplateCacheSize = DefaultTemplateCacheSize
	}
	if o.NodeCacheSize <= 0 {
		o.NodeCacheSize = DefaultNodeCacheSize
	}
	if o.Sink == nil {
		o.Sink = NoopSink{}
	}
	return o
}

// CacheManager is the writer-facing façade over the three dedup cache
// families (spec §4.4). It owns two GenerationIndex instances (strings,
// templates) and a single shared PriorityTable (nodes).
type CacheManager struct {
	strings   *genindex.GenerationIndex[*recordmap.RecordMap[string, RecordID]]
	templates *genindex.GenerationIndex[*recordmap.RecordMap[Template, RecordID]]
	nodes     nodeBackend

	sink CounterSink

	stringCacheSize   int
	templateCacheSize int
}

// New constructs a CacheManager from opt, applying documented defaults
// to any zero-valued field.
func New(opt ManagerOptions) *CacheManager {
	opt = opt.withDefaults()

	stringSize := opt.StringCacheSize
	templateSize := opt.TemplateCacheSize

	return &CacheManager{
		strings: genindex.New(func(int64) *recordmap.RecordMap[string, RecordID] {
			return recordmap.New[string, RecordID](stringSize, nil)
		}),
		templates: genindex.New(func(int64) *recordmap.RecordMap[Template, RecordID] {
			return recordmap.New[Template, RecordID](templateSize, nil)
		}),
		nodes:             prioritytable.New[StableID, RecordID](opt.NodeCacheSize, opt.ProbeWindow),
		sink:              opt.Sink,
		stringCacheSize:   stringSize,
		templateCacheSize: templateSize,
	}
}

// NewEmpty constructs the Empty manager variant (spec §4.4): size-0
// RecordMaps for strings/templates (every Get misses, every Put is a
// silent no-op) and a node cache whose PutWithCost is a no-op and whose
// bare Put still reports ErrUnsupportedPut.
func NewEmpty() *CacheManager {
	return &CacheManager{
		strings: genindex.New(func(int64) *recordmap.RecordMap[string, RecordID] {
			return recordmap.New[string, RecordID](0, nil)
		}),
		templates: genindex.New(func(int64) *recordmap.RecordMap[Template, RecordID] {
			return recordmap.New[Template, RecordID](0, nil)
		}),
		nodes: emptyNodeBackend{},
		sink:  NoopSink{},
	}
}

func counterName(family string, op OperationKind) string {
	return fmt.Sprintf("%s-deduplication-cache-%s", family, op)
}

// StringCache returns a per-(generation, operation) handle over the
// string dedup cache, named "string-deduplication-cache-<op>" for
// telemetry.
func (m *CacheManager) StringCache(gen Generation, op OperationKind) Cache[string] {
	rm := m.strings.GetOrCreate(int64(gen))
	inner := &recordMapCache[string]{rm: rm}
	return newAccessTracker[string](inner, m.sink, counterName("string", op))
}

// TemplateCache returns a per-(generation, operation) handle over the
// template dedup cache, named "template-deduplication-cache-<op>".
func (m *CacheManager) TemplateCache(gen Generation, op OperationKind) Cache[Template] {
	rm := m.templates.GetOrCreate(int64(gen))
	inner := &recordMapCache[Template]{rm: rm}
	return newAccessTracker[Template](inner, m.sink, counterName("template", op))
}

// NodeCache returns a per-(generation, operation) handle over the shared
// node priority table, scoped to gen, named
// "node-deduplication-cache-<op>". Its Put method always returns
// ErrUnsupportedPut; callers must use PutWithCost.
func (m *CacheManager) NodeCache(gen Generation, op OperationKind) Cache[StableID] {
	view := &nodeCacheView{backend: m.nodes, gen: int64(gen)}
	return newAccessTracker[StableID](view, m.sink, counterName("node", op))
}

// Retire forwards to every family: strings, templates, and the shared
// node table. For every generation g with pred(g) == true, the
// generation's state is dropped; a future cache request for g invokes
// its factory (or, for nodes, simply finds its slots empty) again.
func (m *CacheManager) Retire(pred func(gen Generation) bool) {
	wrapped := func(gen int64) bool { return pred(Generation(gen)) }
	m.strings.Retire(wrapped)
	m.templates.Retire(wrapped)
	m.nodes.Retire(wrapped)
}

// StringStats aggregates hits/misses/loads/evictions/size/weight across
// every materialized string-cache generation.
func (m *CacheManager) StringStats() FamilyStats {
	var fs FamilyStats
	m.strings.Iter(func(_ int64, rm *recordmap.RecordMap[string, RecordID]) {
		st := rm.SnapshotStats()
		fs.Hits += st.Hits
		fs.Misses += st.Misses
		fs.LoadCount += st.Loads
		fs.EvictionCount += st.Evictions
		fs.TotalSize += st.Size
		fs.TotalWeight += st.Weight
	})
	fs.HitRate = hitRate(fs.Hits, fs.Misses)
	return fs
}

// TemplateStats is StringStats's analogue for the template family.
func (m *CacheManager) TemplateStats() FamilyStats {
	var fs FamilyStats
	m.templates.Iter(func(_ int64, rm *recordmap.RecordMap[Template, RecordID]) {
		st := rm.SnapshotStats()
		fs.Hits += st.Hits
		fs.Misses += st.Misses
		fs.LoadCount += st.Loads
		fs.EvictionCount += st.Evictions
		fs.TotalSize += st.Size
		fs.TotalWeight += st.Weight
	})
	fs.HitRate = hitRate(fs.Hits, fs.Misses)
	return fs
}

// NodeStats reads the shared node table's counters and performs one
// occupancy scan (in practice, an O(1) bitmap-cardinality read — see
// prioritytable.Table.Stats).
func (m *CacheManager) NodeStats() NodeStats {
	st := m.nodes.Stats()
	ns := NodeStats{
		Occupancy:         st.Occupancy,
		Capacity:          st.Capacity,
		EvictionsByBucket: st.EvictionsByBucket,
	}
	ns.Hits = st.Hits
	ns.Misses = st.Misses
	ns.LoadCount = st.Loads
	for _, c := range st.EvictionsByBucket {
		ns.EvictionCount += c
	}
	ns.TotalSize = st.Occupancy
	ns.HitRate = hitRate(st.Hits, st.Misses)
	return ns
}

// NodeOccupancy renders a human-readable summary of slot occupancy
// bucketed by priority, for monitoring dashboards and ad-hoc debugging.
// ok is false only when the node cache has zero capacity (the Empty
// manager variant).
func (m *CacheManager) NodeOccupancy() (summary string, ok bool) {
	st := m.nodes.Stats()
	if st.Capacity == 0 {
		return "", false
	}

	var b strings.Builder
	pct := float64(st.Occupancy) / float64(st.Capacity) * 100
	fmt.Fprintf(&b, "occupancy %d/%d (%.1f%%)", st.Occupancy, st.Capacity, pct)
	labels := [4]string{"low", "medium", "high", "max"}
	for i, label := range labels {
		fmt.Fprintf(&b, ", evictions[%s]=%d", label, st.EvictionsByBucket[i])
	}
	return b.String(), true
}
