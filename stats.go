package dedupcache

import "time"

// FamilyStats is a read-only aggregation of a string or template cache
// family's counters, summed across every materialized generation at read
// time. Under a concurrent Retire, the sum may observe a slightly stale
// total; this is acceptable for monitoring (spec §9).
type FamilyStats struct {
	Hits          uint64
	Misses        uint64
	LoadCount     uint64
	EvictionCount uint64
	HitRate       float64
	TotalSize     uint64
	TotalWeight   uint64
	// TotalLoadTime is always zero: load timing is not tracked by this
	// subsystem (spec §6 telemetry contract).
	TotalLoadTime time.Duration
}

// NodeStats is a read-only aggregation of the shared node table's
// counters, plus the priority-bucketed eviction breakdown and a single
// occupancy scan result.
type NodeStats struct {
	FamilyStats
	Occupancy         uint64
	Capacity          uint64
	EvictionsByBucket [4]uint64
}

func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
