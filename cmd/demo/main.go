// Command demo exercises a CacheManager end to end: a write against one
// generation, a cache hit, a compaction-triggered retirement,
// and a node cache put that requires a cost.
package main

import (
	"fmt"

	"github.com/segmentstore/dedupcache"
)

func main() {
	m := dedupcache.New(dedupcache.ManagerOptions{
		StringCacheSize: 1024,
		NodeCacheSize:   4096,
	})

	gen := dedupcache.Generation(7)
	sc := m.StringCache(gen, dedupcache.Write)

	var rid dedupcache.RecordID
	rid[0] = 0x42

	if _, ok := sc.Get("segment-0001"); !ok {
		fmt.Println("miss: allocating a new record for segment-0001")
		if err := sc.Put("segment-0001", rid); err != nil {
			panic(err)
		}
	}

	if v, ok := sc.Get("segment-0001"); ok {
		fmt.Printf("hit: segment-0001 -> %x\n", v)
	}

	nc := m.NodeCache(gen, dedupcache.Write)
	var node dedupcache.StableID
	node[0] = 0x07
	if err := nc.PutWithCost(node, rid, 12); err != nil {
		panic(err)
	}

	st := m.StringStats()
	fmt.Printf("string family: %d hits, %d misses, %.2f hit rate\n", st.Hits, st.Misses, st.HitRate)

	if summary, ok := m.NodeOccupancy(); ok {
		fmt.Println("node table:", summary)
	}

	m.Retire(func(g dedupcache.Generation) bool { return g < gen })
	fmt.Println("retired all generations older than", gen)
}
