// Command bench runs a synthetic workload against a CacheManager and
// exposes an optional pprof endpoint and a Prometheus metrics endpoint,
// adapted from the teacher's
// own cmd/bench load generator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/segmentstore/dedupcache"
	"github.com/segmentstore/dedupcache/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		stringCap = flag.Int("string-cap", 100_000, "string-cache-per-generation capacity (entries)")
		nodeCap   = flag.Int("node-cap", 1_048_576, "shared node-table capacity (slots)")
		family    = flag.String("family", "string", "cache family to drive: string | node")
		gens      = flag.Int("gens", 1, "number of generations to spread operations across")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")

		keys    = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload = flag.Int("preload", 0, "preload entries (0 = cap/2)")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	if *family != "string" && *family != "node" {
		log.Fatalf("unknown family: %q (use string or node)", *family)
	}
	if *gens < 1 {
		*gens = 1
	}

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	sink := prom.NewSink(nil, "dedupcache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build manager ----
	m := dedupcache.New(dedupcache.ManagerOptions{
		StringCacheSize: *stringCap,
		NodeCacheSize:   *nodeCap,
		Sink:            sink,
	})

	// ---- Preload half capacity to get a realistic hit-rate ----
	pl := *preload
	if pl == 0 {
		pl = *stringCap / 2
	}
	for g := 0; g < *gens; g++ {
		gen := dedupcache.Generation(g)
		for i := 0; i < pl; i++ {
			k := "k:" + strconv.Itoa(i)
			putWarm(m, *family, gen, k, i)
		}
	}

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}
	famVal := *family
	gensVal := *gens

	// ---- Load generation ----
	var reads, writes, hits, misses, total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			keyByZipf := func() string {
				return "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}
			genByID := func() dedupcache.Generation {
				return dedupcache.Generation(localR.Intn(gensVal))
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				gen := genByID()
				if int(localR.Int31n(100)) < readPctVal {
					atomic.AddUint64(&reads, 1)
					if getWarm(m, famVal, gen, keyByZipf()) {
						atomic.AddUint64(&hits, 1)
					} else {
						atomic.AddUint64(&misses, 1)
					}
				} else {
					atomic.AddUint64(&writes, 1)
					putWarm(m, famVal, gen, keyByZipf(), localR.Int())
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	readsN := atomic.LoadUint64(&reads)
	writesN := atomic.LoadUint64(&writes)
	hitsN := atomic.LoadUint64(&hits)
	missesN := atomic.LoadUint64(&misses)

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}

	fmt.Printf("family=%s string-cap=%d node-cap=%d gens=%d workers=%d keys=%d dur=%v seed=%d\n",
		famVal, *stringCap, *nodeCap, gensVal, workersN, *keys, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, writesN)
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, missesN, hitRate)

	sink.Observe(m)
	if famVal == "string" {
		st := m.StringStats()
		fmt.Printf("string family: size=%d hit-rate=%.2f%%\n", st.TotalSize, st.HitRate*100)
	} else {
		st := m.NodeStats()
		fmt.Printf("node table: occupancy=%d/%d hit-rate=%.2f%%\n", st.Occupancy, st.Capacity, st.HitRate*100)
	}
}

// putWarm and getWarm dispatch to the string or node cache family by name,
// keying the node family with a StableID derived from k's low bytes.
func putWarm(m *dedupcache.CacheManager, family string, gen dedupcache.Generation, k string, i int) {
	var rid dedupcache.RecordID
	rid[0] = byte(i)
	if family == "string" {
		_ = m.StringCache(gen, dedupcache.Write).Put(k, rid)
		return
	}
	_ = m.NodeCache(gen, dedupcache.Write).PutWithCost(stableIDFromString(k), rid, uint8(i%256))
}

func getWarm(m *dedupcache.CacheManager, family string, gen dedupcache.Generation, k string) bool {
	if family == "string" {
		_, ok := m.StringCache(gen, dedupcache.Write).Get(k)
		return ok
	}
	_, ok := m.NodeCache(gen, dedupcache.Write).Get(stableIDFromString(k))
	return ok
}

func stableIDFromString(k string) dedupcache.StableID {
	var id dedupcache.StableID
	copy(id[:], k)
	return id
}
