package recordmap

import (
	"math/rand"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
)

// Basic Put/Get round-trip: with capacity >= number of distinct keys,
// no eviction occurs and Get returns the last Put value for every key.
func TestRecordMap_RoundTrip(t *testing.T) {
	t.Parallel()

	rm := New[string, int](8, nil)
	for i := 0; i < 8; i++ {
		rm.Put("k"+strconv.Itoa(i), i)
	}
	for i := 0; i < 8; i++ {
		v, ok := rm.Get("k" + strconv.Itoa(i))
		if !ok || v != i {
			t.Fatalf("key k%d: want %d, got %d ok=%v", i, i, v, ok)
		}
	}
}

// Deterministic LRU eviction: small capacity, single instance (RecordMap
// itself has no sharding), promoting "a" via Get should save it from
// eviction when "c" overflows the map.
func TestRecordMap_EvictionLRU(t *testing.T) {
	t.Parallel()

	rm := New[string, int](2, nil)
	rm.Put("a", 1)
	rm.Put("b", 2)

	if _, ok := rm.Get("a"); !ok { // promote a -> MRU
		t.Fatal("expected hit for a")
	}
	rm.Put("c", 3) // overflow -> evict LRU (b)

	if _, ok := rm.Get("b"); ok {
		t.Fatal("b must be evicted")
	}
	if _, ok := rm.Get("a"); !ok {
		t.Fatal("a must survive (promoted)")
	}
	if v, ok := rm.Get("c"); !ok || v != 3 {
		t.Fatal("c must be present")
	}

	st := rm.SnapshotStats()
	if st.Evictions != 1 {
		t.Fatalf("want 1 eviction, got %d", st.Evictions)
	}
}

// Capacity 0 is a legal, permanent no-op cache.
func TestRecordMap_ZeroCapacityIsNoop(t *testing.T) {
	t.Parallel()

	rm := New[string, int](0, nil)
	rm.Put("x", 1)
	if _, ok := rm.Get("x"); ok {
		t.Fatal("zero-capacity map must never retain entries")
	}
	if rm.Size() != 0 {
		t.Fatalf("want size 0, got %d", rm.Size())
	}
}

// Hit/miss counters track Get calls exactly.
func TestRecordMap_Counters(t *testing.T) {
	t.Parallel()

	rm := New[string, int](4, nil)
	rm.Get("missing") // miss
	rm.Put("a", 1)    // load
	rm.Get("a")       // hit

	st := rm.SnapshotStats()
	if st.Hits != 1 || st.Misses != 1 || st.Loads != 1 {
		t.Fatalf("got %+v", st)
	}
}

// Weight tracks a custom cost estimator.
func TestRecordMap_Weight(t *testing.T) {
	t.Parallel()

	rm := New[string, string](4, func(v string) uint64 { return uint64(len(v)) })
	rm.Put("a", "1234")
	rm.Put("b", "12")
	if w := rm.Weight(); w != 6 {
		t.Fatalf("want weight 6, got %d", w)
	}
	rm.Put("a", "1") // shrink a's cost from 4 to 1
	if w := rm.Weight(); w != 3 {
		t.Fatalf("want weight 3 after update, got %d", w)
	}
}

// benchmarkMix exercises a read/write mix against a warm RecordMap, the
// same shape as the teacher's cache/bench_test.go benchmarkMix.
func benchmarkMix(b *testing.B, readsPct int) {
	rm := New[string, string](100_000, nil)

	for i := 0; i < 50_000; i++ {
		k := "k:" + strconv.Itoa(i)
		rm.Put(k, "v")
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := (1 << 16) - 1 // hot keyspace (power of two for fast &-mask)

	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := "k:" + strconv.Itoa(i&keyMask)
			if r.Intn(100) < readsPct {
				rm.Get(k)
			} else {
				rm.Put(k, "v")
			}
			i++
		}
	})
}

func BenchmarkRecordMap_90r10w(b *testing.B) { benchmarkMix(b, 90) }
func BenchmarkRecordMap_50r50w(b *testing.B) { benchmarkMix(b, 50) }

// Fuzz basic Put/Get semantics under arbitrary string inputs. Guards
// against panics and ensures the round-trip invariant holds.
func FuzzRecordMap_PutGet(f *testing.F) {
	f.Add("", "")
	f.Add("a", "1")
	f.Add("αβγ", "δ")
	f.Add("long", strings.Repeat("x", 1024))

	f.Fuzz(func(t *testing.T, k, v string) {
		const limit = 1 << 12
		if len(k) > limit {
			k = k[:limit]
		}
		if len(v) > limit {
			v = v[:limit]
		}

		rm := New[string, string](16, nil)
		rm.Put(k, v)
		got, ok := rm.Get(k)
		if !ok || got != v {
			t.Fatalf("after Put/Get: want %q, got %q ok=%v", v, got, ok)
		}
	})
}
