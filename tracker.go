package dedupcache

// Counter is a single named monotonic counter handle.
type Counter interface{ Inc() }

// CounterSink hands out Counter handles by name. A CounterSink
// implementation is shared across every AccessTracker the manager
// constructs; names are stable per (family, operation) pair and never
// include a generation, keeping label cardinality bounded.
type CounterSink interface {
	Counter(name string) Counter
}

// NoopSink is a CounterSink that discards every increment. It is the
// default when no sink is configured, mirroring the teacher's
// NoopMetrics default.
type NoopSink struct{}

type noopCounter struct{}

func (noopCounter) Inc() {}

// Counter returns a shared no-op counter for any name.
func (NoopSink) Counter(string) Counter { return noopCounter{} }

var _ CounterSink = NoopSink{}

// AccessTracker wraps an arbitrary Cache[K] and counts accesses and
// misses against two named counters. It holds no state of its own beyond
// the two counter handles; Put/PutWithCost pass through untouched.
type AccessTracker[K comparable] struct {
	inner  Cache[K]
	access Counter
	miss   Counter
}

// newAccessTracker builds an AccessTracker named "<name>.access-count"
// and "<name>.miss-count" against sink, wrapping inner.
func newAccessTracker[K comparable](inner Cache[K], sink CounterSink, name string) *AccessTracker[K] {
	return &AccessTracker[K]{
		inner:  inner,
		access: sink.Counter(name + ".access-count"),
		miss:   sink.Counter(name + ".miss-count"),
	}
}

// Get delegates to the wrapped cache, then increments the access counter
// unconditionally and the miss counter iff the result is empty.
func (t *AccessTracker[K]) Get(k K) (RecordID, bool) {
	v, ok := t.inner.Get(k)
	t.access.Inc()
	if !ok {
		t.miss.Inc()
	}
	return v, ok
}

// Put passes through untouched.
func (t *AccessTracker[K]) Put(k K, v RecordID) error { return t.inner.Put(k, v) }

// PutWithCost passes through untouched.
func (t *AccessTracker[K]) PutWithCost(k K, v RecordID, cost uint8) error {
	return t.inner.PutWithCost(k, v, cost)
}

var _ Cache[string] = (*AccessTracker[string])(nil)
