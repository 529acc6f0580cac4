package dedupcache

import "fmt"

// Generation is a monotonic, not-necessarily-contiguous label attached to
// every record written during a compaction epoch. Two generations are
// equal only if their integer values match.
type Generation int64

// RecordID is an opaque, fixed-size locator for a persisted record.
// Equality is bytewise; the zero value never identifies a real record.
type RecordID [16]byte

// StableID is a content-independent, opaque logical identifier for a
// node, used as the node cache's key. Its structure is meaningless to
// this package — it is only ever compared for equality and hashed.
type StableID [16]byte

// Template is a structural template key for the template dedup cache.
// Two Templates are equal (and therefore dedup to the same cache slot)
// when their Shape and ArgCount match; Shape is expected to be a stable
// hash of the template's structural layout computed by the caller.
type Template struct {
	Shape    uint64
	ArgCount uint16
}

// OperationKind names the writer operation a cache handle was requested
// for. It affects only the name under which telemetry is reported;
// get/put behavior is identical regardless of OperationKind.
type OperationKind int

const (
	// Write is the OperationKind for the writer's steady-state path.
	Write OperationKind = iota
	// Compact is the OperationKind used while compaction produces or
	// rewrites records.
	Compact
)

// String renders the OperationKind as the lowercase token used in
// telemetry counter names (see CacheManager's telemetry contract).
func (o OperationKind) String() string {
	switch o {
	case Write:
		return "write"
	case Compact:
		return "compact"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}
