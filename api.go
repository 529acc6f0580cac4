package dedupcache

import "errors"

// ErrUnsupportedPut is returned by Cache.Put when called on a node cache
// handle (which requires PutWithCost) and by Cache.PutWithCost when
// called on a string or template cache handle (which has no cost
// concept). It is an API contract violation, not a runtime condition —
// see spec §7 and §9's Open Question on splitting the capability
// surface.
var ErrUnsupportedPut = errors.New("dedupcache: unsupported put shape for this cache family")

// Cache is the per-generation, per-operation handle the writer uses to
// ask "have we already persisted a record with this logical identity?"
//
// Put and PutWithCost are two shapes of the same capability: string and
// template caches implement Put and return ErrUnsupportedPut from
// PutWithCost (cost has no meaning there); the node cache implements
// PutWithCost and returns ErrUnsupportedPut from Put (cost is mandatory
// there). This is deliberate — see spec §4.4 and §9.
type Cache[K comparable] interface {
	// Get returns the record locator previously stored under k, if any.
	Get(k K) (RecordID, bool)

	// Put inserts or updates k -> v using no cost weighting.
	// Returns ErrUnsupportedPut on a node cache handle.
	Put(k K, v RecordID) error

	// PutWithCost inserts or updates k -> v with an explicit admission
	// weight. Returns ErrUnsupportedPut on a string or template cache
	// handle.
	PutWithCost(k K, v RecordID, cost uint8) error
}
