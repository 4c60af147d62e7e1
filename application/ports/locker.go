package ports

import "context"

// ItemLocker serializes writes touching the same items.
// Implementations must acquire ids in a deterministic order.
type ItemLocker interface {
	// Lock blocks until every id is held and returns the release func
	Lock(ctx context.Context, itemIDs ...string) (unlock func(), err error)
}
