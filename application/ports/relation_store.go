package ports

import (
	"context"
	"fmt"
	"strings"
)

// Scope is the visibility tier of a stored slot
type Scope string

const (
	// ScopeShared slots are visible to every viewer of the item
	ScopeShared Scope = "shared"
	// ScopePrivate slots are stored per viewer
	ScopePrivate Scope = "private"
)

// Slot keys used by the engine
const (
	KeyDependsOn            = "dependsOn"
	KeyBlocks               = "blocks"
	KeyChecklistDisplayMode = "checklistDisplayMode"
)

// BoardSlotPrefix namespaces board level settings inside the item keyspace
const BoardSlotPrefix = "board:"

// SlotKey addresses one value in the relation store
type SlotKey struct {
	ItemID string
	Scope  Scope
	Key    string
	// Viewer is only meaningful for ScopePrivate
	Viewer string
}

// SharedSlot builds a shared-scope key
func SharedSlot(itemID, key string) SlotKey {
	return SlotKey{ItemID: itemID, Scope: ScopeShared, Key: key}
}

// BoardSlot builds the shared-scope key of a board level setting
func BoardSlot(boardID, key string) SlotKey {
	return SharedSlot(BoardSlotPrefix+boardID, key)
}

// Validate checks that the key is fully addressed
func (k SlotKey) Validate() error {
	if strings.TrimSpace(k.ItemID) == "" {
		return fmt.Errorf("slot key: item id is required")
	}
	if k.Key == "" {
		return fmt.Errorf("slot key: key is required")
	}
	switch k.Scope {
	case ScopeShared:
	case ScopePrivate:
		if k.Viewer == "" {
			return fmt.Errorf("slot key: viewer is required for private scope")
		}
	default:
		return fmt.Errorf("slot key: unknown scope %q", k.Scope)
	}
	return nil
}

// String renders the key for logs and metrics labels
func (k SlotKey) String() string {
	if k.Scope == ScopePrivate {
		return fmt.Sprintf("%s/%s/%s/%s", k.Scope, k.Viewer, k.ItemID, k.Key)
	}
	return fmt.Sprintf("%s/%s/%s", k.Scope, k.ItemID, k.Key)
}

// RelationStore is the per-item key-value storage the engine runs on.
// It offers per-key consistency and nothing across keys: no transactions,
// no append primitive, no referential integrity.
type RelationStore interface {
	// Get returns the stored values and whether the slot exists.
	// A missing slot is not an error; callers choose the default.
	Get(ctx context.Context, key SlotKey) ([]string, bool, error)

	// Put replaces the whole value of the slot
	Put(ctx context.Context, key SlotKey, values []string) error
}

// HealthChecker is implemented by stores backed by a remote service
type HealthChecker interface {
	Ping(ctx context.Context) error
}
