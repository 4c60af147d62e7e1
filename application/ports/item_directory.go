package ports

import (
	"context"

	"carddeps/domain/core/entities"
	"carddeps/domain/core/valueobjects"
)

// ItemDirectory is a read-only view of the items the host tracker knows about
type ItemDirectory interface {
	// Lookup returns the known items among ids; unknown ids are simply absent
	Lookup(ctx context.Context, ids []valueobjects.ItemID) (map[valueobjects.ItemID]entities.Item, error)

	// Get returns a single item
	Get(ctx context.Context, id valueobjects.ItemID) (entities.Item, bool, error)

	// List returns every known item ordered by name
	List(ctx context.Context) ([]entities.Item, error)
}

// ItemRegistry is the write side used by the host to push item metadata
type ItemRegistry interface {
	ItemDirectory
	Upsert(ctx context.Context, item entities.Item) error
}
