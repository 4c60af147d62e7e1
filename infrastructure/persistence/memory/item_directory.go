package memory

import (
	"context"
	"sort"
	"sync"

	"carddeps/domain/core/entities"
	"carddeps/domain/core/valueobjects"
)

// ItemDirectory holds item metadata pushed by the host tracker
type ItemDirectory struct {
	mu    sync.RWMutex
	items map[valueobjects.ItemID]entities.Item
}

// NewItemDirectory creates an empty directory
func NewItemDirectory() *ItemDirectory {
	return &ItemDirectory{items: make(map[valueobjects.ItemID]entities.Item)}
}

// Lookup returns the known items among ids
func (d *ItemDirectory) Lookup(ctx context.Context, ids []valueobjects.ItemID) (map[valueobjects.ItemID]entities.Item, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	found := make(map[valueobjects.ItemID]entities.Item, len(ids))
	for _, id := range ids {
		if item, ok := d.items[id]; ok {
			found[id] = item
		}
	}
	return found, nil
}

// Get returns a single item
func (d *ItemDirectory) Get(ctx context.Context, id valueobjects.ItemID) (entities.Item, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	item, ok := d.items[id]
	return item, ok, nil
}

// List returns every item ordered by name, then id
func (d *ItemDirectory) List(ctx context.Context) ([]entities.Item, error) {
	d.mu.RLock()
	items := make([]entities.Item, 0, len(d.items))
	for _, item := range d.items {
		items = append(items, item)
	}
	d.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// Upsert stores or replaces item metadata
func (d *ItemDirectory) Upsert(ctx context.Context, item entities.Item) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.items[item.ID] = item
	return nil
}
