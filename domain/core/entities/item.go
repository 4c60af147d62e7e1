package entities

import "carddeps/domain/core/valueobjects"

// CheckItemState is the completion state the tracker reports for a check item
type CheckItemState string

const (
	CheckItemComplete   CheckItemState = "complete"
	CheckItemIncomplete CheckItemState = "incomplete"
)

// Item is a read-only reference to a unit of work owned by the external tracker
type Item struct {
	ID         valueobjects.ItemID `json:"id"`
	Name       string              `json:"name"`
	ShortLink  string              `json:"short_link,omitempty"`
	URL        string              `json:"url,omitempty"`
	Checklists []Checklist         `json:"checklists,omitempty"`
}

// DisplayName returns the name, falling back to the id
func (i Item) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.ID.String()
}

// Checklist groups check items on an item
type Checklist struct {
	ID         string      `json:"id,omitempty"`
	Name       string      `json:"name,omitempty"`
	CheckItems []CheckItem `json:"check_items"`
}

// CheckItem is a single checklist entry
type CheckItem struct {
	Name  string         `json:"name"`
	State CheckItemState `json:"state"`
}

// IsComplete reports whether the entry is done
func (c CheckItem) IsComplete() bool {
	return c.State == CheckItemComplete
}
