package valueobjects

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// MaxItemIDLength bounds identifiers accepted from callers
const MaxItemIDLength = 256

// ItemID is the opaque identifier the external tracker assigns to an item.
// The engine never interprets it beyond equality.
type ItemID string

// NewItemID creates an ItemID from caller input
func NewItemID(raw string) (ItemID, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", errors.New("item ID cannot be empty")
	}
	if len(id) > MaxItemIDLength {
		return "", fmt.Errorf("item ID exceeds %d characters", MaxItemIDLength)
	}
	return ItemID(id), nil
}

// String returns the string representation of the ItemID
func (id ItemID) String() string {
	return string(id)
}

// IsZero checks if the ItemID is the zero value
func (id ItemID) IsZero() bool {
	return id == ""
}

// ParseItemURL extracts the item short link from a pasted item URL.
// Accepted shape: https://<host>/c/<shortLink>[/<slug>...]
func ParseItemURL(raw string) (ItemID, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid item URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid item URL: unsupported scheme %q", u.Scheme)
	}

	parts := make([]string, 0, 4)
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 || parts[0] != "c" {
		return "", fmt.Errorf("invalid item URL: expected /c/<id> path, got %q", u.Path)
	}
	return NewItemID(parts[1])
}
