package queries

import (
	"context"
	"errors"
	"strings"

	"carddeps/application/ports"
	"carddeps/domain/core/valueobjects"
	apperrors "carddeps/pkg/errors"
)

// MaxCandidates caps the candidate list returned to pickers
const MaxCandidates = 200

// ListCandidatesQuery asks for items that could become dependencies of ItemID
type ListCandidatesQuery struct {
	ItemID string
	Filter string
	Limit  int
}

// Validate validates the ListCandidatesQuery
func (q ListCandidatesQuery) Validate() error {
	if strings.TrimSpace(q.ItemID) == "" {
		return errors.New("item ID is required")
	}
	if q.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

// Candidate is a pickable item with its current selection state
type Candidate struct {
	ID       valueobjects.ItemID `json:"id"`
	Name     string              `json:"name"`
	URL      string              `json:"url,omitempty"`
	Selected bool                `json:"selected"`
}

// SelectionReader reports the effective membership of a candidate
type SelectionReader interface {
	IsSelected(id valueobjects.ItemID) bool
}

// CandidateService lists the items a user can pick in a staging session
type CandidateService struct {
	directory    ports.ItemDirectory
	requireKnown bool
}

// NewCandidateService creates a new candidate service
func NewCandidateService(directory ports.ItemDirectory) *CandidateService {
	return &CandidateService{directory: directory}
}

// RequireKnown makes VerifyReference reject ids the directory does not hold
func (s *CandidateService) RequireKnown(on bool) *CandidateService {
	s.requireKnown = on
	return s
}

// VerifyReference checks that id may be selected. Deselecting stale ids is
// always allowed, so callers only verify ids that are about to be selected.
func (s *CandidateService) VerifyReference(ctx context.Context, id valueobjects.ItemID) error {
	if !s.requireKnown || s.directory == nil {
		return nil
	}
	_, found, err := s.directory.Get(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.NewInvalidReferenceError(id.String())
	}
	return nil
}

// ListCandidates returns known items other than ItemID whose name contains
// the filter, case-insensitively
func (s *CandidateService) ListCandidates(ctx context.Context, q ListCandidatesQuery, selection SelectionReader) ([]Candidate, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit == 0 || limit > MaxCandidates {
		limit = MaxCandidates
	}

	items, err := s.directory.List(ctx)
	if err != nil {
		return nil, err
	}

	filter := strings.ToLower(strings.TrimSpace(q.Filter))
	self := valueobjects.ItemID(strings.TrimSpace(q.ItemID))
	candidates := make([]Candidate, 0, limit)
	for _, item := range items {
		if item.ID == self {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(item.Name), filter) {
			continue
		}
		c := Candidate{ID: item.ID, Name: item.DisplayName(), URL: item.URL}
		if selection != nil {
			c.Selected = selection.IsSelected(item.ID)
		}
		candidates = append(candidates, c)
		if len(candidates) == limit {
			break
		}
	}
	return candidates, nil
}

// ResolveReference turns a pasted item URL into an item id. The short link
// in the URL is mapped to a known item when one carries it.
func (s *CandidateService) ResolveReference(ctx context.Context, rawURL string) (valueobjects.ItemID, error) {
	shortLink, err := valueobjects.ParseItemURL(rawURL)
	if err != nil {
		return "", err
	}
	if s.directory == nil {
		return shortLink, nil
	}

	items, err := s.directory.List(ctx)
	if err != nil {
		return "", err
	}
	for _, item := range items {
		if item.ShortLink == shortLink.String() {
			return item.ID, nil
		}
	}
	return shortLink, nil
}
