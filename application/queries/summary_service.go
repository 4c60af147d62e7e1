package queries

import (
	"context"
	"errors"
	"strings"

	"carddeps/application/ports"
	"carddeps/domain/core/aggregates"
	"carddeps/domain/core/entities"
	"carddeps/domain/core/valueobjects"

	"go.uber.org/zap"
)

// EdgeReader reads the edge sets of an item
type EdgeReader interface {
	GetEdges(ctx context.Context, itemID valueobjects.ItemID) (aggregates.EdgeSet, error)
}

// DisplayModeReader resolves the checklist display mode of a board
type DisplayModeReader interface {
	GetDisplayMode(ctx context.Context, boardID string) (valueobjects.DisplayMode, error)
}

// GetSummaryQuery asks for the display rollup of one item
type GetSummaryQuery struct {
	ItemID  string
	BoardID string
}

// Validate validates the GetSummaryQuery
func (q GetSummaryQuery) Validate() error {
	if strings.TrimSpace(q.ItemID) == "" {
		return errors.New("item ID is required")
	}
	return nil
}

// ItemSummary is everything the host needs to render an item's badges
type ItemSummary struct {
	ItemID       valueobjects.ItemID `json:"item_id"`
	DependsBadge Badge               `json:"depends_badge"`
	BlocksBadge  Badge               `json:"blocks_badge"`
	DetailBadges []Badge             `json:"detail_badges"`
	Checklist    Badge               `json:"checklist"`
	DependsOn    []DependencyLink    `json:"depends_on"`
	Blocks       []DependencyLink    `json:"blocks"`
}

// SummaryService composes edge reads, item names and board settings
type SummaryService struct {
	edges     EdgeReader
	directory ports.ItemDirectory
	settings  DisplayModeReader
	baseURL   string
	logger    *zap.Logger
}

// NewSummaryService creates a new summary service
func NewSummaryService(edges EdgeReader, directory ports.ItemDirectory, settings DisplayModeReader, baseURL string, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{
		edges:     edges,
		directory: directory,
		settings:  settings,
		baseURL:   baseURL,
		logger:    logger,
	}
}

// GetSummary builds the rollup of one item.
// Directory lookups are best effort; unknown items show their id.
func (s *SummaryService) GetSummary(ctx context.Context, q GetSummaryQuery) (*ItemSummary, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	itemID, err := valueobjects.NewItemID(q.ItemID)
	if err != nil {
		return nil, err
	}

	edges, err := s.edges.GetEdges(ctx, itemID)
	if err != nil {
		return nil, err
	}

	mode := valueobjects.DefaultDisplayMode
	if s.settings != nil {
		if mode, err = s.settings.GetDisplayMode(ctx, q.BoardID); err != nil {
			return nil, err
		}
	}

	known := map[valueobjects.ItemID]entities.Item{}
	var checklists []entities.Checklist
	if s.directory != nil {
		lookup := append(edges.DependsOn.Union(edges.Blocks).Slice(), itemID)
		found, err := s.directory.Lookup(ctx, lookup)
		if err != nil {
			s.logger.Warn("Item lookup failed, showing ids",
				zap.String("itemID", itemID.String()),
				zap.Error(err),
			)
		} else {
			known = found
		}
		if item, ok := known[itemID]; ok {
			checklists = item.Checklists
		}
	}

	dependsOn := DependencyList(edges.DependsOn.Slice(), known, s.baseURL)
	blocks := DependencyList(edges.Blocks.Slice(), known, s.baseURL)

	dependsBadge, blocksBadge := DependencyBadges(edges)
	if tip := NamesTooltip("Prerequisites", dependsOn); tip != "" {
		dependsBadge.Title += "\n" + tip
	}
	if tip := NamesTooltip("Blocking", blocks); tip != "" {
		blocksBadge.Title += "\n" + tip
	}

	return &ItemSummary{
		ItemID:       itemID,
		DependsBadge: dependsBadge,
		BlocksBadge:  blocksBadge,
		DetailBadges: DetailBadges(edges),
		Checklist:    ChecklistSummary(checklists, mode),
		DependsOn:    dependsOn,
		Blocks:       blocks,
	}, nil
}
