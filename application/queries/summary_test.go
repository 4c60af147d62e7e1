package queries

import (
	"context"
	"errors"
	"testing"

	"carddeps/domain/core/aggregates"
	"carddeps/domain/core/entities"
	"carddeps/domain/core/valueobjects"
	"carddeps/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func edgeSet(dependsOn, blocks []valueobjects.ItemID) aggregates.EdgeSet {
	return aggregates.NewEdgeSet("A", valueobjects.NewIDSet(dependsOn...), valueobjects.NewIDSet(blocks...))
}

func TestDependencyBadges(t *testing.T) {
	depends, blocking := DependencyBadges(edgeSet(nil, nil))
	assert.Equal(t, "⛓ No deps", depends.Text)
	assert.Empty(t, depends.Color)
	assert.Equal(t, "🚧 Not blocking", blocking.Text)
	assert.Equal(t, "Not blocking any items.", blocking.Title)

	depends, blocking = DependencyBadges(edgeSet([]valueobjects.ItemID{"B", "C"}, []valueobjects.ItemID{"D"}))
	assert.Equal(t, "⛓ Depends on 2", depends.Text)
	assert.Equal(t, "red", depends.Color)
	assert.Equal(t, "🚧 Blocking 1", blocking.Text)
	assert.Equal(t, "yellow", blocking.Color)
}

func TestDetailBadges(t *testing.T) {
	assert.Empty(t, DetailBadges(edgeSet(nil, nil)))

	badges := DetailBadges(edgeSet(nil, []valueobjects.ItemID{"B", "C", "D"}))
	require.Len(t, badges, 1)
	assert.Equal(t, "Blocked by", badges[0].Title)
	assert.Equal(t, "3", badges[0].Text)
}

func TestChecklistSummary(t *testing.T) {
	checklists := []entities.Checklist{{
		CheckItems: []entities.CheckItem{
			{Name: "Write", State: entities.CheckItemComplete},
			{Name: "Review", State: entities.CheckItemIncomplete},
			{Name: "Ship", State: entities.CheckItemIncomplete},
		},
	}}

	tests := []struct {
		name string
		mode valueobjects.DisplayMode
		want string
	}{
		{"next", valueobjects.DisplayModeNext, "☑︎ 1/3 • Review"},
		{"upcoming", valueobjects.DisplayModeUpcoming, "☑︎ 1/3 • Review • Ship"},
		{"all", valueobjects.DisplayModeAll, "☑︎ 1/3 • Write • Review • Ship"},
		{"unknown falls back to next", valueobjects.DisplayMode(""), "☑︎ 1/3 • Review"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			badge := ChecklistSummary(checklists, tt.mode)
			assert.Equal(t, tt.want, badge.Text)
			assert.Equal(t, "Checklist summary", badge.Title)
		})
	}

	assert.Equal(t, "☑︎ No checklist", ChecklistSummary(nil, valueobjects.DisplayModeAll).Text)

	done := []entities.Checklist{{CheckItems: []entities.CheckItem{{Name: "x", State: entities.CheckItemComplete}}}}
	assert.Equal(t, "☑︎ 1/1", ChecklistSummary(done, valueobjects.DisplayModeNext).Text)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 36))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "ééé…", Truncate("éééééé", 4))
	assert.Equal(t, "", Truncate("abc", 0))

	long := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	assert.Len(t, []rune(Truncate(long, ChecklistNamesMaxRunes)), ChecklistNamesMaxRunes)
}

func TestDependencyListAndTooltip(t *testing.T) {
	known := map[valueobjects.ItemID]entities.Item{
		"B": {ID: "B", Name: "Beta"},
	}
	links := DependencyList([]valueobjects.ItemID{"B", "C"}, known, "https://tracker.example/")
	require.Len(t, links, 2)
	assert.Equal(t, "Beta", links[0].Name)
	assert.Equal(t, "https://tracker.example/c/B", links[0].URL)
	assert.Equal(t, "C", links[1].Name)

	many := DependencyList([]valueobjects.ItemID{"1", "2", "3", "4", "5", "6", "7"}, nil, "")
	assert.Equal(t, "Prerequisites:\n- 1\n- 2\n- 3\n- 4\n- 5", NamesTooltip("Prerequisites", many))
	assert.Empty(t, NamesTooltip("Prerequisites", nil))
}

type stubEdges struct {
	edges aggregates.EdgeSet
	err   error
}

func (s stubEdges) GetEdges(ctx context.Context, itemID valueobjects.ItemID) (aggregates.EdgeSet, error) {
	return s.edges, s.err
}

type stubMode valueobjects.DisplayMode

func (m stubMode) GetDisplayMode(ctx context.Context, boardID string) (valueobjects.DisplayMode, error) {
	return valueobjects.DisplayMode(m), nil
}

func TestSummaryService_GetSummary(t *testing.T) {
	ctx := context.Background()
	directory := memory.NewItemDirectory()
	require.NoError(t, directory.Upsert(ctx, entities.Item{
		ID:   "A",
		Name: "Alpha",
		Checklists: []entities.Checklist{{CheckItems: []entities.CheckItem{
			{Name: "one", State: entities.CheckItemIncomplete},
			{Name: "two", State: entities.CheckItemIncomplete},
		}}},
	}))
	require.NoError(t, directory.Upsert(ctx, entities.Item{ID: "B", Name: "Beta"}))

	svc := NewSummaryService(
		stubEdges{edges: edgeSet([]valueobjects.ItemID{"B"}, nil)},
		directory,
		stubMode(valueobjects.DisplayModeUpcoming),
		"https://tracker.example",
		zap.NewNop(),
	)

	summary, err := svc.GetSummary(ctx, GetSummaryQuery{ItemID: "A", BoardID: "board-1"})
	require.NoError(t, err)
	assert.Equal(t, "⛓ Depends on 1", summary.DependsBadge.Text)
	assert.Contains(t, summary.DependsBadge.Title, "- Beta")
	assert.Equal(t, "☑︎ 0/2 • one • two", summary.Checklist.Text)
	require.Len(t, summary.DependsOn, 1)
	assert.Equal(t, "Beta", summary.DependsOn[0].Name)
	assert.Empty(t, summary.Blocks)
}

func TestSummaryService_Errors(t *testing.T) {
	svc := NewSummaryService(stubEdges{err: errors.New("boom")}, nil, nil, "", nil)

	_, err := svc.GetSummary(context.Background(), GetSummaryQuery{})
	assert.Error(t, err)

	_, err = svc.GetSummary(context.Background(), GetSummaryQuery{ItemID: "A"})
	assert.EqualError(t, err, "boom")
}
