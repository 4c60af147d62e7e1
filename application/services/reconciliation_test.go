package services

import (
	"context"
	"testing"

	"carddeps/application/ports"
	"carddeps/domain/core/entities"
	"carddeps/domain/events"
	"carddeps/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReconciler_ConsistentGraph(t *testing.T) {
	ctx := context.Background()
	graph := seedGraph(t, memory.NewRelationStore())

	report, err := NewReconciler(graph, nil, zap.NewNop()).CheckConsistency(ctx, "A")
	require.NoError(t, err)
	assert.True(t, report.Consistent())
}

func TestReconciler_DetectsAndRepairsDrift(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRelationStore()
	// A depends on B without reciprocal; A claims to block C which does not depend on A
	require.NoError(t, store.Put(ctx, ports.SharedSlot("A", ports.KeyDependsOn), []string{"B"}))
	require.NoError(t, store.Put(ctx, ports.SharedSlot("A", ports.KeyBlocks), []string{"C"}))

	publisher := &recordingPublisher{}
	graph := newGraph(store, publisher)
	reconciler := NewReconciler(graph, nil, zap.NewNop())

	report, err := reconciler.CheckConsistency(ctx, "A")
	require.NoError(t, err)
	require.Len(t, report.Issues, 2)
	assert.Equal(t, IssueMissingBlocks, report.Issues[0].Kind)
	assert.Equal(t, IssueMissingDependsOn, report.Issues[1].Kind)

	report, err = reconciler.Repair(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, report.Repaired, 2)
	assert.Empty(t, report.Failed)

	b, _ := graph.GetEdges(ctx, "B")
	assert.Equal(t, []string{"A"}, b.Blocks.Strings())
	a, _ := graph.GetEdges(ctx, "A")
	assert.Equal(t, []string{"B"}, a.DependsOn.Strings())
	assert.True(t, a.Blocks.IsEmpty())

	assert.Contains(t, publisher.types(), events.TypeEdgesRepaired)

	report, err = reconciler.CheckConsistency(ctx, "A")
	require.NoError(t, err)
	assert.True(t, report.Consistent())
}

func TestReconciler_StripsSelfReferences(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRelationStore()
	require.NoError(t, store.Put(ctx, ports.SharedSlot("X", ports.KeyDependsOn), []string{"X", "Y"}))
	require.NoError(t, store.Put(ctx, ports.SharedSlot("X", ports.KeyBlocks), []string{"X"}))
	require.NoError(t, store.Put(ctx, ports.SharedSlot("Y", ports.KeyBlocks), []string{"X"}))

	graph := newGraph(store, nil)
	reconciler := NewReconciler(graph, nil, zap.NewNop())

	report, err := reconciler.Repair(ctx, "X")
	require.NoError(t, err)
	require.Len(t, report.Issues, 2)
	assert.Equal(t, Issue{Kind: IssueSelfReference, ItemID: "X", OtherID: "X", Key: ports.KeyDependsOn}, report.Issues[0])
	assert.Equal(t, Issue{Kind: IssueSelfReference, ItemID: "X", OtherID: "X", Key: ports.KeyBlocks}, report.Issues[1])
	assert.Len(t, report.Repaired, 2)
	assert.Empty(t, report.Failed)

	x, err := graph.GetEdges(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, []string{"Y"}, x.DependsOn.Strings())
	assert.True(t, x.Blocks.IsEmpty())

	report, err = reconciler.CheckConsistency(ctx, "X")
	require.NoError(t, err)
	assert.True(t, report.Consistent())
}

func TestReconciler_StripsDanglingReferences(t *testing.T) {
	ctx := context.Background()
	directory := memory.NewItemDirectory()
	require.NoError(t, directory.Upsert(ctx, entities.Item{ID: "A", Name: "Alpha"}))
	require.NoError(t, directory.Upsert(ctx, entities.Item{ID: "B", Name: "Beta"}))

	store := memory.NewRelationStore()
	graph := newGraph(store, nil)
	require.NoError(t, graph.AddDependency(ctx, "A", "B"))
	require.NoError(t, store.Put(ctx, ports.SharedSlot("A", ports.KeyDependsOn), []string{"B", "GONE"}))
	require.NoError(t, store.Put(ctx, ports.SharedSlot("A", ports.KeyBlocks), []string{"GONE2"}))

	reconciler := NewReconciler(graph, directory, zap.NewNop())
	report, err := reconciler.Repair(ctx, "A")
	require.NoError(t, err)
	require.Len(t, report.Issues, 2)
	for _, issue := range report.Issues {
		assert.Equal(t, IssueInvalidReference, issue.Kind)
	}
	assert.Len(t, report.Repaired, 2)

	a, _ := graph.GetEdges(ctx, "A")
	assert.Equal(t, []string{"B"}, a.DependsOn.Strings())
	assert.True(t, a.Blocks.IsEmpty())
}

func TestReconciler_RepairFailuresAreReported(t *testing.T) {
	ctx := context.Background()
	base := memory.NewRelationStore()
	require.NoError(t, base.Put(ctx, ports.SharedSlot("A", ports.KeyDependsOn), []string{"B"}))

	store := &faultyStore{
		RelationStore: base,
		failPut: func(key ports.SlotKey, _ []string) bool {
			return key.Key == ports.KeyBlocks
		},
	}
	report, err := NewReconciler(newGraph(store, nil), nil, zap.NewNop()).Repair(ctx, "A")
	require.NoError(t, err)
	assert.Empty(t, report.Repaired)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, IssueMissingBlocks, report.Failed[0].Issue.Kind)
}

func TestReconciler_RepairAllDryRun(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRelationStore()
	require.NoError(t, store.Put(ctx, ports.SharedSlot("A", ports.KeyDependsOn), []string{"B"}))

	reconciler := NewReconciler(newGraph(store, nil), nil, zap.NewNop())
	reports, err := reconciler.RepairAll(ctx, ids("A", "B"), true)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.False(t, reports[0].Consistent())
	assert.True(t, reports[1].Consistent())

	values, _, _ := store.Get(ctx, ports.SharedSlot("B", ports.KeyBlocks))
	assert.Empty(t, values, "dry run must not write")
}
