package services

import (
	"context"
	"testing"

	"carddeps/application/ports"
	"carddeps/domain/core/aggregates"
	"carddeps/domain/core/valueobjects"
	"carddeps/infrastructure/persistence/memory"
	apperrors "carddeps/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockDependencyEditor is a mock implementation of DependencyEditor
type MockDependencyEditor struct {
	mock.Mock
}

func (m *MockDependencyEditor) GetEdges(ctx context.Context, itemID valueobjects.ItemID) (aggregates.EdgeSet, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(aggregates.EdgeSet), args.Error(1)
}

func (m *MockDependencyEditor) AddDependency(ctx context.Context, fromID, toID valueobjects.ItemID) error {
	args := m.Called(ctx, fromID, toID)
	return args.Error(0)
}

func (m *MockDependencyEditor) RemoveDependency(ctx context.Context, fromID, toID valueobjects.ItemID) error {
	args := m.Called(ctx, fromID, toID)
	return args.Error(0)
}

// seedGraph builds A.dependsOn = {B1, B2} with reciprocals
func seedGraph(t *testing.T, store ports.RelationStore) *DependencyGraphService {
	t.Helper()
	graph := newGraph(store, nil)
	ctx := context.Background()
	require.NoError(t, graph.AddDependency(ctx, "A", "B1"))
	require.NoError(t, graph.AddDependency(ctx, "A", "B2"))
	return graph
}

func TestStagingSession_ToggleReversibility(t *testing.T) {
	ctx := context.Background()
	graph := seedGraph(t, memory.NewRelationStore())

	tests := []struct {
		name  string
		setup func(s *StagingSession)
		id    valueobjects.ItemID
	}{
		{name: "in baseline", id: "B1"},
		{name: "in neither", id: "C"},
		{name: "pending add", id: "C", setup: func(s *StagingSession) { s.Toggle("C") }},
		{name: "pending remove", id: "B2", setup: func(s *StagingSession) { s.Toggle("B2") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := OpenSession(ctx, graph, "A", zap.NewNop())
			require.NoError(t, err)
			if tt.setup != nil {
				tt.setup(session)
			}
			before := session.EffectiveSelection()

			_, err = session.Toggle(tt.id)
			require.NoError(t, err)
			_, err = session.Toggle(tt.id)
			require.NoError(t, err)

			assert.True(t, before.Equal(session.EffectiveSelection()))
		})
	}
}

func TestStagingSession_DiffMinimality(t *testing.T) {
	graph := seedGraph(t, memory.NewRelationStore())
	session, err := OpenSession(context.Background(), graph, "A", zap.NewNop())
	require.NoError(t, err)

	steps := []struct {
		id       valueobjects.ItemID
		selected *bool
	}{
		{id: "B1"}, {id: "C"}, {id: "B1"}, {id: "B2", selected: boolPtr(false)},
		{id: "C", selected: boolPtr(true)}, {id: "D", selected: boolPtr(false)},
		{id: "B2", selected: boolPtr(true)}, {id: "C"}, {id: "B2"},
	}
	for _, step := range steps {
		if step.selected != nil {
			_, err = session.Set(step.id, *step.selected)
		} else {
			_, err = session.Toggle(step.id)
		}
		require.NoError(t, err)

		toAdd, toRemove := session.Pending()
		baseline := session.Baseline()
		assert.True(t, toAdd.Intersect(baseline).IsEmpty(), "toAdd ∩ baseline must be empty")
		assert.True(t, toRemove.Difference(baseline).IsEmpty(), "toRemove ⊆ baseline")
	}
}

func TestStagingSession_SetForcesState(t *testing.T) {
	graph := seedGraph(t, memory.NewRelationStore())
	session, err := OpenSession(context.Background(), graph, "A", zap.NewNop())
	require.NoError(t, err)

	selected, err := session.Set("B1", true)
	require.NoError(t, err)
	assert.True(t, selected)
	toAdd, toRemove := session.Pending()
	assert.True(t, toAdd.IsEmpty())
	assert.True(t, toRemove.IsEmpty())

	selected, err = session.Set("C", false)
	require.NoError(t, err)
	assert.False(t, selected)
	assert.False(t, session.IsSelected("C"))
}

func TestStagingSession_RejectsCurrentAndEmpty(t *testing.T) {
	graph := seedGraph(t, memory.NewRelationStore())
	session, err := OpenSession(context.Background(), graph, "A", zap.NewNop())
	require.NoError(t, err)

	_, err = session.Toggle("A")
	assert.ErrorIs(t, err, apperrors.ErrSelfReference)

	_, err = session.Toggle("")
	assert.True(t, apperrors.IsValidation(err))
}

func TestStagingSession_DeselectsStoredSelfLoop(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRelationStore()
	require.NoError(t, store.Put(ctx, ports.SharedSlot("X", ports.KeyDependsOn), []string{"X", "Y"}))
	require.NoError(t, store.Put(ctx, ports.SharedSlot("X", ports.KeyBlocks), []string{"X"}))
	require.NoError(t, store.Put(ctx, ports.SharedSlot("Y", ports.KeyBlocks), []string{"X"}))
	graph := newGraph(store, nil)

	session, err := OpenSession(ctx, graph, "X", zap.NewNop())
	require.NoError(t, err)
	assert.True(t, session.IsSelected("X"))

	selected, err := session.Set("X", false)
	require.NoError(t, err)
	assert.False(t, selected)

	_, err = session.Toggle("X")
	assert.ErrorIs(t, err, apperrors.ErrSelfReference, "reselecting the current item stays refused")

	result, err := session.Commit(ctx)
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, ids("X"), result.Removed)

	x, err := graph.GetEdges(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, []string{"Y"}, x.DependsOn.Strings())
	assert.True(t, x.Blocks.IsEmpty())
}

func TestStagingSession_CommitDeterminism(t *testing.T) {
	ctx := context.Background()
	graph := seedGraph(t, memory.NewRelationStore())

	session, err := OpenSession(ctx, graph, "A", zap.NewNop())
	require.NoError(t, err)
	_, err = session.Toggle("B3")
	require.NoError(t, err)
	_, err = session.Toggle("B2")
	require.NoError(t, err)

	result, err := session.Commit(ctx)
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, ids("B3"), result.Added)
	assert.Equal(t, ids("B2"), result.Removed)

	a, _ := graph.GetEdges(ctx, "A")
	assert.True(t, a.DependsOn.Equal(valueobjects.NewIDSet(ids("B1", "B3")...)))
	b3, _ := graph.GetEdges(ctx, "B3")
	assert.True(t, b3.Blocks.Contains("A"))
	b2, _ := graph.GetEdges(ctx, "B2")
	assert.False(t, b2.Blocks.Contains("A"))

	assert.True(t, session.Closed())
	_, err = session.Commit(ctx)
	assert.ErrorIs(t, err, apperrors.ErrSessionClosed)
	_, err = session.Toggle("B4")
	assert.ErrorIs(t, err, apperrors.ErrSessionClosed)
}

func TestStagingSession_PartialFailureIsolation(t *testing.T) {
	ctx := context.Background()
	base := memory.NewRelationStore()
	seedGraph(t, base)

	failing := true
	store := &faultyStore{
		RelationStore: base,
		failPut: func(key ports.SlotKey, values []string) bool {
			return failing && key.ItemID == "A" && key.Key == ports.KeyDependsOn && contains(values, "B3")
		},
	}
	graph := newGraph(store, nil)

	session, err := OpenSession(ctx, graph, "A", zap.NewNop())
	require.NoError(t, err)
	session.Toggle("B3")
	session.Toggle("B2")

	result, err := session.Commit(ctx)
	require.NoError(t, err)
	assert.False(t, result.OK())
	assert.Equal(t, ids("B3"), result.FailedIDs())
	assert.Equal(t, EditOpAdd, result.Failed[0].Op)
	assert.True(t, apperrors.IsStoreUnavailable(result.Failed[0].Err))
	assert.Equal(t, ids("B2"), result.Removed)

	a, _ := graph.GetEdges(ctx, "A")
	assert.Equal(t, []string{"B1"}, a.DependsOn.Strings())
	b3, _ := graph.GetEdges(ctx, "B3")
	assert.False(t, b3.Blocks.Contains("A"))
	b2, _ := graph.GetEdges(ctx, "B2")
	assert.False(t, b2.Blocks.Contains("A"))

	// Session stays open with only the failed id pending
	assert.False(t, session.Closed())
	toAdd, toRemove := session.Pending()
	assert.Equal(t, []string{"B3"}, toAdd.Strings())
	assert.True(t, toRemove.IsEmpty())
	assert.True(t, session.EffectiveSelection().Equal(valueobjects.NewIDSet(ids("B1", "B3")...)))

	// Retry touches only the failed id
	failing = false
	result, err = session.Commit(ctx)
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, ids("B3"), result.Added)
	assert.Empty(t, result.Removed)
	assert.True(t, session.Closed())

	a, _ = graph.GetEdges(ctx, "A")
	assert.Equal(t, []string{"B1", "B3"}, a.DependsOn.Strings())
}

func TestStagingSession_AddsBeforeRemoves(t *testing.T) {
	ctx := context.Background()
	editor := new(MockDependencyEditor)
	editor.On("GetEdges", mock.Anything, valueobjects.ItemID("A")).
		Return(aggregates.NewEdgeSet("A", valueobjects.NewIDSet(ids("B1", "B2")...), valueobjects.IDSet{}), nil)

	var calls []string
	editor.On("RemoveDependency", mock.Anything, valueobjects.ItemID("A"), valueobjects.ItemID("B1")).
		Run(func(mock.Arguments) { calls = append(calls, "remove B1") }).Return(nil).Once()
	editor.On("AddDependency", mock.Anything, valueobjects.ItemID("A"), valueobjects.ItemID("C")).
		Run(func(mock.Arguments) { calls = append(calls, "add C") }).Return(nil).Once()
	editor.On("AddDependency", mock.Anything, valueobjects.ItemID("A"), valueobjects.ItemID("D")).
		Run(func(mock.Arguments) { calls = append(calls, "add D") }).Return(errInjected).Once()

	session, err := OpenSession(ctx, editor, "A", zap.NewNop())
	require.NoError(t, err)
	session.Toggle("B1")
	session.Toggle("C")
	session.Toggle("D")

	result, err := session.Commit(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"add C", "add D", "remove B1"}, calls)
	assert.Equal(t, ids("D"), result.FailedIDs())
	editor.AssertExpectations(t)
}

func TestStagingSession_AbandonWritesNothing(t *testing.T) {
	ctx := context.Background()
	editor := new(MockDependencyEditor)
	editor.On("GetEdges", mock.Anything, valueobjects.ItemID("A")).
		Return(aggregates.NewEdgeSet("A", valueobjects.IDSet{}, valueobjects.IDSet{}), nil)

	session, err := OpenSession(ctx, editor, "A", zap.NewNop())
	require.NoError(t, err)
	session.Toggle("B")
	session.Abandon()

	_, err = session.Commit(ctx)
	assert.ErrorIs(t, err, apperrors.ErrSessionClosed)
	editor.AssertNotCalled(t, "AddDependency", mock.Anything, mock.Anything, mock.Anything)
	editor.AssertNotCalled(t, "RemoveDependency", mock.Anything, mock.Anything, mock.Anything)
}

func TestOpenSession_PropagatesReadFailure(t *testing.T) {
	store := &faultyStore{
		RelationStore: memory.NewRelationStore(),
		failGet:       func(ports.SlotKey) bool { return true },
	}

	_, err := OpenSession(context.Background(), newGraph(store, nil), "A", zap.NewNop())
	assert.True(t, apperrors.IsStoreUnavailable(err))
}

func boolPtr(b bool) *bool { return &b }
