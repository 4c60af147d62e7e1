package services

import (
	"context"
	"sync"
	"time"

	"carddeps/domain/core/aggregates"
	"carddeps/domain/core/valueobjects"
	apperrors "carddeps/pkg/errors"

	"go.uber.org/zap"
)

// DependencyEditor is the slice of the graph service a session drives
type DependencyEditor interface {
	GetEdges(ctx context.Context, itemID valueobjects.ItemID) (aggregates.EdgeSet, error)
	AddDependency(ctx context.Context, fromID, toID valueobjects.ItemID) error
	RemoveDependency(ctx context.Context, fromID, toID valueobjects.ItemID) error
}

// EditOp names the graph operation attempted for an id during commit
type EditOp string

const (
	EditOpAdd    EditOp = "add"
	EditOpRemove EditOp = "remove"
)

// EditFailure is one id whose edit did not go through
type EditFailure struct {
	ID  valueobjects.ItemID `json:"id"`
	Op  EditOp              `json:"op"`
	Err error               `json:"-"`
}

// CommitResult reports what a commit wrote and what it could not
type CommitResult struct {
	Added   []valueobjects.ItemID `json:"added"`
	Removed []valueobjects.ItemID `json:"removed"`
	Failed  []EditFailure         `json:"failed"`
}

// OK reports whether every pending edit was applied
func (r CommitResult) OK() bool {
	return len(r.Failed) == 0
}

// FailedIDs lists the ids that failed, in commit order
func (r CommitResult) FailedIDs() []valueobjects.ItemID {
	ids := make([]valueobjects.ItemID, len(r.Failed))
	for i, f := range r.Failed {
		ids[i] = f.ID
	}
	return ids
}

// StagingSession is a draft of dependency edits for one item.
// Nothing is written until Commit; Abandon discards the draft.
type StagingSession struct {
	mu        sync.Mutex
	currentID valueobjects.ItemID
	diff      *aggregates.StagingDiff
	editor    DependencyEditor
	logger    *zap.Logger
	closed    bool
	openedAt  time.Time
}

// OpenSession snapshots the dependsOn set of currentID as the baseline
func OpenSession(ctx context.Context, editor DependencyEditor, currentID valueobjects.ItemID, logger *zap.Logger) (*StagingSession, error) {
	if currentID.IsZero() {
		return nil, apperrors.NewValidationError("item id is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	edges, err := editor.GetEdges(ctx, currentID)
	if err != nil {
		return nil, err
	}

	return &StagingSession{
		currentID: currentID,
		diff:      aggregates.NewStagingDiff(edges.DependsOn),
		editor:    editor,
		logger:    logger,
		openedAt:  time.Now(),
	}, nil
}

// CurrentID is the item the session edits
func (s *StagingSession) CurrentID() valueobjects.ItemID {
	return s.currentID
}

// OpenedAt is when the baseline was read
func (s *StagingSession) OpenedAt() time.Time {
	return s.openedAt
}

// Toggle flips the effective membership of id and returns the new state
func (s *StagingSession) Toggle(id valueobjects.ItemID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCandidate(id, !s.diff.IsSelected(id)); err != nil {
		return false, err
	}
	return s.diff.Toggle(id), nil
}

// Set forces the effective membership of id
func (s *StagingSession) Set(id valueobjects.ItemID, selected bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCandidate(id, selected); err != nil {
		return false, err
	}
	return s.diff.Set(id, selected), nil
}

// IsSelected reports the effective membership of id
func (s *StagingSession) IsSelected(id valueobjects.ItemID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diff.IsSelected(id)
}

// EffectiveSelection returns (baseline ∪ toAdd) \ toRemove
func (s *StagingSession) EffectiveSelection() valueobjects.IDSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diff.EffectiveSelection()
}

// Pending returns copies of the pending additions and removals
func (s *StagingSession) Pending() (toAdd, toRemove valueobjects.IDSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diff.ToAdd(), s.diff.ToRemove()
}

// Baseline returns a copy of the baseline the session diffs against
func (s *StagingSession) Baseline() valueobjects.IDSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diff.Baseline()
}

// Closed reports whether the session was committed or abandoned
func (s *StagingSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Commit applies all pending additions, then all pending removals.
//
// There is no rollback. Successful edits move into the baseline; failed
// ones stay pending so a retry only touches them. The session closes once
// a commit leaves nothing pending.
func (s *StagingSession) Commit(ctx context.Context) (CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return CommitResult{}, apperrors.ErrSessionClosed
	}

	result := CommitResult{
		Added:   []valueobjects.ItemID{},
		Removed: []valueobjects.ItemID{},
		Failed:  []EditFailure{},
	}

	for _, id := range s.diff.ToAdd().Slice() {
		if err := s.editor.AddDependency(ctx, s.currentID, id); err != nil {
			result.Failed = append(result.Failed, EditFailure{ID: id, Op: EditOpAdd, Err: err})
			continue
		}
		s.diff.MarkAdded(id)
		result.Added = append(result.Added, id)
	}

	for _, id := range s.diff.ToRemove().Slice() {
		if err := s.editor.RemoveDependency(ctx, s.currentID, id); err != nil {
			result.Failed = append(result.Failed, EditFailure{ID: id, Op: EditOpRemove, Err: err})
			continue
		}
		s.diff.MarkRemoved(id)
		result.Removed = append(result.Removed, id)
	}

	if result.OK() {
		s.closed = true
	} else {
		for _, f := range result.Failed {
			s.logger.Warn("Staged edit failed",
				zap.String("itemID", s.currentID.String()),
				zap.String("candidateID", f.ID.String()),
				zap.String("op", string(f.Op)),
				zap.Error(f.Err),
			)
		}
	}

	s.logger.Info("Committed staging session",
		zap.String("itemID", s.currentID.String()),
		zap.Int("added", len(result.Added)),
		zap.Int("removed", len(result.Removed)),
		zap.Int("failed", len(result.Failed)),
	)

	return result, nil
}

// Abandon discards the draft without writing anything
func (s *StagingSession) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// checkCandidate refuses selecting the current item. Deselecting it is how a
// stored self-loop gets removed.
func (s *StagingSession) checkCandidate(id valueobjects.ItemID, selecting bool) error {
	if s.closed {
		return apperrors.ErrSessionClosed
	}
	if id.IsZero() {
		return apperrors.NewValidationError("candidate id is required")
	}
	if selecting && id == s.currentID {
		return apperrors.ErrSelfReference.WithDetail("item_id", id.String())
	}
	return nil
}
