package services

import (
	"context"
	"fmt"
	"time"

	"carddeps/application/ports"
	"carddeps/domain/core/aggregates"
	"carddeps/domain/core/valueobjects"
	"carddeps/domain/events"
	"carddeps/pkg/common"
	apperrors "carddeps/pkg/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DependencyGraphService keeps the dependsOn/blocks mirror symmetric on top of
// a store with independent per-item slots.
//
// Every mutation writes the forward side (from.dependsOn) first and the
// reciprocal (to.blocks) second. A failure between the two leaves a forward
// edge without its reciprocal, which is reported as InconsistentEdge and can
// be repaired by the Reconciler. Nothing is cached between calls.
type DependencyGraphService struct {
	store     ports.RelationStore
	locker    ports.ItemLocker
	publisher ports.EventPublisher
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewDependencyGraphService creates a new graph service.
// locker and publisher are optional.
func NewDependencyGraphService(
	store ports.RelationStore,
	locker ports.ItemLocker,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *DependencyGraphService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DependencyGraphService{
		store:     store,
		locker:    locker,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer("carddeps.application.dependency_graph_service"),
		now:       time.Now,
	}
}

// GetEdges reads both sets of itemID. Missing slots read as empty sets.
func (s *DependencyGraphService) GetEdges(ctx context.Context, itemID valueobjects.ItemID) (aggregates.EdgeSet, error) {
	if itemID.IsZero() {
		return aggregates.EdgeSet{}, apperrors.NewValidationError("item id is required")
	}

	dependsOn, err := s.readSet(ctx, itemID, ports.KeyDependsOn)
	if err != nil {
		return aggregates.EdgeSet{}, err
	}
	blocks, err := s.readSet(ctx, itemID, ports.KeyBlocks)
	if err != nil {
		return aggregates.EdgeSet{}, err
	}

	return aggregates.NewEdgeSet(itemID, dependsOn, blocks), nil
}

// AddDependency records that fromID depends on toID
func (s *DependencyGraphService) AddDependency(ctx context.Context, fromID, toID valueobjects.ItemID) error {
	return s.mutateEdge(ctx, "AddDependency", fromID, toID, true)
}

// RemoveDependency removes the edge fromID -> toID from both sides
func (s *DependencyGraphService) RemoveDependency(ctx context.Context, fromID, toID valueobjects.ItemID) error {
	return s.mutateEdge(ctx, "RemoveDependency", fromID, toID, false)
}

// SetDependsOn replaces the dependsOn set of itemID and returns what was written
func (s *DependencyGraphService) SetDependsOn(ctx context.Context, itemID valueobjects.ItemID, ids []valueobjects.ItemID) (valueobjects.IDSet, error) {
	return s.writeSet(ctx, itemID, ports.KeyDependsOn, valueobjects.NewIDSet(ids...))
}

// SetBlocks replaces the blocks set of itemID and returns what was written
func (s *DependencyGraphService) SetBlocks(ctx context.Context, itemID valueobjects.ItemID, ids []valueobjects.ItemID) (valueobjects.IDSet, error) {
	return s.writeSet(ctx, itemID, ports.KeyBlocks, valueobjects.NewIDSet(ids...))
}

func (s *DependencyGraphService) mutateEdge(ctx context.Context, op string, fromID, toID valueobjects.ItemID, add bool) error {
	ctx, span := s.tracer.Start(ctx, "DependencyGraphService."+op,
		trace.WithAttributes(
			attribute.String("edge.from", fromID.String()),
			attribute.String("edge.to", toID.String()),
		),
	)
	defer span.End()

	if err := validateEdge(fromID, toID, add); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid edge")
		return err
	}

	unlock, err := s.lock(ctx, fromID, toID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lock failed")
		return err
	}
	defer unlock()

	apply := func(set *valueobjects.IDSet, id valueobjects.ItemID) bool {
		if add {
			return set.Add(id)
		}
		return set.Remove(id)
	}

	// Forward side first: the owning item's dependsOn
	forward, err := s.readSet(ctx, fromID, ports.KeyDependsOn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "forward read failed")
		return err
	}
	forwardWritten := apply(&forward, toID)
	if forwardWritten {
		if err := s.putSet(ctx, fromID, ports.KeyDependsOn, forward); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "forward write failed")
			return err
		}
	}
	changed := forwardWritten

	// Reciprocal: the target's blocks
	reciprocal, err := s.readSet(ctx, toID, ports.KeyBlocks)
	if err == nil && apply(&reciprocal, fromID) {
		changed = true
		err = s.putSet(ctx, toID, ports.KeyBlocks, reciprocal)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reciprocal write failed")
		// Forward side untouched: report the store failure as is
		if !forwardWritten {
			return err
		}
		s.logger.Error("Reciprocal write failed, edge left asymmetric",
			zap.String("operation", op),
			zap.String("fromID", fromID.String()),
			zap.String("toID", toID.String()),
			zap.Error(err),
		)
		if add {
			return apperrors.NewInconsistentEdgeError(fromID.String(), toID.String(), err)
		}
		return apperrors.NewStaleReciprocalError(fromID.String(), toID.String(), err)
	}

	span.SetAttributes(attribute.Bool("edge.changed", changed))
	if !changed {
		span.SetStatus(codes.Ok, "")
		return nil
	}

	s.logger.Debug("Edge updated",
		zap.String("operation", op),
		zap.String("fromID", fromID.String()),
		zap.String("toID", toID.String()),
	)

	actor := actorFromContext(ctx)
	if add {
		s.publish(ctx, events.NewDependencyAdded(fromID, toID, actor, s.now()))
	} else {
		s.publish(ctx, events.NewDependencyRemoved(fromID, toID, actor, s.now()))
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *DependencyGraphService) writeSet(ctx context.Context, itemID valueobjects.ItemID, key string, set valueobjects.IDSet) (valueobjects.IDSet, error) {
	if itemID.IsZero() {
		return valueobjects.IDSet{}, apperrors.NewValidationError("item id is required")
	}

	unlock, err := s.lock(ctx, itemID)
	if err != nil {
		return valueobjects.IDSet{}, err
	}
	defer unlock()

	if err := s.putSet(ctx, itemID, key, set); err != nil {
		return valueobjects.IDSet{}, err
	}
	return set, nil
}

func (s *DependencyGraphService) readSet(ctx context.Context, itemID valueobjects.ItemID, key string) (valueobjects.IDSet, error) {
	values, found, err := s.store.Get(ctx, ports.SharedSlot(itemID.String(), key))
	if err != nil {
		return valueobjects.IDSet{}, storeError("get "+key, err)
	}
	return valueobjects.NewIDSetFromStrings(valueobjects.OrEmpty(values, found)), nil
}

func (s *DependencyGraphService) putSet(ctx context.Context, itemID valueobjects.ItemID, key string, set valueobjects.IDSet) error {
	if err := s.store.Put(ctx, ports.SharedSlot(itemID.String(), key), set.Strings()); err != nil {
		return storeError("put "+key, err)
	}
	return nil
}

func (s *DependencyGraphService) lock(ctx context.Context, ids ...valueobjects.ItemID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	unlock, err := s.locker.Lock(ctx, raw...)
	if err != nil {
		return nil, apperrors.NewConflictError("items are being modified by another request").
			WithCode("LOCK_UNAVAILABLE").
			WithCause(err)
	}
	return unlock, nil
}

func (s *DependencyGraphService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateID", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}

// validateEdge rejects self-loops on add only, so legacy ones can be removed
func validateEdge(fromID, toID valueobjects.ItemID, add bool) error {
	if fromID.IsZero() || toID.IsZero() {
		return apperrors.NewValidationError("both item ids are required")
	}
	if add && fromID == toID {
		return apperrors.ErrSelfReference.WithDetail("item_id", fromID.String())
	}
	return nil
}

// storeError normalizes store failures to StoreUnavailable, keeping ones
// that already are (the resilient decorator classifies its own).
func storeError(operation string, err error) error {
	if apperrors.IsStoreUnavailable(err) {
		return err
	}
	return apperrors.NewStoreUnavailableError(operation, fmt.Errorf("relation store: %w", err))
}

func actorFromContext(ctx context.Context) string {
	if userID, ok := common.GetUserID(ctx); ok {
		return userID
	}
	return ""
}
