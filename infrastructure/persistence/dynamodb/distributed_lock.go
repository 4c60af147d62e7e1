package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// lockTimeFormat is fixed width so stored timestamps compare as strings
const lockTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrLockHeld is returned when another owner holds an unexpired lock
var ErrLockHeld = errors.New("lock already held")

// DistributedLock serializes item writes across processes using DynamoDB
// conditional writes. It implements ports.ItemLocker.
type DistributedLock struct {
	client       API
	tableName    string
	owner        string
	lockDuration time.Duration
	waitTimeout  time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewDistributedLock creates a new distributed lock instance
func NewDistributedLock(client API, tableName string, lockDuration, waitTimeout time.Duration, logger *zap.Logger) *DistributedLock {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DistributedLock{
		client:       client,
		tableName:    tableName,
		owner:        uuid.NewString(),
		lockDuration: lockDuration,
		waitTimeout:  waitTimeout,
		logger:       logger,
		now:          time.Now,
	}
}

// Lock acquires every item lock in sorted order. On failure the locks
// already taken are released.
func (dl *DistributedLock) Lock(ctx context.Context, itemIDs ...string) (func(), error) {
	ids := append([]string(nil), itemIDs...)
	sort.Strings(ids)

	held := make([]heldLock, 0, len(ids))
	release := func() {
		// Release with a fresh context: the request context may be done
		relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := dl.releaseLock(relCtx, held[i]); err != nil {
				dl.logger.Warn("Failed to release lock",
					zap.String("resource", held[i].resource),
					zap.Error(err),
				)
			}
		}
	}

	var prev string
	for _, id := range ids {
		if id == "" || id == prev {
			continue
		}
		prev = id

		lock, err := dl.tryAcquireLock(ctx, id)
		if err != nil {
			release()
			return nil, err
		}
		held = append(held, lock)
	}

	return release, nil
}

type heldLock struct {
	resource string
	lockID   string
}

// acquireLock attempts a single conditional put of the lock record
func (dl *DistributedLock) acquireLock(ctx context.Context, resource string) (heldLock, error) {
	now := dl.now().UTC()
	expiresAt := now.Add(dl.lockDuration)
	lockID := uuid.NewString()

	cond := expression.AttributeNotExists(expression.Name("PK")).
		Or(expression.Name("ExpiresAt").LessThan(expression.Value(now.Format(lockTimeFormat))))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return heldLock{}, fmt.Errorf("failed to build lock condition: %w", err)
	}

	_, err = dl.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(dl.tableName),
		Item: map[string]types.AttributeValue{
			"PK":         &types.AttributeValueMemberS{Value: lockPK(resource)},
			"SK":         &types.AttributeValueMemberS{Value: "LOCK"},
			"LockID":     &types.AttributeValueMemberS{Value: lockID},
			"Owner":      &types.AttributeValueMemberS{Value: dl.owner},
			"AcquiredAt": &types.AttributeValueMemberS{Value: now.Format(lockTimeFormat)},
			"ExpiresAt":  &types.AttributeValueMemberS{Value: expiresAt.Format(lockTimeFormat)},
			"TTL":        &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt.Unix(), 10)},
		},
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			return heldLock{}, ErrLockHeld
		}
		return heldLock{}, fmt.Errorf("failed to acquire lock: %w", err)
	}

	dl.logger.Debug("Lock acquired",
		zap.String("resource", resource),
		zap.String("lockID", lockID),
	)
	return heldLock{resource: resource, lockID: lockID}, nil
}

// tryAcquireLock retries acquireLock with backoff until waitTimeout
func (dl *DistributedLock) tryAcquireLock(ctx context.Context, resource string) (heldLock, error) {
	deadline := dl.now().Add(dl.waitTimeout)
	retryInterval := 50 * time.Millisecond

	for {
		lock, err := dl.acquireLock(ctx, resource)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, ErrLockHeld) {
			return heldLock{}, err
		}
		if !dl.now().Before(deadline) {
			return heldLock{}, fmt.Errorf("timeout acquiring lock for %s: %w", resource, ErrLockHeld)
		}

		select {
		case <-ctx.Done():
			return heldLock{}, ctx.Err()
		case <-time.After(retryInterval):
			if retryInterval < time.Second {
				retryInterval = time.Duration(float64(retryInterval) * 1.5)
			}
		}
	}
}

// releaseLock deletes the lock record if this owner still holds it
func (dl *DistributedLock) releaseLock(ctx context.Context, lock heldLock) error {
	cond := expression.Name("LockID").Equal(expression.Value(lock.lockID)).
		And(expression.Name("Owner").Equal(expression.Value(dl.owner)))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build release condition: %w", err)
	}

	_, err = dl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(dl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lockPK(lock.resource)},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			// Expired and taken over, nothing left to release
			return nil
		}
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

func lockPK(resource string) string {
	return "LOCK#ITEM#" + resource
}
