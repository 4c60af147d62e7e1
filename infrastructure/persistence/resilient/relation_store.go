package resilient

import (
	"context"
	"errors"
	"time"

	"carddeps/application/ports"
	apperrors "carddeps/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig holds configuration for the store circuit breaker
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio that trips the breaker
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the circuit breaker
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// RelationStore guards another store with a circuit breaker. Every failure,
// including a rejected call while the breaker is open, is reported as
// StoreUnavailable.
type RelationStore struct {
	next   ports.RelationStore
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewRelationStore wraps next with a circuit breaker
func NewRelationStore(next ports.RelationStore, config BreakerConfig, logger *zap.Logger) *RelationStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up says nothing about store health
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &RelationStore{next: next, cb: cb, logger: logger}
}

type getResult struct {
	values []string
	found  bool
}

// Get reads through the breaker
func (s *RelationStore) Get(ctx context.Context, key ports.SlotKey) ([]string, bool, error) {
	if err := key.Validate(); err != nil {
		return nil, false, apperrors.NewValidationError(err.Error())
	}

	out, err := s.cb.Execute(func() (interface{}, error) {
		values, found, err := s.next.Get(ctx, key)
		return getResult{values: values, found: found}, err
	})
	if err != nil {
		return nil, false, s.unavailable("get", err)
	}
	res := out.(getResult)
	return res.values, res.found, nil
}

// Put writes through the breaker
func (s *RelationStore) Put(ctx context.Context, key ports.SlotKey, values []string) error {
	if err := key.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Put(ctx, key, values)
	})
	if err != nil {
		return s.unavailable("put", err)
	}
	return nil
}

// State exposes the breaker state for readiness checks
func (s *RelationStore) State() gobreaker.State {
	return s.cb.State()
}

// Ping reports an open breaker, then delegates when the inner store can ping
func (s *RelationStore) Ping(ctx context.Context) error {
	if s.cb.State() == gobreaker.StateOpen {
		return apperrors.NewStoreUnavailableError("ping", gobreaker.ErrOpenState)
	}
	if hc, ok := s.next.(ports.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}

func (s *RelationStore) unavailable(op string, err error) error {
	if apperrors.IsStoreUnavailable(err) {
		return err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		s.logger.Debug("Store call rejected by circuit breaker",
			zap.String("operation", op),
			zap.Error(err),
		)
	}
	return apperrors.NewStoreUnavailableError(op, err)
}
