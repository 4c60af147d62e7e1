package observability

import (
	"context"
	"time"

	"carddeps/application/ports"
	"carddeps/domain/events"
)

// InstrumentedStore is a decorator that records metrics for every store call
type InstrumentedStore struct {
	inner   ports.RelationStore
	metrics *Collector
}

// NewInstrumentedStore wraps inner with store metrics
func NewInstrumentedStore(inner ports.RelationStore, metrics *Collector) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, metrics: metrics}
}

func (s *InstrumentedStore) Get(ctx context.Context, key ports.SlotKey) ([]string, bool, error) {
	start := time.Now()
	values, found, err := s.inner.Get(ctx, key)
	s.metrics.ObserveStore("get", key.Key, err, time.Since(start))
	return values, found, err
}

func (s *InstrumentedStore) Put(ctx context.Context, key ports.SlotKey, values []string) error {
	start := time.Now()
	err := s.inner.Put(ctx, key, values)
	s.metrics.ObserveStore("put", key.Key, err, time.Since(start))
	return err
}

// Ping delegates to the inner store when it supports health checks
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	if hc, ok := s.inner.(ports.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}

// InstrumentedPublisher counts published events by type
type InstrumentedPublisher struct {
	inner   ports.EventPublisher
	metrics *Collector
}

// NewInstrumentedPublisher wraps inner with event metrics
func NewInstrumentedPublisher(inner ports.EventPublisher, metrics *Collector) *InstrumentedPublisher {
	return &InstrumentedPublisher{inner: inner, metrics: metrics}
}

func (p *InstrumentedPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	err := p.inner.Publish(ctx, event)
	p.metrics.Events.WithLabelValues(event.GetEventType(), statusLabel(err)).Inc()
	return err
}

func (p *InstrumentedPublisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	err := p.inner.PublishBatch(ctx, domainEvents)
	for _, event := range domainEvents {
		p.metrics.Events.WithLabelValues(event.GetEventType(), statusLabel(err)).Inc()
	}
	return err
}
