package services

import (
	"context"
	"errors"
	"sync"

	"carddeps/application/ports"
	"carddeps/domain/core/valueobjects"
	"carddeps/domain/events"
)

var errInjected = errors.New("injected store failure")

// faultyStore wraps a store and fails the operations its predicates match
type faultyStore struct {
	ports.RelationStore
	failGet func(key ports.SlotKey) bool
	failPut func(key ports.SlotKey, values []string) bool
}

func (s *faultyStore) Get(ctx context.Context, key ports.SlotKey) ([]string, bool, error) {
	if s.failGet != nil && s.failGet(key) {
		return nil, false, errInjected
	}
	return s.RelationStore.Get(ctx, key)
}

func (s *faultyStore) Put(ctx context.Context, key ports.SlotKey, values []string) error {
	if s.failPut != nil && s.failPut(key, values) {
		return errInjected
	}
	return s.RelationStore.Put(ctx, key, values)
}

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, e := range batch {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.GetEventType()
	}
	return out
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func ids(raw ...string) []valueobjects.ItemID {
	out := make([]valueobjects.ItemID, len(raw))
	for i, r := range raw {
		out[i] = valueobjects.ItemID(r)
	}
	return out
}
