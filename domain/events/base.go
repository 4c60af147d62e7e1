package events

import (
	"time"

	"carddeps/domain/core/valueobjects"
)

// SourceService identifies this service as the event source
const SourceService = "carddeps.dependencies"

// Event types
const (
	TypeDependencyAdded   = "dependency.added"
	TypeDependencyRemoved = "dependency.removed"
	TypeEdgesRepaired     = "dependency.repaired"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// DependencyAdded is raised once both sides of a new edge are stored
type DependencyAdded struct {
	BaseEvent
	FromID valueobjects.ItemID `json:"from_id"`
	ToID   valueobjects.ItemID `json:"to_id"`
	Actor  string              `json:"actor,omitempty"`
}

// NewDependencyAdded creates a DependencyAdded event
func NewDependencyAdded(fromID, toID valueobjects.ItemID, actor string, timestamp time.Time) DependencyAdded {
	return DependencyAdded{
		BaseEvent: BaseEvent{
			AggregateID: fromID.String(),
			EventType:   TypeDependencyAdded,
			Timestamp:   timestamp,
			Version:     1,
		},
		FromID: fromID,
		ToID:   toID,
		Actor:  actor,
	}
}

// DependencyRemoved is raised once both sides of an edge are cleared
type DependencyRemoved struct {
	BaseEvent
	FromID valueobjects.ItemID `json:"from_id"`
	ToID   valueobjects.ItemID `json:"to_id"`
	Actor  string              `json:"actor,omitempty"`
}

// NewDependencyRemoved creates a DependencyRemoved event
func NewDependencyRemoved(fromID, toID valueobjects.ItemID, actor string, timestamp time.Time) DependencyRemoved {
	return DependencyRemoved{
		BaseEvent: BaseEvent{
			AggregateID: fromID.String(),
			EventType:   TypeDependencyRemoved,
			Timestamp:   timestamp,
			Version:     1,
		},
		FromID: fromID,
		ToID:   toID,
		Actor:  actor,
	}
}

// EdgesRepaired is raised when reconciliation changed stored edges of an item
type EdgesRepaired struct {
	BaseEvent
	ItemID  valueobjects.ItemID `json:"item_id"`
	Repairs []string            `json:"repairs"`
}

// NewEdgesRepaired creates an EdgesRepaired event
func NewEdgesRepaired(itemID valueobjects.ItemID, repairs []string, timestamp time.Time) EdgesRepaired {
	return EdgesRepaired{
		BaseEvent: BaseEvent{
			AggregateID: itemID.String(),
			EventType:   TypeEdgesRepaired,
			Timestamp:   timestamp,
			Version:     1,
		},
		ItemID:  itemID,
		Repairs: repairs,
	}
}
