package event

import (
	"time"

	"github.com/google/uuid"
)

type BaseEvent struct {
	EventID     string    `json:"eventId"`
	AggregateID int64     `json:"aggregateId"`
	CreatedAt   time.Time `json:"createdAt"`
	EventType   EventType `json:"eventType"`
}

func NewBaseEvent(eventType EventType, aggregateID int64) BaseEvent {
	return BaseEvent{
		EventID:     uuid.New().String(),
		AggregateID: aggregateID,
		CreatedAt:   time.Now().UTC(),
		EventType:   eventType,
	}
}

func (e *BaseEvent) GetID() string {
	return e.EventID
}

func (e *BaseEvent) GetAggregateID() int64 {
	return e.AggregateID
}

func (e *BaseEvent) Type() EventType {
	return e.EventType
}

type EventType string

const (
	OrderCreatedEventName     EventType = "OrderCreated"
	OrderUpdatedEventName     EventType = "OrderUpdated"
	OrderDeletedEventName     EventType = "OrderDeleted"
	OrderLineAddedEventName   EventType = "OrderLineAdded"
	OrderLineUpdatedEventName EventType = "OrderLineUpdated"
	OrderLineRemovedEventName EventType = "OrderLineRemoved"
)

type Event interface {
	Type() EventType
	GetID() string
	GetAggregateID() int64
}
