package event

import (
	"context"
	"time"
)

type EntityType string

const (
	EntityCustomer EntityType = "customer"
	EntityLoan     EntityType = "loan"
	EntityPayment  EntityType = "payment"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// EntityChangedEvent is emitted after a confirmed mutation. Consumers must not
// assume ordering across entities; the payload carries identifiers only.
type EntityChangedEvent struct {
	Entity     EntityType `json:"entity"`
	Action     Action     `json:"action"`
	EntityID   string     `json:"entityId"`
	CustomerID string     `json:"customerId,omitempty"`
	LoanID     string     `json:"loanId,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

type Publisher interface {
	PublishEntityChanged(ctx context.Context, evt EntityChangedEvent) error
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

var _ Publisher = (*NoopPublisher)(nil)

func (NoopPublisher) PublishEntityChanged(context.Context, EntityChangedEvent) error {
	return nil
}

func NewEntityChanged(entity EntityType, action Action, entityID string) EntityChangedEvent {
	return EntityChangedEvent{
		Entity:    entity,
		Action:    action,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}
