package customer

import (
	"time"

	"lendledger/internal/pkg/identifier"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Customer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Mobile      string    `json:"mobile,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewCustomer(name, description, mobile string) *Customer {
	return &Customer{
		ID:          identifier.NewCustomerID(),
		Name:        name,
		Description: description,
		Mobile:      mobile,
		Status:      StatusActive,
		CreatedAt:   time.Now().UTC(),
	}
}

func (c *Customer) Deactivate() {
	c.Status = StatusInactive
}

func (c *Customer) Reactivate() {
	c.Status = StatusActive
}

func (c *Customer) IsActive() bool {
	return c.Status == StatusActive
}
