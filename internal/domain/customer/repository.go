package customer

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("customer not found")

// CascadeResult reports what a customer cascade delete removed.
type CascadeResult struct {
	PaymentsDeleted int64
	LoansDeleted    int64
}

type Repository interface {
	Create(ctx context.Context, cust *Customer) error

	Update(ctx context.Context, cust *Customer) error

	FindByID(ctx context.Context, customerID string) (*Customer, error)

	FindAll(ctx context.Context, activeOnly bool) ([]*Customer, error)

	// DeleteCascade removes the customer's payments (by owning loan and by the
	// denormalized customer tag), then its loans, then the customer itself,
	// all inside a single transaction.
	DeleteCascade(ctx context.Context, customerID string) (CascadeResult, error)

	SetStatus(ctx context.Context, customerID string, status Status) error
}
