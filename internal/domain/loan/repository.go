package loan

import (
	"context"
	"errors"
	"time"
)

var (
	ErrLoanNotFound    = errors.New("loan not found")
	ErrPaymentNotFound = errors.New("payment not found")
)

// DueFilter selects which slice of the payment ledger a due-payments query
// returns.
type DueFilter string

const (
	DueFilterAll      DueFilter = "all"
	DueFilterToday    DueFilter = "due_today"
	DueFilterThisWeek DueFilter = "this_week"
	DueFilterOverdue  DueFilter = "overdue"
	DueFilterPaid     DueFilter = "paid"
)

func (f DueFilter) Valid() bool {
	switch f {
	case DueFilterAll, DueFilterToday, DueFilterThisWeek, DueFilterOverdue, DueFilterPaid:
		return true
	}
	return false
}

type LoanRepository interface {
	Create(ctx context.Context, l *Loan) error

	Update(ctx context.Context, l *Loan) error

	FindByID(ctx context.Context, loanID string) (*Loan, error)

	FindAll(ctx context.Context) ([]*Loan, error)

	FindByCustomerID(ctx context.Context, customerID string) ([]*Loan, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error

	Update(ctx context.Context, p *Payment) error

	FindByID(ctx context.Context, paymentID string) (*Payment, error)

	FindByLoanID(ctx context.Context, loanID string) ([]*Payment, error)

	FindAll(ctx context.Context) ([]*Payment, error)

	// FindDue applies the due-date filter relative to now, ordered by due date
	// ascending.
	FindDue(ctx context.Context, filter DueFilter, now time.Time) ([]*Payment, error)

	// CountOverdue returns the number of pending payments with a due date
	// strictly before now.
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
}
