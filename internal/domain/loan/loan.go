package loan

import (
	"time"

	"github.com/shopspring/decimal"

	"lendledger/internal/pkg/identifier"
)

type Status string

const (
	StatusOngoing   Status = "ongoing"
	StatusFullyPaid Status = "fully_paid"
)

// DerivedStatus is the classification shown to the operator. It is computed
// from the loan row and its payments, never stored.
type DerivedStatus string

const (
	DerivedFullyPaid DerivedStatus = "Fully Paid"
	DerivedOverdue   DerivedStatus = "Overdue"
	DerivedActive    DerivedStatus = "Active"
)

type Loan struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customerId"`
	Amount     decimal.Decimal `json:"amount"`
	// InterestRate is percent per month, e.g. 2.5 means 2.5%.
	InterestRate decimal.Decimal `json:"interestRate"`
	StartDate    time.Time       `json:"startDate"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func NewLoan(customerID string, amount, interestRate decimal.Decimal, startDate time.Time) *Loan {
	return &Loan{
		ID:           identifier.NewLoanID(),
		CustomerID:   customerID,
		Amount:       amount,
		InterestRate: interestRate,
		StartDate:    startDate,
		Status:       StatusOngoing,
		CreatedAt:    time.Now().UTC(),
	}
}

func (l *Loan) Close() {
	l.Status = StatusFullyPaid
}

func (l *Loan) IsClosed() bool {
	return l.Status == StatusFullyPaid
}

// MonthlyInterest returns principal * rate / 100 with no rounding applied.
// Display formatting owns rounding to two decimal places.
func MonthlyInterest(principal, ratePercent decimal.Decimal) decimal.Decimal {
	return principal.Mul(ratePercent).Div(decimal.NewFromInt(100))
}

func (l *Loan) MonthlyInterest() decimal.Decimal {
	return MonthlyInterest(l.Amount, l.InterestRate)
}

// TotalInterestPaid sums the amounts of paid payments; anything not yet paid
// contributes zero. Order-independent.
func TotalInterestPaid(payments []*Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Status == PaymentStatusPaid {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// NextDueDate rolls a due date forward by exactly one calendar month using
// Go's AddDate normalization: Jan 31 + 1 month overflows into early March
// rather than clamping to Feb 28/29. This matches the date arithmetic of the
// rows already in the store.
func NextDueDate(after time.Time) time.Time {
	return after.AddDate(0, 1, 0)
}

// NextPaymentDueDate picks the base date for the derived next payment: the
// latest existing due date, or the loan start date when no payments exist yet.
func (l *Loan) NextPaymentDueDate(payments []*Payment) time.Time {
	base := l.StartDate
	for _, p := range payments {
		if p.DueDate.After(base) {
			base = p.DueDate
		}
	}
	return NextDueDate(base)
}

// DeriveStatus classifies a loan. The stored fully_paid status short-circuits
// everything else; only pending payments already past due trigger Overdue.
func DeriveStatus(l *Loan, payments []*Payment, now time.Time) DerivedStatus {
	if l.Status == StatusFullyPaid {
		return DerivedFullyPaid
	}
	for _, p := range payments {
		if p.Status == PaymentStatusPending && p.DueDate.Before(now) {
			return DerivedOverdue
		}
	}
	return DerivedActive
}
