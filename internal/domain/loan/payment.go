package loan

import (
	"time"

	"github.com/shopspring/decimal"

	"lendledger/internal/pkg/identifier"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type PaymentType string

// Only interest payments are ever produced today. The type stays on the row so
// other categories can be added without a schema change.
const PaymentTypeInterest PaymentType = "interest"

type Payment struct {
	ID     string `json:"id"`
	LoanID string `json:"loanId"`
	// CustomerID is denormalized from the owning loan at creation time; the
	// loan remains the source of truth for ownership.
	CustomerID  string          `json:"customerId"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"dueDate"`
	PaymentDate *time.Time      `json:"paymentDate,omitempty"`
	Status      PaymentStatus   `json:"status"`
	Type        PaymentType     `json:"type"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func NewPayment(loanID, customerID string, amount decimal.Decimal, dueDate time.Time) *Payment {
	return &Payment{
		ID:         identifier.NewPaymentID(),
		LoanID:     loanID,
		CustomerID: customerID,
		Amount:     amount,
		DueDate:    dueDate,
		Status:     PaymentStatusPending,
		Type:       PaymentTypeInterest,
		CreatedAt:  time.Now().UTC(),
	}
}

// Record marks a pending payment as paid. Status and payment date change
// together; the amount may be corrected at recording time.
func (p *Payment) Record(amount decimal.Decimal, paymentDate time.Time) {
	p.Amount = amount
	p.PaymentDate = &paymentDate
	p.Status = PaymentStatusPaid
}

func (p *Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}
