package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"lendledger/internal/domain/loan"
)

type CreatePaymentRequest struct {
	LoanID  string          `json:"loanId" validate:"required"`
	Amount  decimal.Decimal `json:"amount" validate:"required"`
	DueDate string          `json:"dueDate" validate:"required,datetime=2006-01-02"`
	// PaymentDate set means the entry is recorded as already paid.
	PaymentDate string `json:"paymentDate" validate:"omitempty,datetime=2006-01-02"`
}

func (r *CreatePaymentRequest) Validate() error {
	return checkStruct(r)
}

func (r *CreatePaymentRequest) ParsedDueDate() time.Time {
	t, _ := time.Parse(dateLayout, r.DueDate)
	return t
}

func (r *CreatePaymentRequest) ParsedPaymentDate() *time.Time {
	if r.PaymentDate == "" {
		return nil
	}
	t, _ := time.Parse(dateLayout, r.PaymentDate)
	return &t
}

type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	PaymentDate string          `json:"paymentDate" validate:"required,datetime=2006-01-02"`
}

func (r *RecordPaymentRequest) Validate() error {
	return checkStruct(r)
}

func (r *RecordPaymentRequest) ParsedPaymentDate() time.Time {
	t, _ := time.Parse(dateLayout, r.PaymentDate)
	return t
}

type UpdatePaymentRequest struct {
	Amount  decimal.Decimal `json:"amount" validate:"required"`
	DueDate string          `json:"dueDate" validate:"required,datetime=2006-01-02"`
	Type    string          `json:"type" validate:"omitempty,oneof=interest"`
}

func (r *UpdatePaymentRequest) Validate() error {
	return checkStruct(r)
}

func (r *UpdatePaymentRequest) ParsedDueDate() time.Time {
	t, _ := time.Parse(dateLayout, r.DueDate)
	return t
}

type PaymentResponse struct {
	ID          string    `json:"id"`
	LoanID      string    `json:"loanId"`
	CustomerID  string    `json:"customerId"`
	Amount      string    `json:"amount"`
	DueDate     string    `json:"dueDate"`
	PaymentDate *string   `json:"paymentDate,omitempty"`
	Status      string    `json:"status"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewPaymentResponse(p *loan.Payment) PaymentResponse {
	if p == nil {
		return PaymentResponse{}
	}
	resp := PaymentResponse{
		ID:         p.ID,
		LoanID:     p.LoanID,
		CustomerID: p.CustomerID,
		Amount:     p.Amount.StringFixed(2),
		DueDate:    p.DueDate.Format(dateLayout),
		Status:     string(p.Status),
		Type:       string(p.Type),
		CreatedAt:  p.CreatedAt,
	}
	if p.PaymentDate != nil {
		d := p.PaymentDate.Format(dateLayout)
		resp.PaymentDate = &d
	}
	return resp
}
