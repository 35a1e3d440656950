package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"lendledger/internal/domain/loan"
)

const dateLayout = "2006-01-02"

type CreateLoanRequest struct {
	CustomerID   string          `json:"customerId" validate:"required"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	InterestRate decimal.Decimal `json:"interestRate" validate:"required"`
	StartDate    string          `json:"startDate" validate:"required,datetime=2006-01-02"`
}

func (r *CreateLoanRequest) Validate() error {
	return checkStruct(r)
}

func (r *CreateLoanRequest) ParsedStartDate() time.Time {
	t, _ := time.Parse(dateLayout, r.StartDate)
	return t
}

type UpdateLoanRequest struct {
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	InterestRate decimal.Decimal `json:"interestRate" validate:"required"`
	StartDate    string          `json:"startDate" validate:"required,datetime=2006-01-02"`
	Status       string          `json:"status" validate:"required,oneof=ongoing fully_paid"`
}

func (r *UpdateLoanRequest) Validate() error {
	return checkStruct(r)
}

func (r *UpdateLoanRequest) ParsedStartDate() time.Time {
	t, _ := time.Parse(dateLayout, r.StartDate)
	return t
}

type LoanResponse struct {
	ID              string    `json:"id"`
	CustomerID      string    `json:"customerId"`
	Amount          string    `json:"amount"`
	InterestRate    string    `json:"interestRate"`
	MonthlyInterest string    `json:"monthlyInterest"`
	StartDate       string    `json:"startDate"`
	Status          string    `json:"status"`
	DerivedStatus   string    `json:"derivedStatus,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	if l == nil {
		return LoanResponse{}
	}
	return LoanResponse{
		ID:              l.ID,
		CustomerID:      l.CustomerID,
		Amount:          l.Amount.StringFixed(2),
		InterestRate:    l.InterestRate.String(),
		MonthlyInterest: l.MonthlyInterest().StringFixed(2),
		StartDate:       l.StartDate.Format(dateLayout),
		Status:          string(l.Status),
		CreatedAt:       l.CreatedAt,
	}
}

func NewLoanWithStatusResponse(ls *loan.LoanWithStatus) LoanResponse {
	if ls == nil {
		return LoanResponse{}
	}
	resp := NewLoanResponse(ls.Loan)
	resp.DerivedStatus = string(ls.DerivedStatus)
	return resp
}
