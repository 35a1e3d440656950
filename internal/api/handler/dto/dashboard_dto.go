package dto

import (
	"time"

	"lendledger/internal/domain/dashboard"
)

type DashboardSummaryResponse struct {
	Month             string    `json:"month,omitempty"`
	TotalLoansGiven   string    `json:"totalLoansGiven"`
	InterestCollected string    `json:"interestCollected"`
	ActiveLoans       int       `json:"activeLoans"`
	CompletedLoans    int       `json:"completedLoans"`
	OverduePayments   int       `json:"overduePayments"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

func NewDashboardSummaryResponse(s *dashboard.Summary) DashboardSummaryResponse {
	if s == nil {
		return DashboardSummaryResponse{}
	}
	return DashboardSummaryResponse{
		Month:             s.Month,
		TotalLoansGiven:   s.TotalLoansGiven.StringFixed(2),
		InterestCollected: s.InterestCollected.StringFixed(2),
		ActiveLoans:       s.ActiveLoans,
		CompletedLoans:    s.CompletedLoans,
		OverduePayments:   s.OverduePayments,
		GeneratedAt:       s.GeneratedAt,
	}
}

type MonthlyInterestResponse struct {
	Month             string `json:"month"`
	InterestCollected string `json:"interestCollected"`
}

func NewMonthlyInterestResponse(points []dashboard.MonthlyInterestPoint) []MonthlyInterestResponse {
	resp := make([]MonthlyInterestResponse, len(points))
	for i, p := range points {
		resp[i] = MonthlyInterestResponse{
			Month:             p.Month,
			InterestCollected: p.InterestCollected.StringFixed(2),
		}
	}
	return resp
}
