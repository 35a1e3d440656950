package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"lendledger/internal/domain/loan"
	"lendledger/internal/pkg/apperrors"
)

// Summary holds the headline dashboard figures. Month is empty when the
// interest figure covers all time.
type Summary struct {
	Month             string          `json:"month,omitempty"`
	TotalLoansGiven   decimal.Decimal `json:"totalLoansGiven"`
	InterestCollected decimal.Decimal `json:"interestCollected"`
	ActiveLoans       int             `json:"activeLoans"`
	CompletedLoans    int             `json:"completedLoans"`
	OverduePayments   int             `json:"overduePayments"`
	GeneratedAt       time.Time       `json:"generatedAt"`
}

// MonthlyInterestPoint is one bar of the interest-by-month chart.
type MonthlyInterestPoint struct {
	Month             string          `json:"month"`
	InterestCollected decimal.Decimal `json:"interestCollected"`
}

type Service interface {
	// Summary aggregates the headline figures; month ("YYYY-MM") restricts the
	// interest-collected figure to payments recorded in that month.
	Summary(ctx context.Context, month string) (*Summary, error)
	// MonthlyInterestSeries buckets paid amounts by payment month, ascending.
	MonthlyInterestSeries(ctx context.Context) ([]MonthlyInterestPoint, error)
}

// SummaryCache is the cache-aside port for the headline figures.
type SummaryCache interface {
	GetSummary(ctx context.Context, month string) (*Summary, bool, error)
	SetSummary(ctx context.Context, month string, s *Summary) error
	InvalidateSummary(ctx context.Context) error
}

var _ Service = (*service)(nil)

type service struct {
	loans    loan.LoanRepository
	payments loan.PaymentRepository
	cache    SummaryCache
	logger   *slog.Logger
}

func NewService(loans loan.LoanRepository, payments loan.PaymentRepository, cache SummaryCache, logger *slog.Logger) Service {
	if loans == nil || payments == nil {
		panic("dashboard service dependencies cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to dashboard.NewService, using default stderr handler")
	}
	return &service{
		loans:    loans,
		payments: payments,
		cache:    cache,
		logger:   logger.With(slog.String("component", "dashboardService")),
	}
}

func (s *service) Summary(ctx context.Context, month string) (*Summary, error) {
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			return nil, apperrors.NewValidationError("month", "month must be in YYYY-MM format")
		}
	}

	if s.cache != nil {
		cached, ok, err := s.cache.GetSummary(ctx, month)
		if err != nil {
			s.logger.WarnContext(ctx, "Dashboard cache read failed, falling back to store", slog.Any("error", err))
		} else if ok {
			s.logger.DebugContext(ctx, "Dashboard summary served from cache", slog.String("month", month))
			return cached, nil
		}
	}

	loans, err := s.loans.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load loans for summary: %w", err)
	}
	payments, err := s.payments.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments for summary: %w", err)
	}

	summary := buildSummary(loans, payments, month, time.Now())

	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, month, summary); err != nil {
			s.logger.WarnContext(ctx, "Dashboard cache write failed", slog.Any("error", err))
		}
	}

	return summary, nil
}

func (s *service) MonthlyInterestSeries(ctx context.Context) ([]MonthlyInterestPoint, error) {
	payments, err := s.payments.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments for series: %w", err)
	}
	return buildMonthlySeries(payments), nil
}

func buildSummary(loans []*loan.Loan, payments []*loan.Payment, month string, now time.Time) *Summary {
	summary := &Summary{
		Month:             month,
		TotalLoansGiven:   decimal.Zero,
		InterestCollected: decimal.Zero,
		GeneratedAt:       now.UTC(),
	}

	for _, l := range loans {
		summary.TotalLoansGiven = summary.TotalLoansGiven.Add(l.Amount)
		switch l.Status {
		case loan.StatusOngoing:
			summary.ActiveLoans++
		case loan.StatusFullyPaid:
			summary.CompletedLoans++
		}
	}

	for _, p := range payments {
		if p.Status == loan.PaymentStatusPaid && p.PaymentDate != nil {
			if month == "" || p.PaymentDate.Format("2006-01") == month {
				summary.InterestCollected = summary.InterestCollected.Add(p.Amount)
			}
		}
		if p.Status == loan.PaymentStatusPending && p.DueDate.Before(now) {
			summary.OverduePayments++
		}
	}

	return summary
}

func buildMonthlySeries(payments []*loan.Payment) []MonthlyInterestPoint {
	buckets := make(map[string]decimal.Decimal)
	for _, p := range payments {
		if p.Status != loan.PaymentStatusPaid || p.PaymentDate == nil {
			continue
		}
		key := p.PaymentDate.Format("2006-01")
		buckets[key] = buckets[key].Add(p.Amount)
	}

	months := make([]string, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Strings(months)

	series := make([]MonthlyInterestPoint, 0, len(months))
	for _, m := range months {
		series = append(series, MonthlyInterestPoint{Month: m, InterestCollected: buckets[m]})
	}
	return series
}
