package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"lendledger/internal/domain/customer"
	"lendledger/internal/event"
	"lendledger/internal/pkg/apperrors"
)

type UpdateInput struct {
	Amount       decimal.Decimal
	InterestRate decimal.Decimal
	StartDate    time.Time
	Status       Status
}

// LoanWithStatus pairs a loan with its derived classification.
type LoanWithStatus struct {
	Loan          *Loan         `json:"loan"`
	DerivedStatus DerivedStatus `json:"derivedStatus"`
}

type Service interface {
	// Create rejects a loan for an unknown customer before any insert is
	// attempted.
	Create(ctx context.Context, customerID string, amount, interestRate decimal.Decimal, startDate time.Time) (*Loan, error)
	Get(ctx context.Context, loanID string) (*Loan, error)
	GetWithStatus(ctx context.Context, loanID string) (*LoanWithStatus, error)
	List(ctx context.Context) ([]*LoanWithStatus, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*LoanWithStatus, error)
	// Update persists amount, rate, start date and status. The fully_paid
	// status is one-way: reopening a closed loan is rejected.
	Update(ctx context.Context, loanID string, input UpdateInput) (*Loan, error)
	// Close forces the loan status to fully_paid.
	Close(ctx context.Context, loanID string) (*Loan, error)
}

// SummaryInvalidator drops cached dashboard aggregates after a confirmed write.
type SummaryInvalidator interface {
	InvalidateSummary(ctx context.Context) error
}

var _ Service = (*service)(nil)

type service struct {
	repo      LoanRepository
	payments  PaymentRepository
	customers customer.Service
	pub       event.Publisher
	cache     SummaryInvalidator
	logger    *slog.Logger
}

func NewService(
	repo LoanRepository,
	payments PaymentRepository,
	customers customer.Service,
	pub event.Publisher,
	cache SummaryInvalidator,
	logger *slog.Logger,
) Service {
	if repo == nil || payments == nil || customers == nil {
		panic("loan service dependencies cannot be nil")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to loan.NewService, using default stderr handler")
	}
	return &service{
		repo:      repo,
		payments:  payments,
		customers: customers,
		pub:       pub,
		cache:     cache,
		logger:    logger.With(slog.String("component", "loanService")),
	}
}

func (s *service) Create(ctx context.Context, customerID string, amount, interestRate decimal.Decimal, startDate time.Time) (*Loan, error) {
	s.logger.InfoContext(ctx, "Attempting to create loan", slog.String("customerID", customerID))

	if err := validateLoanTerms(amount, interestRate, startDate); err != nil {
		s.logger.WarnContext(ctx, "Loan term validation failed", slog.Any("error", err))
		return nil, err
	}

	// Referential pre-check: no insert is attempted for an unknown customer.
	if _, err := s.customers.Get(ctx, customerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Rejecting loan for unknown customer", slog.String("customerID", customerID))
			return nil, fmt.Errorf("%w: customer %s does not exist", apperrors.ErrNotFound, customerID)
		}
		return nil, fmt.Errorf("failed to verify customer %s: %w", customerID, err)
	}

	l := NewLoan(customerID, amount, interestRate, startDate)

	if err := s.repo.Create(ctx, l); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save new loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new loan: %w", err)
	}

	s.publishChange(ctx, event.ActionCreated, l)
	s.invalidateSummary(ctx)

	s.logger.InfoContext(ctx, "Successfully created loan", slog.String("loanID", l.ID))
	return l, nil
}

func (s *service) Get(ctx context.Context, loanID string) (*Loan, error) {
	l, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, ErrLoanNotFound) {
			s.logger.WarnContext(ctx, "Loan not found by repository", slog.String("loanID", loanID))
			return nil, fmt.Errorf("%w: loan %s", apperrors.ErrNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Repository error finding loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get loan %s: %w", loanID, err)
	}
	return l, nil
}

func (s *service) GetWithStatus(ctx context.Context, loanID string) (*LoanWithStatus, error) {
	l, err := s.Get(ctx, loanID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.FindByLoanID(ctx, loanID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error loading payments for status derivation", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load payments for loan %s: %w", loanID, err)
	}
	return &LoanWithStatus{Loan: l, DerivedStatus: DeriveStatus(l, payments, time.Now())}, nil
}

func (s *service) List(ctx context.Context) ([]*LoanWithStatus, error) {
	loans, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing loans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return s.withDerivedStatus(ctx, loans)
}

func (s *service) ListByCustomer(ctx context.Context, customerID string) ([]*LoanWithStatus, error) {
	loans, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customer loans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list loans for customer %s: %w", customerID, err)
	}
	return s.withDerivedStatus(ctx, loans)
}

func (s *service) withDerivedStatus(ctx context.Context, loans []*Loan) ([]*LoanWithStatus, error) {
	now := time.Now()
	result := make([]*LoanWithStatus, 0, len(loans))
	for _, l := range loans {
		payments, err := s.payments.FindByLoanID(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load payments for loan %s: %w", l.ID, err)
		}
		result = append(result, &LoanWithStatus{Loan: l, DerivedStatus: DeriveStatus(l, payments, now)})
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, loanID string, input UpdateInput) (*Loan, error) {
	s.logger.InfoContext(ctx, "Attempting to update loan", slog.String("loanID", loanID))

	if err := validateLoanTerms(input.Amount, input.InterestRate, input.StartDate); err != nil {
		s.logger.WarnContext(ctx, "Loan term validation failed", slog.Any("error", err))
		return nil, err
	}
	if input.Status != StatusOngoing && input.Status != StatusFullyPaid {
		return nil, apperrors.NewValidationError("status", "status must be 'ongoing' or 'fully_paid'")
	}

	l, err := s.Get(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if l.IsClosed() && input.Status == StatusOngoing {
		s.logger.WarnContext(ctx, "Rejecting attempt to reopen a fully paid loan", slog.String("loanID", loanID))
		return nil, fmt.Errorf("%w: loan %s cannot return to ongoing", apperrors.ErrLoanClosed, loanID)
	}

	l.Amount = input.Amount
	l.InterestRate = input.InterestRate
	l.StartDate = input.StartDate
	l.Status = input.Status

	if err := s.repo.Update(ctx, l); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to update loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to update loan %s: %w", loanID, err)
	}

	s.publishChange(ctx, event.ActionUpdated, l)
	s.invalidateSummary(ctx)

	s.logger.InfoContext(ctx, "Successfully updated loan", slog.String("loanID", l.ID))
	return l, nil
}

func (s *service) Close(ctx context.Context, loanID string) (*Loan, error) {
	s.logger.InfoContext(ctx, "Attempting to close loan", slog.String("loanID", loanID))

	l, err := s.Get(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if l.IsClosed() {
		return nil, fmt.Errorf("%w: loan %s", apperrors.ErrLoanClosed, loanID)
	}

	l.Close()
	if err := s.repo.Update(ctx, l); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to close loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to close loan %s: %w", loanID, err)
	}

	s.publishChange(ctx, event.ActionUpdated, l)
	s.invalidateSummary(ctx)

	s.logger.InfoContext(ctx, "Loan closed", slog.String("loanID", l.ID))
	return l, nil
}

func validateLoanTerms(amount, interestRate decimal.Decimal, startDate time.Time) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return apperrors.NewValidationError("amount", "amount must be greater than zero")
	}
	if interestRate.LessThanOrEqual(decimal.Zero) {
		return apperrors.NewValidationError("interestRate", "interest rate must be greater than zero")
	}
	if startDate.IsZero() {
		return apperrors.NewValidationError("startDate", "start date is required")
	}
	return nil
}

func (s *service) publishChange(ctx context.Context, action event.Action, l *Loan) {
	evt := event.NewEntityChanged(event.EntityLoan, action, l.ID)
	evt.CustomerID = l.CustomerID
	evt.LoanID = l.ID
	if err := s.pub.PublishEntityChanged(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish loan change event", slog.Any("error", err))
	}
}

func (s *service) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSummary(ctx); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate dashboard summary cache", slog.Any("error", err))
	}
}
