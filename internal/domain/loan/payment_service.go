package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"lendledger/internal/event"
	"lendledger/internal/pkg/apperrors"
)

type CreatePaymentInput struct {
	LoanID  string
	Amount  decimal.Decimal
	DueDate time.Time
	// PaymentDate marks the payment as already paid at creation time, the way
	// the operator back-fills historical entries.
	PaymentDate *time.Time
}

type UpdatePaymentInput struct {
	Amount  decimal.Decimal
	DueDate time.Time
	Type    PaymentType
}

type PaymentService interface {
	// Create rejects a payment for an unknown loan before any insert is
	// attempted and copies the loan's customer id onto the new row.
	Create(ctx context.Context, input CreatePaymentInput) (*Payment, error)
	Get(ctx context.Context, paymentID string) (*Payment, error)
	// Record transitions a pending payment to paid, setting the payment date
	// and status together. The amount may be corrected while recording.
	Record(ctx context.Context, paymentID string, amount decimal.Decimal, paymentDate time.Time) (*Payment, error)
	// Update corrects amount, due date or type of a payment that is still
	// pending. Status changes go through Record.
	Update(ctx context.Context, paymentID string, input UpdatePaymentInput) (*Payment, error)
	ListByLoan(ctx context.Context, loanID string) ([]*Payment, error)
	ListDue(ctx context.Context, filter DueFilter) ([]*Payment, error)
	// ScheduleNext creates the derived next interest payment for an ongoing
	// loan: one month after the latest due date (or the start date), amounting
	// to the loan's monthly interest.
	ScheduleNext(ctx context.Context, loanID string) (*Payment, error)
}

var _ PaymentService = (*paymentService)(nil)

type paymentService struct {
	repo   PaymentRepository
	loans  LoanRepository
	pub    event.Publisher
	cache  SummaryInvalidator
	logger *slog.Logger
}

func NewPaymentService(
	repo PaymentRepository,
	loans LoanRepository,
	pub event.Publisher,
	cache SummaryInvalidator,
	logger *slog.Logger,
) PaymentService {
	if repo == nil || loans == nil {
		panic("payment service dependencies cannot be nil")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to loan.NewPaymentService, using default stderr handler")
	}
	return &paymentService{
		repo:   repo,
		loans:  loans,
		pub:    pub,
		cache:  cache,
		logger: logger.With(slog.String("component", "paymentService")),
	}
}

func (s *paymentService) Create(ctx context.Context, input CreatePaymentInput) (*Payment, error) {
	s.logger.InfoContext(ctx, "Attempting to create payment", slog.String("loanID", input.LoanID))

	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.NewValidationError("amount", "amount must be greater than zero")
	}
	if input.DueDate.IsZero() {
		return nil, apperrors.NewValidationError("dueDate", "due date is required")
	}

	// Referential pre-check: the owning loan must exist locally before any
	// insert is attempted.
	l, err := s.loans.FindByID(ctx, input.LoanID)
	if err != nil {
		if errors.Is(err, ErrLoanNotFound) {
			s.logger.WarnContext(ctx, "Rejecting payment for unknown loan", slog.String("loanID", input.LoanID))
			return nil, fmt.Errorf("%w: loan %s does not exist", apperrors.ErrNotFound, input.LoanID)
		}
		return nil, fmt.Errorf("failed to verify loan %s: %w", input.LoanID, err)
	}

	p := NewPayment(l.ID, l.CustomerID, input.Amount, input.DueDate)
	if input.PaymentDate != nil {
		p.Record(input.Amount, *input.PaymentDate)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save new payment", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new payment: %w", err)
	}

	s.publishChange(ctx, event.ActionCreated, p)
	s.invalidateSummary(ctx)

	s.logger.InfoContext(ctx, "Successfully created payment", slog.String("paymentID", p.ID))
	return p, nil
}

func (s *paymentService) Get(ctx context.Context, paymentID string) (*Payment, error) {
	p, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			s.logger.WarnContext(ctx, "Payment not found by repository", slog.String("paymentID", paymentID))
			return nil, fmt.Errorf("%w: payment %s", apperrors.ErrNotFound, paymentID)
		}
		s.logger.ErrorContext(ctx, "Repository error finding payment", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get payment %s: %w", paymentID, err)
	}
	return p, nil
}

func (s *paymentService) Record(ctx context.Context, paymentID string, amount decimal.Decimal, paymentDate time.Time) (*Payment, error) {
	s.logger.InfoContext(ctx, "Attempting to record payment", slog.String("paymentID", paymentID))

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.NewValidationError("amount", "amount must be greater than zero")
	}
	if paymentDate.IsZero() {
		return nil, apperrors.NewValidationError("paymentDate", "payment date is required")
	}

	p, err := s.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.IsPaid() {
		s.logger.WarnContext(ctx, "Rejecting re-record of paid payment", slog.String("paymentID", paymentID))
		return nil, fmt.Errorf("%w: payment %s", apperrors.ErrPaymentAlreadyPaid, paymentID)
	}

	p.Record(amount, paymentDate)

	if err := s.repo.Update(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to record payment", slog.Any("error", err))
		return nil, fmt.Errorf("failed to record payment %s: %w", paymentID, err)
	}

	s.publishChange(ctx, event.ActionUpdated, p)
	s.invalidateSummary(ctx)

	s.logger.InfoContext(ctx, "Payment recorded", slog.String("paymentID", p.ID))
	return p, nil
}

func (s *paymentService) Update(ctx context.Context, paymentID string, input UpdatePaymentInput) (*Payment, error) {
	s.logger.InfoContext(ctx, "Attempting to update payment", slog.String("paymentID", paymentID))

	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.NewValidationError("amount", "amount must be greater than zero")
	}
	if input.DueDate.IsZero() {
		return nil, apperrors.NewValidationError("dueDate", "due date is required")
	}
	if input.Type == "" {
		input.Type = PaymentTypeInterest
	}

	p, err := s.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.IsPaid() {
		s.logger.WarnContext(ctx, "Rejecting edit of paid payment", slog.String("paymentID", paymentID))
		return nil, fmt.Errorf("%w: payment %s", apperrors.ErrPaymentAlreadyPaid, paymentID)
	}

	p.Amount = input.Amount
	p.DueDate = input.DueDate
	p.Type = input.Type

	if err := s.repo.Update(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to update payment", slog.Any("error", err))
		return nil, fmt.Errorf("failed to update payment %s: %w", paymentID, err)
	}

	s.publishChange(ctx, event.ActionUpdated, p)
	s.invalidateSummary(ctx)

	return p, nil
}

func (s *paymentService) ListByLoan(ctx context.Context, loanID string) ([]*Payment, error) {
	payments, err := s.repo.FindByLoanID(ctx, loanID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing loan payments", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list payments for loan %s: %w", loanID, err)
	}
	return payments, nil
}

func (s *paymentService) ListDue(ctx context.Context, filter DueFilter) ([]*Payment, error) {
	if filter == "" {
		filter = DueFilterAll
	}
	if !filter.Valid() {
		return nil, apperrors.NewValidationError("filter", fmt.Sprintf("unknown due filter %q", filter))
	}
	payments, err := s.repo.FindDue(ctx, filter, time.Now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing due payments", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list due payments: %w", err)
	}
	return payments, nil
}

func (s *paymentService) ScheduleNext(ctx context.Context, loanID string) (*Payment, error) {
	s.logger.InfoContext(ctx, "Scheduling next interest payment", slog.String("loanID", loanID))

	l, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, ErrLoanNotFound) {
			return nil, fmt.Errorf("%w: loan %s does not exist", apperrors.ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("failed to verify loan %s: %w", loanID, err)
	}
	if l.IsClosed() {
		return nil, fmt.Errorf("%w: loan %s", apperrors.ErrLoanClosed, loanID)
	}

	payments, err := s.repo.FindByLoanID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for loan %s: %w", loanID, err)
	}

	p := NewPayment(l.ID, l.CustomerID, l.MonthlyInterest(), l.NextPaymentDueDate(payments))

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save scheduled payment", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save scheduled payment: %w", err)
	}

	s.publishChange(ctx, event.ActionCreated, p)
	s.invalidateSummary(ctx)

	s.logger.InfoContext(ctx, "Next payment scheduled",
		slog.String("paymentID", p.ID),
		slog.Time("dueDate", p.DueDate))
	return p, nil
}

func (s *paymentService) publishChange(ctx context.Context, action event.Action, p *Payment) {
	evt := event.NewEntityChanged(event.EntityPayment, action, p.ID)
	evt.CustomerID = p.CustomerID
	evt.LoanID = p.LoanID
	if err := s.pub.PublishEntityChanged(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish payment change event", slog.Any("error", err))
	}
}

func (s *paymentService) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSummary(ctx); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate dashboard summary cache", slog.Any("error", err))
	}
}
