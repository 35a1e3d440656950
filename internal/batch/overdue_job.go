package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lendledger/internal/domain/loan"
)

// SummaryInvalidator drops cached dashboard aggregates after the sweep.
type SummaryInvalidator interface {
	InvalidateSummary(ctx context.Context) error
}

// OverdueSweepJob walks the payment ledger once a day, logs every pending
// payment already past due and refreshes the dashboard aggregates so the
// overdue counters are correct at the start of business.
type OverdueSweepJob struct {
	payments loan.PaymentRepository
	cache    SummaryInvalidator
	logger   *slog.Logger
}

func NewOverdueSweepJob(payments loan.PaymentRepository, cache SummaryInvalidator, logger *slog.Logger) *OverdueSweepJob {
	if payments == nil || logger == nil {
		panic("OverdueSweepJob dependencies cannot be nil")
	}
	return &OverdueSweepJob{
		payments: payments,
		cache:    cache,
		logger:   logger.With("job", "OverdueSweep"),
	}
}

func (j *OverdueSweepJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting overdue payment sweep.")

	now := time.Now()
	count, err := j.payments.CountOverdue(ctx, now)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to count overdue payments, aborting sweep.", slog.Any("error", err))
		return fmt.Errorf("cannot run sweep, failed to count overdue payments: %w", err)
	}

	if count == 0 {
		j.logger.InfoContext(ctx, "No overdue payments found.", slog.Duration("duration", time.Since(startTime)))
		return nil
	}

	overdue, err := j.payments.FindDue(ctx, loan.DueFilterOverdue, now)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list overdue payments, aborting sweep.", slog.Any("error", err))
		return fmt.Errorf("cannot run sweep, failed to list overdue payments: %w", err)
	}

	byLoan := make(map[string]int)
	for _, p := range overdue {
		byLoan[p.LoanID]++
		j.logger.WarnContext(ctx, "Payment past due.",
			slog.String("paymentID", p.ID),
			slog.String("loanID", p.LoanID),
			slog.String("customerID", p.CustomerID),
			slog.Time("dueDate", p.DueDate),
			slog.String("amount", p.Amount.StringFixed(2)))
	}

	if j.cache != nil {
		if err := j.cache.InvalidateSummary(ctx); err != nil {
			j.logger.WarnContext(ctx, "Failed to invalidate dashboard summary cache after sweep.", slog.Any("error", err))
		}
	}

	j.logger.InfoContext(ctx, "Overdue payment sweep finished.",
		slog.Duration("duration", time.Since(startTime)),
		slog.Int64("overdue_payments", count),
		slog.Int("loans_affected", len(byLoan)))
	return nil
}
