package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"lendledger/internal/domain/loan"
	"lendledger/internal/pkg/apperrors"
)

type PaymentRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.PaymentRepository = (*PaymentRepository)(nil)

func NewPaymentRepository(db DBPool, logger *slog.Logger) *PaymentRepository {
	if db == nil {
		panic("DBPool cannot be nil for PaymentRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewPaymentRepository, using default stderr handler")
	}
	return &PaymentRepository{
		db:     db,
		logger: logger.With("component", "PaymentRepository"),
	}
}

const paymentColumns = `id, loan_id, customer_id, amount, due_date, payment_date, status, type, created_at`

func (r *PaymentRepository) Create(ctx context.Context, p *loan.Payment) error {
	r.logger.InfoContext(ctx, "Attempting to insert new payment",
		slog.String("paymentID", p.ID),
		slog.String("loanID", p.LoanID))

	query := `
        INSERT INTO payments (id, loan_id, customer_id, amount, due_date, payment_date, status, type, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.LoanID,
		p.CustomerID,
		p.Amount,
		p.DueDate,
		p.PaymentDate,
		p.Status,
		p.Type,
		p.CreatedAt,
	)
	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to insert payment due to unique constraint violation", slog.Any("error", err))
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert payment", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert payment: %w", apperrors.ErrDatabase, err)
	}

	return nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *loan.Payment) error {
	r.logger.InfoContext(ctx, "Attempting to update payment", slog.String("paymentID", p.ID))

	query := `
        UPDATE payments
        SET amount = $1,
            due_date = $2,
            payment_date = $3,
            status = $4,
            type = $5
        WHERE id = $6`

	cmdTag, err := r.db.Exec(ctx, query,
		p.Amount,
		p.DueDate,
		p.PaymentDate,
		p.Status,
		p.Type,
		p.ID,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update payment", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update payment: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Update affected zero rows, payment likely not found")
		return loan.ErrPaymentNotFound
	}

	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, paymentID string) (*loan.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	var p loan.Payment
	err := r.db.QueryRow(ctx, query, paymentID).Scan(
		&p.ID,
		&p.LoanID,
		&p.CustomerID,
		&p.Amount,
		&p.DueDate,
		&p.PaymentDate,
		&p.Status,
		&p.Type,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loan.ErrPaymentNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to find payment by ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to find payment: %w", apperrors.ErrDatabase, err)
	}

	return &p, nil
}

func (r *PaymentRepository) FindByLoanID(ctx context.Context, loanID string) ([]*loan.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE loan_id = $1 ORDER BY due_date`
	return r.queryPayments(ctx, query, loanID)
}

func (r *PaymentRepository) FindAll(ctx context.Context) ([]*loan.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY due_date`
	return r.queryPayments(ctx, query)
}

// FindDue evaluates the filter windows against now so the store and the
// service agree on what "today" means regardless of the database clock.
func (r *PaymentRepository) FindDue(ctx context.Context, filter loan.DueFilter, now time.Time) ([]*loan.Payment, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	weekEnd := dayStart.AddDate(0, 0, 7)

	base := `SELECT ` + paymentColumns + ` FROM payments `

	switch filter {
	case loan.DueFilterToday:
		return r.queryPayments(ctx,
			base+`WHERE status = $1 AND due_date >= $2 AND due_date < $3 ORDER BY due_date`,
			loan.PaymentStatusPending, dayStart, dayEnd)
	case loan.DueFilterThisWeek:
		return r.queryPayments(ctx,
			base+`WHERE status = $1 AND due_date >= $2 AND due_date < $3 ORDER BY due_date`,
			loan.PaymentStatusPending, dayStart, weekEnd)
	case loan.DueFilterOverdue:
		return r.queryPayments(ctx,
			base+`WHERE status = $1 AND due_date < $2 ORDER BY due_date`,
			loan.PaymentStatusPending, now)
	case loan.DueFilterPaid:
		return r.queryPayments(ctx,
			base+`WHERE status = $1 ORDER BY due_date`,
			loan.PaymentStatusPaid)
	case loan.DueFilterAll, "":
		return r.queryPayments(ctx, base+`ORDER BY due_date`)
	default:
		return nil, fmt.Errorf("%w: unknown due filter %q", apperrors.ErrInvalidArgument, filter)
	}
}

func (r *PaymentRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM payments WHERE status = $1 AND due_date < $2`

	var count int64
	err := r.db.QueryRow(ctx, query, loan.PaymentStatusPending, now).Scan(&count)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to count overdue payments", slog.Any("error", err))
		return 0, fmt.Errorf("%w: failed to count overdue payments: %w", apperrors.ErrDatabase, err)
	}
	return count, nil
}

func (r *PaymentRepository) queryPayments(ctx context.Context, query string, args ...any) ([]*loan.Payment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query payments", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query payments: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var payments []*loan.Payment
	for rows.Next() {
		var p loan.Payment
		if err := rows.Scan(
			&p.ID,
			&p.LoanID,
			&p.CustomerID,
			&p.Amount,
			&p.DueDate,
			&p.PaymentDate,
			&p.Status,
			&p.Type,
			&p.CreatedAt,
		); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan payment row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan payment row: %w", apperrors.ErrDatabase, err)
		}
		payments = append(payments, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: payment row iteration failed: %w", apperrors.ErrDatabase, err)
	}

	return payments, nil
}
