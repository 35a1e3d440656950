package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5"

	"lendledger/internal/domain/loan"
	"lendledger/internal/pkg/apperrors"
)

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.LoanRepository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	if db == nil {
		panic("DBPool cannot be nil for LoanRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewLoanRepository, using default stderr handler")
	}
	return &LoanRepository{
		db:     db,
		logger: logger.With("component", "LoanRepository"),
	}
}

const loanColumns = `id, customer_id, amount, interest_rate, start_date, status, created_at`

func (r *LoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	r.logger.InfoContext(ctx, "Attempting to insert new loan",
		slog.String("loanID", l.ID),
		slog.String("customerID", l.CustomerID))

	query := `
        INSERT INTO loans (id, customer_id, amount, interest_rate, start_date, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		l.ID,
		l.CustomerID,
		l.Amount,
		l.InterestRate,
		l.StartDate,
		l.Status,
		l.CreatedAt,
	)
	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to insert loan due to unique constraint violation", slog.Any("error", err))
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert loan", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Loan inserted successfully", slog.String("loanID", l.ID))
	return nil
}

func (r *LoanRepository) Update(ctx context.Context, l *loan.Loan) error {
	r.logger.InfoContext(ctx, "Attempting to update loan", slog.String("loanID", l.ID))

	query := `
        UPDATE loans
        SET amount = $1,
            interest_rate = $2,
            start_date = $3,
            status = $4
        WHERE id = $5`

	cmdTag, err := r.db.Exec(ctx, query,
		l.Amount,
		l.InterestRate,
		l.StartDate,
		l.Status,
		l.ID,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update loan", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update loan: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Update affected zero rows, loan likely not found")
		return loan.ErrLoanNotFound
	}

	return nil
}

func (r *LoanRepository) FindByID(ctx context.Context, loanID string) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var l loan.Loan
	err := r.db.QueryRow(ctx, query, loanID).Scan(
		&l.ID,
		&l.CustomerID,
		&l.Amount,
		&l.InterestRate,
		&l.StartDate,
		&l.Status,
		&l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loan.ErrLoanNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to find loan by ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to find loan: %w", apperrors.ErrDatabase, err)
	}

	return &l, nil
}

func (r *LoanRepository) FindAll(ctx context.Context) ([]*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY created_at`
	return r.queryLoans(ctx, query)
}

func (r *LoanRepository) FindByCustomerID(ctx context.Context, customerID string) ([]*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE customer_id = $1 ORDER BY created_at`
	return r.queryLoans(ctx, query, customerID)
}

func (r *LoanRepository) queryLoans(ctx context.Context, query string, args ...any) ([]*loan.Loan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query loans", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query loans: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var loans []*loan.Loan
	for rows.Next() {
		var l loan.Loan
		if err := rows.Scan(
			&l.ID,
			&l.CustomerID,
			&l.Amount,
			&l.InterestRate,
			&l.StartDate,
			&l.Status,
			&l.CreatedAt,
		); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan loan row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan loan row: %w", apperrors.ErrDatabase, err)
		}
		loans = append(loans, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: loan row iteration failed: %w", apperrors.ErrDatabase, err)
	}

	return loans, nil
}
