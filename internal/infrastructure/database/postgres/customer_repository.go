package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5"

	"lendledger/internal/domain/customer"
	"lendledger/internal/pkg/apperrors"
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.Repository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	r.logger.InfoContext(ctx, "Attempting to insert new customer", slog.String("customerID", cust.ID))

	query := `
        INSERT INTO customers (id, name, description, mobile, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		cust.ID,
		cust.Name,
		cust.Description,
		cust.Mobile,
		cust.Status,
		cust.CreatedAt,
	)
	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to insert customer due to unique constraint violation", slog.Any("error", err))
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.String("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, cust *customer.Customer) error {
	r.logger.InfoContext(ctx, "Attempting to update customer", slog.String("customerID", cust.ID))

	// created_at is immutable after insert.
	query := `
        UPDATE customers
        SET name = $1,
            description = $2,
            mobile = $3,
            status = $4
        WHERE id = $5`

	cmdTag, err := r.db.Exec(ctx, query,
		cust.Name,
		cust.Description,
		cust.Mobile,
		cust.Status,
		cust.ID,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update customer: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Update affected zero rows, customer likely not found")
		return customer.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Customer updated successfully")
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID string) (*customer.Customer, error) {
	query := `
        SELECT id, name, description, mobile, status, created_at
        FROM customers
        WHERE id = $1`

	var cust customer.Customer
	err := r.db.QueryRow(ctx, query, customerID).Scan(
		&cust.ID,
		&cust.Name,
		&cust.Description,
		&cust.Mobile,
		&cust.Status,
		&cust.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to find customer by ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to find customer: %w", apperrors.ErrDatabase, err)
	}

	return &cust, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context, activeOnly bool) ([]*customer.Customer, error) {
	query := `
        SELECT id, name, description, mobile, status, created_at
        FROM customers`
	args := []any{}
	if activeOnly {
		query += ` WHERE status = $1`
		args = append(args, customer.StatusActive)
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var customers []*customer.Customer
	for rows.Next() {
		var cust customer.Customer
		if err := rows.Scan(
			&cust.ID,
			&cust.Name,
			&cust.Description,
			&cust.Mobile,
			&cust.Status,
			&cust.CreatedAt,
		); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan customer row: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, &cust)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: customer row iteration failed: %w", apperrors.ErrDatabase, err)
	}

	return customers, nil
}

// DeleteCascade removes the customer's payments, loans and finally the
// customer row inside a single transaction. The second payment delete covers
// rows whose denormalized customer tag drifted from the owning loan.
func (r *CustomerRepository) DeleteCascade(ctx context.Context, customerID string) (customer.CascadeResult, error) {
	r.logger.InfoContext(ctx, "Beginning cascade delete transaction", slog.String("customerID", customerID))

	var result customer.CascadeResult

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return result, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.logger.ErrorContext(ctx, "Failed to rollback cascade delete transaction", slog.Any("error", rbErr))
		}
	}()

	byLoan, err := tx.Exec(ctx,
		`DELETE FROM payments WHERE loan_id IN (SELECT id FROM loans WHERE customer_id = $1)`, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete payments by owning loan", slog.Any("error", err))
		return result, fmt.Errorf("%w: failed to delete payments by loan: %w", apperrors.ErrDatabase, err)
	}
	result.PaymentsDeleted += byLoan.RowsAffected()

	byTag, err := tx.Exec(ctx, `DELETE FROM payments WHERE customer_id = $1`, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete payments by customer tag", slog.Any("error", err))
		return result, fmt.Errorf("%w: failed to delete payments by customer: %w", apperrors.ErrDatabase, err)
	}
	result.PaymentsDeleted += byTag.RowsAffected()

	loans, err := tx.Exec(ctx, `DELETE FROM loans WHERE customer_id = $1`, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete customer loans", slog.Any("error", err))
		return result, fmt.Errorf("%w: failed to delete loans: %w", apperrors.ErrDatabase, err)
	}
	result.LoansDeleted = loans.RowsAffected()

	cmdTag, err := tx.Exec(ctx, `DELETE FROM customers WHERE id = $1`, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete customer", slog.Any("error", err))
		return result, fmt.Errorf("%w: failed to delete customer: %w", apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return customer.CascadeResult{}, customer.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit cascade delete transaction", slog.Any("error", err))
		return customer.CascadeResult{}, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Cascade delete committed",
		slog.String("customerID", customerID),
		slog.Int64("paymentsDeleted", result.PaymentsDeleted),
		slog.Int64("loansDeleted", result.LoansDeleted))
	return result, nil
}

func (r *CustomerRepository) SetStatus(ctx context.Context, customerID string, status customer.Status) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE customers SET status = $1 WHERE id = $2`, status, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to set customer status", slog.Any("error", err))
		return fmt.Errorf("%w: failed to set customer status: %w", apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}
