package postgres

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"

	"lendledger/internal/domain/customer"
)

const pgxmockExpectationsNotMetMsg = "pgxmock expectations not met"

var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

var customerTest = &customer.Customer{
	ID:          "CUST-1700000000000-a1b2c3d4e",
	Name:        "John Doe",
	Description: "Shop owner",
	Mobile:      "9876543210",
	Status:      customer.StatusActive,
	CreatedAt:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
}

func setupCustomerRepo(t *testing.T) (context.Context, *CustomerRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}

	ctx := context.Background()
	repo := NewCustomerRepository(mockPool, logger)

	return ctx, repo, mockPool
}

func TestCreateCustomerWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	query := `
        INSERT INTO customers (id, name, description, mobile, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	mockPool.ExpectExec(regexp.QuoteMeta(query)).WithArgs(
		customerTest.ID,
		customerTest.Name,
		customerTest.Description,
		customerTest.Mobile,
		customerTest.Status,
		customerTest.CreatedAt,
	).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(ctx, customerTest)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateCustomerWhenNotFound(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	query := `
        UPDATE customers
        SET name = $1,
            description = $2,
            mobile = $3,
            status = $4
        WHERE id = $5`

	mockPool.ExpectExec(regexp.QuoteMeta(query)).WithArgs(
		customerTest.Name,
		customerTest.Description,
		customerTest.Mobile,
		customerTest.Status,
		customerTest.ID,
	).WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(ctx, customerTest)
	assert.ErrorIs(t, err, customer.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindCustomerByIDWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	query := `
        SELECT id, name, description, mobile, status, created_at
        FROM customers
        WHERE id = $1`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(customerTest.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "mobile", "status", "created_at"}).
			AddRow(customerTest.ID, customerTest.Name, customerTest.Description, customerTest.Mobile, customerTest.Status, customerTest.CreatedAt))

	found, err := repo.FindByID(ctx, customerTest.ID)
	assert.NoError(t, err)
	assert.Equal(t, customerTest.Name, found.Name)
	assert.Equal(t, customerTest.Status, found.Status)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindAllCustomersWhenActiveOnly(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(`FROM customers WHERE status = $1 ORDER BY created_at`)).
		WithArgs(customer.StatusActive).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "mobile", "status", "created_at"}).
			AddRow(customerTest.ID, customerTest.Name, customerTest.Description, customerTest.Mobile, customerTest.Status, customerTest.CreatedAt))

	customers, err := repo.FindAll(ctx, true)
	assert.NoError(t, err)
	assert.Len(t, customers, 1)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDeleteCascadeCountsDeletedRows(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM payments WHERE loan_id IN (SELECT id FROM loans WHERE customer_id = $1)`)).
		WithArgs(customerTest.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 6))
	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM payments WHERE customer_id = $1`)).
		WithArgs(customerTest.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM loans WHERE customer_id = $1`)).
		WithArgs(customerTest.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM customers WHERE id = $1`)).
		WithArgs(customerTest.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mockPool.ExpectCommit()
	mockPool.ExpectRollback()

	result, err := repo.DeleteCascade(ctx, customerTest.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(6), result.PaymentsDeleted)
	assert.Equal(t, int64(2), result.LoansDeleted)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDeleteCascadeWhenCustomerMissingRollsBack(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM payments WHERE loan_id IN (SELECT id FROM loans WHERE customer_id = $1)`)).
		WithArgs("CUST-0000000000000-missing00").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM payments WHERE customer_id = $1`)).
		WithArgs("CUST-0000000000000-missing00").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM loans WHERE customer_id = $1`)).
		WithArgs("CUST-0000000000000-missing00").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM customers WHERE id = $1`)).
		WithArgs("CUST-0000000000000-missing00").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mockPool.ExpectRollback()

	_, err := repo.DeleteCascade(ctx, "CUST-0000000000000-missing00")
	assert.ErrorIs(t, err, customer.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSetCustomerStatusWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(regexp.QuoteMeta(`UPDATE customers SET status = $1 WHERE id = $2`)).
		WithArgs(customer.StatusInactive, customerTest.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.SetStatus(ctx, customerTest.ID, customer.StatusInactive)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
