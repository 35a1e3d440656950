package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"lendledger/internal/domain/loan"
)

var loanTest = &loan.Loan{
	ID:           "LOAN-1700000000000-x1y2z3a4b",
	CustomerID:   "CUST-1700000000000-a1b2c3d4e",
	Amount:       decimal.NewFromInt(50000),
	InterestRate: decimal.NewFromFloat(2.5),
	StartDate:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	Status:       loan.StatusOngoing,
	CreatedAt:    time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
}

func setupLoanRepo(t *testing.T) (context.Context, *LoanRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}

	ctx := context.Background()
	repo := NewLoanRepository(mockPool, logger)

	return ctx, repo, mockPool
}

func TestCreateLoanWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	query := `
        INSERT INTO loans (id, customer_id, amount, interest_rate, start_date, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	mockPool.ExpectExec(regexp.QuoteMeta(query)).WithArgs(
		loanTest.ID,
		loanTest.CustomerID,
		loanTest.Amount,
		loanTest.InterestRate,
		loanTest.StartDate,
		loanTest.Status,
		loanTest.CreatedAt,
	).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(ctx, loanTest)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindLoanByIDWhenNotFound(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(`FROM loans WHERE id = $1`)).
		WithArgs("LOAN-0000000000000-missing00").
		WillReturnRows(pgxmock.NewRows([]string{"id", "customer_id", "amount", "interest_rate", "start_date", "status", "created_at"}))

	found, err := repo.FindByID(ctx, "LOAN-0000000000000-missing00")
	assert.Nil(t, found)
	assert.ErrorIs(t, err, loan.ErrLoanNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindLoansByCustomerIDWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(`FROM loans WHERE customer_id = $1 ORDER BY created_at`)).
		WithArgs(loanTest.CustomerID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "customer_id", "amount", "interest_rate", "start_date", "status", "created_at"}).
			AddRow(loanTest.ID, loanTest.CustomerID, loanTest.Amount, loanTest.InterestRate, loanTest.StartDate, loanTest.Status, loanTest.CreatedAt))

	loans, err := repo.FindByCustomerID(ctx, loanTest.CustomerID)
	assert.NoError(t, err)
	assert.Len(t, loans, 1)
	assert.True(t, loans[0].Amount.Equal(loanTest.Amount))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateLoanWhenNotFound(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(regexp.QuoteMeta(`UPDATE loans`)).WithArgs(
		loanTest.Amount,
		loanTest.InterestRate,
		loanTest.StartDate,
		loanTest.Status,
		loanTest.ID,
	).WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(ctx, loanTest)
	assert.ErrorIs(t, err, loan.ErrLoanNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
