package loan

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lendledger/internal/pkg/apperrors"
)

const testPaymentID = "PAY-1700000000000-q1w2e3r4t"

func newTestLoan() *Loan {
	return &Loan{
		ID:           testLoanID,
		CustomerID:   testCustomerID,
		Amount:       decimal.NewFromInt(50000),
		InterestRate: decimal.NewFromFloat(2.5),
		StartDate:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Status:       StatusOngoing,
	}
}

func TestCreatePaymentCopiesCustomerFromLoan(t *testing.T) {
	repo := new(MockPaymentRepository)
	loans := new(MockLoanRepository)
	svc := NewPaymentService(repo, loans, nil, nil, testLogger)

	ctx := context.Background()
	loans.On("FindByID", ctx, testLoanID).Return(newTestLoan(), nil)

	var saved *Payment
	repo.On("Create", ctx, mock.AnythingOfType("*loan.Payment")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*Payment) }).
		Return(nil)

	p, err := svc.Create(ctx, CreatePaymentInput{
		LoanID:  testLoanID,
		Amount:  decimal.NewFromInt(1250),
		DueDate: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	})

	assert.NoError(t, err)
	assert.Equal(t, testCustomerID, p.CustomerID)
	assert.Equal(t, PaymentStatusPending, p.Status)
	assert.Equal(t, saved, p)
}

func TestCreatePaymentForUnknownLoanNeverInserts(t *testing.T) {
	repo := new(MockPaymentRepository)
	loans := new(MockLoanRepository)
	svc := NewPaymentService(repo, loans, nil, nil, testLogger)

	ctx := context.Background()
	loans.On("FindByID", ctx, "LOAN-0000000000000-missing00").Return(nil, ErrLoanNotFound)

	_, err := svc.Create(ctx, CreatePaymentInput{
		LoanID:  "LOAN-0000000000000-missing00",
		Amount:  decimal.NewFromInt(1250),
		DueDate: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreatePaymentWithPaymentDateIsRecordedImmediately(t *testing.T) {
	repo := new(MockPaymentRepository)
	loans := new(MockLoanRepository)
	svc := NewPaymentService(repo, loans, nil, nil, testLogger)

	ctx := context.Background()
	loans.On("FindByID", ctx, testLoanID).Return(newTestLoan(), nil)
	repo.On("Create", ctx, mock.AnythingOfType("*loan.Payment")).Return(nil)

	paidOn := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)
	p, err := svc.Create(ctx, CreatePaymentInput{
		LoanID:      testLoanID,
		Amount:      decimal.NewFromInt(1250),
		DueDate:     time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		PaymentDate: &paidOn,
	})

	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, p.Status)
	assert.Equal(t, paidOn, *p.PaymentDate)
}

func TestRecordPaymentSetsStatusAndDate(t *testing.T) {
	repo := new(MockPaymentRepository)
	svc := NewPaymentService(repo, new(MockLoanRepository), nil, nil, testLogger)

	ctx := context.Background()
	pending := &Payment{
		ID:         testPaymentID,
		LoanID:     testLoanID,
		CustomerID: testCustomerID,
		Amount:     decimal.NewFromInt(1250),
		DueDate:    time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		Status:     PaymentStatusPending,
		Type:       PaymentTypeInterest,
	}
	repo.On("FindByID", ctx, testPaymentID).Return(pending, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*loan.Payment")).Return(nil)

	paidOn := time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC)
	p, err := svc.Record(ctx, testPaymentID, decimal.NewFromInt(1300), paidOn)

	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, p.Status)
	assert.Equal(t, paidOn, *p.PaymentDate)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(1300)))
	repo.AssertExpectations(t)
}

func TestRecordPaymentRejectsAlreadyPaid(t *testing.T) {
	repo := new(MockPaymentRepository)
	svc := NewPaymentService(repo, new(MockLoanRepository), nil, nil, testLogger)

	ctx := context.Background()
	paidOn := time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC)
	paid := &Payment{
		ID:          testPaymentID,
		Status:      PaymentStatusPaid,
		PaymentDate: &paidOn,
		Amount:      decimal.NewFromInt(1250),
	}
	repo.On("FindByID", ctx, testPaymentID).Return(paid, nil)

	_, err := svc.Record(ctx, testPaymentID, decimal.NewFromInt(1250), paidOn)

	assert.ErrorIs(t, err, apperrors.ErrPaymentAlreadyPaid)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdatePaymentRejectsPaidEntries(t *testing.T) {
	repo := new(MockPaymentRepository)
	svc := NewPaymentService(repo, new(MockLoanRepository), nil, nil, testLogger)

	ctx := context.Background()
	paidOn := time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC)
	paid := &Payment{ID: testPaymentID, Status: PaymentStatusPaid, PaymentDate: &paidOn, Amount: decimal.NewFromInt(1250)}
	repo.On("FindByID", ctx, testPaymentID).Return(paid, nil)

	_, err := svc.Update(ctx, testPaymentID, UpdatePaymentInput{
		Amount:  decimal.NewFromInt(1000),
		DueDate: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
	})

	assert.ErrorIs(t, err, apperrors.ErrPaymentAlreadyPaid)
}

func TestScheduleNextDerivesAmountAndDueDate(t *testing.T) {
	repo := new(MockPaymentRepository)
	loans := new(MockLoanRepository)
	svc := NewPaymentService(repo, loans, nil, nil, testLogger)

	ctx := context.Background()
	loans.On("FindByID", ctx, testLoanID).Return(newTestLoan(), nil)
	repo.On("FindByLoanID", ctx, testLoanID).Return([]*Payment{
		{DueDate: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)},
		{DueDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
	}, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*loan.Payment")).Return(nil)

	p, err := svc.ScheduleNext(ctx, testLoanID)

	assert.NoError(t, err)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(1250)))
	assert.Equal(t, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), p.DueDate)
	assert.Equal(t, testCustomerID, p.CustomerID)
}

func TestScheduleNextRejectsClosedLoan(t *testing.T) {
	repo := new(MockPaymentRepository)
	loans := new(MockLoanRepository)
	svc := NewPaymentService(repo, loans, nil, nil, testLogger)

	ctx := context.Background()
	closed := newTestLoan()
	closed.Close()
	loans.On("FindByID", ctx, testLoanID).Return(closed, nil)

	_, err := svc.ScheduleNext(ctx, testLoanID)

	assert.ErrorIs(t, err, apperrors.ErrLoanClosed)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListDueRejectsUnknownFilter(t *testing.T) {
	svc := NewPaymentService(new(MockPaymentRepository), new(MockLoanRepository), nil, nil, testLogger)

	_, err := svc.ListDue(context.Background(), DueFilter("next_year"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
