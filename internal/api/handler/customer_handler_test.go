package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lendledger/internal/api/handler"
	"lendledger/internal/api/handler/dto"
	"lendledger/internal/domain/customer"
	"lendledger/internal/pkg/apperrors"
)

var testLogger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Create(ctx context.Context, name, description, mobile string) (*customer.Customer, error) {
	args := m.Called(ctx, name, description, mobile)
	if c, ok := args.Get(0).(*customer.Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerService) Get(ctx context.Context, customerID string) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	if c, ok := args.Get(0).(*customer.Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerService) List(ctx context.Context, activeOnly bool) ([]*customer.Customer, error) {
	args := m.Called(ctx, activeOnly)
	if cs, ok := args.Get(0).([]*customer.Customer); ok {
		return cs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerService) Update(ctx context.Context, customerID string, input customer.UpdateInput) (*customer.Customer, error) {
	args := m.Called(ctx, customerID, input)
	if c, ok := args.Get(0).(*customer.Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerService) Delete(ctx context.Context, customerID string) (customer.CascadeResult, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(customer.CascadeResult), args.Error(1)
}

func (m *MockCustomerService) Deactivate(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}

func (m *MockCustomerService) Reactivate(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}

const handlerTestCustomerID = "CUST-1700000000000-a1b2c3d4e"

// withURLParam injects a chi route parameter the way the router would.
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func sampleCustomer() *customer.Customer {
	return &customer.Customer{
		ID:        handlerTestCustomerID,
		Name:      "John Doe",
		Mobile:    "9876543210",
		Status:    customer.StatusActive,
		CreatedAt: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestCreateCustomer(t *testing.T) {
	mockService := new(MockCustomerService)
	h := handler.NewCustomerHandler(mockService, testLogger)

	t.Run("success", func(t *testing.T) {
		reqBody := dto.CreateCustomerRequest{Name: "John Doe", Mobile: "9876543210"}
		reqBodyBytes, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewReader(reqBodyBytes))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		mockService.On("Create", mock.Anything, "John Doe", "", "9876543210").
			Return(sampleCustomer(), nil)

		h.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.CustomerResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, handlerTestCustomerID, resp.ID)
		mockService.AssertExpectations(t)
	})

	t.Run("missing name is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		h.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "Create")
	})
}

func TestGetCustomer(t *testing.T) {
	mockService := new(MockCustomerService)
	h := handler.NewCustomerHandler(mockService, testLogger)

	t.Run("success", func(t *testing.T) {
		mockService.On("Get", mock.Anything, handlerTestCustomerID).Return(sampleCustomer(), nil)

		req := httptest.NewRequest(http.MethodGet, "/customers/"+handlerTestCustomerID, nil)
		req = withURLParam(req, "customerID", handlerTestCustomerID)
		rec := httptest.NewRecorder()

		h.GetCustomer(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.CustomerResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "John Doe", resp.Name)
		mockService.AssertExpectations(t)
	})

	t.Run("malformed customer ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/customers/abc", nil)
		req = withURLParam(req, "customerID", "abc")
		rec := httptest.NewRecorder()

		h.GetCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "Get")
	})

	t.Run("customer not found", func(t *testing.T) {
		missing := "CUST-1700000000001-b2c3d4e5f"
		mockService.On("Get", mock.Anything, missing).Return(nil, apperrors.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/customers/"+missing, nil)
		req = withURLParam(req, "customerID", missing)
		rec := httptest.NewRecorder()

		h.GetCustomer(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestDeleteCustomerReportsCascadeCounts(t *testing.T) {
	mockService := new(MockCustomerService)
	h := handler.NewCustomerHandler(mockService, testLogger)

	mockService.On("Delete", mock.Anything, handlerTestCustomerID).
		Return(customer.CascadeResult{LoansDeleted: 2, PaymentsDeleted: 6}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/customers/"+handlerTestCustomerID, nil)
	req = withURLParam(req, "customerID", handlerTestCustomerID)
	rec := httptest.NewRecorder()

	h.DeleteCustomer(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp dto.CascadeDeleteResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.LoansDeleted)
	assert.Equal(t, int64(6), resp.PaymentsDeleted)
	mockService.AssertExpectations(t)
}

func TestDeactivateCustomerReturnsNoContent(t *testing.T) {
	mockService := new(MockCustomerService)
	h := handler.NewCustomerHandler(mockService, testLogger)

	mockService.On("Deactivate", mock.Anything, handlerTestCustomerID).Return(nil)

	req := httptest.NewRequest(http.MethodPut, "/customers/"+handlerTestCustomerID+"/deactivate", nil)
	req = withURLParam(req, "customerID", handlerTestCustomerID)
	rec := httptest.NewRecorder()

	h.DeactivateCustomer(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	mockService.AssertExpectations(t)
}
