package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lendledger/internal/domain/customer"
)

const validRequest = "Valid request"

func TestCreateCustomerRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		request CreateCustomerRequest
		wantErr bool
	}{
		{validRequest, CreateCustomerRequest{Name: "John Doe", Mobile: "9876543210"}, false},
		{"Name alone is enough", CreateCustomerRequest{Name: "John Doe"}, false},
		{"Empty name", CreateCustomerRequest{Name: ""}, true},
		{"Mobile too short", CreateCustomerRequest{Name: "John Doe", Mobile: "123"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateCustomerRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		request UpdateCustomerRequest
		wantErr bool
	}{
		{validRequest, UpdateCustomerRequest{Name: "John Doe", Status: "active"}, false},
		{"Inactive status", UpdateCustomerRequest{Name: "John Doe", Status: "inactive"}, false},
		{"Unknown status", UpdateCustomerRequest{Name: "John Doe", Status: "archived"}, true},
		{"Missing status", UpdateCustomerRequest{Name: "John Doe"}, true},
		{"Empty name", UpdateCustomerRequest{Name: "", Status: "active"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewCustomerResponse(t *testing.T) {
	cust := &customer.Customer{
		ID:          "CUST-1700000000000-a1b2c3d4e",
		Name:        "John Doe",
		Description: "Shop owner",
		Mobile:      "9876543210",
		Status:      customer.StatusActive,
		CreatedAt:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}

	resp := NewCustomerResponse(cust)
	assert.Equal(t, cust.ID, resp.ID)
	assert.Equal(t, cust.Name, resp.Name)
	assert.Equal(t, cust.Description, resp.Description)
	assert.Equal(t, cust.Mobile, resp.Mobile)
	assert.Equal(t, string(cust.Status), resp.Status)
	assert.Equal(t, cust.CreatedAt, resp.CreatedAt)

	resp = NewCustomerResponse(nil)
	assert.Equal(t, CustomerResponse{}, resp)
}
