package dto

import (
	"time"

	"lendledger/internal/domain/customer"
)

type CreateCustomerRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Mobile      string `json:"mobile" validate:"omitempty,min=6,max=20"`
}

func (r *CreateCustomerRequest) Validate() error {
	return checkStruct(r)
}

type UpdateCustomerRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Mobile      string `json:"mobile" validate:"omitempty,min=6,max=20"`
	Status      string `json:"status" validate:"required,oneof=active inactive"`
}

func (r *UpdateCustomerRequest) Validate() error {
	return checkStruct(r)
}

type CustomerResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Mobile      string    `json:"mobile,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}
	return CustomerResponse{
		ID:          cust.ID,
		Name:        cust.Name,
		Description: cust.Description,
		Mobile:      cust.Mobile,
		Status:      string(cust.Status),
		CreatedAt:   cust.CreatedAt,
	}
}

type CascadeDeleteResponse struct {
	CustomerID      string `json:"customerId"`
	LoansDeleted    int64  `json:"loansDeleted"`
	PaymentsDeleted int64  `json:"paymentsDeleted"`
}
