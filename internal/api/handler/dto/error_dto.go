package dto

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

type ErrorDetail struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkStruct runs the validator tags and flattens the first failure into a
// readable message.
func checkStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("field '%s' failed on the '%s' rule", fe.Field(), fe.Tag())
	}
	return err
}
