package http_utils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// ValidateStruct runs v over s. The bool is false when validation failed, in
// which case the response lists one message per failing field.
func ValidateStruct(v *validator.Validate, s interface{}) (ValidationErrorResponse, bool) {
	err := v.Struct(s)
	if err == nil {
		return ValidationErrorResponse{}, true
	}

	response := ValidationErrorResponse{
		BaseResponse: NewBaseResponse(StatusError, "invalid body, validation failed"),
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		response.Errors = []string{err.Error()}
		return response, false
	}

	response.Errors = lo.Map(verrs, func(item validator.FieldError, index int) string {
		return item.Error()
	})

	return response, false
}
