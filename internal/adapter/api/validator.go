package api

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wires go-playground/validator into echo's Validate hook.
type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
