package handlers

import (
	"github.com/go-playground/validator/v10"
)

// StructValidator validates request payloads against their validate tags.
type StructValidator struct {
	validate *validator.Validate
}

func NewValidator() *StructValidator {
	return &StructValidator{validate: validator.New()}
}

func (v *StructValidator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}
