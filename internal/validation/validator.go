// Package validation adapts go-playground/validator to Echo's
// Validator interface so handlers can call c.Validate(req) on DTOs
// carrying `validate` struct tags.
package validation

import (
	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	return v.v.Struct(i)
}
