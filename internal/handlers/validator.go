package handlers

import (
	"github.com/drac2606/django-data-monitor/internal/validation"

	"github.com/labstack/echo/v4"
)

type requestValidator struct {
	v *validation.Validator
}

// NewValidator adapts the shared validator, with the role and permission
// rules registered, to echo's c.Validate.
func NewValidator() echo.Validator {
	return requestValidator{v: validation.GetValidator()}
}

func (rv requestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}
