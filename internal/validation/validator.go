package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/drac2606/django-data-monitor/internal/models"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator with custom rules and error formatting
type Validator struct {
	validate *validator.Validate
}

var (
	instance *Validator
	once     sync.Once
)

// GetValidator returns the shared validator instance
func GetValidator() *Validator {
	once.Do(func() {
		instance = NewValidator()
	})
	return instance
}

// NewValidator creates a new validator instance with custom rules and configuration
func NewValidator() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("role", validateRole)
	_ = v.RegisterValidation("permission", validatePermission)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Struct validates a struct against its tags
func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

// FieldErrors flattens validator errors into field -> message pairs.
// Errors that did not come from the validator map to an empty result.
func FieldErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]string{}
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		fields[fe.Field()] = message(fe)
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	case "role":
		return fmt.Sprintf("must be one of %s, %s", models.RoleViewer, models.RoleAdmin)
	case "permission":
		return "must look like app_label.codename"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// validateRole validates that a role is one of the known user roles
func validateRole(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	return role == models.RoleViewer || role == models.RoleAdmin
}

// validatePermission validates a single permission codename
func validatePermission(fl validator.FieldLevel) bool {
	return models.ValidatePermissions([]string{fl.Field().String()}) == nil
}
