package utils

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
	"github.com/tillpoint/tillpoint/internal/shared/errors"
)

var (
	validate     *validator.Validate
	registerOnce sync.Once

	tenantIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]{0,63}$`)
)

// init initializes the validator
func init() {
	validate = validator.New()
	registerCustomValidations(validate)
}

// RegisterBindingValidators installs the custom tags and JSON field naming on
// gin's binding validator, so `binding:"billing_cycle"` works in request DTOs.
func RegisterBindingValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			registerCustomValidations(v)
		}
	})
}

func registerCustomValidations(v *validator.Validate) {
	// Use JSON tag names for validation errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("billing_cycle", func(fl validator.FieldLevel) bool {
		return vo.BillingCycle(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("tenant_id", func(fl validator.FieldLevel) bool {
		return tenantIDRegex.MatchString(fl.Field().String())
	})
}

// ValidateStruct validates a struct and returns a user-friendly error
func ValidateStruct(s interface{}) error {
	return BindingError(validate.Struct(s))
}

// BindingError converts a binding or validation failure into a validation
// AppError. nil stays nil.
func BindingError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return errors.NewValidationError("Invalid request body", err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, getFieldErrorMessage(fieldError))
	}

	return errors.NewValidationError(
		"Validation failed",
		strings.Join(messages, "; "),
	)
}

// getFieldErrorMessage returns a user-friendly error message for a field validation error
func getFieldErrorMessage(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, param)
	case "numeric":
		return fmt.Sprintf("%s must be a valid number", field)
	case "billing_cycle":
		return fmt.Sprintf("%s must be one of [daily monthly annual]", field)
	case "tenant_id":
		return fmt.Sprintf("%s must be 1-64 letters, digits, '-' or '_'", field)
	default:
		return fmt.Sprintf("%s failed validation for '%s'", field, fe.Tag())
	}
}

// ValidateTenantID checks a tenant ID taken from a path parameter.
func ValidateTenantID(tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return errors.NewValidationError("tenant ID is required")
	}
	if !tenantIDRegex.MatchString(tenantID) {
		return errors.NewValidationError("invalid tenant ID format")
	}
	return nil
}
