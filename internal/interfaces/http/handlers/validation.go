package handlers

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce     sync.Once
	validatorInstance *Validator
)

// Validator validates request DTOs and reports failures by JSON field path.
type Validator struct {
	validate *validator.Validate
}

// GetValidator returns the shared validator.
func GetValidator() *Validator {
	validatorOnce.Do(func() {
		validatorInstance = NewValidator()
	})
	return validatorInstance
}

// NewValidator creates a validator with the custom rules registered.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("weekday", validateWeekday)
	return &Validator{validate: v}
}

// ValidationError lists the offending fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks i against its struct tags.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[trimRoot(fe.Namespace())] = describe(fe)
	}
	return out
}

func trimRoot(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "weekday":
		return "must be a weekday name"
	case "timezone":
		return "must be an IANA timezone"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

func validateWeekday(fl validator.FieldLevel) bool {
	name := strings.TrimSpace(fl.Field().String())
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(name, d.String()) {
			return true
		}
	}
	return false
}
