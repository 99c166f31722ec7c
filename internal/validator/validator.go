package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/shopspring/decimal"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// NewValidator returns the shared validator, building it on first use
func NewValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()

		// report request field names instead of Go struct field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		// decimals validate as their string form so required and omitempty work
		validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
			if d, ok := v.Interface().(decimal.Decimal); ok {
				if d.IsZero() {
					return ""
				}
				return d.String()
			}
			return nil
		}, decimal.Decimal{})
	})
	return validate
}

// ValidateRequest runs struct tags and maps failures to a validation error.
// The first failing field is exposed as the error's field.
func ValidateRequest(req interface{}) error {
	if err := NewValidator().Struct(req); err != nil {
		details := make(map[string]any)
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) && len(validateErrs) > 0 {
			for _, fe := range validateErrs {
				details[fieldPath(fe)] = fe.Error()
			}
			details["field"] = fieldPath(validateErrs[0])
		}
		return ierr.WithError(err).
			WithHint("Request validation failed").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// fieldPath drops the root struct name, e.g. CreateInvoiceRequest.lines[0].quantity
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
