package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// maxTaxRateScale is the number of decimal places the tax_rate columns keep
const maxTaxRateScale = 4

var (
	setupOnce   sync.Once
	hundred     = decimal.NewFromInt(100)
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// SetupValidator configures gin's validator: error fields use their json,
// form or header names, decimal.Decimal validates as a number, and the
// tenant_uuid and taxrate rules are registered. Safe to call repeatedly.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form", "header", "uri"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})

		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})

		_ = v.RegisterValidation("tenant_uuid", validateTenantUUID)
		_ = v.RegisterValidation("taxrate", validateTaxRate)
	})
}

// validateTenantUUID accepts a canonical, non-nil UUID
func validateTenantUUID(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	id, err := uuid.Parse(field.String())
	return err == nil && id != uuid.Nil && len(field.String()) == 36
}

// validateTaxRate accepts a percentage between 0 and 100 with at most four
// decimal places
func validateTaxRate(fl validator.FieldLevel) bool {
	var rate decimal.Decimal
	field := fl.Field()
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		rate = decimal.NewFromFloat(field.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		rate = decimal.NewFromInt(field.Int())
	case reflect.String:
		d, err := decimal.NewFromString(field.String())
		if err != nil {
			return false
		}
		rate = d
	default:
		if field.Type() != decimalType {
			return false
		}
		rate = field.Interface().(decimal.Decimal)
	}
	return !rate.IsNegative() && rate.LessThanOrEqual(hundred) && rate.Equal(rate.Round(maxTaxRateScale))
}

// FormatValidationErrors turns a binding error into a VALIDATION_ERROR with
// one detail per offending field
func FormatValidationErrors(err error) *shared.DomainError {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]shared.ErrorDetail, 0, len(validationErrors))
		for _, e := range validationErrors {
			details = append(details, shared.ErrorDetail{
				Field:   fieldPath(e),
				Message: getValidationMessage(e),
			})
		}
		return shared.NewValidationError("Request validation failed", details...)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		return shared.NewValidationError("Request validation failed", shared.ErrorDetail{
			Field:   typeErr.Field,
			Message: "Must be of type " + typeErr.Type.String(),
		})
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return shared.NewValidationError("Malformed JSON body")
	case errors.Is(err, io.EOF):
		return shared.NewValidationError("Request body is required")
	}
	return shared.NewValidationError("Invalid request: " + err.Error())
}

// HandleValidationError writes a 400 validation error response
func HandleValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(dto.GetHTTPStatus(shared.CodeValidation),
		dto.NewDomainErrorResponse(FormatValidationErrors(err), GetRequestID(c)))
}

// fieldPath drops the struct name from the namespace, e.g.
// "CreateInvoiceRequest.items[0].quantity" becomes "items[0].quantity"
func fieldPath(e validator.FieldError) string {
	if _, rest, ok := strings.Cut(e.Namespace(), "."); ok {
		return rest
	}
	return e.Field()
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " item(s)"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid", "tenant_uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "taxrate":
		return "Must be a percentage between 0 and 100 with at most 4 decimal places"
	default:
		return "Invalid value"
	}
}
