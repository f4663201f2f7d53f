package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rpupo63/foodgram-backend/errs"
	"github.com/rpupo63/foodgram-backend/models"
)

// Recipe payloads carry base64 images, so the cap is generous
const maxRequestBodyBytes = 10 << 20

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// getValidator returns the shared validator with the project's custom rules.
// Field names in errors are the JSON names.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return models.ValidateUsername(fl.Field().String()) == nil
		})
	})
	return validate
}

// decodeJSON reads the request body into dst and validates it
func decodeJSON(r *http.Request, dst any) error {
	if contentType := r.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			return errs.NewUnsupportedMediaTypeError(contentType, []string{"application/json"})
		}
	}

	data, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxRequestBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewPayloadTooLargeError(tooLarge.Limit)
		}
		return errs.NewMalformedPayloadError("unreadable", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return errs.NewMalformedPayloadError("empty", io.EOF)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return errs.NewValidationError(map[string]string{
				typeErr.Field: fmt.Sprintf("expected %s", typeErr.Type),
			})
		}
		return errs.NewInvalidJSONError(err)
	}

	return validateStruct(dst)
}

// validateStruct runs the struct tags of s and reports every failing field
func validateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return errs.NewBadRequestError(err.Error())
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, fieldErr := range validationErrs {
		field := fieldPath(fieldErr.Namespace())
		if _, seen := fieldErrors[field]; !seen {
			fieldErrors[field] = translateError(fieldErr)
		}
	}
	return errs.NewValidationError(fieldErrors)
}

// fieldPath drops the struct name from a validator namespace:
// recipeWriteRequest.ingredients[0].amount becomes ingredients[0].amount
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func translateError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "username":
		if err := models.ValidateUsername(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
		return "Enter a valid username."
	case "unique":
		return "Duplicate values are not allowed."
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("At least %s item(s) required.", fe.Param())
		}
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}

// parseIDParam reads a positive integer URL parameter. Anything else cannot
// name a row, so it is reported as not found.
func parseIDParam(r *http.Request, name, entity string) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, errs.NewNotFoundError(entity + " not found")
	}
	return uint(id), nil
}
