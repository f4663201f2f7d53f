package errs

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	Unauthorized = NewUnauthorizedError("authentication credentials were not provided")
)

// Request & Input-Validation Errors
var (
	ErrMalformedPayload     = errors.New("malformed payload")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidField         = errors.New("invalid field")
	ErrValidation           = errors.New("validation failed")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidJSON          = errors.New("invalid JSON")
	ErrPayloadTooLarge      = errors.New("payload too large")
)

// Authentication & Authorization Errors
var (
	ErrInvalidToken       = errors.New("invalid access token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthor          = errors.New("not the author")
)

// Relationship toggle errors
var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotPresent    = errors.New("does not exist")
	ErrSelfReference = errors.New("cannot reference itself")
)

func NewMalformedPayloadError(payloadType string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrMalformedPayload,
		Details:    fmt.Sprintf("Malformed %s payload", payloadType),
		Cause:      cause,
		Field:      "payload",
	}
}

func NewInvalidJSONError(cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidJSON,
		Details:    "Invalid JSON format",
		Cause:      cause,
		Field:      "json",
	}
}

func NewPayloadTooLargeError(limit int64) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusRequestEntityTooLarge,
		err:        ErrPayloadTooLarge,
		Details:    fmt.Sprintf("Request body exceeds %d bytes", limit),
		Field:      "payload",
	}
}

func NewMissingRequiredFieldError(fieldName string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrMissingRequiredField,
		Details:    fmt.Sprintf("Missing required field: %s", fieldName),
		Field:      fieldName,
	}
}

func NewInvalidFieldError(fieldName string, reason string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidField,
		Details:    fmt.Sprintf("Invalid field %s: %s", fieldName, reason),
		Field:      fieldName,
	}
}

// NewValidationError reports several field failures at once. When only one
// field failed, Field is set as well so clients can treat it like
// NewInvalidFieldError.
func NewValidationError(fieldErrors map[string]string) *ApiErr {
	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	apiErr := &ApiErr{
		StatusCode:  http.StatusBadRequest,
		err:         ErrValidation,
		FieldErrors: fieldErrors,
	}
	if len(fields) == 1 {
		apiErr.Field = fields[0]
		apiErr.Details = fieldErrors[fields[0]]
	} else {
		apiErr.Details = "Invalid fields: " + strings.Join(fields, ", ")
	}
	return apiErr
}

func NewUnsupportedMediaTypeError(contentType string, allowedTypes []string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnsupportedMediaType,
		err:        ErrUnsupportedMediaType,
		Details:    fmt.Sprintf("Unsupported media type: %s. Allowed types: %v", contentType, allowedTypes),
		Field:      "content_type",
	}
}

func NewInvalidTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidToken,
		Details:    "Invalid or revoked access token",
		Field:      "authorization",
	}
}

func NewInvalidCredentialsError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidCredentials,
		Details:    "Unable to log in with provided credentials",
	}
}

func NewNotAuthorError(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusForbidden,
		err:        fmt.Errorf("%w: %w", ErrForbidden, ErrNotAuthor),
		Details:    fmt.Sprintf("Only the author may modify this %s", entity),
	}
}

// NewAlreadyExistsError is returned when adding a relation that is already present.
func NewAlreadyExistsError(relation string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        fmt.Errorf("%s %w", relation, ErrAlreadyExists),
	}
}

// NewNotPresentError is returned when removing a relation that is absent.
func NewNotPresentError(relation string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        fmt.Errorf("%s %w", relation, ErrNotPresent),
	}
}

func NewSelfReferenceError(relation string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        fmt.Errorf("%s %w", relation, ErrSelfReference),
	}
}

func IsInvalidFieldError(err error) bool {
	return errors.Is(err, ErrInvalidField)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsAlreadyExistsError(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsNotPresentError(err error) bool {
	return errors.Is(err, ErrNotPresent)
}
