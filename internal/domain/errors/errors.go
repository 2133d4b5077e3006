package errors

import (
	"net/http"

	"firecms/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.details == "" {
		return e.message
	}

	return e.message + ": " + e.details
}

// Is matches any BaseError carrying the same business error code, so copies
// made by WithDetails still compare equal to the predefined value.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return t.errorCode == e.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Setup errors: bad options, unreadable resources. Fatal to the request.
	ErrConfiguration = NewBaseError(
		http.StatusInternalServerError,
		"CONFIGURATION_ERROR",
		"invalid configuration",
		"",
	)

	ErrTemplateNotFound = NewBaseError(
		http.StatusInternalServerError,
		"TEMPLATE_NOT_FOUND",
		"mail template not found",
		"",
	)

	// Mail transport errors
	ErrDelivery = NewBaseError(
		http.StatusBadGateway,
		"DELIVERY_FAILED",
		"mail delivery failed",
		"",
	)

	// Input validation errors
	ErrInvalidFileName = NewBaseError(
		http.StatusBadRequest,
		"INVALID_FILE_NAME",
		"invalid file name",
		"",
	)

	ErrInvalidRedirect = NewBaseError(
		http.StatusBadRequest,
		"INVALID_REDIRECT",
		"redirect target must be a local path",
		"",
	)

	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"input validation failed",
		"",
	)

	// Password errors
	ErrPasswordHashFailed = NewBaseError(
		http.StatusInternalServerError,
		"PASSWORD_HASH_FAILED",
		"password hashing failed",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"internal server error",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"resource not found",
		"",
	)
)

// ConfigurationError reports a deployment or setup problem: a missing or
// mistyped option, or a resource that cannot be read.
type ConfigurationError struct {
	err     error
	details string
}

// NewConfigurationError creates a configuration error wrapping err
func NewConfigurationError(err error, details string) *ConfigurationError {
	return &ConfigurationError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.err == nil {
		return "configuration error: " + e.details
	}

	return errors.Wrap(e.err, "configuration error").Error()
}

// Unwrap exposes both the cause and the ErrConfiguration kind
func (e *ConfigurationError) Unwrap() []error {
	if e.err == nil {
		return []error{ErrConfiguration}
	}

	return []error{e.err, ErrConfiguration}
}

// HTTPCode returns the HTTP status code
func (e *ConfigurationError) HTTPCode() int {
	return ErrConfiguration.HTTPCode()
}

// ErrorCode returns the business error code
func (e *ConfigurationError) ErrorCode() string {
	return ErrConfiguration.ErrorCode()
}

// Message returns the user-friendly error message
func (e *ConfigurationError) Message() string {
	return ErrConfiguration.Message()
}

// Details returns detailed error information
func (e *ConfigurationError) Details() string {
	return e.details
}

// TemplateNotFoundError reports a mail template that could not be read.
// It is a configuration error kind as well.
type TemplateNotFoundError struct {
	*ConfigurationError
	Template string
}

// NewTemplateNotFoundError creates a template lookup error for name
func NewTemplateNotFoundError(name string, err error) *TemplateNotFoundError {
	return &TemplateNotFoundError{
		ConfigurationError: NewConfigurationError(err, "template "+name),
		Template:           name,
	}
}

// Error implements the error interface
func (e *TemplateNotFoundError) Error() string {
	if e.err == nil {
		return "mail template not found: " + e.Template
	}

	return errors.Wrapf(e.err, "mail template not found: %s", e.Template).Error()
}

// Unwrap exposes the cause, ErrTemplateNotFound and ErrConfiguration
func (e *TemplateNotFoundError) Unwrap() []error {
	return append(e.ConfigurationError.Unwrap(), ErrTemplateNotFound)
}

// ErrorCode returns the business error code
func (e *TemplateNotFoundError) ErrorCode() string {
	return ErrTemplateNotFound.ErrorCode()
}

// Message returns the user-friendly error message
func (e *TemplateNotFoundError) Message() string {
	return ErrTemplateNotFound.Message()
}

// DeliveryError reports a transport level mail failure such as a refused
// connection, failed authentication or a timeout.
type DeliveryError struct {
	err     error
	details string
}

// NewDeliveryError creates a delivery error wrapping err
func NewDeliveryError(err error, details string) *DeliveryError {
	return &DeliveryError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DeliveryError) Error() string {
	return errors.Wrap(e.err, "mail delivery failed").Error()
}

// Unwrap exposes both the cause and the ErrDelivery kind
func (e *DeliveryError) Unwrap() []error {
	return []error{e.err, ErrDelivery}
}

// HTTPCode returns the HTTP status code
func (e *DeliveryError) HTTPCode() int {
	return ErrDelivery.HTTPCode()
}

// ErrorCode returns the business error code
func (e *DeliveryError) ErrorCode() string {
	return ErrDelivery.ErrorCode()
}

// Message returns the user-friendly error message
func (e *DeliveryError) Message() string {
	return ErrDelivery.Message()
}

// Details returns detailed error information
func (e *DeliveryError) Details() string {
	return e.details
}
