// Package errors provides custom error types for the storefront system.
// These errors enable programmatic error checking across the sync job,
// the sale workflow and the HTTP layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the storefront system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates missing or rejected credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks the required authority
	ErrForbidden = errors.New("forbidden")

	// ErrUpstreamUnavailable indicates that the upstream catalog service failed
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrSyncInProgress indicates a sync cycle is already running
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// AlreadyExistsError represents a uniqueness conflict
type AlreadyExistsError struct {
	Resource string
	Field    string
	Value    string
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s with %s %s already exists", e.Resource, e.Field, e.Value)
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

// Is implements errors.Is support
func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(resource, field, value string) *AlreadyExistsError {
	return &AlreadyExistsError{Resource: resource, Field: field, Value: value}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error. A missing or malformed
// upstream token file surfaces as a ConfigError.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// APIError represents a non-success response from the upstream service
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Service, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return target == ErrUnauthorized
	}
	if e.StatusCode >= 500 {
		return target == ErrUpstreamUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(service string, statusCode int, message string) *APIError {
	return &APIError{
		Service:    service,
		StatusCode: statusCode,
		Message:    message,
	}
}

// FetchError represents a failed read from the upstream catalog. Every
// FetchError is retryable on the next scheduled cycle.
type FetchError struct {
	Resource string
	URL      string
	Err      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s: %v", e.Resource, e.URL, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FetchError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// Retryable reports whether the failed fetch may succeed on a later attempt.
func (e *FetchError) Retryable() bool {
	return true
}

// NewFetchError creates a new FetchError
func NewFetchError(resource, url string, err error) *FetchError {
	return &FetchError{Resource: resource, URL: url, Err: err}
}

// StoreError represents a failed read or write against the local store
type StoreError struct {
	Operation string // "list", "get", "create", "update", "upsert", "delete"
	Resource  string // "device", "sale", "user", ...
	ID        string
	Err       error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store: failed to %s %s %s: %v", e.Operation, e.Resource, e.ID, e.Err)
	}
	return fmt.Sprintf("store: failed to %s %s: %v", e.Operation, e.Resource, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError
func NewStoreError(operation, resource, id string, err error) *StoreError {
	return &StoreError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Err:       err,
	}
}

// SaleError represents an upstream failure while placing a sale
type SaleError struct {
	DeviceID int64
	Err      error
}

// Error implements the error interface
func (e *SaleError) Error() string {
	return fmt.Sprintf("sale of device %d rejected by upstream: %v", e.DeviceID, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SaleError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SaleError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// NewSaleError creates a new SaleError
func NewSaleError(deviceID int64, err error) *SaleError {
	return &SaleError{DeviceID: deviceID, Err: err}
}

// AuthenticationError represents an authentication/authorization error
type AuthenticationError struct {
	Login   string
	Method  string // "password", "jwt", "activation_key", "reset_key"
	Message string
	Err     error
}

// Error implements the error interface
func (e *AuthenticationError) Error() string {
	if e.Login != "" {
		return fmt.Sprintf("authentication error for %s (%s): %s", e.Login, e.Method, e.Message)
	}
	return fmt.Sprintf("authentication error (%s): %s", e.Method, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrUnauthorized
}

// NewAuthenticationError creates a new AuthenticationError
func NewAuthenticationError(login, method, message string, err error) *AuthenticationError {
	return &AuthenticationError{
		Login:   login,
		Method:  method,
		Message: message,
		Err:     err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", ...
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsUnauthorized checks if an error is an authentication error
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsUpstreamUnavailable checks if an error came from a failed upstream call
func IsUpstreamUnavailable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// IsStoreError checks if an error is a local store error
func IsStoreError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}

// IsRetryable checks if an error may succeed on a later attempt
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}

// Class returns a short name for the error's taxonomy class, suitable for
// log fields and metric labels.
func Class(err error) string {
	var (
		cfgErr   *ConfigError
		fetchErr *FetchError
		storeErr *StoreError
		saleErr  *SaleError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &cfgErr):
		return "config"
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &storeErr):
		return "store"
	case errors.As(err, &saleErr):
		return "sale"
	case errors.Is(err, ErrSyncInProgress):
		return "in_progress"
	case errors.Is(err, ErrCanceled), errors.Is(err, ErrTimeout):
		return "canceled"
	default:
		return "unknown"
	}
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapStore wraps an error as a StoreError
func WrapStore(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewStoreError(operation, resource, id, err)
}

// WrapConfig wraps an error as a ConfigError
func WrapConfig(component, message string, err error) error {
	if err == nil {
		return nil
	}
	return NewConfigError(component, message, err)
}

// WrapFetch wraps an error as a FetchError
func WrapFetch(resource, url string, err error) error {
	if err == nil {
		return nil
	}
	return NewFetchError(resource, url, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
