// Package response provides standardized HTTP response structures and helpers
// for the storefront API. All API responses follow a consistent format with
// a data field for successful responses and an error field for failures.
package response

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// TotalCountHeader carries the unpaged size of a listing.
const TotalCountHeader = "X-Total-Count"

// Response represents the standardized API response structure.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error represents an API error with code, message, and optional details.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success creates a successful response with data.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail creates an error response.
func Fail(code, message, details string) Response {
	return Response{
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent, so an encoding error cannot be reported.
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes a successful response with 200 status.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// Page writes one page of a listing with its total count header.
func Page(w http.ResponseWriter, data any, total int64) {
	w.Header().Set(TotalCountHeader, strconv.FormatInt(total, 10))
	OK(w, data)
}

// Created writes a 201 response with a Location header.
func Created(w http.ResponseWriter, location string, data any) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	JSON(w, http.StatusCreated, Success(data))
}

// Accepted writes a 202 response.
func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, Success(data))
}

// NoContent writes a 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail("BAD_REQUEST", message, details))
}

// Unauthorized writes a 401 error response.
func Unauthorized(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusUnauthorized, Fail("UNAUTHORIZED", message, details))
}

// Forbidden writes a 403 error response.
func Forbidden(w http.ResponseWriter, message string) {
	JSON(w, http.StatusForbidden, Fail("FORBIDDEN", message, ""))
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail("NOT_FOUND", message, details))
}

// MethodNotAllowed writes a 405 error response.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	JSON(w, http.StatusMethodNotAllowed, Fail(
		"METHOD_NOT_ALLOWED",
		"Method not allowed",
		"Method "+method+" is not supported for this endpoint",
	))
}

// Conflict writes a 409 error response.
func Conflict(w http.ResponseWriter, message string) {
	JSON(w, http.StatusConflict, Fail("CONFLICT", message, ""))
}

// RateLimited writes a 429 error response.
func RateLimited(w http.ResponseWriter, message string) {
	JSON(w, http.StatusTooManyRequests, Fail(
		"RATE_LIMITED",
		"Rate limit exceeded",
		message,
	))
}

// InternalError writes a 500 error response. Details are not exposed.
func InternalError(w http.ResponseWriter, _ error) {
	JSON(w, http.StatusInternalServerError, Fail(
		"INTERNAL_ERROR",
		"Internal server error",
		"An unexpected error occurred",
	))
}

// BadGateway writes a 502 error response for upstream failures.
func BadGateway(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadGateway, Fail(
		"UPSTREAM_ERROR",
		"Upstream service failed",
		message,
	))
}

// ServiceUnavailable writes a 503 error response.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	JSON(w, http.StatusServiceUnavailable, Fail(
		"SERVICE_UNAVAILABLE",
		"Service unavailable",
		message,
	))
}

// ErrorFromType maps typed errors to appropriate HTTP responses. Errors that
// end up as 500 are logged with the request's logger.
func ErrorFromType(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound *errors.NotFoundError
		invalid  *errors.ValidationError
		exists   *errors.AlreadyExistsError
		authErr  *errors.AuthenticationError
		saleErr  *errors.SaleError
		fetchErr *errors.FetchError
		parseErr *errors.ParseError
	)
	switch {
	case stderrors.As(err, &saleErr):
		BadGateway(w, saleErr.Error())
	case stderrors.As(err, &fetchErr):
		BadGateway(w, fetchErr.Error())
	case stderrors.As(err, &notFound):
		NotFound(w, notFound.Error(), "")
	case stderrors.As(err, &invalid):
		BadRequest(w, invalid.Error(), "")
	case stderrors.As(err, &parseErr):
		BadRequest(w, "Malformed request body", parseErr.Error())
	case stderrors.As(err, &exists):
		BadRequest(w, exists.Error(), "")
	case stderrors.As(err, &authErr):
		Unauthorized(w, authErr.Message, "")
	case stderrors.Is(err, errors.ErrForbidden):
		Forbidden(w, err.Error())
	case stderrors.Is(err, errors.ErrSyncInProgress):
		Conflict(w, err.Error())
	default:
		logging.FromContext(r.Context()).Error().
			Err(err).
			Str("error_class", errors.Class(err)).
			Msg("Request failed")
		InternalError(w, err)
	}
}
