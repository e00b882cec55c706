package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code,omitempty"`
	Details    string `json:"details,omitempty"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code       string
	Message    string
	RetryAfter int // seconds, only set for RATE_LIMITED / BLOCKED
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
	}
}

// NewRateLimitedError reports a quota rejection together with the number of
// seconds the caller should wait before retrying.
func NewRateLimitedError(retryAfter int) *AppError {
	return &AppError{
		Code:       "RATE_LIMITED",
		Message:    "Too many requests, slow down",
		RetryAfter: retryAfter,
	}
}

// NewBlockedError reports a rejection because the submitter is blocked.
func NewBlockedError(retryAfter int) *AppError {
	return &AppError{
		Code:       "BLOCKED",
		Message:    "Your account is blocked from performing this action",
		RetryAfter: retryAfter,
	}
}

// NewWindowExpiredError reports an edit/delete attempt outside the allowed window.
func NewWindowExpiredError(message string) *AppError {
	return &AppError{
		Code:    "WINDOW_EXPIRED",
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error:      appErr.Message,
			Code:       appErr.Code,
			RetryAfter: appErr.RetryAfter,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
		if appErr.RetryAfter > 0 {
			c.Set("Retry-After", fmt.Sprintf("%d", appErr.RetryAfter))
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
