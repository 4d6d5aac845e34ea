// Package errors provides custom error types for the Kakebo API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Budget errors.
var (
	ErrBudgetNotFound = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
)

// Category errors.
var (
	ErrCategoryNotFound          = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrRemainingAllocationExists = &AppError{Code: "REMAINING_ALLOCATION_EXISTS", Message: `A category with "Remaining" allocation already exists`, StatusCode: http.StatusConflict}
	ErrLastCategory              = &AppError{Code: "LAST_CATEGORY", Message: "Cannot delete the last category of a budget", StatusCode: http.StatusConflict}
	ErrDuplicateCategoryName     = &AppError{Code: "DUPLICATE_CATEGORY_NAME", Message: "A category with this name already exists in this cycle", StatusCode: http.StatusConflict}
)

// Cycle errors. ErrUnsupportedCycleType indicates a corrupted budget
// configuration rather than a user mistake, so it maps to a server error.
var (
	ErrCycleNotFound        = &AppError{Code: "CYCLE_NOT_FOUND", Message: "Cycle not found", StatusCode: http.StatusNotFound}
	ErrCycleNotSnapshotted  = &AppError{Code: "INVALID_CYCLE_STATE", Message: "Cannot add categories to a cycle without a snapshot", StatusCode: http.StatusBadRequest}
	ErrUnsupportedCycleType = &AppError{Code: "UNSUPPORTED_CYCLE_TYPE", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Expense & payee errors.
var (
	ErrExpenseNotFound = &AppError{Code: "EXPENSE_NOT_FOUND", Message: "Expense not found", StatusCode: http.StatusNotFound}
	ErrPayeeNotFound   = &AppError{Code: "PAYEE_NOT_FOUND", Message: "Payee not found", StatusCode: http.StatusNotFound}
)

// Invitation errors.
var (
	ErrInvitationNotFound = &AppError{Code: "INVITATION_NOT_FOUND", Message: "Invitation not found", StatusCode: http.StatusNotFound}
	ErrInvitationExpired  = &AppError{Code: "INVITATION_EXPIRED", Message: "This invitation has expired", StatusCode: http.StatusBadRequest}
)
