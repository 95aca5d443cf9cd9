package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Auction State Machine (AUC) ----

func ErrNotPermitted() *AppError {
	return New("AUC_001", "Caller is not on the auction allow-list", http.StatusForbidden)
}

func ErrNotRunning() *AppError {
	return New("AUC_002", "Auction is not in the running phase", http.StatusConflict)
}

func ErrBidTooLow(minimum int64) *AppError {
	return New("AUC_003", fmt.Sprintf("Bid is below the current minimum of %d", minimum), http.StatusUnprocessableEntity)
}

func ErrTransferFailed(err error) *AppError {
	return Wrap("AUC_004", "Asset transfer failed", http.StatusPaymentRequired, err)
}

func ErrNotAuthorized() *AppError {
	return New("AUC_005", "Caller is not authorized for this operation", http.StatusForbidden)
}

func ErrAuctionNotComplete() *AppError {
	return New("AUC_006", "Auction has not completed yet", http.StatusConflict)
}

func ErrAlreadyWithdrawn() *AppError {
	return New("AUC_007", "Seller proceeds have already been withdrawn", http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("AUC_008", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Ledger (LED) ----

func ErrInsufficientFunds() *AppError {
	return New("LED_001", "Insufficient balance in ledger account", http.StatusPaymentRequired)
}

func ErrInvalidAmount() *AppError {
	return New("LED_002", "Invalid amount", http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrAccountSuspended() *AppError {
	return New("AUTH_004", "Account is suspended", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
