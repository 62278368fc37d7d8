package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Use errors.Is against these to classify a failure.
var (
	ErrMalformedLine     = errors.New("malformed command")
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("payment not found")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrAlreadyRefunded   = fmt.Errorf("%w: already refunded", ErrInvalidTransition)
	ErrConflict          = errors.New("payment conflict")
	ErrOverLimit         = errors.New("amount over limit")
	ErrUnknownCommand    = errors.New("unknown command")
)

// AppError is a failure with a stable code and an operator-facing message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the error kind.
func (e *AppError) Unwrap() error {
	return e.Err
}

// MalformedLine creates a malformed input error.
func MalformedLine(message string) *AppError {
	return &AppError{
		Code:    "MALFORMED_LINE",
		Message: "Malformed command: " + message,
		Err:     ErrMalformedLine,
	}
}

// Validation creates a validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Err:     ErrValidation,
	}
}

// NotFound creates a not found error for a payment ID.
func NotFound(paymentID string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("Payment with ID %q does not exist.", paymentID),
		Err:     ErrNotFound,
	}
}

// InvalidTransition creates an error for an operation the current state does not permit.
func InvalidTransition(paymentID string, op Operation, current PaymentState) *AppError {
	return &AppError{
		Code: "INVALID_TRANSITION",
		Message: fmt.Sprintf("Payment with ID %q is not in a state that can be %s. Current state: %s",
			paymentID, op.pastTense(), current),
		Err: ErrInvalidTransition,
	}
}

// AlreadyRefunded creates the refund-specific transition error.
func AlreadyRefunded(paymentID string) *AppError {
	return &AppError{
		Code:    "ALREADY_REFUNDED",
		Message: fmt.Sprintf("Payment with ID %q has already been refunded.", paymentID),
		Err:     ErrAlreadyRefunded,
	}
}

// Conflict creates a conflicting CREATE error.
func Conflict(paymentID string) *AppError {
	return &AppError{
		Code: "CONFLICT",
		Message: fmt.Sprintf("Payment with ID %q already exists with different details. Marked as FAILED due to conflict.",
			paymentID),
		Err: ErrConflict,
	}
}

// OverLimit creates an over-refund error.
func OverLimit(paymentID string) *AppError {
	return &AppError{
		Code:    "OVER_LIMIT",
		Message: fmt.Sprintf("Refund amount exceeds the original payment amount for Payment ID %q.", paymentID),
		Err:     ErrOverLimit,
	}
}

// UnknownCommand creates an error naming the unrecognized command token.
func UnknownCommand(name string) *AppError {
	return &AppError{
		Code:    "UNKNOWN_COMMAND",
		Message: fmt.Sprintf("Unknown command: %q, Please enter a valid command.", name),
		Err:     ErrUnknownCommand,
	}
}

// ErrorCode returns the AppError code carried by err, or INTERNAL_ERROR.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL_ERROR"
}

func currencyList() string {
	codes := make([]string, len(AllowedCurrencies))
	for i, c := range AllowedCurrencies {
		codes[i] = string(c)
	}
	return strings.Join(codes, ", ")
}

// UnsupportedCurrency creates the validation error for a currency outside the allow-list.
func UnsupportedCurrency(code string) *AppError {
	return Validation(fmt.Sprintf("Currency %q is not supported. Allowed currencies: %s", code, currencyList()))
}
