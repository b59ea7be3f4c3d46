package domain

import (
	"errors"
	"net/http"
)

type Code string

const (
	CodeUnauthenticated         Code = "Unauthenticated"
	CodeForbidden               Code = "Forbidden"
	CodeNotFound                Code = "NotFound"
	CodeConflict                Code = "Conflict"
	CodeAlreadyExists           Code = "AlreadyExists"
	CodeValidationFailed        Code = "ValidationFailed"
	CodeIllegalTransition       Code = "IllegalTransition"
	CodeOverlappingShift        Code = "OverlappingShift"
	CodePaymentAlreadyExists    Code = "PaymentAlreadyExists"
	CodeRefundFailed            Code = "RefundFailed"
	CodeProviderUnavailable     Code = "ProviderUnavailable"
	CodeInvalidWebhookSignature Code = "InvalidWebhookSignature"
	CodeRateLimited             Code = "RateLimited"
	CodeInternal                Code = "Internal"
)

type Error struct {
	Code       Code
	Message    string
	StatusCode int
	Details    map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// AsError unwraps err into a taxonomy error.
func AsError(err error) (*Error, bool) {
	var derr *Error
	ok := errors.As(err, &derr)
	return derr, ok
}

func newError(code Code, message string, status int, details map[string]any) *Error {
	return &Error{Code: code, Message: message, StatusCode: status, Details: details}
}

func Unauthenticated(message string) *Error {
	return newError(CodeUnauthenticated, message, http.StatusUnauthorized, nil)
}

func Forbidden(message string) *Error {
	return newError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NotFound(message string) *Error {
	return newError(CodeNotFound, message, http.StatusNotFound, nil)
}

func Conflict(message string) *Error {
	return newError(CodeConflict, message, http.StatusConflict, nil)
}

func AlreadyExists(message string) *Error {
	return newError(CodeAlreadyExists, message, http.StatusConflict, nil)
}

func Validation(message string) *Error {
	return newError(CodeValidationFailed, message, http.StatusBadRequest, nil)
}

func ValidationDetails(message string, details map[string]any) *Error {
	return newError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func IllegalTransition(from, to string) *Error {
	return newError(CodeIllegalTransition, "Transition "+from+" -> "+to+" is not allowed", http.StatusBadRequest, map[string]any{
		"from": from,
		"to":   to,
	})
}

func OverlappingShift(message string) *Error {
	return newError(CodeOverlappingShift, message, http.StatusUnprocessableEntity, nil)
}

func PaymentAlreadyExists(orderID string) *Error {
	return newError(CodePaymentAlreadyExists, "Order already has a payment", http.StatusConflict, map[string]any{
		"orderId": orderID,
	})
}

func RefundFailed(message string) *Error {
	return newError(CodeRefundFailed, message, http.StatusConflict, nil)
}

func ProviderUnavailable(message string) *Error {
	return newError(CodeProviderUnavailable, message, http.StatusServiceUnavailable, nil)
}

func InvalidWebhookSignature() *Error {
	return newError(CodeInvalidWebhookSignature, "Webhook signature verification failed", http.StatusBadRequest, nil)
}

func RateLimited() *Error {
	return newError(CodeRateLimited, "Too many requests", http.StatusTooManyRequests, nil)
}

func Internal(message string) *Error {
	return newError(CodeInternal, message, http.StatusInternalServerError, nil)
}
