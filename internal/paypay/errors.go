package paypay

// errors.go defines the error codes used by the merchant API

import "fmt"

// PayPayError represents a structured error from the paypay package.
type PayPayError struct {
	// code is the merchant API error code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *PayPayError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *PayPayError) Code() ErrorCode { return e.code }
func (e *PayPayError) Unwrap() error   { return e.wrapped }

// ErrorCode is used in errors returned by the merchant API.
//
// The gateway does not standardize merchant-side error codes, so this
// implementation follows the common convention of splitting the range:
//
//   - 7000-7999 for technical errors - used when it is not possible to process a request due to a technical issue with the supplied data.
//   - 8000-8999 for functional errors - used when the request is technically valid but there is a business logic reason preventing the request from being processed.
type ErrorCode int

// Error codes used by this implementation of the merchant API
const (

	// ErrCodeBadSignature is used when an envelope or notification signature verification fails
	// (e.g. invalid signature, wrong key, tampered fields)
	ErrCodeBadSignature ErrorCode = 7001

	// ErrCodeMalformedRequest is used when JSON or form parsing fails
	ErrCodeMalformedRequest ErrorCode = 7002

	// ErrCodeInvalidTrade is used when trade validation fails
	// this includes missing required fields, invalid amounts, malformed timeouts, etc.
	ErrCodeInvalidTrade ErrorCode = 7003

	// ErrCodeInternalError is used when an internal server error occurs
	ErrCodeInternalError ErrorCode = 7004

	// ErrCodeKeyError is used when there is a problem with the merchant or gateway key
	// (e.g. the PEM file cannot be loaded, or the key is not valid for the requested operation)
	ErrCodeKeyError ErrorCode = 7005

	// ErrCodeGatewayError is used when the upstream gateway cannot be reached
	// or returns an unusable response
	ErrCodeGatewayError ErrorCode = 7006

	// ErrCodeRateLimitExceeded is used when the rate limit is exceeded
	// - this is only used in the middleware
	ErrCodeRateLimitExceeded ErrorCode = 7007

	// ErrCodeRequestTooLarge is used when the request body is too large
	// - this is only used in the middleware
	ErrCodeRequestTooLarge ErrorCode = 7008

	// ErrCodeUnknownPayment is used when an out_trade_no is not found in the store
	ErrCodeUnknownPayment ErrorCode = 8001

	// ErrCodeDuplicateNotification is used when a notification has already been processed
	// the gateway retries callbacks until acked, so duplicates are expected in normal operation
	ErrCodeDuplicateNotification ErrorCode = 8002

	// ErrCodeDuplicatePayment is used when an out_trade_no has already been submitted
	ErrCodeDuplicatePayment ErrorCode = 8003
)

// NewBadSignatureError creates a signature verification error.
// Use this when a notification or gateway response signature does not verify.
//
// The returned error will have code ErrCodeBadSignature.
func NewBadSignatureError(msg string) error {
	return &PayPayError{code: ErrCodeBadSignature, message: msg}
}

// WrapBadSignatureError wraps an existing error as a signature verification error.
// Use this when a notification or gateway response signature does not verify.
//
// The returned error will have code ErrCodeBadSignature.
func WrapBadSignatureError(err error, msg string) error {
	return &PayPayError{code: ErrCodeBadSignature, message: msg, wrapped: err}
}

// NewMalformedRequestError creates an error for malformed requests.
func NewMalformedRequestError(msg string) error {
	return &PayPayError{code: ErrCodeMalformedRequest, message: msg}
}

// WrapMalformedRequestError wraps an existing error as a malformed request error.
func WrapMalformedRequestError(err error, msg string) error {
	return &PayPayError{code: ErrCodeMalformedRequest, message: msg, wrapped: err}
}

// NewValidationError creates a validation error for invalid trade input.
// Use this for errors related to missing required fields, bad amounts,
// or malformed trade data in the merchant API context.
//
// The returned error will have code ErrCodeInvalidTrade.
func NewValidationError(msg string) error {
	return &PayPayError{code: ErrCodeInvalidTrade, message: msg}
}

// WrapValidationError wraps an existing error as a validation error.
// Use this for errors related to missing required fields, bad amounts,
// or malformed trade data in the merchant API context.
//
// The returned error will have code ErrCodeInvalidTrade.
func WrapValidationError(err error, msg string) error {
	return &PayPayError{code: ErrCodeInvalidTrade, message: msg, wrapped: err}
}

// NewKeyError creates a key management error.
// Use this for errors related to key loading, key not found, or invalid key
// format in the merchant API context.
//
// The returned error will have code ErrCodeKeyError.
func NewKeyError(msg string) error {
	return &PayPayError{code: ErrCodeKeyError, message: msg}
}

// WrapKeyError wraps an existing error as a key management error.
// Use this for errors related to key loading, key not found, or invalid key
// format in the merchant API context.
//
// The returned error will have code ErrCodeKeyError.
func WrapKeyError(err error, msg string) error {
	return &PayPayError{code: ErrCodeKeyError, message: msg, wrapped: err}
}

// NewGatewayError creates an upstream gateway error.
// Use this for errors related to the gateway being unreachable, timing out,
// or returning an unusable response.
//
// The returned error will have code ErrCodeGatewayError.
func NewGatewayError(msg string) error {
	return &PayPayError{code: ErrCodeGatewayError, message: msg}
}

// WrapGatewayError wraps an existing error as an upstream gateway error.
// Use this for errors related to the gateway being unreachable, timing out,
// or returning an unusable response.
//
// The returned error will have code ErrCodeGatewayError.
func WrapGatewayError(err error, msg string) error {
	return &PayPayError{code: ErrCodeGatewayError, message: msg, wrapped: err}
}

// NewInternalError creates an internal error for unexpected failures.
// Use this for errors related to unexpected nil values, system errors,
// or other failures that should not normally occur.
//
// The returned error will have code ErrCodeInternalError.
func NewInternalError(msg string) error {
	return &PayPayError{code: ErrCodeInternalError, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
// Use this for errors related to unexpected nil values, system errors,
// or other failures that should not normally occur.
//
// The returned error will have code ErrCodeInternalError.
func WrapInternalError(err error, msg string) error {
	return &PayPayError{code: ErrCodeInternalError, message: msg, wrapped: err}
}

// NewRateLimitError creates a rate limit exceeded error.
// Use this when the client has exceeded the rate limit.
//
// The returned error will have code ErrCodeRateLimitExceeded.
func NewRateLimitError(msg string) error {
	return &PayPayError{code: ErrCodeRateLimitExceeded, message: msg}
}

// NewRequestTooLargeError creates a request too large error.
// Use this when the request body exceeds the maximum allowed size.
//
// The returned error will have code ErrCodeRequestTooLarge.
func NewRequestTooLargeError(msg string) error {
	return &PayPayError{code: ErrCodeRequestTooLarge, message: msg}
}

// NewUnknownPaymentError creates an error for lookups of payments that do not exist.
//
// The returned error will have code ErrCodeUnknownPayment.
func NewUnknownPaymentError(msg string) error {
	return &PayPayError{code: ErrCodeUnknownPayment, message: msg}
}

// NewDuplicateNotificationError creates an error for notifications that were already processed.
//
// The returned error will have code ErrCodeDuplicateNotification.
func NewDuplicateNotificationError(msg string) error {
	return &PayPayError{code: ErrCodeDuplicateNotification, message: msg}
}

// NewDuplicatePaymentError creates an error for out_trade_no values that were already submitted.
//
// The returned error will have code ErrCodeDuplicatePayment.
func NewDuplicatePaymentError(msg string) error {
	return &PayPayError{code: ErrCodeDuplicatePayment, message: msg}
}
