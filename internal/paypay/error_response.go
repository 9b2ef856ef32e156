package paypay

// error_response.go implements the standard error response format for the merchant API.
// it includes functions to map lower level errors to the error response format (returned to the client)

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/iamrosada0/paypay-integration-simplified/internal/crypto"
	"github.com/iamrosada0/paypay-integration-simplified/internal/logger"
)

// ErrorResponse represents the merchant API error response format
type ErrorResponse struct {

	// The HTTP method used to make the request e.g. GET, POST, etc
	HTTPMethod string `json:"httpMethod"`

	// The URI that was requested
	RequestURI string `json:"requestUri"`

	// The HTTP status code returned
	StatusCode int `json:"statusCode"`

	// A standard short description corresponding to the HTTP status code
	StatusCodeText string `json:"statusCodeText"`

	// A long description corresponding to the HTTP status code with additional information
	StatusCodeMessage string `json:"statusCodeMessage,omitempty"`

	// A unique identifier for the HTTP request, for correlating client reports with server logs
	RequestID string `json:"requestId,omitempty"`

	// The DateTime corresponding to the error occurring
	ErrorDateTime string `json:"errorDateTime"`

	// An array of errors providing more detail about the root cause
	Errors []DetailedError `json:"errors"`
}

// DetailedError represents a detailed error in the merchant API error response
type DetailedError struct {
	// error code: 7000-7999 for technical errors, 8000-8999 for functional errors
	ErrorCode        ErrorCode `json:"errorCode"`
	ErrorCodeText    string    `json:"errorCodeText"`
	ErrorCodeMessage string    `json:"errorCodeMessage"`
}

// MapErrorToResponse maps paypay.PayPayError, crypto.CryptoError, or generic errors to an API error response.
//
// The error code text is sanitized for the response, but the full error message is logged server-side.
// The mapping also establishes the appropriate HTTP status code based on the error type.
//
// Call this function to set up the error response before sending it to the client (using RespondWithErrorResponse).
func MapErrorToResponse(err error, r *http.Request) *ErrorResponse {
	requestID := middleware.GetReqID(r.Context())

	// Try to extract the most specific error type first (paypay.PayPayError)
	var payPayErr *PayPayError
	if errors.As(err, &payPayErr) {
		return errorResponseFromPayPay(payPayErr, r, requestID)
	}

	// Then try crypto.CryptoError
	var cryptoErr *crypto.CryptoError
	if errors.As(err, &cryptoErr) {
		return errorResponseFromCrypto(cryptoErr, r, requestID)
	}

	// fallback - this is not expected - if it happens, return an internal error response and log the unmapped error
	reqLogger := logger.ContextRequestLogger(r.Context())
	reqLogger.Error("BUG: Unmapped error type in MapErrorToResponse",
		slog.String("error_type", fmt.Sprintf("%T", err)),
		slog.String("error", err.Error()),
		slog.String("request_id", requestID),
	)
	return &ErrorResponse{
		HTTPMethod:        r.Method,
		RequestURI:        r.RequestURI,
		StatusCode:        http.StatusInternalServerError,
		StatusCodeText:    http.StatusText(http.StatusInternalServerError),
		StatusCodeMessage: "Internal Error",
		RequestID:         requestID,
		ErrorDateTime:     time.Now().UTC().Format(time.RFC3339),
		Errors: []DetailedError{
			{
				ErrorCode:        ErrCodeInternalError,
				ErrorCodeText:    "Internal Error",
				ErrorCodeMessage: "An internal error occurred",
			},
		},
	}
}

// errorResponseFromPayPay maps paypay.PayPayError to API error responses
// the error code text is sanitized for the response, but the full error message is logged server-side
func errorResponseFromPayPay(err *PayPayError, r *http.Request, requestID string) *ErrorResponse {
	var statusCode int
	var errorCodeText string

	// Map error code to HTTP status and text
	switch err.Code() {
	case ErrCodeBadSignature:
		statusCode = http.StatusBadRequest
		errorCodeText = "Bad signature"
	case ErrCodeMalformedRequest:
		statusCode = http.StatusBadRequest
		errorCodeText = "Malformed request"
	case ErrCodeInvalidTrade:
		statusCode = http.StatusBadRequest
		errorCodeText = "Invalid trade"
	case ErrCodeKeyError:
		// keys are server-side configuration, so a key problem is never the client's fault
		statusCode = http.StatusInternalServerError
		errorCodeText = "Key error"
	case ErrCodeGatewayError:
		statusCode = http.StatusBadGateway
		errorCodeText = "Gateway error"
	case ErrCodeRateLimitExceeded:
		statusCode = http.StatusTooManyRequests
		errorCodeText = "Rate limit exceeded"
	case ErrCodeRequestTooLarge:
		statusCode = http.StatusRequestEntityTooLarge
		errorCodeText = "Request too large"
	case ErrCodeUnknownPayment:
		statusCode = http.StatusNotFound
		errorCodeText = "Unknown payment"
	case ErrCodeDuplicateNotification:
		statusCode = http.StatusConflict
		errorCodeText = "Duplicate notification"
	case ErrCodeDuplicatePayment:
		statusCode = http.StatusConflict
		errorCodeText = "Duplicate payment"
	default:
		statusCode = http.StatusInternalServerError
		errorCodeText = "Internal Error"
	}

	return &ErrorResponse{
		HTTPMethod:        r.Method,
		RequestURI:        r.RequestURI,
		StatusCode:        statusCode,
		StatusCodeText:    http.StatusText(statusCode),
		StatusCodeMessage: errorCodeText,
		RequestID:         requestID,
		ErrorDateTime:     time.Now().UTC().Format(time.RFC3339),
		Errors: []DetailedError{
			{
				ErrorCode:        err.Code(),
				ErrorCodeText:    errorCodeText,
				ErrorCodeMessage: err.Error(),
			},
		},
	}
}

// errorResponseFromCrypto maps crypto.CryptoError to API error responses
// the error code text is sanitized for the response, but the full error message is logged server-side
func errorResponseFromCrypto(err *crypto.CryptoError, r *http.Request, requestID string) *ErrorResponse {
	var statusCode int
	var errorCode ErrorCode
	var errorCodeText string

	switch err.Code() {
	case crypto.ErrCodeMalformedSignature:
		// the client sent a sign value that could not even be decoded
		statusCode = http.StatusBadRequest
		errorCode = ErrCodeBadSignature
		errorCodeText = "Bad signature"
	case crypto.ErrCodeKeyFormat:
		statusCode = http.StatusInternalServerError
		errorCode = ErrCodeKeyError
		errorCodeText = "Key error"
	case crypto.ErrCodeEncryption, crypto.ErrCodeSignature:
		// signing and encryption happen with the server's own key material
		statusCode = http.StatusInternalServerError
		errorCode = ErrCodeInternalError
		errorCodeText = "Internal Error"
	default:
		statusCode = http.StatusInternalServerError
		errorCode = ErrCodeInternalError
		errorCodeText = "Internal Error"
	}

	return &ErrorResponse{
		HTTPMethod:        r.Method,
		RequestURI:        r.RequestURI,
		StatusCode:        statusCode,
		StatusCodeText:    http.StatusText(statusCode),
		StatusCodeMessage: errorCodeText,
		RequestID:         requestID,
		ErrorDateTime:     time.Now().UTC().Format(time.RFC3339),
		Errors: []DetailedError{
			{
				ErrorCode:        errorCode,
				ErrorCodeText:    errorCodeText,
				ErrorCodeMessage: err.Error(),
			},
		},
	}
}
