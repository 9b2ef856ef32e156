package paypay

// responses.go provides helper functions for sending HTTP responses from the merchant API handlers.

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iamrosada0/paypay-integration-simplified/internal/logger"
)

// RespondWithErrorResponse sends a merchant API error response as a JSON payload.
//
// Use this function when a request failed because it was malformed or because
// of a server-side error.
//
// It logs the full error details server-side and sends a sanitized response to the client
func RespondWithErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	// Map the error to the API format
	errorResponse := MapErrorToResponse(err, r)

	// Log the full error details server-side
	reqLogger := logger.ContextRequestLogger(r.Context())
	reqLogger.Warn("Request failed",
		slog.String("error", err.Error()),
		slog.Int("status_code", errorResponse.StatusCode),
		slog.String("error_code_text", errorResponse.StatusCodeMessage),
		slog.String("request_id", errorResponse.RequestID),
	)

	RespondWithJSONPayload(w, errorResponse.StatusCode, errorResponse)
}

// RespondWithJSONPayload sends a JSON response with the given status code
//
// Use this function when returning a standard response to the client.
//
// If returning information about an error, use RespondWithErrorResponse which
// maps the error to the API error format first.
func RespondWithJSONPayload(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// If encoding fails, log it but don't try to send another response
			// (headers are already written)
			slog.Error("Failed to encode JSON response",
				slog.String("error", err.Error()),
			)
		}
	}
}

// RespondWithStatusCodeOnly sends a response with only a status code (no body)
func RespondWithStatusCodeOnly(w http.ResponseWriter, statusCode int) {
	w.WriteHeader(statusCode)
}

// RespondWithAck sends a notification acknowledgement as a plain text body.
//
// The gateway does not parse JSON from the callback response: it retries
// delivery until it reads the literal body "success", so the ack must be sent
// raw (see AckSuccess / AckFail). The HTTP status is 200 in both cases - the
// ack body, not the status code, is what the gateway acts on.
func RespondWithAck(w http.ResponseWriter, ack string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(ack)); err != nil {
		// If writing fails, log it but don't try to send another response
		// (headers are already written)
		slog.Error("Failed to write notification ack",
			slog.String("error", err.Error()),
		)
	}
}
