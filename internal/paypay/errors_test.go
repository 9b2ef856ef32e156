package paypay

import "testing"

// sanity check that the error codes are in the correct range

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		errCode  ErrorCode
		wantCode int
	}{
		{"bad_signature", ErrCodeBadSignature, 7001},
		{"malformed_request", ErrCodeMalformedRequest, 7002},
		{"invalid_trade", ErrCodeInvalidTrade, 7003},
		{"internal_error", ErrCodeInternalError, 7004},
		{"key_error", ErrCodeKeyError, 7005},
		{"gateway_error", ErrCodeGatewayError, 7006},
		{"rate_limit_exceeded", ErrCodeRateLimitExceeded, 7007},
		{"request_too_large", ErrCodeRequestTooLarge, 7008},
		{"unknown_payment", ErrCodeUnknownPayment, 8001},
		{"duplicate_notification", ErrCodeDuplicateNotification, 8002},
		{"duplicate_payment", ErrCodeDuplicatePayment, 8003},
	}
	for _, tt := range tests {
		if int(tt.errCode) != tt.wantCode {
			t.Errorf("%s: got %d, want %d", tt.name, tt.errCode, tt.wantCode)
		}
	}
}
