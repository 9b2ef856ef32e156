package crypto

import (
	"errors"
	"fmt"
	"testing"
)

// check to ensure error code handling has not been broken
func TestCryptoError_Code(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{"key_format", NewKeyFormatError("test"), ErrCodeKeyFormat},
		{"encryption", NewEncryptionError("test"), ErrCodeEncryption},
		{"signature", NewSignatureError("test"), ErrCodeSignature},
		{"malformed_signature", NewMalformedSignatureError("test"), ErrCodeMalformedSignature},
		{"internal", NewInternalError("test"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cryptoErr *CryptoError
			if !errors.As(tt.err, &cryptoErr) {
				t.Fatal("error is not a CryptoError")
			}
			if cryptoErr.Code() != tt.wantCode {
				t.Errorf("Code() = %q, want %q", cryptoErr.Code(), tt.wantCode)
			}
		})
	}
}

func TestCryptoError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	err := WrapEncryptionError(cause, "chunk failed")

	if !errors.Is(err, cause) {
		t.Error("wrapped error should match the cause via errors.Is")
	}

	if got := err.Error(); got != "chunk failed: underlying cause" {
		t.Errorf("Error() = %q, want cause appended after message", got)
	}

	plain := NewKeyFormatError("missing header")
	if got := plain.Error(); got != "missing header" {
		t.Errorf("Error() = %q, want bare message when nothing is wrapped", got)
	}
}
