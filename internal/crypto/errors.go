package crypto

import "fmt"

// Error represents a structured error from the crypto package
type Error interface {
	error
	Code() ErrorCode
	Unwrap() error
}

type ErrorCode string

const (
	ErrCodeKeyFormat          ErrorCode = "key_format"
	ErrCodeEncryption         ErrorCode = "encryption"
	ErrCodeSignature          ErrorCode = "signature"
	ErrCodeMalformedSignature ErrorCode = "malformed_signature"
	ErrCodeInternal           ErrorCode = "internal"
)

// CryptoError represents a structured error from the crypto package
type CryptoError struct {

	// code is the cryptoerror code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *CryptoError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *CryptoError) Code() ErrorCode { return e.code }
func (e *CryptoError) Unwrap() error   { return e.wrapped }

// NewKeyFormatError creates a key format error.
// Use this for errors related to missing PEM headers, undecodable PEM bodies,
// keys of the wrong kind, or keys that fail structural RSA validation.
//
// The returned error will have code ErrCodeKeyFormat.
func NewKeyFormatError(msg string) error {
	return &CryptoError{code: ErrCodeKeyFormat, message: msg}
}

// WrapKeyFormatError wraps an existing error as a key format error.
// Use this for errors related to missing PEM headers, undecodable PEM bodies,
// keys of the wrong kind, or keys that fail structural RSA validation.
//
// The returned error will have code ErrCodeKeyFormat.
func WrapKeyFormatError(err error, msg string) error {
	return &CryptoError{code: ErrCodeKeyFormat, message: msg, wrapped: err}
}

// NewEncryptionError creates a payload encryption error.
// Use this for errors related to the chunked RSA encryption of biz_content:
// invalid private key material or the RSA primitive rejecting a chunk.
//
// The returned error will have code ErrCodeEncryption.
func NewEncryptionError(msg string) error {
	return &CryptoError{code: ErrCodeEncryption, message: msg}
}

// WrapEncryptionError wraps an existing error as a payload encryption error.
// Use this for errors related to the chunked RSA encryption of biz_content:
// invalid private key material or the RSA primitive rejecting a chunk.
//
// The returned error will have code ErrCodeEncryption.
func WrapEncryptionError(err error, msg string) error {
	return &CryptoError{code: ErrCodeEncryption, message: msg, wrapped: err}
}

// NewSignatureError creates a signing precondition error.
// Use this for errors raised before or during signature generation, e.g.
// private key validation failing ahead of a sign call.
//
// Note that a signature that simply does not match is reported as a plain
// false from Verify, not as an error.
//
// The returned error will have code ErrCodeSignature.
func NewSignatureError(msg string) error {
	return &CryptoError{code: ErrCodeSignature, message: msg}
}

// WrapSignatureError wraps an existing error as a signing precondition error.
// Use this for errors raised before or during signature generation, e.g.
// private key validation failing ahead of a sign call.
//
// The returned error will have code ErrCodeSignature.
func WrapSignatureError(err error, msg string) error {
	return &CryptoError{code: ErrCodeSignature, message: msg, wrapped: err}
}

// NewMalformedSignatureError creates a malformed signature error.
// Use this only when verification input cannot be decoded at all (e.g. the
// signature text is not valid base64) - distinct from "signature does not
// match", which is a boolean verification outcome.
//
// The returned error will have code ErrCodeMalformedSignature.
func NewMalformedSignatureError(msg string) error {
	return &CryptoError{code: ErrCodeMalformedSignature, message: msg}
}

// WrapMalformedSignatureError wraps an existing error as a malformed signature error.
// Use this only when verification input cannot be decoded at all (e.g. the
// signature text is not valid base64) - distinct from "signature does not
// match", which is a boolean verification outcome.
//
// The returned error will have code ErrCodeMalformedSignature.
func WrapMalformedSignatureError(err error, msg string) error {
	return &CryptoError{code: ErrCodeMalformedSignature, message: msg, wrapped: err}
}

// NewInternalError creates an internal error for unexpected failures.
// Use this for errors related to crypto library failures, unexpected nil
// values, or system errors that should not normally occur (e.g. the random
// source running dry).
//
// The returned error will have code ErrCodeInternal.
func NewInternalError(msg string) error {
	return &CryptoError{code: ErrCodeInternal, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
// Use this for errors related to crypto library failures, unexpected nil
// values, or system errors that should not normally occur (e.g. the random
// source running dry).
//
// The returned error will have code ErrCodeInternal.
func WrapInternalError(err error, msg string) error {
	return &CryptoError{code: ErrCodeInternal, message: msg, wrapped: err}
}
