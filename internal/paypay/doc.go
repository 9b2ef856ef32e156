// paypay package implements the merchant side of the PayPay payment gateway
// protocol: building and signing outbound trade envelopes and verifying the
// signatures on inbound asynchronous notifications.
//
// **envelope**
// An 'envelope' is the flat field map POSTed to the gateway. The biz_content
// field carries the trade details as JSON, encrypted with the merchant private
// key in the gateway's reversed RSA convention (see the crypto package). The
// sign field is an RSA-SHA1 signature over the canonical form of every other
// field except sign_type. URL-encoding of the values is a transport concern
// and always happens after signing.
//
// **keymanager**
// this package also implements a keymanager that loads and pins the two keys a
// merchant deployment needs: the merchant RSA private key (signing and
// encryption) and the gateway RSA public key (notification verification).
//
// **types**
// the main request/response structs are in api_types.go
//
// **error handling**
// crypto has its own error type, but crypto and paypay errors are all mapped
// to paypay error codes and returned to the client in a standardized error
// response format.
// Use RespondWithErrorResponse() to create and send the error response.
//
// **notifications**
// The gateway reports payment outcomes by POSTing a form-encoded field map to
// the merchant's callback URL. The notification carries no fixed schema beyond
// the sign field; VerifyNotification authenticates the map against the gateway
// public key before any field is trusted. The gateway retries delivery until
// it reads the literal ack body "success", so duplicate deliveries are normal
// and deduplication is handled by the storage layer.
package paypay
