package paypay

// notification.go provides the verification logic for inbound asynchronous
// gateway notifications.
//
// # Verification Process
//
// The gateway reports payment outcomes by POSTing a form-encoded field map to
// the merchant's callback URL. Every notification carries a sign field: an
// RSA-SHA1 signature, made with the gateway's private key, over the canonical
// form of all other fields except sign and sign_type.
//
// The verification logic prevents:
//   - forged notifications (an attacker cannot produce a valid sign without
//     the gateway private key)
//   - tampered notifications (any changed, added or removed field invalidates
//     the canonical string the signature covers)
//
// No inbound schema is assumed beyond the sign field - the gateway is free to
// add fields, and they are all covered by the signature either way.
//
// # Duplicate Delivery
//
// The gateway retries a callback until it reads the literal body "success",
// so the same notification is routinely delivered more than once.
// Verification itself is idempotent; deduplication by (out_trade_no,
// notify_id) is the storage layer's job.

import (
	"net/url"

	"github.com/iamrosada0/paypay-integration-simplified/internal/crypto"
)

// Well-known notification field names. The gateway does not guarantee a fixed
// schema, but these fields are present on trade status notifications and are
// extracted into the verification result for convenience.
const (
	NotifyFieldNotifyID    = "notify_id"
	NotifyFieldOutTradeNo  = "out_trade_no"
	NotifyFieldTradeNo     = "trade_no"
	NotifyFieldTradeStatus = "trade_status"
	NotifyFieldTotalAmount = "total_amount"
)

// NotificationVerificationInput contains the data needed to verify an
// inbound gateway notification.
type NotificationVerificationInput struct {

	// Fields is the complete inbound field map, including sign
	Fields crypto.ParameterSet

	// GatewayKey is the gateway's RSA public key.
	//
	// In production this should come from the server's KeyManager instance.
	GatewayKey *crypto.KeyMaterial
}

// NotificationVerificationResult contains the results of notification
// verification. Only a result with Verified true may have its fields trusted.
type NotificationVerificationResult struct {

	// Verified reports whether the signature validated against the gateway key
	Verified bool

	// RejectReason explains a clean rejection (Verified false, nil error)
	RejectReason string

	// NotifyID is the gateway's delivery id, extracted after verification.
	// Combined with OutTradeNo it forms the deduplication key.
	NotifyID string

	// OutTradeNo is the merchant order number the notification refers to,
	// extracted after verification
	OutTradeNo string

	// TradeNo is the gateway's own trade number, extracted after verification
	TradeNo string

	// TradeStatus is the reported trade state (e.g. TRADE_SUCCESS),
	// extracted after verification
	TradeStatus string

	// Fields is the full verified field map (nil unless Verified)
	Fields crypto.ParameterSet
}

// Ack returns the body the merchant must answer the gateway with: the literal
// "success" stops redelivery, anything else makes the gateway retry.
func (r *NotificationVerificationResult) Ack() string {
	if r != nil && r.Verified {
		return AckSuccess
	}
	return AckFail
}

// VerifyNotification authenticates an inbound notification field map against
// the gateway public key.
//
// Returns:
//   - Verified true and nil error when the signature validates; the result
//     carries the trusted fields.
//   - Verified false and nil error for a clean rejection (missing sign or a
//     signature that does not verify); RejectReason says why.
//   - A non-nil error for key problems or an undecodable signature value.
//     The caller must still ack "fail" in that case.
func VerifyNotification(input NotificationVerificationInput) (*NotificationVerificationResult, error) {
	result := &NotificationVerificationResult{}

	// Step 1: the key is validated before every verification
	if input.GatewayKey == nil {
		return result, NewKeyError("gateway key is required")
	}
	if err := input.GatewayKey.Validate(); err != nil {
		return result, err
	}

	// Step 2: a map without a sign field can never verify
	if len(input.Fields) == 0 {
		result.RejectReason = "notification has no fields"
		return result, nil
	}
	signature, ok := input.Fields[FieldSign]
	if !ok || signature == "" {
		result.RejectReason = "sign field is missing"
		return result, nil
	}

	// Step 3: canonicalize everything except sign/sign_type and check the
	// signature. A mismatch is a rejection, not an error - only undecodable
	// signature input raises an error.
	verified, err := crypto.VerifyParams(input.Fields, signature, input.GatewayKey)
	if err != nil {
		return result, err
	}
	if !verified {
		result.RejectReason = "signature does not verify against the gateway key"
		return result, nil
	}

	// Step 4: only now are the fields trusted
	result.Verified = true
	result.Fields = input.Fields.Clone()
	result.NotifyID = input.Fields[NotifyFieldNotifyID]
	result.OutTradeNo = input.Fields[NotifyFieldOutTradeNo]
	result.TradeNo = input.Fields[NotifyFieldTradeNo]
	result.TradeStatus = input.Fields[NotifyFieldTradeStatus]

	return result, nil
}

// ParseNotificationForm converts decoded form values into the flat field map
// the verifier works on. The gateway sends each field exactly once; if a
// field is repeated, the first value wins.
func ParseNotificationForm(values url.Values) crypto.ParameterSet {
	fields := make(crypto.ParameterSet, len(values))
	for name := range values {
		fields[name] = values.Get(name)
	}
	return fields
}
