package crypto

import (
	"errors"
	"testing"
)

func paymentFields() ParameterSet {
	return ParameterSet{
		"charset":     "UTF-8",
		"biz_content": `{"trade_info":{"subject":"Coffee & cake","total_amount":"1500.00"}}`,
		"partner_id":  "200001290101",
		"service":     "instant_trade",
		"request_no":  "8d969eef6ecad3c29a3a629280e686cf",
		"format":      "JSON",
		"sign_type":   "RSA",
		"version":     "1.0",
		"timestamp":   "2026-01-02 15:04:05",
		"language":    "en",
	}
}

func TestSignAndVerifyParams(t *testing.T) {
	private, public := testKeyMaterial(t)
	fields := paymentFields()

	signature, err := SignParams(fields, private)
	if err != nil {
		t.Fatalf("SignParams() error = %v", err)
	}
	if signature == "" {
		t.Fatal("SignParams() returned an empty signature")
	}

	ok, err := VerifyParams(fields, signature, public)
	if err != nil {
		t.Fatalf("VerifyParams() error = %v", err)
	}
	if !ok {
		t.Error("VerifyParams() = false for an untampered envelope")
	}

	// the sign and sign_type fields never participate in the digest, so a
	// verifier may be handed the envelope with the signature still attached
	withSignature := fields.Clone()
	withSignature[FieldSign] = signature
	ok, err = VerifyParams(withSignature, signature, public)
	if err != nil {
		t.Fatalf("VerifyParams() with sign field present error = %v", err)
	}
	if !ok {
		t.Error("VerifyParams() = false when the sign field is present in the set")
	}
}

func TestVerifyParams_TamperedField(t *testing.T) {
	private, public := testKeyMaterial(t)
	fields := paymentFields()

	signature, err := SignParams(fields, private)
	if err != nil {
		t.Fatalf("SignParams() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(ParameterSet)
	}{
		{
			name:   "amount changed",
			mutate: func(f ParameterSet) { f["biz_content"] = `{"trade_info":{"total_amount":"9999.00"}}` },
		},
		{
			name:   "field added",
			mutate: func(f ParameterSet) { f["refund_no"] = "1" },
		},
		{
			name:   "field removed",
			mutate: func(f ParameterSet) { delete(f, "timestamp") },
		},
		{
			name:   "partner swapped",
			mutate: func(f ParameterSet) { f["partner_id"] = "200009999999" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tampered := fields.Clone()
			tt.mutate(tampered)

			ok, err := VerifyParams(tampered, signature, public)
			if err != nil {
				t.Fatalf("VerifyParams() error = %v", err)
			}
			if ok {
				t.Error("VerifyParams() = true for a tampered envelope")
			}
		})
	}
}

func TestVerifyParams_WrongKey(t *testing.T) {
	private, _ := testKeyMaterial(t)
	_, otherPublic := testKeyMaterial(t)

	fields := paymentFields()
	signature, err := SignParams(fields, private)
	if err != nil {
		t.Fatalf("SignParams() error = %v", err)
	}

	// a mismatched key is a failed verification, not an error
	ok, err := VerifyParams(fields, signature, otherPublic)
	if err != nil {
		t.Fatalf("VerifyParams() error = %v", err)
	}
	if ok {
		t.Error("VerifyParams() = true under an unrelated key")
	}
}

func TestVerifyParams_MalformedSignature(t *testing.T) {
	_, public := testKeyMaterial(t)

	_, err := VerifyParams(paymentFields(), "%%% not base64 %%%", public)
	if err == nil {
		t.Fatal("VerifyParams() expected error for undecodable signature, got nil")
	}
	var cryptoErr *CryptoError
	if !errors.As(err, &cryptoErr) {
		t.Fatalf("error is not a CryptoError: %v", err)
	}
	if cryptoErr.Code() != ErrCodeMalformedSignature {
		t.Errorf("Code() = %q, want %q", cryptoErr.Code(), ErrCodeMalformedSignature)
	}
}

func TestSignParams_RequiresPrivateKey(t *testing.T) {
	_, public := testKeyMaterial(t)

	_, err := SignParams(paymentFields(), public)
	if err == nil {
		t.Fatal("SignParams() with public-only material expected error, got nil")
	}
	var cryptoErr *CryptoError
	if !errors.As(err, &cryptoErr) || cryptoErr.Code() != ErrCodeSignature {
		t.Errorf("SignParams() error = %v, want signature error", err)
	}
}

func TestSignParams_Deterministic(t *testing.T) {
	private, _ := testKeyMaterial(t)
	fields := paymentFields()

	first, err := SignParams(fields, private)
	if err != nil {
		t.Fatalf("SignParams() error = %v", err)
	}
	second, err := SignParams(fields, private)
	if err != nil {
		t.Fatalf("SignParams() error = %v", err)
	}

	// PKCS#1 v1.5 signing is deterministic, which the gateway relies on when
	// replaying a request produces a byte-identical envelope
	if first != second {
		t.Error("SignParams() produced different signatures for the same input")
	}
}

func TestVerifyParams_AcceptsPrivateMaterial(t *testing.T) {
	private, _ := testKeyMaterial(t)
	fields := paymentFields()

	signature, err := SignParams(fields, private)
	if err != nil {
		t.Fatalf("SignParams() error = %v", err)
	}

	// the private half carries the public half, so local round-trip checks
	// may verify without loading a second file
	ok, err := VerifyParams(fields, signature, private)
	if err != nil {
		t.Fatalf("VerifyParams() error = %v", err)
	}
	if !ok {
		t.Error("VerifyParams() = false using the signing material itself")
	}
}
