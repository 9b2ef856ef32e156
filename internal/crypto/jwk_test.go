package crypto

import (
	"crypto/rsa"
	"testing"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

func TestRSAPublicKeyToJWK(t *testing.T) {

	// nil public key
	var publicKey *rsa.PublicKey
	if _, err := RSAPublicKeyToJWK(publicKey, "kid-1"); err == nil {
		t.Fatalf("expected an error when passing nil public key, but got no error")
	}

	privateKey, err := GenerateRSAKeyPair(1024)
	if err != nil {
		t.Fatalf("Could not generate a RSA private Key %v", err)
	}

	// missing key ID
	if _, err := RSAPublicKeyToJWK(&privateKey.PublicKey, ""); err == nil {
		t.Fatalf("expected an error when passing an empty key ID, but got no error")
	}

	key, err := RSAPublicKeyToJWK(&privateKey.PublicKey, "kid-1")
	if err != nil {
		t.Fatalf("error converting RSA public key to JWK: %v", err)
	}

	gotKeyID, ok := key.KeyID()
	if !ok || gotKeyID != "kid-1" {
		t.Errorf("expected kid-1 as the key ID, got %q", gotKeyID)
	}

	usage, ok := key.KeyUsage()
	if !ok || usage != string(jwk.ForSignature) {
		t.Errorf("expected use=sig, got %q", usage)
	}
}

func TestJWKToRSAPublicKey_RoundTrip(t *testing.T) {
	privateKey, err := GenerateRSAKeyPair(1024)
	if err != nil {
		t.Fatalf("Could not generate a RSA private Key %v", err)
	}

	key, err := RSAPublicKeyToJWK(&privateKey.PublicKey, "kid-1")
	if err != nil {
		t.Fatalf("error converting RSA public key to JWK: %v", err)
	}

	recovered, err := JWKToRSAPublicKey(key)
	if err != nil {
		t.Fatalf("error converting JWK back to RSA public key: %v", err)
	}

	if recovered.N.Cmp(privateKey.PublicKey.N) != 0 || recovered.E != privateKey.PublicKey.E {
		t.Error("round-tripped public key does not match the original")
	}

	if _, err := JWKToRSAPublicKey(nil); err == nil {
		t.Error("expected an error for a nil JWK")
	}
}

func TestGenerateKeyIDFromRSAKey(t *testing.T) {
	privateKey, err := GenerateRSAKeyPair(1024)
	if err != nil {
		t.Fatalf("Could not generate a RSA private Key %v", err)
	}

	kid, err := GenerateKeyIDFromRSAKey(&privateKey.PublicKey)
	if err != nil {
		t.Fatalf("error generating key ID: %v", err)
	}
	if len(kid) != 16 {
		t.Errorf("expected a 16 character key ID, got %q", kid)
	}

	// the thumbprint is deterministic for a given key
	again, err := GenerateKeyIDFromRSAKey(&privateKey.PublicKey)
	if err != nil {
		t.Fatalf("error generating key ID: %v", err)
	}
	if kid != again {
		t.Errorf("key ID is not deterministic: %q vs %q", kid, again)
	}

	if _, err := GenerateKeyIDFromRSAKey(nil); err == nil {
		t.Error("expected an error for a nil public key")
	}
}
