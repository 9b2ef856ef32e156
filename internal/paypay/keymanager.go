// keymanager.go handles loading and validating the key material a merchant
// deployment needs to talk to the gateway.
//
// The keymanager loads exactly two keys at startup:
//   - the merchant RSA private key: signs outbound envelopes and encrypts
//     biz_content
//   - the gateway RSA public key: verifies the signatures on inbound
//     notifications and gateway responses
//
// Both arrive as PEM files received out-of-band during merchant onboarding.
// There is no key rotation protocol on the gateway side - replacing a key
// means replacing the file and restarting - so keys are loaded once and are
// read-only for the life of the process.
//
// The protocol's chunk arithmetic (117-byte chunks, 128-byte blocks) is tied
// to 1024-bit keys, so the keymanager rejects any other modulus size at
// startup rather than letting a mismatched key fail on the first request.
//
// The keymanager also derives the merchant key id (JWK SHA-256 thumbprint)
// and builds the JWK set published at /.well-known/jwks.json.
package paypay

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/iamrosada0/paypay-integration-simplified/internal/crypto"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// ProtocolKeyBits is the only RSA modulus size the gateway protocol supports.
// The 117/128 chunk arithmetic is derived from it.
const ProtocolKeyBits = 1024

// KeyManagerConfig holds the key file locations for the KeyManager.
type KeyManagerConfig struct {
	// MerchantPrivateKeyPath is the path to the merchant RSA private key PEM file.
	MerchantPrivateKeyPath string

	// GatewayPublicKeyPath is the path to the gateway RSA public key PEM file.
	GatewayPublicKeyPath string
}

// KeyManager holds the validated key material for a merchant deployment.
// All fields are set at construction and read-only afterwards, so a single
// instance is safely shared across request goroutines without locks.
type KeyManager struct {
	// merchantKey is the merchant's private key material
	merchantKey *crypto.KeyMaterial

	// gatewayKey is the gateway's public key material
	gatewayKey *crypto.KeyMaterial

	// keyID is the JWK thumbprint id of the merchant public key
	keyID string

	// jwks is the published JWK set (merchant public key only)
	jwks jwk.Set
}

// NewKeyManager loads and validates both keys from their PEM files.
func NewKeyManager(config *KeyManagerConfig, logger *slog.Logger) (*KeyManager, error) {
	if config == nil {
		return nil, NewInternalError("config is nil")
	}
	if logger == nil {
		return nil, NewInternalError("logger cannot be nil")
	}
	if config.MerchantPrivateKeyPath == "" {
		return nil, NewKeyError("merchant private key path is required")
	}
	if config.GatewayPublicKeyPath == "" {
		return nil, NewKeyError("gateway public key path is required")
	}

	logger.Info("initializing KeyManager",
		slog.String("MERCHANT_PRIVATE_KEY_PATH", config.MerchantPrivateKeyPath),
		slog.String("GATEWAY_PUBLIC_KEY_PATH", config.GatewayPublicKeyPath))

	merchantDir, merchantFile := filepath.Split(config.MerchantPrivateKeyPath)
	merchantKey, err := crypto.LoadKeyFromPEMFile(merchantDir, merchantFile, crypto.KeyKindPrivate)
	if err != nil {
		return nil, WrapKeyError(err, "failed to load merchant private key")
	}

	gatewayDir, gatewayFile := filepath.Split(config.GatewayPublicKeyPath)
	gatewayKey, err := crypto.LoadKeyFromPEMFile(gatewayDir, gatewayFile, crypto.KeyKindPublic)
	if err != nil {
		return nil, WrapKeyError(err, "failed to load gateway public key")
	}

	km, err := NewKeyManagerFromMaterial(merchantKey, gatewayKey)
	if err != nil {
		return nil, err
	}

	logger.Info("key material loaded",
		slog.String("merchant_kid", km.keyID),
		slog.Int("merchant_key_bits", merchantKey.ModulusBits()),
		slog.Int("gateway_key_bits", gatewayKey.ModulusBits()))

	return km, nil
}

// NewKeyManagerFromMaterial builds a KeyManager from already-loaded key
// material. Tests use this to avoid touching the filesystem.
func NewKeyManagerFromMaterial(merchantKey, gatewayKey *crypto.KeyMaterial) (*KeyManager, error) {
	if merchantKey == nil {
		return nil, NewKeyError("merchant key is required")
	}
	if gatewayKey == nil {
		return nil, NewKeyError("gateway key is required")
	}
	if merchantKey.Kind() != crypto.KeyKindPrivate {
		return nil, NewKeyError("merchant key must be a private key")
	}
	if gatewayKey.Kind() != crypto.KeyKindPublic {
		return nil, NewKeyError("gateway key must be a public key")
	}

	// the chunk arithmetic only works for the protocol key size
	if merchantKey.ModulusBits() != ProtocolKeyBits {
		return nil, NewKeyError(fmt.Sprintf("merchant key is %d-bit but the gateway protocol requires exactly %d-bit RSA keys",
			merchantKey.ModulusBits(), ProtocolKeyBits))
	}
	if gatewayKey.ModulusBits() != ProtocolKeyBits {
		return nil, NewKeyError(fmt.Sprintf("gateway key is %d-bit but the gateway protocol requires exactly %d-bit RSA keys",
			gatewayKey.ModulusBits(), ProtocolKeyBits))
	}

	keyID, err := crypto.GenerateKeyIDFromRSAKey(merchantKey.Public())
	if err != nil {
		return nil, WrapKeyError(err, "failed to derive merchant key id")
	}

	publicJWK, err := crypto.RSAPublicKeyToJWK(merchantKey.Public(), keyID)
	if err != nil {
		return nil, WrapKeyError(err, "failed to convert merchant public key to JWK")
	}

	jwks := jwk.NewSet()
	if err := jwks.AddKey(publicJWK); err != nil {
		return nil, WrapKeyError(err, "failed to build JWK set")
	}

	return &KeyManager{
		merchantKey: merchantKey,
		gatewayKey:  gatewayKey,
		keyID:       keyID,
		jwks:        jwks,
	}, nil
}

// MerchantKey returns the merchant private key material.
func (k *KeyManager) MerchantKey() *crypto.KeyMaterial { return k.merchantKey }

// GatewayKey returns the gateway public key material.
func (k *KeyManager) GatewayKey() *crypto.KeyMaterial { return k.gatewayKey }

// KeyID returns the JWK thumbprint id of the merchant public key.
func (k *KeyManager) KeyID() string { return k.keyID }

// JWKS returns the JWK set published at /.well-known/jwks.json.
// The set contains only the merchant public key.
func (k *KeyManager) JWKS() jwk.Set { return k.jwks }
