// this file contains the KeyMaterial type and functions to load, validate and
// save the RSA key pairs used by the gateway protocol
//
// The gateway hands out and registers keys as PEM text: "PRIVATE KEY" blocks
// (PKCS#8, https://datatracker.ietf.org/doc/html/rfc5208) for the merchant
// signing/encryption key and "PUBLIC KEY" blocks (SubjectPublicKeyInfo) for
// the gateway verification key. Keys generated by older openssl tooling
// sometimes carry a PKCS#1 body under the same headers, so parsing falls back
// to PKCS#1 before giving up.
//
// KeyMaterial is immutable after load: load once at process start, share
// freely between goroutines, re-run Validate before each cryptographic
// operation that depends on the key.

package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
)

// KeyKind identifies which half of an RSA key pair a PEM block holds.
// The values are the PEM header names the protocol uses.
type KeyKind string

const (
	KeyKindPublic  KeyKind = "PUBLIC KEY"
	KeyKindPrivate KeyKind = "PRIVATE KEY"
)

// minimum RSA modulus accepted by the structural checks. The gateway profile
// itself pins the exact size (see the paypay package).
const minModulusBits = 1024

// KeyMaterial is a validated RSA key tagged as public or private.
//
// It records the original PEM text, the parsed key and the modulus bit
// length. All cryptographic block arithmetic (chunk and ciphertext sizes) is
// derived from ModulusBytes rather than hard-coded, so oversized keys fail
// loudly at the protocol layer instead of producing garbage ciphertext.
type KeyMaterial struct {

	// kind is KeyKindPublic or KeyKindPrivate
	kind KeyKind

	// pemText is the original PEM encoding the material was loaded from
	pemText string

	// private is set only for KeyKindPrivate material
	private *rsa.PrivateKey

	// public is always set (for private material it is the embedded public half)
	public *rsa.PublicKey

	// modulusBits is the bit length of the RSA modulus
	modulusBits int
}

// ValidateKey parses and sanity-checks PEM text as an RSA key of the
// requested kind.
//
// Validation requirements:
//   - the text contains matching -----BEGIN <KIND>----- / -----END <KIND>-----
//     delimiters for the requested kind
//   - the PEM body parses into a structurally valid RSA key of that kind
//   - the modulus is at least 1024 bits and the public exponent is sane
//
// Any failure returns a key format error naming the missing header or
// wrapping the parse failure. The function is pure: callers are expected to
// run it once per key at startup and again immediately before every
// cryptographic operation that depends on the key.
func ValidateKey(pemText string, kind KeyKind) (*KeyMaterial, error) {
	if kind != KeyKindPublic && kind != KeyKindPrivate {
		return nil, NewKeyFormatError(fmt.Sprintf("unsupported key kind %q", kind))
	}

	header := fmt.Sprintf("-----BEGIN %s-----", kind)
	footer := fmt.Sprintf("-----END %s-----", kind)
	if !strings.Contains(pemText, header) {
		return nil, NewKeyFormatError(fmt.Sprintf("PEM text is missing the %q header", header))
	}
	if !strings.Contains(pemText, footer) {
		return nil, NewKeyFormatError(fmt.Sprintf("PEM text is missing the %q footer", footer))
	}

	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, NewKeyFormatError("failed to decode PEM block")
	}
	if block.Type != string(kind) {
		return nil, NewKeyFormatError(fmt.Sprintf("PEM block is not a %s (type: %s)", strings.ToLower(string(kind)), block.Type))
	}

	material := &KeyMaterial{kind: kind, pemText: pemText}

	switch kind {
	case KeyKindPrivate:
		privateKey, err := parseRSAPrivateKey(block.Bytes)
		if err != nil {
			return nil, WrapKeyFormatError(err, "failed to parse private key")
		}
		material.private = privateKey
		material.public = &privateKey.PublicKey

	case KeyKindPublic:
		publicKey, err := parseRSAPublicKey(block.Bytes)
		if err != nil {
			return nil, WrapKeyFormatError(err, "failed to parse public key")
		}
		material.public = publicKey
	}

	material.modulusBits = material.public.N.BitLen()

	if err := checkRSAKey(material.public); err != nil {
		return nil, err
	}

	if material.private != nil {
		if err := material.private.Validate(); err != nil {
			return nil, WrapKeyFormatError(err, "private key failed RSA validation")
		}
	}

	return material, nil
}

// parseRSAPrivateKey parses a DER private key body, PKCS#8 first with a
// PKCS#1 fallback for keys produced by legacy tooling.
func parseRSAPrivateKey(der []byte) (*rsa.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err == nil {
		privateKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key is not an RSA private key")
		}
		return privateKey, nil
	}

	privateKey, pkcs1Err := x509.ParsePKCS1PrivateKey(der)
	if pkcs1Err != nil {
		// report the PKCS#8 error - that is the format the protocol documents
		return nil, fmt.Errorf("failed to parse PKCS#8 private key: %w", err)
	}
	return privateKey, nil
}

// parseRSAPublicKey parses a DER public key body, SubjectPublicKeyInfo first
// with a PKCS#1 fallback.
func parseRSAPublicKey(der []byte) (*rsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err == nil {
		publicKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("key is not an RSA public key")
		}
		return publicKey, nil
	}

	publicKey, pkcs1Err := x509.ParsePKCS1PublicKey(der)
	if pkcs1Err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return publicKey, nil
}

// checkRSAKey applies the structural sanity checks shared by both kinds.
func checkRSAKey(publicKey *rsa.PublicKey) error {
	if publicKey.N == nil {
		return NewKeyFormatError("RSA modulus is missing")
	}
	if bits := publicKey.N.BitLen(); bits < minModulusBits {
		return NewKeyFormatError(fmt.Sprintf("RSA modulus is %d bits, need at least %d", bits, minModulusBits))
	}
	if publicKey.E < 3 || publicKey.E%2 == 0 {
		return NewKeyFormatError(fmt.Sprintf("RSA public exponent %d is not usable", publicKey.E))
	}
	return nil
}

// Validate re-runs the full structural validation against the original PEM
// text. Cheap enough to call before every sign/verify/encrypt operation,
// which is the contract: key corruption must surface as a key format error
// at the point of use, not as an undecryptable envelope on the far side.
func (k *KeyMaterial) Validate() error {
	if k == nil {
		return NewKeyFormatError("key material is nil")
	}
	fresh, err := ValidateKey(k.pemText, k.kind)
	if err != nil {
		return err
	}
	if fresh.public.N.Cmp(k.public.N) != 0 || fresh.public.E != k.public.E {
		return NewKeyFormatError("key material no longer matches its PEM text")
	}
	return nil
}

// Kind reports whether the material is public or private.
func (k *KeyMaterial) Kind() KeyKind { return k.kind }

// PEM returns the original PEM text the material was loaded from.
func (k *KeyMaterial) PEM() string { return k.pemText }

// ModulusBits returns the bit length of the RSA modulus (1024 for this
// protocol's keys).
func (k *KeyMaterial) ModulusBits() int { return k.modulusBits }

// ModulusBytes returns the RSA modulus size in bytes - the ciphertext block
// size for the chunked encryption scheme.
func (k *KeyMaterial) ModulusBytes() int { return (k.modulusBits + 7) / 8 }

// MaxChunkBytes returns the largest plaintext chunk a single RSA block can
// carry under PKCS#1 v1.5 padding (modulus bytes minus the 11 byte padding
// overhead; 117 for 1024-bit keys).
func (k *KeyMaterial) MaxChunkBytes() int { return k.ModulusBytes() - pkcs1PaddingOverhead }

// Public returns the RSA public key (the embedded public half for private
// material).
func (k *KeyMaterial) Public() *rsa.PublicKey { return k.public }

// Private returns the RSA private key, or a key format error when the
// material is public-only.
func (k *KeyMaterial) Private() (*rsa.PrivateKey, error) {
	if k.private == nil {
		return nil, NewKeyFormatError("key material does not contain a private key")
	}
	return k.private, nil
}

// LoadKeyFromPEMFile reads a PEM file and validates it as key material of
// the requested kind.
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "merchant.private.pem")
//   - kind: KeyKindPrivate or KeyKindPublic
func LoadKeyFromPEMFile(baseDir, filename string, kind KeyKind) (*KeyMaterial, error) {
	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return nil, WrapKeyFormatError(err, fmt.Sprintf("failed to open key directory %s", baseDir))
	}
	defer root.Close()

	pemData, err := root.ReadFile(filename)
	if err != nil {
		return nil, WrapKeyFormatError(err, fmt.Sprintf("failed to read key file %s", filename))
	}

	return ValidateKey(string(pemData), kind)
}

// GenerateRSAKeyPair generates a new RSA key pair with the specified bit size.
// The gateway protocol uses 1024-bit keys; larger multiples of 256 are
// accepted for forward compatibility but will be rejected by the gateway
// profile at startup.
func GenerateRSAKeyPair(bits int) (*rsa.PrivateKey, error) {
	if bits < minModulusBits {
		return nil, fmt.Errorf("key size must be at least %d bits", minModulusBits)
	}

	if bits%256 != 0 {
		return nil, fmt.Errorf("key size should be a multiple of 256")
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}

	return privateKey, nil
}

// KeyMaterialFromPrivateKey wraps an in-memory private key as validated key
// material. Used by key generation and tests; file-based callers should use
// LoadKeyFromPEMFile.
func KeyMaterialFromPrivateKey(privateKey *rsa.PrivateKey) (*KeyMaterial, error) {
	pemText, err := EncodePrivateKeyToPEM(privateKey)
	if err != nil {
		return nil, err
	}
	return ValidateKey(pemText, KeyKindPrivate)
}

// KeyMaterialFromPublicKey wraps an in-memory public key as validated key
// material.
func KeyMaterialFromPublicKey(publicKey *rsa.PublicKey) (*KeyMaterial, error) {
	pemText, err := EncodePublicKeyToPEM(publicKey)
	if err != nil {
		return nil, err
	}
	return ValidateKey(pemText, KeyKindPublic)
}

// EncodePrivateKeyToPEM encodes an RSA private key as a PKCS#8 "PRIVATE KEY"
// PEM block.
func EncodePrivateKeyToPEM(privateKey *rsa.PrivateKey) (string, error) {
	privBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return "", WrapKeyFormatError(err, "failed to marshal private key")
	}

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  string(KeyKindPrivate),
		Bytes: privBytes,
	})
	return string(pemBytes), nil
}

// EncodePublicKeyToPEM encodes an RSA public key as a SubjectPublicKeyInfo
// "PUBLIC KEY" PEM block.
func EncodePublicKeyToPEM(publicKey *rsa.PublicKey) (string, error) {
	pubBytes, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return "", WrapKeyFormatError(err, "failed to marshal public key")
	}

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  string(KeyKindPublic),
		Bytes: pubBytes,
	})
	return string(pemBytes), nil
}

// SavePrivateKeyToPEMFile saves an RSA private key to a PEM file in PKCS#8 format
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "merchant.private.pem")
func SavePrivateKeyToPEMFile(privateKey *rsa.PrivateKey, baseDir, filename string) error {
	pemText, err := EncodePrivateKeyToPEM(privateKey)
	if err != nil {
		return err
	}

	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return fmt.Errorf("failed to open root directory %s: %w", baseDir, err)
	}
	defer root.Close()

	if err := root.WriteFile(filename, []byte(pemText), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// SavePublicKeyToPEMFile saves an RSA public key to a PEM file in
// SubjectPublicKeyInfo format
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "merchant.public.pem")
func SavePublicKeyToPEMFile(publicKey *rsa.PublicKey, baseDir, filename string) error {
	pemText, err := EncodePublicKeyToPEM(publicKey)
	if err != nil {
		return err
	}

	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return fmt.Errorf("failed to open root directory %s: %w", baseDir, err)
	}
	defer root.Close()

	if err := root.WriteFile(filename, []byte(pemText), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
