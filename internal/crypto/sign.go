// this file implements the protocol's signature scheme: SHA1withRSA over the
// canonical parameter string, base64 encoded for transport
//
// The digest algorithm is fixed by the gateway contract - SHA-1 is weak by
// modern standards but the wire format is owned by the gateway, and the
// signature here authenticates a short-lived request, not long-term data.
//
// Signing uses the merchant private key; verification of gateway
// notifications and responses uses the gateway public key.

package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" // #nosec G505 -- SHA1withRSA is mandated by the gateway wire contract
	"encoding/base64"
)

// SignParams signs a parameter set with the private key material.
//
// The fields are canonicalized excluding sign and sign_type, the SHA-1
// digest of the canonical string's UTF-8 bytes is signed with
// RSASSA-PKCS1-v1_5, and the signature is returned base64 encoded, ready to
// be placed in the envelope's sign field.
//
// Key validation runs before every call, not only at load time; a
// validation failure or a failing RSA primitive is returned as a signature
// error. The input map is not modified.
func SignParams(fields ParameterSet, key *KeyMaterial) (string, error) {
	if err := key.Validate(); err != nil {
		return "", WrapSignatureError(err, "private key validation failed")
	}

	privateKey, err := key.Private()
	if err != nil {
		return "", WrapSignatureError(err, "signing requires private key material")
	}

	digest := sha1.Sum([]byte(CanonicalizeForSigning(fields))) // #nosec G401 -- gateway contract

	signature, err := rsa.SignPKCS1v15(rand.Reader, privateKey, crypto.SHA1, digest[:])
	if err != nil {
		return "", WrapSignatureError(err, "RSA signing failed")
	}

	return base64.StdEncoding.EncodeToString(signature), nil
}

// VerifyParams checks a base64 signature against a parameter set using the
// public half of the key material.
//
// The same canonicalization and digest as SignParams are applied. A
// signature that simply does not match returns (false, nil) - verification
// failure is an expected steady-state outcome, never an error. Errors are
// reserved for undecodable input (malformed signature error) and key
// material that fails validation (key format error).
//
// Public key material is the normal input; private material is also
// accepted and its embedded public half is used.
func VerifyParams(fields ParameterSet, signatureB64 string, key *KeyMaterial) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}

	signature, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return false, WrapMalformedSignatureError(err, "signature is not valid base64")
	}

	digest := sha1.Sum([]byte(CanonicalizeForSigning(fields))) // #nosec G401 -- gateway contract

	if err := rsa.VerifyPKCS1v15(key.Public(), crypto.SHA1, digest[:], signature); err != nil {
		return false, nil
	}
	return true, nil
}
