// this file implements the gateway's chunked RSA transport encryption for
// the biz_content payload
//
// The scheme is deliberately reversed from textbook RSA: the merchant
// ENCRYPTS with its PRIVATE key and the gateway decrypts with the merchant's
// registered public key; gateway responses come back encrypted with the
// gateway PRIVATE key and are decrypted here with the gateway public key.
// This is a confidentiality-via-private-key operation owned by the gateway's
// design - it must be reproduced exactly, not "fixed" into a conventional
// encrypt/decrypt or sign/verify pairing, or the far side silently fails to
// decrypt.
//
// Payloads longer than one RSA block are split into chunks of
// modulus_bytes-11 (117 bytes for the protocol's 1024-bit keys, the 11 being
// PKCS#1 v1.5 padding overhead). Each chunk becomes exactly one
// modulus-sized ciphertext block; blocks are concatenated in chunk order and
// base64 encoded. Both sizes are derived from the key's modulus rather than
// hard-coded so a misconfigured key size fails loudly.
//
// Go's crypto/rsa exposes no "encrypt with private key" primitive. The
// private-key direction reuses rsa.SignPKCS1v15 with a zero hash, which
// produces the same EM = 00 01 PS 00 D block as openssl_private_encrypt.
// The public-key direction (decrypting gateway output) has no stdlib
// counterpart at all and applies the public RSA operation directly - no
// secret material is involved in that computation.

package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
)

// pkcs1PaddingOverhead is the per-block overhead of PKCS#1 v1.5 padding:
// two marker bytes, at least eight padding bytes and a zero separator.
const pkcs1PaddingOverhead = 11

// EncryptWithPrivateKey encrypts a payload with the private key material
// using the gateway's chunked scheme and returns the base64-encoded
// concatenation of the ciphertext blocks.
//
// An empty payload yields an empty string (zero blocks). Key validation
// runs before the operation; any key problem or RSA primitive failure is
// returned as an encryption error - never silently swallowed.
func EncryptWithPrivateKey(payload []byte, key *KeyMaterial) (string, error) {
	if err := key.Validate(); err != nil {
		return "", WrapEncryptionError(err, "private key validation failed")
	}

	privateKey, err := key.Private()
	if err != nil {
		return "", WrapEncryptionError(err, "encryption requires private key material")
	}

	if len(payload) == 0 {
		return "", nil
	}

	chunkSize := key.MaxChunkBytes()
	blockSize := key.ModulusBytes()
	ciphertext := make([]byte, 0, ((len(payload)+chunkSize-1)/chunkSize)*blockSize)

	for start := 0; start < len(payload); start += chunkSize {
		end := start + chunkSize
		if end > len(payload) {
			end = len(payload)
		}

		// hash zero means the chunk is padded and encrypted as-is, which is
		// exactly the private-key encryption block the gateway expects
		block, err := rsa.SignPKCS1v15(rand.Reader, privateKey, 0, payload[start:end])
		if err != nil {
			return "", WrapEncryptionError(err, fmt.Sprintf("RSA primitive rejected chunk at offset %d", start))
		}
		ciphertext = append(ciphertext, block...)
	}

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptWithPublicKey reverses EncryptWithPrivateKey: it decodes the base64
// ciphertext, applies the public RSA operation to each modulus-sized block
// and strips the PKCS#1 v1.5 type 01 padding.
//
// Used against the gateway public key to read encrypted response payloads,
// and in tests against the merchant public key to prove the outbound wire
// format. An empty ciphertext yields an empty payload.
func DecryptWithPublicKey(cipherB64 string, key *KeyMaterial) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, WrapEncryptionError(err, "public key validation failed")
	}

	if cipherB64 == "" {
		return nil, nil
	}

	ciphertext, err := base64.StdEncoding.DecodeString(cipherB64)
	if err != nil {
		return nil, WrapEncryptionError(err, "ciphertext is not valid base64")
	}

	blockSize := key.ModulusBytes()
	if len(ciphertext)%blockSize != 0 {
		return nil, NewEncryptionError(fmt.Sprintf("ciphertext length %d is not a multiple of the %d byte block size", len(ciphertext), blockSize))
	}

	publicKey := key.Public()
	payload := make([]byte, 0, len(ciphertext)/blockSize*key.MaxChunkBytes())

	for start := 0; start < len(ciphertext); start += blockSize {
		chunk, err := publicDecryptBlock(ciphertext[start:start+blockSize], publicKey)
		if err != nil {
			return nil, WrapEncryptionError(err, fmt.Sprintf("failed to decrypt block at offset %d", start))
		}
		payload = append(payload, chunk...)
	}

	return payload, nil
}

// publicDecryptBlock applies the raw public RSA operation m = c^e mod n to a
// single ciphertext block and removes the PKCS#1 v1.5 type 01 padding
// (EM = 00 01 PS 00 D with PS at least eight 0xff bytes).
func publicDecryptBlock(block []byte, publicKey *rsa.PublicKey) ([]byte, error) {
	c := new(big.Int).SetBytes(block)
	if c.Cmp(publicKey.N) >= 0 {
		return nil, fmt.Errorf("ciphertext block is larger than the RSA modulus")
	}

	m := new(big.Int).Exp(c, big.NewInt(int64(publicKey.E)), publicKey.N)
	em := m.FillBytes(make([]byte, (publicKey.N.BitLen()+7)/8))

	if em[0] != 0x00 || em[1] != 0x01 {
		return nil, fmt.Errorf("block does not carry PKCS#1 v1.5 type 01 padding")
	}

	// scan past the 0xff padding to the zero separator
	sep := -1
	for i := 2; i < len(em); i++ {
		if em[i] == 0x00 {
			sep = i
			break
		}
		if em[i] != 0xff {
			return nil, fmt.Errorf("padding contains unexpected byte 0x%02x", em[i])
		}
	}
	if sep < 0 {
		return nil, fmt.Errorf("padding separator not found")
	}
	if sep-2 < 8 {
		return nil, fmt.Errorf("padding is shorter than the 8 byte minimum")
	}

	return em[sep+1:], nil
}
