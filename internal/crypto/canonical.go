// the gateway requires that request parameters are canonicalized to a
// deterministic name=value&... string before signing - the exact bytes of
// that string are what gets signed and verified, so both sides must produce
// it identically
package crypto

import (
	"sort"
	"strings"

	"github.com/gowebpki/jcs"
)

// Protocol field names that are never part of the signed string.
const (
	FieldSign     = "sign"
	FieldSignType = "sign_type"
)

// ParameterSet is a flat request or notification field map. Keys are unique
// field names; insertion order is irrelevant because canonical order is
// always recomputed by sort. Built fresh per request/response and discarded
// after use.
type ParameterSet map[string]string

// Clone returns an independent copy of the parameter set.
func (p ParameterSet) Clone() ParameterSet {
	clone := make(ParameterSet, len(p))
	for name, value := range p {
		clone[name] = value
	}
	return clone
}

// Canonicalize produces the deterministic string form of a field map:
// excluded names removed, remaining names sorted by ascending byte (code
// point) order - not locale-aware - and joined as name=value pairs with "&".
//
// Values are used raw: URL-encoding for transport happens strictly after
// signing and is never part of the canonical string. Identical maps yield
// identical output regardless of insertion order.
//
// The exclusion set always contains at least "sign"; "sign_type" is also
// excluded when canonicalizing for signing or verification, per the
// protocol.
func Canonicalize(fields ParameterSet, exclude ...string) string {
	excluded := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		excluded[name] = struct{}{}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		if _, skip := excluded[name]; skip {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(fields[name])
	}
	return sb.String()
}

// CanonicalizeForSigning is the canonical string used for signature
// generation and verification: all fields except sign and sign_type.
func CanonicalizeForSigning(fields ParameterSet) string {
	return Canonicalize(fields, FieldSign, FieldSignType)
}

// CanonicalizeJSON converts JSON to canonical form per RFC 8785.
// The biz_content plaintext is canonicalized before encryption so the
// ciphertext for a given payload and key is reproducible.
//
// If the input is not valid JSON, an error is returned (handled by jcs library).
func CanonicalizeJSON(jsonData []byte) ([]byte, error) {
	return jcs.Transform(jsonData)
}
