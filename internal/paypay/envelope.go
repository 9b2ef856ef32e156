package paypay

// envelope.go includes the builder for creating signed gateway trade envelopes.

import (
	"github.com/iamrosada0/paypay-integration-simplified/internal/crypto"
)

// Envelope is the complete outbound field map, including the sign field,
// ready for transport encoding. URL-encoding of the values is strictly a
// transport concern: the signature was computed over the raw values held
// here, so encoding must never happen before signing.
type Envelope crypto.ParameterSet

// Fields returns the envelope as a parameter set for canonicalization or
// transport encoding.
func (e Envelope) Fields() crypto.ParameterSet {
	return crypto.ParameterSet(e)
}

// RequestNo returns the unique request number carried by the envelope.
func (e Envelope) RequestNo() string { return e[FieldRequestNo] }

// Sign returns the envelope signature.
func (e Envelope) Sign() string { return e[FieldSign] }

// BizContent returns the encrypted biz_content value.
func (e Envelope) BizContent() string { return e[FieldBizContent] }

// EnvelopeBuilder builds signed envelopes for a single merchant identity.
// The builder holds only configuration; every Build call produces an
// independent envelope with a fresh request_no and timestamp.
type EnvelopeBuilder struct {

	// partnerID is the merchant's gateway partner id
	partnerID string

	// service is the gateway service the envelope invokes
	service string

	// language for gateway client-facing text
	language string

	// merchantKey signs the envelope and encrypts biz_content
	merchantKey *crypto.KeyMaterial

	// generator supplies request numbers and timestamps
	generator *crypto.Generator
}

// NewEnvelopeBuilder creates a builder for the given merchant identity.
//
// To build an envelope:
//  1. Create an EnvelopeBuilder
//  2. Override the service or language with the builder methods if needed
//  3. Call Build() with the trade content
//  4. Hand the envelope to the gateway transport for encoding and delivery
func NewEnvelopeBuilder(partnerID string, merchantKey *crypto.KeyMaterial) *EnvelopeBuilder {
	return &EnvelopeBuilder{
		partnerID:   partnerID,
		service:     ServiceInstantTrade,
		language:    DefaultLanguage,
		merchantKey: merchantKey,
		generator:   crypto.NewGenerator(),
	}
}

// WithService sets the gateway service (default: instant_trade).
func (b *EnvelopeBuilder) WithService(service string) *EnvelopeBuilder {
	b.service = service
	return b
}

// WithLanguage sets the language field (default: en).
func (b *EnvelopeBuilder) WithLanguage(language string) *EnvelopeBuilder {
	b.language = language
	return b
}

// WithGenerator replaces the nonce/timestamp generator. Tests use this to
// make request numbers and timestamps deterministic.
func (b *EnvelopeBuilder) WithGenerator(g *crypto.Generator) *EnvelopeBuilder {
	b.generator = g
	return b
}

// Build validates the trade content, encrypts it into biz_content and returns
// the complete signed envelope.
func (b *EnvelopeBuilder) Build(content *BizContent) (Envelope, error) {
	encoded, err := EncodeBizContent(content)
	if err != nil {
		return nil, err
	}
	return b.BuildRaw(encoded)
}

// BuildRaw builds a signed envelope around a pre-encoded biz_content JSON
// payload. Used for services whose biz_content is not a trade (trade_query,
// trade_close, trade_refund).
func (b *EnvelopeBuilder) BuildRaw(bizContentJSON []byte) (Envelope, error) {
	if b.partnerID == "" {
		return nil, NewValidationError("partner_id is required")
	}
	if b.service == "" {
		return nil, NewValidationError("service is required")
	}
	if b.merchantKey == nil {
		return nil, NewKeyError("merchant key is required")
	}

	cipherText, err := crypto.EncryptWithPrivateKey(bizContentJSON, b.merchantKey)
	if err != nil {
		return nil, err
	}

	requestNo, err := b.generator.RequestID()
	if err != nil {
		return nil, err
	}
	if len(requestNo) < RequestNoMinLength || len(requestNo) > RequestNoMaxLength {
		return nil, NewInternalError("generated request_no is out of bounds")
	}

	fields := crypto.ParameterSet{
		FieldCharset:    Charset,
		FieldBizContent: cipherText,
		FieldPartnerID:  b.partnerID,
		FieldService:    b.service,
		FieldRequestNo:  requestNo,
		FieldFormat:     Format,
		FieldSignType:   SignType,
		FieldVersion:    Version,
		FieldTimestamp:  b.generator.Timestamp(),
		FieldLanguage:   b.language,
	}

	// sign over the raw values of every field except sign and sign_type
	signature, err := crypto.SignParams(fields, b.merchantKey)
	if err != nil {
		return nil, err
	}
	fields[FieldSign] = signature

	return Envelope(fields), nil
}
