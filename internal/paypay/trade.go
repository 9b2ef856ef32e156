package paypay

// trade.go defines the biz_content payload types for gateway trades.

import (
	"encoding/json"
	"fmt"
	"net"
	"regexp"

	"github.com/iamrosada0/paypay-integration-simplified/internal/crypto"
	"github.com/shopspring/decimal"
)

// timeoutExpressPattern matches the gateway's relative timeout syntax:
// a positive integer followed by a unit (m = minutes, h = hours, d = days).
var timeoutExpressPattern = regexp.MustCompile(`^[1-9][0-9]*[mhd]$`)

// TradeInfo describes the order being paid for.
//
// Monetary fields are decimals and marshal as JSON strings, which is what the
// gateway expects on the wire (amounts are never JSON numbers).
type TradeInfo struct {

	// Currency is the ISO 4217 settlement currency. The gateway only settles AOA.
	Currency string `json:"currency"`

	// OutTradeNo is the merchant-side order number, unique per partner.
	// Max length 64 characters.
	OutTradeNo string `json:"out_trade_no"`

	// PayeeIdentity identifies who is being paid (normally the partner id).
	PayeeIdentity string `json:"payee_identity"`

	// PayeeIdentityType qualifies PayeeIdentity
	// ("1" = partner id, see PayeeIdentityTypePartnerID)
	PayeeIdentityType string `json:"payee_identity_type"`

	// Price is the unit price.
	Price decimal.Decimal `json:"price"`

	// Quantity is the number of units.
	Quantity int64 `json:"quantity"`

	// Subject is the human-readable description shown to the payer.
	// Max length 128 characters.
	Subject string `json:"subject"`

	// TotalAmount is the amount charged. It must equal Price * Quantity.
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// PayMethod selects a specific payment instrument instead of letting the
// payer choose in the cashier. Optional.
type PayMethod struct {

	// PayProductCode selects the payment product
	// (e.g. "31" for a Multicaixa Express push, see PayProductCodeMulticaixaExpress)
	PayProductCode string `json:"pay_product_code"`

	// Amount is the amount to charge through this instrument.
	// It must equal TradeInfo.TotalAmount.
	Amount decimal.Decimal `json:"amount"`

	// BankCode identifies the bank network (e.g. "MUL" for Multicaixa)
	BankCode string `json:"bank_code,omitempty"`

	// PhoneNum is the subscriber number the Express push is sent to.
	// Required when PayProductCode is the Express product.
	PhoneNum string `json:"phone_num,omitempty"`
}

// BizContent is the plaintext of the envelope's biz_content field. It is
// serialized to canonical JSON and then encrypted with the merchant private
// key before it goes on the wire.
type BizContent struct {

	// CashierType selects how the gateway cashier is rendered (e.g. "SDK")
	CashierType string `json:"cashier_type"`

	// PayerIP is the IP address of the paying customer, used by the gateway
	// for risk checks
	PayerIP string `json:"payer_ip"`

	// SaleProductCode is the gateway product being used (e.g. "CASHIER_WEB")
	SaleProductCode string `json:"sale_product_code"`

	// TimeoutExpress is how long the trade stays payable (e.g. "15m", "1h", "2d")
	TimeoutExpress string `json:"timeout_express"`

	// TradeInfo describes the order
	TradeInfo TradeInfo `json:"trade_info"`

	// PayMethod optionally pins the payment instrument
	PayMethod *PayMethod `json:"pay_method,omitempty"`
}

// MarshalJSON renders the monetary fields with exactly two decimal places.
// The gateway expects "1500.00", not the "1500" that default decimal
// marshaling trims to.
func (t TradeInfo) MarshalJSON() ([]byte, error) {
	type alias TradeInfo
	return json.Marshal(struct {
		alias
		Price       string `json:"price"`
		TotalAmount string `json:"total_amount"`
	}{
		alias:       alias(t),
		Price:       t.Price.StringFixed(2),
		TotalAmount: t.TotalAmount.StringFixed(2),
	})
}

// MarshalJSON renders the amount with exactly two decimal places, matching
// TradeInfo.MarshalJSON.
func (p PayMethod) MarshalJSON() ([]byte, error) {
	type alias PayMethod
	return json.Marshal(struct {
		alias
		Amount string `json:"amount"`
	}{
		alias:  alias(p),
		Amount: p.Amount.StringFixed(2),
	})
}

// ValidateStructure checks that all required fields are present and the
// amounts are consistent before the content is encrypted into an envelope.
func (b *BizContent) ValidateStructure() error {
	if b.CashierType == "" {
		return NewValidationError("cashier_type is required")
	}
	if b.PayerIP == "" {
		return NewValidationError("payer_ip is required")
	}
	if net.ParseIP(b.PayerIP) == nil {
		return NewValidationError(fmt.Sprintf("payer_ip is not a valid IP address: %s", b.PayerIP))
	}
	if b.SaleProductCode == "" {
		return NewValidationError("sale_product_code is required")
	}
	if b.TimeoutExpress == "" {
		return NewValidationError("timeout_express is required")
	}
	if !timeoutExpressPattern.MatchString(b.TimeoutExpress) {
		return NewValidationError(fmt.Sprintf("timeout_express must be a positive integer followed by m, h or d: %s", b.TimeoutExpress))
	}

	if err := b.TradeInfo.ValidateStructure(); err != nil {
		return WrapValidationError(err, "trade_info")
	}

	if b.PayMethod != nil {
		if err := b.PayMethod.ValidateStructure(); err != nil {
			return WrapValidationError(err, "pay_method")
		}
		// the pinned instrument must charge exactly the trade total
		if !b.PayMethod.Amount.Equal(b.TradeInfo.TotalAmount) {
			return NewValidationError(fmt.Sprintf("pay_method.amount (%s) does not match trade_info.total_amount (%s)",
				b.PayMethod.Amount, b.TradeInfo.TotalAmount))
		}
	}

	return nil
}

// ValidateStructure checks that all required trade fields are present and that
// total_amount equals price * quantity.
func (t *TradeInfo) ValidateStructure() error {
	if t.Currency == "" {
		return NewValidationError("currency is required")
	}
	if t.OutTradeNo == "" {
		return NewValidationError("out_trade_no is required")
	}
	if len(t.OutTradeNo) > OutTradeNoMaxLength {
		return NewValidationError(fmt.Sprintf("out_trade_no exceeds %d characters", OutTradeNoMaxLength))
	}
	if t.PayeeIdentity == "" {
		return NewValidationError("payee_identity is required")
	}
	if t.PayeeIdentityType == "" {
		return NewValidationError("payee_identity_type is required")
	}
	if t.Subject == "" {
		return NewValidationError("subject is required")
	}
	if len(t.Subject) > SubjectMaxLength {
		return NewValidationError(fmt.Sprintf("subject exceeds %d characters", SubjectMaxLength))
	}
	if !t.Price.IsPositive() {
		return NewValidationError(fmt.Sprintf("price must be positive: %s", t.Price))
	}
	if t.Quantity < 1 {
		return NewValidationError(fmt.Sprintf("quantity must be at least 1: %d", t.Quantity))
	}

	expected := t.Price.Mul(decimal.NewFromInt(t.Quantity))
	if !t.TotalAmount.Equal(expected) {
		return NewValidationError(fmt.Sprintf("total_amount (%s) does not equal price * quantity (%s)",
			t.TotalAmount, expected))
	}

	return nil
}

// ValidateStructure checks the pay_method fields. The amount consistency
// check against the trade total is done by BizContent.ValidateStructure.
func (p *PayMethod) ValidateStructure() error {
	if p.PayProductCode == "" {
		return NewValidationError("pay_product_code is required")
	}
	if !p.Amount.IsPositive() {
		return NewValidationError(fmt.Sprintf("amount must be positive: %s", p.Amount))
	}
	// Express pushes are delivered to the subscriber's phone
	if p.PayProductCode == PayProductCodeMulticaixaExpress && p.PhoneNum == "" {
		return NewValidationError("phone_num is required for Multicaixa Express payments")
	}
	return nil
}

// EncodeBizContent validates the content and returns it as canonical JSON
// (RFC 8785). Canonicalizing before encryption keeps the ciphertext
// reproducible for a given trade regardless of struct field ordering.
func EncodeBizContent(content *BizContent) ([]byte, error) {
	if content == nil {
		return nil, NewValidationError("biz_content is required")
	}
	if err := content.ValidateStructure(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(content)
	if err != nil {
		return nil, WrapInternalError(err, "failed to marshal biz_content")
	}

	canonical, err := crypto.CanonicalizeJSON(raw)
	if err != nil {
		return nil, WrapInternalError(err, "failed to canonicalize biz_content")
	}
	return canonical, nil
}
