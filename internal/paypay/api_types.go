package paypay

// api_types.go defines the request and response types for the merchant API.
// These are the merchant-facing JSON shapes; the gateway wire format (flat
// snake_case field maps) never leaks through this surface.

import "github.com/shopspring/decimal"

// CreatePaymentRequest is the body of POST /api/payments.
type CreatePaymentRequest struct {
	// Subject is the human-readable description shown to the payer.
	// Required, max 128 characters.
	Subject string `json:"subject" example:"Monthly subscription"`

	// Price is the unit price in AOA, as a decimal string.
	// Required, must be positive.
	Price decimal.Decimal `json:"price" swaggertype:"string" example:"1500.00"`

	// Quantity is the number of units. Defaults to 1.
	Quantity int64 `json:"quantity,omitempty" example:"2"`

	// OutTradeNo is the merchant order number. Generated when omitted.
	// Max 64 characters.
	OutTradeNo string `json:"outTradeNo,omitempty" example:"ORD-2026-000123"`

	// PayerIP is the paying customer's IP address. Defaults to the
	// request's remote address.
	PayerIP string `json:"payerIp,omitempty" example:"102.140.66.19"`

	// PhoneNum, when set, requests a Multicaixa Express push to this
	// subscriber number instead of a cashier checkout.
	PhoneNum string `json:"phoneNum,omitempty" example:"923000000"`
}

// CreatePaymentResponse is returned when a payment was submitted to the
// gateway (201 Created).
type CreatePaymentResponse struct {
	// OutTradeNo is the merchant order number for this payment
	OutTradeNo string `json:"outTradeNo"`

	// RequestNo is the unique envelope request number sent to the gateway
	RequestNo string `json:"requestNo"`

	// TotalAmount is the charged amount as a decimal string
	TotalAmount decimal.Decimal `json:"totalAmount" swaggertype:"string"`

	// Currency is the settlement currency
	Currency string `json:"currency"`

	// Status is the merchant-side payment status (initially WAIT_BUYER_PAY)
	Status string `json:"status"`

	// TradeNo is the gateway's trade number, when the synchronous response
	// carried one
	TradeNo string `json:"tradeNo,omitempty"`
}

// PaymentStatusResponse is returned by GET /api/payments/{outTradeNo}.
type PaymentStatusResponse struct {
	// OutTradeNo is the merchant order number
	OutTradeNo string `json:"outTradeNo"`

	// RequestNo is the envelope request number the payment was submitted with
	RequestNo string `json:"requestNo"`

	// Subject is the trade description
	Subject string `json:"subject"`

	// TotalAmount is the charged amount as a decimal string
	TotalAmount decimal.Decimal `json:"totalAmount" swaggertype:"string"`

	// Currency is the settlement currency
	Currency string `json:"currency"`

	// Status is the last known trade status
	Status string `json:"status"`

	// TradeNo is the gateway trade number, once known
	TradeNo string `json:"tradeNo,omitempty"`

	// CreatedAt is when the payment was submitted (RFC 3339)
	CreatedAt string `json:"createdAt"`

	// UpdatedAt is when the status last changed (RFC 3339)
	UpdatedAt string `json:"updatedAt"`
}
