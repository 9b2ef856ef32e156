package paypay

// constants.go defines the fixed protocol literals and the envelope field names
// used on the gateway wire.

// Protocol literals fixed by the gateway contract. These never vary per
// request and are not configurable.
const (
	// SignType is the gateway's signature scheme identifier (SHA1withRSA)
	SignType = "RSA"

	// Format is the biz_content serialization format
	Format = "JSON"

	// Charset is the character set of the canonical string and all field values
	Charset = "UTF-8"

	// Version is the gateway protocol version
	Version = "1.0"
)

// Envelope field names on the wire.
const (
	FieldCharset    = "charset"
	FieldBizContent = "biz_content"
	FieldPartnerID  = "partner_id"
	FieldService    = "service"
	FieldRequestNo  = "request_no"
	FieldFormat     = "format"
	FieldSignType   = "sign_type"
	FieldVersion    = "version"
	FieldTimestamp  = "timestamp"
	FieldLanguage   = "language"
	FieldSign       = "sign"
)

// Services accepted by the gateway.
const (
	// ServiceInstantTrade creates an immediately payable trade
	ServiceInstantTrade = "instant_trade"

	// ServiceTradeQuery queries the state of a previously created trade
	ServiceTradeQuery = "trade_query"

	// ServiceTradeClose closes an unpaid trade
	ServiceTradeClose = "trade_close"

	// ServiceTradeRefund refunds a paid trade
	ServiceTradeRefund = "trade_refund"
)

// DefaultLanguage is the language the gateway uses for client-facing text
// unless the envelope overrides it.
const DefaultLanguage = "en"

// Gateway profile defaults. These are the values a typical merchant
// integration uses; all are overridable per trade.
const (
	// CashierTypeSDK renders the gateway cashier inside the merchant app
	CashierTypeSDK = "SDK"

	// SaleProductCodeCashierWeb is the product code for web cashier checkout
	SaleProductCodeCashierWeb = "CASHIER_WEB"

	// DefaultTimeoutExpress is how long a trade stays payable before the
	// gateway closes it
	DefaultTimeoutExpress = "15m"

	// CurrencyAOA is the Angolan kwanza, the only currency the gateway settles
	CurrencyAOA = "AOA"

	// PayeeIdentityTypePartnerID indicates payee_identity carries a partner id
	PayeeIdentityTypePartnerID = "1"
)

// Multicaixa Express push payment profile. When the trade carries a
// pay_method with these codes the gateway pushes a payment prompt to the
// subscriber's phone instead of rendering a cashier.
const (
	// PayProductCodeMulticaixaExpress is the pay_product_code for Express push
	PayProductCodeMulticaixaExpress = "31"

	// BankCodeMulticaixa is the bank_code for the Multicaixa network
	BankCodeMulticaixa = "MUL"
)

// Trade status values reported by the gateway in notifications and query
// responses.
const (
	// TradeStatusWaitBuyerPay means the trade was created and is awaiting payment
	TradeStatusWaitBuyerPay = "WAIT_BUYER_PAY"

	// TradeStatusSuccess means the buyer paid and the trade can still be refunded
	TradeStatusSuccess = "TRADE_SUCCESS"

	// TradeStatusFinished means the trade completed and can no longer be refunded
	TradeStatusFinished = "TRADE_FINISHED"

	// TradeStatusClosed means the trade was closed unpaid (timeout or explicit close)
	TradeStatusClosed = "TRADE_CLOSED"
)

// Notification acknowledgement bodies. The gateway keeps retrying a callback
// until it reads AckSuccess as the literal response body.
const (
	AckSuccess = "success"
	AckFail    = "fail"
)

// Gateway response fields. Responses are flat JSON objects with string
// values, signed the same way as request envelopes.
const (
	// ResponseFieldIsSuccess carries ResponseSuccess or ResponseFailure
	ResponseFieldIsSuccess = "is_success"

	// ResponseFieldError carries the gateway error code when is_success is "F"
	ResponseFieldError = "error"

	ResponseSuccess = "T"
	ResponseFailure = "F"
)

// Field length bounds enforced before an envelope is built.
const (
	// RequestNoMinLength and RequestNoMaxLength bound the request_no field
	RequestNoMinLength = 6
	RequestNoMaxLength = 32

	// OutTradeNoMaxLength bounds the merchant order number
	OutTradeNoMaxLength = 64

	// SubjectMaxLength bounds the human-readable trade subject
	SubjectMaxLength = 128
)
