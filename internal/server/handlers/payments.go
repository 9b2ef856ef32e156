package handlers

// payments.go implements the merchant payment API:
// POST /api/payments creates a trade on the gateway, GET /api/payments/{outTradeNo}
// returns the last known state of a payment.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iamrosada0/paypay-integration-simplified/internal/logger"
	"github.com/iamrosada0/paypay-integration-simplified/internal/paypay"
	"github.com/iamrosada0/paypay-integration-simplified/internal/services"
	"github.com/iamrosada0/paypay-integration-simplified/internal/store"
)

// PaymentsHandler handles the merchant payment API endpoints.
type PaymentsHandler struct {
	store   store.Store
	gateway services.GatewayClient

	// envelopes builds and signs the request envelopes sent to the gateway
	envelopes *paypay.EnvelopeBuilder

	// partnerID is this merchant's partner id, used as the payee identity
	partnerID string
}

// NewPaymentsHandler creates a new handler for the payment API.
func NewPaymentsHandler(
	st store.Store,
	gateway services.GatewayClient,
	envelopes *paypay.EnvelopeBuilder,
	partnerID string,
) *PaymentsHandler {
	return &PaymentsHandler{
		store:     st,
		gateway:   gateway,
		envelopes: envelopes,
		partnerID: partnerID,
	}
}

// HandleCreatePayment godoc
//
//	@Summary		Create a payment
//	@Description	Creates a trade on the payment gateway and records it locally.
//	@Description
//	@Description	The order details are serialized, encrypted with the merchant private
//	@Description	key and submitted to the gateway as a signed instant_trade envelope.
//	@Description	The payment starts in status `WAIT_BUYER_PAY`; the final outcome
//	@Description	arrives later through the gateway notification callback.
//	@Description
//	@Description	When `phoneNum` is set the gateway pushes a Multicaixa Express
//	@Description	payment prompt to that subscriber instead of a cashier checkout.
//	@Description
//	@Description	`outTradeNo` is generated when omitted. Reusing an `outTradeNo`
//	@Description	returns `409 Conflict`.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			payment	body		paypay.CreatePaymentRequest	true	"Payment details"
//	@Success		201		{object}	paypay.CreatePaymentResponse
//	@Failure		400		{object}	paypay.ErrorResponse	"Malformed or invalid request"
//	@Failure		409		{object}	paypay.ErrorResponse	"Duplicate outTradeNo"
//	@Failure		502		{object}	paypay.ErrorResponse	"Gateway rejected the trade or could not be reached"
//	@Router			/api/payments [post]
func (h *PaymentsHandler) HandleCreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqLogger := logger.ContextRequestLogger(ctx)

	// Step 1. Decode and validate the request
	var req paypay.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		paypay.RespondWithErrorResponse(w, r, paypay.WrapMalformedRequestError(err, "failed to decode payment request"))
		return
	}
	defer r.Body.Close()

	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.OutTradeNo == "" {
		req.OutTradeNo = "ORD-" + uuid.NewString()
	}
	if req.PayerIP == "" {
		req.PayerIP = remoteIP(r)
	}

	content := buildBizContent(h.partnerID, &req)

	// Step 2. Build the signed envelope. Trade validation happens inside the
	// builder, so bad amounts and field lengths surface here as validation
	// errors.
	envelope, err := h.envelopes.Build(content)
	if err != nil {
		paypay.RespondWithErrorResponse(w, r, err)
		return
	}

	logger.ContextWithLogAttrs(ctx,
		slog.String("out_trade_no", req.OutTradeNo),
		slog.String("request_no", envelope.RequestNo()),
	)

	// Step 3. Record the payment before calling the gateway, so a duplicate
	// outTradeNo is rejected without ever reaching the gateway.
	payment, err := h.store.CreatePayment(ctx, store.CreatePaymentParams{
		OutTradeNo:  req.OutTradeNo,
		RequestNo:   envelope.RequestNo(),
		PartnerID:   h.partnerID,
		Subject:     req.Subject,
		TotalAmount: content.TradeInfo.TotalAmount,
		Currency:    content.TradeInfo.Currency,
		Status:      paypay.TradeStatusWaitBuyerPay,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateOutTradeNo) {
			paypay.RespondWithErrorResponse(w, r, paypay.NewDuplicatePaymentError(
				"a payment with outTradeNo "+req.OutTradeNo+" already exists"))
			return
		}
		paypay.RespondWithErrorResponse(w, r, paypay.WrapInternalError(err, "failed to record payment"))
		return
	}

	// Step 4. Submit the envelope. A transport failure leaves the payment in
	// WAIT_BUYER_PAY: the gateway may or may not have received the trade, so
	// the caller should query the status or close the trade later.
	response, err := h.gateway.Submit(ctx, envelope)
	if err != nil {
		reqLogger.Error("gateway call failed",
			slog.String("out_trade_no", req.OutTradeNo),
			slog.String("error", err.Error()),
		)
		paypay.RespondWithErrorResponse(w, r, err)
		return
	}

	// Step 5. A gateway rejection means the trade was not created: close the
	// payment locally and report the gateway's error code.
	if !response.Success {
		if _, err := h.store.UpdatePaymentStatus(ctx, store.UpdatePaymentStatusParams{
			OutTradeNo: req.OutTradeNo,
			Status:     paypay.TradeStatusClosed,
		}); err != nil {
			reqLogger.Error("failed to close rejected payment",
				slog.String("out_trade_no", req.OutTradeNo),
				slog.String("error", err.Error()),
			)
		}
		paypay.RespondWithErrorResponse(w, r, paypay.NewGatewayError(
			"gateway rejected the trade: "+response.ErrorCode))
		return
	}

	// Step 6. The synchronous response payload may already carry the gateway
	// trade number; store it when present.
	tradeNo := responseTradeNo(response, reqLogger)
	if tradeNo != "" {
		if updated, err := h.store.UpdatePaymentStatus(ctx, store.UpdatePaymentStatusParams{
			OutTradeNo: req.OutTradeNo,
			Status:     payment.Status,
			TradeNo:    tradeNo,
		}); err == nil {
			payment = updated
		} else {
			reqLogger.Warn("failed to store gateway trade number",
				slog.String("out_trade_no", req.OutTradeNo),
				slog.String("error", err.Error()),
			)
		}
	}

	reqLogger.Info("payment submitted to gateway",
		slog.String("out_trade_no", payment.OutTradeNo),
		slog.String("request_no", payment.RequestNo),
		slog.String("total_amount", payment.TotalAmount.StringFixed(2)),
	)

	paypay.RespondWithJSONPayload(w, http.StatusCreated, paypay.CreatePaymentResponse{
		OutTradeNo:  payment.OutTradeNo,
		RequestNo:   payment.RequestNo,
		TotalAmount: payment.TotalAmount,
		Currency:    payment.Currency,
		Status:      payment.Status,
		TradeNo:     payment.TradeNo,
	})
}

// HandleGetPayment godoc
//
//	@Summary		Get payment status
//	@Description	Returns the last known state of a payment. The state reflects the
//	@Description	most recent verified gateway notification; it is not a live query
//	@Description	against the gateway.
//	@Tags			Payments
//	@Produce		json
//	@Param			outTradeNo	path		string	true	"Merchant order number"
//	@Success		200			{object}	paypay.PaymentStatusResponse
//	@Failure		404			{object}	paypay.ErrorResponse	"Unknown outTradeNo"
//	@Router			/api/payments/{outTradeNo} [get]
func (h *PaymentsHandler) HandleGetPayment(w http.ResponseWriter, r *http.Request) {
	outTradeNo := chi.URLParam(r, "outTradeNo")

	payment, err := h.store.GetPaymentByOutTradeNo(r.Context(), outTradeNo)
	if err != nil {
		if errors.Is(err, store.ErrPaymentNotFound) {
			paypay.RespondWithErrorResponse(w, r, paypay.NewUnknownPaymentError(
				"no payment with outTradeNo "+outTradeNo))
			return
		}
		paypay.RespondWithErrorResponse(w, r, paypay.WrapInternalError(err, "failed to load payment"))
		return
	}

	paypay.RespondWithJSONPayload(w, http.StatusOK, paypay.PaymentStatusResponse{
		OutTradeNo:  payment.OutTradeNo,
		RequestNo:   payment.RequestNo,
		Subject:     payment.Subject,
		TotalAmount: payment.TotalAmount,
		Currency:    payment.Currency,
		Status:      payment.Status,
		TradeNo:     payment.TradeNo,
		CreatedAt:   payment.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   payment.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

// buildBizContent assembles the trade payload from the API request and the
// gateway profile defaults.
func buildBizContent(partnerID string, req *paypay.CreatePaymentRequest) *paypay.BizContent {
	content := &paypay.BizContent{
		CashierType:     paypay.CashierTypeSDK,
		PayerIP:         req.PayerIP,
		SaleProductCode: paypay.SaleProductCodeCashierWeb,
		TimeoutExpress:  paypay.DefaultTimeoutExpress,
		TradeInfo: paypay.TradeInfo{
			Currency:          paypay.CurrencyAOA,
			OutTradeNo:        req.OutTradeNo,
			PayeeIdentity:     partnerID,
			PayeeIdentityType: paypay.PayeeIdentityTypePartnerID,
			Price:             req.Price,
			Quantity:          req.Quantity,
			Subject:           req.Subject,
			TotalAmount:       req.Price.Mul(decimal.NewFromInt(req.Quantity)),
		},
	}

	// A phone number selects the Multicaixa Express push flow.
	if req.PhoneNum != "" {
		content.PayMethod = &paypay.PayMethod{
			PayProductCode: paypay.PayProductCodeMulticaixaExpress,
			Amount:         content.TradeInfo.TotalAmount,
			BankCode:       paypay.BankCodeMulticaixa,
			PhoneNum:       req.PhoneNum,
		}
	}

	return content
}

// responseTradeNo extracts the gateway trade number from the decrypted
// response payload, when the gateway sent one.
func responseTradeNo(response *services.GatewayResponse, reqLogger *slog.Logger) string {
	if len(response.BizContent) == 0 {
		return ""
	}

	var payload struct {
		TradeNo string `json:"trade_no"`
	}
	if err := json.Unmarshal(response.BizContent, &payload); err != nil {
		reqLogger.Warn("gateway response payload is not valid JSON",
			slog.String("error", err.Error()),
		)
		return ""
	}
	return payload.TradeNo
}

// remoteIP returns the request's remote address without the port.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
