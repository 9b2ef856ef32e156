package handlers

// notifications.go implements the gateway notification callback:
// POST /api/notifications/gateway receives the asynchronous payment outcome
// reports the gateway delivers after a buyer pays (or a trade times out).
//
// The gateway treats the literal response body "success" as the ack and
// redelivers the notification until it reads one, so every outcome here maps
// to either "success" (stop redelivery) or "fail" (please retry).

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/iamrosada0/paypay-integration-simplified/internal/crypto"
	"github.com/iamrosada0/paypay-integration-simplified/internal/logger"
	"github.com/iamrosada0/paypay-integration-simplified/internal/paypay"
	"github.com/iamrosada0/paypay-integration-simplified/internal/store"
)

// NotificationsHandler processes inbound gateway notifications.
type NotificationsHandler struct {
	store store.Store

	// gatewayKey verifies the notification signatures
	gatewayKey *crypto.KeyMaterial
}

// NewNotificationsHandler creates a handler for the gateway callback URL.
func NewNotificationsHandler(st store.Store, gatewayKey *crypto.KeyMaterial) *NotificationsHandler {
	return &NotificationsHandler{
		store:      st,
		gatewayKey: gatewayKey,
	}
}

// HandleGatewayNotification godoc
//
//	@Summary		Gateway notification callback
//	@Description	Receives asynchronous payment notifications from the gateway.
//	@Description
//	@Description	The notification is a form-encoded field map signed by the gateway.
//	@Description	The signature is verified before any field is trusted; unverifiable
//	@Description	notifications are answered with `fail` and never touch stored payments.
//	@Description
//	@Description	The gateway redelivers a notification until it reads the literal body
//	@Description	`success`, so this endpoint is idempotent: a redelivered notification
//	@Description	(same out_trade_no and notify_id) is acked without being reprocessed.
//	@Tags			Notifications
//	@Accept			x-www-form-urlencoded
//	@Produce		plain
//	@Success		200	{string}	string	"success or fail"
//	@Router			/api/notifications/gateway [post]
func (h *NotificationsHandler) HandleGatewayNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqLogger := logger.ContextRequestLogger(ctx)

	// Step 1. Decode the form body into the flat field map the verifier
	// works on. An undecodable body can never carry a valid signature.
	if err := r.ParseForm(); err != nil {
		reqLogger.Warn("notification body is not valid form data",
			slog.String("error", err.Error()))
		paypay.RespondWithAck(w, paypay.AckFail)
		return
	}
	fields := paypay.ParseNotificationForm(r.PostForm)

	// Step 2. Authenticate before anything else. Only a verified result may
	// have its fields read.
	result, err := paypay.VerifyNotification(paypay.NotificationVerificationInput{
		Fields:     fields,
		GatewayKey: h.gatewayKey,
	})
	if err != nil {
		reqLogger.Error("notification verification errored",
			slog.String("error", err.Error()))
		paypay.RespondWithAck(w, paypay.AckFail)
		return
	}
	if !result.Verified {
		reqLogger.Warn("rejected gateway notification",
			slog.String("reason", result.RejectReason))
		paypay.RespondWithAck(w, result.Ack())
		return
	}

	logger.ContextWithLogAttrs(ctx,
		slog.String("out_trade_no", result.OutTradeNo),
		slog.String("notify_id", result.NotifyID),
		slog.String("trade_status", result.TradeStatus),
	)

	// Step 3. Apply the reported status. The update is idempotent, so it
	// runs before deduplication: a redelivery that raced a failed update
	// still converges on the reported state.
	if result.TradeStatus != "" {
		_, err := h.store.UpdatePaymentStatus(ctx, store.UpdatePaymentStatusParams{
			OutTradeNo: result.OutTradeNo,
			Status:     result.TradeStatus,
			TradeNo:    result.TradeNo,
		})
		if err != nil {
			if errors.Is(err, store.ErrPaymentNotFound) {
				// Possibly a notification meant for another deployment of
				// this merchant. Ask for a retry rather than absorbing it.
				reqLogger.Warn("notification refers to an unknown payment",
					slog.String("out_trade_no", result.OutTradeNo))
				paypay.RespondWithAck(w, paypay.AckFail)
				return
			}
			reqLogger.Error("failed to update payment from notification",
				slog.String("out_trade_no", result.OutTradeNo),
				slog.String("error", err.Error()))
			paypay.RespondWithAck(w, paypay.AckFail)
			return
		}
	}

	// Step 4. Record the notification. A duplicate (out_trade_no, notify_id)
	// means this delivery was already processed: ack it so the gateway stops
	// retrying, without reprocessing.
	_, err = h.store.RecordNotification(ctx, store.RecordNotificationParams{
		OutTradeNo:  result.OutTradeNo,
		NotifyID:    result.NotifyID,
		TradeNo:     result.TradeNo,
		TradeStatus: result.TradeStatus,
		RawFields:   result.Fields,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateNotification) {
			reqLogger.Info("acknowledged redelivered notification",
				slog.String("out_trade_no", result.OutTradeNo),
				slog.String("notify_id", result.NotifyID))
			paypay.RespondWithAck(w, paypay.AckSuccess)
			return
		}
		reqLogger.Error("failed to record notification",
			slog.String("out_trade_no", result.OutTradeNo),
			slog.String("error", err.Error()))
		paypay.RespondWithAck(w, paypay.AckFail)
		return
	}

	reqLogger.Info("processed gateway notification",
		slog.String("out_trade_no", result.OutTradeNo),
		slog.String("trade_status", result.TradeStatus),
	)
	paypay.RespondWithAck(w, paypay.AckSuccess)
}
