package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/iamrosada0/paypay-integration-simplified/internal/crypto"
	"github.com/iamrosada0/paypay-integration-simplified/internal/paypay"
	"github.com/iamrosada0/paypay-integration-simplified/internal/store"
)

// signedNotification builds a form-encoded notification body signed with the
// gateway private key, the way the real gateway delivers them.
func signedNotification(t *testing.T, gatewayKey *crypto.KeyMaterial, fields map[string]string) string {
	t.Helper()

	params := crypto.ParameterSet(fields).Clone()
	params[paypay.FieldSignType] = paypay.SignType

	signature, err := crypto.SignParams(params, gatewayKey)
	if err != nil {
		t.Fatalf("failed to sign notification: %v", err)
	}
	params[paypay.FieldSign] = signature

	form := url.Values{}
	for name, value := range params {
		form.Set(name, value)
	}
	return form.Encode()
}

func postNotification(t *testing.T, handler *NotificationsHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/gateway", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder := httptest.NewRecorder()
	handler.HandleGatewayNotification(recorder, req)
	return recorder
}

// seedPayment stores a payment awaiting its outcome.
func seedPayment(t *testing.T, st store.Store, outTradeNo string) {
	t.Helper()

	_, err := st.CreatePayment(context.Background(), store.CreatePaymentParams{
		OutTradeNo: outTradeNo,
		RequestNo:  "req-0001",
		PartnerID:  testPartnerID,
		Subject:    "Top-up",
		Currency:   paypay.CurrencyAOA,
		Status:     paypay.TradeStatusWaitBuyerPay,
	})
	if err != nil {
		t.Fatalf("failed to seed payment: %v", err)
	}
}

func TestHandleGatewayNotification_Success(t *testing.T) {
	gatewayPriv, gatewayPub := newTestKeyPair(t)
	st := store.NewMemoryStore()
	seedPayment(t, st, "ORDER_1")
	handler := NewNotificationsHandler(st, gatewayPub)

	body := signedNotification(t, gatewayPriv, map[string]string{
		"notify_id":    "N-0001",
		"out_trade_no": "ORDER_1",
		"trade_no":     "GW-TRADE-1",
		"trade_status": paypay.TradeStatusSuccess,
		"total_amount": "100.00",
	})

	recorder := postNotification(t, handler, body)
	if got := recorder.Body.String(); got != paypay.AckSuccess {
		t.Fatalf("expected ack %q, got %q", paypay.AckSuccess, got)
	}

	payment, err := st.GetPaymentByOutTradeNo(context.Background(), "ORDER_1")
	if err != nil {
		t.Fatalf("failed to load payment: %v", err)
	}
	if payment.Status != paypay.TradeStatusSuccess {
		t.Errorf("expected TRADE_SUCCESS, got %q", payment.Status)
	}
	if payment.TradeNo != "GW-TRADE-1" {
		t.Errorf("expected the gateway trade number to be stored, got %q", payment.TradeNo)
	}
}

func TestHandleGatewayNotification_DuplicateDelivery(t *testing.T) {
	gatewayPriv, gatewayPub := newTestKeyPair(t)
	st := store.NewMemoryStore()
	seedPayment(t, st, "ORDER_1")
	handler := NewNotificationsHandler(st, gatewayPub)

	body := signedNotification(t, gatewayPriv, map[string]string{
		"notify_id":    "N-0001",
		"out_trade_no": "ORDER_1",
		"trade_status": paypay.TradeStatusSuccess,
	})

	first := postNotification(t, handler, body)
	if first.Body.String() != paypay.AckSuccess {
		t.Fatalf("first delivery not acked: %q", first.Body.String())
	}

	// the gateway redelivers until acked; a redelivery must be acked again
	// without reprocessing
	second := postNotification(t, handler, body)
	if second.Body.String() != paypay.AckSuccess {
		t.Fatalf("redelivery not acked: %q", second.Body.String())
	}
}

func TestHandleGatewayNotification_Tampered(t *testing.T) {
	gatewayPriv, gatewayPub := newTestKeyPair(t)
	st := store.NewMemoryStore()
	seedPayment(t, st, "ORDER_1")
	handler := NewNotificationsHandler(st, gatewayPub)

	body := signedNotification(t, gatewayPriv, map[string]string{
		"notify_id":    "N-0001",
		"out_trade_no": "ORDER_1",
		"trade_status": paypay.TradeStatusClosed,
	})
	// flip the reported status after signing
	body = strings.Replace(body, paypay.TradeStatusClosed, paypay.TradeStatusSuccess, 1)

	recorder := postNotification(t, handler, body)
	if got := recorder.Body.String(); got != paypay.AckFail {
		t.Fatalf("expected ack %q for a tampered notification, got %q", paypay.AckFail, got)
	}

	// the payment is untouched
	payment, err := st.GetPaymentByOutTradeNo(context.Background(), "ORDER_1")
	if err != nil {
		t.Fatalf("failed to load payment: %v", err)
	}
	if payment.Status != paypay.TradeStatusWaitBuyerPay {
		t.Errorf("a tampered notification must not change the payment, got status %q", payment.Status)
	}
}

func TestHandleGatewayNotification_WrongKey(t *testing.T) {
	// signed by someone who is not the gateway
	attackerPriv, _ := newTestKeyPair(t)
	_, gatewayPub := newTestKeyPair(t)

	st := store.NewMemoryStore()
	seedPayment(t, st, "ORDER_1")
	handler := NewNotificationsHandler(st, gatewayPub)

	body := signedNotification(t, attackerPriv, map[string]string{
		"notify_id":    "N-0001",
		"out_trade_no": "ORDER_1",
		"trade_status": paypay.TradeStatusSuccess,
	})

	recorder := postNotification(t, handler, body)
	if got := recorder.Body.String(); got != paypay.AckFail {
		t.Fatalf("expected ack %q for a forged notification, got %q", paypay.AckFail, got)
	}
}

func TestHandleGatewayNotification_MissingSign(t *testing.T) {
	_, gatewayPub := newTestKeyPair(t)
	handler := NewNotificationsHandler(store.NewMemoryStore(), gatewayPub)

	recorder := postNotification(t, handler, "out_trade_no=ORDER_1&trade_status=TRADE_SUCCESS")
	if got := recorder.Body.String(); got != paypay.AckFail {
		t.Fatalf("expected ack %q for an unsigned notification, got %q", paypay.AckFail, got)
	}
}

func TestHandleGatewayNotification_UnknownPayment(t *testing.T) {
	gatewayPriv, gatewayPub := newTestKeyPair(t)
	handler := NewNotificationsHandler(store.NewMemoryStore(), gatewayPub)

	body := signedNotification(t, gatewayPriv, map[string]string{
		"notify_id":    "N-0001",
		"out_trade_no": "NO_SUCH_ORDER",
		"trade_status": paypay.TradeStatusSuccess,
	})

	// ask for a retry in case the local payment write is lagging
	recorder := postNotification(t, handler, body)
	if got := recorder.Body.String(); got != paypay.AckFail {
		t.Fatalf("expected ack %q for an unknown payment, got %q", paypay.AckFail, got)
	}
}
