//go:build integration

package integration

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/iamrosada0/paypay-integration-simplified/internal/crypto"
	"github.com/iamrosada0/paypay-integration-simplified/internal/paypay"
)

// createPayment submits an order through the API so a later notification has
// a payment to land on.
func createPayment(t *testing.T, testEnv *testEnv, outTradeNo string) {
	t.Helper()

	body := `{"subject":"Top-up","price":"2500.00","outTradeNo":"` + outTradeNo + `","payerIp":"10.0.0.1"}`
	resp, err := http.Post(testEnv.baseURL+"/api/payments", "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST /api/payments failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("failed to create payment: %d", resp.StatusCode)
	}
}

// signedNotificationBody builds a gateway-signed form body from the fields.
func signedNotificationBody(t *testing.T, gatewayKey *crypto.KeyMaterial, fields map[string]string) string {
	t.Helper()

	params := make(crypto.ParameterSet, len(fields)+2)
	for name, value := range fields {
		params[name] = value
	}
	params[paypay.FieldSignType] = paypay.SignType

	signature, err := crypto.SignParams(params, gatewayKey)
	if err != nil {
		t.Fatalf("failed to sign notification: %v", err)
	}
	params[paypay.FieldSign] = signature

	values := make(url.Values, len(params))
	for name, value := range params {
		values.Set(name, value)
	}
	return values.Encode()
}

// postNotification delivers a callback body and returns the ack the gateway
// would read.
func postNotification(t *testing.T, testEnv *testEnv, body string) string {
	t.Helper()

	resp, err := http.Post(testEnv.baseURL+"/api/notifications/gateway",
		"application/x-www-form-urlencoded", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/notifications/gateway failed: %v", err)
	}
	defer resp.Body.Close()

	ack, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read ack body: %v", err)
	}
	return string(ack)
}

func TestNotificationFlow(t *testing.T) {
	testEnv := startTestEnv(t)
	defer testEnv.shutdown()

	createPayment(t, testEnv, "ORDER_1")

	body := signedNotificationBody(t, testEnv.gatewayKey, map[string]string{
		"notify_id":    "NOTIFY_001",
		"notify_time":  "2026-02-11 14:30:00",
		"out_trade_no": "ORDER_1",
		"trade_no":     "GW-ORDER_1",
		"trade_status": paypay.TradeStatusSuccess,
		"total_amount": "2500.00",
	})

	if ack := postNotification(t, testEnv, body); ack != paypay.AckSuccess {
		t.Fatalf("expected ack %q, got %q", paypay.AckSuccess, ack)
	}

	payment, err := testEnv.store.GetPaymentByOutTradeNo(context.Background(), "ORDER_1")
	if err != nil {
		t.Fatalf("payment lookup failed: %v", err)
	}
	if payment.Status != paypay.TradeStatusSuccess {
		t.Errorf("expected status TRADE_SUCCESS, got %q", payment.Status)
	}
	if payment.TradeNo != "GW-ORDER_1" {
		t.Errorf("expected the gateway trade number to be recorded, got %q", payment.TradeNo)
	}
}

func TestNotificationFlow_Redelivery(t *testing.T) {
	testEnv := startTestEnv(t)
	defer testEnv.shutdown()

	createPayment(t, testEnv, "ORDER_1")

	body := signedNotificationBody(t, testEnv.gatewayKey, map[string]string{
		"notify_id":    "NOTIFY_001",
		"out_trade_no": "ORDER_1",
		"trade_no":     "GW-ORDER_1",
		"trade_status": paypay.TradeStatusSuccess,
	})

	// the gateway retries until it reads "success"; a redelivery of the same
	// notify_id is acked without reprocessing
	if ack := postNotification(t, testEnv, body); ack != paypay.AckSuccess {
		t.Fatalf("first delivery: expected ack success, got %q", ack)
	}
	if ack := postNotification(t, testEnv, body); ack != paypay.AckSuccess {
		t.Fatalf("redelivery: expected ack success, got %q", ack)
	}
}

func TestNotificationFlow_Tampered(t *testing.T) {
	testEnv := startTestEnv(t)
	defer testEnv.shutdown()

	createPayment(t, testEnv, "ORDER_1")

	body := signedNotificationBody(t, testEnv.gatewayKey, map[string]string{
		"notify_id":    "NOTIFY_001",
		"out_trade_no": "ORDER_1",
		"trade_no":     "GW-ORDER_1",
		"trade_status": paypay.TradeStatusClosed,
	})

	// flip the reported status after signing
	tampered := strings.Replace(body, url.QueryEscape(paypay.TradeStatusClosed),
		url.QueryEscape(paypay.TradeStatusSuccess), 1)

	if ack := postNotification(t, testEnv, tampered); ack != paypay.AckFail {
		t.Fatalf("expected ack %q for a tampered notification, got %q", paypay.AckFail, ack)
	}

	payment, err := testEnv.store.GetPaymentByOutTradeNo(context.Background(), "ORDER_1")
	if err != nil {
		t.Fatalf("payment lookup failed: %v", err)
	}
	if payment.Status != paypay.TradeStatusWaitBuyerPay {
		t.Errorf("tampered notification must not change the payment, got %q", payment.Status)
	}
}

func TestNotificationFlow_SignedWithWrongKey(t *testing.T) {
	testEnv := startTestEnv(t)
	defer testEnv.shutdown()

	createPayment(t, testEnv, "ORDER_1")

	// the merchant key is not the gateway key: a notification signed with it
	// must be rejected
	body := signedNotificationBody(t, testEnv.merchantKey, map[string]string{
		"notify_id":    "NOTIFY_001",
		"out_trade_no": "ORDER_1",
		"trade_status": paypay.TradeStatusSuccess,
	})

	if ack := postNotification(t, testEnv, body); ack != paypay.AckFail {
		t.Fatalf("expected ack %q, got %q", paypay.AckFail, ack)
	}
}
