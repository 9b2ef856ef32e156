package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iamrosada0/paypay-integration-simplified/internal/crypto"
	"github.com/iamrosada0/paypay-integration-simplified/internal/paypay"
	"github.com/iamrosada0/paypay-integration-simplified/internal/services"
	"github.com/iamrosada0/paypay-integration-simplified/internal/store"
)

const testPartnerID = "200001290101"

// newTestKeyPair generates a protocol-size key pair and returns the private
// and public key material.
func newTestKeyPair(t *testing.T) (*crypto.KeyMaterial, *crypto.KeyMaterial) {
	t.Helper()

	privateKey, err := crypto.GenerateRSAKeyPair(paypay.ProtocolKeyBits)
	if err != nil {
		t.Fatalf("failed to generate key pair: %v", err)
	}

	privateMaterial, err := crypto.KeyMaterialFromPrivateKey(privateKey)
	if err != nil {
		t.Fatalf("failed to build private key material: %v", err)
	}
	publicMaterial, err := crypto.KeyMaterialFromPublicKey(&privateKey.PublicKey)
	if err != nil {
		t.Fatalf("failed to build public key material: %v", err)
	}
	return privateMaterial, publicMaterial
}

// fakeGateway implements services.GatewayClient with a canned response.
type fakeGateway struct {
	response *services.GatewayResponse
	err      error

	// submitted records the envelopes Submit received
	submitted []paypay.Envelope
}

func (f *fakeGateway) Submit(_ context.Context, envelope paypay.Envelope) (*services.GatewayResponse, error) {
	f.submitted = append(f.submitted, envelope)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func acceptingGateway(t *testing.T, tradeNo string) *fakeGateway {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"trade_no": tradeNo})
	if err != nil {
		t.Fatalf("failed to marshal response payload: %v", err)
	}
	return &fakeGateway{
		response: &services.GatewayResponse{
			Success:           true,
			SignatureVerified: true,
			BizContent:        payload,
		},
	}
}

// paymentsRouter mounts the payments handler the way the server does.
func paymentsRouter(st store.Store, gateway services.GatewayClient, merchantKey *crypto.KeyMaterial) http.Handler {
	handler := NewPaymentsHandler(st, gateway, paypay.NewEnvelopeBuilder(testPartnerID, merchantKey), testPartnerID)

	router := chi.NewRouter()
	router.Post("/api/payments", handler.HandleCreatePayment)
	router.Get("/api/payments/{outTradeNo}", handler.HandleGetPayment)
	return router
}

func createPayment(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/payments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestHandleCreatePayment_Success(t *testing.T) {
	merchantKey, _ := newTestKeyPair(t)
	st := store.NewMemoryStore()
	gateway := acceptingGateway(t, "GW-TRADE-1")
	router := paymentsRouter(st, gateway, merchantKey)

	recorder := createPayment(t, router, `{"subject":"Monthly subscription","price":"1500.00","quantity":2,"outTradeNo":"ORDER_1","payerIp":"102.140.66.19"}`)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var response paypay.CreatePaymentResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.OutTradeNo != "ORDER_1" {
		t.Errorf("expected outTradeNo ORDER_1, got %q", response.OutTradeNo)
	}
	if !response.TotalAmount.Equal(decimal.RequireFromString("3000.00")) {
		t.Errorf("expected total 3000.00, got %s", response.TotalAmount)
	}
	if response.TradeNo != "GW-TRADE-1" {
		t.Errorf("expected the gateway trade number to be stored, got %q", response.TradeNo)
	}

	// the gateway received a complete signed envelope
	if len(gateway.submitted) != 1 {
		t.Fatalf("expected one envelope submitted, got %d", len(gateway.submitted))
	}
	envelope := gateway.submitted[0]
	if envelope.Sign() == "" || envelope.BizContent() == "" {
		t.Error("submitted envelope is missing sign or biz_content")
	}
	if envelope.Fields()[paypay.FieldPartnerID] != testPartnerID {
		t.Errorf("expected partner_id %s, got %q", testPartnerID, envelope.Fields()[paypay.FieldPartnerID])
	}

	// the payment is stored with the initial status
	payment, err := st.GetPaymentByOutTradeNo(context.Background(), "ORDER_1")
	if err != nil {
		t.Fatalf("payment was not stored: %v", err)
	}
	if payment.Status != paypay.TradeStatusWaitBuyerPay {
		t.Errorf("expected status WAIT_BUYER_PAY, got %q", payment.Status)
	}
}

func TestHandleCreatePayment_GeneratesOutTradeNo(t *testing.T) {
	merchantKey, _ := newTestKeyPair(t)
	router := paymentsRouter(store.NewMemoryStore(), acceptingGateway(t, ""), merchantKey)

	recorder := createPayment(t, router, `{"subject":"Top-up","price":"100.00","payerIp":"10.0.0.1"}`)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var response paypay.CreatePaymentResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.HasPrefix(response.OutTradeNo, "ORD-") {
		t.Errorf("expected a generated outTradeNo, got %q", response.OutTradeNo)
	}
}

func TestHandleCreatePayment_DuplicateOutTradeNo(t *testing.T) {
	merchantKey, _ := newTestKeyPair(t)
	gateway := acceptingGateway(t, "")
	router := paymentsRouter(store.NewMemoryStore(), gateway, merchantKey)

	body := `{"subject":"Top-up","price":"100.00","outTradeNo":"ORDER_1","payerIp":"10.0.0.1"}`
	if recorder := createPayment(t, router, body); recorder.Code != http.StatusCreated {
		t.Fatalf("first create failed: %d", recorder.Code)
	}

	recorder := createPayment(t, router, body)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a duplicate outTradeNo, got %d", recorder.Code)
	}

	// the duplicate never reached the gateway
	if len(gateway.submitted) != 1 {
		t.Errorf("expected one gateway submission, got %d", len(gateway.submitted))
	}
}

func TestHandleCreatePayment_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not JSON", body: `{"subject":`},
		{name: "missing subject", body: `{"price":"100.00","payerIp":"10.0.0.1"}`},
		{name: "zero price", body: `{"subject":"x","price":"0","payerIp":"10.0.0.1"}`},
		{name: "negative quantity", body: `{"subject":"x","price":"100.00","quantity":-1,"payerIp":"10.0.0.1"}`},
	}

	merchantKey, _ := newTestKeyPair(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := paymentsRouter(store.NewMemoryStore(), acceptingGateway(t, ""), merchantKey)

			recorder := createPayment(t, router, tt.body)
			if recorder.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", recorder.Code, recorder.Body.String())
			}
		})
	}
}

func TestHandleCreatePayment_GatewayRejection(t *testing.T) {
	merchantKey, _ := newTestKeyPair(t)
	st := store.NewMemoryStore()
	gateway := &fakeGateway{
		response: &services.GatewayResponse{
			Success:   false,
			ErrorCode: "RISK_CONTROL_REFUSED",
		},
	}
	router := paymentsRouter(st, gateway, merchantKey)

	recorder := createPayment(t, router, `{"subject":"Top-up","price":"100.00","outTradeNo":"ORDER_1","payerIp":"10.0.0.1"}`)
	if recorder.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for a gateway rejection, got %d", recorder.Code)
	}

	// the rejected payment is closed locally
	payment, err := st.GetPaymentByOutTradeNo(context.Background(), "ORDER_1")
	if err != nil {
		t.Fatalf("payment was not stored: %v", err)
	}
	if payment.Status != paypay.TradeStatusClosed {
		t.Errorf("expected the rejected payment to be closed, got %q", payment.Status)
	}
}

func TestHandleCreatePayment_GatewayUnreachable(t *testing.T) {
	merchantKey, _ := newTestKeyPair(t)
	st := store.NewMemoryStore()
	gateway := &fakeGateway{err: paypay.NewGatewayError("connection refused")}
	router := paymentsRouter(st, gateway, merchantKey)

	recorder := createPayment(t, router, `{"subject":"Top-up","price":"100.00","outTradeNo":"ORDER_1","payerIp":"10.0.0.1"}`)
	if recorder.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for an unreachable gateway, got %d", recorder.Code)
	}

	// a transport failure leaves the payment awaiting the outcome
	payment, err := st.GetPaymentByOutTradeNo(context.Background(), "ORDER_1")
	if err != nil {
		t.Fatalf("payment was not stored: %v", err)
	}
	if payment.Status != paypay.TradeStatusWaitBuyerPay {
		t.Errorf("expected WAIT_BUYER_PAY after a transport failure, got %q", payment.Status)
	}
}

func TestBuildBizContent(t *testing.T) {
	req := &paypay.CreatePaymentRequest{
		Subject:    "Monthly subscription",
		Price:      decimal.RequireFromString("1500.00"),
		Quantity:   2,
		OutTradeNo: "ORDER_1",
		PayerIP:    "102.140.66.19",
	}

	content := buildBizContent(testPartnerID, req)

	if !content.TradeInfo.TotalAmount.Equal(decimal.RequireFromString("3000.00")) {
		t.Errorf("total_amount = %s, want price * quantity = 3000.00", content.TradeInfo.TotalAmount)
	}
	if content.TradeInfo.PayeeIdentity != testPartnerID {
		t.Errorf("payee_identity = %q, want %q", content.TradeInfo.PayeeIdentity, testPartnerID)
	}
	if content.PayMethod != nil {
		t.Error("expected no pay_method without a phone number")
	}
	if err := content.ValidateStructure(); err != nil {
		t.Errorf("built content does not validate: %v", err)
	}

	// a phone number selects the Express push with the full trade amount
	req.PhoneNum = "923000000"
	content = buildBizContent(testPartnerID, req)
	if content.PayMethod == nil {
		t.Fatal("expected a pay_method for an Express payment")
	}
	if !content.PayMethod.Amount.Equal(content.TradeInfo.TotalAmount) {
		t.Errorf("pay_method.amount = %s, want the trade total %s",
			content.PayMethod.Amount, content.TradeInfo.TotalAmount)
	}
}

func TestHandleGetPayment(t *testing.T) {
	merchantKey, _ := newTestKeyPair(t)
	st := store.NewMemoryStore()
	router := paymentsRouter(st, acceptingGateway(t, "GW-TRADE-1"), merchantKey)

	if recorder := createPayment(t, router, `{"subject":"Top-up","price":"100.00","outTradeNo":"ORDER_1","payerIp":"10.0.0.1"}`); recorder.Code != http.StatusCreated {
		t.Fatalf("create failed: %d", recorder.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/payments/ORDER_1", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var response paypay.PaymentStatusResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.OutTradeNo != "ORDER_1" || response.TradeNo != "GW-TRADE-1" {
		t.Errorf("unexpected payment state: %+v", response)
	}
}

func TestHandleGetPayment_Unknown(t *testing.T) {
	merchantKey, _ := newTestKeyPair(t)
	router := paymentsRouter(store.NewMemoryStore(), acceptingGateway(t, ""), merchantKey)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/NO_SUCH_ORDER", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}
