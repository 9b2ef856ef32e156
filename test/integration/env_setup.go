//go:build integration

package integration

// Test environment setup and server lifecycle management.
//
// startTestEnv starts two in-process HTTP servers:
//   - a mock gateway that authenticates inbound envelopes the way the real
//     gateway does (merchant signature over the canonical string, chunked
//     RSA decryption of biz_content with the merchant public key) and
//     answers with responses signed by the gateway key
//   - the merchant payment server under test, configured to talk to the
//     mock gateway and backed by the in-memory store
//
// By default the server logs are not included in the test output, you can
// enable them with:
//
//	ENABLE_SERVER_LOGS=true go test -tags=integration -v ./test/integration
//

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/iamrosada0/paypay-integration-simplified/internal/config"
	"github.com/iamrosada0/paypay-integration-simplified/internal/crypto"
	"github.com/iamrosada0/paypay-integration-simplified/internal/logger"
	"github.com/iamrosada0/paypay-integration-simplified/internal/paypay"
	"github.com/iamrosada0/paypay-integration-simplified/internal/server"
	"github.com/iamrosada0/paypay-integration-simplified/internal/services"
	"github.com/iamrosada0/paypay-integration-simplified/internal/store"
)

const testPartnerID = "200001290101"

// testEnv provides access to the servers, keys and store for integration tests
type testEnv struct {
	baseURL string
	store   *store.MemoryStore

	merchantKey *crypto.KeyMaterial
	merchantPub *crypto.KeyMaterial
	gatewayKey  *crypto.KeyMaterial
	gatewayPub  *crypto.KeyMaterial

	gateway *mockGateway

	shutdown func()
}

// mockGateway emulates the payment gateway: it records the decrypted trades
// it accepts and signs its responses with the gateway private key.
type mockGateway struct {
	mu sync.Mutex

	merchantPub *crypto.KeyMaterial
	gatewayKey  *crypto.KeyMaterial

	// trades maps out_trade_no to the decrypted biz_content it arrived with
	trades map[string][]byte

	// rejectWith, when set, makes the gateway reject every trade with this
	// error code
	rejectWith string
}

func (g *mockGateway) trade(outTradeNo string) ([]byte, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	payload, ok := g.trades[outTradeNo]
	return payload, ok
}

func (g *mockGateway) reject(code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rejectWith = code
}

// ServeHTTP is the gateway endpoint: one form-encoded POST per envelope.
func (g *mockGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	fields := make(crypto.ParameterSet, len(r.PostForm))
	for name := range r.PostForm {
		fields[name] = r.PostForm.Get(name)
	}

	// the real gateway rejects unsigned or mis-signed envelopes outright
	verified, err := crypto.VerifyParams(fields, fields[paypay.FieldSign], g.merchantPub)
	if err != nil || !verified {
		g.respond(w, map[string]string{
			paypay.ResponseFieldIsSuccess: paypay.ResponseFailure,
			paypay.ResponseFieldError:     "ILLEGAL_SIGN",
		}, nil)
		return
	}

	// biz_content was encrypted with the merchant private key; the gateway
	// decrypts it with the merchant's registered public key
	bizContent, err := crypto.DecryptWithPublicKey(fields[paypay.FieldBizContent], g.merchantPub)
	if err != nil {
		g.respond(w, map[string]string{
			paypay.ResponseFieldIsSuccess: paypay.ResponseFailure,
			paypay.ResponseFieldError:     "ILLEGAL_ENCRYPT",
		}, nil)
		return
	}

	g.mu.Lock()
	rejectWith := g.rejectWith
	g.mu.Unlock()
	if rejectWith != "" {
		g.respond(w, map[string]string{
			paypay.ResponseFieldIsSuccess: paypay.ResponseFailure,
			paypay.ResponseFieldError:     rejectWith,
		}, nil)
		return
	}

	var content struct {
		TradeInfo struct {
			OutTradeNo string `json:"out_trade_no"`
		} `json:"trade_info"`
		OutTradeNo string `json:"out_trade_no"`
	}
	if err := json.Unmarshal(bizContent, &content); err != nil {
		g.respond(w, map[string]string{
			paypay.ResponseFieldIsSuccess: paypay.ResponseFailure,
			paypay.ResponseFieldError:     "ILLEGAL_ARGUMENT",
		}, nil)
		return
	}
	outTradeNo := content.TradeInfo.OutTradeNo
	if outTradeNo == "" {
		outTradeNo = content.OutTradeNo
	}

	g.mu.Lock()
	g.trades[outTradeNo] = bizContent
	g.mu.Unlock()

	g.respond(w, map[string]string{
		paypay.ResponseFieldIsSuccess: paypay.ResponseSuccess,
	}, map[string]string{
		"out_trade_no": outTradeNo,
		"trade_no":     "GW-" + outTradeNo,
	})
}

// respond signs and sends a gateway response. When payload is non-nil it is
// encrypted with the gateway private key into biz_content first.
func (g *mockGateway) respond(w http.ResponseWriter, fields map[string]string, payload map[string]string) {
	response := crypto.ParameterSet(fields).Clone()
	response[paypay.FieldSignType] = paypay.SignType

	if payload != nil {
		plaintext, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		cipher, err := crypto.EncryptWithPrivateKey(plaintext, g.gatewayKey)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		response[paypay.FieldBizContent] = cipher
	}

	signature, err := crypto.SignParams(response, g.gatewayKey)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	response[paypay.FieldSign] = signature

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// newKeyPair generates a protocol-size key pair.
func newKeyPair(t *testing.T) (*crypto.KeyMaterial, *crypto.KeyMaterial) {
	t.Helper()

	privateKey, err := crypto.GenerateRSAKeyPair(paypay.ProtocolKeyBits)
	if err != nil {
		t.Fatalf("failed to generate key pair: %v", err)
	}
	private, err := crypto.KeyMaterialFromPrivateKey(privateKey)
	if err != nil {
		t.Fatalf("failed to build private key material: %v", err)
	}
	public, err := crypto.KeyMaterialFromPublicKey(&privateKey.PublicKey)
	if err != nil {
		t.Fatalf("failed to build public key material: %v", err)
	}
	return private, public
}

// startTestEnv starts the mock gateway and the payment server in-process.
func startTestEnv(t *testing.T) *testEnv {
	t.Helper()

	merchantKey, merchantPub := newKeyPair(t)
	gatewayKey, gatewayPub := newKeyPair(t)

	gateway := &mockGateway{
		merchantPub: merchantPub,
		gatewayKey:  gatewayKey,
		trades:      make(map[string][]byte),
	}
	gatewayServer := httptest.NewServer(gateway)

	cfg := &config.ServerEnvironment{
		Environment:         "test",
		PartnerID:           testPartnerID,
		GatewayURL:          gatewayServer.URL,
		GatewayTimeout:      5 * time.Second,
		RateLimitRPS:        0, // disabled for tests
		MaxRequestBodyBytes: 65536,
	}

	logLevel := slog.LevelError
	if os.Getenv("ENABLE_SERVER_LOGS") == "true" {
		logLevel = slog.LevelDebug
	}
	appLogger := logger.InitLogger(logLevel, "test")

	keyManager, err := paypay.NewKeyManagerFromMaterial(merchantKey, gatewayPub)
	if err != nil {
		t.Fatalf("failed to build key manager: %v", err)
	}

	gatewayClient, err := services.NewGatewayHTTPClient(cfg.GatewayURL, cfg.GatewayTimeout, gatewayPub)
	if err != nil {
		t.Fatalf("failed to build gateway client: %v", err)
	}

	memStore := store.NewMemoryStore()
	srv := server.NewServerWithDependencies(cfg, appLogger, memStore, keyManager,
		&services.Services{Gateway: gatewayClient})

	appServer := httptest.NewServer(srv.Router())

	return &testEnv{
		baseURL:     appServer.URL,
		store:       memStore,
		merchantKey: merchantKey,
		merchantPub: merchantPub,
		gatewayKey:  gatewayKey,
		gatewayPub:  gatewayPub,
		gateway:     gateway,
		shutdown: func() {
			appServer.Close()
			gatewayServer.Close()
		},
	}
}
