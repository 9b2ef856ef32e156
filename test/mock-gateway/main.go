// mock-gateway is a local stand-in for the payment gateway, used for manual
// testing of the merchant server without gateway credentials.
//
// It authenticates inbound envelopes the way the real gateway does (merchant
// signature check, chunked RSA decryption of biz_content with the merchant
// public key), answers with gateway-signed responses, and can push a signed
// TRADE_SUCCESS notification back to the merchant's callback URL for every
// trade it accepts.
//
// Typical session, with keys from the keygen tool:
//
//	mock-gateway --port 8081 \
//	    --merchant-public-key keys/merchant.public.pem \
//	    --gateway-private-key keys/gateway.private.pem \
//	    --notify-url http://localhost:8080/api/notifications/gateway
//
// then point the merchant server's GATEWAY_URL at http://localhost:8081.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/iamrosada0/paypay-integration-simplified/internal/crypto"
	"github.com/iamrosada0/paypay-integration-simplified/internal/paypay"
	"github.com/spf13/cobra"
)

func main() {
	var (
		port               int
		merchantPublicKey  string
		gatewayPrivateKey  string
		notifyURL          string
		notifyDelaySeconds int
		rejectWith         string
	)

	cmd := &cobra.Command{
		Use:   "mock-gateway",
		Short: "Run a local payment gateway emulator",
		Long: `Run a local payment gateway emulator for testing the merchant server.

The emulator verifies inbound envelope signatures against the merchant public
key, decrypts biz_content, and answers with responses signed by the gateway
private key. With --notify-url it also delivers a signed TRADE_SUCCESS
notification for every accepted trade, after --notify-delay seconds.

Use --reject-with <code> to make the emulator refuse every trade with that
gateway error code instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			merchantPub, err := loadKey(merchantPublicKey, crypto.KeyKindPublic)
			if err != nil {
				return fmt.Errorf("failed to load merchant public key: %w", err)
			}
			gatewayKey, err := loadKey(gatewayPrivateKey, crypto.KeyKindPrivate)
			if err != nil {
				return fmt.Errorf("failed to load gateway private key: %w", err)
			}

			gateway := &gateway{
				merchantPub: merchantPub,
				gatewayKey:  gatewayKey,
				notifyURL:   notifyURL,
				notifyDelay: time.Duration(notifyDelaySeconds) * time.Second,
				rejectWith:  rejectWith,
			}

			addr := fmt.Sprintf(":%d", port)
			fmt.Printf("mock gateway listening on %s\n", addr)
			if notifyURL != "" {
				fmt.Printf("notifications will be pushed to %s\n", notifyURL)
			}
			return http.ListenAndServe(addr, gateway)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8081, "Port to listen on")
	cmd.Flags().StringVarP(&merchantPublicKey, "merchant-public-key", "m", "", "Path to the merchant public key PEM file")
	cmd.Flags().StringVarP(&gatewayPrivateKey, "gateway-private-key", "g", "", "Path to the gateway private key PEM file")
	cmd.Flags().StringVarP(&notifyURL, "notify-url", "n", "", "Merchant callback URL to push signed notifications to")
	cmd.Flags().IntVar(&notifyDelaySeconds, "notify-delay", 2, "Seconds to wait before pushing a notification")
	cmd.Flags().StringVar(&rejectWith, "reject-with", "", "Reject every trade with this gateway error code")
	cmd.MarkFlagRequired("merchant-public-key")
	cmd.MarkFlagRequired("gateway-private-key")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadKey(path string, kind crypto.KeyKind) (*crypto.KeyMaterial, error) {
	dir, file := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	return crypto.LoadKeyFromPEMFile(dir, file, kind)
}

// gateway handles one form-encoded POST per envelope, like the real gateway
// endpoint.
type gateway struct {
	merchantPub *crypto.KeyMaterial
	gatewayKey  *crypto.KeyMaterial
	notifyURL   string
	notifyDelay time.Duration
	rejectWith  string

	notifySeq atomic.Int64
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "gateway only accepts POST", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	fields := make(crypto.ParameterSet, len(r.PostForm))
	for name := range r.PostForm {
		fields[name] = r.PostForm.Get(name)
	}

	fmt.Printf("[%s] envelope: service=%s partner_id=%s request_no=%s\n",
		time.Now().Format(time.TimeOnly),
		fields[paypay.FieldService], fields[paypay.FieldPartnerID], fields[paypay.FieldRequestNo])

	verified, err := crypto.VerifyParams(fields, fields[paypay.FieldSign], g.merchantPub)
	if err != nil || !verified {
		fmt.Println("  REJECTED: signature does not verify against the merchant key")
		g.respond(w, map[string]string{
			paypay.ResponseFieldIsSuccess: paypay.ResponseFailure,
			paypay.ResponseFieldError:     "ILLEGAL_SIGN",
		}, nil)
		return
	}

	bizContent, err := crypto.DecryptWithPublicKey(fields[paypay.FieldBizContent], g.merchantPub)
	if err != nil {
		fmt.Println("  REJECTED: biz_content does not decrypt with the merchant key")
		g.respond(w, map[string]string{
			paypay.ResponseFieldIsSuccess: paypay.ResponseFailure,
			paypay.ResponseFieldError:     "ILLEGAL_ENCRYPT",
		}, nil)
		return
	}
	fmt.Printf("  biz_content: %s\n", bizContent)

	if g.rejectWith != "" {
		fmt.Printf("  REJECTED: forced rejection with %s\n", g.rejectWith)
		g.respond(w, map[string]string{
			paypay.ResponseFieldIsSuccess: paypay.ResponseFailure,
			paypay.ResponseFieldError:     g.rejectWith,
		}, nil)
		return
	}

	outTradeNo, totalAmount := tradeSummary(bizContent)
	tradeNo := "MOCK-" + outTradeNo

	g.respond(w, map[string]string{
		paypay.ResponseFieldIsSuccess: paypay.ResponseSuccess,
	}, map[string]string{
		"out_trade_no": outTradeNo,
		"trade_no":     tradeNo,
	})

	if g.notifyURL != "" && outTradeNo != "" {
		go g.pushNotification(outTradeNo, tradeNo, totalAmount)
	}
}

// respond signs and sends a gateway response. A non-nil payload is encrypted
// with the gateway private key into biz_content first.
func (g *gateway) respond(w http.ResponseWriter, fields map[string]string, payload map[string]string) {
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

// pushNotification delivers a signed TRADE_SUCCESS callback the way the real
// gateway reports an asynchronous payment outcome.
func (g *gateway) pushNotification(outTradeNo, tradeNo, totalAmount string) {
	time.Sleep(g.notifyDelay)

	fields := crypto.ParameterSet{
		"notify_id":          fmt.Sprintf("MOCK_NOTIFY_%06d", g.notifySeq.Add(1)),
		"notify_time":        crypto.FormatTimestamp(time.Now()),
		"out_trade_no":       outTradeNo,
		"trade_no":           tradeNo,
		"trade_status":       paypay.TradeStatusSuccess,
		paypay.FieldSignType: paypay.SignType,
	}
	if totalAmount != "" {
		fields["total_amount"] = totalAmount
	}

	signature, err := crypto.SignParams(fields, g.gatewayKey)
	if err != nil {
		fmt.Printf("  notification signing failed: %v\n", err)
		return
	}
	fields[paypay.FieldSign] = signature

	form := url.Values{}
	for name, value := range fields {
		form.Set(name, value)
	}

	resp, err := http.Post(g.notifyURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		fmt.Printf("  notification delivery failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	ack, _ := io.ReadAll(io.LimitReader(resp.Body, 64))
	fmt.Printf("  notification for %s acked with %q\n", outTradeNo, string(ack))
}

// tradeSummary pulls the fields the emulator reports back out of the
// decrypted trade payload.
func tradeSummary(bizContent []byte) (outTradeNo, totalAmount string) {
	var content struct {
		TradeInfo struct {
			OutTradeNo  string `json:"out_trade_no"`
			TotalAmount string `json:"total_amount"`
		} `json:"trade_info"`
		OutTradeNo string `json:"out_trade_no"`
	}
	if err := json.Unmarshal(bizContent, &content); err != nil {
		return "", ""
	}
	if content.TradeInfo.OutTradeNo != "" {
		return content.TradeInfo.OutTradeNo, content.TradeInfo.TotalAmount
	}
	return content.OutTradeNo, ""
}
