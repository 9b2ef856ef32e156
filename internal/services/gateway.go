// services provides external service integrations for the payment server.
//
// This file contains the gateway transport: it delivers signed request
// envelopes to the payment gateway over HTTP and verifies/decrypts the
// response before handing it back to the caller.
//
// To add support for a new gateway environment (e.g. a sandbox with a
// different transport), create a new type that implements the GatewayClient
// interface and add a case for it in NewGatewayClient().
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iamrosada0/paypay-integration-simplified/internal/config"
	"github.com/iamrosada0/paypay-integration-simplified/internal/crypto"
	"github.com/iamrosada0/paypay-integration-simplified/internal/paypay"
)

// GatewayResponse is the verified result of a gateway call.
type GatewayResponse struct {
	// Success reports whether the gateway accepted the request
	// (is_success == "T").
	Success bool

	// ErrorCode is the gateway error code when Success is false.
	ErrorCode string

	// SignatureVerified reports whether the response carried a signature that
	// verified against the gateway public key. Error responses are not always
	// signed, so callers must check this before trusting response fields.
	SignatureVerified bool

	// Fields is the flat response parameter set as returned by the gateway.
	Fields map[string]string

	// BizContent is the decrypted response payload, nil when the response
	// carried none.
	BizContent []byte
}

// GatewayClient delivers request envelopes to the payment gateway.
type GatewayClient interface {
	// Submit sends a signed request envelope and returns the verified response.
	//
	// A non-nil error means the exchange itself failed (transport error,
	// undecodable response, response signature mismatch). A gateway-side
	// rejection is not an error: it comes back as Success == false with the
	// gateway's error code.
	Submit(ctx context.Context, envelope paypay.Envelope) (*GatewayResponse, error)
}

// NewGatewayClient creates a GatewayClient based on the configuration.
func NewGatewayClient(cfg *config.ServerEnvironment, gatewayKey *crypto.KeyMaterial) (GatewayClient, error) {
	return NewGatewayHTTPClient(cfg.GatewayURL, cfg.GatewayTimeout, gatewayKey)
}

// NewGatewayHTTPClient creates the HTTP gateway transport directly. The
// server wires it through NewGatewayClient; the merchant CLI builds it from
// its own configuration.
func NewGatewayHTTPClient(gatewayURL string, timeout time.Duration, gatewayKey *crypto.KeyMaterial) (*GatewayHTTPClient, error) {
	parsed, err := url.Parse(gatewayURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gateway URL: %w", err)
	}

	if gatewayKey == nil {
		return nil, fmt.Errorf("gateway public key is required to verify gateway responses")
	}

	return &GatewayHTTPClient{
		gatewayURL: parsed.String(),
		gatewayKey: gatewayKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// GatewayHTTPClient submits envelopes as form-encoded POST requests.
//
//	POST {gatewayURL}
//	Content-Type: application/x-www-form-urlencoded
//	Response: flat JSON object with string values, signed by the gateway
type GatewayHTTPClient struct {
	gatewayURL string
	gatewayKey *crypto.KeyMaterial
	httpClient *http.Client
}

// Submit sends a signed request envelope to the gateway.
//
// The envelope fields were signed over their raw values; form encoding
// happens here, at transport time, so the encoding never feeds back into
// the signature.
func (g *GatewayHTTPClient) Submit(ctx context.Context, envelope paypay.Envelope) (*GatewayResponse, error) {
	form := url.Values{}
	for name, value := range envelope.Fields() {
		form.Set(name, value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.gatewayURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, paypay.WrapGatewayError(err, "failed to create gateway request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// #nosec G704 -- gatewayURL comes from server config, not request input.
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, paypay.WrapGatewayError(err, "failed to call gateway")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, paypay.NewGatewayError(
			fmt.Sprintf("gateway returned status %d: %s", resp.StatusCode, string(body)),
		)
	}

	var fields map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		return nil, paypay.WrapGatewayError(err, "failed to decode gateway response")
	}

	return g.verifyResponse(fields)
}

// verifyResponse checks the response signature and decrypts the response
// payload. Fields are only trusted after the signature verifies; unsigned
// error responses are passed through with SignatureVerified == false.
func (g *GatewayHTTPClient) verifyResponse(fields map[string]string) (*GatewayResponse, error) {
	response := &GatewayResponse{
		Fields: fields,
	}

	isSuccess, ok := fields[paypay.ResponseFieldIsSuccess]
	if !ok {
		return nil, paypay.NewGatewayError("gateway response is missing is_success")
	}
	response.Success = isSuccess == paypay.ResponseSuccess
	response.ErrorCode = fields[paypay.ResponseFieldError]

	signature, signed := fields[paypay.FieldSign]
	if signed {
		verified, err := crypto.VerifyParams(crypto.ParameterSet(fields), signature, g.gatewayKey)
		if err != nil {
			return nil, paypay.WrapGatewayError(err, "failed to verify gateway response signature")
		}
		if !verified {
			return nil, paypay.NewGatewayError("gateway response signature does not verify")
		}
		response.SignatureVerified = true
	}

	// A success response without a signature would let anyone on the path
	// fabricate payment results.
	if response.Success && !response.SignatureVerified {
		return nil, paypay.NewGatewayError("gateway success response is not signed")
	}

	if cipherB64 := fields[paypay.FieldBizContent]; cipherB64 != "" {
		bizContent, err := crypto.DecryptWithPublicKey(cipherB64, g.gatewayKey)
		if err != nil {
			return nil, paypay.WrapGatewayError(err, "failed to decrypt gateway response payload")
		}
		response.BizContent = bizContent
	}

	return response, nil
}
