package services

// services provides external service integrations for the payment server
// (gateway transport etc.)

import (
	"github.com/iamrosada0/paypay-integration-simplified/internal/config"
	"github.com/iamrosada0/paypay-integration-simplified/internal/crypto"
)

// Services aggregates all external service integrations used by the payment server.
type Services struct {
	Gateway GatewayClient
	// Future: settlement file download, reconciliation reports
}

// NewServices creates service implementations based on configuration.
// This is the single entry point for initializing all external service integrations.
func NewServices(cfg *config.ServerEnvironment, gatewayKey *crypto.KeyMaterial) (*Services, error) {

	s := &Services{}
	if gateway, err := NewGatewayClient(cfg, gatewayKey); err != nil {
		return nil, err
	} else {
		s.Gateway = gateway
	}
	return s, nil
}
