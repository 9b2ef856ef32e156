package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/Netflix/go-env"
)

// Environment variables with defaults
type ServerEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	LogLevel              string        `env:"LOG_LEVEL,default=info"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`
	MaxRequestBodyBytes   int64         `env:"MAX_REQUEST_BODY_BYTES,default=65536"`

	// database settings
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS,default=4"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS,default=0"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME,default=60m"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME,default=30m"`
	DBConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT,default=5s"`
	DatabasePingTimeout time.Duration `env:"DATABASE_PING_TIMEOUT,default=10s"`

	// payment gateway client settings
	GatewayTimeout time.Duration `env:"GATEWAY_TIMEOUT,default=30s"`

	// Required merchant configuration - must be set by environment variables
	PartnerID              string `env:"PARTNER_ID,required=true"`
	GatewayURL             string `env:"GATEWAY_URL,required=true"`
	MerchantPrivateKeyPath string `env:"MERCHANT_PRIVATE_KEY_PATH,required=true"`
	GatewayPublicKeyPath   string `env:"GATEWAY_PUBLIC_KEY_PATH,required=true"`
	DatabaseURL            string `env:"DATABASE_URL,required=true"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

// NewServerConfig loads environment variables and returns a ServerEnvironment struct that contains the values
func NewServerConfig() (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil

}

// validateConfig checks for required env variables
func validateConfig(cfg *ServerEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}

	// Validate database pool configuration
	if cfg.DBMaxConnections < 1 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1")
	}
	if cfg.DBMinConnections < 0 {
		return fmt.Errorf("DB_MIN_CONNECTIONS must be 0 or greater")
	}
	if cfg.DBMinConnections > cfg.DBMaxConnections {
		return fmt.Errorf("DB_MIN_CONNECTIONS (%d) cannot be greater than DB_MAX_CONNECTIONS (%d)",
			cfg.DBMinConnections, cfg.DBMaxConnections)
	}

	if cfg.MaxRequestBodyBytes < 1 {
		return fmt.Errorf("MAX_REQUEST_BODY_BYTES must be at least 1")
	}

	if err := validateGatewayURL(cfg.GatewayURL); err != nil {
		return err
	}

	return nil
}

func validateGatewayURL(rawURL string) error {
	gatewayURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid GATEWAY_URL: %w", err)
	}
	if gatewayURL.Scheme != "http" && gatewayURL.Scheme != "https" {
		return fmt.Errorf("GATEWAY_URL must be an http or https URL, got: %s", rawURL)
	}
	return nil
}

// ClientEnvironment holds the configuration for the merchant CLI. The CLI
// talks to the gateway directly and needs no database or HTTP server
// settings.
type ClientEnvironment struct {
	Environment    string        `env:"ENVIRONMENT,default=dev"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`
	GatewayTimeout time.Duration `env:"GATEWAY_TIMEOUT,default=30s"`

	// Required merchant configuration - must be set by environment variables
	PartnerID              string `env:"PARTNER_ID,required=true"`
	GatewayURL             string `env:"GATEWAY_URL,required=true"`
	MerchantPrivateKeyPath string `env:"MERCHANT_PRIVATE_KEY_PATH,required=true"`
	GatewayPublicKeyPath   string `env:"GATEWAY_PUBLIC_KEY_PATH,required=true"`
}

// NewClientConfig loads the environment variables the merchant CLI needs.
func NewClientConfig() (*ClientEnvironment, error) {
	var cfg ClientEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if !validEnvs[cfg.Environment] {
		return nil, fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}
	if err := validateGatewayURL(cfg.GatewayURL); err != nil {
		return nil, err
	}
	return &cfg, nil
}
