// Package cli implements the paypay-client command line tool: a merchant CLI
// for creating trades on the gateway, querying and closing them, and
// verifying captured notifications, without running the full server.
package cli

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iamrosada0/paypay-integration-simplified/internal/config"
	"github.com/iamrosada0/paypay-integration-simplified/internal/crypto"
	"github.com/iamrosada0/paypay-integration-simplified/internal/logger"
	"github.com/iamrosada0/paypay-integration-simplified/internal/services"
	"github.com/iamrosada0/paypay-integration-simplified/internal/version"
)

var (
	cfg       *config.ClientEnvironment
	appLogger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:               "paypay-client",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	Short:             "PayPay merchant CLI",
	Long:              `Merchant CLI for the PayPay gateway: create trades, query and close them, and verify gateway notifications`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.NewClientConfig()
		if err != nil {
			log.Printf("failed to load configuration: %v", err.Error())
			return err
		}

		appLogger = logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
		return nil
	},
}

func Execute() {
	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(payCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(verifyCmd)
}

// loadMerchantKey loads the merchant private key named in the configuration.
func loadMerchantKey() (*crypto.KeyMaterial, error) {
	dir, file := filepath.Split(cfg.MerchantPrivateKeyPath)
	return crypto.LoadKeyFromPEMFile(dir, file, crypto.KeyKindPrivate)
}

// loadGatewayKey loads the gateway public key named in the configuration.
func loadGatewayKey() (*crypto.KeyMaterial, error) {
	dir, file := filepath.Split(cfg.GatewayPublicKeyPath)
	return crypto.LoadKeyFromPEMFile(dir, file, crypto.KeyKindPublic)
}

// newGatewayClient builds the HTTP transport from the client configuration.
func newGatewayClient(gatewayKey *crypto.KeyMaterial) (services.GatewayClient, error) {
	return services.NewGatewayHTTPClient(cfg.GatewayURL, cfg.GatewayTimeout, gatewayKey)
}
