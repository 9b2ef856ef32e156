package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iamrosada0/paypay-integration-simplified/internal/paypay"
)

var statusCmd = &cobra.Command{
	Use:   "status <out-trade-no>",
	Short: "Query the state of a trade",
	Long:  `Query the gateway for the current state of a trade (trade_query service)`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTradeLookup(paypay.ServiceTradeQuery, args[0])
	},
}

var closeCmd = &cobra.Command{
	Use:   "close <out-trade-no>",
	Short: "Close an unpaid trade",
	Long:  `Ask the gateway to close an unpaid trade so it can no longer be paid (trade_close service)`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTradeLookup(paypay.ServiceTradeClose, args[0])
	},
}

// runTradeLookup submits a single-order service call (trade_query or
// trade_close); both take a biz_content of just the order number.
func runTradeLookup(service, outTradeNo string) error {
	merchantKey, err := loadMerchantKey()
	if err != nil {
		return err
	}
	gatewayKey, err := loadGatewayKey()
	if err != nil {
		return err
	}

	bizContent, err := json.Marshal(map[string]string{
		paypay.NotifyFieldOutTradeNo: outTradeNo,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal biz_content: %w", err)
	}

	envelope, err := paypay.NewEnvelopeBuilder(cfg.PartnerID, merchantKey).
		WithService(service).
		BuildRaw(bizContent)
	if err != nil {
		return err
	}

	client, err := newGatewayClient(gatewayKey)
	if err != nil {
		return err
	}

	response, err := client.Submit(context.Background(), envelope)
	if err != nil {
		return err
	}
	if !response.Success {
		return fmt.Errorf("gateway rejected the %s call: %s", service, response.ErrorCode)
	}

	fmt.Printf("%s ok\n", service)
	fmt.Printf("  out_trade_no: %s\n", outTradeNo)
	if len(response.BizContent) > 0 {
		printResponsePayload(os.Stdout, response.BizContent)
	}
	return nil
}
