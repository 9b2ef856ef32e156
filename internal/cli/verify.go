package cli

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iamrosada0/paypay-integration-simplified/internal/paypay"
)

var notificationFile string

// verifyCmd checks a captured gateway notification against the gateway
// public key. Useful when debugging rejected callbacks: replay the exact
// body the gateway sent and see whether (and why) verification fails.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a captured gateway notification",
	Long: `Verify the signature on a captured gateway notification.

The input file holds the notification exactly as the gateway delivered it:
one form-encoded body (name=value&name=value...).

Example:
  paypay-client verify --file ./notification.txt

Exits non-zero when the notification does not verify.`,
	RunE:         runVerify,
	SilenceUsage: true,
}

func init() {
	verifyCmd.Flags().StringVar(&notificationFile, "file", "", "Path to file holding the form-encoded notification body (required)")
	cobra.CheckErr(verifyCmd.MarkFlagRequired("file"))
}

func runVerify(cmd *cobra.Command, args []string) error {
	body, err := os.ReadFile(notificationFile) // #nosec G304 -- path comes from the operator's own flag
	if err != nil {
		return fmt.Errorf("failed to read notification file: %w", err)
	}

	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return fmt.Errorf("notification body is not form-encoded: %w", err)
	}

	gatewayKey, err := loadGatewayKey()
	if err != nil {
		return err
	}

	result, err := paypay.VerifyNotification(paypay.NotificationVerificationInput{
		Fields:     paypay.ParseNotificationForm(values),
		GatewayKey: gatewayKey,
	})
	if err != nil {
		return err
	}

	if !result.Verified {
		return fmt.Errorf("notification rejected: %s", result.RejectReason)
	}

	fmt.Println("verified")
	fmt.Printf("  out_trade_no: %s\n", result.OutTradeNo)
	fmt.Printf("  notify_id:    %s\n", result.NotifyID)
	fmt.Printf("  trade_no:     %s\n", result.TradeNo)
	fmt.Printf("  trade_status: %s\n", result.TradeStatus)
	return nil
}
