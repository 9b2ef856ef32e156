package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iamrosada0/paypay-integration-simplified/internal/paypay"
)

var (
	payQuantity   int64
	payOutTradeNo string
	payPayerIP    string
	payPhoneNum   string
)

var payCmd = &cobra.Command{
	Use:   "pay <subject> <price>",
	Short: "Create a trade on the gateway",
	Long: `Create an instant trade on the gateway.

The trade details are encrypted with the merchant private key and submitted
as a signed envelope. With --phone the gateway pushes a Multicaixa Express
payment prompt to that subscriber instead of a cashier checkout.

Example:
  paypay-client pay "Monthly subscription" 1500.00 --phone 923000000`,
	Args: cobra.ExactArgs(2),
	RunE: runPay,
}

func init() {
	payCmd.Flags().Int64Var(&payQuantity, "quantity", 1, "Number of units")
	payCmd.Flags().StringVar(&payOutTradeNo, "out-trade-no", "", "Merchant order number (generated when omitted)")
	payCmd.Flags().StringVar(&payPayerIP, "payer-ip", "127.0.0.1", "Payer IP address reported to the gateway")
	payCmd.Flags().StringVar(&payPhoneNum, "phone", "", "Subscriber number for a Multicaixa Express push payment")
}

func runPay(cmd *cobra.Command, args []string) error {
	subject := args[0]

	price, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("price is not a valid decimal: %w", err)
	}

	merchantKey, err := loadMerchantKey()
	if err != nil {
		return err
	}
	gatewayKey, err := loadGatewayKey()
	if err != nil {
		return err
	}

	outTradeNo := payOutTradeNo
	if outTradeNo == "" {
		outTradeNo = generatedOutTradeNo()
	}
	totalAmount := price.Mul(decimal.NewFromInt(payQuantity))

	content := &paypay.BizContent{
		CashierType:     paypay.CashierTypeSDK,
		PayerIP:         payPayerIP,
		SaleProductCode: paypay.SaleProductCodeCashierWeb,
		TimeoutExpress:  paypay.DefaultTimeoutExpress,
		TradeInfo: paypay.TradeInfo{
			Currency:          paypay.CurrencyAOA,
			OutTradeNo:        outTradeNo,
			PayeeIdentity:     cfg.PartnerID,
			PayeeIdentityType: paypay.PayeeIdentityTypePartnerID,
			Price:             price,
			Quantity:          payQuantity,
			Subject:           subject,
			TotalAmount:       totalAmount,
		},
	}
	if payPhoneNum != "" {
		content.PayMethod = &paypay.PayMethod{
			PayProductCode: paypay.PayProductCodeMulticaixaExpress,
			Amount:         totalAmount,
			BankCode:       paypay.BankCodeMulticaixa,
			PhoneNum:       payPhoneNum,
		}
	}

	envelope, err := paypay.NewEnvelopeBuilder(cfg.PartnerID, merchantKey).Build(content)
	if err != nil {
		return err
	}

	appLogger.Info("submitting trade",
		slog.String("out_trade_no", outTradeNo),
		slog.String("request_no", envelope.RequestNo()),
		slog.String("total_amount", totalAmount.StringFixed(2)),
	)

	client, err := newGatewayClient(gatewayKey)
	if err != nil {
		return err
	}

	response, err := client.Submit(context.Background(), envelope)
	if err != nil {
		return err
	}
	if !response.Success {
		return fmt.Errorf("gateway rejected the trade: %s", response.ErrorCode)
	}

	fmt.Printf("trade created\n")
	fmt.Printf("  out_trade_no: %s\n", outTradeNo)
	fmt.Printf("  request_no:   %s\n", envelope.RequestNo())
	fmt.Printf("  total_amount: %s %s\n", totalAmount.StringFixed(2), paypay.CurrencyAOA)
	if len(response.BizContent) > 0 {
		printResponsePayload(os.Stdout, response.BizContent)
	}
	return nil
}

// generatedOutTradeNo creates an order number the same way the server does
// when the API caller omits one.
func generatedOutTradeNo() string {
	return "ORD-" + uuid.NewString()
}

// printResponsePayload pretty-prints the decrypted gateway response payload,
// fields in name order.
func printResponsePayload(w io.Writer, payload []byte) {
	var pretty map[string]any
	if err := json.Unmarshal(payload, &pretty); err != nil {
		fmt.Fprintf(w, "  response:     %s\n", payload)
		return
	}
	names := make([]string, 0, len(pretty))
	for name := range pretty {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %v\n", name, pretty[name])
	}
}
