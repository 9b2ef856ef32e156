package main

import "github.com/iamrosada0/paypay-integration-simplified/internal/cli"

// merchant CLI for the PayPay gateway
func main() {
	cli.Execute()
}
