// keygen is a CLI tool for generating the RSA PEM key pairs used by the
// gateway protocol (merchant signing/encryption key, and gateway keys when
// running the mock gateway locally).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	paypaycrypto "github.com/iamrosada0/paypay-integration-simplified/internal/crypto"
	"github.com/iamrosada0/paypay-integration-simplified/internal/paypay"
	"github.com/iamrosada0/paypay-integration-simplified/internal/version"
)

// file naming convention - name.public.pem and name.private.pem
const (
	publicKeyFileNameFormat  = "%s.public.pem"
	privateKeyFileNameFormat = "%s.private.pem"
)

var (
	name      string
	outputDir string
	rsaSize   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "keygen",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "RSA PEM key generator for gateway integrations",
		Long:              "Generate RSA key pairs in PEM format (PKCS#8 private, SubjectPublicKeyInfo public) for merchant onboarding and local testing",
	}

	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new key pair",
		Long:  "Generate a new RSA key pair in PEM format. The gateway protocol requires 1024-bit keys; that is the default.",
		RunE:  runGenerate,
	}

	generateCmd.Flags().StringVarP(&name, "name", "n", "", "Key name, used as the file name prefix (e.g. merchant) [required]")
	generateCmd.Flags().StringVarP(&outputDir, "outputdir", "o", "", "Output directory for generated keys [required]")
	generateCmd.Flags().IntVarP(&rsaSize, "size", "s", paypay.ProtocolKeyBits, "RSA key size in bits")
	generateCmd.MarkFlagRequired("name")
	generateCmd.MarkFlagRequired("outputdir")

	rootCmd.AddCommand(generateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	// make the directory if it doesn't exist
	if _, err := os.Stat(outputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	fmt.Printf("Generating %d-bit RSA key pair: %s\n", rsaSize, name)

	privateKey, err := paypaycrypto.GenerateRSAKeyPair(rsaSize)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key: %w", err)
	}

	if rsaSize != paypay.ProtocolKeyBits {
		fmt.Printf("warning: the gateway protocol requires %d-bit keys; a %d-bit key will be rejected at server startup\n",
			paypay.ProtocolKeyBits, rsaSize)
	}

	keyID, err := paypaycrypto.GenerateKeyIDFromRSAKey(&privateKey.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to generate key ID: %w", err)
	}

	privateFile := fmt.Sprintf(privateKeyFileNameFormat, name)
	if err := paypaycrypto.SavePrivateKeyToPEMFile(privateKey, outputDir, privateFile); err != nil {
		return fmt.Errorf("failed to save private key: %w", err)
	}
	fmt.Printf("✓ Private PEM: %s/%s (kid: %s)\n", outputDir, privateFile, keyID)

	publicFile := fmt.Sprintf(publicKeyFileNameFormat, name)
	if err := paypaycrypto.SavePublicKeyToPEMFile(&privateKey.PublicKey, outputDir, publicFile); err != nil {
		return fmt.Errorf("failed to save public key: %w", err)
	}
	fmt.Printf("✓ Public PEM:  %s/%s (kid: %s)\n", outputDir, publicFile, keyID)

	fmt.Println("Keep the private key secure - it signs every envelope this merchant sends.")
	return nil
}
