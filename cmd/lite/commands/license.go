package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/factorlab-lite/internal/license"
	"github.com/wonny/factorlab-lite/pkg/config"
)

// licenseCmd groups the license subcommands
var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "License verification and issuing tools",
}

// licenseMachineCmd prints this machine's device code
var licenseMachineCmd = &cobra.Command{
	Use:   "machine",
	Short: "Print this machine's device code for license requests",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(license.MachineCode())
	},
}

// licenseVerifyCmd verifies the installed license
var licenseVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the installed license file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		publicKeyPath := cfg.PublicKeyPath
		if publicKeyPath == "" {
			publicKeyPath = filepath.Join(cfg.StateDir, "public_key.pem")
		}
		licensePath := cfg.LicensePath
		if licensePath == "" {
			licensePath = filepath.Join(cfg.StateDir, "license.key")
		}

		info, err := license.VerifyFile(licensePath, publicKeyPath, "")
		if err != nil {
			return err
		}
		fmt.Printf("License valid: %s (plan %s, expires %s)\n", info.LicenseID, info.Plan, info.ExpiresAt)
		return nil
	},
}

// licenseKeygenCmd generates an issuing key pair
var licenseKeygenCmd = &cobra.Command{
	Use:   "keygen [dir]",
	Short: "Generate an Ed25519 issuing key pair (operator side)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		privPath, pubPath, err := license.GenerateKeys(dir)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s and %s\n", privPath, pubPath)
		fmt.Println("Keep the private key out of any distributed bundle.")
		return nil
	},
}

var (
	issueLicenseID  string
	issuePlan       string
	issueExpires    string
	issueMachine    string
	issuePrivateKey string
	issueOut        string
)

// licenseIssueCmd signs a license file for a customer machine
var licenseIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a signed license file (operator side)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if issueLicenseID == "" || issueExpires == "" {
			return fmt.Errorf("--id and --expires are required")
		}
		if _, err := time.Parse("2006-01-02", issueExpires); err != nil {
			return fmt.Errorf("--expires must be YYYY-MM-DD: %w", err)
		}

		payload := map[string]interface{}{
			"license_id":   issueLicenseID,
			"plan":         issuePlan,
			"expires_at":   issueExpires,
			"machine_code": issueMachine,
			"product":      license.DefaultProduct,
		}
		if err := license.Issue(payload, issuePrivateKey, issueOut); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", issueOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(licenseCmd)
	licenseCmd.AddCommand(licenseMachineCmd)
	licenseCmd.AddCommand(licenseVerifyCmd)
	licenseCmd.AddCommand(licenseKeygenCmd)
	licenseCmd.AddCommand(licenseIssueCmd)

	licenseIssueCmd.Flags().StringVar(&issueLicenseID, "id", "", "license id")
	licenseIssueCmd.Flags().StringVar(&issuePlan, "plan", "lite", "plan name")
	licenseIssueCmd.Flags().StringVar(&issueExpires, "expires", "", "expiry date (YYYY-MM-DD)")
	licenseIssueCmd.Flags().StringVar(&issueMachine, "machine", "", "bind to a machine code (empty = any machine)")
	licenseIssueCmd.Flags().StringVar(&issuePrivateKey, "key", "private_key.pem", "issuing private key path")
	licenseIssueCmd.Flags().StringVar(&issueOut, "out", "license.key", "output license path")
}
