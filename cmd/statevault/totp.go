package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/statevault/statevault/internal/services/totp"
)

var totpCmd = &cobra.Command{
	Use:   "totp",
	Short: "Manage two-factor authentication",
}

var totpEnrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enable two-factor authentication",
	Long: `Enroll generates a shared secret, stores it encrypted in the state,
and prints the otpauth URL to load into an authenticator app.`,
	Example: `  statevault totp enroll --account user@example.com`,
	RunE:    runTotpEnroll,
}

var totpVerifyCmd = &cobra.Command{
	Use:   "verify <code>",
	Short: "Check a six-digit code against the enrolled secret",
	Args:  cobra.ExactArgs(1),
	RunE:  runTotpVerify,
}

var totpDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable two-factor authentication",
	RunE:  runTotpDisable,
}

var (
	totpAccount  string
	totpPassword string
)

func init() {
	rootCmd.AddCommand(totpCmd)
	totpCmd.AddCommand(totpEnrollCmd)
	totpCmd.AddCommand(totpVerifyCmd)
	totpCmd.AddCommand(totpDisableCmd)

	totpCmd.PersistentFlags().StringVarP(&totpPassword, "password", "p", "",
		"Master password (will prompt if not provided)")

	totpEnrollCmd.Flags().StringVarP(&totpAccount, "account", "a", "",
		"Account name for the authenticator entry (required)")
	_ = totpEnrollCmd.MarkFlagRequired("account")
}

func runTotpEnroll(cmd *cobra.Command, args []string) error {
	st, password, err := unlockedState(totpPassword)
	if err != nil {
		return err
	}

	service := totp.NewService(logger)
	url, err := service.Enroll(st, []byte(password), totpAccount)
	if err != nil {
		return err
	}

	if err := stateStore.Save(st, password); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"url":     url,
		})
	} else {
		printSuccess("Two-factor enabled")
		printInfo("Add to your authenticator: %s", url)
	}
	return nil
}

func runTotpVerify(cmd *cobra.Command, args []string) error {
	st, password, err := unlockedState(totpPassword)
	if err != nil {
		return err
	}

	service := totp.NewService(logger)
	ok, err := service.Verify(st, []byte(password), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"valid": ok})
		return nil
	}
	if !ok {
		printError("Code rejected")
		return fmt.Errorf("invalid code")
	}
	printSuccess("Code accepted")
	return nil
}

func runTotpDisable(cmd *cobra.Command, args []string) error {
	st, password, err := unlockedState(totpPassword)
	if err != nil {
		return err
	}

	service := totp.NewService(logger)
	service.Disable(st)

	if err := stateStore.Save(st, password); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	printSuccess("Two-factor disabled")
	return nil
}
