package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/statevault/statevault/internal/models"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new protected state",
	Long: `Init creates an empty state protected by a master password and
persists it signed.`,
	Example: `  statevault init`,
	RunE:    runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false,
		"Overwrite an existing state")
}

func runInit(cmd *cobra.Command, args []string) error {
	if stateStore.Exists() && !initForce {
		return fmt.Errorf("state already exists at %s (use --force to overwrite)", cfg.StatePath())
	}

	password, err := promptPassword("New master password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	confirm, err := promptPassword("Confirm master password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	st, err := models.NewState(password)
	if err != nil {
		return err
	}

	if err := stateStore.Save(st, password); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"path":    cfg.StatePath(),
		})
	} else {
		printSuccess("State created at %s", cfg.StatePath())
	}
	return nil
}
