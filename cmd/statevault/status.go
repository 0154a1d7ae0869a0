package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the protected state summary",
	Long: `Status unlocks the state and reports what it holds. Loading verifies
both the master password and the integrity signature, so a clean status
also means the state has not been tampered with.`,
	RunE: runStatus,
}

var statusPassword string

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusPassword, "password", "p", "",
		"Master password (will prompt if not provided)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	if !stateStore.Exists() {
		if jsonOutput {
			printJSON(map[string]interface{}{"exists": false})
			return nil
		}
		printWarning("No state found at %s (run 'statevault init')", cfg.StatePath())
		return nil
	}

	st, _, err := unlockedState(statusPassword)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"exists":     true,
			"path":       cfg.StatePath(),
			"backend":    cfg.Storage.Backend,
			"values":     st.CountInitialized(),
			"providers":  len(st.Providers),
			"two_factor": st.Settings.Security.TwoFactor.Enabled,
		})
		return nil
	}

	printSuccess("State verified")
	fmt.Printf("  Path:             %s (%s backend)\n", cfg.StatePath(), cfg.Storage.Backend)
	fmt.Printf("  Protected values: %d\n", st.CountInitialized())
	fmt.Printf("  Providers:        %d\n", len(st.Providers))
	for i, p := range st.Providers {
		fmt.Printf("    %d. %s (%s)\n", i, p.Owner, p.Kind)
	}
	fmt.Printf("  Two-factor:       %v\n", st.Settings.Security.TwoFactor.Enabled)
	return nil
}
