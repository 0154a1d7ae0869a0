package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/statevault/statevault/internal/services/rotation"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Rotate the master password",
	Long: `Passwd re-protects every value in the state under a new master
password. Hashes are recomputed, MACs re-keyed, and encrypted values
decrypted and re-encrypted; hashes computed over other fields are
recomputed last, in dependency order.`,
	RunE: runPasswd,
}

var (
	passwdOld string
	passwdNew string
)

func init() {
	rootCmd.AddCommand(passwdCmd)

	passwdCmd.Flags().StringVar(&passwdOld, "old", "",
		"Current master password (will prompt if not provided)")
	passwdCmd.Flags().StringVar(&passwdNew, "new", "",
		"New master password (will prompt if not provided)")
}

func runPasswd(cmd *cobra.Command, args []string) error {
	st, oldPassword, err := unlockedState(passwdOld)
	if err != nil {
		return err
	}

	newPassword := passwdNew
	if newPassword == "" {
		newPassword, err = promptPassword("New master password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := promptPassword("Confirm new master password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if newPassword != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}
	if newPassword == "" {
		return fmt.Errorf("password must not be empty")
	}

	engine := rotation.NewEngine(stateStore, sess, cfg.Rotation.StepDelay, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		printWarning("\nRotation interrupted, cancelling...")
		cancel()
	}()

	rotated := make(chan struct{})
	var progress []map[string]interface{}
	go func() {
		total := 0
		completed := 0
		for event := range engine.Events() {
			if jsonOutput {
				progress = append(progress, map[string]interface{}{
					"type": event.Type,
					"path": event.Path,
				})
			}
			switch event.Type {
			case rotation.EventInitialized:
				total = event.Steps
				if !jsonOutput {
					printInfo("Rotating %d values...", total)
				}

			case rotation.EventStepCompleted:
				completed++
				if !jsonOutput {
					fmt.Printf("  [%d/%d] %s\n", completed, total, event.Path)
				}

			case rotation.EventCompleted:
				if !jsonOutput {
					printSuccess("Password rotated")
				}
				close(rotated)
				return
			}
		}
	}()

	start := time.Now()
	err = engine.Rotate(ctx, st, oldPassword, newPassword)

	if err == nil {
		// Let the completed event reach the display before reporting.
		select {
		case <-rotated:
		case <-time.After(time.Second):
		}
	}

	if jsonOutput {
		result := map[string]interface{}{
			"success":  err == nil,
			"duration": time.Since(start).String(),
			"events":   progress,
		}
		if err != nil {
			result["error"] = err.Error()
		}
		printJSON(result)
	}

	if err != nil {
		return fmt.Errorf("rotation failed, state not saved: %w", err)
	}
	return nil
}
