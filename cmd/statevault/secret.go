package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/statevault/statevault/internal/crypto"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Inspect protected values",
}

var secretGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Reveal the plaintext of a protected value",
	Long: `Get recovers the plaintext behind a field path such as
"providers.0.access_token". Hash-only values hold no recoverable
plaintext and are reported as such.`,
	Example: `  statevault secret get providers.0.access_token`,
	Args:    cobra.ExactArgs(1),
	RunE:    runSecretGet,
}

var secretListCmd = &cobra.Command{
	Use:   "list",
	Short: "List protected value paths and their modes",
	RunE:  runSecretList,
}

var secretPassword string

func init() {
	rootCmd.AddCommand(secretCmd)
	secretCmd.AddCommand(secretGetCmd)
	secretCmd.AddCommand(secretListCmd)

	secretCmd.PersistentFlags().StringVarP(&secretPassword, "password", "p", "",
		"Master password (will prompt if not provided)")
}

func runSecretGet(cmd *cobra.Command, args []string) error {
	path := args[0]

	st, password, err := unlockedState(secretPassword)
	if err != nil {
		return err
	}

	value, err := st.ValueAt(path)
	if err != nil {
		return err
	}

	plaintext, err := value.RawDataString([]byte(password))
	if errors.Is(err, crypto.ErrNoRawData) {
		return fmt.Errorf("%s holds a digest, not recoverable plaintext", path)
	}
	if err != nil {
		return fmt.Errorf("recover %s: %w", path, err)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"path":  path,
			"value": plaintext,
		})
	} else {
		fmt.Println(plaintext)
	}
	return nil
}

func runSecretList(cmd *cobra.Command, args []string) error {
	st, _, err := unlockedState(secretPassword)
	if err != nil {
		return err
	}

	type entry struct {
		Path string `json:"path"`
		Mode string `json:"mode"`
	}
	var entries []entry
	_ = st.Visit(func(path string, v *crypto.Value) error {
		entries = append(entries, entry{Path: path, Mode: fmt.Sprintf("%#08b", uint8(v.Mode()))})
		return nil
	})

	if jsonOutput {
		printJSON(entries)
		return nil
	}
	for _, e := range entries {
		fmt.Printf("  %-55s %s\n", e.Path, e.Mode)
	}
	return nil
}
