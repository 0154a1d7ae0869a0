package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/statevault/statevault/internal/config"
	"github.com/statevault/statevault/internal/events"
	"github.com/statevault/statevault/internal/models"
	"github.com/statevault/statevault/internal/services/session"
	"github.com/statevault/statevault/internal/state"
)

var rootCmd = &cobra.Command{
	Use:   "statevault",
	Short: "Manage a password-protected application state",
	Long: `Statevault keeps application secrets in a signed, password-protected
state file. Values are individually hashed, MACed, or encrypted, and
the whole state carries an integrity signature that is checked on
every load.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return bootstrap()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown()
	},
}

var (
	configFile string
	jsonOutput bool
	verbose    bool

	cfg        *config.Config
	logger     *events.Logger
	stateStore state.Store
	sess       *session.Session
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"Config file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		printError("Error: %v", err)
		return err
	}
	return nil
}

func bootstrap() error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.Log.Level = "debug"
	}
	if !cfg.Log.Color {
		color.NoColor = true
	}

	logger, err = events.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		stateStore, err = state.NewSQLiteStore(cfg.StatePath(), logger)
	default:
		stateStore, err = state.NewJSONStore(cfg.StatePath(), cfg.Storage.SaveDelay, logger)
	}
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}

	sess = session.New(logger)
	return nil
}

func teardown() error {
	if stateStore != nil {
		return stateStore.Close()
	}
	return nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", err
	}
	return string(password), nil
}

// unlockedState loads the state after prompting for (or accepting) the
// master password, and unlocks the session with it.
func unlockedState(password string) (*models.State, string, error) {
	if password == "" {
		var err error
		password, err = promptPassword("Master password: ")
		if err != nil {
			return nil, "", fmt.Errorf("read password: %w", err)
		}
	}

	st, err := stateStore.Load(password)
	if err != nil {
		return nil, "", err
	}
	if err := sess.Unlock(st, password); err != nil {
		return nil, "", err
	}
	return st, password, nil
}
