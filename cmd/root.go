package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/locus/internal/config"
	"github.com/fakeyudi/locus/internal/kv"
	"github.com/fakeyudi/locus/internal/logging"
	"github.com/fakeyudi/locus/internal/settings"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// isTerminal reports whether stdin and stdout are an interactive terminal.
// Tests replace it.
var isTerminal = func() bool {
	return term.IsTerminal(os.Stdin.Fd()) && term.IsTerminal(os.Stdout.Fd())
}

var rootCmd = &cobra.Command{
	Use:           "locus",
	Short:         "Pomodoro timer that records which windows you actually worked in",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = c
		logging.SetLevel(cfg.LogLevel)

		// Skip the first-run check for setup itself.
		if cmd.Name() == "setup" {
			return nil
		}
		return firstRun(cmd)
	},
}

// firstRun launches the setup wizard when no timer settings were ever
// saved. Non-interactive runs (tests, pipes) continue with defaults.
func firstRun(cmd *cobra.Command) error {
	if !isTerminal() {
		return nil
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	_, ok, err := store.Get(settings.KeyTimer)
	if err != nil || ok {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), "  Welcome to locus! Looks like this is your first time.")
	return runSetup(cmd, store)
}

// openStore opens the configured key-value store. The caller closes it.
func openStore() (kv.Store, error) {
	dir := cfg.DataDir
	if dir == "" {
		d, err := kv.DataDir()
		if err != nil {
			return nil, fmt.Errorf("locating data directory: %w", err)
		}
		dir = d
	}
	store, err := kv.Open(cfg.Store, dir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return store, nil
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "locus:", err)
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}
