package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/locus/internal/kv"
	"github.com/fakeyudi/locus/internal/settings"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure timer lengths and activity threshold (re-run anytime)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		return runSetup(cmd, store)
	},
}

// runSetup runs the interactive wizard seeded with the stored settings and
// saves the answers.
func runSetup(cmd *cobra.Command, store kv.Store) error {
	current, err := settings.Load(store)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	s, err := settings.RunSetup(cmd.InOrStdin(), cmd.OutOrStdout(), current)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}
	if err := settings.Save(store, s); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "  ✓ Settings saved.")
	fmt.Fprintln(out, "  Setup complete. Run 'locus run' to begin a session.")
	fmt.Fprintln(out)
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
