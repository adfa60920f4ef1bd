package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/locus/internal/config"
	"github.com/fakeyudi/locus/internal/kv"
	"github.com/fakeyudi/locus/internal/settings"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration and timer settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration and the stored settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		data, err := yaml.Marshal(GetConfig())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "# config")
		out.Write(data)

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		s, err := settings.Load(store)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "\n# settings")
		for _, name := range settings.Names() {
			v, _ := s.Get(name)
			fmt.Fprintf(out, "%s: %s\n", name, v)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print one stored setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		s, err := settings.Load(store)
		if err != nil {
			return err
		}
		v, err := s.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Change a stored setting; a running session picks it up",
	Long: "Change a stored setting. Names: " + strings.Join(settings.Names(), ", ") + ".\n" +
		"Lengths accept minutes (25) or durations (1h30m); min-activity accepts seconds (5) or durations (10s).",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		s, err := settings.Load(store)
		if err != nil {
			return err
		}
		if err := s.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := settings.Save(store, s); err != nil {
			return err
		}
		v, _ := s.Get(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], v)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print where configuration and data live",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		dir, err := config.GlobalDir()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "config: %s\n", filepath.Join(dir, "config.yaml"))

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if fb, ok := store.(kv.FileBacked); ok {
			fmt.Fprintf(out, "store:  %s\n", fb.Path())
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}
