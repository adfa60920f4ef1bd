package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/locus/internal/report"
	"github.com/fakeyudi/locus/internal/session"
	"github.com/fakeyudi/locus/internal/settings"
	"github.com/fakeyudi/locus/internal/timeline"
	"github.com/fakeyudi/locus/internal/tui"
)

var (
	plainOutput  bool
	exportFormat string
	exportOutput string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse archived sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(h *session.History, s settings.Settings) error {
			records, err := h.List()
			if err != nil {
				return err
			}
			if plainOutput || !isTerminal() {
				printHistory(cmd.OutOrStdout(), records)
				return nil
			}
			return tui.RunHistory(records, s.MinimumActivityDuration, s.Appearance.Accent())
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a session report (id may be a unique prefix)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(h *session.History, s settings.Settings) error {
			rec, err := h.Find(args[0])
			if err != nil {
				return err
			}
			r := &report.MarkdownRenderer{MinTitleSeconds: s.MinimumActivityDuration}
			data, err := r.Render(rec)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		})
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a session report to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(h *session.History, s settings.Settings) error {
			rec, err := h.Find(args[0])
			if err != nil {
				return err
			}

			// --format overrides config.
			format := exportFormat
			if format == "" {
				format = GetConfig().DefaultFormat
			}
			renderer, err := report.RendererFor(format, s.MinimumActivityDuration)
			if err != nil {
				return err
			}
			data, err := renderer.Render(rec)
			if err != nil {
				return fmt.Errorf("render report: %w", err)
			}

			path := exportOutput
			if path == "" {
				path = "locus-" + rec.ShortID() + "-" + rec.StartedAt.Format("20060102-1504") + report.Extension(format)
			}
			if path == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", rec.ShortID(), path)
			return nil
		})
	},
}

var historyImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Add a session from an exported report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", args[0])
			}
			return err
		}
		rec, err := report.Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(args[0]), err)
		}
		return withHistory(func(h *session.History, _ settings.Settings) error {
			if err := h.Add(rec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", rec.ShortID())
			return nil
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a session from the archive",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(h *session.History, _ settings.Settings) error {
			rec, err := h.Find(args[0])
			if err != nil {
				return err
			}
			if err := h.Delete(rec.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", rec.ShortID())
			return nil
		})
	},
}

// withHistory opens the store and hands fn the archive and current settings.
func withHistory(fn func(h *session.History, s settings.Settings) error) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	s, err := settings.Load(store)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	return fn(session.NewHistory(store), s)
}

// printHistory writes a table with one row per record, in archive order.
func printHistory(w io.Writer, records []*session.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No sessions archived yet.")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STARTED", "ACTIVE", "PRODUCTIVITY", "TOP WINDOW")
	for _, r := range records {
		top := "-"
		if sum := r.Timeline.Summarize(); len(sum.Windows) > 0 {
			top = sum.Windows[0].Window
		}
		t.Row(
			r.ShortID(),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			timeline.FormatSpan(r.ActiveSeconds()),
			fmt.Sprintf("%.0f%%", r.Productivity()),
			top,
		)
	}
	fmt.Fprintln(w, t.Render())
}

func init() {
	historyCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	historyExportCmd.Flags().StringVar(&exportFormat, "format", "", "Output format: markdown, json or yaml (overrides config)")
	historyExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output path, or - for stdout")
	historyCmd.AddCommand(historyShowCmd, historyExportCmd, historyImportCmd, historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}
