package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/locus/internal/session"
	"github.com/fakeyudi/locus/internal/settings"
	"github.com/fakeyudi/locus/internal/timeline"
)

// now is replaced in tests.
var now = time.Now

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's tracked focus time and the timer settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(h *session.History, s settings.Settings) error {
			records, err := h.List()
			if err != nil {
				return err
			}

			y, m, d := now().Local().Date()
			today := timeline.New()
			sessions := 0
			for _, r := range records {
				ry, rm, rd := r.StartedAt.Local().Date()
				if ry != y || rm != m || rd != d {
					continue
				}
				sessions++
				// Every session's axis starts at 0; Summarize only sums lengths.
				for _, tr := range r.Timeline.Triples() {
					today.Insert(tr.Window, timeline.TitleRange{Title: tr.Title, Range: tr.Range})
				}
			}
			sum := today.Summarize()

			t := s.Timer
			cmd.Printf("Timer: %d × %s focus, %s breaks\n",
				t.NumberOfSessions, timeline.FormatDuration(t.SessionLengthSeconds), timeline.FormatDuration(t.BreakLengthSeconds))
			cmd.Printf("Minimum activity: %ds\n", s.MinimumActivityDuration)
			cmd.Printf("Sessions today: %d\n", sessions)
			cmd.Printf("Active today: %s\n", timeline.FormatSpan(sum.TotalSeconds))
			for i, w := range sum.Windows {
				if i == 5 {
					break
				}
				cmd.Printf("  %-20s %s\n", w.Window, timeline.FormatSpan(w.Seconds))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
