package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/locus/internal/config"
	"github.com/fakeyudi/locus/internal/focus"
	"github.com/fakeyudi/locus/internal/kv"
	"github.com/fakeyudi/locus/internal/logging"
	"github.com/fakeyudi/locus/internal/pomodoro"
	"github.com/fakeyudi/locus/internal/session"
	"github.com/fakeyudi/locus/internal/settings"
	"github.com/fakeyudi/locus/internal/tui"
)

var (
	runNoTrack   bool
	runAutostart bool
)

var runCmd = &cobra.Command{
	Use:     "run",
	Aliases: []string{"start"},
	Short:   "Open the live session screen",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isTerminal() {
			return errors.New("run needs an interactive terminal")
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		s, err := settings.Load(store)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		// The TUI owns the terminal from here on.
		if f, err := logging.ToFile(logging.DefaultFile()); err == nil {
			defer f.Close()
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		orch := newOrchestrator(ctx, store, s, newObserver(GetConfig().Observer, runNoTrack))
		go func() {
			if err := orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error().Err(err).Msg("session loop stopped")
			}
		}()
		if runAutostart {
			if err := orch.Start(); err != nil {
				return err
			}
		}

		uiErr := tui.RunLive(orch, s.Appearance.Accent())
		cancel()
		<-orch.Done()
		return uiErr
	},
}

// newObserver builds the focus probe from config. With noTrack the probe
// never reports a window, so time runs but nothing is attributed.
func newObserver(c config.Observer, noTrack bool) *focus.CommandObserver {
	obs := &focus.CommandObserver{Interval: c.PollInterval}
	switch {
	case noTrack:
		obs.Command = []string{"no-track"}
		obs.Runner = func(context.Context, []string) (string, error) { return "", nil }
	case c.Command != "":
		obs.Command = focus.ShellProbe(c.Command)
	}
	return obs
}

// newOrchestrator wires the focus stream, the session archive and settings
// hot-reload into a session loop. Run has not been called on the result.
func newOrchestrator(ctx context.Context, store kv.Store, s settings.Settings, obs focus.Observer) *pomodoro.Orchestrator {
	opts := pomodoro.Options{
		Settings: s,
		Focus:    focus.NewStream(obs),
		History:  session.NewHistory(store),
	}
	if updates, err := settings.Watch(ctx, store); err != nil {
		logging.Warn().Err(err).Msg("settings hot-reload disabled")
	} else {
		opts.SettingsUpdates = updates
	}
	return pomodoro.New(opts)
}

func init() {
	runCmd.Flags().BoolVar(&runNoTrack, "no-track", false, "run the timer without watching the focused window")
	runCmd.Flags().BoolVar(&runAutostart, "autostart", false, "start the first focus session immediately")
	rootCmd.AddCommand(runCmd)
}
