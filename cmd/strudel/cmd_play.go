package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chase3718/strudel-go/internal/session"
	"github.com/chase3718/strudel-go/pkg/mini"
	"github.com/chase3718/strudel-go/pkg/scheduler"
)

var playCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Evaluate a mini-notation file once and play it until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlay,
}

func init() {
	playCmd.Flags().String("sink", "", "output sink: log, midi, serial (default from config)")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("play: load config: %w", err)
	}
	cfg.Sink = flagOrConfigString(cmd, "sink", cfg.Sink)

	store := openSession(cfg)
	if store != nil {
		defer store.Close()
	}

	sched, _ := buildScheduler(cfg, store)
	if err := playOnce(path, sched, store); err != nil {
		return err
	}

	runStop := make(chan struct{})
	go sched.Run(runStop)
	defer close(runStop)

	logger.Info("playing", "file", path, "cps", cfg.CPS, "sink", cfg.Sink)
	waitForInterrupt()
	sched.Stop()
	return nil
}

// playOnce evaluates path exactly once and plays the resulting pattern.
// The evaluation outcome is recorded to store so `strudel history` can
// show it later.
func playOnce(path string, sched *scheduler.Scheduler, store *session.Store) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("play: read %s: %w", path, err)
	}
	source := string(data)
	p, cmd, evalErr := mini.Evaluate(source)
	if store != nil {
		if recErr := store.RecordEvaluation(source, evalErr); recErr != nil {
			logger.Warn("session: failed to record evaluation", "err", recErr)
		}
	}
	if evalErr != nil {
		return fmt.Errorf("play: %w", evalErr)
	}
	if cmd != nil {
		return fmt.Errorf("play: %s is a control command, not a pattern", path)
	}
	sched.Play(p)
	return nil
}
