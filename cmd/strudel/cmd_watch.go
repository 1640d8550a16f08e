package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chase3718/strudel-go/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Watch a mini-notation file and re-evaluate it on every save",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().String("sink", "", "output sink: log, midi, serial (default from config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("watch: load config: %w", err)
	}
	cfg.Sink = flagOrConfigString(cmd, "sink", cfg.Sink)

	store := openSession(cfg)
	if store != nil {
		defer store.Close()
	}

	sched, diags := buildScheduler(cfg, store)

	w := watch.New(path, sched, diags, logger)
	watchStop := make(chan struct{})
	watchErr := make(chan error, 1)
	go func() { watchErr <- w.Run(watchStop) }()

	runStop := make(chan struct{})
	go sched.Run(runStop)

	logger.Info("watching", "file", path, "cps", cfg.CPS, "sink", cfg.Sink)
	waitForInterrupt()

	close(watchStop)
	close(runStop)
	sched.Stop()
	if err := <-watchErr; err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}
