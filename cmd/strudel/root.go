package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chase3718/strudel-go/internal/config"
)

var (
	cfgFile string
	verbose bool
	logger  = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "strudel",
	Short: "A live-coding pattern language for algorithmic music",
	Long:  "strudel evaluates mini-notation source into a pattern and schedules its events against a clock.",
}

func init() {
	cobra.OnInitialize(initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .strudel.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

// initLogger configures the package-wide slog logger and calls
// slog.SetDefault so the stdlib log package routes through the same
// handler.
func initLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, err
	}
	if verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

// flagOrConfigString returns the flag's value if the user set it
// explicitly, otherwise fallback (typically the loaded config value).
func flagOrConfigString(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}
