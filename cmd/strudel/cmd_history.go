package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chase3718/strudel-go/internal/session"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show evaluations recorded for the current session database",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("history: load config: %w", err)
	}

	store, err := session.Open(cfg.SessionDB)
	if err != nil {
		return fmt.Errorf("history: open %s: %w", cfg.SessionDB, err)
	}
	defer store.Close()

	evals, err := store.History()
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if len(evals) == 0 {
		fmt.Println("(no evaluations recorded)")
		return nil
	}
	for _, e := range evals {
		status := "ok"
		if !e.OK {
			status = "error: " + e.Error
		}
		fmt.Printf("%s  %-6s %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), status, e.Source)
	}
	return nil
}
