// Command strudel is the CLI entry point for strudel-go: it turns
// mini-notation source into scheduled audio/MIDI/serial events. Layout
// is a single flat main package, organized as a cobra command tree with
// subcommands instead of hand-rolled flag parsing.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
