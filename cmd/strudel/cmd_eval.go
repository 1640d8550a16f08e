package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/chase3718/strudel-go/pkg/mini"
	"github.com/chase3718/strudel-go/pkg/tspan"
)

var evalCmd = &cobra.Command{
	Use:   "eval <mini-notation>",
	Short: "Evaluate a mini-notation expression and print its events (one cycle unless --cycles is set)",
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

func init() {
	evalCmd.Flags().Int("cycles", 1, "number of cycles to query, starting at cycle 0")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	cycles, _ := cmd.Flags().GetInt("cycles")
	if cycles < 1 {
		cycles = 1
	}

	source := args[0]
	p, ctrl, d := mini.EvaluateDiag(source)
	if d != nil {
		return fmt.Errorf("%s", d.Error())
	}
	if ctrl != nil {
		fmt.Printf("control command: %s\n", describeCommand(*ctrl))
		return nil
	}

	haps := p.Query(tspan.FromInts(0, int64(cycles)))
	if len(haps) == 0 {
		fmt.Println("(no events)")
		return nil
	}
	for _, h := range haps {
		extent := h.WholeOrPart()
		fmt.Printf("%-16s %-16s %s\n", extent.Begin, extent.End, h.Value.SoundOrString())
	}
	fmt.Printf("%s events\n", humanize.Comma(int64(len(haps))))
	return nil
}

func describeCommand(cmd mini.Command) string {
	switch cmd.Kind {
	case mini.CmdHush:
		return "hush"
	case mini.CmdSetCPS:
		return fmt.Sprintf("setcps %g", cmd.Value)
	case mini.CmdSetBPM:
		return fmt.Sprintf("setbpm %g", cmd.Value)
	default:
		return "?"
	}
}
