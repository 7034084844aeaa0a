package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xtding233/gacha-planner/internal/sim"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate a plan's allocation and print goal rates and scenarios",
	Long: `Replays the plan's banners many times, threading pity and guarantees from goal to
goal and banner to banner, and reports per-goal success rates plus the most common
per-banner outcome patterns (O obtained, L lost the split, X nothing, - skipped).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPlan(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		top, _ := cmd.Flags().GetInt("top")
		quiet, _ := cmd.Flags().GetBool("quiet")

		opts := sim.OptionsFrom(p.Simulation)
		opts.Logger = logger
		if !quiet && !asJSON {
			errOut := cmd.ErrOrStderr()
			opts.Progress = func(pct int) {
				fmt.Fprintf(errOut, "\rsimulating... %3d%%", pct)
				if pct >= 100 {
					fmt.Fprintln(errOut)
				}
			}
		}
		res, err := sim.New(opts).Run(cmd.Context(), sim.RequestFrom(p, nil))
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}
		printResult(cmd.OutOrStdout(), res, top)
		return nil
	},
}

func printResult(w io.Writer, res *sim.Result, top int) {
	fmt.Fprintf(w, "repetitions: %d  seed: %d\n\n", res.Repetitions, res.Seed)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BANNER\tKIND\tITEM\tPULLS\tSUCCESS\tLOST\tLEVELS\tMEAN PULLS\tP90")
	for _, g := range res.Goals {
		levels := make([]string, len(g.LevelRates))
		for i, r := range g.LevelRates {
			levels[i] = fmt.Sprintf("%.1f%%", r*100)
		}
		item := g.Item
		if g.Secondary != "" {
			item += fmt.Sprintf(" (+%s %.1f%%)", g.Secondary, g.SecondaryRate*100)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.2f%%\t%.2f%%\t%s\t%.1f\t%.0f\n",
			g.Banner, g.Kind, item, g.Budget, g.SuccessRate*100, g.LossRate*100,
			strings.Join(levels, " "), g.PullsUsed.Mean, g.PullsUsed.P90)
	}
	tw.Flush()

	if top <= 0 || len(res.Scenarios) == 0 {
		return
	}
	fmt.Fprintln(w, "\nscenarios:")
	for i, s := range res.Scenarios {
		if i == top {
			break
		}
		fmt.Fprintf(w, "  %-20s %6.2f%%  (%d)\n", s.Pattern, s.Frequency*100, s.Count)
	}
}

func init() {
	addPlanFlags(simulateCmd)
	simulateCmd.Flags().Int("top", 5, "Scenarios to print")
	simulateCmd.Flags().Bool("quiet", false, "Hide the progress line")
}
