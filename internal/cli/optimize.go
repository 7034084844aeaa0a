package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/xtding233/gacha-planner/internal/optimize"
	"github.com/xtding233/gacha-planner/internal/server"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search pull allocations that meet the plan's prioritized goals",
	Long: `Runs both allocation strategies over the plan's goals and budget and prints each
report. Local search perturbs a priority-seeded allocation and keeps improvements;
proportional adjustment nudges each goal toward its target rate. Neither report is
preferred; compare their scores.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPlan(cmd)
		if err != nil {
			return err
		}
		f := cmd.Flags()
		names, _ := f.GetStringSlice("strategy")
		iterations, _ := f.GetInt("iterations")
		timeout, _ := f.GetDuration("timeout")
		asJSON, _ := f.GetBool("json")

		strategies, err := server.Strategies(names, iterations)
		if err != nil {
			return err
		}
		prob := optimize.ProblemFrom(p)
		prob.Logger = logger
		if f.Changed("repetitions") {
			prob.Repetitions = p.Simulation.Repetitions
		}

		ctx := cmd.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		reports, err := optimize.RunAll(ctx, prob, strategies...)
		if err != nil {
			return err
		}
		if asJSON {
			for i := range reports {
				reports[i].Best.Result = nil
				for j := range reports[i].Ranked {
					reports[i].Ranked[j].Result = nil
				}
			}
			return printJSON(cmd.OutOrStdout(), reports)
		}
		for _, r := range reports {
			printReport(cmd.OutOrStdout(), r)
		}
		return nil
	},
}

func printReport(w io.Writer, r optimize.Report) {
	state := "iteration cap"
	switch {
	case r.Converged:
		state = "converged"
	case r.Stopped:
		state = "stopped"
	}
	fmt.Fprintf(w, "== %s: score %.2f (%d iterations, %s, %s)\n",
		r.Strategy, r.Best.Score, r.Iterations, state, r.Elapsed.Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BANNER\tITEM\tPRIORITY\tPULLS\tTARGET\tACHIEVED")
	for _, g := range r.Best.Goals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.0f%%\t%.1f%%\n",
			g.Banner, g.Item, g.Priority, g.Pulls, g.Target*100, g.Achieved*100)
	}
	tw.Flush()

	if len(r.Ranked) > 1 {
		scores := make([]float64, 0, len(r.Ranked)-1)
		for _, c := range r.Ranked[1:] {
			scores = append(scores, c.Score)
		}
		fmt.Fprintf(w, "runner-up scores: %.2f\n", scores)
	}
	fmt.Fprintln(w)
}

func init() {
	addPlanFlags(optimizeCmd)
	optimizeCmd.Flags().StringSlice("strategy", nil, "Strategies to run: local_search, proportional (default both)")
	optimizeCmd.Flags().Int("iterations", 0, "Iteration cap per strategy (0 for defaults)")
	optimizeCmd.Flags().Duration("timeout", 0, "Stop searching after this long and report the best so far")
}
