package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xtding233/gacha-planner/internal/plan"
)

// addPlanFlags registers the flags every plan-driven command shares.
func addPlanFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("plan", "", "Plan name under <config-dir>/plans")
	f.String("file", "", "Plan file path, merged over defaults and banners")
	f.Int("repetitions", 0, "Repetitions per simulation (overrides the plan)")
	f.Uint64("seed", 0, "Random seed, 0 for a random one")
	f.Int("chunk", 0, "Repetitions per chunk")
	f.Int("budget", 0, "Total pull budget for the optimizer")
	f.Bool("carry-over", false, "Roll unused pulls into the next goal")
	f.Bool("json", false, "Print JSON instead of a table")
}

// loadPlan merges the selected plan over the config dir and applies flag overrides.
func loadPlan(cmd *cobra.Command) (plan.Plan, error) {
	f := cmd.Flags()
	name, _ := f.GetString("plan")
	file, _ := f.GetString("file")
	if name != "" && file != "" {
		return plan.Plan{}, fmt.Errorf("use either --plan or --file, not both")
	}

	loader := plan.NewLoader(cfg.ConfigDir)
	var (
		raw plan.RawConfig
		err error
	)
	switch {
	case name != "":
		raw, err = loader.LoadMerged(name)
	case file != "":
		raw, err = loader.LoadFile(file)
	default:
		raw, err = loader.Base()
	}
	if err != nil {
		return plan.Plan{}, err
	}

	var o plan.Overrides
	if f.Changed("repetitions") {
		v, _ := f.GetInt("repetitions")
		o.Repetitions = &v
	}
	if f.Changed("seed") {
		v, _ := f.GetUint64("seed")
		o.Seed = &v
	}
	if f.Changed("chunk") {
		v, _ := f.GetInt("chunk")
		o.ChunkSize = &v
	}
	if f.Changed("budget") {
		v, _ := f.GetInt("budget")
		o.Budget = &v
	}
	if f.Changed("carry-over") {
		v, _ := f.GetBool("carry-over")
		o.CarryOver = &v
	}
	if cfg.Workers > 0 {
		o.Workers = &cfg.Workers
	}
	return plan.Resolve(raw, o)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
