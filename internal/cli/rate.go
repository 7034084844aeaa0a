package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xtding233/gacha-planner/internal/plan"
)

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Print the top-tier probability at a pity counter",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPlan(cmd)
		if err != nil {
			return err
		}
		kind, _ := cmd.Flags().GetString("kind")
		pity, _ := cmd.Flags().GetInt("pity")
		if pity < 0 {
			return fmt.Errorf("pity must be >= 0")
		}
		var rate float64
		switch plan.GoalKind(kind) {
		case plan.KindCharacter:
			rate = p.Rules.Character.Prob(pity)
		case plan.KindWeapon:
			rate = p.Rules.Weapon.Prob(pity)
		default:
			return fmt.Errorf("kind must be character or weapon, got %q", kind)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s pity %d: %.4f\n", kind, pity, rate)
		return nil
	},
}

func init() {
	rateCmd.Flags().String("plan", "", "Plan name supplying the rules")
	rateCmd.Flags().String("file", "", "Plan file path")
	rateCmd.Flags().String("kind", "character", "character|weapon")
	rateCmd.Flags().Int("pity", 1, "Pity counter, counting the pull being made")
}
