package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xtding233/gacha-planner/internal/currency"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate bonus pulls earned back from secondary currency",
	Long: `Deterministic expected-value estimate of the secondary currency returned by lower-tier
and duplicate draws, converted back into pulls and iterated to a fixed point.
Flexible pulls go to whichever banner type returns less currency.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPlan(cmd)
		if err != nil {
			return err
		}
		f := cmd.Flags()
		in := currency.Input{}
		in.CharacterPulls, _ = f.GetFloat64("character")
		in.WeaponPulls, _ = f.GetFloat64("weapon")
		in.Flexible, _ = f.GetFloat64("flexible")
		in.Targets, _ = f.GetInt("targets")
		in.CharacterPity = p.Start.Character.Pity
		in.WeaponPity = p.Start.Weapon.Pity

		est := currency.NewFixedPoint(p.Rules, p.Yields, p.Exchange).Estimate(in)
		if asJSON, _ := f.GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), est)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "base pulls:     %.0f (character %.0f, weapon %.0f)\n", est.BasePulls, est.CharacterPulls, est.WeaponPulls)
		if est.FlexibleTo != "" {
			fmt.Fprintf(w, "flexible to:    %s\n", est.FlexibleTo)
		}
		fmt.Fprintf(w, "bonus %s: %.1f\n", p.Exchange.Name, est.BonusCurrency)
		fmt.Fprintf(w, "bonus pulls:    %.2f (%d whole)\n", est.BonusPulls, p.Exchange.WholePulls(est.BonusCurrency))
		fmt.Fprintf(w, "total pulls:    %.2f\n", est.TotalPulls)
		fmt.Fprintf(w, "iterations:     %d (converged: %v)\n", est.Iterations, est.Converged)
		return nil
	},
}

func init() {
	f := estimateCmd.Flags()
	f.String("plan", "", "Plan name supplying rules, yields and starting pity")
	f.String("file", "", "Plan file path")
	f.Float64("character", 0, "Pulls planned on character banners")
	f.Float64("weapon", 0, "Pulls planned on weapon banners")
	f.Float64("flexible", 0, "Pulls not yet assigned to either banner type")
	f.Int("targets", 0, "Top-tier draws expected to be first copies")
	f.Bool("json", false, "Print JSON")
}
