package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/xtding233/gacha-planner/internal/config"
	"github.com/xtding233/gacha-planner/internal/logging"
	"github.com/xtding233/gacha-planner/internal/telemetry"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

// state filled by the root pre-run
var (
	cfg           config.Config
	logger        *slog.Logger
	closeLog      func() error
	shutdownTrace func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "gachaplan",
	Short: "Pull probability, simulation and budget planner",
	Long: `gachaplan estimates the chance of getting featured characters and weapons from a
sequence of banners under a pull allocation, and searches for allocations that meet
prioritized goals within a pull budget.

Plans are YAML files under the config directory:
  defaults.yaml        rules, currency yields, simulation defaults
  banners.yaml         the banner catalog
  plans/<name>.yaml    starting pity, allocation, goals and budget

Environment variables prefixed GACHAPLAN_ configure defaults; flags override them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("config-dir") {
			c.ConfigDir, _ = flags.GetString("config-dir")
		}
		if flags.Changed("log-level") {
			c.LogLevel, _ = flags.GetString("log-level")
		}
		if flags.Changed("log-format") {
			c.LogFormat, _ = flags.GetString("log-format")
		}
		if flags.Changed("workers") {
			c.Workers, _ = flags.GetInt("workers")
		}
		cfg = c

		logger, closeLog, err = logging.Init(c.LogLevel, c.LogFormat, c.LogFile)
		if err != nil {
			return err
		}
		shutdownTrace, err = telemetry.Setup(cmd.Context(), "gachaplan", c.OTelEndpoint, version)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownTrace != nil {
			if err := shutdownTrace(context.Background()); err != nil {
				logger.Warn("trace shutdown", "err", err)
			}
		}
		if closeLog != nil {
			return closeLog()
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the command tree with ctx, used for signal handling.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config-dir", "", "Directory holding defaults.yaml, banners.yaml and plans/ (env GACHAPLAN_CONFIG_DIR)")
	pf.String("log-level", "", "debug|info|warn|error (env GACHAPLAN_LOG_LEVEL)")
	pf.String("log-format", "", "text|json (env GACHAPLAN_LOG_FORMAT)")
	pf.Int("workers", 0, "Simulation workers, 0 for one per CPU (env GACHAPLAN_WORKERS)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(serveCmd)
}
