package cli

import (
	"github.com/spf13/cobra"

	"github.com/xtding233/gacha-planner/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP and gRPC planner APIs",
	Long: `Serves the JSON HTTP API (/v1/simulate, /v1/optimize, /v1/estimate, /v1/rate,
/v1/banners, /healthz) and the gachaplan.v1.Planner gRPC service. Config files are
polled and reloaded when they change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		if f.Changed("http-addr") {
			cfg.HTTPAddr, _ = f.GetString("http-addr")
		}
		if f.Changed("grpc-addr") {
			cfg.GRPCAddr, _ = f.GetString("grpc-addr")
		}
		srv, err := server.New(cfg, logger)
		if err != nil {
			return err
		}
		return srv.Serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().String("http-addr", "", "HTTP listen address (env GACHAPLAN_HTTP_ADDR)")
	serveCmd.Flags().String("grpc-addr", "", "gRPC listen address (env GACHAPLAN_GRPC_ADDR)")
}
