package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/keyip-smiles/internal/interfaces/http"
	"github.com/turtacn/keyip-smiles/pkg/errors"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP parse API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				if port < 1 || port > 65535 {
					return errors.InvalidParam("port out of range")
				}
				cfg.Server.Port = port
			}

			comps, err := cliCtx.Components()
			if err != nil {
				return err
			}
			defer cliCtx.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, comps)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

func serve(ctx context.Context, comps *Components) error {
	handler, stopLimiter := comps.Handler()
	defer stopLimiter()

	cfg := comps.Config
	comps.Logger.Info("starting SMILES API server",
		logging.String("version", Version),
		logging.String("mode", cfg.Server.Mode),
		logging.String("smarts_mode", cfg.Parser.SmartsMode),
		logging.Bool("cache", cfg.Cache.Enabled),
		logging.Bool("metrics", cfg.Metrics.Enabled),
	)
	srv := httpserver.NewServer(cfg.Server, handler, comps.Logger)
	return srv.Run(ctx)
}
