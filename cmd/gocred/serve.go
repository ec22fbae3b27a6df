package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/goCred/httpapi"
	"github.com/MrEthical07/goCred/internal/appconfig"
	"github.com/MrEthical07/goCred/internal/logging"
	"github.com/MrEthical07/goCred/internal/observability"
	promexport "github.com/MrEthical07/goCred/metrics/export/prometheus"
)

const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	host        string
	port        int
	metricsAddr string
	logFormat   string
	logLevel    string
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the credential API",
		Long: `Serve the signup, signin and profile API. Configuration comes from the
environment (and .env); flags override the listen addresses and logging.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := appconfig.Load(envFiles...)
			if err != nil {
				return err
			}
			applyServeFlags(cmd.Flags(), flags, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := logging.Setup("gocred", version, cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := runServe(ctx, cfg, logger, serveDeps{}); err != nil {
				logging.LogError(ctx, logger, "server exited", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.host, "host", "", "API listen host (overrides HOST)")
	cmd.Flags().IntVar(&flags.port, "port", 0, "API listen port (overrides PORT)")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", `metrics and health listen address, "" to disable (overrides METRICS_ADDR)`)
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "", "json or text (overrides LOG_FORMAT)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	return cmd
}

// applyServeFlags copies only the flags that were set on the command line.
func applyServeFlags(fs *pflag.FlagSet, flags serveFlags, cfg *appconfig.Config) {
	if fs.Changed("host") {
		cfg.Host = flags.host
	}
	if fs.Changed("port") {
		cfg.Port = flags.port
	}
	if fs.Changed("metrics-addr") {
		cfg.MetricsAddr = flags.metricsAddr
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = flags.logFormat
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	cfg.Sanitize()
}

// runServe serves until ctx is cancelled or a listener fails, then shuts
// both servers down.
func runServe(ctx context.Context, cfg appconfig.Config, logger *slog.Logger, deps serveDeps) error {
	rt, err := buildRuntime(ctx, cfg, logger, deps)
	if err != nil {
		return err
	}
	defer rt.Close()

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return oops.Code("LISTEN_FAILED").With("addr", cfg.Addr()).Wrap(err)
	}

	apiSrv := &http.Server{
		Handler:           httpapi.NewHandler(rt.engine, httpapi.WithLogger(logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var (
		obs    *observability.Server
		obsErr <-chan error
	)
	if cfg.MetricsAddr != "" {
		obs = observability.NewServer(cfg.MetricsAddr, rt.Ready, logger, promexport.NewCollector(rt.engine))
		obsErr, err = obs.Start()
		if err != nil {
			_ = listener.Close()
			return err
		}
	}

	apiErr := make(chan error, 1)
	go func() {
		defer close(apiErr)
		if serveErr := apiSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			apiErr <- serveErr
		}
	}()

	logger.Info("api server started",
		"addr", listener.Addr().String(),
		"mode", cfg.Auth.Mode.String(),
		"store", cfg.Store.Backend,
		"sessions", cfg.Store.SessionBackend,
	)

	if deps.OnStarted != nil {
		metricsAddr := ""
		if obs != nil {
			metricsAddr = obs.Addr()
		}
		deps.OnStarted(listener.Addr().String(), metricsAddr)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-apiErr:
		runErr = oops.Code("API_SERVER_FAILED").Wrap(err)
	case err := <-obsErr:
		runErr = oops.Code("OBSERVABILITY_SERVER_FAILED").Wrap(err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = oops.With("operation", "shutdown_api_server").Wrap(err)
	}
	if obs != nil {
		if err := obs.Stop(shutdownCtx); err != nil && runErr == nil {
			runErr = err
		}
	}

	logger.Info("api server stopped")
	return runErr
}
