package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/23skdu/eigencmc/internal/logging"
)

// app carries the loaded configuration and logger between commands.
type app struct {
	cfg    Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "eigencmc",
		Short: "eigencmc - subspace face recognition evaluation",
		Long: `eigencmc projects gallery and probe samples onto a learned subspace,
scores every pair and reports Cumulative Match Characteristic curves over a
sweep of subspace dimensionalities.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewLogger(logging.Config{
				Format: cfg.LogFormat,
				Level:  cfg.LogLevel,
				Output: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
	}
	rootCmd.AddCommand(newRunCmd(a), newSummarizeCmd(a), newConvertCmd(a))
	return rootCmd
}

// startMetricsServer serves /metrics on addr until the returned stop
// function is called. An empty addr disables the server.
//
//nolint:gocritic // Logger passed by value
func startMetricsServer(addr string, logger zerolog.Logger) (stop func()) {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info().Str("address", addr).Msg("Starting metrics server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
