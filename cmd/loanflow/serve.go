package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/loanflow/internal/cli"
	httpAdapter "github.com/aretw0/loanflow/pkg/adapters/http"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves conversations over a JSON API with server-sent events for paced
messages and record patches. Prometheus metrics are exposed on /metrics.`,
	PreRunE: bindPacing,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := cfg.Logger()
		streams := httpAdapter.NewStreamManager(logger)

		app, err := cli.Build(cmd.Context(), cfg,
			cli.WithEmitter(streams),
			cli.WithMetrics(),
			cli.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		defer app.Close()

		handler := httpAdapter.NewHandler(app.Engine,
			httpAdapter.WithCalculator(app.Calculator),
			httpAdapter.WithRegistry(app.Registry),
			httpAdapter.WithStreams(streams),
			httpAdapter.WithMetrics(app.Metrics.Handler()),
			httpAdapter.WithLogger(logger),
		)
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting loanflow server", "addr", srv.Addr, "store", cfg.Store.Kind)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
			logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				return srv.Close()
			}
			logger.Info("loanflow server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().Duration("pacing", 600*time.Millisecond, "Delay between streamed messages")
	bind(serveCmd, "http.port", "port")
}
