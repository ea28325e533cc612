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
	"go.uber.org/zap"

	httpDelivery "github.com/timepiece/backend/internal/delivery/http"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var warm bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApplication(func(app *application) error {
				runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return serve(runCtx, app, warm)
			})
		},
	}

	cmd.Flags().BoolVar(&warm, "warm", true, "Extract the catalog in the background at startup")
	return cmd
}

func serve(ctx context.Context, app *application, warm bool) error {
	log := app.logger

	handler := httpDelivery.NewHandler(app.resolver, app.cfg.Reply.Prefix, log)
	router := httpDelivery.SetupRouter(app.cfg, handler, log, app.metrics.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", app.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("starting timepiece backend",
		zap.String("version", version),
		zap.String("environment", app.cfg.Server.Environment),
		zap.String("addr", server.Addr),
		zap.String("website", app.website.BaseURL()),
		zap.Duration("catalog_ttl", app.cfg.Catalog.TTL),
	)

	if warm {
		go func() {
			snap := app.catalog.GetCatalog(ctx)
			log.Info("catalog warmed", zap.Int("products", snap.Len()), zap.String("source", string(snap.Source)))
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	app.catalog.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
