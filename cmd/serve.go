package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/e-mutai/pesa-smart-guide/config"
	fundHttp "github.com/e-mutai/pesa-smart-guide/http"
	"github.com/e-mutai/pesa-smart-guide/queue"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the recommendation API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ExecuteServe(cmd.Context(), cfg, logger)
		},
	}
}

// ExecuteServe runs the HTTP API until ctx is done. With a rabbit url the
// async route hands jobs to workers over the request queue.
func ExecuteServe(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	svc, cleanup, err := buildService(ctx, cfg, logger)
	defer cleanup()
	if err != nil {
		return err
	}

	handler := fundHttp.FundHandler{
		Logger:  logger,
		Service: svc,
	}

	if cfg.Rabbit.URL != "" {
		conn, ch, err := dialRabbit(cfg.Rabbit.URL)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := queue.DeclareQueues(ch, cfg.Rabbit.RequestQueue, cfg.Rabbit.ResponseQueue); err != nil {
			return err
		}

		client := queue.NewClient(ch, cfg.Rabbit.RequestQueue, cfg.Rabbit.ResponseQueue, logger)
		go func() {
			if err := client.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error(fmt.Errorf("listen for replies: %w", err).Error())
			}
		}()
		handler.Async = client
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: fundHttp.NewRouter(handler, cfg.Server.Timeout),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(fmt.Errorf("shutdown: %w", err).Error())
		}
	}()

	logger.Info("server is starting", zap.String("addr", cfg.Server.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
