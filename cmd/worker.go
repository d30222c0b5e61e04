package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/e-mutai/pesa-smart-guide/config"
	"github.com/e-mutai/pesa-smart-guide/queue"
)

const prefetch = 8

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Answer recommendation jobs from RabbitMQ",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ExecuteWorker(cmd.Context(), cfg, logger)
		},
	}
}

// ExecuteWorker consumes the request queue until ctx is done.
func ExecuteWorker(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	svc, cleanup, err := buildService(ctx, cfg, logger)
	defer cleanup()
	if err != nil {
		return err
	}

	conn, ch, err := dialRabbit(cfg.Rabbit.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := ch.Qos(
		prefetch, // prefetch count
		0,        // prefetch size
		false,    // global
	); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	if err := queue.DeclareQueues(ch, cfg.Rabbit.RequestQueue, cfg.Rabbit.ResponseQueue); err != nil {
		return err
	}

	worker := queue.NewWorker(ch, cfg.Rabbit.RequestQueue, cfg.Rabbit.ResponseQueue, svc, logger)

	if err := worker.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("worker stopped")
	return nil
}
