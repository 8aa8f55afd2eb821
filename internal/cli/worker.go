package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/goldgpt/internal/imagegen"
	"github.com/suPer8Hu/goldgpt/internal/worker"
)

func newWorkerCmd(e *env) *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume queued image generation jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency > 0 {
				e.cfg.WorkerConcurrency = concurrency
			}
			return runWorker(cmd.Context(), e)
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "parallel jobs (overrides WORKER_CONCURRENCY)")
	return cmd
}

func runWorker(ctx context.Context, e *env) error {
	if e.cfg.RabbitURL == "" {
		return errors.New("RABBIT_URL is not set")
	}

	app, err := buildApp(ctx, e.cfg, e.log, buildOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	runner := imagegen.NewRunner(app.Images, app.Jobs, e.log)
	pool := worker.NewPool(runner, e.cfg.WorkerConcurrency, e.log)
	return worker.Run(ctx, e.cfg.RabbitURL, e.cfg.RabbitQueue, pool)
}
