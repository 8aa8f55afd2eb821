// Package cli provides the goldgpt command line: the API server, the image
// job worker and a one-shot ask command.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/goldgpt/internal/config"
)

// Version is set at build time.
var Version = "0.1.0"

// env is what every subcommand starts from.
type env struct {
	cfg     config.Config
	log     *slog.Logger
	cleanup func() error
}

func NewRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "goldgpt",
		Short:         "Bilingual assistant for a precious metals store",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.log, e.cleanup = config.SetupLogger(cfg.LogFile, cfg.SlogLevel())
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if e.cleanup != nil {
				return e.cleanup()
			}
			return nil
		},
	}

	root.AddCommand(newServeCmd(e))
	root.AddCommand(newWorkerCmd(e))
	root.AddCommand(newAskCmd(e))
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		return fmt.Errorf("goldgpt: %w", err)
	}
	return nil
}
