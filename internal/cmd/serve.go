package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cardlens/statement-converter/internal/api"
	"github.com/cardlens/statement-converter/internal/config"
	"github.com/cardlens/statement-converter/internal/pipeline"
)

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the conversion HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := rootLogger(cmd, cfg.LogLevel)
			defer func() { _ = log.Sync() }()

			if addr == "" {
				addr = ":" + cfg.Port
			}

			conv := pipeline.New(pipeline.FromConfig(cfg), log)
			app := api.NewHandler(conv, cfg, log).App()

			log.Info("listening",
				zap.String("addr", addr),
				zap.Int64("max_file_size", cfg.MaxFileSizeBytes),
				zap.Int("max_concurrent", cfg.MaxConcurrent))
			if err := app.Listen(addr); err != nil {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", `listen address (default ":$PORT")`)

	return cmd
}
