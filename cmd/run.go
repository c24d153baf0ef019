package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"firestige.xyz/pktgate/internal/config"
	"firestige.xyz/pktgate/internal/log"
	"firestige.xyz/pktgate/internal/metrics"
	"firestige.xyz/pktgate/internal/pipeline"
)

const shutdownTimeout = 5 * time.Second

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the gate in foreground",
		Long: `Run the gate in foreground.

The command will:
  1. Load configuration from the config file
  2. Initialize logging and the metrics endpoint
  3. Open the frame source and sinks
  4. Classify frames until the source ends or SIGINT/SIGTERM arrives
  5. Print a summary

Examples:
  pktgate run -c /etc/pktgate/config.yml
  PKTGATE_PIPELINE_WORKERS=8 pktgate run -c config.yml`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := runGate(cmd.Context()); err != nil {
				slog.Error("pktgate failed", "error", err)
				exitWithError("run failed", err)
			}
		},
	}
	addConfigFlag(cmd, &configFile)
	return cmd
}

func runGate(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := log.Init(cfg.Log); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				slog.Warn("metrics server stop failed", "error", err)
			}
		}()
	}

	p, err := pipeline.FromConfig(cfg, slog.Default())
	if err != nil {
		return err
	}

	log.Component("cmd").Info("pktgate started", "version", Version, "config", configFile, "pid", os.Getpid())
	runErr := p.Run(ctx)

	printSummary(os.Stdout, p.Stats())
	return runErr
}
