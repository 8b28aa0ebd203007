package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kapu/ufc-athlete-scraper-go/internal/app"
	"github.com/kapu/ufc-athlete-scraper-go/internal/config"
	"github.com/kapu/ufc-athlete-scraper-go/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagOutput      string
	flagStartURL    string
	flagConcurrency int
	flagLogLevel    string
	flagSkipKnown   bool
)

var rootCmd = &cobra.Command{
	Use:          "scraper",
	Short:        "Scrapes the ufc.com athlete roster into a JSON dataset.",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagOutput, "output", "", "Dataset file to merge results into (OUTPUT_FILE)")
	flags.StringVar(&flagStartURL, "start-url", "", "Athlete listing URL to start from (SCRAPER_START_URL)")
	flags.IntVar(&flagConcurrency, "concurrency", 0, "Maximum parallel requests (SCRAPER_CONCURRENCY)")
	flags.StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	flags.BoolVar(&flagSkipKnown, "skip-known", false, "Do not revisit athletes already in the dataset (SCRAPER_SKIP_KNOWN)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("UFC athlete scraper starting...", zap.Any("config", cfg.Summary()))

	buildCtx, buildCancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		return err
	}
	defer container.Close()

	started := time.Now()
	report, err := container.NewPipeline().Run(cmd.Context())
	if err != nil {
		logger.Error("Failed to write dataset", zap.Error(err))
		return err
	}

	logger.Info("Shutdown complete",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("athletes", len(report.Crawl.Records)),
		zap.Int("sink_failures", report.SinkFailure),
	)
	return nil
}

// applyFlags lets explicitly set flags win over the environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.File = flagOutput
	}
	if flags.Changed("start-url") {
		cfg.Scraper.StartURL = flagStartURL
	}
	if flags.Changed("concurrency") {
		cfg.Scraper.Concurrency = flagConcurrency
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = flagLogLevel
	}
	if flags.Changed("skip-known") {
		cfg.Scraper.SkipKnown = flagSkipKnown
	}
}
