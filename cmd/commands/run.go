package commands

// Command to run the scanner on its schedule
// Starts the scan monitor and the optional metrics server
// Implements graceful shutdown for proper termination

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"crypto-tracker/bots_monitor"
	logging "crypto-tracker/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scan for new tokens on a fixed interval and send Telegram alerts",
	RunE:  runScanner,
}

func runScanner(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}

	bot, err := bots_monitor.NewBot(cfg.TelegramToken, "", cfg.Timeout())
	if err != nil {
		logging.LogError("Failed to initialize Telegram bot", zap.Error(err))
		return err
	}

	a, err := buildApp(cfg, bot, cfg.ChatID, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup

	if cfg.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logging.LogInfo("Metrics server listening", zap.String("addr", cfg.MetricsAddr))
			if err := a.metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				logging.LogError("Metrics server failed", zap.Error(err))
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		bots_monitor.RunScanMonitor(ctx, a.pipeline, cfg.ScanInterval())
	}()

	logging.LogSuccess("Scanner is running",
		zap.Duration("interval", cfg.ScanInterval()),
		zap.Float64("min_market_cap", cfg.MinMarketCap),
		zap.Float64("max_market_cap", cfg.MaxMarketCap),
		zap.Bool("require_telegram", cfg.RequireTelegram))

	<-ctx.Done()
	logging.LogInfo("Shutdown signal received, waiting for the current cycle to finish...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.LogSuccess("Scanner stopped gracefully")
	case <-time.After(10 * time.Second):
		logging.LogWarn("Timeout waiting for the scanner to stop, forcing shutdown")
	}

	return nil
}
