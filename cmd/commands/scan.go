package commands

// Command to run a single scan cycle
// With --dry-run alerts are printed to stdout and no credentials are needed

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"crypto-tracker/bots_monitor"
	logging "crypto-tracker/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scanDryRun bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan cycle and exit",
	RunE:  runScanOnce,
}

func init() {
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "Print alerts to stdout instead of sending them")
}

func runScanOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, !scanDryRun)
	if err != nil {
		return err
	}

	var (
		sender bots_monitor.Sender
		chatID = cfg.ChatID
	)
	if scanDryRun {
		sender = bots_monitor.WriterSender{W: cmd.OutOrStdout()}
		chatID = "0"
	} else {
		bot, err := bots_monitor.NewBot(cfg.TelegramToken, "", cfg.Timeout())
		if err != nil {
			logging.LogError("Failed to initialize Telegram bot", zap.Error(err))
			return err
		}
		sender = bot
	}

	a, err := buildApp(cfg, sender, chatID, !scanDryRun)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := a.pipeline.RunCycle(ctx)
	if err != nil {
		return err
	}

	logging.LogInfo("Scan complete",
		zap.Bool("dry_run", scanDryRun),
		zap.Int("fetched", report.Fetched),
		zap.Int("rejected", len(report.Rejected)),
		zap.Int("notified", len(report.Notified)),
		zap.Int("failed", len(report.Failed)))
	return nil
}
