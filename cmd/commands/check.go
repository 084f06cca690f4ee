package commands

// Command to verify configuration and Telegram credentials
// Optionally posts a status message to the configured chat

import (
	"context"

	"crypto-tracker/bots_monitor"
	logging "crypto-tracker/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkStatus string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate config and verify the Telegram bot token",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkStatus, "status", "", "Send this text as a status message after the check")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}
	logging.LogSuccess("Config is valid",
		zap.Int("dexscreener_endpoints", len(cfg.DexScreenerEndpoints)),
		zap.Int("pumpfun_endpoints", len(cfg.PumpFunEndpoints)))

	bot, err := bots_monitor.NewBot(cfg.TelegramToken, "", cfg.Timeout())
	if err != nil {
		logging.LogError("Telegram token check failed", zap.Error(err))
		return err
	}

	if checkStatus == "" {
		return nil
	}

	d, err := bots_monitor.NewDispatcher(bots_monitor.DispatcherConfig{Sender: bot, ChatID: cfg.ChatID})
	if err != nil {
		return err
	}
	if err := d.SendStatus(context.Background(), checkStatus); err != nil {
		logging.LogError("Failed to send status message", zap.Error(err))
		return err
	}
	logging.LogSuccess("Status message sent", zap.String("chat_id", cfg.ChatID))
	return nil
}
