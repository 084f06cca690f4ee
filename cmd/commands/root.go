package commands

// Root command for Cobra CLI
// Registers the run, scan and check subcommands and the shared config flags

import (
	"fmt"
	"time"

	"crypto-tracker/internal/infra/config"
	logging "crypto-tracker/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "crypto-tracker",
	Short: "Crypto Tracker - Telegram alerts for newly listed tokens",
	Long: `Crypto Tracker polls DexScreener and pump.fun for new token listings, filters them
against market cap, age, liquidity and social criteria, and posts alerts to a Telegram chat.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	defer logging.Sync()
	return rootCmd.Execute()
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(checkCmd)
}

// loadConfig reads the config and opens the log file. Credentials are checked unless
// the caller opts out.
func loadConfig(cmd *cobra.Command, requireCredentials bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		logging.LogError("Failed to load config", zap.Error(err))
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logging.Setup(cfg.LogsDir); err != nil {
		logging.LogWarn("File logging disabled", zap.Error(err))
	}

	if requireCredentials {
		if err := cfg.ValidateCredentials(); err != nil {
			logging.LogError("Invalid Telegram credentials", zap.Error(err))
			return nil, err
		}
	}
	return cfg, nil
}

func secondsDuration(s int64) time.Duration {
	return time.Duration(s) * time.Second
}
