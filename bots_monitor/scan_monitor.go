package bots_monitor

import (
	"context"
	"errors"
	"time"

	"crypto-tracker/internal/features/scan"
	"crypto-tracker/internal/infra/log"

	"go.uber.org/zap"
)

// CycleRunner runs one scan cycle. *scan.Pipeline implements it.
type CycleRunner interface {
	RunCycle(ctx context.Context) (scan.CycleReport, error)
}

// RunScanMonitor runs a cycle right away and then once per interval until ctx is done.
// Ticks that arrive while a cycle is running are dropped by the ticker.
func RunScanMonitor(ctx context.Context, runner CycleRunner, interval time.Duration) {
	log.LogInfo("Starting Scan Monitor...", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial scan
	runCycle(ctx, runner)

	for {
		select {
		case <-ctx.Done():
			log.LogInfo("Scan Monitor stopped")
			return
		case <-ticker.C:
			runCycle(ctx, runner)
		}
	}
}

func runCycle(ctx context.Context, runner CycleRunner) {
	if ctx.Err() != nil {
		return
	}
	report, err := runner.RunCycle(ctx)
	if errors.Is(err, scan.ErrCycleInProgress) {
		return
	}
	if err != nil {
		log.LogError("Scan cycle failed", zap.Error(err))
		return
	}
	log.LogDebug("Scan cycle report",
		zap.String("cycle_id", report.ID),
		zap.Int("notified", len(report.Notified)),
		zap.Int("failed", len(report.Failed)))
}
