package bots_monitor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"crypto-tracker/internal/features/scan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) RunCycle(ctx context.Context) (scan.CycleReport, error) {
	r.calls.Add(1)
	return scan.CycleReport{ID: "cycle"}, r.err
}

func TestScanMonitorRunsImmediatelyAndOnTicks(t *testing.T) {
	runner := &countingRunner{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		RunScanMonitor(ctx, runner, 20*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return runner.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancel")
	}
}

func TestScanMonitorSurvivesCycleErrors(t *testing.T) {
	runner := &countingRunner{err: scan.ErrCycleInProgress}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go RunScanMonitor(ctx, runner, 10*time.Millisecond)
	require.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestScanMonitorSkipsWhenAlreadyCancelled(t *testing.T) {
	runner := &countingRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	RunScanMonitor(ctx, runner, time.Hour)
	assert.Zero(t, runner.calls.Load())
}
