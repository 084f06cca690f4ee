package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpacerEnforcesMinimumGap(t *testing.T) {
	s := NewSpacer(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Wait(ctx))
	}
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}

func TestSpacerFirstCallIsImmediate(t *testing.T) {
	s := NewSpacer(time.Hour)
	start := time.Now()
	require.NoError(t, s.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestSpacerRespectsCancellation(t *testing.T) {
	s := NewSpacer(time.Hour)
	require.NoError(t, s.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, s.Wait(ctx))
}

func TestZeroIntervalIsNoop(t *testing.T) {
	s := NewSpacer(0)
	_, ok := s.(noop)
	assert.True(t, ok)
	for i := 0; i < 100; i++ {
		require.NoError(t, s.Wait(context.Background()))
	}
}
