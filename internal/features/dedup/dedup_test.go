package dedup

import (
	"testing"
	"time"

	"crypto-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newLedger(t *testing.T, window time.Duration) *Ledger {
	t.Helper()
	l, err := NewLedger(window)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestSuppressionWindow(t *testing.T) {
	l := newLedger(t, 6*time.Hour)
	key := domain.IdentityKey("solana", "Mint1")

	suppressed, err := l.Suppressed(key, t0)
	require.NoError(t, err)
	assert.False(t, suppressed, "unknown keys are never suppressed")

	require.NoError(t, l.Commit(key, t0))

	suppressed, err = l.Suppressed(key, t0.Add(6*time.Hour-time.Second))
	require.NoError(t, err)
	assert.True(t, suppressed)

	suppressed, err = l.Suppressed(key, t0.Add(6*time.Hour+time.Second))
	require.NoError(t, err)
	assert.False(t, suppressed)
}

func TestReservationSuppressesAndCommitPromotes(t *testing.T) {
	l := newLedger(t, time.Hour)
	key := "solana:abc"

	require.NoError(t, l.Reserve(key, t0))
	entry, ok, err := l.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StateReserved, entry.State)
	assert.Equal(t, t0, entry.Time().UTC())

	suppressed, err := l.Suppressed(key, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, suppressed, "a reservation already blocks resubmission")

	require.NoError(t, l.Commit(key, t0.Add(2*time.Second)))
	entry, _, err = l.Get(key)
	require.NoError(t, err)
	assert.Equal(t, StateSent, entry.State)
	assert.Equal(t, t0.Add(2*time.Second), entry.Time().UTC())
}

func TestPurgeDropsEntriesPastRetention(t *testing.T) {
	l := newLedger(t, time.Hour)

	require.NoError(t, l.Commit("solana:old", t0))
	require.NoError(t, l.Reserve("solana:edge", t0.Add(30*time.Minute)))
	require.NoError(t, l.Commit("solana:new", t0.Add(90*time.Minute)))

	removed, err := l.Purge(t0.Add(2*time.Hour + 45*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	n, err := l.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, err := l.Get("solana:new")
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = l.Get("solana:old")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPurgeOnEmptyLedger(t *testing.T) {
	l := newLedger(t, time.Hour)
	removed, err := l.Purge(t0)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestNewLedgerRejectsZeroWindow(t *testing.T) {
	_, err := NewLedger(0)
	assert.Error(t, err)
}

func TestUniqueKeepsFirstOccurrence(t *testing.T) {
	records := []domain.TokenRecord{
		{Chain: "solana", Address: "A", Name: "from primary", Source: domain.SourcePrimary},
		{Chain: "solana", Address: "B", Name: "b"},
		{Chain: "Solana", Address: "A", Name: "from fallback", Source: domain.SourceFallback},
		{Chain: "ethereum", Address: "A", Name: "other chain"},
	}

	out := Unique(records)
	require.Len(t, out, 3)
	assert.Equal(t, "from primary", out[0].Name)
	assert.Equal(t, "b", out[1].Name)
	assert.Equal(t, "other chain", out[2].Name)
}
