package scan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"crypto-tracker/internal/clients_api/dexscreener"
	"crypto-tracker/internal/clients_api/marketdata"
	"crypto-tracker/internal/domain"
	"crypto-tracker/internal/features/criteria"
	"crypto-tracker/internal/features/dedup"
	"crypto-tracker/internal/infra/metrics"
	"crypto-tracker/internal/infra/pacing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name    string
	tokens  []domain.TokenRecord
	panic   bool
	started chan struct{}
	block   chan struct{}
	calls   int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context) domain.FetchReport {
	f.calls++
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	if f.panic {
		panic("boom")
	}
	return domain.FetchReport{Tokens: append([]domain.TokenRecord(nil), f.tokens...)}
}

type fakeNotifier struct {
	mu     sync.Mutex
	ledger *dedup.Ledger
	now    func() time.Time
	fail   map[string]bool
	sent   []string
	texts  []string
}

func (n *fakeNotifier) Notify(_ context.Context, rec domain.TokenRecord, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail[rec.Key()] {
		return errors.New("telegram said no")
	}
	n.sent = append(n.sent, rec.Key())
	n.texts = append(n.texts, text)
	return n.ledger.Commit(rec.Key(), n.now())
}

type harness struct {
	pipeline *Pipeline
	ledger   *dedup.Ledger
	notifier *fakeNotifier
	metrics  *metrics.Registry
	clock    *time.Time
}

func newHarness(t *testing.T, maxPerCycle int, sources ...Source) *harness {
	t.Helper()
	ledger, err := dedup.NewLedger(6 * time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	clock := time.Unix(1_750_000_000, 0)
	now := func() time.Time { return clock }
	notifier := &fakeNotifier{ledger: ledger, now: now, fail: map[string]bool{}}
	reg := metrics.NewRegistry()

	p := NewPipeline(Options{
		Sources:  sources,
		Ledger:   ledger,
		Notifier: notifier,
		Filter: criteria.New(criteria.Thresholds{
			MinMarketCap:    10_000,
			MaxMarketCap:    1_000_000,
			MinAge:          5 * time.Second,
			MaxAge:          7 * 24 * time.Hour,
			MinLiquidity:    500,
			RequireTelegram: true,
		}),
		MaxPerCycle: maxPerCycle,
		Metrics:     reg,
		Now:         now,
	})
	return &harness{pipeline: p, ledger: ledger, notifier: notifier, metrics: reg, clock: &clock}
}

func token(address string, source domain.Source) domain.TokenRecord {
	return domain.TokenRecord{
		Address:      address,
		Chain:        "solana",
		Name:         "Token " + address,
		Symbol:       "TKN",
		MarketCapUSD: 50_000,
		LiquidityUSD: 1_000,
		CreatedAt:    time.Unix(1_750_000_000, 0).Add(-time.Hour).Unix(),
		Socials:      domain.SocialLinks{Telegram: "https://t.me/" + address},
		Source:       source,
	}
}

func TestRunCycleEndToEnd(t *testing.T) {
	noTelegram := token("NOTG", domain.SourcePrimary)
	noTelegram.Socials = domain.SocialLinks{Website: "https://x.example"}

	primary := &fakeSource{name: "dexscreener", tokens: []domain.TokenRecord{token("A", domain.SourcePrimary), noTelegram}}
	fallback := &fakeSource{name: "pumpfun", tokens: []domain.TokenRecord{token("A", domain.SourceFallback), token("B", domain.SourceFallback)}}
	h := newHarness(t, 50, primary, fallback)

	report, err := h.pipeline.RunCycle(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 4, report.Fetched)
	assert.Equal(t, 3, report.Unique)
	assert.Equal(t, []criteria.Rejection{{Key: "solana:NOTG", Reason: criteria.ReasonSocial}}, report.Rejected)
	assert.Equal(t, []string{"solana:A", "solana:B"}, report.Notified)
	assert.Contains(t, h.notifier.texts[0], "Source: DexScreener", "primary wins the intra-batch tie")

	entry, ok, err := h.ledger.Get("solana:A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, dedup.StateSent, entry.State)

	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.Notifications.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.FilterRejections.WithLabelValues("social")))
}

func TestSecondCycleSuppressesUntilWindowPasses(t *testing.T) {
	src := &fakeSource{name: "dexscreener", tokens: []domain.TokenRecord{token("A", domain.SourcePrimary)}}
	h := newHarness(t, 50, src)

	_, err := h.pipeline.RunCycle(context.Background())
	require.NoError(t, err)

	*h.clock = h.clock.Add(6*time.Hour - time.Second)
	src.tokens[0].CreatedAt = h.clock.Add(-time.Hour).Unix()
	report, err := h.pipeline.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Suppressed)
	assert.Empty(t, report.Notified)

	*h.clock = h.clock.Add(2 * time.Second)
	src.tokens[0].CreatedAt = h.clock.Add(-time.Hour).Unix()
	report, err = h.pipeline.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"solana:A"}, report.Notified)
	assert.Len(t, h.notifier.sent, 2)
}

func TestDispatchFailureKeepsReservation(t *testing.T) {
	src := &fakeSource{name: "dexscreener", tokens: []domain.TokenRecord{token("A", domain.SourcePrimary), token("B", domain.SourcePrimary)}}
	h := newHarness(t, 50, src)
	h.notifier.fail["solana:A"] = true

	report, err := h.pipeline.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"solana:A"}, report.Failed)
	assert.Equal(t, []string{"solana:B"}, report.Notified, "the cycle continues after a failed send")

	entry, ok, err := h.ledger.Get("solana:A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, dedup.StateReserved, entry.State)

	report, err = h.pipeline.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Suppressed, "a failed send is not retried inside the window")
}

func TestCapLimitsNotifications(t *testing.T) {
	var tokens []domain.TokenRecord
	for i := 0; i < 5; i++ {
		tokens = append(tokens, token(fmt.Sprintf("T%d", i), domain.SourcePrimary))
	}
	h := newHarness(t, 2, &fakeSource{name: "dexscreener", tokens: tokens})

	report, err := h.pipeline.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"solana:T0", "solana:T1"}, report.Notified)
	assert.Equal(t, 3, report.Capped)

	n, err := h.ledger.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n, "capped tokens are not reserved")
}

func TestPanickingSourceDoesNotAbortCycle(t *testing.T) {
	bad := &fakeSource{name: "dexscreener", panic: true}
	good := &fakeSource{name: "pumpfun", tokens: []domain.TokenRecord{token("B", domain.SourceFallback)}}
	h := newHarness(t, 50, bad, good)

	report, err := h.pipeline.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"solana:B"}, report.Notified)
	require.Len(t, report.Sources, 2)
	assert.Empty(t, report.Sources[0].Tokens)
}

func TestEmptyCycleIsQuiet(t *testing.T) {
	h := newHarness(t, 50, &fakeSource{name: "dexscreener"})

	report, err := h.pipeline.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Fetched)
	assert.Empty(t, report.Notified)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.CyclesTotal.WithLabelValues("ok")))
}

func TestOverlappingCycleIsRejected(t *testing.T) {
	src := &fakeSource{name: "dexscreener", started: make(chan struct{}), block: make(chan struct{})}
	h := newHarness(t, 50, src)

	done := make(chan error, 1)
	go func() {
		_, err := h.pipeline.RunCycle(context.Background())
		done <- err
	}()

	<-src.started
	_, err := h.pipeline.RunCycle(context.Background())
	assert.ErrorIs(t, err, ErrCycleInProgress)

	close(src.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, src.calls)
}

func TestCancelledContextStopsNewNotifications(t *testing.T) {
	src := &fakeSource{name: "dexscreener", tokens: []domain.TokenRecord{token("A", domain.SourcePrimary)}}
	h := newHarness(t, 50, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := h.pipeline.RunCycle(ctx)
	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	assert.Empty(t, report.Notified)
	assert.Zero(t, src.calls)
}

const longMint = "ABC123mintForTheSameTokenOnBothSourcesXYZ9"

func TestSameTokenFromBothSourcesAlertsOnce(t *testing.T) {
	tests := []struct {
		name      string
		marketCap float64
		highRisk  bool
	}{
		{"below warning threshold", 40_000, true},
		{"above warning threshold", 60_000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := token(longMint, domain.SourcePrimary)
			primary.MarketCapUSD = tt.marketCap
			fallback := token(longMint, domain.SourceFallback)
			fallback.MarketCapUSD = tt.marketCap

			h := newHarness(t, 50,
				&fakeSource{name: "dexscreener", tokens: []domain.TokenRecord{primary}},
				&fakeSource{name: "pumpfun", tokens: []domain.TokenRecord{fallback}})

			report, err := h.pipeline.RunCycle(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 2, report.Fetched)
			assert.Equal(t, 1, report.Unique)
			assert.Equal(t, []string{"solana:" + longMint}, report.Notified)

			require.Len(t, h.notifier.texts, 1)
			text := h.notifier.texts[0]
			assert.Contains(t, text, "`ABC123...XYZ9`")
			assert.NotContains(t, text, longMint+"`")
			if tt.highRisk {
				assert.Contains(t, text, "HIGH RISK")
			} else {
				assert.NotContains(t, text, "HIGH RISK")
			}
		})
	}
}

func TestMaintenanceSourceDegradesToTheOther(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	primary := dexscreener.NewAdapter(dexscreener.Config{
		Settings: marketdata.Settings{
			Endpoints:   []string{srv.URL + "/profiles", srv.URL + "/search"},
			MaxAttempts: 3,
			Timeout:     5 * time.Second,
			Sleep:       func(context.Context, time.Duration) error { return nil },
			Spacer:      pacing.Noop(),
		},
		TokensURL:    srv.URL + "/tokens/",
		LookupSpacer: pacing.Noop(),
	})
	fallback := &fakeSource{name: "pumpfun", tokens: []domain.TokenRecord{token("B", domain.SourceFallback)}}
	h := newHarness(t, 50, primary, fallback)

	report, err := h.pipeline.RunCycle(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Sources, 2)
	assert.Empty(t, report.Sources[0].Tokens)
	require.Len(t, report.Sources[0].Endpoints, 2)
	for _, e := range report.Sources[0].Endpoints {
		assert.Equal(t, domain.OutcomeMaintenance, e.Outcome)
		assert.Equal(t, 1, e.Attempts, "maintenance does not spend retries")
	}
	assert.Equal(t, int32(2), hits.Load())

	assert.Equal(t, []string{"solana:B"}, report.Notified)
	assert.Contains(t, h.notifier.texts[0], "Source: pump.fun")
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.EndpointAttempts.WithLabelValues("dexscreener", "maintenance")))
}
