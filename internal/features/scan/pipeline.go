package scan

// One scan cycle: fetch -> dedup -> filter -> reserve -> format -> dispatch.

import (
	"context"
	"errors"
	"sync"
	"time"

	"crypto-tracker/internal/domain"
	"crypto-tracker/internal/features/alert"
	"crypto-tracker/internal/features/criteria"
	"crypto-tracker/internal/features/dedup"
	"crypto-tracker/internal/infra/log"
	"crypto-tracker/internal/infra/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrCycleInProgress is returned when RunCycle is called while another cycle runs.
var ErrCycleInProgress = errors.New("scan cycle already in progress")

// Source is a market-data adapter. Fetch never fails; an exhausted source
// returns an empty report.
type Source interface {
	Name() string
	Fetch(ctx context.Context) domain.FetchReport
}

// Notifier delivers one alert and commits the ledger reservation on success.
type Notifier interface {
	Notify(ctx context.Context, rec domain.TokenRecord, text string) error
}

type Options struct {
	// Sources run in order; put the primary first so it wins intra-batch ties.
	Sources     []Source
	Ledger      *dedup.Ledger
	Filter      *criteria.Filter
	Notifier    Notifier
	MaxPerCycle int
	Metrics     *metrics.Registry
	Now         func() time.Time
}

type Pipeline struct {
	sources     []Source
	ledger      *dedup.Ledger
	filter      *criteria.Filter
	notifier    Notifier
	maxPerCycle int
	metrics     *metrics.Registry
	now         func() time.Time

	running sync.Mutex
}

func NewPipeline(opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		sources:     opts.Sources,
		ledger:      opts.Ledger,
		filter:      opts.Filter,
		notifier:    opts.Notifier,
		maxPerCycle: opts.MaxPerCycle,
		metrics:     opts.Metrics,
		now:         opts.Now,
	}
}

// CycleReport describes what one cycle saw and did.
type CycleReport struct {
	ID         string
	StartedAt  time.Time
	Duration   time.Duration
	Sources    []domain.FetchReport
	Fetched    int
	Unique     int
	Suppressed int
	Rejected   []criteria.Rejection
	Passed     int
	Capped     int
	Notified   []string
	Failed     []string
	Cancelled  bool
}

// RunCycle runs one full cycle. Only ErrCycleInProgress is returned as an error;
// everything else degrades into the report.
func (p *Pipeline) RunCycle(ctx context.Context) (CycleReport, error) {
	if !p.running.TryLock() {
		log.LogWarn("Scan cycle skipped, previous one still running")
		return CycleReport{}, ErrCycleInProgress
	}
	defer p.running.Unlock()

	report := CycleReport{ID: uuid.NewString(), StartedAt: p.now()}
	cycleLog := zap.String("cycle_id", report.ID)
	log.LogInfo("Scan cycle started", cycleLog)

	p.purge(report.StartedAt, cycleLog)

	batch := p.fetch(ctx, &report, cycleLog)
	report.Fetched = len(batch)

	batch = dedup.Unique(batch)
	report.Unique = len(batch)

	now := p.now()
	batch = p.dropSuppressed(batch, now, &report, cycleLog)

	passed, rejected := p.filter.Apply(batch, now)
	report.Rejected = rejected
	report.Passed = len(passed)
	for _, r := range rejected {
		p.metrics.IncRejection(string(r.Reason))
	}

	if p.maxPerCycle > 0 && len(passed) > p.maxPerCycle {
		report.Capped = len(passed) - p.maxPerCycle
		passed = passed[:p.maxPerCycle]
	}

	if len(passed) == 0 {
		log.LogInfo("No new tokens this cycle", cycleLog,
			zap.Int("fetched", report.Fetched),
			zap.Int("suppressed", report.Suppressed),
			zap.Int("rejected", len(report.Rejected)))
	}

	for _, rec := range passed {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		p.notify(ctx, rec, &report, cycleLog)
	}

	if n, err := p.ledger.Len(); err == nil {
		p.metrics.SetLedgerSize(n)
	}

	report.Duration = time.Since(report.StartedAt)
	result := "ok"
	if report.Cancelled {
		result = "cancelled"
	}
	p.metrics.ObserveCycle(result, report.Duration)

	log.LogSuccess("Scan cycle finished", cycleLog,
		zap.Int("fetched", report.Fetched),
		zap.Int("unique", report.Unique),
		zap.Int("suppressed", report.Suppressed),
		zap.Int("passed", report.Passed),
		zap.Int("capped", report.Capped),
		zap.Int("notified", len(report.Notified)),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func (p *Pipeline) purge(now time.Time, cycleLog zap.Field) {
	removed, err := p.ledger.Purge(now)
	if err != nil {
		log.LogWarn("Ledger purge failed", cycleLog, zap.Error(err))
		return
	}
	if removed > 0 {
		log.LogDebug("Ledger purged", cycleLog, zap.Int("removed", removed))
	}
}

// fetch runs every source in order. A panicking source counts as empty.
func (p *Pipeline) fetch(ctx context.Context, report *CycleReport, cycleLog zap.Field) []domain.TokenRecord {
	var batch []domain.TokenRecord
	for _, src := range p.sources {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		fr := p.fetchOne(ctx, src, cycleLog)
		report.Sources = append(report.Sources, fr)
		batch = append(batch, fr.Tokens...)

		p.metrics.AddSourceTokens(src.Name(), len(fr.Tokens))
		for _, e := range fr.Endpoints {
			p.metrics.IncEndpoint(src.Name(), string(e.Outcome))
		}
		for _, s := range fr.Skips {
			log.LogDebug("Token skipped by adapter", cycleLog, zap.String("source", src.Name()), zap.String("skip", s.String()))
		}

		log.LogInfo("Source fetched", cycleLog,
			zap.String("source", src.Name()),
			zap.String("endpoint", fr.Endpoint),
			zap.Int("tokens", len(fr.Tokens)),
			zap.Int("skipped", len(fr.Skips)))
	}
	return batch
}

func (p *Pipeline) fetchOne(ctx context.Context, src Source, cycleLog zap.Field) (fr domain.FetchReport) {
	defer func() {
		if r := recover(); r != nil {
			log.LogError("Source panicked", cycleLog, zap.String("source", src.Name()), zap.Any("panic", r))
			fr = domain.FetchReport{Tokens: []domain.TokenRecord{}}
		}
	}()
	return src.Fetch(ctx)
}

func (p *Pipeline) dropSuppressed(batch []domain.TokenRecord, now time.Time, report *CycleReport, cycleLog zap.Field) []domain.TokenRecord {
	kept := make([]domain.TokenRecord, 0, len(batch))
	for _, rec := range batch {
		suppressed, err := p.ledger.Suppressed(rec.Key(), now)
		if err != nil {
			log.LogWarn("Ledger lookup failed, skipping token", cycleLog, zap.String("token", rec.Key()), zap.Error(err))
			continue
		}
		if suppressed {
			report.Suppressed++
			p.metrics.IncSuppressed()
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

// notify reserves the token before sending so a slow or failed send can never
// produce a second alert inside the window.
func (p *Pipeline) notify(ctx context.Context, rec domain.TokenRecord, report *CycleReport, cycleLog zap.Field) {
	key := rec.Key()
	if err := p.ledger.Reserve(key, p.now()); err != nil {
		log.LogError("Failed to reserve token", cycleLog, zap.String("token", key), zap.Error(err))
		report.Failed = append(report.Failed, key)
		p.metrics.IncNotification("failed")
		return
	}

	text := alert.Format(rec, p.now())
	if err := p.notifier.Notify(ctx, rec, text); err != nil {
		log.LogError("Failed to dispatch alert", cycleLog, zap.String("token", key), zap.Error(err))
		report.Failed = append(report.Failed, key)
		p.metrics.IncNotification("failed")
		return
	}

	report.Notified = append(report.Notified, key)
	p.metrics.IncNotification("sent")
}
