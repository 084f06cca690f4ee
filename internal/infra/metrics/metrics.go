package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the scanner's Prometheus collectors.
type Registry struct {
	reg *prometheus.Registry

	CycleDuration    *prometheus.HistogramVec
	CyclesTotal      *prometheus.CounterVec
	SourceTokens     *prometheus.CounterVec
	EndpointAttempts *prometheus.CounterVec
	FilterRejections *prometheus.CounterVec
	Notifications    *prometheus.CounterVec
	Suppressed       prometheus.Counter
	LedgerSize       prometheus.Gauge
}

// NewRegistry builds a registry with its own prometheus.Registry so tests can create many.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		CycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tokenbot_cycle_duration_seconds",
				Help:    "Duration of a scan cycle in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"result"},
		),
		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenbot_cycles_total",
				Help: "Scan cycles by result",
			},
			[]string{"result"},
		),
		SourceTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenbot_source_tokens_total",
				Help: "Tokens returned by each source adapter",
			},
			[]string{"source"},
		),
		EndpointAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenbot_endpoint_attempts_total",
				Help: "Endpoint outcomes per source",
			},
			[]string{"source", "outcome"},
		),
		FilterRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenbot_filter_rejections_total",
				Help: "Tokens rejected by the criteria filter, by reason",
			},
			[]string{"reason"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenbot_notifications_total",
				Help: "Alerts dispatched, by result",
			},
			[]string{"result"},
		),
		Suppressed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tokenbot_suppressed_total",
				Help: "Tokens dropped because they were notified inside the duplicate window",
			},
		),
		LedgerSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tokenbot_ledger_entries",
				Help: "Entries currently held in the notification ledger",
			},
		),
	}

	r.reg.MustRegister(
		r.CycleDuration,
		r.CyclesTotal,
		r.SourceTokens,
		r.EndpointAttempts,
		r.FilterRejections,
		r.Notifications,
		r.Suppressed,
		r.LedgerSize,
	)
	return r
}

// ObserveCycle records one finished cycle.
func (r *Registry) ObserveCycle(result string, d time.Duration) {
	if r == nil {
		return
	}
	r.CycleDuration.WithLabelValues(result).Observe(d.Seconds())
	r.CyclesTotal.WithLabelValues(result).Inc()
}

func (r *Registry) AddSourceTokens(source string, n int) {
	if r == nil {
		return
	}
	r.SourceTokens.WithLabelValues(source).Add(float64(n))
}

func (r *Registry) IncEndpoint(source, outcome string) {
	if r == nil {
		return
	}
	r.EndpointAttempts.WithLabelValues(source, outcome).Inc()
}

func (r *Registry) IncRejection(reason string) {
	if r == nil {
		return
	}
	r.FilterRejections.WithLabelValues(reason).Inc()
}

func (r *Registry) IncNotification(result string) {
	if r == nil {
		return
	}
	r.Notifications.WithLabelValues(result).Inc()
}

func (r *Registry) IncSuppressed() {
	if r == nil {
		return
	}
	r.Suppressed.Inc()
}

func (r *Registry) SetLedgerSize(n int) {
	if r == nil {
		return
	}
	r.LedgerSize.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
