package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for a processing run.
type Metrics struct {
	registry *prometheus.Registry

	// Stream metrics
	TransactionsProcessed *prometheus.CounterVec
	TransactionsRejected  *prometheus.CounterVec
	ProcessDuration       prometheus.Histogram

	// Block store metrics
	BlockRecords prometheus.Counter
	BlocksSealed prometheus.Counter
	BlockLookups *prometheus.CounterVec

	// Account metrics
	AccountsCreated prometheus.Counter
	AccountsLocked  prometheus.Counter
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		TransactionsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payproc_transactions_processed_total",
			Help: "Transactions applied successfully, by kind",
		}, []string{"kind"}),
		TransactionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payproc_transactions_rejected_total",
			Help: "Transactions rejected with a business error, by reason",
		}, []string{"reason"}),
		ProcessDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "payproc_process_duration_seconds",
			Help:    "Wall time of a full processing run",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),

		BlockRecords: factory.NewCounter(prometheus.CounterOpts{
			Name: "payproc_block_records_total",
			Help: "Monetary records appended to the block store",
		}),
		BlocksSealed: factory.NewCounter(prometheus.CounterOpts{
			Name: "payproc_blocks_sealed_total",
			Help: "Block files sealed and registered for lookup",
		}),
		BlockLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payproc_block_lookups_total",
			Help: "Block store lookups, by result",
		}, []string{"result"}),

		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "payproc_accounts_created_total",
			Help: "Accounts created on first reference",
		}),
		AccountsLocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "payproc_accounts_locked_total",
			Help: "Accounts locked by a chargeback",
		}),
	}
}

// Handler returns the scrape handler for this run's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled. Intended for
// long-running batch jobs; returns once the server has shut down.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	r := chi.NewRouter()
	r.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
