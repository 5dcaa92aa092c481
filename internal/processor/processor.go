// Package processor drives one processing run: it streams transaction
// records through the block store and the ledger and collects the final
// account snapshots.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iho/payproc/internal/domain"
	"github.com/iho/payproc/internal/infrastructure/metrics"
)

// RecordSource is a forward-only, single-pass record stream. Next returns
// io.EOF when the stream ends.
type RecordSource interface {
	Next() (domain.Transaction, error)
}

// BlockStore is the slice of the block store the processor drives.
type BlockStore interface {
	Append(record domain.Transaction) error
	Flush() error
}

// Ledger applies transactions and reports the final balances.
type Ledger interface {
	Apply(tx domain.Transaction) error
	Snapshots() []domain.Account
}

// DefaultBuffer is the decode-to-apply channel depth.
const DefaultBuffer = 1024

// Result summarises a completed run.
type Result struct {
	Accounts  []domain.Account
	Processed int
	Rejected  int
}

// Processor wires the stream stages together.
type Processor struct {
	store   BlockStore
	ledger  Ledger
	log     zerolog.Logger
	metrics *metrics.Metrics
	buffer  int
}

// New returns a processor. buffer <= 0 falls back to DefaultBuffer.
func New(store BlockStore, ledger Ledger, log zerolog.Logger, m *metrics.Metrics, buffer int) *Processor {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Processor{
		store:   store,
		ledger:  ledger,
		log:     log.With().Str("component", "processor").Logger(),
		metrics: m,
		buffer:  buffer,
	}
}

// Run consumes the stream to completion. Decoding and applying run as two
// stages connected by a channel, so input I/O overlaps ledger work while
// ledger mutation stays strictly ordered. A TxError skips the record and
// the run continues; any other error cancels both stages and is returned.
func (p *Processor) Run(ctx context.Context, src RecordSource) (Result, error) {
	start := time.Now()

	records := make(chan domain.Transaction, p.buffer)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(records)
		for {
			tx, err := src.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read stream: %w", err)
			}
			select {
			case records <- tx:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	var result Result
	g.Go(func() error {
		for tx := range records {
			if err := p.apply(tx, &result); err != nil {
				return err
			}
		}
		// Stream ended: seal the final partial block.
		if err := p.store.Flush(); err != nil {
			return fmt.Errorf("seal final block: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	result.Accounts = p.ledger.Snapshots()
	if p.metrics != nil {
		p.metrics.ProcessDuration.Observe(time.Since(start).Seconds())
	}
	p.log.Info().
		Int("processed", result.Processed).
		Int("rejected", result.Rejected).
		Int("accounts", len(result.Accounts)).
		Dur("elapsed", time.Since(start)).
		Msg("run complete")

	return result, nil
}

func (p *Processor) apply(tx domain.Transaction, result *Result) error {
	switch tx.(type) {
	case domain.Deposit, domain.Withdrawal:
		if err := p.store.Append(tx); err != nil {
			return fmt.Errorf("store tx %s: %w", tx.TxID(), err)
		}
	}

	if err := p.ledger.Apply(tx); err != nil {
		txErr, ok := domain.AsTxError(err)
		if !ok {
			return err
		}

		result.Rejected++
		if p.metrics != nil {
			p.metrics.TransactionsRejected.WithLabelValues(string(txErr.Reason)).Inc()
		}
		p.log.Warn().
			Str("kind", string(tx.Kind())).
			Str("client", tx.ClientID().String()).
			Str("tx", tx.TxID().String()).
			Str("reason", string(txErr.Reason)).
			Msg("transaction rejected")
		return nil
	}

	result.Processed++
	if p.metrics != nil {
		p.metrics.TransactionsProcessed.WithLabelValues(string(tx.Kind())).Inc()
	}
	return nil
}
