// Package resolver locates the deposit behind a dispute-lifecycle record
// and returns the amount to hold or release.
package resolver

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/payproc/internal/domain"
)

// BlockLookup is the slice of the block store the resolver needs.
type BlockLookup interface {
	Lookup(id domain.TxID) (domain.Transaction, bool, error)
}

// Resolver validates dispute references against stored records.
type Resolver struct {
	store BlockLookup
}

// New returns a resolver reading from store.
func New(store BlockLookup) *Resolver {
	return &Resolver{store: store}
}

// ResolveHold finds the referenced transaction and returns the deposit
// amount in play.
//
// Rejections are TxErrors: the transaction may be unknown, belong to a
// different client, or be a withdrawal. Withdrawals are never disputable;
// well-formed upstream input cannot reach that path, so it is guarded
// here rather than treated as a user outcome. Storage failures surface as
// ordinary errors and abort the run.
func (r *Resolver) ResolveHold(op domain.Kind, client domain.ClientID, id domain.TxID) (decimal.Decimal, error) {
	record, found, err := r.store.Lookup(id)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("lookup tx %s: %w", id, err)
	}
	if !found {
		return decimal.Decimal{}, &domain.TxError{Reason: domain.ReasonUnknownTransaction, Op: op, Client: client, Tx: id}
	}

	if record.ClientID() != client {
		return decimal.Decimal{}, &domain.TxError{Reason: domain.ReasonClientMismatch, Op: op, Client: client, Tx: id}
	}

	deposit, ok := record.(domain.Deposit)
	if !ok {
		return decimal.Decimal{}, &domain.TxError{Reason: domain.ReasonNotDisputable, Op: op, Client: client, Tx: id}
	}

	return deposit.Amount, nil
}
