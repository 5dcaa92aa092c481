// Package ledger holds the in-memory account balances and drives the
// per-transaction state machine, including the dispute lifecycle.
package ledger

import (
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/payproc/internal/domain"
	"github.com/iho/payproc/internal/infrastructure/metrics"
)

// HoldResolver resolves a dispute reference to the disputed deposit's
// amount.
type HoldResolver interface {
	ResolveHold(op domain.Kind, client domain.ClientID, id domain.TxID) (decimal.Decimal, error)
}

// Ledger maps clients to accounts and applies transactions atomically:
// the next account state is computed against a copy and committed only
// when every check has passed, so a rejected transaction leaves the
// account exactly as it was.
type Ledger struct {
	log      zerolog.Logger
	metrics  *metrics.Metrics
	resolver HoldResolver
	accounts map[domain.ClientID]domain.Account
	disputes map[domain.TxID]domain.DisputeState
}

// New returns an empty ledger resolving dispute amounts through resolver.
func New(resolver HoldResolver, log zerolog.Logger, m *metrics.Metrics) *Ledger {
	return &Ledger{
		log:      log.With().Str("component", "ledger").Logger(),
		metrics:  m,
		resolver: resolver,
		accounts: make(map[domain.ClientID]domain.Account),
		disputes: make(map[domain.TxID]domain.DisputeState),
	}
}

// Apply routes one transaction through the state machine. A returned
// TxError means the transaction was rejected and nothing changed; any
// other error is an infrastructure failure.
func (l *Ledger) Apply(tx domain.Transaction) error {
	account := l.accountFor(tx.ClientID())

	if account.Locked {
		return &domain.TxError{Reason: domain.ReasonAccountLocked, Op: tx.Kind(), Client: tx.ClientID(), Tx: tx.TxID()}
	}

	var (
		next domain.Account
		err  error
	)

	switch t := tx.(type) {
	case domain.Deposit:
		next, err = account.ApplyDeposit(t.Tx, t.Amount)

	case domain.Withdrawal:
		next, err = account.ApplyWithdrawal(t.Tx, t.Amount)

	case domain.Dispute:
		next, err = l.applyDispute(account, t)

	case domain.Resolve:
		next, err = l.applyResolve(account, t)

	case domain.Chargeback:
		next, err = l.applyChargeback(account, t)
	}

	if err != nil {
		return err
	}

	if next.Locked && !account.Locked && l.metrics != nil {
		l.metrics.AccountsLocked.Inc()
	}

	l.accounts[tx.ClientID()] = next
	return nil
}

func (l *Ledger) applyDispute(account domain.Account, t domain.Dispute) (domain.Account, error) {
	if l.disputeState(t.Tx) != domain.DisputeStateNormal {
		return account, &domain.TxError{Reason: domain.ReasonAlreadyDisputed, Op: domain.KindDispute, Client: t.Client, Tx: t.Tx}
	}

	amount, err := l.resolver.ResolveHold(domain.KindDispute, t.Client, t.Tx)
	if err != nil {
		return account, err
	}

	next, err := account.ApplyHold(t.Tx, amount)
	if err != nil {
		return account, err
	}

	l.disputes[t.Tx] = domain.DisputeStateDisputed
	return next, nil
}

func (l *Ledger) applyResolve(account domain.Account, t domain.Resolve) (domain.Account, error) {
	if l.disputeState(t.Tx) != domain.DisputeStateDisputed {
		return account, &domain.TxError{Reason: domain.ReasonNotDisputed, Op: domain.KindResolve, Client: t.Client, Tx: t.Tx}
	}

	amount, err := l.resolver.ResolveHold(domain.KindResolve, t.Client, t.Tx)
	if err != nil {
		return account, err
	}

	next, err := account.ApplyRelease(t.Tx, amount)
	if err != nil {
		return account, err
	}

	l.disputes[t.Tx] = domain.DisputeStateResolved
	return next, nil
}

func (l *Ledger) applyChargeback(account domain.Account, t domain.Chargeback) (domain.Account, error) {
	if l.disputeState(t.Tx) != domain.DisputeStateDisputed {
		return account, &domain.TxError{Reason: domain.ReasonNotDisputed, Op: domain.KindChargeback, Client: t.Client, Tx: t.Tx}
	}

	amount, err := l.resolver.ResolveHold(domain.KindChargeback, t.Client, t.Tx)
	if err != nil {
		return account, err
	}

	next, err := account.ApplyChargeback(t.Tx, amount)
	if err != nil {
		return account, err
	}

	l.disputes[t.Tx] = domain.DisputeStateChargedBack
	l.log.Debug().
		Str("client", t.Client.String()).
		Str("tx", t.Tx.String()).
		Msg("account locked by chargeback")
	return next, nil
}

// accountFor returns the client's account, creating it on first
// reference. Accounts exist from first mention onward even when the
// referencing transaction is rejected.
func (l *Ledger) accountFor(client domain.ClientID) domain.Account {
	account, ok := l.accounts[client]
	if !ok {
		account = domain.NewAccount(client)
		l.accounts[client] = account
		if l.metrics != nil {
			l.metrics.AccountsCreated.Inc()
		}
	}
	return account
}

func (l *Ledger) disputeState(id domain.TxID) domain.DisputeState {
	if state, ok := l.disputes[id]; ok {
		return state
	}
	return domain.DisputeStateNormal
}

// Account returns the current state for client, if it has been seen.
func (l *Ledger) Account(client domain.ClientID) (domain.Account, bool) {
	account, ok := l.accounts[client]
	return account, ok
}

// Snapshots returns every account ordered by client ID.
func (l *Ledger) Snapshots() []domain.Account {
	accounts := make([]domain.Account, 0, len(l.accounts))
	for _, account := range l.accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Client < accounts[j].Client
	})
	return accounts
}
