package ledger_test

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/payproc/internal/domain"
	"github.com/iho/payproc/internal/ledger"
)

// mockResolver is a func-field test double for the dispute resolver.
type mockResolver struct {
	deposits map[domain.TxID]domain.Deposit

	ResolveHoldFunc func(op domain.Kind, client domain.ClientID, id domain.TxID) (decimal.Decimal, error)
}

func newMockResolver(deposits ...domain.Deposit) *mockResolver {
	m := &mockResolver{deposits: make(map[domain.TxID]domain.Deposit)}
	for _, d := range deposits {
		m.deposits[d.Tx] = d
	}
	return m
}

func (m *mockResolver) ResolveHold(op domain.Kind, client domain.ClientID, id domain.TxID) (decimal.Decimal, error) {
	if m.ResolveHoldFunc != nil {
		return m.ResolveHoldFunc(op, client, id)
	}
	deposit, ok := m.deposits[id]
	if !ok {
		return decimal.Decimal{}, &domain.TxError{Reason: domain.ReasonUnknownTransaction, Op: op, Client: client, Tx: id}
	}
	if deposit.Client != client {
		return decimal.Decimal{}, &domain.TxError{Reason: domain.ReasonClientMismatch, Op: op, Client: client, Tx: id}
	}
	return deposit.Amount, nil
}

var errInfra = errors.New("block store unavailable")

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newLedger(deposits ...domain.Deposit) *ledger.Ledger {
	return ledger.New(newMockResolver(deposits...), zerolog.Nop(), nil)
}

func mustApply(t *testing.T, l *ledger.Ledger, txs ...domain.Transaction) {
	t.Helper()
	for _, tx := range txs {
		if err := l.Apply(tx); err != nil {
			t.Fatalf("apply %s tx %s: %v", tx.Kind(), tx.TxID(), err)
		}
	}
}

func account(t *testing.T, l *ledger.Ledger, client domain.ClientID) domain.Account {
	t.Helper()
	acc, ok := l.Account(client)
	if !ok {
		t.Fatalf("account %s not found", client)
	}
	return acc
}

func checkBalances(t *testing.T, acc domain.Account, available, held, total string) {
	t.Helper()
	if !acc.Available.Equal(dec(available)) {
		t.Errorf("expected available %s, got %s", available, acc.Available)
	}
	if !acc.Held.Equal(dec(held)) {
		t.Errorf("expected held %s, got %s", held, acc.Held)
	}
	if !acc.Total.Equal(dec(total)) {
		t.Errorf("expected total %s, got %s", total, acc.Total)
	}
	if !acc.Total.Equal(acc.Available.Add(acc.Held)) {
		t.Errorf("invariant broken: available %s + held %s != total %s", acc.Available, acc.Held, acc.Total)
	}
}

func TestLedger_DepositWithdrawal(t *testing.T) {
	l := newLedger()

	mustApply(t, l,
		domain.Deposit{Client: 1, Tx: 1, Amount: dec("100.0")},
		domain.Withdrawal{Client: 1, Tx: 2, Amount: dec("40.0")},
	)

	checkBalances(t, account(t, l, 1), "60", "0", "60")
}

func TestLedger_WithdrawalInsufficientFunds(t *testing.T) {
	l := newLedger()
	mustApply(t, l, domain.Deposit{Client: 1, Tx: 1, Amount: dec("10")})

	before := account(t, l, 1)
	err := l.Apply(domain.Withdrawal{Client: 1, Tx: 2, Amount: dec("10.01")})

	txErr, ok := domain.AsTxError(err)
	if !ok {
		t.Fatalf("expected TxError, got %v", err)
	}
	if txErr.Reason != domain.ReasonInsufficientFunds {
		t.Errorf("expected reason %s, got %s", domain.ReasonInsufficientFunds, txErr.Reason)
	}

	after := account(t, l, 1)
	checkBalances(t, after, "10", "0", "10")
	if after.Locked != before.Locked {
		t.Error("rejected withdrawal must not change lock state")
	}
}

func TestLedger_DisputeHoldsDepositAmount(t *testing.T) {
	deposit := domain.Deposit{Client: 1, Tx: 1, Amount: dec("100")}
	l := newLedger(deposit)

	mustApply(t, l, deposit, domain.Dispute{Client: 1, Tx: 1})

	checkBalances(t, account(t, l, 1), "0", "100", "100")
}

func TestLedger_DisputeTwiceRejected(t *testing.T) {
	deposit := domain.Deposit{Client: 1, Tx: 1, Amount: dec("100")}
	l := newLedger(deposit)

	mustApply(t, l, deposit, domain.Dispute{Client: 1, Tx: 1})

	err := l.Apply(domain.Dispute{Client: 1, Tx: 1})
	txErr, ok := domain.AsTxError(err)
	if !ok {
		t.Fatalf("expected TxError, got %v", err)
	}
	if txErr.Reason != domain.ReasonAlreadyDisputed {
		t.Errorf("expected reason %s, got %s", domain.ReasonAlreadyDisputed, txErr.Reason)
	}

	checkBalances(t, account(t, l, 1), "0", "100", "100")
}

func TestLedger_DisputeUnknownTransaction(t *testing.T) {
	l := newLedger()
	mustApply(t, l, domain.Deposit{Client: 1, Tx: 1, Amount: dec("100")})

	err := l.Apply(domain.Dispute{Client: 1, Tx: 999})
	txErr, ok := domain.AsTxError(err)
	if !ok {
		t.Fatalf("expected TxError, got %v", err)
	}
	if txErr.Reason != domain.ReasonUnknownTransaction {
		t.Errorf("expected reason %s, got %s", domain.ReasonUnknownTransaction, txErr.Reason)
	}

	// The rejected dispute leaves the balances untouched, and the failed
	// dispute is not remembered as disputed.
	checkBalances(t, account(t, l, 1), "100", "0", "100")
}

func TestLedger_ResolveReversesHold(t *testing.T) {
	deposit := domain.Deposit{Client: 1, Tx: 1, Amount: dec("100")}
	l := newLedger(deposit)

	mustApply(t, l,
		deposit,
		domain.Dispute{Client: 1, Tx: 1},
		domain.Resolve{Client: 1, Tx: 1},
	)

	acc := account(t, l, 1)
	checkBalances(t, acc, "100", "0", "100")
	if acc.Locked {
		t.Error("resolve must not lock the account")
	}
}

func TestLedger_ResolveWithoutDispute(t *testing.T) {
	deposit := domain.Deposit{Client: 1, Tx: 1, Amount: dec("100")}
	l := newLedger(deposit)
	mustApply(t, l, deposit)

	err := l.Apply(domain.Resolve{Client: 1, Tx: 1})
	txErr, ok := domain.AsTxError(err)
	if !ok {
		t.Fatalf("expected TxError, got %v", err)
	}
	if txErr.Reason != domain.ReasonNotDisputed {
		t.Errorf("expected reason %s, got %s", domain.ReasonNotDisputed, txErr.Reason)
	}
}

func TestLedger_ResolveAfterResolveRejected(t *testing.T) {
	deposit := domain.Deposit{Client: 1, Tx: 1, Amount: dec("100")}
	l := newLedger(deposit)

	mustApply(t, l,
		deposit,
		domain.Dispute{Client: 1, Tx: 1},
		domain.Resolve{Client: 1, Tx: 1},
	)

	if err := l.Apply(domain.Resolve{Client: 1, Tx: 1}); err == nil {
		t.Fatal("expected second resolve to be rejected")
	}
	if err := l.Apply(domain.Chargeback{Client: 1, Tx: 1}); err == nil {
		t.Fatal("expected chargeback after resolve to be rejected")
	}

	checkBalances(t, account(t, l, 1), "100", "0", "100")
}

func TestLedger_ChargebackRemovesFundsAndLocks(t *testing.T) {
	deposit := domain.Deposit{Client: 1, Tx: 1, Amount: dec("100.0")}
	l := newLedger(deposit)

	// Deposit 100, withdraw 40, then charge the deposit back: the dispute
	// holds the full 100 even though only 60 is available.
	mustApply(t, l,
		deposit,
		domain.Withdrawal{Client: 1, Tx: 2, Amount: dec("40.0")},
		domain.Dispute{Client: 1, Tx: 1},
		domain.Chargeback{Client: 1, Tx: 1},
	)

	acc := account(t, l, 1)
	checkBalances(t, acc, "-40", "0", "-40")
	if !acc.Locked {
		t.Error("chargeback must lock the account")
	}
}

func TestLedger_LockedAccountRejectsEverything(t *testing.T) {
	deposit := domain.Deposit{Client: 1, Tx: 1, Amount: dec("100")}
	l := newLedger(deposit)

	mustApply(t, l,
		deposit,
		domain.Dispute{Client: 1, Tx: 1},
		domain.Chargeback{Client: 1, Tx: 1},
	)

	txs := []domain.Transaction{
		domain.Deposit{Client: 1, Tx: 5, Amount: dec("1")},
		domain.Withdrawal{Client: 1, Tx: 6, Amount: dec("1")},
		domain.Dispute{Client: 1, Tx: 1},
	}
	for _, tx := range txs {
		err := l.Apply(tx)
		txErr, ok := domain.AsTxError(err)
		if !ok {
			t.Fatalf("%s: expected TxError, got %v", tx.Kind(), err)
		}
		if txErr.Reason != domain.ReasonAccountLocked {
			t.Errorf("%s: expected reason %s, got %s", tx.Kind(), domain.ReasonAccountLocked, txErr.Reason)
		}
	}

	checkBalances(t, account(t, l, 1), "0", "0", "0")
}

func TestLedger_ClientMismatchRejected(t *testing.T) {
	deposit := domain.Deposit{Client: 1, Tx: 1, Amount: dec("100")}
	l := newLedger(deposit)
	mustApply(t, l, deposit)

	err := l.Apply(domain.Dispute{Client: 2, Tx: 1})
	txErr, ok := domain.AsTxError(err)
	if !ok {
		t.Fatalf("expected TxError, got %v", err)
	}
	if txErr.Reason != domain.ReasonClientMismatch {
		t.Errorf("expected reason %s, got %s", domain.ReasonClientMismatch, txErr.Reason)
	}

	// Client 2 was referenced, so its account now exists, untouched.
	checkBalances(t, account(t, l, 2), "0", "0", "0")
	checkBalances(t, account(t, l, 1), "100", "0", "100")
}

func TestLedger_ResolverInfraErrorPropagates(t *testing.T) {
	m := newMockResolver()
	m.ResolveHoldFunc = func(op domain.Kind, client domain.ClientID, id domain.TxID) (decimal.Decimal, error) {
		return decimal.Decimal{}, errInfra
	}
	l := ledger.New(m, zerolog.Nop(), nil)
	mustApply(t, l, domain.Deposit{Client: 1, Tx: 1, Amount: dec("100")})

	err := l.Apply(domain.Dispute{Client: 1, Tx: 1})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if _, ok := domain.AsTxError(err); ok {
		t.Fatalf("infrastructure error must not be a TxError: %v", err)
	}
}

func TestLedger_Snapshots(t *testing.T) {
	l := newLedger()
	mustApply(t, l,
		domain.Deposit{Client: 9, Tx: 1, Amount: dec("1")},
		domain.Deposit{Client: 2, Tx: 2, Amount: dec("2")},
		domain.Deposit{Client: 5, Tx: 3, Amount: dec("3")},
	)

	snapshots := l.Snapshots()
	if len(snapshots) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(snapshots))
	}
	for i, want := range []domain.ClientID{2, 5, 9} {
		if snapshots[i].Client != want {
			t.Errorf("expected client %s at index %d, got %s", want, i, snapshots[i].Client)
		}
	}
}
