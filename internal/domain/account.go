package domain

import "github.com/shopspring/decimal"

// Account is the balance view for one client. Total = Available + Held
// holds after every committed mutation.
//
// All mutating methods are value-to-value: they compute the next account
// state without touching the receiver, and return a TxError (leaving the
// caller's copy untouched) when any check fails. The ledger commits the
// returned value only on success.
type Account struct {
	Client    ClientID
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}

// NewAccount returns a zero-balance account for client.
func NewAccount(client ClientID) Account {
	return Account{
		Client:    client,
		Available: decimal.Zero,
		Held:      decimal.Zero,
		Total:     decimal.Zero,
	}
}

// ApplyDeposit credits amount to available and total.
func (a Account) ApplyDeposit(tx TxID, amount decimal.Decimal) (Account, error) {
	if !amount.IsPositive() {
		return a, &TxError{Reason: ReasonAmountNotPositive, Op: KindDeposit, Client: a.Client, Tx: tx, Amount: amount}
	}

	available, ok := checkedAdd(a.Available, amount)
	if !ok {
		return a, &TxError{Reason: ReasonOverflow, Op: KindDeposit, Client: a.Client, Tx: tx, Amount: amount, Balance: a.Available}
	}
	total, ok := checkedAdd(a.Total, amount)
	if !ok {
		return a, &TxError{Reason: ReasonOverflow, Op: KindDeposit, Client: a.Client, Tx: tx, Amount: amount, Balance: a.Total}
	}

	a.Available = available
	a.Total = total
	return a, nil
}

// ApplyWithdrawal debits amount from available and total.
func (a Account) ApplyWithdrawal(tx TxID, amount decimal.Decimal) (Account, error) {
	if !amount.IsPositive() {
		return a, &TxError{Reason: ReasonAmountNotPositive, Op: KindWithdrawal, Client: a.Client, Tx: tx, Amount: amount}
	}
	if amount.GreaterThan(a.Available) {
		return a, &TxError{Reason: ReasonInsufficientFunds, Op: KindWithdrawal, Client: a.Client, Tx: tx, Amount: amount, Balance: a.Available}
	}

	a.Available = a.Available.Sub(amount)
	a.Total = a.Total.Sub(amount)
	return a, nil
}

// ApplyHold moves amount from available to held for a dispute. Total is
// unchanged. Available is allowed to go negative: the disputed deposit may
// already have been spent, and the hold tracks the full disputed amount
// regardless.
func (a Account) ApplyHold(tx TxID, amount decimal.Decimal) (Account, error) {
	available, ok := checkedSub(a.Available, amount)
	if !ok {
		return a, &TxError{Reason: ReasonOverflow, Op: KindDispute, Client: a.Client, Tx: tx, Amount: amount, Balance: a.Available}
	}
	held, ok := checkedAdd(a.Held, amount)
	if !ok {
		return a, &TxError{Reason: ReasonOverflow, Op: KindDispute, Client: a.Client, Tx: tx, Amount: amount, Balance: a.Held}
	}

	a.Available = available
	a.Held = held
	return a, nil
}

// ApplyRelease reverses a hold on dispute resolution: amount moves from
// held back to available.
func (a Account) ApplyRelease(tx TxID, amount decimal.Decimal) (Account, error) {
	if amount.GreaterThan(a.Held) {
		// Unreachable through the ledger state machine: held always covers
		// the sum of active disputes.
		return a, &TxError{Reason: ReasonInsufficientFunds, Op: KindResolve, Client: a.Client, Tx: tx, Amount: amount, Balance: a.Held}
	}
	available, ok := checkedAdd(a.Available, amount)
	if !ok {
		return a, &TxError{Reason: ReasonOverflow, Op: KindResolve, Client: a.Client, Tx: tx, Amount: amount, Balance: a.Available}
	}

	a.Available = available
	a.Held = a.Held.Sub(amount)
	return a, nil
}

// ApplyChargeback removes a held amount permanently and locks the account.
func (a Account) ApplyChargeback(tx TxID, amount decimal.Decimal) (Account, error) {
	if amount.GreaterThan(a.Held) {
		// Unreachable through the ledger state machine, same as ApplyRelease.
		return a, &TxError{Reason: ReasonInsufficientFunds, Op: KindChargeback, Client: a.Client, Tx: tx, Amount: amount, Balance: a.Held}
	}

	a.Held = a.Held.Sub(amount)
	a.Total = a.Total.Sub(amount)
	a.Locked = true
	return a, nil
}
