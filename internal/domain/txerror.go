package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// RejectReason classifies why a transaction was rejected.
type RejectReason string

const (
	ReasonInsufficientFunds  RejectReason = "insufficient_funds"
	ReasonUnknownTransaction RejectReason = "unknown_transaction"
	ReasonAlreadyDisputed    RejectReason = "already_disputed"
	ReasonNotDisputed        RejectReason = "not_disputed"
	ReasonNotDisputable      RejectReason = "not_disputable"
	ReasonClientMismatch     RejectReason = "client_mismatch"
	ReasonOverflow           RejectReason = "overflow"
	ReasonAccountLocked      RejectReason = "account_locked"
	ReasonAmountNotPositive  RejectReason = "amount_not_positive"
)

// TxError is an expected, per-transaction rejection. The triggering
// transaction is skipped and the account left untouched; processing
// continues. Infrastructure failures are ordinary errors and are never
// represented as a TxError.
type TxError struct {
	Reason RejectReason
	Op     Kind
	Client ClientID
	Tx     TxID

	// Amount is the amount the operation attempted to move, when one
	// applies. Balance is the account figure the rejection was judged
	// against (available for withdrawals, held for resolves, and so on).
	Amount  decimal.Decimal
	Balance decimal.Decimal
}

func (e *TxError) Error() string {
	switch e.Reason {
	case ReasonInsufficientFunds:
		return fmt.Sprintf("%s rejected: insufficient funds: client %s, tx %s, balance %s, amount %s",
			e.Op, e.Client, e.Tx, e.Balance, e.Amount)
	case ReasonOverflow:
		return fmt.Sprintf("%s rejected: balance overflow: client %s, tx %s, balance %s, amount %s",
			e.Op, e.Client, e.Tx, e.Balance, e.Amount)
	case ReasonAmountNotPositive:
		return fmt.Sprintf("%s rejected: amount must be positive: client %s, tx %s, amount %s",
			e.Op, e.Client, e.Tx, e.Amount)
	default:
		return fmt.Sprintf("%s rejected: %s: client %s, tx %s", e.Op, e.Reason, e.Client, e.Tx)
	}
}

// AsTxError reports whether err is (or wraps) a TxError.
func AsTxError(err error) (*TxError, bool) {
	var txErr *TxError
	if errors.As(err, &txErr) {
		return txErr, true
	}
	return nil, false
}
