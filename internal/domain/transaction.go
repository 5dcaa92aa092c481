package domain

import "github.com/shopspring/decimal"

// Kind names a transaction type as it appears on the wire.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindDispute    Kind = "dispute"
	KindResolve    Kind = "resolve"
	KindChargeback Kind = "chargeback"
)

// Transaction is the closed set of transaction records. Each kind carries
// only the fields that apply to it; dispute-lifecycle records have no
// amount of their own.
type Transaction interface {
	Kind() Kind
	ClientID() ClientID
	TxID() TxID

	transaction()
}

// Deposit credits the client's account.
type Deposit struct {
	Client ClientID
	Tx     TxID
	Amount decimal.Decimal
}

func (d Deposit) Kind() Kind         { return KindDeposit }
func (d Deposit) ClientID() ClientID { return d.Client }
func (d Deposit) TxID() TxID         { return d.Tx }
func (d Deposit) transaction()       {}

// Withdrawal debits the client's account.
type Withdrawal struct {
	Client ClientID
	Tx     TxID
	Amount decimal.Decimal
}

func (w Withdrawal) Kind() Kind         { return KindWithdrawal }
func (w Withdrawal) ClientID() ClientID { return w.Client }
func (w Withdrawal) TxID() TxID         { return w.Tx }
func (w Withdrawal) transaction()       {}

// Dispute is the client's claim that an earlier deposit was erroneous.
// It references the disputed transaction by ID; the amount is looked up
// from storage.
type Dispute struct {
	Client ClientID
	Tx     TxID
}

func (d Dispute) Kind() Kind         { return KindDispute }
func (d Dispute) ClientID() ClientID { return d.Client }
func (d Dispute) TxID() TxID         { return d.Tx }
func (d Dispute) transaction()       {}

// Resolve settles a dispute in the client's favour, releasing held funds.
type Resolve struct {
	Client ClientID
	Tx     TxID
}

func (r Resolve) Kind() Kind         { return KindResolve }
func (r Resolve) ClientID() ClientID { return r.Client }
func (r Resolve) TxID() TxID         { return r.Tx }
func (r Resolve) transaction()       {}

// Chargeback settles a dispute against the account, permanently removing
// the held funds and locking the account.
type Chargeback struct {
	Client ClientID
	Tx     TxID
}

func (c Chargeback) Kind() Kind         { return KindChargeback }
func (c Chargeback) ClientID() ClientID { return c.Client }
func (c Chargeback) TxID() TxID         { return c.Tx }
func (c Chargeback) transaction()       {}
