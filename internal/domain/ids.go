package domain

import "strconv"

// ClientID identifies a client account. Distinct from TxID so the two
// cannot be mixed up at call sites.
type ClientID uint16

func (c ClientID) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// TxID identifies a single transaction within one processing run.
type TxID uint32

func (t TxID) String() string {
	return strconv.FormatUint(uint64(t), 10)
}
