// Package csv reads transaction records from and writes account snapshots
// to the `type, client, tx, amount` CSV format. The same record codec
// encodes block files in the block store, so a block can be decoded with
// the reader that parsed the original input.
package csv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/payproc/internal/domain"
)

// Header is the record header row. Readers accept it case-insensitively;
// writers emit it as is.
var Header = []string{"type", "client", "tx", "amount"}

// ParseRecord decodes one CSV row into a transaction. Rows for dispute,
// resolve and chargeback may omit the amount column entirely. A decode
// failure is an input-file problem and surfaces as an ordinary error, not
// a TxError.
func ParseRecord(fields []string) (domain.Transaction, error) {
	if len(fields) < 3 {
		return nil, fmt.Errorf("record has %d fields, want at least 3", len(fields))
	}

	kind := domain.Kind(strings.ToLower(strings.TrimSpace(fields[0])))

	client64, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("parse client id %q: %w", fields[1], err)
	}
	client := domain.ClientID(client64)

	tx64, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("parse tx id %q: %w", fields[2], err)
	}
	tx := domain.TxID(tx64)

	switch kind {
	case domain.KindDeposit, domain.KindWithdrawal:
		amount, err := parseAmount(fields)
		if err != nil {
			return nil, fmt.Errorf("%s client %s tx %s: %w", kind, client, tx, err)
		}
		if kind == domain.KindDeposit {
			return domain.Deposit{Client: client, Tx: tx, Amount: amount}, nil
		}
		return domain.Withdrawal{Client: client, Tx: tx, Amount: amount}, nil
	case domain.KindDispute:
		return domain.Dispute{Client: client, Tx: tx}, nil
	case domain.KindResolve:
		return domain.Resolve{Client: client, Tx: tx}, nil
	case domain.KindChargeback:
		return domain.Chargeback{Client: client, Tx: tx}, nil
	default:
		return nil, fmt.Errorf("unknown transaction type %q", fields[0])
	}
}

func parseAmount(fields []string) (decimal.Decimal, error) {
	if len(fields) < 4 || strings.TrimSpace(fields[3]) == "" {
		return decimal.Decimal{}, fmt.Errorf("amount not provided")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(fields[3]))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", fields[3], err)
	}
	return amount, nil
}

// EncodeRecord is the inverse of ParseRecord. Dispute-lifecycle records
// encode with an empty amount column.
func EncodeRecord(tx domain.Transaction) []string {
	amount := ""
	switch t := tx.(type) {
	case domain.Deposit:
		amount = t.Amount.String()
	case domain.Withdrawal:
		amount = t.Amount.String()
	}

	return []string{
		string(tx.Kind()),
		tx.ClientID().String(),
		tx.TxID().String(),
		amount,
	}
}
