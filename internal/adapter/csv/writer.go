package csv

import (
	enccsv "encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/iho/payproc/internal/domain"
)

var snapshotHeader = []string{"client", "available", "held", "total", "locked"}

// WriteSnapshots writes the final account snapshots as CSV, header first,
// in the order given.
func WriteSnapshots(w io.Writer, accounts []domain.Account) error {
	cw := enccsv.NewWriter(w)

	if err := cw.Write(snapshotHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, account := range accounts {
		row := []string{
			account.Client.String(),
			account.Available.String(),
			account.Held.String(),
			account.Total.String(),
			strconv.FormatBool(account.Locked),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write account %s: %w", account.Client, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush snapshots: %w", err)
	}
	return nil
}

// WriteRecords writes transaction records with the record header, used by
// the block store to persist sealed blocks.
func WriteRecords(w io.Writer, records []domain.Transaction) error {
	cw := enccsv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, record := range records {
		if err := cw.Write(EncodeRecord(record)); err != nil {
			return fmt.Errorf("write record %s: %w", record.TxID(), err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return nil
}
