// Package gen writes synthetic transaction workloads for load testing
// the processor.
package gen

import (
	"bufio"
	"fmt"
	"io"
)

// MinTransactions seeds one deposit per possible client, so smaller
// workloads cannot cover the client ID space.
const MinTransactions = 65_536

// Write emits a CSV workload of limit transaction rounds: a seed
// deposit for every client, then mixed traffic where roughly every 31st
// round opens a dispute that may settle either way, so dispute rounds
// emit more than one line. progress, when non-nil, is called once per
// round.
func Write(w io.Writer, limit int, progress func(n int)) error {
	if limit < MinTransactions {
		return fmt.Errorf("%d transactions is too small, need at least %d", limit, MinTransactions)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "type, client, tx, amount")

	for i := 0; i < MinTransactions; i++ {
		fmt.Fprintf(bw, "deposit, %d, %d, 100000.0\n", i, i)
		if progress != nil {
			progress(1)
		}
	}

	for i := MinTransactions; i < limit; i++ {
		client := i % MinTransactions
		switch {
		case i%31 == 0:
			fmt.Fprintf(bw, "deposit, %d, %d, 150.0\n", client, i)
			fmt.Fprintf(bw, "dispute, %d, %d,\n", client, i)
			if i%8 == 0 {
				fmt.Fprintf(bw, "chargeback, %d, %d,\n", client, i)
			} else if i%4 == 0 {
				fmt.Fprintf(bw, "resolve, %d, %d,\n", client, i)
			}
		case i%2 == 0:
			fmt.Fprintf(bw, "deposit, %d, %d, 150.0\n", client, i)
		default:
			fmt.Fprintf(bw, "withdrawal, %d, %d, 10.0\n", client, i)
		}
		if progress != nil {
			progress(1)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush workload: %w", err)
	}
	return nil
}
