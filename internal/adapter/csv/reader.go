package csv

import (
	enccsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iho/payproc/internal/domain"
)

// Reader streams transactions from CSV input, one record per Next call.
// The stream is forward-only and single-pass.
type Reader struct {
	cr   *enccsv.Reader
	line int
}

// NewReader wraps r. A leading header row is skipped when present. Rows
// may carry an amount column or not (dispute rows commonly omit it), and
// leading whitespace in fields is ignored.
func NewReader(r io.Reader) *Reader {
	cr := enccsv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &Reader{cr: cr}
}

// Next returns the next transaction, or io.EOF when the stream ends. Any
// other error means the input file is malformed and the run should stop.
func (r *Reader) Next() (domain.Transaction, error) {
	for {
		fields, err := r.cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		r.line++

		if r.line == 1 && isHeader(fields) {
			continue
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			continue
		}

		tx, err := ParseRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", r.line, err)
		}
		return tx, nil
	}
}

func isHeader(fields []string) bool {
	return len(fields) > 0 && strings.EqualFold(strings.TrimSpace(fields[0]), "type")
}
