package gen_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	csvadapter "github.com/iho/payproc/internal/adapter/csv"
	"github.com/iho/payproc/internal/gen"
)

func TestWrite_RejectsSmallLimits(t *testing.T) {
	var sb strings.Builder
	if err := gen.Write(&sb, 1000, nil); err == nil {
		t.Fatal("expected error for limit below the client space")
	}
}

func TestWrite_ProducesParseableWorkload(t *testing.T) {
	var sb strings.Builder
	var emitted int
	if err := gen.Write(&sb, gen.MinTransactions+200, func(n int) { emitted += n }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if emitted != gen.MinTransactions+200 {
		t.Errorf("expected %d progress ticks, got %d", gen.MinTransactions+200, emitted)
	}

	r := csvadapter.NewReader(strings.NewReader(sb.String()))
	records := 0
	for {
		if _, err := r.Next(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			t.Fatalf("record %d: %v", records, err)
		}
		records++
	}

	// Dispute rows are extra lines on top of the counted transactions,
	// so the workload is at least limit records long.
	if records < gen.MinTransactions+200 {
		t.Errorf("expected at least %d records, got %d", gen.MinTransactions+200, records)
	}
}

func TestWrite_SeedsEveryClient(t *testing.T) {
	var sb strings.Builder
	if err := gen.Write(&sb, gen.MinTransactions, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	// Header plus one seed deposit per client.
	if len(lines) != gen.MinTransactions+1 {
		t.Fatalf("expected %d lines, got %d", gen.MinTransactions+1, len(lines))
	}
	if lines[1] != "deposit, 0, 0, 100000.0" {
		t.Errorf("unexpected first record: %q", lines[1])
	}
	if lines[len(lines)-1] != "deposit, 65535, 65535, 100000.0" {
		t.Errorf("unexpected last seed record: %q", lines[len(lines)-1])
	}
}
