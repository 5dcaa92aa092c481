// Package blockstore persists deposit and withdrawal records in fixed
// capacity block files so disputes can look prior transactions back up
// without holding the whole stream in memory.
//
// Records accumulate in one open block. At capacity the block is sealed:
// written out as `<min>_<max>.csv`, named by the inclusive range of
// transaction IDs it holds, and registered for lookup. Sealed blocks are
// immutable; the registry stays sorted because the stream hands us IDs in
// increasing order, so a lookup is a binary search over ranges followed by
// a scan of one block file.
package blockstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	csvadapter "github.com/iho/payproc/internal/adapter/csv"
	"github.com/iho/payproc/internal/domain"
	"github.com/iho/payproc/internal/infrastructure/metrics"
)

// DefaultCapacity is the number of records per block.
const DefaultCapacity = 10_000

// ErrClosed is returned when the store is used after Close.
var ErrClosed = errors.New("block store is closed")

// Config holds block store settings.
type Config struct {
	// Dir is the directory for sealed block files. Empty means a private
	// temp directory, removed on Close.
	Dir string
	// Capacity is the record count at which a block seals. Zero means
	// DefaultCapacity.
	Capacity int
	// RunID tags the temp directory name so concurrent runs do not
	// collide.
	RunID string
}

// Store is the chunked transaction store. A single writer appends;
// lookups may run concurrently with appends because sealed blocks are
// immutable and the open block is only read under the store lock.
type Store struct {
	log      zerolog.Logger
	metrics  *metrics.Metrics
	dir      string
	ownsDir  bool
	capacity int

	mu     sync.RWMutex
	open   []domain.Transaction
	sealed []blockRef
	closed bool
}

type blockRef struct {
	min  domain.TxID
	max  domain.TxID
	path string
}

// New creates a block store writing under cfg.Dir.
func New(cfg Config, log zerolog.Logger, m *metrics.Metrics) (*Store, error) {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	dir := cfg.Dir
	ownsDir := false
	if dir == "" {
		pattern := "payproc-blocks-"
		if cfg.RunID != "" {
			pattern += cfg.RunID + "-"
		}
		tmp, err := os.MkdirTemp("", pattern)
		if err != nil {
			return nil, fmt.Errorf("create block store dir: %w", err)
		}
		dir = tmp
		ownsDir = true
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create block store dir %s: %w", dir, err)
	}

	return &Store{
		log:      log.With().Str("component", "blockstore").Logger(),
		metrics:  m,
		dir:      dir,
		ownsDir:  ownsDir,
		capacity: capacity,
		open:     make([]domain.Transaction, 0, capacity),
	}, nil
}

// Dir returns the directory holding sealed block files.
func (s *Store) Dir() string {
	return s.dir
}

// Append adds a monetary record to the open block, sealing it at
// capacity. Only deposits and withdrawals are storable; routing anything
// else here is a programming error surfaced as an infrastructure error.
func (s *Store) Append(record domain.Transaction) error {
	switch record.(type) {
	case domain.Deposit, domain.Withdrawal:
	default:
		return fmt.Errorf("record kind %s is not storable", record.Kind())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.open = append(s.open, record)
	if s.metrics != nil {
		s.metrics.BlockRecords.Inc()
	}

	if len(s.open) >= s.capacity {
		return s.sealLocked()
	}
	return nil
}

// Flush seals the open block, if any. Called once at stream end.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if len(s.open) == 0 {
		return nil
	}
	return s.sealLocked()
}

// sealLocked persists the open block and registers its ID range. Caller
// holds the write lock.
func (s *Store) sealLocked() error {
	min, max := s.open[0].TxID(), s.open[0].TxID()
	for _, record := range s.open[1:] {
		if id := record.TxID(); id < min {
			min = id
		} else if id > max {
			max = id
		}
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%d_%d.csv", min, max))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create block file %s: %w", path, err)
	}
	if err := csvadapter.WriteRecords(f, s.open); err != nil {
		f.Close()
		return fmt.Errorf("write block %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close block file %s: %w", path, err)
	}

	s.sealed = append(s.sealed, blockRef{min: min, max: max, path: path})
	s.open = s.open[:0]

	if s.metrics != nil {
		s.metrics.BlocksSealed.Inc()
	}
	s.log.Debug().
		Uint32("min_tx", uint32(min)).
		Uint32("max_tx", uint32(max)).
		Int("blocks", len(s.sealed)).
		Msg("sealed block")

	return nil
}

// Lookup finds the stored record with the given transaction ID. Absence
// is an expected outcome and reported via found=false, never an error.
func (s *Store) Lookup(id domain.TxID) (domain.Transaction, bool, error) {
	s.mu.RLock()

	if s.closed {
		s.mu.RUnlock()
		return nil, false, ErrClosed
	}

	// The open block is owned by the append path; scanning it here under
	// the read lock keeps recent, unsealed records visible to disputes.
	for _, record := range s.open {
		if record.TxID() == id {
			s.mu.RUnlock()
			s.countLookup("hit")
			return record, true, nil
		}
	}

	ref, ok := s.findBlockLocked(id)
	s.mu.RUnlock()

	if !ok {
		s.countLookup("miss")
		return nil, false, nil
	}

	record, found, err := s.scanBlock(ref, id)
	if err != nil {
		return nil, false, err
	}
	if !found {
		s.countLookup("miss")
		return nil, false, nil
	}
	s.countLookup("hit")
	return record, true, nil
}

// findBlockLocked binary-searches the sealed ranges for one containing
// id. Ranges are sorted and non-overlapping, so at most one matches.
func (s *Store) findBlockLocked(id domain.TxID) (blockRef, bool) {
	i := sort.Search(len(s.sealed), func(i int) bool {
		return s.sealed[i].max >= id
	})
	if i < len(s.sealed) && s.sealed[i].min <= id {
		return s.sealed[i], true
	}
	return blockRef{}, false
}

// scanBlock re-reads a sealed block file and scans it for id. Sealed
// files are immutable, so no lock is held during the read.
func (s *Store) scanBlock(ref blockRef, id domain.TxID) (domain.Transaction, bool, error) {
	f, err := os.Open(ref.path)
	if err != nil {
		return nil, false, fmt.Errorf("open block file %s: %w", ref.path, err)
	}
	defer f.Close()

	r := csvadapter.NewReader(f)
	for {
		record, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("corrupted block file %s: %w", ref.path, err)
		}
		if record.TxID() == id {
			return record, true, nil
		}
	}
}

func (s *Store) countLookup(result string) {
	if s.metrics != nil {
		s.metrics.BlockLookups.WithLabelValues(result).Inc()
	}
}

// Close releases the store. A store-owned temp directory is removed;
// caller-provided directories are left in place.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.open = nil
	s.sealed = nil

	if s.ownsDir {
		if err := os.RemoveAll(s.dir); err != nil {
			return fmt.Errorf("remove block store dir %s: %w", s.dir, err)
		}
	}
	return nil
}
