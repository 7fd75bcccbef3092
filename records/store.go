// Package records keeps the durable scores of every attendee ever met.
package records

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/jonboulle/clockwork"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/renaissanceio/renio/codec"
	"github.com/renaissanceio/renio/filesystem"
)

var (
	// ErrNoPath is returned by Save for a store that is not backed by a file.
	ErrNoPath = errors.New("records store has no path")
	// ErrLocked is returned by Save when another writer holds the lock file.
	ErrLocked = errors.New("records file is locked")
)

const lockSuffix = ".lock"

type Opt func(*Store)

func WithLogger(logger *zap.Logger) Opt {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithClock(clock clockwork.Clock) Opt {
	return func(s *Store) {
		s.clock = clock
	}
}

// Store owns the ordered collection of records.
//
// Pointers returned by GetOrCreate and Get point into the store. They may be
// mutated only by the single writer that also calls Save.
type Store struct {
	logger *zap.Logger
	clock  clockwork.Clock
	path   string

	mu      sync.Mutex
	records []*Record
	index   map[string]*Record
}

// New creates an empty store that lives only in memory.
func New(opts ...Opt) *Store {
	s := &Store{
		logger: zap.NewNop(),
		clock:  clockwork.NewRealClock(),
		index:  map[string]*Record{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store backed by the file at path and loads it if the file exists.
func Open(path string, opts ...Opt) (*Store, error) {
	s := New(opts...)
	s.path = filesystem.GetCanonicalPath(path)
	buf, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("no records file, starting empty", zap.String("path", s.path))
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read records %s: %w", s.path, err)
	}
	records, err := codec.DecodeSlice[Record](buf)
	if err != nil {
		return nil, fmt.Errorf("load records %s: %w", s.path, err)
	}
	for i := range records {
		record := &records[i]
		if _, exists := s.index[record.Identity]; exists {
			s.logger.Warn("duplicate record ignored", zap.Object("record", record))
			continue
		}
		s.records = append(s.records, record)
		s.index[record.Identity] = record
	}
	recordsCount.Set(float64(len(s.records)))
	s.logger.Info("loaded records", zap.String("path", s.path), zap.Int("count", len(s.records)))
	return s, nil
}

// Path of the backing file, empty for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// GetOrCreate returns the record for identity, appending a zero score record the first time.
func (s *Store) GetOrCreate(identity string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.index[identity]; ok {
		return record
	}
	record := &Record{Identity: identity, LastUpdated: s.clock.Now()}
	s.records = append(s.records, record)
	s.index[identity] = record
	recordsCount.Set(float64(len(s.records)))
	s.logger.Debug("new record", zap.String("identity", identity))
	return record
}

// Get returns the record for identity if it exists.
func (s *Store) Get(identity string) (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.index[identity]
	return record, ok
}

// IncrementScoreByAmount adds amount to the record of identity, creating it if needed,
// and returns a copy of the updated record.
func (s *Store) IncrementScoreByAmount(identity string, amount uint64) Record {
	record := s.GetOrCreate(identity)
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	record.IncrementScoreByAmount(amount, now)
	return *record
}

// Len is the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Records returns copies of all records in insertion order.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Top returns up to n records with the highest score. Ties go to the most recently updated.
// A non-positive n returns all records.
func (s *Store) Top(n int) []Record {
	records := s.Records()
	slices.SortStableFunc(records, func(a, b Record) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return b.LastUpdated.Compare(a.LastUpdated)
	})
	if n > 0 && n < len(records) {
		records = records[:n]
	}
	return records
}

func (s *Store) snapshot() []Record {
	rst := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		rst = append(rst, *record)
	}
	return rst
}

// Save writes every record to a temporary file and renames it over the previous one.
// Records with identities longer than MaxIdentityLength stay in memory only.
// On failure the previous file is left as it was.
func (s *Store) Save() error {
	if s.path == "" {
		return ErrNoPath
	}
	start := time.Now()
	err := s.save()
	if err != nil {
		saveFailed.Observe(time.Since(start).Seconds())
		s.logger.Warn("failed to save records", zap.String("path", s.path), zap.Error(err))
		return err
	}
	saveOk.Observe(time.Since(start).Seconds())
	return nil
}

func (s *Store) save() error {
	s.mu.Lock()
	records := s.snapshot()
	s.mu.Unlock()

	records = slices.DeleteFunc(records, func(r Record) bool {
		if len(r.Identity) <= MaxIdentityLength {
			return false
		}
		s.logger.Warn("record identity too long to persist, skipped",
			zap.Int("length", len(r.Identity)),
			zap.Int("max", MaxIdentityLength),
		)
		return true
	})
	buf, err := codec.EncodeSlice(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := filesystem.ExistOrCreate(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("records directory: %w", err)
	}
	lock := flock.New(s.path + lockSuffix)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLocked, lock.Path())
	}
	defer lock.Unlock()
	if err := atomic.WriteFile(s.path, bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("write records %s: %w", s.path, err)
	}
	s.logger.Debug("saved records",
		zap.String("path", s.path),
		zap.Int("count", len(records)),
		zap.Int("bytes", len(buf)),
	)
	return nil
}
