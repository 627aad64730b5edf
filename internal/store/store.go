// Package store implements the Store component of the data model: the
// coordinator that owns the active log file, the in-memory index, and the
// reduce (compaction) pipeline (spec.md §4.3, §4.4).
package store

import (
	stdErrors "errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sergey-melnychuk/yalskv/internal/index"
	"github.com/sergey-melnychuk/yalskv/internal/logfile"
	"github.com/sergey-melnychuk/yalskv/internal/reduce"
	yerrors "github.com/sergey-melnychuk/yalskv/pkg/errors"
	"github.com/sergey-melnychuk/yalskv/pkg/filesys"
	"github.com/sergey-melnychuk/yalskv/pkg/options"
)

// ErrClosed is returned by Close when the store is already closed. Insert,
// Remove, Lookup and Reduce called after Close return a UsageError with
// ErrorCodeClosed instead.
var ErrClosed = stdErrors.New("operation failed: store is closed")

// Store coordinates the active log file and the in-memory index, and
// drives the reduce pipeline (spec.md §3's Store{active_file_id,
// base_directory, FileId→LogFile, Key→IndexEntry}).
type Store struct {
	baseDir      string
	activeFileID uint64
	active       *logfile.File
	files        map[uint64]*logfile.File
	idx          *index.Index
	opts         options.Options
	log          *zap.SugaredLogger
	closed       atomic.Bool
}

// Open creates or recovers a Store rooted at baseDir: an empty directory
// bootstraps a fresh active file at FileId 1; a directory containing prior
// log files is recovered by replaying them all in FileId order before the
// highest-numbered file is resumed as active (spec.md §4.3, §9 O1).
func Open(baseDir string, opts ...options.Option) (*Store, error) {
	if baseDir == "" {
		return nil, yerrors.NewRequiredFieldError("baseDir")
	}

	cfg := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	log.Infow("opening store", "baseDir", baseDir)
	if err := filesys.CreateDir(baseDir, 0755, true); err != nil {
		return nil, yerrors.ClassifyDirectoryCreationError(err, baseDir)
	}

	rec, err := recover(baseDir, cfg.MaxKeyLen, cfg.MaxValLen, log)
	if err != nil {
		return nil, err
	}

	idx, err := index.New(&index.Config{
		Logger:                 log,
		BloomEnabled:           cfg.BloomEnabled,
		BloomExpectedEntries:   cfg.BloomExpectedEntries,
		BloomFalsePositiveRate: cfg.BloomFalsePositiveRate,
	})
	if err != nil {
		return nil, err
	}
	for k, e := range rec.entries {
		idx.Put(k, e)
	}

	active, err := logfile.Open(rec.activeFileID, FilePath(baseDir, rec.activeFileID), cfg.MaxKeyLen, cfg.MaxValLen)
	if err != nil {
		return nil, err
	}

	log.Infow("store opened", "baseDir", baseDir, "activeFileId", rec.activeFileID, "recoveredKeys", idx.Len())
	return &Store{
		baseDir:      baseDir,
		activeFileID: rec.activeFileID,
		active:       active,
		files:        map[uint64]*logfile.File{rec.activeFileID: active},
		idx:          idx,
		opts:         cfg,
		log:          log,
	}, nil
}

func (s *Store) requireOpen() error {
	if s.closed.Load() {
		return yerrors.NewUsageError(yerrors.ErrorCodeClosed, "operation attempted on a closed store")
	}
	return nil
}

// Insert appends an Insert(key, val) record to the active log and records
// its location under key in the index, overwriting any prior mapping.
func (s *Store) Insert(key, val []byte) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	fileID, valOff, valLen, err := s.active.AppendInsert(key, val)
	if err != nil {
		return err
	}
	s.idx.Put(string(key), index.Entry{FileID: fileID, ValueOffset: valOff, ValueLen: valLen})
	return nil
}

// Remove appends a Remove(key) tombstone to the active log unconditionally,
// removes key from the index, and reports whether key was present before
// removal.
func (s *Store) Remove(key []byte) (bool, error) {
	if err := s.requireOpen(); err != nil {
		return false, err
	}
	if err := s.active.AppendRemove(key); err != nil {
		return false, err
	}
	return s.idx.Delete(string(key)), nil
}

// Lookup returns the current value for key, or (nil, nil) if key is absent.
// It never disturbs the active log's append cursor: reads against the
// active file go through PositionalRead, and reads against any other
// resident file are opened lazily and read-only from the store's
// perspective (SPEC_FULL.md §4.2.1).
func (s *Store) Lookup(key []byte) ([]byte, error) {
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	entry, ok := s.idx.Get(string(key))
	if !ok {
		return nil, nil
	}

	f, err := s.fileFor(entry.FileID)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, entry.ValueLen)
	if err := f.PositionalRead(entry.ValueOffset, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// fileFor returns the open *logfile.File for fileID, opening it lazily and
// caching the handle for the Store's lifetime if it isn't resident yet.
func (s *Store) fileFor(fileID uint64) (*logfile.File, error) {
	if f, ok := s.files[fileID]; ok {
		return f, nil
	}
	f, err := logfile.Open(fileID, FilePath(s.baseDir, fileID), s.opts.MaxKeyLen, s.opts.MaxValLen)
	if err != nil {
		return nil, err
	}
	s.files[fileID] = f
	return f, nil
}

// Len returns the number of keys currently indexed.
func (s *Store) Len() int { return s.idx.Len() }

// IsEmpty reports whether the store holds no keys.
func (s *Store) IsEmpty() bool { return s.idx.IsEmpty() }

// File exposes the active log file for in-order iteration, e.g. after
// Reduce. Callers are responsible for the Appending/Iterating protocol
// (spec.md §4.2, §4.3).
func (s *Store) File() *logfile.File { return s.active }

// Reduce compacts the active log file so that every key appears at most
// once in ascending order with only Insert records remaining (invariant
// I4), replacing the in-memory index with one pointing into the rewritten
// file (spec.md §4.4).
func (s *Store) Reduce(limit int64) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	if limit <= 0 {
		return yerrors.NewUsageError(yerrors.ErrorCodeInvalidLimit, "reduce limit must be positive").
			WithOperation("reduce").WithDetail("limit", limit)
	}

	result, err := reduce.Run(reduce.Config{
		BaseDir:    s.baseDir,
		ActiveFile: s.active,
		ActiveID:   s.activeFileID,
		MaxKeyLen:  s.opts.MaxKeyLen,
		MaxValLen:  s.opts.MaxValLen,
		ChunkLimit: limit,
		Logger:     s.log,
	})
	if err != nil {
		return err
	}

	fresh := make(map[string]index.Entry, len(result.Entries))
	for k, v := range result.Entries {
		fresh[k] = v
	}
	s.idx.Reset(fresh, s.opts.BloomExpectedEntries, s.opts.BloomFalsePositiveRate)

	s.active = result.ActiveFile
	s.files[s.activeFileID] = result.ActiveFile
	return nil
}

// Close releases every open log file handle. Not required by the core
// protocol (the OS reclaims descriptors on process exit), but provided for
// deterministic resource release (SPEC_FULL.md §3).
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	var firstErr error
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.idx.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
