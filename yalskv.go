// Package yalskv is an embedded, single-process, persistent key/value
// store built on an append-only log with an in-memory index — a Bitcask
// derivative. A Store keeps every key resident in memory while values
// live on disk, so a lookup costs one map probe plus one positional read
// regardless of how large the store grows, and every write is a single
// sequential append plus an index update.
//
// There is no background compaction and no concurrent-access support: a
// Store is meant to be driven synchronously by one goroutine, with Reduce
// called explicitly to reclaim space once stale and tombstoned records
// accumulate.
package yalskv

import (
	"go.uber.org/zap"

	"github.com/sergey-melnychuk/yalskv/internal/logfile"
	"github.com/sergey-melnychuk/yalskv/internal/store"
	yalskverrors "github.com/sergey-melnychuk/yalskv/pkg/errors"
	"github.com/sergey-melnychuk/yalskv/pkg/options"
)

// Store is an open key/value store rooted at a single base directory.
type Store = store.Store

// Option configures a Store at Open time.
type Option = options.Option

// Open creates or recovers a Store rooted at baseDir. An empty or
// nonexistent directory bootstraps a fresh store; a directory left behind
// by a prior process is recovered by replaying its log files before
// resuming appends.
func Open(baseDir string, opts ...Option) (*Store, error) {
	return store.Open(baseDir, opts...)
}

// WithLogger sets the structured logger used for store lifecycle events:
// opening, recovery, and reduce progress.
func WithLogger(logger *zap.SugaredLogger) Option {
	return options.WithLogger(logger)
}

// WithBloomFilter configures the optional Bloom-filter read fast-path
// (see internal/index), sized for expectedEntries keys at the given
// target false-positive rate. Passing expectedEntries == 0 disables it.
func WithBloomFilter(expectedEntries uint, falsePositiveRate float64) Option {
	return options.WithBloomFilter(expectedEntries, falsePositiveRate)
}

// WithMaxKeyLen overrides the key-length sanity cap the codec enforces on
// a record's key_len field.
func WithMaxKeyLen(n uint32) Option {
	return options.WithMaxKeyLen(n)
}

// WithMaxValLen overrides the value-length sanity cap the codec enforces
// on a record's val_len field.
func WithMaxValLen(n uint32) Option {
	return options.WithMaxValLen(n)
}

// Re-exported error taxonomy (spec.md §7), so callers never need to import
// pkg/errors directly.
type (
	IOError         = yalskverrors.IOError
	CodecError      = yalskverrors.CodecError
	UsageError      = yalskverrors.UsageError
	ValidationError = yalskverrors.ValidationError
)

var (
	IsIOError    = yalskverrors.IsIOError
	IsCodecError = yalskverrors.IsCodecError
	IsUsageError = yalskverrors.IsUsageError
)

// LogFile is the on-disk log file type File() exposes for post-Reduce
// iteration.
type LogFile = logfile.File
