// Package index provides the in-memory hash table mapping keys to the log
// location of their current value (spec.md §3, §4.3). It keeps every key
// resident in memory while the value itself stays on disk, the central
// Bitcask trade-off: lookups cost one map probe plus one positional read,
// never a scan.
package index

import (
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"go.uber.org/zap"
)

// Entry is the metadata the index keeps per key: just enough to perform a
// single positional read against the log file that holds the current
// value (spec.md's IndexEntry{file_id, value_offset, value_length}).
type Entry struct {
	FileID      uint64
	ValueOffset int64
	ValueLen    uint32
}

// Index is the in-memory key → Entry map, optionally guarded by a Bloom
// filter fast-reject gate (SPEC_FULL.md §4.3.1). There is no mutex: the
// store's concurrency model is single-threaded and synchronous by design,
// and a mutex here would only paper over a usage pattern the protocol
// already declares undefined.
type Index struct {
	log     *zap.SugaredLogger
	entries map[string]Entry
	filter  *bloom.BloomFilter
	closed  atomic.Bool
}

// Config encapsulates the parameters required to initialize an Index.
type Config struct {
	Logger *zap.SugaredLogger

	// BloomEnabled, BloomExpectedEntries and BloomFalsePositiveRate size
	// the optional fast-reject filter. BloomEnabled false disables it.
	BloomEnabled           bool
	BloomExpectedEntries   uint
	BloomFalsePositiveRate float64
}
