package index

import (
	stdErrors "errors"

	"github.com/bits-and-blooms/bloom/v3"

	yerrors "github.com/sergey-melnychuk/yalskv/pkg/errors"
)

// ErrIndexClosed is returned by Close when called on an already-closed
// Index.
var ErrIndexClosed = stdErrors.New("operation failed: cannot access closed index")

// New creates an Index ready for use. A Bloom filter is attached when
// config.BloomEnabled is true, sized for config.BloomExpectedEntries keys
// at config.BloomFalsePositiveRate.
func New(config *Config) (*Index, error) {
	if config == nil {
		return nil, yerrors.NewRequiredFieldError("config")
	}
	if config.Logger == nil {
		return nil, yerrors.NewRequiredFieldError("config.logger")
	}

	idx := &Index{
		log:     config.Logger,
		entries: make(map[string]Entry, 1024),
	}
	if config.BloomEnabled {
		idx.filter = bloom.NewWithEstimates(config.BloomExpectedEntries, config.BloomFalsePositiveRate)
	}
	return idx, nil
}

// Put records that key's current value lives at entry, and marks key as
// present in the Bloom filter when one is configured.
func (idx *Index) Put(key string, entry Entry) {
	idx.entries[key] = entry
	if idx.filter != nil {
		idx.filter.AddString(key)
	}
}

// Delete removes key from the index, reporting whether it was present.
// The Bloom filter is never cleared on delete — it is a fast-reject gate,
// not a membership oracle, and a stale positive there only costs a map
// probe that correctly reports absence.
func (idx *Index) Delete(key string) bool {
	if _, ok := idx.entries[key]; !ok {
		return false
	}
	delete(idx.entries, key)
	return true
}

// Get looks up key, consulting the Bloom filter first when one is
// configured: a negative answer short-circuits to "not present" without a
// map probe (SPEC_FULL.md §4.3.1).
func (idx *Index) Get(key string) (Entry, bool) {
	if idx.filter != nil && !idx.filter.TestString(key) {
		return Entry{}, false
	}
	e, ok := idx.entries[key]
	return e, ok
}

// Len returns the number of keys currently indexed.
func (idx *Index) Len() int { return len(idx.entries) }

// IsEmpty reports whether the index holds no keys.
func (idx *Index) IsEmpty() bool { return len(idx.entries) == 0 }

// Keys returns every indexed key in unspecified order.
func (idx *Index) Keys() []string {
	keys := make([]string, 0, len(idx.entries))
	for k := range idx.entries {
		keys = append(keys, k)
	}
	return keys
}

// Reset replaces the index's contents wholesale, rebuilding the Bloom
// filter (if any) from the new entry set. Used after reduce rebuilds the
// index from the merged log (SPEC_FULL.md §4.4 step 5).
func (idx *Index) Reset(entries map[string]Entry, expectedEntries uint, falsePositiveRate float64) {
	idx.entries = entries
	if idx.filter != nil {
		idx.filter = bloom.NewWithEstimates(expectedEntries, falsePositiveRate)
		for k := range entries {
			idx.filter.AddString(k)
		}
	}
}

// Close releases the index's resources. Calling Close more than once
// returns ErrIndexClosed.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrIndexClosed
	}
	clear(idx.entries)
	idx.entries = nil
	idx.filter = nil
	return nil
}
