package options

const (
	// DefaultMaxKeyLen caps key length at 16 MiB, the sanity bound spec.md
	// §4.1 recommends for the codec's key_len field.
	DefaultMaxKeyLen uint32 = 1 << 24

	// DefaultMaxValLen caps value length at 256 MiB, the sanity bound
	// spec.md §4.1 recommends for the codec's val_len field.
	DefaultMaxValLen uint32 = 1 << 28

	// MinKeyLenCap is the smallest sanity cap callers may configure for
	// key length; below this, ordinary keys would be rejected outright.
	MinKeyLenCap uint32 = 1 << 8

	// MinValLenCap is the smallest sanity cap callers may configure for
	// value length.
	MinValLenCap uint32 = 1 << 8

	// DefaultBloomExpectedEntries sizes the optional Bloom filter for a
	// modest workload; callers with larger datasets should size this via
	// WithBloomFilter to keep the false-positive rate low.
	DefaultBloomExpectedEntries uint = 100_000

	// DefaultBloomFalsePositiveRate is the target false-positive rate used
	// when sizing the optional Bloom filter.
	DefaultBloomFalsePositiveRate = 0.01
)

// Holds the default configuration settings for a Store instance.
var defaultOptions = Options{
	MaxKeyLen:              DefaultMaxKeyLen,
	MaxValLen:              DefaultMaxValLen,
	BloomEnabled:           true,
	BloomExpectedEntries:   DefaultBloomExpectedEntries,
	BloomFalsePositiveRate: DefaultBloomFalsePositiveRate,
}

func NewDefaultOptions() Options {
	return defaultOptions
}
