// Package options provides data structures and functions for configuring a
// Store instance. It defines functional options controlling record-length
// sanity caps, the optional Bloom-filter read fast-path, and logging.
package options

import (
	"go.uber.org/zap"

	yerrors "github.com/sergey-melnychuk/yalskv/pkg/errors"
)

// Options defines the configuration parameters for a Store. It provides
// control over decode safety limits and the optional in-memory read
// optimizations layered on top of the index.
type Options struct {
	// MaxKeyLen is the sanity cap enforced by the codec on a record's
	// key_len field; records claiming a longer key fail to decode with a
	// CodecError (spec.md §4.1, §9 O3).
	//
	//  - Default: 16 MiB
	MaxKeyLen uint32 `json:"maxKeyLen"`

	// MaxValLen is the sanity cap enforced by the codec on a record's
	// val_len field.
	//
	//  - Default: 256 MiB
	MaxValLen uint32 `json:"maxValLen"`

	// BloomEnabled controls whether the index maintains a Bloom filter to
	// short-circuit lookups for keys that were never inserted.
	//
	//  - Default: true
	BloomEnabled bool `json:"bloomEnabled"`

	// BloomExpectedEntries sizes the Bloom filter's bit array. Undersizing
	// relative to the actual key count raises the false-positive rate but
	// never causes a false negative.
	//
	//  - Default: 100,000
	BloomExpectedEntries uint `json:"bloomExpectedEntries"`

	// BloomFalsePositiveRate is the target false-positive rate used to size
	// the Bloom filter alongside BloomExpectedEntries.
	//
	//  - Default: 0.01
	BloomFalsePositiveRate float64 `json:"bloomFalsePositiveRate"`

	// Logger receives structured Infow/Errorw calls describing store
	// lifecycle events: opening, recovery, and reduce progress.
	//
	//  - Default: a no-op logger
	Logger *zap.SugaredLogger `json:"-"`
}

// Option is a function that modifies the store's configuration.
type Option func(*Options)

// WithDefaultOptions applies the full set of default configuration values.
func WithDefaultOptions() Option {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithMaxKeyLen overrides the key-length sanity cap enforced by the codec.
// A value below MinKeyLenCap is accepted here but rejected by Validate, so
// the caller sees exactly what it asked for.
func WithMaxKeyLen(n uint32) Option {
	return func(o *Options) {
		o.MaxKeyLen = n
	}
}

// WithMaxValLen overrides the value-length sanity cap enforced by the codec.
func WithMaxValLen(n uint32) Option {
	return func(o *Options) {
		o.MaxValLen = n
	}
}

// WithBloomFilter configures the optional Bloom-filter read fast-path,
// sized for expectedEntries keys at the given target false-positive rate.
// Passing expectedEntries == 0 disables the filter entirely.
func WithBloomFilter(expectedEntries uint, falsePositiveRate float64) Option {
	return func(o *Options) {
		if expectedEntries == 0 {
			o.BloomEnabled = false
			return
		}
		o.BloomEnabled = true
		o.BloomExpectedEntries = expectedEntries
		o.BloomFalsePositiveRate = falsePositiveRate
	}
}

// WithLogger sets the structured logger used for store lifecycle events.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// Validate checks o for the invariants Store.Open relies on, returning a
// *yerrors.ValidationError identifying the offending field. It is the
// single place caller-supplied Options are rejected, rather than silently
// clamped, so a misconfigured limit or rate surfaces immediately instead of
// changing behavior unexpectedly deep inside the store.
func (o Options) Validate() error {
	if o.MaxKeyLen < MinKeyLenCap {
		return yerrors.NewFieldRangeError("maxKeyLen", o.MaxKeyLen, MinKeyLenCap, nil)
	}
	if o.MaxValLen < MinValLenCap {
		return yerrors.NewFieldRangeError("maxValLen", o.MaxValLen, MinValLenCap, nil)
	}
	if o.BloomEnabled {
		if o.BloomExpectedEntries == 0 {
			return yerrors.NewRequiredFieldError("bloomExpectedEntries")
		}
		if o.BloomFalsePositiveRate <= 0 || o.BloomFalsePositiveRate >= 1 {
			return yerrors.NewConfigurationValidationError(
				"bloomFalsePositiveRate", "must be in the open interval (0, 1) when the Bloom filter is enabled",
			)
		}
	}
	return nil
}
