package index

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestIndex(t *testing.T, bloomEnabled bool) *Index {
	t.Helper()
	idx, err := New(&Config{
		Logger:                 zap.NewNop().Sugar(),
		BloomEnabled:           bloomEnabled,
		BloomExpectedEntries:   1000,
		BloomFalsePositiveRate: 0.01,
	})
	require.NoError(t, err)
	return idx
}

func TestPutGetRoundTrip(t *testing.T) {
	for _, bloom := range []bool{false, true} {
		idx := newTestIndex(t, bloom)
		idx.Put("k1", Entry{FileID: 1, ValueOffset: 10, ValueLen: 5})

		got, ok := idx.Get("k1")
		require.True(t, ok)
		require.Equal(t, Entry{FileID: 1, ValueOffset: 10, ValueLen: 5}, got)
	}
}

func TestGetMissingKey(t *testing.T) {
	for _, bloom := range []bool{false, true} {
		idx := newTestIndex(t, bloom)
		_, ok := idx.Get("absent")
		require.False(t, ok)
	}
}

func TestDeleteRemovesKey(t *testing.T) {
	idx := newTestIndex(t, true)
	idx.Put("k1", Entry{FileID: 1})
	require.True(t, idx.Delete("k1"))
	require.False(t, idx.Delete("k1"))

	_, ok := idx.Get("k1")
	require.False(t, ok)
}

func TestLenAndIsEmpty(t *testing.T) {
	idx := newTestIndex(t, false)
	require.True(t, idx.IsEmpty())
	require.Zero(t, idx.Len())

	idx.Put("k1", Entry{})
	idx.Put("k2", Entry{})
	require.False(t, idx.IsEmpty())
	require.Equal(t, 2, idx.Len())
}

func TestBloomFilterNeverFalseNegative(t *testing.T) {
	idx := newTestIndex(t, true)
	keys := []string{"alpha", "beta", "gamma", "delta"}
	for i, k := range keys {
		idx.Put(k, Entry{FileID: uint64(i)})
	}

	for _, k := range keys {
		_, ok := idx.Get(k)
		require.True(t, ok, "bloom filter must never cause a false negative for %q", k)
	}
}

func TestResetRebuildsBloomFilter(t *testing.T) {
	idx := newTestIndex(t, true)
	idx.Put("stale", Entry{FileID: 9})

	fresh := map[string]Entry{"k1": {FileID: 1}, "k2": {FileID: 2}}
	idx.Reset(fresh, 1000, 0.01)

	require.Equal(t, 2, idx.Len())
	_, ok := idx.Get("k1")
	require.True(t, ok)
	_, ok = idx.Get("k2")
	require.True(t, ok)
}

func TestCloseIsIdempotentlyRejected(t *testing.T) {
	idx := newTestIndex(t, false)
	require.NoError(t, idx.Close())
	require.ErrorIs(t, idx.Close(), ErrIndexClosed)
}

func TestKeysReturnsAllIndexedKeys(t *testing.T) {
	idx := newTestIndex(t, false)
	idx.Put("k1", Entry{})
	idx.Put("k2", Entry{})

	keys := idx.Keys()
	require.Len(t, keys, 2)
	require.ElementsMatch(t, []string{"k1", "k2"}, keys)
}
