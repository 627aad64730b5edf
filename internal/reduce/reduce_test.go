package reduce

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sergey-melnychuk/yalskv/internal/logfile"
	"github.com/sergey-melnychuk/yalskv/pkg/options"
)

func openActive(t *testing.T, dir string) *logfile.File {
	t.Helper()
	return openActiveWithCaps(t, dir, options.DefaultMaxKeyLen, options.DefaultMaxValLen)
}

func openActiveWithCaps(t *testing.T, dir string, maxKeyLen, maxValLen uint32) *logfile.File {
	t.Helper()
	f, err := logfile.Open(1, filepath.Join(dir, "00000000000000000001.dat"), maxKeyLen, maxValLen)
	require.NoError(t, err)
	return f
}

func readAllRecords(t *testing.T, f *logfile.File) []logfile.Record {
	t.Helper()
	f.Reset()
	var out []logfile.Record
	for {
		rec, err := f.ReadNext()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

// A tiny chunk limit forces many single-record chunks, exercising the k-way
// merge path (as opposed to the single chunk a large limit gives).
func TestRunCollapsesDuplicatesAcrossManySmallChunks(t *testing.T) {
	dir := t.TempDir()
	active := openActive(t, dir)

	insert := func(k, v string) {
		_, _, _, err := active.AppendInsert([]byte(k), []byte(v))
		require.NoError(t, err)
	}
	insert("b", "1")
	insert("a", "1")
	insert("b", "2")
	require.NoError(t, active.AppendRemove([]byte("a")))
	insert("c", "1")

	result, err := Run(Config{
		BaseDir:    dir,
		ActiveFile: active,
		ActiveID:   1,
		MaxKeyLen:  options.DefaultMaxKeyLen,
		MaxValLen:  options.DefaultMaxValLen,
		ChunkLimit: 1, // forces one record per chunk
		Logger:     zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	defer result.ActiveFile.Close()

	records := readAllRecords(t, result.ActiveFile)
	require.Equal(t, []logfile.Record{
		logfile.NewInsert([]byte("b"), []byte("2")),
		logfile.NewInsert([]byte("c"), []byte("1")),
	}, records)

	require.Len(t, result.Entries, 2)
	_, ok := result.Entries["a"]
	require.False(t, ok, "tombstoned key must not survive reduce")
	bEntry, ok := result.Entries["b"]
	require.True(t, ok)
	require.EqualValues(t, 1, bEntry.FileID)
}

func TestRunLeavesActiveFileUntouchedOnSplitFailure(t *testing.T) {
	dir := t.TempDir()
	// The active file's own decode cap (fixed at Open time) is smaller than
	// the key it already holds, so split()'s sequential scan chokes with a
	// CodecError as soon as it decodes the offending record.
	active := openActiveWithCaps(t, dir, 2, options.DefaultMaxValLen)

	_, _, _, err := active.AppendInsert([]byte("key"), []byte("v"))
	require.NoError(t, err)

	_, err = Run(Config{
		BaseDir:    dir,
		ActiveFile: active,
		ActiveID:   1,
		MaxKeyLen:  options.DefaultMaxKeyLen,
		MaxValLen:  options.DefaultMaxValLen,
		ChunkLimit: 1024,
		Logger:     zap.NewNop().Sugar(),
	})
	require.Error(t, err)
	require.Equal(t, logfile.Appending, active.Mode())
}

// If merge() fails partway through, Run must not leave the temporary merge
// file behind: blocking dst's creation with a same-named directory forces a
// deterministic failure inside merge, and the test asserts the path is gone
// afterward rather than left as an orphaned artifact in BaseDir.
func TestRunRemovesTempMergeFileOnMergeFailure(t *testing.T) {
	dir := t.TempDir()
	active := openActive(t, dir)

	_, _, _, err := active.AppendInsert([]byte("k"), []byte("v"))
	require.NoError(t, err)

	tmpPath := filepath.Join(dir, "00000000000000000001.dat") + ".tmp-merge"
	require.NoError(t, os.Mkdir(tmpPath, 0755))

	_, err = Run(Config{
		BaseDir:    dir,
		ActiveFile: active,
		ActiveID:   1,
		MaxKeyLen:  options.DefaultMaxKeyLen,
		MaxValLen:  options.DefaultMaxValLen,
		ChunkLimit: 1024,
		Logger:     zap.NewNop().Sugar(),
	})
	require.Error(t, err)
	require.Equal(t, logfile.Appending, active.Mode())

	_, statErr := os.Stat(tmpPath)
	require.True(t, os.IsNotExist(statErr), "tmp-merge path must be cleaned up on merge failure")
}

func TestRunProducesEmptyFileWhenAllTombstoned(t *testing.T) {
	dir := t.TempDir()
	active := openActive(t, dir)

	_, _, _, err := active.AppendInsert([]byte("k"), []byte("v"))
	require.NoError(t, err)
	require.NoError(t, active.AppendRemove([]byte("k")))

	result, err := Run(Config{
		BaseDir:    dir,
		ActiveFile: active,
		ActiveID:   1,
		MaxKeyLen:  options.DefaultMaxKeyLen,
		MaxValLen:  options.DefaultMaxValLen,
		ChunkLimit: 1024,
		Logger:     zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	defer result.ActiveFile.Close()

	records := readAllRecords(t, result.ActiveFile)
	require.Empty(t, records)
	require.Empty(t, result.Entries)
}
