package logfile

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	yerrors "github.com/sergey-melnychuk/yalskv/pkg/errors"
)

func openTestFile(t *testing.T) *File {
	t.Helper()
	dir := t.TempDir()
	f, err := Open(1, filepath.Join(dir, "00000000000000000001.dat"), 1<<24, 1<<28)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestAppendInsertAdvancesCursor(t *testing.T) {
	f := openTestFile(t)
	require.EqualValues(t, 0, f.AppendOffset())

	fileID, valOff, valLen, err := f.AppendInsert([]byte("k1"), []byte("v1"))
	require.NoError(t, err)
	require.EqualValues(t, 1, fileID)
	require.EqualValues(t, insertHeaderLen+2, valOff)
	require.EqualValues(t, 2, valLen)
	require.EqualValues(t, insertHeaderLen+2+2, f.AppendOffset())
}

func TestAppendRemoveAdvancesCursor(t *testing.T) {
	f := openTestFile(t)
	require.NoError(t, f.AppendRemove([]byte("k1")))
	require.EqualValues(t, removeHeaderLen+2, f.AppendOffset())
}

func TestReadNextRequiresIteratingMode(t *testing.T) {
	f := openTestFile(t)
	_, err := f.ReadNext()
	require.Error(t, err)
	ue, ok := yerrors.AsUsageError(err)
	require.True(t, ok)
	require.Equal(t, yerrors.ErrorCodeWrongCursorMode, ue.Code())
}

func TestAppendRequiresAppendingMode(t *testing.T) {
	f := openTestFile(t)
	f.Reset()
	_, _, _, err := f.AppendInsert([]byte("k"), []byte("v"))
	require.Error(t, err)
	ue, ok := yerrors.AsUsageError(err)
	require.True(t, ok)
	require.Equal(t, yerrors.ErrorCodeWrongCursorMode, ue.Code())
}

func TestResetFastForwardRoundTrip(t *testing.T) {
	f := openTestFile(t)
	_, _, _, err := f.AppendInsert([]byte("k1"), []byte("v1"))
	require.NoError(t, err)
	_, _, _, err = f.AppendInsert([]byte("k2"), []byte("v2"))
	require.NoError(t, err)
	end := f.AppendOffset()

	f.Reset()
	require.Equal(t, Iterating, f.Mode())

	r1, err := f.ReadNext()
	require.NoError(t, err)
	require.Equal(t, "k1", string(r1.Key))

	r2, err := f.ReadNext()
	require.NoError(t, err)
	require.Equal(t, "k2", string(r2.Key))

	_, err = f.ReadNext()
	require.ErrorIs(t, err, io.EOF)

	require.NoError(t, f.FastForwardToEnd())
	require.Equal(t, Appending, f.Mode())
	require.EqualValues(t, end, f.AppendOffset())
}

func TestPeekNextDoesNotAdvanceAndIsCached(t *testing.T) {
	f := openTestFile(t)
	_, _, _, err := f.AppendInsert([]byte("k1"), []byte("v1"))
	require.NoError(t, err)
	f.Reset()

	peeked, err := f.PeekNext()
	require.NoError(t, err)
	require.Equal(t, "k1", string(peeked.Key))

	peekedAgain, err := f.PeekNext()
	require.NoError(t, err)
	require.Equal(t, "k1", string(peekedAgain.Key))

	read, err := f.ReadNext()
	require.NoError(t, err)
	require.Equal(t, "k1", string(read.Key))

	_, err = f.ReadNext()
	require.ErrorIs(t, err, io.EOF)
}

func TestPositionalReadDoesNotDisturbCursors(t *testing.T) {
	f := openTestFile(t)
	_, valOff, valLen, err := f.AppendInsert([]byte("k1"), []byte("v1"))
	require.NoError(t, err)
	appendOffsetBefore := f.AppendOffset()

	buf := make([]byte, valLen)
	require.NoError(t, f.PositionalRead(valOff, buf))
	require.Equal(t, "v1", string(buf))
	require.Equal(t, appendOffsetBefore, f.AppendOffset())

	f.Reset()
	_, err = f.PeekNext()
	require.NoError(t, err)

	require.NoError(t, f.PositionalRead(valOff, buf))
	peeked, err := f.PeekNext()
	require.NoError(t, err)
	require.Equal(t, "k1", string(peeked.Key))
}

func TestRecordCountLeavesStateUnchanged(t *testing.T) {
	f := openTestFile(t)
	_, _, _, err := f.AppendInsert([]byte("k1"), []byte("v1"))
	require.NoError(t, err)
	require.NoError(t, f.AppendRemove([]byte("k2")))

	count, err := f.RecordCount()
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	require.Equal(t, Appending, f.Mode())

	_, _, _, err = f.AppendInsert([]byte("k3"), []byte("v3"))
	require.NoError(t, err)
}

func TestOpenRecoversExistingFileAtEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "00000000000000000001.dat")

	f1, err := Open(1, path, 1<<24, 1<<28)
	require.NoError(t, err)
	_, _, _, err = f1.AppendInsert([]byte("k1"), []byte("v1"))
	require.NoError(t, err)
	require.NoError(t, f1.Close())

	f2, err := Open(1, path, 1<<24, 1<<28)
	require.NoError(t, err)
	defer f2.Close()
	require.Equal(t, Appending, f2.Mode())
	require.EqualValues(t, insertHeaderLen+2+2, f2.AppendOffset())
}
