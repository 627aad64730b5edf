package logfile

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	yerrors "github.com/sergey-melnychuk/yalskv/pkg/errors"
	"github.com/sergey-melnychuk/yalskv/pkg/options"
)

const (
	DefaultMaxKeyLen = options.DefaultMaxKeyLen
	DefaultMaxValLen = options.DefaultMaxValLen
)

func TestEncodeDecodeInsertRoundTrip(t *testing.T) {
	r := NewInsert([]byte("hello"), []byte("world"))
	buf := r.Encode()
	require.EqualValues(t, r.EncodedLen(), len(buf))

	got, err := Decode(bytes.NewReader(buf), 0, DefaultMaxKeyLen, DefaultMaxValLen)
	require.NoError(t, err)
	if diff := cmp.Diff(r, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDecodeRemoveRoundTrip(t *testing.T) {
	r := NewRemove([]byte("hello"))
	buf := r.Encode()
	require.EqualValues(t, r.EncodedLen(), len(buf))

	got, err := Decode(bytes.NewReader(buf), 0, DefaultMaxKeyLen, DefaultMaxValLen)
	require.NoError(t, err)
	if diff := cmp.Diff(r, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDecodeEmptyValue(t *testing.T) {
	r := NewInsert([]byte("k"), []byte{})
	buf := r.Encode()
	got, err := Decode(bytes.NewReader(buf), 0, DefaultMaxKeyLen, DefaultMaxValLen)
	require.NoError(t, err)
	require.True(t, got.IsInsert())
	require.Empty(t, got.Val)
}

func TestDecodeCleanEOF(t *testing.T) {
	_, err := Decode(bytes.NewReader(nil), 0, DefaultMaxKeyLen, DefaultMaxValLen)
	require.ErrorIs(t, err, io.EOF)
}

func TestDecodeTruncatedMidRecordIsCodecError(t *testing.T) {
	buf := NewInsert([]byte("hello"), []byte("world")).Encode()
	truncated := buf[:len(buf)-2]

	_, err := Decode(bytes.NewReader(truncated), 0, DefaultMaxKeyLen, DefaultMaxValLen)
	require.Error(t, err)
	require.False(t, err == io.EOF)

	ce, ok := yerrors.AsCodecError(err)
	require.True(t, ok)
	require.Equal(t, yerrors.ErrorCodeUnexpectedEOF, ce.Code())
}

func TestDecodeRejectsOversizedKeyLen(t *testing.T) {
	buf := NewInsert([]byte("hello"), []byte("world")).Encode()

	_, err := Decode(bytes.NewReader(buf), 0, 2, DefaultMaxValLen)
	require.Error(t, err)
	ce, ok := yerrors.AsCodecError(err)
	require.True(t, ok)
	require.Equal(t, yerrors.ErrorCodeLengthExceeded, ce.Code())
}

func TestDecodeRejectsOversizedValLen(t *testing.T) {
	buf := NewInsert([]byte("hello"), []byte("world")).Encode()

	_, err := Decode(bytes.NewReader(buf), 0, DefaultMaxKeyLen, 2)
	require.Error(t, err)
	ce, ok := yerrors.AsCodecError(err)
	require.True(t, ok)
	require.Equal(t, yerrors.ErrorCodeLengthExceeded, ce.Code())
}

func TestDecodeRejectsUnknownOpcode(t *testing.T) {
	buf := make([]byte, 16)
	buf[7] = 9 // op = 9, an opcode neither Insert nor Remove use

	_, err := Decode(bytes.NewReader(buf), 0, DefaultMaxKeyLen, DefaultMaxValLen)
	require.Error(t, err)
	ce, ok := yerrors.AsCodecError(err)
	require.True(t, ok)
	require.Equal(t, yerrors.ErrorCodeUnsupportedOp, ce.Code())
}

func TestValueOffset(t *testing.T) {
	require.EqualValues(t, insertHeaderLen+3, ValueOffset(0, 3))
	require.EqualValues(t, 100+insertHeaderLen+3, ValueOffset(100, 3))
}
