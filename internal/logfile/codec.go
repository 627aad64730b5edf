// Package logfile implements the on-disk record codec and the positioned
// read/write handle over a single log file (spec.md §4.1, §4.2).
//
// A file is nothing more than a concatenation of records, each one of two
// tagged variants: Insert(key, value) asserts that key maps to value as of
// this position in the log; Remove(key) is a tombstone asserting key is no
// longer present. There is no file header, no magic number, no checksum.
package logfile

import (
	"encoding/binary"
	"io"

	yerrors "github.com/sergey-melnychuk/yalskv/pkg/errors"
)

// Op identifies a record's variant.
type Op uint64

const (
	// OpInsert tags an Insert(key, value) record.
	OpInsert Op = 1
	// OpRemove tags a Remove(key) tombstone record.
	OpRemove Op = 2
)

// insertHeaderLen is op:u64 + key_len:u32 + val_len:u32.
const insertHeaderLen = 16

// removeHeaderLen is op:u64 + key_len:u32.
const removeHeaderLen = 12

// Record is a tagged union over the two record variants the log supports.
// Val is nil for Remove records.
type Record struct {
	Op  Op
	Key []byte
	Val []byte
}

// NewInsert builds an Insert record.
func NewInsert(key, val []byte) Record {
	return Record{Op: OpInsert, Key: key, Val: val}
}

// NewRemove builds a Remove (tombstone) record.
func NewRemove(key []byte) Record {
	return Record{Op: OpRemove, Key: key}
}

// IsInsert reports whether r is an Insert record.
func (r Record) IsInsert() bool { return r.Op == OpInsert }

// IsRemove reports whether r is a Remove record.
func (r Record) IsRemove() bool { return r.Op == OpRemove }

// EncodedLen returns the number of bytes r occupies on disk.
func (r Record) EncodedLen() int64 {
	switch r.Op {
	case OpInsert:
		return int64(insertHeaderLen) + int64(len(r.Key)) + int64(len(r.Val))
	case OpRemove:
		return int64(removeHeaderLen) + int64(len(r.Key))
	default:
		return 0
	}
}

// Encode serializes r into the big-endian wire layout spec.md §4.1 defines.
func (r Record) Encode() []byte {
	switch r.Op {
	case OpInsert:
		buf := make([]byte, insertHeaderLen+len(r.Key)+len(r.Val))
		binary.BigEndian.PutUint64(buf[0:8], uint64(OpInsert))
		binary.BigEndian.PutUint32(buf[8:12], uint32(len(r.Key)))
		binary.BigEndian.PutUint32(buf[12:16], uint32(len(r.Val)))
		copy(buf[insertHeaderLen:], r.Key)
		copy(buf[insertHeaderLen+len(r.Key):], r.Val)
		return buf
	case OpRemove:
		buf := make([]byte, removeHeaderLen+len(r.Key))
		binary.BigEndian.PutUint64(buf[0:8], uint64(OpRemove))
		binary.BigEndian.PutUint32(buf[8:12], uint32(len(r.Key)))
		copy(buf[removeHeaderLen:], r.Key)
		return buf
	default:
		return nil
	}
}

// ValueOffset returns the absolute byte offset of the value payload for an
// Insert record whose header starts at recordStart and whose key is keyLen
// bytes long. This is the offset an IndexEntry stores (spec.md §4.1).
func ValueOffset(recordStart int64, keyLen uint32) int64 {
	return recordStart + insertHeaderLen + int64(keyLen)
}

func newCodecErr(cause error, code yerrors.ErrorCode, msg string, offset int64, op uint64) *yerrors.CodecError {
	return yerrors.NewCodecError(cause, code, msg).WithOffset(offset).WithOp(op)
}

// Decode reads exactly one record from r, starting logically at absolute
// position offset (used only to annotate errors). It enforces maxKeyLen and
// maxValLen against the decoded length fields (spec.md §4.1, §9 O3).
//
// A clean end of stream — no bytes available before the opcode — is
// reported as io.EOF so callers can distinguish "no more records" from a
// record that started but was truncated mid-payload, which is reported as
// a CodecError instead.
func Decode(r io.Reader, offset int64, maxKeyLen, maxValLen uint32) (Record, error) {
	var opBuf [8]byte
	if _, err := io.ReadFull(r, opBuf[:]); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, newCodecErr(err, yerrors.ErrorCodeUnexpectedEOF, "unexpected EOF reading record opcode", offset, 0)
	}
	op := Op(binary.BigEndian.Uint64(opBuf[:]))

	switch op {
	case OpInsert:
		return decodeInsert(r, offset, maxKeyLen, maxValLen)
	case OpRemove:
		return decodeRemove(r, offset, maxKeyLen)
	default:
		return Record{}, newCodecErr(nil, yerrors.ErrorCodeUnsupportedOp, "unsupported record opcode", offset, uint64(op))
	}
}

func decodeInsert(r io.Reader, offset int64, maxKeyLen, maxValLen uint32) (Record, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Record{}, newCodecErr(err, yerrors.ErrorCodeUnexpectedEOF, "unexpected EOF reading insert lengths", offset, uint64(OpInsert))
	}
	keyLen := binary.BigEndian.Uint32(lenBuf[0:4])
	valLen := binary.BigEndian.Uint32(lenBuf[4:8])

	if keyLen > maxKeyLen {
		return Record{}, newCodecErr(nil, yerrors.ErrorCodeLengthExceeded, "insert key_len exceeds sanity cap", offset, uint64(OpInsert)).
			WithDetail("keyLen", keyLen).WithDetail("maxKeyLen", maxKeyLen)
	}
	if valLen > maxValLen {
		return Record{}, newCodecErr(nil, yerrors.ErrorCodeLengthExceeded, "insert val_len exceeds sanity cap", offset, uint64(OpInsert)).
			WithDetail("valLen", valLen).WithDetail("maxValLen", maxValLen)
	}

	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return Record{}, newCodecErr(err, yerrors.ErrorCodeUnexpectedEOF, "unexpected EOF reading insert key", offset, uint64(OpInsert))
	}
	val := make([]byte, valLen)
	if _, err := io.ReadFull(r, val); err != nil {
		return Record{}, newCodecErr(err, yerrors.ErrorCodeUnexpectedEOF, "unexpected EOF reading insert value", offset, uint64(OpInsert))
	}
	return Record{Op: OpInsert, Key: key, Val: val}, nil
}

func decodeRemove(r io.Reader, offset int64, maxKeyLen uint32) (Record, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Record{}, newCodecErr(err, yerrors.ErrorCodeUnexpectedEOF, "unexpected EOF reading remove length", offset, uint64(OpRemove))
	}
	keyLen := binary.BigEndian.Uint32(lenBuf[:])

	if keyLen > maxKeyLen {
		return Record{}, newCodecErr(nil, yerrors.ErrorCodeLengthExceeded, "remove key_len exceeds sanity cap", offset, uint64(OpRemove)).
			WithDetail("keyLen", keyLen).WithDetail("maxKeyLen", maxKeyLen)
	}

	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return Record{}, newCodecErr(err, yerrors.ErrorCodeUnexpectedEOF, "unexpected EOF reading remove key", offset, uint64(OpRemove))
	}
	return Record{Op: OpRemove, Key: key}, nil
}
