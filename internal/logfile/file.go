package logfile

import (
	"io"
	"os"

	yerrors "github.com/sergey-melnychuk/yalskv/pkg/errors"
)

// Mode tracks which of the two ways a File may legally be used right now.
// The append cursor and the sequential read cursor are the same variable
// (spec.md §4.2): a File is either being written to, in which case only
// appends and positional reads are legal, or being iterated, in which case
// only sequential reads and positional reads are legal. reset switches
// Appending to Iterating; fast_forward_to_end switches back.
type Mode int

const (
	// Appending is the mode a freshly opened File starts in: Append* calls
	// are legal, ReadNext/PeekNext are not.
	Appending Mode = iota
	// Iterating is entered via Reset: ReadNext/PeekNext are legal,
	// Append* calls are not.
	Iterating
)

func (m Mode) String() string {
	if m == Iterating {
		return "iterating"
	}
	return "appending"
}

// File wraps one on-disk log file: a single *os.File plus the cursor and
// mode bookkeeping spec.md §4.2 requires. cursor serves double duty as the
// append offset in Appending mode and the sequential read offset in
// Iterating mode, matching the source file's own reuse of one variable for
// both roles.
type File struct {
	fileID   uint64
	path     string
	handle   *os.File
	mode     Mode
	cursor   int64
	peeked   *Record
	peekLen  int64
	maxKey   uint32
	maxVal   uint32
}

// Open opens or creates the log file at path under the given fileID,
// positions the cursor at the current end of file, and leaves the File in
// Appending mode.
func Open(fileID uint64, path string, maxKeyLen, maxValLen uint32) (*File, error) {
	handle, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, yerrors.ClassifyFileOpenError(err, path, path)
	}

	size, err := handle.Seek(0, io.SeekEnd)
	if err != nil {
		_ = handle.Close()
		return nil, yerrors.NewIOError(err, yerrors.ErrorCodeIO, "failed to seek to end of log file").
			WithPath(path).WithFileID(fileID)
	}

	return &File{
		fileID: fileID,
		path:   path,
		handle: handle,
		mode:   Appending,
		cursor: size,
		maxKey: maxKeyLen,
		maxVal: maxValLen,
	}, nil
}

// FileID returns the identifier this log file was opened under.
func (f *File) FileID() uint64 { return f.fileID }

// Path returns the filesystem path this log file was opened from.
func (f *File) Path() string { return f.path }

// Mode reports whether the file is currently Appending or Iterating.
func (f *File) Mode() Mode { return f.mode }

// AppendOffset returns the current append cursor. In Iterating mode the
// same cursor is the sequential read offset, and that is what it returns.
func (f *File) AppendOffset() int64 { return f.cursor }

func (f *File) requireMode(op string, want Mode) error {
	if f.mode == want {
		return nil
	}
	return yerrors.NewUsageError(
		yerrors.ErrorCodeWrongCursorMode, "operation requires file to be in a different cursor mode",
	).WithOperation(op).WithState(f.mode.String()).WithDetail("fileId", f.fileID).WithDetail("required", want.String())
}

// AppendInsert appends an Insert(key, val) record at the current append
// offset, flushes it to disk, and returns the FileID/offset/length an
// IndexEntry should record for the value payload just written.
func (f *File) AppendInsert(key, val []byte) (fileID uint64, valueOffset int64, valueLen uint32, err error) {
	if err := f.requireMode("append_insert", Appending); err != nil {
		return 0, 0, 0, err
	}

	rec := NewInsert(key, val)
	if err := f.appendRecord(rec); err != nil {
		return 0, 0, 0, err
	}

	start := f.cursor - rec.EncodedLen()
	return f.fileID, ValueOffset(start, uint32(len(key))), uint32(len(val)), nil
}

// AppendRemove appends a Remove(key) tombstone record at the current append
// offset and flushes it to disk.
func (f *File) AppendRemove(key []byte) error {
	if err := f.requireMode("append_remove", Appending); err != nil {
		return err
	}
	return f.appendRecord(NewRemove(key))
}

func (f *File) appendRecord(rec Record) error {
	buf := rec.Encode()
	n, err := f.handle.WriteAt(buf, f.cursor)
	if err != nil {
		return yerrors.NewIOError(err, yerrors.ErrorCodeIO, "failed to append record").
			WithFileID(f.fileID).WithPath(f.path).WithOffset(f.cursor)
	}
	if err := f.handle.Sync(); err != nil {
		return yerrors.NewIOError(err, yerrors.ErrorCodeIO, "failed to flush appended record").
			WithFileID(f.fileID).WithPath(f.path).WithOffset(f.cursor)
	}
	f.cursor += int64(n)
	return nil
}

// PositionalRead reads exactly len(buf) bytes starting at the given
// absolute offset. It never disturbs the append cursor or the sequential
// read cursor, and is legal in either mode.
func (f *File) PositionalRead(offset int64, buf []byte) error {
	if _, err := f.handle.ReadAt(buf, offset); err != nil {
		return yerrors.NewIOError(err, yerrors.ErrorCodeIO, "positional read failed").
			WithFileID(f.fileID).WithPath(f.path).WithOffset(offset)
	}
	return nil
}

// ReadNext reads one record at the sequential read cursor and advances the
// cursor by its encoded length. If a record is cached from a prior
// PeekNext, it is returned and the cache is cleared instead of re-reading.
// Returns io.EOF once the cursor reaches the end of the file.
func (f *File) ReadNext() (Record, error) {
	if err := f.requireMode("read_next", Iterating); err != nil {
		return Record{}, err
	}

	if f.peeked != nil {
		rec := *f.peeked
		f.peeked = nil
		f.cursor += f.peekLen
		return rec, nil
	}

	rec, err := f.decodeAt(f.cursor)
	if err != nil {
		return Record{}, err
	}
	f.cursor += rec.EncodedLen()
	return rec, nil
}

// PeekNext returns the next record without advancing the sequential read
// cursor. The decoded record is cached until consumed by ReadNext or
// invalidated by Reset/FastForwardToEnd.
func (f *File) PeekNext() (Record, error) {
	if err := f.requireMode("peek_next", Iterating); err != nil {
		return Record{}, err
	}

	if f.peeked != nil {
		return *f.peeked, nil
	}

	rec, err := f.decodeAt(f.cursor)
	if err != nil {
		return Record{}, err
	}
	f.peeked = &rec
	f.peekLen = rec.EncodedLen()
	return rec, nil
}

func (f *File) decodeAt(offset int64) (Record, error) {
	sr := io.NewSectionReader(f.handle, offset, 1<<62)
	rec, err := Decode(sr, offset, f.maxKey, f.maxVal)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Reset moves the sequential read cursor to 0 and enters Iterating mode,
// invalidating any cached peek. Intended to begin iteration from the
// start of the file.
func (f *File) Reset() {
	f.cursor = 0
	f.peeked = nil
	f.peekLen = 0
	f.mode = Iterating
}

// FastForwardToEnd moves the append cursor to the file's current length
// and enters Appending mode, invalidating any cached peek. Intended to
// resume appending after iteration.
func (f *File) FastForwardToEnd() error {
	size, err := f.handle.Seek(0, io.SeekEnd)
	if err != nil {
		return yerrors.NewIOError(err, yerrors.ErrorCodeIO, "failed to seek to end of log file").
			WithFileID(f.fileID).WithPath(f.path)
	}
	f.cursor = size
	f.peeked = nil
	f.peekLen = 0
	f.mode = Appending
	return nil
}

// RecordCount counts the records in the file via a full forward scan,
// leaving the File's mode and cursor exactly as they were found.
func (f *File) RecordCount() (int64, error) {
	savedMode, savedCursor, savedPeeked, savedPeekLen := f.mode, f.cursor, f.peeked, f.peekLen
	defer func() {
		f.mode, f.cursor, f.peeked, f.peekLen = savedMode, savedCursor, savedPeeked, savedPeekLen
	}()

	f.Reset()
	var count int64
	for {
		_, err := f.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

// Close releases the underlying file handle.
func (f *File) Close() error {
	if err := f.handle.Close(); err != nil {
		return yerrors.NewIOError(err, yerrors.ErrorCodeIO, "failed to close log file").
			WithFileID(f.fileID).WithPath(f.path)
	}
	return nil
}
