package errors

// IOError is a specialized error type for file-system operations against log
// files and directories. It embeds baseError to inherit standard error
// functionality, then adds fields that pinpoint exactly where an I/O failure
// occurred.
type IOError struct {
	*baseError
	fileId   uint64 // Which log file (by FileId) was being accessed, if applicable.
	offset   int64  // Byte offset within the file where the problem happened.
	fileName string // Name of the file that caused the issue.
	path     string // Full path of the file that caused the issue.
}

// NewIOError creates a new I/O-specific error.
func NewIOError(err error, code ErrorCode, msg string) *IOError {
	return &IOError{baseError: NewBaseError(err, code, msg)}
}

// WithFileID records which log file was involved in the error.
func (ie *IOError) WithFileID(id uint64) *IOError {
	ie.fileId = id
	return ie
}

// WithOffset records the byte position where the error occurred.
func (ie *IOError) WithOffset(offset int64) *IOError {
	ie.offset = offset
	return ie
}

// WithFileName captures which file was being processed when the error occurred.
func (ie *IOError) WithFileName(fileName string) *IOError {
	ie.fileName = fileName
	return ie
}

// WithPath captures which path was being processed when the error occurred.
func (ie *IOError) WithPath(path string) *IOError {
	ie.path = path
	return ie
}

// WithDetail adds contextual information while maintaining the IOError type.
func (ie *IOError) WithDetail(key string, value any) *IOError {
	ie.baseError.WithDetail(key, value)
	return ie
}

// FileID returns the FileId of the log file that was being processed.
func (ie *IOError) FileID() uint64 {
	return ie.fileId
}

// Offset returns the byte offset within the file where the error happened.
func (ie *IOError) Offset() int64 {
	return ie.offset
}

// FileName returns the name of the file that was being processed.
func (ie *IOError) FileName() string {
	return ie.fileName
}

// Path returns the path of the file that was being processed.
func (ie *IOError) Path() string {
	return ie.path
}
