// Package errors implements the typed error taxonomy for the store: I/O
// faults, malformed on-disk records (codec errors), and protocol violations
// the store catches itself (usage errors), plus validation errors for
// rejected configuration. Every type embeds baseError, so the fluent
// With* builders compose and errors.Is/errors.As work through the whole
// chain via Unwrap.
//
// Each concrete error type captures the context that matters for its
// failure domain: an IOError knows which file and offset were involved, a
// CodecError knows which opcode and offset it choked on, a UsageError
// knows what operation was rejected and why. This lets callers branch on
// error code without parsing messages, and lets structured logging attach
// the details map directly.
package errors

import (
	stdErrors "errors"
	"os"
	"syscall"
)

// IsValidationError checks if the given error is a ValidationError or
// contains one in its error chain.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return stdErrors.As(err, &ve)
}

// IsIOError determines if an error is related to file-system operations.
func IsIOError(err error) bool {
	var ie *IOError
	return stdErrors.As(err, &ie)
}

// IsCodecError identifies errors raised while decoding malformed records.
func IsCodecError(err error) bool {
	var ce *CodecError
	return stdErrors.As(err, &ce)
}

// IsUsageError identifies protocol violations such as appending to a log
// file mid-iteration.
func IsUsageError(err error) bool {
	var ue *UsageError
	return stdErrors.As(err, &ue)
}

// AsValidationError safely extracts a ValidationError from an error chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stdErrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsIOError extracts IOError context from an error chain, providing access
// to file name, path, FileId, and offset.
func AsIOError(err error) (*IOError, bool) {
	var ie *IOError
	if stdErrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// AsCodecError extracts CodecError context from an error chain.
func AsCodecError(err error) (*CodecError, bool) {
	var ce *CodecError
	if stdErrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// AsUsageError extracts UsageError context from an error chain.
func AsUsageError(err error) (*UsageError, bool) {
	var ue *UsageError
	if stdErrors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from any error that supports it, or
// returns ErrorCodeInternal for errors that don't have a specific code.
func GetErrorCode(err error) ErrorCode {
	if ve, ok := AsValidationError(err); ok {
		return ve.Code()
	}
	if ie, ok := AsIOError(err); ok {
		return ie.Code()
	}
	if ce, ok := AsCodecError(err); ok {
		return ce.Code()
	}
	if ue, ok := AsUsageError(err); ok {
		return ue.Code()
	}
	return ErrorCodeInternal
}

// GetErrorDetails extracts structured details from any error that supports
// them, returning an empty map for errors without details.
func GetErrorDetails(err error) map[string]any {
	if ve, ok := AsValidationError(err); ok {
		if details := ve.Details(); details != nil {
			return details
		}
	}
	if ie, ok := AsIOError(err); ok {
		if details := ie.Details(); details != nil {
			return details
		}
	}
	if ce, ok := AsCodecError(err); ok {
		if details := ce.Details(); details != nil {
			return details
		}
	}
	if ue, ok := AsUsageError(err); ok {
		if details := ue.Details(); details != nil {
			return details
		}
	}
	return make(map[string]any)
}

// ClassifyDirectoryCreationError analyzes directory creation failures and
// returns an IOError with the appropriate code based on the underlying
// system error.
func ClassifyDirectoryCreationError(err error, path string) error {
	if os.IsPermission(err) {
		return NewIOError(
			err, ErrorCodePermissionDenied, "insufficient permissions to create directory",
		).WithPath(path).WithDetail("operation", "directory_creation")
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewIOError(
					err, ErrorCodeDiskFull, "insufficient disk space to create directory",
				).WithPath(path).WithDetail("operation", "directory_creation")
			case syscall.EROFS:
				return NewIOError(
					err, ErrorCodeFilesystemReadonly, "cannot create directory on read-only filesystem",
				).WithPath(path).WithDetail("operation", "directory_creation")
			}
		}
	}

	return NewIOError(
		err, ErrorCodeIO, "failed to create directory",
	).WithPath(path).WithDetail("operation", "directory_creation")
}

// ClassifyFileOpenError analyzes file opening failures and returns an
// IOError with the appropriate code based on the underlying system error.
func ClassifyFileOpenError(err error, filePath, fileName string) error {
	if os.IsPermission(err) {
		return NewIOError(
			err, ErrorCodePermissionDenied, "insufficient permissions to open log file",
		).WithPath(filePath).WithFileName(fileName).WithDetail("operation", "file_open")
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewIOError(
					err, ErrorCodeDiskFull, "insufficient disk space to create log file",
				).WithPath(filePath).WithFileName(fileName).WithDetail("operation", "file_open")
			case syscall.EROFS:
				return NewIOError(
					err, ErrorCodeFilesystemReadonly, "cannot create file on read-only filesystem",
				).WithPath(filePath).WithFileName(fileName).WithDetail("operation", "file_open")
			}
		}
	}

	return NewIOError(err, ErrorCodeIO, "failed to open log file").
		WithPath(filePath).WithFileName(fileName).WithDetail("operation", "file_open")
}
