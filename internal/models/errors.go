package models

import "fmt"

// Stable machine-readable error codes carried by every user-visible error.
const (
	CodeUnsupportedFormat  = "unsupported_format"
	CodeFileTooLarge       = "file_too_large"
	CodeRead               = "read_failed"
	CodeParse              = "parse_failed"
	CodeStorageUnavailable = "storage_unavailable"
	CodeStorageOperation   = "storage_operation_failed"
)

// UnsupportedFormatError reports a file extension outside the closed set of
// supported formats. Surfaced before any bytes are read.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported model format %q", e.Extension)
}

// Code returns the stable error code.
func (e *UnsupportedFormatError) Code() string { return CodeUnsupportedFormat }

// FileTooLargeError reports a file exceeding the caller-supplied byte
// ceiling. Surfaced before any bytes are read.
type FileTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file size %d exceeds limit %d", e.Size, e.Limit)
}

// Code returns the stable error code.
func (e *FileTooLargeError) Code() string { return CodeFileTooLarge }

// ReadError reports an I/O failure during byte or text acquisition.
type ReadError struct {
	Name string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %q: %v", e.Name, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Code returns the stable error code.
func (e *ReadError) Code() string { return CodeRead }

// ParseError reports content a decoder rejected as structurally invalid. The
// detail carries the original decoder message.
type ParseError struct {
	Kind   LoaderKind
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s parser rejected content: %s", e.Kind, e.Detail)
}

// Code returns the stable error code.
func (e *ParseError) Code() string { return CodeParse }

// StorageUnavailableError reports that no persistence backend is usable in
// this environment. History degrades to nothing; viewing is unaffected.
type StorageUnavailableError struct {
	Detail string
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("no usable storage backend: %s", e.Detail)
}

// Code returns the stable error code.
func (e *StorageUnavailableError) Code() string { return CodeStorageUnavailable }

// StorageOperationError reports a read/write/transaction failure on the
// active backend. On the structured backend it triggers the one-way downgrade
// to the key-value tier.
type StorageOperationError struct {
	Op  string
	Err error
}

func (e *StorageOperationError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageOperationError) Unwrap() error { return e.Err }

// Code returns the stable error code.
func (e *StorageOperationError) Code() string { return CodeStorageOperation }
