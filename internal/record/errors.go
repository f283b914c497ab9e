package record

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeCorruptStore indicates the durable file (or an import source)
	// is unreadable or structurally invalid.
	ErrCodeCorruptStore ErrorCode = "CORRUPT_STORE"

	// ErrCodePersistence indicates a write of the durable file failed.
	// The in-memory table is unchanged and the caller may retry.
	ErrCodePersistence ErrorCode = "PERSISTENCE"

	// ErrCodeNotFound indicates the requested serial number is absent.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeDuplicateIdentifier indicates a serial number collision on
	// create or rename.
	ErrCodeDuplicateIdentifier ErrorCode = "DUPLICATE_IDENTIFIER"

	// ErrCodeBackup indicates a snapshot could not be read or written.
	ErrCodeBackup ErrorCode = "BACKUP"

	// ErrCodeInvalidRecord indicates a field failed boundary validation.
	ErrCodeInvalidRecord ErrorCode = "INVALID_RECORD"
)

// Error is the single error type returned by the engine.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// SerialNo is the affected identifier, if any.
	SerialNo int64

	// Path is the affected file, if any.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.SerialNo != 0 {
		msg = fmt.Sprintf("%s (serial=%d)", msg, e.SerialNo)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (path=%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there
// is none.
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsCorruptStore reports whether err is a corrupt store error.
func IsCorruptStore(err error) bool { return CodeOf(err) == ErrCodeCorruptStore }

// IsPersistence reports whether err is a persistence error.
func IsPersistence(err error) bool { return CodeOf(err) == ErrCodePersistence }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsDuplicateIdentifier reports whether err is an identifier collision.
func IsDuplicateIdentifier(err error) bool { return CodeOf(err) == ErrCodeDuplicateIdentifier }

// IsBackup reports whether err is a backup error.
func IsBackup(err error) bool { return CodeOf(err) == ErrCodeBackup }

// IsInvalidRecord reports whether err is a validation error.
func IsInvalidRecord(err error) bool { return CodeOf(err) == ErrCodeInvalidRecord }

// NewCorruptStoreError creates an error for an unreadable or malformed file.
func NewCorruptStoreError(path, message string, err error) *Error {
	return &Error{Code: ErrCodeCorruptStore, Message: message, Path: path, Err: err}
}

// NewPersistenceError creates an error for a failed write.
func NewPersistenceError(path string, err error) *Error {
	return &Error{Code: ErrCodePersistence, Message: "could not save records", Path: path, Err: err}
}

// NewNotFoundError creates an error for an absent serial number.
func NewNotFoundError(serial int64) *Error {
	return &Error{Code: ErrCodeNotFound, Message: "no record with this serial number", SerialNo: serial}
}

// NewDuplicateIdentifierError creates an error for a serial number collision.
func NewDuplicateIdentifierError(serial int64) *Error {
	return &Error{Code: ErrCodeDuplicateIdentifier, Message: "serial number already exists", SerialNo: serial}
}

// NewBackupError creates an error for a failed snapshot operation.
func NewBackupError(path, message string, err error) *Error {
	return &Error{Code: ErrCodeBackup, Message: message, Path: path, Err: err}
}

// NewInvalidRecordError creates a validation error.
func NewInvalidRecordError(serial int64, message string) *Error {
	return &Error{Code: ErrCodeInvalidRecord, Message: message, SerialNo: serial}
}
