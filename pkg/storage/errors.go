package storage

import (
	"errors"
	"fmt"
)

// ErrorCode classifies storage failures into a closed set.
// Every adapter error is wrapped into exactly one of these codes.
type ErrorCode string

const (
	ErrCodeUploadFailed     ErrorCode = "UPLOAD_FAILED"
	ErrCodeDownloadFailed   ErrorCode = "DOWNLOAD_FAILED"
	ErrCodeFileNotFound     ErrorCode = "FILE_NOT_FOUND"
	ErrCodeDeleteFailed     ErrorCode = "DELETE_FAILED"
	ErrCodeInvalidConfig    ErrorCode = "INVALID_CONFIG"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrCodeBucketNotFound   ErrorCode = "BUCKET_NOT_FOUND"
	ErrCodeSignedURLFailed  ErrorCode = "SIGNED_URL_FAILED"
)

// StorageError carries an ErrorCode plus the underlying cause for diagnostics.
type StorageError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewError creates a StorageError without an underlying cause.
func NewError(code ErrorCode, message string) *StorageError {
	return &StorageError{Code: code, Message: message}
}

// WrapError creates a StorageError retaining the original cause.
func WrapError(code ErrorCode, message string, err error) *StorageError {
	return &StorageError{Code: code, Message: message, Err: err}
}

// IsCode reports whether err is (or wraps) a StorageError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
