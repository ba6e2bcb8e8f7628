package wetlib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

var (
	ErrSyncInProgress     = errors.New("a sync pass is already in progress")
	ErrDownloadInProgress = errors.New("an area download is already in progress")
	ErrOffline            = errors.New("cannot reach the remote API while offline")

	ErrAreaNotFound   = errors.New("cached area not found")
	ErrRecordNotFound = errors.New("record not found on remote")

	ErrInsufficientDiskSpace = errors.New("insufficient disk space for area download")
)

// NetworkError marks a failed remote call. It is transient: queued actions
// are retried on a later pass and tile fetches are skipped, never fatal.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("network: %s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("network: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StorageError marks a failed local read or write. It is fatal for the
// operation that issued it and must propagate to the caller.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage: %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ValidationError marks input rejected before any I/O happened.
type ValidationError struct {
	Subject string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Subject, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// netErr wraps err as a NetworkError unless it already is one.
func netErr(op, url string, err error) error {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return err
	}
	return &NetworkError{Op: op, URL: url, Err: err}
}

// storeErr wraps err as a StorageError unless it already is one.
func storeErr(op, key string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Key: key, Err: err}
}

// IsNetworkError reports whether err is (or wraps) a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// isTransient classifies an error as a likely connectivity problem rather
// than a permanent remote rejection. Used only for log texture; retry
// accounting is count-based regardless of category.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection reset",
		"connection refused",
		"broken pipe",
		"timeout",
		"no such host",
		"network is unreachable",
	} {
		if strings.Contains(s, pattern) {
			return true
		}
	}
	return false
}
