package capture

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for storage failure classification.
var (
	// ErrPermissionDenied indicates a permission failure (EACCES, 403).
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound indicates the target path or object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDiskFull indicates storage is out of space (ENOSPC).
	ErrDiskFull = errors.New("no space left on device")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrThrottled indicates rate limiting (429, SlowDown).
	ErrThrottled = errors.New("rate limited")

	// ErrAuth indicates missing or expired credentials.
	ErrAuth = errors.New("authentication failed")

	// ErrAccessDenied indicates valid credentials without permission.
	ErrAccessDenied = errors.New("access denied")

	// ErrNetwork indicates a network-level failure.
	ErrNetwork = errors.New("network error")

	// ErrUnclassified is the kind of storage errors matching no other class.
	ErrUnclassified = errors.New("storage error")
)

// ErrSessionNotFound is returned when a capture session has no records.
var ErrSessionNotFound = errors.New("capture session not found")

// StorageError wraps a storage failure with its classification.
type StorageError struct {
	// Kind is one of the sentinel errors above.
	Kind error
	// Op is "init", "write" or "read".
	Op string
	// Path is the dataset or snapshot involved, if any.
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("capture %s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("capture %s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is matches the classification sentinel.
func (e *StorageError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func wrapError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Kind: classifyError(err), Op: op, Path: path, Err: err}
}

// WrapWriteError classifies a write failure. Returns nil if err is nil.
func WrapWriteError(err error, path string) error {
	return wrapError("write", path, err)
}

// WrapReadError classifies a read failure. Returns nil if err is nil.
func WrapReadError(err error, path string) error {
	return wrapError("read", path, err)
}

// WrapInitError classifies a dataset or backend setup failure.
func WrapInitError(err error, dataset string) error {
	return wrapError("init", dataset, err)
}

func classifyError(err error) error {
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return ErrTimeout
	}

	msg := strings.ToLower(err.Error())
	has := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(msg, strings.ToLower(s)) {
				return true
			}
		}
		return false
	}

	switch {
	case has("permission denied", "EACCES"):
		return ErrPermissionDenied
	case has("AccessDenied", "access denied", "Forbidden", "403"):
		return ErrAccessDenied
	case has("no such file", "does not exist", "not found", "ENOENT", "404", "NoSuchKey", "NoSuchBucket"):
		return ErrNotFound
	case has("no space left", "disk full", "ENOSPC", "quota exceeded"):
		return ErrDiskFull
	case has("timeout", "timed out", "deadline exceeded"):
		return ErrTimeout
	case has("SlowDown", "rate exceeded", "throttl", "429", "TooManyRequests"):
		return ErrThrottled
	case has("NoCredentialProviders", "credentials", "InvalidAccessKeyId",
		"SignatureDoesNotMatch", "ExpiredToken", "401", "Unauthorized"):
		return ErrAuth
	case has("connection refused", "no route to host", "network unreachable", "dial tcp"):
		return ErrNetwork
	default:
		return ErrUnclassified
	}
}
