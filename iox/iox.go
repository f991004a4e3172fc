// Package iox provides small I/O helpers shared by the client, bundle
// reader and notification adapters.
package iox

import (
	"fmt"
	"io"
	"os"
)

// DiscardClose closes c and drops the error. Use it in defers where a
// close failure changes nothing:
//
//	defer iox.DiscardClose(conn)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc returns a func that closes c, for t.Cleanup registration.
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// TooLargeError reports input that exceeds a read limit.
type TooLargeError struct {
	Name  string
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s exceeds %d bytes", e.Name, e.Limit)
}

// ReadAllLimit reads r to EOF, failing once more than limit bytes arrive.
// name labels the source in the error.
func ReadAllLimit(r io.Reader, name string, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, &TooLargeError{Name: name, Limit: limit}
	}
	return b, nil
}

// ReadFileLimit reads the file at path, refusing files over limit bytes.
func ReadFileLimit(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer DiscardClose(f)
	return ReadAllLimit(f, path, limit)
}

// Drain reads and discards at most limit bytes from rc, then closes it.
// HTTP bodies drained this way let the transport reuse the connection.
func Drain(rc io.ReadCloser, limit int64) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, limit))
	_ = rc.Close()
}
