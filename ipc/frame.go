// Package ipc implements the viewer wire format: size-prefixed FlatBuffers
// envelopes, a schema-driven table codec, and array chunking.
package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame size constants.
const (
	// MaxFrameSize is the maximum frame size (16 MiB), including length prefix.
	MaxFrameSize = 16 * 1024 * 1024
	// MaxPayloadSize is the maximum envelope size (MaxFrameSize - 4 bytes).
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
)

// FrameErrorKind classifies frame decoding errors.
type FrameErrorKind int

const (
	// FrameErrorPartial indicates a truncated or incomplete frame.
	FrameErrorPartial FrameErrorKind = iota
	// FrameErrorTooLarge indicates a frame exceeding MaxFrameSize.
	FrameErrorTooLarge
	// FrameErrorDecode indicates an envelope or table that could not be decoded.
	FrameErrorDecode
)

func (k FrameErrorKind) String() string {
	switch k {
	case FrameErrorPartial:
		return "partial"
	case FrameErrorTooLarge:
		return "too_large"
	case FrameErrorDecode:
		return "decode"
	default:
		return fmt.Sprintf("FrameErrorKind(%d)", int(k))
	}
}

// FrameError represents a frame decoding error.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the stream cannot continue after this error.
// Partial and oversized frames leave the reader out of sync.
func (e *FrameError) IsFatal() bool {
	return e.Kind == FrameErrorPartial || e.Kind == FrameErrorTooLarge
}

// IsFatalFrameError returns true if the error is a fatal frame error.
func IsFatalFrameError(err error) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.IsFatal()
	}
	return false
}

// FrameDecoder reads length-prefixed envelopes from a stream.
type FrameDecoder struct {
	reader io.Reader
}

// NewFrameDecoder creates a new frame decoder.
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{reader: r}
}

// ReadFrame reads a single frame from the stream.
// Returns the envelope bytes without the length prefix.
//
// Errors:
//   - io.EOF: stream ended cleanly (no more frames)
//   - *FrameError with Kind=FrameErrorPartial: incomplete frame (fatal)
//   - *FrameError with Kind=FrameErrorTooLarge: frame exceeds limit (fatal)
func (d *FrameDecoder) ReadFrame() ([]byte, error) {
	var lengthBuf [LengthPrefixSize]byte
	_, err := io.ReadFull(d.reader, lengthBuf[:])
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read length prefix",
			Err:  err,
		}
	}

	payloadSize := binary.LittleEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", payloadSize, MaxPayloadSize),
		}
	}

	payload := make([]byte, payloadSize)
	_, err = io.ReadFull(d.reader, payload)
	if err != nil {
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read payload",
			Err:  err,
		}
	}

	return payload, nil
}

// SplitFrame validates the length prefix of a complete frame and returns
// the envelope bytes that follow it.
func SplitFrame(frame []byte) ([]byte, error) {
	if len(frame) < LengthPrefixSize {
		return nil, &FrameError{Kind: FrameErrorPartial, Msg: "frame shorter than length prefix"}
	}
	size := binary.LittleEndian.Uint32(frame[:LengthPrefixSize])
	if size > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", size, MaxPayloadSize),
		}
	}
	rest := frame[LengthPrefixSize:]
	if uint32(len(rest)) != size {
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  fmt.Sprintf("length prefix %d does not match payload size %d", size, len(rest)),
		}
	}
	return rest, nil
}
