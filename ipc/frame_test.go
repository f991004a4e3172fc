package ipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// encodeFrame prefixes a payload with its little-endian length.
func encodeFrame(payload []byte) []byte {
	buf := make([]byte, LengthPrefixSize+len(payload))
	binary.LittleEndian.PutUint32(buf[:LengthPrefixSize], uint32(len(payload)))
	copy(buf[LengthPrefixSize:], payload)
	return buf
}

func mustEnvelope(t testing.TB, tag uint8, schema *Schema, values Values) []byte {
	t.Helper()
	frame, err := EncodeEnvelope(tag, schema, values)
	if err != nil {
		t.Fatalf("EncodeEnvelope failed: %v", err)
	}
	return frame
}

func TestEncodeEnvelope_LengthPrefix(t *testing.T) {
	frame := mustEnvelope(t, 3, namedSchema, Values{"name": "Raw"})

	size := binary.LittleEndian.Uint32(frame[:LengthPrefixSize])
	if int(size) != len(frame)-LengthPrefixSize {
		t.Errorf("length prefix = %d, want %d", size, len(frame)-LengthPrefixSize)
	}
}

func TestFrameDecoder_MultipleFrames(t *testing.T) {
	names := []string{"first", "second", "third"}

	var buf bytes.Buffer
	for _, n := range names {
		buf.Write(mustEnvelope(t, 9, namedSchema, Values{"name": n}))
	}

	decoder := NewFrameDecoder(&buf)
	for i, want := range names {
		payload, err := decoder.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame %d failed: %v", i, err)
		}
		env, err := DecodeEnvelope(payload)
		if err != nil {
			t.Fatalf("DecodeEnvelope %d failed: %v", i, err)
		}
		if env.Tag != 9 {
			t.Errorf("frame %d: Tag = %d, want 9", i, env.Tag)
		}
		values, err := DecodeTable(namedSchema, env.Data)
		if err != nil {
			t.Fatalf("DecodeTable %d failed: %v", i, err)
		}
		if values["name"] != want {
			t.Errorf("frame %d: name = %v, want %q", i, values["name"], want)
		}
	}

	if _, err := decoder.ReadFrame(); err != io.EOF {
		t.Errorf("expected io.EOF after last frame, got: %v", err)
	}
}

func TestFrameDecoder_TagOnlyEnvelope(t *testing.T) {
	frame := mustEnvelope(t, 10, nil, nil)

	env, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if env.Tag != 10 {
		t.Errorf("Tag = %d, want 10", env.Tag)
	}
	if env.HasData {
		t.Error("HasData = true, want false for tag-only envelope")
	}
}

// TestFrameDecoder_PartialFrame validates fatal error for truncated frames.
func TestFrameDecoder_PartialFrame(t *testing.T) {
	frame := mustEnvelope(t, 9, namedSchema, Values{"name": "Truncated"})
	truncated := frame[:LengthPrefixSize+len(frame[LengthPrefixSize:])/2]

	decoder := NewFrameDecoder(bytes.NewReader(truncated))
	_, err := decoder.ReadFrame()
	if err == nil {
		t.Fatal("expected error for truncated frame")
	}
	if !IsFatalFrameError(err) {
		t.Errorf("expected fatal frame error, got: %v", err)
	}

	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("expected *FrameError, got %T", err)
	}
	if frameErr.Kind != FrameErrorPartial {
		t.Errorf("Kind = %v, want FrameErrorPartial", frameErr.Kind)
	}
}

// TestFrameDecoder_OversizedFrame validates that frames over the limit are rejected.
func TestFrameDecoder_OversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint32(MaxPayloadSize+1))

	decoder := NewFrameDecoder(&buf)
	_, err := decoder.ReadFrame()
	if err == nil {
		t.Fatal("expected error for oversized frame")
	}

	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("expected *FrameError, got %T", err)
	}
	if frameErr.Kind != FrameErrorTooLarge {
		t.Errorf("Kind = %v, want FrameErrorTooLarge", frameErr.Kind)
	}
	if !frameErr.IsFatal() {
		t.Error("FrameErrorTooLarge.IsFatal() should return true")
	}
}

func TestFrameDecoder_EmptyStream(t *testing.T) {
	decoder := NewFrameDecoder(bytes.NewReader(nil))
	if _, err := decoder.ReadFrame(); err != io.EOF {
		t.Errorf("expected io.EOF, got: %v", err)
	}
}

func TestFrameDecoder_TruncatedLengthPrefix(t *testing.T) {
	decoder := NewFrameDecoder(bytes.NewReader([]byte{0x00, 0x00}))
	_, err := decoder.ReadFrame()
	if err == nil {
		t.Fatal("expected error for truncated length prefix")
	}
	if !IsFatalFrameError(err) {
		t.Errorf("expected fatal frame error, got: %v", err)
	}
}

// TestDecodeEnvelope_Garbage validates that malformed envelopes are
// reported as non-fatal decode errors.
func TestDecodeEnvelope_Garbage(t *testing.T) {
	frame := encodeFrame([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF})

	decoder := NewFrameDecoder(bytes.NewReader(frame))
	payload, err := decoder.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}

	_, err = DecodeEnvelope(payload)
	if err == nil {
		t.Fatal("expected decode error for malformed envelope")
	}

	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("expected *FrameError, got %T", err)
	}
	if frameErr.Kind != FrameErrorDecode {
		t.Errorf("Kind = %v, want FrameErrorDecode", frameErr.Kind)
	}
	if IsFatalFrameError(err) {
		t.Error("decode errors should not be fatal")
	}
}

func TestSplitFrame_LengthMismatch(t *testing.T) {
	frame := mustEnvelope(t, 9, namedSchema, Values{"name": "x"})
	frame = append(frame, 0x00)

	_, err := SplitFrame(frame)
	var frameErr *FrameError
	if !errors.As(err, &frameErr) || frameErr.Kind != FrameErrorPartial {
		t.Errorf("SplitFrame error = %v, want FrameErrorPartial", err)
	}
}

func TestFrameError_ErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *FrameError
		contains string
	}{
		{
			name:     "partial without underlying error",
			err:      &FrameError{Kind: FrameErrorPartial, Msg: "truncated"},
			contains: "truncated",
		},
		{
			name: "partial with underlying error",
			err: &FrameError{
				Kind: FrameErrorPartial,
				Msg:  "read failed",
				Err:  io.ErrUnexpectedEOF,
			},
			contains: "unexpected EOF",
		},
		{
			name:     "oversized",
			err:      &FrameError{Kind: FrameErrorTooLarge, Msg: "payload too big"},
			contains: "too big",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			if !bytes.Contains([]byte(msg), []byte(tt.contains)) {
				t.Errorf("error message %q does not contain %q", msg, tt.contains)
			}
		})
	}
}

func TestFrameError_Unwrap(t *testing.T) {
	err := &FrameError{Kind: FrameErrorPartial, Msg: "test", Err: io.ErrUnexpectedEOF}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("Unwrap should allow errors.Is to find underlying error")
	}
}

func TestIsFatalFrameError_NonFrameError(t *testing.T) {
	if IsFatalFrameError(errors.New("regular error")) {
		t.Error("regular errors should not be fatal frame errors")
	}
	if IsFatalFrameError(nil) {
		t.Error("nil should not be a fatal frame error")
	}
	if IsFatalFrameError(io.EOF) {
		t.Error("io.EOF should not be a fatal frame error")
	}
}
