package ipc

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// Envelope is a decoded root table.
type Envelope struct {
	// Tag is the union discriminant.
	Tag uint8
	// Data is the payload table. HasData is false when the envelope carries
	// only a tag.
	Data    flatbuffers.Table
	HasData bool
}

// DecodeEnvelope parses envelope bytes (without the length prefix).
// Malformed input is reported as a FrameErrorDecode.
func DecodeEnvelope(payload []byte) (env Envelope, err error) {
	defer recoverDecode(&err, "envelope")

	if len(payload) < flatbuffers.SizeUOffsetT {
		return Envelope{}, &FrameError{Kind: FrameErrorDecode, Msg: "envelope too short"}
	}
	root := flatbuffers.Table{
		Bytes: payload,
		Pos:   flatbuffers.GetUOffsetT(payload),
	}
	if int(root.Pos) >= len(payload) {
		return Envelope{}, &FrameError{Kind: FrameErrorDecode, Msg: "root offset out of range"}
	}

	if o := root.Offset(slotOffset(0)); o != 0 {
		env.Tag = root.GetUint8(flatbuffers.UOffsetT(o) + root.Pos)
	}
	if o := root.Offset(slotOffset(1)); o != 0 {
		root.Union(&env.Data, flatbuffers.UOffsetT(o))
		env.HasData = true
	}
	return env, nil
}

// DecodeFrame parses a complete size-prefixed frame.
func DecodeFrame(frame []byte) (Envelope, error) {
	payload, err := SplitFrame(frame)
	if err != nil {
		return Envelope{}, err
	}
	return DecodeEnvelope(payload)
}

// DecodeTable reads every field of schema from tab. Absent required fields
// decode to their defaults; absent optional fields are left out.
func DecodeTable(schema *Schema, tab flatbuffers.Table) (values Values, err error) {
	defer recoverDecode(&err, schema.Name)

	values = make(Values, len(schema.Fields))
	for _, f := range schema.Fields {
		o := flatbuffers.UOffsetT(tab.Offset(slotOffset(f.Slot)))
		if o == 0 {
			if !f.Optional {
				values[f.Name] = zeroValue(f.Kind)
			}
			continue
		}
		v, err := decodeField(tab, f, o)
		if err != nil {
			return nil, err
		}
		values[f.Name] = v
	}
	return values, nil
}

func decodeField(tab flatbuffers.Table, f Field, o flatbuffers.UOffsetT) (any, error) {
	switch f.Kind {
	case FieldBool:
		return tab.GetBool(o + tab.Pos), nil
	case FieldUint8:
		return tab.GetUint8(o + tab.Pos), nil
	case FieldInt32:
		return tab.GetInt32(o + tab.Pos), nil
	case FieldUint32:
		return tab.GetUint32(o + tab.Pos), nil
	case FieldUint64:
		return tab.GetUint64(o + tab.Pos), nil
	case FieldFloat32:
		return tab.GetFloat32(o + tab.Pos), nil
	case FieldString:
		return tab.String(o + tab.Pos), nil
	case FieldColor:
		var c Color
		x := o + tab.Pos
		for i := range c {
			c[i] = tab.GetFloat32(x + flatbuffers.UOffsetT(i*flatbuffers.SizeFloat32))
		}
		return c, nil
	}

	n := tab.VectorLen(o)
	start := tab.Vector(o)
	if err := checkVector(tab, f, start, n); err != nil {
		return nil, err
	}
	switch f.Kind {
	case FieldUint8Vector:
		out := make([]uint8, n)
		copy(out, tab.Bytes[start:])
		return out, nil
	case FieldStringVector:
		out := make([]string, n)
		for i := range out {
			out[i] = tab.String(start + flatbuffers.UOffsetT(i*flatbuffers.SizeUOffsetT))
		}
		return out, nil
	case FieldFloat32Vector:
		out := make([]float32, n)
		for i := range out {
			out[i] = tab.GetFloat32(start + flatbuffers.UOffsetT(i*flatbuffers.SizeFloat32))
		}
		return out, nil
	case FieldUint16Vector:
		out := make([]uint16, n)
		for i := range out {
			out[i] = tab.GetUint16(start + flatbuffers.UOffsetT(i*flatbuffers.SizeUint16))
		}
		return out, nil
	case FieldUint32Vector:
		out := make([]uint32, n)
		for i := range out {
			out[i] = tab.GetUint32(start + flatbuffers.UOffsetT(i*flatbuffers.SizeUint32))
		}
		return out, nil
	case FieldTableVector:
		out := make([]Values, n)
		for i := range out {
			pos := tab.Indirect(start + flatbuffers.UOffsetT(i*flatbuffers.SizeUOffsetT))
			elem, err := DecodeTable(f.Elem, flatbuffers.Table{Bytes: tab.Bytes, Pos: pos})
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	}
	return nil, &FrameError{Kind: FrameErrorDecode, Msg: fmt.Sprintf("unsupported field kind %s", f.Kind)}
}

// checkVector rejects a vector whose declared length runs past the end of
// the buffer, before anything is allocated for it.
func checkVector(tab flatbuffers.Table, f Field, start flatbuffers.UOffsetT, n int) error {
	size := vectorElemSize(f.Kind)
	avail := len(tab.Bytes) - int(start)
	if n < 0 || avail < 0 || n > avail/size {
		return &FrameError{
			Kind: FrameErrorDecode,
			Msg:  fmt.Sprintf("%s: vector of %d elements exceeds the %d remaining bytes", f.Name, n, max(avail, 0)),
		}
	}
	return nil
}

func vectorElemSize(k FieldKind) int {
	switch k {
	case FieldUint8Vector:
		return 1
	case FieldUint16Vector:
		return flatbuffers.SizeUint16
	case FieldFloat32Vector:
		return flatbuffers.SizeFloat32
	case FieldUint32Vector:
		return flatbuffers.SizeUint32
	default:
		return flatbuffers.SizeUOffsetT
	}
}

func zeroValue(k FieldKind) any {
	switch k {
	case FieldBool:
		return false
	case FieldUint8:
		return uint8(0)
	case FieldInt32:
		return int32(0)
	case FieldUint32:
		return uint32(0)
	case FieldUint64:
		return uint64(0)
	case FieldFloat32:
		return float32(0)
	case FieldString:
		return ""
	case FieldStringVector:
		return []string(nil)
	case FieldFloat32Vector:
		return []float32(nil)
	case FieldUint8Vector:
		return []uint8(nil)
	case FieldUint16Vector:
		return []uint16(nil)
	case FieldUint32Vector:
		return []uint32(nil)
	case FieldColor:
		return Color{}
	case FieldTableVector:
		return []Values(nil)
	}
	return nil
}

// slotOffset converts a field slot to its vtable offset.
func slotOffset(slot int) flatbuffers.VOffsetT {
	return flatbuffers.VOffsetT(4 + 2*slot)
}

// recoverDecode turns out-of-bounds panics from the FlatBuffers accessors
// into decode errors.
func recoverDecode(err *error, what string) {
	if r := recover(); r != nil {
		*err = &FrameError{
			Kind: FrameErrorDecode,
			Msg:  fmt.Sprintf("malformed %s", what),
			Err:  fmt.Errorf("%v", r),
		}
	}
}
