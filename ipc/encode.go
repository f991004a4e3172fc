package ipc

import (
	"fmt"
	"math"

	flatbuffers "github.com/google/flatbuffers/go"
)

// EncodeError reports a value that cannot be represented in its field.
type EncodeError struct {
	Table string
	Field string
	Msg   string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s.%s: %s", e.Table, e.Field, e.Msg)
}

// EncodeEnvelope encodes the root envelope for a union tag and its payload
// table and returns the size-prefixed frame. A nil schema encodes an
// envelope without a payload table.
//
// The output depends only on the inputs, so equal inputs give equal bytes.
func EncodeEnvelope(tag uint8, schema *Schema, values Values) ([]byte, error) {
	// Validation runs first so that a bad value never yields partial output.
	if schema != nil {
		if err := Validate(schema, values); err != nil {
			return nil, err
		}
	}

	b := flatbuffers.NewBuilder(1024)
	var data flatbuffers.UOffsetT
	if schema != nil {
		data = encodeTable(b, schema, values)
	}

	b.StartObject(2)
	if data != 0 {
		b.PrependUOffsetTSlot(1, data, 0)
	}
	b.PrependUint8Slot(0, tag, 0)
	root := b.EndObject()
	b.FinishSizePrefixed(root)

	return b.FinishedBytes(), nil
}

// Validate checks that every value in values has the type and range its
// field requires. Unknown names are rejected.
func Validate(schema *Schema, values Values) error {
	for name := range values {
		if _, ok := schema.Field(name); !ok {
			return &EncodeError{Table: schema.Name, Field: name, Msg: "unknown field"}
		}
	}
	for _, f := range schema.Fields {
		v, ok := values[f.Name]
		if !ok || v == nil {
			continue
		}
		if err := checkValue(schema, f, v); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(schema *Schema, f Field, v any) error {
	bad := func(msg string) error {
		return &EncodeError{Table: schema.Name, Field: f.Name, Msg: msg}
	}
	mismatch := func() error {
		return bad(fmt.Sprintf("%T is not a valid %s value", v, f.Kind))
	}

	switch f.Kind {
	case FieldBool:
		if _, ok := v.(bool); !ok {
			return mismatch()
		}
	case FieldUint8:
		switch x := v.(type) {
		case uint8:
		case int:
			if x < 0 || x > math.MaxUint8 {
				return bad(fmt.Sprintf("%d out of range for uint8", x))
			}
		default:
			return mismatch()
		}
	case FieldInt32:
		switch x := v.(type) {
		case int32:
		case int:
			if x < math.MinInt32 || x > math.MaxInt32 {
				return bad(fmt.Sprintf("%d out of range for int32", x))
			}
		default:
			return mismatch()
		}
	case FieldUint32:
		switch x := v.(type) {
		case uint32:
		case int:
			if x < 0 || uint64(x) > math.MaxUint32 {
				return bad(fmt.Sprintf("%d out of range for uint32", x))
			}
		default:
			return mismatch()
		}
	case FieldUint64:
		switch x := v.(type) {
		case uint64:
		case int:
			if x < 0 {
				return bad(fmt.Sprintf("%d out of range for uint64", x))
			}
		default:
			return mismatch()
		}
	case FieldFloat32:
		if _, ok := v.(float32); !ok {
			return mismatch()
		}
	case FieldString:
		if _, ok := v.(string); !ok {
			return mismatch()
		}
	case FieldStringVector:
		if _, ok := v.([]string); !ok {
			return mismatch()
		}
	case FieldFloat32Vector:
		if _, ok := v.([]float32); !ok {
			return mismatch()
		}
	case FieldUint8Vector:
		if _, ok := v.([]uint8); !ok {
			return mismatch()
		}
	case FieldUint16Vector:
		if _, ok := v.([]uint16); !ok {
			return mismatch()
		}
	case FieldUint32Vector:
		if _, ok := v.([]uint32); !ok {
			return mismatch()
		}
	case FieldColor:
		if _, ok := v.(Color); !ok {
			return mismatch()
		}
	case FieldTableVector:
		elems, ok := v.([]Values)
		if !ok {
			return mismatch()
		}
		if f.Elem == nil {
			return bad("table vector without element schema")
		}
		for _, e := range elems {
			if err := Validate(f.Elem, e); err != nil {
				return err
			}
		}
	default:
		return bad(fmt.Sprintf("unsupported field kind %s", f.Kind))
	}
	return nil
}

// encodeTable writes a table for already validated values and returns its
// offset. Out-of-line data is created first because FlatBuffers forbids
// nesting while a table is open.
func encodeTable(b *flatbuffers.Builder, schema *Schema, values Values) flatbuffers.UOffsetT {
	offsets := make(map[int]flatbuffers.UOffsetT)
	for _, f := range schema.Fields {
		v, ok := values[f.Name]
		if !ok || v == nil || !f.Kind.isOffset() {
			continue
		}
		offsets[f.Slot] = encodeOffsetField(b, f, v)
	}

	b.StartObject(schema.NumSlots())
	for _, f := range schema.Fields {
		v, ok := values[f.Name]
		if !ok || v == nil {
			continue
		}
		if f.Kind.isOffset() {
			b.PrependUOffsetTSlot(f.Slot, offsets[f.Slot], 0)
			continue
		}
		encodeScalarField(b, f, v)
	}
	return b.EndObject()
}

func encodeOffsetField(b *flatbuffers.Builder, f Field, v any) flatbuffers.UOffsetT {
	switch f.Kind {
	case FieldString:
		return b.CreateString(v.(string))
	case FieldStringVector:
		strs := v.([]string)
		offs := make([]flatbuffers.UOffsetT, len(strs))
		for i, s := range strs {
			offs[i] = b.CreateString(s)
		}
		return offsetVector(b, offs)
	case FieldFloat32Vector:
		data := v.([]float32)
		b.StartVector(flatbuffers.SizeFloat32, len(data), flatbuffers.SizeFloat32)
		for i := len(data) - 1; i >= 0; i-- {
			b.PrependFloat32(data[i])
		}
		return b.EndVector(len(data))
	case FieldUint8Vector:
		return b.CreateByteVector(v.([]uint8))
	case FieldUint16Vector:
		data := v.([]uint16)
		b.StartVector(flatbuffers.SizeUint16, len(data), flatbuffers.SizeUint16)
		for i := len(data) - 1; i >= 0; i-- {
			b.PrependUint16(data[i])
		}
		return b.EndVector(len(data))
	case FieldUint32Vector:
		data := v.([]uint32)
		b.StartVector(flatbuffers.SizeUint32, len(data), flatbuffers.SizeUint32)
		for i := len(data) - 1; i >= 0; i-- {
			b.PrependUint32(data[i])
		}
		return b.EndVector(len(data))
	case FieldTableVector:
		elems := v.([]Values)
		offs := make([]flatbuffers.UOffsetT, len(elems))
		for i, e := range elems {
			offs[i] = encodeTable(b, f.Elem, e)
		}
		return offsetVector(b, offs)
	}
	panic(fmt.Sprintf("ipc: %s is not an offset kind", f.Kind))
}

func offsetVector(b *flatbuffers.Builder, offs []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	b.StartVector(flatbuffers.SizeUOffsetT, len(offs), flatbuffers.SizeUOffsetT)
	for i := len(offs) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offs[i])
	}
	return b.EndVector(len(offs))
}

// encodeScalarField writes an inline field. Required fields equal to their
// default are omitted; optional fields are always written.
func encodeScalarField(b *flatbuffers.Builder, f Field, v any) {
	switch f.Kind {
	case FieldBool:
		x := v.(bool)
		if f.Optional {
			b.PrependBool(x)
			b.Slot(f.Slot)
			return
		}
		b.PrependBoolSlot(f.Slot, x, false)
	case FieldUint8:
		x := toUint8(v)
		if f.Optional {
			b.PrependUint8(x)
			b.Slot(f.Slot)
			return
		}
		b.PrependUint8Slot(f.Slot, x, 0)
	case FieldInt32:
		x := toInt32(v)
		if f.Optional {
			b.PrependInt32(x)
			b.Slot(f.Slot)
			return
		}
		b.PrependInt32Slot(f.Slot, x, 0)
	case FieldUint32:
		x := toUint32(v)
		if f.Optional {
			b.PrependUint32(x)
			b.Slot(f.Slot)
			return
		}
		b.PrependUint32Slot(f.Slot, x, 0)
	case FieldUint64:
		x := toUint64(v)
		if f.Optional {
			b.PrependUint64(x)
			b.Slot(f.Slot)
			return
		}
		b.PrependUint64Slot(f.Slot, x, 0)
	case FieldFloat32:
		x := v.(float32)
		if f.Optional {
			b.PrependFloat32(x)
			b.Slot(f.Slot)
			return
		}
		b.PrependFloat32Slot(f.Slot, x, 0)
	case FieldColor:
		c := v.(Color)
		b.Prep(flatbuffers.SizeFloat32, len(c)*flatbuffers.SizeFloat32)
		for i := len(c) - 1; i >= 0; i-- {
			b.PrependFloat32(c[i])
		}
		b.PrependStructSlot(f.Slot, b.Offset(), 0)
	default:
		panic(fmt.Sprintf("ipc: %s is not an inline kind", f.Kind))
	}
}

func toUint8(v any) uint8 {
	if x, ok := v.(int); ok {
		return uint8(x)
	}
	return v.(uint8)
}

func toInt32(v any) int32 {
	if x, ok := v.(int); ok {
		return int32(x)
	}
	return v.(int32)
}

func toUint32(v any) uint32 {
	if x, ok := v.(int); ok {
		return uint32(x)
	}
	return v.(uint32)
}

func toUint64(v any) uint64 {
	if x, ok := v.(int); ok {
		return uint64(x)
	}
	return v.(uint64)
}
