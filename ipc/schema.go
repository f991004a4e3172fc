package ipc

import "fmt"

// FieldKind is the wire type of a table field.
type FieldKind int

const (
	FieldBool FieldKind = iota
	FieldUint8
	FieldInt32
	FieldUint32
	FieldUint64
	FieldFloat32
	FieldString
	FieldStringVector
	FieldFloat32Vector
	FieldUint8Vector
	FieldUint16Vector
	FieldUint32Vector
	// FieldColor is an inline struct of four float32 values.
	FieldColor
	// FieldTableVector is a vector of nested tables described by Field.Elem.
	FieldTableVector
)

var fieldKindNames = [...]string{
	FieldBool:          "bool",
	FieldUint8:         "uint8",
	FieldInt32:         "int32",
	FieldUint32:        "uint32",
	FieldUint64:        "uint64",
	FieldFloat32:       "float32",
	FieldString:        "string",
	FieldStringVector:  "[string]",
	FieldFloat32Vector: "[float32]",
	FieldUint8Vector:   "[uint8]",
	FieldUint16Vector:  "[uint16]",
	FieldUint32Vector:  "[uint32]",
	FieldColor:         "color",
	FieldTableVector:   "[table]",
}

func (k FieldKind) String() string {
	if int(k) >= 0 && int(k) < len(fieldKindNames) {
		return fieldKindNames[k]
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// isOffset reports whether the field is stored out of line and must be
// created before its table is started.
func (k FieldKind) isOffset() bool {
	switch k {
	case FieldString, FieldStringVector, FieldFloat32Vector, FieldUint8Vector,
		FieldUint16Vector, FieldUint32Vector, FieldTableVector:
		return true
	}
	return false
}

// Field describes one slot of a table.
type Field struct {
	Name string
	Slot int
	Kind FieldKind
	// Optional fields are written whenever present in Values, including
	// when equal to the default, and are omitted from decoded Values when
	// absent on the wire.
	Optional bool
	// Elem describes the element table of a FieldTableVector.
	Elem *Schema
}

// Schema describes a table as an ordered list of fields.
type Schema struct {
	Name   string
	Fields []Field
}

// NumSlots returns the vtable size needed for the schema.
func (s *Schema) NumSlots() int {
	n := 0
	for _, f := range s.Fields {
		if f.Slot+1 > n {
			n = f.Slot + 1
		}
	}
	return n
}

// Field returns the field with the given name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Color is the inline four-float struct used for RGBA colors.
type Color [4]float32

// Values holds the field values of one table keyed by field name.
//
// Encoding accepts the Go type matching the field kind. Integer kinds also
// accept int and are range checked. Decoding always yields the exact type:
// bool, uint8, int32, uint32, uint64, float32, string, []string, []float32,
// []uint8, []uint16, []uint32, Color, []Values.
type Values map[string]any
