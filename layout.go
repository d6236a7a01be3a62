package grib2msm

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Kind selects how a FieldSpec's bytes are interpreted.
type Kind uint8

const (
	Unsigned      Kind = iota // unsigned integer, 1..8 bytes
	SignMagnitude             // GRIB2 signed integer: MSB is the sign, the rest is magnitude
	Float32                   // IEEE 754 single precision, 4 bytes
	Octets                    // raw bytes, kept verbatim
)

// FieldSpec declares one fixed-width field of a record.
// A nil Order means big-endian, the GRIB2 convention.
type FieldSpec struct {
	Name  string
	Width int
	Kind  Kind
	Order binary.ByteOrder
}

// Layout is an ordered list of fields read back to back.
type Layout []FieldSpec

// Size returns the number of bytes one record occupies.
func (l Layout) Size() int {
	n := 0
	for _, f := range l {
		n += f.Width
	}
	return n
}

// Extend returns a new layout with more appended after l.
func (l Layout) Extend(more ...FieldSpec) Layout {
	out := make(Layout, 0, len(l)+len(more))
	out = append(out, l...)
	return append(out, more...)
}

// Decode consumes exactly l.Size() bytes from c and splits them into fields.
// Nothing is consumed if the cursor cannot supply the whole record.
func (l Layout) Decode(c *Cursor) (Record, error) {
	raw, err := c.ReadExact(l.Size())
	if err != nil {
		return Record{}, err
	}
	rec := Record{fields: make(map[string]recordValue, len(l))}
	off := 0
	for _, f := range l {
		b := raw[off : off+f.Width]
		off += f.Width
		v := recordValue{kind: f.Kind, raw: b}
		switch f.Kind {
		case Unsigned, SignMagnitude:
			if f.Width < 1 || f.Width > 8 {
				return Record{}, errors.Errorf("field %q: integer width %d out of range 1..8", f.Name, f.Width)
			}
			v.bits = readUint(b, f.Order)
		case Float32:
			if f.Width != 4 {
				return Record{}, errors.Errorf("field %q: float width %d, want 4", f.Name, f.Width)
			}
			v.bits = readUint(b, f.Order)
		}
		rec.fields[f.Name] = v
	}
	return rec, nil
}

// readUint assembles an unsigned integer of len(b) bytes in the given order.
func readUint(b []byte, order binary.ByteOrder) uint64 {
	var v uint64
	if order == binary.LittleEndian {
		for i := len(b) - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}
		return v
	}
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

type recordValue struct {
	kind Kind
	raw  []byte
	bits uint64
}

// Record holds one decoded fixed-layout record, keyed by field name.
// Accessors return the zero value for names the layout did not declare.
type Record struct {
	fields map[string]recordValue
}

// Has reports whether the layout declared name.
func (r Record) Has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// Uint returns the field as an unsigned integer.
func (r Record) Uint(name string) uint64 { return r.fields[name].bits }

// Int returns the field as a signed integer, decoding sign-magnitude fields.
func (r Record) Int(name string) int64 {
	v, ok := r.fields[name]
	if !ok {
		return 0
	}
	if v.kind != SignMagnitude {
		return int64(v.bits)
	}
	return signMagnitude(v.bits, len(v.raw)*8)
}

// Float returns a Float32 field.
func (r Record) Float(name string) float32 {
	return math.Float32frombits(uint32(r.fields[name].bits))
}

// Bytes returns the verbatim bytes of any field.
func (r Record) Bytes(name string) []byte { return r.fields[name].raw }

// signMagnitude decodes a GRIB2 signed integer of the given bit width:
// the top bit is the sign, the remaining bits are the magnitude.
func signMagnitude(raw uint64, width int) int64 {
	sign := uint64(1) << (width - 1)
	mag := int64(raw &^ sign)
	if raw&sign != 0 {
		return -mag
	}
	return mag
}

// decodeScaleFactor decodes a GRIB2 sign-magnitude 2-byte scale factor.
func decodeScaleFactor(raw uint16) int {
	return int(signMagnitude(uint64(raw), 16))
}
