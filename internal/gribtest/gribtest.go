// Package gribtest assembles synthetic GRIB2 messages for tests.
// Builders return complete sections (length prefix included) that Message
// concatenates between an indicator and the "7777" end marker.
package gribtest

import (
	"encoding/binary"
	"math"
	"time"
)

// Section prefixes body with the 4-byte length and section number.
func Section(num byte, body ...[]byte) []byte {
	n := 5
	for _, b := range body {
		n += len(b)
	}
	out := make([]byte, 5, n)
	binary.BigEndian.PutUint32(out, uint32(n))
	out[4] = num
	for _, b := range body {
		out = append(out, b...)
	}
	return out
}

// Indicator returns section 0 for discipline 0, edition 2.
func Indicator(total uint64) []byte {
	b := []byte{'G', 'R', 'I', 'B', 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0}
	binary.BigEndian.PutUint64(b[8:], total)
	return b
}

// Message wraps sections with a correct indicator and the end marker.
func Message(sections ...[]byte) []byte {
	var body []byte
	for _, s := range sections {
		body = append(body, s...)
	}
	total := uint64(16 + len(body) + 4)
	out := append(Indicator(total), body...)
	return append(out, "7777"...)
}

// Identification returns section 1 for JMA (center 34) at ref.
func Identification(ref time.Time) []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint16(b[0:], 34)
	b[4] = 2 // master table version
	b[6] = 1 // start of forecast
	binary.BigEndian.PutUint16(b[7:], uint16(ref.Year()))
	b[9] = byte(ref.Month())
	b[10] = byte(ref.Day())
	b[11] = byte(ref.Hour())
	b[12] = byte(ref.Minute())
	b[13] = byte(ref.Second())
	b[15] = 1 // forecast products
	return Section(1, b)
}

// LocalUse returns section 2 carrying body.
func LocalUse(body []byte) []byte { return Section(2, body) }

// Grid describes a GDT 3.0 grid in microdegrees.
type Grid struct {
	Ni, Nj         uint32
	La1, Lo1       int32
	La2, Lo2       int32
	Di, Dj         uint32
	ScanMode       byte
	NumPoints      uint32 // 0 means Ni*Nj
	TemplateNumber uint16
}

// LatLon returns section 3 for g.
func LatLon(g Grid) []byte {
	hdr := make([]byte, 9)
	np := g.NumPoints
	if np == 0 {
		np = g.Ni * g.Nj
	}
	binary.BigEndian.PutUint32(hdr[1:], np)
	binary.BigEndian.PutUint16(hdr[7:], g.TemplateNumber)

	t := make([]byte, 58)
	t[0] = 6 // spherical earth, radius 6371229 m
	fill(t[1:16], 0xFF)
	binary.BigEndian.PutUint32(t[16:], g.Ni)
	binary.BigEndian.PutUint32(t[20:], g.Nj)
	binary.BigEndian.PutUint32(t[32:], SignMagnitude32(g.La1))
	binary.BigEndian.PutUint32(t[36:], uint32(g.Lo1))
	t[40] = 0x30
	binary.BigEndian.PutUint32(t[41:], SignMagnitude32(g.La2))
	binary.BigEndian.PutUint32(t[45:], uint32(g.Lo2))
	binary.BigEndian.PutUint32(t[49:], g.Di)
	binary.BigEndian.PutUint32(t[53:], g.Dj)
	t[57] = g.ScanMode
	return Section(3, hdr, t)
}

// MSMSurface is the 481×505 MSM surface grid (47.6N..22.4N, 120E..150E).
var MSMSurface = Grid{
	Ni: 481, Nj: 505,
	La1: 47600000, Lo1: 120000000,
	La2: 22400000, Lo2: 150000000,
	Di: 62500, Dj: 50000,
}

// Product describes a PDT 4.0 or 4.8 product.
type Product struct {
	Category, Number byte
	TimeUnit         byte // code table 4.4, 1 = hour
	ForecastTime     uint32
	SurfaceType      byte
	SurfaceScale     int8
	SurfaceValue     uint32
	End              time.Time   // 4.8 only
	Ranges           []TimeRange // 4.8 only
}

// TimeRange is one PDT 4.8 time-range entry.
type TimeRange struct {
	Process byte
	Unit    byte
	Length  uint32
}

func (p Product) common() []byte {
	b := make([]byte, 25)
	b[0] = p.Category
	b[1] = p.Number
	b[2] = 2   // forecast
	b[4] = 255 // forecast process
	b[8] = p.TimeUnit
	binary.BigEndian.PutUint32(b[9:], p.ForecastTime)
	b[13] = p.SurfaceType
	b[14] = byte(SignMagnitude8(p.SurfaceScale))
	binary.BigEndian.PutUint32(b[15:], p.SurfaceValue)
	b[19] = 255
	return b
}

// Instantaneous returns section 4 with PDT 4.0.
func Instantaneous(p Product) []byte {
	return Section(4, []byte{0, 0, 0, 0}, p.common())
}

// Statistical returns section 4 with PDT 4.8 and its time ranges.
func Statistical(p Product) []byte {
	ext := make([]byte, 12)
	binary.BigEndian.PutUint16(ext[0:], uint16(p.End.Year()))
	ext[2] = byte(p.End.Month())
	ext[3] = byte(p.End.Day())
	ext[4] = byte(p.End.Hour())
	ext[5] = byte(p.End.Minute())
	ext[6] = byte(p.End.Second())
	ext[7] = byte(len(p.Ranges))
	var ranges []byte
	for _, r := range p.Ranges {
		tr := make([]byte, 12)
		tr[0] = r.Process
		tr[1] = 2
		tr[2] = r.Unit
		binary.BigEndian.PutUint32(tr[3:], r.Length)
		tr[7] = 255
		ranges = append(ranges, tr...)
	}
	return Section(4, []byte{0, 0, 0, 8}, p.common(), ext, ranges)
}

// Packing describes DRT 5.0 parameters.
type Packing struct {
	NumPoints      uint32
	Reference      float32
	BinaryScale    int16
	DecimalScale   int16
	Bits           byte
	TemplateNumber uint16
}

// SimplePacking returns section 5 with DRT 5.0.
func SimplePacking(p Packing) []byte {
	hdr := make([]byte, 6)
	binary.BigEndian.PutUint32(hdr, p.NumPoints)
	binary.BigEndian.PutUint16(hdr[4:], p.TemplateNumber)
	t := make([]byte, 10)
	binary.BigEndian.PutUint32(t, math.Float32bits(p.Reference))
	binary.BigEndian.PutUint16(t[4:], SignMagnitude16(p.BinaryScale))
	binary.BigEndian.PutUint16(t[6:], SignMagnitude16(p.DecimalScale))
	t[8] = p.Bits
	return Section(5, hdr, t)
}

// NoBitmap returns section 6 with indicator 255.
func NoBitmap() []byte { return Section(6, []byte{255}) }

// Bitmap returns section 6 with indicator 0 and the given bits.
func Bitmap(bits []byte) []byte { return Section(6, []byte{0}, bits) }

// Data returns section 7 carrying payload.
func Data(payload []byte) []byte { return Section(7, payload) }

// Pack writes each value in nbits, MSB-first, back to back.
func Pack(vals []uint64, nbits int) []byte {
	out := make([]byte, (len(vals)*nbits+7)/8)
	pos := 0
	for _, v := range vals {
		for b := nbits - 1; b >= 0; b-- {
			if v>>uint(b)&1 == 1 {
				out[pos/8] |= 0x80 >> uint(pos%8)
			}
			pos++
		}
	}
	return out
}

// SignMagnitude8 encodes v with the sign in the top bit.
func SignMagnitude8(v int8) uint8 {
	if v < 0 {
		return 0x80 | uint8(-int16(v))
	}
	return uint8(v)
}

// SignMagnitude16 encodes v with the sign in the top bit.
func SignMagnitude16(v int16) uint16 {
	if v < 0 {
		return 0x8000 | uint16(-int32(v))
	}
	return uint16(v)
}

// SignMagnitude32 encodes v with the sign in the top bit.
func SignMagnitude32(v int32) uint32 {
	if v < 0 {
		return 0x80000000 | uint32(-int64(v))
	}
	return uint32(v)
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
