package grib2msm

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

// Has reports whether grid point i carries a packed value. Bits are MSB-first:
// point 0 is bit 7 of byte 0. Without an explicit bitmap every point does.
func (b BitmapSection) Has(i int) bool {
	if b.Indicator != bitmapPresent {
		return true
	}
	if i < 0 || i/8 >= len(b.Bitmap) {
		return false
	}
	return b.Bitmap[i/8]&(0x80>>uint(i%8)) != 0
}

// count returns the number of set bits among the first points positions.
func (b BitmapSection) count(points int) int {
	full := points / 8
	n := 0
	for _, x := range b.Bitmap[:full] {
		n += bits.OnesCount8(x)
	}
	if rem := points % 8; rem != 0 {
		n += bits.OnesCount8(b.Bitmap[full] & ^byte(0xFF>>uint(rem)))
	}
	return n
}

// applyBitmap spreads packed values (one per set bit) over a points-long
// grid. Unset points become NaN.
func applyBitmap(vals []float64, bm BitmapSection, points int) ([]float64, error) {
	if len(bm.Bitmap)*8 < points {
		return nil, errors.Wrapf(ErrTruncatedInput, "bitmap of %d bytes covers fewer than %d points",
			len(bm.Bitmap), points)
	}
	if set := bm.count(points); set != len(vals) {
		return nil, errors.Wrapf(ErrInvalidPacking, "bitmap has %d set bits for %d packed values", set, len(vals))
	}

	out := make([]float64, points)
	next := 0
	for i := range out {
		if !bm.Has(i) {
			out[i] = math.NaN()
			continue
		}
		out[i] = vals[next]
		next++
	}
	return out, nil
}
