package grib2msm

import (
	"math"

	"github.com/pkg/errors"
)

// unpackSimple decodes size values of DRT 5.0 (simple packing) from the
// section 7 payload. Value n occupies bits [n*Bits, (n+1)*Bits).
// Unpacking formula: Y = (R + X × 2^E) / 10^D
func unpackSimple(data []byte, p SimplePacking, size int) ([]float64, error) {
	if size < 0 {
		return nil, errors.Wrapf(ErrInvalidPacking, "negative value count %d", size)
	}
	if p.Bits < 0 || p.Bits > maxBitWidth {
		return nil, errors.Wrapf(ErrInvalidPacking, "bit width %d out of range 0..%d", p.Bits, maxBitWidth)
	}

	R := float64(p.Reference)
	scaleE := math.Ldexp(1.0, p.BinaryScale)
	scaleD := math.Pow10(p.DecimalScale)

	if p.Bits == 0 {
		// Constant field: all values equal R / 10^D
		result := make([]float64, size)
		v := R / scaleD
		for i := range result {
			result[i] = v
		}
		return result, nil
	}

	// Check the payload up front so a short buffer never costs an allocation.
	need := (int64(size)*int64(p.Bits) + 7) / 8
	if int64(len(data)) < need {
		return nil, errors.Wrapf(ErrTruncatedInput, "%d values of %d bits need %d bytes, payload has %d",
			size, p.Bits, need, len(data))
	}

	result := make([]float64, size)
	for n := range result {
		x, err := extractBits(data, n*p.Bits, p.Bits)
		if err != nil {
			return nil, errors.Wrapf(err, "value %d", n)
		}
		result[n] = (R + float64(x)*scaleE) / scaleD
	}
	return result, nil
}
