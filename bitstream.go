package grib2msm

import "github.com/pkg/errors"

// maxBitWidth bounds the per-value width of simple packing. A value spans at
// most five bytes, which keeps the extraction window inside a uint64.
const maxBitWidth = 32

// extractBits returns the nbits-wide unsigned integer that starts at bit
// offset off in buf. Bits are numbered MSB-first within each byte, so bit 0
// is the top bit of buf[0].
func extractBits(buf []byte, off, nbits int) (uint64, error) {
	if nbits == 0 {
		return 0, nil
	}
	if nbits < 0 || nbits > maxBitWidth {
		return 0, errors.Wrapf(ErrInvalidPacking, "bit width %d out of range 0..%d", nbits, maxBitWidth)
	}
	end := off + nbits
	if off < 0 || end > len(buf)*8 {
		return 0, errors.Wrapf(ErrTruncatedInput, "bits [%d,%d) overflow %d-byte buffer", off, end, len(buf))
	}
	first := off / 8
	last := (end - 1) / 8
	var window uint64
	for i := first; i <= last; i++ {
		window = window<<8 | uint64(buf[i])
	}
	// Drop the bits after end, then the bits before off.
	window >>= uint((last+1)*8 - end)
	return window & (1<<uint(nbits) - 1), nil
}
