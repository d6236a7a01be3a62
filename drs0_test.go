package grib2msm

import (
	"errors"
	"math"
	"testing"

	"github.com/geal-ai/grib2msm/internal/gribtest"
)

func TestUnpackSimpleFormula(t *testing.T) {
	// Y = (R + X*2^E) / 10^D with R=100, E=-1, D=1
	p := SimplePacking{Reference: 100, BinaryScale: -1, DecimalScale: 1, Bits: 8}
	got, err := unpackSimple(gribtest.Pack([]uint64{0, 1, 10, 255}, 8), p, 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{10, 10.05, 10.5, 22.75}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("[%d]: got %v, want %v", i, got[i], want[i])
		}
	}
}

// Pack physical values with simple packing and check they decode within the
// quantisation step.
func TestUnpackSimpleRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		nbits int
		E, D  int
	}{
		{"12bit", 12, 0, 1},
		{"16bit-negE", 16, -3, 0},
		{"10bit-negD", 10, 2, -1},
		{"7bit", 7, -2, 2},
		{"24bit", 24, -8, 2},
	}
	phys := []float64{273.15, 250.0, 301.7, 288.8, 260.25, 275.5, 299.9}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			R := math.Inf(1)
			for _, v := range phys {
				R = math.Min(R, v*math.Pow10(tc.D))
			}
			R = float64(float32(R))
			scaleE := math.Ldexp(1, tc.E)
			maxX := uint64(1)<<uint(tc.nbits) - 1
			xs := make([]uint64, len(phys))
			for i, v := range phys {
				x := math.Round((v*math.Pow10(tc.D) - R) / scaleE)
				if x < 0 {
					x = 0
				}
				xs[i] = min(uint64(x), maxX)
			}
			p := SimplePacking{Reference: float32(R), BinaryScale: tc.E, DecimalScale: tc.D, Bits: tc.nbits}
			got, err := unpackSimple(gribtest.Pack(xs, tc.nbits), p, len(xs))
			if err != nil {
				t.Fatal(err)
			}
			for i, x := range xs {
				want := (R + float64(x)*scaleE) / math.Pow10(tc.D)
				if math.Abs(got[i]-want) > 1e-9*math.Max(1, math.Abs(want)) {
					t.Errorf("[%d]: got %v, want %v", i, got[i], want)
				}
			}
		})
	}
}

func TestUnpackSimpleConstant(t *testing.T) {
	p := SimplePacking{Reference: 1013, DecimalScale: 1}
	got, err := unpackSimple(nil, p, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 6 {
		t.Fatalf("len: got %d, want 6", len(got))
	}
	for i, v := range got {
		if v != 101.3 {
			t.Errorf("[%d]: got %v, want 101.3", i, v)
		}
	}
}

func TestUnpackSimpleShortPayload(t *testing.T) {
	p := SimplePacking{Bits: 12}
	_, err := unpackSimple(make([]byte, 5), p, 4) // 4 values x 12 bits need 6 bytes
	if !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("got %v, want ErrTruncatedInput", err)
	}
}

func TestUnpackSimpleBadWidth(t *testing.T) {
	if _, err := unpackSimple(make([]byte, 64), SimplePacking{Bits: 40}, 1); !errors.Is(err, ErrInvalidPacking) {
		t.Errorf("40 bits: got %v, want ErrInvalidPacking", err)
	}
	if _, err := unpackSimple(nil, SimplePacking{Bits: 8}, -1); !errors.Is(err, ErrInvalidPacking) {
		t.Errorf("negative count: got %v, want ErrInvalidPacking", err)
	}
}
