package grib2msm_test

import (
	"math"
	"os"
	"testing"

	"github.com/geal-ai/grib2msm"
)

// fixturePath is an MSM surface file (Lsurf_FH00-15) fetched with
// "msm fetch <run> Lsurf_FH00-15 --dir testdata" and renamed.
const fixturePath = "testdata/msm_lsurf.bin"

// TestFixtureDecode decodes a real MSM file when one is present.
func TestFixtureDecode(t *testing.T) {
	raw, err := os.ReadFile(fixturePath)
	if err != nil {
		t.Skipf("fixture not present (%v)", err)
	}
	msg, err := grib2msm.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.Identification.Center != 34 {
		t.Errorf("center: got %d, want 34 (Tokyo)", msg.Identification.Center)
	}
	g, ok := msg.Grid.Template.(*grib2msm.LatLonGrid)
	if !ok {
		t.Fatalf("grid template: got %T", msg.Grid.Template)
	}
	if g.Ni != 481 || g.Nj != 505 {
		t.Errorf("grid: got %dx%d, want 481x505", g.Ni, g.Nj)
	}
	if len(msg.Fields) == 0 {
		t.Fatal("no fields decoded")
	}
	for i := range msg.Fields {
		f := &msg.Fields[i]
		if len(f.Vals) != g.Ni*g.Nj {
			t.Fatalf("field %d: %d values", i, len(f.Vals))
		}
		cat, num := f.Parameter()
		if cat == 0 && num == 0 {
			// Surface temperature over Tokyo, in kelvin.
			v := f.Lookup(35.69, 139.69)
			if math.IsNaN(v) || v < 230 || v > 320 {
				t.Errorf("field %d: implausible TMP %v", i, v)
			}
		}
	}
}
